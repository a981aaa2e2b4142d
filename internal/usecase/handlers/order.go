package handlers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/careline-ai/careline/internal/domain"
)

// orderHandler answers order status questions: a specific reference, or
// count/list/latest over optional status and date-range filters.
type orderHandler struct {
	store RecordStore
	now   func() time.Time
}

func (h *orderHandler) Intent() domain.Intent { return domain.IntentOrderStatus }

func (h *orderHandler) Handle(ctx context.Context, callerID, message string) (string, error) {
	ref := extractReference(message)
	status := extractStatus(message, domain.OrderStatuses)
	dr := parseDateRange(message, h.now())

	// A quoted reference outranks everything else.
	if ref != "" {
		order, err := h.store.OrderByReference(ctx, callerID, ref)
		if errors.Is(err, domain.ErrRecordNotFound) {
			return fmt.Sprintf("No order found with reference %s.", ref), nil
		}
		if err != nil {
			return "", fmt.Errorf("order lookup: %w", err)
		}
		return renderOrder(order), nil
	}

	switch {
	case wantsCount(message):
		n, err := h.store.CountOrders(ctx, callerID, status, dr)
		if err != nil {
			return "", fmt.Errorf("order count: %w", err)
		}
		return fmt.Sprintf("You have %d orders%s.", n, filterDetail(status, dr)), nil

	case wantsList(message):
		limit := parseLimit(message, defaultListLimit, hardMaxLimit)
		orders, err := h.store.ListOrders(ctx, callerID, status, dr, limit)
		if err != nil {
			return "", fmt.Errorf("order list: %w", err)
		}
		if len(orders) == 0 {
			return "No orders found for your criteria.", nil
		}
		var sb strings.Builder
		sb.WriteString("Here are the recent orders:\n")
		for _, o := range orders {
			fmt.Fprintf(&sb, "- %s | %s | %s | ETA %s\n",
				fmtDate(o.OrderedAt), o.Reference, o.Status, orderETA(o))
		}
		return strings.TrimRight(sb.String(), "\n"), nil

	case wantsLatest(message):
		order, err := h.store.LatestOrder(ctx, callerID, status, dr)
		if errors.Is(err, domain.ErrRecordNotFound) {
			return "No orders found for your criteria.", nil
		}
		if err != nil {
			return "", fmt.Errorf("latest order: %w", err)
		}
		return "Latest " + renderOrder(order), nil
	}

	// Default overview: count plus latest.
	n, err := h.store.CountOrders(ctx, callerID, status, dr)
	if err != nil {
		return "", fmt.Errorf("order count: %w", err)
	}
	if n == 0 {
		return "No orders found for your criteria.", nil
	}
	order, err := h.store.LatestOrder(ctx, callerID, status, dr)
	if err != nil {
		return "", fmt.Errorf("latest order: %w", err)
	}
	return fmt.Sprintf("You have %d orders%s. Latest: %s",
		n, filterDetail(status, dr), renderOrder(order)), nil
}

func renderOrder(o domain.Order) string {
	return fmt.Sprintf("order %s (%s) is '%s'. Expected delivery: %s.",
		o.Reference, o.Equipment, o.Status, orderETA(o))
}

func orderETA(o domain.Order) string {
	if o.ExpectedAt == nil {
		return "unknown"
	}
	return fmtDate(*o.ExpectedAt)
}

func filterDetail(status string, dr *domain.DateRange) string {
	var detail string
	if status != "" {
		detail = fmt.Sprintf(" with status '%s'", status)
	}
	if dr != nil {
		detail += " in the requested date range"
	}
	return detail
}
