package handlers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/careline-ai/careline/internal/domain"
)

// invoiceHandler answers billing questions: a specific reference,
// count/list/latest over filters, and the outstanding total.
type invoiceHandler struct {
	store RecordStore
	now   func() time.Time
}

func (h *invoiceHandler) Intent() domain.Intent { return domain.IntentInvoice }

func (h *invoiceHandler) Handle(ctx context.Context, callerID, message string) (string, error) {
	ref := extractReference(message)
	status := extractStatus(message, domain.InvoiceStatuses)
	dr := parseDateRange(message, h.now())

	if ref != "" {
		inv, err := h.store.InvoiceByReference(ctx, callerID, ref)
		if errors.Is(err, domain.ErrRecordNotFound) {
			return fmt.Sprintf("No invoice found with reference %s.", ref), nil
		}
		if err != nil {
			return "", fmt.Errorf("invoice lookup: %w", err)
		}
		return renderInvoice(inv), nil
	}

	switch {
	case wantsCount(message):
		n, err := h.store.CountInvoices(ctx, callerID, status, dr)
		if err != nil {
			return "", fmt.Errorf("invoice count: %w", err)
		}
		return fmt.Sprintf("You have %d invoices%s.", n, filterDetail(status, dr)), nil

	case wantsSum(message):
		total, err := h.store.OutstandingTotal(ctx, callerID)
		if err != nil {
			return "", fmt.Errorf("outstanding total: %w", err)
		}
		return fmt.Sprintf("Total outstanding amount is %.2f.", total), nil

	case wantsList(message):
		limit := parseLimit(message, defaultListLimit, hardMaxLimit)
		invs, err := h.store.ListInvoices(ctx, callerID, status, dr, limit)
		if err != nil {
			return "", fmt.Errorf("invoice list: %w", err)
		}
		if len(invs) == 0 {
			return "No invoices found for your criteria.", nil
		}
		var sb strings.Builder
		sb.WriteString("Here are the recent invoices:\n")
		for _, inv := range invs {
			fmt.Fprintf(&sb, "- %s | %s | %s | %.2f %s\n",
				fmtDate(inv.IssuedAt), inv.Reference, inv.Status, inv.Amount, inv.Currency)
		}
		return strings.TrimRight(sb.String(), "\n"), nil

	case wantsLatest(message):
		inv, err := h.store.LatestInvoice(ctx, callerID, status, dr)
		if errors.Is(err, domain.ErrRecordNotFound) {
			return "No invoices found for your criteria.", nil
		}
		if err != nil {
			return "", fmt.Errorf("latest invoice: %w", err)
		}
		return "Latest " + renderInvoice(inv), nil
	}

	// Default overview: pending count plus outstanding total.
	pending, err := h.store.CountInvoices(ctx, callerID, "pending", nil)
	if err != nil {
		return "", fmt.Errorf("invoice count: %w", err)
	}
	total, err := h.store.OutstandingTotal(ctx, callerID)
	if err != nil {
		return "", fmt.Errorf("outstanding total: %w", err)
	}
	return fmt.Sprintf("Pending invoices: %d. Total outstanding: %.2f.", pending, total), nil
}

func renderInvoice(inv domain.Invoice) string {
	return fmt.Sprintf("invoice %s dated %s is '%s' for %.2f %s.",
		inv.Reference, fmtDate(inv.IssuedAt), inv.Status, inv.Amount, inv.Currency)
}
