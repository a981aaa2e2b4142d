package handlers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/careline-ai/careline/internal/domain"
)

// warrantyHandler answers warranty and AMC coverage questions.
type warrantyHandler struct {
	store RecordStore
}

func (h *warrantyHandler) Intent() domain.Intent { return domain.IntentWarranty }

func (h *warrantyHandler) Handle(ctx context.Context, callerID, message string) (string, error) {
	if equipment, ok := equipmentMention(message); ok {
		warranties, err := h.store.WarrantiesByEquipment(ctx, callerID, equipment)
		if err != nil {
			return "", fmt.Errorf("warranty lookup: %w", err)
		}
		if len(warranties) == 0 {
			return fmt.Sprintf("No warranty found for %s.", equipment), nil
		}
		w := warranties[0]
		return fmt.Sprintf("Warranty for %s (%s) is '%s', valid %s to %s.",
			w.Equipment, w.Coverage, w.Status, fmtDate(w.StartsAt), fmtDate(w.EndsAt)), nil
	}

	switch {
	case wantsCount(message):
		n, err := h.store.CountActiveWarranties(ctx, callerID)
		if err != nil {
			return "", fmt.Errorf("warranty count: %w", err)
		}
		return fmt.Sprintf("You have %d active warranties.", n), nil

	case wantsList(message):
		limit := parseLimit(message, defaultListLimit, hardMaxLimit)
		warranties, err := h.store.ListWarranties(ctx, callerID, limit)
		if err != nil {
			return "", fmt.Errorf("warranty list: %w", err)
		}
		if len(warranties) == 0 {
			return "No warranties found.", nil
		}
		var sb strings.Builder
		sb.WriteString("Warranties:\n")
		for _, w := range warranties {
			fmt.Fprintf(&sb, "- %s | %s | %s to %s\n",
				w.Equipment, w.Status, fmtDate(w.StartsAt), fmtDate(w.EndsAt))
		}
		return strings.TrimRight(sb.String(), "\n"), nil

	case wantsLatest(message):
		w, err := h.store.LatestWarranty(ctx, callerID)
		if errors.Is(err, domain.ErrRecordNotFound) {
			return "No warranties found.", nil
		}
		if err != nil {
			return "", fmt.Errorf("latest warranty: %w", err)
		}
		return fmt.Sprintf("Most recent warranty covers %s from %s to %s with status '%s'.",
			w.Equipment, fmtDate(w.StartsAt), fmtDate(w.EndsAt), w.Status), nil
	}

	// Overview.
	n, err := h.store.CountActiveWarranties(ctx, callerID)
	if err != nil {
		return "", fmt.Errorf("warranty count: %w", err)
	}
	if n == 0 {
		return "You have no active warranties on record.", nil
	}
	return fmt.Sprintf("You have %d active warranties. Ask for a list to see coverage windows.", n), nil
}
