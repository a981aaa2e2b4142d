package handlers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/careline-ai/careline/internal/domain"
)

// appointmentHandler answers maintenance-visit questions and books new
// visits when the message carries a scheduling verb plus an ISO date.
type appointmentHandler struct {
	store RecordStore
	now   func() time.Time
}

func (h *appointmentHandler) Intent() domain.Intent { return domain.IntentAppointment }

func (h *appointmentHandler) Handle(ctx context.Context, callerID, message string) (string, error) {
	if containsAny(message, "schedule", "book", "arrange") {
		if when, ok := parseISODate(message); ok {
			return h.schedule(ctx, callerID, message, when)
		}
		return "To book a maintenance visit, please include a date in YYYY-MM-DD format.", nil
	}

	switch {
	case wantsCount(message):
		n, err := h.store.CountAppointments(ctx, callerID)
		if err != nil {
			return "", fmt.Errorf("appointment count: %w", err)
		}
		return fmt.Sprintf("You have %d appointments on record.", n), nil

	case wantsList(message):
		limit := parseLimit(message, defaultListLimit, hardMaxLimit)
		appts, err := h.store.ListUpcomingAppointments(ctx, callerID, h.now(), limit)
		if err != nil {
			return "", fmt.Errorf("appointment list: %w", err)
		}
		if len(appts) == 0 {
			return "You have no upcoming appointments.", nil
		}
		var sb strings.Builder
		sb.WriteString("Upcoming appointments:\n")
		for _, a := range appts {
			fmt.Fprintf(&sb, "- %s | %s | %s\n",
				fmtDate(a.ScheduledAt), a.Equipment, a.Status)
		}
		return strings.TrimRight(sb.String(), "\n"), nil

	case wantsLatest(message):
		a, err := h.store.LatestAppointment(ctx, callerID)
		if errors.Is(err, domain.ErrRecordNotFound) {
			return "You have no appointments on record.", nil
		}
		if err != nil {
			return "", fmt.Errorf("latest appointment: %w", err)
		}
		return fmt.Sprintf("Your most recent appointment is for %s on %s (%s).",
			a.Equipment, fmtDate(a.ScheduledAt), a.Status), nil
	}

	// Overview: next upcoming visit, if any.
	appts, err := h.store.ListUpcomingAppointments(ctx, callerID, h.now(), 1)
	if err != nil {
		return "", fmt.Errorf("appointment list: %w", err)
	}
	if len(appts) == 0 {
		return "You have no upcoming appointments. Say 'schedule maintenance on YYYY-MM-DD' to book one.", nil
	}
	next := appts[0]
	return fmt.Sprintf("Your next appointment is for %s on %s (%s).",
		next.Equipment, fmtDate(next.ScheduledAt), next.Status), nil
}

func (h *appointmentHandler) schedule(ctx context.Context, callerID, message string, when time.Time) (string, error) {
	if !when.After(startOfDay(h.now())) {
		return fmt.Sprintf("Cannot schedule an appointment in the past (%s). Please pick a future date.", fmtDate(when)), nil
	}

	equipment, ok := equipmentMention(message)
	if !ok {
		equipment = "general equipment"
	}
	appt, err := h.store.ScheduleAppointment(ctx, domain.Appointment{
		CallerID:    callerID,
		Equipment:   equipment,
		Status:      "scheduled",
		ScheduledAt: when,
		Notes:       strings.TrimSpace(message),
	})
	if err != nil {
		return "", fmt.Errorf("schedule appointment: %w", err)
	}
	return fmt.Sprintf("Appointment booked for %s on %s. A technician will be assigned shortly.",
		appt.Equipment, fmtDate(appt.ScheduledAt)), nil
}
