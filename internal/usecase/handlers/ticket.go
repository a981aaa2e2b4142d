package handlers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/careline-ai/careline/internal/domain"
)

// minComplaintLen is the shortest message accepted as a new ticket body.
// Shorter messages get a prompt for more detail instead of a ticket.
const minComplaintLen = 15

// ticketHandler answers support-ticket questions and opens new tickets
// from complaint messages.
type ticketHandler struct {
	store RecordStore
	now   func() time.Time
}

func (h *ticketHandler) Intent() domain.Intent { return domain.IntentSupportTicket }

func (h *ticketHandler) Handle(ctx context.Context, callerID, message string) (string, error) {
	if ref := extractReference(message); ref != "" {
		t, err := h.store.TicketByReference(ctx, callerID, ref)
		if errors.Is(err, domain.ErrRecordNotFound) {
			return fmt.Sprintf("No ticket found with reference %s.", ref), nil
		}
		if err != nil {
			return "", fmt.Errorf("ticket lookup: %w", err)
		}
		return fmt.Sprintf("Ticket %s ('%s') is %s with priority %s, opened %s.",
			t.Reference, t.Subject, t.Status, t.Priority, fmtDate(t.CreatedAt)), nil
	}

	switch {
	case wantsCount(message):
		n, err := h.store.CountOpenTickets(ctx, callerID)
		if err != nil {
			return "", fmt.Errorf("ticket count: %w", err)
		}
		return fmt.Sprintf("You have %d open tickets.", n), nil

	case wantsList(message):
		limit := parseLimit(message, defaultListLimit, hardMaxLimit)
		tickets, err := h.store.ListTickets(ctx, callerID, limit)
		if err != nil {
			return "", fmt.Errorf("ticket list: %w", err)
		}
		if len(tickets) == 0 {
			return "You have no tickets on record.", nil
		}
		var sb strings.Builder
		sb.WriteString("Recent tickets:\n")
		for _, t := range tickets {
			fmt.Fprintf(&sb, "- %s | %s | %s | %s\n",
				fmtDate(t.CreatedAt), t.Reference, t.Status, t.Subject)
		}
		return strings.TrimRight(sb.String(), "\n"), nil
	}

	return h.open(ctx, callerID, message)
}

// open files a new ticket from the complaint text.
func (h *ticketHandler) open(ctx context.Context, callerID, message string) (string, error) {
	body := strings.TrimSpace(message)
	if len(body) < minComplaintLen {
		return "Please describe the issue in a bit more detail so we can open a ticket for you.", nil
	}

	t, err := h.store.CreateTicket(ctx, domain.Ticket{
		CallerID:  callerID,
		Reference: newTicketReference(),
		Subject:   ticketSubject(body),
		Body:      body,
		Status:    "open",
		Priority:  ticketPriority(body),
		CreatedAt: h.now(),
	})
	if err != nil {
		return "", fmt.Errorf("create ticket: %w", err)
	}
	return fmt.Sprintf("Ticket %s has been created with priority %s. Our support team will reach out soon.",
		t.Reference, t.Priority), nil
}

// newTicketReference derives a short numeric suffix from a fresh UUID so
// references stay unique without a DB round trip.
func newTicketReference() string {
	id := uuid.New().ID()
	return fmt.Sprintf("TKT-%06d", id%1_000_000)
}

// ticketSubject takes the first sentence, capped for display.
func ticketSubject(body string) string {
	subject := body
	if i := strings.IndexAny(body, ".!?\n"); i > 0 {
		subject = body[:i]
	}
	if len(subject) > 80 {
		subject = subject[:80]
	}
	return strings.TrimSpace(subject)
}

func ticketPriority(body string) string {
	if containsAny(body, "urgent", "critical", "immediately", "emergency", "down", "not working") {
		return "high"
	}
	return "normal"
}
