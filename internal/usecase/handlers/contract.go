package handlers

import (
	"context"
	"time"

	"github.com/careline-ai/careline/internal/domain"
)

// RecordStore is the consumer interface over the domain record store. The
// handlers are its only reader; ticket creation and appointment scheduling
// are its only writes.
type RecordStore interface {
	OrderByReference(ctx context.Context, callerID, ref string) (domain.Order, error)
	CountOrders(ctx context.Context, callerID, status string, dr *domain.DateRange) (int, error)
	LatestOrder(ctx context.Context, callerID, status string, dr *domain.DateRange) (domain.Order, error)
	ListOrders(ctx context.Context, callerID, status string, dr *domain.DateRange, limit int) ([]domain.Order, error)

	InvoiceByReference(ctx context.Context, callerID, ref string) (domain.Invoice, error)
	CountInvoices(ctx context.Context, callerID, status string, dr *domain.DateRange) (int, error)
	OutstandingTotal(ctx context.Context, callerID string) (float64, error)
	LatestInvoice(ctx context.Context, callerID, status string, dr *domain.DateRange) (domain.Invoice, error)
	ListInvoices(ctx context.Context, callerID, status string, dr *domain.DateRange, limit int) ([]domain.Invoice, error)

	WarrantiesByEquipment(ctx context.Context, callerID, equipment string) ([]domain.Warranty, error)
	CountActiveWarranties(ctx context.Context, callerID string) (int, error)
	ListWarranties(ctx context.Context, callerID string, limit int) ([]domain.Warranty, error)
	LatestWarranty(ctx context.Context, callerID string) (domain.Warranty, error)

	CountAppointments(ctx context.Context, callerID string) (int, error)
	ListUpcomingAppointments(ctx context.Context, callerID string, from time.Time, limit int) ([]domain.Appointment, error)
	LatestAppointment(ctx context.Context, callerID string) (domain.Appointment, error)
	ScheduleAppointment(ctx context.Context, a domain.Appointment) (domain.Appointment, error)

	TicketByReference(ctx context.Context, callerID, ref string) (domain.Ticket, error)
	CountOpenTickets(ctx context.Context, callerID string) (int, error)
	ListTickets(ctx context.Context, callerID string, limit int) ([]domain.Ticket, error)
	CreateTicket(ctx context.Context, t domain.Ticket) (domain.Ticket, error)
}

// Handler answers messages for one business intent. A missing record renders
// a user-facing "not found" answer with a nil error; only infrastructure
// failures return an error.
type Handler interface {
	Intent() domain.Intent
	Handle(ctx context.Context, callerID, message string) (string, error)
}
