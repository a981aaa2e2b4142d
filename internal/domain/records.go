package domain

import "time"

// Order statuses as stored in the record store.
var OrderStatuses = []string{"pending", "confirmed", "shipped", "delivered"}

// Invoice statuses as stored in the record store.
var InvoiceStatuses = []string{"pending", "paid", "overdue"}

// Order is a purchase order for a piece of equipment.
type Order struct {
	ID         int64
	CallerID   string
	Reference  string // e.g. ORD-1000
	Equipment  string
	Status     string
	OrderedAt  time.Time
	ExpectedAt *time.Time // nil when no delivery estimate exists
}

// Invoice is a billing record.
type Invoice struct {
	ID        int64
	CallerID  string
	Reference string // e.g. INV-2001
	Amount    float64
	Currency  string
	Status    string
	IssuedAt  time.Time
	DueAt     time.Time
}

// Warranty covers a piece of equipment for a date span.
type Warranty struct {
	ID        int64
	CallerID  string
	Equipment string
	Coverage  string
	Status    string // active, expired
	StartsAt  time.Time
	EndsAt    time.Time
}

// Appointment is a scheduled maintenance or service visit.
type Appointment struct {
	ID          int64
	CallerID    string
	Equipment   string
	Status      string // scheduled, in_progress, completed
	ScheduledAt time.Time
	Notes       string
}

// Ticket is a support ticket / complaint.
type Ticket struct {
	ID        int64
	CallerID  string
	Reference string // e.g. TKT-3001
	Subject   string
	Body      string
	Status    string // open, in_progress, resolved, closed
	Priority  string
	CreatedAt time.Time
}

// DateRange is a half-open [From, To) interval parsed from a message.
type DateRange struct {
	From time.Time
	To   time.Time
}
