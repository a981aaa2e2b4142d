// Package records implements domain-record lookups over SQLite. It is the
// read side for the structured handlers plus the two writes the handlers may
// trigger (ticket creation, appointment scheduling).
package records

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/careline-ai/careline/internal/domain"
)

// Repo implements the record store consumed by usecase/handlers.
type Repo struct {
	db *sql.DB
}

// New creates a record repository.
func New(db *sql.DB) *Repo {
	return &Repo{db: db}
}

// storeErr wraps infrastructure failures so callers can distinguish them from
// the ErrRecordNotFound business outcome.
func storeErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, err, domain.ErrStoreUnavailable)
}

// filterClause appends optional status/date-range conditions to a WHERE
// clause scoped by caller_id.
func filterClause(dateCol, status string, dr *domain.DateRange, args []any) (string, []any) {
	var sb strings.Builder
	if status != "" {
		sb.WriteString(" AND status = ?")
		args = append(args, status)
	}
	if dr != nil {
		sb.WriteString(" AND " + dateCol + " >= ? AND " + dateCol + " < ?")
		args = append(args, dr.From, dr.To)
	}
	return sb.String(), args
}

// --- Orders ---

const orderCols = "id, caller_id, reference, equipment, status, ordered_at, expected_at"

func scanOrder(row interface{ Scan(...any) error }) (domain.Order, error) {
	var o domain.Order
	var expected sql.NullTime
	err := row.Scan(&o.ID, &o.CallerID, &o.Reference, &o.Equipment, &o.Status, &o.OrderedAt, &expected)
	if err != nil {
		return domain.Order{}, err
	}
	if expected.Valid {
		o.ExpectedAt = &expected.Time
	}
	return o, nil
}

// OrderByReference returns the caller's order with the given reference.
func (r *Repo) OrderByReference(ctx context.Context, callerID, ref string) (domain.Order, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+orderCols+" FROM orders WHERE caller_id = ? AND reference = ?",
		callerID, ref)
	o, err := scanOrder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Order{}, domain.ErrRecordNotFound
	}
	if err != nil {
		return domain.Order{}, storeErr("select order", err)
	}
	return o, nil
}

// CountOrders counts the caller's orders matching the optional filters.
func (r *Repo) CountOrders(ctx context.Context, callerID, status string, dr *domain.DateRange) (int, error) {
	clause, args := filterClause("ordered_at", status, dr, []any{callerID})
	var n int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM orders WHERE caller_id = ?"+clause, args...).Scan(&n)
	if err != nil {
		return 0, storeErr("count orders", err)
	}
	return n, nil
}

// LatestOrder returns the caller's most recent order matching the filters.
func (r *Repo) LatestOrder(ctx context.Context, callerID, status string, dr *domain.DateRange) (domain.Order, error) {
	clause, args := filterClause("ordered_at", status, dr, []any{callerID})
	row := r.db.QueryRowContext(ctx,
		"SELECT "+orderCols+" FROM orders WHERE caller_id = ?"+clause+
			" ORDER BY ordered_at DESC, id DESC LIMIT 1", args...)
	o, err := scanOrder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Order{}, domain.ErrRecordNotFound
	}
	if err != nil {
		return domain.Order{}, storeErr("select latest order", err)
	}
	return o, nil
}

// ListOrders returns the caller's most recent orders matching the filters.
func (r *Repo) ListOrders(
	ctx context.Context, callerID, status string, dr *domain.DateRange, limit int,
) ([]domain.Order, error) {
	clause, args := filterClause("ordered_at", status, dr, []any{callerID})
	args = append(args, limit)
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+orderCols+" FROM orders WHERE caller_id = ?"+clause+
			" ORDER BY ordered_at DESC, id DESC LIMIT ?", args...)
	if err != nil {
		return nil, storeErr("list orders", err)
	}
	defer rows.Close()

	var out []domain.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, storeErr("scan order", err)
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("list orders", err)
	}
	return out, nil
}

// --- Invoices ---

const invoiceCols = "id, caller_id, reference, amount, currency, status, issued_at, due_at"

func scanInvoice(row interface{ Scan(...any) error }) (domain.Invoice, error) {
	var inv domain.Invoice
	var due sql.NullTime
	err := row.Scan(&inv.ID, &inv.CallerID, &inv.Reference, &inv.Amount, &inv.Currency,
		&inv.Status, &inv.IssuedAt, &due)
	if err != nil {
		return domain.Invoice{}, err
	}
	if due.Valid {
		inv.DueAt = due.Time
	}
	return inv, nil
}

// InvoiceByReference returns the caller's invoice with the given reference.
func (r *Repo) InvoiceByReference(ctx context.Context, callerID, ref string) (domain.Invoice, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+invoiceCols+" FROM invoices WHERE caller_id = ? AND reference = ?",
		callerID, ref)
	inv, err := scanInvoice(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Invoice{}, domain.ErrRecordNotFound
	}
	if err != nil {
		return domain.Invoice{}, storeErr("select invoice", err)
	}
	return inv, nil
}

// CountInvoices counts the caller's invoices matching the optional filters.
func (r *Repo) CountInvoices(ctx context.Context, callerID, status string, dr *domain.DateRange) (int, error) {
	clause, args := filterClause("issued_at", status, dr, []any{callerID})
	var n int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM invoices WHERE caller_id = ?"+clause, args...).Scan(&n)
	if err != nil {
		return 0, storeErr("count invoices", err)
	}
	return n, nil
}

// OutstandingTotal sums the caller's pending and overdue invoice amounts.
func (r *Repo) OutstandingTotal(ctx context.Context, callerID string) (float64, error) {
	var total float64
	err := r.db.QueryRowContext(ctx,
		"SELECT COALESCE(SUM(amount), 0) FROM invoices WHERE caller_id = ? AND status IN ('pending', 'overdue')",
		callerID).Scan(&total)
	if err != nil {
		return 0, storeErr("sum invoices", err)
	}
	return total, nil
}

// LatestInvoice returns the caller's most recent invoice matching the filters.
func (r *Repo) LatestInvoice(ctx context.Context, callerID, status string, dr *domain.DateRange) (domain.Invoice, error) {
	clause, args := filterClause("issued_at", status, dr, []any{callerID})
	row := r.db.QueryRowContext(ctx,
		"SELECT "+invoiceCols+" FROM invoices WHERE caller_id = ?"+clause+
			" ORDER BY issued_at DESC, id DESC LIMIT 1", args...)
	inv, err := scanInvoice(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Invoice{}, domain.ErrRecordNotFound
	}
	if err != nil {
		return domain.Invoice{}, storeErr("select latest invoice", err)
	}
	return inv, nil
}

// ListInvoices returns the caller's most recent invoices matching the filters.
func (r *Repo) ListInvoices(
	ctx context.Context, callerID, status string, dr *domain.DateRange, limit int,
) ([]domain.Invoice, error) {
	clause, args := filterClause("issued_at", status, dr, []any{callerID})
	args = append(args, limit)
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+invoiceCols+" FROM invoices WHERE caller_id = ?"+clause+
			" ORDER BY issued_at DESC, id DESC LIMIT ?", args...)
	if err != nil {
		return nil, storeErr("list invoices", err)
	}
	defer rows.Close()

	var out []domain.Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, storeErr("scan invoice", err)
		}
		out = append(out, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("list invoices", err)
	}
	return out, nil
}

// --- Warranties ---

const warrantyCols = "id, caller_id, equipment, coverage, status, starts_at, ends_at"

func scanWarranty(row interface{ Scan(...any) error }) (domain.Warranty, error) {
	var w domain.Warranty
	err := row.Scan(&w.ID, &w.CallerID, &w.Equipment, &w.Coverage, &w.Status, &w.StartsAt, &w.EndsAt)
	return w, err
}

// WarrantiesByEquipment returns warranties covering the given equipment,
// soonest-expiring first.
func (r *Repo) WarrantiesByEquipment(ctx context.Context, callerID, equipment string) ([]domain.Warranty, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+warrantyCols+" FROM warranties WHERE caller_id = ? AND equipment = ? ORDER BY ends_at ASC",
		callerID, equipment)
	if err != nil {
		return nil, storeErr("list warranties by equipment", err)
	}
	defer rows.Close()
	return collectWarranties(rows)
}

// CountActiveWarranties counts the caller's active warranties.
func (r *Repo) CountActiveWarranties(ctx context.Context, callerID string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM warranties WHERE caller_id = ? AND status = 'active'",
		callerID).Scan(&n)
	if err != nil {
		return 0, storeErr("count warranties", err)
	}
	return n, nil
}

// ListWarranties returns the caller's warranties, soonest-expiring first.
func (r *Repo) ListWarranties(ctx context.Context, callerID string, limit int) ([]domain.Warranty, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+warrantyCols+" FROM warranties WHERE caller_id = ? ORDER BY ends_at ASC, id ASC LIMIT ?",
		callerID, limit)
	if err != nil {
		return nil, storeErr("list warranties", err)
	}
	defer rows.Close()
	return collectWarranties(rows)
}

// LatestWarranty returns the caller's warranty with the furthest end date.
func (r *Repo) LatestWarranty(ctx context.Context, callerID string) (domain.Warranty, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+warrantyCols+" FROM warranties WHERE caller_id = ? ORDER BY ends_at DESC, id DESC LIMIT 1",
		callerID)
	w, err := scanWarranty(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Warranty{}, domain.ErrRecordNotFound
	}
	if err != nil {
		return domain.Warranty{}, storeErr("select latest warranty", err)
	}
	return w, nil
}

func collectWarranties(rows *sql.Rows) ([]domain.Warranty, error) {
	var out []domain.Warranty
	for rows.Next() {
		w, err := scanWarranty(rows)
		if err != nil {
			return nil, storeErr("scan warranty", err)
		}
		out = append(out, w)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("list warranties", err)
	}
	return out, nil
}

// --- Appointments ---

const appointmentCols = "id, caller_id, equipment, status, scheduled_at, notes"

func scanAppointment(row interface{ Scan(...any) error }) (domain.Appointment, error) {
	var a domain.Appointment
	err := row.Scan(&a.ID, &a.CallerID, &a.Equipment, &a.Status, &a.ScheduledAt, &a.Notes)
	return a, err
}

// CountAppointments counts the caller's appointments.
func (r *Repo) CountAppointments(ctx context.Context, callerID string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM appointments WHERE caller_id = ?", callerID).Scan(&n)
	if err != nil {
		return 0, storeErr("count appointments", err)
	}
	return n, nil
}

// ListUpcomingAppointments returns appointments from the given instant
// onward, earliest first.
func (r *Repo) ListUpcomingAppointments(
	ctx context.Context, callerID string, from time.Time, limit int,
) ([]domain.Appointment, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+appointmentCols+" FROM appointments WHERE caller_id = ? AND scheduled_at >= ?"+
			" ORDER BY scheduled_at ASC, id ASC LIMIT ?",
		callerID, from, limit)
	if err != nil {
		return nil, storeErr("list appointments", err)
	}
	defer rows.Close()

	var out []domain.Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, storeErr("scan appointment", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("list appointments", err)
	}
	return out, nil
}

// LatestAppointment returns the caller's most recently scheduled appointment.
func (r *Repo) LatestAppointment(ctx context.Context, callerID string) (domain.Appointment, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+appointmentCols+" FROM appointments WHERE caller_id = ?"+
			" ORDER BY scheduled_at DESC, id DESC LIMIT 1", callerID)
	a, err := scanAppointment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Appointment{}, domain.ErrRecordNotFound
	}
	if err != nil {
		return domain.Appointment{}, storeErr("select latest appointment", err)
	}
	return a, nil
}

// ScheduleAppointment inserts a new appointment and returns it with its ID.
func (r *Repo) ScheduleAppointment(ctx context.Context, a domain.Appointment) (domain.Appointment, error) {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO appointments (caller_id, equipment, status, scheduled_at, notes) VALUES (?, ?, ?, ?, ?)",
		a.CallerID, a.Equipment, a.Status, a.ScheduledAt, a.Notes)
	if err != nil {
		return domain.Appointment{}, storeErr("insert appointment", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return domain.Appointment{}, storeErr("appointment id", err)
	}
	a.ID = id
	return a, nil
}

// --- Tickets ---

const ticketCols = "id, caller_id, reference, subject, body, status, priority, created_at"

func scanTicket(row interface{ Scan(...any) error }) (domain.Ticket, error) {
	var t domain.Ticket
	err := row.Scan(&t.ID, &t.CallerID, &t.Reference, &t.Subject, &t.Body,
		&t.Status, &t.Priority, &t.CreatedAt)
	return t, err
}

// TicketByReference returns the caller's ticket with the given reference.
func (r *Repo) TicketByReference(ctx context.Context, callerID, ref string) (domain.Ticket, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+ticketCols+" FROM tickets WHERE caller_id = ? AND reference = ?",
		callerID, ref)
	t, err := scanTicket(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Ticket{}, domain.ErrRecordNotFound
	}
	if err != nil {
		return domain.Ticket{}, storeErr("select ticket", err)
	}
	return t, nil
}

// CountOpenTickets counts the caller's open or in-progress tickets.
func (r *Repo) CountOpenTickets(ctx context.Context, callerID string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM tickets WHERE caller_id = ? AND status IN ('open', 'in_progress')",
		callerID).Scan(&n)
	if err != nil {
		return 0, storeErr("count tickets", err)
	}
	return n, nil
}

// ListTickets returns the caller's most recent tickets.
func (r *Repo) ListTickets(ctx context.Context, callerID string, limit int) ([]domain.Ticket, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+ticketCols+" FROM tickets WHERE caller_id = ? ORDER BY created_at DESC, id DESC LIMIT ?",
		callerID, limit)
	if err != nil {
		return nil, storeErr("list tickets", err)
	}
	defer rows.Close()

	var out []domain.Ticket
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, storeErr("scan ticket", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("list tickets", err)
	}
	return out, nil
}

// CreateTicket inserts a new ticket and returns it with its ID.
func (r *Repo) CreateTicket(ctx context.Context, t domain.Ticket) (domain.Ticket, error) {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO tickets (caller_id, reference, subject, body, status, priority, created_at)"+
			" VALUES (?, ?, ?, ?, ?, ?, ?)",
		t.CallerID, t.Reference, t.Subject, t.Body, t.Status, t.Priority, t.CreatedAt)
	if err != nil {
		return domain.Ticket{}, storeErr("insert ticket", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return domain.Ticket{}, storeErr("ticket id", err)
	}
	t.ID = id
	return t, nil
}
