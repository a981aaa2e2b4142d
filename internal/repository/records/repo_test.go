package records

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/careline-ai/careline/internal/db/sqlite"
	"github.com/careline-ai/careline/internal/domain"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sqlite.Open(filepath.Join(t.TempDir(), "records.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func day(d int) time.Time {
	return time.Date(2026, 3, d, 0, 0, 0, 0, time.UTC)
}

func insertOrder(t *testing.T, db *sql.DB, caller, ref, status string, orderedAt time.Time) {
	t.Helper()
	_, err := db.Exec(
		"INSERT INTO orders (caller_id, reference, equipment, status, ordered_at) VALUES (?, ?, 'pump', ?, ?)",
		caller, ref, status, orderedAt)
	if err != nil {
		t.Fatalf("insert order: %v", err)
	}
}

func insertInvoice(t *testing.T, db *sql.DB, caller, ref, status string, amount float64, issuedAt time.Time) {
	t.Helper()
	_, err := db.Exec(
		"INSERT INTO invoices (caller_id, reference, amount, currency, status, issued_at) VALUES (?, ?, ?, 'USD', ?, ?)",
		caller, ref, amount, status, issuedAt)
	if err != nil {
		t.Fatalf("insert invoice: %v", err)
	}
}

// --- Orders ---

func TestOrderByReference(t *testing.T) {
	db := openTestDB(t)
	repo := New(db)
	ctx := context.Background()

	insertOrder(t, db, "c1", "ORD-1000", "shipped", day(1))

	o, err := repo.OrderByReference(ctx, "c1", "ORD-1000")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if o.Status != "shipped" || o.Equipment != "pump" {
		t.Errorf("order = %+v", o)
	}
	if o.ExpectedAt != nil {
		t.Error("expected nil ExpectedAt when the column is NULL")
	}

	// Another caller's order is invisible.
	if _, err := repo.OrderByReference(ctx, "c2", "ORD-1000"); !errors.Is(err, domain.ErrRecordNotFound) {
		t.Errorf("err = %v, want ErrRecordNotFound", err)
	}
}

func TestCountOrders_Filters(t *testing.T) {
	db := openTestDB(t)
	repo := New(db)
	ctx := context.Background()

	insertOrder(t, db, "c1", "ORD-1", "shipped", day(1))
	insertOrder(t, db, "c1", "ORD-2", "pending", day(5))
	insertOrder(t, db, "c1", "ORD-3", "shipped", day(10))
	insertOrder(t, db, "c2", "ORD-4", "shipped", day(10))

	n, err := repo.CountOrders(ctx, "c1", "", nil)
	if err != nil {
		t.Fatal(err)
	}
	if n != 3 {
		t.Errorf("count = %d, want 3", n)
	}

	n, _ = repo.CountOrders(ctx, "c1", "shipped", nil)
	if n != 2 {
		t.Errorf("shipped count = %d, want 2", n)
	}

	// Range is end-exclusive.
	dr := &domain.DateRange{From: day(1), To: day(10)}
	n, _ = repo.CountOrders(ctx, "c1", "", dr)
	if n != 2 {
		t.Errorf("ranged count = %d, want 2", n)
	}
}

func TestLatestOrder(t *testing.T) {
	db := openTestDB(t)
	repo := New(db)
	ctx := context.Background()

	if _, err := repo.LatestOrder(ctx, "c1", "", nil); !errors.Is(err, domain.ErrRecordNotFound) {
		t.Errorf("err = %v, want ErrRecordNotFound", err)
	}

	insertOrder(t, db, "c1", "ORD-1", "delivered", day(1))
	insertOrder(t, db, "c1", "ORD-2", "shipped", day(8))

	o, err := repo.LatestOrder(ctx, "c1", "", nil)
	if err != nil {
		t.Fatal(err)
	}
	if o.Reference != "ORD-2" {
		t.Errorf("latest = %q", o.Reference)
	}
}

func TestListOrders_OrderAndLimit(t *testing.T) {
	db := openTestDB(t)
	repo := New(db)
	ctx := context.Background()

	insertOrder(t, db, "c1", "ORD-1", "shipped", day(1))
	insertOrder(t, db, "c1", "ORD-2", "shipped", day(3))
	insertOrder(t, db, "c1", "ORD-3", "shipped", day(2))

	orders, err := repo.ListOrders(ctx, "c1", "", nil, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(orders) != 2 {
		t.Fatalf("got %d orders", len(orders))
	}
	if orders[0].Reference != "ORD-2" || orders[1].Reference != "ORD-3" {
		t.Errorf("order = %q, %q", orders[0].Reference, orders[1].Reference)
	}
}

// --- Invoices ---

func TestOutstandingTotal(t *testing.T) {
	db := openTestDB(t)
	repo := New(db)
	ctx := context.Background()

	insertInvoice(t, db, "c1", "INV-1", "pending", 100, day(1))
	insertInvoice(t, db, "c1", "INV-2", "overdue", 50.5, day(2))
	insertInvoice(t, db, "c1", "INV-3", "paid", 999, day(3))
	insertInvoice(t, db, "c2", "INV-4", "pending", 777, day(3))

	total, err := repo.OutstandingTotal(ctx, "c1")
	if err != nil {
		t.Fatal(err)
	}
	if total != 150.5 {
		t.Errorf("total = %g, want 150.5", total)
	}

	// No invoices sums to zero, not an error.
	total, err = repo.OutstandingTotal(ctx, "c3")
	if err != nil || total != 0 {
		t.Errorf("total = %g, err = %v", total, err)
	}
}

func TestInvoiceByReference(t *testing.T) {
	db := openTestDB(t)
	repo := New(db)
	ctx := context.Background()

	insertInvoice(t, db, "c1", "INV-1", "paid", 100, day(1))

	inv, err := repo.InvoiceByReference(ctx, "c1", "INV-1")
	if err != nil {
		t.Fatal(err)
	}
	if inv.Amount != 100 || inv.Currency != "USD" {
		t.Errorf("invoice = %+v", inv)
	}
}

// --- Warranties ---

func TestWarranties(t *testing.T) {
	db := openTestDB(t)
	repo := New(db)
	ctx := context.Background()

	mustExec := func(q string, args ...any) {
		t.Helper()
		if _, err := db.Exec(q, args...); err != nil {
			t.Fatal(err)
		}
	}
	mustExec("INSERT INTO warranties (caller_id, equipment, coverage, status, starts_at, ends_at) VALUES ('c1', 'ventilator', 'full', 'active', ?, ?)",
		day(1), day(20))
	mustExec("INSERT INTO warranties (caller_id, equipment, coverage, status, starts_at, ends_at) VALUES ('c1', 'monitor', 'parts', 'expired', ?, ?)",
		day(1), day(10))

	n, err := repo.CountActiveWarranties(ctx, "c1")
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("active = %d, want 1", n)
	}

	ws, err := repo.WarrantiesByEquipment(ctx, "c1", "ventilator")
	if err != nil {
		t.Fatal(err)
	}
	if len(ws) != 1 || ws[0].Coverage != "full" {
		t.Errorf("warranties = %+v", ws)
	}

	all, err := repo.ListWarranties(ctx, "c1", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 2 || all[0].Equipment != "monitor" {
		t.Errorf("list = %+v", all)
	}

	w, err := repo.LatestWarranty(ctx, "c1")
	if err != nil {
		t.Fatal(err)
	}
	if w.Equipment != "ventilator" {
		t.Errorf("latest = %q, want the furthest end date", w.Equipment)
	}
}

// --- Appointments ---

func TestAppointments(t *testing.T) {
	db := openTestDB(t)
	repo := New(db)
	ctx := context.Background()

	past, _ := repo.ScheduleAppointment(ctx, domain.Appointment{
		CallerID: "c1", Equipment: "pump", Status: "completed", ScheduledAt: day(1),
	})
	future, err := repo.ScheduleAppointment(ctx, domain.Appointment{
		CallerID: "c1", Equipment: "monitor", Status: "scheduled", ScheduledAt: day(20),
	})
	if err != nil {
		t.Fatal(err)
	}
	if future.ID == 0 || future.ID == past.ID {
		t.Errorf("ids = %d, %d", past.ID, future.ID)
	}

	upcoming, err := repo.ListUpcomingAppointments(ctx, "c1", day(10), 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(upcoming) != 1 || upcoming[0].Equipment != "monitor" {
		t.Errorf("upcoming = %+v", upcoming)
	}

	n, _ := repo.CountAppointments(ctx, "c1")
	if n != 2 {
		t.Errorf("count = %d, want 2", n)
	}

	latest, err := repo.LatestAppointment(ctx, "c1")
	if err != nil {
		t.Fatal(err)
	}
	if latest.ID != future.ID {
		t.Errorf("latest id = %d, want %d", latest.ID, future.ID)
	}
}

// --- Tickets ---

func TestTickets(t *testing.T) {
	db := openTestDB(t)
	repo := New(db)
	ctx := context.Background()

	created, err := repo.CreateTicket(ctx, domain.Ticket{
		CallerID: "c1", Reference: "TKT-000001", Subject: "pump alarm",
		Body: "the pump keeps alarming", Status: "open", Priority: "high",
		CreatedAt: day(5),
	})
	if err != nil {
		t.Fatal(err)
	}
	if created.ID == 0 {
		t.Error("missing ticket id")
	}

	got, err := repo.TicketByReference(ctx, "c1", "TKT-000001")
	if err != nil {
		t.Fatal(err)
	}
	if got.Subject != "pump alarm" || got.Priority != "high" {
		t.Errorf("ticket = %+v", got)
	}

	n, _ := repo.CountOpenTickets(ctx, "c1")
	if n != 1 {
		t.Errorf("open = %d, want 1", n)
	}

	tickets, err := repo.ListTickets(ctx, "c1", 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(tickets) != 1 {
		t.Errorf("got %d tickets", len(tickets))
	}
}

func TestTickets_DefaultPriority(t *testing.T) {
	db := openTestDB(t)
	repo := New(db)
	ctx := context.Background()

	// Rows inserted without a priority take the handler vocabulary's default.
	_, err := db.Exec(
		"INSERT INTO tickets (caller_id, reference, subject, body, created_at) VALUES ('c1', 'TKT-000002', 'noise', 'fan noise on startup', ?)",
		day(6))
	if err != nil {
		t.Fatal(err)
	}

	got, err := repo.TicketByReference(ctx, "c1", "TKT-000002")
	if err != nil {
		t.Fatal(err)
	}
	if got.Priority != "normal" {
		t.Errorf("priority = %q, want normal", got.Priority)
	}
}

func TestSeed_Idempotent(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	if err := Seed(ctx, db, "demo"); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := Seed(ctx, db, "demo"); err != nil {
		t.Fatalf("re-seed: %v", err)
	}

	repo := New(db)
	n, err := repo.CountOrders(ctx, "demo", "", nil)
	if err != nil {
		t.Fatal(err)
	}
	if n != 3 {
		t.Errorf("seeded orders = %d, want 3", n)
	}
}
