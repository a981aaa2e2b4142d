package records

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Seed loads demo fixtures for local runs. It is idempotent: if any order
// exists the database is assumed seeded and nothing is written.
func Seed(ctx context.Context, db *sql.DB, callerID string) error {
	var n int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM orders").Scan(&n); err != nil {
		return fmt.Errorf("probe seed state: %w", err)
	}
	if n > 0 {
		return nil
	}

	now := time.Now().UTC()
	day := 24 * time.Hour

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin seed: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	orders := []struct {
		ref, equipment, status string
		ordered, expected      time.Time
	}{
		{"ORD-1000", "Ultrasound Machine Pro 5000", "shipped", now.Add(-12 * day), now.Add(3 * day)},
		{"ORD-1001", "Digital X-Ray System DXR-3000", "pending", now.Add(-4 * day), now.Add(10 * day)},
		{"ORD-1002", "Patient Monitor PM-200", "delivered", now.Add(-40 * day), now.Add(-30 * day)},
	}
	for _, o := range orders {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO orders (caller_id, reference, equipment, status, ordered_at, expected_at) VALUES (?, ?, ?, ?, ?, ?)",
			callerID, o.ref, o.equipment, o.status, o.ordered, o.expected); err != nil {
			return fmt.Errorf("seed order %s: %w", o.ref, err)
		}
	}

	invoices := []struct {
		ref, status string
		amount      float64
		issued      time.Time
	}{
		{"INV-2001", "paid", 12500, now.Add(-60 * day)},
		{"INV-2002", "pending", 8400, now.Add(-15 * day)},
		{"INV-2003", "overdue", 3100, now.Add(-45 * day)},
	}
	for _, inv := range invoices {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO invoices (caller_id, reference, amount, currency, status, issued_at, due_at) VALUES (?, ?, ?, 'USD', ?, ?, ?)",
			callerID, inv.ref, inv.amount, inv.status, inv.issued, inv.issued.Add(30*day)); err != nil {
			return fmt.Errorf("seed invoice %s: %w", inv.ref, err)
		}
	}

	if _, err := tx.ExecContext(ctx,
		"INSERT INTO warranties (caller_id, equipment, coverage, status, starts_at, ends_at) VALUES (?, ?, ?, 'active', ?, ?)",
		callerID, "Ultrasound Machine Pro 5000", "Parts and labor", now.Add(-365*day), now.Add(365*day)); err != nil {
		return fmt.Errorf("seed warranty: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		"INSERT INTO appointments (caller_id, equipment, status, scheduled_at, notes) VALUES (?, ?, 'scheduled', ?, ?)",
		callerID, "Digital X-Ray System DXR-3000", now.Add(7*day), "Annual calibration"); err != nil {
		return fmt.Errorf("seed appointment: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		"INSERT INTO tickets (caller_id, reference, subject, body, status, priority, created_at) VALUES (?, 'TKT-3001', ?, ?, 'open', 'normal', ?)",
		callerID, "Monitor flickering", "Patient Monitor PM-200 screen flickers intermittently.", now.Add(-2*day)); err != nil {
		return fmt.Errorf("seed ticket: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit seed: %w", err)
	}
	return nil
}
