// Package history implements the append-only chat history log. The
// resolution path can only append and list; retention purge is an
// administrative operation.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/careline-ai/careline/internal/domain"
)

// Repo implements the chat history store over SQLite.
type Repo struct {
	db *sql.DB
}

// New creates a history repository.
func New(db *sql.DB) *Repo {
	return &Repo{db: db}
}

// Append records one resolved turn. Single-statement insert, so a turn is
// either fully written or absent.
func (r *Repo) Append(ctx context.Context, turn domain.ChatTurn) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO chat_turns (caller_id, message, answer, intent, data_source, created_at)"+
			" VALUES (?, ?, ?, ?, ?, ?)",
		turn.CallerID, turn.Message, turn.Answer, string(turn.Intent), turn.DataSource, turn.CreatedAt)
	if err != nil {
		return fmt.Errorf("append turn: %w: %w", err, domain.ErrStoreUnavailable)
	}
	return nil
}

// List returns the caller's turns, most recent first. Ties on timestamp are
// broken by insertion order.
func (r *Repo) List(ctx context.Context, callerID string, limit, offset int) ([]domain.ChatTurn, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := r.db.QueryContext(ctx,
		"SELECT id, caller_id, message, answer, intent, data_source, created_at FROM chat_turns"+
			" WHERE caller_id = ? ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?",
		callerID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list turns: %w: %w", err, domain.ErrStoreUnavailable)
	}
	defer rows.Close()

	var out []domain.ChatTurn
	for rows.Next() {
		var t domain.ChatTurn
		var intent string
		if err := rows.Scan(&t.ID, &t.CallerID, &t.Message, &t.Answer, &intent, &t.DataSource, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan turn: %w: %w", err, domain.ErrStoreUnavailable)
		}
		t.Intent = domain.Intent(intent)
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list turns: %w: %w", err, domain.ErrStoreUnavailable)
	}
	return out, nil
}

// PurgeOlderThan deletes turns created before cutoff and returns the number
// removed. Administrative retention path only.
func (r *Repo) PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, "DELETE FROM chat_turns WHERE created_at < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("purge turns: %w: %w", err, domain.ErrStoreUnavailable)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("purge count: %w", err)
	}
	return n, nil
}
