package history

import (
	"context"
	"database/sql"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/careline-ai/careline/internal/db/sqlite"
	"github.com/careline-ai/careline/internal/domain"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sqlite.Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func turnAt(caller string, created time.Time) domain.ChatTurn {
	return domain.ChatTurn{
		CallerID:   caller,
		Message:    "where is my order",
		Answer:     "it shipped",
		Intent:     domain.IntentOrderStatus,
		DataSource: string(domain.IntentOrderStatus),
		CreatedAt:  created,
	}
}

func TestAppendAndList(t *testing.T) {
	repo := New(openTestDB(t))
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		if err := repo.Append(ctx, turnAt("c1", base.Add(time.Duration(i)*time.Minute))); err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
	}
	if err := repo.Append(ctx, turnAt("c2", base)); err != nil {
		t.Fatal(err)
	}

	turns, err := repo.List(ctx, "c1", 10, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(turns) != 3 {
		t.Fatalf("got %d turns, want 3", len(turns))
	}
	// Most recent first.
	if !turns[0].CreatedAt.After(turns[1].CreatedAt) {
		t.Error("turns not ordered newest first")
	}
	if turns[0].Intent != domain.IntentOrderStatus {
		t.Errorf("intent = %q", turns[0].Intent)
	}
}

func TestList_SameTimestampBreaksTiesByInsertion(t *testing.T) {
	repo := New(openTestDB(t))
	ctx := context.Background()
	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	first := turnAt("c1", at)
	first.Message = "first"
	second := turnAt("c1", at)
	second.Message = "second"

	if err := repo.Append(ctx, first); err != nil {
		t.Fatal(err)
	}
	if err := repo.Append(ctx, second); err != nil {
		t.Fatal(err)
	}

	turns, err := repo.List(ctx, "c1", 10, 0)
	if err != nil {
		t.Fatal(err)
	}
	if turns[0].Message != "second" {
		t.Errorf("newest = %q, want the later insertion", turns[0].Message)
	}
}

func TestList_LimitOffset(t *testing.T) {
	repo := New(openTestDB(t))
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		if err := repo.Append(ctx, turnAt("c1", base.Add(time.Duration(i)*time.Minute))); err != nil {
			t.Fatal(err)
		}
	}

	page, err := repo.List(ctx, "c1", 2, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(page) != 2 {
		t.Fatalf("got %d turns, want 2", len(page))
	}
	want := base.Add(2 * time.Minute)
	if !page[0].CreatedAt.Equal(want) {
		t.Errorf("page start = %v, want %v", page[0].CreatedAt, want)
	}
}

func TestAppend_ConcurrentSameCaller(t *testing.T) {
	repo := New(openTestDB(t))
	ctx := context.Background()
	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	var wg sync.WaitGroup
	errs := make(chan error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- repo.Append(ctx, turnAt("c1", at))
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("concurrent append: %v", err)
		}
	}

	turns, err := repo.List(ctx, "c1", 10, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(turns) != 2 {
		t.Fatalf("got %d turns, want 2", len(turns))
	}
	for _, turn := range turns {
		if turn.Message != "where is my order" || turn.Answer != "it shipped" {
			t.Errorf("turn corrupted: %+v", turn)
		}
		if turn.Intent != domain.IntentOrderStatus || turn.DataSource != string(domain.IntentOrderStatus) {
			t.Errorf("turn metadata corrupted: %+v", turn)
		}
	}
	if turns[0].ID == turns[1].ID {
		t.Error("concurrent appends share an id")
	}
}

func TestPurgeOlderThan(t *testing.T) {
	repo := New(openTestDB(t))
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	if err := repo.Append(ctx, turnAt("c1", base)); err != nil {
		t.Fatal(err)
	}
	if err := repo.Append(ctx, turnAt("c1", base.AddDate(0, 0, 10))); err != nil {
		t.Fatal(err)
	}

	n, err := repo.PurgeOlderThan(ctx, base.AddDate(0, 0, 5))
	if err != nil {
		t.Fatalf("purge: %v", err)
	}
	if n != 1 {
		t.Errorf("purged %d, want 1", n)
	}

	turns, _ := repo.List(ctx, "c1", 10, 0)
	if len(turns) != 1 {
		t.Errorf("%d turns remain, want 1", len(turns))
	}
}
