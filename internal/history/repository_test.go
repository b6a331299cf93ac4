package history

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/nerrad567/relay-sequencer/internal/engine"
)

const runsSchema = `
CREATE TABLE runs (
    id                TEXT PRIMARY KEY,
    description       TEXT NOT NULL,
    outcome           TEXT NOT NULL,
    started_at        TEXT NOT NULL,
    completed_at      TEXT NOT NULL,
    events_total      INTEGER NOT NULL,
    events_dispatched INTEGER NOT NULL,
    failures          TEXT NOT NULL DEFAULT '[]'
)`

func openTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()

	db, err := sql.Open("sqlite3", filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if _, err := db.Exec(runsSchema); err != nil {
		t.Fatalf("creating runs table: %v", err)
	}

	return NewSQLiteRepository(db)
}

func testResult(id string, outcome engine.RunOutcome) engine.Result {
	started := time.Date(2026, 8, 15, 9, 0, 0, 0, time.UTC)
	return engine.Result{
		RunID:            id,
		Description:      "germination lighting",
		Outcome:          outcome,
		StartedAt:        started,
		CompletedAt:      started.Add(90 * time.Second),
		EventsTotal:      7,
		EventsDispatched: 7,
	}
}

func TestRecordAndGet(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()

	res := testResult("run-abc12345", engine.OutcomeCompleted)
	res.Failures = []engine.DispatchFailure{
		{Timestamp: 20, Channel: 3, Name: "pump", Error: "write failed"},
	}

	if err := repo.Record(ctx, res); err != nil {
		t.Fatalf("Record() error = %v", err)
	}

	run, err := repo.Get(ctx, "run-abc12345")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}

	if run.Description != res.Description {
		t.Errorf("description = %q, want %q", run.Description, res.Description)
	}
	if run.Outcome != string(engine.OutcomeCompleted) {
		t.Errorf("outcome = %q", run.Outcome)
	}
	if !run.StartedAt.Equal(res.StartedAt) {
		t.Errorf("started_at = %v, want %v", run.StartedAt, res.StartedAt)
	}
	if run.EventsTotal != 7 || run.EventsDispatched != 7 {
		t.Errorf("event counts = %d/%d", run.EventsDispatched, run.EventsTotal)
	}
	if len(run.Failures) != 1 || run.Failures[0].Channel != 3 {
		t.Errorf("failures = %+v", run.Failures)
	}
}

func TestGet_NotFound(t *testing.T) {
	repo := openTestRepo(t)

	_, err := repo.Get(context.Background(), "run-missing1")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestList(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()

	outcomes := []engine.RunOutcome{
		engine.OutcomeCompleted,
		engine.OutcomeCancelled,
		engine.OutcomeCompleted,
	}
	for i, outcome := range outcomes {
		res := testResult("run-0000000"+string(rune('a'+i)), outcome)
		res.StartedAt = res.StartedAt.Add(time.Duration(i) * time.Hour)
		res.CompletedAt = res.StartedAt.Add(time.Minute)
		if err := repo.Record(ctx, res); err != nil {
			t.Fatalf("Record() error = %v", err)
		}
	}

	t.Run("all runs, most recent first", func(t *testing.T) {
		result, err := repo.List(ctx, Filter{})
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		if result.Total != 3 || len(result.Runs) != 3 {
			t.Fatalf("total = %d, len = %d", result.Total, len(result.Runs))
		}
		if result.Runs[0].ID != "run-0000000c" {
			t.Errorf("first run = %s, want most recent", result.Runs[0].ID)
		}
	})

	t.Run("filter by outcome", func(t *testing.T) {
		result, err := repo.List(ctx, Filter{Outcome: "cancelled"})
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		if result.Total != 1 || len(result.Runs) != 1 {
			t.Fatalf("total = %d, len = %d", result.Total, len(result.Runs))
		}
		if result.Runs[0].ID != "run-0000000b" {
			t.Errorf("run = %s", result.Runs[0].ID)
		}
	})

	t.Run("pagination", func(t *testing.T) {
		result, err := repo.List(ctx, Filter{Limit: 2, Offset: 2})
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		if result.Total != 3 {
			t.Errorf("total = %d, want 3", result.Total)
		}
		if len(result.Runs) != 1 {
			t.Errorf("len = %d, want 1", len(result.Runs))
		}
	})

	t.Run("empty result is a slice", func(t *testing.T) {
		result, err := repo.List(ctx, Filter{Outcome: "partial"})
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		if result.Runs == nil {
			t.Error("Runs should be an empty slice, not nil")
		}
	})
}
