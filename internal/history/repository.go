// Package history provides access to the runs table for querying
// completed run records.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nerrad567/relay-sequencer/internal/engine"
)

// ErrNotFound is returned when no run record matches the requested id.
var ErrNotFound = errors.New("history: run not found")

// Run represents a single recorded run.
type Run struct {
	ID               string                   `json:"id"`
	Description      string                   `json:"description"`
	Outcome          string                   `json:"outcome"`
	StartedAt        time.Time                `json:"started_at"`
	CompletedAt      time.Time                `json:"completed_at"`
	EventsTotal      int                      `json:"events_total"`
	EventsDispatched int                      `json:"events_dispatched"`
	Failures         []engine.DispatchFailure `json:"failures,omitempty"`
}

// Filter controls which run records to return.
type Filter struct {
	Outcome string // optional: filter by outcome (completed, cancelled, partial)
	Limit   int    // default 50, max 200
	Offset  int    // pagination offset
}

// ListResult contains the paginated run history results.
type ListResult struct {
	Runs   []Run `json:"runs"`
	Total  int   `json:"total"`
	Limit  int   `json:"limit"`
	Offset int   `json:"offset"`
}

// Repository defines the interface for run history operations.
type Repository interface {
	Record(ctx context.Context, res engine.Result) error
	List(ctx context.Context, filter Filter) (*ListResult, error)
	Get(ctx context.Context, id string) (*Run, error)
}

// SQLiteRepository stores run records in SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new run history repository.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Record inserts the outcome of a finished run.
func (r *SQLiteRepository) Record(ctx context.Context, res engine.Result) error {
	failures := res.Failures
	if failures == nil {
		failures = []engine.DispatchFailure{}
	}
	failuresJSON, err := json.Marshal(failures)
	if err != nil {
		return fmt.Errorf("marshalling run failures: %w", err)
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO runs (id, description, outcome, started_at, completed_at, events_total, events_dispatched, failures)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		res.RunID, res.Description, string(res.Outcome),
		res.StartedAt.Format(time.RFC3339),
		res.CompletedAt.Format(time.RFC3339),
		res.EventsTotal, res.EventsDispatched,
		string(failuresJSON),
	)
	if err != nil {
		return fmt.Errorf("inserting run record: %w", err)
	}

	return nil
}

// List returns run records matching the filter, most recent first.
func (r *SQLiteRepository) List(ctx context.Context, filter Filter) (*ListResult, error) {
	// Clamp limit.
	if filter.Limit <= 0 {
		filter.Limit = 50
	}
	if filter.Limit > 200 { //nolint:mnd // max page size for history queries
		filter.Limit = 200
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	where := ""
	var args []any
	if filter.Outcome != "" {
		where = "WHERE outcome = ?"
		args = append(args, filter.Outcome)
	}

	// WHERE clause is built from parameterised conditions (? placeholders) — no user input in SQL string.
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM runs %s", where) //nolint:gosec // WHERE built from parameterised conditions, not user input
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("counting runs: %w", err)
	}

	query := fmt.Sprintf( //nolint:gosec // WHERE built from parameterised conditions, not user input
		"SELECT %s FROM runs %s ORDER BY started_at DESC LIMIT ? OFFSET ?",
		runColumns, where,
	)
	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows.Scan)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating runs: %w", err)
	}

	if runs == nil {
		runs = []Run{}
	}

	return &ListResult{
		Runs:   runs,
		Total:  total,
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}, nil
}

// Get returns a single run record by id.
func (r *SQLiteRepository) Get(ctx context.Context, id string) (*Run, error) {
	row := r.db.QueryRowContext(ctx,
		fmt.Sprintf("SELECT %s FROM runs WHERE id = ?", runColumns), id)

	run, err := scanRun(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return run, nil
}

// runColumns is the column list shared by List and Get so scanRun stays in
// sync with both queries.
const runColumns = "id, description, outcome, started_at, completed_at, events_total, events_dispatched, failures"

// scanRun scans one runs row using the provided Scan function.
func scanRun(scan func(dest ...any) error) (*Run, error) {
	var run Run
	var startedAt, completedAt, failuresJSON string

	if err := scan(&run.ID, &run.Description, &run.Outcome,
		&startedAt, &completedAt,
		&run.EventsTotal, &run.EventsDispatched, &failuresJSON); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning run record: %w", err)
	}

	var err error
	if run.StartedAt, err = parseTimestamp(startedAt); err != nil {
		return nil, fmt.Errorf("parsing run started_at %q: %w", startedAt, err)
	}
	if run.CompletedAt, err = parseTimestamp(completedAt); err != nil {
		return nil, fmt.Errorf("parsing run completed_at %q: %w", completedAt, err)
	}

	if failuresJSON != "" && failuresJSON != "[]" {
		var failures []engine.DispatchFailure
		if json.Unmarshal([]byte(failuresJSON), &failures) == nil {
			run.Failures = failures
		}
	}

	return &run, nil
}

// parseTimestamp accepts RFC3339 and the bare SQLite datetime format.
func parseTimestamp(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", strings.TrimSuffix(s, "Z"))
}
