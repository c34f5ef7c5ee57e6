package runlog

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nerrad567/parkrunner-core/internal/nav"
)

// Repository persists run history.
type Repository interface {
	Create(ctx context.Context, run *Run) error
	Finish(ctx context.Context, id string, outcome Outcome, errMsg string) error
	AppendAction(ctx context.Context, runID string, rec nav.ActionRecord, at time.Time) error
	AppendEvent(ctx context.Context, runID string, evt nav.Event) error

	// Get returns the run with its actions and events.
	Get(ctx context.Context, id string) (*Run, error)
	// List returns the most recent runs first, without actions or events.
	List(ctx context.Context, limit int) ([]Run, error)
}

// runColumns is the SELECT column list for run queries.
const runColumns = `id, robot_id, map_name, base, lots, path, cost,
			started_at, finished_at, outcome, error`

// defaultListLimit caps List when the caller passes a non-positive limit.
const defaultListLimit = 50

// timeFormat is fixed width so started_at sorts lexically.
const timeFormat = "2006-01-02T15:04:05.000Z07:00"

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLite-backed repository.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Create inserts a new run.
func (r *SQLiteRepository) Create(ctx context.Context, run *Run) error {
	lotsJSON, err := json.Marshal(nonNilInts(run.Lots))
	if err != nil {
		return fmt.Errorf("marshalling lots: %w", err)
	}
	pathJSON, err := json.Marshal(nonNilStrings(run.Path))
	if err != nil {
		return fmt.Errorf("marshalling path: %w", err)
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now().UTC()
	}
	if run.Outcome == "" {
		run.Outcome = OutcomeRunning
	}

	query := `
		INSERT INTO runs (
			id, robot_id, map_name, base, lots, path, cost,
			started_at, outcome
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = r.db.ExecContext(ctx, query,
		run.ID,
		run.RobotID,
		nullableString(run.MapName),
		nullableString(run.Base),
		string(lotsJSON),
		string(pathJSON),
		run.Cost,
		run.StartedAt.UTC().Format(timeFormat),
		string(run.Outcome),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return ErrRunExists
		}
		return fmt.Errorf("inserting run: %w", err)
	}
	return nil
}

// Finish records the outcome and finish time of a run.
func (r *SQLiteRepository) Finish(ctx context.Context, id string, outcome Outcome, errMsg string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE runs SET outcome = ?, error = ?, finished_at = ? WHERE id = ?`,
		string(outcome),
		nullableString(errMsg),
		time.Now().UTC().Format(timeFormat),
		id,
	)
	if err != nil {
		return fmt.Errorf("finishing run: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrRunNotFound
	}
	return nil
}

// AppendAction records a dispatched action.
func (r *SQLiteRepository) AppendAction(ctx context.Context, runID string, rec nav.ActionRecord, at time.Time) error {
	detail, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshalling action: %w", err)
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO run_actions (run_id, seq, kind, detail, dispatched_at) VALUES (?, ?, ?, ?, ?)`,
		runID, rec.Seq, string(rec.Kind), string(detail), at.UTC().Format(timeFormat),
	)
	if err != nil {
		return fmt.Errorf("inserting run action: %w", err)
	}
	return nil
}

// AppendEvent records an accepted event.
func (r *SQLiteRepository) AppendEvent(ctx context.Context, runID string, evt nav.Event) error {
	var distance any
	if evt.Kind == nav.ApproachingObject {
		distance = evt.Distance
	}
	at := evt.At
	if at.IsZero() {
		at = time.Now()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO run_events (run_id, kind, distance, occurred_at) VALUES (?, ?, ?, ?)`,
		runID, evt.Kind.String(), distance, at.UTC().Format(timeFormat),
	)
	if err != nil {
		return fmt.Errorf("inserting run event: %w", err)
	}
	return nil
}

// Get retrieves a run with its action and event log.
func (r *SQLiteRepository) Get(ctx context.Context, id string) (*Run, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	run, err := scanRunRow(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRunNotFound
		}
		return nil, fmt.Errorf("querying run: %w", err)
	}

	if run.Actions, err = r.actions(ctx, id); err != nil {
		return nil, err
	}
	if run.Events, err = r.events(ctx, id); err != nil {
		return nil, err
	}
	return run, nil
}

// List retrieves recent runs, newest first.
func (r *SQLiteRepository) List(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+runColumns+` FROM runs ORDER BY started_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		run, scanErr := scanRunRow(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("scanning run: %w", scanErr)
		}
		runs = append(runs, *run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating runs: %w", err)
	}
	return runs, nil
}

func (r *SQLiteRepository) actions(ctx context.Context, runID string) ([]ActionEntry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT seq, kind, detail, dispatched_at FROM run_actions WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("querying run actions: %w", err)
	}
	defer rows.Close()

	var out []ActionEntry
	for rows.Next() {
		var e ActionEntry
		var kind, detail, at string
		if err := rows.Scan(&e.Seq, &kind, &detail, &at); err != nil {
			return nil, fmt.Errorf("scanning run action: %w", err)
		}
		e.Kind = nav.ActionKind(kind)
		if err := json.Unmarshal([]byte(detail), &e.Detail); err != nil {
			return nil, fmt.Errorf("unmarshalling run action: %w", err)
		}
		e.DispatchedAt = parseTime(at)
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) events(ctx context.Context, runID string) ([]EventEntry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT kind, distance, occurred_at FROM run_events WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("querying run events: %w", err)
	}
	defer rows.Close()

	var out []EventEntry
	for rows.Next() {
		var e EventEntry
		var distance sql.NullFloat64
		var at string
		if err := rows.Scan(&e.Kind, &distance, &at); err != nil {
			return nil, fmt.Errorf("scanning run event: %w", err)
		}
		if distance.Valid {
			d := distance.Float64
			e.Distance = &d
		}
		e.OccurredAt = parseTime(at)
		out = append(out, e)
	}
	return out, rows.Err()
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRunRow(scanner rowScanner) (*Run, error) {
	var run Run
	var mapName, base, finishedAt, errMsg sql.NullString
	var lotsJSON, pathJSON, startedAt, outcome string

	err := scanner.Scan(
		&run.ID,
		&run.RobotID,
		&mapName,
		&base,
		&lotsJSON,
		&pathJSON,
		&run.Cost,
		&startedAt,
		&finishedAt,
		&outcome,
		&errMsg,
	)
	if err != nil {
		return nil, err
	}

	run.MapName = mapName.String
	run.Base = base.String
	run.Error = errMsg.String
	run.Outcome = Outcome(outcome)
	run.StartedAt = parseTime(startedAt)
	if finishedAt.Valid {
		t := parseTime(finishedAt.String)
		run.FinishedAt = &t
	}

	if err := json.Unmarshal([]byte(lotsJSON), &run.Lots); err != nil {
		return nil, fmt.Errorf("unmarshalling lots: %w", err)
	}
	if err := json.Unmarshal([]byte(pathJSON), &run.Path); err != nil {
		return nil, fmt.Errorf("unmarshalling path: %w", err)
	}
	run.Lots = nonNilInts(run.Lots)
	run.Path = nonNilStrings(run.Path)
	return &run, nil
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nonNilInts(v []int) []int {
	if v == nil {
		return []int{}
	}
	return v
}

func nonNilStrings(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}

// isUniqueConstraintError reports whether err is a SQLite UNIQUE or
// PRIMARY KEY violation.
func isUniqueConstraintError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
