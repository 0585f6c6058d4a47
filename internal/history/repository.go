package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	defaultListLimit = 20
	maxListLimit     = 500

	// timeFormat is fixed-width so recorded_at sorts lexically.
	timeFormat = "2006-01-02T15:04:05.000000000Z07:00"
)

// Repository persists coordinator outcomes.
type Repository interface {
	Record(ctx context.Context, exec *Execution) error
	Get(ctx context.Context, id string) (*Execution, error)
	ListRecent(ctx context.Context, limit int) ([]Execution, error)
	ListByAction(ctx context.Context, action string, limit int) ([]Execution, error)
	Summarise(ctx context.Context) (Summary, error)
	Prune(ctx context.Context, before time.Time) (int64, error)
}

const executionColumns = `id, command_id, action, target, success, attempts,
			fallback_used, error, duration_ms, recorded_at`

// SQLiteRepository implements Repository on the motion_executions table.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a SQLite-backed repository.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Record inserts exec, filling ID and RecordedAt when empty. Successful
// executions need an action and a target; failed ones may lack either,
// since a command rejected for a missing field is still worth keeping.
func (r *SQLiteRepository) Record(ctx context.Context, exec *Execution) error {
	if exec.Success && (exec.Action == "" || exec.Target == "") {
		return fmt.Errorf("%w: action and target are required", ErrInvalidRecord)
	}
	if exec.ID == "" {
		exec.ID = uuid.NewString()
	}
	if exec.RecordedAt.IsZero() {
		exec.RecordedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO motion_executions (` + executionColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		exec.ID,
		exec.CommandID,
		exec.Action,
		exec.Target,
		exec.Success,
		exec.Attempts,
		exec.FallbackUsed,
		nullableString(exec.Error),
		exec.DurationMS,
		exec.RecordedAt.UTC().Format(timeFormat),
	)
	if err != nil {
		return fmt.Errorf("inserting execution: %w", err)
	}
	return nil
}

// Get retrieves one execution by id.
func (r *SQLiteRepository) Get(ctx context.Context, id string) (*Execution, error) {
	query := `SELECT ` + executionColumns + ` FROM motion_executions WHERE id = ?`

	exec, err := scanExecution(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("querying execution: %w", err)
	}
	return exec, nil
}

// ListRecent returns the newest executions first.
func (r *SQLiteRepository) ListRecent(ctx context.Context, limit int) ([]Execution, error) {
	query := `SELECT ` + executionColumns + ` FROM motion_executions
		ORDER BY recorded_at DESC, rowid DESC LIMIT ?`
	return r.query(ctx, query, clampLimit(limit))
}

// ListByAction returns the newest executions of one action first.
func (r *SQLiteRepository) ListByAction(ctx context.Context, action string, limit int) ([]Execution, error) {
	query := `SELECT ` + executionColumns + ` FROM motion_executions
		WHERE action = ? ORDER BY recorded_at DESC, rowid DESC LIMIT ?`
	return r.query(ctx, query, action, clampLimit(limit))
}

// Summarise counts stored executions.
func (r *SQLiteRepository) Summarise(ctx context.Context) (Summary, error) {
	s := Summary{ByAction: map[string]int{}}

	rows, err := r.db.QueryContext(ctx, `
		SELECT action, COUNT(*), SUM(success), SUM(fallback_used)
		FROM motion_executions GROUP BY action`)
	if err != nil {
		return s, fmt.Errorf("summarising executions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var action string
		var total, ok, fallbacks int
		if err := rows.Scan(&action, &total, &ok, &fallbacks); err != nil {
			return s, fmt.Errorf("scanning summary: %w", err)
		}
		s.ByAction[action] = total
		s.Total += total
		s.Succeeded += ok
		s.Fallbacks += fallbacks
	}
	if err := rows.Err(); err != nil {
		return s, fmt.Errorf("iterating summary: %w", err)
	}
	return s, nil
}

// Prune deletes executions recorded before the cutoff.
func (r *SQLiteRepository) Prune(ctx context.Context, before time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM motion_executions WHERE recorded_at < ?`,
		before.UTC().Format(timeFormat),
	)
	if err != nil {
		return 0, fmt.Errorf("pruning executions: %w", err)
	}
	return res.RowsAffected()
}

func (r *SQLiteRepository) query(ctx context.Context, query string, args ...any) ([]Execution, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying executions: %w", err)
	}
	defer rows.Close()

	var out []Execution
	for rows.Next() {
		exec, scanErr := scanExecution(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("scanning execution: %w", scanErr)
		}
		out = append(out, *exec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating executions: %w", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanExecution(scanner rowScanner) (*Execution, error) {
	var e Execution
	var errText sql.NullString
	var recordedAt string

	err := scanner.Scan(
		&e.ID,
		&e.CommandID,
		&e.Action,
		&e.Target,
		&e.Success,
		&e.Attempts,
		&e.FallbackUsed,
		&errText,
		&e.DurationMS,
		&recordedAt,
	)
	if err != nil {
		return nil, err
	}

	if errText.Valid {
		e.Error = errText.String
	}
	if t, parseErr := time.Parse(timeFormat, recordedAt); parseErr == nil {
		e.RecordedAt = t
	}
	return &e, nil
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultListLimit
	}
	return min(limit, maxListLimit)
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
