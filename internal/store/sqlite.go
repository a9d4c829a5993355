package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrExists        = errors.New("experiment already exists")
	ErrCompleted     = errors.New("experiment is completed")
	ErrInvalidCounts = errors.New("invalid counts")
)

type SQLiteStore struct {
	db *sql.DB
}

var _ Store = (*SQLiteStore)(nil)

const schema = `
CREATE TABLE IF NOT EXISTS experiments (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT UNIQUE NOT NULL,
    control_label TEXT NOT NULL DEFAULT 'Control',
    variant_label TEXT NOT NULL DEFAULT 'Variant',
    hypothesis TEXT NOT NULL DEFAULT '',
    control_visitors INTEGER NOT NULL DEFAULT 0 CHECK (control_visitors >= 0),
    control_conversions INTEGER NOT NULL DEFAULT 0 CHECK (control_conversions >= 0 AND control_conversions <= control_visitors),
    variant_visitors INTEGER NOT NULL DEFAULT 0 CHECK (variant_visitors >= 0),
    variant_conversions INTEGER NOT NULL DEFAULT 0 CHECK (variant_conversions >= 0 AND variant_conversions <= variant_visitors),
    state TEXT NOT NULL DEFAULT 'running',
    winner TEXT,
    created_at INTEGER NOT NULL DEFAULT (unixepoch()),
    updated_at INTEGER NOT NULL DEFAULT (unixepoch())
);

CREATE INDEX IF NOT EXISTS idx_experiments_state ON experiments(state);
`

const selectColumns = `id, name, control_label, variant_label, hypothesis,
	control_visitors, control_conversions, variant_visitors, variant_conversions,
	state, winner, created_at, updated_at`

func Open(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Enable WAL mode
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	// Apply schema
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreateExperiment(ctx context.Context, name, controlLabel, variantLabel, hypothesis string) (*Experiment, error) {
	if name == "" {
		return nil, errors.New("experiment name is required")
	}
	if controlLabel == "" {
		controlLabel = "Control"
	}
	if variantLabel == "" {
		variantLabel = "Variant"
	}

	now := time.Now().Unix()
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO experiments (name, control_label, variant_label, hypothesis, state, created_at, updated_at)
		 VALUES (?, ?, ?, ?, 'running', ?, ?)`,
		name, controlLabel, variantLabel, hypothesis, now, now,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrExists
		}
		return nil, fmt.Errorf("failed to insert experiment: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get last insert id: %w", err)
	}

	return &Experiment{
		ID:           id,
		Name:         name,
		ControlLabel: controlLabel,
		VariantLabel: variantLabel,
		Hypothesis:   hypothesis,
		State:        StateRunning,
		CreatedAt:    time.Unix(now, 0),
		UpdatedAt:    time.Unix(now, 0),
	}, nil
}

func (s *SQLiteStore) GetExperiment(ctx context.Context, name string) (*Experiment, error) {
	return getExperiment(ctx, s.db, name)
}

func (s *SQLiteStore) ListExperiments(ctx context.Context) ([]*Experiment, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+selectColumns+` FROM experiments ORDER BY created_at DESC, id DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list experiments: %w", err)
	}
	defer rows.Close()

	var experiments []*Experiment
	for rows.Next() {
		exp, err := scanExperiment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan experiment: %w", err)
		}
		experiments = append(experiments, exp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list experiments: %w", err)
	}

	return experiments, nil
}

// SetCounts replaces all four counts of a running experiment.
func (s *SQLiteStore) SetCounts(ctx context.Context, name string, counts Counts) (*Experiment, error) {
	return s.updateCounts(ctx, name, func(Counts) Counts { return counts })
}

// AddCounts increments the counts of a running experiment, e.g. with a daily batch.
func (s *SQLiteStore) AddCounts(ctx context.Context, name string, delta Counts) (*Experiment, error) {
	if delta.ControlVisitors < 0 || delta.ControlConversions < 0 || delta.VariantVisitors < 0 || delta.VariantConversions < 0 {
		return nil, fmt.Errorf("%w: increments must not be negative", ErrInvalidCounts)
	}
	return s.updateCounts(ctx, name, func(current Counts) Counts { return current.Add(delta) })
}

func (s *SQLiteStore) updateCounts(ctx context.Context, name string, next func(Counts) Counts) (*Experiment, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	exp, err := getExperiment(ctx, tx, name)
	if err != nil {
		return nil, err
	}
	if exp.State == StateCompleted {
		return nil, ErrCompleted
	}

	counts := next(exp.Counts)
	if err := counts.Validate(); err != nil {
		return nil, err
	}

	now := time.Now().Unix()
	_, err = tx.ExecContext(ctx,
		`UPDATE experiments
		 SET control_visitors = ?, control_conversions = ?, variant_visitors = ?, variant_conversions = ?, updated_at = ?
		 WHERE name = ?`,
		counts.ControlVisitors, counts.ControlConversions, counts.VariantVisitors, counts.VariantConversions, now, name,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update counts: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit counts: %w", err)
	}

	exp.Counts = counts
	exp.UpdatedAt = time.Unix(now, 0)
	return exp, nil
}

// DeclareWinner records the winning arm and marks the experiment completed.
// Only a running experiment can be completed; a second declaration returns
// ErrCompleted and leaves the first winner in place.
func (s *SQLiteStore) DeclareWinner(ctx context.Context, name, winner string) error {
	if winner != "control" && winner != "variant" {
		return fmt.Errorf("invalid winner %q: must be control or variant", winner)
	}

	now := time.Now().Unix()
	result, err := s.db.ExecContext(ctx,
		`UPDATE experiments SET state = ?, winner = ?, updated_at = ? WHERE name = ? AND state = ?`,
		string(StateCompleted), winner, now, name, string(StateRunning),
	)
	if err != nil {
		return fmt.Errorf("failed to declare winner: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		if _, err := getExperiment(ctx, s.db, name); err != nil {
			return err
		}
		return ErrCompleted
	}

	return nil
}

func (s *SQLiteStore) DeleteExperiment(ctx context.Context, name string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM experiments WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("failed to delete experiment: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// CountExperiments returns the number of stored experiments for health checks
func (s *SQLiteStore) CountExperiments(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM experiments`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count experiments: %w", err)
	}
	return n, nil
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type scanner interface {
	Scan(dest ...any) error
}

func getExperiment(ctx context.Context, q queryer, name string) (*Experiment, error) {
	row := q.QueryRowContext(ctx,
		`SELECT `+selectColumns+` FROM experiments WHERE name = ?`, name,
	)

	exp, err := scanExperiment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get experiment: %w", err)
	}
	return exp, nil
}

func scanExperiment(row scanner) (*Experiment, error) {
	var exp Experiment
	var winner sql.NullString
	var createdAt, updatedAt int64

	err := row.Scan(
		&exp.ID, &exp.Name, &exp.ControlLabel, &exp.VariantLabel, &exp.Hypothesis,
		&exp.Counts.ControlVisitors, &exp.Counts.ControlConversions,
		&exp.Counts.VariantVisitors, &exp.Counts.VariantConversions,
		&exp.State, &winner, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	if winner.Valid {
		w := winner.String
		exp.Winner = &w
	}

	exp.CreatedAt = time.Unix(createdAt, 0)
	exp.UpdatedAt = time.Unix(updatedAt, 0)

	return &exp, nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
	}
	return false
}
