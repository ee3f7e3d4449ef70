// Package store handles SQLite persistence of input traces.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/verte-zerg/kpmoled/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

// ErrNotFound is returned when no trace matches an id.
var ErrNotFound = errors.New("trace not found")

// Store wraps SQLite access for trace data.
type Store struct {
	db *sql.DB
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS traces (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			source TEXT NOT NULL,
			created_at TEXT NOT NULL,
			key_count INTEGER NOT NULL,
			duration_ms INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS trace_events (
			trace_id TEXT NOT NULL,
			seq INTEGER NOT NULL,
			offset_ms INTEGER NOT NULL,
			matrix_row INTEGER NOT NULL,
			matrix_col INTEGER NOT NULL,
			PRIMARY KEY (trace_id, seq)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_traces_created_at ON traces(created_at);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// InsertTrace stores a trace and its events. A missing id or creation time is
// filled in; the stored id is returned.
func (s *Store) InsertTrace(ctx context.Context, trace model.Trace) (id string, err error) {
	if trace.ID == "" {
		trace.ID = uuid.NewString()
	}
	if trace.CreatedAt.IsZero() {
		trace.CreatedAt = time.Now()
	}
	if trace.Source == "" {
		trace.Source = model.SourceRecorded
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO traces (id, name, source, created_at, key_count, duration_ms)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		trace.ID,
		trace.Name,
		trace.Source,
		trace.CreatedAt.UTC().Format(time.RFC3339Nano),
		len(trace.Events),
		trace.Duration().Milliseconds(),
	)
	if err != nil {
		return "", err
	}

	if len(trace.Events) > 0 {
		stmt, err := tx.PrepareContext(ctx,
			`INSERT INTO trace_events (trace_id, seq, offset_ms, matrix_row, matrix_col)
			 VALUES (?, ?, ?, ?, ?)`)
		if err != nil {
			return "", err
		}
		defer func() {
			if cerr := stmt.Close(); cerr != nil {
				// Best-effort statement close.
				_ = cerr
			}
		}()
		for i, ev := range trace.Events {
			if _, err := stmt.ExecContext(ctx, trace.ID, i, ev.OffsetMs, ev.Row, ev.Col); err != nil {
				return "", err
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return "", err
	}
	return trace.ID, nil
}

// ResolveID expands a unique id prefix to a full trace id. The prefix is
// compared literally.
func (s *Store) ResolveID(ctx context.Context, prefix string) (string, error) {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return "", ErrNotFound
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id FROM traces WHERE substr(id, 1, length(?)) = ? ORDER BY id LIMIT 2`, prefix, prefix)
	if err != nil {
		return "", err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return "", err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return "", err
	}
	switch len(ids) {
	case 0:
		return "", ErrNotFound
	case 1:
		return ids[0], nil
	default:
		return "", fmt.Errorf("trace id %q is ambiguous", prefix)
	}
}

// GetTrace loads a trace with its events.
func (s *Store) GetTrace(ctx context.Context, id string) (model.Trace, error) {
	var trace model.Trace
	var createdAt string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, source, created_at FROM traces WHERE id = ?`, id).
		Scan(&trace.ID, &trace.Name, &trace.Source, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Trace{}, ErrNotFound
	}
	if err != nil {
		return model.Trace{}, err
	}
	parsed, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return model.Trace{}, err
	}
	trace.CreatedAt = parsed

	rows, err := s.db.QueryContext(ctx,
		`SELECT offset_ms, matrix_row, matrix_col FROM trace_events WHERE trace_id = ? ORDER BY seq ASC`, id)
	if err != nil {
		return model.Trace{}, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	for rows.Next() {
		var ev model.Event
		if err := rows.Scan(&ev.OffsetMs, &ev.Row, &ev.Col); err != nil {
			return model.Trace{}, err
		}
		trace.Events = append(trace.Events, ev)
	}
	if err := rows.Err(); err != nil {
		return model.Trace{}, err
	}
	return trace, nil
}

// ListTraces returns trace summaries filtered by cfg, oldest first.
func (s *Store) ListTraces(ctx context.Context, cfg model.ListConfig) ([]model.TraceSummary, error) {
	clauses := []string{"1=1"}
	args := []any{}
	if cfg.Source != "" {
		clauses = append(clauses, "source = ?")
		args = append(args, cfg.Source)
	}
	if cfg.Since != nil {
		clauses = append(clauses, "created_at >= ?")
		args = append(args, cfg.Since.UTC().Format(time.RFC3339Nano))
	}
	query := fmt.Sprintf(`SELECT id, name, source, created_at, key_count, duration_ms
		FROM traces
		WHERE %s
		ORDER BY created_at ASC, id ASC`, strings.Join(clauses, " AND "))
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var traces []model.TraceSummary
	for rows.Next() {
		var sum model.TraceSummary
		var createdAt string
		if err := rows.Scan(&sum.ID, &sum.Name, &sum.Source, &createdAt, &sum.Keys, &sum.DurationMs); err != nil {
			return nil, err
		}
		parsed, err := time.Parse(time.RFC3339Nano, createdAt)
		if err != nil {
			return nil, err
		}
		sum.CreatedAt = parsed
		traces = append(traces, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if cfg.Last > 0 && len(traces) > cfg.Last {
		traces = traces[len(traces)-cfg.Last:]
	}
	return traces, nil
}

// DeleteTrace removes a trace and its events.
func (s *Store) DeleteTrace(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM trace_events WHERE trace_id = ?`, id); err != nil {
		if rerr := tx.Rollback(); rerr != nil {
			// Best-effort rollback.
			_ = rerr
		}
		return err
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM traces WHERE id = ?`, id)
	if err != nil {
		if rerr := tx.Rollback(); rerr != nil {
			// Best-effort rollback.
			_ = rerr
		}
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		if rerr := tx.Rollback(); rerr != nil {
			// Best-effort rollback.
			_ = rerr
		}
		return err
	}
	if n == 0 {
		if rerr := tx.Rollback(); rerr != nil {
			// Best-effort rollback.
			_ = rerr
		}
		return ErrNotFound
	}
	return tx.Commit()
}
