// Package stores persists build cycle history in a local SQLite database.
package stores

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	// SQLite driver
	_ "modernc.org/sqlite"

	"github.com/packsync/packsync/pkg/engine"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// SQLiteStore records build cycles in SQLite. It implements
// engine.CycleStore.
type SQLiteStore struct {
	db  *sql.DB
	cfg Config
}

// Config holds SQLite store configuration.
type Config struct {
	Path            string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// NewSQLiteStore creates a new SQLite store instance.
func NewSQLiteStore(cfg Config) (*SQLiteStore, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("database path is required")
	}
	if cfg.MaxOpenConns == 0 {
		cfg.MaxOpenConns = 25
	}
	if cfg.MaxIdleConns == 0 {
		cfg.MaxIdleConns = 5
	}
	if cfg.ConnMaxLifetime == 0 {
		cfg.ConnMaxLifetime = 5 * time.Minute
	}
	return &SQLiteStore{cfg: cfg}, nil
}

// Init opens the database connection with WAL mode and runs migrations.
func (s *SQLiteStore) Init(ctx context.Context) error {
	dsn := fmt.Sprintf("%s?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL&_txlock=immediate", s.cfg.Path)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(s.cfg.MaxOpenConns)
	db.SetMaxIdleConns(s.cfg.MaxIdleConns)
	db.SetConnMaxLifetime(s.cfg.ConnMaxLifetime)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	s.db = db
	return s.migrate()
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// migrate applies the embedded schema migrations.
func (s *SQLiteStore) migrate() error {
	sourceDriver, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to create migration source: %w", err)
	}

	driver, err := sqlite3.WithInstance(s.db, &sqlite3.Config{})
	if err != nil {
		return fmt.Errorf("failed to create database driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, "sqlite3", driver)
	if err != nil {
		return fmt.Errorf("failed to create migration instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// RecordCycle persists a completed cycle.
func (s *SQLiteStore) RecordCycle(ctx context.Context, cycle *engine.Cycle) error {
	libraries, err := json.Marshal(cycle.Libraries)
	if err != nil {
		return fmt.Errorf("failed to encode libraries: %w", err)
	}
	diagnostics, err := json.Marshal(cycle.Diagnostics)
	if err != nil {
		return fmt.Errorf("failed to encode diagnostics: %w", err)
	}

	query := `
		INSERT INTO cycles (id, project, seq, state, started_at, finished_at, copied, deleted, skipped, libraries, diagnostics)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	if _, err := s.db.ExecContext(ctx, query,
		cycle.ID,
		cycle.Project,
		cycle.Seq,
		string(cycle.State),
		cycle.StartedAt,
		cycle.FinishedAt,
		cycle.Copied,
		cycle.Deleted,
		cycle.Skipped,
		string(libraries),
		string(diagnostics),
	); err != nil {
		return fmt.Errorf("failed to record cycle: %w", err)
	}
	return nil
}

// ListCycles returns the most recent cycles for a project, newest first.
func (s *SQLiteStore) ListCycles(ctx context.Context, project string, limit int) ([]*engine.Cycle, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `
		SELECT id, project, seq, state, started_at, finished_at, copied, deleted, skipped, libraries, diagnostics
		FROM cycles
		WHERE project = ?
		ORDER BY seq DESC
		LIMIT ?
	`
	rows, err := s.db.QueryContext(ctx, query, project, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list cycles: %w", err)
	}
	defer rows.Close()

	cycles := []*engine.Cycle{}
	for rows.Next() {
		cycle, err := scanCycle(rows)
		if err != nil {
			return nil, err
		}
		cycles = append(cycles, cycle)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating cycles: %w", err)
	}
	return cycles, nil
}

// LastSeq returns the highest recorded sequence number for a project, or
// zero when the project has no history.
func (s *SQLiteStore) LastSeq(ctx context.Context, project string) (uint64, error) {
	var seq sql.NullInt64
	err := s.db.QueryRowContext(ctx,
		`SELECT MAX(seq) FROM cycles WHERE project = ?`, project).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("failed to query last seq: %w", err)
	}
	if !seq.Valid {
		return 0, nil
	}
	return uint64(seq.Int64), nil
}

func scanCycle(rows *sql.Rows) (*engine.Cycle, error) {
	cycle := &engine.Cycle{}
	var state, libraries, diagnostics string
	if err := rows.Scan(
		&cycle.ID,
		&cycle.Project,
		&cycle.Seq,
		&state,
		&cycle.StartedAt,
		&cycle.FinishedAt,
		&cycle.Copied,
		&cycle.Deleted,
		&cycle.Skipped,
		&libraries,
		&diagnostics,
	); err != nil {
		return nil, fmt.Errorf("failed to scan cycle: %w", err)
	}
	cycle.State = engine.CycleState(state)
	if libraries != "" {
		if err := json.Unmarshal([]byte(libraries), &cycle.Libraries); err != nil {
			return nil, fmt.Errorf("failed to decode libraries: %w", err)
		}
	}
	if diagnostics != "" {
		if err := json.Unmarshal([]byte(diagnostics), &cycle.Diagnostics); err != nil {
			return nil, fmt.Errorf("failed to decode diagnostics: %w", err)
		}
	}
	return cycle, nil
}
