// Package history records script runs and REPL input in a SQL database.
//
// The default backend is a local SQLite file; postgres and mysql are
// available for shared setups. Timestamps are stored as Unix nanoseconds so
// the same schema works on every driver.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/sambeau/mila/config"

	// SQLite driver (pure Go, no CGO required)
	_ "modernc.org/sqlite"
)

// Run is one recorded execution of a script.
type Run struct {
	ID          int64         `json:"id"`
	File        string        `json:"file"`
	Status      int           `json:"status"`
	Started     time.Time     `json:"started_at"`
	Duration    time.Duration `json:"duration_ns"`
	Error       string        `json:"error,omitempty"`
	Fingerprint string        `json:"fingerprint"`
}

// Store is an open history database.
type Store struct {
	mu         sync.Mutex
	db         *sql.DB
	driver     string
	maxEntries int
}

// Open connects to the configured database and creates the schema.
func Open(ctx context.Context, cfg config.HistoryConfig) (*Store, error) {
	dsn := cfg.DSN
	if dsn == "" {
		return nil, fmt.Errorf("history: no dsn configured")
	}

	if cfg.Driver == "sqlite" && dsn != ":memory:" && !strings.HasPrefix(dsn, "file:") {
		if err := os.MkdirAll(filepath.Dir(dsn), 0755); err != nil {
			return nil, fmt.Errorf("creating history directory: %w", err)
		}
		if !strings.Contains(dsn, "?") {
			dsn += "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
		}
	}

	db, err := sql.Open(cfg.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("opening history database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("connecting to history database: %w", err)
	}

	if cfg.Driver == "sqlite" {
		// one writer; also keeps a :memory: database alive across calls
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		db.SetConnMaxLifetime(0)
	}

	s := &Store{
		db:         db,
		driver:     cfg.Driver,
		maxEntries: cfg.MaxEntries,
	}

	if err := s.createSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating history schema: %w", err)
	}

	return s, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Driver reports the database/sql driver in use.
func (s *Store) Driver() string {
	return s.driver
}

// idColumn is the auto-incrementing primary key in each dialect.
func (s *Store) idColumn() string {
	switch s.driver {
	case "postgres":
		return "id BIGSERIAL PRIMARY KEY"
	case "mysql":
		return "id BIGINT AUTO_INCREMENT PRIMARY KEY"
	default:
		return "id INTEGER PRIMARY KEY AUTOINCREMENT"
	}
}

func (s *Store) createSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			` + s.idColumn() + `,
			file TEXT NOT NULL,
			status INTEGER NOT NULL,
			started_at BIGINT NOT NULL,
			duration_ns BIGINT NOT NULL,
			error_text TEXT NOT NULL,
			fingerprint VARCHAR(64) NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS repl_lines (
			` + s.idColumn() + `,
			line TEXT NOT NULL,
			entered_at BIGINT NOT NULL
		)`,
	}
	// MySQL has no CREATE INDEX IF NOT EXISTS; its tables stay small enough
	// to scan.
	if s.driver != "mysql" {
		statements = append(statements, `CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at)`)
	}

	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// rebind rewrites ? placeholders to $1, $2... for postgres.
func (s *Store) rebind(query string) string {
	if s.driver != "postgres" {
		return query
	}

	var sb strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			sb.WriteString("$" + strconv.Itoa(n))
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

// Record stores a run and prunes the oldest runs past the configured limit.
func (s *Store) Record(ctx context.Context, run Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if run.Started.IsZero() {
		run.Started = time.Now()
	}

	_, err := s.db.ExecContext(ctx, s.rebind(
		`INSERT INTO runs (file, status, started_at, duration_ns, error_text, fingerprint) VALUES (?, ?, ?, ?, ?, ?)`),
		run.File, run.Status, run.Started.UnixNano(), int64(run.Duration), run.Error, run.Fingerprint)
	if err != nil {
		return fmt.Errorf("recording run: %w", err)
	}

	return s.prune(ctx, "runs")
}

// prune keeps the newest maxEntries rows of table.
func (s *Store) prune(ctx context.Context, table string) error {
	if s.maxEntries <= 0 {
		return nil
	}

	var cutoff int64
	err := s.db.QueryRowContext(ctx, s.rebind(
		`SELECT id FROM `+table+` ORDER BY id DESC LIMIT 1 OFFSET ?`), s.maxEntries).Scan(&cutoff)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("pruning %s: %w", table, err)
	}

	if _, err := s.db.ExecContext(ctx, s.rebind(`DELETE FROM `+table+` WHERE id <= ?`), cutoff); err != nil {
		return fmt.Errorf("pruning %s: %w", table, err)
	}
	return nil
}

// List returns runs started at or after since, newest first. A zero since
// means no lower bound; limit <= 0 means no limit.
func (s *Store) List(ctx context.Context, since time.Time, limit int) ([]Run, error) {
	return s.query(ctx, since, limit, "DESC")
}

func (s *Store) query(ctx context.Context, since time.Time, limit int, order string) ([]Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `SELECT id, file, status, started_at, duration_ns, error_text, fingerprint FROM runs`
	var args []any
	if !since.IsZero() {
		query += ` WHERE started_at >= ?`
		args = append(args, since.UnixNano())
	}
	query += ` ORDER BY id ` + order
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		var started, duration int64
		if err := rows.Scan(&run.ID, &run.File, &run.Status, &started, &duration, &run.Error, &run.Fingerprint); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		run.Started = time.Unix(0, started)
		run.Duration = time.Duration(duration)
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// Clear deletes every run and REPL line, returning how many runs were removed.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `DELETE FROM runs`)
	if err != nil {
		return 0, fmt.Errorf("clearing runs: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM repl_lines`); err != nil {
		return 0, fmt.Errorf("clearing repl history: %w", err)
	}
	return res.RowsAffected()
}

// AddLine appends an entry to the REPL input history.
func (s *Store) AddLine(ctx context.Context, line string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, s.rebind(`INSERT INTO repl_lines (line, entered_at) VALUES (?, ?)`),
		line, time.Now().UnixNano())
	if err != nil {
		return fmt.Errorf("recording repl line: %w", err)
	}
	return s.prune(ctx, "repl_lines")
}

// Lines returns up to limit of the most recent REPL entries, oldest first.
func (s *Store) Lines(ctx context.Context, limit int) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `SELECT line FROM repl_lines ORDER BY id DESC`
	var args []any
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("loading repl history: %w", err)
	}
	defer rows.Close()

	var lines []string
	for rows.Next() {
		var line string
		if err := rows.Scan(&line); err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i, j := 0, len(lines)-1; i < j; i, j = i+1, j-1 {
		lines[i], lines[j] = lines[j], lines[i]
	}
	return lines, nil
}
