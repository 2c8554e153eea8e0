// Package store provides SQLite persistence for attendance records, the
// revision audit trail, and the ingest event journal.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // SQLite driver (pure Go, no CGO)
)

// Store wraps the attendance database.
type Store struct {
	db *sql.DB
}

// Open initializes the SQLite store and runs migrations.
// busy_timeout avoids "database locked" errors when the API reads while an
// ingest transaction is in flight; WAL keeps readers off the writer's back.
func Open(dbPath string) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)", dbPath)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping verifies the connection is alive. Used by the readiness probe.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS attendance (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		punch_date TEXT NOT NULL CHECK (punch_date <> ''),
		employee_id TEXT NOT NULL CHECK (employee_id <> ''),
		employee_name TEXT NOT NULL,
		shift_in TEXT,
		punch_in TEXT,
		punch_out TEXT,
		shift_out TEXT,
		hours_worked TEXT,
		status TEXT,
		late_by TEXT,
		file_hash TEXT NOT NULL,
		processed_at TEXT NOT NULL,
		UNIQUE (punch_date, employee_id)
	);

	CREATE TABLE IF NOT EXISTS revision_log (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		punch_date TEXT NOT NULL,
		employee_id TEXT NOT NULL,
		employee_name TEXT NOT NULL,
		file_name TEXT NOT NULL,
		reason TEXT NOT NULL,
		logged_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		event_type TEXT NOT NULL,
		description TEXT NOT NULL,
		file_name TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_attendance_employee ON attendance(employee_id);
	CREATE INDEX IF NOT EXISTS idx_attendance_date ON attendance(punch_date);
	CREATE INDEX IF NOT EXISTS idx_events_created ON events(created_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

// now returns the canonical timestamp format used in every table.
func now() string {
	return time.Now().UTC().Format(time.RFC3339)
}
