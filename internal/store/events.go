package store

import (
	"context"
	"database/sql"
	"time"
)

// Event is one row of the ingest event journal.
type Event struct {
	ID          int64     `json:"id"`
	Type        string    `json:"type"`
	Description string    `json:"description"`
	FileName    string    `json:"file_name,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// LogEvent appends a row to the event journal outside any transaction.
func (s *Store) LogEvent(ctx context.Context, eventType, description, fileName string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO events (event_type, description, file_name, created_at) VALUES (?, ?, ?, ?)`,
		eventType, truncate(description, 500), nullable(fileName), now(),
	)
	return err
}

// logEventTx appends a journal row inside an ingest transaction so the
// journal commits or rolls back with the file's rows.
func logEventTx(ctx context.Context, tx *sql.Tx, eventType, description, fileName string) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO events (event_type, description, file_name, created_at) VALUES (?, ?, ?, ?)`,
		eventType, truncate(description, 500), nullable(fileName), now(),
	)
	return err
}

// RecentEvents returns the newest journal rows, most recent first.
func (s *Store) RecentEvents(ctx context.Context, limit int) ([]Event, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, event_type, description, file_name, created_at
		 FROM events ORDER BY id DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []Event
	for rows.Next() {
		var (
			e         Event
			fileName  sql.NullString
			createdAt string
		)
		if err := rows.Scan(&e.ID, &e.Type, &e.Description, &fileName, &createdAt); err != nil {
			return nil, err
		}
		e.FileName = fileName.String
		if t, err := time.Parse(time.RFC3339, createdAt); err == nil {
			e.CreatedAt = t
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// LastIngest reports the time of the most recent summary event and the
// description of the most recent error event that followed it, if any.
// Feeds the readiness probe.
func (s *Store) LastIngest(ctx context.Context) (time.Time, string, error) {
	var createdAt string
	err := s.db.QueryRowContext(ctx,
		`SELECT created_at FROM events WHERE event_type = 'summary' ORDER BY id DESC LIMIT 1`,
	).Scan(&createdAt)
	if err == sql.ErrNoRows {
		return time.Time{}, "", nil
	}
	if err != nil {
		return time.Time{}, "", err
	}
	lastRun, err := time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return time.Time{}, "", err
	}

	var lastError sql.NullString
	err = s.db.QueryRowContext(ctx,
		`SELECT description FROM events
		 WHERE event_type = 'error' AND created_at >= ? ORDER BY id DESC LIMIT 1`,
		createdAt,
	).Scan(&lastError)
	if err != nil && err != sql.ErrNoRows {
		return lastRun, "", err
	}
	return lastRun, lastError.String, nil
}
