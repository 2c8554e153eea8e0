package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/attmon/attmon/internal/attendance"
	"github.com/attmon/attmon/internal/log"
)

// Summary describes the outcome of ingesting one file's rows.
type Summary struct {
	Total     int `json:"total"`
	Inserted  int `json:"inserted"`
	Updated   int `json:"updated"`
	Unchanged int `json:"unchanged"`
	Failed    int `json:"failed"`
}

func (s Summary) String() string {
	return fmt.Sprintf("Processed %d records. Inserted %d, updated %d, unchanged %d, failed %d.",
		s.Total, s.Inserted, s.Updated, s.Unchanged, s.Failed)
}

// UpsertPunches ingests one file's rows inside a single transaction.
//
// Merge rule: for an existing (punch_date, employee_id) row the stored
// punch-in only ever moves earlier and the stored punch-out only ever moves
// later. Every duplicate encounter leaves a revision_log row, whether or
// not the stored times changed. Row-level failures are counted and recorded
// but do not abort the file.
func (s *Store) UpsertPunches(ctx context.Context, recs []attendance.Record, fileHash, fileName string) (Summary, error) {
	logger := log.WithComponentFromContext(ctx, "store")
	summary := Summary{Total: len(recs)}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return summary, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, rec := range recs {
		if err := s.upsertOne(ctx, tx, rec, fileHash, fileName, &summary); err != nil {
			summary.Failed++
			logger.Warn().Err(err).
				Str(log.FieldEmployeeID, rec.EmployeeID).
				Str(log.FieldPunchDate, rec.Date).
				Str(log.FieldFile, fileName).
				Msg("row ingest failed")
			if err := logEventTx(ctx, tx, "error", truncate(err.Error(), 500), fileName); err != nil {
				return summary, fmt.Errorf("record row error: %w", err)
			}
		}
	}

	if err := logEventTx(ctx, tx, "summary", summary.String(), fileName); err != nil {
		return summary, fmt.Errorf("record summary: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return summary, fmt.Errorf("commit: %w", err)
	}
	return summary, nil
}

func (s *Store) upsertOne(ctx context.Context, tx *sql.Tx, rec attendance.Record, fileHash, fileName string, summary *Summary) error {
	var existingIn, existingOut *attendance.Clock
	err := tx.QueryRowContext(ctx,
		`SELECT punch_in, punch_out FROM attendance WHERE punch_date = ? AND employee_id = ?`,
		rec.Date, rec.EmployeeID,
	).Scan(clockScanner{&existingIn}, clockScanner{&existingOut})

	switch {
	case err == sql.ErrNoRows:
		return s.insertRow(ctx, tx, rec, fileHash, summary)
	case err != nil:
		return fmt.Errorf("lookup existing: %w", err)
	}

	finalIn := attendance.Earlier(existingIn, rec.PunchIn)
	finalOut := attendance.Later(existingOut, rec.PunchOut)

	if attendance.ClockEqual(finalIn, existingIn) && attendance.ClockEqual(finalOut, existingOut) {
		reason := "Record exists but no changes to punch times were needed"
		if err := s.logRevision(ctx, tx, rec, fileName, reason); err != nil {
			return err
		}
		summary.Unchanged++
		return nil
	}

	reason := fmt.Sprintf("Record updated for date %s and employee %s.", rec.Date, rec.EmployeeID)
	if !attendance.ClockEqual(existingIn, finalIn) {
		reason += fmt.Sprintf(" Punch-in updated from %s to %s.", clockText(existingIn), clockText(finalIn))
	}
	if !attendance.ClockEqual(existingOut, finalOut) {
		reason += fmt.Sprintf(" Punch-out updated from %s to %s.", clockText(existingOut), clockText(finalOut))
	}
	if err := s.logRevision(ctx, tx, rec, fileName, reason); err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE attendance
		SET employee_name = ?,
		    shift_in = ?,
		    punch_in = ?,
		    punch_out = ?,
		    shift_out = ?,
		    hours_worked = ?,
		    status = ?,
		    late_by = ?,
		    file_hash = ?,
		    processed_at = ?
		WHERE punch_date = ? AND employee_id = ?`,
		rec.EmployeeName,
		clockValue(rec.ShiftIn),
		clockValue(finalIn),
		clockValue(finalOut),
		clockValue(rec.ShiftOut),
		nullable(rec.HoursWorked),
		nullable(rec.Status),
		clockValue(rec.LateBy),
		fileHash,
		now(),
		rec.Date,
		rec.EmployeeID,
	)
	if err != nil {
		return fmt.Errorf("update: %w", err)
	}
	summary.Updated++
	return nil
}

func (s *Store) insertRow(ctx context.Context, tx *sql.Tx, rec attendance.Record, fileHash string, summary *Summary) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO attendance
			(punch_date, employee_id, employee_name, shift_in, punch_in, punch_out,
			 shift_out, hours_worked, status, late_by, file_hash, processed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.Date,
		rec.EmployeeID,
		rec.EmployeeName,
		clockValue(rec.ShiftIn),
		clockValue(rec.PunchIn),
		clockValue(rec.PunchOut),
		clockValue(rec.ShiftOut),
		nullable(rec.HoursWorked),
		nullable(rec.Status),
		clockValue(rec.LateBy),
		fileHash,
		now(),
	)
	if err != nil {
		return fmt.Errorf("insert: %w", err)
	}
	summary.Inserted++
	return nil
}

func (s *Store) logRevision(ctx context.Context, tx *sql.Tx, rec attendance.Record, fileName, reason string) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO revision_log (punch_date, employee_id, employee_name, file_name, reason, logged_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		rec.Date, rec.EmployeeID, rec.EmployeeName, fileName, reason, now(),
	)
	if err != nil {
		return fmt.Errorf("revision log: %w", err)
	}
	return nil
}

// clockValue binds an optional clock as text or NULL.
func clockValue(c *attendance.Clock) any {
	if c == nil {
		return nil
	}
	return c.String()
}

func clockText(c *attendance.Clock) string {
	if c == nil {
		return "none"
	}
	return c.String()
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// clockScanner scans a nullable TEXT column into an optional clock.
type clockScanner struct {
	dst **attendance.Clock
}

func (cs clockScanner) Scan(src any) error {
	if src == nil {
		*cs.dst = nil
		return nil
	}
	var c attendance.Clock
	if err := c.Scan(src); err != nil {
		return err
	}
	*cs.dst = &c
	return nil
}
