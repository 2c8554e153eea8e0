package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/attmon/attmon/internal/attendance"
)

const recordColumns = `punch_date, employee_id, employee_name, shift_in, punch_in,
	punch_out, shift_out, hours_worked, status, late_by, file_hash, processed_at`

// QueryByDate retrieves all records for one punch date, ordered by employee.
func (s *Store) QueryByDate(ctx context.Context, date string) ([]attendance.Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+recordColumns+` FROM attendance WHERE punch_date = ? ORDER BY employee_id`,
		date,
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	return scanRecords(rows)
}

// QueryByEmployee retrieves all records for one employee, newest day first.
func (s *Store) QueryByEmployee(ctx context.Context, employeeID string) ([]attendance.Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+recordColumns+` FROM attendance WHERE employee_id = ? ORDER BY punch_date DESC`,
		employeeID,
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	return scanRecords(rows)
}

// Employees returns the distinct (id, name) pairs known to the store,
// ordered by employee id. Feeds the autocomplete endpoint.
func (s *Store) Employees(ctx context.Context) ([]attendance.Employee, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT employee_id, employee_name FROM attendance ORDER BY employee_id`,
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []attendance.Employee
	for rows.Next() {
		var e attendance.Employee
		if err := rows.Scan(&e.ID, &e.Name); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func scanRecords(rows *sql.Rows) ([]attendance.Record, error) {
	var out []attendance.Record
	for rows.Next() {
		var (
			rec                     attendance.Record
			hours, status, fileHash sql.NullString
			processedAt             string
		)
		if err := rows.Scan(
			&rec.Date,
			&rec.EmployeeID,
			&rec.EmployeeName,
			clockScanner{&rec.ShiftIn},
			clockScanner{&rec.PunchIn},
			clockScanner{&rec.PunchOut},
			clockScanner{&rec.ShiftOut},
			&hours,
			&status,
			clockScanner{&rec.LateBy},
			&fileHash,
			&processedAt,
		); err != nil {
			return nil, err
		}
		rec.HoursWorked = hours.String
		rec.Status = status.String
		rec.FileHash = fileHash.String
		if t, err := time.Parse(time.RFC3339, processedAt); err == nil {
			rec.ProcessedAt = &t
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
