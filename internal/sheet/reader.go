// Package sheet reads and writes attendance spreadsheets (.xlsx).
package sheet

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/attmon/attmon/internal/attendance"
	"github.com/xuri/excelize/v2"
)

// Column headers as exported by the punch clock. Matching is
// case-insensitive and whitespace-tolerant.
const (
	colPunchDate    = "Punch_Date"
	colEmployeeID   = "Employee_ID"
	colEmployeeName = "Employee_Name"
	colShiftIn      = "Shift_In"
	colPunchIn      = "Punch_In_Time"
	colPunchOut     = "Punch_Out_Time"
	colShiftOut     = "Shift_Out"
	colHoursWorked  = "Hours_Worked"
	colStatus       = "Status"
	colLateBy       = "Late_By"
)

var requiredColumns = []string{colPunchDate, colEmployeeID, colEmployeeName, colPunchIn, colPunchOut}

// MissingColumnsError reports required headers absent from the sheet.
type MissingColumnsError struct {
	Columns []string
}

func (e *MissingColumnsError) Error() string {
	return "missing required columns: " + strings.Join(e.Columns, ", ")
}

// ErrNoRows indicates a sheet with no header row at all.
var ErrNoRows = errors.New("sheet has no rows")

// RowError wraps a parse failure with its 1-based row number.
type RowError struct {
	Row int
	Err error
}

func (e *RowError) Error() string { return fmt.Sprintf("row %d: %v", e.Row, e.Err) }
func (e *RowError) Unwrap() error { return e.Err }

// ReadPunches opens an .xlsx file and extracts its attendance rows.
func ReadPunches(path string) ([]attendance.Record, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer func() { _ = f.Close() }()
	return readWorkbook(f)
}

// ReadPunchesFrom extracts attendance rows from workbook bytes.
func ReadPunchesFrom(r io.Reader) ([]attendance.Record, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer func() { _ = f.Close() }()
	return readWorkbook(f)
}

func readWorkbook(f *excelize.File) ([]attendance.Record, error) {
	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, ErrNoRows
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}
	if len(rows) == 0 {
		return nil, ErrNoRows
	}

	index, err := headerIndex(rows[0])
	if err != nil {
		return nil, err
	}

	records := make([]attendance.Record, 0, len(rows)-1)
	for i, row := range rows[1:] {
		if blankRow(row) {
			continue
		}
		rec, err := parseRow(row, index)
		if err != nil {
			return nil, &RowError{Row: i + 2, Err: err}
		}
		records = append(records, rec)
	}
	return records, nil
}

// headerIndex maps column headers to indices, verifying required ones.
func headerIndex(header []string) (map[string]int, error) {
	index := make(map[string]int, len(header))
	for i, h := range header {
		index[strings.ToLower(strings.TrimSpace(h))] = i
	}

	var missing []string
	for _, col := range requiredColumns {
		if _, ok := index[strings.ToLower(col)]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, &MissingColumnsError{Columns: missing}
	}
	return index, nil
}

func cell(row []string, index map[string]int, col string) string {
	i, ok := index[strings.ToLower(col)]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func blankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func parseRow(row []string, index map[string]int) (attendance.Record, error) {
	var rec attendance.Record

	date, err := parseDate(cell(row, index, colPunchDate))
	if err != nil {
		return rec, err
	}
	rec.Date = date

	rec.EmployeeID = cell(row, index, colEmployeeID)
	if rec.EmployeeID == "" {
		return rec, errors.New("empty employee id")
	}
	rec.EmployeeName = cell(row, index, colEmployeeName)

	for _, field := range []struct {
		col string
		dst **attendance.Clock
	}{
		{colShiftIn, &rec.ShiftIn},
		{colPunchIn, &rec.PunchIn},
		{colPunchOut, &rec.PunchOut},
		{colShiftOut, &rec.ShiftOut},
		{colLateBy, &rec.LateBy},
	} {
		c, err := parseClockCell(cell(row, index, field.col))
		if err != nil {
			return rec, fmt.Errorf("%s: %w", field.col, err)
		}
		*field.dst = c
	}

	rec.HoursWorked = cell(row, index, colHoursWorked)
	rec.Status = cell(row, index, colStatus)
	return rec, nil
}
