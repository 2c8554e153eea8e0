package sheet

import (
	"fmt"
	"io"

	"github.com/attmon/attmon/internal/attendance"
	"github.com/xuri/excelize/v2"
)

// exportHeader is the column order of exported workbooks, mirroring the
// columns the reader accepts so an export round-trips through ReadPunches.
var exportHeader = []string{
	colPunchDate, colEmployeeID, colEmployeeName, colShiftIn, colPunchIn,
	colPunchOut, colShiftOut, colHoursWorked, colStatus, colLateBy,
}

// WritePunches renders records as an .xlsx workbook onto w.
func WritePunches(w io.Writer, records []attendance.Record) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	sheet := f.GetSheetName(0)

	header := make([]any, len(exportHeader))
	for i, h := range exportHeader {
		header[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i, rec := range records {
		row := []any{
			rec.Date,
			rec.EmployeeID,
			rec.EmployeeName,
			clockCell(rec.ShiftIn),
			clockCell(rec.PunchIn),
			clockCell(rec.PunchOut),
			clockCell(rec.ShiftOut),
			rec.HoursWorked,
			rec.Status,
			clockCell(rec.LateBy),
		}
		cellRef, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("cell name: %w", err)
		}
		if err := f.SetSheetRow(sheet, cellRef, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func clockCell(c *attendance.Clock) string {
	if c == nil {
		return ""
	}
	return c.String()
}

// CSVHeader returns the export header row for CSV output, matching the
// xlsx column order.
func CSVHeader() []string {
	return append([]string(nil), exportHeader...)
}

// CSVRow flattens a record into the export column order.
func CSVRow(rec attendance.Record) []string {
	return []string{
		rec.Date,
		rec.EmployeeID,
		rec.EmployeeName,
		clockCell(rec.ShiftIn),
		clockCell(rec.PunchIn),
		clockCell(rec.PunchOut),
		clockCell(rec.ShiftOut),
		rec.HoursWorked,
		rec.Status,
		clockCell(rec.LateBy),
	}
}
