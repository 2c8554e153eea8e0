package sheet

import (
	"bytes"
	"errors"
	"testing"

	"github.com/attmon/attmon/internal/attendance"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

// buildWorkbook renders rows (header first) into xlsx bytes.
func buildWorkbook(t *testing.T, rows [][]any) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()
	sheet := f.GetSheetName(0)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf
}

var punchHeader = []any{
	"Punch_Date", "Employee_ID", "Employee_Name", "Shift_In", "Punch_In_Time",
	"Punch_Out_Time", "Shift_Out", "Hours_Worked", "Status", "Late_By",
}

func TestReadPunches(t *testing.T) {
	buf := buildWorkbook(t, [][]any{
		punchHeader,
		{"2026-03-02", "E001", "Asha Rao", "09:00:00", "08:55:12", "17:31:40", "17:00:00", "8.61", "Present", ""},
		{"2026-03-02", "E002", "Ben Odoi", "", "09:14", "18:02", "", "8.80", "Late", "00:14:00"},
	})

	recs, err := ReadPunchesFrom(buf)
	require.NoError(t, err)
	require.Len(t, recs, 2)

	r := recs[0]
	assert.Equal(t, "2026-03-02", r.Date)
	assert.Equal(t, "E001", r.EmployeeID)
	assert.Equal(t, "Asha Rao", r.EmployeeName)
	require.NotNil(t, r.PunchIn)
	assert.Equal(t, "08:55:12", r.PunchIn.String())
	require.NotNil(t, r.PunchOut)
	assert.Equal(t, "17:31:40", r.PunchOut.String())
	assert.Equal(t, "8.61", r.HoursWorked)
	assert.Equal(t, "Present", r.Status)
	assert.Nil(t, r.LateBy)

	r = recs[1]
	assert.Nil(t, r.ShiftIn)
	require.NotNil(t, r.PunchIn)
	assert.Equal(t, "09:14:00", r.PunchIn.String())
	require.NotNil(t, r.LateBy)
	assert.Equal(t, "00:14:00", r.LateBy.String())
}

func TestReadPunchesHeaderCaseInsensitive(t *testing.T) {
	buf := buildWorkbook(t, [][]any{
		{"punch_date", "EMPLOYEE_ID", " Employee_Name ", "Punch_In_Time", "Punch_Out_Time"},
		{"2026-03-02", "E001", "Asha Rao", "09:00", "17:00"},
	})
	recs, err := ReadPunchesFrom(buf)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "E001", recs[0].EmployeeID)
}

func TestReadPunchesSkipsBlankRows(t *testing.T) {
	buf := buildWorkbook(t, [][]any{
		punchHeader,
		{"", "", "", "", "", "", "", "", "", ""},
		{"2026-03-02", "E001", "Asha Rao", "", "09:00", "17:00", "", "", "", ""},
	})
	recs, err := ReadPunchesFrom(buf)
	require.NoError(t, err)
	assert.Len(t, recs, 1)
}

func TestReadPunchesMissingColumns(t *testing.T) {
	buf := buildWorkbook(t, [][]any{
		{"Punch_Date", "Employee_Name", "Some_Other"},
		{"2026-03-02", "Asha Rao", "x"},
	})
	_, err := ReadPunchesFrom(buf)
	var missing *MissingColumnsError
	require.ErrorAs(t, err, &missing)
	assert.Contains(t, missing.Columns, "Employee_ID")
	assert.Contains(t, missing.Columns, "Punch_In_Time")
	assert.Contains(t, missing.Columns, "Punch_Out_Time")
	assert.NotContains(t, missing.Columns, "Punch_Date")
}

func TestReadPunchesRowErrors(t *testing.T) {
	t.Run("empty employee id", func(t *testing.T) {
		buf := buildWorkbook(t, [][]any{
			punchHeader,
			{"2026-03-02", "", "Nobody", "", "09:00", "17:00", "", "", "", ""},
		})
		_, err := ReadPunchesFrom(buf)
		var rowErr *RowError
		require.ErrorAs(t, err, &rowErr)
		assert.Equal(t, 2, rowErr.Row)
	})

	t.Run("bad time cell", func(t *testing.T) {
		buf := buildWorkbook(t, [][]any{
			punchHeader,
			{"2026-03-02", "E001", "Asha Rao", "", "09:00", "17:00", "", "", "", ""},
			{"2026-03-02", "E002", "Ben Odoi", "", "morning", "17:00", "", "", "", ""},
		})
		_, err := ReadPunchesFrom(buf)
		var rowErr *RowError
		require.ErrorAs(t, err, &rowErr)
		assert.Equal(t, 3, rowErr.Row)
	})
}

func TestReadPunchesEmptyWorkbook(t *testing.T) {
	f := excelize.NewFile()
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	require.NoError(t, f.Close())

	_, err = ReadPunchesFrom(buf)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoRows))
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "2026-03-02", want: "2026-03-02"},
		{in: "2026/03/02", want: "2026-03-02"},
		{in: "03/02/2026", want: "2026-03-02"},
		{in: "2-Mar-2026", want: "2026-03-02"},
		{in: "2026-03-02 08:15:00", want: "2026-03-02"},
		{in: "46083", want: "2026-03-02"}, // Excel serial
		{in: "", wantErr: true},
		{in: "someday", wantErr: true},
		{in: "12", wantErr: true}, // too small to be a date serial
	}
	for _, tt := range tests {
		got, err := parseDate(tt.in)
		if tt.wantErr {
			assert.Error(t, err, "input %q", tt.in)
			continue
		}
		require.NoError(t, err, "input %q", tt.in)
		assert.Equal(t, tt.want, got, "input %q", tt.in)
	}
}

func TestParseClockCell(t *testing.T) {
	c, err := parseClockCell("5:07 PM")
	require.NoError(t, err)
	assert.Equal(t, "17:07:00", c.String())

	c, err = parseClockCell("0.5")
	require.NoError(t, err)
	assert.Equal(t, "12:00:00", c.String())

	c, err = parseClockCell("")
	require.NoError(t, err)
	assert.Nil(t, c)

	_, err = parseClockCell("soon")
	assert.Error(t, err)
}

func TestWritePunchesRoundTrip(t *testing.T) {
	in := attendance.NewClock(8, 55, 12)
	out := attendance.NewClock(17, 31, 40)
	recs := []attendance.Record{{
		Date:         "2026-03-02",
		EmployeeID:   "E001",
		EmployeeName: "Asha Rao",
		PunchIn:      &in,
		PunchOut:     &out,
		HoursWorked:  "8.61",
		Status:       "Present",
	}}

	var buf bytes.Buffer
	require.NoError(t, WritePunches(&buf, recs))

	back, err := ReadPunchesFrom(&buf)
	require.NoError(t, err)
	require.Len(t, back, 1)
	assert.Equal(t, recs[0].Date, back[0].Date)
	assert.Equal(t, recs[0].EmployeeID, back[0].EmployeeID)
	assert.True(t, attendance.ClockEqual(recs[0].PunchIn, back[0].PunchIn))
	assert.True(t, attendance.ClockEqual(recs[0].PunchOut, back[0].PunchOut))
	assert.Nil(t, back[0].ShiftIn)
}
