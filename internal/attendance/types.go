// Package attendance holds the domain model shared by the spreadsheet
// reader, the store, and the API: one record per employee per day, with
// punch and shift times expressed as clock times.
package attendance

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the canonical on-disk and on-wire date format.
const DateLayout = "2006-01-02"

// Record is a single attendance row: one employee on one punch date.
type Record struct {
	Date         string     `json:"punch_date"`
	EmployeeID   string     `json:"employee_id"`
	EmployeeName string     `json:"employee_name"`
	ShiftIn      *Clock     `json:"shift_in,omitempty"`
	PunchIn      *Clock     `json:"punch_in,omitempty"`
	PunchOut     *Clock     `json:"punch_out,omitempty"`
	ShiftOut     *Clock     `json:"shift_out,omitempty"`
	HoursWorked  string     `json:"hours_worked,omitempty"`
	Status       string     `json:"status,omitempty"`
	LateBy       *Clock     `json:"late_by,omitempty"`
	FileHash     string     `json:"file_hash,omitempty"`
	ProcessedAt  *time.Time `json:"processed_at,omitempty"`
}

// Employee is one distinct (id, name) pair known to the store.
type Employee struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// HoursDecimal converts the HoursWorked field into decimal hours. Punch
// clocks export either decimal hours ("8.61") or a duration ("08:36");
// both are accepted. Empty or unparsable fields contribute zero.
func (r Record) HoursDecimal() decimal.Decimal {
	s := strings.TrimSpace(r.HoursWorked)
	if s == "" {
		return decimal.Zero
	}
	if d, err := decimal.NewFromString(s); err == nil {
		return d
	}
	c, err := ParseClock(s)
	if err != nil || c == nil {
		return decimal.Zero
	}
	seconds := decimal.NewFromInt(int64(*c))
	return seconds.Div(decimal.NewFromInt(3600))
}
