package sheet

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/attmon/attmon/internal/attendance"
	"github.com/xuri/excelize/v2"
)

// dateLayouts are the accepted textual date forms, tried in order. The
// punch-clock vendors observed in the wild are not consistent.
var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
	"1/2/2006",
	"1/2/06",
	"02-Jan-2006",
	"2-Jan-2006",
	"2006-01-02 15:04:05",
}

// parseDate normalises a date cell to the canonical YYYY-MM-DD form.
// Numeric cells are treated as Excel date serials.
func parseDate(cell string) (string, error) {
	cell = strings.TrimSpace(cell)
	if cell == "" {
		return "", fmt.Errorf("empty date cell")
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, cell); err == nil {
			return t.Format(attendance.DateLayout), nil
		}
	}

	if serial, err := strconv.ParseFloat(cell, 64); err == nil && serial > 59 {
		t, err := excelize.ExcelDateToTime(serial, false)
		if err != nil {
			return "", fmt.Errorf("date serial %q: %w", cell, err)
		}
		return t.Format(attendance.DateLayout), nil
	}

	return "", fmt.Errorf("unrecognised date %q", cell)
}

// parseClockCell normalises a time cell to an optional clock. Accepts
// "HH:MM", "HH:MM:SS", "3:04 PM", and fractional-day serials; an empty
// cell is an absent punch.
func parseClockCell(cell string) (*attendance.Clock, error) {
	cell = strings.TrimSpace(cell)
	if cell == "" {
		return nil, nil
	}

	if strings.ContainsAny(cell, "APMapm") {
		for _, layout := range []string{"3:04 PM", "3:04:05 PM", "03:04 PM"} {
			if t, err := time.Parse(layout, strings.ToUpper(cell)); err == nil {
				c := attendance.NewClock(t.Hour(), t.Minute(), t.Second())
				return &c, nil
			}
		}
		return nil, fmt.Errorf("unrecognised time %q", cell)
	}

	if c, err := attendance.ParseClock(cell); err == nil {
		return c, nil
	}

	if f, err := strconv.ParseFloat(cell, 64); err == nil {
		frac := f - math.Floor(f)
		return attendance.FromDayFraction(frac)
	}

	return nil, fmt.Errorf("unrecognised time %q", cell)
}
