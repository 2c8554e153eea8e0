package attendance

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Clock is a time of day, stored as seconds since midnight. It serialises
// as "HH:MM:SS", which is also the column format in the store.
type Clock int

// NewClock builds a Clock from components. Values are not range-checked
// beyond what ParseClock enforces; callers constructing clocks directly are
// expected to pass sane components.
func NewClock(h, m, s int) Clock {
	return Clock(h*3600 + m*60 + s)
}

// ParseClock parses "HH:MM" or "HH:MM:SS". Empty input yields a nil clock
// (an absent punch), not an error.
func ParseClock(s string) (*Clock, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ":")
	if len(parts) != 2 && len(parts) != 3 {
		return nil, fmt.Errorf("invalid clock value %q", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return nil, fmt.Errorf("invalid hour in %q", s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return nil, fmt.Errorf("invalid minute in %q", s)
	}
	sec := 0
	if len(parts) == 3 {
		// Tolerate fractional seconds from spreadsheet formatting.
		f, err := strconv.ParseFloat(parts[2], 64)
		if err != nil || f < 0 || f >= 60 {
			return nil, fmt.Errorf("invalid second in %q", s)
		}
		sec = int(f)
	}
	c := NewClock(h, m, sec)
	return &c, nil
}

// FromDayFraction converts an Excel fractional-day value (0 <= f < 1) into
// a clock time.
func FromDayFraction(f float64) (*Clock, error) {
	if f < 0 || f >= 1 {
		return nil, fmt.Errorf("day fraction %v out of range", f)
	}
	c := Clock(int(f*86400 + 0.5))
	if c >= 86400 {
		c = 86399
	}
	return &c, nil
}

func (c Clock) String() string {
	s := int(c)
	return fmt.Sprintf("%02d:%02d:%02d", s/3600, (s/60)%60, s%60)
}

// Before reports whether c is earlier in the day than other.
func (c Clock) Before(other Clock) bool { return c < other }

// MarshalJSON renders the clock as its "HH:MM:SS" string.
func (c Clock) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

// UnmarshalJSON accepts "HH:MM" or "HH:MM:SS".
func (c *Clock) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseClock(s)
	if err != nil {
		return err
	}
	if parsed == nil {
		return fmt.Errorf("empty clock value")
	}
	*c = *parsed
	return nil
}

// Value implements driver.Valuer so clocks bind as their text form.
func (c Clock) Value() (driver.Value, error) {
	return c.String(), nil
}

// Scan implements sql.Scanner for TEXT columns.
func (c *Clock) Scan(src any) error {
	switch v := src.(type) {
	case string:
		parsed, err := ParseClock(v)
		if err != nil {
			return err
		}
		if parsed == nil {
			return fmt.Errorf("cannot scan empty string into Clock")
		}
		*c = *parsed
		return nil
	case []byte:
		return c.Scan(string(v))
	default:
		return fmt.Errorf("cannot scan %T into Clock", src)
	}
}

// Earlier returns the earlier of two optional clocks; a nil clock loses to
// a non-nil one. This is the punch-in half of the merge rule.
func Earlier(a, b *Clock) *Clock {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	if b.Before(*a) {
		return b
	}
	return a
}

// Later returns the later of two optional clocks; a nil clock loses to a
// non-nil one. This is the punch-out half of the merge rule.
func Later(a, b *Clock) *Clock {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	if a.Before(*b) {
		return b
	}
	return a
}

// ClockEqual reports whether two optional clocks denote the same instant,
// treating two nils as equal.
func ClockEqual(a, b *Clock) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
