package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// Layouts accepted after truncation. ISO first so well-formed dates
// round-trip unchanged.
var dateLayouts = []string{dateLayout, "2006/01/02", "01/02/2006"}

// Date is a calendar date that may be invalid (unparsable or missing source
// value). Invalid dates are kept on the row and excluded from date-ordered
// views.
type Date struct {
	t     time.Time
	valid bool
}

// NewDate builds a valid date.
func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC), valid: true}
}

// TruncateDate keeps the first 10 characters of s, dropping any time-of-day
// or zone suffix.
func TruncateDate(s string) string {
	s = strings.TrimSpace(s)
	r := []rune(s)
	if len(r) > 10 {
		return string(r[:10])
	}
	return s
}

// ParseDate truncates s and parses it. Failure yields an invalid Date.
func ParseDate(s string) Date {
	s = TruncateDate(s)
	if s == "" {
		return Date{}
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return Date{t: t, valid: true}
		}
	}
	return Date{}
}

// Valid reports whether the date parsed.
func (d Date) Valid() bool { return d.valid }

// Time returns the underlying UTC midnight; zero when invalid.
func (d Date) Time() time.Time { return d.t }

// String is YYYY-MM-DD, or "" for an invalid date.
func (d Date) String() string {
	if !d.valid {
		return ""
	}
	return d.t.Format(dateLayout)
}

// After orders valid dates chronologically; invalid dates are never after
// anything.
func (d Date) After(o Date) bool {
	if !d.valid {
		return false
	}
	if !o.valid {
		return true
	}
	return d.t.After(o.t)
}

// Equal compares two dates, treating all invalid dates as equal.
func (d Date) Equal(o Date) bool {
	if d.valid != o.valid {
		return false
	}
	return !d.valid || d.t.Equal(o.t)
}

// Quarter returns "YYYY-Qn", or "" for an invalid date.
func (d Date) Quarter() string {
	if !d.valid {
		return ""
	}
	return fmt.Sprintf("%d-Q%d", d.t.Year(), (int(d.t.Month())-1)/3+1)
}

// MarshalJSON writes the display string, or null when invalid.
func (d Date) MarshalJSON() ([]byte, error) {
	if !d.valid {
		return []byte("null"), nil
	}
	return json.Marshal(d.String())
}
