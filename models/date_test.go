package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTruncateDateIsIdempotent(t *testing.T) {
	inputs := []string{
		"2024-03-01T12:30:00.000Z",
		"2024-03-01 09:00:00-07:00",
		"2024-03-01",
		"2024",
		"",
		"  2024-03-01T00:00:00  ",
		"日本語の日付文字列はここで切れる",
	}
	for _, in := range inputs {
		once := TruncateDate(in)
		assert.Equal(t, once, TruncateDate(once), "input %q", in)
		assert.LessOrEqual(t, len([]rune(once)), 10)
	}
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		raw   string
		want  string
		valid bool
	}{
		{"2024-03-01", "2024-03-01", true},
		{"2024-03-01T23:59:59Z", "2024-03-01", true},
		{"2024/03/01", "2024-03-01", true},
		{"03/01/2024", "2024-03-01", true},
		{"", "", false},
		{"NaT", "", false},
		{"not a date", "", false},
		{"2024-13-40", "", false},
	}
	for _, tt := range tests {
		d := ParseDate(tt.raw)
		assert.Equal(t, tt.valid, d.Valid(), "ParseDate(%q).Valid()", tt.raw)
		assert.Equal(t, tt.want, d.String(), "ParseDate(%q).String()", tt.raw)
	}
}

func TestParseDateRoundTrip(t *testing.T) {
	for _, s := range []string{"2020-01-31", "1999-12-01", "2024-02-29"} {
		assert.Equal(t, s, ParseDate(ParseDate(s).String()).String())
	}
}

func TestDateOrderingInvalidIsOldest(t *testing.T) {
	jan := NewDate(2024, time.January, 1)
	mar := NewDate(2024, time.March, 1)
	var bad Date

	assert.True(t, mar.After(jan))
	assert.False(t, jan.After(mar))
	assert.True(t, jan.After(bad))
	assert.False(t, bad.After(jan))
	assert.True(t, bad.Equal(Date{}))
	assert.False(t, bad.Equal(jan))
}

func TestDateQuarter(t *testing.T) {
	assert.Equal(t, "2024-Q1", NewDate(2024, time.March, 31).Quarter())
	assert.Equal(t, "2024-Q2", NewDate(2024, time.April, 1).Quarter())
	assert.Equal(t, "2023-Q4", NewDate(2023, time.December, 1).Quarter())
	assert.Equal(t, "", Date{}.Quarter())
}

func TestDateJSON(t *testing.T) {
	b, err := json.Marshal(struct {
		A Date `json:"a"`
		B Date `json:"b"`
	}{A: NewDate(2024, time.May, 2)})
	assert.NoError(t, err)
	assert.JSONEq(t, `{"a":"2024-05-02","b":null}`, string(b))
}

func TestParseAction(t *testing.T) {
	assert.Equal(t, ActionAdded, ParseAction("Added"))
	assert.Equal(t, ActionRemoved, ParseAction(" removed "))
	assert.Equal(t, ActionObserved, ParseAction("Updated"))
	assert.Equal(t, ActionObserved, ParseAction(""))
}

func TestTimelineRecentIsPrefix(t *testing.T) {
	tl := Timeline{Events: []CertificationEvent{
		{ProductName: "a", CertificationDate: NewDate(2024, 3, 1)},
		{ProductName: "b", CertificationDate: NewDate(2024, 2, 1)},
		{ProductName: "c"},
	}}
	for k := 0; k <= tl.Len(); k++ {
		recent := tl.Recent(k)
		assert.Equal(t, tl.Events[:len(recent)], recent)
	}
	assert.Len(t, tl.Recent(10), 2)
}

func TestTimelineRecentNegativeK(t *testing.T) {
	tl := Timeline{Events: []CertificationEvent{{ProductName: "a", CertificationDate: NewDate(2024, 3, 1)}}}
	assert.Empty(t, tl.Recent(-1))
	assert.Empty(t, Timeline{}.Recent(-5))
}
