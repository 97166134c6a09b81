package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextRefresh(t *testing.T) {
	loc, err := time.LoadLocation("America/Los_Angeles")
	require.NoError(t, err)

	before := NextRefresh(time.Date(2024, 1, 10, 8, 0, 0, 0, loc))
	assert.Equal(t, time.Date(2024, 1, 10, 9, 0, 0, 0, loc).Unix(), before.Next.Unix())
	assert.Equal(t, time.Hour, before.TimeLeft)
	assert.InDelta(t, 100*23.0/24.0, before.Progress, 0.01)

	after := NextRefresh(time.Date(2024, 1, 10, 10, 0, 0, 0, loc))
	assert.Equal(t, time.Date(2024, 1, 11, 9, 0, 0, 0, loc).Unix(), after.Next.Unix())
	assert.Equal(t, 23*time.Hour, after.TimeLeft)

	atNine := NextRefresh(time.Date(2024, 1, 10, 9, 0, 0, 0, loc))
	assert.Equal(t, 24*time.Hour, atNine.TimeLeft)
	assert.InDelta(t, 0, atNine.Progress, 0.01)
}

func TestNextRefreshAcceptsAnyZone(t *testing.T) {
	// 17:00 UTC in January is 09:00 Pacific.
	r := NextRefresh(time.Date(2024, 1, 10, 16, 30, 0, 0, time.UTC))
	assert.Equal(t, 30*time.Minute, r.TimeLeft)
}
