package services

import (
	"time"
	_ "time/tzdata"

	"scooper-dashboard/models"
)

// The upstream scraper runs daily at 09:00 Pacific.
const (
	refreshHour = 9
	refreshZone = "America/Los_Angeles"
)

// NextRefresh computes when the snapshots will next be rewritten, how long
// that is from now and how far through the current 24h cycle we are (0-100).
func NextRefresh(now time.Time) models.RefreshSchedule {
	loc, err := time.LoadLocation(refreshZone)
	if err != nil {
		loc = time.FixedZone("PST", -8*3600)
	}
	local := now.In(loc)

	next := time.Date(local.Year(), local.Month(), local.Day(), refreshHour, 0, 0, 0, loc)
	if !local.Before(next) {
		next = next.AddDate(0, 0, 1)
	}
	left := next.Sub(local)

	progress := (1 - left.Seconds()/(24*time.Hour).Seconds()) * 100
	if progress < 0 {
		progress = 0
	}
	return models.RefreshSchedule{Next: next, TimeLeft: left, Progress: progress}
}
