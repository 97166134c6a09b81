package services

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scooper-dashboard/config"
	"scooper-dashboard/models"
)

func record(name, brand string, action models.Action, date string) models.PlacementRecord {
	return models.PlacementRecord{ProductName: name, Brand: brand, Action: action, DateDetected: models.ParseDate(date)}
}

func TestLatestKeepsMostRecentAction(t *testing.T) {
	tr := NewPlacementTracker(testBrands(), config.TieBreakLast, nopLogger())
	got := tr.Latest([]models.PlacementRecord{
		record("LaserJet X1", "HP", models.ActionRemoved, "2024-03-01"),
		record("LaserJet X1", "HP", models.ActionAdded, "2024-01-01"),
	})
	require.Len(t, got, 1)
	assert.Equal(t, models.ActionRemoved, got[0].Action)
	assert.Equal(t, "2024-03-01", got[0].DateDetected.String())
}

func TestLatestTieBreak(t *testing.T) {
	records := []models.PlacementRecord{
		record("X1", "HP", models.ActionAdded, "2024-03-01"),
		record("X1", "HP", models.ActionRemoved, "2024-03-01"),
	}
	cases := []struct {
		tieBreak string
		want     models.Action
	}{
		{config.TieBreakLast, models.ActionRemoved},
		{config.TieBreakFirst, models.ActionAdded},
		{"", models.ActionRemoved},
	}
	for _, tc := range cases {
		t.Run(tc.tieBreak, func(t *testing.T) {
			got := NewPlacementTracker(testBrands(), tc.tieBreak, nopLogger()).Latest(records)
			require.Len(t, got, 1)
			assert.Equal(t, tc.want, got[0].Action)
		})
	}
}

func TestRecentEnrichesAndReportsLookupFailures(t *testing.T) {
	counts := NewBrandSeriesFromCounts([]models.BrandCount{
		{Brand: "HP", Date: models.ParseDate("2024-01-01"), Count: 10},
		{Brand: "HP", Date: models.ParseDate("2024-02-01"), Count: 12},
		{Brand: "Canon", Date: models.ParseDate("2024-02-01"), Count: 4},
	})
	tr := NewPlacementTracker(testBrands(), config.TieBreakLast, nopLogger())
	got, err := tr.Recent([]models.PlacementRecord{
		record("A", "HP", models.ActionAdded, "2024-02-03"),
		record("B", "BrandY", models.ActionAdded, "2024-02-02"),
		record("C", "Canon", models.ActionObserved, "2024-02-01"),
	}, counts, 5)

	require.Error(t, err)
	failures := LookupErrors(err)
	require.Len(t, failures, 1)
	assert.Equal(t, "BrandY", failures[0].Brand)
	assert.Equal(t, "B", failures[0].ProductName)

	var le *LookupError
	assert.True(t, errors.As(err, &le))

	require.Len(t, got, 2)
	assert.Equal(t, "A", got[0].ProductName)
	assert.Equal(t, 12, got[0].CurrentCount)
	assert.Equal(t, "C", got[1].ProductName)
	assert.Equal(t, 4, got[1].CurrentCount)
}

func TestRecentLimitsAndSkipsUndated(t *testing.T) {
	counts := NewBrandSeriesFromCounts([]models.BrandCount{
		{Brand: "HP", Date: models.ParseDate("2024-01-01"), Count: 1},
	})
	tr := NewPlacementTracker(testBrands(), config.TieBreakLast, nopLogger())
	got, err := tr.Recent([]models.PlacementRecord{
		record("A", "HP", models.ActionAdded, "2024-01-01"),
		record("B", "HP", models.ActionAdded, "2024-01-03"),
		record("C", "HP", models.ActionAdded, "2024-01-02"),
		record("D", "HP", models.ActionAdded, ""),
	}, counts, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "B", got[0].ProductName)
	assert.Equal(t, "C", got[1].ProductName)
}

func TestParseTrackingNormalisesBrands(t *testing.T) {
	doc := "Product Name,Brand,Action,Date Detected\n" +
		"LaserJet X1,HP Inc.,Added,2024-01-01 08:00:00\n" +
		",HP,Added,2024-01-01\n" +
		"Ecotank,Epson,Seen,2024-01-02\n"
	tr := NewPlacementTracker(testBrands(), config.TieBreakLast, nopLogger())
	recs, err := tr.ParseTracking(readTable(t, doc))
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "HP", recs[0].Brand)
	assert.Equal(t, "2024-01-01", recs[0].DateDetected.String())
	assert.Equal(t, models.ActionObserved, recs[1].Action)

	counts := NewBrandSeriesFromCounts([]models.BrandCount{{Brand: "HP", Date: models.ParseDate("2024-01-01"), Count: 3}})
	got, err := tr.Recent(recs[:1], counts, 5)
	require.NoError(t, err)
	assert.Equal(t, 3, got[0].CurrentCount)
}

func TestParseTrackingMissingColumn(t *testing.T) {
	tr := NewPlacementTracker(testBrands(), config.TieBreakLast, nopLogger())
	_, err := tr.ParseTracking(readTable(t, "Product Name,Brand,Action\nX,HP,Added\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Date Detected")
}
