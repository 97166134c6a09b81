package services

import (
	"errors"
	"sort"
	"strconv"

	"scooper-dashboard/config"
	"scooper-dashboard/metrics"
	"scooper-dashboard/models"
	"scooper-dashboard/table"
	"scooper-dashboard/utils"
)

const trackingFeed = "tracking"

// CountLookup resolves a canonical brand to its current product count.
type CountLookup interface {
	CurrentCount(brand string) (int, bool)
}

// PlacementTracker reduces the tracking changelog to the latest action per
// product and enriches it with brand counts.
type PlacementTracker struct {
	brands   *BrandNormalizer
	tieBreak string
	logger   *utils.Logger
}

// NewPlacementTracker creates a tracker. tieBreak is config.TieBreakLast or
// config.TieBreakFirst; anything else behaves as TieBreakLast.
func NewPlacementTracker(brands *BrandNormalizer, tieBreak string, logger *utils.Logger) *PlacementTracker {
	if tieBreak != config.TieBreakFirst {
		tieBreak = config.TieBreakLast
	}
	return &PlacementTracker{brands: brands, tieBreak: tieBreak, logger: logger}
}

// ParseTracking reads the tracking feed into records in feed order.
func (p *PlacementTracker) ParseTracking(raw *table.Table) ([]models.PlacementRecord, error) {
	if err := raw.Require("Product Name", "Brand", "Action", "Date Detected"); err != nil {
		markFeed(err, trackingFeed)
		return nil, err
	}
	out := make([]models.PlacementRecord, 0, raw.Len())
	for _, r := range raw.Rows() {
		name := normaliseText(r.Value("Product Name"))
		if name == "" {
			metrics.RowsDropped.WithLabelValues(trackingFeed, "empty_name").Inc()
			continue
		}
		out = append(out, models.PlacementRecord{
			ProductName:  name,
			Brand:        p.brands.Canonical(r.Value("Brand")),
			Action:       models.ParseAction(r.Value("Action")),
			DateDetected: models.ParseDate(r.Value("Date Detected")),
		})
	}
	return out, nil
}

// Latest keeps one record per product: the one that comes last when the
// feed is stably sorted by detection date ascending. Same-date ties follow
// the configured tie-break. The result is newest first; undated records
// come last.
func (p *PlacementTracker) Latest(records []models.PlacementRecord) []models.PlacementRecord {
	sorted := append([]models.PlacementRecord(nil), records...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[j].DateDetected.After(sorted[i].DateDetected)
	})

	winner := make(map[string]int, len(sorted))
	for i, rec := range sorted {
		cur, ok := winner[rec.ProductName]
		prev := sorted[cur].DateDetected
		if !ok || rec.DateDetected.After(prev) ||
			(p.tieBreak == config.TieBreakLast && rec.DateDetected.Equal(prev)) {
			winner[rec.ProductName] = i
		}
	}

	keep := make([]int, 0, len(winner))
	for _, i := range winner {
		keep = append(keep, i)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(keep)))

	out := make([]models.PlacementRecord, len(keep))
	for n, i := range keep {
		out[n] = sorted[i]
	}
	return out
}

// Recent returns up to k of the newest dated products with their brand's
// current count. Records whose brand has no count are left out and reported
// as *LookupError values joined into the returned error; the other records
// are still returned.
func (p *PlacementTracker) Recent(records []models.PlacementRecord, counts CountLookup, k int) ([]models.EnrichedPlacement, error) {
	var (
		out      []models.EnrichedPlacement
		failures []error
		taken    int
	)
	for _, rec := range p.Latest(records) {
		if taken >= k || !rec.DateDetected.Valid() {
			break
		}
		taken++

		n, ok := counts.CurrentCount(rec.Brand)
		if !ok {
			metrics.LookupFailures.Inc()
			p.logger.Warn("[tracker] no brand count for %s (%s)", rec.Brand, rec.ProductName)
			failures = append(failures, &LookupError{ProductName: rec.ProductName, Brand: rec.Brand})
			continue
		}
		out = append(out, models.EnrichedPlacement{PlacementRecord: rec, CurrentCount: n})
	}
	return out, errors.Join(failures...)
}

// PlacementTable renders enriched placements for export.
func PlacementTable(ps []models.EnrichedPlacement) *table.Table {
	rows := make([][]string, len(ps))
	for i, e := range ps {
		rows[i] = []string{e.Brand, e.ProductName, string(e.Action), e.DateDetected.String(), strconv.Itoa(e.CurrentCount)}
	}
	return table.FromStrings([]string{"Brand", "Product Name", "Action", "Date Detected", "Current Count"}, rows...)
}
