package services

import (
	"sort"
	"strconv"
	"strings"

	"scooper-dashboard/metrics"
	"scooper-dashboard/models"
	"scooper-dashboard/table"
	"scooper-dashboard/utils"
)

const brandCountsFeed = "brand_counts"

// BrandSeries is the deduplicated (brand, date, count) feed.
type BrandSeries struct {
	rows []models.BrandCount
}

// NewBrandSeries parses the brand-count feed. Rows with a missing or negative
// count are dropped; rows with an unparsable date are kept but take no part
// in the current snapshot or the pivot.
func NewBrandSeries(raw *table.Table, brands *BrandNormalizer, logger *utils.Logger) (*BrandSeries, error) {
	if err := raw.Require("Brand", "Date", "Count"); err != nil {
		markFeed(err, brandCountsFeed)
		return nil, err
	}

	parsed := make([]models.BrandCount, 0, raw.Len())
	for _, r := range raw.Rows() {
		brand := brands.Canonical(r.Value("Brand"))
		if brand == "" {
			metrics.RowsDropped.WithLabelValues(brandCountsFeed, "empty_brand").Inc()
			continue
		}
		count, err := parseCount(r.Value("Count"))
		if err != nil {
			metrics.RowsDropped.WithLabelValues(brandCountsFeed, "count").Inc()
			logger.Warn("[series] dropping %s count %q: %v", brand, r.Value("Count"), err)
			continue
		}
		parsed = append(parsed, models.BrandCount{Brand: brand, Date: models.ParseDate(r.Value("Date")), Count: count})
	}
	return NewBrandSeriesFromCounts(parsed), nil
}

// NewBrandSeriesFromCounts builds a series from already-typed rows,
// deduplicating exact triples.
func NewBrandSeriesFromCounts(counts []models.BrandCount) *BrandSeries {
	seen := make(map[string]struct{}, len(counts))
	rows := make([]models.BrandCount, 0, len(counts))
	for _, bc := range counts {
		k := bc.Brand + "\x1f" + bc.Date.String() + "\x1f" + strconv.Itoa(bc.Count)
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		rows = append(rows, bc)
	}
	return &BrandSeries{rows: rows}
}

// parseCount accepts integers and integral floats ("7", "7.0").
func parseCount(s string) (int, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		if n < 0 {
			return 0, strconv.ErrRange
		}
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if f < 0 || f != float64(int(f)) {
		return 0, strconv.ErrRange
	}
	return int(f), nil
}

// Rows returns every deduplicated row in feed order.
func (s *BrandSeries) Rows() []models.BrandCount {
	return append([]models.BrandCount(nil), s.rows...)
}

// Current returns the most recent count per brand, sorted by brand. When a
// brand has several rows on its latest date the later feed row wins.
func (s *BrandSeries) Current() []models.BrandCount {
	latest := s.latest()
	out := make([]models.BrandCount, 0, len(latest))
	for _, bc := range latest {
		out = append(out, bc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Brand < out[j].Brand })
	return out
}

// CurrentCount returns the brand's most recent count.
func (s *BrandSeries) CurrentCount(brand string) (int, bool) {
	bc, ok := s.latest()[brand]
	return bc.Count, ok
}

func (s *BrandSeries) latest() map[string]models.BrandCount {
	out := make(map[string]models.BrandCount)
	for _, bc := range s.rows {
		if !bc.Date.Valid() {
			continue
		}
		cur, ok := out[bc.Brand]
		if !ok || !cur.Date.After(bc.Date) {
			out[bc.Brand] = bc
		}
	}
	return out
}

// Pivot reshapes the series into one row per distinct date (newest first)
// and one column per brand (alphabetical). Missing combinations are 0.
func (s *BrandSeries) Pivot() models.BrandPivot {
	dateSet := make(map[string]models.Date)
	brandSet := make(map[string]struct{})
	cells := make(map[string]map[string]int)

	for _, bc := range s.rows {
		if !bc.Date.Valid() {
			continue
		}
		d := bc.Date.String()
		dateSet[d] = bc.Date
		brandSet[bc.Brand] = struct{}{}
		if cells[d] == nil {
			cells[d] = make(map[string]int)
		}
		cells[d][bc.Brand] = bc.Count
	}

	p := models.BrandPivot{}
	for d := range dateSet {
		p.Dates = append(p.Dates, d)
	}
	sort.Slice(p.Dates, func(i, j int) bool {
		return dateSet[p.Dates[i]].After(dateSet[p.Dates[j]])
	})
	for b := range brandSet {
		p.Brands = append(p.Brands, b)
	}
	sort.Strings(p.Brands)

	p.Counts = make([][]int, len(p.Dates))
	for i, d := range p.Dates {
		row := make([]int, len(p.Brands))
		for j, b := range p.Brands {
			row[j] = cells[d][b]
		}
		p.Counts[i] = row
	}
	return p
}

// PivotTable renders a pivot with a leading Date column.
func PivotTable(p models.BrandPivot) *table.Table {
	cols := append([]string{"Date"}, p.Brands...)
	rows := make([][]table.Cell, len(p.Dates))
	for i, d := range p.Dates {
		row := make([]table.Cell, 0, len(cols))
		row = append(row, table.Str(d))
		for _, n := range p.Counts[i] {
			row = append(row, table.Str(strconv.Itoa(n)))
		}
		rows[i] = row
	}
	return table.New(cols, rows...)
}

// BrandCountTable renders brand counts as Brand, Date, Count.
func BrandCountTable(counts []models.BrandCount) *table.Table {
	rows := make([][]table.Cell, len(counts))
	for i, bc := range counts {
		rows[i] = []table.Cell{table.Str(bc.Brand), table.Str(bc.Date.String()), table.Str(strconv.Itoa(bc.Count))}
	}
	return table.New([]string{"Brand", "Date", "Count"}, rows...)
}
