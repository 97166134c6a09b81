package services

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"scooper-dashboard/models"
	"scooper-dashboard/utils"
)

// InsightFilter narrows the quarterly aggregates. Empty fields select
// everything; FromQuarter/ToQuarter are inclusive "YYYY-Qn" bounds and
// Quarter picks the quarter for the per-brand breakdown (default: latest).
type InsightFilter struct {
	Sources     []models.Source
	Brands      []string
	FromQuarter string
	ToQuarter   string
	Quarter     string
}

type InsightService struct {
	logger *utils.Logger
}

func NewInsightService(logger *utils.Logger) *InsightService {
	return &InsightService{logger: logger}
}

// Generate counts certification events per quarter. Undated events are
// counted in the totals but excluded from every quarterly group.
func (s *InsightService) Generate(tl models.Timeline, f InsightFilter) *models.InsightReport {
	report := &models.InsightReport{
		EventsBySource: make(map[models.Source]int),
	}
	if tl.Len() == 0 {
		return report
	}

	sources := make(map[models.Source]struct{}, len(f.Sources))
	for _, src := range f.Sources {
		sources[src] = struct{}{}
	}
	brands := make(map[string]struct{}, len(f.Brands))
	for _, b := range f.Brands {
		brands[b] = struct{}{}
	}

	quarterSet := make(map[string]struct{})
	bySourceBrand := make(map[models.QuarterCount]int)
	bySource := make(map[models.QuarterCount]int)
	var dated []models.CertificationEvent

	for _, e := range tl.Events {
		report.TotalEvents++
		report.EventsBySource[e.Source]++
		q := e.CertificationDate.Quarter()
		if q == "" {
			report.UndatedEvents++
			continue
		}
		quarterSet[q] = struct{}{}
		if len(sources) > 0 {
			if _, ok := sources[e.Source]; !ok {
				continue
			}
		}
		if len(brands) > 0 {
			if _, ok := brands[e.Brand]; !ok {
				continue
			}
		}
		dated = append(dated, e)
		if (f.FromQuarter != "" && q < f.FromQuarter) || (f.ToQuarter != "" && q > f.ToQuarter) {
			continue
		}
		bySourceBrand[models.QuarterCount{Source: e.Source, Brand: e.Brand, Quarter: q}]++
		bySource[models.QuarterCount{Source: e.Source, Quarter: q}]++
	}

	for q := range quarterSet {
		report.Quarters = append(report.Quarters, q)
	}
	sort.Strings(report.Quarters)

	report.SelectedQuarter = f.Quarter
	if report.SelectedQuarter == "" && len(report.Quarters) > 0 {
		report.SelectedQuarter = report.Quarters[len(report.Quarters)-1]
	}
	byBrand := make(map[models.QuarterCount]int)
	for _, e := range dated {
		if e.CertificationDate.Quarter() == report.SelectedQuarter {
			byBrand[models.QuarterCount{Source: e.Source, Brand: e.Brand}]++
		}
	}

	report.BySourceBrand = flattenCounts(bySourceBrand)
	report.BySource = flattenCounts(bySource)
	report.BrandsInQuarter = flattenCounts(byBrand)
	return report
}

func flattenCounts(m map[models.QuarterCount]int) []models.QuarterCount {
	out := make([]models.QuarterCount, 0, len(m))
	for k, n := range m {
		k.Count = n
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Quarter != b.Quarter {
			return a.Quarter < b.Quarter
		}
		if a.Source != b.Source {
			return sourceRank(a.Source) < sourceRank(b.Source)
		}
		return a.Brand < b.Brand
	})
	return out
}

func sourceRank(s models.Source) int {
	for i, src := range models.Sources {
		if src == s {
			return i
		}
	}
	return len(models.Sources)
}

// Print writes a terminal report of one dashboard snapshot.
func (s *InsightService) Print(w io.Writer, snap *models.Snapshot) {
	sep := strings.Repeat("═", 64)
	thin := strings.Repeat("─", 64)

	fmt.Fprintf(w, "\n\033[1;35m%s\033[0m\n", sep)
	fmt.Fprintf(w, "\033[1;35m  SCOOPER DASHBOARD  %s\033[0m\n", snap.GeneratedAt.Format("2006-01-02 15:04"))
	fmt.Fprintf(w, "\033[1;35m%s\033[0m\n\n", sep)

	// Feeds
	fmt.Fprintf(w, "\033[1;33m  Source Feeds\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	if failed := snap.FailedFeeds(); failed > 0 {
		fmt.Fprintf(w, "  \033[1;31m%d of %d source feeds failed to load\033[0m\n", failed, len(snap.Feeds))
	}
	for _, f := range snap.Feeds {
		if f.Loaded {
			fmt.Fprintf(w, "  %-42s \033[32mok\033[0m  %d rows\n", truncate(f.Key, 40), f.Rows)
		} else {
			fmt.Fprintf(w, "  %-42s \033[31mfailed\033[0m %s\n", truncate(f.Key, 40), f.Error)
		}
	}
	fmt.Fprintln(w)

	// Certifications
	fmt.Fprintf(w, "\033[1;33m  Recent Certifications\033[0m (%d total)\n", snap.Timeline.Len())
	fmt.Fprintf(w, "  %s\n", thin)
	if len(snap.RecentEvents) == 0 {
		fmt.Fprintf(w, "  No certifications found\n")
	}
	for i, e := range snap.RecentEvents {
		fmt.Fprintf(w, "  \033[1m%2d.\033[0m %-32s %-10s %s  \033[36m%s\033[0m\n",
			i+1, truncate(e.ProductName, 30), truncate(e.Brand, 10), e.CertificationDate, e.Source)
	}
	fmt.Fprintln(w)

	// Placements
	fmt.Fprintf(w, "\033[1;33m  Recent Placements\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	if len(snap.RecentPlacements) == 0 && len(snap.LookupFailures) == 0 {
		fmt.Fprintf(w, "  No placement changes found\n")
	}
	for _, p := range snap.RecentPlacements {
		fmt.Fprintf(w, "  %-8s %-32s %-10s %s  (%d products)\n",
			p.Action, truncate(p.ProductName, 30), truncate(p.Brand, 10), p.DateDetected, p.CurrentCount)
	}
	for _, lf := range snap.LookupFailures {
		fmt.Fprintf(w, "  \033[31m!\033[0m %s: %s\n", lf.ProductName, lf.Reason)
	}
	fmt.Fprintln(w)

	// Brand totals
	fmt.Fprintf(w, "\033[1;33m  Current Products by Brand\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	if len(snap.CurrentCounts) == 0 {
		fmt.Fprintf(w, "  No brand counts available\n")
	}
	maxCount := 0
	for _, bc := range snap.CurrentCounts {
		if bc.Count > maxCount {
			maxCount = bc.Count
		}
	}
	for _, bc := range snap.CurrentCounts {
		fmt.Fprintf(w, "  %-18s %s (%d)\n", truncate(bc.Brand, 16), bar(bc.Count, maxCount, 36), bc.Count)
	}
	fmt.Fprintln(w)

	// Quarterly
	if r := snap.Insights; r != nil && r.SelectedQuarter != "" {
		fmt.Fprintf(w, "\033[1;33m  Certifications in %s\033[0m\n", r.SelectedQuarter)
		fmt.Fprintf(w, "  %s\n", thin)
		for _, qc := range r.BrandsInQuarter {
			fmt.Fprintf(w, "  %-18s %-16s %d\n", truncate(qc.Brand, 16), qc.Source, qc.Count)
		}
		if r.UndatedEvents > 0 {
			fmt.Fprintf(w, "  (%d events without a valid date not shown)\n", r.UndatedEvents)
		}
	}

	fmt.Fprintf(w, "\n\033[1;35m%s\033[0m\n\n", sep)
}

func bar(n, max, width int) string {
	if max == 0 || n <= 0 {
		return ""
	}
	w := n * width / max
	if w == 0 {
		w = 1
	}
	return strings.Repeat("█", w)
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
