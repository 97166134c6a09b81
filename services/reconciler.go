package services

import (
	"sort"

	"scooper-dashboard/models"
	"scooper-dashboard/table"
	"scooper-dashboard/utils"
)

// Reconciler merges adapted feeds into one timeline.
type Reconciler struct {
	logger *utils.Logger
}

// NewReconciler creates a Reconciler with the given logger.
func NewReconciler(logger *utils.Logger) *Reconciler {
	return &Reconciler{logger: logger}
}

// Reconcile concatenates feeds in argument order, drops exact duplicates
// (first occurrence wins) and orders the result newest first. Undated
// events sort last. The sort is stable, so equal dates keep input order.
func (r *Reconciler) Reconcile(feeds ...[]models.CertificationEvent) models.Timeline {
	total := 0
	for _, f := range feeds {
		total += len(f)
	}

	seen := make(map[string]struct{}, total)
	events := make([]models.CertificationEvent, 0, total)
	for _, f := range feeds {
		for _, e := range f {
			k := e.Key()
			if _, dup := seen[k]; dup {
				continue
			}
			seen[k] = struct{}{}
			events = append(events, e)
		}
	}

	sort.SliceStable(events, func(i, j int) bool {
		return events[i].CertificationDate.After(events[j].CertificationDate)
	})

	r.logger.Info("[reconciler] %d events from %d feeds (%d duplicates dropped)",
		len(events), len(feeds), total-len(events))
	return models.Timeline{Events: events}
}

var timelineColumns = []string{ColProductName, ColBrand, ColCertificationDate, ColProductType, ColSource}

// TimelineTable renders events with the canonical column names. Events
// from registries without a product type are stacked without that column,
// so it comes out null for them.
func TimelineTable(events []models.CertificationEvent) *table.Table {
	parts := []*table.Table{table.New(timelineColumns)}
	for start := 0; start < len(events); {
		typed := events[start].ProductType != nil
		end := start + 1
		for end < len(events) && (events[end].ProductType != nil) == typed {
			end++
		}
		parts = append(parts, timelineRun(events[start:end], typed))
		start = end
	}
	return table.Concat(parts...)
}

func timelineRun(events []models.CertificationEvent, typed bool) *table.Table {
	rows := make([][]table.Cell, 0, len(events))
	for _, e := range events {
		date := table.Null()
		if e.CertificationDate.Valid() {
			date = table.Str(e.CertificationDate.String())
		}
		row := []table.Cell{table.Str(e.ProductName), table.Str(e.Brand), date}
		if typed {
			row = append(row, table.Str(*e.ProductType))
		}
		rows = append(rows, append(row, table.Str(string(e.Source))))
	}
	if typed {
		return table.New(timelineColumns, rows...)
	}
	return table.New([]string{ColProductName, ColBrand, ColCertificationDate, ColSource}, rows...)
}
