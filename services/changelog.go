package services

import (
	"fmt"

	"scooper-dashboard/config"
	"scooper-dashboard/models"
	"scooper-dashboard/table"
)

// ChangelogLayout describes how one registry's changelog feed is projected.
type ChangelogLayout struct {
	Name     string
	Key      string
	DedupOn  []string
	Columns  []string
	DateCols []string
	Renames  map[string]string
}

// RegistryChangelogs returns the changelog projections for every registry,
// keyed by the short name used in the API.
func RegistryChangelogs(feeds config.FeedKeys) map[string]ChangelogLayout {
	return map[string]ChangelogLayout{
		"energy-star": {
			Name:    "Energy Star",
			Key:     feeds.ChangelogEnergyStar,
			DedupOn: []string{"pd_id"},
			Columns: []string{
				"Date", "model_name", "brand_name", "product_type", "color_capability",
				"monochrome_product_speed_ipm_or_mppm", "date_available_on_market",
				"date_qualified", "markets",
			},
			DateCols: []string{"Date", "date_available_on_market", "date_qualified"},
			Renames: map[string]string{
				"Date":                                 "Date Detected",
				"model_name":                           "Model Name",
				"brand_name":                           "Brand",
				"product_type":                         "Product Type",
				"color_capability":                     "Color/BW",
				"monochrome_product_speed_ipm_or_mppm": "Print Speed",
				"date_available_on_market":             "Date Available on Market",
				"date_qualified":                       "Date Qualified",
				"markets":                              "Markets",
			},
		},
		"epeat": {
			Name: "EPEAT",
			Key:  feeds.ChangelogEPEAT,
			Columns: []string{
				"Date", "Product Name", "Manufacturer", "Climate+", "Product Category",
				"Product Type", "Status", "Registered In", "Total Score", "EPEAT Tier", "Registered On",
			},
			DateCols: []string{"Date"},
			Renames:  map[string]string{"Date": "Date Detected"},
		},
		"wifi-alliance": {
			Name:     "WiFi Alliance",
			Key:      feeds.ChangelogWiFi,
			Columns:  []string{"Date", "Product", "Brand", "Model Number", "Category"},
			DateCols: []string{"Date"},
			Renames:  map[string]string{"Date": "Date Detected"},
		},
	}
}

// BuildChangelog deduplicates, projects, truncates dates and renames a
// changelog feed, newest detection first.
func BuildChangelog(layout ChangelogLayout, raw *table.Table) (*table.Table, error) {
	if err := raw.Require(append(append([]string(nil), layout.DedupOn...), layout.Columns...)...); err != nil {
		markFeed(err, layout.Name+" changelog")
		return nil, err
	}

	t := raw
	if len(layout.DedupOn) > 0 {
		t = t.DropDuplicates(layout.DedupOn...)
	}
	t, err := t.Select(layout.Columns...)
	if err != nil {
		return nil, fmt.Errorf("changelog %s: %w", layout.Name, err)
	}
	for _, col := range layout.DateCols {
		t = truncateColumn(t, col)
	}
	return t.Rename(layout.Renames).SortByColumn("Date Detected", true), nil
}

func truncateColumn(t *table.Table, col string) *table.Table {
	return t.WithColumn(col, func(r table.Row) table.Cell {
		c := r.Get(col)
		if c.Null {
			return c
		}
		return table.Str(models.TruncateDate(c.Value))
	})
}
