package services

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"scooper-dashboard/models"
	"scooper-dashboard/table"
)

// EnergyStarFilter narrows the raw Energy Star export. Empty fields match
// everything.
type EnergyStarFilter struct {
	ProductType     string
	Brand           string
	Country         string
	ColorCapability string
	Remanufactured  *bool
	// SortBy is "date_qualified" or "date_available_on_market" (default).
	SortBy string
}

// EnergyStarRaw filters the unmodified Energy Star export and sorts it
// newest first on the chosen date column.
func EnergyStarRaw(raw *table.Table, f EnergyStarFilter) (*table.Table, error) {
	sortBy := f.SortBy
	if sortBy == "" {
		sortBy = "date_available_on_market"
	}
	if sortBy != "date_available_on_market" && sortBy != "date_qualified" {
		return nil, fmt.Errorf("raw view: cannot sort by %q", sortBy)
	}
	if err := raw.Require("product_type", "brand_name", "markets", "color_capability", sortBy); err != nil {
		markFeed(err, string(models.SourceEnergyStar))
		return nil, err
	}
	if f.Remanufactured != nil {
		if err := raw.Require("remanufactured_product"); err != nil {
			markFeed(err, string(models.SourceEnergyStar))
			return nil, err
		}
	}

	t := raw.Filter(func(r table.Row) bool {
		if f.ProductType != "" && r.Value("product_type") != f.ProductType {
			return false
		}
		if f.Brand != "" && r.Value("brand_name") != f.Brand {
			return false
		}
		if f.ColorCapability != "" && r.Value("color_capability") != f.ColorCapability {
			return false
		}
		if f.Remanufactured != nil {
			v, err := strconv.ParseBool(strings.TrimSpace(r.Value("remanufactured_product")))
			if err != nil || v != *f.Remanufactured {
				return false
			}
		}
		if f.Country != "" && !containsCountry(r.Value("markets"), f.Country) {
			return false
		}
		return true
	})
	return t.SortByColumn(sortBy, true), nil
}

// MarketCountries lists the distinct countries in the comma-separated
// markets column, sorted.
func MarketCountries(raw *table.Table) []string {
	set := make(map[string]struct{})
	for _, m := range raw.Unique("markets") {
		for _, c := range strings.Split(m, ",") {
			if c = strings.TrimSpace(c); c != "" {
				set[c] = struct{}{}
			}
		}
	}
	out := make([]string, 0, len(set))
	for c := range set {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

func containsCountry(markets, country string) bool {
	for _, c := range strings.Split(markets, ",") {
		if strings.TrimSpace(c) == country {
			return true
		}
	}
	return false
}

// SortByDate orders a raw registry export on a date column. Unparsable
// dates go last either way.
func SortByDate(raw *table.Table, col string, newest bool) (*table.Table, error) {
	if err := raw.Require(col); err != nil {
		return nil, err
	}
	return raw.SortStable(func(a, b table.Row) bool {
		da, db := models.ParseDate(a.Value(col)), models.ParseDate(b.Value(col))
		if !da.Valid() || !db.Valid() {
			return da.Valid() && !db.Valid()
		}
		if newest {
			return da.After(db)
		}
		return db.After(da)
	}), nil
}

// PlacementsRaw returns the combined product list newest first, optionally
// restricted to one brand, along with the sorted list of brands present.
func PlacementsRaw(raw *table.Table, brand string) (*table.Table, []string, error) {
	if err := raw.Require("Brand", "Date Detected"); err != nil {
		markFeed(err, "combined products")
		return nil, nil, err
	}
	brands := raw.Unique("Brand")
	sort.Strings(brands)

	t, err := SortByDate(raw, "Date Detected", true)
	if err != nil {
		return nil, nil, err
	}
	if brand != "" {
		t = t.Filter(func(r table.Row) bool { return r.Value("Brand") == brand })
	}
	return t, brands, nil
}
