package models

import "strings"

// Action is the observed state of a product on a manufacturer site.
type Action string

const (
	ActionAdded    Action = "Added"
	ActionRemoved  Action = "Removed"
	ActionObserved Action = "Observed"
)

// ParseAction maps feed values onto the three states; anything that is not
// Added or Removed is Observed.
func ParseAction(s string) Action {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "added":
		return ActionAdded
	case "removed":
		return ActionRemoved
	default:
		return ActionObserved
	}
}

// PlacementRecord is one row of the tracking changelog.
type PlacementRecord struct {
	ProductName  string `json:"product_name"`
	Brand        string `json:"brand"`
	Action       Action `json:"action"`
	DateDetected Date   `json:"date_detected"`
}

// EnrichedPlacement pairs a placement with its brand's current product count.
type EnrichedPlacement struct {
	PlacementRecord
	CurrentCount int `json:"current_count"`
}

// BrandCount is one (brand, date, count) observation.
type BrandCount struct {
	Brand string `json:"brand"`
	Date  Date   `json:"date"`
	Count int    `json:"count"`
}

// BrandPivot is a date x brand count matrix, newest date first. Counts[i][j]
// is the count of Brands[j] on Dates[i]; missing combinations are 0.
type BrandPivot struct {
	Dates  []string `json:"dates"`
	Brands []string `json:"brands"`
	Counts [][]int  `json:"counts"`
}

// Column returns the counts for brand in date order, or nil when the brand
// has no column.
func (p BrandPivot) Column(brand string) []int {
	for j, b := range p.Brands {
		if b != brand {
			continue
		}
		out := make([]int, len(p.Dates))
		for i := range p.Dates {
			out[i] = p.Counts[i][j]
		}
		return out
	}
	return nil
}
