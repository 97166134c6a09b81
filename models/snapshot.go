package models

import "time"

// FeedStatus records whether one source feed could be loaded.
type FeedStatus struct {
	Key    string `json:"key"`
	Rows   int    `json:"rows"`
	Loaded bool   `json:"loaded"`
	Error  string `json:"error,omitempty"`
}

// QuarterCount is one group of the certification insights.
type QuarterCount struct {
	Source  Source `json:"source,omitempty"`
	Brand   string `json:"brand,omitempty"`
	Quarter string `json:"quarter,omitempty"`
	Count   int    `json:"count"`
}

// InsightReport holds the quarterly aggregates over the unified timeline.
type InsightReport struct {
	Quarters        []string       `json:"quarters"`
	BySourceBrand   []QuarterCount `json:"by_source_brand"`
	BySource        []QuarterCount `json:"by_source"`
	SelectedQuarter string         `json:"selected_quarter"`
	BrandsInQuarter []QuarterCount `json:"brands_in_quarter"`
	TotalEvents     int            `json:"total_events"`
	UndatedEvents   int            `json:"undated_events"`
	EventsBySource  map[Source]int `json:"events_by_source"`
}

// LookupFailure is the serialisable form of a failed placement enrichment.
type LookupFailure struct {
	ProductName string `json:"product_name"`
	Brand       string `json:"brand"`
	Reason      string `json:"reason"`
}

// RefreshSchedule describes the next upstream scrape.
type RefreshSchedule struct {
	Next     time.Time     `json:"next"`
	TimeLeft time.Duration `json:"time_left"`
	Progress float64       `json:"progress"`
}

// Snapshot is everything one dashboard refresh produces.
type Snapshot struct {
	GeneratedAt      time.Time            `json:"generated_at"`
	Timeline         Timeline             `json:"timeline"`
	RecentEvents     []CertificationEvent `json:"recent_events"`
	RecentPlacements []EnrichedPlacement  `json:"recent_placements"`
	LookupFailures   []LookupFailure      `json:"lookup_failures"`
	CurrentCounts    []BrandCount         `json:"current_counts"`
	Changelog        BrandPivot           `json:"changelog"`
	Insights         *InsightReport       `json:"insights"`
	Feeds            []FeedStatus         `json:"feeds"`
	Refresh          RefreshSchedule      `json:"refresh"`
}

// FailedFeeds counts feeds that could not be loaded.
func (s *Snapshot) FailedFeeds() int {
	n := 0
	for _, f := range s.Feeds {
		if !f.Loaded {
			n++
		}
	}
	return n
}
