package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"scooper-dashboard/config"
	"scooper-dashboard/metrics"
	"scooper-dashboard/models"
	"scooper-dashboard/table"
	"scooper-dashboard/utils"
)

// ErrUnknownRegistry is returned for a registry name with no changelog or
// raw view.
var ErrUnknownRegistry = errors.New("unknown registry")

// Dashboard runs the full refresh pipeline over the configured feeds.
type Dashboard struct {
	rules      *config.Rules
	loader     *Loader
	brands     *BrandNormalizer
	adapters   []FeedAdapter
	reconciler *Reconciler
	tracker    *PlacementTracker
	insights   *InsightService
	logger     *utils.Logger
	now        func() time.Time
}

// NewDashboard wires every stage from rules.
func NewDashboard(rules *config.Rules, loader *Loader, logger *utils.Logger) *Dashboard {
	brands := NewBrandNormalizer(rules.Brands.Allow, rules.Brands.Aliases)
	return &Dashboard{
		rules:      rules,
		loader:     loader,
		brands:     brands,
		adapters:   NewAdapters(rules, brands, logger),
		reconciler: NewReconciler(logger),
		tracker:    NewPlacementTracker(brands, rules.Tracking.TieBreak, logger),
		insights:   NewInsightService(logger),
		logger:     logger,
		now:        time.Now,
	}
}

// Insights exposes the insight generator for filtered queries.
func (d *Dashboard) Insights() *InsightService { return d.insights }

// CanonicalBrand maps a user-supplied brand onto the spelling the views use,
// so "HP Inc." and "HP" select the same rows.
func (d *Dashboard) CanonicalBrand(raw string) string { return d.brands.Canonical(raw) }

// CanonicalBrands applies CanonicalBrand to every element, dropping repeats.
func (d *Dashboard) CanonicalBrands(raw []string) []string {
	var out []string
	seen := make(map[string]struct{}, len(raw))
	for _, b := range raw {
		c := d.brands.Canonical(b)
		if _, dup := seen[c]; dup || c == "" {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out
}

func (d *Dashboard) adapterKey(src models.Source) string {
	switch src {
	case models.SourceEnergyStar:
		return d.rules.Feeds.EnergyStar
	case models.SourceWiFiAlliance:
		return d.rules.Feeds.WiFiAlliance
	case models.SourceEPEAT:
		return d.rules.Feeds.EPEAT
	}
	return ""
}

// Build loads every feed and produces one snapshot. Feeds that fail to
// load or fail schema validation are reported in Snapshot.Feeds and
// contribute nothing; the remaining views are still built. The only error
// returned is ctx's.
func (d *Dashboard) Build(ctx context.Context) (*models.Snapshot, error) {
	start := time.Now()
	feeds := d.rules.Feeds

	keys := make([]string, 0, len(d.adapters)+2)
	for _, a := range d.adapters {
		keys = append(keys, d.adapterKey(a.Source()))
	}
	keys = append(keys, feeds.Tracking, feeds.BrandCounts)

	tables, statuses := d.loader.LoadAll(ctx, keys...)
	if err := ctx.Err(); err != nil {
		metrics.PipelineRuns.WithLabelValues("cancelled").Inc()
		return nil, err
	}

	fail := func(key string, err error) {
		metrics.FeedFailures.WithLabelValues(key, "schema").Inc()
		d.logger.Error("[dashboard] %v", err)
		for i := range statuses {
			if statuses[i].Key == key {
				statuses[i].Loaded = false
				statuses[i].Error = err.Error()
			}
		}
	}

	var contributions [][]models.CertificationEvent
	for _, a := range d.adapters {
		key := d.adapterKey(a.Source())
		raw, ok := tables[key]
		if !ok {
			continue
		}
		events, err := a.Adapt(raw)
		if err != nil {
			fail(key, err)
			continue
		}
		contributions = append(contributions, events)
	}
	timeline := d.reconciler.Reconcile(contributions...)

	series := NewBrandSeriesFromCounts(nil)
	if raw, ok := tables[feeds.BrandCounts]; ok {
		s, err := NewBrandSeries(raw, d.brands, d.logger)
		if err != nil {
			fail(feeds.BrandCounts, err)
		} else {
			series = s
		}
	}

	snap := &models.Snapshot{
		GeneratedAt:   d.now(),
		Timeline:      timeline,
		RecentEvents:  timeline.Recent(d.rules.Views.RecentCertifications),
		CurrentCounts: series.Current(),
		Changelog:     series.Pivot(),
		Insights:      d.insights.Generate(timeline, InsightFilter{}),
	}

	if raw, ok := tables[feeds.Tracking]; ok {
		recent, failures, err := d.placements(raw, series, d.rules.Views.RecentPlacements)
		if err != nil {
			fail(feeds.Tracking, err)
		}
		snap.RecentPlacements, snap.LookupFailures = recent, failures
	}

	snap.Feeds = statuses
	snap.Refresh = NextRefresh(snap.GeneratedAt)

	outcome := "ok"
	if snap.FailedFeeds() > 0 {
		outcome = "partial"
	}
	metrics.PipelineRuns.WithLabelValues(outcome).Inc()
	metrics.PipelineDuration.Observe(time.Since(start).Seconds())

	d.logger.Info("[dashboard] built snapshot: %d events, %d placements, %d of %d feeds failed in %v",
		timeline.Len(), len(snap.RecentPlacements), snap.FailedFeeds(), len(statuses), time.Since(start).Round(time.Millisecond))
	return snap, nil
}

func (d *Dashboard) placements(tracking *table.Table, series *BrandSeries, k int) ([]models.EnrichedPlacement, []models.LookupFailure, error) {
	records, err := d.tracker.ParseTracking(tracking)
	if err != nil {
		return nil, nil, err
	}
	recent, lerr := d.tracker.Recent(records, series, k)
	var failures []models.LookupFailure
	for _, le := range LookupErrors(lerr) {
		failures = append(failures, models.LookupFailure{
			ProductName: le.ProductName,
			Brand:       le.Brand,
			Reason:      le.Error(),
		})
	}
	return recent, failures, nil
}

// RecentPlacements enriches the k most recent placement changes. Unlike
// Build it fails when either the tracking or brand-count feed is missing.
func (d *Dashboard) RecentPlacements(ctx context.Context, k int) ([]models.EnrichedPlacement, []models.LookupFailure, error) {
	tracking, err := d.loader.LoadOne(ctx, d.rules.Feeds.Tracking)
	if err != nil {
		return nil, nil, err
	}
	counts, err := d.loader.LoadOne(ctx, d.rules.Feeds.BrandCounts)
	if err != nil {
		return nil, nil, err
	}
	series, err := NewBrandSeries(counts, d.brands, d.logger)
	if err != nil {
		return nil, nil, err
	}
	return d.placements(tracking, series, k)
}

// Changelog renders one registry's changelog feed.
func (d *Dashboard) Changelog(ctx context.Context, registry string) (*table.Table, error) {
	layout, ok := RegistryChangelogs(d.rules.Feeds)[registry]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownRegistry, registry)
	}
	raw, err := d.loader.LoadOne(ctx, layout.Key)
	if err != nil {
		return nil, err
	}
	return BuildChangelog(layout, raw)
}

// EnergyStarRaw returns the filtered Energy Star export and every market
// country it mentions.
func (d *Dashboard) EnergyStarRaw(ctx context.Context, f EnergyStarFilter) (*table.Table, []string, error) {
	raw, err := d.loader.LoadOne(ctx, d.rules.Feeds.EnergyStar)
	if err != nil {
		return nil, nil, err
	}
	t, err := EnergyStarRaw(raw, f)
	if err != nil {
		return nil, nil, err
	}
	return t, MarketCountries(raw), nil
}

// RegistryRaw returns the unmodified EPEAT or WiFi Alliance export sorted
// by its registration date.
func (d *Dashboard) RegistryRaw(ctx context.Context, registry string, newest bool) (*table.Table, error) {
	var key, col string
	switch registry {
	case "epeat":
		key, col = d.rules.Feeds.EPEAT, "Registered On"
	case "wifi-alliance":
		key, col = d.rules.Feeds.WiFiAlliance, "Date of Last Certification"
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownRegistry, registry)
	}
	raw, err := d.loader.LoadOne(ctx, key)
	if err != nil {
		return nil, err
	}
	return SortByDate(raw, col, newest)
}

// PlacementsRaw returns the combined product list, optionally for one brand.
func (d *Dashboard) PlacementsRaw(ctx context.Context, brand string) (*table.Table, []string, error) {
	raw, err := d.loader.LoadOne(ctx, d.rules.Feeds.Products)
	if err != nil {
		return nil, nil, err
	}
	return PlacementsRaw(raw, brand)
}
