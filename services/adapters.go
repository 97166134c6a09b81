package services

import (
	"strings"

	"scooper-dashboard/config"
	"scooper-dashboard/metrics"
	"scooper-dashboard/models"
	"scooper-dashboard/table"
	"scooper-dashboard/utils"
)

// Canonical column names shared by every registry after renaming.
const (
	ColBrand             = "Brand"
	ColProductName       = "Product Name"
	ColCertificationDate = "Certification Date"
	ColProductType       = "Product Type"
	ColSource            = "Source"
)

// FeedAdapter maps one registry's native schema onto certification events.
type FeedAdapter interface {
	Source() models.Source
	Required() []string
	Adapt(raw *table.Table) ([]models.CertificationEvent, error)
}

// registryAdapter is the shared select/rename/truncate/filter pipeline; the
// three registries differ only in column names and type allow-lists.
type registryAdapter struct {
	source   models.Source
	required []string          // also the column allow-list
	renames  map[string]string // native -> display
	dateCols []string          // display names truncated to 10 chars
	hasType  bool
	types    map[string]struct{}
	exclude  []string // lower-cased phrases
	brands   *BrandNormalizer
	logger   *utils.Logger
}

// NewEnergyStarAdapter handles the energy-efficiency registry export.
func NewEnergyStarAdapter(rules *config.Rules, brands *BrandNormalizer, logger *utils.Logger) FeedAdapter {
	return &registryAdapter{
		source: models.SourceEnergyStar,
		required: []string{
			"brand_name", "model_name", "product_type", "color_capability",
			"date_available_on_market", "date_qualified", "markets",
			"monochrome_product_speed_ipm_or_mppm",
		},
		renames: map[string]string{
			"brand_name":                           ColBrand,
			"model_name":                           ColProductName,
			"product_type":                         ColProductType,
			"color_capability":                     "Color/Mono",
			"date_available_on_market":             ColCertificationDate,
			"date_qualified":                       "Date Qualified",
			"markets":                              "Target Markets",
			"monochrome_product_speed_ipm_or_mppm": "Print Speed",
		},
		dateCols: []string{ColCertificationDate, "Date Qualified"},
		hasType:  true,
		types:    toSet(rules.ProductTypes.EnergyStar),
		exclude:  lowerAll(rules.ExcludePhrases),
		brands:   brands,
		logger:   logger,
	}
}

// NewWiFiAllianceAdapter handles the wireless-alliance registry export,
// which carries no product type.
func NewWiFiAllianceAdapter(rules *config.Rules, brands *BrandNormalizer, logger *utils.Logger) FeedAdapter {
	return &registryAdapter{
		source:   models.SourceWiFiAlliance,
		required: []string{"CID", "Date of Last Certification", "Brand", "Product", "Model Number"},
		renames: map[string]string{
			"Product":                    ColProductName,
			"Date of Last Certification": ColCertificationDate,
		},
		dateCols: []string{ColCertificationDate},
		exclude:  lowerAll(rules.ExcludePhrases),
		brands:   brands,
		logger:   logger,
	}
}

// NewEPEATAdapter handles the green-electronics registry export.
func NewEPEATAdapter(rules *config.Rules, brands *BrandNormalizer, logger *utils.Logger) FeedAdapter {
	return &registryAdapter{
		source:   models.SourceEPEAT,
		required: []string{"Id", "Registered On", "Product Type", "Product Name", "Manufacturer"},
		renames: map[string]string{
			"Registered On": ColCertificationDate,
			"Manufacturer":  ColBrand,
		},
		dateCols: []string{ColCertificationDate},
		hasType:  true,
		types:    toSet(rules.ProductTypes.EPEAT),
		exclude:  lowerAll(rules.ExcludePhrases),
		brands:   brands,
		logger:   logger,
	}
}

// NewAdapters returns one adapter per registry, in display order.
func NewAdapters(rules *config.Rules, brands *BrandNormalizer, logger *utils.Logger) []FeedAdapter {
	return []FeedAdapter{
		NewEnergyStarAdapter(rules, brands, logger),
		NewWiFiAllianceAdapter(rules, brands, logger),
		NewEPEATAdapter(rules, brands, logger),
	}
}

func (a *registryAdapter) Source() models.Source { return a.source }

func (a *registryAdapter) Required() []string { return append([]string(nil), a.required...) }

// Adapt validates the schema, projects and renames the allow-listed
// columns, truncates dates and filters rows. A missing column rejects the
// whole feed.
func (a *registryAdapter) Adapt(raw *table.Table) ([]models.CertificationEvent, error) {
	selected, err := raw.Select(a.required...)
	if err != nil {
		markFeed(err, string(a.source))
		return nil, err
	}

	t := selected.Rename(a.renames)
	for _, col := range a.dateCols {
		t = truncateColumn(t, col)
	}

	events := make([]models.CertificationEvent, 0, t.Len())
	for _, r := range t.Rows() {
		if reason := a.reject(r); reason != "" {
			metrics.RowsDropped.WithLabelValues(string(a.source), reason).Inc()
			continue
		}
		events = append(events, a.event(r))
	}

	a.logger.Debug("[adapter] %s: kept %d of %d rows", a.source, len(events), raw.Len())
	return events, nil
}

// reject returns the reason a row is filtered out, or "" to keep it.
func (a *registryAdapter) reject(r table.Row) string {
	name := normaliseText(r.Value(ColProductName))
	if name == "" {
		return "empty_name"
	}
	if !a.brands.Allowed(r.Value(ColBrand)) {
		return "brand"
	}
	if a.hasType {
		if _, ok := a.types[normaliseText(r.Value(ColProductType))]; !ok {
			return "product_type"
		}
	}
	if a.excluded(name) || (a.hasType && a.excluded(r.Value(ColProductType))) {
		return "excluded_phrase"
	}
	return ""
}

func (a *registryAdapter) excluded(s string) bool {
	s = strings.ToLower(s)
	for _, p := range a.exclude {
		if p != "" && strings.Contains(s, p) {
			return true
		}
	}
	return false
}

func (a *registryAdapter) event(r table.Row) models.CertificationEvent {
	e := models.CertificationEvent{
		ProductName:       normaliseText(r.Value(ColProductName)),
		Brand:             a.brands.Canonical(r.Value(ColBrand)),
		CertificationDate: models.ParseDate(r.Value(ColCertificationDate)),
		Source:            a.source,
	}
	if a.hasType {
		typ := normaliseText(r.Value(ColProductType))
		e.ProductType = &typ
	}
	return e
}

func toSet(values []string) map[string]struct{} {
	out := make(map[string]struct{}, len(values))
	for _, v := range values {
		out[normaliseText(v)] = struct{}{}
	}
	return out
}

func lowerAll(values []string) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = strings.ToLower(strings.TrimSpace(v))
	}
	return out
}
