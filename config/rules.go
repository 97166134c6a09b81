package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"
)

// Tie-break policies for tracking rows of the same product detected on the
// same date.
const (
	TieBreakLast  = "last"  // later row in the feed wins
	TieBreakFirst = "first" // earlier row in the feed wins
)

type BrandRules struct {
	Allow   []string          `yaml:"allow"`
	Aliases map[string]string `yaml:"aliases"` // raw name -> canonical name
}

type ProductTypeRules struct {
	EnergyStar []string `yaml:"energy_star"`
	EPEAT      []string `yaml:"epeat"`
}

// FeedKeys are the object-store keys of every snapshot the dashboard reads.
type FeedKeys struct {
	EnergyStar          string `yaml:"energy_star"`
	WiFiAlliance        string `yaml:"wifi_alliance"`
	EPEAT               string `yaml:"epeat"`
	Tracking            string `yaml:"tracking"`
	BrandCounts         string `yaml:"brand_counts"`
	Products            string `yaml:"products"`
	ChangelogEnergyStar string `yaml:"changelog_energy_star"`
	ChangelogEPEAT      string `yaml:"changelog_epeat"`
	ChangelogWiFi       string `yaml:"changelog_wifi"`
}

type TrackingRules struct {
	TieBreak string `yaml:"tie_break"`
}

type ViewRules struct {
	RecentCertifications int `yaml:"recent_certifications"`
	RecentPlacements     int `yaml:"recent_placements"`
}

// Rules are the filter lists and feed locations that shape every view.
type Rules struct {
	Brands         BrandRules       `yaml:"brands"`
	ExcludePhrases []string         `yaml:"exclude_phrases"`
	ProductTypes   ProductTypeRules `yaml:"product_types"`
	Feeds          FeedKeys         `yaml:"feeds"`
	Tracking       TrackingRules    `yaml:"tracking"`
	Views          ViewRules        `yaml:"views"`
}

// DefaultRules mirror the lists the dashboard has always shipped with.
func DefaultRules() *Rules {
	return &Rules{
		Brands: BrandRules{
			Allow: []string{
				"Canon", "Brother", "HP", "Epson", "Konica Minolta", "Kyocera",
				"Lexmark", "Ricoh", "Sharp", "Toshiba", "Xerox", "Pantum", "Fujifilm",
			},
			Aliases: map[string]string{
				"HP Inc.":                             "HP",
				"Zhuhai Pantum Electronics Co., Ltd.": "Pantum",
			},
		},
		ExcludePhrases: []string{"Model Printer", "Label Printer"},
		ProductTypes: ProductTypeRules{
			EnergyStar: []string{"Printers", "Multifunction Devices (MFD)"},
			EPEAT:      []string{"Printer", "Multifunction Device"},
		},
		Feeds: FeedKeys{
			EnergyStar:          "scoops-finder/baseline2.csv",
			WiFiAlliance:        "scoops-finder/baseline3.csv",
			EPEAT:               "scoops-finder/baseline4.csv",
			Tracking:            "scoops-finder/tracking.csv",
			BrandCounts:         "scoops-finder/brand_counts.csv",
			Products:            "scoops-finder/combined_products.csv",
			ChangelogEnergyStar: "scoops-finder/changelog-estar.csv",
			ChangelogEPEAT:      "scoops-finder/changelog-epeat.csv",
			ChangelogWiFi:       "scoops-finder/changelog-wifi.csv",
		},
		Tracking: TrackingRules{TieBreak: TieBreakLast},
		Views:    ViewRules{RecentCertifications: 10, RecentPlacements: 5},
	}
}

// LoadRules reads a YAML rules file over the defaults. A missing file is not
// an error: the defaults are returned unchanged.
func LoadRules(path string) (*Rules, error) {
	r := DefaultRules()
	if path == "" {
		return r, nil
	}
	b, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return r, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read rules: %w", err)
	}
	if err := yaml.Unmarshal(b, r); err != nil {
		return nil, fmt.Errorf("parse rules yaml: %w", err)
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return r, nil
}

// Validate rejects rule sets the pipeline cannot run with.
func (r *Rules) Validate() error {
	switch r.Tracking.TieBreak {
	case TieBreakLast, TieBreakFirst:
	case "":
		r.Tracking.TieBreak = TieBreakLast
	default:
		return fmt.Errorf("rules: unknown tracking tie_break %q (want %q or %q)",
			r.Tracking.TieBreak, TieBreakLast, TieBreakFirst)
	}
	if len(r.Brands.Allow) == 0 {
		return errors.New("rules: brands.allow must not be empty")
	}
	if r.Views.RecentCertifications < 0 || r.Views.RecentPlacements < 0 {
		return errors.New("rules: view sizes must be >= 0")
	}
	return nil
}
