package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadRulesMissingFileUsesDefaults(t *testing.T) {
	r, err := LoadRules(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultRules(), r)
}

func TestLoadRulesOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	doc := `
brands:
  allow: [HP, Canon]
exclude_phrases: [Label Printer]
tracking:
  tie_break: first
views:
  recent_placements: 3
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	r, err := LoadRules(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"HP", "Canon"}, r.Brands.Allow)
	assert.Equal(t, []string{"Label Printer"}, r.ExcludePhrases)
	assert.Equal(t, TieBreakFirst, r.Tracking.TieBreak)
	assert.Equal(t, 3, r.Views.RecentPlacements)
	assert.Equal(t, 10, r.Views.RecentCertifications)
	assert.Equal(t, "HP", r.Brands.Aliases["HP Inc."])
	assert.Equal(t, "scoops-finder/tracking.csv", r.Feeds.Tracking)
}

func TestLoadRulesRejectsUnknownTieBreak(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte("tracking:\n  tie_break: random\n"), 0o644))

	_, err := LoadRules(path)
	assert.ErrorContains(t, err, "tie_break")
}

func TestLoadRulesBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte("brands: [unclosed"), 0o644))

	_, err := LoadRules(path)
	assert.Error(t, err)
}

func TestConfigDefaults(t *testing.T) {
	t.Setenv("CACHE_TTL", "90s")
	t.Setenv("FETCH_CONCURRENCY", "bogus")

	c := Load()
	assert.Equal(t, "dir", c.StoreBackend)
	assert.Equal(t, 90_000_000_000, int(c.CacheTTL))
	assert.Equal(t, 4, c.FetchConcurrency)
	assert.Contains(t, c.DSN(), "dbname=scoops")
}
