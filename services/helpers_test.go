package services

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"scooper-dashboard/config"
	"scooper-dashboard/models"
	"scooper-dashboard/storage"
	"scooper-dashboard/table"
	"scooper-dashboard/utils"
)

func testRules() *config.Rules {
	return config.DefaultRules()
}

func testBrands() *BrandNormalizer {
	r := testRules()
	return NewBrandNormalizer(r.Brands.Allow, r.Brands.Aliases)
}

func readTable(t *testing.T, doc string) *table.Table {
	t.Helper()
	tbl, err := table.ReadCSV(strings.NewReader(doc))
	require.NoError(t, err)
	return tbl
}

func strPtr(s string) *string { return &s }

func event(name, brand, date string, src models.Source) models.CertificationEvent {
	return models.CertificationEvent{
		ProductName:       name,
		Brand:             brand,
		CertificationDate: models.ParseDate(date),
		Source:            src,
	}
}

// memStore is an in-memory FeedStore.
type memStore map[string]string

func (m memStore) Fetch(_ context.Context, key string) ([]byte, error) {
	body, ok := m[key]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return []byte(body), nil
}

func nopLogger() *utils.Logger { return utils.NewNopLogger() }
