package services

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scooper-dashboard/models"
	"scooper-dashboard/table"
)

const energyStarDoc = `brand_name,model_name,product_type,color_capability,date_available_on_market,date_qualified,markets,monochrome_product_speed_ipm_or_mppm,pd_id
Pantum,P2500 Tape,Label Printer Accessory,Monochrome,2024-01-02,2024-01-01,United States,20,1
Pantum,Pantum Label Printer LP1,Printers,Monochrome,2024-01-03,2024-01-01,United States,20,2
HP Inc.,LaserJet Pro 4001,Printers,Monochrome,2024-03-05T00:00:00,2024-03-01,"United States, Canada",40,3
Acme,Acme Jet,Printers,Color,2024-03-06,2024-03-01,Canada,10,4
Canon,imageCLASS MF275,Multifunction Devices (MFD),Color,,2024-02-01,Canada,30,5
`

func TestEnergyStarAdapterFiltersAndRenames(t *testing.T) {
	a := NewEnergyStarAdapter(testRules(), testBrands(), nopLogger())
	events, err := a.Adapt(readTable(t, energyStarDoc))
	require.NoError(t, err)
	require.Len(t, events, 2)

	hp := events[0]
	assert.Equal(t, "LaserJet Pro 4001", hp.ProductName)
	assert.Equal(t, "HP", hp.Brand)
	assert.Equal(t, "2024-03-05", hp.CertificationDate.String())
	require.NotNil(t, hp.ProductType)
	assert.Equal(t, "Printers", *hp.ProductType)
	assert.Equal(t, models.SourceEnergyStar, hp.Source)

	canon := events[1]
	assert.Equal(t, "Canon", canon.Brand)
	assert.False(t, canon.CertificationDate.Valid(), "empty date must be recorded as unparsable")
}

func TestAdapterDropsExcludedPantumRow(t *testing.T) {
	a := NewEnergyStarAdapter(testRules(), testBrands(), nopLogger())
	events, err := a.Adapt(readTable(t, energyStarDoc))
	require.NoError(t, err)
	for _, e := range events {
		assert.NotEqual(t, "Pantum", e.Brand)
	}
}

func TestExclusionMatchesProductType(t *testing.T) {
	rules := testRules()
	rules.ProductTypes.EnergyStar = append(rules.ProductTypes.EnergyStar, "Label Printer Accessory")
	a := NewEnergyStarAdapter(rules, testBrands(), nopLogger())

	events, err := a.Adapt(readTable(t, energyStarDoc))
	require.NoError(t, err)
	for _, e := range events {
		assert.NotEqual(t, "P2500 Tape", e.ProductName)
	}
}

func TestWiFiAllianceAdapterHasNoType(t *testing.T) {
	doc := "CID,Date of Last Certification,Brand,Product,Model Number,Category\n" +
		"WFA1,2024-02-01 10:00:00,Brother,HL-L2350,M1,Printers\n" +
		"WFA2,2024-02-02,Netgear,Router,R1,Routers\n"
	a := NewWiFiAllianceAdapter(testRules(), testBrands(), nopLogger())
	events, err := a.Adapt(readTable(t, doc))
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Nil(t, events[0].ProductType)
	assert.Equal(t, "2024-02-01", events[0].CertificationDate.String())
	assert.Equal(t, models.SourceWiFiAlliance, events[0].Source)
}

func TestEPEATAdapterMissingColumnNamesIt(t *testing.T) {
	doc := "Id,Registered On,Product Type,Product Name\n1,2024-01-01,Printer,X\n"
	a := NewEPEATAdapter(testRules(), testBrands(), nopLogger())
	events, err := a.Adapt(readTable(t, doc))
	require.Error(t, err)
	assert.Nil(t, events)

	var sm *table.SchemaMismatchError
	require.True(t, errors.As(err, &sm))
	assert.Equal(t, []string{"Manufacturer"}, sm.Missing)
	assert.Equal(t, string(models.SourceEPEAT), sm.Feed)
	assert.Contains(t, err.Error(), "Manufacturer")
}

func TestEmptyFeedIsNotAnError(t *testing.T) {
	doc := "Id,Registered On,Product Type,Product Name,Manufacturer\n"
	events, err := NewEPEATAdapter(testRules(), testBrands(), nopLogger()).Adapt(readTable(t, doc))
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestBrandNormalizerCollapsesAliases(t *testing.T) {
	n := testBrands()
	assert.Equal(t, "HP", n.Canonical("HP Inc."))
	assert.Equal(t, "HP", n.Canonical("  hp  "))
	assert.Equal(t, n.Canonical("HP"), n.Canonical("HP Inc."))
	assert.Equal(t, "Pantum", n.Canonical("Zhuhai Pantum Electronics Co., Ltd."))
	assert.True(t, n.Allowed("HP Inc."))
	assert.False(t, n.Allowed("Acme"))
	assert.Equal(t, "Acme Corp", n.Canonical(" Acme   Corp "))
}
