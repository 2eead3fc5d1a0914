package cleaning

import (
	"errors"
	"math"
	"testing"

	"RentWise/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func listing(city string, price, beds, baths, sqFeet any, typ, cats string) models.RawListingRecord {
	return models.RawListingRecord{
		"city":     city,
		"province": "British Columbia",
		"address":  "123 Main St",
		"link":     "/listing/1",
		"price":    price,
		"beds":     beds,
		"baths":    baths,
		"sq_feet":  sqFeet,
		"type":     typ,
		"cats":     cats,
	}
}

func sampleDataset() models.RawDataset {
	return models.RawDataset{
		Columns: []string{"city", "province", "address", "link", "price", "beds", "baths", "sq_feet", "type", "cats"},
		Records: []models.RawListingRecord{
			listing("Vancouver", "2000", "2 Beds", "1", "800 sq ft", "Apartment", "True"),
			listing(" vancouver ", "1500", "Studio", "1", "", "Condo Unit", "False"),
			listing("VANCOUVER", "2600", "3 bed", "2", "1,100", "Townhouse", "True"),
			listing("Burnaby", "1700", "2", "1", "5000", "Townhouse", "True"),
			listing("Vancouver", "not a price", "1", "1", "600", "Apartment", "False"),
			listing("Vancouver", "1800", "0", "1", "700", "Apartment", ""),
		},
	}
}

func newTestPipeline() *Pipeline {
	return NewPipeline(DefaultOptions(), nil)
}

func column(t *testing.T, res models.CleaningResult, name string) []float64 {
	t.Helper()
	col := res.Table.Column(name)
	require.NotNil(t, col, "column %s", name)
	return col
}

func TestRunLocaleNonRetention(t *testing.T) {
	res, err := newTestPipeline().Run(sampleDataset())
	require.NoError(t, err)

	// the Burnaby row is the only one with 5000 sq ft
	for _, v := range column(t, res, "sq_feet") {
		assert.NotEqual(t, 5000.0, v)
	}
	assert.Equal(t, 1, res.Report.LocaleDropped)
	assert.Nil(t, res.Table.Column("city"))
	assert.Nil(t, res.Table.Column("province"))
	assert.Nil(t, res.Table.Column("address"))
	assert.Nil(t, res.Table.Column("link"))
}

func TestRunNormalizesBeds(t *testing.T) {
	res, err := newTestPipeline().Run(sampleDataset())
	require.NoError(t, err)

	// admitted rows in input order: 2 Beds, Studio, 3 bed, 0
	assert.Equal(t, []float64{2, 1, 3, 1}, column(t, res, "beds"))
}

func TestRunCriticalDropAndImputation(t *testing.T) {
	res, err := newTestPipeline().Run(sampleDataset())
	require.NoError(t, err)

	assert.Equal(t, 6, res.Report.InputRows)
	assert.Equal(t, 1, res.Report.CriticalDropped)
	assert.Equal(t, 4, res.Report.AdmittedRows)
	assert.Equal(t, 1, res.Report.SqFeetImputed)

	// median over the filtered rows 800, 1100, 600, 700, including the row
	// later dropped for its price
	assert.InDelta(t, 750.0, res.Report.SqFeetMedian, 1e-9)
	assert.Equal(t, []float64{800, 750, 1100, 700}, column(t, res, "sq_feet"))
	assert.Equal(t, []float64{2000, 1500, 2600, 1800}, column(t, res, "price"))

	assert.InDelta(t, 1500.0, res.Report.PriceMin, 1e-9)
	assert.InDelta(t, 2600.0, res.Report.PriceMax, 1e-9)
	assert.InDelta(t, 1975.0, res.Report.PriceMean, 1e-9)
	assert.InDelta(t, 1.0, res.Report.BedsMin, 1e-9)
	assert.InDelta(t, 3.0, res.Report.BedsMax, 1e-9)
}

func TestRunOneHotDropsFirstCategory(t *testing.T) {
	res, err := newTestPipeline().Run(sampleDataset())
	require.NoError(t, err)

	assert.Equal(t, []string{
		"price", "beds", "baths", "sq_feet",
		"type_Condo Unit", "type_Townhouse",
		"cats_True",
	}, res.Table.Columns)
	assert.Equal(t, []string{"type_Condo Unit", "type_Townhouse", "cats_True"}, res.Report.EncodedColumns)

	assert.Equal(t, []float64{0, 1, 0, 0}, column(t, res, "type_Condo Unit"))
	assert.Equal(t, []float64{0, 0, 1, 0}, column(t, res, "type_Townhouse"))
	// a missing category encodes as all zeros
	assert.Equal(t, []float64{1, 0, 1, 0}, column(t, res, "cats_True"))
}

func TestRunSchemaLists(t *testing.T) {
	res, err := newTestPipeline().Run(sampleDataset())
	require.NoError(t, err)

	assert.NotContains(t, res.Regression, "price")
	assert.Equal(t, res.Table.Columns, res.Classification)
	assert.Len(t, res.Classification, len(res.Regression)+1)
}

func TestRunIsDeterministic(t *testing.T) {
	p := newTestPipeline()
	first, err := p.Run(sampleDataset())
	require.NoError(t, err)
	second, err := p.Run(sampleDataset())
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestRunKeepsNumericGaps(t *testing.T) {
	ds := models.RawDataset{
		Columns: []string{"city", "price", "beds", "baths", "sq_feet", "latitude"},
		Records: []models.RawListingRecord{
			{"city": "Vancouver", "price": "2000", "beds": "2", "baths": "1", "sq_feet": "800", "latitude": "49.1"},
			{"city": "Vancouver", "price": "2100", "beds": "2", "baths": "1", "sq_feet": "820", "latitude": "49.3"},
			{"city": "Vancouver", "price": "2200", "beds": "2", "baths": "1", "sq_feet": "840", "latitude": ""},
		},
	}
	res, err := newTestPipeline().Run(ds)
	require.NoError(t, err)

	lat := column(t, res, "latitude")
	require.Len(t, lat, 3)
	assert.Equal(t, []float64{49.1, 49.3}, lat[:2])
	assert.True(t, math.IsNaN(lat[2]))
	assert.Equal(t, 1, res.Report.NumericGaps)
	assert.Equal(t, 0, res.Report.SqFeetImputed)
}

func TestRunFrozenMedian(t *testing.T) {
	opts := DefaultOptions()
	frozen := 900.0
	opts.FrozenMedian = &frozen

	res, err := NewPipeline(opts, nil).Run(sampleDataset())
	require.NoError(t, err)
	assert.Equal(t, []float64{800, 900, 1100, 700}, column(t, res, "sq_feet"))
}

func TestRunSystemicFailures(t *testing.T) {
	p := newTestPipeline()

	_, err := p.Run(models.RawDataset{Columns: []string{"city", "price"}})
	assert.True(t, errors.Is(err, models.ErrEmptyDataset))

	_, err = p.Run(models.RawDataset{
		Columns: []string{"city", "price", "beds"},
		Records: []models.RawListingRecord{{"city": "Vancouver", "price": "1", "beds": "1"}},
	})
	assert.True(t, errors.Is(err, models.ErrMissingColumn))
}

func TestRunWithoutSqFeetColumn(t *testing.T) {
	res, err := newTestPipeline().Run(models.RawDataset{
		Columns: []string{"city", "price", "beds", "baths"},
		Records: []models.RawListingRecord{
			{"city": "Vancouver", "price": 1200.0, "beds": 1, "baths": "1"},
			{"city": "Vancouver", "price": "1300", "beds": "Bachelor", "baths": "1.5"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"price", "beds", "baths"}, res.Table.Columns)
	assert.Equal(t, [][]float64{{1200, 1, 1}, {1300, 1, 1.5}}, res.Table.Rows)
}

func TestNormalizeBedsTokens(t *testing.T) {
	cases := map[string]float64{
		"Studio":    1,
		"studio":    1,
		"Bachelor":  1,
		"0":         1,
		"0 Beds":    1,
		"3 bed":     3,
		"2 Beds":    2,
		"12":        12,
		"2.5 rooms": 2,
	}
	for in, want := range cases {
		got := normalizeBeds(rawCell(in))
		require.False(t, got.missing, in)
		assert.Equal(t, want, got.num, in)
	}

	assert.True(t, normalizeBeds(rawCell("none listed")).missing)
	assert.True(t, normalizeBeds(rawCell(nil)).missing)
}

func TestNormalizeSqFeet(t *testing.T) {
	assert.Equal(t, 1200.0, normalizeSqFeet(rawCell("1,200 sqft")).num)
	assert.Equal(t, 650.0, normalizeSqFeet(rawCell(650)).num)
	assert.True(t, normalizeSqFeet(rawCell("ask landlord")).missing)
}

func TestCoerceFloatIsStrict(t *testing.T) {
	assert.Equal(t, 1.5, coerceFloat(rawCell(" 1.5 ")).num)
	assert.True(t, coerceFloat(rawCell("$1,500")).missing)
	assert.True(t, coerceFloat(rawCell("NaN")).missing)
	assert.True(t, coerceFloat(rawCell("Inf")).missing)
}
