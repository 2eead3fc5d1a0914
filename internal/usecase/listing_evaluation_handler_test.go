package usecase

import (
	"context"
	"errors"
	"testing"

	"RentWise/internal/domain/models"
	pkgkafka "RentWise/pkg/kafka"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newListingHandler(t *testing.T, reg *fixedRegressor, store *memStore) (*ListingEvaluationHandler, *fakeMetrics) {
	t.Helper()
	m := newFakeMetrics()
	e := NewPriceEvaluator(&Artifacts{
		Registry:   testRegistry(t),
		Regressor:  reg,
		Classifier: &bandClassifier{predicted: reg.price},
	}, m, nil)
	rec := NewEvaluationRecorder(nil, store, m, "clickhouse", nil)
	return NewListingEvaluationHandler("rentwise.listings", e, rec, m, nil), m
}

const listingMsg = `{
	"listing_id": "L-1",
	"actual_price": 2500,
	"attributes": {"sq_feet": 800, "beds": 2, "baths": 1, "latitude": 49.28, "longitude": -123.12, "cats_True": true}
}`

func TestListingHandlerRecordsEvaluation(t *testing.T) {
	store := &memStore{}
	h, m := newListingHandler(t, &fixedRegressor{price: 2000}, store)
	assert.Equal(t, "rentwise.listings", h.Topic())

	require.NoError(t, h.Handle(context.Background(), []byte(listingMsg)))
	require.Len(t, store.recs, 1)
	rec := store.recs[0]
	assert.Equal(t, "L-1", rec.ListingID)
	assert.Equal(t, "kafka", rec.Source)
	assert.Equal(t, "overpriced", rec.Label)
	assert.Equal(t, 2500.0, rec.ActualPrice)
	assert.Equal(t, 1, m.recorded["clickhouse"])
}

func TestListingHandlerPermanentFailures(t *testing.T) {
	cases := map[string]string{
		"bad json":         `{"actual_price":`,
		"no price":         `{"attributes": {"sq_feet": 800}}`,
		"no attributes":    `{"actual_price": 1000}`,
		"missing feature":  `{"actual_price": 1000, "attributes": {"sq_feet": 800}}`,
		"bad value":        `{"actual_price": 1000, "attributes": {"sq_feet": "big"}}`,
		"partial property": `{"actual_price": 1000, "property": {"sq_feet": 800, "beds": 2, "baths": 1}}`,
		"both forms":       `{"actual_price": 1000, "property": {"sq_feet": 800}, "attributes": {"sq_feet": 800}}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			store := &memStore{}
			h, _ := newListingHandler(t, &fixedRegressor{price: 2000}, store)
			err := h.Handle(context.Background(), []byte(body))
			require.Error(t, err)
			assert.True(t, pkgkafka.IsPermanent(err), err.Error())
			assert.Empty(t, store.recs)
		})
	}
}

func TestListingHandlerRetriesTransientFailures(t *testing.T) {
	h, _ := newListingHandler(t, &fixedRegressor{price: 2000, err: errors.New("connection reset")}, &memStore{})
	err := h.Handle(context.Background(), []byte(listingMsg))
	require.Error(t, err)
	assert.False(t, pkgkafka.IsPermanent(err))

	h, _ = newListingHandler(t, &fixedRegressor{price: 2000}, &memStore{err: errors.New("clickhouse down")})
	err = h.Handle(context.Background(), []byte(listingMsg))
	require.Error(t, err)
	assert.False(t, pkgkafka.IsPermanent(err))
}

func TestRequestAttributesNeedsExactlyOneForm(t *testing.T) {
	sq, beds, baths, cats := 700.0, 1.0, 1.0, true
	p := &models.PropertyAttributes{SqFeet: &sq, Beds: &beds, Baths: &baths, CatsAllowed: &cats}

	attrs, err := RequestAttributes(p, nil)
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"sq_feet": 700, "beds": 1, "baths": 1, "cats_True": 1}, attrs)

	_, err = RequestAttributes(p, map[string]any{"sq_feet": 9999})
	assert.Error(t, err)
	_, err = RequestAttributes(nil, nil)
	assert.Error(t, err)
}

func TestPartialPropertyReportsMissingFields(t *testing.T) {
	sq, beds, baths, cats := 800.0, 2.0, 1.0, false
	p := &models.PropertyAttributes{SqFeet: &sq, Beds: &beds, Baths: &baths, CatsAllowed: &cats}
	attrs, err := RequestAttributes(p, nil)
	require.NoError(t, err)

	e := NewPriceEvaluator(&Artifacts{
		Registry:   testRegistry(t),
		Regressor:  &fixedRegressor{price: 2000},
		Classifier: &bandClassifier{predicted: 2000},
	}, nil, nil)
	_, err = e.Predict(context.Background(), attrs)
	require.Error(t, err)

	var mismatch *models.SchemaMismatchError
	require.True(t, errors.As(err, &mismatch), err.Error())
	assert.Equal(t, []string{"latitude", "longitude"}, mismatch.Missing)
}
