package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"RentWise/internal/domain/models"
	"RentWise/internal/service/ratelimit"
	"RentWise/internal/services/features"
	"RentWise/internal/services/predictors"
	"RentWise/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type envelope struct {
	Status  int             `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type memStore struct {
	recs      []*models.EvaluationRecord
	healthErr error
}

func (s *memStore) Init(context.Context) error { return nil }
func (s *memStore) Store(_ context.Context, r *models.EvaluationRecord) error {
	s.recs = append(s.recs, r)
	return nil
}
func (s *memStore) StoreBatch(_ context.Context, rs []*models.EvaluationRecord) error {
	s.recs = append(s.recs, rs...)
	return nil
}
func (s *memStore) Query(_ context.Context, _, _ time.Time, limit int) ([]*models.EvaluationRecord, error) {
	if len(s.recs) > limit {
		return s.recs[:limit], nil
	}
	return s.recs, nil
}
func (s *memStore) Health(context.Context) error { return s.healthErr }
func (s *memStore) Close() error                 { return nil }

// reference rent: 2·sq_feet + 100·beds + 50·baths + intercept
func newTestEvaluator(t *testing.T, intercept float64) *usecase.PriceEvaluator {
	t.Helper()
	reg, err := features.NewRegistry("v1",
		[]string{"sq_feet", "beds", "baths", "cats_True"},
		[]string{"price", "sq_feet", "beds", "baths", "cats_True"},
		"price", 750)
	require.NoError(t, err)

	linear, err := predictors.NewLinearPriceRegressor(reg.Regression,
		map[string]float64{"sq_feet": 2, "beds": 100, "baths": 50, "cats_True": 0}, intercept)
	require.NoError(t, err)
	band, err := predictors.NewBandFairnessClassifier(reg, linear, 0.1)
	require.NoError(t, err)

	return usecase.NewPriceEvaluator(&usecase.Artifacts{Registry: reg, Regressor: linear, Classifier: band}, nil, nil)
}

func newTestServer(t *testing.T, h *ValuationEchoHandler) *echo.Echo {
	t.Helper()
	e := echo.New()
	h.RegisterRoutes(e)
	return e
}

func do(t *testing.T, e *echo.Echo, method, target, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return rec, env
}

const attrsBody = `"attributes": {"sq_feet": 800, "beds": 2, "baths": 1, "cats_True": true}`

func TestPredict(t *testing.T) {
	e := newTestServer(t, NewValuationEchoHandler(nil, newTestEvaluator(t, 50), nil, nil, false))

	rec, env := do(t, e, http.MethodPost, "/api/predict", "{"+attrsBody+"}")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, http.StatusOK, env.Status)

	var res models.PredictionResult
	require.NoError(t, json.Unmarshal(env.Data, &res))
	assert.InDelta(t, 1900.0, res.PredictedPrice, 1e-9)
	assert.InDelta(t, 1710.0, res.FairMarketRange.Lower, 1e-9)
	assert.InDelta(t, 5700.0, res.MonthlyIncomeRequired, 1e-9)
	require.NotNil(t, res.PricePerSqFt)
	assert.InDelta(t, 2.375, *res.PricePerSqFt, 1e-9)
	assert.Equal(t, "v1", res.SchemaVersion)
}

const propertyBody = `"property": {
	"sq_feet": 800, "beds": 2, "baths": 1, "latitude": 49.2, "longitude": -123.1,
	"type_townhouse": false, "type_basement": false, "type_condo_unit": false, "type_main_floor": false,
	"furnishing_negotiable": false, "furnishing_unfurnished": false,
	"smoking_non_smoking": true, "smoking_smoke_free_building": false,
	"cats_allowed": true, "dogs_allowed": false,
	"lease_6_months": false, "lease_long_term": true, "lease_negotiable": false, "lease_short_term": false
}`

func TestPredictTypedProperty(t *testing.T) {
	e := newTestServer(t, NewValuationEchoHandler(nil, newTestEvaluator(t, 50), nil, nil, false))

	rec, env := do(t, e, http.MethodPost, "/api/predict", "{"+propertyBody+"}")
	require.Equal(t, http.StatusOK, rec.Code, string(env.Data))
	var res models.PredictionResult
	require.NoError(t, json.Unmarshal(env.Data, &res))
	assert.InDelta(t, 1900.0, res.PredictedPrice, 1e-9)

	body := strings.Replace(propertyBody, `"sq_feet": 800`, `"sq_feet": 50`, 1)
	rec, env = do(t, e, http.MethodPost, "/api/predict", "{"+body+"}")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, string(env.Data), `"field":"sq_feet"`)
}

func TestPredictPropertyOmittingFieldIsRejected(t *testing.T) {
	e := newTestServer(t, NewValuationEchoHandler(nil, newTestEvaluator(t, 50), nil, nil, false))

	body := strings.Replace(propertyBody, `"latitude": 49.2, `, "", 1)
	require.NotEqual(t, propertyBody, body)
	rec, env := do(t, e, http.MethodPost, "/api/predict", "{"+body+"}")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, string(env.Data), `"field":"latitude"`)
	assert.Contains(t, string(env.Data), `"code":"ERR_REQUIRED"`)

	rec, env = do(t, e, http.MethodPost, "/api/predict", `{"property": {"sq_feet": 800, "beds": 2, "baths": 1}}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, string(env.Data), `"field":"longitude"`)
}

func TestPredictRejectsBothForms(t *testing.T) {
	e := newTestServer(t, NewValuationEchoHandler(nil, newTestEvaluator(t, 50), nil, nil, false))

	rec, env := do(t, e, http.MethodPost, "/api/predict", "{"+propertyBody+", "+attrsBody+"}")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, string(env.Data), `"field":"attributes"`)
	assert.Contains(t, string(env.Data), `"code":"ERR_EXCLUDED_WITH"`)
}

func TestPredictSchemaMismatch(t *testing.T) {
	e := newTestServer(t, NewValuationEchoHandler(nil, newTestEvaluator(t, 50), nil, nil, false))

	rec, env := do(t, e, http.MethodPost, "/api/predict", `{"attributes": {"sq_feet": 800, "beds": 2}}`)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var errs []struct {
		Code   string                 `json:"code"`
		Field  string                 `json:"field"`
		Params map[string]interface{} `json:"params"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &errs))
	require.Len(t, errs, 1)
	assert.Equal(t, "ERR_SCHEMA_MISMATCH", errs[0].Code)
	assert.Equal(t, models.RegressionSchemaName, errs[0].Field)
	assert.ElementsMatch(t, []interface{}{"baths", "cats_True"}, errs[0].Params["missing"])
}

func TestPredictValidation(t *testing.T) {
	e := newTestServer(t, NewValuationEchoHandler(nil, newTestEvaluator(t, 50), nil, nil, false))

	rec, _ := do(t, e, http.MethodPost, "/api/predict", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPredictNonPositiveIsModelContract(t *testing.T) {
	e := newTestServer(t, NewValuationEchoHandler(nil, newTestEvaluator(t, -5000), nil, nil, false))

	rec, env := do(t, e, http.MethodPost, "/api/predict", "{"+attrsBody+"}")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, string(env.Data), "ERR_MODEL_CONTRACT")
}

func TestEvaluateRecords(t *testing.T) {
	store := &memStore{}
	recorder := usecase.NewEvaluationRecorder(nil, store, nil, "postgres", nil)
	e := newTestServer(t, NewValuationEchoHandler(nil, newTestEvaluator(t, 50), recorder, nil, true))

	rec, env := do(t, e, http.MethodPost, "/api/evaluate", `{"listing_id": "L-7", "actual_price": 2500, `+attrsBody+`}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var res models.EvaluationResult
	require.NoError(t, json.Unmarshal(env.Data, &res))
	assert.Equal(t, models.LabelOverpriced, res.Label)
	assert.InDelta(t, 600.0, res.Difference, 1e-9)
	assert.InDelta(t, 2500.0/1900.0, res.Ratio, 1e-9)

	require.Len(t, store.recs, 1)
	assert.Equal(t, "L-7", store.recs[0].ListingID)
	assert.Equal(t, "api", store.recs[0].Source)

	rec, env = do(t, e, http.MethodGet, "/api/evaluations?limit=5", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Rows  []models.EvaluationRecord `json:"rows"`
		Total int64                     `json:"total"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &list))
	assert.Equal(t, int64(1), list.Total)
	assert.Equal(t, "overpriced", list.Rows[0].Label)
}

func TestEvaluateLabels(t *testing.T) {
	e := newTestServer(t, NewValuationEchoHandler(nil, newTestEvaluator(t, 50), nil, nil, true))

	cases := map[string]models.FairnessLabel{
		"1500": models.LabelUnderpriced,
		"1900": models.LabelFair,
		"2000": models.LabelFair,
		"2200": models.LabelOverpriced,
	}
	for actual, want := range cases {
		rec, env := do(t, e, http.MethodPost, "/api/evaluate", `{"actual_price": `+actual+`, `+attrsBody+`}`)
		require.Equal(t, http.StatusOK, rec.Code, actual)
		var res models.EvaluationResult
		require.NoError(t, json.Unmarshal(env.Data, &res))
		assert.Equal(t, want, res.Label, actual)
	}

	rec, _ := do(t, e, http.MethodPost, "/api/evaluate", `{"actual_price": -1, `+attrsBody+`}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestEvaluationsWithoutStore(t *testing.T) {
	recorder := usecase.NewEvaluationRecorder(nil, nil, nil, "none", nil)
	e := newTestServer(t, NewValuationEchoHandler(nil, newTestEvaluator(t, 50), recorder, nil, true))

	rec, env := do(t, e, http.MethodGet, "/api/evaluations", "")
	assert.Equal(t, http.StatusNotImplemented, rec.Code)
	assert.Contains(t, string(env.Data), "ERR_NOT_SUPPORTED")

	rec, _ = do(t, e, http.MethodGet, "/api/evaluations?limit=5000", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSchema(t *testing.T) {
	e := newTestServer(t, NewValuationEchoHandler(nil, newTestEvaluator(t, 50), nil, nil, false))

	rec, env := do(t, e, http.MethodGet, "/api/schema", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var s SchemaResponse
	require.NoError(t, json.Unmarshal(env.Data, &s))
	assert.Equal(t, "v1", s.Version)
	assert.Equal(t, 0, s.PriceIndex)
	assert.Len(t, s.Classification, len(s.Regression)+1)
	assert.Len(t, s.Digest, 64)
}

func TestRateLimit(t *testing.T) {
	limiter := ratelimit.New(1, 0.001)
	e := newTestServer(t, NewValuationEchoHandler(nil, newTestEvaluator(t, 50), nil, limiter, false))

	rec, _ := do(t, e, http.MethodGet, "/api/schema", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	rec, _ = do(t, e, http.MethodGet, "/api/schema", "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	// health checks are not limited
	rec, _ = do(t, e, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHealth(t *testing.T) {
	store := &memStore{healthErr: errors.New("dial tcp: connection refused")}
	recorder := usecase.NewEvaluationRecorder(nil, store, nil, "clickhouse", nil)
	e := newTestServer(t, NewValuationEchoHandler(nil, newTestEvaluator(t, 50), recorder, nil, true))

	rec, env := do(t, e, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, string(env.Data), "degraded")

	store.healthErr = nil
	rec, _ = do(t, e, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}
