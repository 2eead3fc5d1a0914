package predictors

import (
	"context"
	"fmt"
	"math"

	"RentWise/internal/domain/models"
	domsvc "RentWise/internal/domain/service"
)

// Wire format shared by both model endpoints.
type predictRequest struct {
	SchemaVersion string      `json:"schema_version"`
	Features      []string    `json:"features"`
	Rows          [][]float64 `json:"rows"`
}

type regressionResponse struct {
	Predictions []float64 `json:"predictions"`
}

type classificationResponse struct {
	Labels []string `json:"labels"`
}

type metadataResponse struct {
	Name     string   `json:"name"`
	Version  string   `json:"version"`
	Features []string `json:"features"`
}

func newPredictRequest(record models.FeatureRecord) predictRequest {
	return predictRequest{
		SchemaVersion: record.Schema.Version,
		Features:      record.Schema.Fields,
		Rows:          [][]float64{record.Values},
	}
}

// verifyRemoteSchema compares the feature list a model service reports with
// the loaded schema, field by field.
func verifyRemoteSchema(ctx context.Context, base *HTTPServiceBase, model string, schema models.FeatureSchema) error {
	var meta metadataResponse
	if err := base.GetJSON(ctx, "/models/"+model+"/metadata", &meta); err != nil {
		return &models.ArtifactError{Artifact: model + " model service", Err: err}
	}
	if len(meta.Features) != len(schema.Fields) {
		return &models.ArtifactError{
			Artifact: model + " model service",
			Err:      fmt.Errorf("service expects %d features, schema has %d", len(meta.Features), len(schema.Fields)),
		}
	}
	for i, f := range schema.Fields {
		if meta.Features[i] != f {
			return &models.ArtifactError{
				Artifact: model + " model service",
				Err:      fmt.Errorf("feature %d is %q on the service, %q in the schema", i, meta.Features[i], f),
			}
		}
	}
	return nil
}

// HTTPPriceRegressor calls the regression endpoint of the model service.
type HTTPPriceRegressor struct{ base *HTTPServiceBase }

func NewHTTPPriceRegressor(base *HTTPServiceBase) *HTTPPriceRegressor {
	return &HTTPPriceRegressor{base: base}
}

func (r *HTTPPriceRegressor) PredictPrice(ctx context.Context, record models.FeatureRecord) (float64, error) {
	var resp regressionResponse
	if err := r.base.PostJSONWithRetry(ctx, "/models/regression/predict", newPredictRequest(record), &resp); err != nil {
		return 0, fmt.Errorf("post regression: %w", err)
	}
	if len(resp.Predictions) != 1 {
		return 0, &models.ModelContractError{
			Model:  "regressor",
			Detail: fmt.Sprintf("expected 1 prediction, got %d", len(resp.Predictions)),
		}
	}
	p := resp.Predictions[0]
	if math.IsNaN(p) || math.IsInf(p, 0) {
		return 0, &models.ModelContractError{Model: "regressor", Detail: "non-finite prediction"}
	}
	return p, nil
}

func (r *HTTPPriceRegressor) VerifySchema(ctx context.Context, schema models.FeatureSchema) error {
	return verifyRemoteSchema(ctx, r.base, models.RegressionSchemaName, schema)
}

// HTTPFairnessClassifier calls the classification endpoint of the model service.
type HTTPFairnessClassifier struct{ base *HTTPServiceBase }

func NewHTTPFairnessClassifier(base *HTTPServiceBase) *HTTPFairnessClassifier {
	return &HTTPFairnessClassifier{base: base}
}

func (c *HTTPFairnessClassifier) Classify(ctx context.Context, record models.FeatureRecord) (string, error) {
	var resp classificationResponse
	if err := c.base.PostJSONWithRetry(ctx, "/models/classification/predict", newPredictRequest(record), &resp); err != nil {
		return "", fmt.Errorf("post classification: %w", err)
	}
	if len(resp.Labels) != 1 {
		return "", &models.ModelContractError{
			Model:  "classifier",
			Detail: fmt.Sprintf("expected 1 label, got %d", len(resp.Labels)),
		}
	}
	return resp.Labels[0], nil
}

func (c *HTTPFairnessClassifier) VerifySchema(ctx context.Context, schema models.FeatureSchema) error {
	return verifyRemoteSchema(ctx, c.base, models.ClassificationSchemaName, schema)
}

var (
	_ domsvc.PriceRegressor     = (*HTTPPriceRegressor)(nil)
	_ domsvc.SchemaVerifier     = (*HTTPPriceRegressor)(nil)
	_ domsvc.FairnessClassifier = (*HTTPFairnessClassifier)(nil)
	_ domsvc.SchemaVerifier     = (*HTTPFairnessClassifier)(nil)
)
