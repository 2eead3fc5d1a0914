package predictors

import (
	"context"
	"fmt"
	"sort"

	"RentWise/internal/domain/models"
	domsvc "RentWise/internal/domain/service"
)

// LinearPriceRegressor evaluates intercept + Σ coef·x over the regression
// schema. Coefficients are stored positionally once the schema is checked.
type LinearPriceRegressor struct {
	schema    models.FeatureSchema
	digest    string
	coef      []float64
	intercept float64
}

// NewLinearPriceRegressor requires exactly one coefficient per schema field.
func NewLinearPriceRegressor(schema models.FeatureSchema, coefficients map[string]float64, intercept float64) (*LinearPriceRegressor, error) {
	coef := make([]float64, len(schema.Fields))
	var missing []string
	for i, f := range schema.Fields {
		c, ok := coefficients[f]
		if !ok {
			missing = append(missing, f)
			continue
		}
		coef[i] = c
	}
	if len(missing) > 0 {
		return nil, &models.ArtifactError{Artifact: "linear regressor", Err: fmt.Errorf("no coefficient for %v", missing)}
	}
	if len(coefficients) != len(schema.Fields) {
		var extra []string
		for k := range coefficients {
			if schema.Index(k) < 0 {
				extra = append(extra, k)
			}
		}
		sort.Strings(extra)
		return nil, &models.ArtifactError{Artifact: "linear regressor", Err: fmt.Errorf("coefficients outside the schema: %v", extra)}
	}
	return &LinearPriceRegressor{schema: schema, digest: schema.Digest(), coef: coef, intercept: intercept}, nil
}

func (r *LinearPriceRegressor) PredictPrice(_ context.Context, record models.FeatureRecord) (float64, error) {
	if record.Schema.Digest() != r.digest || len(record.Values) != len(r.coef) {
		return 0, &models.SchemaMismatchError{Schema: r.schema.Name, Reason: "record was built for a different schema"}
	}
	sum := r.intercept
	for i, x := range record.Values {
		sum += r.coef[i] * x
	}
	return sum, nil
}

func (r *LinearPriceRegressor) VerifySchema(_ context.Context, schema models.FeatureSchema) error {
	if schema.Digest() != r.digest {
		return &models.ArtifactError{Artifact: "linear regressor", Err: fmt.Errorf("coefficients were fitted on another schema")}
	}
	return nil
}

var (
	_ domsvc.PriceRegressor = (*LinearPriceRegressor)(nil)
	_ domsvc.SchemaVerifier = (*LinearPriceRegressor)(nil)
)
