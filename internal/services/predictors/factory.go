package predictors

import (
	"context"
	"fmt"

	"RentWise/internal/domain/models"
	domsvc "RentWise/internal/domain/service"
)

// NewRegressor builds the regressor described by spec. base is required
// for kind http and ignored otherwise.
func NewRegressor(reg models.SchemaRegistry, spec models.ModelSpec, base *HTTPServiceBase) (domsvc.PriceRegressor, error) {
	switch spec.Kind {
	case models.ModelKindLinear:
		return NewLinearPriceRegressor(reg.Regression, spec.Coefficients, spec.Intercept)
	case models.ModelKindHTTP:
		if base == nil {
			return nil, &models.ArtifactError{Artifact: "regression model", Err: fmt.Errorf("kind http needs models.service_url")}
		}
		return NewHTTPPriceRegressor(base), nil
	default:
		return nil, &models.ArtifactError{Artifact: "regression model", Err: fmt.Errorf("unsupported kind %q", spec.Kind)}
	}
}

// NewClassifier builds the fairness classifier described by spec. The band
// kind judges against regressor's reference rent.
func NewClassifier(reg models.SchemaRegistry, spec models.ModelSpec, regressor domsvc.PriceRegressor, base *HTTPServiceBase) (domsvc.FairnessClassifier, error) {
	switch spec.Kind {
	case models.ModelKindBand:
		return NewBandFairnessClassifier(reg, regressor, spec.Tolerance)
	case models.ModelKindHTTP:
		if base == nil {
			return nil, &models.ArtifactError{Artifact: "classification model", Err: fmt.Errorf("kind http needs models.service_url")}
		}
		return NewHTTPFairnessClassifier(base), nil
	default:
		return nil, &models.ArtifactError{Artifact: "classification model", Err: fmt.Errorf("unsupported kind %q", spec.Kind)}
	}
}

// Verify asks each predictor that can report its training features to
// confirm them against the loaded schemas.
func Verify(ctx context.Context, reg models.SchemaRegistry, regressor domsvc.PriceRegressor, classifier domsvc.FairnessClassifier) error {
	if v, ok := regressor.(domsvc.SchemaVerifier); ok {
		if err := v.VerifySchema(ctx, reg.Regression); err != nil {
			return err
		}
	}
	if v, ok := classifier.(domsvc.SchemaVerifier); ok {
		if err := v.VerifySchema(ctx, reg.Classification); err != nil {
			return err
		}
	}
	return nil
}
