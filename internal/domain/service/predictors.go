package service

import (
	"context"

	"RentWise/internal/domain/models"
)

// PriceRegressor predicts a monthly rent from a record aligned to the regression schema.
type PriceRegressor interface {
	PredictPrice(ctx context.Context, record models.FeatureRecord) (float64, error)
}

// FairnessClassifier labels a record aligned to the classification schema.
// The raw answer is validated by the caller against the closed label set.
type FairnessClassifier interface {
	Classify(ctx context.Context, record models.FeatureRecord) (string, error)
}

// SchemaVerifier is implemented by predictors that can report the feature
// list they were trained on, so start-up can detect drift.
type SchemaVerifier interface {
	VerifySchema(ctx context.Context, schema models.FeatureSchema) error
}
