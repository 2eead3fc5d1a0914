package predictors

import (
	"context"
	"fmt"

	"RentWise/internal/domain/models"
	domsvc "RentWise/internal/domain/service"
)

// BandFairnessClassifier is the in-process classifier used when no model
// service is configured. It strips the price from the classification
// record, asks the regressor for a reference rent and labels the price
// against a ±tolerance band around it.
type BandFairnessClassifier struct {
	reg       models.SchemaRegistry
	digest    string
	regressor domsvc.PriceRegressor
	tolerance float64
}

func NewBandFairnessClassifier(reg models.SchemaRegistry, regressor domsvc.PriceRegressor, tolerance float64) (*BandFairnessClassifier, error) {
	if tolerance <= 0 || tolerance >= 1 {
		return nil, &models.ArtifactError{Artifact: "band classifier", Err: fmt.Errorf("tolerance %.3f outside (0, 1)", tolerance)}
	}
	if reg.PriceIndex < 0 || reg.PriceIndex >= reg.Classification.Len() {
		return nil, &models.ArtifactError{Artifact: "band classifier", Err: fmt.Errorf("price index %d outside the classification schema", reg.PriceIndex)}
	}
	return &BandFairnessClassifier{
		reg:       reg,
		digest:    reg.Classification.Digest(),
		regressor: regressor,
		tolerance: tolerance,
	}, nil
}

func (c *BandFairnessClassifier) Classify(ctx context.Context, record models.FeatureRecord) (string, error) {
	if record.Schema.Digest() != c.digest || len(record.Values) != c.reg.Classification.Len() {
		return "", &models.SchemaMismatchError{Schema: c.reg.Classification.Name, Reason: "record was built for a different schema"}
	}

	price := record.Values[c.reg.PriceIndex]
	values := make([]float64, 0, len(record.Values)-1)
	values = append(values, record.Values[:c.reg.PriceIndex]...)
	values = append(values, record.Values[c.reg.PriceIndex+1:]...)

	reference, err := c.regressor.PredictPrice(ctx, models.FeatureRecord{Schema: c.reg.Regression, Values: values})
	if err != nil {
		return "", fmt.Errorf("reference price: %w", err)
	}

	switch {
	case price < reference*(1-c.tolerance):
		return models.LabelUnderpriced.String(), nil
	case price > reference*(1+c.tolerance):
		return models.LabelOverpriced.String(), nil
	default:
		return models.LabelFair.String(), nil
	}
}

func (c *BandFairnessClassifier) VerifySchema(_ context.Context, schema models.FeatureSchema) error {
	if schema.Digest() != c.digest {
		return &models.ArtifactError{Artifact: "band classifier", Err: fmt.Errorf("classifier was built for another schema")}
	}
	return nil
}

var (
	_ domsvc.FairnessClassifier = (*BandFairnessClassifier)(nil)
	_ domsvc.SchemaVerifier     = (*BandFairnessClassifier)(nil)
)
