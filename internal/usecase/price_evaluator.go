package usecase

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"RentWise/internal/domain/models"
	domrepo "RentWise/internal/domain/repository"
	domsvc "RentWise/internal/domain/service"
	"RentWise/internal/services/features"
	"RentWise/internal/services/valuation"
	applogger "RentWise/pkg/logger"
)

// Artifacts is the immutable state loaded once at start-up: the schema pair
// and the two predictors fitted on it.
type Artifacts struct {
	Registry   models.SchemaRegistry
	Regressor  domsvc.PriceRegressor
	Classifier domsvc.FairnessClassifier
}

// PriceEvaluator runs the regressor then the fairness classifier over one
// set of property attributes. It holds no mutable state and is shared by
// every request handler and consumer worker.
type PriceEvaluator struct {
	registry   models.SchemaRegistry
	regressor  domsvc.PriceRegressor
	classifier domsvc.FairnessClassifier
	metrics    domrepo.Metrics
	logger     *applogger.Logger
}

func NewPriceEvaluator(a *Artifacts, metrics domrepo.Metrics, logger *applogger.Logger) *PriceEvaluator {
	if logger == nil {
		logger = applogger.Nop()
	}
	return &PriceEvaluator{
		registry:   a.Registry,
		regressor:  a.Regressor,
		classifier: a.Classifier,
		metrics:    metrics,
		logger:     logger,
	}
}

// Registry exposes the loaded schemas, read-only.
func (e *PriceEvaluator) Registry() models.SchemaRegistry { return e.registry }

// PredictPrice runs the regressor on a record built for the regression schema.
func (e *PriceEvaluator) PredictPrice(ctx context.Context, record models.FeatureRecord) (float64, error) {
	if record.Schema.Digest() != e.registry.Regression.Digest() {
		return 0, &models.SchemaMismatchError{Schema: e.registry.Regression.Name, Reason: "record was not built for the loaded regression schema"}
	}
	p, err := e.regressor.PredictPrice(ctx, record)
	if err != nil {
		return 0, fmt.Errorf("predict price: %w", err)
	}
	if math.IsNaN(p) || math.IsInf(p, 0) {
		return 0, &models.ModelContractError{Model: "regressor", Detail: "non-finite prediction"}
	}
	return p, nil
}

// EvaluatePrice predicts, asks the classifier about actual, and derives the
// comparison statistics. A zero prediction surfaces as ErrDivisionByZero.
func (e *PriceEvaluator) EvaluatePrice(ctx context.Context, record models.FeatureRecord, actual float64) (models.EvaluationResult, error) {
	predicted, err := e.PredictPrice(ctx, record)
	if err != nil {
		return models.EvaluationResult{}, err
	}

	clsRecord, err := features.BuildClassification(e.registry, record, actual)
	if err != nil {
		return models.EvaluationResult{}, err
	}
	raw, err := e.classifier.Classify(ctx, clsRecord)
	if err != nil {
		return models.EvaluationResult{}, fmt.Errorf("classify: %w", err)
	}
	label, err := models.ParseFairnessLabel(raw)
	if err != nil {
		return models.EvaluationResult{}, err
	}

	cmp, err := valuation.Compare(predicted, actual)
	if err != nil {
		return models.EvaluationResult{}, err
	}

	return models.EvaluationResult{
		PredictedPrice:        predicted,
		ActualPrice:           actual,
		Label:                 label,
		Difference:            cmp.Difference,
		Ratio:                 cmp.Ratio,
		PercentageDifference:  cmp.PercentageDifference,
		FairMarketRange:       valuation.FairMarketRange(predicted),
		MonthlyIncomeRequired: valuation.MonthlyIncomeRequired(predicted),
		SchemaVersion:         e.registry.Version,
	}, nil
}

// Predict builds the regression record from attrs and returns the predicted
// rent with its derived figures. No partial result is returned on error.
func (e *PriceEvaluator) Predict(ctx context.Context, attrs map[string]float64) (models.PredictionResult, error) {
	start := time.Now()
	res, err := e.predict(ctx, attrs)
	e.observe("predict", start, err)
	if err == nil {
		e.record(func(m domrepo.Metrics) { m.RecordPredictedPrice(res.PredictedPrice) })
	}
	return res, err
}

func (e *PriceEvaluator) predict(ctx context.Context, attrs map[string]float64) (models.PredictionResult, error) {
	record, err := features.Build(e.registry.Regression, attrs)
	if err != nil {
		return models.PredictionResult{}, err
	}
	predicted, err := e.PredictPrice(ctx, record)
	if err != nil {
		return models.PredictionResult{}, err
	}
	if predicted <= 0 {
		return models.PredictionResult{}, &models.ModelContractError{
			Model:  "regressor",
			Detail: fmt.Sprintf("predicted price %.2f is not positive", predicted),
		}
	}

	res := models.PredictionResult{
		PredictedPrice:        predicted,
		FairMarketRange:       valuation.FairMarketRange(predicted),
		MonthlyIncomeRequired: valuation.MonthlyIncomeRequired(predicted),
		SchemaVersion:         e.registry.Version,
	}
	if sq, ok := record.Value("sq_feet"); ok && sq > 0 {
		if pps, err := valuation.PricePerSqFt(predicted, sq); err == nil {
			res.PricePerSqFt = &pps
		}
	}
	return res, nil
}

// Evaluate builds the regression record from attrs and judges actual.
func (e *PriceEvaluator) Evaluate(ctx context.Context, attrs map[string]float64, actual float64) (models.EvaluationResult, error) {
	start := time.Now()
	var res models.EvaluationResult
	record, err := features.Build(e.registry.Regression, attrs)
	if err == nil {
		res, err = e.EvaluatePrice(ctx, record, actual)
	}
	e.observe("evaluate", start, err)
	if err == nil {
		e.record(func(m domrepo.Metrics) {
			m.RecordPredictedPrice(res.PredictedPrice)
			m.RecordLabel(res.Label.String())
		})
		e.logger.Debug("evaluation",
			applogger.Float64("predicted", res.PredictedPrice),
			applogger.Float64("actual", actual),
			applogger.String("label", res.Label.String()))
	}
	return res, err
}

func (e *PriceEvaluator) observe(op string, start time.Time, err error) {
	e.record(func(m domrepo.Metrics) {
		m.RecordLatency(op, time.Since(start).Seconds())
		if err != nil {
			m.RecordError(ErrorKind(err))
			return
		}
		m.RecordPrediction(op)
	})
	if err != nil && ErrorKind(err) == "internal" {
		e.logger.Error("valuation failed", applogger.String("operation", op), applogger.Error(err))
	}
}

func (e *PriceEvaluator) record(fn func(domrepo.Metrics)) {
	if e.metrics != nil {
		fn(e.metrics)
	}
}

// ErrorKind classifies a valuation error for metrics and transport mapping.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, models.ErrSchemaMismatch):
		return "schema_mismatch"
	case errors.Is(err, models.ErrModelContract):
		return "model_contract"
	case errors.Is(err, models.ErrDivisionByZero):
		return "division_by_zero"
	case errors.Is(err, models.ErrArtifactLoad):
		return "artifact_load"
	default:
		return "internal"
	}
}
