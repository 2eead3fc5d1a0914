package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"RentWise/internal/domain/models"
	domrepo "RentWise/internal/domain/repository"
	"RentWise/internal/services/features"
	xhttp "RentWise/pkg/http"
	pkgkafka "RentWise/pkg/kafka"
	applogger "RentWise/pkg/logger"
)

// ListingEvaluationHandler consumes evaluation requests from Kafka,
// evaluates them and records the results.
//
// Message schema: the EvaluateRequest body of POST /api/evaluate.
type ListingEvaluationHandler struct {
	topic     string
	evaluator *PriceEvaluator
	recorder  *EvaluationRecorder
	metrics   domrepo.Metrics
	logger    *applogger.Logger
}

func NewListingEvaluationHandler(
	topic string,
	evaluator *PriceEvaluator,
	recorder *EvaluationRecorder,
	metrics domrepo.Metrics,
	logger *applogger.Logger,
) *ListingEvaluationHandler {
	if logger == nil {
		logger = applogger.Nop()
	}
	return &ListingEvaluationHandler{
		topic:     topic,
		evaluator: evaluator,
		recorder:  recorder,
		metrics:   metrics,
		logger:    logger,
	}
}

func (h *ListingEvaluationHandler) Topic() string { return h.topic }

// Handle returns a permanent error for messages that can never succeed
// (bad JSON, failed validation, schema or contract violations) so the
// consumer sends them to the DLQ without retrying. Recording failures are
// retried.
func (h *ListingEvaluationHandler) Handle(ctx context.Context, b []byte) error {
	var req models.EvaluateRequest
	if err := json.Unmarshal(b, &req); err != nil {
		h.countError("consumer_unmarshal")
		return pkgkafka.Permanent(fmt.Errorf("decode listing: %w", err))
	}
	if verrs := xhttp.ValidateStruct(ctx, &req); len(verrs) > 0 {
		h.countError("consumer_validation")
		return pkgkafka.Permanent(fmt.Errorf("invalid listing: %s %s", verrs[0].Field, verrs[0].Message))
	}

	attrs, err := RequestAttributes(req.Property, req.Attributes)
	if err != nil {
		return pkgkafka.Permanent(err)
	}

	res, err := h.evaluator.Evaluate(ctx, attrs, req.ActualPrice)
	if err != nil {
		if ErrorKind(err) == "internal" {
			return err
		}
		return pkgkafka.Permanent(err)
	}

	if err := h.recorder.Record(ctx, h.recorder.NewRecord("kafka", req.ListingID, res)); err != nil {
		return err
	}

	if started, ok := pkgkafka.StartTime(ctx); ok && h.metrics != nil {
		h.metrics.RecordLatency("consume", time.Since(started).Seconds())
	}
	h.logger.Debug("listing evaluated",
		applogger.String("listing_id", req.ListingID),
		applogger.String("trace_id", pkgkafka.TraceID(ctx)),
		applogger.String("label", res.Label.String()))
	return nil
}

func (h *ListingEvaluationHandler) countError(kind string) {
	if h.metrics != nil {
		h.metrics.RecordError(kind)
	}
}

// RequestAttributes resolves the attribute map of a predict or evaluate
// request, which must carry exactly one of the two forms.
func RequestAttributes(p *models.PropertyAttributes, raw map[string]any) (map[string]float64, error) {
	switch {
	case p != nil && raw != nil:
		return nil, errors.New("request carries both property and attributes")
	case p != nil:
		return p.ToAttributes(), nil
	case raw == nil:
		return nil, errors.New("request carries neither property nor attributes")
	}
	return features.AttributesFromValues(raw)
}

var _ pkgkafka.MessageHandler = (*ListingEvaluationHandler)(nil)
