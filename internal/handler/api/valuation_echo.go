package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"RentWise/internal/domain/models"
	"RentWise/internal/service/metrics"
	"RentWise/internal/service/ratelimit"
	"RentWise/internal/usecase"
	xhttp "RentWise/pkg/http"
	xlogger "RentWise/pkg/logger"
	"RentWise/pkg/util"

	"github.com/labstack/echo/v4"
)

// Default look-back of GET /api/evaluations when from is omitted.
const evaluationsWindow = 24 * time.Hour

// SchemaResponse describes the loaded schema pair.
type SchemaResponse struct {
	Version        string   `json:"version"`
	Digest         string   `json:"digest"`
	PriceField     string   `json:"price_field"`
	PriceIndex     int      `json:"price_index"`
	SqFeetMedian   float64  `json:"sq_feet_median"`
	Regression     []string `json:"regression"`
	Classification []string `json:"classification"`
}

// ValuationEchoHandler serves the predict and evaluate entry points.
type ValuationEchoHandler struct {
	logger    *xlogger.Logger
	evaluator *usecase.PriceEvaluator
	recorder  *usecase.EvaluationRecorder
	limiter   *ratelimit.Limiter
	record    bool
	now       func() time.Time
}

// NewValuationEchoHandler wires the handler. limiter may be nil to disable
// rate limiting; record controls whether API evaluations are persisted.
func NewValuationEchoHandler(
	logger *xlogger.Logger,
	evaluator *usecase.PriceEvaluator,
	recorder *usecase.EvaluationRecorder,
	limiter *ratelimit.Limiter,
	record bool,
) *ValuationEchoHandler {
	metrics.Register()
	if logger == nil {
		logger = xlogger.Nop()
	}
	return &ValuationEchoHandler{
		logger:    logger,
		evaluator: evaluator,
		recorder:  recorder,
		limiter:   limiter,
		record:    record,
		now:       time.Now,
	}
}

func (h *ValuationEchoHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", h.Health)

	g := e.Group("/api", h.rateLimit)
	g.POST("/predict", h.Predict)
	g.POST("/evaluate", h.Evaluate)
	g.GET("/schema", h.Schema)
	g.GET("/evaluations", h.Evaluations)
}

func (h *ValuationEchoHandler) rateLimit(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if h.limiter != nil && !h.limiter.Allow(c.RealIP()) {
			metrics.RateLimited.WithLabelValues(c.Path()).Inc()
			return xhttp.TooManyRequestsResponse(c)
		}
		return next(c)
	}
}

func (h *ValuationEchoHandler) Predict(c echo.Context) error {
	const endpoint = "predict"
	defer metrics.ObserveLatency(endpoint, time.Now())

	req := &models.PredictRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		metrics.CountError(endpoint, "ERR_VALIDATION")
		return xhttp.BadRequestResponse(c, verr)
	}
	attrs, err := usecase.RequestAttributes(req.Property, req.Attributes)
	if err != nil {
		return h.fail(c, endpoint, err)
	}

	res, err := h.evaluator.Predict(c.Request().Context(), attrs)
	if err != nil {
		return h.fail(c, endpoint, err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *ValuationEchoHandler) Evaluate(c echo.Context) error {
	const endpoint = "evaluate"
	defer metrics.ObserveLatency(endpoint, time.Now())

	req := &models.EvaluateRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		metrics.CountError(endpoint, "ERR_VALIDATION")
		return xhttp.BadRequestResponse(c, verr)
	}
	attrs, err := usecase.RequestAttributes(req.Property, req.Attributes)
	if err != nil {
		return h.fail(c, endpoint, err)
	}

	ctx := c.Request().Context()
	res, err := h.evaluator.Evaluate(ctx, attrs, req.ActualPrice)
	if err != nil {
		return h.fail(c, endpoint, err)
	}

	// Recording is best-effort; the caller still gets the evaluation.
	if h.record && h.recorder != nil && h.recorder.Enabled() {
		if rerr := h.recorder.Record(ctx, h.recorder.NewRecord("api", req.ListingID, res)); rerr != nil {
			h.logger.Warn("record evaluation", xlogger.String("listing_id", req.ListingID), xlogger.Error(rerr))
		}
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *ValuationEchoHandler) Schema(c echo.Context) error {
	reg := h.evaluator.Registry()
	c.Response().Header().Set(echo.HeaderCacheControl, "public, max-age=300")
	return xhttp.SuccessResponse(c, SchemaResponse{
		Version:        reg.Version,
		Digest:         reg.Digest(),
		PriceField:     reg.PriceField,
		PriceIndex:     reg.PriceIndex,
		SqFeetMedian:   reg.SqFeetMedian,
		Regression:     reg.Regression.Fields,
		Classification: reg.Classification.Fields,
	})
}

func (h *ValuationEchoHandler) Evaluations(c echo.Context) error {
	const endpoint = "evaluations"
	defer metrics.ObserveLatency(endpoint, time.Now())

	req := &models.EvaluationsQuery{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		metrics.CountError(endpoint, "ERR_VALIDATION")
		return xhttp.BadRequestResponse(c, verr)
	}
	from, to := util.TimeWindow(req.From, req.To, h.now(), evaluationsWindow)

	if h.recorder == nil {
		return h.fail(c, endpoint, usecase.ErrQueryUnsupported)
	}
	recs, err := h.recorder.Query(c.Request().Context(), from, to, req.Limit)
	if err != nil {
		return h.fail(c, endpoint, err)
	}
	if recs == nil {
		recs = []*models.EvaluationRecord{}
	}
	return xhttp.ListResponse(c, recs, int64(len(recs)))
}

func (h *ValuationEchoHandler) Health(c echo.Context) error {
	body := map[string]string{
		"status":         "ok",
		"schema_version": h.evaluator.Registry().Version,
	}
	if h.recorder != nil {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()
		if err := h.recorder.Health(ctx); err != nil {
			body["status"] = "degraded"
			body["backend"] = err.Error()
			return xhttp.ServiceUnavailableResponse(c, body)
		}
	}
	return xhttp.SuccessResponse(c, body)
}

// fail maps a valuation error onto the HTTP error envelope.
func (h *ValuationEchoHandler) fail(c echo.Context, endpoint string, err error) error {
	appErr := toAppError(err)
	metrics.CountError(endpoint, appErr.Code)
	if appErr.Status >= http.StatusInternalServerError {
		h.logger.Error(endpoint+" failed", xlogger.String("code", appErr.Code), xlogger.Error(err))
	}
	return xhttp.AppErrorResponse(c, appErr)
}

func toAppError(err error) *xhttp.AppError {
	var sm *models.SchemaMismatchError
	var mc *models.ModelContractError
	switch {
	case errors.As(err, &sm):
		appErr := xhttp.UnprocessableError("ERR_SCHEMA_MISMATCH", sm.Error()).WithError(err)
		appErr.Field = sm.Schema
		if len(sm.Missing) > 0 {
			appErr.WithParam("missing", sm.Missing)
		}
		return appErr
	case errors.As(err, &mc):
		return xhttp.BadGatewayError("ERR_MODEL_CONTRACT", mc.Error()).WithError(err)
	case errors.Is(err, models.ErrDivisionByZero):
		return xhttp.UnprocessableError("ERR_ARITHMETIC", err.Error()).WithError(err)
	case errors.Is(err, usecase.ErrQueryUnsupported):
		return xhttp.NotImplementedError("ERR_NOT_SUPPORTED", err.Error()).WithError(err)
	default:
		return xhttp.InternalError("valuation failed").WithError(err)
	}
}
