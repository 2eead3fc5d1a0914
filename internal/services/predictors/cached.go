package predictors

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"math"
	"time"

	"RentWise/internal/domain/models"
	domsvc "RentWise/internal/domain/service"
	"RentWise/internal/service/cache"
	applogger "RentWise/pkg/logger"
)

// CachedPriceRegressor memoises a deterministic regressor. Cache failures
// degrade to a direct call.
type CachedPriceRegressor struct {
	next   domsvc.PriceRegressor
	cache  cache.BytesCache
	ttl    time.Duration
	logger *applogger.Logger
}

func NewCachedPriceRegressor(next domsvc.PriceRegressor, c cache.BytesCache, ttl time.Duration, logger *applogger.Logger) *CachedPriceRegressor {
	if logger == nil {
		logger = applogger.Nop()
	}
	return &CachedPriceRegressor{next: next, cache: c, ttl: ttl, logger: logger}
}

func (r *CachedPriceRegressor) PredictPrice(ctx context.Context, record models.FeatureRecord) (float64, error) {
	key := RecordKey(record)
	if b, ok, err := r.cache.GetBytes(ctx, key); err != nil {
		r.logger.Warn("prediction cache read failed", applogger.Error(err))
	} else if ok && len(b) == 8 {
		return math.Float64frombits(binary.BigEndian.Uint64(b)), nil
	}

	price, err := r.next.PredictPrice(ctx, record)
	if err != nil {
		return 0, err
	}
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, math.Float64bits(price))
	if err := r.cache.SetBytes(ctx, key, buf, r.ttl); err != nil {
		r.logger.Warn("prediction cache write failed", applogger.Error(err))
	}
	return price, nil
}

// VerifySchema forwards to the wrapped regressor when it can verify.
func (r *CachedPriceRegressor) VerifySchema(ctx context.Context, schema models.FeatureSchema) error {
	if v, ok := r.next.(domsvc.SchemaVerifier); ok {
		return v.VerifySchema(ctx, schema)
	}
	return nil
}

// RecordKey is "predict:<schema digest>:<hash of values>".
func RecordKey(record models.FeatureRecord) string {
	h := sha256.New()
	buf := make([]byte, 8)
	for _, v := range record.Values {
		binary.BigEndian.PutUint64(buf, math.Float64bits(v))
		h.Write(buf)
	}
	return "predict:" + record.Schema.Digest() + ":" + hex.EncodeToString(h.Sum(nil))
}

var _ domsvc.PriceRegressor = (*CachedPriceRegressor)(nil)
