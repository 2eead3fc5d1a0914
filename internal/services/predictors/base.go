// Package predictors holds the model clients behind the PriceRegressor and
// FairnessClassifier interfaces.
package predictors

import (
	"context"
	"fmt"
	"strings"
	"time"

	xhttp "RentWise/pkg/http"
)

// HTTPServiceBase is the shared JSON client for the model service.
type HTTPServiceBase struct {
	baseURL string
	client  *xhttp.Client
}

// NewHTTPServiceBase builds a client for baseURL. A non-positive timeout
// falls back to 3s; attempts below 1 mean a single try.
func NewHTTPServiceBase(baseURL string, timeout time.Duration, attempts int) *HTTPServiceBase {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &HTTPServiceBase{
		baseURL: strings.TrimRight(baseURL, "/"),
		client: xhttp.NewClient(
			xhttp.WithTimeout(timeout),
			xhttp.WithUserAgent("rentwise-evaluator"),
			xhttp.WithRetry(attempts, 50*time.Millisecond),
		),
	}
}

// GetJSON fetches path under baseURL into dest.
func (b *HTTPServiceBase) GetJSON(ctx context.Context, path string, dest interface{}) error {
	if b.baseURL == "" {
		return fmt.Errorf("model service url not configured")
	}
	return b.client.GetJSON(ctx, b.baseURL+path, dest)
}

// PostJSONWithRetry posts payload to path. Transient failures are retried;
// client errors other than 429 return at once.
func (b *HTTPServiceBase) PostJSONWithRetry(ctx context.Context, path string, payload, dest interface{}) error {
	if b.baseURL == "" {
		return fmt.Errorf("model service url not configured")
	}
	return b.client.PostJSON(ctx, b.baseURL+path, payload, dest)
}
