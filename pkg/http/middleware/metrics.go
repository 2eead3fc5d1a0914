package middleware

import (
	"strconv"
	"sync"
	"time"

	applogger "RentWise/pkg/logger"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	httpRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "rentwise_http_requests_total",
		Help: "HTTP requests by route template, method and status",
	}, []string{"route", "method", "status"})

	httpLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "rentwise_http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
	}, []string{"route", "method", "class"})

	httpInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "rentwise_http_in_flight_requests",
		Help: "Requests currently being served",
	})

	httpResponseBytes = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "rentwise_http_response_size_bytes",
		Help:    "Response body size",
		Buckets: prometheus.ExponentialBuckets(128, 4, 7),
	}, []string{"route", "class"})

	registerHTTPMetrics sync.Once
)

// Metrics records request counters labeled by the matched route template.
// Unmatched requests share one label. Requests slower than slowThreshold
// are logged at warn; 5xx responses at error.
func Metrics(l *applogger.Logger, slowThreshold time.Duration) echo.MiddlewareFunc {
	registerHTTPMetrics.Do(func() {
		prometheus.MustRegister(httpRequests, httpLatency, httpInFlight, httpResponseBytes)
	})
	if l == nil {
		l = applogger.Nop()
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			httpInFlight.Inc()
			defer httpInFlight.Dec()
			start := time.Now()
			err := next(c)
			took := time.Since(start)

			if err != nil {
				// let the error handler write the response so the status is final
				c.Error(err)
			}
			res := c.Response()
			route := routeLabel(c)
			method := c.Request().Method
			class := statusClass(res.Status)

			httpRequests.WithLabelValues(route, method, strconv.Itoa(res.Status)).Inc()
			httpLatency.WithLabelValues(route, method, class).Observe(took.Seconds())
			httpResponseBytes.WithLabelValues(route, class).Observe(float64(res.Size))

			switch {
			case res.Status >= 500:
				l.Error("http request failed",
					applogger.String("route", route),
					applogger.String("method", method),
					applogger.Int("status", res.Status),
					applogger.Duration("duration_ms", took))
			case slowThreshold > 0 && took >= slowThreshold:
				l.Warn("http request slow",
					applogger.String("route", route),
					applogger.String("method", method),
					applogger.Duration("duration_ms", took))
			}
			return nil
		}
	}
}

func routeLabel(c echo.Context) string {
	if p := c.Path(); p != "" {
		return p
	}
	return "unmatched"
}

func statusClass(code int) string {
	if code < 100 || code > 599 {
		return "5xx"
	}
	return strconv.Itoa(code/100) + "xx"
}
