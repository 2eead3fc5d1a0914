package middleware

import (
	applogger "RentWise/pkg/logger"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
)

// RequestLogging logs successful requests at debug and client or server
// failures at warn, tagged with the request id.
func RequestLogging(l *applogger.Logger) echo.MiddlewareFunc {
	return echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogMethod:    true,
		LogRoutePath: true,
		LogRemoteIP:  true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			fields := []applogger.Field{
				applogger.String("method", v.Method),
				applogger.String("route", v.RoutePath),
				applogger.String("remote", v.RemoteIP),
				applogger.String("request_id", v.RequestID),
				applogger.Int("status", v.Status),
				applogger.Duration("duration_ms", v.Latency),
			}
			if v.Error != nil {
				fields = append(fields, applogger.Error(v.Error))
			}
			if v.Status >= 400 || v.Error != nil {
				l.Warn("http request", fields...)
				return nil
			}
			l.Debug("http request", fields...)
			return nil
		},
	})
}
