package middleware

import (
	"net/http"

	applogger "RentWise/pkg/logger"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
)

// Recover turns a handler panic into a 500 envelope and an error log with
// the stack attached.
func Recover(l *applogger.Logger) echo.MiddlewareFunc {
	return echomw.RecoverWithConfig(echomw.RecoverConfig{
		StackSize: 4 << 10,
		LogErrorFunc: func(c echo.Context, err error, stack []byte) error {
			l.Error("panic recovered",
				applogger.String("method", c.Request().Method),
				applogger.String("route", c.Path()),
				applogger.Error(err),
				applogger.String("stack", string(stack)))
			return c.JSON(http.StatusInternalServerError, map[string]interface{}{
				"status":  http.StatusInternalServerError,
				"message": "Internal Server Error",
			})
		},
	})
}
