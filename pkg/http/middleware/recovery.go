package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/labstack/echo/v4"

	applogger "BrentPulse/pkg/logger"
)

// Recover turns a handler panic into a 500 carrying the same envelope as
// every other API error, and logs the stack once.
func Recover(l *applogger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) (err error) {
			defer func() {
				r := recover()
				if r == nil {
					return
				}
				if r == http.ErrAbortHandler {
					panic(r)
				}
				perr, ok := r.(error)
				if !ok {
					perr = fmt.Errorf("%v", r)
				}
				if l != nil {
					l.Error("http handler panic",
						applogger.String("route", c.Path()),
						applogger.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
						applogger.String("stack", string(debug.Stack())),
						applogger.Error(perr),
					)
				}
				if c.Response().Committed {
					return
				}
				err = c.JSON(http.StatusInternalServerError, map[string]interface{}{
					"status":  http.StatusInternalServerError,
					"message": http.StatusText(http.StatusInternalServerError),
					"data": []map[string]string{{
						"code":    "ERR_INTERNAL",
						"message": "internal error",
					}},
				})
			}()
			return next(c)
		}
	}
}
