package middleware

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/finance-ledger/internal/logger"
	"github.com/gin-gonic/gin"
)

type panicBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
	CorrelationID string `json:"correlation_id,omitempty"`
}

// Recovery answers a panicking handler with 500 INTERNAL_SERVER_ERROR. A ledger request that
// panics mid-flight has its unit of work rolled back by the engine, so nothing is committed.
func Recovery(base *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}

			log := logger.FromContext(c.Request.Context(), base).With(
				"method", c.Request.Method,
				"route", c.FullPath(),
			)

			// the client went away; there is nobody left to answer
			if err, ok := rec.(error); ok && errors.Is(err, http.ErrAbortHandler) {
				log.Warn("Request aborted by client")
				c.Abort()
				return
			}

			log.Error("Handler panicked",
				"panic", fmt.Sprint(rec),
				"stack", string(debug.Stack()),
			)

			var body panicBody
			body.Error.Code = "INTERNAL_SERVER_ERROR"
			body.Error.Message = "An unexpected error occurred"
			body.CorrelationID = GetCorrelationID(c)
			c.AbortWithStatusJSON(http.StatusInternalServerError, body)
		}()

		c.Next()
	}
}
