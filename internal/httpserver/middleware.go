package httpserver

import (
	"fmt"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/planmatch/planmatch/internal/errors"
	"github.com/planmatch/planmatch/internal/telemetry"
)

const (
	correlationIDHeader = "X-Correlation-ID"
	userIDHeader        = "X-User-ID"
)

// CorrelationIDMiddleware attaches a correlation id to every request context,
// reusing the caller's when one is supplied.
func CorrelationIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		correlationID := c.GetHeader(correlationIDHeader)
		if correlationID == "" {
			correlationID = telemetry.NewCorrelationID()
		}

		ctx := telemetry.WithCorrelationID(c.Request.Context(), correlationID)
		c.Request = c.Request.WithContext(ctx)
		c.Header(correlationIDHeader, correlationID)

		c.Next()
	}
}

// RequestLoggerMiddleware logs each request with its outcome.
func RequestLoggerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		logger := telemetry.GetContextualLogger(c.Request.Context()).WithFields(map[string]interface{}{
			"operation":   "http_request",
			"method":      c.Request.Method,
			"path":        path,
			"status":      c.Writer.Status(),
			"duration_ms": time.Since(start).Milliseconds(),
		})

		switch {
		case c.Writer.Status() >= http.StatusInternalServerError:
			logger.Error("Request failed")
		case c.Writer.Status() >= http.StatusBadRequest:
			logger.Warn("Request rejected")
		default:
			logger.Debug("Request completed")
		}
	}
}

// RecoveryMiddleware converts panics into structured internal errors.
func RecoveryMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				telemetry.GetContextualLogger(c.Request.Context()).WithFields(map[string]interface{}{
					"operation":   "http_panic",
					"panic_value": fmt.Sprintf("%v", r),
					"stack_trace": string(debug.Stack()),
				}).Error("Panic recovered in request handler")

				writeError(c, errors.NewInternalError(fmt.Sprintf("panic in handler: %v", r), nil))
				c.Abort()
			}
		}()

		c.Next()
	}
}

// UserIDMiddleware requires the user id header on session-scoped routes.
func UserIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetHeader(userIDHeader)
		if userID == "" {
			writeError(c, errors.NewValidationError("user_id", "missing "+userIDHeader+" header"))
			c.Abort()
			return
		}

		c.Set("user_id", userID)
		c.Next()
	}
}

// writeError renders an error as a JSON response. Unknown errors are wrapped
// as internal so their details never leak to the caller.
func writeError(c *gin.Context, err error) {
	appErr, ok := err.(*errors.AppError)
	if !ok {
		appErr = errors.NewInternalError("An unexpected error occurred", err)
	}
	if appErr.CorrelationID == "" {
		appErr = appErr.WithCorrelationID(telemetry.GetCorrelationID(c.Request.Context()))
	}

	c.JSON(appErr.HTTPStatus, gin.H{"error": appErr})
}
