// Package middleware holds the gin middleware chain shared by every route:
// request id propagation, structured request logging, panic recovery, and
// per-route prometheus instrumentation.
package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/turtacn/geometax/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/geometax/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/geometax/pkg/errors"
	"github.com/turtacn/geometax/pkg/types/common"
)

// RequestIDHeader is the inbound and outbound request id header.
const RequestIDHeader = "X-Request-ID"

// requestIDKey is the gin context key the handlers read.
const requestIDKey = "request_id"

// RequestID honours an inbound X-Request-ID and mints one otherwise.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.New().String()
		}
		c.Set(requestIDKey, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

// GetRequestID returns the request id set by RequestID, or empty.
func GetRequestID(c *gin.Context) string {
	return c.GetString(requestIDKey)
}

// skipLogging lists paths too chatty to log per request.
var skipLogging = map[string]bool{
	"/healthz": true,
	"/readyz":  true,
	"/metrics": true,
}

// Logging emits one structured log line per completed request.
func Logging(log logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if skipLogging[c.Request.URL.Path] {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		fields := []logging.Field{
			logging.String("method", c.Request.Method),
			logging.String("path", c.Request.URL.Path),
			logging.Int("status", c.Writer.Status()),
			logging.Duration("elapsed", time.Since(start)),
			logging.String("request_id", GetRequestID(c)),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, logging.String("errors", c.Errors.String()))
		}

		switch {
		case c.Writer.Status() >= http.StatusInternalServerError:
			log.Error("request failed", fields...)
		case c.Writer.Status() >= http.StatusBadRequest:
			log.Warn("request rejected", fields...)
		default:
			log.Info("request served", fields...)
		}
	}
}

// Recovery converts panics into a masked 500 response.
func Recovery(log logging.Logger) gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(nil, func(c *gin.Context, recovered any) {
		log.Error("handler panicked",
			logging.String("path", c.Request.URL.Path),
			logging.String("request_id", GetRequestID(c)),
			logging.Any("panic", recovered))

		resp := common.NewErrorResponse(
			string(errors.ErrCodeInternal),
			errors.DefaultMessageForCode(errors.ErrCodeInternal))
		resp.RequestID = GetRequestID(c)
		c.AbortWithStatusJSON(http.StatusInternalServerError, resp)
	})
}

// Metrics records request counts and latency per route template, so
// "/api/v1/annotations/:sample" stays one series no matter the accession.
func Metrics(m *prometheus.AppMetrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}

		active := m.HTTPActiveRequests.WithLabelValues(c.Request.Method)
		active.Inc()
		start := time.Now()

		c.Next()

		active.Dec()
		m.RecordHTTPRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
