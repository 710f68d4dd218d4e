package logger

import (
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// ContextKey is the echo context key for the request-scoped logger.
const ContextKey = "logger"

// RequestIDKey is both the correlation-id header name and the echo context
// key the request-id middleware stores it under.
const RequestIDKey = "X-Request-ID"

// requestIDOf returns the request's correlation id: from context when the
// request-id middleware ran, otherwise from the inbound header.
func requestIDOf(c echo.Context) string {
	if id, ok := c.Get(RequestIDKey).(string); ok && id != "" {
		return id
	}
	return c.Request().Header.Get(RequestIDKey)
}

// FromContext returns the request-scoped logger. When Middleware has not
// run it falls back to the global logger, tagged with whatever correlation
// id is available.
func FromContext(c echo.Context) *zap.Logger {
	if reqLog, ok := c.Get(ContextKey).(*zap.Logger); ok {
		return reqLog
	}
	if id := requestIDOf(c); id != "" {
		return GetLogger().With(zap.String("request_id", id))
	}
	return GetLogger()
}
