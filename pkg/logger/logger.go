package logger

import (
	"time"

	"rental-api/pkg/config"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var log *zap.Logger

// InitLogger builds the global logger. Production gets structured JSON
// output; any other environment gets the colored console encoder.
func InitLogger(cfg *config.Config) {
	logConfig := zap.NewProductionConfig()
	if cfg.Server.Env != "production" {
		logConfig = zap.NewDevelopmentConfig()
		logConfig.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Log.Level)); err != nil {
		level = zapcore.InfoLevel
	}
	logConfig.Level.SetLevel(level)

	built, err := logConfig.Build()
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	log = built.With(zap.String("service", "rental-api"))

	log.Info("Logger initialized", zap.String("level", level.String()))
}

// GetLogger returns the global logger, falling back to a production logger
// when InitLogger has not run.
func GetLogger() *zap.Logger {
	if log == nil {
		log = zap.Must(zap.NewProduction()).With(zap.String("service", "rental-api"))
	}
	return log
}

// quietPaths are scraped continuously; a completion line per probe is noise.
var quietPaths = map[string]bool{
	"/health":  true,
	"/metrics": true,
}

// Middleware stores a request-scoped logger carrying the correlation id in
// the echo context and writes one completion line per request.
func Middleware(base *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if quietPaths[c.Path()] {
				return next(c)
			}

			start := time.Now()
			reqLog := base.With(zap.String("request_id", requestIDOf(c)))
			c.Set(ContextKey, reqLog)

			err := next(c)

			fields := []zap.Field{
				zap.String("method", c.Request().Method),
				zap.String("path", c.Request().URL.Path),
				zap.Int("status", c.Response().Status),
				zap.Int64("bytes_out", c.Response().Size),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", c.RealIP()),
			}
			if err != nil {
				reqLog.Error("Request failed", append(fields, zap.Error(err))...)
			} else {
				reqLog.Info("Request completed", fields...)
			}

			return err
		}
	}
}
