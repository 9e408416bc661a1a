package logger

import (
	"context"
	"log/slog"
	"os"
)

var defaultLogger *slog.Logger

func init() {
	// Use JSON in production, text for development
	env := os.Getenv("ENV")

	var handler slog.Handler
	if env == "production" {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	} else {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})
	}

	defaultLogger = slog.New(handler)
	slog.SetDefault(defaultLogger)
}

// Logger returns the default logger
func Logger() *slog.Logger {
	return defaultLogger
}

// Context keys
type contextKey string

const (
	runIDKey     contextKey = "run_id"
	productIDKey contextKey = "product_id"
	alertIDKey   contextKey = "alert_id"
)

// WithRunID tags a batch run (price check, alert check) in context
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, runIDKey, runID)
}

// WithProductID adds the product being processed to context
func WithProductID(ctx context.Context, productID int64) context.Context {
	return context.WithValue(ctx, productIDKey, productID)
}

// WithAlertID adds the alert being processed to context
func WithAlertID(ctx context.Context, alertID int64) context.Context {
	return context.WithValue(ctx, alertIDKey, alertID)
}

// FromContext returns base with the run, product and alert IDs found in ctx.
// A nil base uses the default logger.
func FromContext(ctx context.Context, base *slog.Logger) *slog.Logger {
	l := base
	if l == nil {
		l = defaultLogger
	}

	if runID, ok := ctx.Value(runIDKey).(string); ok && runID != "" {
		l = l.With(slog.String("run_id", runID))
	}

	if productID, ok := ctx.Value(productIDKey).(int64); ok {
		l = l.With(slog.Int64("product_id", productID))
	}

	if alertID, ok := ctx.Value(alertIDKey).(int64); ok {
		l = l.With(slog.Int64("alert_id", alertID))
	}

	return l
}

// Convenience functions

func Info(msg string, args ...any) {
	defaultLogger.Info(msg, args...)
}

func Error(msg string, args ...any) {
	defaultLogger.Error(msg, args...)
}

func Debug(msg string, args ...any) {
	defaultLogger.Debug(msg, args...)
}

func Warn(msg string, args ...any) {
	defaultLogger.Warn(msg, args...)
}
