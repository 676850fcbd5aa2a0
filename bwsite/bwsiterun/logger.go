package bwsiterun

import (
	"context"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// NewLogger builds a console logger writing to stderr at the configured level.
// Stdout is left to command output.
func NewLogger(lc fx.Lifecycle, env Environment) (*zap.Logger, error) {
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(env.logLevel())
	cfg.DisableStacktrace = true
	cfg.DisableCaller = true

	logger, err := cfg.Build()
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			_ = logger.Sync() // syncing stderr fails on some terminals
			return nil
		},
	})
	return logger.Named(env.serviceName()), nil
}

// Log returns logger annotated with the trace of ctx, if any.
func Log(ctx context.Context, logger *zap.Logger) *zap.Logger {
	return logger.With(traceFields(ctx)...)
}

// traceFields extracts trace_id and span_id from the context for log correlation.
func traceFields(ctx context.Context) []zap.Field {
	span := trace.SpanFromContext(ctx)
	if !span.SpanContext().IsValid() {
		return nil
	}
	sc := span.SpanContext()
	return []zap.Field{
		zap.String("trace_id", sc.TraceID().String()),
		zap.String("span_id", sc.SpanID().String()),
	}
}
