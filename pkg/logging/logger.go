package logging

import (
	"context"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Field keys shared by every record. Callers contribute additional fields
// which zap flattens into the same top-level object, one JSON object per
// line, each record encoded atomically before it reaches a sink.
const (
	KeyRequestID = "request_id"
	KeyAppName   = "app_name"
	KeyStage     = "stage"
)

// encoderConfig defines the canonical structured record schema
func encoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		TimeKey:        "timestamp",
		LevelKey:       "level",
		MessageKey:     "message",
		NameKey:        "logger",
		CallerKey:      "",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeDuration: zapcore.MillisDurationEncoder,
	}
}

// NewLogger builds the application logger: a JSON console core, teed with
// any additional cores (the remote sink, when enabled), with the constant
// app_name and stage fields attached to every record.
func NewLogger(appName, stage, level string, extra ...zapcore.Core) *zap.Logger {
	encoder := zapcore.NewJSONEncoder(encoderConfig())

	cores := []zapcore.Core{
		zapcore.NewCore(encoder, zapcore.Lock(os.Stdout), ParseLevel(level)),
	}
	cores = append(cores, extra...)

	logger := zap.New(zapcore.NewTee(cores...))
	return logger.With(
		zap.String(KeyAppName, appName),
		zap.String(KeyStage, stage),
	)
}

// ParseLevel maps a config level string onto a zap level, defaulting to info
func ParseLevel(level string) zapcore.Level {
	switch level {
	case "debug":
		return zapcore.DebugLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

type loggerContextKey struct{}

// WithContext binds a request-scoped logger into the context. The
// correlation middleware uses this to make the logger carrying request_id
// available without explicit parameter threading.
func WithContext(ctx context.Context, logger *zap.Logger) context.Context {
	return context.WithValue(ctx, loggerContextKey{}, logger)
}

// FromContext returns the request-scoped logger, falling back to the
// process logger outside a request.
func FromContext(ctx context.Context) *zap.Logger {
	if logger, ok := ctx.Value(loggerContextKey{}).(*zap.Logger); ok {
		return logger
	}
	return zap.L()
}
