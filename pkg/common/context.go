package common

import (
	"context"
	"time"
)

// ContextKey represents a context key type
type ContextKey string

// Context keys
const (
	ContextKeyRequestID  ContextKey = "request_id"
	ContextKeyStartTime  ContextKey = "start_time"
	ContextKeyRequestCtx ContextKey = "request_context"
)

// RequestContext carries per-request correlation data. It is created by the
// correlation middleware and owned exclusively by that request's execution.
type RequestContext struct {
	RequestID  string
	StartTime  time.Time
	Method     string
	Path       string
	RemoteAddr string
}

// WithRequestContext attaches the request context
func WithRequestContext(ctx context.Context, rc *RequestContext) context.Context {
	ctx = context.WithValue(ctx, ContextKeyRequestCtx, rc)
	ctx = context.WithValue(ctx, ContextKeyRequestID, rc.RequestID)
	return context.WithValue(ctx, ContextKeyStartTime, rc.StartTime)
}

// GetRequestContext extracts the request context
func GetRequestContext(ctx context.Context) (*RequestContext, bool) {
	rc, ok := ctx.Value(ContextKeyRequestCtx).(*RequestContext)
	return rc, ok
}

// GetRequestID extracts the correlation ID from context
func GetRequestID(ctx context.Context) (string, bool) {
	requestID, ok := ctx.Value(ContextKeyRequestID).(string)
	return requestID, ok
}

// RequestIDOrUnknown returns the correlation ID, or "unknown" outside a request
func RequestIDOrUnknown(ctx context.Context) string {
	if id, ok := GetRequestID(ctx); ok && id != "" {
		return id
	}
	return "unknown"
}

// GetStartTime extracts the request start time from context
func GetStartTime(ctx context.Context) (time.Time, bool) {
	startTime, ok := ctx.Value(ContextKeyStartTime).(time.Time)
	return startTime, ok
}

// GetElapsedTime calculates elapsed time from the request start time
func GetElapsedTime(ctx context.Context) time.Duration {
	if startTime, ok := GetStartTime(ctx); ok {
		return time.Since(startTime)
	}
	return 0
}
