package middleware

import (
	"net/http"
	"time"

	"pulse-backend/pkg/common"
	"pulse-backend/pkg/logging"
	"pulse-backend/pkg/observability"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// HeaderRequestID carries the correlation ID in both directions
const HeaderRequestID = "X-Request-ID"

// Correlation resolves the correlation ID for each request, opens the
// root trace segment, and emits the completion log record. It must be the
// outermost application middleware so that the request context exists
// before any handler code runs and the completion record fires exactly
// once per request, error paths included.
func Correlation(base *zap.Logger, recorder *observability.Recorder, serviceName string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := r.Header.Get(HeaderRequestID)
			if requestID == "" {
				requestID = uuid.New().String()
			}

			// Set the response header up front so the caller can
			// correlate even if the handler fails mid-write.
			w.Header().Set(HeaderRequestID, requestID)

			start := time.Now()
			rc := &common.RequestContext{
				RequestID:  requestID,
				StartTime:  start,
				Method:     r.Method,
				Path:       r.URL.Path,
				RemoteAddr: r.RemoteAddr,
			}

			ctx := common.WithRequestContext(r.Context(), rc)
			reqLogger := base.With(zap.String(logging.KeyRequestID, requestID))
			ctx = logging.WithContext(ctx, reqLogger)

			ctx, segment := recorder.BeginSegment(ctx, serviceName)

			// Wrap response writer to capture status code
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r.WithContext(ctx))

			durationMs := common.GetElapsedTime(ctx).Milliseconds()

			if seg := segment.Segment(); seg != nil {
				seg.AddAnnotation("method", r.Method)
				seg.AddAnnotation("path", r.URL.Path)
				seg.AddAnnotation("status_code", ww.Status())
				seg.AddMetadata("request", "remote_addr", r.RemoteAddr)
				seg.AddMetadata("request", "duration_ms", durationMs)
			}

			reqLogger.Info("Request completed",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status_code", ww.Status()),
				zap.Int64("duration_ms", durationMs),
				zap.String("ip", r.RemoteAddr),
			)

			segment.Close()
		})
	}
}
