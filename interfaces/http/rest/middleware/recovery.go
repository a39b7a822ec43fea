package middleware

import (
	"fmt"
	"net/http"

	"pulse-backend/pkg/common"
	apperrors "pulse-backend/pkg/errors"
	"pulse-backend/pkg/logging"
	"pulse-backend/pkg/observability"

	"go.uber.org/zap"
)

// Recovery is the error boundary: it converts panics escaping a handler
// into the uniform error response, logs them with the correlation ID, and
// flags the root trace segment. It runs inside Correlation so the request
// context is always established and the completion record still fires.
func Recovery(recorder *observability.Recorder) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					ctx := r.Context()
					message := fmt.Sprintf("%v", rec)

					logging.FromContext(ctx).Error("Unhandled error in request handler",
						zap.String("panic", message),
						zap.String("method", r.Method),
						zap.String("path", r.URL.Path),
						zap.Stack("stacktrace"),
					)

					if root := recorder.RootSegment(ctx); root != nil {
						root.RecordError(message)
						root.AddAnnotation("error", true)
					}

					// If the handler already started writing we can only
					// let the connection drop.
					if w.Header().Get("Content-Type") == "" {
						internal := apperrors.NewInternalError(message)
						common.RespondError(w, internal.HTTPStatus,
							internal.Message, common.RequestIDOrUnknown(ctx))
					}
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
