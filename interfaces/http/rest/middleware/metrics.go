package middleware

import (
	"net/http"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// RequestRecorder receives one observation per completed request
type RequestRecorder interface {
	Record(method, path string, status int, duration time.Duration)
}

// Metrics reports request count and duration to the recorder. A nil
// recorder disables the middleware.
func Metrics(recorder RequestRecorder) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if recorder == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			recorder.Record(r.Method, r.URL.Path, ww.Status(), time.Since(start))
		})
	}
}
