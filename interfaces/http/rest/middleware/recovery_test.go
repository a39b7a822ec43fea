package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"pulse-backend/pkg/common"
	"pulse-backend/pkg/observability"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestRecovery(t *testing.T) {
	t.Run("Should convert a panic into the uniform error response", func(t *testing.T) {
		observed, logs := observer.New(zapcore.DebugLevel)
		logger := zap.New(observed)
		collector := observability.NewMemoryCollector(10)
		recorder := observability.NewRecorder(collector, logger, true, true)

		var handler http.Handler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			panic("This is a test error")
		})
		handler = Recovery(recorder)(handler)
		handler = Correlation(logger, recorder, "pulse-api")(handler)

		req := httptest.NewRequest("GET", "/error", nil)
		req.Header.Set(HeaderRequestID, "abc-123")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusInternalServerError, w.Code)

		var body common.ErrorBody
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, "This is a test error", body.Error)
		assert.Equal(t, "abc-123", body.RequestID)

		// Exactly one error-level record, carrying the correlation ID
		errorLogs := logs.FilterLevelExact(zapcore.ErrorLevel).All()
		require.Len(t, errorLogs, 1)

		// The completion record still fires after the boundary
		assert.Len(t, logs.FilterMessage("Request completed").All(), 1)

		// The root segment is flagged and still exported
		require.Equal(t, 1, collector.Len())
		seg := collector.Recent()[0]
		require.NotNil(t, seg.Error)
		assert.Equal(t, "This is a test error", seg.Error.Message)
		assert.Equal(t, true, seg.Annotations["error"])
	})

	t.Run("Should pass through normal requests", func(t *testing.T) {
		logger := zap.NewNop()
		recorder := observability.NewRecorder(observability.NopCollector{}, logger, false, true)

		handler := Recovery(recorder)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		}))

		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest("GET", "/", nil))
		assert.Equal(t, http.StatusNoContent, w.Code)
	})
}
