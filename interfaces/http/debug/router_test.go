package debug

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"pulse-backend/infrastructure/config"
	"pulse-backend/pkg/observability"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	return &config.Config{
		AppName:             "pulse-api",
		Stage:               "development",
		LogLevel:            "debug",
		EnableTracing:       true,
		DatabaseFailureRate: 0.05,
		ExternalFailureRate: 0.10,
		DatabaseLatencyMin:  50 * time.Millisecond,
		DatabaseLatencyMax:  200 * time.Millisecond,
		ExternalLatencyMin:  100 * time.Millisecond,
		ExternalLatencyMax:  300 * time.Millisecond,
	}
}

func TestTracesEndpoint(t *testing.T) {
	recent := observability.NewMemoryCollector(10)
	recent.Emit(&observability.Segment{Name: "pulse-api", ID: "aa01"})
	recent.Emit(&observability.Segment{Name: "pulse-api", ID: "aa02"})

	router := NewRouter(testConfig(), recent)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/debug/traces", nil))

	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Count    int                      `json:"count"`
		Segments []map[string]interface{} `json:"segments"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 2, body.Count)
	require.Len(t, body.Segments, 2)
	// Newest first
	assert.Equal(t, "aa02", body.Segments[0]["id"])
	assert.Equal(t, "aa01", body.Segments[1]["id"])
}

func TestTracesEndpointEmpty(t *testing.T) {
	router := NewRouter(testConfig(), observability.NewMemoryCollector(10))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/debug/traces", nil))

	var body struct {
		Count int `json:"count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 0, body.Count)
}

func TestConfigEndpoint(t *testing.T) {
	router := NewRouter(testConfig(), observability.NewMemoryCollector(10))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/debug/config", nil))

	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "pulse-api", body["app_name"])
	assert.Equal(t, "development", body["stage"])
	assert.Equal(t, true, body["tracing_enabled"])
	assert.Equal(t, []interface{}{float64(50), float64(200)}, body["db_latency_ms"])
}

func TestMethodNotAllowed(t *testing.T) {
	router := NewRouter(testConfig(), observability.NewMemoryCollector(10))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("POST", "/debug/traces", nil))

	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}
