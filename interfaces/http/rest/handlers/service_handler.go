package handlers

import (
	"net/http"

	"pulse-backend/pkg/common"
	"pulse-backend/pkg/logging"
)

// Version reported by the service info endpoint
const Version = "1.0.0"

// ServiceHandler handles the service-level endpoints
type ServiceHandler struct {
	appName string
}

// NewServiceHandler creates a new service handler
func NewServiceHandler(appName string) *ServiceHandler {
	return &ServiceHandler{appName: appName}
}

// ServiceInfoResponse is the body for GET /
type ServiceInfoResponse struct {
	Service   string `json:"service"`
	Status    string `json:"status"`
	Version   string `json:"version"`
	RequestID string `json:"request_id"`
}

// Index handles GET /
func (h *ServiceHandler) Index(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logging.FromContext(ctx).Info("Processing root endpoint request")

	common.RespondJSON(w, http.StatusOK, ServiceInfoResponse{
		Service:   h.appName,
		Status:    "healthy",
		Version:   Version,
		RequestID: common.RequestIDOrUnknown(ctx),
	})
}

// Error handles GET /error by failing on purpose, demonstrating the
// error boundary: the panic is caught upstream, logged with the
// correlation ID, and converted into the uniform error body.
func (h *ServiceHandler) Error(w http.ResponseWriter, r *http.Request) {
	logging.FromContext(r.Context()).Info("Processing error endpoint request")

	panic("This is a test error")
}

// Health handles GET /health. Deliberately does no logging; the
// correlation middleware still propagates the request ID header.
func (h *ServiceHandler) Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy"}`))
}
