package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"pulse-backend/application/simulation"
	"pulse-backend/pkg/common"
	apperrors "pulse-backend/pkg/errors"
	"pulse-backend/pkg/utils"
	"pulse-backend/pkg/logging"
	"pulse-backend/pkg/observability"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ResourceHandler handles resource-related HTTP requests
type ResourceHandler struct {
	simulator *simulation.Simulator
	recorder  *observability.Recorder

	dbFailureRate  float64
	apiFailureRate float64
}

// NewResourceHandler creates a new resource handler
func NewResourceHandler(simulator *simulation.Simulator, recorder *observability.Recorder, dbFailureRate, apiFailureRate float64) *ResourceHandler {
	return &ResourceHandler{
		simulator:      simulator,
		recorder:       recorder,
		dbFailureRate:  dbFailureRate,
		apiFailureRate: apiFailureRate,
	}
}

// ResourceResponse is the body for GET /resources/{resourceID}
type ResourceResponse struct {
	ResourceID string `json:"resource_id"`
	Name       string `json:"name"`
	Status     string `json:"status"`
	RequestID  string `json:"request_id"`
}

// ResourceItem is one element of a resource's item listing
type ResourceItem struct {
	ItemID string `json:"item_id"`
	Status string `json:"status"`
}

// ResourceItemsResponse is the body for GET /resources/{resourceID}/items
type ResourceItemsResponse struct {
	ResourceID string         `json:"resource_id"`
	Items      []ResourceItem `json:"items"`
	DBStatus   string         `json:"db_status"`
	APIStatus  string         `json:"api_status"`
	RequestID  string         `json:"request_id"`
}

// GetResource handles GET /resources/{resourceID}
func (h *ResourceHandler) GetResource(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	resourceID := chi.URLParam(r, "resourceID")

	logging.FromContext(ctx).Info("Fetching resource data",
		zap.String("resource_id", resourceID),
	)

	h.recorder.AddAnnotation(ctx, "resource_id", resourceID)

	failureRate, err := h.failureRate(r, h.dbFailureRate)
	if err != nil {
		common.RespondError(w, apperrors.HTTPStatus(err), err.Message, common.RequestIDOrUnknown(ctx))
		return
	}

	dbResult := h.simulator.SimulateDatabase(ctx, "get_resource", failureRate)

	common.RespondJSON(w, http.StatusOK, ResourceResponse{
		ResourceID: resourceID,
		Name:       fmt.Sprintf("Resource %s", resourceID),
		Status:     dbResult.Status,
		RequestID:  common.RequestIDOrUnknown(ctx),
	})
}

// GetResourceItems handles GET /resources/{resourceID}/items
func (h *ResourceHandler) GetResourceItems(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	resourceID := chi.URLParam(r, "resourceID")

	logging.FromContext(ctx).Info("Fetching items for resource",
		zap.String("resource_id", resourceID),
	)

	h.recorder.AddAnnotation(ctx, "resource_id", resourceID)
	h.recorder.AddMetadata(ctx, "request", "query_params", r.URL.Query())

	dbRate, err := h.failureRate(r, h.dbFailureRate)
	if err != nil {
		common.RespondError(w, apperrors.HTTPStatus(err), err.Message, common.RequestIDOrUnknown(ctx))
		return
	}

	dbResult := h.simulator.SimulateDatabase(ctx, "get_items", dbRate)
	apiResult := h.simulator.SimulateExternalAPI(ctx, "validation_service", h.apiFailureRate)

	items := []ResourceItem{
		{ItemID: fmt.Sprintf("%s-1", resourceID), Status: "active"},
		{ItemID: fmt.Sprintf("%s-2", resourceID), Status: "pending"},
	}

	common.RespondJSON(w, http.StatusOK, ResourceItemsResponse{
		ResourceID: resourceID,
		Items:      items,
		DBStatus:   dbResult.Status,
		APIStatus:  apiResult.Status,
		RequestID:  common.RequestIDOrUnknown(ctx),
	})
}

// failureRate resolves the optional failure_rate query override,
// bounded to [0, 1]
func (h *ResourceHandler) failureRate(r *http.Request, fallback float64) (float64, *apperrors.AppError) {
	raw := r.URL.Query().Get("failure_rate")
	if raw == "" {
		return fallback, nil
	}
	rate, err := strconv.ParseFloat(raw, 64)
	if err != nil || utils.ValidateVar("failure_rate", rate, "gte=0,lte=1") != nil {
		return 0, apperrors.NewValidationError("failure_rate must be a number between 0 and 1")
	}
	return rate, nil
}
