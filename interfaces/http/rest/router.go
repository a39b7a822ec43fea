package rest

import (
	"net/http"

	"pulse-backend/application/simulation"
	"pulse-backend/interfaces/http/rest/handlers"
	"pulse-backend/interfaces/http/rest/middleware"
	"pulse-backend/pkg/common"
	apperrors "pulse-backend/pkg/errors"
	"pulse-backend/pkg/observability"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// Router creates and configures the HTTP router
type Router struct {
	appName        string
	logger         *zap.Logger
	recorder       *observability.Recorder
	simulator      *simulation.Simulator
	metrics        middleware.RequestRecorder
	dbFailureRate  float64
	apiFailureRate float64
}

// NewRouter creates a new router instance. metrics may be nil when
// metric publication is disabled.
func NewRouter(
	appName string,
	logger *zap.Logger,
	recorder *observability.Recorder,
	simulator *simulation.Simulator,
	metrics middleware.RequestRecorder,
	dbFailureRate, apiFailureRate float64,
) *Router {
	return &Router{
		appName:        appName,
		logger:         logger,
		recorder:       recorder,
		simulator:      simulator,
		metrics:        metrics,
		dbFailureRate:  dbFailureRate,
		apiFailureRate: apiFailureRate,
	}
}

// Setup configures all routes and middleware. Ordering matters:
// Correlation is outermost so the completion record and segment close
// run even when Recovery has already handled a failure.
func (rt *Router) Setup() http.Handler {
	router := chi.NewRouter()

	router.Use(chimiddleware.RealIP)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", middleware.HeaderRequestID},
		ExposedHeaders: []string{middleware.HeaderRequestID},
		MaxAge:         300,
	}))
	router.Use(middleware.Correlation(rt.logger, rt.recorder, rt.appName))
	router.Use(middleware.Metrics(rt.metrics))
	router.Use(middleware.Recovery(rt.recorder))

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		notFound := apperrors.NewNotFoundError("route")
		common.RespondError(w, notFound.HTTPStatus, notFound.Message, common.RequestIDOrUnknown(r.Context()))
	})

	serviceHandler := handlers.NewServiceHandler(rt.appName)
	router.Get("/", serviceHandler.Index)
	router.Get("/error", serviceHandler.Error)
	router.Get("/health", serviceHandler.Health)

	resourceHandler := handlers.NewResourceHandler(rt.simulator, rt.recorder, rt.dbFailureRate, rt.apiFailureRate)
	router.Route("/resources", func(r chi.Router) {
		r.Get("/{resourceID}", resourceHandler.GetResource)
		r.Get("/{resourceID}/items", resourceHandler.GetResourceItems)
	})

	return router
}
