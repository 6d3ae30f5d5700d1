package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/sureshodi/anandhaa/internal/config"
	"github.com/sureshodi/anandhaa/internal/handler"
	mw "github.com/sureshodi/anandhaa/internal/middleware"
	"github.com/sureshodi/anandhaa/internal/service"
	"github.com/sureshodi/anandhaa/internal/ws"
	"go.uber.org/zap"
)

// New creates a Chi router with all application routes wired up.
// sessionExists guards the WebSocket route.
func New(cfg *config.Config, svc *service.BillingService, hub *ws.Hub, sessionExists func(uuid.UUID) bool, logger *zap.Logger) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(mw.RequestLogger(logger))
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		ExposedHeaders:   []string{"Content-Disposition", "X-Invoice-Number"},
		AllowCredentials: false,
		MaxAge:           300, // 5 minutes
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Get("/ws/sessions/{sid}", func(w http.ResponseWriter, r *http.Request) {
		ws.ServeWS(hub, sessionExists, w, r)
	})

	r.Route("/api", func(r chi.Router) {
		r.Route("/catalog", handler.NewCatalogHandler(svc, logger).RegisterRoutes)
		r.Route("/sessions", handler.NewSessionHandler(svc, logger).RegisterRoutes)
		r.Route("/snapshots", handler.NewSnapshotHandler(svc, logger).RegisterRoutes)
		r.Route("/stock", handler.NewStockHandler(svc, logger).RegisterRoutes)
	})

	logger.Debug("router initialized")
	return r
}
