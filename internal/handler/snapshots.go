package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sureshodi/anandhaa/internal/snapshot"
	"go.uber.org/zap"
)

// SnapshotServicer defines the service methods for saved snapshots.
type SnapshotServicer interface {
	ListSnapshots(ctx context.Context) ([]snapshot.Entry, error)
	DeleteSnapshot(ctx context.Context, name string) error
}

// SnapshotHandler lists and deletes saved snapshots.
type SnapshotHandler struct {
	svc    SnapshotServicer
	logger *zap.Logger
}

// NewSnapshotHandler creates a new SnapshotHandler.
func NewSnapshotHandler(svc SnapshotServicer, logger *zap.Logger) *SnapshotHandler {
	return &SnapshotHandler{svc: svc, logger: logger}
}

// RegisterRoutes registers snapshot endpoints. Mounted at /api/snapshots.
func (h *SnapshotHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Delete("/{name}", h.Delete)
}

// List handles GET /snapshots.
func (h *SnapshotHandler) List(w http.ResponseWriter, r *http.Request) {
	entries, err := h.svc.ListSnapshots(r.Context())
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	if entries == nil {
		entries = []snapshot.Entry{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"snapshots": entries})
}

// Delete handles DELETE /snapshots/{name}.
func (h *SnapshotHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteSnapshot(r.Context(), chi.URLParam(r, "name")); err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
