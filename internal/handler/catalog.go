package handler

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/sureshodi/anandhaa/internal/catalog"
	"go.uber.org/zap"
)

const maxCatalogUpload = 10 << 20

// CatalogServicer defines the service methods needed by catalog handlers.
type CatalogServicer interface {
	Catalog() (*catalog.Catalog, error)
	ReplaceCatalog(name string, r io.Reader) (*catalog.Catalog, error)
}

// CatalogHandler serves the product catalog.
type CatalogHandler struct {
	svc    CatalogServicer
	logger *zap.Logger
}

// NewCatalogHandler creates a new CatalogHandler.
func NewCatalogHandler(svc CatalogServicer, logger *zap.Logger) *CatalogHandler {
	return &CatalogHandler{svc: svc, logger: logger}
}

// RegisterRoutes registers catalog endpoints. Mounted at /api/catalog.
func (h *CatalogHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Get("/{code}", h.Get)
	r.Post("/", h.Upload)
}

type catalogResponse struct {
	Products []catalog.Product `json:"products"`
	Count    int               `json:"count"`
	Skipped  int               `json:"skipped"`
}

func newCatalogResponse(c *catalog.Catalog) catalogResponse {
	return catalogResponse{Products: c.Products(), Count: c.Len(), Skipped: c.Skipped()}
}

type searchResponse struct {
	Query   string          `json:"query"`
	Matches []catalog.Match `json:"matches"`
}

// List handles GET /catalog. With ?q= it returns ranked search matches
// instead of the full list.
func (h *CatalogHandler) List(w http.ResponseWriter, r *http.Request) {
	c, err := h.svc.Catalog()
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}

	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusOK, newCatalogResponse(c))
		return
	}
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if limit, err = strconv.Atoi(raw); err != nil || limit < 0 {
			writeMessage(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
	}
	matches := c.Search(q, limit)
	if matches == nil {
		matches = []catalog.Match{}
	}
	writeJSON(w, http.StatusOK, searchResponse{Query: q, Matches: matches})
}

// Get handles GET /catalog/{code}.
func (h *CatalogHandler) Get(w http.ResponseWriter, r *http.Request) {
	c, err := h.svc.Catalog()
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	p, ok := c.Lookup(chi.URLParam(r, "code"))
	if !ok {
		writeMessage(w, http.StatusNotFound, "product not found")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// Upload handles POST /catalog with a multipart "file" field holding a CSV
// or XLSX sheet.
func (h *CatalogHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxCatalogUpload)
	file, header, err := r.FormFile("file")
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "multipart field \"file\" is required")
		return
	}
	defer file.Close()

	c, err := h.svc.ReplaceCatalog(header.Filename, file)
	if errors.Is(err, catalog.ErrCatalogLoad) {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newCatalogResponse(c))
}
