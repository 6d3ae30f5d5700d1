package handler

import (
	"bytes"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sureshodi/anandhaa/internal/enum"
	"github.com/sureshodi/anandhaa/internal/stock"
	"go.uber.org/zap"
)

// StockServicer exposes the stock sheet.
type StockServicer interface {
	Stock() (*stock.Sheet, error)
}

// StockHandler serves stock levels and sheet exports.
type StockHandler struct {
	svc    StockServicer
	logger *zap.Logger
}

// NewStockHandler creates a new StockHandler.
func NewStockHandler(svc StockServicer, logger *zap.Logger) *StockHandler {
	return &StockHandler{svc: svc, logger: logger}
}

// RegisterRoutes registers stock endpoints. Mounted at /api/stock.
func (h *StockHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.Get)
	r.Get("/{code}", h.Levels)
}

// Get handles GET /stock?format=json|csv|xlsx.
func (h *StockHandler) Get(w http.ResponseWriter, r *http.Request) {
	sheet, err := h.svc.Stock()
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}

	var buf bytes.Buffer
	switch format := r.URL.Query().Get("format"); format {
	case "", enum.FormatJSON:
		writeJSON(w, http.StatusOK, map[string]interface{}{"stock": sheet.All()})
		return
	case enum.ExportCSV:
		err = sheet.WriteCSV(&buf)
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	case enum.ExportXLSX:
		err = sheet.WriteXLSX(&buf)
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	default:
		writeMessage(w, http.StatusBadRequest, "format must be json, csv or xlsx")
		return
	}
	if err != nil {
		w.Header().Del("Content-Type")
		writeError(w, h.logger, r, err)
		return
	}
	w.Header().Set("Content-Disposition", `attachment; filename="stock.`+r.URL.Query().Get("format")+`"`)
	w.Write(buf.Bytes()) //nolint:errcheck
}

// Levels handles GET /stock/{code}.
func (h *StockHandler) Levels(w http.ResponseWriter, r *http.Request) {
	sheet, err := h.svc.Stock()
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	lv, ok := sheet.Levels(chi.URLParam(r, "code"))
	if !ok {
		writeMessage(w, http.StatusNotFound, "product not tracked")
		return
	}
	writeJSON(w, http.StatusOK, lv)
}
