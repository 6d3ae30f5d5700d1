package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/sureshodi/anandhaa/internal/enum"
	"github.com/sureshodi/anandhaa/internal/invoice"
	"github.com/sureshodi/anandhaa/internal/ledger"
	"github.com/sureshodi/anandhaa/internal/service"
	"github.com/sureshodi/anandhaa/internal/session"
	"github.com/sureshodi/anandhaa/internal/snapshot"
	"go.uber.org/zap"
)

// SessionServicer defines the service methods needed by session handlers.
// Satisfied by *service.BillingService.
type SessionServicer interface {
	NewSession() (session.View, error)
	DeleteSession(id uuid.UUID) error
	View(id uuid.UUID) (session.View, error)
	AddItem(id uuid.UUID, code string, quantity int) (session.View, error)
	RemoveItem(id uuid.UUID, position int) (session.View, error)
	ClearItems(id uuid.UUID) (session.View, error)
	SetCustomer(id uuid.UUID, c session.Customer) (session.View, error)
	SetAdjustments(id uuid.UUID, discount, pkg string) (session.View, error)
	GenerateInvoice(id uuid.UUID, render func(invoice.Document) error) (*service.InvoiceResult, error)
	Snapshot(id uuid.UUID) (session.Snapshot, error)
	Restore(id uuid.UUID, snap session.Snapshot) (session.View, error)
	SaveSnapshot(ctx context.Context, id uuid.UUID, name string) (snapshot.Entry, error)
	LoadSnapshot(ctx context.Context, id uuid.UUID, name string) (session.View, error)
}

// SessionHandler handles the operator form's session endpoints.
type SessionHandler struct {
	svc    SessionServicer
	logger *zap.Logger
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(svc SessionServicer, logger *zap.Logger) *SessionHandler {
	return &SessionHandler{svc: svc, logger: logger}
}

// RegisterRoutes registers session endpoints. Mounted at /api/sessions.
func (h *SessionHandler) RegisterRoutes(r chi.Router) {
	r.Post("/", h.Create)
	r.Route("/{sid}", func(r chi.Router) {
		r.Get("/", h.Get)
		r.Delete("/", h.Delete)
		r.Put("/customer", h.SetCustomer)
		r.Put("/adjustments", h.SetAdjustments)
		r.Post("/items", h.AddItem)
		r.Delete("/items", h.ClearItems)
		r.Delete("/items/{pos}", h.RemoveItem)
		r.Post("/invoice", h.GenerateInvoice)
		r.Get("/snapshot", h.ExportSnapshot)
		r.Put("/snapshot", h.ImportSnapshot)
		r.Post("/snapshots/{name}", h.SaveSnapshot)
		r.Post("/snapshots/{name}/load", h.LoadSnapshot)
	})
}

// --- Request types ---

type customerRequest struct {
	Name    string `json:"name"`
	Mobile  string `json:"mobile"`
	Address string `json:"address"`
}

type adjustmentsRequest struct {
	DiscountPercent formValue `json:"discount_percent"`
	PackagePercent  formValue `json:"package_percent"`
}

type addItemRequest struct {
	ProductCode string    `json:"product_code"`
	Quantity    formValue `json:"quantity"`
}

// --- Handlers ---

// Create handles POST /sessions.
func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	v, err := h.svc.NewSession()
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, newViewResponse(v))
}

// Get handles GET /sessions/{sid}.
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	h.withSession(w, r, h.svc.View)
}

// Delete handles DELETE /sessions/{sid}.
func (h *SessionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(r)
	if !ok {
		writeMessage(w, http.StatusBadRequest, "invalid session ID")
		return
	}
	if err := h.svc.DeleteSession(id); err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SetCustomer handles PUT /sessions/{sid}/customer.
func (h *SessionHandler) SetCustomer(w http.ResponseWriter, r *http.Request) {
	var req customerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	h.withSession(w, r, func(id uuid.UUID) (session.View, error) {
		return h.svc.SetCustomer(id, session.Customer{Name: req.Name, Mobile: req.Mobile, Address: req.Address})
	})
}

// SetAdjustments handles PUT /sessions/{sid}/adjustments.
func (h *SessionHandler) SetAdjustments(w http.ResponseWriter, r *http.Request) {
	var req adjustmentsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	h.withSession(w, r, func(id uuid.UUID) (session.View, error) {
		return h.svc.SetAdjustments(id, string(req.DiscountPercent), string(req.PackagePercent))
	})
}

// AddItem handles POST /sessions/{sid}/items.
func (h *SessionHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	h.withSession(w, r, func(id uuid.UUID) (session.View, error) {
		qty, err := ledger.ParseQuantity(string(req.Quantity))
		if err != nil {
			return session.View{}, err
		}
		return h.svc.AddItem(id, req.ProductCode, qty)
	})
}

// RemoveItem handles DELETE /sessions/{sid}/items/{pos}. A stale position
// gets 409 with the current ledger so the form can redraw.
func (h *SessionHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(r)
	if !ok {
		writeMessage(w, http.StatusBadRequest, "invalid session ID")
		return
	}
	pos, ok := positionParam(r)
	if !ok {
		writeMessage(w, http.StatusBadRequest, "invalid position")
		return
	}
	v, err := h.svc.RemoveItem(id, pos)
	if errors.Is(err, ledger.ErrIndexOutOfRange) {
		current, verr := h.svc.View(id)
		if verr != nil {
			writeError(w, h.logger, r, verr)
			return
		}
		writeJSON(w, http.StatusConflict, map[string]interface{}{
			"error":   err.Error(),
			"session": newViewResponse(current),
		})
		return
	}
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newViewResponse(v))
}

// ClearItems handles DELETE /sessions/{sid}/items.
func (h *SessionHandler) ClearItems(w http.ResponseWriter, r *http.Request) {
	h.withSession(w, r, h.svc.ClearItems)
}

// GenerateInvoice handles POST /sessions/{sid}/invoice?format=json|text|pdf.
// The invoice is rendered before the ledger is cleared, so a rendering
// failure leaves the session untouched.
func (h *SessionHandler) GenerateInvoice(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(r)
	if !ok {
		writeMessage(w, http.StatusBadRequest, "invalid session ID")
		return
	}
	format := r.URL.Query().Get("format")
	if format == "" {
		format = enum.FormatJSON
	}

	var buf bytes.Buffer
	var render func(invoice.Document) error
	var contentType string
	switch format {
	case enum.FormatJSON:
	case enum.FormatText:
		render = func(d invoice.Document) error { return invoice.RenderText(&buf, d) }
		contentType = "text/plain; charset=utf-8"
	case enum.FormatPDF:
		render = func(d invoice.Document) error { return invoice.RenderPDF(&buf, d) }
		contentType = "application/pdf"
	default:
		writeMessage(w, http.StatusBadRequest, "format must be json, text or pdf")
		return
	}

	res, err := h.svc.GenerateInvoice(id, render)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	if render == nil {
		writeJSON(w, http.StatusCreated, res)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("X-Invoice-Number", res.Document.Number)
	if format == enum.FormatPDF {
		w.Header().Set("Content-Disposition", `attachment; filename="`+res.Document.Number+`.pdf"`)
	}
	w.WriteHeader(http.StatusCreated)
	w.Write(buf.Bytes()) //nolint:errcheck
}

// ExportSnapshot handles GET /sessions/{sid}/snapshot.
func (h *SessionHandler) ExportSnapshot(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(r)
	if !ok {
		writeMessage(w, http.StatusBadRequest, "invalid session ID")
		return
	}
	snap, err := h.svc.Snapshot(id)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	var buf bytes.Buffer
	if err := session.EncodeSnapshot(&buf, snap); err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="session-`+id.String()+`.json"`)
	w.Write(buf.Bytes()) //nolint:errcheck
}

// ImportSnapshot handles PUT /sessions/{sid}/snapshot.
func (h *SessionHandler) ImportSnapshot(w http.ResponseWriter, r *http.Request) {
	snap, err := session.DecodeSnapshot(http.MaxBytesReader(w, r.Body, maxSnapshotBytes))
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	h.withSession(w, r, func(id uuid.UUID) (session.View, error) {
		return h.svc.Restore(id, snap)
	})
}

// SaveSnapshot handles POST /sessions/{sid}/snapshots/{name}.
func (h *SessionHandler) SaveSnapshot(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(r)
	if !ok {
		writeMessage(w, http.StatusBadRequest, "invalid session ID")
		return
	}
	entry, err := h.svc.SaveSnapshot(r.Context(), id, chi.URLParam(r, "name"))
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}

// LoadSnapshot handles POST /sessions/{sid}/snapshots/{name}/load.
func (h *SessionHandler) LoadSnapshot(w http.ResponseWriter, r *http.Request) {
	h.withSession(w, r, func(id uuid.UUID) (session.View, error) {
		return h.svc.LoadSnapshot(r.Context(), id, chi.URLParam(r, "name"))
	})
}

const maxSnapshotBytes = 4 << 20

// withSession parses {sid}, runs fn and writes the resulting view.
func (h *SessionHandler) withSession(w http.ResponseWriter, r *http.Request, fn func(uuid.UUID) (session.View, error)) {
	id, ok := sessionID(r)
	if !ok {
		writeMessage(w, http.StatusBadRequest, "invalid session ID")
		return
	}
	v, err := fn(id)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newViewResponse(v))
}
