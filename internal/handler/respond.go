package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/sureshodi/anandhaa/internal/catalog"
	"github.com/sureshodi/anandhaa/internal/ledger"
	"github.com/sureshodi/anandhaa/internal/service"
	"github.com/sureshodi/anandhaa/internal/session"
	"github.com/sureshodi/anandhaa/internal/snapshot"
	"github.com/sureshodi/anandhaa/internal/totals"
	"go.uber.org/zap"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // client went away
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// isValidationError reports errors caused by operator input.
func isValidationError(err error) bool {
	return errors.Is(err, ledger.ErrInvalidQuantity) ||
		errors.Is(err, totals.ErrInvalidPercent) ||
		errors.Is(err, service.ErrCustomerRequired) ||
		errors.Is(err, session.ErrEmptyLedger) ||
		errors.Is(err, session.ErrBadSnapshot) ||
		errors.Is(err, snapshot.ErrInvalidName)
}

func isNotFound(err error) bool {
	return errors.Is(err, ledger.ErrUnknownProduct) ||
		errors.Is(err, session.ErrSessionNotFound) ||
		errors.Is(err, snapshot.ErrNotFound) ||
		errors.Is(err, service.ErrStockDisabled)
}

// writeError maps a service error to a status and logs it.
func writeError(w http.ResponseWriter, logger *zap.Logger, r *http.Request, err error) {
	var status int
	switch {
	case isValidationError(err):
		status = http.StatusUnprocessableEntity
	case isNotFound(err):
		status = http.StatusNotFound
	case errors.Is(err, ledger.ErrIndexOutOfRange):
		status = http.StatusConflict
	case errors.Is(err, catalog.ErrCatalogLoad):
		status = http.StatusServiceUnavailable
	default:
		logger.Error("request failed", zap.String("method", r.Method), zap.String("path", r.URL.Path), zap.Error(err))
		writeMessage(w, http.StatusInternalServerError, "internal server error")
		return
	}
	logger.Debug("request rejected", zap.String("path", r.URL.Path), zap.Int("status", status), zap.Error(err))
	writeMessage(w, status, err.Error())
}

// viewResponse is a session view plus its totals rounded for display.
type viewResponse struct {
	session.View
	Display displayTotals `json:"display"`
}

type displayTotals struct {
	SubTotal        string `json:"sub_total"`
	DiscountValue   string `json:"discount_value"`
	DiscountedTotal string `json:"discounted_total"`
	PackageAmount   string `json:"package_amount"`
	GrandTotal      string `json:"grand_total"`
}

func newViewResponse(v session.View) viewResponse {
	b := v.Totals
	return viewResponse{
		View: v,
		Display: displayTotals{
			SubTotal:        totals.Money(b.SubTotal),
			DiscountValue:   totals.Money(b.DiscountValue),
			DiscountedTotal: totals.Money(b.DiscountedTotal),
			PackageAmount:   totals.Money(b.PackageAmount),
			GrandTotal:      totals.Money(b.GrandTotal),
		},
	}
}

func sessionID(r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "sid"))
	return id, err == nil
}

// formValue accepts a JSON string or number, so the form can post either
// "4" or 4.
type formValue string

func (f *formValue) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = formValue(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = formValue(n.String())
	return nil
}

func positionParam(r *http.Request) (int, bool) {
	n, err := strconv.Atoi(chi.URLParam(r, "pos"))
	return n, err == nil
}
