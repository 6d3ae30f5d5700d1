package router_test

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/sureshodi/anandhaa/internal/catalog"
	"github.com/sureshodi/anandhaa/internal/config"
	"github.com/sureshodi/anandhaa/internal/router"
	"github.com/sureshodi/anandhaa/internal/service"
	"github.com/sureshodi/anandhaa/internal/session"
	"github.com/sureshodi/anandhaa/internal/snapshot"
	"github.com/sureshodi/anandhaa/internal/ws"
	"go.uber.org/zap"
)

func newServer(t *testing.T) http.Handler {
	t.Helper()
	dir := t.TempDir()
	catPath := filepath.Join(dir, "catalog.csv")
	if err := os.WriteFile(catPath, []byte("Product Code,Rate\nSP10E,12.50\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	store, err := snapshot.NewFileStore(dir)
	if err != nil {
		t.Fatal(err)
	}
	logger := zap.NewNop()
	hub := ws.NewHub(logger)
	go hub.Run()
	t.Cleanup(hub.Stop)

	sessions := session.NewManager(nil)
	svc := service.NewBillingService(sessions, catalog.NewLoader(catPath), store, hub, logger, service.Options{})
	cfg := &config.Config{CORSAllowedOrigins: []string{"http://localhost:5173"}}
	return router.New(cfg, svc, hub, sessions.Exists, logger)
}

func TestHealth(t *testing.T) {
	h := newServer(t)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rr.Code != http.StatusOK || rr.Body.String() != `{"status":"ok"}` {
		t.Errorf("health: %d %s", rr.Code, rr.Body)
	}
}

func TestRoutesMounted(t *testing.T) {
	h := newServer(t)
	tests := []struct {
		method, path string
		want         int
	}{
		{http.MethodGet, "/api/catalog", http.StatusOK},
		{http.MethodPost, "/api/sessions", http.StatusCreated},
		{http.MethodGet, "/api/snapshots", http.StatusOK},
		{http.MethodGet, "/api/stock", http.StatusNotFound},
		{http.MethodGet, "/ws/sessions/not-a-uuid", http.StatusBadRequest},
		{http.MethodGet, "/nope", http.StatusNotFound},
	}
	for _, tt := range tests {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(tt.method, tt.path, nil))
		if rr.Code != tt.want {
			t.Errorf("%s %s: got %d, want %d", tt.method, tt.path, rr.Code, tt.want)
		}
	}
}

func TestCORS(t *testing.T) {
	h := newServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/catalog", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Errorf("allowed origin: got %q", got)
	}

	req = httptest.NewRequest(http.MethodOptions, "/api/catalog", nil)
	req.Header.Set("Origin", "http://evil.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("foreign origin allowed: %q", got)
	}
}
