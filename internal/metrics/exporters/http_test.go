package exporters

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/smazurov/stripnode/internal/metrics"
)

func TestHTTPHandler(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	handler := HTTPHandler(reg)
	if handler == nil {
		t.Fatal("expected non-nil handler")
	}

	// Set a metric so there's something to export
	m.ObserveTick(nil)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}

	body := w.Body.String()
	if !strings.Contains(body, "stripnode_ticks_total 1") {
		t.Errorf("expected tick counter in response, got:\n%s", body)
	}
}
