package router

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/smazurov/stripnode/internal/events"
	"github.com/smazurov/stripnode/internal/strip"
	"github.com/smazurov/stripnode/internal/wire"
)

type recordingBus struct {
	events []events.Event
}

func (b *recordingBus) Publish(ev events.Event) {
	b.events = append(b.events, ev)
}

func newTestRouter(t *testing.T) (*Router, *strip.State, *recordingBus) {
	t.Helper()
	state, err := strip.NewState(8, strip.DefaultDefaults())
	if err != nil {
		t.Fatalf("NewState: %v", err)
	}
	bus := &recordingBus{}
	return New(state, bus, nil), state, bus
}

func do(r *Router, method, path, body string) wire.Response {
	return r.Dispatch(&wire.Request{Method: method, Path: path, Body: []byte(body)})
}

func TestScenario(t *testing.T) {
	r, _, _ := newTestRouter(t)

	steps := []struct {
		method string
		path   string
		body   string
		status int
		want   string
	}{
		{"PUT", "/strip/mode", "SCANNER 100", http.StatusOK, ""},
		{"GET", "/strip/mode", "", http.StatusOK, "SCANNER"},
		{"PUT", "/strip/color", `{"r":36,"g":113,"b":255}`, http.StatusOK, ""},
		{"GET", "/strip/color", "", http.StatusOK, `{"r":36,"g":113,"b":255}`},
		{"PUT", "/strip/status/on", "", http.StatusOK, ""},
		{"GET", "/strip/status", "", http.StatusOK, "ON"},
		{"GET", "/nonexistent", "", http.StatusNotFound, ""},
	}

	for _, s := range steps {
		resp := do(r, s.method, s.path, s.body)
		if resp.Status != s.status {
			t.Fatalf("%s %s: status %d, want %d (body %q)", s.method, s.path, resp.Status, s.status, resp.Body)
		}
		if s.want != "" && string(resp.Body) != s.want {
			t.Errorf("%s %s: body %q, want %q", s.method, s.path, resp.Body, s.want)
		}
		if s.status == http.StatusOK && s.method == "PUT" && len(resp.Body) != 0 {
			t.Errorf("%s %s: mutation returned body %q", s.method, s.path, resp.Body)
		}
	}
}

func TestReadRoutes(t *testing.T) {
	r, state, _ := newTestRouter(t)

	tests := []struct {
		path        string
		want        string
		contentType string
	}{
		{"/", Greeting, wire.ContentTypeText},
		{"/strip/status", "OFF", wire.ContentTypeText},
		{"/strip/modes", "OFF,STATIC,SCANNER,BLINK,BREATHE,RAINBOW", wire.ContentTypeText},
		{"/strip/mode", "STATIC", wire.ContentTypeText},
		{"/strip/color", `{"r":255,"g":255,"b":255}`, wire.ContentTypeJSON},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			resp := do(r, "GET", tt.path, "")
			if resp.Status != http.StatusOK {
				t.Fatalf("status = %d", resp.Status)
			}
			if string(resp.Body) != tt.want {
				t.Errorf("body = %q, want %q", resp.Body, tt.want)
			}
			if resp.ContentType != tt.contentType {
				t.Errorf("content type = %q, want %q", resp.ContentType, tt.contentType)
			}
		})
	}

	if state.Snapshot() != (strip.Snapshot{Mode: strip.Mode{Kind: strip.Static}, Color: strip.White, Pixels: 8}) {
		t.Errorf("reads mutated state: %+v", state.Snapshot())
	}
}

func TestColorRoundTrip(t *testing.T) {
	r, _, _ := newTestRouter(t)

	for _, c := range []strip.Color{{}, {R: 255, G: 255, B: 255}, {R: 1, G: 2, B: 3}, {R: 36, G: 113, B: 255}, {R: 128}} {
		body := fmt.Sprintf(`{"r":%d,"g":%d,"b":%d}`, c.R, c.G, c.B)
		if resp := do(r, "PUT", "/strip/color", body); resp.Status != http.StatusOK {
			t.Fatalf("PUT %s: status %d", body, resp.Status)
		}
		if got := do(r, "GET", "/strip/color", ""); string(got.Body) != body {
			t.Errorf("GET after PUT %s = %s", body, got.Body)
		}
	}
}

func TestInvalidModeLeavesStateUnchanged(t *testing.T) {
	r, state, bus := newTestRouter(t)
	do(r, "PUT", "/strip/mode", "BLINK 300")
	before := state.Snapshot()
	epoch := state.Epoch()
	published := len(bus.events)

	for _, body := range []string{"DISCO", "SCANNERX 100", "", "rainbo 5", "OFF OFF OFF"} {
		resp := do(r, "PUT", "/strip/mode", body)
		if resp.Status != http.StatusBadRequest {
			t.Errorf("PUT mode %q: status %d, want 400", body, resp.Status)
		}
		if !strings.HasPrefix(string(resp.Body), "Bad Request: invalid mode") {
			t.Errorf("PUT mode %q: body %q", body, resp.Body)
		}
	}

	if state.Snapshot() != before || state.Epoch() != epoch {
		t.Errorf("state changed: %+v -> %+v", before, state.Snapshot())
	}
	for _, ev := range bus.events[published:] {
		if _, ok := ev.(events.StateChangedEvent); ok {
			t.Errorf("unexpected state event %+v", ev)
		}
	}
}

func TestModeErrors(t *testing.T) {
	r, state, _ := newTestRouter(t)

	tests := []struct {
		body string
		want error
	}{
		{"SCANNER", strip.ErrMissingParameter},
		{"SCANNER 0", strip.ErrMissingParameter},
		{"SCANNER -5", strip.ErrMissingParameter},
		{"BREATHE soon", strip.ErrMissingParameter},
		{"UNKNOWN 100", strip.ErrInvalidMode},
	}
	for _, tt := range tests {
		resp := do(r, "PUT", "/strip/mode", tt.body)
		if resp.Status != StatusFor(tt.want) {
			t.Errorf("PUT mode %q: status %d", tt.body, resp.Status)
		}
		if !strings.Contains(string(resp.Body), tt.want.Error()) {
			t.Errorf("PUT mode %q: body %q does not mention %q", tt.body, resp.Body, tt.want)
		}
	}
	if state.Mode().Kind != strip.Static {
		t.Errorf("mode changed to %s", state.Mode())
	}

	// Case-insensitive names, period ignored for non-periodic modes.
	if resp := do(r, "PUT", "/strip/mode", "static 40"); resp.Status != http.StatusOK {
		t.Errorf("PUT static 40: status %d", resp.Status)
	}
	if resp := do(r, "PUT", "/strip/mode", "rainbow 2000\n"); resp.Status != http.StatusOK {
		t.Errorf("PUT rainbow: status %d", resp.Status)
	}
	if got := state.Mode().String(); got != "RAINBOW 2000" {
		t.Errorf("mode = %q", got)
	}
}

func TestColorErrors(t *testing.T) {
	r, state, _ := newTestRouter(t)

	for _, body := range []string{
		``,
		`{"r":1,"g":2}`,
		`{"r":256,"g":0,"b":0}`,
		`{"r":-1,"g":0,"b":0}`,
		`{"r":1.5,"g":0,"b":0}`,
		`{"r":"1","g":0,"b":0}`,
		`[1,2,3]`,
	} {
		resp := do(r, "PUT", "/strip/color", body)
		if resp.Status != http.StatusBadRequest {
			t.Errorf("PUT color %q: status %d, want 400", body, resp.Status)
		}
	}
	if state.Color() != strip.White {
		t.Errorf("color changed to %s", state.Color())
	}
}

func TestModesStateIndependent(t *testing.T) {
	r, _, _ := newTestRouter(t)
	want := string(do(r, "GET", "/strip/modes", "").Body)

	for _, m := range []string{"PUT /strip/status/on", "PUT /strip/mode", "PUT /strip/color", "PUT /strip/status/off"} {
		method, path, _ := strings.Cut(m, " ")
		body := map[string]string{"/strip/mode": "SCANNER 20", "/strip/color": `{"r":0,"g":0,"b":9}`}[path]
		do(r, method, path, body)
		if got := string(do(r, "GET", "/strip/modes", "").Body); got != want {
			t.Errorf("after %s modes = %q, want %q", m, got, want)
		}
	}
}

func TestNotFound(t *testing.T) {
	r, _, bus := newTestRouter(t)

	tests := []struct{ method, path string }{
		{"GET", "/nonexistent"},
		{"PUT", "/strip/status"},
		{"POST", "/strip/mode"},
		{"DELETE", "/"},
		{"GET", "/strip/mode/"},
		{"GET", "/STRIP/MODE"},
	}
	for _, tt := range tests {
		resp := do(r, tt.method, tt.path, "")
		if resp.Status != http.StatusNotFound {
			t.Errorf("%s %s: status %d, want 404", tt.method, tt.path, resp.Status)
		}
	}

	for _, ev := range bus.events {
		req, ok := ev.(events.RequestHandledEvent)
		if !ok || req.Route != events.RouteUnmatched || req.Status != http.StatusNotFound {
			t.Errorf("unexpected event %+v", ev)
		}
	}
	if len(bus.events) != len(tests) {
		t.Errorf("published %d events, want %d", len(bus.events), len(tests))
	}
}

func TestPublishesEvents(t *testing.T) {
	r, _, bus := newTestRouter(t)

	do(r, "PUT", "/strip/status/on", "")
	if len(bus.events) != 2 {
		t.Fatalf("published %d events, want 2", len(bus.events))
	}
	changed, ok := bus.events[0].(events.StateChangedEvent)
	if !ok || changed.Change != events.ChangePower || !changed.State.Power {
		t.Errorf("first event = %+v", bus.events[0])
	}
	handled, ok := bus.events[1].(events.RequestHandledEvent)
	if !ok || handled.Route != "PUT /strip/status/on" || handled.Status != http.StatusOK {
		t.Errorf("second event = %+v", bus.events[1])
	}
}

func TestRoutes(t *testing.T) {
	r, _, _ := newTestRouter(t)
	routes := r.Routes()
	if len(routes) != 9 {
		t.Fatalf("got %d routes: %v", len(routes), routes)
	}
	if routes[0] != "GET /" {
		t.Errorf("first route = %q", routes[0])
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("x: %w", wire.ErrMalformedRequest), http.StatusBadRequest},
		{wire.ErrRequestTooLarge, http.StatusRequestEntityTooLarge},
		{ErrNotFound, http.StatusNotFound},
		{strip.ErrInvalidMode, http.StatusBadRequest},
		{strip.ErrMissingParameter, http.StatusBadRequest},
		{strip.ErrInvalidBody, http.StatusBadRequest},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := StatusFor(tt.err); got != tt.want {
			t.Errorf("StatusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}

	resp := ErrorResponse(fmt.Errorf("%w: path exceeds 128 bytes", wire.ErrRequestTooLarge))
	if string(resp.Body) != "Request Entity Too Large: request too large: path exceeds 128 bytes" {
		t.Errorf("ErrorResponse body = %q", resp.Body)
	}
}
