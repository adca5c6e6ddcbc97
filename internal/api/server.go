// Package api serves the read-only admin HTTP surface: health, version,
// the last published strip state, a state change stream and metrics.
//
// It runs on its own port and goroutines and never touches the strip state
// owned by the main loop; everything it reports comes from the event bus.
package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"

	"github.com/smazurov/stripnode/internal/api/models"
	"github.com/smazurov/stripnode/internal/events"
	"github.com/smazurov/stripnode/internal/logging"
	"github.com/smazurov/stripnode/internal/strip"
	"github.com/smazurov/stripnode/internal/version"
)

// Subscriber is the part of the event bus the server listens on.
type Subscriber interface {
	Subscribe(handler any) func()
}

// Options configures the admin server.
type Options struct {
	Bus               Subscriber
	PrometheusHandler http.Handler // Optional Prometheus metrics handler
}

// Server is the admin API built on huma.
type Server struct {
	api        huma.API
	mux        *http.ServeMux
	httpServer *http.Server
	bus        Subscriber
	logger     *slog.Logger

	mu      sync.RWMutex
	last    events.StateChangedEvent
	hasLast bool
	unsub   func()
}

// NewServer builds the admin API and starts caching state events from the bus.
func NewServer(opts *Options) *Server {
	mux := http.NewServeMux()
	addPreflightHandler(mux)

	config := huma.DefaultConfig("stripnode admin API", version.Version)
	config.Info.Description = "Read-only status of an addressable LED strip controller"
	config.Servers = []*huma.Server{}

	api := humago.New(mux, config)
	api.UseMiddleware(CORSMiddleware)
	api.UseMiddleware(HTTPLoggingMiddleware)

	s := &Server{
		api:    api,
		mux:    mux,
		bus:    opts.Bus,
		logger: logging.GetLogger("api"),
	}
	s.unsub = s.bus.Subscribe(s.recordState)

	if opts.PrometheusHandler != nil {
		mux.Handle("GET /metrics", opts.PrometheusHandler)
	}

	s.registerRoutes()
	return s
}

func (s *Server) recordState(e events.StateChangedEvent) {
	s.mu.Lock()
	s.last = e
	s.hasLast = true
	s.mu.Unlock()
}

// lastState returns the most recent state event, if any was published.
func (s *Server) lastState() (events.StateChangedEvent, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.last, s.hasLast
}

// Handler returns the root handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Start listens on addr and blocks until Stop.
func (s *Server) Start(addr string) error {
	s.logger.Info("Starting admin API server", "addr", addr)
	s.logger.Info("OpenAPI documentation available", "url", "http://"+addr+"/docs")

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	if err := s.httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop closes the listener and open streams and drops the bus subscription.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Stopping admin API server")
	if s.unsub != nil {
		s.unsub()
	}
	if s.httpServer == nil {
		return nil
	}
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return s.httpServer.Close()
	}
	return nil
}

func (s *Server) registerRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "health-check",
		Method:      http.MethodGet,
		Path:        "/api/health",
		Summary:     "Health",
		Description: "Check API health status",
		Tags:        []string{"health"},
	}, func(_ context.Context, _ *struct{}) (*models.HealthResponse, error) {
		return &models.HealthResponse{
			Body: models.HealthData{
				Status:  "ok",
				Message: "API is healthy",
			},
		}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "get-version",
		Method:      http.MethodGet,
		Path:        "/api/version",
		Summary:     "Version",
		Description: "Get application version information",
		Tags:        []string{"system"},
	}, func(_ context.Context, _ *struct{}) (*models.VersionResponse, error) {
		info := version.Get()
		return &models.VersionResponse{
			Body: models.VersionData{
				Name:      info.Name,
				Version:   info.Version,
				GitCommit: info.GitCommit,
				BuildDate: info.BuildDate,
				GoVersion: info.GoVersion,
				Platform:  info.Platform,
			},
		}, nil
	})

	s.registerStripRoutes()
	s.registerSSERoutes()
}

func stripData(e events.StateChangedEvent) models.StripData {
	snap := e.State
	return models.StripData{
		Power:     snap.Power,
		Mode:      snap.Mode.Kind.String(),
		PeriodMs:  snap.Mode.Period.Milliseconds(),
		Color:     models.ColorData{R: snap.Color.R, G: snap.Color.G, B: snap.Color.B},
		Pixels:    snap.Pixels,
		Change:    e.Change,
		UpdatedAt: e.Timestamp,
	}
}

func modeInfos() []models.ModeInfo {
	kinds := strip.Kinds()
	out := make([]models.ModeInfo, len(kinds))
	for i, k := range kinds {
		out[i] = models.ModeInfo{Name: k.String(), Periodic: k.Periodic()}
	}
	return out
}
