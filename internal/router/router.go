// Package router maps parsed control-port requests onto strip state.
package router

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/smazurov/stripnode/internal/events"
	"github.com/smazurov/stripnode/internal/logging"
	"github.com/smazurov/stripnode/internal/strip"
	"github.com/smazurov/stripnode/internal/wire"
)

// ErrNotFound means no route matched the request's method and path.
var ErrNotFound = errors.New("not found")

// Publisher receives state and request notifications. *events.Bus satisfies it.
type Publisher interface {
	Publish(ev events.Event)
}

// HandlerFunc serves one matched request. A returned error is turned into an
// error response by the router.
type HandlerFunc func(req *wire.Request) (wire.Response, error)

type routeKey struct {
	method string
	path   string
}

// Router dispatches requests by exact (method, path) match.
type Router struct {
	state  *strip.State
	bus    Publisher
	logger logging.Logger
	routes map[routeKey]HandlerFunc
	now    func() time.Time
}

// New builds a router over state with the control routes registered.
// bus may be nil.
func New(state *strip.State, bus Publisher, logger logging.Logger) *Router {
	if logger == nil {
		logger = logging.Discard()
	}
	r := &Router{
		state:  state,
		bus:    bus,
		logger: logger,
		routes: make(map[routeKey]HandlerFunc),
		now:    time.Now,
	}
	r.registerRoutes()
	return r
}

// Handle registers h for an exact method and path.
func (r *Router) Handle(method, path string, h HandlerFunc) {
	r.routes[routeKey{method: method, path: path}] = h
}

// Routes lists the registered routes as "METHOD /path", sorted.
func (r *Router) Routes() []string {
	out := make([]string, 0, len(r.routes))
	for k := range r.routes {
		out = append(out, routeName(k))
	}
	sort.Strings(out)
	return out
}

// Dispatch runs the handler for req and always produces a response. It does
// no I/O of its own.
func (r *Router) Dispatch(req *wire.Request) wire.Response {
	key := routeKey{method: req.Method, path: req.Path}
	h, ok := r.routes[key]

	var (
		resp wire.Response
		err  error
	)
	if ok {
		resp, err = h(req)
	} else {
		err = fmt.Errorf("%w: %s %s", ErrNotFound, req.Method, req.Path)
	}
	if err != nil {
		resp = ErrorResponse(err)
		r.logger.Debug("Request rejected", "method", req.Method, "path", req.Path, "status", resp.Status, "error", err)
	} else {
		r.logger.Debug("Request handled", "method", req.Method, "path", req.Path, "status", resp.Status)
	}

	route := events.RouteUnmatched
	if ok {
		route = routeName(key)
	}
	r.publish(events.RequestHandledEvent{
		Method:    req.Method,
		Path:      req.Path,
		Route:     route,
		Status:    resp.Status,
		Timestamp: r.now(),
	})
	return resp
}

func (r *Router) publish(ev events.Event) {
	if r.bus != nil {
		r.bus.Publish(ev)
	}
}

func (r *Router) stateChanged(change string) {
	r.publish(events.StateChangedEvent{
		Change:    change,
		State:     r.state.Snapshot(),
		Timestamp: r.now(),
	})
}

func routeName(k routeKey) string {
	return k.method + " " + k.path
}

// StatusFor maps an error from the parser, router or strip packages to an
// HTTP status code.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, wire.ErrRequestTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, wire.ErrMalformedRequest),
		errors.Is(err, strip.ErrInvalidMode),
		errors.Is(err, strip.ErrMissingParameter),
		errors.Is(err, strip.ErrInvalidBody):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// ErrorResponse renders err as a plain-text "<status text>: <detail>" response.
func ErrorResponse(err error) wire.Response {
	status := StatusFor(err)
	return wire.Text(status, http.StatusText(status)+": "+err.Error())
}
