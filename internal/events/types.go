package events

import (
	"time"

	"github.com/smazurov/stripnode/internal/strip"
)

// Event type constants for kelindar/event.
const (
	TypeStateChanged uint32 = iota + 1
	TypeRequestHandled
)

// Event interface required by kelindar/event.
type Event interface {
	Type() uint32
}

// Names for StateChangedEvent.Change.
const (
	ChangeBoot  = "boot"
	ChangePower = "power"
	ChangeMode  = "mode"
	ChangeColor = "color"
)

// StateChangedEvent carries the strip state after a mutation was applied.
type StateChangedEvent struct {
	Change    string
	State     strip.Snapshot
	Timestamp time.Time
}

// Type returns the event type identifier for StateChangedEvent.
func (e StateChangedEvent) Type() uint32 { return TypeStateChanged }

// RouteUnmatched is the Route of a RequestHandledEvent that hit no route.
const RouteUnmatched = "unmatched"

// RequestHandledEvent is published once per dispatched request.
type RequestHandledEvent struct {
	Method string
	Path   string
	// Route is "METHOD /path" for matched routes, RouteUnmatched otherwise.
	// It is bounded, so metrics can use it as a label.
	Route     string
	Status    int
	Timestamp time.Time
}

// Type returns the event type identifier for RequestHandledEvent.
func (e RequestHandledEvent) Type() uint32 { return TypeRequestHandled }
