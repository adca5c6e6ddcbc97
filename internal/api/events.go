package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/sse"

	"github.com/smazurov/stripnode/internal/api/models"
	"github.com/smazurov/stripnode/internal/events"
)

// registerSSERoutes registers the strip state change stream.
func (s *Server) registerSSERoutes() {
	sse.Register(s.api, huma.Operation{
		OperationID: "events-stream",
		Method:      http.MethodGet,
		Path:        "/api/events",
		Summary:     "Server-Sent Events Stream",
		Description: "Strip state changes as they are applied by the control loop",
		Tags:        []string{"events"},
	}, map[string]any{
		"state-changed": models.StripData{},
		"ready":         models.StreamReadyData{},
	}, func(ctx context.Context, _ *struct{}, send sse.Sender) {
		eventCh := make(chan events.StateChangedEvent, 10)

		unsubscribe := s.bus.Subscribe(func(e events.StateChangedEvent) {
			// Drop events for a client that stopped reading.
			select {
			case eventCh <- e:
			default:
			}
		})
		defer unsubscribe()

		// Start every stream with the current state. Before the boot snapshot
		// a ready event goes out instead so the client gets headers at once.
		var first any = models.StreamReadyData{Message: "waiting for strip state"}
		if e, ok := s.lastState(); ok {
			first = stripData(e)
		}
		if err := send.Data(first); err != nil {
			return
		}

		for {
			select {
			case <-ctx.Done():
				return
			case e := <-eventCh:
				if err := send.Data(stripData(e)); err != nil {
					return
				}
			}
		}
	})
}
