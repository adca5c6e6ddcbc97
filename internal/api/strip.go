package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/smazurov/stripnode/internal/api/models"
)

// registerStripRoutes registers the strip status endpoints.
func (s *Server) registerStripRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "get-strip",
		Method:      http.MethodGet,
		Path:        "/api/strip",
		Summary:     "Strip state",
		Description: "Last strip state published by the control loop",
		Tags:        []string{"strip"},
		Errors:      []int{503},
	}, func(_ context.Context, _ *struct{}) (*models.StripResponse, error) {
		e, ok := s.lastState()
		if !ok {
			return nil, huma.Error503ServiceUnavailable("No strip state published yet")
		}
		return &models.StripResponse{Body: stripData(e)}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "list-modes",
		Method:      http.MethodGet,
		Path:        "/api/modes",
		Summary:     "Animation modes",
		Description: "Every animation mode and whether it takes a period",
		Tags:        []string{"strip"},
	}, func(_ context.Context, _ *struct{}) (*models.ModesResponse, error) {
		return &models.ModesResponse{Body: models.ModesData{Modes: modeInfos()}}, nil
	})
}
