// Package models holds the request and response bodies of the admin API.
package models

import "time"

// Health check models
type HealthData struct {
	Status  string `json:"status" example:"ok" doc:"Service status"`
	Message string `json:"message" example:"API is healthy" doc:"Status message"`
}

type HealthResponse struct {
	Body HealthData
}

type VersionData struct {
	Name      string `json:"name" example:"stripnode" doc:"Program name"`
	Version   string `json:"version" example:"dev" doc:"Application version"`
	GitCommit string `json:"git_commit" example:"abc1234" doc:"Git commit SHA"`
	BuildDate string `json:"build_date" example:"2024-12-15 14:30" doc:"Build timestamp"`
	GoVersion string `json:"go_version" example:"go1.21.0" doc:"Go compiler version"`
	Platform  string `json:"platform" example:"linux/arm64" doc:"Platform"`
}

type VersionResponse struct {
	Body VersionData
}

// Strip state models
type ColorData struct {
	R uint8 `json:"r" example:"36" doc:"Red channel"`
	G uint8 `json:"g" example:"113" doc:"Green channel"`
	B uint8 `json:"b" example:"255" doc:"Blue channel"`
}

type StripData struct {
	Power     bool      `json:"power" example:"true" doc:"Whether the strip is powered on"`
	Mode      string    `json:"mode" example:"SCANNER" doc:"Active animation mode"`
	PeriodMs  int64     `json:"period_ms,omitempty" example:"100" doc:"Mode period in milliseconds, for periodic modes"`
	Color     ColorData `json:"color" doc:"Base color"`
	Pixels    int       `json:"pixels" example:"60" doc:"Number of pixels on the strip"`
	Change    string    `json:"change" example:"mode" doc:"What changed last: boot, power, mode or color"`
	UpdatedAt time.Time `json:"updated_at" doc:"When the state last changed"`
}

// StreamReadyData opens an event stream when no strip state is known yet.
type StreamReadyData struct {
	Message string `json:"message" example:"waiting for strip state" doc:"Stream status"`
}

type StripResponse struct {
	Body StripData
}

type ModeInfo struct {
	Name     string `json:"name" example:"SCANNER" doc:"Mode name as accepted by PUT /strip/mode"`
	Periodic bool   `json:"periodic" example:"true" doc:"Whether the mode takes a period in milliseconds"`
}

type ModesData struct {
	Modes []ModeInfo `json:"modes" doc:"Every animation mode in registry order"`
}

type ModesResponse struct {
	Body ModesData
}
