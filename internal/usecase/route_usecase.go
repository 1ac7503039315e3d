// Package usecase defines the application service interfaces.
package usecase

import (
	"context"
	"time"

	"github.com/paulmach/orb"

	"airscout/internal/domain/entity"
	"airscout/internal/domain/risk"
)

// CheckRouteInput is the route check request after transport-level decoding.
type CheckRouteInput struct {
	// Route is the ordered lon/lat polyline, at least 2 points.
	Route orb.LineString

	// BufferMeters overrides the corridor half-width; 0 uses the default.
	BufferMeters float64

	// MinSeverity filters hazards below this severity; 0 means no filter.
	MinSeverity int
}

// RouteAssessment is the full route check response.
type RouteAssessment struct {
	CheckedAt     time.Time               `json:"checked_at"`
	BufferMeters  float64                 `json:"buffer_meters"`
	RouteLengthKM float64                 `json:"route_length_km"`
	Risk          risk.Assessment         `json:"risk_assessment"`
	Hazards       []*entity.MatchedHazard `json:"hazards"`
}

// RouteUsecase defines the interactive route checking surface.
type RouteUsecase interface {
	// CheckRoute buffers the route, collects intersecting unexpired hazards
	// nearest-first and scores the result.
	CheckRoute(ctx context.Context, input CheckRouteInput) (*RouteAssessment, error)

	// ListActiveHazards returns all unexpired hazards, optionally filtered
	// by type.
	ListActiveHazards(ctx context.Context, hazardType *entity.HazardType) ([]*entity.Hazard, error)
}
