// Package repository defines the interfaces for the persistence layer.
package repository

import (
	"context"

	"github.com/paulmach/orb"

	"airscout/internal/domain/entity"
	"airscout/internal/errors"
)

// Domain-specific errors for hazard persistence.
var (
	// ErrHazardNotFound is returned when a hazard is not found.
	ErrHazardNotFound = errors.New("hazard not found")
)

// HazardOrder selects the sort applied to route-matched hazards.
type HazardOrder int

const (
	// OrderByDistance sorts nearest first, severity breaking ties.
	// Used by the interactive route check.
	OrderByDistance HazardOrder = iota

	// OrderBySeverity sorts most severe first, distance breaking ties.
	// Used by the alert engine.
	OrderBySeverity
)

// RouteQuery describes one corridor lookup: the buffered route polygon, the
// route itself for distance measurement, and the filters applied in-store.
type RouteQuery struct {
	// Corridor is the buffered route polygon hazards must intersect.
	Corridor orb.Polygon

	// Route is the original polyline, used to compute per-hazard distance.
	Route orb.LineString

	// MinSeverity excludes hazards below this severity.
	MinSeverity int

	// ExcludeSourceIDs drops hazards already alerted within the cooldown.
	// Rendered SourceID form.
	ExcludeSourceIDs []string

	// Order selects the result sort.
	Order HazardOrder
}

// HazardRepository defines the interface for hazard-related database operations.
type HazardRepository interface {
	// UpsertHazard inserts a hazard or, when its source id already exists,
	// refreshes severity, location, description, metadata and expiry in place.
	UpsertHazard(ctx context.Context, hazard *entity.Hazard) error

	// FindHazardsAlongRoute performs a PostGIS corridor query: unexpired
	// hazards intersecting the corridor polygon, filtered and ordered per the
	// query, each annotated with its distance to the route.
	FindHazardsAlongRoute(ctx context.Context, query RouteQuery) ([]*entity.MatchedHazard, error)

	// FindActiveHazards retrieves all unexpired hazards, optionally filtered
	// by type. Used by the read API.
	FindActiveHazards(ctx context.Context, hazardType *entity.HazardType) ([]*entity.Hazard, error)

	// DeleteExpired removes hazards past their expiry and returns the count.
	DeleteExpired(ctx context.Context) (int64, error)

	// DeleteByType force-removes all hazards of one type regardless of
	// expiry. Used to clear school zone hazards outside peak windows.
	DeleteByType(ctx context.Context, hazardType entity.HazardType) (int64, error)
}
