package entity

import (
	"time"

	"github.com/paulmach/orb"
)

// School is a static reference entity refreshed periodically from the city
// data portal. Schools are validation input only: they materialize SCHOOL
// hazards during peak windows and suppress nearby traffic candidates, but
// are never alerted on directly.
type School struct {
	SchoolID         string    `json:"school_id"` // Natural id from the upstream dataset.
	Name             string    `json:"name"`
	SchoolType       string    `json:"school_type"` // e.g. "Public", "Charter".
	Address          string    `json:"address"`
	Location         orb.Point `json:"location"`
	ZoneRadiusMeters float64   `json:"zone_radius_meters"`
	IsActive         bool      `json:"is_active"`
	UpdatedAt        time.Time `json:"updated_at"`
}
