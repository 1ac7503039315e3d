package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/paulmach/orb"
)

// RouteSubscription represents a user's saved travel route and their alert
// preferences for it. Subscriptions are owned by the user and are read-only
// from the engine's perspective.
type RouteSubscription struct {
	ID                uuid.UUID      `json:"id"`
	UserID            uuid.UUID      `json:"user_id"`
	RouteName         string         `json:"route_name"`
	Route             orb.LineString `json:"route"`              // Ordered lon/lat points, at least 2.
	PushToken         string         `json:"push_token"`         // Opaque delivery token; empty disables dispatch.
	SeverityThreshold int            `json:"severity_threshold"` // Minimum hazard severity to alert on, 1..5.
	AlertEnabled      bool           `json:"alert_enabled"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
}
