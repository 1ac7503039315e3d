// Package entity contains the core business objects of the project.
package entity

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/paulmach/orb"

	"airscout/internal/errors"
)

// HazardType identifies the origin signal class of a hazard.
type HazardType string

const (
	HazardTypePermit  HazardType = "PERMIT"  // validated demolition/wrecking permit
	HazardTypeTraffic HazardType = "TRAFFIC" // congested traffic segment
	HazardTypeSchool  HazardType = "SCHOOL"  // school zone during peak hours
)

// Valid reports whether t is one of the known hazard types.
func (t HazardType) Valid() bool {
	switch t {
	case HazardTypePermit, HazardTypeTraffic, HazardTypeSchool:
		return true
	}

	return false
}

// SourceID is the typed identity of a hazard: the signal class plus the
// natural identifier from the origin dataset (permit number, segment id,
// school id). It renders as "PERMIT-<n>" / "TRAFFIC-<id>" / "SCHOOL-<id>"
// for storage, but carries the two parts separately so the type tag never
// has to be re-parsed out of an opaque string.
type SourceID struct {
	Type      HazardType `json:"type"`
	NaturalID string     `json:"natural_id"`
}

// NewSourceID builds a SourceID from a hazard type and a natural identifier.
func NewSourceID(t HazardType, naturalID string) SourceID {
	return SourceID{Type: t, NaturalID: naturalID}
}

// String renders the storage form, e.g. "PERMIT-100778555".
func (s SourceID) String() string {
	return string(s.Type) + "-" + s.NaturalID
}

// IsZero reports whether the SourceID is unset.
func (s SourceID) IsZero() bool {
	return s.Type == "" && s.NaturalID == ""
}

// ParseSourceID parses the storage form back into a typed key. The natural
// identifier may itself contain dashes; only the leading type tag is split off.
func ParseSourceID(raw string) (SourceID, error) {
	tag, rest, found := strings.Cut(raw, "-")
	if !found || rest == "" {
		return SourceID{}, errors.Errorf("malformed hazard source id: %q", raw)
	}

	t := HazardType(tag)
	if !t.Valid() {
		return SourceID{}, errors.Errorf("unknown hazard type tag in source id: %q", raw)
	}

	return SourceID{Type: t, NaturalID: rest}, nil
}

// Hazard represents a validated, geolocated, time-bounded risk record.
// Hazards are keyed by SourceID: re-ingesting the same signal updates the
// existing row in place and extends ExpiresAt, it never duplicates.
type Hazard struct {
	ID          uuid.UUID      `json:"id"`          // Surrogate row identifier.
	Source      SourceID       `json:"source_id"`   // Stable identity of the origin signal.
	Severity    int            `json:"severity"`    // 1 (minor) .. 5 (severe).
	Location    orb.Point      `json:"location"`    // Geographic lon/lat.
	Description string         `json:"description"` // Human-readable summary.
	Metadata    map[string]any `json:"metadata"`    // Type-specific attributes.
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	ExpiresAt   time.Time      `json:"expires_at"` // Past this instant the hazard is logically dead.
}

// Expired reports whether the hazard is logically dead at the given instant.
// Expired hazards must be excluded from every query result.
func (h *Hazard) Expired(now time.Time) bool {
	return !h.ExpiresAt.After(now)
}

// MatchedHazard is a hazard annotated with its distance to a reference route,
// produced by the route matcher and consumed by the risk scorer and the
// alert engine.
type MatchedHazard struct {
	Hazard
	DistanceMeters float64 `json:"distance_meters"`
}
