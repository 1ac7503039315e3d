package validator

import (
	"fmt"
	"time"

	"airscout/internal/domain/entity"
	"airscout/internal/domain/geo"
)

// CongestionLevel buckets a segment's speed ratio against free flow.
type CongestionLevel string

const (
	CongestionSevere   CongestionLevel = "severe"
	CongestionHeavy    CongestionLevel = "heavy"
	CongestionModerate CongestionLevel = "moderate"
	CongestionLight    CongestionLevel = "light"
	CongestionFreeFlow CongestionLevel = "free_flow"
)

// TrafficRules carries the knobs of congestion classification.
type TrafficRules struct {
	FreeFlowSpeedMPH           float64
	MinSeverity                int
	Expiry                     time.Duration
	SchoolSuppressRadiusMeters float64
}

// TrafficClassifier turns congestion observations into hazards. Segments
// below the minimum severity are dropped, and during school peak windows
// segments near an active school are suppressed because the school zone
// hazard already covers them at maximum severity.
type TrafficClassifier struct {
	rules TrafficRules
}

// NewTrafficClassifier builds a classifier with the given rules.
func NewTrafficClassifier(rules TrafficRules) *TrafficClassifier {
	return &TrafficClassifier{rules: rules}
}

// Classify evaluates one segment observation. schools is the active school
// set, consulted only when peak is true. It returns the hazard and true when
// the segment clears both the severity floor and the school suppressor.
func (c *TrafficClassifier) Classify(
	rec entity.TrafficSegmentRecord,
	schools []entity.School,
	peak bool,
	now time.Time,
) (entity.Hazard, bool) {
	level, severity := ClassifyCongestion(rec.SpeedMPH, c.rules.FreeFlowSpeedMPH)
	if severity < c.rules.MinSeverity {
		return entity.Hazard{}, false
	}

	if peak && c.nearSchool(rec, schools) {
		return entity.Hazard{}, false
	}

	hazard := entity.Hazard{
		Source:   entity.NewSourceID(entity.HazardTypeTraffic, rec.SegmentID),
		Severity: severity,
		Location: rec.Location,
		Description: fmt.Sprintf(
			"Traffic congestion on %s (%s) - %s",
			orUnknown(rec.Street), rec.Direction, level,
		),
		Metadata: map[string]any{
			"segment_id":       rec.SegmentID,
			"street":           rec.Street,
			"direction":        rec.Direction,
			"from_street":      rec.FromStreet,
			"to_street":        rec.ToStreet,
			"current_speed":    rec.SpeedMPH,
			"congestion_level": string(level),
		},
		ExpiresAt: now.Add(c.rules.Expiry),
	}

	return hazard, true
}

func (c *TrafficClassifier) nearSchool(rec entity.TrafficSegmentRecord, schools []entity.School) bool {
	for _, s := range schools {
		if !s.IsActive {
			continue
		}
		if geo.Distance(rec.Location, s.Location) <= c.rules.SchoolSuppressRadiusMeters {
			return true
		}
	}

	return false
}

// ClassifyCongestion maps an observed speed against free flow into a
// congestion level and severity. Missing or non-positive speeds classify as
// severe: a segment reporting no usable speed is assumed jammed rather than
// clear.
func ClassifyCongestion(speedMPH, freeFlowMPH float64) (CongestionLevel, int) {
	if speedMPH <= 0 || freeFlowMPH <= 0 {
		return CongestionSevere, 5
	}

	ratio := speedMPH / freeFlowMPH
	switch {
	case ratio < 0.25:
		return CongestionSevere, 5
	case ratio < 0.5:
		return CongestionHeavy, 4
	case ratio < 0.75:
		return CongestionModerate, 3
	case ratio < 0.9:
		return CongestionLight, 2
	default:
		return CongestionFreeFlow, 1
	}
}

func orUnknown(s string) string {
	if s == "" {
		return "Unknown"
	}

	return s
}
