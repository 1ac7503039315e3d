// Package risk scores a set of matched hazards into a 0-100 route risk
// figure. Closer and more severe hazards weigh more; the scale constant
// differs between the interactive route check and the alert engine, so the
// two surfaces keep their historical score calibration.
package risk

import (
	"fmt"

	"airscout/internal/domain/entity"
)

// Level is the coarse risk bucket derived from the score.
type Level string

const (
	LevelLow      Level = "LOW"
	LevelModerate Level = "MODERATE"
	LevelHigh     Level = "HIGH"
)

// Per-hazard scale factors. Route checks sum hazards at 20 points each at
// full weight; the alert engine runs hotter at 25 so fewer hazards clear the
// notification thresholds.
const (
	ScaleRouteCheck = 20.0
	ScaleAlert      = 25.0
)

// Level thresholds on the 0-100 score.
const (
	highThreshold     = 70
	moderateThreshold = 40
)

// Assessment is the scored summary of a route's matched hazards.
type Assessment struct {
	Score           int    `json:"score"`
	Level           Level  `json:"level"`
	Message         string `json:"message"`
	HazardCount     int    `json:"hazard_count"`
	HighestSeverity int    `json:"highest_severity,omitempty"`
}

// Score computes the weighted assessment. Each hazard contributes
// proximity * severity/5 * scale, where proximity falls linearly from 1 at
// the route to 0 at the buffer edge. The sum is truncated and capped at 100.
// bufferMeters must be positive; callers validate it before matching.
func Score(hazards []entity.MatchedHazard, bufferMeters, scale float64) Assessment {
	if len(hazards) == 0 {
		return Assessment{
			Score:   0,
			Level:   LevelLow,
			Message: "No hazards detected along this route",
		}
	}

	var total float64
	highest := 0
	for _, h := range hazards {
		proximity := 1 - h.DistanceMeters/bufferMeters
		if proximity < 0 {
			proximity = 0
		}

		total += proximity * (float64(h.Severity) / 5) * scale

		if h.Severity > highest {
			highest = h.Severity
		}
	}

	score := int(total)
	if score > 100 {
		score = 100
	}

	level := LevelFor(score)

	return Assessment{
		Score:           score,
		Level:           level,
		Message:         levelMessage(level),
		HazardCount:     len(hazards),
		HighestSeverity: highest,
	}
}

// LevelFor buckets a 0-100 score into a risk level.
func LevelFor(score int) Level {
	switch {
	case score >= highThreshold:
		return LevelHigh
	case score >= moderateThreshold:
		return LevelModerate
	default:
		return LevelLow
	}
}

func levelMessage(level Level) string {
	switch level {
	case LevelHigh:
		return "High pollution risk - consider alternate route"
	case LevelModerate:
		return "Moderate pollution risk - be aware of hazards"
	default:
		return "Low pollution risk - route is relatively clear"
	}
}

// String implements fmt.Stringer for log output.
func (a Assessment) String() string {
	return fmt.Sprintf("%s (%d/100, %d hazards)", a.Level, a.Score, a.HazardCount)
}
