package impl

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"airscout/internal/domain/entity"
	"airscout/internal/domain/risk"
)

// payloadHazardLimit caps how many hazards ride inside the push payload;
// push providers reject oversized data blocks.
const payloadHazardLimit = 5

// routeAlert is one pending notification: a subscription with matched
// hazards and its scored assessment.
type routeAlert struct {
	subscription *entity.RouteSubscription
	hazards      []*entity.MatchedHazard
	assessment   risk.Assessment
}

// pushPayload is the provider-independent notification content.
type pushPayload struct {
	Title string
	Body  string
	Data  map[string]string
}

var hazardTypeLabels = map[entity.HazardType]string{
	entity.HazardTypePermit:  "Demolition",
	entity.HazardTypeTraffic: "Traffic",
	entity.HazardTypeSchool:  "School Zone",
}

// buildNotificationPayload renders one alert. The title tracks the risk
// level, the body summarizes the hazard type mix, and the data block carries
// the scored details plus the top hazards for the app to render.
func buildNotificationPayload(alert routeAlert) pushPayload {
	routeName := alert.subscription.RouteName
	if routeName == "" {
		routeName = "My Route"
	}

	var title string
	switch alert.assessment.Level {
	case risk.LevelHigh:
		title = fmt.Sprintf("High Risk Alert: %s", routeName)
	case risk.LevelModerate:
		title = fmt.Sprintf("Hazard Alert: %s", routeName)
	default:
		title = fmt.Sprintf("Route Update: %s", routeName)
	}

	body := fmt.Sprintf("%d %s detected: %s",
		len(alert.hazards),
		pluralize("hazard", len(alert.hazards)),
		typeSummary(alert.hazards),
	)

	data := map[string]string{
		"type":             "hazard_alert",
		"route_name":       routeName,
		"risk_score":       strconv.Itoa(alert.assessment.Score),
		"risk_level":       string(alert.assessment.Level),
		"hazard_count":     strconv.Itoa(len(alert.hazards)),
		"highest_severity": strconv.Itoa(alert.assessment.HighestSeverity),
	}
	if encoded, err := json.Marshal(payloadHazards(alert.hazards)); err == nil {
		data["hazards"] = string(encoded)
	}

	return pushPayload{Title: title, Body: body, Data: data}
}

// typeSummary lists the distinct hazard type labels in first-seen order.
func typeSummary(hazards []*entity.MatchedHazard) string {
	seen := make(map[entity.HazardType]bool, len(hazardTypeLabels))
	summary := ""
	for _, h := range hazards {
		if seen[h.Source.Type] {
			continue
		}
		seen[h.Source.Type] = true

		label, ok := hazardTypeLabels[h.Source.Type]
		if !ok {
			label = string(h.Source.Type)
		}
		if summary != "" {
			summary += ", "
		}
		summary += label
	}

	return summary
}

type payloadHazard struct {
	ID             string  `json:"id"`
	Type           string  `json:"type"`
	Severity       int     `json:"severity"`
	Description    string  `json:"description"`
	SourceID       string  `json:"source_id"`
	Longitude      float64 `json:"longitude"`
	Latitude       float64 `json:"latitude"`
	DistanceMeters float64 `json:"distance_meters"`
}

func payloadHazards(hazards []*entity.MatchedHazard) []payloadHazard {
	limit := len(hazards)
	if limit > payloadHazardLimit {
		limit = payloadHazardLimit
	}

	out := make([]payloadHazard, 0, limit)
	for _, h := range hazards[:limit] {
		out = append(out, payloadHazard{
			ID:             h.ID.String(),
			Type:           string(h.Source.Type),
			Severity:       h.Severity,
			Description:    h.Description,
			SourceID:       h.Source.String(),
			Longitude:      h.Location[0],
			Latitude:       h.Location[1],
			DistanceMeters: math.Round(h.DistanceMeters*10) / 10,
		})
	}

	return out
}

func pluralize(word string, n int) string {
	if n == 1 {
		return word
	}

	return word + "s"
}
