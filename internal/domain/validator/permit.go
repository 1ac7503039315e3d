// Package validator turns raw city signals into validated hazards. Each
// validator is pure: it takes records plus an evaluation instant and returns
// hazards, so batch jobs stay trivially testable with a fake clock.
package validator

import (
	"fmt"
	"math"
	"strings"
	"time"

	"airscout/internal/domain/entity"
	"airscout/internal/domain/geo"
)

// Complaint codes that corroborate an active demolition on their own.
var corroboratingCodes = map[string]struct{}{
	"SVR": {}, // severe weather / road condition, includes dust
	"NOI": {}, // noise, construction equipment
}

// Description keywords that corroborate regardless of code.
var corroboratingKeywords = []string{"DUST", "DEMOLITION", "CONSTRUCTION", "DEBRIS"}

// PermitRules carries the knobs of the corroboration rule.
type PermitRules struct {
	ComplaintRadiusMeters float64
	ComplaintLookback     time.Duration
	Expiry                time.Duration
}

// PermitValidator applies the corroboration rule: a demolition permit is a
// hazard only while at least one relevant 311 complaint sits within the
// radius and the lookback window. A permit without a recent complaint is
// dormant paperwork, not a risk.
type PermitValidator struct {
	rules PermitRules
}

// NewPermitValidator builds a validator with the given rules.
func NewPermitValidator(rules PermitRules) *PermitValidator {
	return &PermitValidator{rules: rules}
}

// Validate evaluates one permit against the complaint pool at the given
// instant. It returns the hazard and true when the permit is corroborated.
func (v *PermitValidator) Validate(
	permit entity.PermitRecord,
	complaints []entity.ComplaintRecord,
	now time.Time,
) (entity.Hazard, bool) {
	cutoff := now.Add(-v.rules.ComplaintLookback)

	count := 0
	nearestDist := math.Inf(1)
	var nearest entity.ComplaintRecord
	for _, c := range complaints {
		if !RelevantComplaint(c) {
			continue
		}
		if c.CreatedAt.Before(cutoff) {
			continue
		}
		d := geo.Distance(permit.Location, c.Location)
		if d > v.rules.ComplaintRadiusMeters {
			continue
		}

		count++
		// Ties on distance break toward the earliest complaint.
		if d < nearestDist || (d == nearestDist && c.CreatedAt.Before(nearest.CreatedAt)) {
			nearestDist = d
			nearest = c
		}
	}

	if count == 0 {
		return entity.Hazard{}, false
	}

	address := permit.Address
	if address == "" {
		address = "Unknown"
	}

	metadata := map[string]any{
		"permit_number":           permit.PermitNumber,
		"permit_type":             permit.PermitType,
		"address":                 permit.Address,
		"validating_complaint":    nearest.ServiceRequestID,
		"complaint_type":          nearest.Code,
		"distance_to_complaint_m": math.Round(nearestDist*100) / 100,
		"complaint_count":         count,
	}
	if !permit.IssueDate.IsZero() {
		metadata["issue_date"] = permit.IssueDate.Format(time.RFC3339)
	}

	hazard := entity.Hazard{
		Source:      entity.NewSourceID(entity.HazardTypePermit, permit.PermitNumber),
		Severity:    permitSeverity(count),
		Location:    permit.Location,
		Description: fmt.Sprintf("Active demolition at %s", address),
		Metadata:    metadata,
		ExpiresAt:   now.Add(v.rules.Expiry),
	}

	return hazard, true
}

// RelevantComplaint reports whether a 311 complaint can corroborate a
// demolition permit, by short code or by description keyword.
func RelevantComplaint(c entity.ComplaintRecord) bool {
	if _, ok := corroboratingCodes[strings.ToUpper(c.Code)]; ok {
		return true
	}

	desc := strings.ToUpper(c.Description)
	for _, kw := range corroboratingKeywords {
		if strings.Contains(desc, kw) {
			return true
		}
	}

	return false
}

// permitSeverity starts demolition at moderate and escalates with the
// corroborating complaint count, capped at the scale maximum.
func permitSeverity(complaintCount int) int {
	severity := 3
	switch {
	case complaintCount >= 5:
		severity += 2
	case complaintCount >= 2:
		severity++
	}

	if severity > 5 {
		severity = 5
	}

	return severity
}
