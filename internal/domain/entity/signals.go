package entity

import (
	"time"

	"github.com/paulmach/orb"
)

// Raw signal records, the typed inputs to the validators. The upstream
// adapter maps portal rows into these; missing or renamed portal fields are
// tolerated there by falling back to defaults, never by failing the batch.

// PermitRecord is a demolition/wrecking permit from the building permits
// dataset.
type PermitRecord struct {
	PermitNumber    string    `json:"permit_number"`
	PermitType      string    `json:"permit_type"`
	WorkDescription string    `json:"work_description"`
	Address         string    `json:"address"`
	Location        orb.Point `json:"location"`
	IssueDate       time.Time `json:"issue_date"`
}

// ComplaintRecord is a 311 service request that can corroborate a permit.
type ComplaintRecord struct {
	ServiceRequestID string    `json:"service_request_id"`
	Code             string    `json:"code"` // Short complaint code, e.g. "SVR", "NOI".
	Description      string    `json:"description"`
	Location         orb.Point `json:"location"`
	CreatedAt        time.Time `json:"created_at"`
}

// TrafficSegmentRecord is one congestion observation for a street segment.
// SpeedMPH <= 0 means the observation carried no usable speed.
type TrafficSegmentRecord struct {
	SegmentID  string    `json:"segment_id"`
	Street     string    `json:"street"`
	Direction  string    `json:"direction"`
	FromStreet string    `json:"from_street"`
	ToStreet   string    `json:"to_street"`
	SpeedMPH   float64   `json:"speed_mph"`
	Location   orb.Point `json:"location"`
}
