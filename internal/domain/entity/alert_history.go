package entity

import (
	"time"

	"github.com/google/uuid"
)

// AlertHistoryEntry records that one hazard was included in a notification
// delivered to one user. The log is append-only; its only job is answering
// "which hazards were alerted to user U within the last H hours" so the
// alert engine can suppress duplicates inside the cooldown window.
type AlertHistoryEntry struct {
	ID             uuid.UUID `json:"id"`
	UserID         uuid.UUID `json:"user_id"`
	SubscriptionID uuid.UUID `json:"subscription_id"`
	HazardSourceID string    `json:"hazard_source_id"` // Rendered SourceID, e.g. "PERMIT-100778555".
	SentAt         time.Time `json:"sent_at"`
}
