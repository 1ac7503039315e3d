package model

import (
	"time"

	"github.com/google/uuid"
)

// AlertHistoryModel is the GORM-specific struct for the 'alert_history' table.
// Rows are append-only; the composite index serves the cooldown lookup
// (user_id, sent_at).
type AlertHistoryModel struct {
	ID             uuid.UUID `gorm:"type:uuid;primary_key;default:uuid_generate_v4()"`
	UserID         uuid.UUID `gorm:"type:uuid;not null;index:idx_alert_history_on_user_sent"`
	SubscriptionID uuid.UUID `gorm:"type:uuid;not null"`
	HazardSourceID string    `gorm:"type:varchar(128);not null"`
	SentAt         time.Time `gorm:"not null;index:idx_alert_history_on_user_sent"`
}

// TableName explicitly sets the table name for GORM.
func (AlertHistoryModel) TableName() string {
	return "alert_history"
}
