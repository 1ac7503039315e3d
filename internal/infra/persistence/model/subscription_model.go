package model

import (
	"time"

	"github.com/google/uuid"
)

// RouteSubscriptionModel is the GORM-specific struct for the
// 'route_subscriptions' table. The route column is a PostGIS
// geometry(LineString, 4326); reads select ST_AsBinary(route) into RouteWKB
// and the mapper decodes it.
type RouteSubscriptionModel struct {
	ID                uuid.UUID `gorm:"type:uuid;primary_key;default:uuid_generate_v4()"`
	UserID            uuid.UUID `gorm:"type:uuid;not null;index"`
	RouteName         string    `gorm:"type:varchar(255);not null"`
	RouteWKB          []byte    `gorm:"column:route_wkb;-:migration"`
	PushToken         string    `gorm:"type:text;not null"`
	SeverityThreshold int       `gorm:"not null;default:3"`
	AlertEnabled      bool      `gorm:"not null;default:true"`
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// TableName explicitly sets the table name for GORM.
func (RouteSubscriptionModel) TableName() string {
	return "route_subscriptions"
}
