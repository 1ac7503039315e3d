package model

import (
	"time"

	"github.com/google/uuid"
)

// HazardModel is the GORM-specific struct for the 'hazards' table.
// The location column is a PostGIS geometry(Point, 4326); every query that
// touches it goes through raw SQL, so the struct carries the ST_X/ST_Y scan
// targets instead of the geometry itself. DistanceMeters is populated only by
// route corridor queries.
type HazardModel struct {
	ID             uuid.UUID `gorm:"type:uuid;primary_key;default:uuid_generate_v4()"`
	SourceID       string    `gorm:"type:varchar(128);not null;uniqueIndex"`
	HazardType     string    `gorm:"type:varchar(16);not null;index"`
	Severity       int       `gorm:"not null"`
	Longitude      float64   `gorm:"-:migration"`
	Latitude       float64   `gorm:"-:migration"`
	Description    string    `gorm:"type:text;not null"`
	Metadata       []byte    `gorm:"type:jsonb"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
	ExpiresAt      time.Time `gorm:"not null;index"`
	DistanceMeters float64   `gorm:"-:migration"`
}

// TableName explicitly sets the table name for GORM.
func (HazardModel) TableName() string {
	return "hazards"
}
