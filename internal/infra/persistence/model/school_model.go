package model

import "time"

// SchoolModel is the GORM-specific struct for the 'schools' table.
// Like hazards, the location column is a PostGIS geometry(Point, 4326) and is
// read back through ST_X/ST_Y aliases.
type SchoolModel struct {
	SchoolID         string  `gorm:"type:varchar(64);primary_key"`
	Name             string  `gorm:"type:varchar(255);not null"`
	SchoolType       string  `gorm:"type:varchar(64);not null"`
	Address          string  `gorm:"type:text"`
	Longitude        float64 `gorm:"-:migration"`
	Latitude         float64 `gorm:"-:migration"`
	ZoneRadiusMeters float64 `gorm:"type:decimal(10,2);not null"`
	IsActive         bool    `gorm:"not null;default:true"`
	UpdatedAt        time.Time
}

// TableName explicitly sets the table name for GORM.
func (SchoolModel) TableName() string {
	return "schools"
}
