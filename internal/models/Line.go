package models

import (
	"gorm.io/gorm"
)

// Line represents a service path operated through the city
// A line has many stations in sequence and buses assigned to it
type Line struct {
	gorm.Model

	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`

	// Geometry stored in PostGIS as a LINESTRING (SRID 4326)
	// When creating, provide GeoJSON; migrations define the column type appropriately.
	Geometry []byte `gorm:"type:bytea"`

	// Associations
	Stations []Station `gorm:"foreignKey:LineID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"stations,omitempty"`
	Buses    []Bus     `gorm:"foreignKey:LineID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"buses,omitempty"`
}
