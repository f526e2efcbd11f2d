package models

import (
	"gorm.io/gorm"
)

// Station represents a boarding or dropoff point along a line
// Seq indicates order along the line
type Station struct {
	gorm.Model

	Name string  `json:"name" binding:"required"`
	Seq  int     `json:"seq" binding:"required"`
	Lat  float64 `json:"lat" binding:"required"`
	Lng  float64 `json:"lng" binding:"required"`

	// Foreign key to line
	LineID uint `json:"line_id"`
}
