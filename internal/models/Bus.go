// internal/models/bus.go
package models

import (
	"gorm.io/gorm"
)

type Bus struct {
	gorm.Model
	BusNo        string `json:"bus_no"`
	PlateNumber  string `json:"plate_number"`
	Capacity     int    `json:"capacity" gorm:"default:50"`
	InService    bool   `json:"in_service" gorm:"default:true"`
	// ← set when the bus is assigned to a service line
	LineID       uint   `json:"line_id"`
}
