package models

import (
	"time"

	"gorm.io/gorm"
)

// Trip is a single scheduled run of a bus along a line.
type Trip struct {
	gorm.Model
	LineID       uint      `json:"line_id" gorm:"index"`
	Line         Line      `gorm:"foreignKey:LineID" json:"line,omitempty"`
	BusID        uint      `json:"bus_id" gorm:"index"`
	Bus          Bus       `gorm:"foreignKey:BusID" json:"bus,omitempty"`
	DepartureAt  time.Time `json:"departure_at"`
	ArrivalAt    time.Time `json:"arrival_at"`
	Status       string    `json:"status" gorm:"default:SCHEDULED"` // SCHEDULED, BOARDING, IN_TRANSIT, COMPLETED, CANCELLED
	Fare         float64   `json:"fare"`
	DelayMinutes int       `json:"delay_minutes"`

	Bookings []Booking `gorm:"foreignKey:TripID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"bookings,omitempty"`
}
