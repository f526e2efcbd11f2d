package models

import (
	"gorm.io/gorm"
)

// Booking ties a passenger to a seat on a trip.
type Booking struct {
	gorm.Model
	UserID     uint    `json:"user_id" gorm:"index"`
	TripID     uint    `json:"trip_id" gorm:"index"`
	Trip       Trip    `gorm:"foreignKey:TripID" json:"trip,omitempty"`
	SeatNumber int     `json:"seat_number"`
	PricePaid  float64 `json:"price_paid"`
	Status     string  `json:"status" gorm:"default:CONFIRMED"` // CONFIRMED, CANCELLED
}
