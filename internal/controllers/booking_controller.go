package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"capital_transport/internal/config"
	"capital_transport/internal/models"
)

// CreateBooking books a seat on a trip for the authenticated passenger,
// deducting the fare from their wallet in the same transaction.
func CreateBooking(c *gin.Context) {
	userID := uint(c.MustGet("user_id").(float64))

	var input struct {
		TripID     uint `json:"trip_id" binding:"required"`
		SeatNumber int  `json:"seat_number" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid booking input: " + err.Error()})
		return
	}

	var trip models.Trip
	if err := config.DB.First(&trip, input.TripID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "trip does not exist"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error: " + err.Error()})
		}
		return
	}
	if trip.Status == "COMPLETED" || trip.Status == "CANCELLED" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "trip is not bookable"})
		return
	}

	tx := config.DB.Begin()
	if tx.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not start transaction"})
		return
	}

	var wallet models.Wallet
	if err := tx.Where("user_id = ?", userID).First(&wallet).Error; err != nil {
		tx.Rollback()
		c.JSON(http.StatusBadRequest, gin.H{"error": "wallet not found for user"})
		return
	}
	if wallet.Balance < trip.Fare {
		tx.Rollback()
		c.JSON(http.StatusBadRequest, gin.H{"error": "insufficient wallet balance"})
		return
	}

	// Seat already taken on this trip?
	var taken int64
	tx.Model(&models.Booking{}).
		Where("trip_id = ? AND seat_number = ? AND status = ?", trip.ID, input.SeatNumber, "CONFIRMED").
		Count(&taken)
	if taken > 0 {
		tx.Rollback()
		c.JSON(http.StatusConflict, gin.H{"error": "seat already booked"})
		return
	}

	wallet.Balance -= trip.Fare
	if err := tx.Save(&wallet).Error; err != nil {
		tx.Rollback()
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not debit wallet: " + err.Error()})
		return
	}

	booking := models.Booking{
		UserID:     userID,
		TripID:     trip.ID,
		SeatNumber: input.SeatNumber,
		PricePaid:  trip.Fare,
		Status:     "CONFIRMED",
	}
	if err := tx.Create(&booking).Error; err != nil {
		tx.Rollback()
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create booking: " + err.Error()})
		return
	}

	if err := tx.Commit().Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not commit transaction: " + err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"booking": booking})
}

// ListMyBookings returns the authenticated passenger's bookings.
func ListMyBookings(c *gin.Context) {
	userID := uint(c.MustGet("user_id").(float64))

	var bookings []models.Booking
	if err := config.DB.Where("user_id = ?", userID).Preload("Trip").Preload("Trip.Line").Find(&bookings).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error fetching bookings"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": bookings})
}

// CancelBooking cancels a confirmed booking and refunds the wallet.
func CancelBooking(c *gin.Context) {
	userID := uint(c.MustGet("user_id").(float64))
	id := c.Param("id")

	var booking models.Booking
	if err := config.DB.Where("id = ? AND user_id = ?", id, userID).First(&booking).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Booking not found"})
		return
	}
	if booking.Status == "CANCELLED" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "booking already cancelled"})
		return
	}

	tx := config.DB.Begin()

	booking.Status = "CANCELLED"
	if err := tx.Save(&booking).Error; err != nil {
		tx.Rollback()
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not cancel booking: " + err.Error()})
		return
	}

	var wallet models.Wallet
	if err := tx.Where("user_id = ?", userID).First(&wallet).Error; err == nil {
		wallet.Balance += booking.PricePaid
		tx.Save(&wallet)
	}

	if err := tx.Commit().Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not commit transaction: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"booking": booking})
}
