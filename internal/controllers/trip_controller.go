package controllers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"capital_transport/internal/config"
	"capital_transport/internal/models"
)

// CreateTrip schedules a new run of a bus along a line.
func CreateTrip(c *gin.Context) {
	var input struct {
		LineID      uint      `json:"line_id" binding:"required"`
		BusID       uint      `json:"bus_id" binding:"required"`
		DepartureAt time.Time `json:"departure_at" binding:"required"`
		ArrivalAt   time.Time `json:"arrival_at"`
		Fare        float64   `json:"fare"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid trip input: " + err.Error()})
		return
	}

	var bus models.Bus
	if err := config.DB.First(&bus, input.BusID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "bus does not exist"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error: " + err.Error()})
		}
		return
	}

	trip := models.Trip{
		LineID:      input.LineID,
		BusID:       input.BusID,
		DepartureAt: input.DepartureAt,
		ArrivalAt:   input.ArrivalAt,
		Fare:        input.Fare,
		Status:      "SCHEDULED",
	}

	if err := config.DB.Create(&trip).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create trip: " + err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"trip": trip})
}

// ListTrips returns upcoming and in-progress trips with line and bus preloaded.
func ListTrips(c *gin.Context) {
	var trips []models.Trip
	query := config.DB.Preload("Line").Preload("Bus")
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if err := query.Find(&trips).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error listing trips: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": trips})
}

func GetTrip(c *gin.Context) {
	id := c.Param("id")

	var trip models.Trip
	if err := config.DB.Preload("Line").Preload("Bus").Preload("Line.Stations").First(&trip, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Trip not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"trip": trip})
}

// UpdateTripStatus moves a trip through its lifecycle and records delays.
func UpdateTripStatus(c *gin.Context) {
	id := c.Param("id")

	var input struct {
		Status       string `json:"status" binding:"required,oneof=SCHEDULED BOARDING IN_TRANSIT COMPLETED CANCELLED"`
		DelayMinutes int    `json:"delay_minutes"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status update: " + err.Error()})
		return
	}

	var trip models.Trip
	if err := config.DB.First(&trip, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Trip not found"})
		return
	}

	trip.Status = input.Status
	if input.DelayMinutes > 0 {
		trip.DelayMinutes = input.DelayMinutes
	}

	if err := config.DB.Save(&trip).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update trip: " + err.Error()})
		return
	}

	logrus.WithFields(logrus.Fields{
		"trip_id":       trip.ID,
		"status":        trip.Status,
		"delay_minutes": trip.DelayMinutes,
	}).Info("Trip status updated.")

	c.JSON(http.StatusOK, gin.H{"trip": trip})
}

func DeleteTrip(c *gin.Context) {
	id := c.Param("id")

	var trip models.Trip
	if err := config.DB.First(&trip, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Trip not found"})
		return
	}

	config.DB.Delete(&trip)
	c.JSON(http.StatusOK, gin.H{"message": "Trip deleted"})
}
