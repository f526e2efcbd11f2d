package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"capital_transport/internal/config"
	"capital_transport/internal/models"
)

// CreateBus allows a supervisor to register a new bus; defaults InService to true
func CreateBus(c *gin.Context) {
	var input struct {
		BusNo       string `json:"bus_no" binding:"required"`
		PlateNumber string `json:"plate_number" binding:"required"`
		Capacity    int    `json:"capacity"`
		LineID      uint   `json:"line_id"`
		// InService omitted: always default true on creation
	}

	// Parse JSON
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid bus input: " + err.Error()})
		return
	}

	if input.Capacity == 0 {
		input.Capacity = 50
	}

	bus := models.Bus{
		BusNo:       input.BusNo,
		PlateNumber: input.PlateNumber,
		Capacity:    input.Capacity,
		LineID:      input.LineID,
		InService:   true,
	}

	// Save to DB
	if err := config.DB.Create(&bus).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create bus: " + err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"bus": bus})
}

// ListBuses returns the whole fleet. Used by supervisor and manager dashboards.
func ListBuses(c *gin.Context) {
	var buses []models.Bus
	if err := config.DB.Find(&buses).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error listing buses: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": buses}) // Return in a 'data' key for consistency with frontend service
}

func GetBus(c *gin.Context) {
	id := c.Param("id")

	var bus models.Bus
	if err := config.DB.First(&bus, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Bus not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"bus": bus})
}

func UpdateBus(c *gin.Context) {
	id := c.Param("id")

	var bus models.Bus
	if err := config.DB.First(&bus, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Bus not found"})
		return
	}

	if err := c.ShouldBindJSON(&bus); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid update"})
		return
	}

	config.DB.Save(&bus)
	c.JSON(http.StatusOK, gin.H{"bus": bus})
}

func DeleteBus(c *gin.Context) {
	id := c.Param("id")

	var bus models.Bus
	if err := config.DB.First(&bus, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Bus not found"})
		return
	}

	config.DB.Delete(&bus)
	c.JSON(http.StatusOK, gin.H{"message": "Bus deleted"})
}
