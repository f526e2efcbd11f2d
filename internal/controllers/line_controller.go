package controllers

import (
	"encoding/binary"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"capital_transport/internal/config"
	"capital_transport/internal/models"

	"github.com/twpayne/go-geom"
	gjson "github.com/twpayne/go-geom/encoding/geojson"
	"github.com/twpayne/go-geom/encoding/wkb"
)

// LineResponse struct for API output
// This mirrors models.Line but has Geometry as a string for JSON output
type LineResponse struct {
	ID          uint             `json:"ID"`
	CreatedAt   time.Time        `json:"CreatedAt"`
	UpdatedAt   time.Time        `json:"UpdatedAt"`
	DeletedAt   gorm.DeletedAt   `json:"DeletedAt,omitempty"`
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Geometry    string           `json:"geometry"` // GeoJSON string for API response
	Stations    []models.Station `json:"stations"`
	Buses       []models.Bus     `json:"buses"`
}

// toLineResponse converts a models.Line to a LineResponse
func toLineResponse(line models.Line) LineResponse {
	jsonGeom, _ := convertWKBToGeoJSON(line.Geometry) // Convert WKB to GeoJSON string
	return LineResponse{
		ID:          line.ID,
		CreatedAt:   line.CreatedAt,
		UpdatedAt:   line.UpdatedAt,
		DeletedAt:   line.DeletedAt,
		Name:        line.Name,
		Description: line.Description,
		Geometry:    jsonGeom,
		Stations:    line.Stations,
		Buses:       line.Buses,
	}
}

// parseAndConvertGeometry parses a GeoJSON string into a geom.T and returns WKB bytes
func parseAndConvertGeometry(raw string) ([]byte, error) {
	if raw == "" {
		return nil, nil
	}
	var g geom.T
	err := gjson.Unmarshal([]byte(raw), &g)
	if err != nil {
		return nil, err
	}
	return wkb.Marshal(g, binary.LittleEndian)
}

// convertWKBToGeoJSON converts WKB bytes into a GeoJSON string
func convertWKBToGeoJSON(wkbBytes []byte) (string, error) {
	if len(wkbBytes) == 0 {
		return "", nil
	}
	g, err := wkb.Unmarshal(wkbBytes)
	if err != nil {
		return "", err
	}
	b, err := gjson.Marshal(g)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// CreateLine allows a supervisor to create a new service line with GeoJSON LineString and stations.
func CreateLine(c *gin.Context) {
	var input struct {
		Name        string `json:"name" binding:"required"`
		Description string `json:"description"`
		Geometry    string `json:"geometry"` // Input is still a GeoJSON string
		Stations    []struct {
			Name string  `json:"name"`
			Seq  int     `json:"seq"`
			Lat  float64 `json:"lat"`
			Lng  float64 `json:"lng"`
		} `json:"stations"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		logrus.WithError(err).Warn("CreateLine: invalid input payload")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}

	tx := config.DB.Begin()
	if tx.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to start transaction"})
		return
	}

	wkbGeom, err := parseAndConvertGeometry(input.Geometry)
	if err != nil {
		tx.Rollback()
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid geometry: " + err.Error()})
		return
	}

	line := models.Line{Name: input.Name, Description: input.Description, Geometry: wkbGeom} // Save as []byte
	if err := tx.Create(&line).Error; err != nil {
		tx.Rollback()
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Create line failed: " + err.Error()})
		return
	}

	for _, s := range input.Stations {
		station := models.Station{Name: s.Name, Seq: s.Seq, Lat: s.Lat, Lng: s.Lng, LineID: line.ID}
		if err := tx.Create(&station).Error; err != nil {
			tx.Rollback()
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Create station failed: " + err.Error()})
			return
		}
	}

	if err := tx.Commit().Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Transaction commit failed: " + err.Error()})
		return
	}

	config.DB.Preload("Stations").Preload("Buses").First(&line, line.ID)
	c.JSON(http.StatusCreated, gin.H{"line": toLineResponse(line)})
}

// AddStationsToLine allows adding or replacing stations for an existing line.
func AddStationsToLine(c *gin.Context) {
	lID, _ := strconv.ParseUint(c.Param("id"), 10, 64)

	var line models.Line
	if err := config.DB.First(&line, lID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Line not found"})
		return
	}

	var input struct {
		Stations []models.Station `json:"stations" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	tx := config.DB.Begin()
	tx.Where("line_id=?", line.ID).Delete(&models.Station{})
	for i := range input.Stations {
		input.Stations[i].LineID = line.ID
	}
	tx.Create(&input.Stations)
	tx.Commit()

	config.DB.Preload("Stations").Preload("Buses").First(&line, line.ID)
	c.JSON(http.StatusOK, gin.H{"line": toLineResponse(line)})
}

// ListLines returns all lines + stations + buses
func ListLines(c *gin.Context) {
	var lines []models.Line
	config.DB.Preload("Stations").Preload("Buses").Find(&lines)

	var lineResponses []LineResponse
	for _, l := range lines {
		lineResponses = append(lineResponses, toLineResponse(l))
	}

	c.JSON(http.StatusOK, gin.H{"data": lineResponses})
}

// GetLine returns one line with stations and buses preloaded
func GetLine(c *gin.Context) {
	id := c.Param("id")

	var line models.Line
	if err := config.DB.Preload("Stations").Preload("Buses").First(&line, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Line not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"line": toLineResponse(line)})
}
