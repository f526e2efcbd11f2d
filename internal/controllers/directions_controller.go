package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"capital_transport/internal/routing"
)

// DirectionsController serves "directions to your boarding station"
// requests through an injected routing service.
type DirectionsController struct {
	router *routing.Service
}

// NewDirectionsController wires the controller to a routing service.
func NewDirectionsController(router *routing.Service) *DirectionsController {
	return &DirectionsController{router: router}
}

func parseCoordinate(c *gin.Context, latKey, lngKey string) (routing.Coordinate, bool) {
	lat, latErr := strconv.ParseFloat(c.Query(latKey), 64)
	lng, lngErr := strconv.ParseFloat(c.Query(lngKey), 64)
	if latErr != nil || lngErr != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid or missing " + latKey + "/" + lngKey})
		return routing.Coordinate{}, false
	}
	return routing.Coordinate{Latitude: lat, Longitude: lng}, true
}

// GetDirections returns a displayable path between two points. The route
// is computed fresh per request and degrades silently to a straight line.
func (dc *DirectionsController) GetDirections(c *gin.Context) {
	start, ok := parseCoordinate(c, "from_lat", "from_lng")
	if !ok {
		return
	}
	end, ok := parseCoordinate(c, "to_lat", "to_lng")
	if !ok {
		return
	}

	route := dc.router.CalculateRoute(c.Request.Context(), start, end)
	c.JSON(http.StatusOK, gin.H{"route": route})
}

// GetTurnByTurn returns step-level maneuvers; an empty list on failure.
func (dc *DirectionsController) GetTurnByTurn(c *gin.Context) {
	start, ok := parseCoordinate(c, "from_lat", "from_lng")
	if !ok {
		return
	}
	end, ok := parseCoordinate(c, "to_lat", "to_lng")
	if !ok {
		return
	}

	steps := dc.router.TurnByTurn(c.Request.Context(), start, end)
	c.JSON(http.StatusOK, gin.H{"steps": steps})
}
