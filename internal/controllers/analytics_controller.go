package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"capital_transport/internal/config"
	"capital_transport/internal/models"
	"capital_transport/internal/relay"
)

// AnalyticsController serves manager dashboards: persisted fleet counts
// plus the relay's live snapshot.
type AnalyticsController struct {
	hub *relay.Hub
}

func NewAnalyticsController(hub *relay.Hub) *AnalyticsController {
	return &AnalyticsController{hub: hub}
}

// Summary returns headline counts for the manager dashboard.
func (ac *AnalyticsController) Summary(c *gin.Context) {
	var busCount, tripCount, passengerCount, bookingCount int64

	config.DB.Model(&models.Bus{}).Where("in_service = ?", true).Count(&busCount)
	config.DB.Model(&models.Trip{}).Where("status IN ?", []string{"SCHEDULED", "BOARDING", "IN_TRANSIT"}).Count(&tripCount)
	config.DB.Model(&models.User{}).Where("role = ?", "passenger").Count(&passengerCount)
	config.DB.Model(&models.Booking{}).Where("status = ?", "CONFIRMED").Count(&bookingCount)

	c.JSON(http.StatusOK, gin.H{
		"buses_in_service": busCount,
		"active_trips":     tripCount,
		"passengers":       passengerCount,
		"bookings":         bookingCount,
		"realtime":         ac.hub.Snapshot(),
	})
}

// RealtimeSnapshot exposes the relay's live state over REST for
// supervisor dashboards that have not opened a socket yet.
func (ac *AnalyticsController) RealtimeSnapshot(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"data": ac.hub.Snapshot()})
}
