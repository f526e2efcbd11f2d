package routes

import (
	"capital_transport/internal/controllers"
	"capital_transport/internal/middleware"

	"github.com/gin-gonic/gin"
)

func TripRoutes(r *gin.Engine) {
	// Trip browsing is public; passengers pick trips before booking.
	r.GET("/trip", controllers.ListTrips)
	r.GET("/trip/:id", controllers.GetTrip)

	trip := r.Group("/trip")
	trip.Use(middleware.RequireAuthWithRole("supervisor"))
	{
		trip.POST("/", controllers.CreateTrip)
		trip.PUT("/:id/status", controllers.UpdateTripStatus)
		trip.DELETE("/:id", controllers.DeleteTrip)
	}
}
