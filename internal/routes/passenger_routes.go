package routes

import (
	"capital_transport/internal/controllers"
	"capital_transport/internal/middleware"
	"capital_transport/internal/routing"

	"github.com/gin-gonic/gin"
)

func PassengerRoutes(r *gin.Engine, router *routing.Service) {
	directions := controllers.NewDirectionsController(router)

	passenger := r.Group("/passenger")
	passenger.Use(middleware.RequireAuthWithRole("passenger"))
	{
		passenger.POST("/booking", controllers.CreateBooking)
		passenger.GET("/bookings", controllers.ListMyBookings)
		passenger.DELETE("/booking/:id", controllers.CancelBooking)
		passenger.GET("/wallet", controllers.GetMyWallet)
		passenger.POST("/wallet/topup", controllers.TopUpWallet)
	}

	// Directions are public: a passenger may ask for the way to a boarding
	// station before logging in.
	r.GET("/directions", directions.GetDirections)
	r.GET("/directions/steps", directions.GetTurnByTurn)
}
