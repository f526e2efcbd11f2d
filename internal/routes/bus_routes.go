package routes

import (
	"capital_transport/internal/controllers"
	"capital_transport/internal/middleware"

	"github.com/gin-gonic/gin"
)

func BusRoutes(r *gin.Engine) {
	bus := r.Group("/bus")
	bus.Use(middleware.RequireAuthWithRole("supervisor"))
	{
		bus.POST("/", controllers.CreateBus)
		bus.GET("/", controllers.ListBuses)
		bus.GET("/:id", controllers.GetBus)
		bus.PUT("/:id", controllers.UpdateBus)
		bus.DELETE("/:id", controllers.DeleteBus)
	}
}
