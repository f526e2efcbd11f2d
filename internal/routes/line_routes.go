package routes

import (
	"capital_transport/internal/controllers"
	"capital_transport/internal/middleware"

	"github.com/gin-gonic/gin"
)

func LineRoutes(r *gin.Engine) {
	// Listing lines is public so passengers can browse the network.
	r.GET("/line", controllers.ListLines)
	r.GET("/line/:id", controllers.GetLine)

	line := r.Group("/line")
	line.Use(middleware.RequireAuthWithRole("supervisor"))
	{
		line.POST("/", controllers.CreateLine)
		line.PUT("/:id/stations", controllers.AddStationsToLine)
	}
}
