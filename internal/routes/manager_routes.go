package routes

import (
	"capital_transport/internal/controllers"
	"capital_transport/internal/middleware"
	"capital_transport/internal/relay"

	"github.com/gin-gonic/gin"
)

func ManagerRoutes(r *gin.Engine, hub *relay.Hub) {
	analytics := controllers.NewAnalyticsController(hub)

	manager := r.Group("/manager")
	manager.Use(middleware.RequireAuthWithRole("manager"))
	{
		manager.GET("/summary", analytics.Summary)
		manager.GET("/passengers", controllers.ListPassengers)
	}

	supervisor := r.Group("/supervisor")
	supervisor.Use(middleware.RequireAuthWithRole("supervisor"))
	{
		supervisor.GET("/realtime", analytics.RealtimeSnapshot)
	}
}
