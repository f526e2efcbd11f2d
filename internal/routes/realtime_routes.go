package routes

import (
	"capital_transport/internal/relay"

	"github.com/gin-gonic/gin"
)

func RealtimeRoutes(r *gin.Engine, hub *relay.Hub) {
	handler := relay.NewHandler(hub)

	wsRoutes := r.Group("/ws")
	{
		wsRoutes.GET("/realtime", handler.ServeWS)
	}
}
