package routes

import (
	ginlog "github.com/gin-contrib/logger"
	"github.com/gin-gonic/gin"

	"capital_transport/internal/relay"
	"capital_transport/internal/routing"
)

// SetupRouter builds the Gin engine with every route group wired to the
// injected relay hub and routing service.
func SetupRouter(hub *relay.Hub, router *routing.Service) *gin.Engine {
	r := gin.New()

	// Recovery and request logging apply to every route group below.
	r.Use(gin.Recovery())
	r.Use(ginlog.SetLogger())

	AuthRoutes(r)
	BusRoutes(r)
	LineRoutes(r)
	TripRoutes(r)
	PassengerRoutes(r, router)
	ManagerRoutes(r, hub)
	RealtimeRoutes(r, hub)

	return r
}
