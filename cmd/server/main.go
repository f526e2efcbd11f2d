package main

import (
	"log"
	"net/http"
	"os"

	"capital_transport/internal/config"
	"capital_transport/internal/logger"
	"capital_transport/internal/middleware"
	"capital_transport/internal/relay"
	"capital_transport/internal/routes"
	"capital_transport/internal/routing"
)

func main() {
	// Initialize structured logging to file
	logger.Setup()

	// Connect to the database
	config.InitDB()

	// Relay hub and routing service live for the whole process and are
	// injected into the router.
	hub := relay.NewHub()
	defer hub.Close()

	osrmURL := os.Getenv("OSRM_URL")
	if osrmURL == "" {
		osrmURL = "https://router.project-osrm.org"
	}
	router := routing.NewService(osrmURL)

	// Setup Gin router
	r := routes.SetupRouter(hub, router)

	// Wrap with CORS
	handler := middleware.EnableCORS(r)

	addr := "0.0.0.0:8080"
	if port := os.Getenv("PORT"); port != "" {
		addr = "0.0.0.0:" + port
	}

	log.Printf("🚀 Server running at %s", addr)
	log.Fatal(http.ListenAndServe(addr, handler))
}
