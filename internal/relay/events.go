package relay

import (
	"github.com/go-playground/validator/v10"
)

// Role classifies a connection for role-wide broadcasts.
type Role string

const (
	RoleSupervisor Role = "SUPERVISOR"
	RolePassenger  Role = "PASSENGER"
)

// Socket event names, client→server.
const (
	EventAuthenticate      = "authenticate"
	EventBusLocationUpdate = "bus_location_update"
	EventTripStatusUpdate  = "trip_status_update"
	EventAlertCreated      = "alert_created"
	EventDelayCreated      = "delay_created"
	EventJoinBusTracking   = "join_bus_tracking"
	EventLeaveBusTracking  = "leave_bus_tracking"
	EventJoinTripTracking  = "join_trip_tracking"
	EventLeaveTripTracking = "leave_trip_tracking"
	EventRequestRealTime   = "request_real_time_data"
)

// Socket event names, server→client.
const (
	EventAuthenticated      = "authenticated"
	EventBusLocationUpdated = "bus_location_updated"
	EventTripStatusUpdated  = "trip_status_updated"
	EventNewAlert           = "new_alert"
	EventNewDelay           = "new_delay"
	EventTripDelayed        = "trip_delayed"
	EventJoinedBusTracking  = "joined_bus_tracking"
	EventLeftBusTracking    = "left_bus_tracking"
	EventJoinedTripTracking = "joined_trip_tracking"
	EventLeftTripTracking   = "left_trip_tracking"
	EventRealTimeData       = "real_time_data"
	EventError              = "error"
)

// Event is the wire envelope for every message in both directions.
type Event struct {
	Name string      `json:"event"`
	Data interface{} `json:"data"`
}

// AuthenticatePayload binds a role (and optionally a user) to the connection.
type AuthenticatePayload struct {
	Role   Role   `json:"role" validate:"required,oneof=SUPERVISOR PASSENGER"`
	UserID string `json:"userId,omitempty"`
}

// LocationUpdate is the last-value-wins GPS ping for a bus.
type LocationUpdate struct {
	BusID     string  `json:"busId" validate:"required"`
	Latitude  float64 `json:"latitude" validate:"gte=-90,lte=90"`
	Longitude float64 `json:"longitude" validate:"gte=-180,lte=180"`
	Speed     float64 `json:"speed"`
	Heading   float64 `json:"heading"`
	Timestamp string  `json:"timestamp,omitempty"`
}

// TripStatusUpdate is the last-value-wins status for a trip.
type TripStatusUpdate struct {
	TripID           string `json:"tripId" validate:"required"`
	Status           string `json:"status" validate:"required"`
	CurrentLocation  string `json:"currentLocation,omitempty"`
	NextStop         string `json:"nextStop,omitempty"`
	EstimatedArrival string `json:"estimatedArrival,omitempty"`
	Timestamp        string `json:"timestamp,omitempty"`
}

// Alert is an operational alert raised by supervisors or buses.
type Alert struct {
	Type        string `json:"type" validate:"required"`
	Severity    string `json:"severity" validate:"required,oneof=low medium high critical"`
	Title       string `json:"title" validate:"required"`
	Description string `json:"description,omitempty"`
	BusID       string `json:"busId,omitempty"`
	Location    string `json:"location,omitempty"`
	Timestamp   string `json:"timestamp,omitempty"`
}

// Delay reports a trip running behind schedule.
type Delay struct {
	TripID           string   `json:"tripId" validate:"required"`
	BusID            string   `json:"busId,omitempty"`
	DelayMinutes     int      `json:"delayMinutes" validate:"gte=0"`
	Reason           string   `json:"reason,omitempty"`
	AffectedStations []string `json:"affectedStations,omitempty"`
	Timestamp        string   `json:"timestamp,omitempty"`
}

// BusTrackingPayload joins or leaves a bus topic.
type BusTrackingPayload struct {
	BusID string `json:"busId" validate:"required"`
}

// TripTrackingPayload joins or leaves a trip topic.
type TripTrackingPayload struct {
	TripID string `json:"tripId" validate:"required"`
}

// AuthenticatedAck acknowledges an authenticate event.
type AuthenticatedAck struct {
	Success bool `json:"success"`
	Role    Role `json:"role"`
}

// RealTimeData is the supervisor snapshot of in-memory relay state.
type RealTimeData struct {
	Timestamp       string `json:"timestamp"`
	ActiveBuses     int    `json:"activeBuses"`
	ActiveTrips     int    `json:"activeTrips"`
	TotalPassengers int    `json:"totalPassengers"`
}

// ErrorPayload is sent back to a client whose event was rejected.
type ErrorPayload struct {
	Message string `json:"message"`
}

// validate checks payload structs before they are broadcast. Malformed
// events are rejected with an error acknowledgment, never fanned out.
var validate = validator.New()

// ValidatePayload reports the first validation failure for a decoded payload.
func ValidatePayload(payload interface{}) error {
	return validate.Struct(payload)
}

// BusTopic and TripTopic build the group keys for topic-scoped broadcasts.
func BusTopic(busID string) string   { return "bus_" + busID }
func TripTopic(tripID string) string { return "trip_" + tripID }
