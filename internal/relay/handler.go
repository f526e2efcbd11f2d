package relay

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// upgrader configures the WebSocket connection.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all for development (restrict in production!)
	},
}

// envelope is the raw inbound frame before payload decoding.
type envelope struct {
	Name string          `json:"event"`
	Data json.RawMessage `json:"data"`
}

// Handler binds the injected hub to the websocket endpoint.
type Handler struct {
	hub *Hub
}

// NewHandler wires a Handler to the given hub.
func NewHandler(hub *Hub) *Handler {
	return &Handler{hub: hub}
}

// ServeWS is the Gin handler for all realtime connections. Connections
// start unauthenticated; role binding happens via the authenticate event.
// @Summary Realtime relay endpoint for supervisors, passengers and buses
// @Description Establishes a WebSocket connection carrying location, trip status, alert and delay events.
// @Produce json
// @Router /ws/realtime [get]
// @Tags WebSocket
func (h *Handler) ServeWS(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logrus.WithError(err).Error("Failed to upgrade WebSocket connection.")
		return
	}

	client := h.hub.Register()
	go writePump(conn, client)

	defer func() {
		h.hub.Unregister(client)
		conn.Close()
	}()

	for {
		messageType, p, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logrus.WithField("conn_id", client.ID).Info("Relay WebSocket closed normally or abnormally.")
			} else {
				logrus.WithError(err).Errorf("Error reading WebSocket message from connection %s", client.ID)
			}
			return
		}
		if messageType == websocket.TextMessage {
			h.dispatch(client, p)
		}
	}
}

// writePump drains the client's send channel onto the socket. One slow
// consumer therefore never blocks the hub's broadcast loop.
func writePump(conn *websocket.Conn, client *Client) {
	for event := range client.Send {
		if err := conn.WriteJSON(event); err != nil {
			if websocket.IsCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				logrus.WithField("conn_id", client.ID).Info("Client connection closed during broadcast.")
			} else {
				logrus.WithError(err).WithField("conn_id", client.ID).Warn("Failed to send event to client.")
			}
			return
		}
	}
}

// dispatch decodes one inbound frame and applies the relay semantics.
// A bad payload is answered with an error event, never a dropped session.
func (h *Handler) dispatch(client *Client, raw []byte) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		logrus.WithError(err).WithField("conn_id", client.ID).Warn("Malformed relay frame, rejecting.")
		h.reject(client, "invalid message envelope")
		return
	}

	switch env.Name {
	case EventAuthenticate:
		h.handleAuthenticate(client, env.Data)
	case EventBusLocationUpdate:
		h.handleLocationUpdate(client, env.Data)
	case EventTripStatusUpdate:
		h.handleTripStatus(client, env.Data)
	case EventAlertCreated:
		h.handleAlert(client, env.Data)
	case EventDelayCreated:
		h.handleDelay(client, env.Data)
	case EventJoinBusTracking:
		h.handleBusTracking(client, env.Data, true)
	case EventLeaveBusTracking:
		h.handleBusTracking(client, env.Data, false)
	case EventJoinTripTracking:
		h.handleTripTracking(client, env.Data, true)
	case EventLeaveTripTracking:
		h.handleTripTracking(client, env.Data, false)
	case EventRequestRealTime:
		h.handleSnapshot(client)
	default:
		logrus.WithFields(logrus.Fields{
			"conn_id": client.ID,
			"event":   env.Name,
		}).Warn("Unknown relay event, rejecting.")
		h.reject(client, "unknown event: "+env.Name)
	}
}

func (h *Handler) handleAuthenticate(client *Client, data json.RawMessage) {
	var payload AuthenticatePayload
	if !h.decode(client, data, &payload) {
		return
	}
	h.hub.Authenticate(client, payload.Role, payload.UserID)
	h.send(client, Event{Name: EventAuthenticated, Data: AuthenticatedAck{Success: true, Role: payload.Role}})
}

func (h *Handler) handleLocationUpdate(client *Client, data json.RawMessage) {
	var payload LocationUpdate
	if !h.decode(client, data, &payload) {
		return
	}
	// Server-side stamp on every broadcast kind; client clocks are not trusted.
	payload.Timestamp = stamp()

	event := Event{Name: EventBusLocationUpdated, Data: payload}
	h.hub.BroadcastToRoleAndTopic(RoleSupervisor, BusTopic(payload.BusID), event)

	logrus.WithFields(logrus.Fields{
		"conn_id":   client.ID,
		"bus_id":    payload.BusID,
		"latitude":  payload.Latitude,
		"longitude": payload.Longitude,
		"speed":     payload.Speed,
	}).Debug("Bus location relayed.")
}

func (h *Handler) handleTripStatus(client *Client, data json.RawMessage) {
	var payload TripStatusUpdate
	if !h.decode(client, data, &payload) {
		return
	}
	payload.Timestamp = stamp()

	event := Event{Name: EventTripStatusUpdated, Data: payload}
	h.hub.BroadcastToRoleAndTopic(RoleSupervisor, TripTopic(payload.TripID), event)

	logrus.WithFields(logrus.Fields{
		"conn_id": client.ID,
		"trip_id": payload.TripID,
		"status":  payload.Status,
	}).Debug("Trip status relayed.")
}

func (h *Handler) handleAlert(client *Client, data json.RawMessage) {
	var payload Alert
	if !h.decode(client, data, &payload) {
		return
	}
	payload.Timestamp = stamp()

	event := Event{Name: EventNewAlert, Data: payload}
	if payload.BusID != "" {
		h.hub.BroadcastToRoleAndTopic(RoleSupervisor, BusTopic(payload.BusID), event)
	} else {
		h.hub.BroadcastToRole(RoleSupervisor, event)
	}

	logrus.WithFields(logrus.Fields{
		"conn_id":  client.ID,
		"severity": payload.Severity,
		"title":    payload.Title,
		"bus_id":   payload.BusID,
	}).Info("Alert relayed to supervisors.")
}

func (h *Handler) handleDelay(client *Client, data json.RawMessage) {
	var payload Delay
	if !h.decode(client, data, &payload) {
		return
	}
	payload.Timestamp = stamp()

	h.hub.BroadcastToRole(RoleSupervisor, Event{Name: EventNewDelay, Data: payload})
	// Passengers tracking this trip get the delay under its own event name.
	h.hub.BroadcastToTopic(TripTopic(payload.TripID), Event{Name: EventTripDelayed, Data: payload})

	logrus.WithFields(logrus.Fields{
		"conn_id":       client.ID,
		"trip_id":       payload.TripID,
		"delay_minutes": payload.DelayMinutes,
	}).Info("Delay relayed.")
}

func (h *Handler) handleBusTracking(client *Client, data json.RawMessage, join bool) {
	var payload BusTrackingPayload
	if !h.decode(client, data, &payload) {
		return
	}
	if join {
		h.hub.JoinTopic(client, BusTopic(payload.BusID))
		h.send(client, Event{Name: EventJoinedBusTracking, Data: payload})
	} else {
		h.hub.LeaveTopic(client, BusTopic(payload.BusID))
		h.send(client, Event{Name: EventLeftBusTracking, Data: payload})
	}
}

func (h *Handler) handleTripTracking(client *Client, data json.RawMessage, join bool) {
	var payload TripTrackingPayload
	if !h.decode(client, data, &payload) {
		return
	}
	if join {
		h.hub.JoinTopic(client, TripTopic(payload.TripID))
		h.send(client, Event{Name: EventJoinedTripTracking, Data: payload})
	} else {
		h.hub.LeaveTopic(client, TripTopic(payload.TripID))
		h.send(client, Event{Name: EventLeftTripTracking, Data: payload})
	}
}

func (h *Handler) handleSnapshot(client *Client) {
	if client.Role != RoleSupervisor {
		h.reject(client, "real_time_data requires SUPERVISOR role")
		return
	}
	h.send(client, Event{Name: EventRealTimeData, Data: h.hub.Snapshot()})
}

// decode unmarshals and validates a payload, rejecting on failure.
func (h *Handler) decode(client *Client, data json.RawMessage, payload interface{}) bool {
	if err := json.Unmarshal(data, payload); err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"conn_id": client.ID,
			"payload": string(data),
		}).Warn("Error unmarshaling relay payload.")
		h.reject(client, "invalid payload format")
		return false
	}
	if err := ValidatePayload(payload); err != nil {
		logrus.WithError(err).WithField("conn_id", client.ID).Warn("Relay payload failed validation.")
		h.reject(client, "invalid payload: "+err.Error())
		return false
	}
	return true
}

func (h *Handler) send(client *Client, event Event) {
	select {
	case client.Send <- event:
	default:
		logrus.WithFields(logrus.Fields{
			"conn_id": client.ID,
			"event":   event.Name,
		}).Warn("Client send buffer full, dropping acknowledgment.")
	}
}

func (h *Handler) reject(client *Client, message string) {
	h.send(client, Event{Name: EventError, Data: ErrorPayload{Message: message}})
}

func stamp() string {
	return time.Now().UTC().Format(time.RFC3339)
}
