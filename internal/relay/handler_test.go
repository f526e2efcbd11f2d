package relay

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// wireEvent is the frame shape as seen on the wire in tests.
type wireEvent struct {
	Name string          `json:"event"`
	Data json.RawMessage `json:"data"`
}

func newRelayServer(t *testing.T) (*httptest.Server, *Hub) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	hub := NewHub()
	r := gin.New()
	r.GET("/ws/realtime", NewHandler(hub).ServeWS)
	srv := httptest.NewServer(r)
	t.Cleanup(func() {
		srv.Close()
		hub.Close()
	})
	return srv, hub
}

func dialRelay(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/realtime"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial relay: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func sendEvent(t *testing.T, conn *websocket.Conn, name string, data interface{}) {
	t.Helper()
	if err := conn.WriteJSON(Event{Name: name, Data: data}); err != nil {
		t.Fatalf("send %s: %v", name, err)
	}
}

func readEvent(t *testing.T, conn *websocket.Conn) wireEvent {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var ev wireEvent
	if err := conn.ReadJSON(&ev); err != nil {
		t.Fatalf("read event: %v", err)
	}
	return ev
}

func TestSupervisorReceivesBusLocation(t *testing.T) {
	srv, _ := newRelayServer(t)

	supervisor := dialRelay(t, srv)
	sendEvent(t, supervisor, EventAuthenticate, AuthenticatePayload{Role: RoleSupervisor})
	if ack := readEvent(t, supervisor); ack.Name != EventAuthenticated {
		t.Fatalf("got %q, want %q", ack.Name, EventAuthenticated)
	}

	publisher := dialRelay(t, srv)
	sendEvent(t, publisher, EventBusLocationUpdate, LocationUpdate{
		BusID:     "bus-5678",
		Latitude:  30.0444,
		Longitude: 31.2357,
		Speed:     42,
	})

	ev := readEvent(t, supervisor)
	if ev.Name != EventBusLocationUpdated {
		t.Fatalf("got %q, want %q", ev.Name, EventBusLocationUpdated)
	}
	var update LocationUpdate
	if err := json.Unmarshal(ev.Data, &update); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if update.BusID != "bus-5678" || update.Speed != 42 {
		t.Errorf("payload fields not relayed: %+v", update)
	}
	if update.Timestamp == "" {
		t.Error("relay must stamp a server-side timestamp")
	}
}

func TestTopicBroadcastSkipsNonSubscribers(t *testing.T) {
	srv, _ := newRelayServer(t)

	// Authenticated passenger subscribed to bus-B only.
	passenger := dialRelay(t, srv)
	sendEvent(t, passenger, EventAuthenticate, AuthenticatePayload{Role: RolePassenger})
	readEvent(t, passenger)
	sendEvent(t, passenger, EventJoinBusTracking, BusTrackingPayload{BusID: "bus-B"})
	if ack := readEvent(t, passenger); ack.Name != EventJoinedBusTracking {
		t.Fatalf("got %q, want %q", ack.Name, EventJoinedBusTracking)
	}

	publisher := dialRelay(t, srv)
	sendEvent(t, publisher, EventBusLocationUpdate, LocationUpdate{BusID: "bus-A", Latitude: 1, Longitude: 1})
	sendEvent(t, publisher, EventBusLocationUpdate, LocationUpdate{BusID: "bus-B", Latitude: 2, Longitude: 2})

	// The first event the passenger sees must be for bus-B; the bus-A
	// update was scoped to supervisors and bus-A subscribers only.
	ev := readEvent(t, passenger)
	if ev.Name != EventBusLocationUpdated {
		t.Fatalf("got %q, want %q", ev.Name, EventBusLocationUpdated)
	}
	var update LocationUpdate
	json.Unmarshal(ev.Data, &update)
	if update.BusID != "bus-B" {
		t.Errorf("passenger received update for %q, want bus-B only", update.BusID)
	}
}

func TestLeaveNeverJoinedTopicAcksWithoutError(t *testing.T) {
	srv, _ := newRelayServer(t)

	conn := dialRelay(t, srv)
	sendEvent(t, conn, EventLeaveBusTracking, BusTrackingPayload{BusID: "ghost"})

	ev := readEvent(t, conn)
	if ev.Name != EventLeftBusTracking {
		t.Fatalf("got %q, want %q", ev.Name, EventLeftBusTracking)
	}
	var payload BusTrackingPayload
	json.Unmarshal(ev.Data, &payload)
	if payload.BusID != "ghost" {
		t.Errorf("ack busId = %q, want ghost", payload.BusID)
	}
}

func TestAlertRelayedToSupervisorWithTimestamp(t *testing.T) {
	srv, _ := newRelayServer(t)

	supervisor := dialRelay(t, srv)
	sendEvent(t, supervisor, EventAuthenticate, AuthenticatePayload{Role: RoleSupervisor})
	readEvent(t, supervisor)

	// The producer never authenticates; publishing is still allowed.
	producer := dialRelay(t, srv)
	sendEvent(t, producer, EventAlertCreated, Alert{
		Type:        "delay",
		Severity:    "medium",
		Title:       "Bus CA 5678 Delayed",
		Description: "Heavy traffic",
		BusID:       "bus-5678",
		Location:    "Nasr City",
	})

	ev := readEvent(t, supervisor)
	if ev.Name != EventNewAlert {
		t.Fatalf("got %q, want %q", ev.Name, EventNewAlert)
	}
	var alert Alert
	if err := json.Unmarshal(ev.Data, &alert); err != nil {
		t.Fatalf("decode alert: %v", err)
	}
	if alert.Type != "delay" || alert.Severity != "medium" || alert.Title != "Bus CA 5678 Delayed" ||
		alert.BusID != "bus-5678" || alert.Location != "Nasr City" {
		t.Errorf("alert fields not relayed: %+v", alert)
	}
	if _, err := time.Parse(time.RFC3339, alert.Timestamp); err != nil {
		t.Errorf("server timestamp %q is not RFC3339: %v", alert.Timestamp, err)
	}
}

func TestDelayReachesTripSubscribersAsTripDelayed(t *testing.T) {
	srv, _ := newRelayServer(t)

	tracker := dialRelay(t, srv)
	sendEvent(t, tracker, EventJoinTripTracking, TripTrackingPayload{TripID: "trip-1"})
	readEvent(t, tracker)

	producer := dialRelay(t, srv)
	sendEvent(t, producer, EventDelayCreated, Delay{
		TripID:       "trip-1",
		BusID:        "bus-9",
		DelayMinutes: 15,
		Reason:       "accident on ring road",
	})

	ev := readEvent(t, tracker)
	if ev.Name != EventTripDelayed {
		t.Fatalf("got %q, want %q", ev.Name, EventTripDelayed)
	}
	var delay Delay
	json.Unmarshal(ev.Data, &delay)
	if delay.DelayMinutes != 15 || delay.TripID != "trip-1" {
		t.Errorf("delay fields not relayed: %+v", delay)
	}
}

func TestSnapshotRequiresSupervisorRole(t *testing.T) {
	srv, _ := newRelayServer(t)

	passenger := dialRelay(t, srv)
	sendEvent(t, passenger, EventAuthenticate, AuthenticatePayload{Role: RolePassenger})
	readEvent(t, passenger)
	sendEvent(t, passenger, EventRequestRealTime, struct{}{})

	if ev := readEvent(t, passenger); ev.Name != EventError {
		t.Fatalf("got %q, want %q", ev.Name, EventError)
	}

	supervisor := dialRelay(t, srv)
	sendEvent(t, supervisor, EventAuthenticate, AuthenticatePayload{Role: RoleSupervisor})
	readEvent(t, supervisor)
	sendEvent(t, supervisor, EventRequestRealTime, struct{}{})

	ev := readEvent(t, supervisor)
	if ev.Name != EventRealTimeData {
		t.Fatalf("got %q, want %q", ev.Name, EventRealTimeData)
	}
	var snap RealTimeData
	json.Unmarshal(ev.Data, &snap)
	if snap.TotalPassengers != 1 {
		t.Errorf("TotalPassengers = %d, want 1", snap.TotalPassengers)
	}
}

func TestMalformedPayloadRejectedWithoutDroppingSession(t *testing.T) {
	srv, _ := newRelayServer(t)

	conn := dialRelay(t, srv)
	// Missing required busId.
	sendEvent(t, conn, EventBusLocationUpdate, map[string]interface{}{"latitude": 30.0})

	if ev := readEvent(t, conn); ev.Name != EventError {
		t.Fatalf("got %q, want %q", ev.Name, EventError)
	}

	// Session survives: a valid event still works.
	sendEvent(t, conn, EventJoinBusTracking, BusTrackingPayload{BusID: "bus-1"})
	if ev := readEvent(t, conn); ev.Name != EventJoinedBusTracking {
		t.Fatalf("got %q, want %q", ev.Name, EventJoinedBusTracking)
	}
}
