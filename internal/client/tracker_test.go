package client

import (
	"fmt"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"capital_transport/internal/relay"
)

func newTrackerServer(t *testing.T) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	hub := relay.NewHub()
	r := gin.New()
	r.GET("/ws/realtime", relay.NewHandler(hub).ServeWS)
	srv := httptest.NewServer(r)
	t.Cleanup(func() {
		srv.Close()
		hub.Close()
	})
	return srv
}

// waitFor polls until the condition holds or the deadline passes.
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func dialProducer(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv)+"/ws/realtime", nil)
	if err != nil {
		t.Fatalf("dial producer: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestTrackerAccumulatesLastWriteWinsState(t *testing.T) {
	srv := newTrackerServer(t)

	tracker := NewSupervisorTracker(NewAdapter(wsURL(srv) + "/ws/realtime"))
	if err := tracker.Start("sup-1"); err != nil {
		t.Fatalf("start tracker: %v", err)
	}
	defer tracker.Stop()

	producer := dialProducer(t, srv)

	// Two updates for the same bus: the tracker must keep the latest.
	producer.WriteJSON(relay.Event{Name: relay.EventBusLocationUpdate, Data: relay.LocationUpdate{
		BusID: "bus-1", Latitude: 30.0, Longitude: 31.0, Speed: 10,
	}})
	producer.WriteJSON(relay.Event{Name: relay.EventBusLocationUpdate, Data: relay.LocationUpdate{
		BusID: "bus-1", Latitude: 30.1, Longitude: 31.1, Speed: 20,
	}})

	waitFor(t, "second location to win", func() bool {
		loc, ok := tracker.BusLocation("bus-1")
		return ok && loc.Speed == 20
	})

	producer.WriteJSON(relay.Event{Name: relay.EventTripStatusUpdate, Data: relay.TripStatusUpdate{
		TripID: "trip-7", Status: "IN_TRANSIT", NextStop: "Ramses",
	}})

	waitFor(t, "trip status", func() bool {
		status, ok := tracker.TripStatus("trip-7")
		return ok && status.Status == "IN_TRANSIT"
	})
}

func TestTrackerKeepsBoundedRecentAlerts(t *testing.T) {
	srv := newTrackerServer(t)

	tracker := NewSupervisorTracker(NewAdapter(wsURL(srv) + "/ws/realtime"))
	if err := tracker.Start("sup-1"); err != nil {
		t.Fatalf("start tracker: %v", err)
	}
	defer tracker.Stop()

	producer := dialProducer(t, srv)
	for i := 0; i < recentEventCap+10; i++ {
		producer.WriteJSON(relay.Event{Name: relay.EventAlertCreated, Data: relay.Alert{
			Type:     "incident",
			Severity: "low",
			Title:    fmt.Sprintf("alert-%d", i),
		}})
	}

	newest := fmt.Sprintf("alert-%d", recentEventCap+9)
	waitFor(t, "alert buffer to fill", func() bool {
		alerts := tracker.RecentAlerts()
		// Most recent first, capped.
		return len(alerts) == recentEventCap && alerts[0].Title == newest
	})
}

func TestPrependCapsHistory(t *testing.T) {
	var history []relay.Delay
	for i := 0; i < recentEventCap*2; i++ {
		history = prependDelay(history, relay.Delay{TripID: fmt.Sprintf("t-%d", i)})
	}
	if len(history) != recentEventCap {
		t.Fatalf("history length = %d, want %d", len(history), recentEventCap)
	}
	if history[0].TripID != fmt.Sprintf("t-%d", recentEventCap*2-1) {
		t.Errorf("newest entry = %q, want most recent first", history[0].TripID)
	}
}
