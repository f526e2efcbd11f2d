package client

import (
	"encoding/json"
	"sync"

	"github.com/sirupsen/logrus"

	"capital_transport/internal/relay"
)

// recentEventCap bounds the alert/delay history each tracker retains.
const recentEventCap = 50

// SupervisorTracker is the room-based adapter: it authenticates as
// SUPERVISOR once per lifetime, folds location and trip-status updates
// into last-write-wins maps, and keeps bounded most-recent-first buffers
// of alerts and delays. Listener callbacks arrive on the adapter's read
// goroutine, so all state is mutex-guarded.
type SupervisorTracker struct {
	adapter *Adapter

	mu            sync.Mutex
	busLocations  map[string]relay.LocationUpdate
	tripStatuses  map[string]relay.TripStatusUpdate
	recentAlerts  []relay.Alert
	recentDelays  []relay.Delay
	subscriptions []*Subscription
}

// NewSupervisorTracker wires a tracker onto an adapter. Call Start to
// connect and authenticate.
func NewSupervisorTracker(adapter *Adapter) *SupervisorTracker {
	return &SupervisorTracker{
		adapter:      adapter,
		busLocations: make(map[string]relay.LocationUpdate),
		tripStatuses: make(map[string]relay.TripStatusUpdate),
	}
}

// Start connects the adapter, authenticates as SUPERVISOR and registers
// the accumulating listeners.
func (t *SupervisorTracker) Start(userID string) error {
	t.subscriptions = append(t.subscriptions,
		t.adapter.Subscribe(relay.EventBusLocationUpdated, t.onBusLocation),
		t.adapter.Subscribe(relay.EventTripStatusUpdated, t.onTripStatus),
		t.adapter.Subscribe(relay.EventNewAlert, t.onAlert),
		t.adapter.Subscribe(relay.EventNewDelay, t.onDelay),
		t.adapter.Subscribe(EventConnected, func(Message) {
			// Re-authenticate on every (re)connection.
			t.authenticate(userID)
		}),
	)

	if err := t.adapter.Connect(); err != nil {
		return err
	}
	return nil
}

// Stop removes the tracker's listeners and closes the adapter.
func (t *SupervisorTracker) Stop() {
	for _, sub := range t.subscriptions {
		sub.Unsubscribe()
	}
	t.subscriptions = nil
	t.adapter.Close()
}

func (t *SupervisorTracker) authenticate(userID string) {
	err := t.adapter.Send(relay.EventAuthenticate, relay.AuthenticatePayload{
		Role:   relay.RoleSupervisor,
		UserID: userID,
	})
	if err != nil {
		logrus.WithError(err).Warn("Supervisor authentication send failed.")
	}
}

func (t *SupervisorTracker) onBusLocation(msg Message) {
	var update relay.LocationUpdate
	if err := json.Unmarshal(msg.Data, &update); err != nil {
		logrus.WithError(err).Warn("Dropping undecodable bus location.")
		return
	}
	t.mu.Lock()
	t.busLocations[update.BusID] = update
	t.mu.Unlock()
}

func (t *SupervisorTracker) onTripStatus(msg Message) {
	var update relay.TripStatusUpdate
	if err := json.Unmarshal(msg.Data, &update); err != nil {
		logrus.WithError(err).Warn("Dropping undecodable trip status.")
		return
	}
	t.mu.Lock()
	t.tripStatuses[update.TripID] = update
	t.mu.Unlock()
}

func (t *SupervisorTracker) onAlert(msg Message) {
	var alert relay.Alert
	if err := json.Unmarshal(msg.Data, &alert); err != nil {
		logrus.WithError(err).Warn("Dropping undecodable alert.")
		return
	}
	t.mu.Lock()
	t.recentAlerts = prependAlert(t.recentAlerts, alert)
	t.mu.Unlock()
}

func (t *SupervisorTracker) onDelay(msg Message) {
	var delay relay.Delay
	if err := json.Unmarshal(msg.Data, &delay); err != nil {
		logrus.WithError(err).Warn("Dropping undecodable delay.")
		return
	}
	t.mu.Lock()
	t.recentDelays = prependDelay(t.recentDelays, delay)
	t.mu.Unlock()
}

// BusLocation returns the last observed location for a bus.
func (t *SupervisorTracker) BusLocation(busID string) (relay.LocationUpdate, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	update, ok := t.busLocations[busID]
	return update, ok
}

// TripStatus returns the last observed status for a trip.
func (t *SupervisorTracker) TripStatus(tripID string) (relay.TripStatusUpdate, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	update, ok := t.tripStatuses[tripID]
	return update, ok
}

// RecentAlerts returns the bounded alert history, most recent first.
func (t *SupervisorTracker) RecentAlerts() []relay.Alert {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]relay.Alert, len(t.recentAlerts))
	copy(out, t.recentAlerts)
	return out
}

// RecentDelays returns the bounded delay history, most recent first.
func (t *SupervisorTracker) RecentDelays() []relay.Delay {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]relay.Delay, len(t.recentDelays))
	copy(out, t.recentDelays)
	return out
}

// CreateAlert emits an alert without waiting for acknowledgment.
func (t *SupervisorTracker) CreateAlert(alert relay.Alert) error {
	return t.adapter.Send(relay.EventAlertCreated, alert)
}

// CreateDelay emits a delay without waiting for acknowledgment.
func (t *SupervisorTracker) CreateDelay(delay relay.Delay) error {
	return t.adapter.Send(relay.EventDelayCreated, delay)
}

// SendLocation emits a bus location ping without waiting for acknowledgment.
func (t *SupervisorTracker) SendLocation(update relay.LocationUpdate) error {
	return t.adapter.Send(relay.EventBusLocationUpdate, update)
}

func prependAlert(history []relay.Alert, alert relay.Alert) []relay.Alert {
	history = append([]relay.Alert{alert}, history...)
	if len(history) > recentEventCap {
		history = history[:recentEventCap]
	}
	return history
}

func prependDelay(history []relay.Delay, delay relay.Delay) []relay.Delay {
	history = append([]relay.Delay{delay}, history...)
	if len(history) > recentEventCap {
		history = history[:recentEventCap]
	}
	return history
}
