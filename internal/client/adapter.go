package client

import (
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"capital_transport/internal/relay"
)

// State is the adapter's connection lifecycle state. Transitions are
// driven by transport events and the reconnect timer:
// Disconnected → Connecting → Connected → Reconnecting → Failed.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
	StateReconnecting
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateReconnecting:
		return "reconnecting"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

// Synthetic event names emitted by the adapter itself, alongside the
// relay's server events.
const (
	EventConnected           = "connected"
	EventDisconnected        = "disconnected"
	EventMaxReconnectReached = "max_reconnect_reached"
)

const (
	defaultMaxReconnectAttempts = 5
	defaultReconnectBaseDelay   = 1000 * time.Millisecond
)

// Message is one inbound frame with its payload still raw, so each
// listener can decode the shape it expects.
type Message struct {
	Name string          `json:"event"`
	Data json.RawMessage `json:"data"`
}

// Listener consumes inbound messages for one event name.
type Listener func(Message)

// Subscription is the token returned by Subscribe; calling Unsubscribe
// removes the listener without needing the original callback reference.
type Subscription struct {
	adapter *Adapter
	event   string
	token   int
}

// Unsubscribe removes the listener. Safe to call more than once.
func (s *Subscription) Unsubscribe() {
	s.adapter.mu.Lock()
	defer s.adapter.mu.Unlock()
	if listeners, ok := s.adapter.listeners[s.event]; ok {
		delete(listeners, s.token)
		if len(listeners) == 0 {
			delete(s.adapter.listeners, s.event)
		}
	}
}

// Adapter is a relay client with an explicit reconnect state machine.
// On unexpected close it retries with linearly increasing delay
// (attempt × base) up to a fixed ceiling, then emits a terminal
// max_reconnect_reached event and stays in StateFailed.
type Adapter struct {
	url         string
	baseDelay   time.Duration
	maxAttempts int
	dialer      *websocket.Dialer

	mu        sync.Mutex
	state     State
	conn      *websocket.Conn
	listeners map[string]map[int]Listener
	nextToken int
	attempt   int
	closed    bool
}

// NewAdapter creates an adapter for the given websocket URL with the
// default reconnect policy (5 attempts, 1s base delay).
func NewAdapter(url string) *Adapter {
	return &Adapter{
		url:         url,
		baseDelay:   defaultReconnectBaseDelay,
		maxAttempts: defaultMaxReconnectAttempts,
		dialer:      websocket.DefaultDialer,
		listeners:   make(map[string]map[int]Listener),
	}
}

// SetReconnectPolicy overrides the attempt ceiling and base delay.
// Must be called before Connect.
func (a *Adapter) SetReconnectPolicy(maxAttempts int, baseDelay time.Duration) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.maxAttempts = maxAttempts
	a.baseDelay = baseDelay
}

// State reports the adapter's current lifecycle state.
func (a *Adapter) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// Subscribe registers a listener for the named event and returns its
// unsubscribe token.
func (a *Adapter) Subscribe(event string, fn Listener) *Subscription {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.listeners[event]; !ok {
		a.listeners[event] = make(map[int]Listener)
	}
	a.nextToken++
	a.listeners[event][a.nextToken] = fn
	return &Subscription{adapter: a, event: event, token: a.nextToken}
}

// Connect dials the relay. The initial dial failure is returned to the
// caller; reconnect logic only engages after a connection was lost.
func (a *Adapter) Connect() error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return errors.New("adapter closed")
	}
	a.state = StateConnecting
	a.mu.Unlock()

	conn, _, err := a.dialer.Dial(a.url, nil)
	if err != nil {
		a.mu.Lock()
		a.state = StateDisconnected
		a.mu.Unlock()
		return err
	}

	a.mu.Lock()
	a.conn = conn
	a.state = StateConnected
	a.attempt = 0
	a.mu.Unlock()

	a.emit(Message{Name: EventConnected})
	go a.readLoop(conn)
	return nil
}

// Send emits an event to the relay without waiting for acknowledgment.
func (a *Adapter) Send(name string, payload interface{}) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.conn == nil || a.state != StateConnected {
		return errors.New("adapter not connected")
	}
	return a.conn.WriteJSON(relay.Event{Name: name, Data: payload})
}

// Close shuts the adapter down; no reconnect is attempted afterwards.
func (a *Adapter) Close() error {
	a.mu.Lock()
	a.closed = true
	a.state = StateDisconnected
	conn := a.conn
	a.conn = nil
	a.mu.Unlock()
	if conn != nil {
		return conn.Close()
	}
	return nil
}

// readLoop pumps inbound frames to listeners until the connection drops,
// then hands control to the reconnect machinery.
func (a *Adapter) readLoop(conn *websocket.Conn) {
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			a.mu.Lock()
			closed := a.closed
			a.mu.Unlock()
			if closed {
				return
			}
			logrus.WithError(err).Warn("Relay connection lost.")
			a.emit(Message{Name: EventDisconnected})
			a.scheduleReconnect()
			return
		}
		var msg Message
		if err := json.Unmarshal(raw, &msg); err != nil {
			logrus.WithError(err).Warn("Dropping undecodable relay frame.")
			continue
		}
		a.emit(msg)
	}
}

// nextDelay is the linear backoff before the given attempt number
// (1-based): attempt × base.
func (a *Adapter) nextDelay(attempt int) time.Duration {
	return time.Duration(attempt) * a.baseDelay
}

// scheduleReconnect runs the retry loop. Only one retry sequence is ever
// active: it is entered solely from the single readLoop exit path.
func (a *Adapter) scheduleReconnect() {
	for {
		a.mu.Lock()
		if a.closed {
			a.mu.Unlock()
			return
		}
		a.attempt++
		attempt := a.attempt
		maxAttempts := a.maxAttempts
		if attempt > maxAttempts {
			a.state = StateFailed
			a.mu.Unlock()
			logrus.WithField("attempts", maxAttempts).Error("Max reconnect attempts reached, giving up.")
			a.emit(Message{Name: EventMaxReconnectReached})
			return
		}
		a.state = StateReconnecting
		delay := a.nextDelay(attempt)
		a.mu.Unlock()

		logrus.WithFields(logrus.Fields{
			"attempt": attempt,
			"delay":   delay,
		}).Info("Reconnecting to relay.")
		time.Sleep(delay)

		conn, _, err := a.dialer.Dial(a.url, nil)
		if err != nil {
			continue
		}

		a.mu.Lock()
		if a.closed {
			a.mu.Unlock()
			conn.Close()
			return
		}
		a.conn = conn
		a.state = StateConnected
		a.attempt = 0
		a.mu.Unlock()

		a.emit(Message{Name: EventConnected})
		go a.readLoop(conn)
		return
	}
}

// emit delivers a message to every listener registered for its name.
// Listeners run on the adapter's read goroutine; they must not block.
func (a *Adapter) emit(msg Message) {
	a.mu.Lock()
	listeners := make([]Listener, 0, len(a.listeners[msg.Name]))
	for _, fn := range a.listeners[msg.Name] {
		listeners = append(listeners, fn)
	}
	a.mu.Unlock()
	for _, fn := range listeners {
		fn(msg)
	}
}
