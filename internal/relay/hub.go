package relay

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Client is a live socket session tracked by the Hub. The hub never
// touches the transport directly; the connection's write pump drains Send.
type Client struct {
	ID     string
	Role   Role
	UserID string

	// topics this client has explicitly joined ("bus_<id>", "trip_<id>")
	topics map[string]bool

	Send chan Event
}

// delivery is one fan-out unit queued on the hub's broadcast channel.
type delivery struct {
	// groups are the broadcast scopes for this event: role groups
	// ("role:SUPERVISOR"), topics ("topic:bus_12") and users ("user:42").
	groups []string
	event  Event
}

const (
	rolePrefix  = "role:"
	topicPrefix = "topic:"
	userPrefix  = "user:"
)

// Hub is the single-writer connection registry and broadcaster.
// It is constructed once at server start and injected into the transport
// layer; all membership state lives here and dies with the process.
type Hub struct {
	mu      sync.Mutex
	nextID  uint64
	clients map[string]*Client
	// groupKey → member set, covering role, topic and user groups
	groups map[string]map[*Client]bool

	broadcast chan delivery
	done      chan struct{}
}

// NewHub creates a hub and starts its broadcast goroutine.
func NewHub() *Hub {
	h := &Hub{
		clients:   make(map[string]*Client),
		groups:    make(map[string]map[*Client]bool),
		broadcast: make(chan delivery, 100),
		done:      make(chan struct{}),
	}
	go h.run()
	return h
}

// Close stops the broadcast goroutine. Pending deliveries are dropped.
func (h *Hub) Close() {
	close(h.done)
}

// run drains the broadcast channel and fans each event out to every
// member of the event's groups. A client is delivered at most once per
// event even when it belongs to several matching groups.
func (h *Hub) run() {
	for {
		select {
		case d := <-h.broadcast:
			h.mu.Lock()
			seen := make(map[*Client]bool)
			for _, key := range d.groups {
				for client := range h.groups[key] {
					if seen[client] {
						continue
					}
					seen[client] = true
					select {
					case client.Send <- d.event:
					default:
						logrus.WithFields(logrus.Fields{
							"conn_id": client.ID,
							"event":   d.event.Name,
						}).Warn("Client send buffer full, dropping event.")
					}
				}
			}
			h.mu.Unlock()
		case <-h.done:
			return
		}
	}
}

// Register creates a new unauthenticated connection record.
func (h *Hub) Register() *Client {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.nextID++
	client := &Client{
		ID:     fmt.Sprintf("conn-%d", h.nextID),
		topics: make(map[string]bool),
		Send:   make(chan Event, 64),
	}
	h.clients[client.ID] = client
	logrus.WithField("conn_id", client.ID).Info("Client registered with relay hub.")
	return client
}

// Unregister removes the connection and all its group memberships and
// closes its send channel. Other parties are not notified.
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[client.ID]; !ok {
		return
	}
	delete(h.clients, client.ID)
	for key, members := range h.groups {
		delete(members, client)
		if len(members) == 0 {
			delete(h.groups, key)
		}
	}
	close(client.Send)
	logrus.WithFields(logrus.Fields{
		"conn_id": client.ID,
		"role":    client.Role,
	}).Info("Client unregistered from relay hub.")
}

// Authenticate binds a role (and optional user) to the connection and
// places it in the role-wide group. A missing userId is not an error.
func (h *Hub) Authenticate(client *Client, role Role, userID string) {
	h.mu.Lock()
	if client.Role != "" {
		// Re-authentication replaces the previous role group membership.
		h.leaveGroupLocked(rolePrefix+string(client.Role), client)
	}
	client.Role = role
	client.UserID = userID
	h.joinGroupLocked(rolePrefix+string(role), client)
	if userID != "" {
		h.joinGroupLocked(userPrefix+userID, client)
	}
	h.mu.Unlock()

	logrus.WithFields(logrus.Fields{
		"conn_id": client.ID,
		"role":    role,
		"user_id": userID,
	}).Info("Client authenticated with relay hub.")
}

// JoinTopic subscribes the connection to a bus/trip topic. Re-joining an
// already joined topic is a no-op beyond the caller's re-acknowledgment.
func (h *Hub) JoinTopic(client *Client, topic string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	client.topics[topic] = true
	h.joinGroupLocked(topicPrefix+topic, client)
}

// LeaveTopic unsubscribes the connection from a topic. Leaving a topic
// that was never joined is a no-op.
func (h *Hub) LeaveTopic(client *Client, topic string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(client.topics, topic)
	h.leaveGroupLocked(topicPrefix+topic, client)
}

func (h *Hub) joinGroupLocked(key string, client *Client) {
	if _, ok := h.groups[key]; !ok {
		h.groups[key] = make(map[*Client]bool)
	}
	h.groups[key][client] = true
}

func (h *Hub) leaveGroupLocked(key string, client *Client) {
	if members, ok := h.groups[key]; ok {
		delete(members, client)
		if len(members) == 0 {
			delete(h.groups, key)
		}
	}
}

// BroadcastToRole queues an event for every connection holding the role.
func (h *Hub) BroadcastToRole(role Role, event Event) {
	h.publish(delivery{groups: []string{rolePrefix + string(role)}, event: event})
}

// BroadcastToTopic queues an event for every subscriber of the topic.
func (h *Hub) BroadcastToTopic(topic string, event Event) {
	h.publish(delivery{groups: []string{topicPrefix + topic}, event: event})
}

// BroadcastToRoleAndTopic queues one event delivered at most once per
// connection across the role group and the topic group.
func (h *Hub) BroadcastToRoleAndTopic(role Role, topic string, event Event) {
	h.publish(delivery{
		groups: []string{rolePrefix + string(role), topicPrefix + topic},
		event:  event,
	})
}

// SendToUser queues an event for every connection bound to the user.
func (h *Hub) SendToUser(userID string, event Event) {
	h.publish(delivery{groups: []string{userPrefix + userID}, event: event})
}

func (h *Hub) publish(d delivery) {
	select {
	case h.broadcast <- d:
	default:
		logrus.WithField("event", d.event.Name).Warn("Relay broadcast channel full, dropping event. Consider increasing buffer size or processing rate.")
	}
}

// Snapshot summarises the hub's ephemeral state for supervisor dashboards.
// Counts come from live group membership, not persisted records.
func (h *Hub) Snapshot() RealTimeData {
	h.mu.Lock()
	defer h.mu.Unlock()

	activeBuses := 0
	activeTrips := 0
	for key, members := range h.groups {
		if len(members) == 0 {
			continue
		}
		switch {
		case strings.HasPrefix(key, topicPrefix+"bus_"):
			activeBuses++
		case strings.HasPrefix(key, topicPrefix+"trip_"):
			activeTrips++
		}
	}

	totalPassengers := len(h.groups[rolePrefix+string(RolePassenger)])

	return RealTimeData{
		Timestamp:       time.Now().UTC().Format(time.RFC3339),
		ActiveBuses:     activeBuses,
		ActiveTrips:     activeTrips,
		TotalPassengers: totalPassengers,
	}
}

// ConnectionCount reports the number of live connections.
func (h *Hub) ConnectionCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}
