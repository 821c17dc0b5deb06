// Package hub is a development push server: it keeps one websocket per
// subscriber per group and broadcasts group events to them.
package hub

import (
	"sort"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rupaya/live/pkg/logging"
)

// Client is one connected subscriber. send is closed exactly once, by whoever
// removes the client from its group.
type Client struct {
	id      string
	group   string
	subject string
	send    chan []byte
}

// ID returns the connection identity.
func (c *Client) ID() string { return c.id }

// Messages yields the frames queued for the subscriber. It is closed when the
// subscriber is disconnected.
func (c *Client) Messages() <-chan []byte { return c.send }

// Hub tracks the connected subscribers of every group.
type Hub struct {
	mu         sync.RWMutex
	groups     map[string]map[string]*Client
	sendBuffer int
	logger     *logging.ColoredLogger
}

// NewHub creates a hub whose clients queue at most sendBuffer frames.
func NewHub(sendBuffer int, logger *logging.ColoredLogger) *Hub {
	if sendBuffer <= 0 {
		sendBuffer = 64
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Hub{
		groups:     make(map[string]map[string]*Client),
		sendBuffer: sendBuffer,
		logger:     logger,
	}
}

// Connect registers a new subscriber for group.
func (h *Hub) Connect(group, subject string) *Client {
	c := &Client{
		id:      uuid.New().String(),
		group:   group,
		subject: subject,
		send:    make(chan []byte, h.sendBuffer),
	}

	h.mu.Lock()
	members, ok := h.groups[group]
	if !ok {
		members = make(map[string]*Client)
		h.groups[group] = members
	}
	members[c.id] = c
	total := len(members)
	h.mu.Unlock()

	h.logger.ComponentInfo(logging.ComponentHub, "subscriber connected",
		zap.String("group", group),
		zap.String("conn_id", c.id),
		zap.Int("connections", total))
	return c
}

// Disconnect removes c. It is a no-op when c was already removed.
func (h *Hub) Disconnect(c *Client) {
	h.mu.Lock()
	removed := h.removeLocked(c)
	remaining := len(h.groups[c.group])
	h.mu.Unlock()

	if removed {
		h.logger.ComponentInfo(logging.ComponentHub, "subscriber disconnected",
			zap.String("group", c.group),
			zap.String("conn_id", c.id),
			zap.Int("remaining", remaining))
	}
}

func (h *Hub) removeLocked(c *Client) bool {
	members, ok := h.groups[c.group]
	if !ok || members[c.id] != c {
		return false
	}
	delete(members, c.id)
	close(c.send)
	if len(members) == 0 {
		delete(h.groups, c.group)
	}
	return true
}

// Broadcast queues frame for every subscriber of group and returns how many
// accepted it. Subscribers whose queue is full are disconnected.
func (h *Hub) Broadcast(group string, frame []byte) int {
	h.mu.Lock()
	delivered := 0
	var dropped []*Client
	for _, c := range h.groups[group] {
		select {
		case c.send <- frame:
			delivered++
		default:
			dropped = append(dropped, c)
		}
	}
	for _, c := range dropped {
		h.removeLocked(c)
	}
	h.mu.Unlock()

	for _, c := range dropped {
		h.logger.ComponentWarn(logging.ComponentHub, "subscriber too slow, disconnected",
			zap.String("group", group),
			zap.String("conn_id", c.id))
	}
	h.logger.ComponentDebug(logging.ComponentHub, "broadcast",
		zap.String("group", group),
		zap.Int("bytes", len(frame)),
		zap.Int("delivered", delivered))
	return delivered
}

// Count returns the number of subscribers of group.
func (h *Hub) Count(group string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.groups[group])
}

// Groups returns every group with at least one subscriber, sorted.
func (h *Hub) Groups() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]string, 0, len(h.groups))
	for g := range h.groups {
		out = append(out, g)
	}
	sort.Strings(out)
	return out
}

// Close disconnects every subscriber.
func (h *Hub) Close() {
	h.mu.Lock()
	n := 0
	for _, members := range h.groups {
		for _, c := range members {
			h.removeLocked(c)
			n++
		}
	}
	h.mu.Unlock()

	h.logger.ComponentInfo(logging.ComponentHub, "hub closed",
		zap.Int("connections", n))
}
