package pubsub

import (
	"sync"

	"go.uber.org/zap"

	"github.com/rupaya/live/pkg/errors"
	"github.com/rupaya/live/pkg/logging"
)

// Manager multiplexes listeners onto one channel per key. It opens the channel
// when the first listener for a key subscribes, fans every inbound message out to
// the key's listeners and closes the channel when the last one unsubscribes.
//
// A Manager is meant to be created once per session and shared by reference.
type Manager struct {
	factory   ConnectionFactory
	creds     CredentialSource
	sink      NotificationSink
	observer  StateObserver
	reconnect ReconnectPolicy
	logger    *logging.ColoredLogger

	mu       sync.Mutex
	registry *registry
	channels map[string]*channel
	retries  map[string]*retry
	closed   bool
}

// Option configures a Manager
type Option func(*Manager)

// WithLogger sets the logger; the default discards everything.
func WithLogger(l *logging.ColoredLogger) Option {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithNotificationSink sets where summaries of notification-worthy messages go.
func WithNotificationSink(s NotificationSink) Option {
	return func(m *Manager) { m.sink = s }
}

// WithStateObserver registers a callback for channel state transitions.
func WithStateObserver(o StateObserver) Option {
	return func(m *Manager) { m.observer = o }
}

// WithReconnect enables reopening channels closed by the transport while
// listeners remain.
func WithReconnect(p ReconnectPolicy) Option {
	return func(m *Manager) { m.reconnect = p }
}

// NewManager creates a new multiplexer
func NewManager(factory ConnectionFactory, creds CredentialSource, opts ...Option) *Manager {
	m := &Manager{
		factory:  factory,
		creds:    creds,
		logger:   logging.NewNop(),
		registry: newRegistry(),
		channels: make(map[string]*channel),
		retries:  make(map[string]*retry),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// State returns the lifecycle state of the channel for key.
func (m *Manager) State(key string) ChannelState {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.channels[key]; ok {
		return c.state
	}
	return StateAbsent
}

// ListKeys returns all keys that currently have listeners
func (m *Manager) ListKeys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.registry.keys()
}

// ListenerCount returns the number of listeners registered for key.
func (m *Manager) ListenerCount(key string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.registry.count(key)
}

// Dormant returns the keys that have listeners but no channel, sorted.
func (m *Manager) Dormant() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var keys []string
	for _, key := range m.registry.keys() {
		if _, ok := m.channels[key]; !ok {
			keys = append(keys, key)
		}
	}
	return keys
}

// Resume opens a channel for every dormant key and returns how many it started.
// Call it once a credential becomes available.
func (m *Manager) Resume() int {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return 0
	}
	var pending []*channel
	for _, key := range m.registry.keys() {
		if c := m.reserveLocked(key); c != nil {
			pending = append(pending, c)
		}
	}
	m.mu.Unlock()

	for _, c := range pending {
		m.open(c)
	}
	if len(pending) > 0 {
		m.logger.ComponentInfo(logging.ComponentPubSub, "resumed dormant channels",
			zap.Int("count", len(pending)))
	}
	return len(pending)
}

// Close closes every channel and drops every subscription. Subscribe fails afterwards.
func (m *Manager) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true

	evictions := make([]eviction, 0, len(m.channels))
	for _, c := range m.channels {
		evictions = append(evictions, m.evictLocked(c))
	}
	for key := range m.retries {
		m.cancelRetryLocked(key)
	}
	m.registry.removeAll()
	m.mu.Unlock()

	for _, ev := range evictions {
		m.finishEviction(ev)
	}
	m.logger.ComponentInfo(logging.ComponentPubSub, "manager closed",
		zap.Int("channels_closed", len(evictions)))
	return nil
}

func (m *Manager) credential() (string, error) {
	if m.creds == nil {
		return "", errors.NewUnauthenticatedError("", nil)
	}
	token, err := m.creds.Credential()
	if err != nil {
		return "", err
	}
	if token == "" {
		return "", errors.NewUnauthenticatedError("", nil)
	}
	return token, nil
}

func (m *Manager) emit(key string, from, to ChannelState) {
	m.logger.ComponentDebug(logging.ComponentPubSub, "channel state changed",
		zap.String("key", key),
		zap.Stringer("from", from),
		zap.Stringer("to", to))
	if m.observer != nil {
		m.observer(key, from, to)
	}
}
