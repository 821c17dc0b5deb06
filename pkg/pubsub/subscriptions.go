package pubsub

import (
	"sync"

	"go.uber.org/zap"

	"github.com/rupaya/live/pkg/errors"
	"github.com/rupaya/live/pkg/logging"
)

// Subscription is the handle returned by Subscribe.
type Subscription struct {
	m    *Manager
	key  string
	reg  *registration
	once sync.Once
}

// Key returns the channel key the subscription is bound to.
func (s *Subscription) Key() string { return s.key }

// ID returns the listener identity of the subscription.
func (s *Subscription) ID() ListenerID { return s.reg.id }

// Unsubscribe removes the listener. Once it returns, no dispatch that starts
// afterwards reaches the listener, including frames already in flight at the
// transport. A delivery that another goroutine had already begun may still
// finish; Unsubscribe does not wait for it, so it is safe to call from inside
// the listener. Calling it again has no effect.
func (s *Subscription) Unsubscribe() {
	s.once.Do(func() {
		s.m.unsubscribe(s.key, s.reg)
	})
}

// Subscribe registers listener for key with a fresh identity.
// The channel for key is opened in the background when this is the first
// listener; connection failures are never reported here, they only show up as
// an absence of messages. An error is returned only for an empty key, a nil
// listener or a closed manager.
func (m *Manager) Subscribe(key string, listener Listener) (*Subscription, error) {
	return m.SubscribeWithID(key, NewListenerID(), listener)
}

// SubscribeWithID registers listener for key under id. If id is already
// registered for key the existing registration is kept and messages are still
// delivered to it once; both handles then refer to that single registration.
func (m *Manager) SubscribeWithID(key string, id ListenerID, listener Listener) (*Subscription, error) {
	if key == "" {
		return nil, errors.NewValidationError("key", "must not be empty", key)
	}
	if id == "" {
		return nil, errors.NewValidationError("id", "must not be empty", id)
	}
	if listener == nil {
		return nil, errors.NewValidationError("listener", "must not be nil", nil)
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil, errors.NewClosedError("pubsub manager")
	}
	reg, added := m.registry.add(key, id, listener)
	count := m.registry.count(key)
	pending := m.reserveLocked(key)
	m.mu.Unlock()

	if !added {
		m.logger.ComponentDebug(logging.ComponentPubSub, "listener already registered",
			zap.String("key", key),
			zap.String("listener_id", string(id)))
	} else {
		m.logger.ComponentInfo(logging.ComponentPubSub, "listener subscribed",
			zap.String("key", key),
			zap.Int("listeners", count))
	}

	if pending != nil {
		m.open(pending)
	}
	return &Subscription{m: m, key: key, reg: reg}, nil
}

func (m *Manager) unsubscribe(key string, reg *registration) {
	m.mu.Lock()
	removed, empty := m.registry.remove(key, reg)
	var ev eviction
	teardown := false
	if removed && empty {
		m.cancelRetryLocked(key)
		if c, ok := m.channels[key]; ok {
			ev = m.evictLocked(c)
			teardown = true
		}
	}
	remaining := m.registry.count(key)
	m.mu.Unlock()

	if !removed {
		return
	}
	m.logger.ComponentInfo(logging.ComponentPubSub, "listener unsubscribed",
		zap.String("key", key),
		zap.Int("remaining_listeners", remaining))
	if teardown {
		m.finishEviction(ev)
	}
}
