package pubsub

import (
	"go.uber.org/zap"

	"github.com/rupaya/live/pkg/events"
	"github.com/rupaya/live/pkg/logging"
)

// handleMessage decodes one frame and delivers it: first to the notification
// sink when the kind is notification-worthy, then to every listener of the key
// in registration order.
func (m *Manager) handleMessage(c *channel, frame []byte) {
	m.mu.Lock()
	current := m.channels[c.key] == c
	var regs []*registration
	if current {
		regs = m.registry.snapshot(c.key)
	}
	m.mu.Unlock()

	if !current {
		m.logger.ComponentDebug(logging.ComponentPubSub, "dropping frame from closed channel",
			zap.String("key", c.key),
			zap.Int("bytes", len(frame)))
		return
	}

	msg, err := events.Decode(c.key, frame)
	if err != nil {
		m.logger.ComponentWarn(logging.ComponentPubSub, "dropping malformed frame",
			zap.String("key", c.key),
			zap.Int("bytes", len(frame)),
			zap.Error(err))
		return
	}

	if c.delivered.CompareAndSwap(false, true) {
		m.mu.Lock()
		if m.channels[c.key] == c {
			m.cancelRetryLocked(c.key)
		}
		m.mu.Unlock()
	}

	if msg.Notifiable() {
		m.notify(msg)
	}

	delivered := 0
	for _, reg := range regs {
		// unsubscribed after the snapshot was taken
		if !reg.live.Load() {
			continue
		}
		m.deliver(reg, msg)
		delivered++
	}

	m.logger.ComponentDebug(logging.ComponentPubSub, "message dispatched",
		zap.String("key", c.key),
		zap.String("type", string(msg.Type)),
		zap.Int("listeners", delivered))
}

func (m *Manager) notify(msg events.Message) {
	if m.sink == nil {
		return
	}
	n, ok := events.Summarize(msg)
	if !ok {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			m.logger.ComponentError(logging.ComponentNotify, "notification sink panicked",
				zap.String("key", msg.Key),
				zap.Any("panic", r))
		}
	}()
	m.sink.Notify(n.Message, n.Severity)
}

func (m *Manager) deliver(reg *registration, msg events.Message) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.ComponentError(logging.ComponentPubSub, "listener panicked",
				zap.String("key", msg.Key),
				zap.String("listener_id", string(reg.id)),
				zap.Any("panic", r))
		}
	}()
	reg.fn(msg)
}
