package pubsub

import (
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/rupaya/live/pkg/errors"
	"github.com/rupaya/live/pkg/logging"
)

// channel is the Manager's record of the connection behind one key. It is also
// the ChannelHandler given to the factory, so transport events always identify
// the exact record they belong to; events from a record that was already
// evicted are ignored.
type channel struct {
	m     *Manager
	key   string
	state ChannelState // guarded by m.mu
	conn  Channel      // guarded by m.mu; nil until the factory returns

	openedAt time.Time // guarded by m.mu; zero until OnOpen
	lastErr  error     // guarded by m.mu; last failure reported for this record

	// delivered is set by the first message that decodes.
	delivered atomic.Bool
}

func (c *channel) OnOpen()                { c.m.handleOpen(c) }
func (c *channel) OnMessage(frame []byte) { c.m.handleMessage(c, frame) }
func (c *channel) OnError(err error)      { c.m.handleError(c, err) }
func (c *channel) OnClose()               { c.m.handleClose(c) }

// eviction carries what must happen after a channel record left the table.
type eviction struct {
	key  string
	from ChannelState
	conn Channel
}

// classify gives failures that carry no code the transport code, so the
// reconnect policy treats them as transient.
func classify(key, op string, err error) error {
	if err == nil || errors.GetErrorCode(err) != errors.CodeInternal {
		return err
	}
	return errors.NewTransportError(key, op, err)
}

// reserveLocked inserts a channel record for key if key has listeners and no
// channel. The record stays in StateAbsent until open has a credential.
func (m *Manager) reserveLocked(key string) *channel {
	if _, ok := m.channels[key]; ok {
		return nil
	}
	if m.registry.count(key) == 0 {
		return nil
	}
	c := &channel{m: m, key: key, state: StateAbsent}
	m.channels[key] = c
	return c
}

// open drives a reserved record through Absent -> Opening. It must be called
// without m.mu held: the factory may report events synchronously.
func (m *Manager) open(c *channel) {
	token, err := m.credential()
	if err != nil {
		m.logger.ComponentWarn(logging.ComponentPubSub, "no credential, key stays dormant",
			zap.String("key", c.key),
			zap.String("code", errors.GetErrorCode(err)),
			zap.Error(err))
		m.mu.Lock()
		if m.channels[c.key] == c && c.state == StateAbsent {
			delete(m.channels, c.key)
			// a reconnect in progress keeps trying until the credential is back
			if _, retrying := m.retries[c.key]; retrying {
				m.scheduleRetryLocked(c.key)
			}
		}
		m.mu.Unlock()
		return
	}

	m.mu.Lock()
	if m.channels[c.key] != c {
		// every listener left while the credential was looked up
		m.mu.Unlock()
		return
	}
	c.state = StateOpening
	m.mu.Unlock()
	m.emit(c.key, StateAbsent, StateOpening)

	conn, err := m.factory.Open(c.key, token, c)
	if err != nil {
		m.logger.ComponentWarn(logging.ComponentPubSub, "failed to open channel",
			zap.String("key", c.key),
			zap.Error(err))
		m.mu.Lock()
		if m.channels[c.key] == c {
			c.lastErr = classify(c.key, "open", err)
		}
		m.mu.Unlock()
		m.evict(c, true)
		return
	}

	m.mu.Lock()
	current := m.channels[c.key] == c
	if current {
		c.conn = conn
	}
	m.mu.Unlock()
	if !current {
		// evicted while the factory was running
		_ = conn.Close()
	}
}

// evictLocked removes c from the table. The caller must hand the result to
// finishEviction after releasing m.mu.
func (m *Manager) evictLocked(c *channel) eviction {
	ev := eviction{key: c.key, from: c.state, conn: c.conn}
	c.state = StateClosing
	delete(m.channels, c.key)
	return ev
}

func (m *Manager) finishEviction(ev eviction) {
	if ev.from != StateAbsent {
		m.emit(ev.key, ev.from, StateClosing)
	}
	if ev.conn != nil {
		if err := ev.conn.Close(); err != nil {
			m.logger.ComponentDebug(logging.ComponentPubSub, "channel close returned error",
				zap.String("key", ev.key),
				zap.Error(err))
		}
	}
	if ev.from != StateAbsent {
		m.emit(ev.key, StateClosing, StateAbsent)
	}
}

// evict removes c if it is still current. Involuntary evictions leave the
// listeners in place and may schedule a reconnect. A failure that is not
// retryable, such as a rejected credential, ends any reconnect in progress.
func (m *Manager) evict(c *channel, involuntary bool) {
	m.mu.Lock()
	if m.channels[c.key] != c {
		m.mu.Unlock()
		return
	}
	stable := c.state == StateOpen && time.Since(c.openedAt) >= m.reconnect.stableAfter()
	cause := c.lastErr
	ev := m.evictLocked(c)
	remaining := m.registry.count(c.key)
	dormant := involuntary && remaining > 0
	retryable := cause == nil || errors.ShouldRetry(cause)
	if dormant {
		if stable || !retryable {
			m.cancelRetryLocked(c.key)
		}
		if retryable {
			m.scheduleRetryLocked(c.key)
		}
	}
	m.mu.Unlock()

	if dormant {
		m.logger.ComponentWarn(logging.ComponentPubSub, "channel lost, listeners dormant",
			zap.String("key", c.key),
			zap.Int("listeners", remaining),
			zap.String("code", errors.GetErrorCode(cause)),
			zap.Bool("retryable", retryable))
	}
	m.finishEviction(ev)
}

func (m *Manager) handleOpen(c *channel) {
	m.mu.Lock()
	if m.channels[c.key] != c || c.state != StateOpening {
		m.mu.Unlock()
		return
	}
	c.state = StateOpen
	c.openedAt = time.Now()
	m.mu.Unlock()

	m.emit(c.key, StateOpening, StateOpen)
	m.logger.ComponentInfo(logging.ComponentPubSub, "channel open",
		zap.String("key", c.key))
}

func (m *Manager) handleError(c *channel, err error) {
	err = classify(c.key, "read", err)
	m.mu.Lock()
	current := m.channels[c.key] == c
	if current {
		c.lastErr = err
	}
	m.mu.Unlock()
	if !current {
		return
	}
	code := errors.GetErrorCode(err)
	m.logger.ComponentWarn(logging.ComponentPubSub, "channel error",
		zap.String("key", c.key),
		zap.String("code", code),
		zap.String("category", string(errors.GetCategory(code))),
		zap.Error(err))
}

func (m *Manager) handleClose(c *channel) {
	m.evict(c, true)
}
