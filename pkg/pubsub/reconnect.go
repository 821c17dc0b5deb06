package pubsub

import (
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.uber.org/zap"

	"github.com/rupaya/live/pkg/logging"
)

// ReconnectPolicy controls reopening a channel that the transport closed while
// listeners were still registered. The zero value disables reconnects.
type ReconnectPolicy struct {
	Enabled         bool
	InitialInterval time.Duration
	MaxInterval     time.Duration
	MaxAttempts     int // 0 means unlimited
	// StableAfter is how long a channel must stay open before a later drop
	// starts a fresh attempt budget. Defaults to one minute. A delivered
	// message also resets the budget.
	StableAfter time.Duration
}

type retry struct {
	backoff  *backoff.ExponentialBackOff
	attempts int
	timer    *time.Timer
}

func (p ReconnectPolicy) stableAfter() time.Duration {
	if p.StableAfter > 0 {
		return p.StableAfter
	}
	return time.Minute
}

func (p ReconnectPolicy) newBackOff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	if p.InitialInterval > 0 {
		b.InitialInterval = p.InitialInterval
	}
	if p.MaxInterval > 0 {
		b.MaxInterval = p.MaxInterval
	}
	b.Reset()
	return b
}

// scheduleRetryLocked arms a timer that reopens key unless the attempt budget
// is spent. The retry state outlives a successful open so that a server which
// accepts and then drops the connection still meets backoff and the attempt
// limit. It is cleared by the first delivered message, a drop after the channel
// was stable, a non-retryable failure and the last unsubscribe.
func (m *Manager) scheduleRetryLocked(key string) {
	p := m.reconnect
	if !p.Enabled || m.closed {
		return
	}
	r, ok := m.retries[key]
	if !ok {
		r = &retry{backoff: p.newBackOff()}
		m.retries[key] = r
	}
	if p.MaxAttempts > 0 && r.attempts >= p.MaxAttempts {
		m.logger.ComponentWarn(logging.ComponentPubSub, "giving up reconnecting",
			zap.String("key", key),
			zap.Int("attempts", r.attempts))
		delete(m.retries, key)
		return
	}

	r.attempts++
	delay := r.backoff.NextBackOff()
	if r.timer != nil {
		r.timer.Stop()
	}
	attempt := r.attempts
	r.timer = time.AfterFunc(delay, func() { m.retryOpen(key, r, attempt) })

	m.logger.ComponentInfo(logging.ComponentPubSub, "reconnect scheduled",
		zap.String("key", key),
		zap.Int("attempt", attempt),
		zap.Duration("delay", delay))
}

func (m *Manager) cancelRetryLocked(key string) {
	if r, ok := m.retries[key]; ok {
		if r.timer != nil {
			r.timer.Stop()
		}
		delete(m.retries, key)
	}
}

func (m *Manager) retryOpen(key string, r *retry, attempt int) {
	m.mu.Lock()
	if m.closed || m.retries[key] != r {
		m.mu.Unlock()
		return
	}
	c := m.reserveLocked(key)
	m.mu.Unlock()

	if c == nil {
		return
	}
	m.logger.ComponentInfo(logging.ComponentPubSub, "reconnecting",
		zap.String("key", key),
		zap.Int("attempt", attempt))
	m.open(c)
}
