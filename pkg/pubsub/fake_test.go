package pubsub

import (
	"fmt"
	"sync"

	"github.com/rupaya/live/pkg/errors"
	"github.com/rupaya/live/pkg/events"
)

type fakeConn struct {
	key   string
	token string
	h     ChannelHandler

	mu     sync.Mutex
	closes int
	sent   [][]byte
}

func (c *fakeConn) Send(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, data)
	return nil
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closes++
	return nil
}

func (c *fakeConn) closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closes > 0
}

func (c *fakeConn) open() {
	c.h.OnOpen()
}

func (c *fakeConn) push(frame string) {
	c.h.OnMessage([]byte(frame))
}

func (c *fakeConn) fail(err error) {
	c.h.OnError(err)
}

func (c *fakeConn) drop() {
	c.h.OnError(fmt.Errorf("connection reset"))
	c.h.OnClose()
}

// reject closes the way a server refusing the credential does.
func (c *fakeConn) reject() {
	closeErr := errors.NewTransportError(c.key, "read", fmt.Errorf("websocket: close 1008"))
	c.h.OnError(errors.NewUnauthenticatedError("server", closeErr))
	c.h.OnClose()
}

type fakeFactory struct {
	mu       sync.Mutex
	conns    []*fakeConn
	attempts int
	err      error
	autoOpen bool
	// dropOnOpen makes every connection close right after it opened.
	dropOnOpen bool
}

func newFakeFactory() *fakeFactory {
	return &fakeFactory{autoOpen: true}
}

func (f *fakeFactory) Open(key, credential string, h ChannelHandler) (Channel, error) {
	f.mu.Lock()
	f.attempts++
	if f.err != nil {
		err := f.err
		f.mu.Unlock()
		return nil, err
	}
	c := &fakeConn{key: key, token: credential, h: h}
	f.conns = append(f.conns, c)
	auto, drop := f.autoOpen, f.dropOnOpen
	f.mu.Unlock()

	if auto {
		h.OnOpen()
	}
	if drop {
		c.drop()
	}
	return c, nil
}

func (f *fakeFactory) setErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

func (f *fakeFactory) setDropOnOpen(drop bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dropOnOpen = drop
}

func (f *fakeFactory) opened(key string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.conns {
		if c.key == key {
			n++
		}
	}
	return n
}

func (f *fakeFactory) attemptCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.attempts
}

func (f *fakeFactory) last(key string) *fakeConn {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.conns) - 1; i >= 0; i-- {
		if f.conns[i].key == key {
			return f.conns[i]
		}
	}
	return nil
}

func (f *fakeFactory) all() []*fakeConn {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*fakeConn, len(f.conns))
	copy(out, f.conns)
	return out
}

type tokenSource struct {
	mu    sync.Mutex
	token string
}

func (s *tokenSource) Credential() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token, nil
}

func (s *tokenSource) set(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
}

type note struct {
	message  string
	severity events.Severity
}

// journal records notifications and deliveries in one ordered log.
type journal struct {
	mu      sync.Mutex
	entries []string
	notes   []note
}

func (j *journal) Notify(message string, severity events.Severity) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.notes = append(j.notes, note{message, severity})
	j.entries = append(j.entries, "notify")
}

func (j *journal) listener(name string) Listener {
	return func(msg events.Message) {
		j.mu.Lock()
		defer j.mu.Unlock()
		j.entries = append(j.entries, name+":"+string(msg.Type))
	}
}

func (j *journal) log() []string {
	j.mu.Lock()
	defer j.mu.Unlock()
	out := make([]string, len(j.entries))
	copy(out, j.entries)
	return out
}

func (j *journal) notifications() []note {
	j.mu.Lock()
	defer j.mu.Unlock()
	out := make([]note, len(j.notes))
	copy(out, j.notes)
	return out
}

type transition struct {
	key      string
	from, to ChannelState
}

type transitions struct {
	mu  sync.Mutex
	all []transition
}

func (t *transitions) observe(key string, from, to ChannelState) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.all = append(t.all, transition{key, from, to})
}

func (t *transitions) forKey(key string) []transition {
	t.mu.Lock()
	defer t.mu.Unlock()
	var out []transition
	for _, tr := range t.all {
		if tr.key == key {
			out = append(out, tr)
		}
	}
	return out
}

// retryPending reports whether a reconnect is scheduled or in progress for key.
func retryPending(m *Manager, key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.retries[key]
	return ok
}

func newTestManager(opts ...Option) (*Manager, *fakeFactory, *journal) {
	f := newFakeFactory()
	j := &journal{}
	opts = append([]Option{WithNotificationSink(j)}, opts...)
	return NewManager(f, &tokenSource{token: "tok"}, opts...), f, j
}
