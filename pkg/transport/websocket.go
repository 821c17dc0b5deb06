// Package transport opens the persistent socket connections behind pubsub
// channels.
package transport

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/rupaya/live/pkg/errors"
	"github.com/rupaya/live/pkg/logging"
	"github.com/rupaya/live/pkg/pubsub"
)

// Ensure WSFactory implements pubsub.ConnectionFactory.
var _ pubsub.ConnectionFactory = (*WSFactory)(nil)

// WSFactory opens gorilla websocket connections.
type WSFactory struct {
	cfg    Config
	dialer *websocket.Dialer
	logger *logging.ColoredLogger
}

// NewWSFactory creates a factory. It fails if cfg.BaseURL cannot produce a
// socket URL.
func NewWSFactory(cfg Config, logger *logging.ColoredLogger) (*WSFactory, error) {
	if _, err := cfg.URLFor("probe", ""); err != nil {
		return nil, errors.NewValidationError("base_url", err.Error(), cfg.BaseURL)
	}
	tlsCfg, err := tlsConfig(cfg.CAFile)
	if err != nil {
		return nil, errors.NewValidationError("ca_file", err.Error(), cfg.CAFile)
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &WSFactory{
		cfg: cfg,
		dialer: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: cfg.DialTimeout,
			TLSClientConfig:  tlsCfg,
		},
		logger: logger,
	}, nil
}

// Open starts connecting in the background and returns immediately. Outcomes
// arrive on h: OnOpen once the handshake succeeds, then OnMessage per frame.
// A failed dial or a dropped connection reports OnError followed by OnClose.
func (f *WSFactory) Open(key, credential string, h pubsub.ChannelHandler) (pubsub.Channel, error) {
	target, err := f.cfg.URLFor(key, credential)
	if err != nil {
		return nil, errors.NewTransportError(key, "open", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	c := &Conn{
		key:    key,
		url:    target,
		f:      f,
		h:      h,
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go c.run()
	return c, nil
}

// Conn is one websocket connection bound to a channel key.
type Conn struct {
	key    string
	url    string
	f      *WSFactory
	h      pubsub.ChannelHandler
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	mu     sync.Mutex
	ws     *websocket.Conn
	closed bool

	writeMu sync.Mutex
}

// Done is closed after the handler has seen OnClose.
func (c *Conn) Done() <-chan struct{} { return c.done }

func (c *Conn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *Conn) run() {
	defer close(c.done)
	defer c.h.OnClose()
	defer c.cancel()

	cfg := c.f.cfg
	dialCtx := c.ctx
	if cfg.DialTimeout > 0 {
		var cancel context.CancelFunc
		dialCtx, cancel = context.WithTimeout(c.ctx, cfg.DialTimeout)
		defer cancel()
	}

	ws, resp, err := c.f.dialer.DialContext(dialCtx, c.url, cfg.Header)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		if c.isClosed() {
			return
		}
		fields := []zap.Field{zap.String("key", c.key), zap.Error(err)}
		if resp != nil {
			fields = append(fields, zap.Int("status", resp.StatusCode))
		}
		c.f.logger.ComponentWarn(logging.ComponentTransport, "dial failed", fields...)
		c.h.OnError(errors.NewTransportError(c.key, "dial", err))
		return
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		_ = ws.Close()
		return
	}
	c.ws = ws
	c.mu.Unlock()
	defer ws.Close()

	if cfg.ReadLimit > 0 {
		ws.SetReadLimit(cfg.ReadLimit)
	}
	pongWait := 2 * cfg.PingInterval
	if pongWait > 0 {
		_ = ws.SetReadDeadline(time.Now().Add(pongWait))
		ws.SetPongHandler(func(string) error {
			return ws.SetReadDeadline(time.Now().Add(pongWait))
		})
	}

	c.f.logger.ComponentInfo(logging.ComponentTransport, "connected",
		zap.String("key", c.key))
	c.h.OnOpen()

	if cfg.PingInterval > 0 {
		go c.pingLoop(ws)
	}

	for {
		mt, data, err := ws.ReadMessage()
		if err != nil {
			c.readFailed(err)
			return
		}
		if pongWait > 0 {
			_ = ws.SetReadDeadline(time.Now().Add(pongWait))
		}
		if mt != websocket.TextMessage && mt != websocket.BinaryMessage {
			continue
		}
		c.h.OnMessage(data)
	}
}

func (c *Conn) readFailed(err error) {
	if c.isClosed() {
		return
	}
	if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
		c.f.logger.ComponentInfo(logging.ComponentTransport, "server closed connection",
			zap.String("key", c.key))
		return
	}
	if websocket.IsCloseError(err, websocket.ClosePolicyViolation) {
		c.f.logger.ComponentWarn(logging.ComponentTransport, "server rejected credential",
			zap.String("key", c.key))
		c.h.OnError(errors.NewUnauthenticatedError("server", errors.NewTransportError(c.key, "read", err)))
		return
	}
	c.f.logger.ComponentWarn(logging.ComponentTransport, "read failed",
		zap.String("key", c.key),
		zap.Error(err))
	c.h.OnError(errors.NewTransportError(c.key, "read", err))
}

func (c *Conn) pingLoop(ws *websocket.Conn) {
	ticker := time.NewTicker(c.f.cfg.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			deadline := time.Now().Add(c.writeTimeout())
			if err := ws.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				c.f.logger.ComponentDebug(logging.ComponentTransport, "ping failed",
					zap.String("key", c.key),
					zap.Error(err))
				return
			}
		case <-c.ctx.Done():
			return
		}
	}
}

func (c *Conn) writeTimeout() time.Duration {
	if c.f.cfg.WriteTimeout > 0 {
		return c.f.cfg.WriteTimeout
	}
	return 10 * time.Second
}

// Send writes one text frame.
func (c *Conn) Send(data []byte) error {
	c.mu.Lock()
	ws, closed := c.ws, c.closed
	c.mu.Unlock()
	if closed {
		return errors.NewClosedError("channel " + c.key)
	}
	if ws == nil {
		return errors.NewTransportError(c.key, "send", errors.ErrNotConnected)
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = ws.SetWriteDeadline(time.Now().Add(c.writeTimeout()))
	if err := ws.WriteMessage(websocket.TextMessage, data); err != nil {
		return errors.NewTransportError(c.key, "send", err)
	}
	return nil
}

// Close sends a normal close frame and tears the connection down. A dial still
// in progress is aborted. It never waits for the read loop, so it is safe to
// call from inside a handler. Calling it again has no effect.
func (c *Conn) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	ws := c.ws
	c.mu.Unlock()

	c.cancel()
	if ws == nil {
		return nil
	}
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(c.writeTimeout()))
	_ = ws.Close()
	c.f.logger.ComponentDebug(logging.ComponentTransport, "closed",
		zap.String("key", c.key))
	return nil
}
