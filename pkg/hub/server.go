package hub

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/rupaya/live/pkg/errors"
	"github.com/rupaya/live/pkg/events"
	"github.com/rupaya/live/pkg/logging"
)

const (
	maxEventBytes   = 1 << 20
	maxClientFrame  = 4096
	defaultPingWait = 30 * time.Second
)

// Options tunes the socket handling of a Server.
type Options struct {
	PingInterval time.Duration
	WriteTimeout time.Duration
}

// Server exposes a Hub over HTTP.
type Server struct {
	hub      *Hub
	verifier TokenVerifier
	opts     Options
	logger   *logging.ColoredLogger
	router   chi.Router
	upgrader websocket.Upgrader
	server   *http.Server
}

// NewServer builds the HTTP surface of h. Subscribers and publishers are
// authenticated with v.
func NewServer(h *Hub, v TokenVerifier, opts Options, logger *logging.ColoredLogger) *Server {
	if logger == nil {
		logger = logging.NewNop()
	}
	if opts.PingInterval <= 0 {
		opts.PingInterval = defaultPingWait
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = 10 * time.Second
	}
	s := &Server{
		hub:      h,
		verifier: v,
		opts:     opts,
		logger:   logger,
		router:   chi.NewRouter(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Browser clients connect from the web app origin.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}

	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Recoverer)

	s.router.Get("/health", s.handleHealth)
	s.router.Get("/ws/{groupID}", s.handleSocket)
	s.router.Get("/v1/groups", s.handleGroups)
	s.router.Route("/v1/groups/{groupID}", func(r chi.Router) {
		r.Get("/", s.handleGroup)
		r.Post("/events", s.handlePublish)
	})
	return s
}

// Router returns the chi router for testing or extension
func (s *Server) Router() chi.Router {
	return s.router
}

// Start serves on addr until ctx is cancelled, then shuts down.
func (s *Server) Start(ctx context.Context, addr string) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	s.server = &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.logger.ComponentInfo(logging.ComponentHub, "hub server starting",
		zap.String("listen_addr", listener.Addr().String()))

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.Serve(listener); err != nil && err != http.ErrServerClosed {
			s.logger.ComponentError(logging.ComponentHub, "hub server error", zap.Error(err))
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		return s.Stop()
	case err := <-errCh:
		return err
	}
}

// Stop disconnects every subscriber and shuts the server down gracefully.
func (s *Server) Stop() error {
	s.hub.Close()
	if s.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	s.logger.ComponentInfo(logging.ComponentHub, "hub server shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		s.logger.ComponentError(logging.ComponentHub, "hub shutdown error", zap.Error(err))
		return err
	}
	s.logger.ComponentInfo(logging.ComponentHub, "hub shutdown complete")
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "healthy",
		"service": "rupaya-hub",
		"groups":  len(s.hub.Groups()),
	})
}

func (s *Server) handleGroups(w http.ResponseWriter, r *http.Request) {
	groups := s.hub.Groups()
	out := make([]map[string]any, 0, len(groups))
	for _, g := range groups {
		out = append(out, map[string]any{"group_id": g, "connections": s.hub.Count(g)})
	}
	writeJSON(w, http.StatusOK, map[string]any{"groups": out})
}

func (s *Server) handleGroup(w http.ResponseWriter, r *http.Request) {
	group := chi.URLParam(r, "groupID")
	writeJSON(w, http.StatusOK, map[string]any{
		"group_id":    group,
		"connections": s.hub.Count(group),
	})
}

// handlePublish broadcasts one event to the subscribers of a group. The body
// must be a JSON object with a string "type"; it is forwarded unchanged.
func (s *Server) handlePublish(w http.ResponseWriter, r *http.Request) {
	group := chi.URLParam(r, "groupID")
	if _, err := s.verifier.Verify(bearerToken(r)); err != nil {
		w.Header().Set("WWW-Authenticate", `Bearer realm="rupaya-hub"`)
		writeError(w, http.StatusUnauthorized, "invalid or missing token")
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxEventBytes))
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "event too large")
		return
	}
	msg, err := events.Decode(group, body)
	if err != nil {
		writeError(w, http.StatusBadRequest, errors.GetErrorMessage(err))
		return
	}

	delivered := s.hub.Broadcast(group, body)
	s.logger.ComponentInfo(logging.ComponentHub, "event published",
		zap.String("group", group),
		zap.String("type", string(msg.Type)),
		zap.Int("delivered", delivered))
	writeJSON(w, http.StatusOK, map[string]any{"delivered": delivered})
}

// handleSocket upgrades to a websocket and streams the group's events. A
// missing or invalid token is answered with a policy-violation close.
func (s *Server) handleSocket(w http.ResponseWriter, r *http.Request) {
	group := chi.URLParam(r, "groupID")
	subject, verr := s.verifier.Verify(tokenFromRequest(r))

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.ComponentWarn(logging.ComponentHub, "upgrade failed",
			zap.String("group", group),
			zap.Error(err))
		return
	}

	if verr != nil {
		s.logger.ComponentWarn(logging.ComponentHub, "rejecting subscriber",
			zap.String("group", group),
			zap.String("remote", r.RemoteAddr),
			zap.Error(verr))
		msg := websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "invalid token")
		_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(s.opts.WriteTimeout))
		_ = conn.Close()
		return
	}

	c := s.hub.Connect(group, subject)
	done := make(chan struct{})
	go s.writerLoop(conn, c, done)

	s.readerLoop(conn)
	s.hub.Disconnect(c)
	<-done
}

// writerLoop forwards queued frames and keeps the connection alive with pings.
// It owns closing the connection.
func (s *Server) writerLoop(conn *websocket.Conn, c *Client, done chan struct{}) {
	defer close(done)
	defer conn.Close()

	ticker := time.NewTicker(s.opts.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case frame, ok := <-c.Messages():
			if !ok {
				msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
				_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(s.opts.WriteTimeout))
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(s.opts.WriteTimeout))
			if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				s.logger.ComponentWarn(logging.ComponentHub, "write failed",
					zap.String("group", c.group),
					zap.String("conn_id", c.id),
					zap.Error(err))
				return
			}
		case <-ticker.C:
			deadline := time.Now().Add(s.opts.WriteTimeout)
			if err := conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				return
			}
		}
	}
}

// readerLoop discards client frames until the connection fails.
func (s *Server) readerLoop(conn *websocket.Conn) {
	pongWait := 2 * s.opts.PingInterval
	conn.SetReadLimit(maxClientFrame)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	}
}
