package handlers

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/anonto42/campus-p2p/backend/internal/live"
	"github.com/anonto42/campus-p2p/backend/internal/middleware"
	"github.com/anonto42/campus-p2p/backend/internal/observability"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxCommandSize = 4096
)

// LiveHandler upgrades connections into live sessions
type LiveHandler struct {
	deps     live.Deps
	upgrader websocket.Upgrader
}

// NewLiveHandler creates a new LiveHandler. An empty origins list accepts any origin.
func NewLiveHandler(deps live.Deps, origins []string) *LiveHandler {
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		allowed[o] = true
	}
	return &LiveHandler{
		deps: deps,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return len(allowed) == 0 || origin == "" || allowed[origin]
			},
		},
	}
}

// RegisterLiveRoutes registers the websocket endpoint
func (h *LiveHandler) RegisterLiveRoutes(g *echo.Group) {
	g.GET("/live", h.Connect)
}

// wsSink writes frames to a websocket. gorilla allows one concurrent writer,
// so frames and pings share a lock.
type wsSink struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (s *wsSink) Send(f live.Frame) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return s.conn.WriteJSON(f)
}

func (s *wsSink) ping() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
}

// Connect runs a live session until the client disconnects
func (h *LiveHandler) Connect(c echo.Context) error {
	actor := middleware.Actor(c)
	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return nil
	}
	defer conn.Close()

	observability.LiveSessions.Inc()
	defer observability.LiveSessions.Dec()

	ctx, cancel := context.WithCancel(context.WithoutCancel(c.Request().Context()))
	defer cancel()

	sink := &wsSink{conn: conn}
	session := live.NewSession(actor, h.deps, sink)
	defer session.Close()

	if err := session.Start(ctx); err != nil {
		observability.LogAsyncOperationError(ctx, "live_start", err, map[string]interface{}{"uid": actor.UID})
		_ = sink.Send(live.Frame{Type: live.FrameError, Data: echo.Map{"error": "Failed to start live updates"}})
		return nil
	}

	go h.keepAlive(ctx, sink)

	conn.SetReadLimit(maxCommandSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var cmd live.Command
		if err := conn.ReadJSON(&cmd); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				observability.LogAsyncOperationError(ctx, "live_read", err, map[string]interface{}{"uid": actor.UID})
			}
			return nil
		}
		if err := session.Handle(ctx, cmd); err != nil {
			if errors.Is(err, live.ErrClosed) {
				return nil
			}
			_ = session.SendError(err)
		}
	}
}

func (h *LiveHandler) keepAlive(ctx context.Context, sink *wsSink) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := sink.ping(); err != nil {
				return
			}
		}
	}
}
