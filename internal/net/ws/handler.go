package ws

import (
	nethttp "net/http"
	"sync"
	"time"

	"github.com/go-chi/chi"
	"github.com/gorilla/websocket"

	"github.com/mjcole76/octochase"
	"github.com/mjcole76/octochase/internal/telemetry"
)

const writeWait = 10 * time.Second

type HandlerConfig struct {
	Logger telemetry.Logger
	// Now defaults to time.Now.
	Now func() time.Time
}

// Handler upgrades session stream requests and serves them.
type Handler struct {
	hub      *octochase.Hub
	logger   telemetry.Logger
	now      func() time.Time
	upgrader websocket.Upgrader
}

func NewHandler(hub *octochase.Hub, cfg HandlerConfig) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = telemetry.NopLogger()
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *nethttp.Request) bool {
			return true
		},
	}

	return &Handler{
		hub:      hub,
		logger:   logger,
		now:      now,
		upgrader: upgrader,
	}
}

// Handle serves GET /sessions/{id}/ws. The id may also be passed as a query
// parameter when the handler is mounted outside the chi router.
func (h *Handler) Handle(w nethttp.ResponseWriter, r *nethttp.Request) {
	sessionID := chi.URLParam(r, "id")
	if sessionID == "" {
		sessionID = r.URL.Query().Get("id")
	}
	if sessionID == "" {
		nethttp.Error(w, "missing id", nethttp.StatusBadRequest)
		return
	}
	session, ok := h.hub.Session(sessionID)
	if !ok {
		nethttp.Error(w, "unknown session", nethttp.StatusNotFound)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Printf("upgrade failed for %s: %v", sessionID, err)
		return
	}

	h.Serve(session, conn)
}

// conn serializes writes from the hub broadcaster and the read loop.
type conn struct {
	ws *websocket.Conn
	mu sync.Mutex
}

// WriteFrame sets the deadline and writes under one lock, so concurrent
// writers never see each other's deadline.
func (c *conn) WriteFrame(data []byte, deadline time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.ws.SetWriteDeadline(deadline); err != nil {
		return err
	}
	return c.ws.WriteMessage(websocket.TextMessage, data)
}

func (c *conn) Close() error {
	return c.ws.Close()
}

func (c *conn) send(data []byte, now time.Time) error {
	return c.WriteFrame(data, now.Add(writeWait))
}
