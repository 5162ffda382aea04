package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/duelcraft/battle-server-go/internal/config"
	"github.com/duelcraft/battle-server-go/internal/game"
	"github.com/duelcraft/battle-server-go/internal/game/notify"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// ErrNotConnected is returned when a notification targets an account with
// no live connection.
var ErrNotConnected = errors.New("account not connected")

const sendQueueSize = 32

// Hub owns the protocol WebSocket connections. A connection is bound to an
// account the first time it sends a request with a valid session id; from
// then on notifications for that account are pushed to it.
type Hub struct {
	cfg        config.WebSocketConfig
	dispatcher *Dispatcher
	sessions   game.SessionStore
	logger     *zap.Logger
	upgrader   websocket.Upgrader

	mu      sync.RWMutex
	clients map[int]*client
}

type client struct {
	id        string
	conn      *websocket.Conn
	send      chan []byte
	accountID int
	closeOnce sync.Once
	done      chan struct{}
}

// NewHub creates a WebSocket hub.
func NewHub(cfg config.WebSocketConfig, dispatcher *Dispatcher, sessions game.SessionStore, logger *zap.Logger) *Hub {
	h := &Hub{
		cfg:        cfg,
		dispatcher: dispatcher,
		sessions:   sessions,
		logger:     logger,
		clients:    make(map[int]*client),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  cfg.ReadBufferSize,
		WriteBufferSize: cfg.WriteBufferSize,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

func (h *Hub) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, allowed := range h.cfg.AllowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	return false
}

// ServeWS upgrades the request and serves the connection until it closes.
func (h *Hub) ServeWS(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	cl := &client{
		id:   uuid.NewString(),
		conn: conn,
		send: make(chan []byte, sendQueueSize),
		done: make(chan struct{}),
	}
	h.logger.Debug("websocket connected",
		zap.String("conn_id", cl.id),
		zap.String("remote", conn.RemoteAddr().String()),
	)

	go h.writePump(cl)
	h.readPump(c.Request.Context(), cl)
}

// Notify implements notify.Notifier.
func (h *Hub) Notify(_ context.Context, accountID int, n notify.Notification) error {
	h.mu.RLock()
	cl, ok := h.clients[accountID]
	h.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %d", ErrNotConnected, accountID)
	}
	msg, err := json.Marshal(Push{Type: "notification", Data: n})
	if err != nil {
		return fmt.Errorf("failed to encode notification: %w", err)
	}
	return cl.enqueue(msg)
}

// Connected reports whether the account has a bound connection.
func (h *Hub) Connected(accountID int) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.clients[accountID]
	return ok
}

// CloseAll closes every bound connection.
func (h *Hub) CloseAll() {
	h.mu.Lock()
	clients := h.clients
	h.clients = make(map[int]*client)
	h.mu.Unlock()
	for _, cl := range clients {
		cl.close()
	}
}

func (h *Hub) readPump(ctx context.Context, cl *client) {
	defer h.unbind(cl)

	for {
		_, raw, err := cl.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Warn("websocket read failed",
					zap.String("conn_id", cl.id),
					zap.Error(err),
				)
			}
			return
		}

		resp, sessionID := h.dispatcher.Dispatch(ctx, raw)
		if sessionID != "" && cl.accountID == 0 {
			h.bind(ctx, cl, sessionID)
		}

		msg, err := json.Marshal(resp)
		if err != nil {
			h.logger.Error("failed to encode response", zap.Error(err))
			continue
		}
		if err := cl.enqueue(msg); err != nil {
			h.logger.Warn("dropping response",
				zap.String("conn_id", cl.id),
				zap.Error(err),
			)
			return
		}
	}
}

func (h *Hub) bind(ctx context.Context, cl *client, sessionID string) {
	accountID, ok, err := h.sessions.Lookup(ctx, sessionID)
	if err != nil || !ok {
		return
	}
	h.mu.Lock()
	previous := h.clients[accountID]
	h.clients[accountID] = cl
	cl.accountID = accountID
	h.mu.Unlock()

	if previous != nil && previous != cl {
		previous.close()
	}
	h.logger.Info("connection bound to account",
		zap.String("conn_id", cl.id),
		zap.Int("account_id", accountID),
	)
}

func (h *Hub) unbind(cl *client) {
	h.mu.Lock()
	if cl.accountID != 0 && h.clients[cl.accountID] == cl {
		delete(h.clients, cl.accountID)
	}
	h.mu.Unlock()
	cl.close()
	h.logger.Debug("websocket disconnected",
		zap.String("conn_id", cl.id),
		zap.Int("account_id", cl.accountID),
	)
}

func (h *Hub) writePump(cl *client) {
	ping := h.cfg.PingInterval
	if ping <= 0 {
		ping = 30 * time.Second
	}
	ticker := time.NewTicker(ping)
	defer ticker.Stop()

	for {
		select {
		case msg := <-cl.send:
			h.setWriteDeadline(cl)
			if err := cl.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				h.logger.Warn("websocket write failed",
					zap.String("conn_id", cl.id),
					zap.Error(err),
				)
				cl.close()
				return
			}
		case <-ticker.C:
			h.setWriteDeadline(cl)
			if err := cl.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				cl.close()
				return
			}
		case <-cl.done:
			return
		}
	}
}

func (h *Hub) setWriteDeadline(cl *client) {
	if h.cfg.WriteTimeout > 0 {
		_ = cl.conn.SetWriteDeadline(time.Now().Add(h.cfg.WriteTimeout))
	}
}

func (cl *client) enqueue(msg []byte) error {
	select {
	case <-cl.done:
		return fmt.Errorf("connection %s closed", cl.id)
	default:
	}
	select {
	case cl.send <- msg:
		return nil
	default:
		return fmt.Errorf("send queue of connection %s is full", cl.id)
	}
}

func (cl *client) close() {
	cl.closeOnce.Do(func() {
		close(cl.done)
		cl.conn.Close()
	})
}
