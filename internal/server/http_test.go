package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/duelcraft/battle-server-go/internal/config"
	"github.com/duelcraft/battle-server-go/internal/game"
	"github.com/duelcraft/battle-server-go/internal/game/notify"
	"github.com/duelcraft/battle-server-go/internal/session"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type fakeBattles struct {
	started map[int][]int
	closed  []string
	err     error
}

func (f *fakeBattles) StartBattle(_ context.Context, first, second int, decks map[int][]int) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.started = decks
	return fmt.Sprintf("room-%d-%d", first, second), nil
}

func (f *fakeBattles) CloseBattle(roomID string) error {
	if f.err != nil {
		return f.err
	}
	f.closed = append(f.closed, roomID)
	return nil
}

type testServer struct {
	hub      *Hub
	actions  *fakeActions
	battles  *fakeBattles
	sessions *session.MemoryStore
	router   *gin.Engine
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := zaptest.NewLogger(t)

	actions := &fakeActions{}
	battles := &fakeBattles{}
	sessions := session.NewMemoryStore()
	sessions.Set("alice-session", 1)

	cfg := config.WebSocketConfig{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		WriteTimeout:    time.Second,
		PingInterval:    time.Minute,
		AllowedOrigins:  []string{"*"},
	}
	hub := NewHub(cfg, NewDispatcher(actions, logger), sessions, logger)
	t.Cleanup(hub.CloseAll)

	return &testServer{
		hub:      hub,
		actions:  actions,
		battles:  battles,
		sessions: sessions,
		router:   NewRouter(hub, battles, cfg.AllowedOrigins, logger),
	}
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestStartBattleEndpoint(t *testing.T) {
	s := newTestServer(t)
	body := `{"first":1,"second":2,"decks":{"1":[1,2,3],"2":[4,5,6]}}`

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/battles", strings.NewReader(body)))

	require.Equal(t, http.StatusCreated, w.Code)
	assert.JSONEq(t, `{"room_id":"room-1-2"}`, w.Body.String())
	assert.Equal(t, map[int][]int{1: {1, 2, 3}, 2: {4, 5, 6}}, s.battles.started)
}

func TestStartBattleEndpointErrors(t *testing.T) {
	s := newTestServer(t)

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/battles", strings.NewReader(`{"first":1}`)))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = httptest.NewRecorder()
	body := `{"first":1,"second":2,"decks":{"alice":[1]}}`
	s.router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/battles", strings.NewReader(body)))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	s.battles.err = fmt.Errorf("%w: account 1 is already seated", game.ErrRuleViolation)
	w = httptest.NewRecorder()
	body = `{"first":1,"second":2,"decks":{"1":[1],"2":[1]}}`
	s.router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/battles", strings.NewReader(body)))
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestCloseBattleEndpoint(t *testing.T) {
	s := newTestServer(t)

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/battles/room-1-2", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, []string{"room-1-2"}, s.battles.closed)

	s.battles.err = fmt.Errorf("%w: room gone", game.ErrNotFound)
	w = httptest.NewRecorder()
	s.router.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/battles/room-1-2", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func dial(t *testing.T, s *testServer) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(s.router)
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readJSON(t *testing.T, conn *websocket.Conn, out interface{}) {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, out))
}

func TestWebSocketRequestAndNotification(t *testing.T) {
	s := newTestServer(t)
	conn := dial(t, s)

	err := s.hub.Notify(context.Background(), 1, notify.Notification{Kind: notify.KindTurnStarted})
	assert.ErrorIs(t, err, ErrNotConnected)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"protocol":1004,"session_id":"alice-session"}`)))
	var resp Response
	readJSON(t, conn, &resp)
	assert.Equal(t, Response{Protocol: ProtocolEndTurn, IsSuccess: true}, resp)
	assert.True(t, s.hub.Connected(1))

	require.NoError(t, s.hub.Notify(context.Background(), 1, notify.Notification{Kind: notify.KindTurnStarted, Round: 2}))
	var push struct {
		Type string              `json:"type"`
		Data notify.Notification `json:"data"`
	}
	readJSON(t, conn, &push)
	assert.Equal(t, "notification", push.Type)
	assert.Equal(t, notify.KindTurnStarted, push.Data.Kind)
	assert.Equal(t, 2, push.Data.Round)
}

func TestWebSocketUnknownSessionStaysUnbound(t *testing.T) {
	s := newTestServer(t)
	s.actions.err = game.ErrAuthentication
	conn := dial(t, s)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"protocol":1004,"session_id":"forged"}`)))
	var resp Response
	readJSON(t, conn, &resp)
	assert.False(t, resp.IsSuccess)
	assert.False(t, s.hub.Connected(1))
}
