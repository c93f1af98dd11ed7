package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	gws "github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codespark-server/internal/model"
	"codespark-server/pkg/jwt"
	"codespark-server/pkg/util"
)

type stubParser struct{}

func (stubParser) ParseToken(_ context.Context, token string) (*jwt.UserClaims, error) {
	if token != "good" {
		return nil, errors.New("Invalid token")
	}
	return &jwt.UserClaims{UserID: 7, Username: "alice"}, nil
}

func newTestServer(t *testing.T) (*Hub, *httptest.Server) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub(zerolog.Nop())
	go hub.Run(ctx)

	r := gin.New()
	r.GET("/ws/sessions", NewHandler(hub, stubParser{}, nil).HandleSessionsWS)
	srv := httptest.NewServer(r)

	t.Cleanup(func() {
		srv.Close()
		cancel()
	})
	return hub, srv
}

func dial(t *testing.T, srv *httptest.Server, token string) (*gws.Conn, *http.Response, error) {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/sessions?token=" + token
	return gws.DefaultDialer.Dial(url, nil)
}

func readMessage(t *testing.T, conn *gws.Conn) Message {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var msg Message
	require.NoError(t, json.Unmarshal(data, &msg))
	return msg
}

func TestHub_PushesSessionEvents(t *testing.T) {
	hub, srv := newTestServer(t)

	conn, _, err := dial(t, srv, "good")
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.ConnectionCount(7) == 1 }, 2*time.Second, 10*time.Millisecond)

	hub.NotifyAISession(&model.AISession{ID: 1, UserID: 7, Status: model.AISessionStatusPending})
	hub.NotifyAISession(&model.AISession{ID: 1, UserID: 7, Status: model.AISessionStatusCompleted, Response: util.StringPtr("done")})
	// 其他用户的事件不会推送过来
	hub.NotifyAISession(&model.AISession{ID: 2, UserID: 8, Status: model.AISessionStatusCompleted})

	first := readMessage(t, conn)
	assert.Equal(t, "ai_session:pending", first.Type)

	second := readMessage(t, conn)
	assert.Equal(t, "ai_session:completed", second.Type)
	payload, ok := second.Payload.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "done", payload["response"])
	assert.EqualValues(t, 1, payload["id"])
}

func TestHub_HeartbeatAndUnknown(t *testing.T) {
	hub, srv := newTestServer(t)

	conn, _, err := dial(t, srv, "good")
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return hub.ConnectionCount(7) == 1 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, conn.WriteJSON(Message{Type: TypeHeartbeat, MessageID: "m1"}))
	pong := readMessage(t, conn)
	assert.Equal(t, TypePong, pong.Type)
	assert.Equal(t, "m1", pong.MessageID)

	require.NoError(t, conn.WriteJSON(Message{Type: "terminal:input"}))
	assert.Equal(t, TypeError, readMessage(t, conn).Type)
}

func TestHub_UnregistersOnDisconnect(t *testing.T) {
	hub, srv := newTestServer(t)

	conn, _, err := dial(t, srv, "good")
	require.NoError(t, err)
	require.Eventually(t, func() bool { return hub.ConnectionCount(7) == 1 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool { return hub.ConnectionCount(7) == 0 }, 2*time.Second, 10*time.Millisecond)
	assert.Zero(t, hub.SendToUser(7, NewMessage(TypePong, nil)))
}

func TestHub_RegisterAfterStop(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	hub := NewHub(zerolog.Nop())
	hub.Run(ctx)

	client := NewClient(hub, nil, 7)
	assert.False(t, hub.Register(client))
	assert.Zero(t, hub.ConnectionCount(7))

	// 已关闭的客户端收到心跳时不再写入 send
	assert.NotPanics(t, func() {
		client.handleMessage(&Message{Type: TypeHeartbeat, MessageID: "m1"})
	})
	assert.False(t, client.SendMessage(NewMessage(TypePong, nil)))
}

func TestClient_CloseIsIdempotent(t *testing.T) {
	client := NewClient(NewHub(zerolog.Nop()), nil, 7)
	require.True(t, client.SendMessage(NewMessage(TypePong, nil)))

	client.Close()
	assert.NotPanics(t, client.Close)
	assert.False(t, client.SendMessage(NewMessage(TypePong, nil)))
}

func TestHandler_ClosesConnectionWhenHubStopped(t *testing.T) {
	gin.SetMode(gin.TestMode)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	hub := NewHub(zerolog.Nop())
	hub.Run(ctx)

	r := gin.New()
	r.GET("/ws/sessions", NewHandler(hub, stubParser{}, nil).HandleSessionsWS)
	srv := httptest.NewServer(r)
	defer srv.Close()

	conn, _, err := dial(t, srv, "good")
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err = conn.ReadMessage()
	assert.True(t, gws.IsCloseError(err, gws.CloseGoingAway), "unexpected error: %v", err)
}

func TestHub_ShutdownWithActiveConnection(t *testing.T) {
	gin.SetMode(gin.TestMode)
	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub(zerolog.Nop())
	stopped := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(stopped)
	}()

	r := gin.New()
	r.GET("/ws/sessions", NewHandler(hub, stubParser{}, nil).HandleSessionsWS)
	srv := httptest.NewServer(r)
	defer srv.Close()

	conn, _, err := dial(t, srv, "good")
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return hub.ConnectionCount(7) == 1 }, 2*time.Second, 10*time.Millisecond)

	cancel()
	<-stopped
	assert.Zero(t, hub.ConnectionCount(7))

	// 关闭后继续发心跳，服务端只会断开连接
	_ = conn.WriteJSON(Message{Type: TypeHeartbeat})
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}

func TestHandler_RejectsBadToken(t *testing.T) {
	_, srv := newTestServer(t)

	_, resp, err := dial(t, srv, "bad")
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestOriginChecker(t *testing.T) {
	check := originChecker([]string{"http://localhost:3000"})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.True(t, check(req))

	req.Header.Set("Origin", "http://localhost:3000")
	assert.True(t, check(req))

	req.Header.Set("Origin", "http://evil.example")
	assert.False(t, check(req))

	assert.True(t, originChecker([]string{"*"})(req))
}
