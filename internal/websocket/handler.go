package websocket

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"codespark-server/internal/middleware"
	"codespark-server/pkg/response"
)

// Handler 处理 WebSocket 连接
type Handler struct {
	hub      *Hub
	parser   middleware.TokenParser
	upgrader websocket.Upgrader
}

// NewHandler 创建 WebSocket Handler
// allowedOrigins 为空或包含 "*" 时不校验 Origin
func NewHandler(hub *Hub, parser middleware.TokenParser, allowedOrigins []string) *Handler {
	return &Handler{
		hub:    hub,
		parser: parser,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
	}
}

// HandleSessionsWS 订阅当前用户的 AI 会话事件
// 路由: GET /ws/sessions
// 参数: token (query parameter) 或 Authorization 头
func (h *Handler) HandleSessionsWS(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		token, _ = middleware.BearerToken(c.GetHeader("Authorization"))
	}
	if token == "" {
		response.Unauthorized(c, "Token is required")
		return
	}

	claims, err := h.parser.ParseToken(c.Request.Context(), token)
	if err != nil {
		response.Unauthorized(c, err.Error())
		return
	}

	// 升级 HTTP 连接为 WebSocket，失败时 upgrader 已经写好响应
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.hub.log.Warn().Err(err).Msg("failed to upgrade connection")
		return
	}

	client := NewClient(h.hub, conn, claims.UserID)
	if !h.hub.Register(client) {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
			time.Now().Add(writeWait))
		conn.Close()
		return
	}

	go client.WritePump()
	go client.ReadPump()

	h.hub.log.Info().Int64("user_id", claims.UserID).Msg("websocket connected")
}

func originChecker(allowed []string) func(r *http.Request) bool {
	for _, o := range allowed {
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
	}
	if len(allowed) == 0 {
		return func(*http.Request) bool { return true }
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, o := range allowed {
			if o == origin {
				return true
			}
		}
		return false
	}
}
