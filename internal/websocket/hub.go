package websocket

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"codespark-server/internal/model"
)

// Hub 是 WebSocket 连接的中心管理器
// 负责：
// 1. 管理所有客户端连接
// 2. 把 AI 会话事件推送给会话所属用户
type Hub struct {
	// 客户端映射：userID -> 连接集合
	// 一个用户可能同时打开多个页面
	clients map[int64]map[*Client]struct{}

	register   chan *Client
	unregister chan *Client
	done       chan struct{} // Run 退出后关闭

	// 互斥锁，保护 clients 并保证关闭通道和发送不会并发
	mu sync.RWMutex

	log zerolog.Logger
}

// NewHub 创建 Hub 实例
func NewHub(log zerolog.Logger) *Hub {
	return &Hub{
		clients:    make(map[int64]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		log:        log.With().Str("component", "websocket").Logger(),
	}
}

// Run 启动 Hub 的主循环，ctx 结束时关闭所有连接
// 应该在单独的 goroutine 中运行
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case <-ctx.Done():
			close(h.done)
			h.closeAll()
			return
		}
	}
}

// Register 注册客户端（供外部调用）
// Hub 已停止时关闭客户端并返回 false，调用方不应再启动读写协程
func (h *Hub) Register(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		client.Close()
		return false
	}
}

// Unregister 注销客户端（供外部调用）
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set, ok := h.clients[client.userID]
	if !ok {
		set = make(map[*Client]struct{})
		h.clients[client.userID] = set
	}
	set[client] = struct{}{}
	h.log.Debug().Int64("user_id", client.userID).Int("connections", len(set)).Msg("client registered")
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if set, ok := h.clients[client.userID]; ok {
		if _, ok := set[client]; ok {
			delete(set, client)
			client.Close()
		}
		// 如果没有连接了，删除 key
		if len(set) == 0 {
			delete(h.clients, client.userID)
		}
	}
	h.log.Debug().Int64("user_id", client.userID).Msg("client unregistered")
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for userID, set := range h.clients {
		for client := range set {
			client.Close()
		}
		delete(h.clients, userID)
	}
}

// NotifyAISession 推送会话状态变化给会话所属用户的所有连接
// 消息类型为 "ai_session:<status>"，payload 为会话本身
func (h *Hub) NotifyAISession(session *model.AISession) {
	h.SendToUser(session.UserID, NewMessage(TypeAISessionPrefix+session.Status, session))
}

// SendToUser 向用户的所有连接发送消息，返回成功投递的连接数
func (h *Hub) SendToUser(userID int64, msg *Message) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := 0
	for client := range h.clients[userID] {
		if client.SendMessage(msg) {
			delivered++
		}
	}
	return delivered
}

// ConnectionCount 用户当前的连接数
func (h *Hub) ConnectionCount(userID int64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}
