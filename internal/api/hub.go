package api

import (
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"crypto-quant-bot/internal/bot"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Dashboard 是独立托管的前端，放开同源检查
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Hub 把控制器的状态快照广播给所有 WebSocket 客户端
type Hub struct {
	controller *bot.Controller
	logger     *zap.Logger

	mu      sync.Mutex
	clients map[string]chan bot.Snapshot
}

func NewHub(controller *bot.Controller, logger *zap.Logger) *Hub {
	return &Hub{
		controller: controller,
		logger:     logger.With(zap.String("component", "ws-hub")),
		clients:    make(map[string]chan bot.Snapshot),
	}
}

// Run 消费控制器的订阅通道，把每帧快照分发给所有客户端。
// 客户端没跟上时丢帧，下一帧携带全量状态。
func (h *Hub) Run() {
	snapshots, cancel := h.controller.Subscribe()
	defer cancel()

	for snap := range snapshots {
		h.mu.Lock()
		for id, ch := range h.clients {
			select {
			case ch <- snap:
			default:
				h.logger.Debug("Client channel full, dropping snapshot", zap.String("Client", id))
			}
		}
		h.mu.Unlock()
	}
}

// HandleWS 升级连接并推送状态流，首帧为当前全量快照
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}

	id := uuid.NewString()
	ch := make(chan bot.Snapshot, 8)

	h.mu.Lock()
	h.clients[id] = ch
	h.mu.Unlock()

	h.logger.Info("Dashboard client connected", zap.String("Client", id))

	// 摘除客户端后再关闭通道，保证 Run 不会向已关闭的通道发送
	defer func() {
		h.mu.Lock()
		delete(h.clients, id)
		h.mu.Unlock()
		close(ch)
		conn.Close()
		h.logger.Info("Dashboard client disconnected", zap.String("Client", id))
	}()

	if err := conn.WriteJSON(h.controller.Snapshot()); err != nil {
		return
	}

	// 读循环只用于感知客户端关闭
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-done:
			return
		case snap := <-ch:
			if err := conn.WriteJSON(snap); err != nil {
				return
			}
		}
	}
}
