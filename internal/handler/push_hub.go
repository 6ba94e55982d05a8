package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"chengyu-bot-go/internal/model"
	"chengyu-bot-go/internal/service"
	"chengyu-bot-go/pkg/log"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const writeWait = 10 * time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // 允许所有来源
	},
}

// ErrNoSubscriber 表示用户当前没有打开的 WebSocket 连接。
var ErrNoSubscriber = errors.New("用户没有在线连接")

// wsInbound 是客户端发来的消息。
type wsInbound struct {
	Kind string `json:"kind"`
	Data string `json:"data"`
}

// wsMessage 是服务端写出的消息。type 取值 reply / push / error。
type wsMessage struct {
	Type  string       `json:"type"`
	Data  *model.Reply `json:"data,omitempty"`
	Error string       `json:"error,omitempty"`
}

// pushConn 串行化对单个连接的写入。
type pushConn struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (p *pushConn) write(msg wsMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	_ = p.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return p.conn.WriteJSON(msg)
}

// PushHub 管理网页端的 WebSocket 连接：既能收发会话消息，也实现了每日推送的 Notifier。
type PushHub struct {
	botService service.BotService

	mu    sync.RWMutex
	conns map[string]map[*pushConn]struct{}
}

// NewPushHub 创建一个新的 PushHub 实例。
func NewPushHub(botService service.BotService) *PushHub {
	return &PushHub{
		botService: botService,
		conns:      make(map[string]map[*pushConn]struct{}),
	}
}

// Handle 处理一个传入的 WebSocket 连接。客户端发送 {"kind":"menu|text","data":"..."}。
func (h *PushHub) Handle(c *gin.Context) {
	userID := c.Param("userId")
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"code": http.StatusBadRequest, "message": "userId 不能为空", "data": nil})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error("WebSocket 升级失败", err)
		return
	}
	pc := &pushConn{conn: conn}
	h.register(userID, pc)
	defer func() {
		h.unregister(userID, pc)
		_ = conn.Close()
	}()
	log.Infof("WebSocket 连接已建立，用户: %s", userID)

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Warnf("从 WebSocket 读取消息失败: %v", err)
			}
			return
		}

		var in wsInbound
		if err := json.Unmarshal(raw, &in); err != nil || (in.Kind != string(model.EventMenu) && in.Kind != string(model.EventText)) {
			_ = pc.write(wsMessage{Type: "error", Error: "消息格式应为 {\"kind\":\"menu|text\",\"data\":\"...\"}"})
			continue
		}

		reply, err := h.botService.HandleEvent(c.Request.Context(), model.Event{
			UserID:  userID,
			Channel: model.ChannelWeb,
			Kind:    model.EventKind(in.Kind),
			Data:    in.Data,
		})
		if err != nil {
			log.Errorf("处理 WebSocket 消息失败, user=%s: %v", userID, err)
			_ = pc.write(wsMessage{Type: "error", Error: "服务暂时不可用，请稍后重试"})
			continue
		}
		if err := pc.write(wsMessage{Type: "reply", Data: &reply}); err != nil {
			log.Warnf("写入 WebSocket 失败, user=%s: %v", userID, err)
			return
		}
	}
}

// Deliver 把推送写给用户的所有在线连接，至少一个成功即视为送达。
func (h *PushHub) Deliver(_ context.Context, user *model.User, reply model.Reply) error {
	h.mu.RLock()
	targets := make([]*pushConn, 0, len(h.conns[user.ID]))
	for pc := range h.conns[user.ID] {
		targets = append(targets, pc)
	}
	h.mu.RUnlock()

	if len(targets) == 0 {
		return fmt.Errorf("推送给 %s 失败: %w", user.ID, ErrNoSubscriber)
	}
	var lastErr error
	delivered := 0
	for _, pc := range targets {
		if err := pc.write(wsMessage{Type: "push", Data: &reply}); err != nil {
			lastErr = err
			continue
		}
		delivered++
	}
	if delivered == 0 {
		return fmt.Errorf("推送给 %s 失败: %w", user.ID, lastErr)
	}
	return nil
}

// Subscribers 返回用户当前的在线连接数。
func (h *PushHub) Subscribers(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns[userID])
}

func (h *PushHub) register(userID string, pc *pushConn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.conns[userID] == nil {
		h.conns[userID] = make(map[*pushConn]struct{})
	}
	h.conns[userID][pc] = struct{}{}
}

func (h *PushHub) unregister(userID string, pc *pushConn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.conns[userID], pc)
	if len(h.conns[userID]) == 0 {
		delete(h.conns, userID)
	}
}
