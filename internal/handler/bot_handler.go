// Package handler 包含了处理 HTTP 请求的控制器逻辑。
package handler

import (
	"context"
	"errors"
	"net/http"

	"chengyu-bot-go/internal/model"
	"chengyu-bot-go/internal/service"
	"chengyu-bot-go/pkg/log"

	"github.com/gin-gonic/gin"
)

// BotHandler 把 HTTP 请求转换成会话事件，供网页端或其他渠道接入。
type BotHandler struct {
	botService service.BotService
}

// NewBotHandler 创建一个新的 BotHandler 实例。
func NewBotHandler(botService service.BotService) *BotHandler {
	return &BotHandler{botService: botService}
}

// EventRequest 定义了投递事件 API 的请求体结构。
type EventRequest struct {
	UserID    string          `json:"userId" binding:"required"`
	Username  string          `json:"username"`
	FirstName string          `json:"firstName"`
	LastName  string          `json:"lastName"`
	Kind      model.EventKind `json:"kind" binding:"required,oneof=menu text"`
	Data      string          `json:"data"`
}

func (r EventRequest) toEvent() model.Event {
	return model.Event{
		UserID:    r.UserID,
		Channel:   model.ChannelWeb,
		Username:  r.Username,
		FirstName: r.FirstName,
		LastName:  r.LastName,
		Kind:      r.Kind,
		Data:      r.Data,
	}
}

// HandleEvent 处理一条菜单选择或自由文本。
func (h *BotHandler) HandleEvent(c *gin.Context) {
	var req EventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warnf("[BotHandler] 无效的请求负载: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"code": http.StatusBadRequest, "message": "无效的请求负载：userId 和 kind 不能为空", "data": nil})
		return
	}

	reply, err := h.botService.HandleEvent(c.Request.Context(), req.toEvent())
	if err != nil {
		status := statusFor(err)
		log.Warnf("[BotHandler] 处理事件失败, user=%s, status=%d: %v", req.UserID, status, err)
		c.JSON(status, gin.H{"code": status, "message": http.StatusText(status), "data": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": "success", "data": reply})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded), errors.Is(err, service.ErrServiceUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
