package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"chengyu-bot-go/internal/service"
	"chengyu-bot-go/pkg/log"

	"github.com/gin-gonic/gin"
)

const sessionPeekTimeout = 200 * time.Millisecond

// UserHandler 负责查询用户档案和行为日志。
type UserHandler struct {
	userService       service.UserService
	dictionaryService service.DictionaryService
	actionLogService  service.ActionLogService
	sessions          *service.SessionRegistry
}

// NewUserHandler 创建一个新的 UserHandler 实例。
func NewUserHandler(
	userService service.UserService,
	dictionaryService service.DictionaryService,
	actionLogService service.ActionLogService,
	sessions *service.SessionRegistry,
) *UserHandler {
	return &UserHandler{
		userService:       userService,
		dictionaryService: dictionaryService,
		actionLogService:  actionLogService,
		sessions:          sessions,
	}
}

// GetProfile 返回用户档案、练习正确率、个人词典和当前会话状态。
func (h *UserHandler) GetProfile(c *gin.Context) {
	userID := c.Param("userId")
	user, err := h.userService.GetProfile(c.Request.Context(), userID)
	if errors.Is(err, service.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"code": http.StatusNotFound, "message": "用户不存在", "data": nil})
		return
	}
	if err != nil {
		log.Errorf("[UserHandler] 获取用户 %s 档案失败: %v", userID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"code": http.StatusInternalServerError, "message": "获取用户信息失败", "data": nil})
		return
	}

	dictionary, err := h.dictionaryService.List(c.Request.Context(), userID)
	if err != nil {
		log.Errorf("[UserHandler] 获取用户 %s 词典失败: %v", userID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"code": http.StatusInternalServerError, "message": "获取词典失败", "data": nil})
		return
	}
	if dictionary == nil {
		dictionary = []service.DictionaryItem{}
	}

	// 用户正在等待模型回复时不要一直阻塞
	peekCtx, cancel := context.WithTimeout(c.Request.Context(), sessionPeekTimeout)
	defer cancel()
	sessionState := "busy"
	if st, err := h.sessions.Peek(peekCtx, userID); err == nil {
		sessionState = service.StateName(st)
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "success",
		"data": gin.H{
			"user":         user,
			"accuracy":     user.Accuracy(),
			"dictionary":   dictionary,
			"sessionState": sessionState,
		},
	})
}

// GetLogs 返回最近的行为日志，最新的在前。
func (h *UserHandler) GetLogs(c *gin.Context) {
	userID := c.Param("userId")
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(service.DefaultLogLimit)))
	if err != nil || limit <= 0 {
		limit = service.DefaultLogLimit
	}

	logs, err := h.actionLogService.Recent(c.Request.Context(), userID, limit)
	if err != nil {
		log.Errorf("[UserHandler] 获取用户 %s 行为日志失败: %v", userID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"code": http.StatusInternalServerError, "message": "获取日志失败", "data": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": "success", "data": logs})
}
