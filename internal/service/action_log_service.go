package service

import (
	"context"
	"encoding/json"
	"time"

	"chengyu-bot-go/internal/model"
	"chengyu-bot-go/internal/repository"
	"chengyu-bot-go/pkg/log"
	"chengyu-bot-go/pkg/tasks"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// 行为日志的默认与最大回看条数。
const (
	DefaultLogLimit = 15
	MaxLogLimit     = 100
)

// ActionPublisher 把行为事件转发给下游，例如 Kafka。
type ActionPublisher interface {
	PublishUserAction(ctx context.Context, event tasks.UserActionEvent) error
}

// ActionLogService 记录和回看用户行为。日志只用于审计，不参与流程控制。
type ActionLogService interface {
	// Record 尽力写入，失败只记日志，不影响调用方。
	Record(ctx context.Context, userID, actionType string, details map[string]any)
	Recent(ctx context.Context, userID string, limit int) ([]model.ActionLogDTO, error)
}

type actionLogService struct {
	repo      repository.ActionLogRepository
	publisher ActionPublisher
}

// NewActionLogService 创建一个新的 ActionLogService 实例。publisher 可以为 nil。
func NewActionLogService(repo repository.ActionLogRepository, publisher ActionPublisher) ActionLogService {
	return &actionLogService{repo: repo, publisher: publisher}
}

func (s *actionLogService) Record(ctx context.Context, userID, actionType string, details map[string]any) {
	ctx = context.WithoutCancel(ctx)
	entry := &model.ActionLog{
		UserID:     userID,
		ActionType: actionType,
	}
	if len(details) > 0 {
		raw, err := json.Marshal(details)
		if err != nil {
			log.Warnf("[ActionLog] 序列化行为详情失败, action=%s: %v", actionType, err)
		} else {
			entry.Details = datatypes.JSON(raw)
		}
	}
	if err := s.repo.Create(ctx, entry); err != nil {
		log.Errorf("[ActionLog] 写入行为日志失败, user=%s, action=%s: %v", userID, actionType, err)
	}

	if s.publisher == nil {
		return
	}
	event := tasks.UserActionEvent{
		EventID:    uuid.NewString(),
		UserID:     userID,
		ActionType: actionType,
		Details:    details,
		OccurredAt: time.Now().UTC(),
	}
	if err := s.publisher.PublishUserAction(ctx, event); err != nil {
		log.Warnf("[ActionLog] 投递行为事件失败, user=%s, action=%s: %v", userID, actionType, err)
	}
}

func (s *actionLogService) Recent(ctx context.Context, userID string, limit int) ([]model.ActionLogDTO, error) {
	if limit <= 0 {
		limit = DefaultLogLimit
	}
	if limit > MaxLogLimit {
		limit = MaxLogLimit
	}
	entries, err := s.repo.FindRecentByUser(ctx, userID, limit)
	if err != nil {
		return nil, storeErr("查询行为日志", err)
	}

	dtos := make([]model.ActionLogDTO, 0, len(entries))
	for _, e := range entries {
		dto := model.ActionLogDTO{
			ActionType: e.ActionType,
			Timestamp:  model.LocalTime(e.CreatedAt),
		}
		if len(e.Details) > 0 {
			if err := json.Unmarshal(e.Details, &dto.Details); err != nil {
				dto.Details = map[string]any{"raw": string(e.Details)}
			}
		}
		dtos = append(dtos, dto)
	}
	return dtos, nil
}
