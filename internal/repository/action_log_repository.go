package repository

import (
	"context"

	"chengyu-bot-go/internal/model"

	"gorm.io/gorm"
)

// ActionLogRepository 只支持追加和按用户回看，没有更新和删除。
type ActionLogRepository interface {
	Create(ctx context.Context, entry *model.ActionLog) error
	FindRecentByUser(ctx context.Context, userID string, limit int) ([]model.ActionLog, error)
}

type actionLogRepository struct {
	db *gorm.DB
}

// NewActionLogRepository 创建一个新的 ActionLogRepository 实例。
func NewActionLogRepository(db *gorm.DB) ActionLogRepository {
	return &actionLogRepository{db: db}
}

func (r *actionLogRepository) Create(ctx context.Context, entry *model.ActionLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

// FindRecentByUser 返回最新的 limit 条记录，新的在前。
func (r *actionLogRepository) FindRecentByUser(ctx context.Context, userID string, limit int) ([]model.ActionLog, error) {
	var logs []model.ActionLog
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").Order("id DESC").
		Limit(limit).
		Find(&logs).Error
	return logs, err
}
