package repository

import (
	"context"

	"chengyu-bot-go/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UserRepository 接口定义了用户档案的持久化操作。每个方法都是单条语句。
type UserRepository interface {
	// Upsert 创建用户，或仅刷新已有用户的展示信息和渠道。
	Upsert(ctx context.Context, user *model.User) error
	FindByID(ctx context.Context, userID string) (*model.User, error)
	FindByDailyTime(ctx context.Context, hhmm string) ([]model.User, error)
	UpdateDailyTime(ctx context.Context, userID, hhmm string) error
	// IncrementPractice 原子地把 practice_total 加一，correct 为真时 practice_correct 同时加一。
	IncrementPractice(ctx context.Context, userID string, correct bool) error
}

// userRepository 是 UserRepository 接口的 GORM 实现。
type userRepository struct {
	db *gorm.DB
}

// NewUserRepository 创建一个新的 UserRepository 实例。
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Upsert(ctx context.Context, user *model.User) error {
	if user.DailyTime == "" {
		user.DailyTime = model.DefaultDailyTime
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"channel", "username", "first_name", "last_name", "updated_at"}),
	}).Create(user).Error
}

// FindByID 根据用户 ID 查找一个用户。
func (r *userRepository) FindByID(ctx context.Context, userID string) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).Where("id = ?", userID).Take(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByDailyTime 精确匹配 daily_time 字符串。
func (r *userRepository) FindByDailyTime(ctx context.Context, hhmm string) ([]model.User, error) {
	var users []model.User
	err := r.db.WithContext(ctx).Where("daily_time = ?", hhmm).Order("id").Find(&users).Error
	return users, err
}

// UpdateDailyTime 用户不存在时返回 gorm.ErrRecordNotFound。
func (r *userRepository) UpdateDailyTime(ctx context.Context, userID, hhmm string) error {
	res := r.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", userID).Update("daily_time", hhmm)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		return nil
	}
	// MySQL 在值未变化时也返回 0 行，需要再确认用户是否存在
	var count int64
	if err := r.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", userID).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *userRepository) IncrementPractice(ctx context.Context, userID string, correct bool) error {
	correctDelta := 0
	if correct {
		correctDelta = 1
	}
	res := r.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", userID).Updates(map[string]interface{}{
		"practice_total":   gorm.Expr("practice_total + ?", 1),
		"practice_correct": gorm.Expr("practice_correct + ?", correctDelta),
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
