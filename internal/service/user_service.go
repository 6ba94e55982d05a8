package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"chengyu-bot-go/internal/model"
	"chengyu-bot-go/internal/repository"
)

// UserService 接口定义了所有与用户档案相关的业务操作。
type UserService interface {
	// Touch 在每次交互时创建用户或刷新展示信息。
	Touch(ctx context.Context, ev model.Event) error
	GetProfile(ctx context.Context, userID string) (*model.User, error)
	// SetDailyTime 校验并保存每日推送时间，返回规范化后的 HH:MM。
	SetDailyTime(ctx context.Context, userID, raw string) (string, error)
}

// userService 是 UserService 接口的实现。
type userService struct {
	userRepo repository.UserRepository
}

// NewUserService 创建一个新的 UserService 实例。
func NewUserService(userRepo repository.UserRepository) UserService {
	return &userService{userRepo: userRepo}
}

func (s *userService) Touch(ctx context.Context, ev model.Event) error {
	channel := ev.Channel
	if channel == "" {
		channel = model.ChannelTelegram
	}
	user := &model.User{
		ID:        ev.UserID,
		Channel:   channel,
		Username:  ev.Username,
		FirstName: ev.FirstName,
		LastName:  ev.LastName,
	}
	if err := s.userRepo.Upsert(ctx, user); err != nil {
		return storeErr("保存用户档案", err)
	}
	return nil
}

func (s *userService) GetProfile(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, storeErr("查询用户档案", err)
	}
	return user, nil
}

func (s *userService) SetDailyTime(ctx context.Context, userID, raw string) (string, error) {
	hhmm, err := ParseDailyTime(raw)
	if err != nil {
		return "", err
	}
	if err := s.userRepo.UpdateDailyTime(ctx, userID, hhmm); err != nil {
		return "", storeErr("更新推送时间", err)
	}
	return hhmm, nil
}

// ParseDailyTime 解析 24 小时制的 HH:MM，结果统一补零，例如 "9:05" 得到 "09:05"。
func ParseDailyTime(raw string) (string, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(raw))
	if err != nil {
		return "", fmt.Errorf("时间格式应为 HH:MM: %w", ErrValidation)
	}
	return t.Format("15:04"), nil
}
