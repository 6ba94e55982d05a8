package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// ledgerTTL 覆盖一整天再留些余量，过期后键自动清理。
const ledgerTTL = 26 * time.Hour

// BroadcastLedger 记录某个 UTC 日期的某一分钟已经给哪些用户推送过每日成语。
// 键带上分钟，用户当天改了时间仍会在新的时间点收到推送。
type BroadcastLedger interface {
	// MarkSent 首次标记返回 true；同一天同一分钟重复标记返回 false。
	MarkSent(ctx context.Context, day, hhmm, userID string) (bool, error)
	// Release 撤销标记，投递失败后调用。
	Release(ctx context.Context, day, hhmm, userID string) error
}

type redisBroadcastLedger struct {
	redisClient *redis.Client
}

// NewBroadcastLedger 创建基于 Redis 的推送记录。redisClient 为 nil 时返回不做去重的实现。
func NewBroadcastLedger(redisClient *redis.Client) BroadcastLedger {
	if redisClient == nil {
		return noopBroadcastLedger{}
	}
	return &redisBroadcastLedger{redisClient: redisClient}
}

func ledgerKey(day, hhmm, userID string) string {
	return fmt.Sprintf("broadcast:%s:%s:%s", day, hhmm, userID)
}

func (r *redisBroadcastLedger) MarkSent(ctx context.Context, day, hhmm, userID string) (bool, error) {
	ok, err := r.redisClient.SetNX(ctx, ledgerKey(day, hhmm, userID), time.Now().UTC().Unix(), ledgerTTL).Result()
	if err != nil {
		return false, fmt.Errorf("failed to mark broadcast: %w", err)
	}
	return ok, nil
}

func (r *redisBroadcastLedger) Release(ctx context.Context, day, hhmm, userID string) error {
	if err := r.redisClient.Del(ctx, ledgerKey(day, hhmm, userID)).Err(); err != nil {
		return fmt.Errorf("failed to release broadcast mark: %w", err)
	}
	return nil
}

type noopBroadcastLedger struct{}

func (noopBroadcastLedger) MarkSent(context.Context, string, string, string) (bool, error) {
	return true, nil
}

func (noopBroadcastLedger) Release(context.Context, string, string, string) error { return nil }
