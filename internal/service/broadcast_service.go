package service

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"chengyu-bot-go/internal/model"
	"chengyu-bot-go/internal/repository"
	"chengyu-bot-go/pkg/log"

	"golang.org/x/sync/errgroup"
)

// Notifier 把一条消息主动推送给某个用户，由各传输渠道实现。
type Notifier interface {
	Deliver(ctx context.Context, user *model.User, reply model.Reply) error
}

// BroadcastStats 汇总一次 tick 的推送结果。
type BroadcastStats struct {
	Matched int
	Sent    int
	Failed  int
	Skipped int
	Idiom   string
}

// BroadcastService 每分钟检查一次，给 daily_time 恰好等于当前 UTC 分钟的用户推送每日成语。
// 错过的 tick 不会补发。
type BroadcastService interface {
	Tick(ctx context.Context, now time.Time) (BroadcastStats, error)
	// Run 阻塞直到 ctx 取消。
	Run(ctx context.Context, firstDelay, interval time.Duration)
}

type broadcastService struct {
	userRepo    repository.UserRepository
	idiomRepo   repository.IdiomRepository
	ledger      repository.BroadcastLedger
	actionLog   ActionLogService
	notifiers   map[string]Notifier
	concurrency int
}

// NewBroadcastService 创建一个新的 BroadcastService 实例。notifiers 以用户渠道为键。
func NewBroadcastService(
	userRepo repository.UserRepository,
	idiomRepo repository.IdiomRepository,
	ledger repository.BroadcastLedger,
	actionLog ActionLogService,
	notifiers map[string]Notifier,
	concurrency int,
) BroadcastService {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &broadcastService{
		userRepo:    userRepo,
		idiomRepo:   idiomRepo,
		ledger:      ledger,
		actionLog:   actionLog,
		notifiers:   notifiers,
		concurrency: concurrency,
	}
}

func (s *broadcastService) Tick(ctx context.Context, now time.Time) (BroadcastStats, error) {
	now = now.UTC()
	hhmm := now.Format("15:04")
	var stats BroadcastStats

	users, err := s.userRepo.FindByDailyTime(ctx, hhmm)
	if err != nil {
		return stats, storeErr("查询待推送用户", err)
	}
	stats.Matched = len(users)
	if len(users) == 0 {
		return stats, nil
	}

	idiom, err := s.idiomRepo.Random(ctx)
	if err != nil {
		return stats, storeErr("抽取每日成语", err)
	}
	stats.Idiom = idiom.Text
	reply := DailyIdiomReply(idiom, now)
	day := now.Format("2006-01-02")

	var sent, failed, skipped atomic.Int64
	g := new(errgroup.Group)
	g.SetLimit(s.concurrency)
	for i := range users {
		user := &users[i]
		g.Go(func() error {
			switch s.deliver(ctx, day, hhmm, user, reply) {
			case deliverySent:
				sent.Add(1)
				s.actionLog.Record(ctx, user.ID, "daily_idiom_sent", map[string]any{"idiom": idiom.Text})
			case deliverySkipped:
				skipped.Add(1)
			default:
				failed.Add(1)
			}
			return nil
		})
	}
	_ = g.Wait()

	stats.Sent, stats.Failed, stats.Skipped = int(sent.Load()), int(failed.Load()), int(skipped.Load())
	if stats.Sent > 0 || stats.Failed > 0 {
		log.Infof("[Broadcast] %s UTC 推送完成: 成功=%d, 失败=%d, 跳过=%d", hhmm, stats.Sent, stats.Failed, stats.Skipped)
	}
	return stats, nil
}

type deliveryOutcome int

const (
	deliverySent deliveryOutcome = iota
	deliverySkipped
	deliveryFailed
)

func (s *broadcastService) deliver(ctx context.Context, day, hhmm string, user *model.User, reply model.Reply) deliveryOutcome {
	notifier, ok := s.notifiers[user.Channel]
	if !ok {
		log.Warnf("[Broadcast] 用户 %s 的渠道 %q 没有可用的推送通道", user.ID, user.Channel)
		return deliveryFailed
	}

	marked, err := s.ledger.MarkSent(ctx, day, hhmm, user.ID)
	if err != nil {
		// 去重记录不可用时照常推送
		log.Warnf("[Broadcast] 写入推送记录失败, user=%s: %v", user.ID, err)
	} else if !marked {
		return deliverySkipped
	}

	if err := notifier.Deliver(ctx, user, reply); err != nil {
		log.Warnf("[Broadcast] 推送给用户 %s 失败: %v", user.ID, err)
		if marked {
			// 失败的投递不占用记录，同一分钟内重启后还能再试一次
			if err := s.ledger.Release(context.WithoutCancel(ctx), day, hhmm, user.ID); err != nil {
				log.Warnf("[Broadcast] 撤销推送记录失败, user=%s: %v", user.ID, err)
			}
		}
		return deliveryFailed
	}
	return deliverySent
}

func (s *broadcastService) Run(ctx context.Context, firstDelay, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	timer := time.NewTimer(firstDelay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return
	case <-timer.C:
	}

	log.Infof("[Broadcast] 定时推送已启动, 间隔 %s", interval)
	s.runTick(ctx, time.Now())

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Info("[Broadcast] 定时推送已停止")
			return
		case t := <-ticker.C:
			s.runTick(ctx, t)
		}
	}
}

func (s *broadcastService) runTick(ctx context.Context, now time.Time) {
	defer func() {
		if r := recover(); r != nil {
			log.Errorf("[Broadcast] tick panic: %v", r)
		}
	}()
	if _, err := s.Tick(ctx, now); err != nil {
		log.Error(fmt.Sprintf("[Broadcast] %s UTC 推送失败", now.UTC().Format("15:04")), err)
	}
}
