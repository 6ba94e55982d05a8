package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"chengyu-bot-go/internal/config"
	"chengyu-bot-go/internal/model"
	"chengyu-bot-go/internal/repository"
	"chengyu-bot-go/pkg/database"
	"chengyu-bot-go/pkg/llm"

	"github.com/stretchr/testify/require"
)

var testIdioms = []model.Idiom{
	{Theme: "природа", Text: "山清水秀", Pinyin: "shān qīng shuǐ xiù", Translation: "Живописный пейзаж", Meaning: "Красивая природа", Example: "这里山清水秀。"},
	{Theme: "учёба", Text: "学而不厌", Pinyin: "xué ér bù yàn", Translation: "Учиться без устали", Meaning: "Неутомимо учиться", Example: "他学而不厌。"},
}

// fixture 把业务层接到内存 SQLite 和 MockProvider 上。
type fixture struct {
	idiomRepo      *countingIdiomRepo
	userRepo       repository.UserRepository
	dictionaryRepo repository.DictionaryRepository
	actionRepo     repository.ActionLogRepository

	provider   *llm.MockProvider
	sessions   *SessionRegistry
	users      UserService
	dictionary DictionaryService
	practice   PracticeService
	dialogue   DialogueService
	actions    ActionLogService
	bot        BotService
}

func newFixture(t *testing.T, idioms ...model.Idiom) *fixture {
	t.Helper()
	db, err := database.Open("sqlite", ":memory:")
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.Idiom{}, &model.User{}, &model.DictionaryEntry{}, &model.ActionLog{}))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	f := &fixture{
		idiomRepo:      &countingIdiomRepo{IdiomRepository: repository.NewIdiomRepository(db)},
		userRepo:       repository.NewUserRepository(db),
		dictionaryRepo: repository.NewDictionaryRepository(db),
		actionRepo:     repository.NewActionLogRepository(db),
		provider:       llm.NewMockProvider(),
		sessions:       NewSessionRegistry(),
	}
	for i := range idioms {
		idiom := idioms[i]
		_, err := f.idiomRepo.Upsert(context.Background(), &idiom)
		require.NoError(t, err)
	}

	f.users = NewUserService(f.userRepo)
	f.dictionary = NewDictionaryService(f.dictionaryRepo, f.idiomRepo)
	f.practice = NewPracticeService(f.provider, config.LLMGenerationConfig{}, f.idiomRepo, f.userRepo)
	f.dialogue = NewDialogueService(f.provider, config.LLMConfig{})
	f.actions = NewActionLogService(f.actionRepo, nil)
	f.bot = NewBotService(f.sessions, f.users, NewIdiomService(f.idiomRepo), f.dictionary, f.practice, f.dialogue, f.actions, 20)
	return f
}

func (f *fixture) createUser(t *testing.T, id, dailyTime string) {
	t.Helper()
	require.NoError(t, f.userRepo.Upsert(context.Background(), &model.User{ID: id, Channel: model.ChannelWeb, DailyTime: dailyTime}))
}

func (f *fixture) state(t *testing.T, userID string) State {
	t.Helper()
	st, err := f.sessions.Peek(context.Background(), userID)
	require.NoError(t, err)
	return st
}

func (f *fixture) menu(t *testing.T, userID, action string) model.Reply {
	t.Helper()
	reply, err := f.bot.HandleEvent(context.Background(), model.Event{UserID: userID, Channel: model.ChannelWeb, Kind: model.EventMenu, Data: action})
	require.NoError(t, err)
	return reply
}

func (f *fixture) text(t *testing.T, userID, text string) model.Reply {
	t.Helper()
	reply, err := f.bot.HandleEvent(context.Background(), model.Event{UserID: userID, Channel: model.ChannelWeb, Kind: model.EventText, Data: text})
	require.NoError(t, err)
	return reply
}

// countingIdiomRepo 统计 Random 的调用次数。
type countingIdiomRepo struct {
	repository.IdiomRepository
	randomCalls atomic.Int64
}

func (r *countingIdiomRepo) Random(ctx context.Context) (*model.Idiom, error) {
	r.randomCalls.Add(1)
	return r.IdiomRepository.Random(ctx)
}

// fakeNotifier 记录每个用户收到的推送，failFor 中的用户投递失败。
type fakeNotifier struct {
	mu        sync.Mutex
	delivered map[string][]model.Reply
	failFor   map[string]bool
}

func newFakeNotifier(failFor ...string) *fakeNotifier {
	n := &fakeNotifier{delivered: make(map[string][]model.Reply), failFor: make(map[string]bool)}
	for _, id := range failFor {
		n.failFor[id] = true
	}
	return n
}

func (n *fakeNotifier) Deliver(_ context.Context, user *model.User, reply model.Reply) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.failFor[user.ID] {
		return errors.New("chat not found")
	}
	n.delivered[user.ID] = append(n.delivered[user.ID], reply)
	return nil
}

func (n *fakeNotifier) heal(userID string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	delete(n.failFor, userID)
}

func (n *fakeNotifier) count(userID string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.delivered[userID])
}

// memoryLedger 是进程内的推送去重记录。
type memoryLedger struct {
	mu   sync.Mutex
	sent map[string]bool
}

func (l *memoryLedger) MarkSent(_ context.Context, day, hhmm, userID string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.sent == nil {
		l.sent = make(map[string]bool)
	}
	key := day + ":" + hhmm + ":" + userID
	if l.sent[key] {
		return false, nil
	}
	l.sent[key] = true
	return true, nil
}

func (l *memoryLedger) Release(_ context.Context, day, hhmm, userID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.sent, day+":"+hhmm+":"+userID)
	return nil
}

func testLLMConfig() config.LLMConfig {
	return config.LLMConfig{Prompt: config.LLMPromptConfig{FreeModeSystem: "free-mode system"}}
}
