package handler

import (
	"context"
	"errors"
	"sync"

	"chengyu-bot-go/internal/model"
	"chengyu-bot-go/internal/service"
)

// fakeBotService 回显收到的事件，并记录调用。
type fakeBotService struct {
	mu     sync.Mutex
	events []model.Event
	err    error
}

func (f *fakeBotService) HandleEvent(_ context.Context, ev model.Event) (model.Reply, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, ev)
	if f.err != nil {
		return model.Reply{}, f.err
	}
	return model.Reply{
		Text:   string(ev.Kind) + ":" + ev.Data,
		Format: model.FormatPlain,
		Menu:   [][]model.Button{{{Label: "⬅️ Главное меню", Action: "back"}}},
	}, nil
}

func (f *fakeBotService) lastEvent() model.Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.events[len(f.events)-1]
}

type fakeUserService struct {
	users map[string]*model.User
}

func (f *fakeUserService) Touch(context.Context, model.Event) error { return nil }

func (f *fakeUserService) GetProfile(_ context.Context, userID string) (*model.User, error) {
	if u, ok := f.users[userID]; ok {
		return u, nil
	}
	return nil, service.ErrNotFound
}

func (f *fakeUserService) SetDailyTime(context.Context, string, string) (string, error) {
	return "", errors.New("not implemented")
}

type fakeDictionaryService struct {
	items map[string][]service.DictionaryItem
}

func (f *fakeDictionaryService) Add(context.Context, string, string) (bool, error) {
	return false, errors.New("not implemented")
}

func (f *fakeDictionaryService) Remove(context.Context, string, string) error {
	return errors.New("not implemented")
}

func (f *fakeDictionaryService) List(_ context.Context, userID string) ([]service.DictionaryItem, error) {
	return f.items[userID], nil
}

func (f *fakeDictionaryService) Random(context.Context, string) (string, *model.Idiom, error) {
	return "", nil, service.ErrNotFound
}

type fakeActionLogService struct {
	logs      []model.ActionLogDTO
	lastLimit int
	err       error
}

func (f *fakeActionLogService) Record(context.Context, string, string, map[string]any) {}

func (f *fakeActionLogService) Recent(_ context.Context, _ string, limit int) ([]model.ActionLogDTO, error) {
	f.lastLimit = limit
	return f.logs, f.err
}
