// Package telegram 把 Telegram 长轮询接到会话状态机上，并实现每日推送的 Notifier。
package telegram

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"chengyu-bot-go/internal/model"
	"chengyu-bot-go/internal/service"
	"chengyu-bot-go/pkg/log"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const (
	queueSize         = 32
	workerIdleTimeout = time.Minute
	textInternalErr   = "Произошла внутренняя ошибка."
)

// Bot 是 Telegram 渠道的传输层。每个 chat 一个串行 worker，不同 chat 并行处理。
type Bot struct {
	api         *tgbotapi.BotAPI
	botService  service.BotService
	pollTimeout int

	mu     sync.Mutex
	queues map[int64]chan tgbotapi.Update
	wg     sync.WaitGroup
}

// NewBot 创建 Telegram 客户端并校验 token。
func NewBot(token string, botService service.BotService, pollTimeout int) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("初始化 Telegram 客户端失败: %w", err)
	}
	log.Infof("Telegram 机器人已连接: @%s", api.Self.UserName)
	return newBot(api, botService, pollTimeout), nil
}

func newBot(api *tgbotapi.BotAPI, botService service.BotService, pollTimeout int) *Bot {
	if pollTimeout <= 0 {
		pollTimeout = 60
	}
	return &Bot{
		api:         api,
		botService:  botService,
		pollTimeout: pollTimeout,
		queues:      make(map[int64]chan tgbotapi.Update),
	}
}

// Run 开始长轮询，阻塞直到 ctx 取消，并等待正在处理的消息完成。
func (b *Bot) Run(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = b.pollTimeout
	updates := b.api.GetUpdatesChan(u)
	log.Info("Telegram 长轮询已启动")

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			b.wg.Wait()
			log.Info("Telegram 长轮询已停止")
			return
		case update, ok := <-updates:
			if !ok {
				b.wg.Wait()
				return
			}
			chatID, ok := chatIDOf(update)
			if !ok {
				continue
			}
			b.dispatch(ctx, chatID, update)
		}
	}
}

// dispatch 把消息放入该 chat 的队列，必要时启动 worker。
// 入队在持锁期间完成，worker 不会在这之间退出。
func (b *Bot) dispatch(ctx context.Context, chatID int64, update tgbotapi.Update) {
	b.mu.Lock()
	defer b.mu.Unlock()

	queue, ok := b.queues[chatID]
	if !ok {
		queue = make(chan tgbotapi.Update, queueSize)
		b.queues[chatID] = queue
		b.wg.Add(1)
		go b.worker(ctx, chatID, queue)
	}

	select {
	case queue <- update:
	case <-ctx.Done():
	}
}

func (b *Bot) worker(ctx context.Context, chatID int64, queue chan tgbotapi.Update) {
	defer b.wg.Done()
	idle := time.NewTimer(workerIdleTimeout)
	defer idle.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case update := <-queue:
			b.handle(ctx, update)
			if !idle.Stop() {
				select {
				case <-idle.C:
				default:
				}
			}
			idle.Reset(workerIdleTimeout)
		case <-idle.C:
			// dispatch 可能正持锁等待队列腾出空间，拿不到锁就继续工作
			if !b.mu.TryLock() {
				idle.Reset(workerIdleTimeout)
				continue
			}
			if len(queue) > 0 {
				b.mu.Unlock()
				idle.Reset(workerIdleTimeout)
				continue
			}
			delete(b.queues, chatID)
			b.mu.Unlock()
			return
		}
	}
}

func (b *Bot) handle(ctx context.Context, update tgbotapi.Update) {
	defer func() {
		if r := recover(); r != nil {
			log.Errorf("[Telegram] 处理消息 panic: %v", r)
		}
	}()

	ev, ok := eventFromUpdate(update)
	if !ok {
		return
	}
	chatID, _ := chatIDOf(update)

	if cq := update.CallbackQuery; cq != nil {
		if _, err := b.api.Request(tgbotapi.NewCallback(cq.ID, "")); err != nil {
			log.Warnf("[Telegram] 应答回调失败: %v", err)
		}
	} else if ev.Kind == model.EventText {
		_, _ = b.api.Request(tgbotapi.NewChatAction(chatID, tgbotapi.ChatTyping))
	}

	reply, err := b.botService.HandleEvent(ctx, ev)
	if err != nil {
		log.Errorf("[Telegram] 处理事件失败, chat=%d: %v", chatID, err)
		reply = model.Reply{Text: textInternalErr, Format: model.FormatPlain}
	}

	if cq := update.CallbackQuery; cq != nil && cq.Message != nil {
		err := b.edit(chatID, cq.Message.MessageID, reply)
		if err == nil {
			return
		}
		log.Warnf("[Telegram] 编辑消息失败, 改为发送新消息: %v", err)
	}
	if err := b.send(chatID, reply); err != nil {
		log.Errorf("[Telegram] 发送消息失败, chat=%d: %v", chatID, err)
	}
}

// Deliver 实现 service.Notifier，用户 ID 即 chat ID。
func (b *Bot) Deliver(_ context.Context, user *model.User, reply model.Reply) error {
	chatID, err := strconv.ParseInt(user.ID, 10, 64)
	if err != nil {
		return fmt.Errorf("无效的 Telegram chat id %q: %w", user.ID, err)
	}
	return b.send(chatID, reply)
}

func (b *Bot) send(chatID int64, reply model.Reply) error {
	msg := tgbotapi.NewMessage(chatID, reply.Text)
	msg.ParseMode = parseMode(reply.Format)
	if len(reply.Menu) > 0 {
		msg.ReplyMarkup = keyboardFrom(reply.Menu)
	}
	_, err := b.api.Send(msg)
	if err != nil && msg.ParseMode != "" {
		// 成语或用户输入里的符号可能让 Markdown 解析失败，退回纯文本
		msg.ParseMode = ""
		_, err = b.api.Send(msg)
	}
	return err
}

func (b *Bot) edit(chatID int64, messageID int, reply model.Reply) error {
	edit := tgbotapi.NewEditMessageText(chatID, messageID, reply.Text)
	edit.ParseMode = parseMode(reply.Format)
	if len(reply.Menu) > 0 {
		markup := keyboardFrom(reply.Menu)
		edit.ReplyMarkup = &markup
	}
	_, err := b.api.Send(edit)
	return err
}

func parseMode(format model.Format) string {
	if format == model.FormatMarkdown {
		return tgbotapi.ModeMarkdown
	}
	return ""
}

func keyboardFrom(menu [][]model.Button) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(menu))
	for _, row := range menu {
		buttons := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
		for _, btn := range row {
			buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(btn.Label, btn.Action))
		}
		rows = append(rows, buttons)
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func chatIDOf(update tgbotapi.Update) (int64, bool) {
	switch {
	case update.CallbackQuery != nil && update.CallbackQuery.Message != nil && update.CallbackQuery.Message.Chat != nil:
		return update.CallbackQuery.Message.Chat.ID, true
	case update.Message != nil && update.Message.Chat != nil:
		return update.Message.Chat.ID, true
	}
	return 0, false
}

// eventFromUpdate 把 Telegram 更新转换成会话事件。/start 与 /log 视为菜单动作，其余命令按文本处理。
func eventFromUpdate(update tgbotapi.Update) (model.Event, bool) {
	chatID, ok := chatIDOf(update)
	if !ok {
		return model.Event{}, false
	}
	ev := model.Event{UserID: strconv.FormatInt(chatID, 10), Channel: model.ChannelTelegram}

	var from *tgbotapi.User
	switch {
	case update.CallbackQuery != nil:
		if update.CallbackQuery.Data == "" {
			return model.Event{}, false
		}
		from = update.CallbackQuery.From
		ev.Kind = model.EventMenu
		ev.Data = update.CallbackQuery.Data
	case update.Message != nil:
		msg := update.Message
		if msg.Text == "" {
			return model.Event{}, false
		}
		from = msg.From
		ev.Kind = model.EventText
		ev.Data = msg.Text
		if msg.IsCommand() {
			switch msg.Command() {
			case "start":
				ev.Kind, ev.Data = model.EventMenu, service.ActionStart
			case "log":
				ev.Kind, ev.Data = model.EventMenu, service.ActionLog
			}
		}
	default:
		return model.Event{}, false
	}

	if from != nil {
		ev.Username = from.UserName
		ev.FirstName = from.FirstName
		ev.LastName = from.LastName
	}
	return ev, true
}
