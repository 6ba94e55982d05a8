package telegram

import (
	"context"
	"testing"

	"chengyu-bot-go/internal/model"
	"chengyu-bot-go/internal/service"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func command(chatID int64, text string) tgbotapi.Update {
	end := len(text)
	for i, r := range text {
		if r == ' ' {
			end = i
			break
		}
	}
	return tgbotapi.Update{Message: &tgbotapi.Message{
		Chat:     &tgbotapi.Chat{ID: chatID},
		From:     &tgbotapi.User{ID: chatID, UserName: "li", FirstName: "Li", LastName: "Wei"},
		Text:     text,
		Entities: []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: end}},
	}}
}

func TestEventFromUpdate_Commands(t *testing.T) {
	ev, ok := eventFromUpdate(command(42, "/start"))
	require.True(t, ok)
	assert.Equal(t, model.EventMenu, ev.Kind)
	assert.Equal(t, service.ActionStart, ev.Data)
	assert.Equal(t, "42", ev.UserID)
	assert.Equal(t, model.ChannelTelegram, ev.Channel)
	assert.Equal(t, "li", ev.Username)
	assert.Equal(t, "Wei", ev.LastName)

	ev, ok = eventFromUpdate(command(42, "/log"))
	require.True(t, ok)
	assert.Equal(t, model.EventMenu, ev.Kind)
	assert.Equal(t, service.ActionLog, ev.Data)

	// 其他命令原样作为文本，交给状态机识别退出词
	ev, ok = eventFromUpdate(command(42, "/stop"))
	require.True(t, ok)
	assert.Equal(t, model.EventText, ev.Kind)
	assert.Equal(t, "/stop", ev.Data)
}

func TestEventFromUpdate_TextAndCallback(t *testing.T) {
	ev, ok := eventFromUpdate(tgbotapi.Update{Message: &tgbotapi.Message{
		Chat: &tgbotapi.Chat{ID: 7},
		Text: "Горы зелёные",
	}})
	require.True(t, ok)
	assert.Equal(t, model.EventText, ev.Kind)
	assert.Equal(t, "Горы зелёные", ev.Data)
	assert.Empty(t, ev.Username)

	ev, ok = eventFromUpdate(tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
		ID:      "cb",
		From:    &tgbotapi.User{ID: 7, FirstName: "Anna"},
		Message: &tgbotapi.Message{MessageID: 3, Chat: &tgbotapi.Chat{ID: 7}},
		Data:    "theme_природа",
	}})
	require.True(t, ok)
	assert.Equal(t, model.EventMenu, ev.Kind)
	assert.Equal(t, "theme_природа", ev.Data)
	assert.Equal(t, "7", ev.UserID)
	assert.Equal(t, "Anna", ev.FirstName)
}

func TestEventFromUpdate_Ignored(t *testing.T) {
	cases := map[string]tgbotapi.Update{
		"empty":          {},
		"no text":        {Message: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: 1}}},
		"no chat":        {Message: &tgbotapi.Message{Text: "hi"}},
		"empty callback": {CallbackQuery: &tgbotapi.CallbackQuery{Message: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: 1}}}},
		"inline message": {CallbackQuery: &tgbotapi.CallbackQuery{Data: "idiom"}},
	}
	for name, update := range cases {
		t.Run(name, func(t *testing.T) {
			_, ok := eventFromUpdate(update)
			assert.False(t, ok)
		})
	}
}

func TestKeyboardFrom(t *testing.T) {
	markup := keyboardFrom([][]model.Button{
		{{Label: "Идиома дня", Action: service.ActionIdiom}},
		{{Label: "Да", Action: "confirm_add_山清水秀"}, {Label: "Нет", Action: service.ActionBack}},
	})
	require.Len(t, markup.InlineKeyboard, 2)
	require.Len(t, markup.InlineKeyboard[1], 2)
	first := markup.InlineKeyboard[0][0]
	assert.Equal(t, "Идиома дня", first.Text)
	require.NotNil(t, first.CallbackData)
	assert.Equal(t, service.ActionIdiom, *first.CallbackData)
	assert.Equal(t, "confirm_add_山清水秀", *markup.InlineKeyboard[1][0].CallbackData)
}

func TestParseMode(t *testing.T) {
	assert.Equal(t, tgbotapi.ModeMarkdown, parseMode(model.FormatMarkdown))
	assert.Empty(t, parseMode(model.FormatPlain))
	assert.Empty(t, parseMode(""))
}

func TestDeliver_InvalidChatID(t *testing.T) {
	b := &Bot{}
	err := b.Deliver(context.Background(), &model.User{ID: "web-user"}, model.Reply{Text: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "web-user")
}
