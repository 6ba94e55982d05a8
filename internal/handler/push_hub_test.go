package handler

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"chengyu-bot-go/internal/model"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dialHub(t *testing.T, hub *PushHub, userID string) *websocket.Conn {
	t.Helper()
	r := gin.New()
	r.GET("/api/v1/bot/ws/:userId", hub.Handle)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/bot/ws/" + userID
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	require.Eventually(t, func() bool { return hub.Subscribers(userID) == 1 }, time.Second, 5*time.Millisecond)
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) wsMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg wsMessage
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func TestPushHub_RoundTrip(t *testing.T) {
	bot := &fakeBotService{}
	hub := NewPushHub(bot)
	conn := dialHub(t, hub, "7")

	require.NoError(t, conn.WriteJSON(wsInbound{Kind: "text", Data: "你好"}))
	msg := readMessage(t, conn)
	assert.Equal(t, "reply", msg.Type)
	require.NotNil(t, msg.Data)
	assert.Equal(t, "text:你好", msg.Data.Text)
	assert.Equal(t, model.ChannelWeb, bot.lastEvent().Channel)

	require.NoError(t, conn.WriteJSON(wsInbound{Kind: "voice"}))
	msg = readMessage(t, conn)
	assert.Equal(t, "error", msg.Type)
}

func TestPushHub_Deliver(t *testing.T) {
	hub := NewPushHub(&fakeBotService{})
	conn := dialHub(t, hub, "7")

	err := hub.Deliver(context.Background(), &model.User{ID: "7"}, model.Reply{Text: "📚 *Идиома дня*", Format: model.FormatMarkdown})
	require.NoError(t, err)
	msg := readMessage(t, conn)
	assert.Equal(t, "push", msg.Type)
	assert.Equal(t, "📚 *Идиома дня*", msg.Data.Text)

	err = hub.Deliver(context.Background(), &model.User{ID: "offline"}, model.Reply{Text: "x"})
	assert.ErrorIs(t, err, ErrNoSubscriber)
}

func TestPushHub_UnregistersOnClose(t *testing.T) {
	hub := NewPushHub(&fakeBotService{})
	conn := dialHub(t, hub, "9")
	require.NoError(t, conn.Close())
	assert.Eventually(t, func() bool { return hub.Subscribers("9") == 0 }, time.Second, 5*time.Millisecond)
}
