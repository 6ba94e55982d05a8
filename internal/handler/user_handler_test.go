package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"chengyu-bot-go/internal/model"
	"chengyu-bot-go/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newUserRouter(logs *fakeActionLogService) *gin.Engine {
	users := &fakeUserService{users: map[string]*model.User{
		"42": {ID: "42", Channel: model.ChannelTelegram, DailyTime: "08:15", PracticeCorrect: 3, PracticeTotal: 4},
	}}
	dictionary := &fakeDictionaryService{items: map[string][]service.DictionaryItem{
		"42": {{Idiom: "山清水秀", Translation: "Живописный пейзаж"}},
	}}
	h := NewUserHandler(users, dictionary, logs, service.NewSessionRegistry())

	r := gin.New()
	r.GET("/api/v1/users/:userId/profile", h.GetProfile)
	r.GET("/api/v1/users/:userId/logs", h.GetLogs)
	return r
}

func TestUserHandler_GetProfile(t *testing.T) {
	r := newUserRouter(&fakeActionLogService{})

	code, env := doJSON(t, r, http.MethodGet, "/api/v1/users/42/profile", "")
	require.Equal(t, http.StatusOK, code)

	var data struct {
		User         model.User               `json:"user"`
		Accuracy     float64                  `json:"accuracy"`
		Dictionary   []service.DictionaryItem `json:"dictionary"`
		SessionState string                   `json:"sessionState"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, "08:15", data.User.DailyTime)
	assert.InDelta(t, 75.0, data.Accuracy, 0.001)
	assert.Equal(t, "山清水秀", data.Dictionary[0].Idiom)
	assert.Equal(t, "idle", data.SessionState)

	code, _ = doJSON(t, r, http.MethodGet, "/api/v1/users/nobody/profile", "")
	assert.Equal(t, http.StatusNotFound, code)
}

func TestUserHandler_GetLogs(t *testing.T) {
	logs := &fakeActionLogService{logs: []model.ActionLogDTO{
		{ActionType: "command_start", Timestamp: model.LocalTime(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))},
	}}
	r := newUserRouter(logs)

	code, env := doJSON(t, r, http.MethodGet, "/api/v1/users/42/logs?limit=5", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, 5, logs.lastLimit)
	assert.Contains(t, string(env.Data), `"timestamp":"2026-03-01 09:00:00"`)

	_, _ = doJSON(t, r, http.MethodGet, "/api/v1/users/42/logs?limit=abc", "")
	assert.Equal(t, service.DefaultLogLimit, logs.lastLimit)

	logs.err = errors.New("db down")
	code, _ = doJSON(t, r, http.MethodGet, "/api/v1/users/42/logs", "")
	assert.Equal(t, http.StatusInternalServerError, code)
}
