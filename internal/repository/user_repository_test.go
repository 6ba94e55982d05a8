package repository

import (
	"context"
	"testing"

	"chengyu-bot-go/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestUserRepository_UpsertKeepsSettingsAndCounters(t *testing.T) {
	repo := NewUserRepository(newTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, &model.User{ID: "42", Channel: model.ChannelTelegram, Username: "li"}))
	require.NoError(t, repo.UpdateDailyTime(ctx, "42", "07:30"))
	require.NoError(t, repo.IncrementPractice(ctx, "42", true))

	require.NoError(t, repo.Upsert(ctx, &model.User{ID: "42", Channel: model.ChannelTelegram, Username: "li_new", FirstName: "Li"}))

	got, err := repo.FindByID(ctx, "42")
	require.NoError(t, err)
	assert.Equal(t, "li_new", got.Username)
	assert.Equal(t, "Li", got.FirstName)
	assert.Equal(t, "07:30", got.DailyTime)
	assert.Equal(t, int64(1), got.PracticeCorrect)
	assert.Equal(t, int64(1), got.PracticeTotal)
}

func TestUserRepository_DefaultDailyTime(t *testing.T) {
	repo := NewUserRepository(newTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, &model.User{ID: "1", Channel: model.ChannelWeb}))

	got, err := repo.FindByID(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, model.DefaultDailyTime, got.DailyTime)
}

func TestUserRepository_UpdateDailyTime(t *testing.T) {
	repo := NewUserRepository(newTestDB(t))
	ctx := context.Background()
	require.NoError(t, repo.Upsert(ctx, &model.User{ID: "5"}))

	require.NoError(t, repo.UpdateDailyTime(ctx, "5", "21:15"))
	require.NoError(t, repo.UpdateDailyTime(ctx, "5", "21:15"))

	got, err := repo.FindByID(ctx, "5")
	require.NoError(t, err)
	assert.Equal(t, "21:15", got.DailyTime)

	assert.ErrorIs(t, repo.UpdateDailyTime(ctx, "missing", "08:00"), gorm.ErrRecordNotFound)
}

func TestUserRepository_IncrementPractice(t *testing.T) {
	repo := NewUserRepository(newTestDB(t))
	ctx := context.Background()
	require.NoError(t, repo.Upsert(ctx, &model.User{ID: "7"}))

	require.NoError(t, repo.IncrementPractice(ctx, "7", true))
	require.NoError(t, repo.IncrementPractice(ctx, "7", false))
	require.NoError(t, repo.IncrementPractice(ctx, "7", false))

	got, err := repo.FindByID(ctx, "7")
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.PracticeCorrect)
	assert.Equal(t, int64(3), got.PracticeTotal)

	assert.ErrorIs(t, repo.IncrementPractice(ctx, "missing", true), gorm.ErrRecordNotFound)
}

func TestUserRepository_FindByDailyTimeExactMatch(t *testing.T) {
	repo := NewUserRepository(newTestDB(t))
	ctx := context.Background()
	require.NoError(t, repo.Upsert(ctx, &model.User{ID: "a"}))
	require.NoError(t, repo.Upsert(ctx, &model.User{ID: "b"}))
	require.NoError(t, repo.Upsert(ctx, &model.User{ID: "c"}))
	require.NoError(t, repo.UpdateDailyTime(ctx, "c", "09:01"))

	at0900, err := repo.FindByDailyTime(ctx, "09:00")
	require.NoError(t, err)
	require.Len(t, at0900, 2)
	assert.Equal(t, "a", at0900[0].ID)
	assert.Equal(t, "b", at0900[1].ID)

	at0901, err := repo.FindByDailyTime(ctx, "09:01")
	require.NoError(t, err)
	require.Len(t, at0901, 1)
	assert.Equal(t, "c", at0901[0].ID)

	none, err := repo.FindByDailyTime(ctx, "9:00")
	require.NoError(t, err)
	assert.Empty(t, none)
}
