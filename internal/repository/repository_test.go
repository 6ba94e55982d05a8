package repository

import (
	"context"
	"testing"

	"chengyu-bot-go/internal/model"
	"chengyu-bot-go/pkg/database"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Open("sqlite", ":memory:")
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.Idiom{}, &model.User{}, &model.DictionaryEntry{}, &model.ActionLog{}))
	t.Cleanup(func() {
		sqlDB, err := db.DB()
		if err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func seedIdioms(t *testing.T, repo IdiomRepository, idioms ...model.Idiom) {
	t.Helper()
	for i := range idioms {
		_, err := repo.Upsert(context.Background(), &idioms[i])
		require.NoError(t, err)
	}
}
