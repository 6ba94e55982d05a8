package repository

import (
	"context"

	"chengyu-bot-go/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DictionaryRepository 管理个人词典：有序、无重复的成语集合。
type DictionaryRepository interface {
	// Add 返回 false 表示该成语已在词典中，此时不做任何修改。
	Add(ctx context.Context, userID, idiom string) (bool, error)
	// Remove 返回 false 表示该成语不在词典中。
	Remove(ctx context.Context, userID, idiom string) (bool, error)
	List(ctx context.Context, userID string) ([]model.DictionaryEntry, error)
}

type dictionaryRepository struct {
	db *gorm.DB
}

// NewDictionaryRepository 创建一个新的 DictionaryRepository 实例。
func NewDictionaryRepository(db *gorm.DB) DictionaryRepository {
	return &dictionaryRepository{db: db}
}

func (r *dictionaryRepository) Add(ctx context.Context, userID, idiom string) (bool, error) {
	entry := model.DictionaryEntry{UserID: userID, Idiom: idiom}
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&entry)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *dictionaryRepository) Remove(ctx context.Context, userID, idiom string) (bool, error) {
	res := r.db.WithContext(ctx).Where("user_id = ? AND idiom = ?", userID, idiom).Delete(&model.DictionaryEntry{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// List 按加入顺序返回词典内容。
func (r *dictionaryRepository) List(ctx context.Context, userID string) ([]model.DictionaryEntry, error) {
	var entries []model.DictionaryEntry
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("id").Find(&entries).Error
	return entries, err
}
