// Package repository 提供了数据访问层的实现。
package repository

import (
	"context"
	"errors"
	"math/rand/v2"

	"chengyu-bot-go/internal/model"

	"gorm.io/gorm"
)

// IdiomRepository 定义了成语库的读写操作。运行期只读，写入只发生在导入时。
type IdiomRepository interface {
	// Upsert 以成语文本为键插入或覆盖一条记录，created 表示是否为新记录。
	Upsert(ctx context.Context, idiom *model.Idiom) (created bool, err error)
	FindByText(ctx context.Context, text string) (*model.Idiom, error)
	FindByTexts(ctx context.Context, texts []string) ([]model.Idiom, error)
	Random(ctx context.Context) (*model.Idiom, error)
	RandomByTheme(ctx context.Context, theme string) (*model.Idiom, error)
	Themes(ctx context.Context) ([]string, error)
}

type idiomRepository struct {
	db *gorm.DB
}

// NewIdiomRepository 创建一个新的 IdiomRepository 实例。
func NewIdiomRepository(db *gorm.DB) IdiomRepository {
	return &idiomRepository{db: db}
}

func (r *idiomRepository) Upsert(ctx context.Context, idiom *model.Idiom) (bool, error) {
	created := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing model.Idiom
		err := tx.Where("idiom = ?", idiom.Text).Take(&existing).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			created = true
			return tx.Create(idiom).Error
		}
		if err != nil {
			return err
		}
		idiom.ID = existing.ID
		return tx.Model(&existing).Updates(map[string]interface{}{
			"theme":       idiom.Theme,
			"pinyin":      idiom.Pinyin,
			"translation": idiom.Translation,
			"meaning":     idiom.Meaning,
			"example":     idiom.Example,
		}).Error
	})
	return created, err
}

// FindByText 根据成语文本查找记录，不存在时返回 gorm.ErrRecordNotFound。
func (r *idiomRepository) FindByText(ctx context.Context, text string) (*model.Idiom, error) {
	var idiom model.Idiom
	if err := r.db.WithContext(ctx).Where("idiom = ?", text).Take(&idiom).Error; err != nil {
		return nil, err
	}
	return &idiom, nil
}

func (r *idiomRepository) FindByTexts(ctx context.Context, texts []string) ([]model.Idiom, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	var idioms []model.Idiom
	err := r.db.WithContext(ctx).Where("idiom IN ?", texts).Find(&idioms).Error
	return idioms, err
}

// Random 从整个成语库中等概率随机取一条。
func (r *idiomRepository) Random(ctx context.Context) (*model.Idiom, error) {
	return r.pickRandom(ctx, func(db *gorm.DB) *gorm.DB { return db })
}

func (r *idiomRepository) RandomByTheme(ctx context.Context, theme string) (*model.Idiom, error) {
	return r.pickRandom(ctx, func(db *gorm.DB) *gorm.DB { return db.Where("theme = ?", theme) })
}

// pickRandom 先计数再按随机偏移读取，mysql 与 sqlite 通用。
func (r *idiomRepository) pickRandom(ctx context.Context, scope func(*gorm.DB) *gorm.DB) (*model.Idiom, error) {
	var total int64
	if err := scope(r.db.WithContext(ctx).Model(&model.Idiom{})).Count(&total).Error; err != nil {
		return nil, err
	}
	if total == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	var idiom model.Idiom
	err := scope(r.db.WithContext(ctx)).Order("id").Offset(rand.IntN(int(total))).Limit(1).Take(&idiom).Error
	if err != nil {
		return nil, err
	}
	return &idiom, nil
}

// Themes 返回按字母排序的全部主题。
func (r *idiomRepository) Themes(ctx context.Context) ([]string, error) {
	var themes []string
	err := r.db.WithContext(ctx).Model(&model.Idiom{}).Distinct("theme").Order("theme").Pluck("theme", &themes).Error
	return themes, err
}
