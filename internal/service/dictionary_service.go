package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"

	"chengyu-bot-go/internal/model"
	"chengyu-bot-go/internal/repository"

	"gorm.io/gorm"
)

// DictionaryItem 是词典列表中的一行，Translation 为空表示成语库里已找不到该成语。
type DictionaryItem struct {
	Idiom       string `json:"idiom"`
	Translation string `json:"translation"`
}

// DictionaryService 管理用户的个人词典。
type DictionaryService interface {
	// Add 只接受成语库中存在的成语。added 为 false 表示已在词典中，此时不写库。
	Add(ctx context.Context, userID, idiom string) (added bool, err error)
	// Remove 删除一项，不在词典中时返回 ErrNotFound。
	Remove(ctx context.Context, userID, idiom string) error
	List(ctx context.Context, userID string) ([]DictionaryItem, error)
	// Random 随机挑一项用于复习。成语库缺失该条目时 details 为 nil。
	Random(ctx context.Context, userID string) (idiom string, details *model.Idiom, err error)
}

type dictionaryService struct {
	dictionaryRepo repository.DictionaryRepository
	idiomRepo      repository.IdiomRepository
}

// NewDictionaryService 创建一个新的 DictionaryService 实例。
func NewDictionaryService(dictionaryRepo repository.DictionaryRepository, idiomRepo repository.IdiomRepository) DictionaryService {
	return &dictionaryService{
		dictionaryRepo: dictionaryRepo,
		idiomRepo:      idiomRepo,
	}
}

func (s *dictionaryService) Add(ctx context.Context, userID, idiom string) (bool, error) {
	idiom = strings.TrimSpace(idiom)
	if idiom == "" {
		return false, fmt.Errorf("成语不能为空: %w", ErrValidation)
	}
	if _, err := s.idiomRepo.FindByText(ctx, idiom); err != nil {
		return false, storeErr("校验成语", err)
	}
	added, err := s.dictionaryRepo.Add(ctx, userID, idiom)
	if err != nil {
		return false, storeErr("加入词典", err)
	}
	return added, nil
}

func (s *dictionaryService) Remove(ctx context.Context, userID, idiom string) error {
	removed, err := s.dictionaryRepo.Remove(ctx, userID, idiom)
	if err != nil {
		return storeErr("从词典删除", err)
	}
	if !removed {
		return fmt.Errorf("词典中没有 '%s': %w", idiom, ErrNotFound)
	}
	return nil
}

func (s *dictionaryService) List(ctx context.Context, userID string) ([]DictionaryItem, error) {
	entries, err := s.dictionaryRepo.List(ctx, userID)
	if err != nil {
		return nil, storeErr("查询词典", err)
	}
	if len(entries) == 0 {
		return nil, nil
	}

	texts := make([]string, 0, len(entries))
	for _, e := range entries {
		texts = append(texts, e.Idiom)
	}
	translations := make(map[string]string, len(entries))
	idioms, err := s.idiomRepo.FindByTexts(ctx, texts)
	if err != nil {
		return nil, storeErr("查询词典释义", err)
	}
	for _, idiom := range idioms {
		translations[idiom.Text] = idiom.Translation
	}

	items := make([]DictionaryItem, 0, len(entries))
	for _, e := range entries {
		items = append(items, DictionaryItem{Idiom: e.Idiom, Translation: translations[e.Idiom]})
	}
	return items, nil
}

func (s *dictionaryService) Random(ctx context.Context, userID string) (string, *model.Idiom, error) {
	entries, err := s.dictionaryRepo.List(ctx, userID)
	if err != nil {
		return "", nil, storeErr("查询词典", err)
	}
	if len(entries) == 0 {
		return "", nil, fmt.Errorf("词典为空: %w", ErrNotFound)
	}
	picked := entries[rand.IntN(len(entries))].Idiom

	details, err := s.idiomRepo.FindByText(ctx, picked)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return picked, nil, nil
	}
	if err != nil {
		return "", nil, storeErr("查询成语详情", err)
	}
	return picked, details, nil
}
