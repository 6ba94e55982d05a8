package service

import (
	"context"

	"chengyu-bot-go/internal/model"
	"chengyu-bot-go/internal/repository"
)

// IdiomService 提供成语库的只读查询。
type IdiomService interface {
	Random(ctx context.Context) (*model.Idiom, error)
	RandomByTheme(ctx context.Context, theme string) (*model.Idiom, error)
	Themes(ctx context.Context) ([]string, error)
	Find(ctx context.Context, text string) (*model.Idiom, error)
}

type idiomService struct {
	idiomRepo repository.IdiomRepository
}

// NewIdiomService 创建一个新的 IdiomService 实例。
func NewIdiomService(idiomRepo repository.IdiomRepository) IdiomService {
	return &idiomService{idiomRepo: idiomRepo}
}

func (s *idiomService) Random(ctx context.Context) (*model.Idiom, error) {
	idiom, err := s.idiomRepo.Random(ctx)
	if err != nil {
		return nil, storeErr("随机抽取成语", err)
	}
	return idiom, nil
}

func (s *idiomService) RandomByTheme(ctx context.Context, theme string) (*model.Idiom, error) {
	idiom, err := s.idiomRepo.RandomByTheme(ctx, theme)
	if err != nil {
		return nil, storeErr("按主题抽取成语", err)
	}
	return idiom, nil
}

func (s *idiomService) Themes(ctx context.Context) ([]string, error) {
	themes, err := s.idiomRepo.Themes(ctx)
	if err != nil {
		return nil, storeErr("查询主题列表", err)
	}
	return themes, nil
}

func (s *idiomService) Find(ctx context.Context, text string) (*model.Idiom, error) {
	idiom, err := s.idiomRepo.FindByText(ctx, text)
	if err != nil {
		return nil, storeErr("查询成语", err)
	}
	return idiom, nil
}
