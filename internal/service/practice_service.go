package service

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"chengyu-bot-go/internal/config"
	"chengyu-bot-go/internal/repository"
	"chengyu-bot-go/pkg/llm"
	"chengyu-bot-go/pkg/log"
)

const (
	markerCorrect      = "[correct]"
	markerIncorrect    = "[incorrect]"
	undeterminedNotice = "_(Точность не определена)_"
	emptyVerdictText   = "Не удалось получить оценку."
)

// GradeResult 是一次批改的结果。Determined 为 false 表示模型回复中没有找到标记。
type GradeResult struct {
	Text       string
	IsCorrect  bool
	Determined bool
}

// PracticeService 负责出题和批改练习。
type PracticeService interface {
	NewTask(ctx context.Context, kind PracticeKind) (PracticeTask, error)
	// GradeAnswer 调用模型批改答案，并在返回前持久化练习计数。
	// 模型调用失败时返回 ErrServiceUnavailable，计数保持不变。
	GradeAnswer(ctx context.Context, userID string, task PracticeTask, answer string) (GradeResult, error)
}

type practiceService struct {
	provider  llm.Provider
	gen       config.LLMGenerationConfig
	idiomRepo repository.IdiomRepository
	userRepo  repository.UserRepository
}

// NewPracticeService 创建一个新的 PracticeService 实例。
func NewPracticeService(provider llm.Provider, gen config.LLMGenerationConfig, idiomRepo repository.IdiomRepository, userRepo repository.UserRepository) PracticeService {
	return &practiceService{
		provider:  provider,
		gen:       gen,
		idiomRepo: idiomRepo,
		userRepo:  userRepo,
	}
}

func (s *practiceService) NewTask(ctx context.Context, kind PracticeKind) (PracticeTask, error) {
	if kind != PracticeTranslate && kind != PracticeExample {
		return PracticeTask{}, fmt.Errorf("未知的练习类型 %q: %w", kind, ErrValidation)
	}
	idiom, err := s.idiomRepo.Random(ctx)
	if err != nil {
		return PracticeTask{}, storeErr("随机抽取练习成语", err)
	}
	return PracticeTask{Kind: kind, Idiom: *idiom}, nil
}

func (s *practiceService) GradeAnswer(ctx context.Context, userID string, task PracticeTask, answer string) (GradeResult, error) {
	resp, err := s.provider.Generate(llm.WithPurpose(ctx, llm.PurposePracticeGrading), llm.Request{
		Messages:    []llm.Message{llm.UserMessage(gradingPrompt(task, answer))},
		MaxTokens:   s.gen.MaxTokens,
		Temperature: s.gen.Temperature,
	})
	if err != nil {
		return GradeResult{}, fmt.Errorf("批改调用失败: %w: %w", ErrServiceUnavailable, err)
	}

	result := ParseVerdict(resp.Content)
	if !result.Determined {
		log.Warnf("[PracticeService] 模型回复缺少批改标记, user=%s, reply=%q", userID, resp.Content)
	}

	// 模型已经给出结论，计数写入不再受请求取消影响
	if err := s.userRepo.IncrementPractice(context.WithoutCancel(ctx), userID, result.IsCorrect); err != nil {
		return GradeResult{}, storeErr("更新练习计数", err)
	}
	return result, nil
}

// ParseVerdict 解析模型回复末尾的 [correct] / [incorrect] 标记。
// 没有标记时按答错处理，并在文本后附加“无法判定”的提示。
func ParseVerdict(raw string) GradeResult {
	trimmed := strings.TrimRightFunc(raw, unicode.IsSpace)

	result := GradeResult{Determined: true}
	switch {
	case strings.HasSuffix(trimmed, markerCorrect):
		result.IsCorrect = true
		result.Text = strings.TrimSpace(strings.TrimSuffix(trimmed, markerCorrect))
	case strings.HasSuffix(trimmed, markerIncorrect):
		result.Text = strings.TrimSpace(strings.TrimSuffix(trimmed, markerIncorrect))
	default:
		result.Determined = false
		result.Text = strings.TrimSpace(raw)
	}

	if result.Text == "" {
		result.Text = emptyVerdictText
	}
	if !result.Determined {
		result.Text += "\n" + undeterminedNotice
	}
	return result
}

func gradingPrompt(task PracticeTask, answer string) string {
	taskDesc := "перевод"
	if task.Kind == PracticeExample {
		taskDesc = "составление примера"
	}
	return fmt.Sprintf("Проверь задание по идиоме: %s (%s). Перевод: %s. Задание: %s. Ответ: '%s'.\n"+
		"Оцени КРАТКО. Если верно, начни с '✅ Верно!'. Если нет, с '❌ Не совсем верно.', дай пояснение.\n"+
		"В КОНЦЕ добавь ТОЛЬКО '%s' или '%s'.",
		task.Idiom.Text, task.Idiom.Pinyin, task.Idiom.Translation, taskDesc, answer, markerCorrect, markerIncorrect)
}
