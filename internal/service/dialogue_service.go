package service

import (
	"context"
	"fmt"
	"strings"

	"chengyu-bot-go/internal/config"
	"chengyu-bot-go/internal/model"
	"chengyu-bot-go/pkg/llm"
)

// DialogueService 负责调用模型完成问答与自由对话。
type DialogueService interface {
	// Converse 追加一条用户消息并把完整历史发给模型，成功后追加模型回复。
	// 失败时保留用户消息、不追加模型轮次，便于之后用 Retry 重发。
	Converse(ctx context.Context, conv *Conversation, text string) (string, error)
	// Retry 重新提交尚未得到回复的历史，不追加任何内容。
	Retry(ctx context.Context, conv *Conversation) (string, error)
	// Ask 针对单个成语的一次性提问，不保留历史。
	Ask(ctx context.Context, idiom, question string) (string, error)
}

type dialogueService struct {
	provider llm.Provider
	gen      config.LLMGenerationConfig
	system   string
}

// NewDialogueService 创建一个新的 DialogueService 实例。
func NewDialogueService(provider llm.Provider, llmCfg config.LLMConfig) DialogueService {
	return &dialogueService{
		provider: provider,
		gen:      llmCfg.Generation,
		system:   llmCfg.Prompt.FreeModeSystem,
	}
}

func (s *dialogueService) Converse(ctx context.Context, conv *Conversation, text string) (string, error) {
	conv.append(model.RoleUser, text)
	return s.submit(ctx, conv)
}

func (s *dialogueService) Retry(ctx context.Context, conv *Conversation) (string, error) {
	if !conv.PendingUserTurn() {
		return "", fmt.Errorf("没有待重发的消息: %w", ErrValidation)
	}
	return s.submit(ctx, conv)
}

func (s *dialogueService) submit(ctx context.Context, conv *Conversation) (string, error) {
	messages := make([]llm.Message, 0, len(conv.turns))
	for _, turn := range conv.turns {
		role := llm.RoleUser
		if turn.Role == model.RoleModel {
			role = llm.RoleAssistant
		}
		messages = append(messages, llm.Message{Role: role, Content: turn.Text})
	}

	resp, err := s.provider.Generate(llm.WithPurpose(ctx, llm.PurposeFreeMode), llm.Request{
		System:      s.system,
		Messages:    messages,
		MaxTokens:   s.gen.MaxTokens,
		Temperature: s.gen.Temperature,
	})
	if err != nil {
		return "", fmt.Errorf("自由对话调用失败: %w: %w", ErrServiceUnavailable, err)
	}
	reply := strings.TrimSpace(resp.Content)
	if reply == "" {
		return "", fmt.Errorf("自由对话返回空回复: %w", ErrServiceUnavailable)
	}
	conv.append(model.RoleModel, reply)
	return reply, nil
}

func (s *dialogueService) Ask(ctx context.Context, idiom, question string) (string, error) {
	prompt := fmt.Sprintf("Ты ассистент по китайскому языку. Вопрос об идиоме '%s': '%s'. "+
		"Если вопрос релевантен, ответь КРАТКО и по существу на русском. "+
		"Если нет, скажи 'Этот вопрос не об идиоме %s. Спросите о ней или используйте Свободный режим.'",
		idiom, question, idiom)

	resp, err := s.provider.Generate(llm.WithPurpose(ctx, llm.PurposeAskingMode), llm.Request{
		Messages:    []llm.Message{llm.UserMessage(prompt)},
		MaxTokens:   s.gen.MaxTokens,
		Temperature: s.gen.Temperature,
	})
	if err != nil {
		return "", fmt.Errorf("成语问答调用失败: %w: %w", ErrServiceUnavailable, err)
	}
	reply := strings.TrimSpace(resp.Content)
	if reply == "" {
		return "", fmt.Errorf("成语问答返回空回复: %w", ErrServiceUnavailable)
	}
	return reply, nil
}
