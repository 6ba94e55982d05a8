package llm

import (
	"context"
	"fmt"
	"strings"

	"chengyu-bot-go/internal/config"
)

// NewProvider 根据配置创建 Provider，并套上超时与日志中间件。
// 调用链: caller → timeout → logging → base
func NewProvider(ctx context.Context, cfg config.LLMConfig) (Provider, error) {
	var base Provider
	var err error

	switch cfg.Provider {
	case "gemini", "":
		base, err = NewGeminiProvider(ctx, cfg.APIKey, cfg.Model)
	case "openai":
		base, err = NewOpenAIProvider(cfg.APIKey, cfg.BaseURL, cfg.Model, false)
	case "deepseek":
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = deepseekBaseURL
		}
		model := cfg.Model
		if model == "" || strings.HasPrefix(model, "gemini") {
			model = "deepseek-chat"
		}
		base, err = NewOpenAIProvider(cfg.APIKey, baseURL, model, true)
	case "anthropic":
		base, err = NewAnthropicProvider(cfg.APIKey, cfg.Model)
	case "mock":
		mock := NewMockProvider()
		mock.Fallback = echoLastUserMessage
		base = mock
	default:
		return nil, fmt.Errorf("unknown LLM provider: %q", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("initializing %s provider: %w", cfg.Provider, err)
	}

	return WithTimeout(WithLogging(base), cfg.Timeout), nil
}

func echoLastUserMessage(req Request) string {
	for i := len(req.Messages) - 1; i >= 0; i-- {
		if req.Messages[i].Role == RoleUser {
			return req.Messages[i].Content
		}
	}
	return ""
}
