// Package llm 封装了与大语言模型交互的客户端，屏蔽不同厂商 SDK 的差异。
package llm

import "context"

// Provider is the core abstraction for LLM interaction.
type Provider interface {
	// Generate 发送一次补全请求并返回模型的文本回复。
	Generate(ctx context.Context, req Request) (*Response, error)

	// ModelID returns the model identifier this provider is configured to use.
	ModelID() string
}

// Request describes what to send to the LLM.
type Request struct {
	// System is the system prompt. Optional.
	System string

	// Messages 按对话顺序排列，单轮调用时只有一条 user 消息。
	Messages []Message

	// MaxTokens is the maximum number of tokens in the response. 0 使用厂商默认值。
	MaxTokens int

	// Temperature controls randomness. 0 使用厂商默认值。
	Temperature float64
}

// Message represents a single message in the conversation.
type Message struct {
	Role    Role
	Content string
}

// Role is the message sender role.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// UserMessage 构造单轮请求常用的 user 消息。
func UserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// Response holds the LLM's output.
type Response struct {
	Content string

	// Usage reports token consumption for this request.
	Usage Usage

	// Model is the actual model that served the request.
	Model string

	// StopReason 归一化为 "end" 或 "max_tokens"。
	StopReason string
}

// Usage tracks token consumption for a single request.
type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}

// resolveModel maps a friendly model name to a provider model ID.
func resolveModel(name string, models map[string]string) string {
	if id, ok := models[name]; ok {
		return id
	}
	return name
}
