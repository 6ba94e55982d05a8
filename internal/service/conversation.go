package service

import "chengyu-bot-go/internal/model"

// minConversationTurns 至少容纳一问一答。
const minConversationTurns = 2

// Conversation 是自由对话模式的对话历史，只存在于内存中。
// 超过 maxTurns 时从最早的轮次开始淘汰，并保证历史总是以 user 轮次开头。
type Conversation struct {
	turns    []model.ChatTurn
	maxTurns int
}

// NewConversation 创建一个空的对话历史。
func NewConversation(maxTurns int) *Conversation {
	if maxTurns < minConversationTurns {
		maxTurns = minConversationTurns
	}
	return &Conversation{maxTurns: maxTurns}
}

// History 返回历史的副本。
func (c *Conversation) History() []model.ChatTurn {
	return append([]model.ChatTurn(nil), c.turns...)
}

func (c *Conversation) Len() int { return len(c.turns) }

// PendingUserTurn 表示最后一轮是尚未得到回复的用户消息。
func (c *Conversation) PendingUserTurn() bool {
	return len(c.turns) > 0 && c.turns[len(c.turns)-1].Role == model.RoleUser
}

func (c *Conversation) append(role model.Role, text string) {
	c.turns = append(c.turns, model.ChatTurn{Role: role, Text: text})
	for len(c.turns) > c.maxTurns || (len(c.turns) > 0 && c.turns[0].Role != model.RoleUser) {
		c.turns = c.turns[1:]
	}
}
