// Package tasks defines the messages that are sent to Kafka.
package tasks

import "time"

// UserActionEvent 是一条用户行为日志在 Kafka 上的镜像，供下游分析使用。
type UserActionEvent struct {
	EventID    string         `json:"event_id"`
	UserID     string         `json:"user_id"`
	ActionType string         `json:"action_type"`
	Details    map[string]any `json:"details,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
}
