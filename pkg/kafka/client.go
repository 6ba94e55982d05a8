// Package kafka 提供了与 Kafka 消息队列交互的功能。
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"chengyu-bot-go/internal/config"
	"chengyu-bot-go/pkg/log"
	"chengyu-bot-go/pkg/tasks"

	"github.com/segmentio/kafka-go"
)

// Producer 把用户行为事件异步写入 Kafka。
type Producer struct {
	writer *kafka.Writer
}

// NewProducer 初始化 Kafka 生产者。Brokers 为空时返回 nil，调用方应视为未启用。
func NewProducer(cfg config.KafkaConfig) *Producer {
	if cfg.Brokers == "" {
		return nil
	}
	writer := &kafka.Writer{
		Addr:         kafka.TCP(strings.Split(cfg.Brokers, ",")...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		Async:        true,
		BatchTimeout: 200 * time.Millisecond,
		WriteTimeout: 5 * time.Second,
		Completion: func(messages []kafka.Message, err error) {
			if err != nil {
				log.Warnf("投递 %d 条用户行为事件失败: %v", len(messages), err)
			}
		},
	}
	log.Infof("Kafka 生产者初始化成功, topic=%s", cfg.Topic)
	return &Producer{writer: writer}
}

// PublishUserAction 以用户 ID 为 key 发送事件，同一用户的事件落在同一分区。
func (p *Producer) PublishUserAction(ctx context.Context, event tasks.UserActionEvent) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal user action event: %w", err)
	}
	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.UserID),
		Value: value,
		Time:  event.OccurredAt,
	})
}

// Close 刷新缓冲区并关闭连接。
func (p *Producer) Close() error {
	return p.writer.Close()
}
