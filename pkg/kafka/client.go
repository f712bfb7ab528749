// Package kafka 负责把对话轮次事件发布到 Kafka。
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"chatbot-go/internal/config"
	"chatbot-go/internal/model"
	"chatbot-go/pkg/log"

	"github.com/segmentio/kafka-go"
)

// MessageWriter 是 kafka.Writer 中 Publisher 用到的部分。
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher 把 TurnEvent 编码为 JSON 写入主题，以 SessionID 作为消息 key。
type Publisher struct {
	writer MessageWriter
}

const batchTimeout = 10 * time.Millisecond

func logCompletion(messages []kafka.Message, err error) {
	if err != nil {
		log.Warnw("failed to deliver turn events", "count", len(messages), "error", err)
	}
}

// NewPublisher 根据配置创建生产者。
func NewPublisher(cfg config.KafkaConfig) *Publisher {
	// Async 写入不等待 broker 确认，失败在 Completion 回调里记录。
	w := &kafka.Writer{
		Addr:         kafka.TCP(strings.Split(cfg.Brokers, ",")...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: batchTimeout,
		Async:        true,
		Completion:   logCompletion,
	}
	log.Infof("Kafka 生产者初始化成功, topic: %s", cfg.Topic)
	return &Publisher{writer: w}
}

// NewPublisherWithWriter 使用自定义 writer，便于测试。
func NewPublisherWithWriter(w MessageWriter) *Publisher {
	return &Publisher{writer: w}
}

func (p *Publisher) PublishTurn(ctx context.Context, ev model.TurnEvent) error {
	b, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal turn event: %w", err)
	}
	if err := p.writer.WriteMessages(ctx, kafka.Message{Key: []byte(ev.SessionID), Value: b}); err != nil {
		return fmt.Errorf("failed to publish turn event: %w", err)
	}
	return nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}
