package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"ms-calendar/internal/config"
	"ms-calendar/internal/logger"
	"ms-calendar/internal/models"

	"github.com/segmentio/kafka-go"
)

// MessageWriter is the part of *kafka.Writer the producer needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer publishes calendar notifications. The writer has no fixed topic;
// each message names its own.
type Producer struct {
	Writer MessageWriter
	Topics config.TopicConfig
	Logger *logger.Logger
}

func NewProducer(brokers []string, topics config.TopicConfig, log *logger.Logger) *Producer {
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
		RequiredAcks:           kafka.RequireOne,
	}
	return &Producer{Writer: writer, Topics: topics, Logger: log}
}

func (p *Producer) Publish(ctx context.Context, topic, key string, value []byte) error {
	err := p.Writer.WriteMessages(ctx, kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: value,
	})
	if err != nil {
		return fmt.Errorf("publish to %s: %w", topic, err)
	}
	p.Logger.LogKafka("PUBLISH", topic, key)
	return nil
}

// PublishEventChange routes the change to the created, updated or deleted topic.
// Status changes go to the updated topic.
func (p *Producer) PublishEventChange(ctx context.Context, change models.EventChange) error {
	topic, err := p.topicFor(change.Action)
	if err != nil {
		return err
	}
	msgBytes, err := json.Marshal(change)
	if err != nil {
		return err
	}
	return p.Publish(ctx, topic, change.EventID, msgBytes)
}

// PublishReminderRun streams the summary of one reminder run.
func (p *Producer) PublishReminderRun(ctx context.Context, result models.ReminderResult) error {
	msgBytes, err := json.Marshal(result)
	if err != nil {
		return err
	}
	key := string(result.Date) + "@" + strconv.FormatInt(result.FinishedAt.Unix(), 10)
	return p.Publish(ctx, p.Topics.RemindersRun, key, msgBytes)
}

func (p *Producer) topicFor(action models.EventAction) (string, error) {
	switch action {
	case models.EventCreated:
		return p.Topics.EventCreated, nil
	case models.EventUpdated, models.EventStatusChanged:
		return p.Topics.EventUpdated, nil
	case models.EventDeleted:
		return p.Topics.EventDeleted, nil
	default:
		return "", fmt.Errorf("no topic for event action %q", action)
	}
}

func (p *Producer) Close() error {
	return p.Writer.Close()
}
