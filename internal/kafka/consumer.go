package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"ms-calendar/internal/logger"
	"ms-calendar/internal/models"

	"github.com/segmentio/kafka-go"
)

// MessageReader is the part of *kafka.Reader the consumer needs.
type MessageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// Consumer follows the event change topics, e.g. to keep an audit trail.
type Consumer struct {
	Reader MessageReader
	Logger *logger.Logger
}

// NewConsumer joins groupID on every given topic.
func NewConsumer(brokers []string, topics []string, groupID string, log *logger.Logger) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     brokers,
		GroupTopics: topics,
		GroupID:     groupID,
		MinBytes:    1,
		MaxBytes:    10e6, // 10MB
	})
	return &Consumer{Reader: reader, Logger: log}
}

// Start blocks until ctx is cancelled. Undecodable messages are logged and skipped.
func (c *Consumer) Start(ctx context.Context, handler func(models.EventChange)) error {
	c.Logger.Info("KAFKA", "Event change consumer started")
	for {
		msg, err := c.Reader.ReadMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || ctx.Err() != nil {
				return nil
			}
			c.Logger.Error("KAFKA", fmt.Sprintf("Error reading message: %v", err))
			return err
		}

		change, err := DecodeEventChange(msg.Value)
		if err != nil {
			c.Logger.Warn("KAFKA", fmt.Sprintf("Skipping message on %s: %v", msg.Topic, err))
			continue
		}
		handler(change)
	}
}

func DecodeEventChange(value []byte) (models.EventChange, error) {
	var change models.EventChange
	if err := json.Unmarshal(value, &change); err != nil {
		return change, fmt.Errorf("failed to unmarshal event change: %w", err)
	}
	if change.EventID == "" || change.Action == "" {
		return change, errors.New("event change without id or action")
	}
	return change, nil
}

func (c *Consumer) Close() error {
	return c.Reader.Close()
}
