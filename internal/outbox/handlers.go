package outbox

import (
	"context"
	"fmt"

	"github.com/fleetops/trailer-swap-api/internal/models"
	"github.com/fleetops/trailer-swap-api/pkg/kafka"
	"github.com/fleetops/trailer-swap-api/pkg/logger"
)

// KafkaMessageHandler publishes outbox messages to a Kafka topic, keyed by
// aggregate ID so all events for one move land in the same partition.
type KafkaMessageHandler struct {
	producer *kafka.Producer
	topic    string
	logger   logger.Logger
}

// NewKafkaMessageHandler creates a new KafkaMessageHandler
func NewKafkaMessageHandler(producer *kafka.Producer, topic string, logger logger.Logger) *KafkaMessageHandler {
	return &KafkaMessageHandler{
		producer: producer,
		topic:    topic,
		logger:   logger,
	}
}

// Handle publishes the message payload to Kafka
func (h *KafkaMessageHandler) Handle(ctx context.Context, message *models.OutboxMessage) error {
	err := h.producer.SendMessage(ctx, h.topic, message.AggregateID, message.Payload)

	if err != nil {
		return fmt.Errorf("failed to publish message %d to topic %s: %w", message.ID, h.topic, err)
	}

	h.logger.Debug("Published outbox message",
		"messageID", message.ID,
		"topic", h.topic,
		"eventType", message.EventType)
	return nil
}

// LoggingMessageHandler logs messages instead of publishing them. Used when
// the broker is not configured, typically in local development.
type LoggingMessageHandler struct {
	logger logger.Logger
}

// NewLoggingMessageHandler creates a new LoggingMessageHandler
func NewLoggingMessageHandler(logger logger.Logger) *LoggingMessageHandler {
	return &LoggingMessageHandler{logger: logger}
}

// Handle logs the message
func (h *LoggingMessageHandler) Handle(ctx context.Context, message *models.OutboxMessage) error {
	h.logger.Info("Outbox message",
		"messageID", message.ID,
		"aggregateID", message.AggregateID,
		"eventType", message.EventType,
		"payload", string(message.Payload))
	return nil
}
