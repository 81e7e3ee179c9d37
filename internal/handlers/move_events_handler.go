package handlers

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Shopify/sarama"
	"github.com/fleetops/trailer-swap-api/internal/models"
	"github.com/fleetops/trailer-swap-api/pkg/logger"
)

// MoveEventsHandler consumes move lifecycle events from Kafka. The API
// publishes through the outbox and consumes its own topic for the audit
// trail; downstream consumers (dispatch boards, settlement) read the same
// topic independently.
type MoveEventsHandler struct {
	logger logger.Logger
}

// NewMoveEventsHandler creates a new MoveEventsHandler
func NewMoveEventsHandler(logger logger.Logger) *MoveEventsHandler {
	return &MoveEventsHandler{logger: logger}
}

// HandleMessage processes a move event message
func (h *MoveEventsHandler) HandleMessage(ctx context.Context, msg *sarama.ConsumerMessage) error {
	var event models.OutboxMessageEvent

	if err := json.Unmarshal(msg.Value, &event); err != nil {
		// A malformed payload will never parse; log and mark it consumed
		// rather than redelivering forever.
		h.logger.Error("Failed to unmarshal move event, skipping",
			"error", err,
			"topic", msg.Topic,
			"offset", msg.Offset)
		return nil
	}

	switch event.EventType {
	case models.EventTypeMoveCreated:
		h.logger.Info("Move event: created",
			"eventID", event.EventID,
			"moveID", event.AggregateID,
			"occurredAt", event.OccurredAt)
	case models.EventTypeMoveStatusChanged:
		h.logger.Info("Move event: status changed",
			"eventID", event.EventID,
			"moveID", event.AggregateID,
			"data", event.Data)
	case models.EventTypePaymentComputed:
		h.logger.Info("Move event: payment computed",
			"eventID", event.EventID,
			"moveID", event.AggregateID,
			"data", event.Data)
	default:
		return fmt.Errorf("unknown event type %q for move %s", event.EventType, event.AggregateID)
	}

	return nil
}
