package models

import (
	"encoding/json"
	"time"
)

// Move lifecycle event types published through the outbox
const (
	EventTypeMoveCreated       = "move_created"
	EventTypeMoveStatusChanged = "move_status_changed"
	EventTypePaymentComputed   = "payment_computed"
)

// OutboxStatus represents the status of an outbox message
type OutboxStatus string

const (
	OutboxStatusPending    OutboxStatus = "pending"
	OutboxStatusProcessing OutboxStatus = "processing"
	OutboxStatusCompleted  OutboxStatus = "completed"
	OutboxStatusFailed     OutboxStatus = "failed"
)

// OutboxMessage represents a message to be published from the outbox table
type OutboxMessage struct {
	ID                 int64        `db:"id" json:"id"`
	AggregateType      string       `db:"aggregate_type" json:"aggregate_type"`
	AggregateID        string       `db:"aggregate_id" json:"aggregate_id"`
	EventType          string       `db:"event_type" json:"event_type"`
	Payload            []byte       `db:"payload" json:"payload"`
	CreatedAt          time.Time    `db:"created_at" json:"created_at"`
	ProcessedAt        *time.Time   `db:"processed_at" json:"processed_at,omitempty"`
	ProcessingAttempts int          `db:"processing_attempts" json:"processing_attempts"`
	LastError          *string      `db:"last_error" json:"last_error,omitempty"`
	Status             OutboxStatus `db:"status" json:"status"`
}

// OutboxMessageEvent represents the event data in the outbox message
type OutboxMessageEvent struct {
	EventType   string      `json:"event_type"`
	EventID     string      `json:"event_id"`
	AggregateID string      `json:"aggregate_id"`
	OccurredAt  time.Time   `json:"occurred_at"`
	Data        interface{} `json:"data"`
}

func newMoveEvent(eventType, moveID string, data interface{}) (*OutboxMessage, error) {
	event := OutboxMessageEvent{
		EventType:   eventType,
		EventID:     GenerateID("evt"),
		AggregateID: moveID,
		OccurredAt:  GetCurrentTime(),
		Data:        data,
	}

	payload, err := json.Marshal(event)

	if err != nil {
		return nil, err
	}

	return &OutboxMessage{
		AggregateType:      "move",
		AggregateID:        moveID,
		EventType:          eventType,
		Payload:            payload,
		CreatedAt:          GetCurrentTime(),
		ProcessingAttempts: 0,
		Status:             OutboxStatusPending,
	}, nil
}

// NewMoveCreatedEvent creates the event published when a move is created
func NewMoveCreatedEvent(move *Move) (*OutboxMessage, error) {
	return newMoveEvent(EventTypeMoveCreated, move.ID, move)
}

// NewMoveStatusChangedEvent creates the event published on a lifecycle transition
func NewMoveStatusChangedEvent(move *Move, oldStatus MoveStatus) (*OutboxMessage, error) {
	return newMoveEvent(EventTypeMoveStatusChanged, move.ID, map[string]interface{}{
		"move_id":     move.ID,
		"old_status":  string(oldStatus),
		"new_status":  string(move.Status),
		"new_trailer": move.NewTrailer,
		"old_trailer": move.OldTrailer,
	})
}

// NewPaymentComputedEvent creates the event published when pay is calculated
func NewPaymentComputedEvent(move *Move) (*OutboxMessage, error) {
	return newMoveEvent(EventTypePaymentComputed, move.ID, map[string]interface{}{
		"move_id":       move.ID,
		"gross_pay":     move.GrossPay,
		"factoring_fee": move.FactoringFee,
		"net_pay":       move.NetPay,
	})
}
