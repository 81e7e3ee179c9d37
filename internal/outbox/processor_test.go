package outbox

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fleetops/trailer-swap-api/internal/models"
	"github.com/fleetops/trailer-swap-api/pkg/logger"
)

type fakeOutboxStore struct {
	pending   []*models.OutboxMessage
	completed []int64
	failed    []int64
	repending []int64
}

func (s *fakeOutboxStore) GetPendingMessages(ctx context.Context, limit int) ([]*models.OutboxMessage, error) {
	return s.pending, nil
}

func (s *fakeOutboxStore) MarkAsProcessing(ctx context.Context, id int64) error {
	return nil
}

func (s *fakeOutboxStore) MarkAsPending(ctx context.Context, id int64, lastError string) error {
	s.repending = append(s.repending, id)
	return nil
}

func (s *fakeOutboxStore) MarkAsCompleted(ctx context.Context, id int64) error {
	s.completed = append(s.completed, id)
	return nil
}

func (s *fakeOutboxStore) MarkAsFailed(ctx context.Context, id int64, errorMessage string) error {
	s.failed = append(s.failed, id)
	return nil
}

type fakeDeadLetterStore struct {
	created []*models.DeadLetterMessage
}

func (s *fakeDeadLetterStore) Create(ctx context.Context, message *models.DeadLetterMessage) error {
	s.created = append(s.created, message)
	return nil
}

type fakeHandler struct {
	err  error
	seen []int64
}

func (h *fakeHandler) Handle(ctx context.Context, message *models.OutboxMessage) error {
	h.seen = append(h.seen, message.ID)
	return h.err
}

func pendingMessage(id int64, attempts int) *models.OutboxMessage {
	return &models.OutboxMessage{
		ID:                 id,
		AggregateType:      "move",
		AggregateID:        "mv-test",
		EventType:          models.EventTypeMoveStatusChanged,
		Payload:            []byte(`{}`),
		ProcessingAttempts: attempts,
		Status:             models.OutboxStatusPending,
	}
}

func newTestProcessor(store *fakeOutboxStore, dlq *fakeDeadLetterStore, handler MessageHandler) *Processor {
	cfg := DefaultProcessorConfig()
	cfg.MaxRetries = 3

	return NewProcessor(store, dlq, handler, cfg, logger.NewNopLogger())
}

func TestProcessBatchPublishes(t *testing.T) {
	store := &fakeOutboxStore{pending: []*models.OutboxMessage{
		pendingMessage(1, 0),
		pendingMessage(2, 0),
	}}
	dlq := &fakeDeadLetterStore{}
	handler := &fakeHandler{}

	p := newTestProcessor(store, dlq, handler)
	require.NoError(t, p.processBatch(context.Background()))

	assert.Equal(t, []int64{1, 2}, handler.seen)
	assert.Equal(t, []int64{1, 2}, store.completed)
	assert.Empty(t, store.failed)
	assert.Empty(t, dlq.created)
}

func TestProcessBatchRequeuesOnFailure(t *testing.T) {
	store := &fakeOutboxStore{pending: []*models.OutboxMessage{pendingMessage(1, 0)}}
	dlq := &fakeDeadLetterStore{}
	handler := &fakeHandler{err: errors.New("broker down")}

	p := newTestProcessor(store, dlq, handler)
	require.NoError(t, p.processBatch(context.Background()))

	assert.Equal(t, []int64{1}, store.repending)
	assert.Empty(t, store.failed)
	assert.Empty(t, dlq.created)
}

func TestProcessBatchDeadLettersAfterMaxRetries(t *testing.T) {
	// Two prior attempts recorded; this one is the third and last
	store := &fakeOutboxStore{pending: []*models.OutboxMessage{pendingMessage(7, 2)}}
	dlq := &fakeDeadLetterStore{}
	handler := &fakeHandler{err: errors.New("broker down")}

	p := newTestProcessor(store, dlq, handler)
	require.NoError(t, p.processBatch(context.Background()))

	require.Len(t, dlq.created, 1)
	assert.Equal(t, int64(7), dlq.created[0].OriginalMessageID)
	assert.Equal(t, []int64{7}, store.failed)
	assert.Empty(t, store.repending)
}
