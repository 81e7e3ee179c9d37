package outbox

import (
	"context"
	"sync"
	"time"

	"github.com/fleetops/trailer-swap-api/internal/models"
	"github.com/fleetops/trailer-swap-api/pkg/logger"
	"github.com/fleetops/trailer-swap-api/pkg/retry"
)

// MessageHandler publishes an outbox message to its destination
type MessageHandler interface {
	Handle(ctx context.Context, message *models.OutboxMessage) error
}

// OutboxStore is the slice of the outbox repository the processor needs
type OutboxStore interface {
	GetPendingMessages(ctx context.Context, limit int) ([]*models.OutboxMessage, error)
	MarkAsProcessing(ctx context.Context, id int64) error
	MarkAsPending(ctx context.Context, id int64, lastError string) error
	MarkAsCompleted(ctx context.Context, id int64) error
	MarkAsFailed(ctx context.Context, id int64, errorMessage string) error
}

// DeadLetterStore receives messages the processor has given up on
type DeadLetterStore interface {
	Create(ctx context.Context, message *models.DeadLetterMessage) error
}

// ProcessorConfig holds configuration for the outbox processor
type ProcessorConfig struct {
	PollInterval    time.Duration
	BatchSize       int
	MaxRetries      int
	BackoffStrategy retry.BackoffStrategy
}

// DefaultProcessorConfig returns the default processor configuration
func DefaultProcessorConfig() ProcessorConfig {
	return ProcessorConfig{
		PollInterval:    5 * time.Second,
		BatchSize:       10,
		MaxRetries:      3,
		BackoffStrategy: retry.NewDefaultExponentialBackoff(),
	}
}

// Processor polls the outbox table and hands pending messages to a handler.
// A message that keeps failing past MaxRetries is moved to the dead-letter
// queue and marked failed; the lifecycle transaction that produced it is
// already committed, so publication is at-least-once, never lost.
type Processor struct {
	store      OutboxStore
	deadLetter DeadLetterStore
	handler    MessageHandler
	config     ProcessorConfig
	logger     logger.Logger
	stopCh     chan struct{}
	doneCh     chan struct{}
	startOnce  sync.Once
	stopOnce   sync.Once
}

// NewProcessor creates a new outbox processor
func NewProcessor(
	store OutboxStore,
	deadLetter DeadLetterStore,
	handler MessageHandler,
	config ProcessorConfig,
	logger logger.Logger,
) *Processor {
	return &Processor{
		store:      store,
		deadLetter: deadLetter,
		handler:    handler,
		config:     config,
		logger:     logger,
		stopCh:     make(chan struct{}),
		doneCh:     make(chan struct{}),
	}
}

// Start begins polling for pending messages
func (p *Processor) Start(ctx context.Context) {
	p.startOnce.Do(func() {
		go p.run(ctx)
	})
}

// Stop halts the processor and waits for the current batch to finish
func (p *Processor) Stop() {
	p.stopOnce.Do(func() {
		close(p.stopCh)
		<-p.doneCh
	})
}

func (p *Processor) run(ctx context.Context) {
	defer close(p.doneCh)

	ticker := time.NewTicker(p.config.PollInterval)
	defer ticker.Stop()

	p.logger.Info("Outbox processor started",
		"pollInterval", p.config.PollInterval,
		"batchSize", p.config.BatchSize)

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("Outbox processor stopping", "reason", ctx.Err())
			return
		case <-p.stopCh:
			p.logger.Info("Outbox processor stopped")
			return
		case <-ticker.C:
			if err := p.processBatch(ctx); err != nil {
				p.logger.Error("Failed to process outbox batch", "error", err)
			}
		}
	}
}

func (p *Processor) processBatch(ctx context.Context) error {
	messages, err := p.store.GetPendingMessages(ctx, p.config.BatchSize)

	if err != nil {
		return err
	}

	for _, message := range messages {
		p.processMessage(ctx, message)
	}

	return nil
}

func (p *Processor) processMessage(ctx context.Context, message *models.OutboxMessage) {
	if err := p.store.MarkAsProcessing(ctx, message.ID); err != nil {
		p.logger.Error("Failed to mark message as processing", "error", err, "messageID", message.ID)
		return
	}

	err := p.handler.Handle(ctx, message)

	if err == nil {
		if err = p.store.MarkAsCompleted(ctx, message.ID); err != nil {
			p.logger.Error("Failed to mark message as completed", "error", err, "messageID", message.ID)
		}
		return
	}

	p.logger.Warn("Failed to publish outbox message",
		"error", err,
		"messageID", message.ID,
		"eventType", message.EventType,
		"attempts", message.ProcessingAttempts+1)

	// ProcessingAttempts was bumped by MarkAsProcessing after the
	// message was loaded, hence the +1.
	if message.ProcessingAttempts+1 >= p.config.MaxRetries {
		p.moveToDeadLetter(ctx, message, err)
		return
	}

	if markErr := p.store.MarkAsPending(ctx, message.ID, err.Error()); markErr != nil {
		p.logger.Error("Failed to return message to pending", "error", markErr, "messageID", message.ID)
	}
}

func (p *Processor) moveToDeadLetter(ctx context.Context, message *models.OutboxMessage, handleErr error) {
	deadLetter := models.NewDeadLetterMessage(message, handleErr.Error(), "max publish attempts exceeded")
	deadLetter.RetryCount = message.ProcessingAttempts + 1

	if err := p.deadLetter.Create(ctx, deadLetter); err != nil {
		p.logger.Error("Failed to create dead letter message", "error", err, "messageID", message.ID)
		// leave the message pending so it is not silently dropped
		if markErr := p.store.MarkAsPending(ctx, message.ID, handleErr.Error()); markErr != nil {
			p.logger.Error("Failed to return message to pending", "error", markErr, "messageID", message.ID)
		}
		return
	}

	if err := p.store.MarkAsFailed(ctx, message.ID, handleErr.Error()); err != nil {
		p.logger.Error("Failed to mark message as failed", "error", err, "messageID", message.ID)
	}

	p.logger.Warn("Outbox message moved to dead-letter queue",
		"messageID", message.ID,
		"deadLetterID", deadLetter.ID,
		"eventType", message.EventType)
}
