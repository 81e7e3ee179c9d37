package outbox

import (
	"context"
	"sync"
	"time"

	"github.com/fleetops/trailer-swap-api/internal/models"
	"github.com/fleetops/trailer-swap-api/pkg/logger"
)

// DeadLetterQueue is the slice of the dead-letter repository the retry
// processor needs
type DeadLetterQueue interface {
	GetPendingMessages(ctx context.Context, limit int) ([]*models.DeadLetterMessage, error)
	MarkAsRetrying(ctx context.Context, id int64) error
	MarkAsResolved(ctx context.Context, id int64) error
	MarkAsDiscarded(ctx context.Context, id int64, reason string) error
	ResetToPending(ctx context.Context, id int64) error
}

// DeadLetterProcessorConfig holds configuration for the dead-letter processor
type DeadLetterProcessorConfig struct {
	PollInterval time.Duration
	BatchSize    int
	MaxRetries   int
}

// DefaultDeadLetterProcessorConfig returns the default configuration
func DefaultDeadLetterProcessorConfig() DeadLetterProcessorConfig {
	return DeadLetterProcessorConfig{
		PollInterval: 1 * time.Minute,
		BatchSize:    5,
		MaxRetries:   5,
	}
}

// DeadLetterProcessor periodically replays dead-lettered messages through
// the same handler the outbox uses. Messages that still fail after
// MaxRetries are discarded and left for manual inspection via the admin
// endpoints.
type DeadLetterProcessor struct {
	queue     DeadLetterQueue
	handler   MessageHandler
	config    DeadLetterProcessorConfig
	logger    logger.Logger
	stopCh    chan struct{}
	doneCh    chan struct{}
	startOnce sync.Once
	stopOnce  sync.Once
}

// NewDeadLetterProcessor creates a new DeadLetterProcessor
func NewDeadLetterProcessor(
	queue DeadLetterQueue,
	handler MessageHandler,
	config DeadLetterProcessorConfig,
	logger logger.Logger,
) *DeadLetterProcessor {
	return &DeadLetterProcessor{
		queue:   queue,
		handler: handler,
		config:  config,
		logger:  logger,
		stopCh:  make(chan struct{}),
		doneCh:  make(chan struct{}),
	}
}

// Start begins polling for pending dead-letter messages
func (p *DeadLetterProcessor) Start(ctx context.Context) {
	p.startOnce.Do(func() {
		go p.run(ctx)
	})
}

// Stop halts the processor and waits for the current batch to finish
func (p *DeadLetterProcessor) Stop() {
	p.stopOnce.Do(func() {
		close(p.stopCh)
		<-p.doneCh
	})
}

func (p *DeadLetterProcessor) run(ctx context.Context) {
	defer close(p.doneCh)

	ticker := time.NewTicker(p.config.PollInterval)
	defer ticker.Stop()

	p.logger.Info("Dead-letter processor started",
		"pollInterval", p.config.PollInterval,
		"batchSize", p.config.BatchSize)

	for {
		select {
		case <-ctx.Done():
			return
		case <-p.stopCh:
			p.logger.Info("Dead-letter processor stopped")
			return
		case <-ticker.C:
			if err := p.processBatch(ctx); err != nil {
				p.logger.Error("Failed to process dead-letter batch", "error", err)
			}
		}
	}
}

func (p *DeadLetterProcessor) processBatch(ctx context.Context) error {
	messages, err := p.queue.GetPendingMessages(ctx, p.config.BatchSize)

	if err != nil {
		return err
	}

	for _, message := range messages {
		p.retryMessage(ctx, message)
	}

	return nil
}

func (p *DeadLetterProcessor) retryMessage(ctx context.Context, message *models.DeadLetterMessage) {
	if message.RetryCount >= p.config.MaxRetries {
		p.logger.Warn("Discarding dead-letter message after max retries",
			"deadLetterID", message.ID,
			"eventType", message.EventType,
			"retryCount", message.RetryCount)

		if err := p.queue.MarkAsDiscarded(ctx, message.ID, "max dead-letter retries exceeded"); err != nil {
			p.logger.Error("Failed to discard dead-letter message", "error", err, "deadLetterID", message.ID)
		}
		return
	}

	if err := p.queue.MarkAsRetrying(ctx, message.ID); err != nil {
		p.logger.Error("Failed to mark dead-letter message as retrying", "error", err, "deadLetterID", message.ID)
		return
	}

	outboxMsg := &models.OutboxMessage{
		ID:            message.OriginalMessageID,
		AggregateType: message.AggregateType,
		AggregateID:   message.AggregateID,
		EventType:     message.EventType,
		Payload:       message.Payload,
	}

	if err := p.handler.Handle(ctx, outboxMsg); err != nil {
		p.logger.Warn("Dead-letter retry failed",
			"error", err,
			"deadLetterID", message.ID,
			"retryCount", message.RetryCount+1)

		if resetErr := p.queue.ResetToPending(ctx, message.ID); resetErr != nil {
			p.logger.Error("Failed to reset dead-letter message", "error", resetErr, "deadLetterID", message.ID)
		}
		return
	}

	if err := p.queue.MarkAsResolved(ctx, message.ID); err != nil {
		p.logger.Error("Failed to mark dead-letter message as resolved", "error", err, "deadLetterID", message.ID)
		return
	}

	p.logger.Info("Dead-letter message republished",
		"deadLetterID", message.ID,
		"eventType", message.EventType)
}
