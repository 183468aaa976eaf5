package dynamodb

import (
	"context"
	"time"

	"go.uber.org/zap"

	"focusloop/application/ports"
)

// OutboxRelay sweeps pending event records and forwards them to the event
// publisher, completing the outbox pattern started by the event store
type OutboxRelay struct {
	store     *EventStore
	publisher ports.EventPublisher
	logger    *zap.Logger

	batchSize   int32
	interval    time.Duration
	maxAttempts int

	stopChan    chan struct{}
	stoppedChan chan struct{}
}

// NewOutboxRelay creates the relay
func NewOutboxRelay(store *EventStore, publisher ports.EventPublisher, logger *zap.Logger) *OutboxRelay {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OutboxRelay{
		store:       store,
		publisher:   publisher,
		logger:      logger,
		batchSize:   50,
		interval:    5 * time.Second,
		maxAttempts: 3,
		stopChan:    make(chan struct{}),
		stoppedChan: make(chan struct{}),
	}
}

// Start begins the background sweep
func (r *OutboxRelay) Start(ctx context.Context) {
	r.logger.Info("starting outbox relay",
		zap.Int32("batch_size", r.batchSize),
		zap.Duration("interval", r.interval),
	)
	go r.loop(ctx)
}

// Stop stops the sweep and waits for the current pass to finish
func (r *OutboxRelay) Stop() {
	close(r.stopChan)
	<-r.stoppedChan
	r.logger.Info("outbox relay stopped")
}

func (r *OutboxRelay) loop(ctx context.Context) {
	defer close(r.stoppedChan)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-r.stopChan:
			return
		case <-ticker.C:
			r.sweep(ctx)
		}
	}
}

func (r *OutboxRelay) sweep(ctx context.Context) {
	records, err := r.store.PendingEvents(ctx, r.batchSize)
	if err != nil {
		r.logger.Error("pending event sweep failed", zap.Error(err))
		return
	}

	for _, record := range records {
		event, err := r.store.toEvent(record)
		if err != nil {
			r.logger.Error("skipping undecodable event", zap.String("event_id", record.EventID), zap.Error(err))
			continue
		}

		if err := r.publisher.Publish(ctx, event); err != nil {
			r.logger.Warn("event delivery failed",
				zap.String("event_id", record.EventID),
				zap.Int("attempts", record.PublishAttempts+1),
				zap.Error(err),
			)
			if err := r.store.MarkFailed(ctx, record, err, r.maxAttempts); err != nil {
				r.logger.Error("failed to record delivery failure", zap.Error(err))
			}
			continue
		}

		if err := r.store.MarkPublished(ctx, record); err != nil {
			r.logger.Error("failed to mark event published", zap.String("event_id", record.EventID), zap.Error(err))
		}
	}
}
