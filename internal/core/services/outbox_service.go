package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/rideledger/ride_billing_app/internal/core/domain"
	portsrepo "github.com/rideledger/ride_billing_app/internal/core/ports/repositories"
	portssvc "github.com/rideledger/ride_billing_app/internal/core/ports/services"
	"github.com/rideledger/ride_billing_app/internal/middleware"
)

// OutboxProcessor drains pending outbox events to the publisher on a fixed
// interval. Delivery is at-least-once: an event is marked processed only
// after the publisher accepts it, so a crash between publish and mark leads
// to redelivery, never loss.
type OutboxProcessor struct {
	outboxRepo portsrepo.OutboxRepositoryFacade
	publisher  portssvc.EventPublisher
	logger     *slog.Logger

	batchSize  int
	maxRetries int
	interval   time.Duration

	draining sync.Mutex

	stopOnce sync.Once
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

// NewOutboxProcessor creates an OutboxProcessor. batchSize bounds one drain
// pass, maxRetries is the poison threshold and interval the polling cadence.
func NewOutboxProcessor(outboxRepo portsrepo.OutboxRepositoryFacade, publisher portssvc.EventPublisher, logger *slog.Logger, batchSize, maxRetries int, interval time.Duration) *OutboxProcessor {
	if batchSize <= 0 {
		batchSize = 100
	}
	if maxRetries <= 0 {
		maxRetries = domain.DefaultMaxRetries
	}
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &OutboxProcessor{
		outboxRepo: outboxRepo,
		publisher:  publisher,
		logger:     logger,
		batchSize:  batchSize,
		maxRetries: maxRetries,
		interval:   interval,
		stopCh:     make(chan struct{}),
	}
}

// Start launches the polling loop. It returns immediately; call Stop to
// drain the loop down.
func (p *OutboxProcessor) Start(ctx context.Context) {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()

		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()

		p.logger.Info("Outbox processor started", slog.Duration("interval", p.interval), slog.Int("batch_size", p.batchSize))
		for {
			select {
			case <-ctx.Done():
				p.logger.Info("Outbox processor context cancelled")
				return
			case <-p.stopCh:
				p.logger.Info("Outbox processor stopped")
				return
			case <-ticker.C:
				if _, err := p.DrainBatch(middleware.WithLogger(ctx, p.logger)); err != nil {
					p.logger.Error("Outbox drain pass failed", slog.String("error", err.Error()))
				}
			}
		}
	}()
}

// Stop signals the polling loop to exit and waits for any in-flight drain
// pass to finish.
func (p *OutboxProcessor) Stop() {
	p.stopOnce.Do(func() {
		close(p.stopCh)
	})
	p.wg.Wait()
}

// DrainBatch claims up to batchSize undelivered events, publishes each and
// records the outcome per event. Passes never overlap: if one is already
// running, the call returns immediately with zero work done.
func (p *OutboxProcessor) DrainBatch(ctx context.Context) (int, error) {
	if !p.draining.TryLock() {
		return 0, nil
	}
	defer p.draining.Unlock()

	logger := middleware.GetLoggerFromCtx(ctx)

	events, err := p.outboxRepo.FindUnprocessed(ctx, p.batchSize, p.maxRetries)
	if err != nil {
		return 0, fmt.Errorf("failed to load unprocessed events: %w", err)
	}
	if len(events) == 0 {
		return 0, nil
	}

	delivered := 0
	for i := range events {
		event := events[i]
		if err := ctx.Err(); err != nil {
			// Shutdown mid-batch: remaining events stay pending and are
			// picked up by the next pass.
			return delivered, err
		}

		if err := p.publisher.Publish(ctx, event); err != nil {
			event.MarkFailed(err.Error())
			if markErr := p.outboxRepo.MarkFailed(ctx, event.EventID, err.Error()); markErr != nil {
				logger.Error("Failed to record event failure", slog.String("error", markErr.Error()), slog.String("event_id", event.EventID))
			}
			if event.IsPoison(p.maxRetries) {
				logger.Error("Outbox event reached retry limit and is parked",
					slog.String("event_id", event.EventID),
					slog.String("event_type", string(event.EventType)),
					slog.Int("retry_count", event.RetryCount),
					slog.String("error", err.Error()),
				)
			} else {
				logger.Warn("Outbox event delivery failed",
					slog.String("event_id", event.EventID),
					slog.Int("retry_count", event.RetryCount),
					slog.String("error", err.Error()),
				)
			}
			continue
		}

		if err := p.outboxRepo.MarkProcessed(ctx, event.EventID, time.Now()); err != nil {
			// Published but not marked: the event will be redelivered.
			// Acceptable under at-least-once.
			logger.Error("Failed to mark event processed", slog.String("error", err.Error()), slog.String("event_id", event.EventID))
			continue
		}
		delivered++
	}

	logger.Info("Outbox drain pass finished", slog.Int("claimed", len(events)), slog.Int("delivered", delivered))
	return delivered, nil
}

// PendingCount reports how many events still await delivery.
func (p *OutboxProcessor) PendingCount(ctx context.Context) (int64, error) {
	return p.outboxRepo.CountUnprocessed(ctx, p.maxRetries)
}
