package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/rideledger/ride_billing_app/internal/core/domain"
	portssvc "github.com/rideledger/ride_billing_app/internal/core/ports/services"
	"github.com/rideledger/ride_billing_app/internal/middleware"
)

// TenantProvider lists the tenants billing runs iterate over.
type TenantProvider interface {
	ActiveTenantIDs(ctx context.Context) ([]string, error)
}

// BillingTriggerConfig holds configuration for the billing trigger.
type BillingTriggerConfig struct {
	// InvoicingHour/InvoicingMinute is the local wall-clock time the daily
	// billing pass fires (24h format).
	InvoicingHour   int
	InvoicingMinute int

	// CheckInterval is how often to check whether it is time to run.
	CheckInterval time.Duration
}

// DefaultBillingTriggerConfig returns the default billing trigger configuration.
func DefaultBillingTriggerConfig() BillingTriggerConfig {
	return BillingTriggerConfig{
		InvoicingHour:   2,
		InvoicingMinute: 0,
		CheckInterval:   time.Minute,
	}
}

// BillingTrigger fires scheduled invoice generation once per day at the
// configured time. Which frequencies run depends on the date: DAILY every
// day, WEEKLY on Sundays (the previous Sunday-Saturday week just closed),
// MONTHLY on the first of the month.
type BillingTrigger struct {
	config         BillingTriggerConfig
	invoiceSvc     portssvc.InvoiceGeneratorSvc
	tenantProvider TenantProvider
	logger         *slog.Logger

	cancel      context.CancelFunc
	wg          sync.WaitGroup
	mu          sync.Mutex
	isRunning   bool
	lastRunDate string
}

// NewBillingTrigger creates a new billing trigger.
func NewBillingTrigger(config BillingTriggerConfig, invoiceSvc portssvc.InvoiceGeneratorSvc, tenantProvider TenantProvider, logger *slog.Logger) *BillingTrigger {
	if config.CheckInterval <= 0 {
		config.CheckInterval = time.Minute
	}
	return &BillingTrigger{
		config:         config,
		invoiceSvc:     invoiceSvc,
		tenantProvider: tenantProvider,
		logger:         logger,
	}
}

// Start starts the billing trigger loop.
func (t *BillingTrigger) Start(ctx context.Context) error {
	t.mu.Lock()
	if t.isRunning {
		t.mu.Unlock()
		return nil
	}
	t.isRunning = true
	t.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	t.cancel = cancel

	t.wg.Add(1)
	go t.runLoop(ctx)

	t.logger.Info("Billing trigger started",
		slog.Int("invoicing_hour", t.config.InvoicingHour),
		slog.Int("invoicing_minute", t.config.InvoicingMinute),
		slog.Duration("check_interval", t.config.CheckInterval),
	)
	return nil
}

// Stop stops the billing trigger and waits for an in-flight run to finish,
// bounded by ctx.
func (t *BillingTrigger) Stop(ctx context.Context) error {
	t.mu.Lock()
	if !t.isRunning {
		t.mu.Unlock()
		return nil
	}
	t.isRunning = false
	t.mu.Unlock()

	if t.cancel != nil {
		t.cancel()
	}

	done := make(chan struct{})
	go func() {
		t.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		t.logger.Info("Billing trigger stopped")
		return nil
	case <-ctx.Done():
		t.logger.Warn("Billing trigger stop timed out")
		return ctx.Err()
	}
}

func (t *BillingTrigger) runLoop(ctx context.Context) {
	defer t.wg.Done()

	ticker := time.NewTicker(t.config.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.checkAndTrigger(ctx, time.Now())
		}
	}
}

// checkAndTrigger fires the billing pass when the wall clock reaches the
// configured time and it has not already run today.
func (t *BillingTrigger) checkAndTrigger(ctx context.Context, now time.Time) {
	currentDate := now.Format("2006-01-02")

	t.mu.Lock()
	alreadyRan := t.lastRunDate == currentDate
	t.mu.Unlock()
	if alreadyRan {
		return
	}

	if now.Hour() != t.config.InvoicingHour || now.Minute() != t.config.InvoicingMinute {
		return
	}

	t.mu.Lock()
	t.lastRunDate = currentDate
	t.mu.Unlock()

	t.RunBillingPass(ctx, now)
}

// DueFrequencies reports which invoicing frequencies have a period closing
// at the given moment: DAILY every day, WEEKLY on Sundays, MONTHLY on the
// first of the month. PER_RIDE accounts are billed on every pass.
func DueFrequencies(now time.Time) []domain.InvoiceFrequency {
	due := []domain.InvoiceFrequency{domain.PerRide, domain.Daily}
	if now.Weekday() == time.Sunday {
		due = append(due, domain.Weekly)
	}
	if now.Day() == 1 {
		due = append(due, domain.Monthly)
	}
	return due
}

// RunBillingPass executes one full billing pass across all tenants and all
// frequencies due at now. A failing tenant or frequency does not stop the
// pass.
func (t *BillingTrigger) RunBillingPass(ctx context.Context, now time.Time) {
	ctx = middleware.WithLogger(ctx, t.logger)
	logger := t.logger

	tenantIDs, err := t.tenantProvider.ActiveTenantIDs(ctx)
	if err != nil {
		logger.Error("Failed to list tenants for billing pass", slog.String("error", err.Error()))
		return
	}

	due := DueFrequencies(now)
	logger.Info("Billing pass starting",
		slog.Int("tenant_count", len(tenantIDs)),
		slog.Int("frequency_count", len(due)),
	)

	for _, tenantID := range tenantIDs {
		for _, frequency := range due {
			if ctx.Err() != nil {
				logger.Warn("Billing pass interrupted by shutdown")
				return
			}
			result, err := t.invoiceSvc.GenerateScheduledInvoices(ctx, tenantID, frequency, now)
			if err != nil {
				logger.Error("Billing pass failed for tenant",
					slog.String("tenant_id", tenantID),
					slog.String("frequency", string(frequency)),
					slog.String("error", err.Error()),
				)
				continue
			}
			if result.Generated > 0 || len(result.Failed) > 0 {
				logger.Info("Billing pass tenant summary",
					slog.String("tenant_id", tenantID),
					slog.String("frequency", string(frequency)),
					slog.Int("generated", result.Generated),
					slog.Int("skipped", result.Skipped),
					slog.Int("failed", len(result.Failed)),
				)
			}
		}
	}
}
