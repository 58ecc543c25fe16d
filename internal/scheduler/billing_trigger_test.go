package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/rideledger/ride_billing_app/internal/core/domain"
	"github.com/rideledger/ride_billing_app/internal/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubTenantProvider struct {
	tenantIDs []string
	err       error
}

func (s *stubTenantProvider) ActiveTenantIDs(ctx context.Context) ([]string, error) {
	return s.tenantIDs, s.err
}

type recordingInvoiceSvc struct {
	mu    sync.Mutex
	calls []struct {
		TenantID  string
		Frequency domain.InvoiceFrequency
	}
	err error
}

func (r *recordingInvoiceSvc) GenerateInvoice(ctx context.Context, tenantID, accountID string, req dto.GenerateInvoiceRequest, userID string) (*domain.Invoice, error) {
	return nil, nil
}

func (r *recordingInvoiceSvc) GenerateScheduledInvoices(ctx context.Context, tenantID string, frequency domain.InvoiceFrequency, asOf time.Time) (*dto.GenerateScheduledResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, struct {
		TenantID  string
		Frequency domain.InvoiceFrequency
	}{tenantID, frequency})
	if r.err != nil {
		return nil, r.err
	}
	return &dto.GenerateScheduledResult{Generated: 1}, nil
}

func TestDueFrequencies(t *testing.T) {
	tests := []struct {
		name     string
		now      time.Time
		expected []domain.InvoiceFrequency
	}{
		{
			name:     "Plain weekday",
			now:      time.Date(2026, 7, 15, 2, 0, 0, 0, time.UTC), // Wednesday the 15th
			expected: []domain.InvoiceFrequency{domain.PerRide, domain.Daily},
		},
		{
			name:     "Sunday",
			now:      time.Date(2026, 7, 5, 2, 0, 0, 0, time.UTC),
			expected: []domain.InvoiceFrequency{domain.PerRide, domain.Daily, domain.Weekly},
		},
		{
			name:     "First of month",
			now:      time.Date(2026, 7, 1, 2, 0, 0, 0, time.UTC), // a Wednesday
			expected: []domain.InvoiceFrequency{domain.PerRide, domain.Daily, domain.Monthly},
		},
		{
			name:     "Sunday the first",
			now:      time.Date(2026, 2, 1, 2, 0, 0, 0, time.UTC),
			expected: []domain.InvoiceFrequency{domain.PerRide, domain.Daily, domain.Weekly, domain.Monthly},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DueFrequencies(tt.now))
		})
	}
}

func TestRunBillingPass_AllTenantsAllDueFrequencies(t *testing.T) {
	svc := &recordingInvoiceSvc{}
	provider := &stubTenantProvider{tenantIDs: []string{"tenant-a", "tenant-b"}}
	trigger := NewBillingTrigger(DefaultBillingTriggerConfig(), svc, provider, slog.Default())

	now := time.Date(2026, 7, 5, 2, 0, 0, 0, time.UTC) // Sunday
	trigger.RunBillingPass(context.Background(), now)

	// 2 tenants x 3 due frequencies (per-ride, daily, weekly).
	require.Len(t, svc.calls, 6)
	assert.Equal(t, "tenant-a", svc.calls[0].TenantID)
	assert.Equal(t, domain.PerRide, svc.calls[0].Frequency)
	assert.Equal(t, "tenant-b", svc.calls[5].TenantID)
	assert.Equal(t, domain.Weekly, svc.calls[5].Frequency)
}

func TestRunBillingPass_TenantFailureDoesNotStopPass(t *testing.T) {
	svc := &recordingInvoiceSvc{err: assert.AnError}
	provider := &stubTenantProvider{tenantIDs: []string{"tenant-a", "tenant-b"}}
	trigger := NewBillingTrigger(DefaultBillingTriggerConfig(), svc, provider, slog.Default())

	now := time.Date(2026, 7, 15, 2, 0, 0, 0, time.UTC)
	trigger.RunBillingPass(context.Background(), now)

	// Every tenant/frequency combination was still attempted.
	require.Len(t, svc.calls, 4)
}

func TestCheckAndTrigger_OnlyAtConfiguredTime(t *testing.T) {
	svc := &recordingInvoiceSvc{}
	provider := &stubTenantProvider{tenantIDs: []string{"tenant-a"}}
	config := BillingTriggerConfig{InvoicingHour: 2, InvoicingMinute: 0, CheckInterval: time.Minute}
	trigger := NewBillingTrigger(config, svc, provider, slog.Default())

	ctx := context.Background()

	trigger.checkAndTrigger(ctx, time.Date(2026, 7, 15, 1, 59, 0, 0, time.UTC))
	assert.Empty(t, svc.calls)

	trigger.checkAndTrigger(ctx, time.Date(2026, 7, 15, 2, 0, 30, 0, time.UTC))
	require.Len(t, svc.calls, 2) // per-ride + daily

	// Same day, same time again: the guard prevents a second run.
	trigger.checkAndTrigger(ctx, time.Date(2026, 7, 15, 2, 0, 45, 0, time.UTC))
	require.Len(t, svc.calls, 2)

	// Next day fires again.
	trigger.checkAndTrigger(ctx, time.Date(2026, 7, 16, 2, 0, 0, 0, time.UTC))
	require.Len(t, svc.calls, 4)
}

func TestStartStop(t *testing.T) {
	svc := &recordingInvoiceSvc{}
	provider := &stubTenantProvider{}
	config := BillingTriggerConfig{InvoicingHour: 2, InvoicingMinute: 0, CheckInterval: 10 * time.Millisecond}
	trigger := NewBillingTrigger(config, svc, provider, slog.Default())

	require.NoError(t, trigger.Start(context.Background()))
	// Second start is a no-op.
	require.NoError(t, trigger.Start(context.Background()))

	stopCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, trigger.Stop(stopCtx))
	// Second stop is a no-op.
	require.NoError(t, trigger.Stop(stopCtx))
}
