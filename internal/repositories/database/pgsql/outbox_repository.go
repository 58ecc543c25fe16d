package pgsql

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rideledger/ride_billing_app/internal/apperrors"
	"github.com/rideledger/ride_billing_app/internal/core/domain"
	portsrepo "github.com/rideledger/ride_billing_app/internal/core/ports/repositories"
	"github.com/rideledger/ride_billing_app/internal/models"
	"github.com/rideledger/ride_billing_app/internal/utils/mapping"
)

// PgxOutboxRepository implements outbox event storage on PostgreSQL.
type PgxOutboxRepository struct {
	BaseRepository
}

func newPgxOutboxRepository(pool *pgxpool.Pool) *PgxOutboxRepository {
	return &PgxOutboxRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.OutboxRepositoryFacade = (*PgxOutboxRepository)(nil)

// SaveEvent persists a standalone event outside any domain transaction.
func (r *PgxOutboxRepository) SaveEvent(ctx context.Context, event domain.OutboxEvent) error {
	query := `
		INSERT INTO outbox_events (event_id, event_type, payload, tenant_id, created_at, retry_count)
		VALUES ($1, $2, $3, $4, $5, $6);
	`
	m := mapping.ToModelOutboxEvent(event)
	_, err := r.Pool.Exec(ctx, query,
		m.EventID,
		m.EventType,
		m.Payload,
		m.TenantID,
		m.CreatedAt,
		m.RetryCount,
	)
	if err != nil {
		if isTransient(err) {
			return fmt.Errorf("%w: failed to save outbox event: %v", apperrors.ErrTransient, err)
		}
		return apperrors.NewAppError(500, "failed to save outbox event", err)
	}
	return nil
}

// FindUnprocessed retrieves pending events below the poison threshold, oldest
// first, bounded by limit.
func (r *PgxOutboxRepository) FindUnprocessed(ctx context.Context, limit, maxRetries int) ([]domain.OutboxEvent, error) {
	query := `
		SELECT event_id, event_type, payload, tenant_id, created_at, processed_at, retry_count, error_message
		FROM outbox_events
		WHERE processed_at IS NULL AND retry_count < $1
		ORDER BY created_at, event_id
		LIMIT $2;
	`
	var events []domain.OutboxEvent
	err := r.withRetry(ctx, "list unprocessed outbox events", func() error {
		rows, err := r.Pool.Query(ctx, query, maxRetries, limit)
		if err != nil {
			return err
		}
		defer rows.Close()

		modelEvents := []models.OutboxEvent{}
		for rows.Next() {
			var m models.OutboxEvent
			var errorMessage *string
			if err := rows.Scan(
				&m.EventID,
				&m.EventType,
				&m.Payload,
				&m.TenantID,
				&m.CreatedAt,
				&m.ProcessedAt,
				&m.RetryCount,
				&errorMessage,
			); err != nil {
				return err
			}
			if errorMessage != nil {
				m.ErrorMessage = *errorMessage
			}
			modelEvents = append(modelEvents, m)
		}
		if err := rows.Err(); err != nil {
			return err
		}
		events = mapping.ToDomainOutboxEventSlice(modelEvents)
		return nil
	})
	if err != nil {
		return nil, wrapQueryError("failed to list unprocessed outbox events", err)
	}
	return events, nil
}

// CountUnprocessed returns the number of pending, non-poison events.
func (r *PgxOutboxRepository) CountUnprocessed(ctx context.Context, maxRetries int) (int64, error) {
	query := `
		SELECT COUNT(*)
		FROM outbox_events
		WHERE processed_at IS NULL AND retry_count < $1;
	`
	var count int64
	err := r.withRetry(ctx, "count unprocessed outbox events", func() error {
		return r.Pool.QueryRow(ctx, query, maxRetries).Scan(&count)
	})
	if err != nil {
		return 0, wrapQueryError("failed to count unprocessed outbox events", err)
	}
	return count, nil
}

// MarkProcessed records a successful delivery. Any error message from earlier
// failed attempts is cleared so the row matches the aggregate's state.
func (r *PgxOutboxRepository) MarkProcessed(ctx context.Context, eventID string, processedAt time.Time) error {
	query := `
		UPDATE outbox_events
		SET processed_at = $2, error_message = NULL
		WHERE event_id = $1 AND processed_at IS NULL;
	`
	tag, err := r.Pool.Exec(ctx, query, eventID, processedAt)
	if err != nil {
		if isTransient(err) {
			return fmt.Errorf("%w: failed to mark event processed: %v", apperrors.ErrTransient, err)
		}
		return apperrors.NewAppError(500, "failed to mark event processed", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: outbox event %s not found or already processed", apperrors.ErrNotFound, eventID)
	}
	return nil
}

// MarkFailed records a delivery failure and bumps the retry count.
func (r *PgxOutboxRepository) MarkFailed(ctx context.Context, eventID string, errorMessage string) error {
	query := `
		UPDATE outbox_events
		SET retry_count = retry_count + 1, error_message = $2
		WHERE event_id = $1 AND processed_at IS NULL;
	`
	tag, err := r.Pool.Exec(ctx, query, eventID, errorMessage)
	if err != nil {
		if isTransient(err) {
			return fmt.Errorf("%w: failed to mark event failed: %v", apperrors.ErrTransient, err)
		}
		return apperrors.NewAppError(500, "failed to mark event failed", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: outbox event %s not found or already processed", apperrors.ErrNotFound, eventID)
	}
	return nil
}
