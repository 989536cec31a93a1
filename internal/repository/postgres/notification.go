package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/global-vision-developer/adminpro-api/internal/model"
	"github.com/global-vision-developer/adminpro-api/internal/repository"
)

type notificationRepository struct {
	*BaseRepository
}

func NewNotificationRepository(base *BaseRepository) repository.NotificationRepository {
	return &notificationRepository{
		BaseRepository: base,
	}
}

func (r *notificationRepository) Create(ctx context.Context, req *model.NotificationRequest) error {
	query := `
		INSERT INTO notification_requests (
			id, title, body, image_url, deep_link, created_by, created_at,
			schedule_at, processing_status, processed_at, recipient_ids, targets
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12
		)
	`
	_, err := r.db.ExecContext(ctx, query,
		req.ID,
		req.Title,
		req.Body,
		req.ImageURL,
		req.DeepLink,
		req.CreatedBy,
		req.CreatedAt,
		req.ScheduleAt,
		req.ProcessingStatus,
		req.ProcessedAt,
		req.RecipientIDs,
		req.Targets,
	)
	if err != nil {
		return fmt.Errorf("failed to create notification request: %w", err)
	}
	return nil
}

func (r *notificationRepository) Get(ctx context.Context, id uuid.UUID) (*model.NotificationRequest, error) {
	query := `
		SELECT id, title, body, image_url, deep_link, created_by, created_at,
			schedule_at, processing_status, processed_at, recipient_ids, targets
		FROM notification_requests
		WHERE id = $1
	`
	var req model.NotificationRequest
	if err := r.db.GetContext(ctx, &req, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("notification request %s not found: %w", id, err)
		}
		return nil, fmt.Errorf("failed to get notification request: %w", err)
	}
	return &req, nil
}

func (r *notificationRepository) List(ctx context.Context, limit, offset int) ([]*model.NotificationRequest, error) {
	query := `
		SELECT id, title, body, image_url, deep_link, created_by, created_at,
			schedule_at, processing_status, processed_at, recipient_ids, targets
		FROM notification_requests
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`
	var reqs []*model.NotificationRequest
	if err := r.db.SelectContext(ctx, &reqs, query, limit, offset); err != nil {
		return nil, fmt.Errorf("failed to list notification requests: %w", err)
	}
	return reqs, nil
}

func (r *notificationRepository) ListDueScheduled(ctx context.Context, now time.Time, limit int) ([]*model.NotificationRequest, error) {
	query := `
		SELECT id, title, body, image_url, deep_link, created_by, created_at,
			schedule_at, processing_status, processed_at, recipient_ids, targets
		FROM notification_requests
		WHERE processing_status = $1
		AND schedule_at <= $2
		ORDER BY schedule_at ASC
		LIMIT $3
	`
	var reqs []*model.NotificationRequest
	err := r.db.SelectContext(ctx, &reqs, query, model.ProcessingStatusScheduled, now, limit)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list due scheduled requests: %w", err)
	}
	return reqs, nil
}

// ClaimScheduled is the optimistic-concurrency gate: two workers racing for
// the same record see exactly one affected row between them.
func (r *notificationRepository) ClaimScheduled(ctx context.Context, id uuid.UUID) (bool, error) {
	query := `
		UPDATE notification_requests
		SET processing_status = $1
		WHERE id = $2 AND processing_status = $3
	`
	result, err := r.db.ExecContext(ctx, query,
		model.ProcessingStatusProcessing, id, model.ProcessingStatusScheduled)
	if err != nil {
		return false, fmt.Errorf("failed to claim scheduled request: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}

func (r *notificationRepository) ClaimForRetry(ctx context.Context, id uuid.UUID) (bool, error) {
	query := `
		UPDATE notification_requests
		SET processing_status = $1
		WHERE id = $2 AND processing_status IN ($3, $4, $5, $6)
	`
	result, err := r.db.ExecContext(ctx, query,
		model.ProcessingStatusProcessing, id,
		model.ProcessingStatusCompleted,
		model.ProcessingStatusPartiallyCompleted,
		model.ProcessingStatusNoTargets,
		model.ProcessingStatusError)
	if err != nil {
		return false, fmt.Errorf("failed to claim request for retry: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}

func (r *notificationRepository) UpdateOutcome(ctx context.Context, req *model.NotificationRequest) error {
	query := `
		UPDATE notification_requests
		SET processing_status = $1, processed_at = $2, targets = $3
		WHERE id = $4
	`
	_, err := r.db.ExecContext(ctx, query,
		req.ProcessingStatus,
		req.ProcessedAt,
		req.Targets,
		req.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update notification outcome: %w", err)
	}
	return nil
}
