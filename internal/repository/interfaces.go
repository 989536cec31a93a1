package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/global-vision-developer/adminpro-api/internal/model"
)

// All repository interfaces in one file
type (
	// NotificationRepository persists notification requests and their
	// per-target outcomes.
	NotificationRepository interface {
		Create(ctx context.Context, req *model.NotificationRequest) error
		Get(ctx context.Context, id uuid.UUID) (*model.NotificationRequest, error)
		List(ctx context.Context, limit, offset int) ([]*model.NotificationRequest, error)

		// ListDueScheduled returns scheduled requests whose schedule_at has
		// passed, oldest first.
		ListDueScheduled(ctx context.Context, now time.Time, limit int) ([]*model.NotificationRequest, error)

		// ClaimScheduled transitions scheduled -> processing only if the
		// request is still scheduled. Returns false when another worker got
		// there first.
		ClaimScheduled(ctx context.Context, id uuid.UUID) (bool, error)

		// ClaimForRetry transitions a terminal record back to processing.
		// Returns false when the record is still scheduled or already
		// processing, so a retry can never race the scheduled trigger.
		ClaimForRetry(ctx context.Context, id uuid.UUID) (bool, error)

		// UpdateOutcome writes processing_status, processed_at and the whole
		// targets array in a single statement.
		UpdateOutcome(ctx context.Context, req *model.NotificationRequest) error
	}

	// RecipientRepository is the address store the resolver reads tokens from.
	RecipientRepository interface {
		// Get returns (nil, nil) when the recipient does not exist.
		Get(ctx context.Context, id string) (*model.Recipient, error)

		// ListDeviceTokens returns the recipient's registered tokens in
		// registration order.
		ListDeviceTokens(ctx context.Context, userID string) ([]string, error)

		UpsertDevice(ctx context.Context, device *model.Device) error
	}
)
