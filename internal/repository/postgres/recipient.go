package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/global-vision-developer/adminpro-api/internal/model"
	"github.com/global-vision-developer/adminpro-api/internal/repository"
)

type recipientRepository struct {
	*BaseRepository
}

func NewRecipientRepository(base *BaseRepository) repository.RecipientRepository {
	return &recipientRepository{
		BaseRepository: base,
	}
}

func (r *recipientRepository) Get(ctx context.Context, id string) (*model.Recipient, error) {
	query := `
		SELECT id, email, name, fcm_token, created_at, updated_at
		FROM app_users
		WHERE id = $1
	`
	var recipient model.Recipient
	if err := r.db.GetContext(ctx, &recipient, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get recipient: %w", err)
	}
	return &recipient, nil
}

func (r *recipientRepository) ListDeviceTokens(ctx context.Context, userID string) ([]string, error) {
	query := `
		SELECT token
		FROM user_devices
		WHERE user_id = $1
		ORDER BY created_at ASC
	`
	var tokens []string
	if err := r.db.SelectContext(ctx, &tokens, query, userID); err != nil {
		return nil, fmt.Errorf("failed to list device tokens: %w", err)
	}
	return tokens, nil
}

func (r *recipientRepository) UpsertDevice(ctx context.Context, device *model.Device) error {
	query := `
		INSERT INTO user_devices (user_id, token, platform, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, token)
		DO UPDATE SET platform = EXCLUDED.platform
	`
	_, err := r.db.ExecContext(ctx, query,
		device.UserID, device.Token, device.Platform, device.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert device: %w", err)
	}
	return nil
}
