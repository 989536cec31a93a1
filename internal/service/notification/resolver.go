package notification

import (
	"context"
	"fmt"

	"github.com/global-vision-developer/adminpro-api/internal/model"
)

// resolveTargets expands recipient ids into pending targets. Per recipient the
// legacy fcm_token column is read first, then the device table in registration
// order. Tokens are deduplicated across the whole request, first seen wins; a
// recipient with no tokens contributes nothing and is not an error.
func (s *service) resolveTargets(ctx context.Context, recipientIDs []string) (model.TargetList, error) {
	targets := make(model.TargetList, 0, len(recipientIDs))
	seen := make(map[string]struct{})

	for _, id := range recipientIDs {
		recipient, err := s.recipients.Get(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve recipient %s: %w", id, err)
		}
		if recipient == nil {
			continue
		}

		var tokens []string
		if recipient.FCMToken != nil && *recipient.FCMToken != "" {
			tokens = append(tokens, *recipient.FCMToken)
		}
		deviceTokens, err := s.recipients.ListDeviceTokens(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to list device tokens for %s: %w", id, err)
		}
		tokens = append(tokens, deviceTokens...)

		for _, token := range tokens {
			if token == "" {
				continue
			}
			if _, dup := seen[token]; dup {
				continue
			}
			seen[token] = struct{}{}
			targets = append(targets, model.Target{
				UserID:    recipient.ID,
				UserEmail: recipient.Email,
				UserName:  recipient.Name,
				Token:     token,
				Status:    model.TargetStatusPending,
			})
		}
	}

	return targets, nil
}
