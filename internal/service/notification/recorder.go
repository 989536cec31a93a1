package notification

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/global-vision-developer/adminpro-api/internal/model"
	"github.com/global-vision-developer/adminpro-api/internal/push"
)

// genericSendError is written to targets that never got an individual result
// because the transmission as a whole failed.
const genericSendError = "push delivery could not be attempted"

// recordResults merges positionally aligned send results into the target list
// and derives the aggregate status. A target that failed on an earlier run and
// succeeds now gets its stale error cleared.
func (s *service) recordResults(record *model.NotificationRequest, results []push.Result) {
	now := s.now()
	for i := range record.Targets {
		if i >= len(results) {
			break
		}
		target := &record.Targets[i]
		target.AttemptedAt = &now
		if results[i].Success {
			target.Status = model.TargetStatusSuccess
			target.MessageID = results[i].MessageID
			target.Error = ""
		} else {
			target.Status = model.TargetStatusFailed
			target.Error = results[i].Error
			target.MessageID = ""
		}
	}

	if record.FailureCount() == 0 {
		record.ProcessingStatus = model.ProcessingStatusCompleted
	} else {
		record.ProcessingStatus = model.ProcessingStatusPartiallyCompleted
	}
	record.ProcessedAt = &now
}

// recordPipelineError terminates a run whose send could not be attempted at
// all. Every still-pending target is failed with a generic reason so the
// record is never left stuck in processing.
func (s *service) recordPipelineError(ctx context.Context, record *model.NotificationRequest, cause error) {
	now := s.now()
	for i := range record.Targets {
		if record.Targets[i].Status != model.TargetStatusPending {
			continue
		}
		record.Targets[i].Status = model.TargetStatusFailed
		record.Targets[i].Error = genericSendError
		record.Targets[i].AttemptedAt = &now
	}
	record.ProcessingStatus = model.ProcessingStatusError
	record.ProcessedAt = &now

	log.Error().Err(cause).Str("request_id", record.ID.String()).Msg("dispatch pipeline failed")

	if err := s.repo.UpdateOutcome(ctx, record); err != nil {
		log.Error().Err(err).Str("request_id", record.ID.String()).Msg("failed to record pipeline error")
		return
	}
	s.publishDispatchEvent(ctx, record)
}
