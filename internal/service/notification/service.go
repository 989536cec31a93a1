package notification

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/global-vision-developer/adminpro-api/internal/model"
	"github.com/global-vision-developer/adminpro-api/internal/push"
	"github.com/global-vision-developer/adminpro-api/internal/repository"
	apperrors "github.com/global-vision-developer/adminpro-api/pkg/errors"
	"github.com/global-vision-developer/adminpro-api/pkg/messaging"
)

const dispatchEventChannel = "notifications"

type Service interface {
	// Submit validates and either schedules the request for later or runs the
	// full dispatch synchronously.
	Submit(ctx context.Context, req *model.SubmitNotificationRequest, actor model.Actor) (*model.DispatchResult, error)

	// Process runs resolution, sending and recording against an existing
	// record that has already been transitioned to processing.
	Process(ctx context.Context, record *model.NotificationRequest) error

	// Retry re-enters processing on a terminal record and dispatches again
	// with freshly resolved tokens.
	Retry(ctx context.Context, id uuid.UUID) (*model.DispatchResult, error)

	Get(ctx context.Context, id uuid.UUID) (*model.NotificationRequest, error)
	List(ctx context.Context, limit, offset int) ([]*model.NotificationRequest, error)
}

type service struct {
	repo       repository.NotificationRepository
	recipients repository.RecipientRepository
	sender     push.Sender
	broker     messaging.Broker
	now        func() time.Time
}

func NewService(repo repository.NotificationRepository, recipients repository.RecipientRepository,
	sender push.Sender, broker messaging.Broker) Service {
	return &service{
		repo:       repo,
		recipients: recipients,
		sender:     sender,
		broker:     broker,
		now:        time.Now,
	}
}

func (s *service) Submit(ctx context.Context, req *model.SubmitNotificationRequest, actor model.Actor) (*model.DispatchResult, error) {
	if actor.ID == "" {
		return nil, apperrors.Unauthenticated(fmt.Errorf("missing caller identity"))
	}
	if err := s.validateSubmit(req); err != nil {
		return nil, err
	}

	now := s.now()
	record := &model.NotificationRequest{
		ID:           uuid.New(),
		Title:        req.Title,
		Body:         req.Body,
		ImageURL:     req.ImageURL,
		DeepLink:     req.DeepLink,
		CreatedBy:    actor,
		CreatedAt:    now,
		ScheduleAt:   req.ScheduleAt,
		RecipientIDs: req.RecipientIDs,
		Targets:      model.TargetList{},
	}

	// Deferred requests keep an empty target list: tokens are resolved when
	// the request is actually due, so they are as fresh as possible.
	if req.ScheduleAt != nil && req.ScheduleAt.After(now) {
		record.ProcessingStatus = model.ProcessingStatusScheduled
		if err := s.repo.Create(ctx, record); err != nil {
			return nil, apperrors.Internal(err)
		}
		return &model.DispatchResult{
			RequestID: record.ID,
			Scheduled: true,
			Message:   fmt.Sprintf("notification %s scheduled for %s", record.ID, req.ScheduleAt.Format(time.RFC3339)),
		}, nil
	}

	record.ProcessingStatus = model.ProcessingStatusProcessing
	if err := s.repo.Create(ctx, record); err != nil {
		return nil, apperrors.Internal(err)
	}

	if err := s.dispatch(ctx, record); err != nil {
		return nil, apperrors.Internal(err)
	}

	return s.resultFor(record), nil
}

func (s *service) Process(ctx context.Context, record *model.NotificationRequest) error {
	return s.dispatch(ctx, record)
}

func (s *service) Retry(ctx context.Context, id uuid.UUID) (*model.DispatchResult, error) {
	record, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, apperrors.NotFound("notification request", err)
	}
	claimed, err := s.repo.ClaimForRetry(ctx, id)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	if !claimed {
		return nil, apperrors.InvalidArgument("only a finished notification can be retried")
	}
	record.ProcessingStatus = model.ProcessingStatusProcessing

	if err := s.dispatch(ctx, record); err != nil {
		return nil, apperrors.Internal(err)
	}
	return s.resultFor(record), nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*model.NotificationRequest, error) {
	record, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, apperrors.NotFound("notification request", err)
	}
	return record, nil
}

func (s *service) List(ctx context.Context, limit, offset int) ([]*model.NotificationRequest, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.List(ctx, limit, offset)
}

// dispatch runs resolve -> send -> record over a record already in processing.
// Every exit path leaves the record in a terminal status with no target still
// pending.
func (s *service) dispatch(ctx context.Context, record *model.NotificationRequest) error {
	targets, err := s.resolveTargets(ctx, record.RecipientIDs)
	if err != nil {
		s.recordPipelineError(ctx, record, err)
		return err
	}
	record.Targets = targets

	if len(targets) == 0 {
		now := s.now()
		record.ProcessingStatus = model.ProcessingStatusNoTargets
		record.ProcessedAt = &now
		if err := s.repo.UpdateOutcome(ctx, record); err != nil {
			return err
		}
		s.publishDispatchEvent(ctx, record)
		return nil
	}

	tokens := make([]string, len(targets))
	for i := range targets {
		tokens[i] = targets[i].Token
	}

	content := push.Content{
		Title:    record.Title,
		Body:     record.Body,
		ImageURL: record.ImageURL,
		DeepLink: record.DeepLink,
	}

	results, err := s.sender.Send(ctx, content, tokens)
	if err != nil {
		s.recordPipelineError(ctx, record, err)
		return err
	}

	s.recordResults(record, results)
	if err := s.repo.UpdateOutcome(ctx, record); err != nil {
		return err
	}
	s.publishDispatchEvent(ctx, record)
	return nil
}

func (s *service) resultFor(record *model.NotificationRequest) *model.DispatchResult {
	result := &model.DispatchResult{
		RequestID:    record.ID,
		SuccessCount: record.SuccessCount(),
		FailureCount: record.FailureCount(),
	}
	if record.ProcessingStatus == model.ProcessingStatusNoTargets {
		result.Message = "no registered devices for the requested recipients"
		return result
	}
	result.Message = fmt.Sprintf("delivered to %d of %d targets", result.SuccessCount, len(record.Targets))
	return result
}

func (s *service) publishDispatchEvent(ctx context.Context, record *model.NotificationRequest) {
	event := messaging.DispatchEvent{
		RequestID:    record.ID.String(),
		Status:       string(record.ProcessingStatus),
		SuccessCount: record.SuccessCount(),
		FailureCount: record.FailureCount(),
	}
	if err := s.broker.Publish(ctx, dispatchEventChannel, event); err != nil {
		log.Error().Err(err).Str("request_id", event.RequestID).Msg("failed to publish dispatch event")
	}
}

func (s *service) validateSubmit(req *model.SubmitNotificationRequest) error {
	if strings.TrimSpace(req.Title) == "" {
		return apperrors.InvalidArgument("title is required")
	}
	if strings.TrimSpace(req.Body) == "" {
		return apperrors.InvalidArgument("body is required")
	}
	if len(req.RecipientIDs) == 0 {
		return apperrors.InvalidArgument("at least one recipient is required")
	}
	for _, id := range req.RecipientIDs {
		if strings.TrimSpace(id) == "" {
			return apperrors.InvalidArgument("recipient ids must be non-empty")
		}
	}
	return nil
}
