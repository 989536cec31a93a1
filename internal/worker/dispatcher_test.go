package worker

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/global-vision-developer/adminpro-api/internal/model"
	"github.com/global-vision-developer/adminpro-api/pkg/logger"
	"github.com/global-vision-developer/adminpro-api/pkg/metrics"
)

// promauto registers to the default registry; one shared instance avoids
// duplicate-registration panics across tests.
var testMetrics = metrics.NewMetrics("dispatcher_test")

type fakeRepo struct {
	due        []*model.NotificationRequest
	claimable  map[uuid.UUID]bool
	claimCalls []uuid.UUID
}

func (r *fakeRepo) Create(_ context.Context, _ *model.NotificationRequest) error { return nil }

func (r *fakeRepo) Get(_ context.Context, _ uuid.UUID) (*model.NotificationRequest, error) {
	return nil, fmt.Errorf("not implemented")
}

func (r *fakeRepo) List(_ context.Context, _, _ int) ([]*model.NotificationRequest, error) {
	return nil, nil
}

func (r *fakeRepo) ListDueScheduled(_ context.Context, _ time.Time, _ int) ([]*model.NotificationRequest, error) {
	return r.due, nil
}

func (r *fakeRepo) ClaimScheduled(_ context.Context, id uuid.UUID) (bool, error) {
	r.claimCalls = append(r.claimCalls, id)
	return r.claimable[id], nil
}

func (r *fakeRepo) ClaimForRetry(_ context.Context, _ uuid.UUID) (bool, error) { return false, nil }

func (r *fakeRepo) UpdateOutcome(_ context.Context, _ *model.NotificationRequest) error { return nil }

type fakeService struct {
	processed []uuid.UUID
	err       error
}

func (s *fakeService) Submit(_ context.Context, _ *model.SubmitNotificationRequest, _ model.Actor) (*model.DispatchResult, error) {
	return nil, fmt.Errorf("not implemented")
}

func (s *fakeService) Process(_ context.Context, record *model.NotificationRequest) error {
	s.processed = append(s.processed, record.ID)
	if s.err != nil {
		return s.err
	}
	record.ProcessingStatus = model.ProcessingStatusCompleted
	return nil
}

func (s *fakeService) Retry(_ context.Context, _ uuid.UUID) (*model.DispatchResult, error) {
	return nil, fmt.Errorf("not implemented")
}

func (s *fakeService) Get(_ context.Context, _ uuid.UUID) (*model.NotificationRequest, error) {
	return nil, fmt.Errorf("not implemented")
}

func (s *fakeService) List(_ context.Context, _, _ int) ([]*model.NotificationRequest, error) {
	return nil, nil
}

func newTestDispatcher(repo *fakeRepo, svc *fakeService) *Dispatcher {
	return NewDispatcher(repo, svc, DispatcherConfig{
		PollInterval: time.Second,
		BatchSize:    10,
		DueTolerance: 5 * time.Minute,
	}, logger.NewLogger(nil), testMetrics)
}

func scheduledRequest(scheduleAt time.Time) *model.NotificationRequest {
	return &model.NotificationRequest{
		ID:               uuid.New(),
		Title:            "t",
		Body:             "b",
		ScheduleAt:       &scheduleAt,
		ProcessingStatus: model.ProcessingStatusScheduled,
		RecipientIDs:     model.RecipientIDList{"u1"},
	}
}

func TestProcessDueClaimsAndDispatches(t *testing.T) {
	req := scheduledRequest(time.Now().Add(-time.Minute))
	repo := &fakeRepo{
		due:       []*model.NotificationRequest{req},
		claimable: map[uuid.UUID]bool{req.ID: true},
	}
	svc := &fakeService{}

	d := newTestDispatcher(repo, svc)
	require.NoError(t, d.processDue(context.Background()))

	assert.Equal(t, []uuid.UUID{req.ID}, repo.claimCalls)
	assert.Equal(t, []uuid.UUID{req.ID}, svc.processed)
}

func TestProcessDueSkipsLostClaim(t *testing.T) {
	req := scheduledRequest(time.Now().Add(-time.Minute))
	repo := &fakeRepo{
		due:       []*model.NotificationRequest{req},
		claimable: map[uuid.UUID]bool{req.ID: false},
	}
	svc := &fakeService{}

	d := newTestDispatcher(repo, svc)
	require.NoError(t, d.processDue(context.Background()))

	assert.Len(t, repo.claimCalls, 1)
	assert.Empty(t, svc.processed, "a record claimed elsewhere must not be processed")
}

func TestProcessDueSkipsNotYetDue(t *testing.T) {
	req := scheduledRequest(time.Now().Add(30 * time.Minute))
	repo := &fakeRepo{
		due:       []*model.NotificationRequest{req},
		claimable: map[uuid.UUID]bool{req.ID: true},
	}
	svc := &fakeService{}

	d := newTestDispatcher(repo, svc)
	require.NoError(t, d.processDue(context.Background()))

	assert.Empty(t, repo.claimCalls, "a record beyond the due tolerance must not be claimed")
	assert.Empty(t, svc.processed)
}

func TestProcessDueContinuesAfterDispatchError(t *testing.T) {
	first := scheduledRequest(time.Now().Add(-time.Minute))
	second := scheduledRequest(time.Now().Add(-time.Minute))
	repo := &fakeRepo{
		due:       []*model.NotificationRequest{first, second},
		claimable: map[uuid.UUID]bool{first.ID: true, second.ID: true},
	}
	svc := &fakeService{err: fmt.Errorf("provider unreachable")}

	d := newTestDispatcher(repo, svc)
	require.NoError(t, d.processDue(context.Background()))

	assert.Equal(t, []uuid.UUID{first.ID, second.ID}, svc.processed,
		"one failed dispatch must not stop the batch")
}
