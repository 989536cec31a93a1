package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/global-vision-developer/adminpro-api/internal/model"
	"github.com/global-vision-developer/adminpro-api/internal/repository"
	"github.com/global-vision-developer/adminpro-api/internal/service/notification"
	"github.com/global-vision-developer/adminpro-api/pkg/logger"
	"github.com/global-vision-developer/adminpro-api/pkg/metrics"
)

type DispatcherConfig struct {
	PollInterval time.Duration
	BatchSize    int

	// DueTolerance guards against premature pickup from trigger latency or
	// clock skew: a request whose schedule_at is still further in the future
	// than this is left untouched.
	DueTolerance time.Duration
}

// Dispatcher is the deferred-record trigger: it polls for due scheduled
// requests, claims each with a conditional status update and runs the dispatch
// pipeline against the existing record.
type Dispatcher struct {
	repo    repository.NotificationRepository
	svc     notification.Service
	config  DispatcherConfig
	logger  *logger.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

func NewDispatcher(
	repo repository.NotificationRepository,
	svc notification.Service,
	config DispatcherConfig,
	logger *logger.Logger,
	metrics *metrics.Metrics,
) *Dispatcher {
	if config.BatchSize <= 0 {
		panic("BatchSize must be greater than 0")
	}
	if config.PollInterval <= 0 {
		panic("PollInterval must be greater than 0")
	}
	if config.DueTolerance < 0 {
		panic("DueTolerance must not be negative")
	}

	return &Dispatcher{
		repo:    repo,
		svc:     svc,
		config:  config,
		logger:  logger,
		metrics: metrics,
		now:     time.Now,
	}
}

func (d *Dispatcher) Start(ctx context.Context) {
	ticker := time.NewTicker(d.config.PollInterval)
	defer ticker.Stop()

	d.logger.Info("Starting scheduled dispatch worker")

	for {
		select {
		case <-ctx.Done():
			d.logger.Info("Shutting down scheduled dispatch worker")
			return
		case <-ticker.C:
			if err := d.processDue(ctx); err != nil {
				d.logger.Error(err, "Failed to process due requests")
			}
		}
	}
}

func (d *Dispatcher) processDue(ctx context.Context) error {
	now := d.now()

	requests, err := d.repo.ListDueScheduled(ctx, now, d.config.BatchSize)
	if err != nil {
		d.metrics.DatabaseOperations.WithLabelValues("list_due_scheduled", "error").Inc()
		return fmt.Errorf("failed to list due scheduled requests: %w", err)
	}
	d.metrics.DatabaseOperations.WithLabelValues("list_due_scheduled", "success").Inc()

	for _, req := range requests {
		if err := d.processRequest(ctx, req); err != nil {
			d.logger.Error(err, "Failed to process scheduled request",
				"request_id", req.ID.String())
		}
	}

	return nil
}

func (d *Dispatcher) processRequest(ctx context.Context, req *model.NotificationRequest) error {
	if req.ScheduleAt != nil && req.ScheduleAt.After(d.now().Add(d.config.DueTolerance)) {
		d.metrics.ScheduledSkipped.Inc()
		return nil
	}

	claimed, err := d.repo.ClaimScheduled(ctx, req.ID)
	if err != nil {
		return fmt.Errorf("failed to claim request: %w", err)
	}
	if !claimed {
		// Another worker won the race; the record is theirs now.
		d.metrics.ScheduledSkipped.Inc()
		return nil
	}
	d.metrics.ScheduledClaimed.Inc()
	req.ProcessingStatus = model.ProcessingStatusProcessing

	timer := prometheus.NewTimer(d.metrics.DispatchLatency)
	err = d.svc.Process(ctx, req)
	timer.ObserveDuration()

	d.metrics.DispatchesTotal.WithLabelValues(string(req.ProcessingStatus)).Inc()
	d.metrics.TargetsTotal.WithLabelValues("success").Add(float64(req.SuccessCount()))
	d.metrics.TargetsTotal.WithLabelValues("failed").Add(float64(req.FailureCount()))

	if err != nil {
		return fmt.Errorf("dispatch failed: %w", err)
	}

	d.logger.Info("Dispatched scheduled notification",
		"request_id", req.ID.String(),
		"status", string(req.ProcessingStatus),
		"success_count", req.SuccessCount(),
		"failure_count", req.FailureCount())
	return nil
}
