package service

import (
	"context"
	"encoding/json"
	"time"

	"newsbox-topics/internal/config"
	"newsbox-topics/internal/dto"
	"newsbox-topics/internal/pkg/logger"
	"newsbox-topics/internal/repository/contract"
	"newsbox-topics/internal/repository/unitofwork"
)

// RebuildTopicName is the watermill topic carrying rebuild jobs.
const RebuildTopicName = "TOPIC_REBUILD_REQUESTED"

type ITopicSchedulerService interface {
	// Jobs lists one rebuild job per recently active owner.
	Jobs(ctx context.Context) ([]dto.RebuildJob, error)
	// RunOnce publishes the current jobs and returns how many were queued.
	RunOnce(ctx context.Context) (int, error)
	// Start runs RunOnce on the configured interval until ctx is done.
	Start(ctx context.Context)
}

type topicSchedulerService struct {
	uowFactory unitofwork.RepositoryFactory
	markers    contract.RunMarkerRepository
	publisher  IPublisherService
	cfg        config.SchedulerConfig
	logger     logger.ILogger
	now        func() time.Time
}

func NewTopicSchedulerService(
	uowFactory unitofwork.RepositoryFactory,
	markers contract.RunMarkerRepository,
	publisher IPublisherService,
	cfg config.SchedulerConfig,
	log logger.ILogger,
) ITopicSchedulerService {
	if cfg.IntervalMinutes <= 0 {
		cfg.IntervalMinutes = 60
	}
	if cfg.ActiveWindowHours <= 0 {
		cfg.ActiveWindowHours = 24
	}
	if cfg.OwnerBatch <= 0 {
		cfg.OwnerBatch = 50
	}
	return &topicSchedulerService{
		uowFactory: uowFactory,
		markers:    markers,
		publisher:  publisher,
		cfg:        cfg,
		logger:     log,
		now:        time.Now,
	}
}

func (s *topicSchedulerService) Jobs(ctx context.Context) ([]dto.RebuildJob, error) {
	window := s.now().Add(-time.Duration(s.cfg.ActiveWindowHours) * time.Hour)
	owners, err := s.uowFactory.NewUnitOfWork(ctx).NoteRepository().FindActiveOwners(ctx, window, s.cfg.OwnerBatch)
	if err != nil {
		return nil, persistenceError("find active owners", err)
	}

	jobs := make([]dto.RebuildJob, 0, len(owners))
	for _, owner := range owners {
		since := window
		last, ok, err := s.markers.LastRun(ctx, owner)
		if err != nil {
			s.logger.Warn("SCHEDULER", "Run marker unavailable, using active window", map[string]interface{}{
				"user_id": owner.String(),
				"error":   err.Error(),
			})
		} else if ok {
			since = last
		}
		jobs = append(jobs, dto.RebuildJob{UserId: owner, Since: since})
	}
	return jobs, nil
}

func (s *topicSchedulerService) RunOnce(ctx context.Context) (int, error) {
	jobs, err := s.Jobs(ctx)
	if err != nil {
		return 0, err
	}

	queued := 0
	for _, job := range jobs {
		payload, err := json.Marshal(job)
		if err != nil {
			return queued, err
		}
		if err := s.publisher.Publish(ctx, payload); err != nil {
			s.logger.Error("SCHEDULER", "Failed to queue rebuild", map[string]interface{}{
				"user_id": job.UserId.String(),
				"error":   err.Error(),
			})
			continue
		}
		queued++
	}

	s.logger.Info("SCHEDULER", "Rebuild jobs queued", map[string]interface{}{
		"owners": len(jobs),
		"queued": queued,
	})
	return queued, nil
}

func (s *topicSchedulerService) Start(ctx context.Context) {
	if !s.cfg.Enabled {
		s.logger.Info("SCHEDULER", "Scheduler disabled", nil)
		return
	}

	interval := time.Duration(s.cfg.IntervalMinutes) * time.Minute
	s.logger.Info("SCHEDULER", "Scheduler started", map[string]interface{}{"interval": interval.String()})

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			if _, err := s.RunOnce(ctx); err != nil {
				s.logger.Error("SCHEDULER", "Scheduler pass failed", map[string]interface{}{"error": err.Error()})
			}
			select {
			case <-ctx.Done():
				s.logger.Info("SCHEDULER", "Scheduler stopped", nil)
				return
			case <-ticker.C:
			}
		}
	}()
}
