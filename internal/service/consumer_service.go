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
	"newsbox-topics/pkg/apperr"

	"github.com/ThreeDotsLabs/watermill/message"
)

const defaultNackDelay = 30 * time.Second

type IConsumerService interface {
	Consume(ctx context.Context) error
	// Handle runs one rebuild job: rebuild, archive stale topics, then record the run.
	Handle(ctx context.Context, job dto.RebuildJob) error
}

type consumerService struct {
	subscriber message.Subscriber
	topicName  string
	rebuild    ITopicRebuildService
	uowFactory unitofwork.RepositoryFactory
	markers    contract.RunMarkerRepository
	cfg        config.TopicConfig
	logger     logger.ILogger
	now        func() time.Time
	nackDelay  time.Duration
}

func NewConsumerService(
	subscriber message.Subscriber,
	topicName string,
	rebuild ITopicRebuildService,
	uowFactory unitofwork.RepositoryFactory,
	markers contract.RunMarkerRepository,
	cfg config.TopicConfig,
	log logger.ILogger,
) IConsumerService {
	if cfg.RetentionDays <= 0 {
		cfg.RetentionDays = 30
	}
	return &consumerService{
		subscriber: subscriber,
		topicName:  topicName,
		rebuild:    rebuild,
		uowFactory: uowFactory,
		markers:    markers,
		cfg:        cfg,
		logger:     log,
		now:        time.Now,
		nackDelay:  defaultNackDelay,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.subscriber.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	var job dto.RebuildJob
	if err := json.Unmarshal(msg.Payload, &job); err != nil {
		cs.logger.Error("CONSUMER", "Failed to unmarshal rebuild job", map[string]interface{}{"error": err.Error()})
		msg.Ack() // Ack invalid messages to prevent infinite retry
		return
	}

	err := cs.Handle(ctx, job)
	if err == nil {
		msg.Ack()
		return
	}

	details := map[string]interface{}{
		"user_id": job.UserId.String(),
		"kind":    string(apperr.KindOf(err)),
		"error":   err.Error(),
	}
	if !apperr.IsKind(err, apperr.KindProvider) {
		cs.logger.Error("CONSUMER", "Rebuild failed", details)
		msg.Ack()
		return
	}

	// gochannel redelivers a nacked message at once, so wait before handing it back.
	cs.logger.Warn("CONSUMER", "Provider failure, job will be redelivered", details)
	select {
	case <-ctx.Done():
	case <-time.After(cs.nackDelay):
	}
	msg.Nack()
}

func (cs *consumerService) Handle(ctx context.Context, job dto.RebuildJob) error {
	since := job.Since
	res, err := cs.rebuild.RebuildTopics(ctx, job.UserId, dto.RebuildOptions{MarkRefreshedSince: &since})
	switch {
	case apperr.IsKind(err, apperr.KindInsufficientData):
		cs.logger.Info("CONSUMER", "Not enough notes to rebuild", map[string]interface{}{
			"user_id": job.UserId.String(),
			"reason":  err.Error(),
		})
	case err != nil:
		return err
	default:
		cs.logger.Info("CONSUMER", "Scheduled rebuild finished", map[string]interface{}{
			"user_id": job.UserId.String(),
			"created": res.Stats.Created,
			"updated": res.Stats.Updated,
			"cleared": res.Stats.Cleared,
		})
	}

	now := cs.now()
	cutoff := now.AddDate(0, 0, -cs.cfg.RetentionDays)
	archived, err := cs.uowFactory.NewUnitOfWork(ctx).TopicRepository().ArchiveStale(ctx, job.UserId, cutoff, now)
	if err != nil {
		return persistenceError("archive stale topics", err)
	}
	if archived > 0 {
		cs.logger.Info("CONSUMER", "Archived stale topics", map[string]interface{}{
			"user_id":  job.UserId.String(),
			"archived": archived,
		})
	}

	if err := cs.markers.MarkRun(ctx, job.UserId, now); err != nil {
		cs.logger.Warn("CONSUMER", "Failed to store run marker", map[string]interface{}{
			"user_id": job.UserId.String(),
			"error":   err.Error(),
		})
	}
	return nil
}
