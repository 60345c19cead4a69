package bootstrap

import (
	"context"
	"fmt"
	"time"

	"newsbox-topics/internal/config"
	"newsbox-topics/internal/controller"
	"newsbox-topics/internal/pkg/logger"
	"newsbox-topics/internal/repository/cache"
	"newsbox-topics/internal/repository/contract"
	"newsbox-topics/internal/repository/memory"
	"newsbox-topics/internal/repository/unitofwork"
	"newsbox-topics/internal/service"
	"newsbox-topics/pkg/embedding"
	embeddingFactory "newsbox-topics/pkg/embedding/factory"
	"newsbox-topics/pkg/events"
	llmFactory "newsbox-topics/pkg/llm/factory"
	pktNats "newsbox-topics/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const namingCacheTTL = time.Hour

type Container struct {
	// Controllers
	TopicController controller.ITopicController

	// Services
	RebuildService   service.ITopicRebuildService
	TopicService     service.ITopicService
	SchedulerService service.ITopicSchedulerService
	ConsumerService  service.IConsumerService

	Logger logger.ILogger

	closers []func()
}

// NewContainer wires every component from cfg. Redis and NATS are optional: without them run markers live in
// memory and rebuild events are not published.
func NewContainer(db *gorm.DB, cfg *config.Config) (*Container, error) {
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")
	schedulerLogger := logger.NewIsolatedLogger(cfg.App.SchedulerLogPath)
	c := &Container{Logger: sysLogger}

	// Event Bus
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermill.NewStdLogger(false, false),
	)
	c.closers = append(c.closers, func() { _ = pubSub.Close() })

	// Providers
	embeddingProvider, err := embeddingFactory.NewEmbeddingProvider(embedding.ProviderConfig{
		Provider:   cfg.Embedding.Provider,
		Model:      cfg.Embedding.Model,
		BaseURL:    cfg.Embedding.BaseURL,
		APIKey:     cfg.Embedding.APIKey,
		Dimensions: cfg.Embedding.Dimensions,
		BatchSize:  cfg.Embedding.BatchSize,
	})
	if err != nil {
		return nil, err
	}
	sysLogger.Info("BOOTSTRAP", "Embedding provider ready", map[string]interface{}{"model": embeddingProvider.ModelID()})

	llmProvider, err := llmFactory.NewLLMProvider(cfg.Naming.Provider, cfg.Naming.Model, cfg.Naming.BaseURL, cfg.Naming.APIKey)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize LLM provider: %w", err)
	}
	sysLogger.Info("BOOTSTRAP", "Naming provider ready", map[string]interface{}{"model": llmProvider.ModelID()})

	// NATS
	var eventPublisher events.Publisher
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		sysLogger.Warn("BOOTSTRAP", "NATS unavailable, rebuild events disabled", map[string]interface{}{"error": err.Error()})
	} else {
		eventPublisher = natsPub
		c.closers = append(c.closers, natsPub.Close)
	}

	// Redis
	var markers contract.RunMarkerRepository
	opt, err := redis.ParseURL(cfg.App.RedisURL)
	if err != nil {
		opt = &redis.Options{Addr: cfg.App.RedisURL}
	}
	rdb := redis.NewClient(opt)
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		sysLogger.Warn("BOOTSTRAP", "Redis unavailable, run markers kept in memory", map[string]interface{}{"error": err.Error()})
		_ = rdb.Close()
		markers = memory.NewRunMarkerRepository()
	} else {
		markers = cache.NewRedisRunMarkerRepository(rdb)
		c.closers = append(c.closers, func() { _ = rdb.Close() })
	}

	// Services
	loc := cfg.App.Location()
	embeddingCache := service.NewEmbeddingCacheService(uowFactory, embeddingProvider, cfg.Embedding.BatchSize, cfg.Embedding.MaxChars, sysLogger)
	namingService := service.NewTopicNamingService(llmProvider, namingCacheTTL)
	c.RebuildService = service.NewTopicRebuildService(uowFactory, embeddingCache, namingService, eventPublisher, cfg.Topic, loc, sysLogger)
	c.TopicService = service.NewTopicService(uowFactory, loc)

	publisherService := service.NewPublisherService(service.RebuildTopicName, pubSub)
	c.SchedulerService = service.NewTopicSchedulerService(uowFactory, markers, publisherService, cfg.Scheduler, schedulerLogger)
	c.ConsumerService = service.NewConsumerService(pubSub, service.RebuildTopicName, c.RebuildService, uowFactory, markers, cfg.Topic, schedulerLogger)

	// Controllers
	c.TopicController = controller.NewTopicController(c.RebuildService, c.TopicService)

	return c, nil
}

func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	_ = c.Logger.Sync()
}
