package bootstrap

import (
	"context"
	"fmt"
	"time"

	"kt-assistant-be/internal/config"
	"kt-assistant-be/internal/constant"
	"kt-assistant-be/internal/controller"
	"kt-assistant-be/internal/pkg/logger"
	"kt-assistant-be/internal/repository/cache"
	"kt-assistant-be/internal/repository/contract"
	"kt-assistant-be/internal/repository/implementation"
	"kt-assistant-be/internal/repository/memory"
	"kt-assistant-be/internal/repository/unitofwork"
	"kt-assistant-be/internal/service"
	"kt-assistant-be/internal/websocket"
	"kt-assistant-be/pkg/completion"
	"kt-assistant-be/pkg/database"
	"kt-assistant-be/pkg/embedding"
	"kt-assistant-be/pkg/ingest"
	"kt-assistant-be/pkg/interview"
	"kt-assistant-be/pkg/llm/factory"
	"kt-assistant-be/pkg/vectorstore/qdrant"

	pktNats "kt-assistant-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const containerModule = "Bootstrap"

type Container struct {
	// Controllers
	InterviewController controller.IInterviewController
	AdminController     controller.IAdminController

	// Background services, run by cmd/rest
	ConsumerService    service.IConsumerService // nil unless INDEXING_MODE=async
	MaintenanceService service.IMaintenanceService

	InterviewService service.IInterviewService
	WebSocketHub     *websocket.Hub
	Logger           logger.ILogger

	closers []func()
}

// Close releases broker and cache connections.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
}

func NewContainer(ctx context.Context, db *gorm.DB, cfg *config.Config) (*Container, error) {
	c := &Container{}

	// 1. Core facades
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production", cfg.App.LogLevel)
	c.Logger = sysLogger
	c.closers = append(c.closers, func() { _ = sysLogger.Sync() })
	uowFactory := unitofwork.NewRepositoryFactory(db)

	topics, err := config.LoadTopics(cfg.Interview.TopicsFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load topics: %w", err)
	}

	// 2. Model providers
	llmBaseURL := cfg.Ai.LLMBaseURL
	if cfg.Ai.LLMProvider == "ollama" {
		llmBaseURL = cfg.Ai.OllamaBaseURL
	}
	llmProvider, err := factory.NewLLMProvider(cfg.Ai.LLMProvider, cfg.Ai.PrimaryModel, llmBaseURL, cfg.Keys.LLM)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize LLM provider: %w", err)
	}

	embeddingBaseURL := cfg.Ai.EmbeddingBaseURL
	if cfg.Ai.EmbeddingProvider == "ollama" {
		embeddingBaseURL = cfg.Ai.OllamaBaseURL
	}
	embeddingProvider, err := embedding.NewEmbeddingProvider(
		cfg.Ai.EmbeddingProvider,
		embeddingBaseURL,
		cfg.Keys.Embedding,
		cfg.Ai.EmbeddingModel,
		cfg.Ai.EmbeddingDimension,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize embedding provider: %w", err)
	}
	sysLogger.Info(containerModule, "Model providers ready", map[string]interface{}{
		"llm_provider":       cfg.Ai.LLMProvider,
		"primary_model":      cfg.Ai.PrimaryModel,
		"secondary_model":    cfg.Ai.SecondaryModel,
		"embedding_provider": cfg.Ai.EmbeddingProvider,
	})

	client := completion.NewClient(llmProvider, embeddingProvider, sysLogger, cfg.Ai.PrimaryModel, cfg.Ai.EmbeddingDimension)

	// 3. Vector store
	vectorRepo, err := newVectorRepository(db, cfg, sysLogger)
	if err != nil {
		return nil, err
	}
	vectors := service.NewVectorGateway(vectorRepo, cfg.Ai.EmbeddingDimension, sysLogger)

	// 4. Topic indexing, inline or through the watermill bus
	syncIndexer := service.NewTopicIndexer(client, vectors, sysLogger)
	var indexer interview.TopicIndexer = syncIndexer
	if cfg.Interview.IndexingMode == "async" {
		pubSub := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 64}, watermill.NewStdLogger(false, false))
		c.closers = append(c.closers, func() { _ = pubSub.Close() })

		publisherService := service.NewPublisherService(cfg.Interview.IndexTopicName, pubSub)
		indexer = service.NewAsyncTopicIndexer(publisherService, sysLogger)
		c.ConsumerService = service.NewConsumerService(pubSub, cfg.Interview.IndexTopicName, syncIndexer, sysLogger)
	}

	orchestrator := interview.NewOrchestrator(client, indexer, sysLogger, interview.Config{
		PrimaryModel:        cfg.Ai.PrimaryModel,
		SecondaryModel:      cfg.Ai.SecondaryModel,
		ConfidenceThreshold: cfg.Interview.ConfidenceThreshold,
	})

	// 5. Redis backs the summary cache and the websocket fanout
	var rdb *redis.Client
	if cfg.App.RedisURL != "" {
		rdb = connectRedis(ctx, cfg.App.RedisURL, sysLogger)
	}
	var summaries cache.SummaryCache
	summaryTTL := constant.SummaryCacheTTLHours * time.Hour
	if rdb != nil {
		summaries = cache.NewRedisSummaryCache(rdb, summaryTTL)
		c.closers = append(c.closers, func() { _ = rdb.Close() })
	} else {
		summaries = cache.NewMemorySummaryCache(summaryTTL)
	}

	// 6. NATS lifecycle events
	var eventPublisher service.EventPublisher
	if cfg.App.NatsURL != "" {
		natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL, sysLogger)
		if err != nil {
			sysLogger.Warn(containerModule, "NATS unavailable, lifecycle events disabled", map[string]interface{}{"error": err.Error()})
		} else {
			eventPublisher = natsPub
			c.closers = append(c.closers, natsPub.Close)
		}
	}

	// 7. WebSocket hub
	c.WebSocketHub = websocket.NewHub(rdb, sysLogger)
	go c.WebSocketHub.Run(ctx)

	// 8. Services
	store := service.NewSessionStore(uowFactory, sysLogger)
	contexts := memory.NewInterviewContextRepository(cfg.Interview.SessionTTL)

	c.InterviewService = service.NewInterviewService(service.InterviewServiceDeps{
		Store:        store,
		Vectors:      vectors,
		Orchestrator: orchestrator,
		Embedder:     client,
		Extractor:    ingest.NewExtractor(sysLogger),
		Contexts:     contexts,
		Summaries:    summaries,
		Events:       eventPublisher,
		Topics:       topics,
		Config:       cfg.Interview,
		Logger:       sysLogger,
	})
	c.MaintenanceService = service.NewMaintenanceService(store, vectors, contexts, summaries, eventPublisher, cfg.Interview.SessionTTL, sysLogger)

	// 9. Controllers
	c.InterviewController = controller.NewInterviewController(c.InterviewService, c.WebSocketHub, sysLogger)
	c.AdminController = controller.NewAdminController(c.MaintenanceService, cfg.Keys.JWTSecret)

	return c, nil
}

// newVectorRepository returns nil when vector features are disabled.
func newVectorRepository(db *gorm.DB, cfg *config.Config, log logger.ILogger) (contract.TopicVectorRepository, error) {
	if !cfg.Vector.Enabled() {
		log.Warn(containerModule, "VECTOR_URL not set, knowledge base disabled", nil)
		return nil, nil
	}

	switch cfg.Vector.Backend {
	case "memory":
		return memory.NewTopicVectorRepository(), nil
	case "qdrant":
		client := qdrant.NewClient(qdrant.Config{
			URL:        cfg.Vector.URL,
			APIKey:     cfg.Vector.APIKey,
			Collection: cfg.Vector.Collection,
		})
		return implementation.NewQdrantTopicVectorRepository(client), nil
	case "pgvector":
		vectorDB := db
		if cfg.Vector.URL != cfg.Database.Connection {
			var err error
			vectorDB, err = database.NewGormDBFromDSN(cfg.Vector.URL, cfg.App.LogLevel)
			if err != nil {
				return nil, fmt.Errorf("failed to connect to pgvector: %w", err)
			}
		}
		return implementation.NewPgvectorTopicVectorRepository(vectorDB, cfg.Vector.Collection)
	default:
		return nil, fmt.Errorf("unsupported vector backend: %s", cfg.Vector.Backend)
	}
}

func connectRedis(ctx context.Context, url string, log logger.ILogger) *redis.Client {
	opt, err := redis.ParseURL(url)
	if err != nil {
		log.Warn(containerModule, "Failed to parse Redis URL, using direct Addr", map[string]interface{}{"error": err.Error()})
		opt = &redis.Options{Addr: url}
	}
	rdb := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		log.Warn(containerModule, "Redis unavailable, using in-process cache", map[string]interface{}{"error": err.Error()})
		_ = rdb.Close()
		return nil
	}
	return rdb
}
