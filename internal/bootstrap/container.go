package bootstrap

import (
	"context"
	"log"

	"med-agent-be/internal/config"
	"med-agent-be/internal/controller"
	"med-agent-be/internal/pkg/logger"
	"med-agent-be/internal/pkg/metrics"
	"med-agent-be/internal/repository/contract"
	"med-agent-be/internal/repository/implementation"
	"med-agent-be/internal/repository/memory"
	redisRepo "med-agent-be/internal/repository/redis"
	"med-agent-be/internal/service"
	"med-agent-be/pkg/ai/agent"
	"med-agent-be/pkg/ai/dispatch"
	"med-agent-be/pkg/ai/gate"
	"med-agent-be/pkg/ai/handler"
	"med-agent-be/pkg/ai/response"
	"med-agent-be/pkg/ai/router"
	"med-agent-be/pkg/catalog"
	"med-agent-be/pkg/classifier"
	embeddingFactory "med-agent-be/pkg/embedding/factory"
	"med-agent-be/pkg/events"
	"med-agent-be/pkg/fetch"
	llmFactory "med-agent-be/pkg/llm/factory"
	pktNats "med-agent-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	ChatbotController controller.IChatbotController

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService

	// Core pipeline, exposed for the CLI tools
	Agent   *agent.Agent
	Catalog *catalog.Service
	Metrics *metrics.Metrics
	Logger  logger.ILogger

	closers []func()
}

// NewContainer wires the whole application. db may be nil, in which case the
// catalog index lives in memory regardless of configuration.
func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	c := &Container{}

	// 1. Core Facades
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.IsProduction())
	metricsLogger := logger.NewIsolatedLogger(cfg.App.MetricsLogPath)
	m := metrics.New()
	c.Logger = sysLogger
	c.Metrics = m

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{OutputChannelBuffer: 256},
		watermillLogger,
	)
	c.closers = append(c.closers, func() { _ = pubSub.Close() })

	// 3. AI providers
	llmProvider, err := llmFactory.NewLLMProvider(llmFactory.Config{
		Provider: cfg.Ai.LLMProvider,
		Model:    cfg.Ai.LLMModel,
		BaseURL:  cfg.Ai.LLMBaseURL,
		APIKey:   cfg.Ai.LLMAPIKey,
		Timeout:  cfg.Ai.LLMTimeout,
	})
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)

	embeddingProvider, err := embeddingFactory.NewEmbeddingProvider(embeddingFactory.Config{
		Provider:   cfg.Ai.EmbeddingProvider,
		Model:      cfg.Ai.EmbeddingModel,
		BaseURL:    cfg.Ai.EmbeddingBaseURL,
		APIKey:     cfg.Ai.EmbeddingAPIKey,
		Dimensions: cfg.Ai.EmbeddingDimensions,
	})
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize Embedding Provider: %v", err)
	}
	log.Printf("[INFO] Using Embedding Provider: %s (%s)", cfg.Ai.EmbeddingProvider, cfg.Ai.EmbeddingModel)

	cls := classifier.NewLLMClassifier(llmProvider, sysLogger)

	// 4. Catalog
	var catalogIndex contract.CatalogIndex
	if db != nil && cfg.Catalog.IndexBackend == "pgvector" {
		catalogIndex = implementation.NewCatalogIndex(db)
	} else {
		log.Printf("[INFO] Using in-memory catalog index")
		catalogIndex = memory.NewCatalogIndex()
	}
	catalogService := catalog.NewService(
		catalogIndex,
		embeddingProvider,
		catalog.CSVSource{Path: cfg.Catalog.DatasetPath},
		sysLogger,
		catalog.WithLambda(cfg.Catalog.Lambda),
	)
	c.Catalog = catalogService

	// 5. Outlet feeds
	fetchCfg := fetch.DefaultConfig()
	fetchCfg.Timeout = cfg.Sources.FetchTimeout
	fetchCfg.Budget = cfg.Sources.FetchBudget
	fetchCfg.Backoff = cfg.Sources.FetchBackoff
	fetchCfg.RelayA = cfg.Sources.RelayA
	fetchCfg.RelayB = cfg.Sources.RelayB
	fetcher := fetch.New(fetchCfg, sysLogger, fetch.WithObserver(m.ObserveFetch))

	feed := handler.NewFeed(fetcher, handler.FeedConfig{
		OutletsURL:    cfg.Sources.OutletsURL,
		OutletsAltURL: cfg.Sources.OutletsAltURL,
		OnDutyURL:     cfg.Sources.OnDutyURL,
		OnDutyAltURL:  cfg.Sources.OnDutyAltURL,
		CacheTTL:      cfg.Sources.CacheTTL,
	}, sysLogger)

	// 6. Sessions
	sessions := newSessionStore(cfg, sysLogger)

	// 7. Pipeline
	dispatcher := dispatch.New([]handler.Handler{
		handler.NewLocator(feed, sysLogger),
		handler.NewScheduled(feed, sysLogger),
		handler.NewCatalog(cls, catalogService, sysLogger),
		handler.NewGreeting(),
	}, sysLogger, dispatch.WithBudget(cfg.App.TurnBudget))

	var formatterOpts []response.Option
	if cfg.Ai.Synthesize {
		formatterOpts = append(formatterOpts, response.WithSynthesizer(response.NewLLMSynthesizer(llmProvider)))
	}

	c.Agent = agent.New(
		sessions,
		gate.New(cls, sysLogger),
		router.New(cls, sysLogger),
		dispatcher,
		response.New(sysLogger, formatterOpts...),
		sysLogger,
		agent.WithPublisher(events.NewChannelPublisher(pubSub, cfg.App.EventsTopic)),
	)

	// 8. Infrastructure
	var forwarder events.Publisher
	if cfg.App.NatsURL != "" {
		natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL, sysLogger)
		if err != nil {
			log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
		} else {
			forwarder = natsPub
			c.closers = append(c.closers, natsPub.Close)
		}
	}

	c.ConsumerService = service.NewTurnConsumerService(
		pubSub,
		cfg.App.EventsTopic,
		metricsLogger,
		m,
		forwarder,
		sysLogger,
	)

	// 9. Controllers
	chatbotService := service.NewChatbotService(c.Agent, sessions)
	c.ChatbotController = controller.NewChatbotController(chatbotService)

	return c
}

// Close releases background connections in reverse order of creation.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	_ = c.Logger.Sync()
}

func newSessionStore(cfg *config.Config, sysLogger logger.ILogger) contract.SessionStore {
	if cfg.Session.Backend != "redis" {
		return memory.NewSessionRepository(cfg.Session.TTL)
	}

	opt, err := redis.ParseURL(cfg.App.RedisURL)
	if err != nil {
		log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
		opt = &redis.Options{
			Addr: cfg.App.RedisURL,
		}
	}
	rdb := redis.NewClient(opt)
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		sysLogger.Warn("BOOTSTRAP", "Redis unreachable, falling back to in-memory sessions", map[string]interface{}{
			"error": err.Error(),
		})
		_ = rdb.Close()
		return memory.NewSessionRepository(cfg.Session.TTL)
	}

	return redisRepo.NewSessionStore(rdb,
		redisRepo.WithTTL(cfg.Session.TTL),
		redisRepo.WithPrefix(cfg.Session.Prefix),
	)
}
