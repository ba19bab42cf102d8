package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker"
	"go.mongodb.org/mongo-driver/mongo"

	_ "github.com/lib/pq" // PostgreSQL driver

	"compliance/internal/broker"
	"compliance/internal/check"
	"compliance/internal/config"
	"compliance/internal/config_handler"
	"compliance/internal/constants"
	"compliance/internal/ingest"
	"compliance/internal/logger"
	"compliance/internal/management"
	"compliance/internal/report"
	"compliance/internal/reviewer"
	"compliance/internal/rulestore"
	"compliance/internal/validation"
	"compliance/pkg/bootstrap"
	"compliance/pkg/cel"
	"compliance/pkg/circuitbreaker"
	"compliance/pkg/health"
	"compliance/pkg/metrics"
	"compliance/pkg/middleware"
	"compliance/pkg/ratelimit"
	"compliance/pkg/tracing"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

type App struct {
	*bootstrap.Base
	dbConnector     *bootstrap.DatabaseConnector
	db              *sql.DB
	redis           *redis.Client
	mongoClient     *mongo.Client
	natsConn        *nats.Conn
	store           *rulestore.Store
	fileSlot        *rulestore.FileSlot
	lifecycle       *check.Lifecycle
	reviewerBreaker *circuitbreaker.Wrapper
	server          *http.Server
	router          *gin.Engine
	tracerProvider  *tracing.TracerProvider
	background      sync.WaitGroup
}

func NewApp(cfg *config.Config, log logger.Logger) *App {
	return &App{
		Base:        bootstrap.NewBase(cfg, log),
		dbConnector: bootstrap.NewDatabaseConnector(cfg, log),
	}
}

// Initialize connects storage and the broker and builds the rule store and
// check lifecycle. It does not start the HTTP server; cmd check uses it too.
func (a *App) Initialize(ctx context.Context) error {
	tp, err := tracing.Init(a.Config.Tracing, constants.ServiceName)
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}
	a.tracerProvider = tp

	metrics.Register()

	if err := a.initDatabases(ctx); err != nil {
		return fmt.Errorf("failed to initialize databases: %w", err)
	}

	if err := a.initStore(ctx); err != nil {
		return fmt.Errorf("failed to initialize rule store: %w", err)
	}

	if err := a.InitBroker(constants.ServiceName); err != nil {
		return fmt.Errorf("failed to initialize broker: %w", err)
	}

	if err := a.initLifecycle(); err != nil {
		return fmt.Errorf("failed to initialize check lifecycle: %w", err)
	}
	return nil
}

func (a *App) initDatabases(ctx context.Context) error {
	var err error
	if a.redis, err = a.dbConnector.InitRedis(ctx); err != nil {
		return err
	}
	if a.db, err = a.dbConnector.InitPostgreSQL(ctx); err != nil {
		return err
	}
	if a.mongoClient, err = a.dbConnector.InitMongoDB(ctx); err != nil {
		return err
	}
	return nil
}

func (a *App) initStore(ctx context.Context) error {
	slot, err := a.newSlot()
	if err != nil {
		return err
	}

	a.store = rulestore.NewStore(slot,
		rulestore.WithKey(a.Config.Storage.Key),
		rulestore.WithLogger(a.Logger),
	)
	if err := a.store.Load(ctx); err != nil {
		return err
	}
	metrics.SetActiveRules(len(a.store.List(ctx)))

	a.Logger.InfowCtx(ctx, "Rule store loaded",
		"backend", a.Config.Storage.Backend,
		"key", a.store.Key(),
		"rules", len(a.store.List(ctx)),
	)
	return nil
}

// newSlot picks the persistence slot for the configured backend. Remote
// backends are wrapped with retries.
func (a *App) newSlot() (rulestore.Slot, error) {
	backend := a.Config.Storage.Backend
	policy := a.Config.Storage.Retry.Policy()

	switch backend {
	case "", constants.StorageBackendMemory:
		return rulestore.NewMemorySlot(), nil
	case constants.StorageBackendFile:
		a.fileSlot = rulestore.NewFileSlot(a.Config.Storage.File.Dir)
		return a.fileSlot, nil
	case constants.StorageBackendRedis:
		if a.redis == nil {
			return nil, fmt.Errorf("storage backend %q requires database.redis", backend)
		}
		return rulestore.NewResilientSlot(backend, rulestore.NewRedisSlot(a.redis), policy, a.Logger), nil
	case constants.StorageBackendMongoDB:
		if a.mongoClient == nil {
			return nil, fmt.Errorf("storage backend %q requires database.mongodb", backend)
		}
		mongoSlot := rulestore.NewMongoSlot(a.dbConnector.MongoDatabase(a.mongoClient))
		return rulestore.NewResilientSlot(backend, mongoSlot, policy, a.Logger), nil
	case constants.StorageBackendPostgres:
		if a.db == nil {
			return nil, fmt.Errorf("storage backend %q requires database.postgres", backend)
		}
		return rulestore.NewResilientSlot(backend, rulestore.NewPostgresSlot(a.db), policy, a.Logger), nil
	default:
		return nil, fmt.Errorf("unknown storage backend: %s", backend)
	}
}

func (a *App) historyRepository() management.HistoryRepository {
	if a.db != nil {
		return management.NewPostgresHistoryRepository(a.db)
	}
	return management.NewMemoryHistoryRepository()
}

func (a *App) initLifecycle() error {
	eval, err := cel.NewEvaluator()
	if err != nil {
		return err
	}

	_, checkTopic := broker.Topics(a.Config.Broker)

	var runIDs check.RunIDSource = check.NewCounterSource()
	if a.redis != nil {
		runIDs = check.NewRedisRunIDSource(a.redis, constants.RunIDCounterKey)
	}

	var sink report.Sink = report.DiscardSink{}
	if a.Config.Report.Dir != "" {
		sink = report.NewDirSink(a.Config.Report.Dir)
	}

	a.lifecycle = check.NewLifecycle(a.store,
		check.WithIngestor(ingest.NewStructuredIngestor(
			ingest.WithConcurrency(a.Config.Check.Concurrency),
			ingest.WithLogger(a.Logger),
		)),
		check.WithValidator(validation.NewEngine(
			validation.WithEvaluator(eval),
			validation.WithLogger(a.Logger),
		)),
		check.WithNarrative(a.newNarrative()),
		check.WithSink(sink),
		check.WithRunIDSource(runIDs),
		check.WithProfile(a.Config.Check.ProfileOrDefault()),
		check.WithEventPublisher(check.NewEventPublisher(a.Producer, checkTopic)),
		check.WithLogger(a.Logger),
	)
	return nil
}

// newNarrative builds the external reviewer chain. A disabled reviewer
// yields a narrative that reports analysis as unavailable.
func (a *App) newNarrative() *reviewer.Narrative {
	cfg := a.Config.Reviewer
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = constants.DefaultReviewerTimeout
	}
	opts := []reviewer.NarrativeOption{
		reviewer.WithTimeout(timeout),
		reviewer.WithNarrativeLogger(a.Logger),
	}

	if !cfg.Enabled {
		return reviewer.NewNarrative(nil, opts...)
	}

	var next reviewer.Reviewer
	switch cfg.Provider {
	case constants.ReviewerProviderStatic:
		next = reviewer.NewStaticReviewer(cfg.StaticText)
	default:
		apiKey := cfg.APIKey
		if apiKey == "" && cfg.APIKeyEnv != "" {
			apiKey = os.Getenv(cfg.APIKeyEnv)
		}
		next = reviewer.NewOpenAIReviewer(reviewer.OpenAIConfig{
			BaseURL:      cfg.BaseURL,
			APIKey:       apiKey,
			Model:        cfg.Model,
			SystemPrompt: cfg.SystemPrompt,
		})
	}

	if a.Config.CircuitBreaker.Enabled {
		a.reviewerBreaker = circuitbreaker.NewWrapper(breakerConfig(a.Config.CircuitBreaker))
		next = reviewer.NewBreakerReviewer(next, a.reviewerBreaker, cfg.Retry.Policy(), a.Logger)
	}

	a.Logger.InfowCtx(context.Background(), "External reviewer enabled", "provider", cfg.Provider, "model", cfg.Model)
	return reviewer.NewNarrative(next, opts...)
}

func breakerConfig(cfg config.CircuitBreakerConfig) circuitbreaker.Config {
	cb := circuitbreaker.DefaultConfig("reviewer")
	if cfg.MaxRequests > 0 {
		cb.MaxRequests = cfg.MaxRequests
	}
	if cfg.Interval > 0 {
		cb.Interval = cfg.Interval
	}
	if cfg.Timeout > 0 {
		cb.Timeout = cfg.Timeout
	}
	if cfg.ConsecutiveFailures > 0 {
		cb.ReadyToTrip = circuitbreaker.ConsecutiveFailures(cfg.ConsecutiveFailures)
		return cb
	}
	if cfg.FailureRatio > 0 {
		ratio, minRequests := cfg.FailureRatio, cfg.MinRequests
		if minRequests == 0 {
			minRequests = 3
		}
		cb.ReadyToTrip = func(counts gobreaker.Counts) bool {
			if counts.Requests < minRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= ratio
		}
	}
	return cb
}

// startBackground runs the rule event consumer and the file watcher. Both
// reload the store from its slot.
func (a *App) startBackground(ctx context.Context) {
	ruleTopic, _ := broker.Topics(a.Config.Broker)

	a.StartConsumer(ctx, ruleTopic, config_handler.NewRuleEventHandler(a.store, a.Logger).HandleConfigUpdateEvent)

	if a.fileSlot != nil && a.Config.Storage.File.Watch {
		a.background.Add(1)
		go func() {
			defer a.background.Done()
			err := a.fileSlot.Watch(ctx, a.store.Key(), a.Config.Storage.File.Debounce, a.Logger, func(ctx context.Context) {
				changed, err := a.store.Reload(ctx)
				metrics.IncRuleReload("file", err)
				if err != nil {
					a.Logger.WarnwCtx(ctx, "Failed to reload rules after file change", "error", err)
					return
				}
				if changed {
					metrics.SetActiveRules(len(a.store.List(ctx)))
					a.Logger.InfowCtx(ctx, "Rules reloaded from file", "path", a.fileSlot.Path(a.store.Key()))
				}
			})
			if err != nil {
				a.Logger.ErrorwCtx(ctx, "Rule file watcher stopped", "error", err)
			}
		}()
	}
}

func (a *App) initRouter() {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	if a.Config.Tracing.Enabled {
		router.Use(tracing.GinMiddleware(constants.ServiceName))
	}

	router.Use(middleware.RecoveryMiddleware(a.Logger))
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggerMiddleware(a.Logger))

	if a.Config.Management.RateLimit.Enabled {
		settings := ratelimit.FromConfig(a.Config.Management.RateLimit)
		settings.KeyHeader = management.ActorHeader
		router.Use(ratelimit.RateLimitMiddleware(settings))
		a.Logger.InfowCtx(context.Background(), "Rate limiting enabled", "rps", settings.RPS, "burst", settings.Burst)
	}

	ruleTopic, _ := broker.Topics(a.Config.Broker)
	svc := management.NewService(a.store,
		management.WithHistory(a.historyRepository()),
		management.WithConfigEvents(management.NewConfigEventProducer(a.Producer, ruleTopic)),
		management.WithLogger(a.Logger),
	)

	management.NewHandler(svc, a.Logger).RegisterRoutes(router)
	check.NewHandler(a.lifecycle, a.Logger).RegisterRoutes(router)

	router.GET("/health", a.healthRegistry().Handler())
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	a.router = router
}

func (a *App) healthRegistry() *health.CheckerRegistry {
	registry := health.NewCheckerRegistry()

	registry.Register(health.NewFuncChecker("rule_store", a.store.Check))
	if a.db != nil {
		registry.Register(health.NewPostgreSQLChecker(a.db))
	}
	if a.redis != nil {
		registry.Register(health.NewRedisChecker(a.redis))
	}
	if a.mongoClient != nil {
		registry.Register(health.NewMongoDBChecker(a.mongoClient))
	}
	if a.reviewerBreaker != nil {
		registry.RegisterOptional(health.NewFuncChecker("reviewer", func(ctx context.Context) error {
			if a.reviewerBreaker.IsOpen() {
				return errors.New("circuit breaker open")
			}
			return nil
		}))
	}
	if a.Config.Broker.Type == constants.BrokerNATS {
		if conn, err := broker.ConnectNATS(a.Config.Broker.NATS, a.Logger); err == nil {
			a.natsConn = conn
			registry.RegisterOptional(health.NewNATSChecker(conn))
		} else {
			a.Logger.WarnwCtx(context.Background(), "NATS health probe disabled", "error", err)
		}
	}
	return registry
}

func (a *App) initServer() {
	a.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", a.Config.Server.Port),
		Handler:      a.router,
		ReadTimeout:  a.Config.Server.ReadTimeoutSeconds,
		WriteTimeout: a.Config.Server.WriteTimeoutSeconds,
	}
}

// Serve starts background workers and the HTTP server and blocks until ctx
// is cancelled or the server fails.
func (a *App) Serve(ctx context.Context) error {
	a.initRouter()
	a.initServer()
	a.startBackground(ctx)

	errChan := make(chan error, 1)
	go func() {
		a.Logger.InfowCtx(ctx, "Server listening", "port", a.Config.Server.Port)
		if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		return a.Shutdown(ctx)
	case err := <-errChan:
		return err
	}
}

func (a *App) Shutdown(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
	defer cancel()

	return a.Base.Shutdown(ctx, func(ctx context.Context) []error {
		var errs []error

		if a.server != nil {
			if err := a.server.Shutdown(shutdownCtx); err != nil {
				errs = append(errs, fmt.Errorf("server shutdown error: %w", err))
			}
		}

		if a.lifecycle != nil {
			a.lifecycle.Reset()
		}
		a.background.Wait()

		if a.natsConn != nil {
			a.natsConn.Close()
		}

		if a.tracerProvider != nil {
			if err := a.tracerProvider.Shutdown(shutdownCtx); err != nil {
				errs = append(errs, fmt.Errorf("tracer provider shutdown error: %w", err))
			}
		}

		errs = append(errs, a.dbConnector.ShutdownDatabases(shutdownCtx, a.redis, a.db, a.mongoClient)...)
		return errs
	})
}
