package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"pcaplink/internal/audit"
	"pcaplink/internal/bot"
	"pcaplink/internal/broker"
	"pcaplink/internal/config"
	"pcaplink/internal/constants"
	"pcaplink/internal/deduplication"
	"pcaplink/internal/logger"
	"pcaplink/internal/relay"
	"pcaplink/internal/servers"
	"pcaplink/pkg/bootstrap"
	"pcaplink/pkg/cel"
	"pcaplink/pkg/health"
	"pcaplink/pkg/metrics"
	"pcaplink/pkg/middleware"
	"pcaplink/pkg/tracing"
)

type App struct {
	*bootstrap.Base

	dbConnector *bootstrap.DatabaseConnector
	store       audit.Store
	redis       *redis.Client
	dedup       *deduplication.Service
	gateway     *bot.Gateway
	bot         *bot.Bot
	server      *http.Server
}

func NewApp(cfg *config.Config, log logger.Logger) *App {
	return &App{
		Base:        bootstrap.NewBase(cfg, log),
		dbConnector: bootstrap.NewDatabaseConnector(cfg.Startup, log),
	}
}

func (a *App) Initialize(ctx context.Context) error {
	tp, err := tracing.Init(a.Config.Tracing, serviceName)
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}
	a.OnShutdown("tracer provider", tp.Shutdown)

	metrics.RegisterBotMetrics()
	metrics.RegisterAuditMetrics()
	metrics.RegisterCircuitBreakerMetrics()

	if err := a.initAudit(ctx); err != nil {
		return fmt.Errorf("failed to initialize audit store: %w", err)
	}

	if err := a.initDedup(ctx); err != nil {
		return fmt.Errorf("failed to initialize deduplication: %w", err)
	}

	if err := a.initBot(ctx); err != nil {
		return fmt.Errorf("failed to initialize bot: %w", err)
	}

	a.initServer()
	return nil
}

// initAudit opens the configured store and, with Kafka enabled, publishes
// every logged command to the audit topic as well.
func (a *App) initAudit(ctx context.Context) error {
	store, err := audit.Open(ctx, a.Config.Database, a.dbConnector, a.Logger)
	if err != nil {
		return err
	}
	a.store = store

	if broker.Enabled(a.Config.Broker) {
		metrics.RegisterBrokerMetrics()
		producer, err := broker.NewProducer(a.Config.Broker, a.Logger)
		if err != nil {
			store.Close()
			return err
		}
		producer.SetServiceName(serviceName)
		a.store = audit.NewPublishingStore(store, producer, a.Config.Broker.Kafka.AuditTopic, serviceName, a.Logger)
		a.Logger.Infow("Publishing audit events", "topic", a.Config.Broker.Kafka.AuditTopic)
	}

	a.OnShutdown("audit store", func(context.Context) error { return a.store.Close() })
	return nil
}

func (a *App) initDedup(ctx context.Context) error {
	rdb, err := a.dbConnector.InitRedis(ctx, a.Config.Redis)
	if err != nil {
		return err
	}

	var repo deduplication.Repository
	if rdb != nil {
		a.redis = rdb
		repo = deduplication.NewRedisRepository(rdb)
		a.OnShutdown("redis", func(context.Context) error { return rdb.Close() })
	} else {
		a.Logger.Infow("Redis not configured, deduplicating in memory")
	}

	a.dedup = deduplication.NewService(repo, a.Config.Bot.DedupTTL, a.Logger,
		deduplication.WithBreaker(bootstrap.NewBreaker(a.Config.CircuitBreaker, "dedup", nil, a.Logger)),
	)
	return nil
}

func (a *App) initBot(ctx context.Context) error {
	cfg := a.Config

	evaluator, err := cel.NewEvaluator()
	if err != nil {
		return err
	}
	filter, err := evaluator.CompileFilter(cfg.Bot.ReplyFilter)
	if err != nil {
		return err
	}

	gateway, err := bot.NewGateway(cfg.Discord.Token, a.Logger)
	if err != nil {
		return err
	}
	a.gateway = gateway

	lister := servers.NewHTTPLister(cfg.Servers.ListingURL,
		servers.WithHTTPClient(&http.Client{Timeout: cfg.Servers.Timeout}),
		servers.WithBreaker(bootstrap.NewBreaker(cfg.CircuitBreaker, "server_listing", nil, a.Logger)),
	)

	a.bot = bot.New(gateway.Session(), lister, servers.NewResolver(), a.store, a.dedup, bot.Config{
		WebURL: cfg.Web.URL,
		Filter: filter,
	}, a.Logger)
	gateway.Attach(ctx, a.bot)

	if err := a.Connect(ctx, "discord gateway", gateway.Open); err != nil {
		return err
	}

	a.Logger.Infow("Bot started", "web_url", cfg.Web.URL, "reply_filter", filter.String())
	return nil
}

// initServer exposes probes and metrics; the bot has no other HTTP surface.
func (a *App) initServer() {
	registry := health.NewCheckerRegistry()
	registry.Register(health.NewPingChecker("audit", a.store.Ping))
	registry.Register(health.NewRedisChecker(a.redis))

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(middleware.RecoveryMiddleware(a.Logger))
	router.Use(middleware.RequestIDMiddleware())

	router.GET("/api/health", relay.Liveness)
	router.GET("/api/version", relay.Version)
	router.GET("/health", func(c *gin.Context) {
		h := registry.Check(c.Request.Context())
		statusCode := http.StatusOK
		if h.Status == health.StatusUnhealthy {
			statusCode = http.StatusServiceUnavailable
		}
		c.JSON(statusCode, h)
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	a.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", a.Config.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: constants.ReadHeaderTimeout,
	}
}

func (a *App) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.Logger.InfowCtx(ctx, "Probe server listening", "port", a.Config.Server.Port)
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		return a.gateway.Run(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()
		return a.Shutdown(context.Background())
	})

	return g.Wait()
}

func (a *App) Shutdown(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, constants.ShutdownTimeout)
	defer cancel()

	var errs []error
	if a.server != nil {
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("server shutdown error: %w", err))
		}
	}
	if err := a.Base.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
