package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"pcaplink/internal/audit"
	"pcaplink/internal/broker"
	"pcaplink/internal/config"
	"pcaplink/internal/constants"
	"pcaplink/internal/discord"
	"pcaplink/internal/download"
	"pcaplink/internal/logger"
	"pcaplink/internal/relay"
	"pcaplink/pkg/bootstrap"
	"pcaplink/pkg/health"
	"pcaplink/pkg/metrics"
	"pcaplink/pkg/ratelimit"
	"pcaplink/pkg/tracing"
)

type App struct {
	*bootstrap.Base

	dbConnector *bootstrap.DatabaseConnector
	store       audit.Store
	ingestor    *audit.Ingestor
	limiter     *ratelimit.IPLimiter
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

	metrics.RegisterRelayMetrics()
	metrics.RegisterAuditMetrics()
	metrics.RegisterCircuitBreakerMetrics()

	if err := a.initAudit(ctx); err != nil {
		return fmt.Errorf("failed to initialize audit store: %w", err)
	}

	if err := a.initIngest(); err != nil {
		return fmt.Errorf("failed to initialize audit ingest: %w", err)
	}

	a.initServer()
	return nil
}

func (a *App) initAudit(ctx context.Context) error {
	store, err := audit.Open(ctx, a.Config.Database, a.dbConnector, a.Logger)
	if err != nil {
		return err
	}
	a.store = store
	a.OnShutdown("audit store", func(context.Context) error { return store.Close() })
	return nil
}

func (a *App) initIngest() error {
	if !broker.Enabled(a.Config.Broker) || !a.Config.Broker.Kafka.Ingest {
		return nil
	}
	metrics.RegisterBrokerMetrics()

	consumer, err := broker.NewConsumer(a.Config.Broker, a.Logger)
	if err != nil {
		return err
	}
	consumer.SetServiceName(serviceName)

	a.ingestor = audit.NewIngestor(consumer, a.store, a.Config.Broker.Kafka.AuditTopic, a.Logger)
	a.OnShutdown("audit ingest", func(context.Context) error { return a.ingestor.Close() })
	return nil
}

func (a *App) initServer() {
	cfg := a.Config

	transport := http.DefaultTransport
	if cfg.Tracing.Enabled {
		transport = tracing.HTTPTransport(transport)
	}

	client := discord.NewClient(cfg.Discord.APIBase, cfg.Discord.Token,
		discord.WithHTTPClient(&http.Client{Timeout: cfg.Discord.RequestTimeout, Transport: transport}),
		discord.WithBreaker(bootstrap.NewBreaker(cfg.CircuitBreaker, "discord", discord.BreakerIsSuccessful, a.Logger)),
		discord.WithLogger(a.Logger),
	)
	downloader := download.NewDownloader(
		download.WithHTTPClient(&http.Client{Timeout: cfg.Download.Timeout, Transport: transport}),
		download.WithLogger(a.Logger),
	)

	registry := health.NewCheckerRegistry()
	registry.Register(health.NewPingChecker("audit", a.store.Ping))

	if cfg.RateLimit.Enabled {
		a.limiter = ratelimit.NewIPLimiter(cfg.RateLimit)
		a.Logger.Infow("Rate limiting enabled", "rps", cfg.RateLimit.RPS, "burst", cfg.RateLimit.Burst)
	}

	gin.SetMode(gin.ReleaseMode)
	handler := relay.NewRouter(relay.RouterDeps{
		Config:      cfg,
		Logger:      a.Logger,
		Attachments: relay.NewHandler(relay.NewService(client, downloader, a.Logger), a.Logger),
		Stats:       audit.NewHandler(a.store, a.Logger),
		Health:      registry,
		Limiter:     a.limiter,
		ServiceName: serviceName,
	})

	a.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           handler,
		ReadHeaderTimeout: constants.ReadHeaderTimeout,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
	}
}

func (a *App) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.Logger.InfowCtx(ctx, "Server listening", "port", a.Config.Server.Port, "web_url", a.Config.Web.URL)
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	if a.ingestor != nil {
		g.Go(func() error {
			if err := a.ingestor.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("audit ingest error: %w", err)
			}
			return nil
		})
	}

	if a.limiter != nil {
		g.Go(func() error {
			a.limiter.RunCleanup(gctx)
			return nil
		})
	}

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
