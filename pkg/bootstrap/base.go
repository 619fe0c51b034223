package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"time"

	"pcaplink/internal/config"
	"pcaplink/internal/logger"
	"pcaplink/pkg/retry"
)

// Base carries what every service needs while it is wiring itself up.
type Base struct {
	Config *config.Config
	Logger logger.Logger

	closers []namedCloser
}

type namedCloser struct {
	name  string
	close func(ctx context.Context) error
}

func NewBase(cfg *config.Config, log logger.Logger) *Base {
	return &Base{
		Config: cfg,
		Logger: log,
	}
}

// StartupPolicy is the retry policy for connecting to dependencies at boot.
func StartupPolicy(cfg config.StartupConfig) retry.Policy {
	return retry.Policy{
		InitialInterval: cfg.InitialInterval,
		MaxInterval:     cfg.MaxInterval,
		Multiplier:      2.0,
		MaxElapsedTime:  cfg.MaxElapsedTime,
	}
}

// Connect retries fn with the startup policy, logging every failed attempt.
func (b *Base) Connect(ctx context.Context, dependency string, fn func(ctx context.Context) error) error {
	return connectWithRetry(ctx, StartupPolicy(b.Config.Startup), b.Logger, dependency, fn)
}

func connectWithRetry(ctx context.Context, policy retry.Policy, log logger.Logger, dependency string, fn func(ctx context.Context) error) error {
	err := retry.RetryWithCallback(ctx, policy, func() error {
		return fn(ctx)
	}, func(attempt int, err error, nextDelay time.Duration) {
		log.Warnw("Dependency not ready, retrying",
			"dependency", dependency,
			"attempt", attempt,
			"next_delay", nextDelay,
			"error", err,
		)
	})
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", dependency, err)
	}
	return nil
}

// OnShutdown registers a cleanup step. Steps run in reverse order.
func (b *Base) OnShutdown(name string, fn func(ctx context.Context) error) {
	b.closers = append(b.closers, namedCloser{name: name, close: fn})
}

func (b *Base) Shutdown(ctx context.Context) error {
	b.Logger.Infow("Shutting down application")

	var errs []error
	for i := len(b.closers) - 1; i >= 0; i-- {
		c := b.closers[i]
		if err := c.close(ctx); err != nil {
			errs = append(errs, fmt.Errorf("%s close error: %w", c.name, err))
		}
	}
	b.closers = nil

	if len(errs) > 0 {
		return fmt.Errorf("shutdown errors: %w", errors.Join(errs...))
	}

	b.Logger.Infow("Application exited successfully")
	return nil
}
