package bootstrap

import (
	"github.com/sony/gobreaker"

	"pcaplink/internal/config"
	"pcaplink/internal/logger"
	"pcaplink/pkg/circuitbreaker"
)

// NewBreaker builds a breaker for an outbound dependency. It returns nil when
// circuit breaking is disabled, which circuitbreaker.Do treats as a pass-through.
func NewBreaker(cfg config.CircuitBreakerConfig, name string, isSuccessful func(error) bool, log logger.Logger) *circuitbreaker.Wrapper {
	if !cfg.Enabled {
		return nil
	}

	cbCfg := circuitbreaker.DefaultConfig(name)
	if cfg.MaxRequests > 0 {
		cbCfg.MaxRequests = cfg.MaxRequests
	}
	if cfg.Interval > 0 {
		cbCfg.Interval = cfg.Interval
	}
	if cfg.Timeout > 0 {
		cbCfg.Timeout = cfg.Timeout
	}
	if cfg.FailureRatio > 0 {
		cbCfg.ReadyToTrip = circuitbreaker.RatioTrip(cfg.MinRequests, cfg.FailureRatio)
	}
	cbCfg.IsSuccessful = isSuccessful
	cbCfg.OnStateChange = func(name string, from, to gobreaker.State) {
		log.Warnw("Circuit breaker state changed",
			"breaker", name,
			"from", from.String(),
			"to", to.String(),
		)
	}

	return circuitbreaker.NewWrapper(cbCfg)
}
