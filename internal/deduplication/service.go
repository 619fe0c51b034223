package deduplication

import (
	"context"
	"time"

	"pcaplink/internal/constants"
	"pcaplink/internal/logger"
	"pcaplink/pkg/circuitbreaker"
	"pcaplink/pkg/metrics"
)

// Service tells whether a gateway event has already been handled, so a
// message redelivered after a reconnect, or seen by two bot replicas, gets
// a single reply.
type Service struct {
	repo     Repository
	fallback Repository
	breaker  *circuitbreaker.Wrapper
	ttl      time.Duration
	logger   logger.Logger
}

type Option func(*Service)

// WithBreaker guards the primary repository.
func WithBreaker(w *circuitbreaker.Wrapper) Option {
	return func(s *Service) { s.breaker = w }
}

// NewService uses repo as the shared store. A nil repo keeps state in memory only.
func NewService(repo Repository, ttl time.Duration, log logger.Logger, opts ...Option) *Service {
	if ttl <= 0 {
		ttl = constants.DefaultDedupTTL
	}
	s := &Service{
		repo:     repo,
		fallback: NewMemoryRepository(),
		ttl:      ttl,
		logger:   log,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// FirstSeen records id and reports whether this is the first time it was seen.
// When the shared store fails the in-memory fallback answers instead.
func (s *Service) FirstSeen(ctx context.Context, id string) bool {
	key := constants.CacheKeyPrefixDedup + id
	value := time.Now().Unix()

	if s.repo != nil {
		first, err := circuitbreaker.Do(ctx, s.breaker, func() (bool, error) {
			return s.repo.SetNX(ctx, key, value, s.ttl)
		})
		if err == nil {
			if !first {
				metrics.IncBotDuplicateEvent()
			}
			return first
		}
		s.logger.WarnwCtx(ctx, "Dedup store unavailable, using in-memory fallback", "error", err)
	}

	first, _ := s.fallback.SetNX(ctx, key, value, s.ttl)
	if !first {
		metrics.IncBotDuplicateEvent()
	}
	return first
}
