package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
)

type BreakerConfig struct {
	MinRequests  uint32
	FailureRatio float64
	OpenTimeout  time.Duration
	HalfOpenMax  uint32
}

func (c BreakerConfig) normalize() BreakerConfig {
	if c.MinRequests == 0 {
		c.MinRequests = 5
	}
	if c.FailureRatio <= 0 {
		c.FailureRatio = 0.6
	}
	if c.OpenTimeout <= 0 {
		c.OpenTimeout = 30 * time.Second
	}
	if c.HalfOpenMax == 0 {
		c.HalfOpenMax = 1
	}
	return c
}

// BreakerGenerator trips a per-operation circuit breaker around another
// Generator. Quota errors and cancellations do not count as failures.
type BreakerGenerator struct {
	next Generator
	cfg  BreakerConfig
	log  *zap.Logger

	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker[string]
}

func NewBreakerGenerator(next Generator, cfg BreakerConfig, log *zap.Logger) *BreakerGenerator {
	if log == nil {
		log = zap.NewNop()
	}
	return &BreakerGenerator{
		next:     next,
		cfg:      cfg.normalize(),
		log:      log,
		breakers: make(map[string]*gobreaker.CircuitBreaker[string]),
	}
}

func (b *BreakerGenerator) Generate(ctx context.Context, req GenerateRequest) (string, error) {
	out, err := b.breaker(req.Operation).Execute(func() (string, error) {
		return b.next.Generate(ctx, req)
	})
	if IsCircuitOpen(err) {
		return "", ErrAIUnavailable
	}
	return out, err
}

func (b *BreakerGenerator) breaker(operation string) *gobreaker.CircuitBreaker[string] {
	b.mu.Lock()
	defer b.mu.Unlock()

	if cb, ok := b.breakers[operation]; ok {
		return cb
	}

	settings := gobreaker.Settings{
		Name:        operation,
		MaxRequests: b.cfg.HalfOpenMax,
		Timeout:     b.cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < b.cfg.MinRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= b.cfg.FailureRatio
		},
		IsSuccessful: func(err error) bool {
			return err == nil ||
				isQuotaError(err) ||
				errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			b.log.Warn("ai circuit breaker state change",
				zap.String("operation", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	}

	cb := gobreaker.NewCircuitBreaker[string](settings)
	b.breakers[operation] = cb
	return cb
}

func IsCircuitOpen(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}
