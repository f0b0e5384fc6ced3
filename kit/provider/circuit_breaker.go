package provider

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker"
)

type CircuitBreakerConfig struct {
	FailureThreshold int
	SuccessThreshold int
	OpenTimeout      time.Duration
	IsFailure        func(error) bool
}

// CircuitBreakerProvider short-circuits Create and Get while the provider
// keeps failing with transient errors. Cancel always reaches the provider:
// an expiring payment has a single chance to cancel.
type CircuitBreakerProvider struct {
	next Provider
	cb   *gobreaker.CircuitBreaker
}

func NewCircuitBreakerProvider(next Provider, cfg CircuitBreakerConfig) *CircuitBreakerProvider {
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.SuccessThreshold <= 0 {
		cfg.SuccessThreshold = 1
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = 5 * time.Second
	}
	if cfg.IsFailure == nil {
		cfg.IsFailure = isTransient
	}

	threshold := uint32(cfg.FailureThreshold)
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "provider",
		MaxRequests: uint32(cfg.SuccessThreshold),
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		IsSuccessful: func(err error) bool {
			return err == nil || !cfg.IsFailure(err)
		},
	})
	return &CircuitBreakerProvider{next: next, cb: cb}
}

func isTransient(err error) bool {
	return errors.Is(err, ErrTimeout) || errors.Is(err, ErrServer) || errors.Is(err, context.DeadlineExceeded)
}

func (p *CircuitBreakerProvider) Create(ctx context.Context, req CreateRequest) (*Payment, error) {
	return p.execute(func() (*Payment, error) { return p.next.Create(ctx, req) })
}

func (p *CircuitBreakerProvider) Get(ctx context.Context, paymentID string) (*Payment, error) {
	return p.execute(func() (*Payment, error) { return p.next.Get(ctx, paymentID) })
}

func (p *CircuitBreakerProvider) Cancel(ctx context.Context, paymentID string) error {
	return p.next.Cancel(ctx, paymentID)
}

func (p *CircuitBreakerProvider) execute(call func() (*Payment, error)) (*Payment, error) {
	out, err := p.cb.Execute(func() (interface{}, error) {
		return call()
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, errors.Join(ErrCircuitOpen, err)
	}
	payment, _ := out.(*Payment)
	return payment, err
}

// Check reports ErrCircuitOpen while calls are being short-circuited.
func (p *CircuitBreakerProvider) Check(ctx context.Context) error {
	if p.cb.State() == gobreaker.StateOpen {
		return ErrCircuitOpen
	}
	return nil
}
