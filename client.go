// Package pixwatch creates Pix payments and follows them until they are paid,
// cancelled or expired, using either provider webhooks through a public
// tunnel or periodic polling.
package pixwatch

import (
	"context"
	"errors"
	"sync"
	"time"

	"pixwatch/internal/config"
	"pixwatch/internal/health"
	"pixwatch/internal/notification"
	"pixwatch/internal/payment"
	"pixwatch/internal/webhook"
	"pixwatch/kit/broker"
	"pixwatch/kit/observability"
	"pixwatch/kit/provider"
	"pixwatch/kit/tunnel"
)

type (
	Payment        = payment.Payment
	PaymentOptions = payment.Options
	Status         = payment.Status
	StatusInfo     = payment.StatusInfo
	QRCode         = payment.QRCode
	Mode           = notification.Mode
	Webhook        = notification.Webhook
	Polling        = notification.Polling
	Health         = health.Result
)

const (
	StatusPending     = payment.StatusPending
	StatusApproved    = payment.StatusApproved
	StatusAuthorized  = payment.StatusAuthorized
	StatusInProcess   = payment.StatusInProcess
	StatusInMediation = payment.StatusInMediation
	StatusRejected    = payment.StatusRejected
	StatusCancelled   = payment.StatusCancelled
	StatusRefunded    = payment.StatusRefunded
	StatusChargedBack = payment.StatusChargedBack
)

var (
	ErrMissingAccessToken = config.ErrMissingAccessToken
	ErrNotListening       = errors.New("notifications are not active")
)

// Tunnel exposes the local webhook port on a public URL.
type Tunnel interface {
	Cleanup()
	Forward(ctx context.Context, authToken string, port int) (string, error)
	Close() error
}

type Options struct {
	// AccessToken authenticates against the payment provider. Required.
	AccessToken string
	// TunnelToken enables webhook notifications. Polling is used without it.
	TunnelToken     string
	TunnelPort      int
	PollingInterval time.Duration
	BaseURL         string

	Logger *observability.Logger
	// Provider replaces the Mercado Pago client, e.g. with provider.Fake.
	Provider provider.Provider
	Tunnel   Tunnel
}

// Client owns the provider connection and the notification transport shared
// by every payment it generates.
type Client struct {
	opts     Options
	provider provider.Provider
	notifier *notification.Coordinator
	health   *health.Checker
	logger   *observability.Logger
	metrics  *observability.Metrics

	mu       sync.Mutex
	payments []*Payment
}

func NewClient(opts Options) (*Client, error) {
	if opts.AccessToken == "" {
		return nil, ErrMissingAccessToken
	}
	if opts.TunnelPort == 0 {
		opts.TunnelPort = notification.DefaultPort
	}
	if opts.PollingInterval <= 0 {
		opts.PollingInterval = notification.DefaultPollingInterval
	}
	if opts.Logger == nil {
		opts.Logger = observability.NewLogger()
	}
	if opts.Provider == nil {
		opts.Provider = provider.NewCircuitBreakerProvider(
			provider.NewMercadoPago(opts.AccessToken, opts.BaseURL),
			provider.CircuitBreakerConfig{
				FailureThreshold: 3,
				SuccessThreshold: 1,
				OpenTimeout:      2 * time.Second,
			},
		)
	}
	if opts.Tunnel == nil {
		opts.Tunnel = tunnel.NewNgrok()
	}

	metrics := observability.NewMetrics()
	bus := broker.New()
	server := webhook.NewServer(webhook.NewReceiver(bus, opts.Logger, metrics), opts.Logger)
	notifier := notification.NewCoordinator(notification.Config{
		TunnelToken:     opts.TunnelToken,
		Port:            opts.TunnelPort,
		PollingInterval: opts.PollingInterval,
	}, bus, server, opts.Tunnel, opts.Logger, metrics)

	c := &Client{opts: opts, provider: opts.Provider, notifier: notifier, logger: opts.Logger, metrics: metrics}
	c.health = health.NewChecker(time.Second, 2*time.Second, map[string]health.CheckFunc{
		"notifications": func(ctx context.Context) error {
			if !c.notifier.IsReady() {
				return ErrNotListening
			}
			return nil
		},
		"provider": func(ctx context.Context) error {
			if p, ok := c.provider.(interface{ Check(context.Context) error }); ok {
				return p.Check(ctx)
			}
			return nil
		},
	})
	return c, nil
}

// Listen activates notifications ahead of the first payment. Optional:
// GeneratePix activates them on demand.
func (c *Client) Listen(ctx context.Context) error {
	return c.notifier.Listen(ctx)
}

func (c *Client) IsReady() bool {
	return c.notifier.IsReady()
}

// Mode is nil until notifications are active.
func (c *Client) Mode() Mode {
	return c.notifier.Mode()
}

// GeneratePix creates a payment at the provider and starts following it.
// Register observers with Payment.On right after it returns.
func (c *Client) GeneratePix(ctx context.Context, opts PaymentOptions) (*Payment, error) {
	p, err := payment.New(payment.Deps{
		Notifier: c.notifier,
		Provider: c.provider,
		Logger:   c.logger,
		Metrics:  c.metrics,
	}, opts)
	if err != nil {
		return nil, err
	}
	if _, err := p.Generate(ctx); err != nil {
		return nil, err
	}
	c.track(p)
	return p, nil
}

func (c *Client) track(p *Payment) {
	c.mu.Lock()
	defer c.mu.Unlock()
	live := c.payments[:0]
	for _, q := range c.payments {
		if !q.IsTerminal() {
			live = append(live, q)
		}
	}
	c.payments = append(live, p)
}

// Health reports notification readiness and whether provider calls are
// being short-circuited. Results are cached for a second.
func (c *Client) Health(ctx context.Context) Health {
	return c.health.Check(ctx)
}

func (c *Client) Metrics() *observability.Metrics {
	return c.metrics
}

// Close stops the notification transport and stops following every payment
// that is still open: their expiration timers are disarmed and they keep
// their last known status. Nothing is cancelled at the provider.
func (c *Client) Close(ctx context.Context) error {
	c.mu.Lock()
	payments := c.payments
	c.payments = nil
	c.mu.Unlock()
	for _, p := range payments {
		p.Stop()
	}

	err := c.notifier.Close(ctx)
	_ = c.logger.Sync()
	return err
}
