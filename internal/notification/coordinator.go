package notification

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"pixwatch/internal/events"
	"pixwatch/kit/broker"
	"pixwatch/kit/observability"
)

const DefaultPort = 8888

var ErrWebhookStart = errors.New("failed to start webhook notifications")

type Config struct {
	TunnelToken     string
	Port            int
	PollingInterval time.Duration
}

// Coordinator activates exactly one notification transport per client and
// is the single entry point payments use to wait for provider updates.
type Coordinator struct {
	cfg     Config
	bus     *broker.Bus
	server  ServerContract
	tunnel  TunnelContract
	logger  *observability.Logger
	metrics *observability.Metrics

	mu     sync.Mutex
	mode   Mode
	poller *Poller
	ready  atomic.Bool
}

func NewCoordinator(cfg Config, bus *broker.Bus, server ServerContract, tunnel TunnelContract, logger *observability.Logger, metrics *observability.Metrics) *Coordinator {
	if cfg.Port == 0 {
		cfg.Port = DefaultPort
	}
	if cfg.PollingInterval <= 0 {
		cfg.PollingInterval = DefaultPollingInterval
	}
	return &Coordinator{cfg: cfg, bus: bus, server: server, tunnel: tunnel, logger: logger, metrics: metrics}
}

// Listen activates notifications. Concurrent callers wait for the first
// activation; once a mode is chosen it never changes.
func (c *Coordinator) Listen(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.mode != nil {
		return nil
	}

	if c.cfg.TunnelToken == "" {
		c.usePolling(ctx)
		return nil
	}
	return c.useWebhook(ctx)
}

func (c *Coordinator) useWebhook(ctx context.Context) error {
	c.tunnel.Cleanup()

	if err := c.server.Start(c.cfg.Port); err != nil {
		c.logger.Error("notification error", "layer", "service", "component", "coordinator", "method", "Listen", "port", c.cfg.Port, "error", err.Error())
		return errors.Join(ErrWebhookStart, err)
	}

	publicURL, err := c.tunnel.Forward(ctx, c.cfg.TunnelToken, c.cfg.Port)
	if err != nil {
		c.logger.Error("notification error", "layer", "service", "component", "coordinator", "method", "Listen", "port", c.cfg.Port, "error", err.Error())
		if serr := c.server.Shutdown(context.WithoutCancel(ctx)); serr != nil {
			c.logger.Warn("webhook server shutdown failed", "layer", "service", "component", "coordinator", "error", serr.Error())
		}
		return errors.Join(ErrWebhookStart, err)
	}

	c.mode = Webhook{PublicURL: publicURL}
	c.ready.Store(true)
	c.logger.Info("webhook notifications ready", "public_url", publicURL, "port", c.cfg.Port)
	return nil
}

func (c *Coordinator) usePolling(ctx context.Context) {
	c.poller = NewPoller(c.bus, c.cfg.PollingInterval, c.logger, c.metrics)
	c.poller.Start(context.WithoutCancel(ctx))

	c.mode = Polling{Interval: c.poller.Interval()}
	c.ready.Store(true)
	c.logger.Warn("no tunnel token configured: using polling to follow payments, set one to receive webhooks instead",
		"interval", c.poller.Interval().String())
}

func (c *Coordinator) IsReady() bool {
	return c.ready.Load()
}

// Mode returns nil until Listen succeeds.
func (c *Coordinator) Mode() Mode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

// CallbackURL is the notification URL handed to the provider, empty when
// polling.
func (c *Coordinator) CallbackURL() string {
	if m, ok := c.Mode().(Webhook); ok {
		return m.PublicURL
	}
	return ""
}

func (c *Coordinator) Subscribe(h broker.Handler) *broker.Subscription {
	return c.bus.Subscribe(events.PaymentUpdateSignal{}.Name(), h)
}

// Close stops the active transport. Mode keeps reporting it and Listen
// stays a no-op afterwards.
func (c *Coordinator) Close(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.mode.(type) {
	case Polling:
		c.poller.Stop()
		return nil
	case Webhook:
		return errors.Join(c.tunnel.Close(), c.server.Shutdown(ctx))
	}
	return nil
}
