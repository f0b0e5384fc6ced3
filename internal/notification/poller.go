package notification

import (
	"context"
	"sync"
	"time"

	"pixwatch/internal/events"
	"pixwatch/kit/broker"
	"pixwatch/kit/observability"
)

const DefaultPollingInterval = 10 * time.Second

// Poller publishes an unqualified update signal on every tick, so each
// pending payment reconciles against the provider.
type Poller struct {
	bus      broker.Publisher
	interval time.Duration
	logger   *observability.Logger
	metrics  *observability.Metrics

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func NewPoller(bus broker.Publisher, interval time.Duration, logger *observability.Logger, metrics *observability.Metrics) *Poller {
	if interval <= 0 {
		interval = DefaultPollingInterval
	}
	return &Poller{bus: bus, interval: interval, logger: logger, metrics: metrics}
}

func (p *Poller) Interval() time.Duration { return p.interval }

// Start is a no-op while the poller is already running.
func (p *Poller) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.done = make(chan struct{})
	go p.run(ctx, p.done)
}

func (p *Poller) run(ctx context.Context, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case at := <-ticker.C:
			p.metrics.PollTicksAdd(1)
			for _, err := range p.bus.Publish(ctx, events.PaymentUpdateSignal{Source: "polling", At: at.UTC()}) {
				p.logger.Error("notification error", "layer", "service", "component", "poller", "method", "run", "error", err.Error())
			}
		}
	}
}

// Stop cancels the loop and waits for the in-flight tick to finish.
func (p *Poller) Stop() {
	p.mu.Lock()
	cancel, done := p.cancel, p.done
	p.cancel, p.done = nil, nil
	p.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}
