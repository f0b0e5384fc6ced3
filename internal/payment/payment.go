package payment

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"pixwatch/internal/events"
	"pixwatch/kit/broker"
	"pixwatch/kit/observability"

	"github.com/shopspring/decimal"
)

type Deps struct {
	Notifier NotifierContract
	Provider ProviderContract
	Logger   *observability.Logger
	Metrics  *observability.Metrics
}

// Payment follows one Pix payment from creation to a terminal state.
// The provider is the source of truth: local status only moves after a
// successful create, cancel or status read.
type Payment struct {
	notifier NotifierContract
	provider ProviderContract
	logger   *observability.Logger
	metrics  *observability.Metrics
	events   *broker.Bus
	opts     Options

	afterFunc func(d time.Duration, f func()) stopper
	spawn     func(f func())

	mu         sync.Mutex
	bg         context.Context
	id         string
	status     Status
	qr         QRCode
	generating bool
	timer      stopper
	sub        *broker.Subscription
}

func New(deps Deps, opts Options) (*Payment, error) {
	if deps.Notifier == nil || deps.Provider == nil {
		return nil, errors.Join(ErrInvalidOptions, errors.New("notifier and provider are required"))
	}
	if err := ValidateOptions(opts); err != nil {
		deps.Logger.Error("payment error", "layer", "service", "component", "payment", "method", "New", "amount", opts.Amount.String(), "error", err.Error())
		return nil, err
	}
	return &Payment{
		notifier: deps.Notifier,
		provider: deps.Provider,
		logger:   deps.Logger,
		metrics:  deps.Metrics,
		events:   broker.New(),
		opts:     withDefaults(opts),
		afterFunc: func(d time.Duration, f func()) stopper {
			return time.AfterFunc(d, f)
		},
		spawn:  func(f func()) { go f() },
		bg:     context.Background(),
		status: StatusPending,
	}, nil
}

// Generate creates the payment at the provider, then starts listening for
// notifications and arms the expiration timer. When notifications are not
// ready yet, the first call pays for their activation.
func (p *Payment) Generate(ctx context.Context) (*Payment, error) {
	if !p.notifier.IsReady() {
		p.logger.Warn("notifications are not ready: this first payment will take longer to generate, call Listen on the client beforehand to avoid it",
			"layer", "service", "component", "payment", "method", "Generate")
		if err := p.notifier.Listen(ctx); err != nil {
			p.logger.Error("payment error", "layer", "service", "component", "payment", "method", "Generate", "error", err.Error())
			return nil, errors.Join(ErrNotifierUnavailable, err)
		}
	}

	p.mu.Lock()
	if p.id != "" || p.generating {
		p.mu.Unlock()
		return nil, ErrAlreadyGenerated
	}
	p.generating = true
	p.mu.Unlock()

	resp, err := p.provider.Create(ctx, ToCreateRequest(p.opts, p.notifier.CallbackURL()))
	switch {
	case err != nil:
		err = errors.Join(ErrCreateFailed, err)
	case resp == nil || resp.ID == "" || resp.QRCode == "" || resp.QRCodeBase64 == "":
		err = ErrInvalidResponse
	}
	if err != nil {
		p.mu.Lock()
		p.generating = false
		p.mu.Unlock()
		p.logger.Error("payment error", "layer", "service", "component", "payment", "method", "Generate", "amount", p.opts.Amount.String(), "error", err.Error())
		return nil, err
	}

	p.mu.Lock()
	p.id = resp.ID
	p.qr = QRCode{Content: resp.QRCode, Image: QRImage{Base64: resp.QRCodeBase64}}
	p.generating = false
	p.bg = context.WithoutCancel(ctx)
	p.sub = p.notifier.Subscribe(p.onUpdate)
	p.timer = p.afterFunc(p.Duration(), p.expire)
	p.mu.Unlock()

	p.metrics.PaymentsCreatedAdd(1)
	p.logger.Info("payment created", "payment_id", resp.ID, "amount", p.opts.Amount.String(), "expires_in", p.Duration().String())
	return p, nil
}

// RefreshStatus reads the provider status without touching local state.
func (p *Payment) RefreshStatus(ctx context.Context) (Status, error) {
	id := p.ID()
	if id == "" {
		return "", ErrMissingID
	}

	resp, err := p.provider.Get(ctx, id)
	if err != nil {
		return "", errors.Join(ErrGetStatusFailed, err)
	}
	if resp == nil {
		return "", ErrInvalidResponse
	}
	status, ok := ParseStatus(resp.Status)
	if !ok {
		return "", errors.Join(ErrInvalidResponse, fmt.Errorf("unknown status %q", resp.Status))
	}
	return status, nil
}

// Reconcile applies the provider status locally. Unchanged status is a no-op,
// and failures leave local state untouched.
func (p *Payment) Reconcile(ctx context.Context) error {
	status, err := p.RefreshStatus(ctx)
	if err != nil {
		p.logger.Error("payment error", "layer", "service", "component", "payment", "method", "Reconcile", "payment_id", p.ID(), "error", err.Error())
		return errors.Join(ErrReconcileFailed, err)
	}
	p.metrics.ReconciliationsAdd(1)

	if previous, changed := p.transition(status); changed {
		p.announce(previous, status)
	}
	return nil
}

// Cancel cancels the payment at the provider. When the provider refuses, the
// status is reconciled: a payment that reached a terminal state by another
// path is not an error.
func (p *Payment) Cancel(ctx context.Context) error {
	p.mu.Lock()
	id, terminal := p.id, p.status.IsTerminal()
	p.mu.Unlock()

	if id == "" {
		return ErrMissingID
	}
	if terminal {
		return ErrAlreadyTerminal
	}

	if err := p.provider.Cancel(ctx, id); err != nil {
		rerr := p.Reconcile(ctx)
		if p.IsTerminal() {
			p.logger.Info("payment cancel superseded", "payment_id", id, "status", string(p.Status()), "cause", err.Error())
			return nil
		}
		p.logger.Error("payment error", "layer", "service", "component", "payment", "method", "Cancel", "payment_id", id, "error", err.Error())
		return errors.Join(ErrCancelFailed, err, rerr)
	}

	if previous, changed := p.transition(StatusCancelled); changed {
		p.announce(previous, StatusCancelled)
	}
	return nil
}

func (p *Payment) expire() {
	if p.IsTerminal() {
		return
	}

	id := p.ID()
	err := p.Cancel(p.background())
	switch {
	case errors.Is(err, ErrAlreadyTerminal):
		return
	case err != nil:
		err = errors.Join(ErrExpireFailed, err)
		p.logger.Error("payment error", "layer", "service", "component", "payment", "method", "expire", "payment_id", id, "error", err.Error())
		p.publish(ToFailedEvent(id, "expire", err))
		return
	}

	if p.Status() != StatusCancelled {
		return
	}
	p.metrics.PaymentsExpiredAdd(1)
	p.logger.Info("payment expired", "payment_id", id, "after", p.Duration().String())
	p.publish(ToExpiredEvent(id, p.Duration()))
}

func (p *Payment) onUpdate(ctx context.Context, evt broker.Event) error {
	sig, ok := evt.(events.PaymentUpdateSignal)
	if !ok {
		return fmt.Errorf("unexpected event type: %T", evt)
	}
	id := p.ID()
	if sig.Qualified() && sig.PaymentID != id {
		return nil
	}

	p.spawn(func() {
		if err := p.Reconcile(p.background()); err != nil {
			p.publish(ToFailedEvent(id, "reconcile", err))
		}
	})
	return nil
}

// transition moves to status unless the payment is already terminal or the
// status is unchanged. Reaching a terminal status releases the timer and the
// subscription in the same critical section.
func (p *Payment) transition(status Status) (Status, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	previous := p.status
	if previous.IsTerminal() || previous == status {
		return previous, false
	}
	p.status = status
	if status.IsTerminal() {
		p.releaseLocked()
	}
	return previous, true
}

func (p *Payment) announce(previous, status Status) {
	id := p.ID()
	switch status {
	case StatusApproved:
		p.metrics.PaymentsPaidAdd(1)
		p.publish(ToPaidEvent(id))
	case StatusCancelled:
		p.metrics.PaymentsCancelledAdd(1)
		p.publish(ToCancelledEvent(id))
	}
	p.publish(ToStatusChangedEvent(id, previous, status))
	p.publish(ToStatusEnteredEvent(id, status))
	p.logger.Info("payment status changed", "payment_id", id, "previous", string(previous), "status", string(status))
}

func (p *Payment) publish(evt broker.Event) {
	p.events.Publish(p.background(), evt)
}

// Stop stops following the payment without touching it at the provider.
// The expiration timer is disarmed, update signals are ignored and the last
// known status is kept.
func (p *Payment) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.releaseLocked()
}

func (p *Payment) releaseLocked() {
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
	if p.sub != nil {
		p.sub.Unsubscribe()
		p.sub = nil
	}
}

func (p *Payment) background() context.Context {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.bg
}

// On registers an observer for a lifecycle event (see internal/events), or
// for every event with broker.Wildcard.
func (p *Payment) On(eventName string, h broker.Handler) *broker.Subscription {
	return p.events.Subscribe(eventName, h)
}

// Once is On for a single delivery.
func (p *Payment) Once(eventName string, h broker.Handler) *broker.Subscription {
	var once sync.Once
	var sub *broker.Subscription
	ready := make(chan struct{})
	sub = p.events.Subscribe(eventName, func(ctx context.Context, evt broker.Event) error {
		var err error
		once.Do(func() {
			<-ready
			sub.Unsubscribe()
			err = h(ctx, evt)
		})
		return err
	})
	close(ready)
	return sub
}

func (p *Payment) ID() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.id
}

func (p *Payment) Status() Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status
}

func (p *Payment) StatusInfo() StatusInfo {
	return p.Status().Info()
}

func (p *Payment) IsTerminal() bool {
	return p.Status().IsTerminal()
}

func (p *Payment) QRCode() QRCode {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.qr
}

func (p *Payment) Options() Options { return p.opts }

func (p *Payment) Amount() decimal.Decimal { return p.opts.Amount }

func (p *Payment) Description() string { return p.opts.Description }

func (p *Payment) PayerEmail() string { return p.opts.PayerEmail }

func (p *Payment) DurationMinutes() int { return p.opts.DurationMinutes }

func (p *Payment) Duration() time.Duration {
	return time.Duration(p.opts.DurationMinutes) * time.Minute
}
