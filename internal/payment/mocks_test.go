package payment

import (
	"context"
	"sync"
	"time"

	"pixwatch/internal/events"
	"pixwatch/kit/broker"
	"pixwatch/kit/provider"

	"github.com/stretchr/testify/mock"
)

type NotifierMock struct {
	mock.Mock
	NotifierContract
	Bus *broker.Bus
}

func (m *NotifierMock) IsReady() bool {
	args := m.Called()
	return args.Bool(0)
}

func (m *NotifierMock) Listen(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *NotifierMock) CallbackURL() string {
	args := m.Called()
	return args.String(0)
}

func (m *NotifierMock) Subscribe(h broker.Handler) *broker.Subscription {
	return m.Bus.Subscribe(events.PaymentUpdateSignal{}.Name(), h)
}

type ProviderMock struct {
	mock.Mock
	ProviderContract
}

func (m *ProviderMock) Create(ctx context.Context, req provider.CreateRequest) (*provider.Payment, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*provider.Payment), args.Error(1)
}

func (m *ProviderMock) Get(ctx context.Context, paymentID string) (*provider.Payment, error) {
	args := m.Called(ctx, paymentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*provider.Payment), args.Error(1)
}

func (m *ProviderMock) Cancel(ctx context.Context, paymentID string) error {
	args := m.Called(ctx, paymentID)
	return args.Error(0)
}

type fakeTimer struct {
	mu      sync.Mutex
	d       time.Duration
	f       func()
	stopped int
}

func (t *fakeTimer) Stop() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopped++
	return t.stopped == 1
}

func (t *fakeTimer) Fire() { t.f() }

func (t *fakeTimer) Stops() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stopped
}

type eventRecorder struct {
	mu     sync.Mutex
	names  []string
	events []broker.Event
}

func recordEvents(p *Payment) *eventRecorder {
	r := &eventRecorder{}
	p.On(broker.Wildcard, func(ctx context.Context, evt broker.Event) error {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.names = append(r.names, evt.Name())
		r.events = append(r.events, evt)
		return nil
	})
	return r
}

func (r *eventRecorder) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.names...)
}

func (r *eventRecorder) Count(name string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, got := range r.names {
		if got == name {
			n++
		}
	}
	return n
}

func (r *eventRecorder) Last(name string) broker.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.events) - 1; i >= 0; i-- {
		if r.events[i].Name() == name {
			return r.events[i]
		}
	}
	return nil
}
