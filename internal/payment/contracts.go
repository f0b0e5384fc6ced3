package payment

import (
	"context"

	"pixwatch/kit/broker"
	"pixwatch/kit/provider"
)

// NotifierContract define the notification readiness and subscription responsibility.
type NotifierContract interface {
	IsReady() bool
	Listen(ctx context.Context) error
	CallbackURL() string
	Subscribe(h broker.Handler) *broker.Subscription
}

// ProviderContract define the payment provider responsibility.
type ProviderContract interface {
	Create(ctx context.Context, req provider.CreateRequest) (*provider.Payment, error)
	Get(ctx context.Context, paymentID string) (*provider.Payment, error)
	Cancel(ctx context.Context, paymentID string) error
}

type stopper interface {
	Stop() bool
}
