package payment

import (
	"errors"

	"github.com/shopspring/decimal"
)

const (
	DefaultDurationMinutes = 60
	DefaultPayerEmail      = "a@b.co"
)

var (
	ErrInvalidOptions      = errors.New("invalid payment options")
	ErrInvalidResponse     = errors.New("invalid response from payment provider")
	ErrMissingID           = errors.New("payment has not been generated")
	ErrAlreadyTerminal     = errors.New("payment already completed")
	ErrAlreadyGenerated    = errors.New("payment already generated")
	ErrCreateFailed        = errors.New("failed to create payment")
	ErrGetStatusFailed     = errors.New("failed to get payment status")
	ErrReconcileFailed     = errors.New("failed to update payment status")
	ErrCancelFailed        = errors.New("failed to cancel payment")
	ErrExpireFailed        = errors.New("failed to expire payment")
	ErrNotifierUnavailable = errors.New("payment notifications unavailable")
)

// Options are the caller supplied fields of a payment. Amount is passed to
// the provider as is.
type Options struct {
	Amount          decimal.Decimal
	Description     string
	DurationMinutes int
	PayerEmail      string
}

func ValidateOptions(o Options) error {
	if o.Amount.IsZero() || o.DurationMinutes < 0 {
		return ErrInvalidOptions
	}
	return nil
}

func withDefaults(o Options) Options {
	if o.DurationMinutes == 0 {
		o.DurationMinutes = DefaultDurationMinutes
	}
	if o.PayerEmail == "" {
		o.PayerEmail = DefaultPayerEmail
	}
	return o
}
