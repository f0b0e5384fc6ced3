package provider

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

var ErrTimeout = errors.New("provider timeout")
var ErrServer = errors.New("provider 5xx")
var ErrClient = errors.New("provider 4xx")
var ErrCircuitOpen = errors.New("circuit open")
var ErrNotFound = errors.New("provider: payment not found")

// Provider is the payment provider API: the source of truth for payment status.
type Provider interface {
	Create(ctx context.Context, req CreateRequest) (*Payment, error)
	Get(ctx context.Context, paymentID string) (*Payment, error)
	Cancel(ctx context.Context, paymentID string) error
}

type CreateRequest struct {
	Amount          decimal.Decimal
	Description     string
	PayerEmail      string
	NotificationURL string
	IdempotencyKey  string
}

// Payment is the provider view of a payment. QR fields are only filled on creation.
type Payment struct {
	ID           string
	Status       string
	QRCode       string
	QRCodeBase64 string
}
