package provider

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"

	"github.com/go-resty/resty/v2"
)

const DefaultMercadoPagoBaseURL = "https://api.mercadopago.com"

// MercadoPago talks to the Mercado Pago payments API, creating Pix payments
// and reading or cancelling them by id.
type MercadoPago struct {
	client *resty.Client
}

func NewMercadoPago(accessToken, baseURL string) *MercadoPago {
	if baseURL == "" {
		baseURL = DefaultMercadoPagoBaseURL
	}
	c := resty.New().
		SetBaseURL(baseURL).
		SetAuthToken(accessToken).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
	return &MercadoPago{client: c}
}

type mpPayer struct {
	Email string `json:"email"`
}

type mpCreateBody struct {
	PaymentMethodID   string  `json:"payment_method_id"`
	TransactionAmount float64 `json:"transaction_amount"`
	Description       string  `json:"description,omitempty"`
	NotificationURL   string  `json:"notification_url,omitempty"`
	Payer             mpPayer `json:"payer"`
}

type mpTransactionData struct {
	QRCode       string `json:"qr_code"`
	QRCodeBase64 string `json:"qr_code_base64"`
}

type mpPointOfInteraction struct {
	TransactionData *mpTransactionData `json:"transaction_data"`
}

type mpPayment struct {
	ID                 int64                 `json:"id"`
	Status             string                `json:"status"`
	PointOfInteraction *mpPointOfInteraction `json:"point_of_interaction"`
}

type mpError struct {
	Message string `json:"message"`
	Error   string `json:"error"`
	Status  int    `json:"status"`
}

func (p mpPayment) toPayment() *Payment {
	out := &Payment{Status: p.Status}
	if p.ID != 0 {
		out.ID = strconv.FormatInt(p.ID, 10)
	}
	if p.PointOfInteraction != nil && p.PointOfInteraction.TransactionData != nil {
		out.QRCode = p.PointOfInteraction.TransactionData.QRCode
		out.QRCodeBase64 = p.PointOfInteraction.TransactionData.QRCodeBase64
	}
	return out
}

func (m *MercadoPago) Create(ctx context.Context, req CreateRequest) (*Payment, error) {
	body := mpCreateBody{
		PaymentMethodID:   "pix",
		TransactionAmount: req.Amount.InexactFloat64(),
		Description:       req.Description,
		NotificationURL:   req.NotificationURL,
		Payer:             mpPayer{Email: req.PayerEmail},
	}

	var out mpPayment
	var apiErr mpError
	resp, err := m.client.R().
		SetContext(ctx).
		SetHeader("X-Idempotency-Key", req.IdempotencyKey).
		SetBody(body).
		SetResult(&out).
		SetError(&apiErr).
		Post("/v1/payments")
	if err := classify(resp, err, apiErr); err != nil {
		return nil, fmt.Errorf("mercadopago create: %w", err)
	}
	return out.toPayment(), nil
}

func (m *MercadoPago) Get(ctx context.Context, paymentID string) (*Payment, error) {
	var out mpPayment
	var apiErr mpError
	resp, err := m.client.R().
		SetContext(ctx).
		SetPathParam("id", paymentID).
		SetResult(&out).
		SetError(&apiErr).
		Get("/v1/payments/{id}")
	if err := classify(resp, err, apiErr); err != nil {
		return nil, fmt.Errorf("mercadopago get payment_id=%s: %w", paymentID, err)
	}
	return out.toPayment(), nil
}

func (m *MercadoPago) Cancel(ctx context.Context, paymentID string) error {
	var apiErr mpError
	resp, err := m.client.R().
		SetContext(ctx).
		SetPathParam("id", paymentID).
		SetBody(map[string]string{"status": "cancelled"}).
		SetError(&apiErr).
		Put("/v1/payments/{id}")
	if err := classify(resp, err, apiErr); err != nil {
		return fmt.Errorf("mercadopago cancel payment_id=%s: %w", paymentID, err)
	}
	return nil
}

func classify(resp *resty.Response, err error, apiErr mpError) error {
	if err != nil {
		var ne net.Error
		if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &ne) && ne.Timeout()) {
			return errors.Join(ErrTimeout, err)
		}
		return err
	}
	if !resp.IsError() {
		return nil
	}
	detail := apiErr.Message
	if detail == "" {
		detail = http.StatusText(resp.StatusCode())
	}
	switch {
	case resp.StatusCode() == http.StatusNotFound:
		return fmt.Errorf("%w: %w: %s", ErrClient, ErrNotFound, detail)
	case resp.StatusCode() >= http.StatusInternalServerError:
		return fmt.Errorf("%w: status=%d %s", ErrServer, resp.StatusCode(), detail)
	default:
		return fmt.Errorf("%w: status=%d %s", ErrClient, resp.StatusCode(), detail)
	}
}
