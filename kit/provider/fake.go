package provider

import (
	"context"
	"encoding/base64"
	"fmt"
	"strconv"
	"sync"
)

// Fake is an in-memory Provider. Payments start pending and only move when
// SetStatus is called, which makes it usable as a sandbox and in tests.
type Fake struct {
	mu       sync.Mutex
	seq      int64
	payments map[string]*Payment
	keys     map[string]string
	requests []CreateRequest
}

func NewFake() *Fake {
	return &Fake{payments: make(map[string]*Payment), keys: make(map[string]string)}
}

func (f *Fake) Create(ctx context.Context, req CreateRequest) (*Payment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	f.requests = append(f.requests, req)
	if id, ok := f.keys[req.IdempotencyKey]; ok && req.IdempotencyKey != "" {
		cpy := *f.payments[id]
		return &cpy, nil
	}

	f.seq++
	id := strconv.FormatInt(1000+f.seq, 10)
	content := fmt.Sprintf("00020126580014br.gov.bcb.pix0136%s5204000053039865405%s", id, req.Amount.StringFixed(2))
	p := &Payment{
		ID:           id,
		Status:       "pending",
		QRCode:       content,
		QRCodeBase64: base64.StdEncoding.EncodeToString([]byte(content)),
	}
	f.payments[id] = p
	if req.IdempotencyKey != "" {
		f.keys[req.IdempotencyKey] = id
	}
	cpy := *p
	return &cpy, nil
}

func (f *Fake) Get(ctx context.Context, paymentID string) (*Payment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.payments[paymentID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, paymentID)
	}
	return &Payment{ID: p.ID, Status: p.Status}, nil
}

func (f *Fake) Cancel(ctx context.Context, paymentID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.payments[paymentID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, paymentID)
	}
	if p.Status == "approved" || p.Status == "cancelled" {
		return fmt.Errorf("%w: payment %s is %s", ErrClient, paymentID, p.Status)
	}
	p.Status = "cancelled"
	return nil
}

// SetStatus changes the remote status of a payment, as the payer or the
// provider would out-of-band.
func (f *Fake) SetStatus(paymentID, status string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.payments[paymentID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, paymentID)
	}
	p.Status = status
	return nil
}

// Requests returns a copy of every creation request received.
func (f *Fake) Requests() []CreateRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]CreateRequest(nil), f.requests...)
}
