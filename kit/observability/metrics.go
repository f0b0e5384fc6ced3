package observability

import "sync/atomic"

type Metrics struct {
	PaymentsCreated   atomic.Int64
	PaymentsPaid      atomic.Int64
	PaymentsCancelled atomic.Int64
	PaymentsExpired   atomic.Int64
	Reconciliations   atomic.Int64
	WebhooksAccepted  atomic.Int64
	WebhooksRejected  atomic.Int64
	PollTicks         atomic.Int64
}

func NewMetrics() *Metrics {
	return &Metrics{}
}

func (m *Metrics) PaymentsCreatedAdd(n int64) {
	if m != nil {
		m.PaymentsCreated.Add(n)
	}
}

func (m *Metrics) PaymentsPaidAdd(n int64) {
	if m != nil {
		m.PaymentsPaid.Add(n)
	}
}

func (m *Metrics) PaymentsCancelledAdd(n int64) {
	if m != nil {
		m.PaymentsCancelled.Add(n)
	}
}

func (m *Metrics) PaymentsExpiredAdd(n int64) {
	if m != nil {
		m.PaymentsExpired.Add(n)
	}
}

func (m *Metrics) ReconciliationsAdd(n int64) {
	if m != nil {
		m.Reconciliations.Add(n)
	}
}

func (m *Metrics) WebhooksAcceptedAdd(n int64) {
	if m != nil {
		m.WebhooksAccepted.Add(n)
	}
}

func (m *Metrics) WebhooksRejectedAdd(n int64) {
	if m != nil {
		m.WebhooksRejected.Add(n)
	}
}

func (m *Metrics) PollTicksAdd(n int64) {
	if m != nil {
		m.PollTicks.Add(n)
	}
}

// Snapshot returns the current counters as alternating key/value pairs,
// ready to be passed to Logger.Info.
func (m *Metrics) Snapshot() []any {
	if m == nil {
		return nil
	}
	return []any{
		"payments_created", m.PaymentsCreated.Load(),
		"payments_paid", m.PaymentsPaid.Load(),
		"payments_cancelled", m.PaymentsCancelled.Load(),
		"payments_expired", m.PaymentsExpired.Load(),
		"reconciliations", m.Reconciliations.Load(),
		"webhooks_accepted", m.WebhooksAccepted.Load(),
		"webhooks_rejected", m.WebhooksRejected.Load(),
		"poll_ticks", m.PollTicks.Load(),
	}
}
