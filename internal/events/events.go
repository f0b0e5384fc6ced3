package events

import "time"

// PaymentUpdateSignal is published on the notification bus when the provider
// reports a change. PaymentID is empty for unqualified polling ticks.
type PaymentUpdateSignal struct {
	PaymentID string    `json:"payment_id,omitempty"`
	Source    string    `json:"source"`
	At        time.Time `json:"at"`
}

func (PaymentUpdateSignal) Name() string { return "provider.payment_updated" }

func (e PaymentUpdateSignal) Qualified() bool { return e.PaymentID != "" }

type PaymentPaid struct {
	PaymentID string    `json:"payment_id"`
	At        time.Time `json:"at"`
}

func (PaymentPaid) Name() string { return "payment.paid" }

func (e PaymentPaid) PartitionKey() string { return e.PaymentID }

type PaymentCancelled struct {
	PaymentID string    `json:"payment_id"`
	At        time.Time `json:"at"`
}

func (PaymentCancelled) Name() string { return "payment.cancelled" }

func (e PaymentCancelled) PartitionKey() string { return e.PaymentID }

type PaymentExpired struct {
	PaymentID string    `json:"payment_id"`
	After     string    `json:"after"`
	At        time.Time `json:"at"`
}

func (PaymentExpired) Name() string { return "payment.expired" }

func (e PaymentExpired) PartitionKey() string { return e.PaymentID }

type PaymentStatusChanged struct {
	PaymentID   string    `json:"payment_id"`
	Previous    string    `json:"previous"`
	Status      string    `json:"status"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	At          time.Time `json:"at"`
}

func (PaymentStatusChanged) Name() string { return "payment.status_changed" }

func (e PaymentStatusChanged) PartitionKey() string { return e.PaymentID }

// PaymentStatusEntered fires once per transition, named after the status
// entered, so observers can bind to a single enumeration value.
type PaymentStatusEntered struct {
	PaymentID string    `json:"payment_id"`
	Status    string    `json:"status"`
	At        time.Time `json:"at"`
}

func (e PaymentStatusEntered) Name() string { return StatusEventName(e.Status) }

func (e PaymentStatusEntered) PartitionKey() string { return e.PaymentID }

func StatusEventName(status string) string { return "payment.status." + status }

// PaymentFailed carries failures that have no synchronous caller, such as an
// expiration whose cancellation could not be applied.
type PaymentFailed struct {
	PaymentID string    `json:"payment_id"`
	Operation string    `json:"operation"`
	Err       error     `json:"-"`
	Reason    string    `json:"reason"`
	At        time.Time `json:"at"`
}

func (PaymentFailed) Name() string { return "payment.failed" }

func (e PaymentFailed) PartitionKey() string { return e.PaymentID }
