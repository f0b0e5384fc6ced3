package payment

import (
	"time"

	"pixwatch/internal/events"
	"pixwatch/kit/provider"

	"github.com/google/uuid"
)

func ToCreateRequest(o Options, notificationURL string) provider.CreateRequest {
	return provider.CreateRequest{
		Amount:          o.Amount,
		Description:     o.Description,
		PayerEmail:      o.PayerEmail,
		NotificationURL: notificationURL,
		IdempotencyKey:  uuid.NewString(),
	}
}

func ToPaidEvent(paymentID string) events.PaymentPaid {
	return events.PaymentPaid{PaymentID: paymentID, At: time.Now().UTC()}
}

func ToCancelledEvent(paymentID string) events.PaymentCancelled {
	return events.PaymentCancelled{PaymentID: paymentID, At: time.Now().UTC()}
}

func ToExpiredEvent(paymentID string, after time.Duration) events.PaymentExpired {
	return events.PaymentExpired{PaymentID: paymentID, After: after.String(), At: time.Now().UTC()}
}

func ToStatusChangedEvent(paymentID string, previous, status Status) events.PaymentStatusChanged {
	info := status.Info()
	return events.PaymentStatusChanged{
		PaymentID:   paymentID,
		Previous:    string(previous),
		Status:      string(info.Type),
		Title:       info.Title,
		Description: info.Description,
		At:          time.Now().UTC(),
	}
}

func ToStatusEnteredEvent(paymentID string, status Status) events.PaymentStatusEntered {
	return events.PaymentStatusEntered{PaymentID: paymentID, Status: string(status), At: time.Now().UTC()}
}

func ToFailedEvent(paymentID, operation string, err error) events.PaymentFailed {
	return events.PaymentFailed{PaymentID: paymentID, Operation: operation, Err: err, Reason: err.Error(), At: time.Now().UTC()}
}
