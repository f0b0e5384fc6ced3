package audit

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"pixwatch/internal/payment"
	"pixwatch/kit/broker"
	"pixwatch/kit/observability"
)

// Observable is the part of a payment the recorder needs.
type Observable interface {
	On(eventName string, h broker.Handler) *broker.Subscription
	ID() string
	Status() payment.Status
}

type partitioned interface {
	PartitionKey() string
}

type Line struct {
	At        time.Time    `json:"at"`
	Event     string       `json:"event"`
	PaymentID string       `json:"payment_id"`
	Status    string       `json:"status"`
	Fields    broker.Event `json:"fields,omitempty"`
}

// Recorder appends one JSON line per payment lifecycle event.
type Recorder struct {
	logger *observability.Logger
	fileMu sync.Mutex
	f      *os.File
}

func NewRecorder(logger *observability.Logger) *Recorder {
	return &Recorder{logger: logger}
}

func NewRecorderWithFile(logger *observability.Logger, path string) (*Recorder, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		logger.Error("audit error", "layer", "service", "component", "audit", "method", "NewRecorderWithFile", "path", path, "error", err.Error())
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		logger.Error("audit error", "layer", "service", "component", "audit", "method", "NewRecorderWithFile", "path", path, "error", err.Error())
		return nil, err
	}
	return &Recorder{logger: logger, f: f}, nil
}

// Attach records every event p emits until the returned subscription is
// cancelled.
func (r *Recorder) Attach(p Observable) *broker.Subscription {
	return p.On(broker.Wildcard, func(ctx context.Context, evt broker.Event) error {
		id := p.ID()
		if k, ok := evt.(partitioned); ok && k.PartitionKey() != "" {
			id = k.PartitionKey()
		}
		r.Record(ctx, Line{At: time.Now().UTC(), Event: evt.Name(), PaymentID: id, Status: string(p.Status()), Fields: evt})
		return nil
	})
}

func (r *Recorder) Record(ctx context.Context, line Line) {
	r.logger.Info("audit", "event", line.Event, "payment_id", line.PaymentID, "status", line.Status)

	r.fileMu.Lock()
	defer r.fileMu.Unlock()
	if r.f == nil {
		return
	}
	b, err := json.Marshal(line)
	if err != nil {
		r.logger.Error("audit error", "layer", "service", "component", "audit", "method", "Record", "event", line.Event, "error", err.Error())
		return
	}
	if _, err := r.f.Write(append(b, '\n')); err != nil {
		r.logger.Error("audit error", "layer", "service", "component", "audit", "method", "Record", "event", line.Event, "error", err.Error())
	}
}

func (r *Recorder) Close() error {
	r.fileMu.Lock()
	defer r.fileMu.Unlock()
	if r.f == nil {
		return nil
	}
	err := r.f.Close()
	if err != nil {
		r.logger.Error("audit error", "layer", "service", "component", "audit", "method", "Close", "error", err.Error())
	}
	r.f = nil
	return err
}
