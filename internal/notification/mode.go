package notification

import (
	"fmt"
	"time"
)

// Mode is the active notification transport: Webhook or Polling.
type Mode interface {
	fmt.Stringer
	isMode()
}

type Webhook struct {
	PublicURL string
}

func (Webhook) isMode() {}

func (m Webhook) String() string { return "webhook(" + m.PublicURL + ")" }

type Polling struct {
	Interval time.Duration
}

func (Polling) isMode() {}

func (m Polling) String() string { return "polling(" + m.Interval.String() + ")" }
