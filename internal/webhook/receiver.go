package webhook

import (
	"net/http"
	"time"

	"pixwatch/internal/events"
	"pixwatch/kit/broker"
	"pixwatch/kit/observability"

	"github.com/gin-gonic/gin"
)

const ActionPaymentUpdated = "payment.updated"

// Receiver turns provider notifications into update signals on the bus.
// Every request gets a response; malformed ones are rejected without
// affecting later requests.
type Receiver struct {
	bus       broker.Publisher
	validator *JSON
	logger    *observability.Logger
	metrics   *observability.Metrics
}

func NewReceiver(bus broker.Publisher, logger *observability.Logger, metrics *observability.Metrics) *Receiver {
	return &Receiver{bus: bus, validator: NewJSON(), logger: logger, metrics: metrics}
}

func (r *Receiver) Handle(c *gin.Context) {
	body, err := r.validator.Decode(c.Writer, c.Request)
	if err != nil {
		r.reject(c, err)
		return
	}

	if !body.Has("action") {
		if body.Has("topic") {
			c.Status(http.StatusOK)
			return
		}
		r.reject(c, ErrInvalidRequest)
		return
	}

	id := body.DataID()
	if id == "" {
		r.reject(c, ErrInvalidRequest)
		return
	}
	if body.Action() == ActionPaymentUpdated {
		for _, err := range r.bus.Publish(c.Request.Context(), events.PaymentUpdateSignal{PaymentID: id, Source: "webhook", At: time.Now().UTC()}) {
			r.logger.Error("notification error", "layer", "handler", "component", "webhook", "method", "Handle",
				"payment_id", id, "error", err.Error())
		}
	}

	r.metrics.WebhooksAcceptedAdd(1)
	c.Status(http.StatusOK)
}

func (r *Receiver) reject(c *gin.Context, err error) {
	r.metrics.WebhooksRejectedAdd(1)
	r.logger.Warn("ignoring invalid webhook request", "layer", "handler", "component", "webhook", "method", "Handle",
		"path", c.Request.URL.Path, "error", err.Error())
	c.Status(http.StatusBadRequest)
}

// Router answers every method and path with Handle.
func (r *Receiver) Router() *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Any("/*path", r.Handle)
	return engine
}
