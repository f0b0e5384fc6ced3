package webhook

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"

	"pixwatch/internal/events"
	"pixwatch/kit/broker"
	"pixwatch/kit/observability"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

type signalRecorder struct {
	mu      sync.Mutex
	signals []events.PaymentUpdateSignal
}

func recordSignals(bus *broker.Bus) *signalRecorder {
	r := &signalRecorder{}
	bus.Subscribe(events.PaymentUpdateSignal{}.Name(), func(ctx context.Context, evt broker.Event) error {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.signals = append(r.signals, evt.(events.PaymentUpdateSignal))
		return nil
	})
	return r
}

func (r *signalRecorder) IDs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var ids []string
	for _, s := range r.signals {
		ids = append(ids, s.PaymentID)
	}
	return ids
}

func TestReceiver_Handle(t *testing.T) {
	var tests = []struct {
		name         string
		method       string
		path         string
		body         string
		expectedCode int
		expectedIDs  []string
	}{
		{name: "payment updated", method: http.MethodPost, path: "/", body: `{"action":"payment.updated","data":{"id":"123"}}`, expectedCode: http.StatusOK, expectedIDs: []string{"123"}},
		{name: "numeric id", method: http.MethodPost, path: "/hooks/mp", body: `{"action":"payment.updated","data":{"id":123}}`, expectedCode: http.StatusOK, expectedIDs: []string{"123"}},
		{name: "other action acknowledged", method: http.MethodPost, path: "/", body: `{"action":"payment.created","data":{"id":"123"}}`, expectedCode: http.StatusOK},
		{name: "telemetry ping", method: http.MethodPost, path: "/", body: `{"topic":"payment","resource":"https://api/1"}`, expectedCode: http.StatusOK},
		{name: "any method", method: http.MethodPut, path: "/x", body: `{"topic":"merchant_order"}`, expectedCode: http.StatusOK},
		{name: "missing id", method: http.MethodPost, path: "/", body: `{"action":"payment.updated","data":{}}`, expectedCode: http.StatusBadRequest},
		{name: "missing data", method: http.MethodPost, path: "/", body: `{"action":"payment.updated"}`, expectedCode: http.StatusBadRequest},
		{name: "boolean id", method: http.MethodPost, path: "/", body: `{"action":"payment.updated","data":{"id":true}}`, expectedCode: http.StatusBadRequest},
		{name: "unknown shape", method: http.MethodPost, path: "/", body: `{"hello":"world"}`, expectedCode: http.StatusBadRequest},
		{name: "invalid json", method: http.MethodPost, path: "/", body: `{not json`, expectedCode: http.StatusBadRequest},
		{name: "json array", method: http.MethodPost, path: "/", body: `[1,2]`, expectedCode: http.StatusBadRequest},
		{name: "json null", method: http.MethodPost, path: "/", body: `null`, expectedCode: http.StatusBadRequest},
		{name: "empty body", method: http.MethodPost, path: "/", body: ``, expectedCode: http.StatusBadRequest},
		{name: "oversized body", method: http.MethodPost, path: "/", body: `{"topic":"` + strings.Repeat("a", DefaultMaxBytes) + `"}`, expectedCode: http.StatusBadRequest},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			bus := broker.New()
			rec := recordSignals(bus)
			metrics := observability.NewMetrics()
			router := NewReceiver(bus, observability.NewNopLogger(), metrics).Router()

			w := httptest.NewRecorder()
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			router.ServeHTTP(w, req)

			require.Equal(t, tt.expectedCode, w.Code)
			require.Equal(t, tt.expectedIDs, rec.IDs())
			if tt.expectedCode == http.StatusBadRequest {
				require.EqualValues(t, 1, metrics.WebhooksRejected.Load())
			}
		})
	}
}

func TestReceiver_KeepsServingAfterInvalidRequest(t *testing.T) {
	bus := broker.New()
	rec := recordSignals(bus)
	router := NewReceiver(bus, nil, nil).Router()

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{oops`)))
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"action":"payment.updated","data":{"id":"42"}}`)))
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, []string{"42"}, rec.IDs())
}

func TestReceiver_SignalSource(t *testing.T) {
	bus := broker.New()
	rec := recordSignals(bus)
	router := NewReceiver(bus, nil, nil).Router()

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"action":"payment.updated","data":{"id":"7"}}`)))
	require.Equal(t, http.StatusOK, w.Code)

	require.Len(t, rec.signals, 1)
	require.Equal(t, "webhook", rec.signals[0].Source)
	require.True(t, rec.signals[0].Qualified())
	require.False(t, rec.signals[0].At.IsZero())
}

func TestReceiver_LogsSignalHandlerErrors(t *testing.T) {
	bus := broker.New()
	bus.Subscribe(events.PaymentUpdateSignal{}.Name(), func(ctx context.Context, evt broker.Event) error {
		return errors.New("reconcile queue full")
	})
	core, logs := observer.New(zapcore.InfoLevel)
	router := NewReceiver(bus, observability.NewLoggerWithCore(core), observability.NewMetrics()).Router()

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"action":"payment.updated","data":{"id":"9"}}`)))
	require.Equal(t, http.StatusOK, w.Code)

	entries := logs.FilterMessage("notification error").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	require.Equal(t, "handler", fields["layer"])
	require.Equal(t, "webhook", fields["component"])
	require.Equal(t, "Handle", fields["method"])
	require.Equal(t, "9", fields["payment_id"])
	require.Equal(t, "reconcile queue full", fields["error"])
}
