package httpx_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"paymentswitch/internal/cache"
	"paymentswitch/internal/connector"
	"paymentswitch/internal/connector/adyen"
	"paymentswitch/internal/connector/stripe"
	"paymentswitch/internal/domain/event"
	httpx "paymentswitch/internal/http"
	middlewarex "paymentswitch/internal/http/middleware"
	"paymentswitch/internal/lock"
	"paymentswitch/internal/metrics"
	"paymentswitch/internal/outgoing"
	paymentsvc "paymentswitch/internal/services/payment"
	"paymentswitch/internal/services/webhook"
	"paymentswitch/internal/store/memory"
)

const adminToken = "admin-secret"

var secretKey = []byte("0123456789abcdef0123456789abcdef")

type fakeProcessor struct {
	got webhook.Incoming
	out *webhook.Outcome
	err error
}

func (f *fakeProcessor) Process(ctx context.Context, in webhook.Incoming) (*webhook.Outcome, error) {
	f.got = in
	if m, ok := middlewarex.MerchantID(ctx); !ok || m != in.MerchantID {
		return nil, fmt.Errorf("merchant scope missing")
	}
	return f.out, f.err
}

type env struct {
	handler   http.Handler
	processor *fakeProcessor
	gate      *webhook.Gate
	secrets   *webhook.Secrets
	shared    cache.Store
	metrics   *metrics.Webhooks
}

func newRegistry() *connector.Registry {
	r := connector.NewRegistry()
	r.Register(adyen.New(adyen.Config{}))
	r.Register(stripe.New("", 0))
	return r
}

func newEnv(t *testing.T) *env {
	t.Helper()
	shared := cache.NewMemory()
	e := &env{
		processor: &fakeProcessor{out: &webhook.Outcome{Ack: connector.TextAck("[accepted]")}},
		gate:      webhook.NewGate(shared),
		secrets:   webhook.NewSecrets(shared, secretKey, time.Minute),
		shared:    shared,
		metrics:   metrics.NewWebhooks(),
	}
	e.handler = httpx.NewRouter(httpx.RouterDependencies{
		AdminToken: adminToken,
		Pipeline:   e.processor,
		Registry:   newRegistry(),
		Gate:       e.gate,
		Secrets:    e.secrets,
		Metrics:    e.metrics,
	})
	return e
}

func (e *env) do(method, path, body string, header http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	for k, v := range header {
		req.Header[k] = v
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func admin() http.Header {
	return http.Header{"X-Admin-Token": []string{adminToken}}
}

func TestHealth(t *testing.T) {
	e := newEnv(t)
	rec := e.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestIncomingWebhook_PassesRequestThrough(t *testing.T) {
	e := newEnv(t)
	rec := e.do(http.MethodPost, "/webhooks/merchant_1/adyen?x=1", `{"live":"false"}`,
		http.Header{"X-Test": []string{"a", "b"}})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[accepted]", rec.Body.String())
	assert.Equal(t, "text/plain", rec.Header().Get("Content-Type"))

	got := e.processor.got
	assert.Equal(t, "merchant_1", got.MerchantID)
	assert.Equal(t, "adyen", got.Segment)
	assert.False(t, got.Relay)
	require.NotNil(t, got.Request)
	assert.Equal(t, http.MethodPost, got.Request.Method)
	assert.Equal(t, "/webhooks/merchant_1/adyen", got.Request.URI)
	assert.Equal(t, "x=1", got.Request.RawQuery)
	assert.Equal(t, []string{"a", "b"}, got.Request.Headers.Values("X-Test"))
	assert.Equal(t, `{"live":"false"}`, string(got.Request.Body))
}

func TestRelayWebhook(t *testing.T) {
	e := newEnv(t)
	e.processor.out = &webhook.Outcome{Ack: connector.JSONAck()}

	rec := e.do(http.MethodPost, "/webhooks/relay/merchant_1/mca_stripe", `{}`, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.True(t, e.processor.got.Relay)
	assert.Equal(t, "mca_stripe", e.processor.got.Segment)
}

func TestIncomingWebhook_ErrorStatus(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"authentication", fmt.Errorf("verify: %w", webhook.ErrWebhookAuthenticationFailed), http.StatusUnauthorized},
		{"not found", webhook.ErrResourceNotFound, http.StatusNotFound},
		{"decoding", connector.ErrWebhookBodyDecodingFailed, http.StatusBadRequest},
		{"unresolved reference", fmt.Errorf("object reference: %w", webhook.ErrReferenceUnresolved), http.StatusUnprocessableEntity},
		{"processing", webhook.ErrWebhookProcessingFailure, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := newEnv(t)
			e.processor.err = tc.err
			e.processor.out = nil

			rec := e.do(http.MethodPost, "/webhooks/merchant_1/stripe", `{}`, nil)
			assert.Equal(t, tc.want, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
		})
	}
}

func TestIncomingWebhook_UnknownAccount(t *testing.T) {
	store := memory.New()
	shared := cache.NewMemory()
	recorder := &outgoing.Recorder{}
	registry := newRegistry()
	payments := paymentsvc.NewService(store, nil, lock.NewMemory(), recorder, nil, paymentsvc.Config{
		LockTTL:  time.Second,
		LockWait: time.Second,
	})
	gate := webhook.NewGate(shared)
	secrets := webhook.NewSecrets(shared, secretKey, time.Minute)
	m := metrics.NewWebhooks()
	pipeline := webhook.NewPipeline(webhook.Deps{
		Registry: registry,
		Store:    store,
		Payments: payments,
		Notifier: recorder,
		Cache:    shared,
		Secrets:  secrets,
		Gate:     gate,
		Metrics:  m,
	}, webhook.Config{AckOnNotFound: []string{adyen.Name}})

	h := httpx.NewRouter(httpx.RouterDependencies{
		AdminToken: adminToken,
		Pipeline:   pipeline,
		Registry:   registry,
		Gate:       gate,
		Secrets:    secrets,
		Metrics:    m,
	})

	req := httptest.NewRequest(http.MethodPost, "/webhooks/merchant_1/mca_unknown", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Empty(t, recorder.Events())
}

func TestAdmin_RequiresToken(t *testing.T) {
	e := newEnv(t)

	rec := e.do(http.MethodGet, "/admin/connectors", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = e.do(http.MethodGet, "/admin/connectors", "", http.Header{"X-Admin-Token": []string{"wrong"}})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAdmin_EmptyTokenLocksEndpoints(t *testing.T) {
	h := httpx.NewRouter(httpx.RouterDependencies{Registry: newRegistry(), Metrics: metrics.NewWebhooks()})
	req := httptest.NewRequest(http.MethodGet, "/admin/connectors", nil)
	req.Header.Set("X-Admin-Token", "")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAdmin_DisabledEvents(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	path := "/admin/merchants/merchant_1/connectors/adyen/disabled-events/" + string(event.TypeRefundSuccess)

	rec := e.do(http.MethodPut, path, "", admin())
	require.Equal(t, http.StatusNoContent, rec.Code)
	disabled, err := e.gate.Disabled(ctx, "merchant_1", "adyen", event.TypeRefundSuccess)
	require.NoError(t, err)
	assert.True(t, disabled)

	rec = e.do(http.MethodDelete, path, "", admin())
	require.Equal(t, http.StatusNoContent, rec.Code)
	disabled, err = e.gate.Disabled(ctx, "merchant_1", "adyen", event.TypeRefundSuccess)
	require.NoError(t, err)
	assert.False(t, disabled)
}

func TestAdmin_DisabledEventsValidation(t *testing.T) {
	e := newEnv(t)

	rec := e.do(http.MethodPut, "/admin/merchants/merchant_1/connectors/paypal/disabled-events/refund_success", "", admin())
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = e.do(http.MethodPut, "/admin/merchants/merchant_1/connectors/adyen/disabled-events/event_not_supported", "", admin())
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdmin_WebhookSecret(t *testing.T) {
	e := newEnv(t)
	path := "/admin/merchants/merchant_1/connectors/stripe/webhook-secret"

	rec := e.do(http.MethodPut, path, `{"secret":""}`, admin())
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = e.do(http.MethodPut, path, `{"secret":"whsec_fallback"}`, admin())
	require.Equal(t, http.StatusNoContent, rec.Code)

	stored, err := e.shared.Get(context.Background(), "whconf:merchant_1:stripe")
	require.NoError(t, err)
	assert.NotContains(t, string(stored), "whsec_fallback")
}

func TestAdmin_MetricsAndConnectors(t *testing.T) {
	e := newEnv(t)
	e.metrics.Received()
	e.metrics.Processed("payment")

	rec := e.do(http.MethodGet, "/admin/metrics/webhooks", "", admin())
	require.Equal(t, http.StatusOK, rec.Code)
	var snap metrics.Snapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	assert.EqualValues(t, 1, snap.Received)
	assert.EqualValues(t, 1, snap.Processed["payment"])

	rec = e.do(http.MethodGet, "/admin/connectors", "", admin())
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Connectors []connector.Info `json:"connectors"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	names := make([]string, 0, len(body.Connectors))
	for _, c := range body.Connectors {
		names = append(names, c.Name)
	}
	assert.ElementsMatch(t, []string{adyen.Name, stripe.Name}, names)
}
