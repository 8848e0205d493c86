package webhook_test

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"paymentswitch/internal/cache"
	"paymentswitch/internal/connector"
	"paymentswitch/internal/connector/adyen"
	"paymentswitch/internal/connector/stripe"
	"paymentswitch/internal/domain/dispute"
	"paymentswitch/internal/domain/event"
	"paymentswitch/internal/domain/merchant"
	"paymentswitch/internal/domain/payment"
	"paymentswitch/internal/domain/payout"
	"paymentswitch/internal/domain/refund"
	"paymentswitch/internal/domain/relay"
	"paymentswitch/internal/lock"
	"paymentswitch/internal/metrics"
	"paymentswitch/internal/outgoing"
	paymentsvc "paymentswitch/internal/services/payment"
	"paymentswitch/internal/services/webhook"
	"paymentswitch/internal/store/memory"
	"paymentswitch/internal/ucs"
)

const (
	merchantID = "merchant_1"
	hmacKey    = "44782DEF547AAA06C910C43932B1EB0C71FC68D9D0C057550C48EC2ACF6BA056"
)

var secretKey = []byte("0123456789abcdef0123456789abcdef")

type fakeUCS struct {
	result    *ucs.Result
	err       error
	synced    *connector.PaymentsResponse
	syncCalls atomic.Int32
}

func (f *fakeUCS) TransformWebhook(context.Context, ucs.TransformRequest) (*ucs.Result, error) {
	return f.result, f.err
}

func (f *fakeUCS) SyncPayment(context.Context, ucs.SyncRequest) (*connector.PaymentsResponse, error) {
	f.syncCalls.Add(1)
	if f.synced == nil {
		return nil, errors.New("unexpected sync")
	}
	return f.synced, nil
}

type fakeSender struct {
	calls   atomic.Int32
	mu      sync.Mutex
	urls    []string
	respond func(*connector.Request) *connector.Response
}

func (s *fakeSender) Send(_ context.Context, req *connector.Request) (*connector.Response, error) {
	s.calls.Add(1)
	s.mu.Lock()
	s.urls = append(s.urls, req.URL)
	s.mu.Unlock()
	if s.respond == nil {
		return nil, errors.New("no network in tests")
	}
	return s.respond(req), nil
}

func (s *fakeSender) sent() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.urls...)
}

func jsonResponse(status int, body string) *connector.Response {
	return &connector.Response{StatusCode: status, Headers: http.Header{"Content-Type": []string{"application/json"}}, Body: []byte(body)}
}

type harness struct {
	pipeline *webhook.Pipeline
	store    *memory.Store
	recorder *outgoing.Recorder
	ucs      *fakeUCS
	sender   *fakeSender
	gate     *webhook.Gate
	cache    cache.Store
	metrics  *metrics.Webhooks
}

func newHarness(t *testing.T, cfg webhook.Config) *harness {
	t.Helper()
	ctx := context.Background()

	store := memory.New()
	adyenAcct := &merchant.ConnectorAccount{
		ID:            "mca_adyen",
		MerchantID:    merchantID,
		ProfileID:     "pro_1",
		ConnectorName: adyen.Name,
		Environment:   merchant.EnvironmentTest,
		Auth:          merchant.ConnectorAuth{Type: merchant.AuthBodyKey, APIKey: "api_key", Key1: "TestMerchant"},
	}
	require.NoError(t, adyenAcct.SetWebhookSecret(hmacKey, secretKey))
	require.NoError(t, store.SaveConnectorAccount(ctx, adyenAcct))

	stripeAcct := &merchant.ConnectorAccount{
		ID:            "mca_stripe",
		MerchantID:    merchantID,
		ProfileID:     "pro_1",
		ConnectorName: stripe.Name,
		Environment:   merchant.EnvironmentTest,
		Auth:          merchant.ConnectorAuth{Type: merchant.AuthHeaderKey, APIKey: "sk_test"},
	}
	require.NoError(t, stripeAcct.SetWebhookSecret("whsec_test", secretKey))
	require.NoError(t, store.SaveConnectorAccount(ctx, stripeAcct))

	registry := connector.NewRegistry()
	registry.Register(adyen.New(adyen.Config{}))
	registry.Register(stripe.New("", 0))

	h := &harness{
		store:    store,
		recorder: &outgoing.Recorder{},
		ucs:      &fakeUCS{},
		sender:   &fakeSender{},
		metrics:  metrics.NewWebhooks(),
	}
	shared := cache.NewMemory()
	h.cache = shared
	h.gate = webhook.NewGate(shared)
	payments := paymentsvc.NewService(store, h.sender, lock.NewMemory(), h.recorder, h.ucs, paymentsvc.Config{
		LockTTL:  time.Second,
		LockWait: 2 * time.Second,
	})
	h.pipeline = webhook.NewPipeline(webhook.Deps{
		Registry: registry,
		Store:    store,
		Payments: payments,
		Sender:   h.sender,
		UCS:      h.ucs,
		Notifier: h.recorder,
		Cache:    shared,
		Secrets:  webhook.NewSecrets(shared, secretKey, time.Minute),
		Gate:     h.gate,
		Metrics:  h.metrics,
	}, cfg)
	return h
}

func (h *harness) seedPayment(t *testing.T, paymentID, attemptID, pmID string) {
	t.Helper()
	now := time.Now().UTC()
	intent := &payment.Intent{
		ID:              paymentID,
		MerchantID:      merchantID,
		ProfileID:       "pro_1",
		Status:          payment.IntentProcessing,
		Amount:          1000,
		Currency:        "EUR",
		ActiveAttemptID: attemptID,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	attempt := &payment.Attempt{
		ID:                     attemptID,
		PaymentID:              paymentID,
		MerchantID:             merchantID,
		Connector:              adyen.Name,
		MerchantConnectorID:    "mca_adyen",
		Status:                 payment.AttemptPending,
		Amount:                 1000,
		Currency:               "EUR",
		CaptureMethod:          payment.CaptureAutomatic,
		PaymentMethod:          payment.MethodCard,
		PaymentMethodType:      payment.TypeCredit,
		PaymentMethodID:        pmID,
		ConnectorTransactionID: "psp_" + paymentID,
		CreatedAt:              now,
		UpdatedAt:              now,
	}
	require.NoError(t, h.store.SavePayment(context.Background(), intent, attempt))
}

func (h *harness) eventsOf(class event.Class) []outgoing.Recorded {
	var out []outgoing.Recorded
	for _, e := range h.recorder.Events() {
		if e.Class == class {
			out = append(out, e)
		}
	}
	return out
}

type adyenItem struct {
	EventCode         string
	Success           string
	PSP               string
	OriginalReference string
	MerchantReference string
	AdditionalData    map[string]string
}

func adyenNotification(t *testing.T, it adyenItem, sign bool) *connector.IncomingWebhookRequest {
	t.Helper()
	add := map[string]string{}
	for k, v := range it.AdditionalData {
		add[k] = v
	}
	if sign {
		msg := it.PSP + ":" + it.OriginalReference + ":TestMerchant:" + it.MerchantReference + ":1000:EUR:" + it.EventCode + ":" + it.Success
		key, err := hex.DecodeString(hmacKey)
		require.NoError(t, err)
		mac := hmac.New(sha256.New, key)
		mac.Write([]byte(msg))
		add["hmacSignature"] = base64.StdEncoding.EncodeToString(mac.Sum(nil))
	}
	body, err := json.Marshal(map[string]any{
		"live": "false",
		"notificationItems": []any{map[string]any{
			"NotificationRequestItem": map[string]any{
				"additionalData":      add,
				"amount":              map[string]any{"currency": "EUR", "value": 1000},
				"eventCode":           it.EventCode,
				"eventDate":           "2024-03-01T10:00:00+01:00",
				"merchantAccountCode": "TestMerchant",
				"merchantReference":   it.MerchantReference,
				"originalReference":   it.OriginalReference,
				"pspReference":        it.PSP,
				"success":             it.Success,
			},
		}},
	})
	require.NoError(t, err)
	return &connector.IncomingWebhookRequest{Method: http.MethodPost, URI: "/webhooks/merchant_1/adyen", Headers: http.Header{}, Body: body}
}

func authorisation(t *testing.T, attemptID string, extra map[string]string) *connector.IncomingWebhookRequest {
	return adyenNotification(t, adyenItem{
		EventCode:         "AUTHORISATION",
		Success:           "true",
		PSP:               "psp_auth",
		MerchantReference: attemptID,
		AdditionalData:    extra,
	}, true)
}

func adyenIn(req *connector.IncomingWebhookRequest) webhook.Incoming {
	return webhook.Incoming{MerchantID: merchantID, Segment: adyen.Name, Request: req}
}

func TestProcess_DirectPaymentSuccess(t *testing.T) {
	h := newHarness(t, webhook.Config{})
	h.seedPayment(t, "pay_123", "att_123", "")

	out, err := h.pipeline.Process(context.Background(), adyenIn(authorisation(t, "att_123", nil)))
	require.NoError(t, err)

	assert.Equal(t, event.TypePaymentIntentSuccess, out.EventType)
	assert.Equal(t, webhook.PathDirect, out.Path)
	assert.Equal(t, "[accepted]", string(out.Ack.Body))
	assert.Equal(t, event.PaymentTracker{PaymentID: "pay_123", Status: string(payment.IntentSucceeded)}, out.Tracker)

	intent, err := h.store.FindIntent(context.Background(), merchantID, "pay_123")
	require.NoError(t, err)
	assert.Equal(t, payment.IntentSucceeded, intent.Status)
	payments := h.eventsOf(event.ClassPayments)
	require.Len(t, payments, 1)
	assert.Equal(t, "pay_123", payments[0].ObjectID)
	notified, ok := payments[0].Snapshot.(paymentsvc.Snapshot)
	require.True(t, ok)
	assert.Equal(t, payment.IntentSucceeded, notified.Status)

	snap := h.metrics.Snapshot()
	assert.EqualValues(t, 1, snap.Received)
	assert.EqualValues(t, 1, snap.SourceVerified)
	assert.EqualValues(t, 1, snap.Processed["payment"])
	assert.Zero(t, h.sender.calls.Load())
}

func TestProcess_UCSCompleteIsConsumedWithoutSync(t *testing.T) {
	h := newHarness(t, webhook.Config{UCS: webhook.UCSConfig{Enabled: true, Connectors: []string{adyen.Name}}})
	h.seedPayment(t, "pay_123", "att_123", "")
	h.ucs.result = &ucs.Result{
		EventType:      event.TypePaymentIntentSuccess,
		SourceVerified: true,
		Payload: &ucs.Payload{
			Status:    ucs.TransformComplete,
			Reference: &event.ReferenceDTO{Kind: "payment", IDType: string(event.PaymentByAttemptID), ID: "att_123"},
			PaymentsResponse: &connector.PaymentsResponse{
				ConnectorTransactionID: "psp_pay_123",
				Status:                 payment.AttemptCharged,
			},
		},
	}

	req := &connector.IncomingWebhookRequest{Method: http.MethodPost, Body: []byte("opaque to the switch")}
	out, err := h.pipeline.Process(context.Background(), adyenIn(req))
	require.NoError(t, err)
	assert.Equal(t, webhook.PathUCS, out.Path)

	intent, err := h.store.FindIntent(context.Background(), merchantID, "pay_123")
	require.NoError(t, err)
	assert.Equal(t, payment.IntentSucceeded, intent.Status)
	assert.Len(t, h.eventsOf(event.ClassPayments), 1)
	assert.Zero(t, h.ucs.syncCalls.Load())
}

func TestProcess_ShadowDirectFailureWins(t *testing.T) {
	h := newHarness(t, webhook.Config{UCS: webhook.UCSConfig{Enabled: true, ShadowConnectors: []string{adyen.Name}}})
	h.seedPayment(t, "pay_123", "att_123", "")
	h.ucs.result = &ucs.Result{EventType: event.TypePaymentIntentSuccess, SourceVerified: true}

	req := &connector.IncomingWebhookRequest{Method: http.MethodPost, Body: []byte("not json")}
	_, err := h.pipeline.Process(context.Background(), adyenIn(req))
	require.Error(t, err)
	assert.ErrorIs(t, err, connector.ErrWebhookBodyDecodingFailed)

	intent, err := h.store.FindIntent(context.Background(), merchantID, "pay_123")
	require.NoError(t, err)
	assert.Equal(t, payment.IntentProcessing, intent.Status)
	assert.Empty(t, h.recorder.Events())
	assert.EqualValues(t, 1, h.metrics.Snapshot().Failed)
}

func TestProcess_ShadowUsesDirectResult(t *testing.T) {
	h := newHarness(t, webhook.Config{UCS: webhook.UCSConfig{Enabled: true, ShadowConnectors: []string{adyen.Name}}})
	h.seedPayment(t, "pay_123", "att_123", "")
	h.ucs.err = errors.New("service unavailable")

	out, err := h.pipeline.Process(context.Background(), adyenIn(authorisation(t, "att_123", nil)))
	require.NoError(t, err)
	assert.Equal(t, webhook.PathShadowUCS, out.Path)
	assert.Equal(t, event.PaymentTracker{PaymentID: "pay_123", Status: string(payment.IntentSucceeded)}, out.Tracker)
}

func TestProcess_NotFound(t *testing.T) {
	t.Run("acknowledged when configured", func(t *testing.T) {
		h := newHarness(t, webhook.Config{AckOnNotFound: []string{adyen.Name}})

		out, err := h.pipeline.Process(context.Background(), adyenIn(authorisation(t, "att_missing", nil)))
		require.NoError(t, err)
		assert.Equal(t, event.NoEffect{}, out.Tracker)
		assert.Equal(t, "[accepted]", string(out.Ack.Body))
		assert.EqualValues(t, 1, h.metrics.Snapshot().NotFoundAcked)
	})

	t.Run("error otherwise", func(t *testing.T) {
		h := newHarness(t, webhook.Config{})

		_, err := h.pipeline.Process(context.Background(), adyenIn(authorisation(t, "att_missing", nil)))
		assert.ErrorIs(t, err, webhook.ErrResourceNotFound)
	})

	t.Run("unknown connector account", func(t *testing.T) {
		h := newHarness(t, webhook.Config{AckOnNotFound: []string{adyen.Name}})

		_, err := h.pipeline.Process(context.Background(), webhook.Incoming{
			MerchantID: merchantID,
			Segment:    "mca_unknown",
			Request:    authorisation(t, "att_1", nil),
		})
		assert.ErrorIs(t, err, webhook.ErrResourceNotFound)
	})
}

func TestProcess_StripeBadSignatureRejected(t *testing.T) {
	h := newHarness(t, webhook.Config{})
	body := []byte(`{"id":"evt_1","object":"event","type":"payment_intent.succeeded","data":{"object":{"id":"pi_1","object":"payment_intent","status":"succeeded"}}}`)
	req := &connector.IncomingWebhookRequest{
		Method:  http.MethodPost,
		Headers: http.Header{"Stripe-Signature": []string{"t=1700000000,v1=00ab"}},
		Body:    body,
	}

	_, err := h.pipeline.Process(context.Background(), webhook.Incoming{MerchantID: merchantID, Segment: stripe.Name, Request: req})
	assert.ErrorIs(t, err, webhook.ErrWebhookAuthenticationFailed)
	assert.Empty(t, h.recorder.Events())
	assert.Zero(t, h.sender.calls.Load())
}

func TestProcess_UnverifiedAdyenDoesNotTrustBody(t *testing.T) {
	h := newHarness(t, webhook.Config{})
	h.seedPayment(t, "pay_123", "att_123", "")
	req := adyenNotification(t, adyenItem{EventCode: "AUTHORISATION", Success: "true", PSP: "psp_auth", MerchantReference: "att_123"}, false)

	out, err := h.pipeline.Process(context.Background(), adyenIn(req))
	require.NoError(t, err)
	assert.Equal(t, event.PaymentTracker{PaymentID: "pay_123", Status: string(payment.IntentProcessing)}, out.Tracker)
	assert.Empty(t, h.recorder.Events())
	assert.Zero(t, h.metrics.Snapshot().SourceVerified)
}

func TestProcess_DuplicateDeliveriesNotifyOnce(t *testing.T) {
	h := newHarness(t, webhook.Config{})
	h.seedPayment(t, "pay_123", "att_123", "")
	req := authorisation(t, "att_123", nil)

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := h.pipeline.Process(context.Background(), adyenIn(req))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	_, err := h.pipeline.Process(context.Background(), adyenIn(req))
	require.NoError(t, err)
	assert.Len(t, h.eventsOf(event.ClassPayments), 1)
}

func TestProcess_MandateFirstWriterWins(t *testing.T) {
	h := newHarness(t, webhook.Config{})
	ctx := context.Background()
	require.NoError(t, h.store.SavePaymentMethod(ctx, &payment.MethodRecord{ID: "pm_1", MerchantID: merchantID, CustomerID: "cus_1"}))
	h.seedPayment(t, "pay_a", "att_a", "pm_1")
	h.seedPayment(t, "pay_b", "att_b", "pm_1")

	_, err := h.pipeline.Process(ctx, adyenIn(authorisation(t, "att_a", map[string]string{
		"recurring.recurringDetailReference": "mandate_first",
		"networkTxReference":                 "ntid_first",
		"cardSummary":                        "1111",
		"expiryDate":                         "03/2030",
	})))
	require.NoError(t, err)
	_, err = h.pipeline.Process(ctx, adyenIn(authorisation(t, "att_b", map[string]string{
		"recurring.recurringDetailReference": "mandate_second",
		"networkTxReference":                 "ntid_second",
	})))
	require.NoError(t, err)

	pm, err := h.store.FindPaymentMethod(ctx, merchantID, "pm_1")
	require.NoError(t, err)
	require.Contains(t, pm.Mandates, "mca_adyen")
	assert.Equal(t, "mandate_first", pm.Mandates["mca_adyen"].ConnectorMandateID)
	assert.Equal(t, payment.MinorUnit(1000), pm.Mandates["mca_adyen"].OriginalAmount)
	assert.Equal(t, "ntid_first", pm.NetworkTransactionID)
	assert.Equal(t, "1111", pm.CardLast4)
	assert.Equal(t, "03/2030", pm.CardExpiry)

	b, err := h.store.FindAttempt(ctx, merchantID, "att_b")
	require.NoError(t, err)
	assert.Equal(t, "mandate_second", b.ConnectorMandateID)
}

func TestProcess_EventGate(t *testing.T) {
	h := newHarness(t, webhook.Config{})
	h.seedPayment(t, "pay_123", "att_123", "")
	ctx := context.Background()
	require.NoError(t, h.gate.Disable(ctx, merchantID, adyen.Name, event.TypePaymentIntentSuccess))

	out, err := h.pipeline.Process(ctx, adyenIn(authorisation(t, "att_123", nil)))
	require.NoError(t, err)
	assert.Equal(t, event.NoEffect{}, out.Tracker)
	assert.EqualValues(t, 1, h.metrics.Snapshot().Filtered)

	intent, err := h.store.FindIntent(ctx, merchantID, "pay_123")
	require.NoError(t, err)
	assert.Equal(t, payment.IntentProcessing, intent.Status)

	require.NoError(t, h.gate.Enable(ctx, merchantID, adyen.Name, event.TypePaymentIntentSuccess))
	out, err = h.pipeline.Process(ctx, adyenIn(authorisation(t, "att_123", nil)))
	require.NoError(t, err)
	assert.Equal(t, event.PaymentTracker{PaymentID: "pay_123", Status: string(payment.IntentSucceeded)}, out.Tracker)
}

func TestProcess_UnsupportedEventFiltered(t *testing.T) {
	h := newHarness(t, webhook.Config{})
	req := adyenNotification(t, adyenItem{EventCode: "REPORT_AVAILABLE", Success: "true", PSP: "psp_r"}, true)

	out, err := h.pipeline.Process(context.Background(), adyenIn(req))
	require.NoError(t, err)
	assert.Equal(t, event.TypeEventNotSupported, out.EventType)
	assert.Equal(t, event.NoEffect{}, out.Tracker)
	assert.EqualValues(t, 1, h.metrics.Snapshot().Filtered)
}

func TestProcess_EndpointVerificationAcked(t *testing.T) {
	h := newHarness(t, webhook.Config{UCS: webhook.UCSConfig{Enabled: true, Connectors: []string{adyen.Name}}})
	h.ucs.result = &ucs.Result{EventType: event.TypeEndpointVerification}

	out, err := h.pipeline.Process(context.Background(), adyenIn(&connector.IncomingWebhookRequest{Body: []byte("{}")}))
	require.NoError(t, err)
	assert.Equal(t, event.NoEffect{}, out.Tracker)
	assert.Equal(t, "[accepted]", string(out.Ack.Body))
}

func TestProcess_Refund(t *testing.T) {
	h := newHarness(t, webhook.Config{})
	ctx := context.Background()
	h.seedPayment(t, "pay_123", "att_123", "")
	require.NoError(t, h.store.SaveRefund(ctx, &refund.Refund{
		ID:                     "ref_1",
		PaymentID:              "pay_123",
		AttemptID:              "att_123",
		MerchantID:             merchantID,
		Connector:              adyen.Name,
		MerchantConnectorID:    "mca_adyen",
		ConnectorTransactionID: "psp_pay_123",
		Amount:                 500,
		Currency:               "EUR",
		Status:                 refund.StatusPending,
	}))
	req := adyenNotification(t, adyenItem{EventCode: "REFUND", Success: "true", PSP: "ref_psp", OriginalReference: "psp_pay_123", MerchantReference: "ref_1"}, true)

	out, err := h.pipeline.Process(ctx, adyenIn(req))
	require.NoError(t, err)
	assert.Equal(t, event.RefundTracker{PaymentID: "pay_123", RefundID: "ref_1", Status: string(refund.StatusSuccess)}, out.Tracker)

	r, err := h.store.FindRefund(ctx, merchantID, "ref_1")
	require.NoError(t, err)
	assert.Equal(t, refund.StatusSuccess, r.Status)
	assert.Len(t, h.eventsOf(event.ClassRefunds), 1)

	_, err = h.pipeline.Process(ctx, adyenIn(req))
	require.NoError(t, err)
	assert.Len(t, h.eventsOf(event.ClassRefunds), 1)
}

func TestProcess_Dispute(t *testing.T) {
	t.Run("created on first notification", func(t *testing.T) {
		h := newHarness(t, webhook.Config{})
		h.seedPayment(t, "pay_123", "att_123", "")
		req := adyenNotification(t, adyenItem{EventCode: "NOTIFICATION_OF_CHARGEBACK", Success: "true", PSP: "dsp_1", OriginalReference: "psp_pay_123"}, true)

		out, err := h.pipeline.Process(context.Background(), adyenIn(req))
		require.NoError(t, err)
		tracker, ok := out.Tracker.(event.DisputeTracker)
		require.True(t, ok)
		assert.Equal(t, string(dispute.StatusOpened), tracker.Status)

		dp, err := h.store.FindDispute(context.Background(), merchantID, "pay_123", "dsp_1")
		require.NoError(t, err)
		assert.Equal(t, dispute.StagePreDispute, dp.Stage)
		assert.Equal(t, "10.00", dp.Amount)
		assert.Len(t, h.eventsOf(event.ClassDisputes), 1)
	})

	t.Run("illegal transition leaves dispute unchanged", func(t *testing.T) {
		h := newHarness(t, webhook.Config{})
		ctx := context.Background()
		h.seedPayment(t, "pay_123", "att_123", "")
		require.NoError(t, h.store.SaveDispute(ctx, &dispute.Dispute{
			ID:                 "dp_1",
			PaymentID:          "pay_123",
			AttemptID:          "att_123",
			MerchantID:         merchantID,
			Connector:          adyen.Name,
			ConnectorDisputeID: "dsp_1",
			Stage:              dispute.StageDispute,
			Status:             dispute.StatusWon,
		}))
		req := adyenNotification(t, adyenItem{EventCode: "NOTIFICATION_OF_CHARGEBACK", Success: "true", PSP: "dsp_1", OriginalReference: "psp_pay_123"}, true)

		_, err := h.pipeline.Process(ctx, adyenIn(req))
		var te *dispute.TransitionError
		require.ErrorAs(t, err, &te)
		assert.Equal(t, dispute.StatusWon, te.FromStatus)

		dp, err := h.store.FindDispute(ctx, merchantID, "pay_123", "dsp_1")
		require.NoError(t, err)
		assert.Equal(t, dispute.StageDispute, dp.Stage)
		assert.Equal(t, dispute.StatusWon, dp.Status)
		assert.Empty(t, h.recorder.Events())
	})

	t.Run("unverified rejected", func(t *testing.T) {
		h := newHarness(t, webhook.Config{})
		h.seedPayment(t, "pay_123", "att_123", "")
		req := adyenNotification(t, adyenItem{EventCode: "CHARGEBACK", Success: "true", PSP: "dsp_1", OriginalReference: "psp_pay_123"}, false)

		_, err := h.pipeline.Process(context.Background(), adyenIn(req))
		assert.ErrorIs(t, err, webhook.ErrWebhookAuthenticationFailed)
	})
}

func TestProcess_Payout(t *testing.T) {
	seed := func(t *testing.T, h *harness, status payout.Status) {
		t.Helper()
		ctx := context.Background()
		require.NoError(t, h.store.SavePayout(ctx, &payout.Payout{ID: "po_1", MerchantID: merchantID, Amount: 1000, Currency: "EUR", Status: status}))
		require.NoError(t, h.store.SavePayoutAttempt(ctx, &payout.Attempt{
			ID:                  "po_att_1",
			PayoutID:            "po_1",
			MerchantID:          merchantID,
			Connector:           adyen.Name,
			MerchantConnectorID: "mca_adyen",
			Status:              status,
		}))
	}

	t.Run("terminal attempt is left alone", func(t *testing.T) {
		h := newHarness(t, webhook.Config{})
		seed(t, h, payout.StatusSuccess)
		req := adyenNotification(t, adyenItem{EventCode: "PAYOUT_THIRDPARTY", Success: "false", PSP: "psp_po", MerchantReference: "po_att_1"}, true)

		out, err := h.pipeline.Process(context.Background(), adyenIn(req))
		require.NoError(t, err)
		assert.Equal(t, event.PayoutTracker{PayoutID: "po_1", Status: string(payout.StatusSuccess)}, out.Tracker)
		assert.Empty(t, h.recorder.Events())

		a, err := h.store.FindPayoutAttempt(context.Background(), merchantID, "po_att_1")
		require.NoError(t, err)
		assert.Equal(t, payout.StatusSuccess, a.Status)
	})

	t.Run("failure recorded", func(t *testing.T) {
		h := newHarness(t, webhook.Config{})
		seed(t, h, payout.StatusPending)
		req := adyenNotification(t, adyenItem{EventCode: "PAYOUT_THIRDPARTY", Success: "false", PSP: "psp_po", MerchantReference: "po_att_1"}, true)

		_, err := h.pipeline.Process(context.Background(), adyenIn(req))
		require.NoError(t, err)

		a, err := h.store.FindPayoutAttempt(context.Background(), merchantID, "po_att_1")
		require.NoError(t, err)
		assert.Equal(t, payout.StatusFailed, a.Status)
		assert.Equal(t, string(event.TypePayoutFailure), a.ErrorCode)
		p, err := h.store.FindPayout(context.Background(), merchantID, "po_1")
		require.NoError(t, err)
		assert.Equal(t, payout.StatusFailed, p.Status)
		assert.Len(t, h.eventsOf(event.ClassPayouts), 1)
	})

	t.Run("unverified without payout sync is a no-op", func(t *testing.T) {
		h := newHarness(t, webhook.Config{})
		seed(t, h, payout.StatusPending)
		req := adyenNotification(t, adyenItem{EventCode: "PAYOUT_THIRDPARTY", Success: "true", PSP: "psp_po", MerchantReference: "po_att_1"}, false)

		out, err := h.pipeline.Process(context.Background(), adyenIn(req))
		require.NoError(t, err)
		assert.Equal(t, event.PayoutTracker{PayoutID: "po_1", Status: string(payout.StatusPending)}, out.Tracker)
		assert.Empty(t, h.recorder.Events())
	})
}

func TestProcess_Relay(t *testing.T) {
	h := newHarness(t, webhook.Config{})
	ctx := context.Background()
	require.NoError(t, h.store.SaveRelay(ctx, &relay.Relay{
		ID:                  "rl_1",
		MerchantID:          merchantID,
		MerchantConnectorID: "mca_adyen",
		Type:                relay.TypeRefund,
		ConnectorResourceID: "psp_external",
		Status:              relay.StatusPending,
	}))
	in := func(req *connector.IncomingWebhookRequest) webhook.Incoming {
		return webhook.Incoming{MerchantID: merchantID, Segment: "mca_adyen", Relay: true, Request: req}
	}

	req := adyenNotification(t, adyenItem{EventCode: "REFUND", Success: "true", PSP: "rf_psp", OriginalReference: "psp_external", MerchantReference: "rl_1"}, true)
	out, err := h.pipeline.Process(ctx, in(req))
	require.NoError(t, err)
	assert.Equal(t, event.RelayTracker{RelayID: "rl_1", Status: string(relay.StatusSuccess)}, out.Tracker)

	r, err := h.store.FindRelay(ctx, merchantID, "rl_1")
	require.NoError(t, err)
	assert.Equal(t, relay.StatusSuccess, r.Status)
	assert.Empty(t, h.recorder.Events())

	out, err = h.pipeline.Process(ctx, in(authorisation(t, "att_1", nil)))
	require.NoError(t, err)
	assert.Equal(t, event.NoEffect{}, out.Tracker)
}
