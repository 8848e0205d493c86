package payment_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"paymentswitch/internal/connector"
	"paymentswitch/internal/connector/adyen"
	"paymentswitch/internal/connector/base"
	"paymentswitch/internal/domain/event"
	"paymentswitch/internal/domain/merchant"
	"paymentswitch/internal/domain/payment"
	"paymentswitch/internal/lock"
	"paymentswitch/internal/outgoing"
	paymentsvc "paymentswitch/internal/services/payment"
	"paymentswitch/internal/store/memory"
)

const merchantID = "merchant_1"

type fixture struct {
	svc      *paymentsvc.Service
	store    *memory.Store
	recorder *outgoing.Recorder
	adapter  *adyen.Adyen
	account  *merchant.ConnectorAccount
	calls    atomic.Int32
	lastPath atomic.Value
	lastBody atomic.Value
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{store: memory.New(), recorder: &outgoing.Recorder{}}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.calls.Add(1)
		body, _ := io.ReadAll(r.Body)
		f.lastPath.Store(r.URL.Path)
		f.lastBody.Store(string(body))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"pspReference":"cap_psp","paymentPspReference":"psp_pay_1","reference":"att_1","status":"received"}`))
	}))
	t.Cleanup(srv.Close)

	f.adapter = adyen.New(adyen.Config{CheckoutURL: srv.URL + "/"})
	f.account = &merchant.ConnectorAccount{
		ID:            "mca_adyen",
		MerchantID:    merchantID,
		ConnectorName: adyen.Name,
		Environment:   merchant.EnvironmentTest,
		Auth:          merchant.ConnectorAuth{Type: merchant.AuthBodyKey, APIKey: "api_key", Key1: "TestMerchant"},
	}
	f.svc = paymentsvc.NewService(f.store, base.NewHTTPClient(adyen.Name, 5*time.Second), lock.NewMemory(), f.recorder, nil, paymentsvc.Config{
		LockTTL:  time.Second,
		LockWait: time.Second,
	})
	return f
}

func (f *fixture) seed(t *testing.T, intentStatus payment.IntentStatus, attemptStatus payment.AttemptStatus, captures int) {
	t.Helper()
	now := time.Now().UTC()
	intent := &payment.Intent{
		ID:              "pay_1",
		MerchantID:      merchantID,
		Status:          intentStatus,
		Amount:          1000,
		Currency:        "EUR",
		ActiveAttemptID: "att_1",
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	attempt := &payment.Attempt{
		ID:                     "att_1",
		PaymentID:              "pay_1",
		MerchantID:             merchantID,
		Connector:              adyen.Name,
		MerchantConnectorID:    "mca_adyen",
		Status:                 attemptStatus,
		Amount:                 1000,
		Currency:               "EUR",
		CaptureMethod:          payment.CaptureManual,
		PaymentMethod:          payment.MethodCard,
		PaymentMethodType:      payment.TypeCredit,
		ConnectorTransactionID: "psp_pay_1",
		MultipleCaptureCount:   captures,
		CreatedAt:              now,
		UpdatedAt:              now,
	}
	require.NoError(t, f.store.SavePayment(context.Background(), intent, attempt))
}

func (f *fixture) attempt(t *testing.T) *payment.Attempt {
	t.Helper()
	a, err := f.store.FindAttempt(context.Background(), merchantID, "att_1")
	require.NoError(t, err)
	return a
}

func TestCapture_AuthorizedAttempt(t *testing.T) {
	f := newFixture(t)
	f.seed(t, payment.IntentRequiresCapture, payment.AttemptAuthorized, 0)

	res, err := f.svc.Capture(context.Background(), f.adapter, f.account, merchantID, "att_1")
	require.NoError(t, err)
	assert.True(t, res.Changed)
	assert.Equal(t, payment.AttemptCaptureInitiated, res.Attempt.Status)
	assert.Equal(t, payment.IntentProcessing, res.Intent.Status)

	assert.EqualValues(t, 1, f.calls.Load())
	assert.True(t, strings.HasSuffix(f.lastPath.Load().(string), "/payments/psp_pay_1/captures"))
	var body map[string]any
	require.NoError(t, json.Unmarshal([]byte(f.lastBody.Load().(string)), &body))
	assert.Equal(t, "TestMerchant", body["merchantAccount"])

	assert.Equal(t, payment.AttemptCaptureInitiated, f.attempt(t).Status)
	events := f.recorder.Events()
	require.Len(t, events, 1)
	assert.Equal(t, event.ClassPayments, events[0].Class)
	assert.Equal(t, "pay_1", events[0].ObjectID)
}

func TestCapture_SkipsUnauthorizedAttempt(t *testing.T) {
	f := newFixture(t)
	f.seed(t, payment.IntentProcessing, payment.AttemptPending, 0)

	res, err := f.svc.Capture(context.Background(), f.adapter, f.account, merchantID, "att_1")
	require.NoError(t, err)
	assert.False(t, res.Changed)
	assert.Zero(t, f.calls.Load())
	assert.Empty(t, f.recorder.Events())
}

func TestVoid(t *testing.T) {
	t.Run("pending attempt is cancelled at the connector", func(t *testing.T) {
		f := newFixture(t)
		f.seed(t, payment.IntentRequiresCapture, payment.AttemptAuthorized, 0)

		res, err := f.svc.Void(context.Background(), f.adapter, f.account, merchantID, "att_1", "fraud")
		require.NoError(t, err)
		assert.Equal(t, payment.AttemptVoidInitiated, res.Attempt.Status)
		assert.True(t, strings.HasSuffix(f.lastPath.Load().(string), "/payments/psp_pay_1/cancels"))
	})

	t.Run("terminal attempt is left alone", func(t *testing.T) {
		f := newFixture(t)
		f.seed(t, payment.IntentSucceeded, payment.AttemptCharged, 0)

		res, err := f.svc.Void(context.Background(), f.adapter, f.account, merchantID, "att_1", "fraud")
		require.NoError(t, err)
		assert.False(t, res.Changed)
		assert.Zero(t, f.calls.Load())
	})
}

func TestSync_ConsumedResponseNotifiesOnce(t *testing.T) {
	f := newFixture(t)
	f.seed(t, payment.IntentProcessing, payment.AttemptPending, 0)
	req := paymentsvc.SyncRequest{
		MerchantID:  merchantID,
		AttemptID:   "att_1",
		Action:      paymentsvc.ActionUCSConsumeResponse,
		Adapter:     f.adapter,
		Account:     f.account,
		UCSResponse: &connector.PaymentsResponse{Status: payment.AttemptCharged, NetworkTransactionID: "ntid_1"},
	}

	res, err := f.svc.Sync(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, res.Changed)
	assert.Equal(t, payment.IntentSucceeded, res.Intent.Status)
	assert.EqualValues(t, 1000, res.Intent.AmountCaptured)
	assert.Equal(t, "ntid_1", res.Attempt.NetworkTransactionID)

	res, err = f.svc.Sync(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, res.Changed)
	assert.Len(t, f.recorder.Events(), 1)
	assert.Zero(t, f.calls.Load())
}

func TestSync_ConnectorErrorIsRecorded(t *testing.T) {
	f := newFixture(t)
	f.seed(t, payment.IntentProcessing, payment.AttemptPending, 0)
	failed := payment.AttemptFailure

	res, err := f.svc.Sync(context.Background(), paymentsvc.SyncRequest{
		MerchantID:  merchantID,
		AttemptID:   "att_1",
		Action:      paymentsvc.ActionUCSConsumeResponse,
		Adapter:     f.adapter,
		Account:     f.account,
		UCSResponse: &connector.PaymentsResponse{Status: payment.AttemptFailure},
	})
	require.NoError(t, err)
	assert.Equal(t, payment.IntentFailed, res.Intent.Status)
	assert.Equal(t, failed, f.attempt(t).Status)
}

func TestSync_MissingResource(t *testing.T) {
	f := newFixture(t)
	f.seed(t, payment.IntentProcessing, payment.AttemptPending, 0)

	for _, action := range []paymentsvc.Action{paymentsvc.ActionHandleResponse, paymentsvc.ActionUCSConsumeResponse} {
		_, err := f.svc.Sync(context.Background(), paymentsvc.SyncRequest{
			MerchantID: merchantID,
			AttemptID:  "att_1",
			Action:     action,
			Adapter:    f.adapter,
			Account:    f.account,
		})
		assert.ErrorIs(t, err, paymentsvc.ErrMissingResource, action.String())
	}
}

func TestSync_TriggerWithoutRedirectPayloadSkipsCall(t *testing.T) {
	f := newFixture(t)
	f.seed(t, payment.IntentProcessing, payment.AttemptPending, 0)

	res, err := f.svc.Sync(context.Background(), paymentsvc.SyncRequest{
		MerchantID: merchantID,
		AttemptID:  "att_1",
		Action:     paymentsvc.ActionTrigger,
		Adapter:    f.adapter,
		Account:    f.account,
	})
	require.NoError(t, err)
	assert.False(t, res.Changed)
	assert.Zero(t, f.calls.Load())
}

func TestSync_MultipleCapturesDeriveAttemptStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seed(t, payment.IntentRequiresCapture, payment.AttemptAuthorized, 2)
	for id, amt := range map[string]payment.MinorUnit{"cap_a": 600, "cap_b": 400} {
		require.NoError(t, f.store.SaveCapture(ctx, &payment.Capture{
			ID:                 id,
			AttemptID:          "att_1",
			PaymentID:          "pay_1",
			MerchantID:         merchantID,
			Status:             payment.CapturePending,
			Amount:             amt,
			Currency:           "EUR",
			ConnectorCaptureID: "psp_" + id,
		}))
	}
	sync := func(captures map[string]connector.CaptureSyncResponse) *paymentsvc.Result {
		res, err := f.svc.Sync(ctx, paymentsvc.SyncRequest{
			MerchantID:  merchantID,
			AttemptID:   "att_1",
			Action:      paymentsvc.ActionUCSConsumeResponse,
			Adapter:     f.adapter,
			Account:     f.account,
			UCSResponse: &connector.PaymentsResponse{CaptureSync: captures},
		})
		require.NoError(t, err)
		return res
	}

	res := sync(map[string]connector.CaptureSyncResponse{"psp_cap_a": {Status: payment.CaptureCharged}})
	assert.Equal(t, payment.AttemptCaptureInitiated, res.Attempt.Status)

	res = sync(map[string]connector.CaptureSyncResponse{"psp_cap_b": {Status: payment.CaptureCharged}})
	assert.Equal(t, payment.AttemptCharged, res.Attempt.Status)
	assert.Equal(t, payment.IntentSucceeded, res.Intent.Status)

	captures, err := f.store.ListCaptures(ctx, merchantID, "att_1")
	require.NoError(t, err)
	for _, c := range captures {
		assert.Equal(t, payment.CaptureCharged, c.Status, c.ID)
	}
}

func TestRecordMandate_FirstWriterWins(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seed(t, payment.IntentSucceeded, payment.AttemptCharged, 0)

	require.NoError(t, f.svc.RecordMandate(ctx, merchantID, "att_1", "mandate_1", "ntid_1"))
	require.NoError(t, f.svc.RecordMandate(ctx, merchantID, "att_1", "mandate_2", "ntid_2"))

	a := f.attempt(t)
	assert.Equal(t, "mandate_1", a.ConnectorMandateID)
	assert.Equal(t, "ntid_1", a.NetworkTransactionID)
}

func TestResolveAttempt(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seed(t, payment.IntentProcessing, payment.AttemptPending, 0)

	refs := []event.PaymentRef{
		{Type: event.PaymentByAttemptID, ID: "att_1"},
		{Type: event.PaymentByIntentID, ID: "pay_1"},
		{Type: event.PaymentByConnectorTransactionID, ID: "psp_pay_1"},
	}
	for _, ref := range refs {
		a, err := f.svc.ResolveAttempt(ctx, merchantID, adyen.Name, ref)
		require.NoError(t, err, string(ref.Type))
		assert.Equal(t, "att_1", a.ID)
	}

	_, err := f.svc.ResolveAttempt(ctx, merchantID, "stripe", event.PaymentRef{Type: event.PaymentByConnectorTransactionID, ID: "psp_pay_1"})
	assert.Error(t, err)
}
