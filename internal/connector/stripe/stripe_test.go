package stripe_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v82/webhook"

	"paymentswitch/internal/connector"
	"paymentswitch/internal/connector/base"
	"paymentswitch/internal/connector/stripe"
	"paymentswitch/internal/domain/dispute"
	"paymentswitch/internal/domain/event"
	"paymentswitch/internal/domain/merchant"
	"paymentswitch/internal/domain/payment"
)

const secret = "whsec_test_secret"

const piSucceeded = `{
  "id": "evt_1",
  "object": "event",
  "type": "payment_intent.succeeded",
  "data": {"object": {"id": "pi_123", "object": "payment_intent", "status": "succeeded", "amount": 2000, "amount_received": 2000, "currency": "usd"}}
}`

func signed(t *testing.T, body string, key string) *connector.IncomingWebhookRequest {
	t.Helper()
	sp := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   []byte(body),
		Secret:    key,
		Timestamp: time.Now(),
	})
	h := http.Header{}
	h.Set("Stripe-Signature", sp.Header)
	return &connector.IncomingWebhookRequest{Method: http.MethodPost, Headers: h, Body: []byte(body)}
}

func TestVerifyWebhookSource(t *testing.T) {
	s := stripe.New("", 0)
	assert.True(t, s.IsWebhookSourceVerificationMandatory())

	ok, err := s.VerifyWebhookSource(context.Background(), signed(t, piSucceeded, secret), "merchant_1", connector.WebhookSecret{Secret: []byte(secret)})
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.VerifyWebhookSource(context.Background(), signed(t, piSucceeded, "whsec_other"), "merchant_1", connector.WebhookSecret{Secret: []byte(secret)})
	require.NoError(t, err)
	assert.False(t, ok)

	req := signed(t, piSucceeded, secret)
	req.Body = []byte(piSucceeded + " ")
	ok, err = s.VerifyWebhookSource(context.Background(), req, "merchant_1", connector.WebhookSecret{Secret: []byte(secret)})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestVerifyBySignatureMatchesSDK(t *testing.T) {
	s := stripe.New("", 0)
	req := signed(t, piSucceeded, secret)
	ok, err := connector.VerifyBySignature(context.Background(), s, req, "merchant_1", connector.WebhookSecret{Secret: []byte(secret)})
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestWebhookEventAndReference(t *testing.T) {
	s := stripe.New("", 0)
	tests := []struct {
		name  string
		body  string
		event event.Type
		ref   event.ObjectReferenceID
	}{
		{
			name:  "payment succeeded",
			body:  piSucceeded,
			event: event.TypePaymentIntentSuccess,
			ref:   event.PaymentRef{Type: event.PaymentByConnectorTransactionID, ID: "pi_123"},
		},
		{
			name:  "refund failed",
			body:  `{"id":"evt_2","type":"charge.refund.updated","data":{"object":{"id":"re_1","object":"refund","status":"failed"}}}`,
			event: event.TypeRefundFailure,
			ref:   event.RefundRef{Type: event.RefundByConnectorID, ID: "re_1"},
		},
		{
			name:  "dispute closed won",
			body:  `{"id":"evt_3","type":"charge.dispute.closed","data":{"object":{"id":"dp_1","object":"dispute","status":"won","payment_intent":"pi_123"}}}`,
			event: event.TypeDisputeWon,
			ref:   event.PaymentRef{Type: event.PaymentByConnectorTransactionID, ID: "pi_123"},
		},
		{
			name:  "mandate inactive",
			body:  `{"id":"evt_4","type":"mandate.updated","data":{"object":{"id":"mandate_1","object":"mandate","status":"inactive"}}}`,
			event: event.TypeMandateRevoked,
			ref:   event.MandateRef{Type: event.MandateByConnectorID, ID: "mandate_1"},
		},
		{
			name:  "customer created",
			body:  `{"id":"evt_5","type":"customer.created","data":{"object":{"id":"cus_1","object":"customer"}}}`,
			event: event.TypeEventNotSupported,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := &connector.IncomingWebhookRequest{Body: []byte(tt.body)}
			et, err := s.WebhookEventType(req)
			require.NoError(t, err)
			assert.Equal(t, tt.event, et)

			if tt.ref == nil {
				_, err := s.WebhookObjectReferenceID(req)
				assert.ErrorIs(t, err, connector.ErrWebhookReferenceIDNotFound)
				return
			}
			ref, err := s.WebhookObjectReferenceID(req)
			require.NoError(t, err)
			assert.Equal(t, tt.ref, ref)
		})
	}
}

func TestResourceObjectParsedByPaymentSync(t *testing.T) {
	s := stripe.New("", 0)
	obj, err := s.WebhookResourceObject(&connector.IncomingWebhookRequest{Body: []byte(piSucceeded)})
	require.NoError(t, err)

	rd := &connector.RouterData[connector.SyncData, connector.PaymentsResponse]{}
	out, err := s.PaymentSync().HandleResponse(rd, &connector.Response{StatusCode: http.StatusOK, Body: obj})
	require.NoError(t, err)
	assert.Equal(t, payment.AttemptCharged, out.Status)
	assert.Equal(t, "pi_123", out.ConnectorTransactionID)
	require.NotNil(t, out.AmountCaptured)
	assert.Equal(t, payment.MinorUnit(2000), *out.AmountCaptured)
}

func TestPaymentSync_RoundTrip(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/v1/payment_intents/pi_123", r.URL.Path)
		assert.Equal(t, "Bearer sk_test", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"id":"pi_123","object":"payment_intent","status":"requires_capture"}`))
	}))
	defer srv.Close()

	s := stripe.New(srv.URL+"/", 0)
	rd := &connector.RouterData[connector.SyncData, connector.PaymentsResponse]{
		Account: &merchant.ConnectorAccount{Auth: merchant.ConnectorAuth{Type: merchant.AuthHeaderKey, APIKey: "sk_test"}},
		Request: connector.SyncData{ConnectorTransactionID: "pi_123"},
	}
	require.NoError(t, connector.Execute(context.Background(), base.NewHTTPClient(stripe.Name, 0), s.PaymentSync(), rd))
	require.NotNil(t, rd.Response)
	assert.Equal(t, payment.AttemptAuthorized, rd.Response.Status)
}

func TestDisputeDetails(t *testing.T) {
	s := stripe.New("", 0)
	body := `{"id":"evt_6","type":"charge.dispute.created","data":{"object":{"id":"dp_9","object":"dispute","status":"warning_needs_response","amount":1500,"currency":"eur","reason":"fraudulent","created":1700000000,"payment_intent":"pi_123","evidence_details":{"due_by":1700600000}}}}`
	d, err := s.DisputeDetails(&connector.IncomingWebhookRequest{Body: []byte(body)})
	require.NoError(t, err)
	assert.Equal(t, "dp_9", d.ConnectorDisputeID)
	assert.Equal(t, dispute.StagePreDispute, d.Stage)
	assert.Equal(t, "15.00", d.Amount)
	assert.Equal(t, "EUR", d.Currency)
	require.NotNil(t, d.ChallengeRequiredBy)
}

func TestUnsupportedFlows(t *testing.T) {
	s := stripe.New("", 0)
	_, err := s.Authorize().BuildRequest(&connector.RouterData[connector.AuthorizeData, connector.PaymentsResponse]{})
	assert.ErrorIs(t, err, connector.ErrNotImplemented)
}
