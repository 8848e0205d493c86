package stripe

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"strings"
	"time"

	"paymentswitch/internal/connector"
	"paymentswitch/internal/domain/authentication"
	"paymentswitch/internal/domain/dispute"
	"paymentswitch/internal/domain/event"
	"paymentswitch/internal/domain/mandate"
	"paymentswitch/internal/domain/payment"
	"paymentswitch/internal/domain/refund"

	stripego "github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"
)

const signatureHeader = "Stripe-Signature"

func parseEvent(body []byte) (*stripego.Event, error) {
	var evt stripego.Event
	if err := json.Unmarshal(body, &evt); err != nil {
		return nil, &connector.Error{Code: connector.CodeWebhookBodyDecodingFailed, Message: "invalid stripe event", Err: err}
	}
	if evt.Data == nil || len(evt.Data.Raw) == 0 {
		return nil, connector.ErrWebhookResourceObjectNotFound
	}
	return &evt, nil
}

func (s *Stripe) WebhookSignatureAlgorithm() connector.SignatureAlgorithm {
	return connector.SignatureHmacSha256
}

// WebhookSourceVerificationSignature returns the first v1 signature of the header.
func (s *Stripe) WebhookSourceVerificationSignature(req *connector.IncomingWebhookRequest, _ connector.WebhookSecret) ([]byte, error) {
	for _, part := range strings.Split(req.Headers.Get(signatureHeader), ",") {
		if v, ok := strings.CutPrefix(strings.TrimSpace(part), "v1="); ok {
			sig, err := hex.DecodeString(v)
			if err != nil {
				return nil, &connector.Error{Code: connector.CodeWebhookSourceVerificationFailed, Message: "v1 signature is not hex", Err: err}
			}
			return sig, nil
		}
	}
	return nil, nil
}

// WebhookSourceVerificationMessage is "<timestamp>.<body>".
func (s *Stripe) WebhookSourceVerificationMessage(req *connector.IncomingWebhookRequest, _ string, _ connector.WebhookSecret) ([]byte, error) {
	for _, part := range strings.Split(req.Headers.Get(signatureHeader), ",") {
		if v, ok := strings.CutPrefix(strings.TrimSpace(part), "t="); ok {
			return append([]byte(v+"."), req.Body...), nil
		}
	}
	return nil, connector.MissingField(signatureHeader + " timestamp")
}

// VerifyWebhookSource delegates to the SDK, which also enforces the timestamp tolerance.
func (s *Stripe) VerifyWebhookSource(_ context.Context, req *connector.IncomingWebhookRequest, _ string, secret connector.WebhookSecret) (bool, error) {
	header := req.Headers.Get(signatureHeader)
	if header == "" || len(secret.Secret) == 0 {
		return false, nil
	}
	if err := webhook.ValidatePayloadWithTolerance(req.Body, header, string(secret.Secret), s.tolerance); err != nil {
		return false, nil
	}
	return true, nil
}

func (s *Stripe) DecodeWebhookBody(_ context.Context, req *connector.IncomingWebhookRequest) ([]byte, error) {
	if _, err := parseEvent(req.Body); err != nil {
		return nil, err
	}
	return req.Body, nil
}

func (s *Stripe) WebhookEventType(req *connector.IncomingWebhookRequest) (event.Type, error) {
	evt, err := parseEvent(req.Body)
	if err != nil {
		return "", err
	}
	return eventType(evt)
}

func eventType(evt *stripego.Event) (event.Type, error) {
	switch evt.Type {
	case "payment_intent.succeeded":
		return event.TypePaymentIntentSuccess, nil
	case "payment_intent.payment_failed":
		return event.TypePaymentIntentFailure, nil
	case "payment_intent.processing":
		return event.TypePaymentIntentProcessing, nil
	case "payment_intent.canceled":
		return event.TypePaymentIntentCancelled, nil
	case "payment_intent.amount_capturable_updated":
		return event.TypePaymentIntentAuthorizationSuccess, nil
	case "payment_intent.requires_action":
		return event.TypePaymentActionRequired, nil
	case "payment_intent.partially_funded":
		return event.TypePaymentIntentPartiallyFunded, nil
	case "charge.refund.updated", "refund.updated":
		var r stripego.Refund
		if err := json.Unmarshal(evt.Data.Raw, &r); err != nil {
			return "", connector.Deserialization(err)
		}
		switch refundStatus(r.Status) {
		case refund.StatusSuccess:
			return event.TypeRefundSuccess, nil
		case refund.StatusFailure:
			return event.TypeRefundFailure, nil
		}
	case "charge.dispute.created":
		return event.TypeDisputeOpened, nil
	case "charge.dispute.updated":
		return event.TypeDisputeChallenged, nil
	case "charge.dispute.closed":
		var d stripego.Dispute
		if err := json.Unmarshal(evt.Data.Raw, &d); err != nil {
			return "", connector.Deserialization(err)
		}
		switch d.Status {
		case stripego.DisputeStatusWon:
			return event.TypeDisputeWon, nil
		case stripego.DisputeStatusLost:
			return event.TypeDisputeLost, nil
		}
		return event.TypeDisputeCancelled, nil
	case "mandate.updated":
		var m stripego.Mandate
		if err := json.Unmarshal(evt.Data.Raw, &m); err != nil {
			return "", connector.Deserialization(err)
		}
		switch m.Status {
		case stripego.MandateStatusActive:
			return event.TypeMandateActive, nil
		case stripego.MandateStatusInactive:
			return event.TypeMandateRevoked, nil
		}
	}
	return event.TypeEventNotSupported, nil
}

type objectID struct {
	ID            string `json:"id"`
	Object        string `json:"object"`
	PaymentIntent string `json:"payment_intent"`
}

func (s *Stripe) WebhookObjectReferenceID(req *connector.IncomingWebhookRequest) (event.ObjectReferenceID, error) {
	evt, err := parseEvent(req.Body)
	if err != nil {
		return nil, err
	}
	var obj objectID
	if err := json.Unmarshal(evt.Data.Raw, &obj); err != nil {
		return nil, connector.Deserialization(err)
	}
	var ref event.ObjectReferenceID
	switch obj.Object {
	case "payment_intent":
		ref = event.PaymentRef{Type: event.PaymentByConnectorTransactionID, ID: obj.ID}
	case "refund":
		ref = event.RefundRef{Type: event.RefundByConnectorID, ID: obj.ID}
	case "dispute":
		obj.ID = obj.PaymentIntent
		ref = event.PaymentRef{Type: event.PaymentByConnectorTransactionID, ID: obj.ID}
	case "mandate":
		ref = event.MandateRef{Type: event.MandateByConnectorID, ID: obj.ID}
	default:
		return nil, connector.ErrWebhookReferenceIDNotFound
	}
	if obj.ID == "" {
		return nil, connector.ErrWebhookReferenceIDNotFound
	}
	return ref, nil
}

// WebhookResourceObject is the event's data.object, which PaymentSync and RefundSync parse.
func (s *Stripe) WebhookResourceObject(req *connector.IncomingWebhookRequest) ([]byte, error) {
	evt, err := parseEvent(req.Body)
	if err != nil {
		return nil, err
	}
	return evt.Data.Raw, nil
}

func (s *Stripe) DisputeDetails(req *connector.IncomingWebhookRequest) (*dispute.Details, error) {
	evt, err := parseEvent(req.Body)
	if err != nil {
		return nil, err
	}
	var d stripego.Dispute
	if err := json.Unmarshal(evt.Data.Raw, &d); err != nil {
		return nil, connector.Deserialization(err)
	}
	currency := strings.ToUpper(string(d.Currency))
	amt, err := s.disputeAmount.Convert(payment.MinorUnit(d.Amount), payment.Currency(currency))
	if err != nil {
		return nil, err
	}
	created := time.Unix(d.Created, 0).UTC()
	out := &dispute.Details{
		Amount:             amt,
		Currency:           currency,
		Stage:              dispute.StageDispute,
		ConnectorStatus:    string(d.Status),
		ConnectorDisputeID: d.ID,
		ConnectorReason:    string(d.Reason),
		CreatedAt:          &created,
	}
	if strings.HasPrefix(string(d.Status), "warning_") {
		out.Stage = dispute.StagePreDispute
	}
	if d.EvidenceDetails != nil && d.EvidenceDetails.DueBy > 0 {
		due := time.Unix(d.EvidenceDetails.DueBy, 0).UTC()
		out.ChallengeRequiredBy = &due
	}
	return out, nil
}

func (s *Stripe) MandateDetails(req *connector.IncomingWebhookRequest) (*mandate.Details, error) {
	evt, err := parseEvent(req.Body)
	if err != nil {
		return nil, err
	}
	if evt.Type != "mandate.updated" {
		return nil, nil
	}
	var m stripego.Mandate
	if err := json.Unmarshal(evt.Data.Raw, &m); err != nil {
		return nil, connector.Deserialization(err)
	}
	status := mandate.StatusPending
	switch m.Status {
	case stripego.MandateStatusActive:
		status = mandate.StatusActive
	case stripego.MandateStatusInactive:
		status = mandate.StatusRevoked
	}
	return &mandate.Details{ConnectorMandateID: m.ID, Status: status}, nil
}

// NetworkTxnID is not carried on PaymentIntent events.
func (s *Stripe) NetworkTxnID(*connector.IncomingWebhookRequest) (string, error) {
	return "", nil
}

func (s *Stripe) AdditionalPaymentMethodData(*connector.IncomingWebhookRequest) (*connector.AdditionalPaymentMethodData, error) {
	return nil, nil
}

func (s *Stripe) ExternalAuthenticationDetails(*connector.IncomingWebhookRequest) (*authentication.Details, error) {
	return nil, connector.NotImplemented("stripe external authentication webhooks")
}

func (s *Stripe) WebhookAPIResponse(error) (*connector.AckResponse, error) {
	return connector.JSONAck(), nil
}
