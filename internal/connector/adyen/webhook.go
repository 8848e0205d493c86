package adyen

import (
	"context"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"paymentswitch/internal/connector"
	"paymentswitch/internal/domain/authentication"
	"paymentswitch/internal/domain/dispute"
	"paymentswitch/internal/domain/event"
	"paymentswitch/internal/domain/mandate"
	"paymentswitch/internal/domain/payment"
)

type notificationEnvelope struct {
	Live              string `json:"live"`
	NotificationItems []struct {
		Item notificationItem `json:"NotificationRequestItem"`
	} `json:"notificationItems"`
}

type notificationItem struct {
	AdditionalData      map[string]string `json:"additionalData"`
	Amount              amount            `json:"amount"`
	EventCode           string            `json:"eventCode"`
	EventDate           string            `json:"eventDate"`
	MerchantAccountCode string            `json:"merchantAccountCode"`
	MerchantReference   string            `json:"merchantReference"`
	OriginalReference   string            `json:"originalReference,omitempty"`
	PSPReference        string            `json:"pspReference"`
	Reason              string            `json:"reason,omitempty"`
	Success             string            `json:"success"`
	PaymentMethod       string            `json:"paymentMethod,omitempty"`
}

func (n *notificationItem) succeeded() bool { return n.Success == "true" }

// Adyen batches notifications but sends one item per request when batching is off, which
// is the only mode the switch accepts.
func parseNotification(body []byte) (*notificationItem, error) {
	var env notificationEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, &connector.Error{Code: connector.CodeWebhookBodyDecodingFailed, Message: "invalid adyen notification", Err: err}
	}
	if len(env.NotificationItems) == 0 {
		return nil, connector.ErrWebhookBodyDecodingFailed
	}
	return &env.NotificationItems[0].Item, nil
}

func (a *Adyen) WebhookSignatureAlgorithm() connector.SignatureAlgorithm {
	return connector.SignatureHmacSha256
}

func (a *Adyen) WebhookSourceVerificationSignature(req *connector.IncomingWebhookRequest, _ connector.WebhookSecret) ([]byte, error) {
	n, err := parseNotification(req.Body)
	if err != nil {
		return nil, err
	}
	sig := n.AdditionalData["hmacSignature"]
	if sig == "" {
		return nil, nil
	}
	out, err := base64.StdEncoding.DecodeString(sig)
	if err != nil {
		return nil, &connector.Error{Code: connector.CodeWebhookSourceVerificationFailed, Message: "hmacSignature is not base64", Err: err}
	}
	return out, nil
}

func (a *Adyen) WebhookSourceVerificationMessage(req *connector.IncomingWebhookRequest, _ string, _ connector.WebhookSecret) ([]byte, error) {
	n, err := parseNotification(req.Body)
	if err != nil {
		return nil, err
	}
	return []byte(strings.Join([]string{
		n.PSPReference,
		n.OriginalReference,
		n.MerchantAccountCode,
		n.MerchantReference,
		strconv.FormatInt(int64(n.Amount.Value), 10),
		n.Amount.Currency,
		n.EventCode,
		n.Success,
	}, ":")), nil
}

// VerifyWebhookSource checks the notification HMAC. The key in the customer area is
// hex-encoded; a secret that is not valid hex is used as-is.
func (a *Adyen) VerifyWebhookSource(ctx context.Context, req *connector.IncomingWebhookRequest, merchantID string, secret connector.WebhookSecret) (bool, error) {
	if key, err := hex.DecodeString(string(secret.Secret)); err == nil && len(key) > 0 {
		secret.Secret = key
	}
	return connector.VerifyBySignature(ctx, a, req, merchantID, secret)
}

func (a *Adyen) DecodeWebhookBody(_ context.Context, req *connector.IncomingWebhookRequest) ([]byte, error) {
	if _, err := parseNotification(req.Body); err != nil {
		return nil, err
	}
	return req.Body, nil
}

func (a *Adyen) WebhookEventType(req *connector.IncomingWebhookRequest) (event.Type, error) {
	n, err := parseNotification(req.Body)
	if err != nil {
		return "", err
	}
	return eventType(n.EventCode, n.succeeded()), nil
}

func eventType(code string, success bool) event.Type {
	pick := func(ok, failed event.Type) event.Type {
		if success {
			return ok
		}
		return failed
	}
	switch code {
	case "AUTHORISATION":
		return pick(event.TypePaymentIntentSuccess, event.TypePaymentIntentFailure)
	case "CANCELLATION":
		return pick(event.TypePaymentIntentCancelled, event.TypePaymentIntentCancelFailure)
	case "CAPTURE":
		return pick(event.TypePaymentIntentCaptureSuccess, event.TypePaymentIntentCaptureFailure)
	case "CAPTURE_FAILED":
		return event.TypePaymentIntentCaptureFailure
	case "AUTHORISATION_ADJUSTMENT":
		return pick(event.TypePaymentIntentExtendAuthorizationSuccess, event.TypePaymentIntentExtendAuthorizationFailure)
	case "OFFER_CLOSED":
		return event.TypePaymentIntentExpired
	case "REFUND":
		return pick(event.TypeRefundSuccess, event.TypeRefundFailure)
	case "REFUND_FAILED", "REFUNDED_REVERSED":
		return event.TypeRefundFailure
	case "NOTIFICATION_OF_CHARGEBACK", "REQUEST_FOR_INFORMATION":
		return event.TypeDisputeOpened
	case "CHARGEBACK", "SECOND_CHARGEBACK", "PREARBITRATION_LOST":
		return event.TypeDisputeLost
	case "CHARGEBACK_REVERSED", "PREARBITRATION_WON":
		return event.TypeDisputeWon
	case "RECURRING_CONTRACT":
		if success {
			return event.TypeMandateActive
		}
	case "PAYOUT_THIRDPARTY":
		return pick(event.TypePayoutCreated, event.TypePayoutFailure)
	case "PAYOUT_DECLINE":
		return event.TypePayoutCancelled
	case "PAYOUT_EXPIRE":
		return event.TypePayoutExpired
	case "PAIDOUT_REVERSED":
		return event.TypePayoutReversed
	}
	return event.TypeEventNotSupported
}

func (a *Adyen) WebhookObjectReferenceID(req *connector.IncomingWebhookRequest) (event.ObjectReferenceID, error) {
	n, err := parseNotification(req.Body)
	if err != nil {
		return nil, err
	}
	switch event.FlowOf(eventType(n.EventCode, n.succeeded())) {
	case event.FlowRefund:
		return event.RefundRef{Type: event.RefundByID, ID: n.MerchantReference}, nil
	case event.FlowPayout:
		return event.PayoutRef{Type: event.PayoutByAttemptID, ID: n.MerchantReference}, nil
	case event.FlowMandate:
		id := n.AdditionalData["recurring.recurringDetailReference"]
		if id == "" {
			return nil, connector.ErrWebhookReferenceIDNotFound
		}
		return event.MandateRef{Type: event.MandateByConnectorID, ID: id}, nil
	case event.FlowDispute:
		return paymentByPSP(n.OriginalReference)
	}
	switch n.EventCode {
	case "AUTHORISATION", "OFFER_CLOSED":
		if n.MerchantReference == "" {
			return nil, connector.ErrWebhookReferenceIDNotFound
		}
		return event.PaymentRef{Type: event.PaymentByAttemptID, ID: n.MerchantReference}, nil
	}
	return paymentByPSP(n.OriginalReference)
}

func paymentByPSP(psp string) (event.ObjectReferenceID, error) {
	if psp == "" {
		return nil, connector.ErrWebhookReferenceIDNotFound
	}
	return event.PaymentRef{Type: event.PaymentByConnectorTransactionID, ID: psp}, nil
}

// WebhookResourceObject re-encodes the item as a payment reply so the sync path can parse
// it with the same transformer as an API response.
func (a *Adyen) WebhookResourceObject(req *connector.IncomingWebhookRequest) ([]byte, error) {
	n, err := parseNotification(req.Body)
	if err != nil {
		return nil, err
	}
	psp := n.PSPReference
	if n.OriginalReference != "" {
		psp = n.OriginalReference
	}
	res := paymentResponse{
		PSPReference:      psp,
		MerchantReference: n.MerchantReference,
		Amount:            &n.Amount,
		AdditionalData:    n.AdditionalData,
		EventCode:         n.EventCode,
		Success:           n.Success,
	}
	if !n.succeeded() {
		res.RefusalReason = n.Reason
	}
	return json.Marshal(res)
}

func (a *Adyen) DisputeDetails(req *connector.IncomingWebhookRequest) (*dispute.Details, error) {
	n, err := parseNotification(req.Body)
	if err != nil {
		return nil, err
	}
	amt, err := a.disputeAmount.Convert(payment.MinorUnit(n.Amount.Value), payment.Currency(n.Amount.Currency))
	if err != nil {
		return nil, err
	}
	d := &dispute.Details{
		Amount:              amt,
		Currency:            n.Amount.Currency,
		Stage:               disputeStage(n.EventCode),
		ConnectorStatus:     n.EventCode,
		ConnectorDisputeID:  n.PSPReference,
		ConnectorReason:     n.Reason,
		ConnectorReasonCode: n.AdditionalData["chargebackReasonCode"],
		ChallengeRequiredBy: parseTime(n.AdditionalData["defensePeriodEndsAt"]),
		CreatedAt:           parseTime(n.EventDate),
		UpdatedAt:           parseTime(n.EventDate),
	}
	return d, nil
}

func disputeStage(code string) dispute.Stage {
	switch code {
	case "NOTIFICATION_OF_CHARGEBACK", "REQUEST_FOR_INFORMATION":
		return dispute.StagePreDispute
	case "SECOND_CHARGEBACK", "PREARBITRATION_WON", "PREARBITRATION_LOST":
		return dispute.StagePreArbitration
	}
	return dispute.StageDispute
}

func parseTime(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil
	}
	t = t.UTC()
	return &t
}

func (a *Adyen) MandateDetails(req *connector.IncomingWebhookRequest) (*mandate.Details, error) {
	n, err := parseNotification(req.Body)
	if err != nil {
		return nil, err
	}
	id := n.AdditionalData["recurring.recurringDetailReference"]
	if id == "" {
		return nil, nil
	}
	status := mandate.StatusActive
	if !n.succeeded() {
		status = mandate.StatusInactive
	}
	return &mandate.Details{ConnectorMandateID: id, Status: status}, nil
}

func (a *Adyen) NetworkTxnID(req *connector.IncomingWebhookRequest) (string, error) {
	n, err := parseNotification(req.Body)
	if err != nil {
		return "", err
	}
	return n.AdditionalData["networkTxReference"], nil
}

func (a *Adyen) AdditionalPaymentMethodData(req *connector.IncomingWebhookRequest) (*connector.AdditionalPaymentMethodData, error) {
	n, err := parseNotification(req.Body)
	if err != nil {
		return nil, err
	}
	last4 := n.AdditionalData["cardSummary"]
	if last4 == "" && n.AdditionalData["expiryDate"] == "" {
		return nil, nil
	}
	return &connector.AdditionalPaymentMethodData{
		CardNetwork: n.PaymentMethod,
		CardLast4:   last4,
		CardExpiry:  n.AdditionalData["expiryDate"],
		CardIssuer:  n.AdditionalData["issuerCountry"],
		CardBin:     n.AdditionalData["cardBin"],
	}, nil
}

func (a *Adyen) ExternalAuthenticationDetails(*connector.IncomingWebhookRequest) (*authentication.Details, error) {
	return nil, connector.NotImplemented("adyen external authentication webhooks")
}

// WebhookAPIResponse always acknowledges; Adyen retries anything but "[accepted]".
func (a *Adyen) WebhookAPIResponse(error) (*connector.AckResponse, error) {
	return connector.TextAck("[accepted]"), nil
}
