// Package stripe is a webhook-first adapter. Payment and refund sync read Stripe objects;
// every other flow is unsupported. Webhook verification is mandatory and delegated to the
// Stripe SDK.
package stripe

import (
	"encoding/json"
	"net/http"
	"time"

	"paymentswitch/internal/connector"
	"paymentswitch/internal/connector/base"
	"paymentswitch/internal/domain/payment"
	"paymentswitch/internal/domain/refund"

	stripego "github.com/stripe/stripe-go/v82"
)

const (
	Name = "stripe"

	defaultBaseURL   = "https://api.stripe.com/"
	defaultTolerance = 5 * time.Minute
)

// Stripe implements connector.Adapter.
type Stripe struct {
	connector.NoFlows
	*connector.CapabilityTable
	baseURL   string
	tolerance time.Duration
	// disputeAmount renders dispute amounts in major units.
	disputeAmount base.StringMajorUnitConverter
}

var _ connector.Adapter = (*Stripe)(nil)

// New creates the adapter. An empty baseURL uses api.stripe.com; a zero tolerance
// uses the SDK's five minutes.
func New(baseURL string, tolerance time.Duration) *Stripe {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if tolerance <= 0 {
		tolerance = defaultTolerance
	}
	return &Stripe{
		CapabilityTable: &connector.CapabilityTable{
			Connector: Name,
			CaptureMethods: map[payment.Method]map[payment.MethodType][]payment.CaptureMethod{
				payment.MethodCard: {
					payment.TypeCredit: {payment.CaptureAutomatic, payment.CaptureManual},
					payment.TypeDebit:  {payment.CaptureAutomatic, payment.CaptureManual},
				},
			},
			SyncMethod:            connector.CaptureSyncBulk,
			VerificationMandatory: true,
		},
		baseURL:   baseURL,
		tolerance: tolerance,
	}
}

func (s *Stripe) ID() string { return Name }

// PaymentSync retrieves the PaymentIntent. It is also the parser for payment_intent
// webhook objects.
func (s *Stripe) PaymentSync() connector.Integration[connector.SyncData, connector.PaymentsResponse] {
	return &paymentSync{s: s}
}

// RefundSync retrieves the Refund by its Stripe id.
func (s *Stripe) RefundSync() connector.Integration[connector.RefundData, connector.RefundsResponse] {
	return &refundSync{s: s}
}

func headers[Req, Resp any](rd *connector.RouterData[Req, Resp]) ([]connector.Header, error) {
	auth, err := rd.Auth()
	if err != nil {
		return nil, err
	}
	if auth.APIKey == "" {
		return nil, connector.ErrFailedToObtainAuthType
	}
	return []connector.Header{
		{Name: "Authorization", Value: "Bearer " + auth.APIKey, Masked: true},
		{Name: "Stripe-Version", Value: stripego.APIVersion},
	}, nil
}

type errorBody struct {
	Error struct {
		Type          string `json:"type"`
		Code          string `json:"code"`
		DeclineCode   string `json:"decline_code"`
		Message       string `json:"message"`
		PaymentIntent *struct {
			ID string `json:"id"`
		} `json:"payment_intent"`
	} `json:"error"`
}

func errorResponse(res *connector.Response) (*connector.ErrorResponse, error) {
	var body errorBody
	if err := json.Unmarshal(res.Body, &body); err != nil {
		if res.StatusCode >= http.StatusInternalServerError {
			return &connector.ErrorResponse{StatusCode: res.StatusCode, Code: "server_error", Message: http.StatusText(res.StatusCode)}, nil
		}
		return nil, connector.Deserialization(err)
	}
	out := &connector.ErrorResponse{
		StatusCode:         res.StatusCode,
		Code:               body.Error.Code,
		Message:            body.Error.Message,
		Reason:             body.Error.Type,
		NetworkDeclineCode: body.Error.DeclineCode,
	}
	if out.Code == "" {
		out.Code = body.Error.Type
	}
	if body.Error.PaymentIntent != nil {
		out.ConnectorTransactionID = body.Error.PaymentIntent.ID
	}
	return out, nil
}

type paymentSync struct{ s *Stripe }

type syncRD = connector.RouterData[connector.SyncData, connector.PaymentsResponse]

func (f *paymentSync) Headers(rd *syncRD) ([]connector.Header, error) { return headers(rd) }

func (f *paymentSync) URL(rd *syncRD) (string, error) {
	if rd.Request.ConnectorTransactionID == "" {
		return "", connector.MissingField("connector_transaction_id")
	}
	return f.s.baseURL + "v1/payment_intents/" + rd.Request.ConnectorTransactionID, nil
}

func (f *paymentSync) RequestBody(*syncRD) ([]byte, error) { return nil, nil }

func (f *paymentSync) BuildRequest(rd *syncRD) (*connector.Request, error) {
	return connector.BuildDefault[connector.SyncData, connector.PaymentsResponse](f, rd, http.MethodGet)
}

func (f *paymentSync) HandleResponse(rd *syncRD, res *connector.Response) (*connector.PaymentsResponse, error) {
	var pi stripego.PaymentIntent
	if err := json.Unmarshal(res.Body, &pi); err != nil {
		return nil, connector.Deserialization(err)
	}
	out := &connector.PaymentsResponse{
		ConnectorTransactionID: pi.ID,
		Status:                 attemptStatus(pi.Status),
	}
	if pi.AmountReceived > 0 {
		received := payment.MinorUnit(pi.AmountReceived)
		out.AmountCaptured = &received
	}
	if pi.LastPaymentError != nil && out.Status == payment.AttemptFailure {
		failure := payment.AttemptFailure
		rd.Error = &connector.ErrorResponse{
			StatusCode:             http.StatusOK,
			Code:                   string(pi.LastPaymentError.Code),
			Message:                pi.LastPaymentError.Msg,
			AttemptStatus:          &failure,
			ConnectorTransactionID: pi.ID,
		}
	}
	return out, nil
}

func (f *paymentSync) ErrorResponse(res *connector.Response) (*connector.ErrorResponse, error) {
	return errorResponse(res)
}

func (f *paymentSync) ServerErrorResponse(res *connector.Response) (*connector.ErrorResponse, error) {
	return errorResponse(res)
}

func attemptStatus(s stripego.PaymentIntentStatus) payment.AttemptStatus {
	switch s {
	case stripego.PaymentIntentStatusSucceeded:
		return payment.AttemptCharged
	case stripego.PaymentIntentStatusRequiresCapture:
		return payment.AttemptAuthorized
	case stripego.PaymentIntentStatusCanceled:
		return payment.AttemptVoided
	case stripego.PaymentIntentStatusRequiresAction:
		return payment.AttemptAuthenticationPending
	case stripego.PaymentIntentStatusRequiresPaymentMethod:
		return payment.AttemptFailure
	case stripego.PaymentIntentStatusProcessing:
		return payment.AttemptPending
	}
	return payment.AttemptStarted
}

type refundSync struct{ s *Stripe }

type refundRD = connector.RouterData[connector.RefundData, connector.RefundsResponse]

func (f *refundSync) Headers(rd *refundRD) ([]connector.Header, error) { return headers(rd) }

func (f *refundSync) URL(rd *refundRD) (string, error) {
	if rd.Request.ConnectorRefundID == "" {
		return "", connector.MissingField("connector_refund_id")
	}
	return f.s.baseURL + "v1/refunds/" + rd.Request.ConnectorRefundID, nil
}

func (f *refundSync) RequestBody(*refundRD) ([]byte, error) { return nil, nil }

func (f *refundSync) BuildRequest(rd *refundRD) (*connector.Request, error) {
	return connector.BuildDefault[connector.RefundData, connector.RefundsResponse](f, rd, http.MethodGet)
}

func (f *refundSync) HandleResponse(_ *refundRD, res *connector.Response) (*connector.RefundsResponse, error) {
	var r stripego.Refund
	if err := json.Unmarshal(res.Body, &r); err != nil {
		return nil, connector.Deserialization(err)
	}
	return &connector.RefundsResponse{ConnectorRefundID: r.ID, Status: refundStatus(r.Status)}, nil
}

func (f *refundSync) ErrorResponse(res *connector.Response) (*connector.ErrorResponse, error) {
	return errorResponse(res)
}

func (f *refundSync) ServerErrorResponse(res *connector.Response) (*connector.ErrorResponse, error) {
	return errorResponse(res)
}

func refundStatus(s stripego.RefundStatus) refund.Status {
	switch s {
	case stripego.RefundStatusSucceeded:
		return refund.StatusSuccess
	case stripego.RefundStatusFailed, stripego.RefundStatusCanceled:
		return refund.StatusFailure
	case stripego.RefundStatusRequiresAction:
		return refund.StatusManualReview
	}
	return refund.StatusPending
}
