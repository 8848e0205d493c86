package connector

import (
	"context"
	"fmt"
	"net/http"

	"paymentswitch/internal/domain/authentication"
	"paymentswitch/internal/domain/dispute"
	"paymentswitch/internal/domain/event"
	"paymentswitch/internal/domain/mandate"
	"paymentswitch/internal/domain/payment"
)

// Adapter is everything the switch needs from one external payment processor.
// Adapters are built once at startup and shared read-only across requests.
type Adapter interface {
	ID() string
	Capabilities
	WebhookHandler
	Flows
}

// Flows exposes one Integration per connector operation.
type Flows interface {
	Authorize() Integration[AuthorizeData, PaymentsResponse]
	Capture() Integration[CaptureData, PaymentsResponse]
	Void() Integration[VoidData, PaymentsResponse]
	PaymentSync() Integration[SyncData, PaymentsResponse]
	SetupMandate() Integration[SetupMandateData, PaymentsResponse]
	PreProcessing() Integration[PreProcessingData, PaymentsResponse]
	ExtendAuthorization() Integration[ExtendAuthorizationData, PaymentsResponse]
	GiftCardBalanceCheck() Integration[GiftCardBalanceData, GiftCardBalanceResponse]
	RefundExecute() Integration[RefundData, RefundsResponse]
	RefundSync() Integration[RefundData, RefundsResponse]
	PayoutCreate() Integration[PayoutData, PayoutsResponse]
	PayoutCancel() Integration[PayoutData, PayoutsResponse]
	PayoutEligibility() Integration[PayoutData, PayoutsResponse]
	PayoutFulfill() Integration[PayoutData, PayoutsResponse]
	PayoutSync() Integration[PayoutData, PayoutsResponse]
	AcceptDispute() Integration[DisputeData, DisputeResponse]
	DefendDispute() Integration[DisputeData, DisputeResponse]
	SubmitEvidence() Integration[SubmitEvidenceData, SubmitEvidenceResponse]
	UploadFile() Integration[UploadFileData, UploadFileResponse]
	RetrieveFile() Integration[RetrieveFileData, RetrieveFileResponse]
	VerifyWebhookSourceFlow() Integration[VerifyWebhookSourceData, VerifyWebhookSourceResponse]
}

// NoFlows implements Flows with every operation unsupported.
// Webhook-only adapters embed it and override nothing.
type NoFlows struct{}

func (NoFlows) Authorize() Integration[AuthorizeData, PaymentsResponse] {
	return Unsupported[AuthorizeData, PaymentsResponse]{Flow: FlowAuthorize}
}
func (NoFlows) Capture() Integration[CaptureData, PaymentsResponse] {
	return Unsupported[CaptureData, PaymentsResponse]{Flow: FlowCapture}
}
func (NoFlows) Void() Integration[VoidData, PaymentsResponse] {
	return Unsupported[VoidData, PaymentsResponse]{Flow: FlowVoid}
}
func (NoFlows) PaymentSync() Integration[SyncData, PaymentsResponse] {
	return Unsupported[SyncData, PaymentsResponse]{Flow: FlowPaymentSync}
}
func (NoFlows) SetupMandate() Integration[SetupMandateData, PaymentsResponse] {
	return Unsupported[SetupMandateData, PaymentsResponse]{Flow: FlowSetupMandate}
}
func (NoFlows) PreProcessing() Integration[PreProcessingData, PaymentsResponse] {
	return Unsupported[PreProcessingData, PaymentsResponse]{Flow: FlowPreProcessing}
}
func (NoFlows) ExtendAuthorization() Integration[ExtendAuthorizationData, PaymentsResponse] {
	return Unsupported[ExtendAuthorizationData, PaymentsResponse]{Flow: FlowExtendAuthorization}
}
func (NoFlows) GiftCardBalanceCheck() Integration[GiftCardBalanceData, GiftCardBalanceResponse] {
	return Unsupported[GiftCardBalanceData, GiftCardBalanceResponse]{Flow: FlowGiftCardBalanceCheck}
}
func (NoFlows) RefundExecute() Integration[RefundData, RefundsResponse] {
	return Unsupported[RefundData, RefundsResponse]{Flow: FlowRefundExecute}
}
func (NoFlows) RefundSync() Integration[RefundData, RefundsResponse] {
	return Unsupported[RefundData, RefundsResponse]{Flow: FlowRefundSync}
}
func (NoFlows) PayoutCreate() Integration[PayoutData, PayoutsResponse] {
	return Unsupported[PayoutData, PayoutsResponse]{Flow: FlowPayoutCreate}
}
func (NoFlows) PayoutCancel() Integration[PayoutData, PayoutsResponse] {
	return Unsupported[PayoutData, PayoutsResponse]{Flow: FlowPayoutCancel}
}
func (NoFlows) PayoutEligibility() Integration[PayoutData, PayoutsResponse] {
	return Unsupported[PayoutData, PayoutsResponse]{Flow: FlowPayoutEligibility}
}
func (NoFlows) PayoutFulfill() Integration[PayoutData, PayoutsResponse] {
	return Unsupported[PayoutData, PayoutsResponse]{Flow: FlowPayoutFulfill}
}
func (NoFlows) PayoutSync() Integration[PayoutData, PayoutsResponse] {
	return Unsupported[PayoutData, PayoutsResponse]{Flow: FlowPayoutSync}
}
func (NoFlows) AcceptDispute() Integration[DisputeData, DisputeResponse] {
	return Unsupported[DisputeData, DisputeResponse]{Flow: FlowAcceptDispute}
}
func (NoFlows) DefendDispute() Integration[DisputeData, DisputeResponse] {
	return Unsupported[DisputeData, DisputeResponse]{Flow: FlowDefendDispute}
}
func (NoFlows) SubmitEvidence() Integration[SubmitEvidenceData, SubmitEvidenceResponse] {
	return Unsupported[SubmitEvidenceData, SubmitEvidenceResponse]{Flow: FlowSubmitEvidence}
}
func (NoFlows) UploadFile() Integration[UploadFileData, UploadFileResponse] {
	return Unsupported[UploadFileData, UploadFileResponse]{Flow: FlowUploadFile}
}
func (NoFlows) RetrieveFile() Integration[RetrieveFileData, RetrieveFileResponse] {
	return Unsupported[RetrieveFileData, RetrieveFileResponse]{Flow: FlowRetrieveFile}
}
func (NoFlows) VerifyWebhookSourceFlow() Integration[VerifyWebhookSourceData, VerifyWebhookSourceResponse] {
	return Unsupported[VerifyWebhookSourceData, VerifyWebhookSourceResponse]{Flow: FlowVerifyWebhookSource}
}

// CaptureSyncMethod is how a connector reports on multiple partial captures.
type CaptureSyncMethod string

const (
	CaptureSyncIndividual CaptureSyncMethod = "individual"
	CaptureSyncBulk       CaptureSyncMethod = "bulk"
)

// Capabilities is the read-only metadata consulted before building a request.
type Capabilities interface {
	ValidateCaptureMethod(cm payment.CaptureMethod, pm payment.Method, pmt payment.MethodType) error
	IsMandateSupported(pmd PaymentMethodData) error
	CaptureSyncMethod() CaptureSyncMethod
	IsWebhookSourceVerificationMandatory() bool
}

// CapabilityTable is immutable capability data attached to an adapter at construction.
type CapabilityTable struct {
	Connector             string
	CaptureMethods        map[payment.Method]map[payment.MethodType][]payment.CaptureMethod
	MandateMethods        map[payment.MethodType]bool
	SyncMethod            CaptureSyncMethod
	VerificationMandatory bool
}

func (c *CapabilityTable) ValidateCaptureMethod(cm payment.CaptureMethod, pm payment.Method, pmt payment.MethodType) error {
	if cm == "" {
		cm = payment.CaptureAutomatic
	}
	for _, allowed := range c.CaptureMethods[pm][pmt] {
		if allowed == cm {
			return nil
		}
	}
	return &Error{
		Code:         CodeNotSupported,
		Message:      fmt.Sprintf("capture method %s is not supported", cm),
		ConnectorErr: fmt.Sprintf("%s/%s via %s", pm, pmt, c.Connector),
	}
}

func (c *CapabilityTable) IsMandateSupported(pmd PaymentMethodData) error {
	if c.MandateMethods[pmd.Type] {
		return nil
	}
	return &Error{
		Code:         CodeNotSupported,
		Message:      "mandates are not supported",
		ConnectorErr: fmt.Sprintf("%s via %s", pmd.Type, c.Connector),
	}
}

func (c *CapabilityTable) CaptureSyncMethod() CaptureSyncMethod {
	if c.SyncMethod == "" {
		return CaptureSyncIndividual
	}
	return c.SyncMethod
}

func (c *CapabilityTable) IsWebhookSourceVerificationMandatory() bool {
	return c.VerificationMandatory
}

// IncomingWebhookRequest is the raw inbound webhook. It is never mutated;
// WithBody returns a copy carrying a decoded body.
type IncomingWebhookRequest struct {
	Method   string
	URI      string
	Headers  http.Header
	RawQuery string
	Body     []byte
}

// WithBody re-wraps the request around a replacement body.
func (r *IncomingWebhookRequest) WithBody(body []byte) *IncomingWebhookRequest {
	c := *r
	c.Body = body
	return &c
}

// AckResponse is exactly what the connector receives back for its webhook delivery.
type AckResponse struct {
	StatusCode  int
	ContentType string
	Body        []byte
}

// JSONAck is the default acknowledgement used by most connectors.
func JSONAck() *AckResponse {
	return &AckResponse{StatusCode: http.StatusOK, ContentType: "application/json", Body: []byte(`{"status":"ok"}`)}
}

// TextAck acknowledges with a plain-text literal.
func TextAck(body string) *AckResponse {
	return &AckResponse{StatusCode: http.StatusOK, ContentType: "text/plain", Body: []byte(body)}
}

// WebhookSecret is the merchant's signing secret for a connector.
type WebhookSecret struct {
	Secret           []byte
	AdditionalSecret string
}

// AdditionalPaymentMethodData is card metadata a webhook can carry for re-tokenization.
type AdditionalPaymentMethodData struct {
	CardNetwork string `json:"card_network,omitempty"`
	CardLast4   string `json:"last4,omitempty"`
	CardExpiry  string `json:"card_expiry,omitempty"`
	CardIssuer  string `json:"card_issuer,omitempty"`
	CardBin     string `json:"card_isin,omitempty"`
}

// WebhookHandler decodes, verifies and interprets a connector's webhooks.
type WebhookHandler interface {
	WebhookSignatureAlgorithm() SignatureAlgorithm
	WebhookSourceVerificationSignature(req *IncomingWebhookRequest, secret WebhookSecret) ([]byte, error)
	WebhookSourceVerificationMessage(req *IncomingWebhookRequest, merchantID string, secret WebhookSecret) ([]byte, error)
	VerifyWebhookSource(ctx context.Context, req *IncomingWebhookRequest, merchantID string, secret WebhookSecret) (bool, error)
	DecodeWebhookBody(ctx context.Context, req *IncomingWebhookRequest) ([]byte, error)
	WebhookObjectReferenceID(req *IncomingWebhookRequest) (event.ObjectReferenceID, error)
	WebhookEventType(req *IncomingWebhookRequest) (event.Type, error)
	WebhookResourceObject(req *IncomingWebhookRequest) ([]byte, error)
	DisputeDetails(req *IncomingWebhookRequest) (*dispute.Details, error)
	MandateDetails(req *IncomingWebhookRequest) (*mandate.Details, error)
	NetworkTxnID(req *IncomingWebhookRequest) (string, error)
	AdditionalPaymentMethodData(req *IncomingWebhookRequest) (*AdditionalPaymentMethodData, error)
	ExternalAuthenticationDetails(req *IncomingWebhookRequest) (*authentication.Details, error)
	WebhookAPIResponse(hint error) (*AckResponse, error)
}
