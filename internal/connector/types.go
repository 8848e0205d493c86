package connector

import (
	"paymentswitch/internal/domain/dispute"
	"paymentswitch/internal/domain/merchant"
	"paymentswitch/internal/domain/payment"
	"paymentswitch/internal/domain/payout"
	"paymentswitch/internal/domain/refund"
)

// Flow names one connector operation.
type Flow string

const (
	FlowAuthorize            Flow = "authorize"
	FlowCapture              Flow = "capture"
	FlowVoid                 Flow = "void"
	FlowPaymentSync          Flow = "psync"
	FlowSetupMandate         Flow = "setup_mandate"
	FlowPreProcessing        Flow = "pre_processing"
	FlowExtendAuthorization  Flow = "extend_authorization"
	FlowGiftCardBalanceCheck Flow = "gift_card_balance_check"
	FlowRefundExecute        Flow = "refund_execute"
	FlowRefundSync           Flow = "refund_sync"
	FlowPayoutCreate         Flow = "payout_create"
	FlowPayoutCancel         Flow = "payout_cancel"
	FlowPayoutEligibility    Flow = "payout_eligibility"
	FlowPayoutFulfill        Flow = "payout_fulfill"
	FlowPayoutSync           Flow = "payout_sync"
	FlowAcceptDispute        Flow = "accept_dispute"
	FlowDefendDispute        Flow = "defend_dispute"
	FlowSubmitEvidence       Flow = "submit_evidence"
	FlowUploadFile           Flow = "upload_file"
	FlowRetrieveFile         Flow = "retrieve_file"
	FlowVerifyWebhookSource  Flow = "verify_webhook_source"
)

// RouterData carries one flow's input, the account it runs against, and its outcome.
// Response and Error are both nil when the flow decided no network call was needed.
type RouterData[Req, Resp any] struct {
	Flow                        Flow
	MerchantID                  string
	Connector                   string
	PaymentID                   string
	AttemptID                   string
	ConnectorRequestReferenceID string
	Account                     *merchant.ConnectorAccount
	Status                      payment.AttemptStatus
	Request                     Req
	Response                    *Resp
	Error                       *ErrorResponse
}

// Auth returns the account credentials or ErrFailedToObtainAuthType.
func (rd *RouterData[Req, Resp]) Auth() (merchant.ConnectorAuth, error) {
	if rd.Account == nil || rd.Account.Auth.Type == "" {
		return merchant.ConnectorAuth{}, ErrFailedToObtainAuthType
	}
	return rd.Account.Auth, nil
}

// TestMode reports whether the flow runs against the connector sandbox.
func (rd *RouterData[Req, Resp]) TestMode() bool {
	return rd.Account == nil || rd.Account.TestMode()
}

// Card data as received from the merchant.
type Card struct {
	Number      string `json:"card_number"`
	ExpiryMonth string `json:"card_exp_month"`
	ExpiryYear  string `json:"card_exp_year"`
	HolderName  string `json:"card_holder_name,omitempty"`
	CVC         string `json:"card_cvc"`
	Network     string `json:"card_network,omitempty"`
}

// GiftCard data.
type GiftCard struct {
	Number string `json:"number"`
	CVC    string `json:"cvc"`
}

// PaymentMethodData is the instrument a flow runs with. Exactly one of the pointers is set
// for instrument-bearing methods.
type PaymentMethodData struct {
	Method       payment.Method     `json:"payment_method"`
	Type         payment.MethodType `json:"payment_method_type"`
	Card         *Card              `json:"card,omitempty"`
	GiftCard     *GiftCard          `json:"gift_card,omitempty"`
	WalletToken  string             `json:"wallet_token,omitempty"`
	BankName     string             `json:"bank_name,omitempty"`
	IBAN         string             `json:"iban,omitempty"`
	MandateToken string             `json:"mandate_token,omitempty"`
}

type AuthorizeData struct {
	Amount              payment.MinorUnit     `json:"amount"`
	Currency            payment.Currency      `json:"currency"`
	PaymentMethod       PaymentMethodData     `json:"payment_method_data"`
	CaptureMethod       payment.CaptureMethod `json:"capture_method"`
	ReturnURL           string                `json:"return_url,omitempty"`
	SetupFutureUsage    bool                  `json:"setup_future_usage,omitempty"`
	ConnectorMandate    string                `json:"connector_mandate_id,omitempty"`
	BrowserInfo         map[string]string     `json:"browser_info,omitempty"`
	ShopperReference    string                `json:"shopper_reference,omitempty"`
	Email               string                `json:"email,omitempty"`
	StatementDescriptor string                `json:"statement_descriptor,omitempty"`
	Authentication      *AuthenticationData   `json:"authentication_data,omitempty"`
}

// AuthenticationData is the result of a 3DS authentication run outside the connector.
type AuthenticationData struct {
	ECI                 string `json:"eci,omitempty"`
	AuthenticationValue string `json:"cavv"`
	TransStatus         string `json:"trans_status"`
	DSTransID           string `json:"ds_trans_id,omitempty"`
	MessageVersion      string `json:"message_version,omitempty"`
}

// PaymentsResponse is the normalized outcome of any payment flow.
type PaymentsResponse struct {
	ConnectorTransactionID string                         `json:"connector_transaction_id"`
	Status                 payment.AttemptStatus          `json:"status"`
	RedirectURL            string                         `json:"redirect_url,omitempty"`
	EncodedData            string                         `json:"encoded_data,omitempty"`
	ConnectorMandateID     string                         `json:"connector_mandate_id,omitempty"`
	NetworkTransactionID   string                         `json:"network_txn_id,omitempty"`
	ConnectorReferenceID   string                         `json:"connector_response_reference_id,omitempty"`
	AmountCaptured         *payment.MinorUnit             `json:"amount_captured,omitempty"`
	CaptureSync            map[string]CaptureSyncResponse `json:"capture_sync_response,omitempty"`
}

// CaptureSyncResponse reports one partial capture's state.
type CaptureSyncResponse struct {
	ConnectorCaptureID string                `json:"connector_capture_id"`
	Status             payment.CaptureStatus `json:"status"`
	Amount             payment.MinorUnit     `json:"amount,omitempty"`
}

type CaptureData struct {
	ConnectorTransactionID string            `json:"connector_transaction_id"`
	AmountToCapture        payment.MinorUnit `json:"amount_to_capture"`
	Currency               payment.Currency  `json:"currency"`
	MultipleCaptureID      string            `json:"multiple_capture_id,omitempty"`
	// CaptureMethod and the payment method are checked against the connector's capabilities.
	CaptureMethod     payment.CaptureMethod `json:"capture_method,omitempty"`
	PaymentMethod     payment.Method        `json:"payment_method,omitempty"`
	PaymentMethodType payment.MethodType    `json:"payment_method_type,omitempty"`
}

type VoidData struct {
	ConnectorTransactionID string `json:"connector_transaction_id"`
	CancellationReason     string `json:"cancellation_reason,omitempty"`
}

// SyncType says whether a payment sync looks at the whole payment or at its captures.
type SyncType string

const (
	SyncSinglePayment    SyncType = "single_payment"
	SyncMultipleCaptures SyncType = "multiple_capture"
)

type SyncData struct {
	ConnectorTransactionID string                `json:"connector_transaction_id"`
	EncodedData            string                `json:"encoded_data,omitempty"`
	CaptureMethod          payment.CaptureMethod `json:"capture_method,omitempty"`
	SyncType               SyncType              `json:"sync_type"`
	CaptureIDs             []string              `json:"capture_ids,omitempty"`
	Currency               payment.Currency      `json:"currency"`
}

type SetupMandateData struct {
	Currency         payment.Currency  `json:"currency"`
	PaymentMethod    PaymentMethodData `json:"payment_method_data"`
	ReturnURL        string            `json:"return_url,omitempty"`
	ShopperReference string            `json:"shopper_reference,omitempty"`
}

type PreProcessingData struct {
	Amount        payment.MinorUnit `json:"amount"`
	Currency      payment.Currency  `json:"currency"`
	PaymentMethod PaymentMethodData `json:"payment_method_data"`
}

type ExtendAuthorizationData struct {
	ConnectorTransactionID string            `json:"connector_transaction_id"`
	Amount                 payment.MinorUnit `json:"amount"`
	Currency               payment.Currency  `json:"currency"`
}

type GiftCardBalanceData struct {
	Currency      payment.Currency  `json:"currency"`
	PaymentMethod PaymentMethodData `json:"payment_method_data"`
}

type GiftCardBalanceResponse struct {
	Balance  payment.MinorUnit `json:"balance"`
	Currency payment.Currency  `json:"currency"`
}

type RefundData struct {
	RefundID               string            `json:"refund_id"`
	ConnectorTransactionID string            `json:"connector_transaction_id"`
	ConnectorRefundID      string            `json:"connector_refund_id,omitempty"`
	RefundAmount           payment.MinorUnit `json:"refund_amount"`
	Currency               payment.Currency  `json:"currency"`
	Reason                 string            `json:"reason,omitempty"`
}

type RefundsResponse struct {
	ConnectorRefundID string        `json:"connector_refund_id"`
	Status            refund.Status `json:"refund_status"`
}

type PayoutData struct {
	PayoutID          string            `json:"payout_id"`
	ConnectorPayoutID string            `json:"connector_payout_id,omitempty"`
	Amount            payment.MinorUnit `json:"amount"`
	Currency          payment.Currency  `json:"currency"`
	PayoutType        string            `json:"payout_type"`
	Card              *Card             `json:"card,omitempty"`
	IBAN              string            `json:"iban,omitempty"`
	OwnerName         string            `json:"owner_name,omitempty"`
}

type PayoutsResponse struct {
	ConnectorPayoutID string        `json:"connector_payout_id"`
	Status            payout.Status `json:"status"`
	ErrorCode         string        `json:"error_code,omitempty"`
	ErrorMessage      string        `json:"error_message,omitempty"`
}

type DisputeData struct {
	ConnectorDisputeID     string `json:"connector_dispute_id"`
	ConnectorTransactionID string `json:"connector_transaction_id,omitempty"`
	DefenseReasonCode      string `json:"defense_reason_code,omitempty"`
}

type DisputeResponse struct {
	Status          dispute.Status `json:"dispute_status"`
	ConnectorStatus string         `json:"connector_status,omitempty"`
}

// Evidence is one document submitted to defend a dispute.
type Evidence struct {
	Type    string `json:"evidence_type"`
	FileID  string `json:"provider_file_id,omitempty"`
	Content []byte `json:"content,omitempty"`
	Mime    string `json:"mime_type,omitempty"`
}

type SubmitEvidenceData struct {
	ConnectorDisputeID string     `json:"connector_dispute_id"`
	Evidence           []Evidence `json:"evidence"`
}

type SubmitEvidenceResponse struct {
	Status          dispute.Status `json:"dispute_status"`
	ConnectorStatus string         `json:"connector_status,omitempty"`
}

type UploadFileData struct {
	FileKey  string `json:"file_key"`
	Content  []byte `json:"content"`
	FileType string `json:"file_type"`
}

type UploadFileResponse struct {
	ProviderFileID string `json:"provider_file_id"`
}

type RetrieveFileData struct {
	ProviderFileID string `json:"provider_file_id"`
}

type RetrieveFileResponse struct {
	Content []byte `json:"content"`
}

type VerifyWebhookSourceData struct {
	Request    *IncomingWebhookRequest
	MerchantID string
	Secret     WebhookSecret
}

type VerifyWebhookSourceResponse struct {
	Verified bool `json:"verified"`
}
