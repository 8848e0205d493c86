package payment

import (
	"fmt"
	"strings"
	"time"
)

// Intent is the merchant-facing payment aggregate. One intent owns one or more attempts.
type Intent struct {
	ID               string       `json:"payment_id"`
	MerchantID       string       `json:"merchant_id"`
	ProfileID        string       `json:"profile_id"`
	Status           IntentStatus `json:"status"`
	Amount           MinorUnit    `json:"amount"`
	AmountCaptured   MinorUnit    `json:"amount_captured"`
	Currency         Currency     `json:"currency"`
	CustomerID       string       `json:"customer_id,omitempty"`
	ActiveAttemptID  string       `json:"active_attempt_id"`
	SetupFutureUsage string       `json:"setup_future_usage,omitempty"`
	CreatedAt        time.Time    `json:"created_at"`
	UpdatedAt        time.Time    `json:"updated_at"`
}

// Attempt is one try at moving money for an intent through a single connector.
type Attempt struct {
	ID                     string        `json:"attempt_id"`
	PaymentID              string        `json:"payment_id"`
	MerchantID             string        `json:"merchant_id"`
	Connector              string        `json:"connector"`
	MerchantConnectorID    string        `json:"merchant_connector_id"`
	Status                 AttemptStatus `json:"status"`
	Amount                 MinorUnit     `json:"amount"`
	AmountCapturable       MinorUnit     `json:"amount_capturable"`
	Currency               Currency      `json:"currency"`
	CaptureMethod          CaptureMethod `json:"capture_method"`
	PaymentMethod          Method        `json:"payment_method"`
	PaymentMethodType      MethodType    `json:"payment_method_type"`
	PaymentMethodID        string        `json:"payment_method_id,omitempty"`
	AuthenticationType     string        `json:"authentication_type,omitempty"`
	ConnectorTransactionID string        `json:"connector_transaction_id,omitempty"`
	PreprocessingID        string        `json:"preprocessing_step_id,omitempty"`
	EncodedData            string        `json:"encoded_data,omitempty"`
	ConnectorMandateID     string        `json:"connector_mandate_id,omitempty"`
	NetworkTransactionID   string        `json:"network_transaction_id,omitempty"`
	MultipleCaptureCount   int           `json:"multiple_capture_count,omitempty"`
	ErrorCode              string        `json:"error_code,omitempty"`
	ErrorMessage           string        `json:"error_message,omitempty"`
	ErrorReason            string        `json:"error_reason,omitempty"`
	CreatedAt              time.Time     `json:"created_at"`
	UpdatedAt              time.Time     `json:"updated_at"`
}

// Capture is one partial capture of an attempt, used by connectors that capture more than once.
type Capture struct {
	ID                 string        `json:"capture_id"`
	AttemptID          string        `json:"attempt_id"`
	PaymentID          string        `json:"payment_id"`
	MerchantID         string        `json:"merchant_id"`
	Status             CaptureStatus `json:"status"`
	Amount             MinorUnit     `json:"amount"`
	Currency           Currency      `json:"currency"`
	ConnectorCaptureID string        `json:"connector_capture_id,omitempty"`
	UpdatedAt          time.Time     `json:"updated_at"`
}

// CaptureStatus of a single capture
type CaptureStatus string

const (
	CaptureStarted CaptureStatus = "started"
	CapturePending CaptureStatus = "pending"
	CaptureCharged CaptureStatus = "charged"
	CaptureFailed  CaptureStatus = "failed"
)

// Method represents the payment method family
type Method string

const (
	MethodCard         Method = "card"
	MethodWallet       Method = "wallet"
	MethodBankRedirect Method = "bank_redirect"
	MethodBankTransfer Method = "bank_transfer"
	MethodGiftCard     Method = "gift_card"
	MethodBankDebit    Method = "bank_debit"
)

// MethodType is the concrete payment method inside a family
type MethodType string

const (
	TypeCredit    MethodType = "credit"
	TypeDebit     MethodType = "debit"
	TypeApplePay  MethodType = "apple_pay"
	TypeGooglePay MethodType = "google_pay"
	TypePaypal    MethodType = "paypal"
	TypeIdeal     MethodType = "ideal"
	TypeGivex     MethodType = "givex"
	TypeSepa      MethodType = "sepa"
	TypeAch       MethodType = "ach"
)

// CaptureMethod controls when funds are captured after authorization
type CaptureMethod string

const (
	CaptureAutomatic      CaptureMethod = "automatic"
	CaptureManual         CaptureMethod = "manual"
	CaptureManualMultiple CaptureMethod = "manual_multiple"
	CaptureScheduled      CaptureMethod = "scheduled"
	CaptureSequentialAuto CaptureMethod = "sequential_automatic"
)

// CreateAttempt builds a new attempt in the started state.
func CreateAttempt(intent *Intent, attemptID, connector, mcaID string, pm Method, pmt MethodType, capture CaptureMethod) (*Attempt, error) {
	if intent == nil {
		return nil, DomainError{Code: ErrInvalidIntent, Message: "intent is required"}
	}
	if strings.TrimSpace(attemptID) == "" {
		return nil, DomainError{Code: ErrInvalidAttempt, Message: "attempt id is required"}
	}
	if intent.Amount <= 0 {
		return nil, DomainError{Code: ErrInvalidAmount, Message: fmt.Sprintf("amount must be positive: %d", intent.Amount)}
	}
	now := time.Now().UTC()
	return &Attempt{
		ID:                  attemptID,
		PaymentID:           intent.ID,
		MerchantID:          intent.MerchantID,
		Connector:           connector,
		MerchantConnectorID: mcaID,
		Status:              AttemptStarted,
		Amount:              intent.Amount,
		Currency:            intent.Currency,
		CaptureMethod:       capture,
		PaymentMethod:       pm,
		PaymentMethodType:   pmt,
		CreatedAt:           now,
		UpdatedAt:           now,
	}, nil
}

// ApplyStatus moves the attempt to status and reports whether anything changed.
func (a *Attempt) ApplyStatus(status AttemptStatus) bool {
	if status == "" || a.Status == status {
		return false
	}
	a.Status = status
	if status.IsSuccessful() {
		a.ErrorCode, a.ErrorMessage, a.ErrorReason = "", "", ""
	}
	switch status {
	case AttemptAuthorized:
		a.AmountCapturable = a.Amount
	case AttemptCharged, AttemptVoided, AttemptFailure:
		a.AmountCapturable = 0
	}
	a.UpdatedAt = time.Now().UTC()
	return true
}

// ApplyError records a connector error on the attempt.
func (a *Attempt) ApplyError(status AttemptStatus, code, message, reason string) bool {
	changed := a.Status != status || a.ErrorCode != code || a.ErrorMessage != message
	a.Status = status
	a.ErrorCode = code
	a.ErrorMessage = message
	a.ErrorReason = reason
	if changed {
		a.UpdatedAt = time.Now().UTC()
	}
	return changed
}

// HasMultipleCaptures reports whether the attempt is reconciled capture-by-capture.
func (a *Attempt) HasMultipleCaptures() bool {
	return a.MultipleCaptureCount > 0
}

// ApplyAttemptStatus derives the intent status from its active attempt.
func (i *Intent) ApplyAttemptStatus(a *Attempt) bool {
	next := IntentStatusFor(a.Status)
	if next == i.Status {
		return false
	}
	i.Status = next
	if next == IntentSucceeded {
		i.AmountCaptured = a.Amount
	}
	i.UpdatedAt = time.Now().UTC()
	return true
}

// DomainError represents a domain-level error
type DomainError struct {
	Message string
	Code    string
}

func (e DomainError) Error() string {
	return fmt.Sprintf("domain error [%s]: %s", e.Code, e.Message)
}

// Domain error codes
const (
	ErrInvalidAmount  = "INVALID_AMOUNT"
	ErrInvalidIntent  = "INVALID_INTENT"
	ErrInvalidAttempt = "INVALID_ATTEMPT"
)
