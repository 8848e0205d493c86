package payout

import (
	"time"

	"paymentswitch/internal/domain/payment"
)

// Status of a payout attempt.
type Status string

const (
	StatusSuccess              Status = "success"
	StatusFailed               Status = "failed"
	StatusCancelled            Status = "cancelled"
	StatusInitiated            Status = "initiated"
	StatusExpired              Status = "expired"
	StatusReversed             Status = "reversed"
	StatusPending              Status = "pending"
	StatusIneligible           Status = "ineligible"
	StatusRequiresCreation     Status = "requires_creation"
	StatusRequiresConfirmation Status = "requires_confirmation"
	StatusRequiresPayoutMethod Status = "requires_payout_method_data"
	StatusRequiresFulfillment  Status = "requires_fulfillment"
	StatusRequiresVendorAction Status = "requires_vendor_account_creation"
)

// IsTerminal reports whether a payout in this status never changes again.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusSuccess, StatusFailed, StatusCancelled, StatusExpired, StatusReversed, StatusIneligible:
		return true
	}
	return false
}

// IsNotifiable reports whether merchants are told about this status.
func (s Status) IsNotifiable() bool {
	switch s {
	case StatusSuccess, StatusFailed, StatusCancelled, StatusInitiated, StatusExpired,
		StatusReversed, StatusPending, StatusIneligible, StatusRequiresFulfillment:
		return true
	}
	return false
}

// Payout is the merchant-level payout object.
type Payout struct {
	ID         string            `json:"payout_id"`
	MerchantID string            `json:"merchant_id"`
	ProfileID  string            `json:"profile_id,omitempty"`
	Amount     payment.MinorUnit `json:"amount"`
	Currency   payment.Currency  `json:"currency"`
	PayoutType string            `json:"payout_type,omitempty"`
	Status     Status            `json:"status"`
	CreatedAt  time.Time         `json:"created_at"`
	UpdatedAt  time.Time         `json:"updated_at"`
}

// Attempt is one try at a payout through a single connector.
type Attempt struct {
	ID                  string    `json:"payout_attempt_id"`
	PayoutID            string    `json:"payout_id"`
	MerchantID          string    `json:"merchant_id"`
	Connector           string    `json:"connector"`
	MerchantConnectorID string    `json:"merchant_connector_id"`
	ConnectorPayoutID   string    `json:"connector_payout_id,omitempty"`
	Status              Status    `json:"status"`
	ErrorCode           string    `json:"error_code,omitempty"`
	ErrorMessage        string    `json:"error_message,omitempty"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// Apply records a connector-reported status. Terminal attempts are never changed.
func (a *Attempt) Apply(status Status, code, message string) bool {
	if a.Status.IsTerminal() || status == "" || status == a.Status {
		return false
	}
	a.Status = status
	if status == StatusFailed {
		a.ErrorCode, a.ErrorMessage = code, message
	}
	a.UpdatedAt = time.Now().UTC()
	return true
}
