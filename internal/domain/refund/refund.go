package refund

import (
	"time"

	"paymentswitch/internal/domain/payment"
)

// Status of a refund at the connector.
type Status string

const (
	StatusPending            Status = "pending"
	StatusSuccess            Status = "success"
	StatusFailure            Status = "failure"
	StatusManualReview       Status = "manual_review"
	StatusTransactionFailure Status = "transaction_failure"
)

// IsTerminal reports whether the refund can no longer change.
func (s Status) IsTerminal() bool {
	return s == StatusSuccess || s == StatusFailure || s == StatusTransactionFailure
}

// Refund of all or part of a captured payment.
type Refund struct {
	ID                     string            `json:"refund_id"`
	PaymentID              string            `json:"payment_id"`
	AttemptID              string            `json:"attempt_id"`
	MerchantID             string            `json:"merchant_id"`
	Connector              string            `json:"connector"`
	MerchantConnectorID    string            `json:"merchant_connector_id"`
	ConnectorTransactionID string            `json:"connector_transaction_id"`
	ConnectorRefundID      string            `json:"connector_refund_id,omitempty"`
	Amount                 payment.MinorUnit `json:"refund_amount"`
	Currency               payment.Currency  `json:"currency"`
	Status                 Status            `json:"refund_status"`
	Reason                 string            `json:"reason,omitempty"`
	ErrorCode              string            `json:"error_code,omitempty"`
	ErrorMessage           string            `json:"error_message,omitempty"`
	CreatedAt              time.Time         `json:"created_at"`
	UpdatedAt              time.Time         `json:"updated_at"`
}

// Apply sets the connector-reported status, refund id and error, reporting whether the
// refund needs saving.
func (r *Refund) Apply(status Status, connectorRefundID, code, message string) bool {
	changed := false
	if connectorRefundID != "" && connectorRefundID != r.ConnectorRefundID {
		r.ConnectorRefundID = connectorRefundID
		changed = true
	}
	if status == "" || status == r.Status {
		if changed {
			r.UpdatedAt = time.Now().UTC()
		}
		return changed
	}
	r.Status = status
	if status == StatusSuccess {
		r.ErrorCode, r.ErrorMessage = "", ""
	} else if code != "" || message != "" {
		r.ErrorCode, r.ErrorMessage = code, message
	}
	r.UpdatedAt = time.Now().UTC()
	return true
}
