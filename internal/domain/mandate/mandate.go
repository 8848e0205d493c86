package mandate

import "time"

// Status of a stored mandate.
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
	StatusPending  Status = "pending"
	StatusRevoked  Status = "revoked"
)

// Mandate lets a merchant charge a customer again without the customer present.
type Mandate struct {
	ID                  string    `json:"mandate_id"`
	MerchantID          string    `json:"merchant_id"`
	CustomerID          string    `json:"customer_id"`
	PaymentMethodID     string    `json:"payment_method_id"`
	OriginalPaymentID   string    `json:"original_payment_id,omitempty"`
	Connector           string    `json:"connector"`
	MerchantConnectorID string    `json:"merchant_connector_id"`
	ConnectorMandateID  string    `json:"connector_mandate_id,omitempty"`
	Status              Status    `json:"mandate_status"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// Details as reported by the connector in a webhook.
type Details struct {
	ConnectorMandateID string `json:"connector_mandate_id"`
	Status             Status `json:"status,omitempty"`
}

// SetStatus reports whether the status changed.
func (m *Mandate) SetStatus(s Status) bool {
	if s == "" || s == m.Status {
		return false
	}
	m.Status = s
	m.UpdatedAt = time.Now().UTC()
	return true
}
