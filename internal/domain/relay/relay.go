package relay

import "time"

// Type of a relayed operation.
type Type string

const TypeRefund Type = "refund"

// Status of a relay request.
type Status string

const (
	StatusCreated Status = "created"
	StatusPending Status = "pending"
	StatusSuccess Status = "success"
	StatusFailure Status = "failure"
)

// Relay is a request the switch forwarded to a connector on a merchant's behalf
// without owning the underlying payment.
type Relay struct {
	ID                   string    `json:"relay_id"`
	MerchantID           string    `json:"merchant_id"`
	ProfileID            string    `json:"profile_id"`
	MerchantConnectorID  string    `json:"connector_id"`
	Type                 Type      `json:"type"`
	ConnectorResourceID  string    `json:"connector_resource_id"`
	ConnectorReferenceID string    `json:"connector_reference_id,omitempty"`
	Status               Status    `json:"status"`
	ErrorCode            string    `json:"error_code,omitempty"`
	ErrorMessage         string    `json:"error_message,omitempty"`
	UpdatedAt            time.Time `json:"updated_at"`
}

// Apply records the outcome of the relayed operation.
func (r *Relay) Apply(status Status, referenceID, code, message string) bool {
	changed := false
	if referenceID != "" && referenceID != r.ConnectorReferenceID {
		r.ConnectorReferenceID = referenceID
		changed = true
	}
	if status == "" || status == r.Status {
		if changed {
			r.UpdatedAt = time.Now().UTC()
		}
		return changed
	}
	r.Status = status
	if status == StatusFailure {
		r.ErrorCode, r.ErrorMessage = code, message
	} else {
		r.ErrorCode, r.ErrorMessage = "", ""
	}
	r.UpdatedAt = time.Now().UTC()
	return true
}
