package payment

import "time"

// MandateReference is what one merchant-connector-account knows about a stored mandate.
type MandateReference struct {
	ConnectorMandateID string     `json:"connector_mandate_id"`
	PaymentMethodType  MethodType `json:"payment_method_type,omitempty"`
	OriginalAmount     MinorUnit  `json:"original_payment_authorized_amount,omitempty"`
	OriginalCurrency   Currency   `json:"original_payment_authorized_currency,omitempty"`
}

// MethodRecord is a saved payment method of a customer.
type MethodRecord struct {
	ID                   string                      `json:"payment_method_id"`
	MerchantID           string                      `json:"merchant_id"`
	CustomerID           string                      `json:"customer_id"`
	Method               Method                      `json:"payment_method"`
	MethodType           MethodType                  `json:"payment_method_type"`
	Mandates             map[string]MandateReference `json:"connector_mandate_details,omitempty"`
	NetworkTransactionID string                      `json:"network_transaction_id,omitempty"`
	CardNetwork          string                      `json:"card_network,omitempty"`
	CardLast4            string                      `json:"card_last4,omitempty"`
	CardExpiry           string                      `json:"card_expiry,omitempty"`
	UpdatedAt            time.Time                   `json:"updated_at"`
}

// MergeMandate records ref under mcaID unless that account already has a mandate.
// The first writer per merchant-connector-account wins.
func (p *MethodRecord) MergeMandate(mcaID string, ref MandateReference) bool {
	if mcaID == "" || ref.ConnectorMandateID == "" {
		return false
	}
	if p.Mandates == nil {
		p.Mandates = make(map[string]MandateReference)
	}
	if _, ok := p.Mandates[mcaID]; ok {
		return false
	}
	p.Mandates[mcaID] = ref
	p.UpdatedAt = time.Now().UTC()
	return true
}

// SetNetworkTransactionID stores the scheme transaction id if none is recorded yet.
func (p *MethodRecord) SetNetworkTransactionID(id string) bool {
	if id == "" || p.NetworkTransactionID != "" {
		return false
	}
	p.NetworkTransactionID = id
	p.UpdatedAt = time.Now().UTC()
	return true
}
