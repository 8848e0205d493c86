package event

import (
	"encoding/json"
	"fmt"
)

// ObjectReferenceID identifies the local aggregate a webhook is about.
// Exactly one of the concrete reference types below implements it.
type ObjectReferenceID interface {
	isObjectReference()
	String() string
}

// PaymentIDType says which payment identifier a PaymentRef carries.
type PaymentIDType string

const (
	PaymentByConnectorTransactionID PaymentIDType = "connector_transaction_id"
	PaymentByAttemptID              PaymentIDType = "payment_attempt_id"
	PaymentByPreprocessingID        PaymentIDType = "preprocessing_id"
	PaymentByIntentID               PaymentIDType = "payment_intent_id"
)

type PaymentRef struct {
	Type PaymentIDType
	ID   string
}

// RefundIDType says which refund identifier a RefundRef carries.
type RefundIDType string

const (
	RefundByID          RefundIDType = "refund_id"
	RefundByConnectorID RefundIDType = "connector_refund_id"
)

type RefundRef struct {
	Type RefundIDType
	ID   string
}

type MandateIDType string

const (
	MandateByID          MandateIDType = "mandate_id"
	MandateByConnectorID MandateIDType = "connector_mandate_id"
)

type MandateRef struct {
	Type MandateIDType
	ID   string
}

type PayoutIDType string

const (
	PayoutByAttemptID   PayoutIDType = "payout_attempt_id"
	PayoutByConnectorID PayoutIDType = "connector_payout_id"
)

type PayoutRef struct {
	Type PayoutIDType
	ID   string
}

type AuthenticationIDType string

const (
	AuthenticationByID          AuthenticationIDType = "authentication_id"
	AuthenticationByConnectorID AuthenticationIDType = "connector_authentication_id"
)

type AuthenticationRef struct {
	Type AuthenticationIDType
	ID   string
}

// DisputeRef points at a dispute by the connector's dispute id.
type DisputeRef struct {
	ID string
}

func (PaymentRef) isObjectReference()        {}
func (RefundRef) isObjectReference()         {}
func (MandateRef) isObjectReference()        {}
func (PayoutRef) isObjectReference()         {}
func (AuthenticationRef) isObjectReference() {}
func (DisputeRef) isObjectReference()        {}

func (r PaymentRef) String() string        { return fmt.Sprintf("payment:%s:%s", r.Type, r.ID) }
func (r RefundRef) String() string         { return fmt.Sprintf("refund:%s:%s", r.Type, r.ID) }
func (r MandateRef) String() string        { return fmt.Sprintf("mandate:%s:%s", r.Type, r.ID) }
func (r PayoutRef) String() string         { return fmt.Sprintf("payout:%s:%s", r.Type, r.ID) }
func (r AuthenticationRef) String() string { return fmt.Sprintf("authentication:%s:%s", r.Type, r.ID) }
func (r DisputeRef) String() string        { return "dispute:" + r.ID }

// ReferenceDTO is the tagged wire form of an ObjectReferenceID, used when a reference
// crosses a process boundary (the unified connector service returns one).
type ReferenceDTO struct {
	Kind   string `json:"kind"`
	IDType string `json:"id_type,omitempty"`
	ID     string `json:"id"`
}

// ToDTO converts a reference to its wire form.
func ToDTO(ref ObjectReferenceID) ReferenceDTO {
	switch r := ref.(type) {
	case PaymentRef:
		return ReferenceDTO{Kind: "payment", IDType: string(r.Type), ID: r.ID}
	case RefundRef:
		return ReferenceDTO{Kind: "refund", IDType: string(r.Type), ID: r.ID}
	case MandateRef:
		return ReferenceDTO{Kind: "mandate", IDType: string(r.Type), ID: r.ID}
	case PayoutRef:
		return ReferenceDTO{Kind: "payout", IDType: string(r.Type), ID: r.ID}
	case AuthenticationRef:
		return ReferenceDTO{Kind: "authentication", IDType: string(r.Type), ID: r.ID}
	case DisputeRef:
		return ReferenceDTO{Kind: "dispute", ID: r.ID}
	}
	return ReferenceDTO{}
}

// Reference converts the wire form back into an ObjectReferenceID.
func (d ReferenceDTO) Reference() (ObjectReferenceID, error) {
	if d.ID == "" {
		return nil, fmt.Errorf("reference %q has no id", d.Kind)
	}
	switch d.Kind {
	case "payment":
		return PaymentRef{Type: PaymentIDType(d.IDType), ID: d.ID}, nil
	case "refund":
		return RefundRef{Type: RefundIDType(d.IDType), ID: d.ID}, nil
	case "mandate":
		return MandateRef{Type: MandateIDType(d.IDType), ID: d.ID}, nil
	case "payout":
		return PayoutRef{Type: PayoutIDType(d.IDType), ID: d.ID}, nil
	case "authentication":
		return AuthenticationRef{Type: AuthenticationIDType(d.IDType), ID: d.ID}, nil
	case "dispute":
		return DisputeRef{ID: d.ID}, nil
	}
	return nil, fmt.Errorf("unknown reference kind %q", d.Kind)
}

// MarshalReference encodes a reference as JSON.
func MarshalReference(ref ObjectReferenceID) ([]byte, error) {
	return json.Marshal(ToDTO(ref))
}
