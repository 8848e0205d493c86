package event

import "github.com/rs/zerolog"

// Tracker records what a webhook did to local state. It is never persisted;
// it only feeds logs and metrics.
type Tracker interface {
	zerolog.LogObjectMarshaler
	Kind() string
}

type PaymentTracker struct {
	PaymentID string
	Status    string
}

type RefundTracker struct {
	PaymentID string
	RefundID  string
	Status    string
}

type DisputeTracker struct {
	PaymentID string
	DisputeID string
	Status    string
}

type MandateTracker struct {
	MandateID string
	Status    string
}

type PayoutTracker struct {
	PayoutID string
	Status   string
}

type RelayTracker struct {
	RelayID string
	Status  string
}

// NoEffect means the webhook was acknowledged without changing anything.
type NoEffect struct{}

func (PaymentTracker) Kind() string { return "payment" }
func (RefundTracker) Kind() string  { return "refund" }
func (DisputeTracker) Kind() string { return "dispute" }
func (MandateTracker) Kind() string { return "mandate" }
func (PayoutTracker) Kind() string  { return "payout" }
func (RelayTracker) Kind() string   { return "relay" }
func (NoEffect) Kind() string       { return "no_effect" }

func (t PaymentTracker) MarshalZerologObject(e *zerolog.Event) {
	e.Str("payment_id", t.PaymentID).Str("status", t.Status)
}

func (t RefundTracker) MarshalZerologObject(e *zerolog.Event) {
	e.Str("payment_id", t.PaymentID).Str("refund_id", t.RefundID).Str("status", t.Status)
}

func (t DisputeTracker) MarshalZerologObject(e *zerolog.Event) {
	e.Str("payment_id", t.PaymentID).Str("dispute_id", t.DisputeID).Str("status", t.Status)
}

func (t MandateTracker) MarshalZerologObject(e *zerolog.Event) {
	e.Str("mandate_id", t.MandateID).Str("status", t.Status)
}

func (t PayoutTracker) MarshalZerologObject(e *zerolog.Event) {
	e.Str("payout_id", t.PayoutID).Str("status", t.Status)
}

func (t RelayTracker) MarshalZerologObject(e *zerolog.Event) {
	e.Str("relay_id", t.RelayID).Str("status", t.Status)
}

func (NoEffect) MarshalZerologObject(e *zerolog.Event) {}
