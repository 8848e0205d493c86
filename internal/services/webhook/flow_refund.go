package webhook

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"paymentswitch/internal/connector"
	"paymentswitch/internal/domain/event"
	"paymentswitch/internal/domain/refund"
	"paymentswitch/internal/domain/relay"
)

// refundOutcome is the connector's verdict on a refund, however it was obtained.
type refundOutcome struct {
	status            refund.Status
	connectorRefundID string
	code, message     string
}

func (d *dispatcher) refund(ctx context.Context, in *flowInput) (event.Tracker, error) {
	ref, err := refundRef(in)
	if err != nil {
		return nil, err
	}

	var r *refund.Refund
	switch ref.Type {
	case event.RefundByID:
		r, err = d.store.FindRefund(ctx, in.merchantID, ref.ID)
	default:
		r, err = d.store.FindRefundByConnectorRefundID(ctx, in.merchantID, in.adapter.ID(), ref.ID)
	}
	if err != nil {
		return nil, lookupErr("refund "+ref.ID, err)
	}

	var out refundOutcome
	if in.verified() {
		out = verifiedRefund(in)
	} else {
		out, err = d.syncRefund(ctx, in, connector.RefundData{
			RefundID:               r.ID,
			ConnectorTransactionID: r.ConnectorTransactionID,
			ConnectorRefundID:      r.ConnectorRefundID,
			RefundAmount:           r.Amount,
			Currency:               r.Currency,
			Reason:                 r.Reason,
		})
		if err != nil {
			return nil, err
		}
	}

	prev := r.Status
	if r.Apply(out.status, out.connectorRefundID, out.code, out.message) {
		if err := d.store.SaveRefund(ctx, r); err != nil {
			return nil, fmt.Errorf("failed to save refund %s: %w", r.ID, err)
		}
		if r.Status != prev && r.Status.IsTerminal() {
			if err := d.notifier.Notify(ctx, event.ClassRefunds, r.ID, r, r.UpdatedAt); err != nil {
				log.Error().Err(err).Str("refund_id", r.ID).Msg("failed to send outgoing webhook")
			}
		}
	}
	return event.RefundTracker{PaymentID: r.PaymentID, RefundID: r.ID, Status: string(r.Status)}, nil
}

func refundRef(in *flowInput) (event.RefundRef, error) {
	ref, err := in.reference()
	if err != nil {
		return event.RefundRef{}, err
	}
	rr, ok := ref.(event.RefundRef)
	if !ok {
		return event.RefundRef{}, fmt.Errorf("expected a refund reference, got %s: %w", ref, ErrReferenceUnresolved)
	}
	return rr, nil
}

// verifiedRefund reads the outcome from the webhook itself.
func verifiedRefund(in *flowInput) refundOutcome {
	if p := in.result.UCS; p != nil && p.RefundsResponse != nil {
		return refundOutcome{status: p.RefundsResponse.Status, connectorRefundID: p.RefundsResponse.ConnectorRefundID}
	}
	switch in.result.EventType {
	case event.TypeRefundSuccess:
		return refundOutcome{status: refund.StatusSuccess}
	case event.TypeRefundFailure:
		return refundOutcome{status: refund.StatusFailure, code: string(in.result.EventType), message: "refund failed at connector"}
	}
	return refundOutcome{}
}

// syncRefund asks the connector for the refund's status. A connector that chose not to
// call out yields an empty outcome.
func (d *dispatcher) syncRefund(ctx context.Context, in *flowInput, data connector.RefundData) (refundOutcome, error) {
	rd := &connector.RouterData[connector.RefundData, connector.RefundsResponse]{
		Flow:       connector.FlowRefundSync,
		MerchantID: in.merchantID,
		Connector:  in.adapter.ID(),
		Account:    in.account,
		Request:    data,
	}
	if err := connector.Execute(ctx, d.sender, in.adapter.RefundSync(), rd); err != nil {
		return refundOutcome{}, fmt.Errorf("refund sync %s: %w", data.RefundID, err)
	}
	switch {
	case rd.Error != nil:
		return refundOutcome{status: refund.StatusFailure, code: rd.Error.Code, message: rd.Error.Message}, nil
	case rd.Response != nil:
		return refundOutcome{status: rd.Response.Status, connectorRefundID: rd.Response.ConnectorRefundID}, nil
	}
	return refundOutcome{}, nil
}

// relayRefund updates a relayed refund. Relays have no payment behind them, so nothing
// is sent to the merchant.
func (d *dispatcher) relayRefund(ctx context.Context, in *flowInput) (event.Tracker, error) {
	ref, err := refundRef(in)
	if err != nil {
		return nil, err
	}

	var r *relay.Relay
	switch ref.Type {
	case event.RefundByID:
		r, err = d.store.FindRelay(ctx, in.merchantID, ref.ID)
	default:
		r, err = d.store.FindRelayByConnectorReferenceID(ctx, in.merchantID, ref.ID)
	}
	if err != nil {
		return nil, lookupErr("relay "+ref.ID, err)
	}
	if r.Type != relay.TypeRefund {
		return nil, fmt.Errorf("relay %s of type %s: %w", r.ID, r.Type, ErrFlowNotSupported)
	}

	var out refundOutcome
	if in.verified() {
		out = verifiedRefund(in)
	} else {
		out, err = d.syncRefund(ctx, in, connector.RefundData{
			RefundID:               r.ID,
			ConnectorTransactionID: r.ConnectorResourceID,
			ConnectorRefundID:      r.ConnectorReferenceID,
		})
		if err != nil {
			return nil, err
		}
	}

	if r.Apply(relayStatus(out.status), out.connectorRefundID, out.code, out.message) {
		if err := d.store.SaveRelay(ctx, r); err != nil {
			return nil, fmt.Errorf("failed to save relay %s: %w", r.ID, err)
		}
	}
	return event.RelayTracker{RelayID: r.ID, Status: string(r.Status)}, nil
}

func relayStatus(s refund.Status) relay.Status {
	switch s {
	case "":
		return ""
	case refund.StatusSuccess:
		return relay.StatusSuccess
	case refund.StatusFailure, refund.StatusTransactionFailure:
		return relay.StatusFailure
	}
	return relay.StatusPending
}
