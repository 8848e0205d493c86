package webhook

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"paymentswitch/internal/domain/event"
	paymentsvc "paymentswitch/internal/services/payment"
	"paymentswitch/internal/ucs"
)

// payment syncs the referenced attempt. A verified webhook is applied from its own
// resource; an unverified one makes the switch ask the connector instead.
func (d *dispatcher) payment(ctx context.Context, in *flowInput) (event.Tracker, error) {
	ref, err := in.paymentRef()
	if err != nil {
		return nil, err
	}
	attempt, err := d.payments.ResolveAttempt(ctx, in.merchantID, in.adapter.ID(), ref)
	if err != nil {
		return nil, lookupErr("payment "+ref.ID, err)
	}

	req := paymentsvc.SyncRequest{
		MerchantID: in.merchantID,
		AttemptID:  attempt.ID,
		Adapter:    in.adapter,
		Account:    in.account,
	}
	switch {
	case !in.verified():
		req.Action = paymentsvc.ActionTrigger
	case in.result.UCS != nil && in.result.UCS.Status == ucs.TransformComplete:
		req.Action = paymentsvc.ActionUCSConsumeResponse
		req.UCSResponse = in.result.UCS.PaymentsResponse
	case in.result.UCS != nil:
		req.Action = paymentsvc.ActionUCSHandleResponse
	default:
		resource, err := in.adapter.WebhookResourceObject(in.request)
		if err != nil {
			return nil, fmt.Errorf("payment resource object: %w", err)
		}
		req.Action = paymentsvc.ActionHandleResponse
		req.Resource = resource
	}

	out, err := d.payments.Sync(ctx, req)
	if err != nil {
		return nil, lookupErr("payment "+attempt.PaymentID, err)
	}

	if in.verified() && succeeded(in.result.EventType) {
		d.reconcileMandate(ctx, in, out.Attempt)
	}
	return event.PaymentTracker{PaymentID: out.Intent.ID, Status: string(out.Intent.Status)}, nil
}

func succeeded(t event.Type) bool {
	return t == event.TypePaymentIntentSuccess || t == event.TypePaymentIntentAuthorizationSuccess
}

// bankTransfer resyncs the payment a transfer source belongs to.
func (d *dispatcher) bankTransfer(ctx context.Context, in *flowInput) (event.Tracker, error) {
	ref, err := in.paymentRef()
	if err != nil {
		return nil, err
	}
	attempt, err := d.payments.ResolveAttempt(ctx, in.merchantID, in.adapter.ID(), ref)
	if err != nil {
		return nil, lookupErr("payment "+ref.ID, err)
	}
	out, err := d.payments.Sync(ctx, paymentsvc.SyncRequest{
		MerchantID: in.merchantID,
		AttemptID:  attempt.ID,
		Action:     paymentsvc.ActionTrigger,
		Adapter:    in.adapter,
		Account:    in.account,
	})
	if err != nil {
		return nil, lookupErr("payment "+attempt.PaymentID, err)
	}
	return event.PaymentTracker{PaymentID: out.Intent.ID, Status: string(out.Intent.Status)}, nil
}

type fraudDecision struct {
	PaymentID     string    `json:"payment_id"`
	MerchantID    string    `json:"merchant_id"`
	Decision      string    `json:"frm_status"`
	PaymentStatus string    `json:"payment_status"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// fraudCheck captures an approved payment and voids a rejected one.
func (d *dispatcher) fraudCheck(ctx context.Context, in *flowInput) (event.Tracker, error) {
	if !in.verified() {
		return nil, fmt.Errorf("fraud check webhook: %w", ErrWebhookAuthenticationFailed)
	}
	ref, err := in.paymentRef()
	if err != nil {
		return nil, err
	}
	attempt, err := d.payments.ResolveAttempt(ctx, in.merchantID, in.adapter.ID(), ref)
	if err != nil {
		return nil, lookupErr("payment "+ref.ID, err)
	}
	a, acct, err := d.paymentConnector(ctx, in, attempt)
	if err != nil {
		return nil, err
	}

	var (
		out      *paymentsvc.Result
		decision string
	)
	switch in.result.EventType {
	case event.TypeFrmApproved:
		decision = "legit"
		out, err = d.payments.Capture(ctx, a, acct, in.merchantID, attempt.ID)
	case event.TypeFrmRejected:
		decision = "fraud"
		out, err = d.payments.Void(ctx, a, acct, in.merchantID, attempt.ID, "rejected by fraud check")
	default:
		return nil, fmt.Errorf("fraud check %s: %w", in.result.EventType, ErrFlowNotSupported)
	}
	if err != nil {
		return nil, lookupErr("payment "+attempt.PaymentID, err)
	}

	snap := fraudDecision{
		PaymentID:     out.Intent.ID,
		MerchantID:    in.merchantID,
		Decision:      decision,
		PaymentStatus: string(out.Intent.Status),
		UpdatedAt:     time.Now().UTC(),
	}
	if err := d.notifier.Notify(ctx, event.ClassFrauds, out.Intent.ID, snap, snap.UpdatedAt); err != nil {
		log.Error().Err(err).Str("payment_id", out.Intent.ID).Msg("failed to send outgoing webhook")
	}
	return event.PaymentTracker{PaymentID: out.Intent.ID, Status: string(out.Intent.Status)}, nil
}
