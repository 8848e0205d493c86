package webhook

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"paymentswitch/internal/connector"
	"paymentswitch/internal/domain/event"
	"paymentswitch/internal/domain/payout"
)

var payoutStatuses = map[event.Type]payout.Status{
	event.TypePayoutSuccess:    payout.StatusSuccess,
	event.TypePayoutFailure:    payout.StatusFailed,
	event.TypePayoutProcessing: payout.StatusPending,
	event.TypePayoutCancelled:  payout.StatusCancelled,
	event.TypePayoutCreated:    payout.StatusInitiated,
	event.TypePayoutExpired:    payout.StatusExpired,
	event.TypePayoutReversed:   payout.StatusReversed,
}

func (d *dispatcher) payout(ctx context.Context, in *flowInput) (event.Tracker, error) {
	ref, err := in.reference()
	if err != nil {
		return nil, err
	}
	pr, ok := ref.(event.PayoutRef)
	if !ok {
		return nil, fmt.Errorf("expected a payout reference, got %s: %w", ref, ErrReferenceUnresolved)
	}

	var attempt *payout.Attempt
	switch pr.Type {
	case event.PayoutByAttemptID:
		attempt, err = d.store.FindPayoutAttempt(ctx, in.merchantID, pr.ID)
	default:
		attempt, err = d.store.FindPayoutAttemptByConnectorID(ctx, in.merchantID, pr.ID)
	}
	if err != nil {
		return nil, lookupErr("payout "+pr.ID, err)
	}
	if attempt.Status.IsTerminal() {
		return event.PayoutTracker{PayoutID: attempt.PayoutID, Status: string(attempt.Status)}, nil
	}

	p, err := d.store.FindPayout(ctx, in.merchantID, attempt.PayoutID)
	if err != nil {
		return nil, lookupErr("payout "+attempt.PayoutID, err)
	}

	var (
		status        payout.Status
		code, message string
	)
	if in.verified() {
		status = payoutStatuses[in.result.EventType]
		if status == payout.StatusFailed {
			code, message = string(in.result.EventType), "payout failed at connector"
		}
	} else {
		resp, err := d.syncPayout(ctx, in, p, attempt)
		if err != nil {
			return nil, err
		}
		if resp != nil {
			status, code, message = resp.Status, resp.ErrorCode, resp.ErrorMessage
			if resp.ConnectorPayoutID != "" && attempt.ConnectorPayoutID == "" {
				attempt.ConnectorPayoutID = resp.ConnectorPayoutID
			}
		}
	}

	if attempt.Apply(status, code, message) {
		if err := d.store.SavePayoutAttempt(ctx, attempt); err != nil {
			return nil, fmt.Errorf("failed to save payout attempt %s: %w", attempt.ID, err)
		}
		p.Status = attempt.Status
		p.UpdatedAt = time.Now().UTC()
		if err := d.store.SavePayout(ctx, p); err != nil {
			return nil, fmt.Errorf("failed to save payout %s: %w", p.ID, err)
		}
		if p.Status.IsNotifiable() {
			if err := d.notifier.Notify(ctx, event.ClassPayouts, p.ID, p, p.UpdatedAt); err != nil {
				log.Error().Err(err).Str("payout_id", p.ID).Msg("failed to send outgoing webhook")
			}
		}
	}
	return event.PayoutTracker{PayoutID: p.ID, Status: string(attempt.Status)}, nil
}

// syncPayout asks the connector for the payout status. Connectors without a payout
// status call leave the attempt as it is.
func (d *dispatcher) syncPayout(ctx context.Context, in *flowInput, p *payout.Payout, attempt *payout.Attempt) (*connector.PayoutsResponse, error) {
	rd := &connector.RouterData[connector.PayoutData, connector.PayoutsResponse]{
		Flow:       connector.FlowPayoutSync,
		MerchantID: in.merchantID,
		Connector:  in.adapter.ID(),
		Account:    in.account,
		Request: connector.PayoutData{
			PayoutID:          p.ID,
			ConnectorPayoutID: attempt.ConnectorPayoutID,
			Amount:            p.Amount,
			Currency:          p.Currency,
			PayoutType:        p.PayoutType,
		},
	}
	err := connector.Execute(ctx, d.sender, in.adapter.PayoutSync(), rd)
	if errors.Is(err, connector.ErrNotImplemented) {
		log.Warn().
			Str("connector", in.adapter.ID()).
			Str("payout_id", p.ID).
			Msg("unverified payout webhook ignored, connector has no payout sync")
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("payout sync %s: %w", p.ID, err)
	}
	if rd.Error != nil {
		return &connector.PayoutsResponse{Status: payout.StatusFailed, ErrorCode: rd.Error.Code, ErrorMessage: rd.Error.Message}, nil
	}
	return rd.Response, nil
}
