package webhook

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"paymentswitch/internal/domain/dispute"
	"paymentswitch/internal/domain/event"
	"paymentswitch/internal/store/repositories"
)

var disputeStatuses = map[event.Type]dispute.Status{
	event.TypeDisputeOpened:     dispute.StatusOpened,
	event.TypeDisputeExpired:    dispute.StatusExpired,
	event.TypeDisputeAccepted:   dispute.StatusAccepted,
	event.TypeDisputeCancelled:  dispute.StatusCancelled,
	event.TypeDisputeChallenged: dispute.StatusChallenged,
	event.TypeDisputeWon:        dispute.StatusWon,
	event.TypeDisputeLost:       dispute.StatusLost,
}

// dispute creates or advances the dispute raised against a payment. Unverified dispute
// webhooks are never trusted since there is no connector call to confirm them.
func (d *dispatcher) dispute(ctx context.Context, in *flowInput) (event.Tracker, error) {
	if !in.verified() {
		return nil, fmt.Errorf("dispute webhook: %w", ErrWebhookAuthenticationFailed)
	}
	status, ok := disputeStatuses[in.result.EventType]
	if !ok {
		return nil, fmt.Errorf("dispute event %s: %w", in.result.EventType, ErrFlowNotSupported)
	}
	ref, err := in.paymentRef()
	if err != nil {
		return nil, err
	}
	attempt, err := d.payments.ResolveAttempt(ctx, in.merchantID, in.adapter.ID(), ref)
	if err != nil {
		return nil, lookupErr("payment "+ref.ID, err)
	}

	det, err := d.disputeDetails(in)
	if err != nil {
		return nil, err
	}

	var (
		created bool
		changed bool
	)
	dp, err := d.store.FindDispute(ctx, in.merchantID, attempt.PaymentID, det.ConnectorDisputeID)
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		dp = newDispute(in, attempt.PaymentID, attempt.ID, *det, status)
		created = true
	case err != nil:
		return nil, lookupErr("dispute "+det.ConnectorDisputeID, err)
	default:
		prevStage, prevStatus := dp.Stage, dp.Status
		if err := dp.Apply(*det, status); err != nil {
			return nil, fmt.Errorf("dispute %s: %w", dp.ID, err)
		}
		changed = dp.Stage != prevStage || dp.Status != prevStatus
	}

	if err := d.store.SaveDispute(ctx, dp); err != nil {
		return nil, fmt.Errorf("failed to save dispute %s: %w", dp.ID, err)
	}
	if created || changed {
		if err := d.notifier.Notify(ctx, event.ClassDisputes, dp.ID, dp, dp.UpdatedAt); err != nil {
			log.Error().Err(err).Str("dispute_id", dp.ID).Msg("failed to send outgoing webhook")
		}
	}
	return event.DisputeTracker{PaymentID: dp.PaymentID, DisputeID: dp.ID, Status: string(dp.Status)}, nil
}

func (d *dispatcher) disputeDetails(in *flowInput) (*dispute.Details, error) {
	if p := in.result.UCS; p != nil && p.DisputeDetails != nil {
		return p.DisputeDetails, nil
	}
	det, err := in.adapter.DisputeDetails(in.request)
	if err != nil {
		return nil, fmt.Errorf("dispute details: %w: %w", ErrWebhookProcessingFailure, err)
	}
	return det, nil
}

func newDispute(in *flowInput, paymentID, attemptID string, det dispute.Details, status dispute.Status) *dispute.Dispute {
	now := time.Now().UTC()
	return &dispute.Dispute{
		ID:                  "dp_" + uuid.NewString(),
		PaymentID:           paymentID,
		AttemptID:           attemptID,
		MerchantID:          in.merchantID,
		ProfileID:           in.account.ProfileID,
		Connector:           in.adapter.ID(),
		MerchantConnectorID: in.account.ID,
		ConnectorDisputeID:  det.ConnectorDisputeID,
		ConnectorStatus:     det.ConnectorStatus,
		Amount:              det.Amount,
		Currency:            det.Currency,
		Stage:               det.Stage,
		Status:              status,
		ConnectorReasonCode: det.ConnectorReasonCode,
		ConnectorReason:     det.ConnectorReason,
		ChallengeRequiredBy: det.ChallengeRequiredBy,
		ConnectorCreatedAt:  det.CreatedAt,
		ConnectorUpdatedAt:  det.UpdatedAt,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
}
