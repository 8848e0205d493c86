package webhook

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"paymentswitch/internal/domain/event"
	"paymentswitch/internal/domain/mandate"
)

func (d *dispatcher) mandate(ctx context.Context, in *flowInput) (event.Tracker, error) {
	if !in.verified() {
		return nil, fmt.Errorf("mandate webhook: %w", ErrWebhookAuthenticationFailed)
	}
	ref, err := in.reference()
	if err != nil {
		return nil, err
	}
	mr, ok := ref.(event.MandateRef)
	if !ok {
		return nil, fmt.Errorf("expected a mandate reference, got %s: %w", ref, ErrReferenceUnresolved)
	}

	var m *mandate.Mandate
	switch mr.Type {
	case event.MandateByID:
		m, err = d.store.FindMandate(ctx, in.merchantID, mr.ID)
	default:
		m, err = d.store.FindMandateByConnectorID(ctx, in.merchantID, mr.ID)
	}
	if err != nil {
		return nil, lookupErr("mandate "+mr.ID, err)
	}

	var status mandate.Status
	switch in.result.EventType {
	case event.TypeMandateActive:
		status = mandate.StatusActive
	case event.TypeMandateRevoked:
		status = mandate.StatusRevoked
	default:
		return nil, fmt.Errorf("mandate event %s: %w", in.result.EventType, ErrFlowNotSupported)
	}

	if m.SetStatus(status) {
		if err := d.store.SaveMandate(ctx, m); err != nil {
			return nil, fmt.Errorf("failed to save mandate %s: %w", m.ID, err)
		}
		if err := d.notifier.Notify(ctx, event.ClassMandates, m.ID, m, m.UpdatedAt); err != nil {
			log.Error().Err(err).Str("mandate_id", m.ID).Msg("failed to send outgoing webhook")
		}
	}
	return event.MandateTracker{MandateID: m.ID, Status: string(m.Status)}, nil
}
