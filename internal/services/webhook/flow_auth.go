package webhook

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"paymentswitch/internal/domain/authentication"
	"paymentswitch/internal/domain/event"
)

// pollKey is where the client polling for a challenge outcome looks.
func pollKey(merchantID, paymentID string) string {
	return "poll_" + merchantID + "_external_authentication_" + paymentID
}

// externalAuthentication records a 3DS result. When the merchant does not pull the
// result itself and the customer was challenged, the waiting payment is confirmed here.
func (d *dispatcher) externalAuthentication(ctx context.Context, in *flowInput) (event.Tracker, error) {
	if !in.verified() {
		return nil, fmt.Errorf("external authentication webhook: %w", ErrWebhookAuthenticationFailed)
	}
	ref, err := in.reference()
	if err != nil {
		return nil, err
	}
	ar, ok := ref.(event.AuthenticationRef)
	if !ok {
		return nil, fmt.Errorf("expected an authentication reference, got %s: %w", ref, ErrReferenceUnresolved)
	}

	var auth *authentication.Authentication
	switch ar.Type {
	case event.AuthenticationByID:
		auth, err = d.store.FindAuthentication(ctx, in.merchantID, ar.ID)
	default:
		auth, err = d.store.FindAuthenticationByConnectorID(ctx, in.merchantID, ar.ID)
	}
	if err != nil {
		return nil, lookupErr("authentication "+ar.ID, err)
	}

	det, err := authenticationDetails(in)
	if err != nil {
		return nil, err
	}
	auth.Apply(*det)
	if err := d.store.SaveAuthentication(ctx, auth); err != nil {
		return nil, fmt.Errorf("failed to save authentication %s: %w", auth.ID, err)
	}

	if auth.PaymentID == "" {
		return event.NoEffect{}, nil
	}
	if in.result.EventType != event.TypeExternalAuthenticationARes || auth.Decision != authentication.DecisionChallenge {
		return event.PaymentTracker{PaymentID: auth.PaymentID, Status: string(auth.Status)}, nil
	}
	profile, err := d.store.FindProfile(ctx, in.merchantID, auth.ProfileID)
	if err != nil {
		return nil, lookupErr("profile "+auth.ProfileID, err)
	}
	if profile.ExternalAuthPullMechanism {
		return event.PaymentTracker{PaymentID: auth.PaymentID, Status: string(auth.Status)}, nil
	}

	attempt, err := d.payments.ResolveAttempt(ctx, in.merchantID, in.adapter.ID(),
		event.PaymentRef{Type: event.PaymentByIntentID, ID: auth.PaymentID})
	if err != nil {
		return nil, lookupErr("payment "+auth.PaymentID, err)
	}
	a, acct, err := d.paymentConnector(ctx, in, attempt)
	if err != nil {
		return nil, err
	}
	out, err := d.payments.ConfirmAuthenticated(ctx, a, acct, in.merchantID, attempt.ID, auth)
	if err != nil {
		return nil, lookupErr("payment "+auth.PaymentID, err)
	}
	if err := d.cache.Set(ctx, pollKey(in.merchantID, auth.PaymentID), []byte("completed"), d.cfg.PollStatusTTL); err != nil {
		log.Warn().Err(err).Str("payment_id", auth.PaymentID).Msg("failed to set poll status")
	}
	return event.PaymentTracker{PaymentID: out.Intent.ID, Status: string(out.Intent.Status)}, nil
}

// authenticationDetails prefers what the unified connector service already extracted.
func authenticationDetails(in *flowInput) (*authentication.Details, error) {
	if p := in.result.UCS; p != nil && p.AuthenticationDetails != nil {
		return p.AuthenticationDetails, nil
	}
	det, err := in.adapter.ExternalAuthenticationDetails(in.request)
	if err != nil {
		return nil, fmt.Errorf("external authentication details: %w: %w", ErrWebhookProcessingFailure, err)
	}
	return det, nil
}
