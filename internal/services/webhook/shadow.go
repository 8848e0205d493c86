package webhook

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"paymentswitch/internal/connector"
	"paymentswitch/internal/domain/event"
	"paymentswitch/internal/ucs"
)

func (p *Pipeline) resolve(ctx context.Context, path Path, adapter connector.Adapter, mcaID string, in Incoming, secret connector.WebhookSecret, logger zerolog.Logger) (*Result, error) {
	switch path {
	case PathUCS:
		return p.ucsLeg(ctx, adapter, mcaID, in, secret)
	case PathShadowUCS:
		return p.shadow(ctx, adapter, mcaID, in, secret, logger)
	}
	return directLeg(ctx, adapter, in.Request)
}

// directLeg decodes the body with the adapter and classifies the event.
func directLeg(ctx context.Context, adapter connector.Adapter, req *connector.IncomingWebhookRequest) (*Result, error) {
	body, err := adapter.DecodeWebhookBody(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("decode webhook body: %w", err)
	}
	t, err := adapter.WebhookEventType(req.WithBody(body))
	switch {
	case errors.Is(err, connector.ErrWebhookEventTypeNotFound):
		t = event.TypeEventNotSupported
	case err != nil:
		return nil, fmt.Errorf("webhook event type: %w", err)
	}
	return &Result{EventType: t, Body: body, Path: PathDirect}, nil
}

// ucsLeg hands the raw request to the unified connector service.
func (p *Pipeline) ucsLeg(ctx context.Context, adapter connector.Adapter, mcaID string, in Incoming, secret connector.WebhookSecret) (*Result, error) {
	out, err := p.ucs.TransformWebhook(ctx, ucs.TransformRequest{
		MerchantID: in.MerchantID,
		Connector:  adapter.ID(),
		Account:    mcaID,
		Request:    in.Request,
		Secret:     secret,
	})
	if err != nil {
		return nil, err
	}
	return &Result{
		EventType:      out.EventType,
		SourceVerified: out.SourceVerified,
		UCS:            out.Payload,
		Path:           PathUCS,
	}, nil
}

// shadow runs both legs concurrently. Only the direct leg's outcome is ever used.
func (p *Pipeline) shadow(ctx context.Context, adapter connector.Adapter, mcaID string, in Incoming, secret connector.WebhookSecret, logger zerolog.Logger) (*Result, error) {
	var (
		g                    errgroup.Group
		direct, shadow       *Result
		directErr, shadowErr error
	)
	g.Go(func() error {
		direct, directErr = directLeg(ctx, adapter, in.Request)
		return nil
	})
	g.Go(func() error {
		shadow, shadowErr = p.ucsLeg(ctx, adapter, mcaID, in, secret)
		return nil
	})
	_ = g.Wait()
	return combineShadow(direct, directErr, shadow, shadowErr, logger)
}

// combineShadow applies the shadow table: a direct error is always returned, a service
// error is only logged, and a service success is attached for comparison.
func combineShadow(direct *Result, directErr error, shadow *Result, shadowErr error, logger zerolog.Logger) (*Result, error) {
	if directErr != nil {
		if shadowErr == nil {
			logger.Warn().Err(directErr).
				Str("ucs_event_type", string(shadow.EventType)).
				Msg("direct path failed where unified connector service succeeded")
		}
		return nil, directErr
	}
	direct.Path = PathShadowUCS
	if shadowErr != nil {
		logger.Warn().Err(shadowErr).Msg("shadow transform failed")
		return direct, nil
	}
	if shadow.EventType != direct.EventType {
		logger.Warn().
			Str("direct_event_type", string(direct.EventType)).
			Str("ucs_event_type", string(shadow.EventType)).
			Msg("shadow event type mismatch")
	}
	direct.Shadow = &ucs.Result{
		EventType:      shadow.EventType,
		SourceVerified: shadow.SourceVerified,
		Payload:        shadow.UCS,
	}
	return direct, nil
}
