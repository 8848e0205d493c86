// Package webhook ingests connector webhooks: it resolves the connector, turns the body
// into an event on the selected path, gates and verifies it, and dispatches it to the
// flow that owns the referenced resource.
package webhook

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"paymentswitch/internal/cache"
	"paymentswitch/internal/connector"
	"paymentswitch/internal/domain/event"
	"paymentswitch/internal/metrics"
	"paymentswitch/internal/outgoing"
	paymentsvc "paymentswitch/internal/services/payment"
	"paymentswitch/internal/store/repositories"
	"paymentswitch/internal/ucs"
)

// Incoming is one webhook delivery.
type Incoming struct {
	MerchantID string
	// Segment is the connector name or merchant-connector-account id from the URL.
	Segment string
	Relay   bool
	Request *connector.IncomingWebhookRequest
}

// Result is what the pipeline learned about a webhook before dispatch.
type Result struct {
	EventType      event.Type
	SourceVerified bool
	// UCS is the service's transformation. It is only set on the UCS path.
	UCS *ucs.Payload
	// Body is the decoded body. It is only set when the adapter decoded it.
	Body []byte
	// Shadow is the service's answer on the ShadowUCS path, kept for comparison.
	Shadow *ucs.Result
	Path   Path
}

// Outcome is returned for every acknowledged webhook.
type Outcome struct {
	Ack       *connector.AckResponse
	EventType event.Type
	Tracker   event.Tracker
	Path      Path
	// Shadow is the unified connector service's answer on the ShadowUCS path.
	Shadow *ucs.Result
}

// Deps are the collaborators of the pipeline.
type Deps struct {
	Registry *connector.Registry
	Store    repositories.Store
	Payments *paymentsvc.Service
	Sender   connector.Sender
	UCS      ucs.Client
	Notifier outgoing.Notifier
	Cache    cache.Store
	Secrets  *Secrets
	Gate     *Gate
	Metrics  *metrics.Webhooks
}

// Pipeline processes incoming webhooks.
type Pipeline struct {
	registry   *connector.Registry
	store      repositories.Store
	selector   *PathSelector
	ucs        ucs.Client
	secrets    *Secrets
	gate       *Gate
	sender     connector.Sender
	metrics    *metrics.Webhooks
	dispatcher *dispatcher
	cfg        Config
}

// NewPipeline creates a new webhook pipeline
func NewPipeline(deps Deps, cfg Config) *Pipeline {
	cfg = cfg.withDefaults()
	if deps.Metrics == nil {
		deps.Metrics = metrics.NewWebhooks()
	}
	return &Pipeline{
		registry: deps.Registry,
		store:    deps.Store,
		selector: NewPathSelector(cfg.UCS, deps.UCS),
		ucs:      deps.UCS,
		secrets:  deps.Secrets,
		gate:     deps.Gate,
		sender:   deps.Sender,
		metrics:  deps.Metrics,
		dispatcher: &dispatcher{
			registry: deps.Registry,
			store:    deps.Store,
			payments: deps.Payments,
			sender:   deps.Sender,
			notifier: deps.Notifier,
			cache:    deps.Cache,
			cfg:      cfg,
		},
		cfg: cfg,
	}
}

// Process runs one webhook through the pipeline. A returned error means the connector
// must not be acknowledged and will retry.
func (p *Pipeline) Process(ctx context.Context, in Incoming) (*Outcome, error) {
	p.metrics.Received()

	adapter, acct, err := p.registry.Resolve(ctx, p.store, in.MerchantID, in.Segment)
	if err != nil {
		p.metrics.Failed()
		if errors.Is(err, repositories.ErrNotFound) || errors.Is(err, connector.ErrConnectorNotFound) {
			return nil, fmt.Errorf("connector %s of merchant %s: %w", in.Segment, in.MerchantID, ErrResourceNotFound)
		}
		return nil, err
	}

	path := p.selector.Select(in.MerchantID, adapter.ID())
	logger := log.With().
		Str("merchant_id", in.MerchantID).
		Str("connector", adapter.ID()).
		Str("merchant_connector_id", acct.ID).
		Str("path", string(path)).
		Bool("relay", in.Relay).
		Logger()

	secret, err := p.secrets.Get(ctx, acct)
	if err != nil {
		p.metrics.Failed()
		return nil, fmt.Errorf("webhook secret: %w", err)
	}

	res, err := p.resolve(ctx, path, adapter, acct.ID, in, secret, logger)
	if err != nil {
		p.metrics.Failed()
		logger.Error().Err(err).Msg("failed to read webhook")
		return nil, err
	}
	logger = logger.With().Str("event_type", string(res.EventType)).Logger()

	if !res.EventType.IsSupported() {
		return p.filtered(adapter, res, logger, "event not supported")
	}
	disabled, err := p.gate.Disabled(ctx, in.MerchantID, adapter.ID(), res.EventType)
	if err != nil {
		logger.Warn().Err(err).Msg("event gate lookup failed, processing anyway")
	}
	if disabled {
		return p.filtered(adapter, res, logger, "event disabled")
	}

	if event.FlowOf(res.EventType) == event.FlowSetupWebhook {
		logger.Info().Msg("webhook endpoint verification")
		return p.ack(adapter, res, event.NoEffect{}, nil, logger)
	}

	req := in.Request
	if res.Body != nil {
		req = in.Request.WithBody(res.Body)
	}

	verified, err := p.verify(ctx, adapter, acct, req, secret, res)
	if err != nil {
		p.metrics.Failed()
		return nil, fmt.Errorf("verify webhook source: %w", err)
	}
	if !verified && adapter.IsWebhookSourceVerificationMandatory() {
		p.metrics.Failed()
		logger.Warn().Msg("webhook source verification failed")
		return nil, fmt.Errorf("%s webhook: %w", adapter.ID(), ErrWebhookAuthenticationFailed)
	}
	if verified {
		p.metrics.SourceVerified()
	}
	res.SourceVerified = verified

	tracker, err := p.dispatcher.dispatch(ctx, &flowInput{
		merchantID: in.MerchantID,
		adapter:    adapter,
		account:    acct,
		request:    req,
		result:     res,
		relay:      in.Relay,
	})
	if err != nil {
		return p.boundary(adapter, res, err, logger)
	}

	p.metrics.Processed(string(event.FlowOf(res.EventType)))
	return p.ack(adapter, res, tracker, nil, logger)
}

// boundary decides once for every flow error whether the connector is acknowledged.
func (p *Pipeline) boundary(adapter connector.Adapter, res *Result, err error, logger zerolog.Logger) (*Outcome, error) {
	switch {
	case errors.Is(err, ErrWebhookAuthenticationFailed):
	case (errors.Is(err, ErrResourceNotFound) || errors.Is(err, ErrReferenceUnresolved)) && p.cfg.acksNotFound(adapter.ID()):
		p.metrics.NotFoundAcked()
		logger.Warn().Err(err).Msg("resource not found, acknowledging")
		return p.ack(adapter, res, event.NoEffect{}, err, logger)
	case errors.Is(err, ErrFlowNotSupported):
		logger.Info().Err(err).Msg("flow not supported, acknowledging")
		return p.ack(adapter, res, event.NoEffect{}, err, logger)
	}
	p.metrics.Failed()
	logger.Error().Err(err).Msg("webhook processing failed")
	return nil, err
}

func (p *Pipeline) filtered(adapter connector.Adapter, res *Result, logger zerolog.Logger, reason string) (*Outcome, error) {
	p.metrics.Filtered()
	logger.Info().Str("reason", reason).Msg("webhook filtered")
	return p.ack(adapter, res, event.NoEffect{}, nil, logger)
}

func (p *Pipeline) ack(adapter connector.Adapter, res *Result, tracker event.Tracker, hint error, logger zerolog.Logger) (*Outcome, error) {
	ack, err := adapter.WebhookAPIResponse(hint)
	if err != nil {
		p.metrics.Failed()
		return nil, fmt.Errorf("build acknowledgement: %w: %w", ErrWebhookProcessingFailure, err)
	}
	logger.Info().
		Str("tracker", tracker.Kind()).
		Object("resource", tracker).
		Bool("source_verified", res.SourceVerified).
		Msg("webhook processed")
	return &Outcome{Ack: ack, EventType: res.EventType, Tracker: tracker, Path: res.Path, Shadow: res.Shadow}, nil
}
