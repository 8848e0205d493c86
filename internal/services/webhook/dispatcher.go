package webhook

import (
	"context"
	"fmt"

	"paymentswitch/internal/cache"
	"paymentswitch/internal/connector"
	"paymentswitch/internal/domain/event"
	"paymentswitch/internal/domain/merchant"
	"paymentswitch/internal/domain/payment"
	"paymentswitch/internal/outgoing"
	paymentsvc "paymentswitch/internal/services/payment"
	"paymentswitch/internal/store/repositories"
)

// flowInput is everything a flow handler may read. It is not modified by handlers.
type flowInput struct {
	merchantID string
	adapter    connector.Adapter
	account    *merchant.ConnectorAccount
	request    *connector.IncomingWebhookRequest
	result     *Result
	relay      bool
}

// reference resolves the object the webhook is about, from the service's payload when
// there is one and from the adapter otherwise.
func (in *flowInput) reference() (event.ObjectReferenceID, error) {
	if in.result.UCS != nil && in.result.UCS.Reference != nil {
		ref, err := in.result.UCS.Reference.Reference()
		if err != nil {
			return nil, fmt.Errorf("object reference: %w: %w", ErrReferenceUnresolved, err)
		}
		return ref, nil
	}
	ref, err := in.adapter.WebhookObjectReferenceID(in.request)
	if err != nil {
		return nil, fmt.Errorf("object reference: %w: %w", ErrReferenceUnresolved, err)
	}
	return ref, nil
}

func (in *flowInput) paymentRef() (event.PaymentRef, error) {
	ref, err := in.reference()
	if err != nil {
		return event.PaymentRef{}, err
	}
	pr, ok := ref.(event.PaymentRef)
	if !ok {
		return event.PaymentRef{}, fmt.Errorf("expected a payment reference, got %s: %w", ref, ErrReferenceUnresolved)
	}
	return pr, nil
}

func (in *flowInput) verified() bool { return in.result.SourceVerified }

type handler func(ctx context.Context, in *flowInput) (event.Tracker, error)

// dispatcher routes an event to the handler of its flow.
type dispatcher struct {
	registry *connector.Registry
	store    repositories.Store
	payments *paymentsvc.Service
	sender   connector.Sender
	notifier outgoing.Notifier
	cache    cache.Store
	cfg      Config
}

func (d *dispatcher) handlers() map[event.Flow]handler {
	return map[event.Flow]handler{
		event.FlowPayment:                d.payment,
		event.FlowRefund:                 d.refund,
		event.FlowDispute:                d.dispute,
		event.FlowMandate:                d.mandate,
		event.FlowPayout:                 d.payout,
		event.FlowFraudCheck:             d.fraudCheck,
		event.FlowExternalAuthentication: d.externalAuthentication,
		event.FlowBankTransfer:           d.bankTransfer,
		event.FlowSubscription:           noEffect,
		event.FlowReturnResponse:         noEffect,
		event.FlowSetupWebhook:           noEffect,
	}
}

func (d *dispatcher) dispatch(ctx context.Context, in *flowInput) (event.Tracker, error) {
	flow := event.FlowOf(in.result.EventType)
	if in.relay {
		if flow != event.FlowRefund {
			return nil, fmt.Errorf("relay %s webhook: %w", flow, ErrFlowNotSupported)
		}
		return d.relayRefund(ctx, in)
	}
	h, ok := d.handlers()[flow]
	if !ok {
		return nil, fmt.Errorf("%s webhook: %w", flow, ErrFlowNotSupported)
	}
	return h(ctx, in)
}

func noEffect(context.Context, *flowInput) (event.Tracker, error) {
	return event.NoEffect{}, nil
}

// paymentConnector returns the adapter and account the attempt was made with, which
// differ from the webhook's own for fraud and authentication connectors.
func (d *dispatcher) paymentConnector(ctx context.Context, in *flowInput, attempt *payment.Attempt) (connector.Adapter, *merchant.ConnectorAccount, error) {
	if attempt.Connector == in.adapter.ID() && (attempt.MerchantConnectorID == "" || attempt.MerchantConnectorID == in.account.ID) {
		return in.adapter, in.account, nil
	}
	a, err := d.registry.Get(attempt.Connector)
	if err != nil {
		return nil, nil, err
	}
	acct, err := d.store.FindConnectorAccount(ctx, in.merchantID, attempt.MerchantConnectorID)
	if err != nil {
		return nil, nil, lookupErr("connector account "+attempt.MerchantConnectorID, err)
	}
	return a, acct, nil
}
