package webhook

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"

	"paymentswitch/internal/connector"
	"paymentswitch/internal/domain/merchant"
)

// verify reports whether the webhook really comes from the connector. A verified flag
// from the unified connector service is trusted as is.
func (p *Pipeline) verify(ctx context.Context, adapter connector.Adapter, acct *merchant.ConnectorAccount, req *connector.IncomingWebhookRequest, secret connector.WebhookSecret, res *Result) (bool, error) {
	if res.SourceVerified {
		return true, nil
	}

	var (
		ok  bool
		err error
	)
	if p.cfg.verifiesOutbound(adapter.ID()) {
		ok, err = p.verifyOutbound(ctx, adapter, acct, req, secret)
		if errors.Is(err, connector.ErrNotImplemented) {
			log.Warn().Str("connector", adapter.ID()).Msg("outbound webhook verification not available, verifying locally")
			ok, err = adapter.VerifyWebhookSource(ctx, req, acct.MerchantID, secret)
		}
	} else {
		ok, err = adapter.VerifyWebhookSource(ctx, req, acct.MerchantID, secret)
	}
	if errors.Is(err, connector.ErrWebhookSourceVerificationFailed) {
		return false, nil
	}
	return ok, err
}

// verifyOutbound asks the connector to vouch for the webhook.
func (p *Pipeline) verifyOutbound(ctx context.Context, adapter connector.Adapter, acct *merchant.ConnectorAccount, req *connector.IncomingWebhookRequest, secret connector.WebhookSecret) (bool, error) {
	rd := &connector.RouterData[connector.VerifyWebhookSourceData, connector.VerifyWebhookSourceResponse]{
		Flow:       connector.FlowVerifyWebhookSource,
		MerchantID: acct.MerchantID,
		Connector:  adapter.ID(),
		Account:    acct,
		Request: connector.VerifyWebhookSourceData{
			Request:    req,
			MerchantID: acct.MerchantID,
			Secret:     secret,
		},
	}
	if err := connector.Execute(ctx, p.sender, adapter.VerifyWebhookSourceFlow(), rd); err != nil {
		return false, err
	}
	if rd.Error != nil || rd.Response == nil {
		return false, nil
	}
	return rd.Response.Verified, nil
}
