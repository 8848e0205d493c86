package webhook

import (
	"context"

	"github.com/rs/zerolog/log"

	"paymentswitch/internal/domain/payment"
)

// reconcileMandate records a mandate id and network transaction id carried by a
// successful payment webhook. The first value per merchant-connector-account is kept.
// Failures are logged; the payment itself is already synced.
func (d *dispatcher) reconcileMandate(ctx context.Context, in *flowInput, attempt *payment.Attempt) {
	mandateID, ntid := mandateData(in)
	if mandateID == "" && ntid == "" {
		return
	}
	logger := log.With().
		Str("merchant_id", in.merchantID).
		Str("payment_id", attempt.PaymentID).
		Str("attempt_id", attempt.ID).
		Logger()

	if err := d.payments.RecordMandate(ctx, in.merchantID, attempt.ID, mandateID, ntid); err != nil {
		logger.Error().Err(err).Msg("failed to record mandate on attempt")
	}
	if attempt.PaymentMethodID == "" {
		return
	}

	pm, err := d.store.FindPaymentMethod(ctx, in.merchantID, attempt.PaymentMethodID)
	if err != nil {
		logger.Error().Err(err).Str("payment_method_id", attempt.PaymentMethodID).Msg("failed to load payment method")
		return
	}
	mcaID := attempt.MerchantConnectorID
	if mcaID == "" {
		mcaID = in.account.ID
	}
	changed := pm.MergeMandate(mcaID, payment.MandateReference{
		ConnectorMandateID: mandateID,
		PaymentMethodType:  attempt.PaymentMethodType,
		OriginalAmount:     attempt.Amount,
		OriginalCurrency:   attempt.Currency,
	})
	if pm.SetNetworkTransactionID(ntid) {
		changed = true
	}
	if card, err := in.adapter.AdditionalPaymentMethodData(in.request); err == nil && card != nil {
		fill := func(dst *string, v string) {
			if *dst == "" && v != "" {
				*dst = v
				changed = true
			}
		}
		fill(&pm.CardNetwork, card.CardNetwork)
		fill(&pm.CardLast4, card.CardLast4)
		fill(&pm.CardExpiry, card.CardExpiry)
	}
	if !changed {
		return
	}
	if err := d.store.SavePaymentMethod(ctx, pm); err != nil {
		logger.Error().Err(err).Str("payment_method_id", pm.ID).Msg("failed to save payment method")
		return
	}
	logger.Info().
		Str("payment_method_id", pm.ID).
		Str("merchant_connector_id", mcaID).
		Msg("payment method mandate reconciled")
}

func mandateData(in *flowInput) (mandateID, ntid string) {
	if p := in.result.UCS; p != nil {
		if p.PaymentsResponse != nil {
			mandateID, ntid = p.PaymentsResponse.ConnectorMandateID, p.PaymentsResponse.NetworkTransactionID
		}
		if mandateID == "" && p.MandateDetails != nil {
			mandateID = p.MandateDetails.ConnectorMandateID
		}
		return mandateID, ntid
	}
	if md, err := in.adapter.MandateDetails(in.request); err == nil && md != nil {
		mandateID = md.ConnectorMandateID
	}
	ntid, _ = in.adapter.NetworkTxnID(in.request)
	return mandateID, ntid
}
