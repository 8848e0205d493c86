package postgres

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"paymentswitch/internal/domain/authentication"
	"paymentswitch/internal/domain/dispute"
	"paymentswitch/internal/domain/mandate"
	"paymentswitch/internal/domain/merchant"
	"paymentswitch/internal/domain/payment"
	"paymentswitch/internal/domain/payout"
	"paymentswitch/internal/domain/refund"
	"paymentswitch/internal/domain/relay"
)

func (s *Store) FindConnectorAccount(ctx context.Context, merchantID, mcaID string) (*merchant.ConnectorAccount, error) {
	return getDoc[merchant.ConnectorAccount](ctx, s.db, `
		SELECT doc FROM connector_accounts WHERE merchant_id = $1 AND id = $2`, merchantID, mcaID)
}

func (s *Store) FindConnectorAccountByName(ctx context.Context, merchantID, connectorName string) (*merchant.ConnectorAccount, error) {
	return getDoc[merchant.ConnectorAccount](ctx, s.db, `
		SELECT doc FROM connector_accounts
		WHERE merchant_id = $1 AND connector_name = $2 AND NOT disabled
		ORDER BY updated_at DESC
		LIMIT 1`, merchantID, connectorName)
}

func (s *Store) SaveConnectorAccount(ctx context.Context, a *merchant.ConnectorAccount) error {
	return upsert(ctx, s.db, "connector_accounts", a.MerchantID, a.ID, a,
		col("connector_name", a.ConnectorName), col("disabled", a.Disabled))
}

func (s *Store) FindProfile(ctx context.Context, merchantID, profileID string) (*merchant.Profile, error) {
	return getDoc[merchant.Profile](ctx, s.db, `
		SELECT doc FROM business_profiles WHERE merchant_id = $1 AND id = $2`, merchantID, profileID)
}

func (s *Store) SaveProfile(ctx context.Context, p *merchant.Profile) error {
	return upsert(ctx, s.db, "business_profiles", p.MerchantID, p.ID, p)
}

func (s *Store) FindIntent(ctx context.Context, merchantID, paymentID string) (*payment.Intent, error) {
	return getDoc[payment.Intent](ctx, s.db, `
		SELECT doc FROM payment_intents WHERE merchant_id = $1 AND id = $2`, merchantID, paymentID)
}

func (s *Store) FindAttempt(ctx context.Context, merchantID, attemptID string) (*payment.Attempt, error) {
	return getDoc[payment.Attempt](ctx, s.db, `
		SELECT doc FROM payment_attempts WHERE merchant_id = $1 AND id = $2`, merchantID, attemptID)
}

func (s *Store) FindAttemptByConnectorTransactionID(ctx context.Context, merchantID, connectorName, txnID string) (*payment.Attempt, error) {
	return getDoc[payment.Attempt](ctx, s.db, `
		SELECT doc FROM payment_attempts
		WHERE merchant_id = $1 AND connector = $2 AND connector_transaction_id = $3
		ORDER BY updated_at DESC
		LIMIT 1`, merchantID, connectorName, txnID)
}

func (s *Store) FindAttemptByPreprocessingID(ctx context.Context, merchantID, preprocessingID string) (*payment.Attempt, error) {
	return getDoc[payment.Attempt](ctx, s.db, `
		SELECT doc FROM payment_attempts
		WHERE merchant_id = $1 AND preprocessing_id = $2
		LIMIT 1`, merchantID, preprocessingID)
}

func (s *Store) SaveIntent(ctx context.Context, i *payment.Intent) error {
	return saveIntent(ctx, s.db, i)
}

func (s *Store) SaveAttempt(ctx context.Context, a *payment.Attempt) error {
	return saveAttempt(ctx, s.db, a)
}

// SavePayment writes both rows in one transaction.
func (s *Store) SavePayment(ctx context.Context, i *payment.Intent, a *payment.Attempt) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				log.Error().Err(rbErr).Str("payment_id", i.ID).Msg("rollback failed")
			}
		}
	}()

	if err = saveIntent(ctx, tx, i); err != nil {
		return err
	}
	if err = saveAttempt(ctx, tx, a); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func saveIntent(ctx context.Context, q querier, i *payment.Intent) error {
	return upsert(ctx, q, "payment_intents", i.MerchantID, i.ID, i)
}

func saveAttempt(ctx context.Context, q querier, a *payment.Attempt) error {
	return upsert(ctx, q, "payment_attempts", a.MerchantID, a.ID, a,
		col("payment_id", a.PaymentID),
		col("connector", a.Connector),
		col("connector_transaction_id", nullable(a.ConnectorTransactionID)),
		col("preprocessing_id", nullable(a.PreprocessingID)))
}

func (s *Store) ListCaptures(ctx context.Context, merchantID, attemptID string) ([]*payment.Capture, error) {
	return listDocs[payment.Capture](ctx, s.db, `
		SELECT doc FROM captures WHERE merchant_id = $1 AND attempt_id = $2
		ORDER BY id`, merchantID, attemptID)
}

func (s *Store) SaveCapture(ctx context.Context, c *payment.Capture) error {
	return upsert(ctx, s.db, "captures", c.MerchantID, c.ID, c, col("attempt_id", c.AttemptID))
}

func (s *Store) FindRefund(ctx context.Context, merchantID, refundID string) (*refund.Refund, error) {
	return getDoc[refund.Refund](ctx, s.db, `
		SELECT doc FROM refunds WHERE merchant_id = $1 AND id = $2`, merchantID, refundID)
}

func (s *Store) FindRefundByConnectorRefundID(ctx context.Context, merchantID, connectorName, connectorRefundID string) (*refund.Refund, error) {
	return getDoc[refund.Refund](ctx, s.db, `
		SELECT doc FROM refunds
		WHERE merchant_id = $1 AND connector = $2 AND connector_refund_id = $3`,
		merchantID, connectorName, connectorRefundID)
}

func (s *Store) SaveRefund(ctx context.Context, r *refund.Refund) error {
	return upsert(ctx, s.db, "refunds", r.MerchantID, r.ID, r,
		col("connector", r.Connector), col("connector_refund_id", nullable(r.ConnectorRefundID)))
}

func (s *Store) FindDispute(ctx context.Context, merchantID, paymentID, connectorDisputeID string) (*dispute.Dispute, error) {
	return getDoc[dispute.Dispute](ctx, s.db, `
		SELECT doc FROM disputes
		WHERE merchant_id = $1 AND payment_id = $2 AND connector_dispute_id = $3`,
		merchantID, paymentID, connectorDisputeID)
}

func (s *Store) SaveDispute(ctx context.Context, d *dispute.Dispute) error {
	return upsert(ctx, s.db, "disputes", d.MerchantID, d.ID, d,
		col("payment_id", d.PaymentID), col("connector_dispute_id", d.ConnectorDisputeID))
}

func (s *Store) FindMandate(ctx context.Context, merchantID, mandateID string) (*mandate.Mandate, error) {
	return getDoc[mandate.Mandate](ctx, s.db, `
		SELECT doc FROM mandates WHERE merchant_id = $1 AND id = $2`, merchantID, mandateID)
}

func (s *Store) FindMandateByConnectorID(ctx context.Context, merchantID, connectorMandateID string) (*mandate.Mandate, error) {
	return getDoc[mandate.Mandate](ctx, s.db, `
		SELECT doc FROM mandates WHERE merchant_id = $1 AND connector_mandate_id = $2`,
		merchantID, connectorMandateID)
}

func (s *Store) SaveMandate(ctx context.Context, m *mandate.Mandate) error {
	return upsert(ctx, s.db, "mandates", m.MerchantID, m.ID, m,
		col("connector_mandate_id", nullable(m.ConnectorMandateID)))
}

func (s *Store) FindPayout(ctx context.Context, merchantID, payoutID string) (*payout.Payout, error) {
	return getDoc[payout.Payout](ctx, s.db, `
		SELECT doc FROM payouts WHERE merchant_id = $1 AND id = $2`, merchantID, payoutID)
}

func (s *Store) FindPayoutAttempt(ctx context.Context, merchantID, attemptID string) (*payout.Attempt, error) {
	return getDoc[payout.Attempt](ctx, s.db, `
		SELECT doc FROM payout_attempts WHERE merchant_id = $1 AND id = $2`, merchantID, attemptID)
}

func (s *Store) FindPayoutAttemptByConnectorID(ctx context.Context, merchantID, connectorPayoutID string) (*payout.Attempt, error) {
	return getDoc[payout.Attempt](ctx, s.db, `
		SELECT doc FROM payout_attempts WHERE merchant_id = $1 AND connector_payout_id = $2`,
		merchantID, connectorPayoutID)
}

func (s *Store) SavePayout(ctx context.Context, p *payout.Payout) error {
	return upsert(ctx, s.db, "payouts", p.MerchantID, p.ID, p)
}

func (s *Store) SavePayoutAttempt(ctx context.Context, a *payout.Attempt) error {
	return upsert(ctx, s.db, "payout_attempts", a.MerchantID, a.ID, a,
		col("connector_payout_id", nullable(a.ConnectorPayoutID)))
}

func (s *Store) FindPaymentMethod(ctx context.Context, merchantID, id string) (*payment.MethodRecord, error) {
	return getDoc[payment.MethodRecord](ctx, s.db, `
		SELECT doc FROM payment_methods WHERE merchant_id = $1 AND id = $2`, merchantID, id)
}

func (s *Store) SavePaymentMethod(ctx context.Context, pm *payment.MethodRecord) error {
	return upsert(ctx, s.db, "payment_methods", pm.MerchantID, pm.ID, pm)
}

func (s *Store) FindAuthentication(ctx context.Context, merchantID, id string) (*authentication.Authentication, error) {
	return getDoc[authentication.Authentication](ctx, s.db, `
		SELECT doc FROM authentications WHERE merchant_id = $1 AND id = $2`, merchantID, id)
}

func (s *Store) FindAuthenticationByConnectorID(ctx context.Context, merchantID, connectorAuthID string) (*authentication.Authentication, error) {
	return getDoc[authentication.Authentication](ctx, s.db, `
		SELECT doc FROM authentications WHERE merchant_id = $1 AND connector_authentication_id = $2`,
		merchantID, connectorAuthID)
}

func (s *Store) SaveAuthentication(ctx context.Context, a *authentication.Authentication) error {
	return upsert(ctx, s.db, "authentications", a.MerchantID, a.ID, a,
		col("connector_authentication_id", nullable(a.ConnectorAuthenticationID)))
}

func (s *Store) FindRelay(ctx context.Context, merchantID, relayID string) (*relay.Relay, error) {
	return getDoc[relay.Relay](ctx, s.db, `
		SELECT doc FROM relays WHERE merchant_id = $1 AND id = $2`, merchantID, relayID)
}

func (s *Store) FindRelayByConnectorReferenceID(ctx context.Context, merchantID, ref string) (*relay.Relay, error) {
	return getDoc[relay.Relay](ctx, s.db, `
		SELECT doc FROM relays WHERE merchant_id = $1 AND connector_reference_id = $2`, merchantID, ref)
}

func (s *Store) SaveRelay(ctx context.Context, r *relay.Relay) error {
	return upsert(ctx, s.db, "relays", r.MerchantID, r.ID, r,
		col("connector_reference_id", nullable(r.ConnectorReferenceID)))
}
