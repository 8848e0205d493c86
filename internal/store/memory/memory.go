// Package memory is an in-process implementation of repositories.Store for tests and
// local development.
package memory

import (
	"context"
	"maps"
	"strings"
	"sync"

	"paymentswitch/internal/domain/authentication"
	"paymentswitch/internal/domain/dispute"
	"paymentswitch/internal/domain/mandate"
	"paymentswitch/internal/domain/merchant"
	"paymentswitch/internal/domain/payment"
	"paymentswitch/internal/domain/payout"
	"paymentswitch/internal/domain/refund"
	"paymentswitch/internal/domain/relay"
	"paymentswitch/internal/store/repositories"
)

// table keeps value copies so callers never share memory with the store.
type table[T any] struct {
	rows map[string]T
}

func newTable[T any]() table[T] { return table[T]{rows: make(map[string]T)} }

func key(parts ...string) string { return strings.Join(parts, "\x00") }

func (t table[T]) get(k string) (*T, error) {
	v, ok := t.rows[k]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &v, nil
}

func (t table[T]) find(match func(*T) bool) (*T, error) {
	for _, v := range t.rows {
		if match(&v) {
			c := v
			return &c, nil
		}
	}
	return nil, repositories.ErrNotFound
}

// Store implements repositories.Store.
type Store struct {
	mu              sync.RWMutex
	accounts        table[merchant.ConnectorAccount]
	profiles        table[merchant.Profile]
	intents         table[payment.Intent]
	attempts        table[payment.Attempt]
	captures        table[payment.Capture]
	refunds         table[refund.Refund]
	disputes        table[dispute.Dispute]
	mandates        table[mandate.Mandate]
	payouts         table[payout.Payout]
	payoutAttempts  table[payout.Attempt]
	methods         table[payment.MethodRecord]
	authentications table[authentication.Authentication]
	relays          table[relay.Relay]
}

var _ repositories.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		accounts:        newTable[merchant.ConnectorAccount](),
		profiles:        newTable[merchant.Profile](),
		intents:         newTable[payment.Intent](),
		attempts:        newTable[payment.Attempt](),
		captures:        newTable[payment.Capture](),
		refunds:         newTable[refund.Refund](),
		disputes:        newTable[dispute.Dispute](),
		mandates:        newTable[mandate.Mandate](),
		payouts:         newTable[payout.Payout](),
		payoutAttempts:  newTable[payout.Attempt](),
		methods:         newTable[payment.MethodRecord](),
		authentications: newTable[authentication.Authentication](),
		relays:          newTable[relay.Relay](),
	}
}

func (s *Store) FindConnectorAccount(_ context.Context, merchantID, mcaID string) (*merchant.ConnectorAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accounts.get(key(merchantID, mcaID))
}

func (s *Store) FindConnectorAccountByName(_ context.Context, merchantID, connectorName string) (*merchant.ConnectorAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accounts.find(func(a *merchant.ConnectorAccount) bool {
		return a.MerchantID == merchantID && a.ConnectorName == connectorName && !a.Disabled
	})
}

func (s *Store) SaveConnectorAccount(_ context.Context, a *merchant.ConnectorAccount) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts.rows[key(a.MerchantID, a.ID)] = *a
	return nil
}

func (s *Store) FindProfile(_ context.Context, merchantID, profileID string) (*merchant.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.profiles.get(key(merchantID, profileID))
}

func (s *Store) SaveProfile(_ context.Context, p *merchant.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles.rows[key(p.MerchantID, p.ID)] = *p
	return nil
}

func (s *Store) FindIntent(_ context.Context, merchantID, paymentID string) (*payment.Intent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.intents.get(key(merchantID, paymentID))
}

func (s *Store) FindAttempt(_ context.Context, merchantID, attemptID string) (*payment.Attempt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.attempts.get(key(merchantID, attemptID))
}

func (s *Store) FindAttemptByConnectorTransactionID(_ context.Context, merchantID, connectorName, txnID string) (*payment.Attempt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.attempts.find(func(a *payment.Attempt) bool {
		return a.MerchantID == merchantID && a.Connector == connectorName && a.ConnectorTransactionID == txnID
	})
}

func (s *Store) FindAttemptByPreprocessingID(_ context.Context, merchantID, preprocessingID string) (*payment.Attempt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.attempts.find(func(a *payment.Attempt) bool {
		return a.MerchantID == merchantID && a.PreprocessingID == preprocessingID
	})
}

func (s *Store) SaveIntent(_ context.Context, i *payment.Intent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.intents.rows[key(i.MerchantID, i.ID)] = *i
	return nil
}

func (s *Store) SaveAttempt(_ context.Context, a *payment.Attempt) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attempts.rows[key(a.MerchantID, a.ID)] = *a
	return nil
}

func (s *Store) SavePayment(_ context.Context, i *payment.Intent, a *payment.Attempt) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.intents.rows[key(i.MerchantID, i.ID)] = *i
	s.attempts.rows[key(a.MerchantID, a.ID)] = *a
	return nil
}

func (s *Store) ListCaptures(_ context.Context, merchantID, attemptID string) ([]*payment.Capture, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*payment.Capture
	for _, c := range s.captures.rows {
		if c.MerchantID == merchantID && c.AttemptID == attemptID {
			c := c
			out = append(out, &c)
		}
	}
	return out, nil
}

func (s *Store) SaveCapture(_ context.Context, c *payment.Capture) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.captures.rows[key(c.MerchantID, c.ID)] = *c
	return nil
}

func (s *Store) FindRefund(_ context.Context, merchantID, refundID string) (*refund.Refund, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.refunds.get(key(merchantID, refundID))
}

func (s *Store) FindRefundByConnectorRefundID(_ context.Context, merchantID, connectorName, connectorRefundID string) (*refund.Refund, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.refunds.find(func(r *refund.Refund) bool {
		return r.MerchantID == merchantID && r.Connector == connectorName && r.ConnectorRefundID == connectorRefundID
	})
}

func (s *Store) SaveRefund(_ context.Context, r *refund.Refund) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refunds.rows[key(r.MerchantID, r.ID)] = *r
	return nil
}

func (s *Store) FindDispute(_ context.Context, merchantID, paymentID, connectorDisputeID string) (*dispute.Dispute, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.disputes.find(func(d *dispute.Dispute) bool {
		return d.MerchantID == merchantID && d.PaymentID == paymentID && d.ConnectorDisputeID == connectorDisputeID
	})
}

func (s *Store) SaveDispute(_ context.Context, d *dispute.Dispute) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.disputes.rows[key(d.MerchantID, d.ID)] = *d
	return nil
}

func (s *Store) FindMandate(_ context.Context, merchantID, mandateID string) (*mandate.Mandate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.mandates.get(key(merchantID, mandateID))
}

func (s *Store) FindMandateByConnectorID(_ context.Context, merchantID, connectorMandateID string) (*mandate.Mandate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.mandates.find(func(m *mandate.Mandate) bool {
		return m.MerchantID == merchantID && m.ConnectorMandateID == connectorMandateID
	})
}

func (s *Store) SaveMandate(_ context.Context, m *mandate.Mandate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mandates.rows[key(m.MerchantID, m.ID)] = *m
	return nil
}

func (s *Store) FindPayout(_ context.Context, merchantID, payoutID string) (*payout.Payout, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.payouts.get(key(merchantID, payoutID))
}

func (s *Store) FindPayoutAttempt(_ context.Context, merchantID, attemptID string) (*payout.Attempt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.payoutAttempts.get(key(merchantID, attemptID))
}

func (s *Store) FindPayoutAttemptByConnectorID(_ context.Context, merchantID, connectorPayoutID string) (*payout.Attempt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.payoutAttempts.find(func(a *payout.Attempt) bool {
		return a.MerchantID == merchantID && a.ConnectorPayoutID == connectorPayoutID
	})
}

func (s *Store) SavePayout(_ context.Context, p *payout.Payout) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.payouts.rows[key(p.MerchantID, p.ID)] = *p
	return nil
}

func (s *Store) SavePayoutAttempt(_ context.Context, a *payout.Attempt) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.payoutAttempts.rows[key(a.MerchantID, a.ID)] = *a
	return nil
}

func (s *Store) FindPaymentMethod(_ context.Context, merchantID, id string) (*payment.MethodRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	pm, err := s.methods.get(key(merchantID, id))
	if err != nil {
		return nil, err
	}
	pm.Mandates = maps.Clone(pm.Mandates)
	return pm, nil
}

func (s *Store) SavePaymentMethod(_ context.Context, pm *payment.MethodRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *pm
	c.Mandates = maps.Clone(pm.Mandates)
	s.methods.rows[key(pm.MerchantID, pm.ID)] = c
	return nil
}

func (s *Store) FindAuthentication(_ context.Context, merchantID, id string) (*authentication.Authentication, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.authentications.get(key(merchantID, id))
}

func (s *Store) FindAuthenticationByConnectorID(_ context.Context, merchantID, connectorAuthID string) (*authentication.Authentication, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.authentications.find(func(a *authentication.Authentication) bool {
		return a.MerchantID == merchantID && a.ConnectorAuthenticationID == connectorAuthID
	})
}

func (s *Store) SaveAuthentication(_ context.Context, a *authentication.Authentication) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.authentications.rows[key(a.MerchantID, a.ID)] = *a
	return nil
}

func (s *Store) FindRelay(_ context.Context, merchantID, relayID string) (*relay.Relay, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.relays.get(key(merchantID, relayID))
}

func (s *Store) FindRelayByConnectorReferenceID(_ context.Context, merchantID, ref string) (*relay.Relay, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.relays.find(func(r *relay.Relay) bool {
		return r.MerchantID == merchantID && r.ConnectorReferenceID == ref
	})
}

func (s *Store) SaveRelay(_ context.Context, r *relay.Relay) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.relays.rows[key(r.MerchantID, r.ID)] = *r
	return nil
}
