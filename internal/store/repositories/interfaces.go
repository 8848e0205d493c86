package repositories

import (
	"context"
	"errors"

	"paymentswitch/internal/connector"
	"paymentswitch/internal/domain/authentication"
	"paymentswitch/internal/domain/dispute"
	"paymentswitch/internal/domain/mandate"
	"paymentswitch/internal/domain/merchant"
	"paymentswitch/internal/domain/payment"
	"paymentswitch/internal/domain/payout"
	"paymentswitch/internal/domain/refund"
	"paymentswitch/internal/domain/relay"
)

// ErrNotFound is returned by every lookup that matches nothing.
var ErrNotFound = errors.New("record not found")

// ConnectorAccountRepository defines the contract for merchant-connector-account data access
type ConnectorAccountRepository interface {
	connector.AccountLookup
	SaveConnectorAccount(ctx context.Context, acct *merchant.ConnectorAccount) error
}

// ProfileRepository defines the contract for business profile data access
type ProfileRepository interface {
	FindProfile(ctx context.Context, merchantID, profileID string) (*merchant.Profile, error)
	SaveProfile(ctx context.Context, p *merchant.Profile) error
}

// PaymentRepository defines the contract for payment intent, attempt and capture data access
type PaymentRepository interface {
	FindIntent(ctx context.Context, merchantID, paymentID string) (*payment.Intent, error)
	FindAttempt(ctx context.Context, merchantID, attemptID string) (*payment.Attempt, error)
	FindAttemptByConnectorTransactionID(ctx context.Context, merchantID, connectorName, txnID string) (*payment.Attempt, error)
	FindAttemptByPreprocessingID(ctx context.Context, merchantID, preprocessingID string) (*payment.Attempt, error)
	SaveIntent(ctx context.Context, i *payment.Intent) error
	SaveAttempt(ctx context.Context, a *payment.Attempt) error
	// SavePayment writes the intent and its attempt atomically.
	SavePayment(ctx context.Context, i *payment.Intent, a *payment.Attempt) error
	ListCaptures(ctx context.Context, merchantID, attemptID string) ([]*payment.Capture, error)
	SaveCapture(ctx context.Context, c *payment.Capture) error
}

// RefundRepository defines the contract for refund data access
type RefundRepository interface {
	FindRefund(ctx context.Context, merchantID, refundID string) (*refund.Refund, error)
	FindRefundByConnectorRefundID(ctx context.Context, merchantID, connectorName, connectorRefundID string) (*refund.Refund, error)
	SaveRefund(ctx context.Context, r *refund.Refund) error
}

// DisputeRepository defines the contract for dispute data access
type DisputeRepository interface {
	FindDispute(ctx context.Context, merchantID, paymentID, connectorDisputeID string) (*dispute.Dispute, error)
	SaveDispute(ctx context.Context, d *dispute.Dispute) error
}

// MandateRepository defines the contract for mandate data access
type MandateRepository interface {
	FindMandate(ctx context.Context, merchantID, mandateID string) (*mandate.Mandate, error)
	FindMandateByConnectorID(ctx context.Context, merchantID, connectorMandateID string) (*mandate.Mandate, error)
	SaveMandate(ctx context.Context, m *mandate.Mandate) error
}

// PayoutRepository defines the contract for payout data access
type PayoutRepository interface {
	FindPayout(ctx context.Context, merchantID, payoutID string) (*payout.Payout, error)
	FindPayoutAttempt(ctx context.Context, merchantID, attemptID string) (*payout.Attempt, error)
	FindPayoutAttemptByConnectorID(ctx context.Context, merchantID, connectorPayoutID string) (*payout.Attempt, error)
	SavePayout(ctx context.Context, p *payout.Payout) error
	SavePayoutAttempt(ctx context.Context, a *payout.Attempt) error
}

// PaymentMethodRepository defines the contract for saved payment method data access
type PaymentMethodRepository interface {
	FindPaymentMethod(ctx context.Context, merchantID, id string) (*payment.MethodRecord, error)
	SavePaymentMethod(ctx context.Context, pm *payment.MethodRecord) error
}

// AuthenticationRepository defines the contract for external authentication data access
type AuthenticationRepository interface {
	FindAuthentication(ctx context.Context, merchantID, id string) (*authentication.Authentication, error)
	FindAuthenticationByConnectorID(ctx context.Context, merchantID, connectorAuthID string) (*authentication.Authentication, error)
	SaveAuthentication(ctx context.Context, a *authentication.Authentication) error
}

// RelayRepository defines the contract for relay data access
type RelayRepository interface {
	FindRelay(ctx context.Context, merchantID, relayID string) (*relay.Relay, error)
	FindRelayByConnectorReferenceID(ctx context.Context, merchantID, connectorReferenceID string) (*relay.Relay, error)
	SaveRelay(ctx context.Context, r *relay.Relay) error
}

// Store is every repository the webhook layer reads and writes.
type Store interface {
	ConnectorAccountRepository
	ProfileRepository
	PaymentRepository
	RefundRepository
	DisputeRepository
	MandateRepository
	PayoutRepository
	PaymentMethodRepository
	AuthenticationRepository
	RelayRepository
}
