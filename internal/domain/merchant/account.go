package merchant

import (
	"fmt"
	"strings"
)

// Environment of a merchant-connector-account.
type Environment string

const (
	EnvironmentTest Environment = "test"
	EnvironmentLive Environment = "live"
)

// AuthType says how the connector authenticates the switch.
type AuthType string

const (
	AuthHeaderKey    AuthType = "HeaderKey"
	AuthBodyKey      AuthType = "BodyKey"
	AuthSignatureKey AuthType = "SignatureKey"
	AuthMultiAuthKey AuthType = "MultiAuthKey"
	AuthNoKey        AuthType = "NoKey"
)

// ConnectorAuth holds the API credentials of a merchant-connector-account.
type ConnectorAuth struct {
	Type      AuthType `json:"auth_type"`
	APIKey    string   `json:"api_key,omitempty"`
	Key1      string   `json:"key1,omitempty"`
	APISecret string   `json:"api_secret,omitempty"`
	Key2      string   `json:"key2,omitempty"`
}

// Metadata is the connector-specific configuration of an account.
type Metadata struct {
	EndpointPrefix  string `json:"endpoint_prefix,omitempty"`
	MerchantAccount string `json:"merchant_account,omitempty"`
}

// ConnectorAccount is a merchant's configured credentials and settings for one connector.
type ConnectorAccount struct {
	ID                     string        `json:"merchant_connector_id"`
	MerchantID             string        `json:"merchant_id"`
	ProfileID              string        `json:"profile_id"`
	ConnectorName          string        `json:"connector_name"`
	Environment            Environment   `json:"environment"`
	Disabled               bool          `json:"disabled"`
	Auth                   ConnectorAuth `json:"connector_account_details"`
	Metadata               Metadata      `json:"metadata"`
	EncryptedWebhookSecret string        `json:"connector_webhook_details,omitempty"`
	AdditionalSecret       string        `json:"additional_secret,omitempty"`
}

// IDPrefix marks a path segment as a merchant-connector-account id rather than a connector name.
const IDPrefix = "mca_"

// IsAccountID reports whether s is a merchant-connector-account id.
func IsAccountID(s string) bool {
	return strings.HasPrefix(s, IDPrefix)
}

// TestMode reports whether the account talks to the connector's sandbox.
func (a *ConnectorAccount) TestMode() bool {
	return a.Environment != EnvironmentLive
}

// SetWebhookSecret encrypts and stores the connector's webhook signing secret.
func (a *ConnectorAccount) SetWebhookSecret(secret string, key []byte) error {
	enc, err := encrypt(secret, key)
	if err != nil {
		return fmt.Errorf("failed to encrypt webhook secret: %w", err)
	}
	a.EncryptedWebhookSecret = enc
	return nil
}

// WebhookSecret decrypts the stored secret. An account without one returns "" and no error.
func (a *ConnectorAccount) WebhookSecret(key []byte) (string, error) {
	if a.EncryptedWebhookSecret == "" {
		return "", nil
	}
	s, err := decrypt(a.EncryptedWebhookSecret, key)
	if err != nil {
		return "", fmt.Errorf("failed to decrypt webhook secret for %s: %w", a.ID, err)
	}
	return s, nil
}

// Profile is a merchant's business profile.
type Profile struct {
	ID                           string `json:"profile_id"`
	MerchantID                   string `json:"merchant_id"`
	Name                         string `json:"profile_name"`
	WebhookURL                   string `json:"webhook_url,omitempty"`
	ExternalAuthPullMechanism    bool   `json:"external_authentication_pull_mechanism"`
	IsNetworkTokenizationEnabled bool   `json:"is_network_tokenization_enabled"`
}
