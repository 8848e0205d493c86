package webhook

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"paymentswitch/internal/cache"
	"paymentswitch/internal/connector"
	"paymentswitch/internal/domain/merchant"
)

// Secrets resolves webhook signing secrets. The account's own encrypted secret wins;
// otherwise a per merchant and connector entry in the shared cache is used. Decrypted
// values are kept in process for ttl, so a changed fallback shows up within ttl.
type Secrets struct {
	shared cache.Store
	local  *cache.Memory
	key    []byte
	ttl    time.Duration
	group  singleflight.Group
}

func NewSecrets(shared cache.Store, key []byte, ttl time.Duration) *Secrets {
	return &Secrets{shared: shared, local: cache.NewMemory(), key: key, ttl: ttl}
}

func fallbackKey(merchantID, connectorName string) string {
	return "whconf:" + merchantID + ":" + connectorName
}

// SetFallback stores an encrypted secret for accounts that carry none.
func (s *Secrets) SetFallback(ctx context.Context, merchantID, connectorName, secret string) error {
	enc, err := merchant.EncryptSecret(secret, s.key)
	if err != nil {
		return fmt.Errorf("failed to encrypt webhook secret: %w", err)
	}
	return s.shared.Set(ctx, fallbackKey(merchantID, connectorName), []byte(enc), 0)
}

// Get returns the secret for the account. No configured secret is an empty secret, not an error.
func (s *Secrets) Get(ctx context.Context, acct *merchant.ConnectorAccount) (connector.WebhookSecret, error) {
	key := acct.MerchantID + ":" + acct.ConnectorName + ":" + acct.ID
	out := connector.WebhookSecret{AdditionalSecret: acct.AdditionalSecret}

	if b, err := s.local.Get(ctx, key); err == nil {
		out.Secret = b
		return out, nil
	}

	v, err, _ := s.group.Do(key, func() (any, error) {
		secret, err := s.load(ctx, acct)
		if err != nil {
			return nil, err
		}
		_ = s.local.Set(ctx, key, secret, s.ttl)
		return secret, nil
	})
	if err != nil {
		return out, err
	}
	out.Secret = v.([]byte)
	return out, nil
}

func (s *Secrets) load(ctx context.Context, acct *merchant.ConnectorAccount) ([]byte, error) {
	secret, err := acct.WebhookSecret(s.key)
	if err != nil {
		return nil, err
	}
	if secret != "" {
		return []byte(secret), nil
	}

	enc, err := s.shared.Get(ctx, fallbackKey(acct.MerchantID, acct.ConnectorName))
	if errors.Is(err, cache.ErrMiss) {
		log.Debug().
			Str("merchant_id", acct.MerchantID).
			Str("connector", acct.ConnectorName).
			Msg("no webhook secret configured")
		return []byte{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read webhook secret: %w", err)
	}
	plain, err := merchant.DecryptSecret(string(enc), s.key)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt webhook secret: %w", err)
	}
	return []byte(plain), nil
}
