package webhook_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"paymentswitch/internal/cache"
	"paymentswitch/internal/domain/event"
	"paymentswitch/internal/domain/merchant"
	"paymentswitch/internal/services/webhook"
)

func TestPathSelector(t *testing.T) {
	client := &fakeUCS{}
	tests := []struct {
		name     string
		cfg      webhook.UCSConfig
		client   *fakeUCS
		merchant string
		conn     string
		want     webhook.Path
	}{
		{name: "disabled", cfg: webhook.UCSConfig{Connectors: []string{"adyen"}}, client: client, merchant: "m1", conn: "adyen", want: webhook.PathDirect},
		{name: "no client", cfg: webhook.UCSConfig{Enabled: true, Connectors: []string{"adyen"}}, merchant: "m1", conn: "adyen", want: webhook.PathDirect},
		{name: "rolled out", cfg: webhook.UCSConfig{Enabled: true, Connectors: []string{"adyen"}}, client: client, merchant: "m1", conn: "adyen", want: webhook.PathUCS},
		{name: "shadow", cfg: webhook.UCSConfig{Enabled: true, ShadowConnectors: []string{"adyen"}}, client: client, merchant: "m1", conn: "adyen", want: webhook.PathShadowUCS},
		{name: "other connector", cfg: webhook.UCSConfig{Enabled: true, Connectors: []string{"adyen"}}, client: client, merchant: "m1", conn: "stripe", want: webhook.PathDirect},
		{name: "merchant outside rollout", cfg: webhook.UCSConfig{Enabled: true, Connectors: []string{"adyen"}, Merchants: []string{"m2"}}, client: client, merchant: "m1", conn: "adyen", want: webhook.PathDirect},
		{name: "merchant in rollout", cfg: webhook.UCSConfig{Enabled: true, Connectors: []string{"adyen"}, Merchants: []string{"m1"}}, client: client, merchant: "m1", conn: "adyen", want: webhook.PathUCS},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var s *webhook.PathSelector
			if tt.client == nil {
				s = webhook.NewPathSelector(tt.cfg, nil)
			} else {
				s = webhook.NewPathSelector(tt.cfg, tt.client)
			}
			assert.Equal(t, tt.want, s.Select(tt.merchant, tt.conn))
		})
	}
}

func TestGate(t *testing.T) {
	ctx := context.Background()
	g := webhook.NewGate(cache.NewMemory())

	disabled, err := g.Disabled(ctx, "m1", "adyen", event.TypeRefundSuccess)
	require.NoError(t, err)
	assert.False(t, disabled)

	require.NoError(t, g.Disable(ctx, "m1", "adyen", event.TypeRefundSuccess))
	disabled, err = g.Disabled(ctx, "m1", "adyen", event.TypeRefundSuccess)
	require.NoError(t, err)
	assert.True(t, disabled)

	other, err := g.Disabled(ctx, "m1", "stripe", event.TypeRefundSuccess)
	require.NoError(t, err)
	assert.False(t, other)

	require.NoError(t, g.Enable(ctx, "m1", "adyen", event.TypeRefundSuccess))
	disabled, err = g.Disabled(ctx, "m1", "adyen", event.TypeRefundSuccess)
	require.NoError(t, err)
	assert.False(t, disabled)
}

type failingCache struct{ cache.Store }

func (failingCache) Get(context.Context, string) ([]byte, error) {
	return nil, errors.New("redis: connection refused")
}

func TestGate_LookupErrorReturned(t *testing.T) {
	g := webhook.NewGate(failingCache{cache.NewMemory()})
	disabled, err := g.Disabled(context.Background(), "m1", "adyen", event.TypeRefundSuccess)
	assert.Error(t, err)
	assert.False(t, disabled)
}

func TestSecrets(t *testing.T) {
	ctx := context.Background()

	t.Run("account secret wins", func(t *testing.T) {
		shared := cache.NewMemory()
		s := webhook.NewSecrets(shared, secretKey, time.Minute)
		require.NoError(t, s.SetFallback(ctx, "m1", "adyen", "fallback"))
		acct := &merchant.ConnectorAccount{ID: "mca_1", MerchantID: "m1", ConnectorName: "adyen", AdditionalSecret: "extra"}
		require.NoError(t, acct.SetWebhookSecret("own", secretKey))

		got, err := s.Get(ctx, acct)
		require.NoError(t, err)
		assert.Equal(t, "own", string(got.Secret))
		assert.Equal(t, "extra", got.AdditionalSecret)
	})

	t.Run("fallback used when account has none", func(t *testing.T) {
		s := webhook.NewSecrets(cache.NewMemory(), secretKey, time.Minute)
		require.NoError(t, s.SetFallback(ctx, "m1", "adyen", "fallback"))

		got, err := s.Get(ctx, &merchant.ConnectorAccount{ID: "mca_1", MerchantID: "m1", ConnectorName: "adyen"})
		require.NoError(t, err)
		assert.Equal(t, "fallback", string(got.Secret))
	})

	t.Run("missing secret is empty", func(t *testing.T) {
		s := webhook.NewSecrets(cache.NewMemory(), secretKey, time.Minute)

		got, err := s.Get(ctx, &merchant.ConnectorAccount{ID: "mca_1", MerchantID: "m1", ConnectorName: "adyen"})
		require.NoError(t, err)
		assert.Empty(t, got.Secret)
	})

	t.Run("cached until ttl", func(t *testing.T) {
		shared := cache.NewMemory()
		s := webhook.NewSecrets(shared, secretKey, time.Minute)
		acct := &merchant.ConnectorAccount{ID: "mca_1", MerchantID: "m1", ConnectorName: "adyen"}
		require.NoError(t, s.SetFallback(ctx, "m1", "adyen", "first"))

		got, err := s.Get(ctx, acct)
		require.NoError(t, err)
		require.Equal(t, "first", string(got.Secret))

		require.NoError(t, s.SetFallback(ctx, "m1", "adyen", "second"))
		got, err = s.Get(ctx, acct)
		require.NoError(t, err)
		assert.Equal(t, "first", string(got.Secret))
	})
}
