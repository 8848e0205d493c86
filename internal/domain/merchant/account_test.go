package merchant_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"paymentswitch/internal/domain/merchant"
)

func TestWebhookSecretRoundTrip(t *testing.T) {
	key := bytes.Repeat([]byte{7}, 32)
	acct := &merchant.ConnectorAccount{ID: "mca_1"}

	require.NoError(t, acct.SetWebhookSecret("whsec_abc", key))
	assert.NotContains(t, acct.EncryptedWebhookSecret, "whsec_abc")

	got, err := acct.WebhookSecret(key)
	require.NoError(t, err)
	assert.Equal(t, "whsec_abc", got)

	_, err = acct.WebhookSecret(bytes.Repeat([]byte{8}, 32))
	assert.Error(t, err)
}

func TestWebhookSecret_Empty(t *testing.T) {
	acct := &merchant.ConnectorAccount{}
	got, err := acct.WebhookSecret(bytes.Repeat([]byte{1}, 32))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSetWebhookSecret_RejectsShortKey(t *testing.T) {
	acct := &merchant.ConnectorAccount{}
	assert.Error(t, acct.SetWebhookSecret("s", []byte("short")))
}

func TestIsAccountID(t *testing.T) {
	assert.True(t, merchant.IsAccountID("mca_123"))
	assert.False(t, merchant.IsAccountID("adyen"))
}
