package relay_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"paymentswitch/internal/domain/relay"
)

func TestApply(t *testing.T) {
	r := &relay.Relay{Status: relay.StatusPending}

	assert.True(t, r.Apply(relay.StatusPending, "rf_psp", "", ""))
	assert.Equal(t, "rf_psp", r.ConnectorReferenceID)
	assert.False(t, r.Apply(relay.StatusPending, "rf_psp", "", ""))

	assert.True(t, r.Apply(relay.StatusFailure, "", "REFUND_FAILED", "insufficient balance"))
	assert.Equal(t, relay.StatusFailure, r.Status)
	assert.Equal(t, "REFUND_FAILED", r.ErrorCode)
	assert.Equal(t, "rf_psp", r.ConnectorReferenceID)
}
