package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"paymentswitch/internal/domain/merchant"
	"paymentswitch/internal/domain/payment"
	"paymentswitch/internal/store/repositories"
)

func TestStore_AttemptLookups(t *testing.T) {
	ctx := context.Background()
	s := New()

	a := &payment.Attempt{ID: "att_1", PaymentID: "pay_1", MerchantID: "m1", Connector: "adyen",
		ConnectorTransactionID: "psp_1", PreprocessingID: "pre_1", Status: payment.AttemptPending}
	require.NoError(t, s.SaveAttempt(ctx, a))

	got, err := s.FindAttemptByConnectorTransactionID(ctx, "m1", "adyen", "psp_1")
	require.NoError(t, err)
	assert.Equal(t, "att_1", got.ID)

	got, err = s.FindAttemptByPreprocessingID(ctx, "m1", "pre_1")
	require.NoError(t, err)
	assert.Equal(t, "att_1", got.ID)

	_, err = s.FindAttemptByConnectorTransactionID(ctx, "m1", "stripe", "psp_1")
	assert.ErrorIs(t, err, repositories.ErrNotFound)

	_, err = s.FindAttempt(ctx, "m2", "att_1")
	assert.ErrorIs(t, err, repositories.ErrNotFound)
}

func TestStore_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := New()

	pm := &payment.MethodRecord{ID: "pm_1", MerchantID: "m1"}
	require.NoError(t, s.SavePaymentMethod(ctx, pm))

	loaded, err := s.FindPaymentMethod(ctx, "m1", "pm_1")
	require.NoError(t, err)
	loaded.MergeMandate("mca_1", payment.MandateReference{ConnectorMandateID: "cm_1"})

	again, err := s.FindPaymentMethod(ctx, "m1", "pm_1")
	require.NoError(t, err)
	assert.Empty(t, again.Mandates)
}

func TestStore_AccountByNameSkipsDisabled(t *testing.T) {
	ctx := context.Background()
	s := New()

	require.NoError(t, s.SaveConnectorAccount(ctx, &merchant.ConnectorAccount{ID: "mca_1", MerchantID: "m1", ConnectorName: "adyen", Disabled: true}))
	_, err := s.FindConnectorAccountByName(ctx, "m1", "adyen")
	assert.ErrorIs(t, err, repositories.ErrNotFound)

	require.NoError(t, s.SaveConnectorAccount(ctx, &merchant.ConnectorAccount{ID: "mca_2", MerchantID: "m1", ConnectorName: "adyen"}))
	acct, err := s.FindConnectorAccountByName(ctx, "m1", "adyen")
	require.NoError(t, err)
	assert.Equal(t, "mca_2", acct.ID)
}
