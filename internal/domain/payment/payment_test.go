package payment_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"paymentswitch/internal/domain/payment"
)

func TestMergeMandate_FirstWriterWins(t *testing.T) {
	pm := &payment.MethodRecord{ID: "pm_1"}

	first := payment.MandateReference{ConnectorMandateID: "mandate_a", OriginalAmount: 1000, OriginalCurrency: "USD"}
	second := payment.MandateReference{ConnectorMandateID: "mandate_b"}

	assert.True(t, pm.MergeMandate("mca_1", first))
	assert.False(t, pm.MergeMandate("mca_1", second))
	assert.True(t, pm.MergeMandate("mca_2", second))

	require.Len(t, pm.Mandates, 2)
	assert.Equal(t, "mandate_a", pm.Mandates["mca_1"].ConnectorMandateID)
	assert.Equal(t, "mandate_b", pm.Mandates["mca_2"].ConnectorMandateID)
}

func TestMergeMandate_IgnoresEmpty(t *testing.T) {
	pm := &payment.MethodRecord{}
	assert.False(t, pm.MergeMandate("", payment.MandateReference{ConnectorMandateID: "m"}))
	assert.False(t, pm.MergeMandate("mca_1", payment.MandateReference{}))
	assert.Empty(t, pm.Mandates)
}

func TestSetNetworkTransactionID_KeepsFirst(t *testing.T) {
	pm := &payment.MethodRecord{}
	assert.True(t, pm.SetNetworkTransactionID("ntid_1"))
	assert.False(t, pm.SetNetworkTransactionID("ntid_2"))
	assert.Equal(t, "ntid_1", pm.NetworkTransactionID)
}

func TestAttemptApplyStatus(t *testing.T) {
	a := &payment.Attempt{Status: payment.AttemptPending, Amount: 500, ErrorCode: "E1"}

	assert.True(t, a.ApplyStatus(payment.AttemptAuthorized))
	assert.Equal(t, payment.MinorUnit(500), a.AmountCapturable)
	assert.Empty(t, a.ErrorCode)

	assert.False(t, a.ApplyStatus(payment.AttemptAuthorized), "same status is not a change")

	assert.True(t, a.ApplyStatus(payment.AttemptCharged))
	assert.Zero(t, a.AmountCapturable)
}

func TestIntentApplyAttemptStatus(t *testing.T) {
	intent := &payment.Intent{Status: payment.IntentProcessing}
	a := &payment.Attempt{Status: payment.AttemptCharged, Amount: 1200}

	assert.True(t, intent.ApplyAttemptStatus(a))
	assert.Equal(t, payment.IntentSucceeded, intent.Status)
	assert.Equal(t, payment.MinorUnit(1200), intent.AmountCaptured)
	assert.False(t, intent.ApplyAttemptStatus(a))
}

func TestCreateAttempt_Validation(t *testing.T) {
	_, err := payment.CreateAttempt(nil, "att_1", "adyen", "mca_1", payment.MethodCard, payment.TypeCredit, payment.CaptureAutomatic)
	require.Error(t, err)

	intent := &payment.Intent{ID: "pay_1", MerchantID: "m1", Amount: 0}
	_, err = payment.CreateAttempt(intent, "att_1", "adyen", "mca_1", payment.MethodCard, payment.TypeCredit, payment.CaptureAutomatic)
	var derr payment.DomainError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, payment.ErrInvalidAmount, derr.Code)

	intent.Amount = 100
	a, err := payment.CreateAttempt(intent, "att_1", "adyen", "mca_1", payment.MethodCard, payment.TypeCredit, payment.CaptureAutomatic)
	require.NoError(t, err)
	assert.Equal(t, payment.AttemptStarted, a.Status)
	assert.Equal(t, "pay_1", a.PaymentID)
}

func TestMinorUnitConversions(t *testing.T) {
	assert.Equal(t, "10.50", payment.MinorUnit(1050).ToMajorString("USD"))
	assert.Equal(t, "1050", payment.MinorUnit(1050).ToMajorString("JPY"))
	assert.Equal(t, "1.050", payment.MinorUnit(1050).ToMajorString("KWD"))

	m, err := payment.MinorFromMajorString("10.5", "EUR")
	require.NoError(t, err)
	assert.Equal(t, payment.MinorUnit(1050), m)

	_, err = payment.MinorFromMajorString("10.505", "EUR")
	assert.Error(t, err)
}
