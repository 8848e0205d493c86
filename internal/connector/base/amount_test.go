package base_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"paymentswitch/internal/connector"
	"paymentswitch/internal/connector/base"
	"paymentswitch/internal/domain/payment"
)

func TestStringMajorUnitConverter(t *testing.T) {
	var conv base.AmountConverter[string] = base.StringMajorUnitConverter{}

	s, err := conv.Convert(1999, "USD")
	require.NoError(t, err)
	assert.Equal(t, "19.99", s)

	m, err := conv.ConvertBack("19.99", "USD")
	require.NoError(t, err)
	assert.Equal(t, payment.MinorUnit(1999), m)

	_, err = conv.ConvertBack("abc", "USD")
	assert.ErrorIs(t, err, connector.ErrResponseDeserializationFailed)
}

func TestValidateAmount(t *testing.T) {
	assert.NoError(t, base.ValidateAmount(1))
	assert.ErrorIs(t, base.ValidateAmount(0), connector.ErrRequestEncodingFailed)
}
