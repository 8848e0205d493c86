package base

import (
	"fmt"

	"paymentswitch/internal/connector"
	"paymentswitch/internal/domain/payment"
)

// AmountConverter turns the switch's minor units into a connector's wire amount and back.
type AmountConverter[T any] interface {
	Convert(amount payment.MinorUnit, currency payment.Currency) (T, error)
	ConvertBack(amount T, currency payment.Currency) (payment.MinorUnit, error)
}

// MinorUnitConverter is the identity conversion for connectors that speak minor units.
type MinorUnitConverter struct{}

func (MinorUnitConverter) Convert(a payment.MinorUnit, _ payment.Currency) (payment.MinorUnit, error) {
	return a, nil
}

func (MinorUnitConverter) ConvertBack(a payment.MinorUnit, _ payment.Currency) (payment.MinorUnit, error) {
	return a, nil
}

// StringMajorUnitConverter renders amounts as major-unit decimal strings, e.g. "10.50".
type StringMajorUnitConverter struct{}

func (StringMajorUnitConverter) Convert(a payment.MinorUnit, c payment.Currency) (string, error) {
	return a.ToMajorString(c), nil
}

func (StringMajorUnitConverter) ConvertBack(s string, c payment.Currency) (payment.MinorUnit, error) {
	m, err := payment.MinorFromMajorString(s, c)
	if err != nil {
		return 0, connector.Deserialization(err)
	}
	return m, nil
}

// ValidateAmount rejects non-positive amounts before a request is built.
func ValidateAmount(a payment.MinorUnit) error {
	if a <= 0 {
		return &connector.Error{
			Code:         connector.CodeRequestEncodingFailed,
			Message:      "amount must be greater than zero",
			ConnectorErr: fmt.Sprintf("amount=%d", a),
		}
	}
	return nil
}
