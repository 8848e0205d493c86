package payment

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// MinorUnit is an amount in the smallest unit of its currency (cents for USD).
type MinorUnit int64

// Currency is an ISO-4217 alphabetic code.
type Currency string

// zero-decimal and three-decimal currencies; everything else uses two.
var currencyExponents = map[Currency]int32{
	"BIF": 0, "CLP": 0, "DJF": 0, "GNF": 0, "JPY": 0, "KMF": 0, "KRW": 0, "MGA": 0,
	"PYG": 0, "RWF": 0, "UGX": 0, "VND": 0, "VUV": 0, "XAF": 0, "XOF": 0, "XPF": 0,
	"BHD": 3, "IQD": 3, "JOD": 3, "KWD": 3, "LYD": 3, "OMR": 3, "TND": 3,
}

// Exponent returns the number of decimal places of the currency.
func (c Currency) Exponent() int32 {
	if e, ok := currencyExponents[Currency(strings.ToUpper(string(c)))]; ok {
		return e
	}
	return 2
}

// ToMajor converts the minor amount to a decimal in major units.
func (m MinorUnit) ToMajor(c Currency) decimal.Decimal {
	return decimal.New(int64(m), -c.Exponent())
}

// ToMajorString renders the amount in major units with the currency's precision.
func (m MinorUnit) ToMajorString(c Currency) string {
	return m.ToMajor(c).StringFixed(c.Exponent())
}

// MinorFromMajorString parses a major-unit amount such as "10.50".
func MinorFromMajorString(s string, c Currency) (MinorUnit, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("parse amount %q: %w", s, err)
	}
	scaled := d.Shift(c.Exponent())
	if !scaled.Equal(scaled.Truncate(0)) {
		return 0, fmt.Errorf("amount %q has more precision than %s allows", s, c)
	}
	return MinorUnit(scaled.IntPart()), nil
}
