package roundup

import (
	"github.com/dmitrijs2005/roundup/internal/client/models"
	"github.com/shopspring/decimal"
)

var currencySymbols = map[string]string{
	"GBP": "£",
	"EUR": "€",
	"USD": "$",
}

// FormatMoney renders m as symbol plus major units with two decimals,
// e.g. "£1.58". Unknown currencies use the code as the prefix.
func FormatMoney(m models.Money) string {
	symbol, ok := currencySymbols[m.Currency]
	if !ok {
		symbol = m.Currency
	}

	d := decimal.New(m.MinorUnits, -2)
	if d.IsNegative() {
		return "-" + symbol + d.Neg().StringFixed(2)
	}
	return symbol + d.StringFixed(2)
}

// ParseMajor converts a user-entered amount such as "12.5" to minor units.
// More than two decimals are rejected.
func ParseMajor(currency, s string) (models.Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return models.Money{}, ErrInvalidAmount
	}
	if d.IsNegative() || d.Exponent() < -2 {
		return models.Money{}, ErrInvalidAmount
	}
	return models.Money{Currency: currency, MinorUnits: d.Shift(2).IntPart()}, nil
}
