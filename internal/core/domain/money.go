package domain

import "github.com/shopspring/decimal"

// AmountPlaces is the scale every stored amount and tax rate is kept at.
const AmountPlaces = 2

// maxTaxRate is the largest percentage a NUMERIC(5,2) column holds.
var maxTaxRate = decimal.NewFromInt(100)

// ParseAmount reads a decimal string and rejects values the store would
// have to round.
func ParseAmount(field, value string) (decimal.Decimal, error) {
	amount, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, NewValidationError(field, value, "must be a decimal amount")
	}

	if !amount.Equal(amount.Round(AmountPlaces)) {
		return decimal.Zero, NewValidationError(field, value, "must not have more than 2 decimal places")
	}

	return amount, nil
}
