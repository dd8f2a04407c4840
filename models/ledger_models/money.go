package ledger_models

import (
	"github.com/shopspring/decimal"
)

// MoneyScale is the number of fraction digits kept for every stored amount.
const MoneyScale = 2

// ValidateAmount checks that amount is positive and carries no more than two
// fraction digits.
func ValidateAmount(field string, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return invalid("%s must be greater than zero", field)
	}
	if !amount.Equal(amount.Round(MoneyScale)) {
		return invalid("%s must have at most %d decimal places", field, MoneyScale)
	}
	return nil
}

// RoundMoney rounds half away from zero to the stored scale.
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(MoneyScale)
}
