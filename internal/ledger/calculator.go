package ledger

import (
	"github.com/shopspring/decimal"

	"utang-ledger/internal/domain"
)

var hundred = decimal.NewFromInt(100)

// Owed computes the flat-rate amount owed on a debt:
//
//	owed = principal × (1 + interest_rate / 100)
//
// Interest is applied once. There is no compounding and no time-based accrual.
func Owed(d domain.DebtRecord) decimal.Decimal {
	factor := decimal.NewFromInt(1).Add(d.InterestRate.Div(hundred))
	return d.Amount.Mul(factor)
}

// Remaining is owed minus payments. A negative result means an upstream
// allocation failed to cap a payment; it is returned as is.
func Remaining(owed, paid decimal.Decimal) decimal.Decimal {
	return owed.Sub(paid)
}
