package domain

import "github.com/shopspring/decimal"

type PaymentRecord struct {
	DebtID string
	Amount decimal.Decimal
	// Date is YYYY-MM-DD.
	Date string
}
