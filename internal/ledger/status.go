package ledger

import (
	"time"

	"github.com/shopspring/decimal"

	"utang-ledger/internal/domain"
)

// Epsilon is the largest negative remaining balance still considered a rounding artefact.
var Epsilon = decimal.New(1, -6)

// ResolveStatus classifies a debt from its remaining balance and due date.
//
//   - Paid: remaining is zero or below.
//   - Overdue: remaining > 0 and the due date is strictly before today.
//   - Pending: remaining > 0 and there is no due date, it is today or later, or it does not parse.
func ResolveStatus(remaining decimal.Decimal, dueDate string, today time.Time) domain.Status {
	if !remaining.IsPositive() {
		return domain.StatusPaid
	}
	due, ok := domain.ParseDate(dueDate)
	if !ok {
		return domain.StatusPending
	}
	if due.Before(domain.Today(today)) {
		return domain.StatusOverdue
	}
	return domain.StatusPending
}

// Overpaid reports a remaining balance below zero by more than Epsilon.
func Overpaid(remaining decimal.Decimal) bool {
	return remaining.LessThan(Epsilon.Neg())
}
