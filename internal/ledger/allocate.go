package ledger

import (
	"errors"

	"github.com/shopspring/decimal"

	"utang-ledger/internal/domain"
)

var (
	ErrInvalidAmount        = errors.New("payment amount must be greater than zero")
	ErrAmountExceedsBalance = errors.New("payment amount exceeds remaining balance")
)

// Allocate distributes one payment across a person's debts in history order.
//
// The amount must be positive and must not exceed the person's total remaining
// balance; otherwise nothing is emitted. Each debt with a positive remaining balance
// receives min(budget, remaining) until the budget is spent, producing one payment
// record per debt touched.
func Allocate(p ConsolidatedPerson, amount decimal.Decimal, date string) ([]domain.PaymentRecord, error) {
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}

	outstanding := decimal.Zero
	for _, entry := range p.History {
		if entry.Remaining.IsPositive() {
			outstanding = outstanding.Add(entry.Remaining)
		}
	}
	if amount.GreaterThan(outstanding) {
		return nil, ErrAmountExceedsBalance
	}

	budget := amount
	var out []domain.PaymentRecord
	for _, entry := range p.History {
		if !budget.IsPositive() {
			break
		}
		if !entry.Remaining.IsPositive() {
			continue
		}
		apply := decimal.Min(budget, entry.Remaining)
		out = append(out, domain.PaymentRecord{
			DebtID: entry.Debt.ID,
			Amount: apply,
			Date:   date,
		})
		budget = budget.Sub(apply)
	}

	return out, nil
}

// Apply returns a copy of the person with the payments folded into its history and totals,
// recomputing statuses against today. Payments for debts outside the history are ignored.
func Apply(p ConsolidatedPerson, payments []domain.PaymentRecord, today Clock) ConsolidatedPerson {
	byDebt := make(map[string]decimal.Decimal, len(payments))
	for _, pay := range payments {
		byDebt[pay.DebtID] = byDebt[pay.DebtID].Add(pay.Amount)
	}

	out := p
	out.History = make([]DebtHistoryEntry, len(p.History))
	out.TotalPaid = decimal.Zero
	out.TotalRemaining = decimal.Zero
	for i, entry := range p.History {
		if extra, ok := byDebt[entry.Debt.ID]; ok {
			entry.Payments = entry.Payments.Add(extra)
			entry.Remaining = Remaining(entry.Owed, entry.Payments)
			entry.Status = ResolveStatus(entry.Remaining, entry.Debt.DueDate, today())
		}
		out.History[i] = entry
		out.TotalPaid = out.TotalPaid.Add(entry.Payments)
		out.TotalRemaining = out.TotalRemaining.Add(entry.Remaining)
	}
	return out
}
