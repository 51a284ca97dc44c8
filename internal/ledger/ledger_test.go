package ledger

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"utang-ledger/internal/domain"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func fixedClock(date string) Clock {
	t, err := time.Parse(domain.DateLayout, date)
	if err != nil {
		panic(err)
	}
	return func() time.Time { return t.Add(15 * time.Hour) }
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testEngine(opts ...Option) *Engine {
	base := []Option{WithClock(fixedClock("2025-01-01")), WithLogger(quietLogger())}
	return NewEngine(append(base, opts...)...)
}

func debt(id, name string, rel domain.Relationship, amount, rate, added, due string) domain.DebtRecord {
	return domain.DebtRecord{
		ID:           id,
		User:         "juan",
		FullName:     name,
		Amount:       dec(amount),
		Relationship: rel,
		InterestRate: dec(rate),
		DateAdded:    added,
		DueDate:      due,
		Status:       domain.StatusActive,
	}
}

func payment(debtID, amount, date string) domain.PaymentRecord {
	return domain.PaymentRecord{DebtID: debtID, Amount: dec(amount), Date: date}
}

func assertDec(t *testing.T, label string, got decimal.Decimal, want string) {
	t.Helper()
	if !got.Equal(dec(want)) {
		t.Errorf("%s = %s, want %s", label, got.String(), want)
	}
}

// sumHistory recomputes every running total from the history entries.
func sumHistory(p ConsolidatedPerson) (principal, paid, owed, remaining decimal.Decimal) {
	for _, e := range p.History {
		principal = principal.Add(e.Debt.Amount)
		paid = paid.Add(e.Payments)
		owed = owed.Add(e.Owed)
		remaining = remaining.Add(e.Remaining)
	}
	return
}

func assertTotalsConsistent(t *testing.T, p ConsolidatedPerson) {
	t.Helper()
	principal, paid, owed, remaining := sumHistory(p)
	if !p.TotalPrincipal.Equal(principal) || !p.TotalPaid.Equal(paid) ||
		!p.TotalOwed.Equal(owed) || !p.TotalRemaining.Equal(remaining) {
		t.Errorf("%s totals (%s, %s, %s, %s) do not match history (%s, %s, %s, %s)",
			p.FullName,
			p.TotalPrincipal, p.TotalPaid, p.TotalOwed, p.TotalRemaining,
			principal, paid, owed, remaining)
	}
}
