package ledger

import (
	"sort"

	"github.com/shopspring/decimal"

	"utang-ledger/internal/domain"
)

type DirectionTotals struct {
	People    int
	Principal decimal.Decimal
	Owed      decimal.Decimal
	Paid      decimal.Decimal
	Remaining decimal.Decimal
}

type Summary struct {
	OwedToUser DirectionTotals
	OwedByUser DirectionTotals

	// ActiveDebts counts history entries in both directions with a positive remaining balance.
	ActiveDebts  int
	StatusCounts map[domain.Status]int
}

type MonthlyTotal struct {
	// Month is YYYY-MM.
	Month string
	Total decimal.Decimal
}

type PaymentSeries struct {
	Months []MonthlyTotal
	// Skipped counts in-window payments whose date could not be bucketed.
	Skipped int
}

// Summarize reduces a consolidated split to per-direction totals and debt counts.
func Summarize(split Split) Summary {
	s := Summary{
		OwedToUser:   directionTotals(split.OwedToUser),
		OwedByUser:   directionTotals(split.OwedByUser),
		StatusCounts: make(map[domain.Status]int),
	}
	for _, people := range [][]ConsolidatedPerson{split.OwedToUser, split.OwedByUser} {
		for _, p := range people {
			for _, entry := range p.History {
				if entry.Remaining.IsPositive() {
					s.ActiveDebts++
				}
				s.StatusCounts[entry.Status]++
			}
		}
	}
	return s
}

func directionTotals(people []ConsolidatedPerson) DirectionTotals {
	t := DirectionTotals{
		People:    len(people),
		Principal: decimal.Zero,
		Owed:      decimal.Zero,
		Paid:      decimal.Zero,
		Remaining: decimal.Zero,
	}
	for _, p := range people {
		t.Principal = t.Principal.Add(p.TotalPrincipal)
		t.Owed = t.Owed.Add(p.TotalOwed)
		t.Paid = t.Paid.Add(p.TotalPaid)
		t.Remaining = t.Remaining.Add(p.TotalRemaining)
	}
	return t
}

// MonthlyPayments buckets the user's in-window payments by calendar month, ascending.
// Only payments referencing one of the given debts are counted.
func MonthlyPayments(debts []domain.DebtRecord, payments []domain.PaymentRecord, w Window) PaymentSeries {
	owned := make(map[string]struct{}, len(debts))
	for _, d := range debts {
		owned[d.ID] = struct{}{}
	}

	buckets := make(map[string]decimal.Decimal)
	var series PaymentSeries
	for _, p := range payments {
		if _, ok := owned[p.DebtID]; !ok {
			continue
		}
		t, ok := domain.ParseDate(p.Date)
		if !ok {
			series.Skipped++
			continue
		}
		if !w.containsTime(t) {
			continue
		}
		month := t.Format("2006-01")
		buckets[month] = buckets[month].Add(p.Amount)
	}

	months := make([]string, 0, len(buckets))
	for m := range buckets {
		months = append(months, m)
	}
	sort.Strings(months)

	series.Months = make([]MonthlyTotal, 0, len(months))
	for _, m := range months {
		series.Months = append(series.Months, MonthlyTotal{Month: m, Total: buckets[m]})
	}
	return series
}
