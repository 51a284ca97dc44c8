package rest

import (
	"github.com/shopspring/decimal"

	"utang-ledger/internal/domain"
	"utang-ledger/internal/ledger"
	"utang-ledger/internal/service"
)

// Money values are serialized as decimal strings.

type debtView struct {
	DebtID       string          `json:"debt_id"`
	FullName     string          `json:"full_name"`
	Amount       decimal.Decimal `json:"amount"`
	Relationship string          `json:"relationship"`
	InterestRate decimal.Decimal `json:"interest_rate"`
	DateAdded    string          `json:"date_added"`
	DueDate      *string         `json:"due_date"`
	Notes        string          `json:"notes"`
	Status       string          `json:"status"`
}

func newDebtView(d domain.DebtRecord) debtView {
	return debtView{
		DebtID:       d.ID,
		FullName:     d.FullName,
		Amount:       d.Amount,
		Relationship: string(d.Relationship),
		InterestRate: d.InterestRate,
		DateAdded:    d.DateAdded,
		DueDate:      optional(d.DueDate),
		Notes:        d.Notes,
		Status:       d.Status,
	}
}

type historyView struct {
	debtView
	Owed       decimal.Decimal `json:"owed"`
	Paid       decimal.Decimal `json:"paid"`
	Remaining  decimal.Decimal `json:"remaining"`
	DebtStatus string          `json:"debt_status"`
}

type personView struct {
	FullName       string          `json:"full_name"`
	Relationship   string          `json:"relationship"`
	TotalPrincipal decimal.Decimal `json:"total_principal"`
	TotalOwed      decimal.Decimal `json:"total_owed"`
	TotalPaid      decimal.Decimal `json:"total_paid"`
	TotalRemaining decimal.Decimal `json:"total_remaining"`
	LatestDueDate  *string         `json:"latest_due_date"`
	History        []historyView   `json:"history"`
}

func newPersonView(p ledger.ConsolidatedPerson) personView {
	v := personView{
		FullName:       p.FullName,
		Relationship:   string(p.Relationship),
		TotalPrincipal: p.TotalPrincipal,
		TotalOwed:      p.TotalOwed,
		TotalPaid:      p.TotalPaid,
		TotalRemaining: p.TotalRemaining,
		LatestDueDate:  optional(p.LatestDueDate),
		History:        make([]historyView, 0, len(p.History)),
	}
	for _, e := range p.History {
		v.History = append(v.History, historyView{
			debtView:   newDebtView(e.Debt),
			Owed:       e.Owed,
			Paid:       e.Payments,
			Remaining:  e.Remaining,
			DebtStatus: string(e.Status),
		})
	}
	return v
}

func newPeopleView(people []ledger.ConsolidatedPerson) []personView {
	out := make([]personView, 0, len(people))
	for _, p := range people {
		out = append(out, newPersonView(p))
	}
	return out
}

type splitView struct {
	OwedToUser []personView `json:"owed_to_user"`
	OwedByUser []personView `json:"owed_by_user"`
}

func newSplitView(s ledger.Split) splitView {
	return splitView{
		OwedToUser: newPeopleView(s.OwedToUser),
		OwedByUser: newPeopleView(s.OwedByUser),
	}
}

type paymentView struct {
	DebtID        string          `json:"debt_id"`
	PaymentAmount decimal.Decimal `json:"payment_amount"`
	PaymentDate   string          `json:"payment_date"`
}

func newPaymentViews(payments []domain.PaymentRecord) []paymentView {
	out := make([]paymentView, 0, len(payments))
	for _, p := range payments {
		out = append(out, paymentView{DebtID: p.DebtID, PaymentAmount: p.Amount, PaymentDate: p.Date})
	}
	return out
}

type directionView struct {
	People    int             `json:"people"`
	Principal decimal.Decimal `json:"principal"`
	Owed      decimal.Decimal `json:"owed"`
	Paid      decimal.Decimal `json:"paid"`
	Remaining decimal.Decimal `json:"remaining"`
}

func newDirectionView(t ledger.DirectionTotals) directionView {
	return directionView{
		People:    t.People,
		Principal: t.Principal,
		Owed:      t.Owed,
		Paid:      t.Paid,
		Remaining: t.Remaining,
	}
}

type monthView struct {
	Month string          `json:"month"`
	Total decimal.Decimal `json:"total"`
}

type analyticsView struct {
	OwedToUser      directionView  `json:"owed_to_user"`
	OwedByUser      directionView  `json:"owed_by_user"`
	ActiveDebts     int            `json:"active_debts"`
	StatusCounts    map[string]int `json:"status_counts"`
	MonthlyPayments []monthView    `json:"monthly_payments"`
	SkippedPayments int            `json:"skipped_payments"`
}

func newAnalyticsView(r service.AnalyticsReport) analyticsView {
	v := analyticsView{
		OwedToUser:      newDirectionView(r.Summary.OwedToUser),
		OwedByUser:      newDirectionView(r.Summary.OwedByUser),
		ActiveDebts:     r.Summary.ActiveDebts,
		StatusCounts:    map[string]int{},
		MonthlyPayments: make([]monthView, 0, len(r.Payments.Months)),
		SkippedPayments: r.Payments.Skipped,
	}
	for _, st := range []domain.Status{domain.StatusPaid, domain.StatusPending, domain.StatusOverdue} {
		v.StatusCounts[string(st)] = r.Summary.StatusCounts[st]
	}
	for _, m := range r.Payments.Months {
		v.MonthlyPayments = append(v.MonthlyPayments, monthView{Month: m.Month, Total: m.Total})
	}
	return v
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
