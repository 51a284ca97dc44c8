package ledger

import (
	"log/slog"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"utang-ledger/internal/domain"
)

// AllocationOrder names the order in which a person's debts are listed and paid down.
type AllocationOrder string

const (
	// EncounterOrder keeps debts in the order the store returned them.
	EncounterOrder AllocationOrder = "encounter"
	// OldestFirst orders debts by creation date, ties and unparsable dates keeping store order.
	OldestFirst AllocationOrder = "oldest_first"
)

func ParseAllocationOrder(s string) (AllocationOrder, bool) {
	switch AllocationOrder(s) {
	case EncounterOrder, OldestFirst:
		return AllocationOrder(s), true
	case "":
		return EncounterOrder, true
	}
	return "", false
}

// DebtHistoryEntry is one debt enriched with its in-window payments and derived balance.
type DebtHistoryEntry struct {
	Debt      domain.DebtRecord
	Payments  decimal.Decimal
	Owed      decimal.Decimal
	Remaining decimal.Decimal
	Status    domain.Status
}

// ConsolidatedPerson aggregates every debt for one (name, relationship) pair.
type ConsolidatedPerson struct {
	FullName     string
	Relationship domain.Relationship
	History      []DebtHistoryEntry

	TotalPrincipal decimal.Decimal
	TotalPaid      decimal.Decimal
	TotalOwed      decimal.Decimal
	TotalRemaining decimal.Decimal

	// LatestDueDate is empty when none of the debts has a due date.
	LatestDueDate string
}

// Split is the two-way output of a consolidation pass, each side in encounter order.
type Split struct {
	OwedToUser []ConsolidatedPerson
	OwedByUser []ConsolidatedPerson
}

// People returns the list for one direction.
func (s Split) People(rel domain.Relationship) []ConsolidatedPerson {
	if rel == domain.OwedByUser {
		return s.OwedByUser
	}
	return s.OwedToUser
}

// Find returns the consolidated person for an exact name and direction.
func (s Split) Find(name string, rel domain.Relationship) (ConsolidatedPerson, bool) {
	for _, p := range s.People(rel) {
		if p.FullName == name {
			return p, true
		}
	}
	return ConsolidatedPerson{}, false
}

// Clock returns the current time.
type Clock func() time.Time

type Engine struct {
	order  AllocationOrder
	now    Clock
	logger *slog.Logger
}

type Option func(*Engine)

func WithAllocationOrder(o AllocationOrder) Option {
	return func(e *Engine) { e.order = o }
}

// WithClock overrides the clock used to resolve statuses.
func WithClock(now Clock) Option {
	return func(e *Engine) { e.now = now }
}

func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		order:  EncounterOrder,
		now:    time.Now,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) Order() AllocationOrder {
	return e.order
}

func (e *Engine) Clock() Clock {
	return e.now
}

type personKey struct {
	name string
	rel  domain.Relationship
}

// Consolidate groups a user's debts by (name, relationship) within the window.
//
// Debts are kept or skipped by their creation date. Payments are summed per debt by
// their own payment date against the same window, independently of the debt's date.
// Payments that reference an unknown debt are ignored. Dates that fail to parse are
// treated as unbounded: the record is kept and a warning is logged.
func (e *Engine) Consolidate(debts []domain.DebtRecord, payments []domain.PaymentRecord, w Window) Split {
	paid := e.paymentsByDebt(payments, w)
	today := e.now()

	index := make(map[personKey]int)
	var people [2][]ConsolidatedPerson

	for _, d := range debts {
		in, ok := w.Contains(d.DateAdded)
		if !ok {
			e.logger.Warn("debt has unparsable date_added, treating as unbounded",
				"debt_id", d.ID, "date_added", d.DateAdded)
		}
		if !in {
			continue
		}
		if !d.Relationship.Valid() {
			e.logger.Warn("debt has unknown relationship, skipping",
				"debt_id", d.ID, "relationship", string(d.Relationship))
			continue
		}

		side := sideOf(d.Relationship)
		key := personKey{name: d.FullName, rel: d.Relationship}
		pos, exists := index[key]
		if !exists {
			people[side] = append(people[side], ConsolidatedPerson{
				FullName:       d.FullName,
				Relationship:   d.Relationship,
				TotalPrincipal: decimal.Zero,
				TotalPaid:      decimal.Zero,
				TotalOwed:      decimal.Zero,
				TotalRemaining: decimal.Zero,
			})
			pos = len(people[side]) - 1
			index[key] = pos
		}
		p := &people[side][pos]

		payTotal, found := paid[d.ID]
		if !found {
			payTotal = decimal.Zero
		}
		owed := Owed(d)
		remaining := Remaining(owed, payTotal)
		if Overpaid(remaining) {
			e.logger.Warn("debt is overpaid, allocation did not cap a payment",
				"debt_id", d.ID, "remaining", remaining.String())
		}

		p.History = append(p.History, DebtHistoryEntry{
			Debt:      d,
			Payments:  payTotal,
			Owed:      owed,
			Remaining: remaining,
			Status:    ResolveStatus(remaining, d.DueDate, today),
		})
		p.TotalPrincipal = p.TotalPrincipal.Add(d.Amount)
		p.TotalPaid = p.TotalPaid.Add(payTotal)
		p.TotalOwed = p.TotalOwed.Add(owed)
		p.TotalRemaining = p.TotalRemaining.Add(remaining)

		if d.DueDate != "" && (p.LatestDueDate == "" || d.DueDate > p.LatestDueDate) {
			p.LatestDueDate = d.DueDate
		}
	}

	if e.order == OldestFirst {
		for side := range people {
			for i := range people[side] {
				sortOldestFirst(people[side][i].History)
			}
		}
	}

	return Split{OwedToUser: people[0], OwedByUser: people[1]}
}

func (e *Engine) paymentsByDebt(payments []domain.PaymentRecord, w Window) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal)
	for _, p := range payments {
		in, ok := w.Contains(p.Date)
		if !ok {
			e.logger.Warn("payment has unparsable date, treating as unbounded",
				"debt_id", p.DebtID, "payment_date", p.Date)
		}
		if !in {
			continue
		}
		out[p.DebtID] = out[p.DebtID].Add(p.Amount)
	}
	return out
}

func sideOf(rel domain.Relationship) int {
	if rel == domain.OwedByUser {
		return 1
	}
	return 0
}

func sortOldestFirst(history []DebtHistoryEntry) {
	sort.SliceStable(history, func(i, j int) bool {
		ti, okI := domain.ParseDate(history[i].Debt.DateAdded)
		tj, okJ := domain.ParseDate(history[j].Debt.DateAdded)
		switch {
		case okI && okJ:
			return ti.Before(tj)
		case okI:
			return true
		default:
			return false
		}
	})
}
