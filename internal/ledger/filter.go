package ledger

import (
	"strings"

	"github.com/shopspring/decimal"

	"utang-ledger/internal/domain"
)

// PersonFilter narrows a split for display. Zero values match everything.
type PersonFilter struct {
	Name         string
	Relationship domain.Relationship
	Status       domain.Status
	MinRemaining *decimal.Decimal
	MaxRemaining *decimal.Decimal
}

func (f PersonFilter) IsZero() bool {
	return f.Name == "" && f.Relationship == "" && f.Status == "" &&
		f.MinRemaining == nil && f.MaxRemaining == nil
}

// Match reports whether a person passes every set criterion. A status criterion
// matches when any debt in the person's history has that status.
func (f PersonFilter) Match(p ConsolidatedPerson) bool {
	if f.Name != "" && !strings.Contains(strings.ToLower(p.FullName), strings.ToLower(f.Name)) {
		return false
	}
	if f.Relationship != "" && p.Relationship != f.Relationship {
		return false
	}
	if f.MinRemaining != nil && p.TotalRemaining.LessThan(*f.MinRemaining) {
		return false
	}
	if f.MaxRemaining != nil && p.TotalRemaining.GreaterThan(*f.MaxRemaining) {
		return false
	}
	if f.Status != "" {
		for _, entry := range p.History {
			if entry.Status == f.Status {
				return true
			}
		}
		return false
	}
	return true
}

// FilterPeople keeps the people matching f on both sides, preserving order.
func FilterPeople(split Split, f PersonFilter) Split {
	if f.IsZero() {
		return split
	}
	keep := func(people []ConsolidatedPerson) []ConsolidatedPerson {
		var out []ConsolidatedPerson
		for _, p := range people {
			if f.Match(p) {
				out = append(out, p)
			}
		}
		return out
	}
	return Split{OwedToUser: keep(split.OwedToUser), OwedByUser: keep(split.OwedByUser)}
}
