package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"utang-ledger/internal/domain"
)

// DebtInput carries raw debt fields as entered. Empty optional fields take quick-add
// defaults: interest 0, date added today, no due date, relationship "Who owes me".
type DebtInput struct {
	FullName     string
	Amount       string
	Relationship string
	InterestRate string
	DateAdded    string
	DueDate      string
	Notes        string
}

func (s *LedgerService) buildDebt(in DebtInput, defaultDateAdded string) (domain.DebtRecord, error) {
	name, err := requireText("full_name", in.FullName)
	if err != nil {
		return domain.DebtRecord{}, err
	}
	amount, err := parseNonNegative("amount", in.Amount, nil)
	if err != nil {
		return domain.DebtRecord{}, err
	}
	rel, err := parseRelationshipField("relationship", in.Relationship, domain.OwedToUser)
	if err != nil {
		return domain.DebtRecord{}, err
	}
	zero := decimal.Zero
	rate, err := parseNonNegative("interest_rate", in.InterestRate, &zero)
	if err != nil {
		return domain.DebtRecord{}, err
	}
	added, err := parseDateField("date_added", in.DateAdded, defaultDateAdded)
	if err != nil {
		return domain.DebtRecord{}, err
	}

	due := strings.TrimSpace(in.DueDate)
	if due == domain.NoDueDate {
		due = ""
	}
	if due, err = parseDateField("due_date", due, ""); err != nil {
		return domain.DebtRecord{}, err
	}

	return domain.DebtRecord{
		FullName:     name,
		Amount:       amount,
		Relationship: rel,
		InterestRate: rate,
		DateAdded:    added,
		DueDate:      due,
		Notes:        strings.TrimSpace(in.Notes),
		Status:       domain.StatusActive,
	}, nil
}

// AddDebt validates in and appends a new active debt with a fresh id.
func (s *LedgerService) AddDebt(ctx context.Context, user string, in DebtInput) (domain.DebtRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, err := s.buildDebt(in, s.today())
	if err != nil {
		return domain.DebtRecord{}, err
	}
	d.ID = s.newID()
	d.User = user

	if err := s.store.AppendDebt(ctx, d); err != nil {
		return domain.DebtRecord{}, fmt.Errorf("append debt: %w", err)
	}

	s.logger.Info("debt added", "user", user, "debt_id", d.ID, "full_name", d.FullName, "relationship", d.Relationship)
	return d, nil
}

// EditDebt replaces every editable field of one of the user's debts, keeping its id and
// lifecycle status. An empty date_added keeps the stored one.
func (s *LedgerService) EditDebt(ctx context.Context, user, debtID string, in DebtInput) (domain.DebtRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.store.LoadAllDebts(ctx)
	if err != nil {
		return domain.DebtRecord{}, fmt.Errorf("load debts: %w", err)
	}

	idx := -1
	for i, d := range all {
		if d.ID == debtID && d.User == user {
			idx = i
			break
		}
	}
	if idx < 0 {
		return domain.DebtRecord{}, ErrDebtNotFound
	}

	d, err := s.buildDebt(in, all[idx].DateAdded)
	if err != nil {
		return domain.DebtRecord{}, err
	}
	d.ID = debtID
	d.User = user
	if all[idx].Status != "" {
		d.Status = all[idx].Status
	}
	all[idx] = d

	if err := s.store.ReplaceDebts(ctx, all); err != nil {
		return domain.DebtRecord{}, fmt.Errorf("replace debts: %w", err)
	}

	s.logger.Info("debt edited", "user", user, "debt_id", debtID)
	return d, nil
}

// DeletePerson removes every debt the user holds with one person, and their payments.
func (s *LedgerService) DeletePerson(ctx context.Context, user, fullName, relationship string) (int, error) {
	name, err := requireText("full_name", fullName)
	if err != nil {
		return 0, err
	}
	rel, err := parseRelationshipField("relationship", relationship, "")
	if err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	removed, err := s.removeDebts(ctx, func(d domain.DebtRecord) bool {
		return d.User == user && d.FullName == name && d.Relationship == rel
	})
	if err != nil {
		return 0, err
	}
	if removed == 0 {
		return 0, ErrPersonNotFound
	}

	s.logger.Info("person deleted", "user", user, "full_name", name, "relationship", rel, "debts", removed)
	return removed, nil
}

// ClearUserData removes all of the user's debts and their payments. Other users are untouched.
func (s *LedgerService) ClearUserData(ctx context.Context, user string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed, err := s.removeDebts(ctx, func(d domain.DebtRecord) bool { return d.User == user })
	if err != nil {
		return 0, err
	}

	s.logger.Info("user data cleared", "user", user, "debts", removed)
	return removed, nil
}

// removeDebts rewrites debts first and payments second; a failure in between leaves
// only orphaned payments, which consolidation ignores.
func (s *LedgerService) removeDebts(ctx context.Context, match func(domain.DebtRecord) bool) (int, error) {
	all, err := s.store.LoadAllDebts(ctx)
	if err != nil {
		return 0, fmt.Errorf("load debts: %w", err)
	}

	kept := make([]domain.DebtRecord, 0, len(all))
	gone := make(map[string]struct{})
	for _, d := range all {
		if match(d) {
			gone[d.ID] = struct{}{}
			continue
		}
		kept = append(kept, d)
	}
	if len(gone) == 0 {
		return 0, nil
	}

	payments, err := s.store.LoadPayments(ctx)
	if err != nil {
		return 0, fmt.Errorf("load payments: %w", err)
	}
	keptPayments := make([]domain.PaymentRecord, 0, len(payments))
	for _, p := range payments {
		if _, ok := gone[p.DebtID]; !ok {
			keptPayments = append(keptPayments, p)
		}
	}

	if err := s.store.ReplaceDebts(ctx, kept); err != nil {
		return 0, fmt.Errorf("replace debts: %w", err)
	}
	if err := s.store.ReplacePayments(ctx, keptPayments); err != nil {
		return 0, fmt.Errorf("replace payments: %w", err)
	}
	return len(gone), nil
}
