package service

import (
	"context"
	"fmt"

	"utang-ledger/internal/domain"
	"utang-ledger/internal/ledger"
)

// PaymentInput is one payment made to or by a consolidated person. An empty date means today.
type PaymentInput struct {
	FullName     string
	Relationship string
	Amount       string
	Date         string
}

type PaymentResult struct {
	Records []domain.PaymentRecord
	// Person is the consolidated person with the new records applied.
	Person ledger.ConsolidatedPerson
}

// AddPayment splits a payment across the person's outstanding debts and persists the
// resulting records in one batch. Allocator policy violations are returned unwrapped.
func (s *LedgerService) AddPayment(ctx context.Context, user string, in PaymentInput) (PaymentResult, error) {
	name, err := requireText("full_name", in.FullName)
	if err != nil {
		return PaymentResult{}, err
	}
	rel, err := parseRelationshipField("relationship", in.Relationship, "")
	if err != nil {
		return PaymentResult{}, err
	}
	amount, err := parseDecimal("amount", in.Amount, nil)
	if err != nil {
		return PaymentResult{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	date, err := parseDateField("date", in.Date, s.today())
	if err != nil {
		return PaymentResult{}, err
	}

	debts, payments, err := s.load(ctx, user)
	if err != nil {
		return PaymentResult{}, err
	}

	person, ok := s.engine.Consolidate(debts, payments, ledger.Unbounded).Find(name, rel)
	if !ok {
		return PaymentResult{}, ErrPersonNotFound
	}

	records, err := ledger.Allocate(person, amount, date)
	if err != nil {
		return PaymentResult{}, err
	}

	if err := s.store.AppendPayments(ctx, records); err != nil {
		return PaymentResult{}, fmt.Errorf("append payments: %w", err)
	}

	updated := ledger.Apply(person, records, s.engine.Clock())
	s.logger.Info("payment recorded",
		"user", user, "full_name", name, "relationship", rel,
		"amount", amount.String(), "records", len(records))

	if s.notifier != nil {
		debtIDs := make([]string, 0, len(records))
		for _, r := range records {
			debtIDs = append(debtIDs, r.DebtID)
		}
		if err := s.notifier.NotifyPaymentRecorded(ctx, user, map[string]any{
			"full_name":       name,
			"relationship":    string(rel),
			"amount":          amount.String(),
			"date":            date,
			"debt_ids":        debtIDs,
			"total_remaining": updated.TotalRemaining.String(),
		}); err != nil {
			s.logger.Warn("payment notification failed", "user", user, "err", err)
		}
	}

	return PaymentResult{Records: records, Person: updated}, nil
}
