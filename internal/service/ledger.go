package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"utang-ledger/internal/domain"
	"utang-ledger/internal/ledger"
)

// LedgerStore persists debt and payment records. Reads return records in store order.
type LedgerStore interface {
	LoadDebts(ctx context.Context, user string) ([]domain.DebtRecord, error)
	LoadAllDebts(ctx context.Context) ([]domain.DebtRecord, error)
	LoadPayments(ctx context.Context) ([]domain.PaymentRecord, error)
	AppendDebt(ctx context.Context, d domain.DebtRecord) error
	// AppendPayments persists every record or none of them.
	AppendPayments(ctx context.Context, payments []domain.PaymentRecord) error
	ReplaceDebts(ctx context.Context, debts []domain.DebtRecord) error
	ReplacePayments(ctx context.Context, payments []domain.PaymentRecord) error
}

type LedgerNotifier interface {
	NotifyPaymentRecorded(ctx context.Context, user string, payload map[string]any) error
}

// LedgerService validates input and runs each read-then-write operation under one lock.
type LedgerService struct {
	store    LedgerStore
	engine   *ledger.Engine
	notifier LedgerNotifier
	logger   *slog.Logger
	newID    func() string

	mu sync.Mutex
}

func NewLedgerService(store LedgerStore, engine *ledger.Engine, notifier LedgerNotifier, logger *slog.Logger) *LedgerService {
	if logger == nil {
		logger = slog.Default()
	}
	return &LedgerService{
		store:    store,
		engine:   engine,
		notifier: notifier,
		logger:   logger.With("component", "ledger_service"),
		newID:    uuid.NewString,
	}
}

// AnalyticsReport is the dashboard view of one user's ledger.
type AnalyticsReport struct {
	Summary  ledger.Summary
	Payments ledger.PaymentSeries
}

// Ledger returns the user's consolidated split within w, narrowed by f.
func (s *LedgerService) Ledger(ctx context.Context, user string, w ledger.Window, f ledger.PersonFilter) (ledger.Split, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	debts, payments, err := s.load(ctx, user)
	if err != nil {
		return ledger.Split{}, err
	}
	return ledger.FilterPeople(s.engine.Consolidate(debts, payments, w), f), nil
}

func (s *LedgerService) Analytics(ctx context.Context, user string, w ledger.Window) (AnalyticsReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	debts, payments, err := s.load(ctx, user)
	if err != nil {
		return AnalyticsReport{}, err
	}

	return AnalyticsReport{
		Summary:  ledger.Summarize(s.engine.Consolidate(debts, payments, w)),
		Payments: ledger.MonthlyPayments(debts, payments, w),
	}, nil
}

// DebtPayments lists the payment records of one of the user's debts in store order.
func (s *LedgerService) DebtPayments(ctx context.Context, user, debtID string) ([]domain.PaymentRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	debts, payments, err := s.load(ctx, user)
	if err != nil {
		return nil, err
	}

	found := false
	for _, d := range debts {
		if d.ID == debtID {
			found = true
			break
		}
	}
	if !found {
		return nil, ErrDebtNotFound
	}

	out := []domain.PaymentRecord{}
	for _, p := range payments {
		if p.DebtID == debtID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *LedgerService) load(ctx context.Context, user string) ([]domain.DebtRecord, []domain.PaymentRecord, error) {
	debts, err := s.store.LoadDebts(ctx, user)
	if err != nil {
		return nil, nil, fmt.Errorf("load debts: %w", err)
	}
	payments, err := s.store.LoadPayments(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("load payments: %w", err)
	}
	return debts, payments, nil
}

func (s *LedgerService) today() string {
	return s.engine.Clock()().Format(domain.DateLayout)
}
