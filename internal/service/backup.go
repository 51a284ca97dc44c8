package service

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"

	"utang-ledger/internal/domain"
	"utang-ledger/internal/repository"
)

// BackupResult locates the snapshot files of one backup run.
type BackupResult struct {
	DebtsURL    string `json:"debts_url"`
	PaymentsURL string `json:"payments_url"`
	Debts       int    `json:"debts"`
	Payments    int    `json:"payments"`
}

// BackupService snapshots a user's records in the delimited ledger format.
type BackupService struct {
	store  LedgerReader
	sink   FileSink
	logger *slog.Logger
	now    func() time.Time
}

func NewBackupService(store LedgerReader, sink FileSink, logger *slog.Logger) *BackupService {
	if logger == nil {
		logger = slog.Default()
	}
	return &BackupService{
		store:  store,
		sink:   sink,
		logger: logger.With("component", "backup_service"),
		now:    time.Now,
	}
}

// Backup writes the user's debts and the payments referencing them to the file sink.
func (s *BackupService) Backup(ctx context.Context, user string) (BackupResult, error) {
	debts, err := s.store.LoadDebts(ctx, user)
	if err != nil {
		return BackupResult{}, fmt.Errorf("load debts: %w", err)
	}
	all, err := s.store.LoadPayments(ctx)
	if err != nil {
		return BackupResult{}, fmt.Errorf("load payments: %w", err)
	}

	owned := make(map[string]struct{}, len(debts))
	for _, d := range debts {
		owned[d.ID] = struct{}{}
	}
	var payments []domain.PaymentRecord
	for _, p := range all {
		if _, ok := owned[p.DebtID]; ok {
			payments = append(payments, p)
		}
	}

	var debtsBuf, paymentsBuf bytes.Buffer
	if err := repository.EncodeDebts(&debtsBuf, debts); err != nil {
		return BackupResult{}, fmt.Errorf("encode debts: %w", err)
	}
	if err := repository.EncodePayments(&paymentsBuf, payments); err != nil {
		return BackupResult{}, fmt.Errorf("encode payments: %w", err)
	}

	stamp := s.now().Format("20060102_150405")
	debtsURL, err := s.sink.Put(ctx, fmt.Sprintf("debt_data_%s.csv", stamp), "text/csv", debtsBuf.Bytes())
	if err != nil {
		return BackupResult{}, fmt.Errorf("store debts backup: %w", err)
	}
	paymentsURL, err := s.sink.Put(ctx, fmt.Sprintf("payments_%s.csv", stamp), "text/csv", paymentsBuf.Bytes())
	if err != nil {
		return BackupResult{}, fmt.Errorf("store payments backup: %w", err)
	}

	s.logger.Info("backup written", "user", user, "debts", len(debts), "payments", len(payments))
	return BackupResult{
		DebtsURL:    debtsURL,
		PaymentsURL: paymentsURL,
		Debts:       len(debts),
		Payments:    len(payments),
	}, nil
}
