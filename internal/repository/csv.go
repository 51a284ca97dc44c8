package repository

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"utang-ledger/internal/domain"
)

const (
	DebtsFile    = "debt_data.csv"
	PaymentsFile = "payments.csv"
)

// CSVLedger keeps the ledger in two delimited files inside one directory.
type CSVLedger struct {
	mu           sync.Mutex
	debtsPath    string
	paymentsPath string
}

// NewCSVLedger opens the ledger in dir, creating the directory and header-only files when missing.
func NewCSVLedger(dir string) (*CSVLedger, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create ledger dir: %w", err)
	}

	l := &CSVLedger{
		debtsPath:    filepath.Join(dir, DebtsFile),
		paymentsPath: filepath.Join(dir, PaymentsFile),
	}

	if err := ensureFile(l.debtsPath, DebtColumns); err != nil {
		return nil, err
	}
	if err := ensureFile(l.paymentsPath, PaymentColumns); err != nil {
		return nil, err
	}
	return l, nil
}

func ensureFile(path string, header []string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("failed to stat %s: %w", path, err)
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(header); err != nil {
		return err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return writeAtomic(path, buf.Bytes())
}

func (l *CSVLedger) LoadDebts(ctx context.Context, user string) ([]domain.DebtRecord, error) {
	all, err := l.LoadAllDebts(ctx)
	if err != nil {
		return nil, err
	}

	var out []domain.DebtRecord
	for _, d := range all {
		if d.User == user {
			out = append(out, d)
		}
	}
	return out, nil
}

func (l *CSVLedger) LoadAllDebts(ctx context.Context) ([]domain.DebtRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.Open(l.debtsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open debts: %w", err)
	}
	defer f.Close()

	debts, err := DecodeDebts(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", l.debtsPath, err)
	}
	return debts, nil
}

func (l *CSVLedger) LoadPayments(ctx context.Context) ([]domain.PaymentRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.Open(l.paymentsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open payments: %w", err)
	}
	defer f.Close()

	payments, err := DecodePayments(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", l.paymentsPath, err)
	}
	return payments, nil
}

func (l *CSVLedger) AppendDebt(ctx context.Context, d domain.DebtRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	rows := [][]string{debtRow(d)}
	return l.appendRows(l.debtsPath, rows)
}

// AppendPayments writes every row with a single write call so a batch lands whole.
func (l *CSVLedger) AppendPayments(ctx context.Context, payments []domain.PaymentRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(payments) == 0 {
		return nil
	}

	rows := make([][]string, 0, len(payments))
	for _, p := range payments {
		rows = append(rows, paymentRow(p))
	}
	return l.appendRows(l.paymentsPath, rows)
}

func (l *CSVLedger) ReplaceDebts(ctx context.Context, debts []domain.DebtRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := EncodeDebts(&buf, debts); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	return writeAtomic(l.debtsPath, buf.Bytes())
}

func (l *CSVLedger) ReplacePayments(ctx context.Context, payments []domain.PaymentRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := EncodePayments(&buf, payments); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	return writeAtomic(l.paymentsPath, buf.Bytes())
}

func (l *CSVLedger) appendRows(path string, rows [][]string) error {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.WriteAll(rows); err != nil {
		return fmt.Errorf("failed to encode rows: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}

	if _, err := f.Write(buf.Bytes()); err != nil {
		f.Close()
		return fmt.Errorf("failed to append to %s: %w", path, err)
	}
	return f.Close()
}

// writeAtomic replaces path through a temp file in the same directory.
func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}
