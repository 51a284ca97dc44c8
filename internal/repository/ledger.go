package repository

import (
	"context"
	"database/sql"
	"fmt"

	"utang-ledger/internal/domain"
)

// SQLLedger stores debts and payments in a relational database.
// Row order follows insertion, so it matches the encounter order of the flat-file store.
type SQLLedger struct {
	db       *sql.DB
	debts    *DebtRepository
	payments *PaymentRepository
}

func NewSQLLedger(db *sql.DB, dialect Dialect) *SQLLedger {
	return &SQLLedger{
		db:       db,
		debts:    NewDebtRepository(db, dialect),
		payments: NewPaymentRepository(db, dialect),
	}
}

func (l *SQLLedger) LoadDebts(ctx context.Context, user string) ([]domain.DebtRecord, error) {
	return l.debts.List(ctx, DebtsFilter{User: &user})
}

func (l *SQLLedger) LoadAllDebts(ctx context.Context) ([]domain.DebtRecord, error) {
	return l.debts.List(ctx, DebtsFilter{})
}

func (l *SQLLedger) LoadPayments(ctx context.Context) ([]domain.PaymentRecord, error) {
	return l.payments.List(ctx, PaymentsFilter{})
}

func (l *SQLLedger) AppendDebt(ctx context.Context, d domain.DebtRecord) error {
	return l.debts.insert(ctx, l.db, d)
}

// AppendPayments inserts all records or none.
func (l *SQLLedger) AppendPayments(ctx context.Context, payments []domain.PaymentRecord) error {
	return l.inTx(ctx, func(tx *sql.Tx) error {
		for _, p := range payments {
			if err := l.payments.insert(ctx, tx, p); err != nil {
				return err
			}
		}
		return nil
	})
}

func (l *SQLLedger) ReplaceDebts(ctx context.Context, debts []domain.DebtRecord) error {
	return l.inTx(ctx, func(tx *sql.Tx) error {
		if err := l.debts.deleteAll(ctx, tx); err != nil {
			return err
		}
		for _, d := range debts {
			if err := l.debts.insert(ctx, tx, d); err != nil {
				return err
			}
		}
		return nil
	})
}

func (l *SQLLedger) ReplacePayments(ctx context.Context, payments []domain.PaymentRecord) error {
	return l.inTx(ctx, func(tx *sql.Tx) error {
		if err := l.payments.deleteAll(ctx, tx); err != nil {
			return err
		}
		for _, p := range payments {
			if err := l.payments.insert(ctx, tx, p); err != nil {
				return err
			}
		}
		return nil
	})
}

func (l *SQLLedger) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
