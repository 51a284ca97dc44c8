package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"utang-ledger/internal/domain"
)

type PaymentsFilter struct {
	DebtID *string
	User   *string
}

type PaymentRepository struct {
	db      *sql.DB
	dialect Dialect
}

func NewPaymentRepository(db *sql.DB, dialect Dialect) *PaymentRepository {
	return &PaymentRepository{db: db, dialect: dialect}
}

func (r *PaymentRepository) List(ctx context.Context, f PaymentsFilter) ([]domain.PaymentRecord, error) {
	base := `SELECT p.debt_id, p.payment_amount, p.payment_date FROM payments p`

	where := []string{"1=1"}
	args := []any{}
	i := 1

	if f.DebtID != nil {
		where = append(where, fmt.Sprintf("p.debt_id = %s", r.dialect.bind(i)))
		args = append(args, *f.DebtID)
		i++
	}

	if f.User != nil {
		// payments carry no owner; resolve it through the debt they reference
		where = append(where, fmt.Sprintf(
			"EXISTS (SELECT 1 FROM debts d WHERE d.debt_id = p.debt_id AND d.user_name = %s)", r.dialect.bind(i)))
		args = append(args, *f.User)
		i++
	}

	query := base + " WHERE " + strings.Join(where, " AND ") + " ORDER BY p.seq"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	defer rows.Close()

	var out []domain.PaymentRecord
	for rows.Next() {
		var p domain.PaymentRecord
		if err := rows.Scan(&p.DebtID, &p.Amount, &p.Date); err != nil {
			return nil, fmt.Errorf("failed to scan payment: %w", err)
		}
		out = append(out, p)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *PaymentRepository) insert(ctx context.Context, q dbtx, p domain.PaymentRecord) error {
	query := fmt.Sprintf(
		`INSERT INTO payments (debt_id, payment_amount, payment_date) VALUES (%s)`,
		strings.Join(r.dialect.placeholders(1, 3), ", "),
	)
	if _, err := q.ExecContext(ctx, query, p.DebtID, p.Amount, p.Date); err != nil {
		return fmt.Errorf("failed to insert payment for %s: %w", p.DebtID, err)
	}
	return nil
}

func (r *PaymentRepository) deleteAll(ctx context.Context, q dbtx) error {
	if _, err := q.ExecContext(ctx, `DELETE FROM payments`); err != nil {
		return fmt.Errorf("failed to clear payments: %w", err)
	}
	return nil
}
