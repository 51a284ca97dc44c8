package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"utang-ledger/internal/domain"
)

// dbtx is satisfied by both *sql.DB and *sql.Tx.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

type DebtsFilter struct {
	User         *string
	FullName     *string
	Relationship *domain.Relationship
	DebtID       *string
}

type DebtRepository struct {
	db      *sql.DB
	dialect Dialect
}

func NewDebtRepository(db *sql.DB, dialect Dialect) *DebtRepository {
	return &DebtRepository{db: db, dialect: dialect}
}

func (r *DebtRepository) List(ctx context.Context, f DebtsFilter) ([]domain.DebtRecord, error) {
	return r.list(ctx, r.db, f)
}

func (r *DebtRepository) list(ctx context.Context, q dbtx, f DebtsFilter) ([]domain.DebtRecord, error) {
	baseQuery := `
		SELECT
			d.debt_id,
			d.user_name,
			d.full_name,
			d.amount,
			d.relationship,
			d.interest_rate,
			d.date_added,
			d.due_date,
			d.notes,
			d.status
		FROM debts d
	`

	where := []string{"1=1"}
	args := []any{}
	i := 1

	if f.User != nil {
		where = append(where, fmt.Sprintf("d.user_name = %s", r.dialect.bind(i)))
		args = append(args, *f.User)
		i++
	}

	if f.FullName != nil {
		where = append(where, fmt.Sprintf("d.full_name = %s", r.dialect.bind(i)))
		args = append(args, *f.FullName)
		i++
	}

	if f.Relationship != nil {
		where = append(where, fmt.Sprintf("d.relationship = %s", r.dialect.bind(i)))
		args = append(args, string(*f.Relationship))
		i++
	}

	if f.DebtID != nil {
		where = append(where, fmt.Sprintf("d.debt_id = %s", r.dialect.bind(i)))
		args = append(args, *f.DebtID)
		i++
	}

	query := baseQuery + " WHERE " + strings.Join(where, " AND ") + " ORDER BY d.seq"

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list debts: %w", err)
	}
	defer rows.Close()

	var result []domain.DebtRecord

	for rows.Next() {
		var (
			d   domain.DebtRecord
			rel string
			due sql.NullString
		)

		if err := rows.Scan(
			&d.ID,
			&d.User,
			&d.FullName,
			&d.Amount,
			&rel,
			&d.InterestRate,
			&d.DateAdded,
			&due,
			&d.Notes,
			&d.Status,
		); err != nil {
			return nil, fmt.Errorf("failed to scan debt: %w", err)
		}

		d.Relationship = domain.Relationship(rel)
		if due.Valid && due.String != domain.NoDueDate {
			d.DueDate = due.String
		}

		result = append(result, d)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (r *DebtRepository) insert(ctx context.Context, q dbtx, d domain.DebtRecord) error {
	var due any
	if d.HasDueDate() {
		due = d.DueDate
	}

	query := fmt.Sprintf(`
		INSERT INTO debts (debt_id, user_name, full_name, amount, relationship, interest_rate, date_added, due_date, notes, status)
		VALUES (%s)`, strings.Join(r.dialect.placeholders(1, 10), ", "))

	if _, err := q.ExecContext(ctx, query,
		d.ID,
		d.User,
		d.FullName,
		d.Amount,
		string(d.Relationship),
		d.InterestRate,
		d.DateAdded,
		due,
		d.Notes,
		d.Status,
	); err != nil {
		return fmt.Errorf("failed to insert debt %s: %w", d.ID, err)
	}
	return nil
}

func (r *DebtRepository) deleteAll(ctx context.Context, q dbtx) error {
	if _, err := q.ExecContext(ctx, `DELETE FROM debts`); err != nil {
		return fmt.Errorf("failed to clear debts: %w", err)
	}
	return nil
}
