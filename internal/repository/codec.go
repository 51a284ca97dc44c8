package repository

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	"github.com/shopspring/decimal"

	"utang-ledger/internal/domain"
)

var (
	DebtColumns    = []string{"user", "full_name", "amount", "relationship", "interest_rate", "date_added", "due_date", "notes", "status", "debt_id"}
	PaymentColumns = []string{"debt_id", "payment_amount", "payment_date"}
)

// EncodeDebts writes debts in the delimited ledger format, header row first.
func EncodeDebts(w io.Writer, debts []domain.DebtRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(DebtColumns); err != nil {
		return fmt.Errorf("failed to write debts header: %w", err)
	}
	for _, d := range debts {
		if err := cw.Write(debtRow(d)); err != nil {
			return fmt.Errorf("failed to write debt %s: %w", d.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// EncodePayments writes payments in the delimited ledger format, header row first.
func EncodePayments(w io.Writer, payments []domain.PaymentRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(PaymentColumns); err != nil {
		return fmt.Errorf("failed to write payments header: %w", err)
	}
	for _, p := range payments {
		if err := cw.Write(paymentRow(p)); err != nil {
			return fmt.Errorf("failed to write payment for %s: %w", p.DebtID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func debtRow(d domain.DebtRecord) []string {
	due := d.DueDate
	if due == "" {
		due = domain.NoDueDate
	}
	return []string{
		d.User,
		d.FullName,
		d.Amount.String(),
		string(d.Relationship),
		d.InterestRate.String(),
		d.DateAdded,
		due,
		d.Notes,
		d.Status,
		d.ID,
	}
}

func paymentRow(p domain.PaymentRecord) []string {
	return []string{p.DebtID, p.Amount.String(), p.Date}
}

// DecodeDebts reads debts written by EncodeDebts. Columns are located by header name.
// Dates are kept verbatim; a malformed amount or rate fails the whole read.
func DecodeDebts(r io.Reader) ([]domain.DebtRecord, error) {
	rows, cols, err := readTable(r, DebtColumns)
	if err != nil {
		return nil, err
	}

	out := make([]domain.DebtRecord, 0, len(rows))
	for i, row := range rows {
		get := func(name string) string { return row[cols[name]] }

		amount, err := decimal.NewFromString(get("amount"))
		if err != nil {
			return nil, fmt.Errorf("debt row %d: invalid amount %q: %w", i+2, get("amount"), err)
		}
		rate, err := parseRate(get("interest_rate"))
		if err != nil {
			return nil, fmt.Errorf("debt row %d: invalid interest_rate %q: %w", i+2, get("interest_rate"), err)
		}
		due := get("due_date")
		if due == domain.NoDueDate {
			due = ""
		}

		out = append(out, domain.DebtRecord{
			ID:           get("debt_id"),
			User:         get("user"),
			FullName:     get("full_name"),
			Amount:       amount,
			Relationship: domain.Relationship(get("relationship")),
			InterestRate: rate,
			DateAdded:    get("date_added"),
			DueDate:      due,
			Notes:        get("notes"),
			Status:       get("status"),
		})
	}
	return out, nil
}

// DecodePayments reads payments written by EncodePayments.
func DecodePayments(r io.Reader) ([]domain.PaymentRecord, error) {
	rows, cols, err := readTable(r, PaymentColumns)
	if err != nil {
		return nil, err
	}

	out := make([]domain.PaymentRecord, 0, len(rows))
	for i, row := range rows {
		amount, err := decimal.NewFromString(row[cols["payment_amount"]])
		if err != nil {
			return nil, fmt.Errorf("payment row %d: invalid payment_amount %q: %w", i+2, row[cols["payment_amount"]], err)
		}
		out = append(out, domain.PaymentRecord{
			DebtID: row[cols["debt_id"]],
			Amount: amount,
			Date:   row[cols["payment_date"]],
		})
	}
	return out, nil
}

// parseRate treats an empty rate as zero, matching quick-add rows.
func parseRate(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}

func readTable(r io.Reader, required []string) ([][]string, map[string]int, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read header: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[name] = i
	}
	for _, name := range required {
		if _, ok := cols[name]; !ok {
			return nil, nil, fmt.Errorf("missing column %q", name)
		}
	}

	var rows [][]string
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("failed to read row: %w", err)
		}
		if len(row) < len(header) {
			padded := make([]string, len(header))
			copy(padded, row)
			row = padded
		}
		rows = append(rows, row)
	}
	return rows, cols, nil
}
