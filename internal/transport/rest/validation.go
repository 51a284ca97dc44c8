package rest

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"utang-ledger/internal/domain"
	"utang-ledger/internal/ledger"
	"utang-ledger/internal/service"
)

type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

type rawDebtRequest struct {
	FullName     interface{} `json:"full_name"`
	Amount       interface{} `json:"amount"`
	Relationship interface{} `json:"relationship"`
	InterestRate interface{} `json:"interest_rate"`
	DateAdded    interface{} `json:"date_added"`
	DueDate      interface{} `json:"due_date"`
	Notes        interface{} `json:"notes"`
}

// ValidateDebtRequest decodes a debt body. Numeric fields may be sent as JSON numbers
// or strings; the service validates their content.
func ValidateDebtRequest(r *http.Request) (service.DebtInput, error) {
	var raw rawDebtRequest
	if err := decodeBody(r, &raw); err != nil {
		return service.DebtInput{}, err
	}

	var in service.DebtInput
	fields := []struct {
		name string
		v    interface{}
		dst  *string
	}{
		{"full_name", raw.FullName, &in.FullName},
		{"amount", raw.Amount, &in.Amount},
		{"relationship", raw.Relationship, &in.Relationship},
		{"interest_rate", raw.InterestRate, &in.InterestRate},
		{"date_added", raw.DateAdded, &in.DateAdded},
		{"due_date", raw.DueDate, &in.DueDate},
		{"notes", raw.Notes, &in.Notes},
	}
	for _, f := range fields {
		s, err := toString(f.v)
		if err != nil {
			return service.DebtInput{}, &ValidationError{Field: f.name, Message: f.name + " must be a string or number"}
		}
		*f.dst = s
	}
	return in, nil
}

type rawPaymentRequest struct {
	FullName     interface{} `json:"full_name"`
	Relationship interface{} `json:"relationship"`
	Amount       interface{} `json:"amount"`
	Date         interface{} `json:"date"`
}

func ValidatePaymentRequest(r *http.Request) (service.PaymentInput, error) {
	var raw rawPaymentRequest
	if err := decodeBody(r, &raw); err != nil {
		return service.PaymentInput{}, err
	}

	fullName, err := toString(raw.FullName)
	if err != nil {
		return service.PaymentInput{}, &ValidationError{Field: "full_name", Message: "full_name must be a string"}
	}
	relationship, err := toString(raw.Relationship)
	if err != nil {
		return service.PaymentInput{}, &ValidationError{Field: "relationship", Message: "relationship must be a string"}
	}
	amount, err := toString(raw.Amount)
	if err != nil {
		return service.PaymentInput{}, &ValidationError{Field: "amount", Message: "amount must be a string or number"}
	}
	date, err := toString(raw.Date)
	if err != nil {
		return service.PaymentInput{}, &ValidationError{Field: "date", Message: "date must be YYYY-MM-DD or empty"}
	}

	return service.PaymentInput{
		FullName:     fullName,
		Relationship: relationship,
		Amount:       amount,
		Date:         date,
	}, nil
}

type rawExportRequest struct {
	From interface{} `json:"from"`
	To   interface{} `json:"to"`
}

// ValidateExportRequest reads the optional report window of an export body.
func ValidateExportRequest(r *http.Request) (ledger.Window, map[string]string, error) {
	var raw rawExportRequest
	if err := decodeBody(r, &raw); err != nil {
		return ledger.Window{}, nil, err
	}
	from, err := toString(raw.From)
	if err != nil {
		return ledger.Window{}, nil, &ValidationError{Field: "from", Message: "from must be YYYY-MM-DD or empty"}
	}
	to, err := toString(raw.To)
	if err != nil {
		return ledger.Window{}, nil, &ValidationError{Field: "to", Message: "to must be YYYY-MM-DD or empty"}
	}
	w, err := parseWindow(from, to)
	if err != nil {
		return ledger.Window{}, nil, err
	}

	filters := map[string]string{}
	if from != "" {
		filters["from"] = from
	}
	if to != "" {
		filters["to"] = to
	}
	return w, filters, nil
}

// WindowFromQuery reads the from/to query parameters.
func WindowFromQuery(r *http.Request) (ledger.Window, error) {
	q := r.URL.Query()
	return parseWindow(strings.TrimSpace(q.Get("from")), strings.TrimSpace(q.Get("to")))
}

func parseWindow(from, to string) (ledger.Window, error) {
	if from != "" {
		if _, ok := domain.ParseDate(from); !ok {
			return ledger.Window{}, &ValidationError{Field: "from", Message: "from must be YYYY-MM-DD or empty"}
		}
	}
	if to != "" {
		if _, ok := domain.ParseDate(to); !ok {
			return ledger.Window{}, &ValidationError{Field: "to", Message: "to must be YYYY-MM-DD or empty"}
		}
	}
	if from != "" && to != "" && from > to {
		return ledger.Window{}, &ValidationError{Field: "from", Message: "from must not be after to"}
	}
	return ledger.NewWindow(from, to)
}

// FilterFromQuery reads the dashboard filters: name, relationship, status,
// min_remaining and max_remaining.
func FilterFromQuery(r *http.Request) (ledger.PersonFilter, error) {
	q := r.URL.Query()
	f := ledger.PersonFilter{Name: strings.TrimSpace(q.Get("name"))}

	if v := q.Get("relationship"); v != "" {
		rel, err := domain.ParseRelationship(v)
		if err != nil {
			return f, &ValidationError{Field: "relationship", Message: "relationship must be \"Who owes me\" or \"Who I owe\""}
		}
		f.Relationship = rel
	}
	if v := q.Get("status"); v != "" {
		st, ok := domain.ParseStatus(v)
		if !ok {
			return f, &ValidationError{Field: "status", Message: "status must be Paid, Pending or Overdue"}
		}
		f.Status = st
	}

	var err error
	if f.MinRemaining, err = decimalParam(q.Get("min_remaining"), "min_remaining"); err != nil {
		return f, err
	}
	if f.MaxRemaining, err = decimalParam(q.Get("max_remaining"), "max_remaining"); err != nil {
		return f, err
	}
	return f, nil
}

func decimalParam(v, field string) (*decimal.Decimal, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return nil, &ValidationError{Field: field, Message: field + " must be a number"}
	}
	return &d, nil
}

func decodeBody(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(r.Body)
	// keep numbers exact for decimal parsing
	dec.UseNumber()
	if err := dec.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return &ValidationError{Message: "invalid JSON"}
	}
	return nil
}

func toString(v interface{}) (string, error) {
	switch t := v.(type) {
	case nil:
		return "", nil
	case string:
		return t, nil
	case json.Number:
		return t.String(), nil
	default:
		return "", &ValidationError{Message: "invalid type for string field"}
	}
}
