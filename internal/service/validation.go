package service

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"

	"utang-ledger/internal/domain"
)

var (
	ErrDebtNotFound   = errors.New("debt not found")
	ErrPersonNotFound = errors.New("person not found")
	ErrExportNotFound = errors.New("export not found")
)

// ValidationError reports a rejected input field. Nothing is persisted when it is returned.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

func requireText(field, v string) (string, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return "", invalid(field, field+" is required")
	}
	return v, nil
}

// parseDecimal accepts a plain decimal number. Empty input yields def when def is non-nil.
func parseDecimal(field, v string, def *decimal.Decimal) (decimal.Decimal, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		if def != nil {
			return *def, nil
		}
		return decimal.Zero, invalid(field, field+" is required")
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return decimal.Zero, invalid(field, field+" must be a number")
	}
	return d, nil
}

func parseNonNegative(field, v string, def *decimal.Decimal) (decimal.Decimal, error) {
	d, err := parseDecimal(field, v, def)
	if err != nil {
		return d, err
	}
	if d.IsNegative() {
		return decimal.Zero, invalid(field, field+" must not be negative")
	}
	return d, nil
}

// parseDateField validates a YYYY-MM-DD value. Empty input yields def.
func parseDateField(field, v, def string) (string, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return def, nil
	}
	if _, ok := domain.ParseDate(v); !ok {
		return "", invalid(field, field+" must be a YYYY-MM-DD date")
	}
	return v, nil
}

func parseRelationshipField(field, v string, def domain.Relationship) (domain.Relationship, error) {
	if strings.TrimSpace(v) == "" {
		if def != "" {
			return def, nil
		}
		return "", invalid(field, field+" is required")
	}
	rel, err := domain.ParseRelationship(v)
	if err != nil {
		return "", invalid(field, field+" must be one of \""+string(domain.OwedToUser)+"\", \""+string(domain.OwedByUser)+"\"")
	}
	return rel, nil
}
