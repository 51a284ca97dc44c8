package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the on-disk and on-wire date format of every ledger date.
const DateLayout = "2006-01-02"

// NoDueDate is the persisted sentinel for a debt without a due date.
const NoDueDate = "N/A"

// StatusActive is the only lifecycle flag written today.
const StatusActive = "active"

type Relationship string

const (
	OwedToUser Relationship = "Who owes me"
	OwedByUser Relationship = "Who I owe"
)

// ParseRelationship accepts the persisted strings and their snake_case API aliases.
func ParseRelationship(s string) (Relationship, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case strings.ToLower(string(OwedToUser)), "owed_to_user":
		return OwedToUser, nil
	case strings.ToLower(string(OwedByUser)), "owed_by_user":
		return OwedByUser, nil
	default:
		return "", fmt.Errorf("unknown relationship %q", s)
	}
}

func (r Relationship) Valid() bool {
	return r == OwedToUser || r == OwedByUser
}

type DebtRecord struct {
	ID           string
	User         string
	FullName     string
	Amount       decimal.Decimal
	Relationship Relationship
	InterestRate decimal.Decimal

	// DateAdded and DueDate are kept as YYYY-MM-DD strings. DueDate is empty when absent.
	DateAdded string
	DueDate   string

	Notes  string
	Status string
}

func (d DebtRecord) HasDueDate() bool {
	return d.DueDate != ""
}

// ParseDate parses a ledger date. The second result is false for empty or malformed input.
func ParseDate(s string) (time.Time, bool) {
	if s == "" || s == NoDueDate {
		return time.Time{}, false
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Today returns the calendar date of now as a UTC midnight, comparable with ParseDate results.
func Today(now time.Time) time.Time {
	y, m, d := now.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
