package repository

import (
	"fmt"
	"strconv"
)

// Dialect captures the differences between the SQL backends sharing SQLLedger.
type Dialect struct {
	Name   string
	schema []string
	bind   func(i int) string
}

var (
	Postgres = Dialect{
		Name:   "postgres",
		schema: postgresSchema,
		bind:   func(i int) string { return "$" + strconv.Itoa(i) },
	}
	SQLite = Dialect{
		Name:   "sqlite",
		schema: sqliteSchema,
		bind:   func(int) string { return "?" },
	}
)

// DialectByName maps a configured backend name to its dialect.
func DialectByName(name string) (Dialect, error) {
	switch name {
	case Postgres.Name:
		return Postgres, nil
	case SQLite.Name:
		return SQLite, nil
	default:
		return Dialect{}, fmt.Errorf("unsupported sql dialect %q", name)
	}
}

// placeholders returns n consecutive bind markers starting at position from.
func (d Dialect) placeholders(from, n int) []string {
	out := make([]string, n)
	for k := range out {
		out[k] = d.bind(from + k)
	}
	return out
}
