package repository

import (
	"context"
	"database/sql"
	"fmt"
)

// Amounts are NUMERIC on postgres and TEXT on sqlite: sqlite's NUMERIC affinity
// would coerce fractional values to REAL.
var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS debts (
		seq           BIGSERIAL PRIMARY KEY,
		debt_id       TEXT NOT NULL UNIQUE,
		user_name     TEXT NOT NULL,
		full_name     TEXT NOT NULL,
		amount        NUMERIC NOT NULL,
		relationship  TEXT NOT NULL,
		interest_rate NUMERIC NOT NULL DEFAULT 0,
		date_added    TEXT NOT NULL,
		due_date      TEXT,
		notes         TEXT NOT NULL DEFAULT '',
		status        TEXT NOT NULL DEFAULT 'active'
	)`,
	`CREATE INDEX IF NOT EXISTS idx_debts_user_name ON debts(user_name)`,
	`CREATE TABLE IF NOT EXISTS payments (
		seq            BIGSERIAL PRIMARY KEY,
		debt_id        TEXT NOT NULL,
		payment_amount NUMERIC NOT NULL,
		payment_date   TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_payments_debt_id ON payments(debt_id)`,
	`CREATE TABLE IF NOT EXISTS access_tokens (
		id         BIGSERIAL PRIMARY KEY,
		token_hash TEXT NOT NULL UNIQUE,
		user_name  TEXT NOT NULL,
		expires_at BIGINT
	)`,
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS debts (
		seq           INTEGER PRIMARY KEY AUTOINCREMENT,
		debt_id       TEXT NOT NULL UNIQUE,
		user_name     TEXT NOT NULL,
		full_name     TEXT NOT NULL,
		amount        TEXT NOT NULL,
		relationship  TEXT NOT NULL,
		interest_rate TEXT NOT NULL DEFAULT '0',
		date_added    TEXT NOT NULL,
		due_date      TEXT,
		notes         TEXT NOT NULL DEFAULT '',
		status        TEXT NOT NULL DEFAULT 'active'
	)`,
	`CREATE INDEX IF NOT EXISTS idx_debts_user_name ON debts(user_name)`,
	`CREATE TABLE IF NOT EXISTS payments (
		seq            INTEGER PRIMARY KEY AUTOINCREMENT,
		debt_id        TEXT NOT NULL,
		payment_amount TEXT NOT NULL,
		payment_date   TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_payments_debt_id ON payments(debt_id)`,
	`CREATE TABLE IF NOT EXISTS access_tokens (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		token_hash TEXT NOT NULL UNIQUE,
		user_name  TEXT NOT NULL,
		expires_at INTEGER
	)`,
}

// Migrate creates the ledger tables when they do not exist yet.
func Migrate(ctx context.Context, db *sql.DB, d Dialect) error {
	for _, stmt := range d.schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate %s: %w", d.Name, err)
		}
	}
	return nil
}
