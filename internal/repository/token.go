package repository

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"utang-ledger/internal/domain"
)

var ErrTokenNotFound = errors.New("token not found")

type TokenRepository struct {
	db      *sql.DB
	dialect Dialect
	now     func() time.Time
}

func NewTokenRepository(db *sql.DB, dialect Dialect) *TokenRepository {
	return &TokenRepository{db: db, dialect: dialect, now: time.Now}
}

// HashToken returns the hex sha256 of a plain bearer token, the form kept in access_tokens.
func HashToken(plain string) string {
	sum := sha256.Sum256([]byte(plain))
	return fmt.Sprintf("%x", sum)
}

// FindByPlainToken resolves a bearer token to its unexpired access token row.
func (r *TokenRepository) FindByPlainToken(ctx context.Context, plainToken string) (*domain.AccessToken, error) {
	plainToken = strings.TrimSpace(plainToken)
	if plainToken == "" {
		return nil, ErrTokenNotFound
	}

	query := fmt.Sprintf(`
		SELECT id, token_hash, user_name, expires_at
		FROM access_tokens
		WHERE token_hash = %s
		  AND (expires_at IS NULL OR expires_at > %s)
	`, r.dialect.bind(1), r.dialect.bind(2))

	var (
		tok       domain.AccessToken
		expiresAt sql.NullInt64
	)
	err := r.db.QueryRowContext(ctx, query, HashToken(plainToken), r.now().Unix()).Scan(
		&tok.ID,
		&tok.TokenHash,
		&tok.User,
		&expiresAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTokenNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up token: %w", err)
	}

	if expiresAt.Valid {
		t := time.Unix(expiresAt.Int64, 0).UTC()
		tok.ExpiresAt = &t
	}
	return &tok, nil
}

// ResolveUser implements the auth token resolver on top of FindByPlainToken.
func (r *TokenRepository) ResolveUser(ctx context.Context, plainToken string) (string, error) {
	tok, err := r.FindByPlainToken(ctx, plainToken)
	if err != nil {
		return "", err
	}
	return tok.User, nil
}

// Register stores a token for user unless its hash is already present. A nil expiry never expires.
func (r *TokenRepository) Register(ctx context.Context, plainToken, user string, expiresAt *time.Time) error {
	var exp any
	if expiresAt != nil {
		exp = expiresAt.Unix()
	}

	hash := HashToken(strings.TrimSpace(plainToken))
	query := fmt.Sprintf(`
		INSERT INTO access_tokens (token_hash, user_name, expires_at)
		VALUES (%s)
		ON CONFLICT (token_hash) DO NOTHING
	`, strings.Join(r.dialect.placeholders(1, 3), ", "))

	if _, err := r.db.ExecContext(ctx, query, hash, user, exp); err != nil {
		return fmt.Errorf("failed to register token for %s: %w", user, err)
	}
	return nil
}
