package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
)

type ctxKey string

const UserKey ctxKey = "user"

var ErrUnknownToken = errors.New("unknown token")

// TokenResolver maps a plain bearer token to the ledger user it belongs to.
type TokenResolver interface {
	ResolveUser(ctx context.Context, token string) (string, error)
}

// StaticTokens resolves tokens from a fixed token -> user map.
type StaticTokens map[string]string

func (s StaticTokens) ResolveUser(_ context.Context, token string) (string, error) {
	user, ok := s[token]
	if !ok || user == "" {
		return "", ErrUnknownToken
	}
	return user, nil
}

// TokenFromRequest reads the bearer token from the Authorization header and falls back
// to the token query parameter, which browsers use for websocket connections.
func TokenFromRequest(r *http.Request) string {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		if token := strings.TrimSpace(strings.TrimPrefix(h, "Bearer ")); token != "" {
			return token
		}
	}
	return r.URL.Query().Get("token")
}

func BearerMiddleware(resolver TokenResolver, logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "auth")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := TokenFromRequest(r)
			if token == "" {
				logger.Debug("no token", "method", r.Method, "path", r.URL.Path)
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			user, err := resolver.ResolveUser(r.Context(), token)
			if err != nil {
				logger.Debug("token rejected", "path", r.URL.Path, "err", err)
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

func WithUser(ctx context.Context, user string) context.Context {
	return context.WithValue(ctx, UserKey, user)
}

func GetUser(ctx context.Context) (string, error) {
	user, ok := ctx.Value(UserKey).(string)
	if !ok || user == "" {
		return "", errors.New("user not found in context")
	}
	return user, nil
}
