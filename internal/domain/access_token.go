package domain

import "time"

type AccessToken struct {
	ID        int64
	TokenHash string
	User      string
	ExpiresAt *time.Time
}
