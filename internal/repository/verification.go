package repository

import (
	"context"
	"time"
)

// VerificationTokenStore holds single-use email verification tokens.
// Consume returns ErrNotFound for unknown, expired or already used tokens.
type VerificationTokenStore interface {
	Save(ctx context.Context, token, userID string, ttl time.Duration) error
	Consume(ctx context.Context, token string) (string, error)
}
