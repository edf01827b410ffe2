package memory

import (
	"context"
	"sync"
	"time"

	"github.com/spec-kit/contractor-portal/internal/repository"
)

type tokenEntry struct {
	userID    string
	expiresAt time.Time
}

// Tokens is an in-process repository.VerificationTokenStore.
type Tokens struct {
	mu      sync.Mutex
	entries map[string]tokenEntry
	now     func() time.Time
	err     error
}

// NewTokens creates an empty token store.
func NewTokens() *Tokens {
	return &Tokens{entries: map[string]tokenEntry{}, now: time.Now}
}

// Fail makes every call return err until cleared with nil.
func (t *Tokens) Fail(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.err = err
}

// Latest returns a token saved for userID, if any.
func (t *Tokens) Latest(userID string) (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for token, e := range t.entries {
		if e.userID == userID {
			return token, true
		}
	}
	return "", false
}

func (t *Tokens) Save(_ context.Context, token, userID string, ttl time.Duration) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.err != nil {
		return t.err
	}
	t.entries[token] = tokenEntry{userID: userID, expiresAt: t.now().Add(ttl)}
	return nil
}

func (t *Tokens) Consume(_ context.Context, token string) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.err != nil {
		return "", t.err
	}
	e, ok := t.entries[token]
	delete(t.entries, token)
	if !ok || t.now().After(e.expiresAt) {
		return "", repository.ErrNotFound
	}
	return e.userID, nil
}
