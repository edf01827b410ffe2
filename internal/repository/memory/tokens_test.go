package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/contractor-portal/internal/repository"
)

func TestTokensAreSingleUse(t *testing.T) {
	ctx := context.Background()
	tokens := NewTokens()
	require.NoError(t, tokens.Save(ctx, "tok", "user-1", time.Hour))

	latest, ok := tokens.Latest("user-1")
	require.True(t, ok)
	assert.Equal(t, "tok", latest)

	userID, err := tokens.Consume(ctx, "tok")
	require.NoError(t, err)
	assert.Equal(t, "user-1", userID)

	_, err = tokens.Consume(ctx, "tok")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestTokensExpire(t *testing.T) {
	ctx := context.Background()
	tokens := NewTokens()
	now := time.Now()
	tokens.now = func() time.Time { return now }
	require.NoError(t, tokens.Save(ctx, "tok", "user-1", time.Minute))

	now = now.Add(2 * time.Minute)
	_, err := tokens.Consume(ctx, "tok")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}
