package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/contractor-portal/internal/config"
	"github.com/spec-kit/contractor-portal/internal/repository"
)

// Redis wraps the go-redis client.
type Redis struct {
	Client *redis.Client
}

// NewRedis connects to Redis using the provided configuration.
func NewRedis(cfg config.RedisConfig, logger *zap.Logger) *Redis {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		logger.Warn("unable to reach redis", zap.Error(err))
	} else {
		logger.Info("connected to redis")
	}

	return &Redis{Client: client}
}

// Close closes the client.
func (r *Redis) Close() {
	if r != nil && r.Client != nil {
		_ = r.Client.Close()
	}
}

// Ping verifies Redis connectivity.
func (r *Redis) Ping(ctx context.Context) error {
	if r == nil || r.Client == nil {
		return errors.New("redis client not configured")
	}
	return r.Client.Ping(ctx).Err()
}

const verificationKeyPrefix = "portal:verify:"

type verificationTokens struct {
	client redis.Cmdable
}

// NewVerificationTokens stores email verification tokens as expiring keys.
func NewVerificationTokens(client redis.Cmdable) repository.VerificationTokenStore {
	return &verificationTokens{client: client}
}

func (v *verificationTokens) Save(ctx context.Context, token, userID string, ttl time.Duration) error {
	if err := v.client.Set(ctx, verificationKeyPrefix+token, userID, ttl).Err(); err != nil {
		return fmt.Errorf("store verification token: %w", err)
	}
	return nil
}

// Consume reads and deletes the token atomically so it verifies at most once.
func (v *verificationTokens) Consume(ctx context.Context, token string) (string, error) {
	userID, err := v.client.GetDel(ctx, verificationKeyPrefix+token).Result()
	if errors.Is(err, redis.Nil) {
		return "", repository.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("consume verification token: %w", err)
	}
	return userID, nil
}
