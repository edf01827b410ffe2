package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const defaultTxTimeout = 5 * time.Second

// DBTX is satisfied by both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repositories groups the identity repositories bound to one transaction.
type Repositories struct {
	Users       UserRepository
	Contractors ContractorRepository
	Staging     StagingRepository
}

// Store runs units of work atomically. fn's writes commit together when it
// returns nil and are rolled back otherwise.
type Store interface {
	RunInTx(ctx context.Context, fn func(repos Repositories) error) error
}

type pgStore struct {
	pool    *pgxpool.Pool
	timeout time.Duration
}

// NewStore returns a Postgres-backed Store.
func NewStore(pool *pgxpool.Pool) Store {
	return &pgStore{pool: pool, timeout: defaultTxTimeout}
}

// NewRepositories binds repositories to db, which may be a pool or a transaction.
func NewRepositories(db DBTX) Repositories {
	return Repositories{
		Users:       NewUserRepository(db),
		Contractors: NewContractorRepository(db),
		Staging:     NewStagingRepository(db),
	}
}

func (s *pgStore) RunInTx(ctx context.Context, fn func(repos Repositories) error) error {
	if s.pool == nil {
		return errors.New("postgres pool not configured")
	}
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if err := fn(NewRepositories(tx)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", translate(err))
	}
	return nil
}
