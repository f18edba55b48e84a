package db

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrSyncAlreadyRunning means another invocation holds the run lock for this
// account. Overlapping cycles against one mailbox are never safe, so the
// caller should simply wait for the next scheduled run.
var ErrSyncAlreadyRunning = errors.New("a sync cycle is already running for this account")

// RunLock serializes sync cycles per mailbox account using a Postgres
// advisory lock. The lock is session-scoped, so it pins one pooled
// connection until released.
type RunLock struct {
	pool *pgxpool.Pool
}

// NewRunLock creates a run lock backed by the given pool.
func NewRunLock(pool *pgxpool.Pool) *RunLock {
	return &RunLock{pool: pool}
}

// Acquire takes the advisory lock for an account without blocking. It
// returns a release function that must be called on every exit path.
func (l *RunLock) Acquire(ctx context.Context, account string) (func(), error) {
	key := lockKey(account)

	conn, err := l.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire connection for run lock: %w", err)
	}

	var locked bool
	if err := conn.QueryRow(ctx, `SELECT pg_try_advisory_lock($1)`, key).Scan(&locked); err != nil {
		conn.Release()
		return nil, fmt.Errorf("failed to take run lock: %w", err)
	}

	if !locked {
		conn.Release()
		return nil, ErrSyncAlreadyRunning
	}

	release := func() {
		// Unlock on a background context: the run's context may already be
		// cancelled, and the lock must be dropped regardless.
		_, _ = conn.Exec(context.Background(), `SELECT pg_advisory_unlock($1)`, key)
		conn.Release()
	}

	return release, nil
}

// lockKey hashes an account name into a stable advisory-lock key.
func lockKey(account string) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte("renomail:sync:" + account))
	return int64(h.Sum64())
}
