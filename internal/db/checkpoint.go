package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/asegura/renomail/internal/models"
)

// CheckpointStore persists the per-account sync cursor.
type CheckpointStore struct {
	pool *pgxpool.Pool
}

// NewCheckpointStore creates a checkpoint store backed by the given pool.
func NewCheckpointStore(pool *pgxpool.Pool) *CheckpointStore {
	return &CheckpointStore{pool: pool}
}

// Get returns the checkpoint for an account. A missing row yields the zero
// checkpoint (last UID 0, never synced) rather than an error.
func (s *CheckpointStore) Get(ctx context.Context, account string) (*models.Checkpoint, error) {
	var checkpoint models.Checkpoint
	var lastUID int64

	err := s.pool.QueryRow(ctx, `
		SELECT last_uid, last_synced_at
		FROM sync_checkpoints
		WHERE account = $1
	`, account).Scan(&lastUID, &checkpoint.LastSyncedAt)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &models.Checkpoint{}, nil
		}
		return nil, fmt.Errorf("failed to get checkpoint: %w", err)
	}

	checkpoint.LastUID = uint32(lastUID)
	return &checkpoint, nil
}

// Update advances the checkpoint and stamps the sync time. The UID never
// moves backwards: GREATEST keeps it monotonically non-decreasing even if a
// caller hands in a stale value.
func (s *CheckpointStore) Update(ctx context.Context, account string, lastUID uint32) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO sync_checkpoints (account, last_uid, last_synced_at, updated_at)
		VALUES ($1, $2, now(), now())
		ON CONFLICT (account) DO UPDATE SET
			last_uid = GREATEST(sync_checkpoints.last_uid, EXCLUDED.last_uid),
			last_synced_at = now(),
			updated_at = now()
	`, account, int64(lastUID))

	if err != nil {
		return fmt.Errorf("failed to update checkpoint: %w", err)
	}

	return nil
}
