package db

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/asegura/renomail/internal/models"
)

// ActivityLog appends audit rows. Entries are never mutated.
type ActivityLog struct {
	pool *pgxpool.Pool
}

// NewActivityLog creates an activity log backed by the given pool.
func NewActivityLog(pool *pgxpool.Pool) *ActivityLog {
	return &ActivityLog{pool: pool}
}

// Append writes one activity entry.
func (l *ActivityLog) Append(ctx context.Context, entry *models.ActivityEntry) error {
	metadata, err := json.Marshal(entry.Metadata)
	if err != nil {
		return fmt.Errorf("failed to encode activity metadata: %w", err)
	}

	_, err = l.pool.Exec(ctx, `
		INSERT INTO activity_log (action_type, entity_type, entity_id, metadata)
		VALUES ($1, $2, $3, $4)
	`, entry.ActionType, entry.EntityType, entry.EntityID, metadata)

	if err != nil {
		return fmt.Errorf("failed to append activity entry: %w", err)
	}

	return nil
}
