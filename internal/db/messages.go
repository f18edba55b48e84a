package db

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/asegura/renomail/internal/models"
)

// CaseMessageStore persists ingested messages. Rows are created exactly once
// per distinct message id and never updated or deleted by the sync pipeline.
type CaseMessageStore struct {
	pool *pgxpool.Pool
}

// NewCaseMessageStore creates a message store backed by the given pool.
func NewCaseMessageStore(pool *pgxpool.Pool) *CaseMessageStore {
	return &CaseMessageStore{pool: pool}
}

// Exists reports whether a message with this message id was already ingested.
func (s *CaseMessageStore) Exists(ctx context.Context, messageID string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM case_messages WHERE message_id = $1)
	`, messageID).Scan(&exists)

	if err != nil {
		return false, fmt.Errorf("failed to check message existence: %w", err)
	}

	return exists, nil
}

// Insert writes one ingested message. The table's UNIQUE(message_id) backs
// the application-level dedup check.
func (s *CaseMessageStore) Insert(ctx context.Context, msg *models.CaseMessage) error {
	metadata, err := json.Marshal(msg.Metadata)
	if err != nil {
		return fmt.Errorf("failed to encode message metadata: %w", err)
	}

	err = s.pool.QueryRow(ctx, `
		INSERT INTO case_messages (
			case_id,
			unclassified,
			direction,
			provider,
			message_id,
			in_reply_to,
			references_header,
			from_email,
			to_emails,
			subject,
			body_text,
			body_html,
			received_at,
			metadata
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id, created_at
	`,
		msg.CaseID,
		msg.Unclassified,
		msg.Direction,
		msg.Provider,
		msg.MessageID,
		msg.InReplyTo,
		msg.References,
		msg.FromEmail,
		msg.ToEmails,
		msg.Subject,
		msg.BodyText,
		msg.BodyHTML,
		msg.ReceivedAt,
		metadata,
	).Scan(&msg.ID, &msg.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to insert message %s: %w", msg.MessageID, err)
	}

	return nil
}
