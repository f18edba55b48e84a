package models

import "time"

// Case statuses that exclude a case from policy-number threading. A ticket
// match ignores status entirely.
const (
	CaseStatusClosedRenewed   = "cerrado_renovado"
	CaseStatusClosedCancelled = "cerrado_cancelado"
)

// CaseRecord is a read-only view of a case owned by the case-tracking system.
// The sync pipeline only ever reads these rows.
type CaseRecord struct {
	ID           string     `json:"id"`
	Ticket       string     `json:"ticket"`
	CaseType     string     `json:"case_type"`
	PolicyNumber *string    `json:"policy_number"`
	Status       string     `json:"status"`
	UpdatedAt    *time.Time `json:"updated_at"`
}

// ActivityEntry is one append-only audit row.
type ActivityEntry struct {
	ActionType string         `json:"action_type"`
	EntityType string         `json:"entity_type"`
	EntityID   *string        `json:"entity_id"`
	Metadata   map[string]any `json:"metadata"`
	CreatedAt  time.Time      `json:"created_at"`
}
