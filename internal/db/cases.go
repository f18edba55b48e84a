package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/asegura/renomail/internal/models"
)

// CaseRepository is the read-only view of the case tracker the sync pipeline
// classifies against. It never creates, updates, or closes cases.
type CaseRepository struct {
	pool *pgxpool.Pool
}

// NewCaseRepository creates a case repository backed by the given pool.
func NewCaseRepository(pool *pgxpool.Pool) *CaseRepository {
	return &CaseRepository{pool: pool}
}

// FindByTicket looks up a case by its reference ticket and case type. Status
// is deliberately ignored: a ticket match is authoritative even for closed
// cases. A miss returns (nil, nil).
func (r *CaseRepository) FindByTicket(ctx context.Context, ticket, caseType string) (*models.CaseRecord, error) {
	record, err := r.scanCase(r.pool.QueryRow(ctx, `
		SELECT id, ticket, case_type, policy_number, status, updated_at
		FROM cases
		WHERE ticket = $1 AND case_type = $2
	`, ticket, caseType))

	if err != nil {
		return nil, fmt.Errorf("failed to find case by ticket: %w", err)
	}

	return record, nil
}

// FindOpenByPolicyNumber looks up a non-terminal case by policy number and
// case type. When several open cases share a policy number the most recently
// updated one wins, so repeated runs classify deterministically. A miss
// returns (nil, nil).
func (r *CaseRepository) FindOpenByPolicyNumber(ctx context.Context, policyNumber, caseType string) (*models.CaseRecord, error) {
	record, err := r.scanCase(r.pool.QueryRow(ctx, `
		SELECT id, ticket, case_type, policy_number, status, updated_at
		FROM cases
		WHERE policy_number = $1
		  AND case_type = $2
		  AND status NOT IN ($3, $4)
		ORDER BY updated_at DESC, id
		LIMIT 1
	`, policyNumber, caseType, models.CaseStatusClosedRenewed, models.CaseStatusClosedCancelled))

	if err != nil {
		return nil, fmt.Errorf("failed to find case by policy number: %w", err)
	}

	return record, nil
}

func (r *CaseRepository) scanCase(row pgx.Row) (*models.CaseRecord, error) {
	var record models.CaseRecord
	err := row.Scan(
		&record.ID,
		&record.Ticket,
		&record.CaseType,
		&record.PolicyNumber,
		&record.Status,
		&record.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return &record, nil
}
