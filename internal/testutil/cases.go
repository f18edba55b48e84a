package testutil

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
)

// InsertCase seeds one case row and returns its id. An empty policyNumber
// stores NULL.
func InsertCase(t *testing.T, pool *pgxpool.Pool, ticket, caseType, policyNumber, status string) string {
	t.Helper()

	var policy *string
	if policyNumber != "" {
		policy = &policyNumber
	}

	var id string
	err := pool.QueryRow(context.Background(), `
		INSERT INTO cases (ticket, case_type, policy_number, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, ticket, caseType, policy, status).Scan(&id)
	if err != nil {
		t.Fatalf("Failed to insert case: %v", err)
	}

	return id
}
