package threading

import (
	"context"
	"fmt"

	"github.com/asegura/renomail/internal/models"
)

// Threading methods, in resolution order. Unclassified is a legitimate
// outcome, not an error: those messages wait for manual triage.
const (
	MethodTicket       = "ticket"
	MethodPolicy       = "policy"
	MethodUnclassified = "unclassified"
)

// Result is the outcome of classifying one message against the case
// repository. Exactly one of CaseID != nil or Unclassified holds.
type Result struct {
	CaseID       *string
	Unclassified bool
	Method       string
	MatchedValue string
	Ticket       string
	PolicyNumber string
}

// Resolver classifies inbound messages by walking an ordered list of
// matcher strategies. New identifier schemes slot in as additional matchers
// without touching the callers.
type Resolver struct {
	matchers []Matcher
	caseType string
}

// NewResolver builds the standard two-stage resolver: ticket match first,
// policy-number match second.
func NewResolver(cases CaseLookup, caseType string) *Resolver {
	return &Resolver{
		matchers: []Matcher{
			&ticketMatcher{cases: cases},
			&policyMatcher{cases: cases},
		},
		caseType: caseType,
	}
}

// Resolve scans the message's subject and plain-text body for reference
// tokens. A candidate found in text but matching no case falls through to
// the next strategy; only a lookup failure is an error.
func (r *Resolver) Resolve(ctx context.Context, msg *models.InboundMessage) (*Result, error) {
	text := msg.SearchText()

	for _, matcher := range r.matchers {
		for _, candidate := range matcher.Extract(text) {
			record, err := matcher.Lookup(ctx, candidate, r.caseType)
			if err != nil {
				return nil, fmt.Errorf("%s lookup for %q failed: %w", matcher.Method(), candidate, err)
			}
			if record == nil {
				continue
			}

			caseID := record.ID
			result := &Result{
				CaseID:       &caseID,
				Method:       matcher.Method(),
				MatchedValue: candidate,
				Ticket:       record.Ticket,
			}
			if matcher.Method() == MethodPolicy {
				result.PolicyNumber = candidate
			}
			return result, nil
		}
	}

	return &Result{Unclassified: true, Method: MethodUnclassified}, nil
}
