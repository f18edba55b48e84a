package threading

import (
	"context"
	"regexp"
	"strings"

	"github.com/asegura/renomail/internal/models"
)

// Ticket tokens look like REN-2501-00042: a three-letter prefix, a four-digit
// period code, and a five-digit sequence.
var ticketPattern = regexp.MustCompile(`(?i)\b[A-Z]{3}-\d{4}-\d{5}\b`)

// Policy numbers are loose alphanumeric identifiers: runs of letters, digits,
// and hyphens. The digit filters below weed out the noise this casts up.
var policyPattern = regexp.MustCompile(`(?i)\b[A-Z0-9][A-Z0-9-]*\b`)

var nonDigits = regexp.MustCompile(`\D`)
var yearPattern = regexp.MustCompile(`^20\d{2}$`)

// CaseLookup is the read-only view of the case repository the resolver
// needs. A nil record with a nil error means "no such case".
type CaseLookup interface {
	FindByTicket(ctx context.Context, ticket, caseType string) (*models.CaseRecord, error)
	FindOpenByPolicyNumber(ctx context.Context, policyNumber, caseType string) (*models.CaseRecord, error)
}

// Matcher is one candidate-extraction strategy. The resolver walks its
// matchers in order and stops at the first candidate whose lookup hits.
type Matcher interface {
	Method() string
	Extract(text string) []string
	Lookup(ctx context.Context, candidate, caseType string) (*models.CaseRecord, error)
}

// ticketMatcher matches the fixed-format reference token. A ticket hit is
// authoritative regardless of case status.
type ticketMatcher struct {
	cases CaseLookup
}

func (m *ticketMatcher) Method() string { return MethodTicket }

func (m *ticketMatcher) Extract(text string) []string {
	match := ticketPattern.FindString(text)
	if match == "" {
		return nil
	}
	return []string{strings.ToUpper(match)}
}

func (m *ticketMatcher) Lookup(ctx context.Context, candidate, caseType string) (*models.CaseRecord, error) {
	return m.cases.FindByTicket(ctx, candidate, caseType)
}

// policyMatcher matches loose policy-number candidates against open cases.
type policyMatcher struct {
	cases CaseLookup
}

func (m *policyMatcher) Method() string { return MethodPolicy }

// Extract returns policy-number candidates in first-seen order, deduplicated,
// skipping anything with fewer than five digits or a bare calendar year.
func (m *policyMatcher) Extract(text string) []string {
	matches := policyPattern.FindAllString(text, -1)
	if len(matches) == 0 {
		return nil
	}

	seen := make(map[string]bool, len(matches))
	candidates := make([]string, 0, len(matches))
	for _, match := range matches {
		if seen[match] {
			continue
		}
		seen[match] = true

		digits := nonDigits.ReplaceAllString(match, "")
		if len(digits) < 5 {
			continue
		}
		if yearPattern.MatchString(digits) {
			continue
		}
		candidates = append(candidates, match)
	}

	if len(candidates) == 0 {
		return nil
	}
	return candidates
}

func (m *policyMatcher) Lookup(ctx context.Context, candidate, caseType string) (*models.CaseRecord, error) {
	return m.cases.FindOpenByPolicyNumber(ctx, candidate, caseType)
}
