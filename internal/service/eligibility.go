package service

import (
	"fmt"
	"strings"

	"uitvaartpay/internal/domain"
)

// EligibilityPolicy decides whether a charge qualifies for the subsidized
// gemeentebegrafenis rate. It knows nothing about rails or identifiers,
// only about the policy inputs.
type EligibilityPolicy struct {
	AmountCeiling     domain.Money
	AllowedCategories []string
	RequiredDocuments []string
}

// IsReducedRateEligible is a conjunction of three checks: the amount must
// not exceed the ceiling, the service category must be subsidized, and
// every required document must have been submitted. A missing document
// disqualifies regardless of amount.
func (p EligibilityPolicy) IsReducedRateEligible(amount domain.Money, serviceCategory string, submittedDocuments []string) bool {
	ok, _ := p.Evaluate(amount, serviceCategory, submittedDocuments)
	return ok
}

// Evaluate returns the eligibility outcome together with a rationale
// suitable for audit display.
func (p EligibilityPolicy) Evaluate(amount domain.Money, serviceCategory string, submittedDocuments []string) (bool, string) {
	if amount.Amount > p.AmountCeiling.Amount {
		return false, fmt.Sprintf("amount %d exceeds the reduced-rate ceiling of %d", amount.Amount, p.AmountCeiling.Amount)
	}

	if !containsString(p.AllowedCategories, serviceCategory) {
		return false, fmt.Sprintf("service category %q is not subsidized", serviceCategory)
	}

	submitted := make(map[string]bool, len(submittedDocuments))
	for _, d := range submittedDocuments {
		submitted[d] = true
	}
	var missing []string
	for _, required := range p.RequiredDocuments {
		if !submitted[required] {
			missing = append(missing, required)
		}
	}
	if len(missing) > 0 {
		return false, fmt.Sprintf("missing required documents: %s", strings.Join(missing, ", "))
	}

	return true, "amount, service category and submitted documents meet the municipal burial policy"
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
