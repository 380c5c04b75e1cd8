package screening

import (
	"fmt"
	"strings"

	"AffiliationChecker/internal/domain"
)

// VerifyInstitution cross-checks the candidate's stated current institution against the
// profile history. It is only meaningful once the name has matched, so it never returns
// TierRejected: a missing institution yields TierWeakMatch and screening continues.
func VerifyInstitution(c domain.Candidate, history []domain.AffiliationRecord, matcher *InstitutionMatcher) domain.InstitutionTier {
	stated := strings.TrimSpace(c.CurrentInstitution)
	if stated == "" {
		return domain.TierUnchecked
	}
	for _, rec := range history {
		if matcher.Match(stated, rec.InstitutionName) {
			return domain.TierVerified
		}
	}
	return domain.TierWeakMatch
}

func institutionCaveat(stated string) string {
	return fmt.Sprintf("Note: stated institution '%s' not found in affiliation history (records may be outdated)", strings.TrimSpace(stated))
}
