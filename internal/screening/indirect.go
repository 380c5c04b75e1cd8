package screening

import (
	"fmt"
	"strconv"
	"strings"

	"AffiliationChecker/internal/domain"
)

// IndirectResult lists every flagged-country co-author occurrence on the scanned works.
type IndirectResult struct {
	Flagged  bool
	Evidence []string
}

// EvaluateIndirect checks the co-authors of works against the target countries.
// Affiliations of self (matched by id, or by name when the work carries no author id)
// and generic institutions are ignored. Every qualifying occurrence across all works
// adds one evidence entry.
func EvaluateIndirect(self domain.AuthorProfile, works []domain.WorkRecord, targets domain.CountrySet, filter *PatternFilter) IndirectResult {
	selfID := strings.TrimSpace(self.ExternalID)
	selfName := phrase(self.CanonicalName)

	var evidence []string
	for _, work := range works {
		for _, co := range work.CoauthorAffiliations {
			if isSelf(co, selfID, selfName) {
				continue
			}
			rec := co.Affiliation
			if filter.IsGeneric(rec.InstitutionName) {
				continue
			}
			if !targets.Has(rec.CountryCode) {
				continue
			}
			evidence = append(evidence, indirectEvidence(co, work.Year))
		}
	}
	return IndirectResult{Flagged: len(evidence) > 0, Evidence: evidence}
}

func isSelf(co domain.CoauthorAffiliation, selfID, selfName string) bool {
	if id := strings.TrimSpace(co.CoauthorID); id != "" && selfID != "" {
		return id == selfID
	}
	return selfName != "" && phrase(co.CoauthorName) == selfName
}

func indirectEvidence(co domain.CoauthorAffiliation, year int) string {
	yearLabel := "n.d."
	if year > 0 {
		yearLabel = strconv.Itoa(year)
	}
	name := co.CoauthorName
	if strings.TrimSpace(name) == "" {
		name = "Unknown Co-author"
	}
	return fmt.Sprintf("Co-author: %s at %s [%s] (%s)",
		name,
		co.Affiliation.InstitutionName,
		domain.NormalizeCountryCode(co.Affiliation.CountryCode),
		yearLabel)
}
