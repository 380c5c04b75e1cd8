package screening

import (
	"fmt"

	"AffiliationChecker/internal/domain"
)

// DirectResult lists every flagged-country record in the author's own history.
type DirectResult struct {
	Flagged  bool
	Evidence []string
}

// EvaluateDirect scans the whole affiliation history, last-known institutions included,
// and reports one evidence entry per non-generic record in a target country. It never
// stops at the first hit. Single-year and multi-year records are reported alike; telling
// employment from a one-off visit is left to the reviewer.
func EvaluateDirect(profile domain.AuthorProfile, targets domain.CountrySet, filter *PatternFilter) DirectResult {
	var evidence []string
	for _, rec := range filter.Keep(profile.Affiliations) {
		if rec.Source == domain.SourceCoauthorWork {
			continue
		}
		if !targets.Has(rec.CountryCode) {
			continue
		}
		evidence = append(evidence, directEvidence(rec))
	}
	return DirectResult{Flagged: len(evidence) > 0, Evidence: evidence}
}

func directEvidence(rec domain.AffiliationRecord) string {
	return fmt.Sprintf("%s [%s] (%s)", rec.InstitutionName, domain.NormalizeCountryCode(rec.CountryCode), rec.Span())
}
