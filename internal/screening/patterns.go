package screening

import (
	"strings"

	"AffiliationChecker/internal/domain"
)

// PatternFilter drops institution records whose names are generic government bodies.
// Such names ("Ministry of Education") exist in many countries and are often tagged
// with the wrong country by the metadata source.
type PatternFilter struct {
	patterns []string
}

// NewPatternFilter folds patterns once; blank patterns are ignored.
func NewPatternFilter(patterns []string) *PatternFilter {
	folded := make([]string, 0, len(patterns))
	for _, p := range patterns {
		if p = phrase(p); p != "" {
			folded = append(folded, p)
		}
	}
	return &PatternFilter{patterns: folded}
}

// IsGeneric reports whether the folded institution name contains any pattern.
func (f *PatternFilter) IsGeneric(institutionName string) bool {
	if f == nil {
		return false
	}
	name := phrase(institutionName)
	if name == "" {
		return false
	}
	for _, p := range f.patterns {
		if strings.Contains(name, p) {
			return true
		}
	}
	return false
}

// Keep returns the records that are not generic, preserving order.
func (f *PatternFilter) Keep(records []domain.AffiliationRecord) []domain.AffiliationRecord {
	kept := make([]domain.AffiliationRecord, 0, len(records))
	for _, rec := range records {
		if f.IsGeneric(rec.InstitutionName) {
			continue
		}
		kept = append(kept, rec)
	}
	return kept
}
