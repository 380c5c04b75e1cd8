package screening

// Institution names pass the match when the significant tokens of the smaller side
// overlap the other side at least this much.
const tokenOverlapThreshold = 0.5

// InstitutionMatcher tolerates paraphrase and abbreviation between a stated institution
// and a metadata institution name.
type InstitutionMatcher struct {
	stopWords map[string]struct{}
	acronyms  map[string]string
}

// NewInstitutionMatcher folds stop words and the acronym table (acronym -> expansion).
func NewInstitutionMatcher(stopWords []string, acronyms map[string]string) *InstitutionMatcher {
	m := &InstitutionMatcher{
		stopWords: make(map[string]struct{}, len(stopWords)),
		acronyms:  make(map[string]string, len(acronyms)),
	}
	for _, w := range stopWords {
		if w = phrase(w); w != "" {
			m.stopWords[w] = struct{}{}
		}
	}
	for short, long := range acronyms {
		short, long = phrase(short), phrase(long)
		if short == "" || long == "" {
			continue
		}
		m.acronyms[short] = long
	}
	return m
}

// Match reports whether stated and name refer to the same institution: one contains
// the other, an acronym expands to the other, or their significant tokens overlap.
// Containment is on whole tokens, so "MIT" is not found inside "Smith College".
func (m *InstitutionMatcher) Match(stated, name string) bool {
	a, b := phrase(stated), phrase(name)
	if a == "" || b == "" {
		return false
	}
	if containsPhrase(a, b) || containsPhrase(b, a) {
		return true
	}
	if m.expands(a, b) || m.expands(b, a) {
		return true
	}
	return overlap(m.significant(a), m.significant(b)) >= tokenOverlapThreshold
}

func (m *InstitutionMatcher) expands(short, long string) bool {
	if m == nil {
		return false
	}
	expansion, ok := m.acronyms[short]
	if !ok {
		return false
	}
	return containsPhrase(long, expansion)
}

// significant drops stop words and tokens of two letters or fewer. When nothing
// survives, the full token list is used so short names still compare.
func (m *InstitutionMatcher) significant(p string) map[string]struct{} {
	all := tokens(p)
	kept := make([]string, 0, len(all))
	for _, tok := range all {
		if len([]rune(tok)) <= 2 {
			continue
		}
		if m != nil {
			if _, stop := m.stopWords[tok]; stop {
				continue
			}
		}
		kept = append(kept, tok)
	}
	if len(kept) == 0 {
		kept = all
	}
	return toSet(kept)
}

func overlap(a, b map[string]struct{}) float64 {
	smaller, larger := a, b
	if len(larger) < len(smaller) {
		smaller, larger = larger, smaller
	}
	if len(smaller) == 0 {
		return 0
	}
	shared := 0
	for tok := range smaller {
		if _, ok := larger[tok]; ok {
			shared++
		}
	}
	return float64(shared) / float64(len(smaller))
}
