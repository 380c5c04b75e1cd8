package screening

import "AffiliationChecker/internal/domain"

// MatchName decides whether requested and canonical name the same person. The final
// token of each name is the family name; all earlier tokens are given names.
//
// Family names must be equal as sets and the given names must share at least one
// whole token. Prefix or substring overlap never counts, so "Liang Jiang" does not
// match "Hualiang Jiang".
func MatchName(requested, canonical string) bool {
	req := tokens(requested)
	if len(req) < 2 {
		return false
	}
	return matchSplit(req[:len(req)-1], req[len(req)-1:], tokens(canonical))
}

// MatchCandidate is MatchName for a roster candidate, whose family name may span
// several tokens ("van der Berg"). The same number of trailing canonical tokens
// forms the canonical family-name set.
func MatchCandidate(c domain.Candidate, canonical string) bool {
	return matchSplit(tokens(c.FirstName), tokens(c.LastName), tokens(canonical))
}

func matchSplit(given, family, canonical []string) bool {
	if len(given) == 0 || len(family) == 0 || len(canonical) <= len(family) {
		return false
	}
	split := len(canonical) - len(family)
	return sameSet(family, canonical[split:]) && sharesToken(given, canonical[:split])
}

func sameSet(a, b []string) bool {
	left := toSet(a)
	right := toSet(b)
	if len(left) != len(right) {
		return false
	}
	for tok := range left {
		if _, ok := right[tok]; !ok {
			return false
		}
	}
	return true
}

func sharesToken(a, b []string) bool {
	right := toSet(b)
	for _, tok := range a {
		if _, ok := right[tok]; ok {
			return true
		}
	}
	return false
}

func toSet(items []string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, item := range items {
		set[item] = struct{}{}
	}
	return set
}
