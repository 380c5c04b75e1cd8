package screening

import (
	"fmt"

	"AffiliationChecker/internal/domain"
)

// Rules is the read-only configuration shared by every screening pass of a run.
type Rules struct {
	Targets      domain.CountrySet
	MaxWorks     int
	Patterns     *PatternFilter
	Institutions *InstitutionMatcher
}

// WorksFunc supplies the candidate's recent works. It is called only when the
// indirect check actually runs.
type WorksFunc func() ([]domain.WorkRecord, error)

// Engine runs the per-candidate pipeline: name check, direct check, indirect check.
type Engine struct {
	rules Rules
}

// NewEngine validates rules; an empty target set is a configuration error.
func NewEngine(rules Rules) (*Engine, error) {
	if len(rules.Targets) == 0 {
		return nil, fmt.Errorf("%w: no target countries", domain.ErrInvalidConfig)
	}
	if rules.MaxWorks < 0 {
		return nil, fmt.Errorf("%w: max works must not be negative", domain.ErrInvalidConfig)
	}
	if rules.Patterns == nil {
		rules.Patterns = NewPatternFilter(nil)
	}
	if rules.Institutions == nil {
		rules.Institutions = NewInstitutionMatcher(nil, nil)
	}
	return &Engine{rules: rules}, nil
}

// MaxWorks is the configured bound on works scanned by the indirect check.
func (e *Engine) MaxWorks() int {
	return e.rules.MaxWorks
}

// Screen decides the verdict for c given its fetched profile. An error is returned
// only when works cannot be obtained; the caller owns the fetch-failure verdict.
func (e *Engine) Screen(c domain.Candidate, profile domain.AuthorProfile, works WorksFunc) (domain.Verdict, error) {
	b := newVerdictBuilder(c)

	b.advance(stateNameCheck)
	if !MatchCandidate(c, profile.CanonicalName) {
		b.tier = domain.TierRejected
		b.skip(domain.ReasonNameMismatch, profile.CanonicalName)
		return e.finish(b, profile), nil
	}

	b.tier = VerifyInstitution(c, profile.Affiliations, e.rules.Institutions)
	if b.tier == domain.TierWeakMatch {
		b.caveats = append(b.caveats, institutionCaveat(c.CurrentInstitution))
	}

	b.advance(stateDirectCheck)
	direct := EvaluateDirect(profile, e.rules.Targets, e.rules.Patterns)
	if direct.Flagged {
		b.advance(stateDirectFlag)
		b.evidence = direct.Evidence
		return e.finish(b, profile), nil
	}

	b.advance(stateIndirectCheck)
	var recent []domain.WorkRecord
	if works != nil {
		fetched, err := works()
		if err != nil {
			return domain.Verdict{}, fmt.Errorf("fetch works for %s: %w", profile.ExternalID, err)
		}
		recent = fetched
	}
	if e.rules.MaxWorks > 0 && len(recent) > e.rules.MaxWorks {
		recent = recent[:e.rules.MaxWorks]
	}

	indirect := EvaluateIndirect(profile, recent, e.rules.Targets, e.rules.Patterns)
	if indirect.Flagged {
		b.advance(stateIndirectFlag)
		b.evidence = indirect.Evidence
	} else {
		b.advance(stateClean)
	}
	return e.finish(b, profile), nil
}

func (e *Engine) finish(b *verdictBuilder, profile domain.AuthorProfile) domain.Verdict {
	return b.build().WithIdentity(profile.ExternalID, profile.CanonicalName)
}

// Resolve picks the profile for a candidate searched by name. Results that fail the
// name check are discarded. One survivor is used. Several survivors are narrowed by the
// stated current institution; if that does not leave exactly one, the search is
// ambiguous and needs manual resolution. With no survivor the top result is returned so
// the name mismatch is reported against it.
func (e *Engine) Resolve(c domain.Candidate, results []domain.AuthorProfile) (domain.AuthorProfile, error) {
	if len(results) == 0 {
		return domain.AuthorProfile{}, domain.ErrNotFound
	}

	var named []domain.AuthorProfile
	for _, p := range results {
		if MatchCandidate(c, p.CanonicalName) {
			named = append(named, p)
		}
	}

	switch len(named) {
	case 0:
		return results[0], nil
	case 1:
		return named[0], nil
	}

	var placed []domain.AuthorProfile
	for _, p := range named {
		if VerifyInstitution(c, p.Affiliations, e.rules.Institutions) == domain.TierVerified {
			placed = append(placed, p)
		}
	}
	if len(placed) == 1 {
		return placed[0], nil
	}
	return domain.AuthorProfile{}, &domain.AmbiguousError{Candidates: named}
}
