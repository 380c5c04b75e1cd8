package screening

import (
	"fmt"

	"AffiliationChecker/internal/domain"
)

type state int

const (
	stateInit state = iota
	stateNameCheck
	stateDirectCheck
	stateIndirectCheck
	stateSkipped
	stateDirectFlag
	stateIndirectFlag
	stateClean
)

func (s state) String() string {
	return [...]string{"Init", "NameCheck", "DirectCheck", "IndirectCheck", "Skipped", "DirectFlag", "IndirectFlag", "Clean"}[s]
}

func (s state) terminal() bool {
	return s == stateSkipped || s == stateDirectFlag || s == stateIndirectFlag || s == stateClean
}

// Init may jump straight to Skipped when no profile could be obtained.
var transitions = map[state][]state{
	stateInit:          {stateNameCheck, stateSkipped},
	stateNameCheck:     {stateSkipped, stateDirectCheck},
	stateDirectCheck:   {stateDirectFlag, stateIndirectCheck},
	stateIndirectCheck: {stateIndirectFlag, stateClean},
}

// verdictBuilder walks the per-candidate state machine and assembles the verdict once a
// terminal state is reached. Exactly one terminal state is reached per candidate.
type verdictBuilder struct {
	candidate domain.Candidate
	state     state
	reason    domain.ReasonCode
	tier      domain.InstitutionTier
	evidence  []string
	caveats   []string
}

func newVerdictBuilder(c domain.Candidate) *verdictBuilder {
	return &verdictBuilder{candidate: c, state: stateInit}
}

func (b *verdictBuilder) advance(next state) {
	for _, allowed := range transitions[b.state] {
		if allowed == next {
			b.state = next
			return
		}
	}
	panic(fmt.Sprintf("screening: illegal transition %s -> %s", b.state, next))
}

// skip ends in Skipped with the formatted evidence for reason.
func (b *verdictBuilder) skip(reason domain.ReasonCode, detail string) {
	b.advance(stateSkipped)
	b.reason = reason
	b.evidence = []string{skipEvidence(reason, detail)}
}

func (b *verdictBuilder) build() domain.Verdict {
	if !b.state.terminal() {
		panic(fmt.Sprintf("screening: verdict built in non-terminal state %s", b.state))
	}

	var typ domain.AffiliationType
	switch b.state {
	case stateSkipped:
		typ = domain.AffiliationSkipped
	case stateDirectFlag:
		typ = domain.AffiliationDirect
	case stateIndirectFlag:
		typ = domain.AffiliationIndirect
	case stateClean:
		typ = domain.AffiliationNone
	}

	evidence := make([]string, 0, len(b.evidence)+len(b.caveats))
	evidence = append(evidence, b.evidence...)
	evidence = append(evidence, b.caveats...)
	return domain.NewVerdict(b.candidate, typ, b.reason, b.tier, evidence)
}

// SkippedVerdict builds the verdict for a candidate that never reached the name check.
func SkippedVerdict(c domain.Candidate, reason domain.ReasonCode, detail string) domain.Verdict {
	b := newVerdictBuilder(c)
	b.skip(reason, detail)
	return b.build()
}

// AmbiguousVerdict reports a name search that matched count authors.
func AmbiguousVerdict(c domain.Candidate, count int) domain.Verdict {
	return SkippedVerdict(c, domain.ReasonAmbiguous, fmt.Sprintf("%d candidates", count))
}

func skipEvidence(reason domain.ReasonCode, detail string) string {
	switch reason {
	case domain.ReasonNotFound:
		return "Skipped: Not Found"
	case domain.ReasonAmbiguous:
		return "Skipped: Ambiguous, " + detail
	case domain.ReasonFetchFailed:
		return "Skipped: Fetch Failed"
	case domain.ReasonNameMismatch:
		return fmt.Sprintf("ID Mismatch: source shows '%s'", detail)
	case domain.ReasonMalformedInput:
		return "Error: " + detail
	default:
		return "Skipped: " + detail
	}
}
