package domain

import (
	"slices"
	"strings"
)

// AffiliationType is the closed set of verdict outcomes.
type AffiliationType int

const (
	AffiliationNone AffiliationType = iota
	AffiliationDirect
	AffiliationIndirect
	AffiliationSkipped
)

// String returns the label used in output rows.
func (t AffiliationType) String() string {
	switch t {
	case AffiliationDirect:
		return "Direct"
	case AffiliationIndirect:
		return "Indirect (Co-author)"
	case AffiliationSkipped:
		return "Skipped"
	default:
		return "None"
	}
}

// ReasonCode explains a Skipped verdict.
type ReasonCode int

const (
	ReasonNone ReasonCode = iota
	ReasonNameMismatch
	ReasonNotFound
	ReasonAmbiguous
	ReasonFetchFailed
	ReasonMalformedInput
)

func (r ReasonCode) String() string {
	switch r {
	case ReasonNameMismatch:
		return "NameMismatch"
	case ReasonNotFound:
		return "NotFound"
	case ReasonAmbiguous:
		return "Ambiguous"
	case ReasonFetchFailed:
		return "FetchFailed"
	case ReasonMalformedInput:
		return "MalformedInput"
	default:
		return ""
	}
}

// InstitutionTier is the confidence that the stated current institution appears in the history.
type InstitutionTier int

const (
	TierUnchecked InstitutionTier = iota
	TierVerified
	TierWeakMatch
	TierRejected
)

func (t InstitutionTier) String() string {
	switch t {
	case TierVerified:
		return "Verified"
	case TierWeakMatch:
		return "WeakMatch"
	case TierRejected:
		return "Rejected"
	default:
		return ""
	}
}

// EvidenceSeparator joins evidence entries in a single output cell.
const EvidenceSeparator = "; "

// ReviewNotice accompanies every flagged row.
const ReviewNotice = "Screening signal only: verify the cited records before acting"

// Verdict is the decision for one candidate. Evidence is only reachable as a copy,
// so a built verdict cannot be changed by its consumers.
type Verdict struct {
	Candidate   Candidate
	Flag        bool
	Type        AffiliationType
	Reason      ReasonCode
	Tier        InstitutionTier
	MatchedName string
	ExternalID  string
	evidence    []string
}

// NewVerdict copies evidence into a fresh verdict.
func NewVerdict(c Candidate, typ AffiliationType, reason ReasonCode, tier InstitutionTier, evidence []string) Verdict {
	return Verdict{
		Candidate:  c,
		Flag:       typ == AffiliationDirect || typ == AffiliationIndirect,
		Type:       typ,
		Reason:     reason,
		Tier:       tier,
		ExternalID: c.ExternalID,
		evidence:   slices.Clone(evidence),
	}
}

// WithIdentity returns a copy annotated with the resolved profile identity.
func (v Verdict) WithIdentity(externalID, matchedName string) Verdict {
	v.evidence = slices.Clone(v.evidence)
	if externalID != "" {
		v.ExternalID = externalID
	}
	v.MatchedName = matchedName
	return v
}

// Evidence returns a copy of the evidence entries.
func (v Verdict) Evidence() []string {
	return slices.Clone(v.evidence)
}

// EvidenceText joins evidence for a single output cell.
func (v Verdict) EvidenceText() string {
	return strings.Join(v.evidence, EvidenceSeparator)
}

// FlagLabel renders the flag as "Yes" or "No".
func (v Verdict) FlagLabel() string {
	if v.Flag {
		return "Yes"
	}
	return "No"
}

// Review returns the reviewer notice for flagged verdicts and an empty string otherwise.
func (v Verdict) Review() string {
	if v.Flag {
		return ReviewNotice
	}
	return ""
}
