package domain

import "strconv"

// AffiliationSource tags where an affiliation record came from.
type AffiliationSource int

const (
	SourceProfileHistory AffiliationSource = iota
	SourceLastKnown
	SourceCoauthorWork
)

func (s AffiliationSource) String() string {
	switch s {
	case SourceProfileHistory:
		return "ProfileHistory"
	case SourceLastKnown:
		return "LastKnown"
	case SourceCoauthorWork:
		return "CoauthorWork"
	default:
		return "Unknown"
	}
}

// AffiliationRecord is one institution an author was attached to.
// A zero YearStart means the source gave no year information.
type AffiliationRecord struct {
	InstitutionID   string
	InstitutionName string
	CountryCode     string
	YearStart       int
	YearEnd         int
	Source          AffiliationSource
}

// Span renders the year range as "start-end"; a single year repeats itself.
func (r AffiliationRecord) Span() string {
	if r.YearStart == 0 {
		if r.Source == SourceLastKnown {
			return "Last Known"
		}
		return "n.d."
	}
	end := r.YearEnd
	if end == 0 {
		end = r.YearStart
	}
	return strconv.Itoa(r.YearStart) + "-" + strconv.Itoa(end)
}

// AuthorProfile is the identity returned by the metadata service.
type AuthorProfile struct {
	ExternalID    string
	CanonicalName string
	Affiliations  []AffiliationRecord
}

// CoauthorAffiliation pairs a co-author with one of their institutions on a work.
type CoauthorAffiliation struct {
	CoauthorID   string
	CoauthorName string
	Affiliation  AffiliationRecord
}

// WorkRecord is a recent publication with its co-author affiliations.
type WorkRecord struct {
	WorkID               string
	Title                string
	Year                 int
	CoauthorAffiliations []CoauthorAffiliation
}
