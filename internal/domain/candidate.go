package domain

import (
	"fmt"
	"strings"
)

// Candidate is a single roster entry to be screened.
type Candidate struct {
	Row                int
	FirstName          string
	LastName           string
	ExternalID         string
	CurrentInstitution string
}

// FullName joins given and family names the way a search query expects them.
func (c Candidate) FullName() string {
	return strings.TrimSpace(strings.TrimSpace(c.FirstName) + " " + strings.TrimSpace(c.LastName))
}

// Validate reports missing required fields as ErrMalformedInput.
func (c Candidate) Validate() error {
	var missing []string
	if strings.TrimSpace(c.FirstName) == "" {
		missing = append(missing, "first name")
	}
	if strings.TrimSpace(c.LastName) == "" {
		missing = append(missing, "last name")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: row %d missing %s", ErrMalformedInput, c.Row, strings.Join(missing, ", "))
	}
	return nil
}

// Key identifies a roster entry across runs: the external id when present,
// otherwise the lower-cased name and stated institution.
func (c Candidate) Key() string {
	if id := strings.TrimSpace(c.ExternalID); id != "" {
		return id
	}
	return "name:" + strings.ToLower(c.FullName()) + "|" + strings.ToLower(strings.TrimSpace(c.CurrentInstitution))
}
