package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound means the metadata service has no profile for the id or name.
	ErrNotFound = errors.New("author not found")
	// ErrTransientFetch marks network failures and rate-limit or server responses worth retrying.
	ErrTransientFetch = errors.New("transient fetch failure")
	// ErrMalformedInput marks roster rows missing required fields.
	ErrMalformedInput = errors.New("malformed input record")
	// ErrInvalidConfig is the only class of error that stops a run before it starts.
	ErrInvalidConfig = errors.New("invalid configuration")
)

// AmbiguousError is returned when a name search yields several plausible authors.
type AmbiguousError struct {
	Candidates []AuthorProfile
}

func (e *AmbiguousError) Error() string {
	return fmt.Sprintf("ambiguous author search: %d candidates", len(e.Candidates))
}
