// Package report writes verdict rows to the output spreadsheet.
package report

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gofrs/flock"

	"AffiliationChecker/internal/domain"
	"AffiliationChecker/internal/ports"
)

// ErrOutputLocked is returned when another run is writing the same output file.
var ErrOutputLocked = errors.New("output file is locked by another run")

// Header lists the output columns in order.
var Header = []string{
	"Row",
	"First Name",
	"Last Name",
	"External ID",
	"Current Institution",
	"Matched Name",
	"Institution Check",
	"Flag",
	"Affiliation Type",
	"Evidence",
	"Review",
}

// Row renders a verdict as output cells aligned with Header.
func Row(v domain.Verdict) []string {
	c := v.Candidate
	return []string{
		strconv.Itoa(c.Row),
		c.FirstName,
		c.LastName,
		v.ExternalID,
		c.CurrentInstitution,
		v.MatchedName,
		v.Tier.String(),
		v.FlagLabel(),
		v.Type.String(),
		v.EvidenceText(),
		v.Review(),
	}
}

// Open picks a sink from the output extension and holds an exclusive lock beside
// the file for the lifetime of the sink. With resume set, rows already in an existing
// output file are kept and new rows follow them; otherwise the file is replaced.
func Open(path string, resume bool) (ports.VerdictSink, error) {
	lock := flock.New(path + ".lock")
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire output lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrOutputLocked, path)
	}

	var sink ports.VerdictSink
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv":
		sink, err = newCSVSink(path, lock, resume)
	case ".xlsx":
		sink, err = newXLSXSink(path, lock, resume)
	default:
		err = fmt.Errorf("unsupported output format %q", ext)
	}
	if err != nil {
		return nil, errors.Join(err, releaseLock(lock))
	}
	return sink, nil
}

func releaseLock(lock *flock.Flock) error {
	if err := lock.Unlock(); err != nil {
		return fmt.Errorf("release output lock: %w", err)
	}
	if err := os.Remove(lock.Path()); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove output lock: %w", err)
	}
	return nil
}

// existingOutput reports whether path holds a previous run's output worth keeping.
func existingOutput(path string) (bool, error) {
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("stat output: %w", err)
	}
	return info.Size() > 0, nil
}
