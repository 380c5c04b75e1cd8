package usecase

import (
	"fmt"
	"strings"
	"time"

	"AffiliationChecker/internal/domain"
)

// Summary aggregates one run for the CLI report and the digest.
type Summary struct {
	RunID       string
	Total       int
	Resumed     int
	Screened    int
	Clean       int
	Direct      int
	Indirect    int
	Skipped     int
	Flagged     []domain.Verdict
	Interrupted bool
	Duration    time.Duration
}

func (s *Summary) record(v domain.Verdict) {
	s.Screened++
	switch v.Type {
	case domain.AffiliationDirect:
		s.Direct++
	case domain.AffiliationIndirect:
		s.Indirect++
	case domain.AffiliationSkipped:
		s.Skipped++
	default:
		s.Clean++
	}
	if v.Flag {
		s.Flagged = append(s.Flagged, v)
	}
}

// Percent returns n as a share of screened rows.
func (s Summary) Percent(n int) float64 {
	if s.Screened == 0 {
		return 0
	}
	return float64(n) * 100 / float64(s.Screened)
}

// Digest renders the flagged candidates as a plain-text message.
func (s Summary) Digest() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Affiliation screening %s: %d of %d screened candidates flagged (%d direct, %d indirect).\n",
		s.RunID, len(s.Flagged), s.Screened, s.Direct, s.Indirect)
	for _, v := range s.Flagged {
		fmt.Fprintf(&b, "\nRow %d: %s (%s)\n%s\n", v.Candidate.Row, v.Candidate.FullName(), v.Type, v.EvidenceText())
	}
	b.WriteString("\n" + domain.ReviewNotice)
	return b.String()
}
