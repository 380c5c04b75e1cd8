package ports

import (
	"context"

	"AffiliationChecker/internal/domain"
)

// CandidateSource yields the roster rows to screen, malformed ones included.
type CandidateSource interface {
	ReadCandidates(ctx context.Context) ([]domain.Candidate, error)
}

// ProfileFetcher retrieves author identities and recent works from a bibliographic service.
// FetchAuthorProfile returns domain.ErrNotFound when the id is unknown.
type ProfileFetcher interface {
	FetchAuthorProfile(ctx context.Context, externalID string) (domain.AuthorProfile, error)
	SearchAuthors(ctx context.Context, name string) ([]domain.AuthorProfile, error)
	FetchRecentWorks(ctx context.Context, externalID string, limit int) ([]domain.WorkRecord, error)
}

// VerdictSink receives one row per candidate. Implementations serialize concurrent writes.
type VerdictSink interface {
	Write(verdict domain.Verdict) error
	Close() error
}

// VerdictRepository keeps verdict history keyed by domain.Candidate.Key so interrupted
// runs can resume.
type VerdictRepository interface {
	AlreadyScreened(ctx context.Context, keys []string) (map[string]bool, error)
	SaveVerdict(ctx context.Context, runID string, verdict domain.Verdict) error
}

// Notifier streams flagged digests to Telegram or other channels.
type Notifier interface {
	PublishDigest(ctx context.Context, digest string) error
}
