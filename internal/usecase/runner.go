package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"AffiliationChecker/internal/domain"
	"AffiliationChecker/internal/logging"
	"AffiliationChecker/internal/metrics"
	"AffiliationChecker/internal/ports"
	"AffiliationChecker/internal/screening"
)

// RunnerDeps wires the driven adapters into a screening run. Repository, Notifier and
// Metrics are optional.
type RunnerDeps struct {
	Candidates ports.CandidateSource
	Fetcher    ports.ProfileFetcher
	Engine     *screening.Engine
	Sink       ports.VerdictSink
	Repository ports.VerdictRepository
	Notifier   ports.Notifier
	Metrics    *metrics.Metrics
	Logger     *slog.Logger
	Workers    int
	Resume     bool
	NewRunID   func() string
}

// Runner screens a roster: one verdict row per candidate, written as soon as it is decided.
type Runner struct {
	candidates ports.CandidateSource
	fetcher    ports.ProfileFetcher
	engine     *screening.Engine
	sink       ports.VerdictSink
	repository ports.VerdictRepository
	notifier   ports.Notifier
	metrics    *metrics.Metrics
	logger     *slog.Logger
	workers    int
	resume     bool
	newRunID   func() string
}

// NewRunner constructs the screening use case.
func NewRunner(deps RunnerDeps) (*Runner, error) {
	if deps.Candidates == nil || deps.Fetcher == nil || deps.Engine == nil || deps.Sink == nil {
		return nil, errors.New("runner requires candidates, fetcher, engine and sink")
	}
	logger := deps.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	workers := deps.Workers
	if workers < 1 {
		workers = 1
	}
	newRunID := deps.NewRunID
	if newRunID == nil {
		newRunID = uuid.NewString
	}
	return &Runner{
		candidates: deps.Candidates,
		fetcher:    deps.Fetcher,
		engine:     deps.Engine,
		sink:       deps.Sink,
		repository: deps.Repository,
		notifier:   deps.Notifier,
		metrics:    deps.Metrics,
		logger:     logger,
		workers:    workers,
		resume:     deps.Resume,
		newRunID:   newRunID,
	}, nil
}

// Run screens every pending candidate. Cancelling ctx stops dispatching new candidates;
// rows already written stay written and the summary is marked interrupted. The returned
// error is non-nil only when the roster cannot be read or the sink rejects a row.
func (r *Runner) Run(ctx context.Context) (Summary, error) {
	started := time.Now()
	summary := Summary{RunID: r.newRunID()}
	logger := r.logger.With("run_id", summary.RunID)

	candidates, err := r.candidates.ReadCandidates(ctx)
	if err != nil {
		return summary, fmt.Errorf("read candidates: %w", err)
	}
	summary.Total = len(candidates)

	pending, err := r.pending(ctx, candidates)
	if err != nil {
		return summary, err
	}
	summary.Resumed = len(candidates) - len(pending)
	logger.Info("screening started", "candidates", len(candidates), "pending", len(pending), "workers", r.workers)

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)

	for _, c := range pending {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			v, ok := r.decide(gctx, c, logger)
			if !ok {
				return nil
			}
			if err := r.sink.Write(v); err != nil {
				return fmt.Errorf("write row %d: %w", c.Row, err)
			}
			r.persist(gctx, summary.RunID, v, logger)
			r.metrics.IncrementVerdict(v.Type.String(), v.Reason.String())

			mu.Lock()
			summary.record(v)
			mu.Unlock()
			return nil
		})
	}

	err = g.Wait()
	summary.Interrupted = ctx.Err() != nil
	summary.Duration = time.Since(started)
	slices.SortFunc(summary.Flagged, func(a, b domain.Verdict) int { return a.Candidate.Row - b.Candidate.Row })
	r.metrics.SetRunDuration(summary.Duration)

	if err != nil {
		return summary, err
	}

	logger.Info("screening finished",
		"screened", summary.Screened,
		"flagged", len(summary.Flagged),
		"skipped", summary.Skipped,
		"interrupted", summary.Interrupted,
		"duration", summary.Duration.Round(time.Millisecond),
	)

	if !summary.Interrupted {
		r.notify(ctx, summary, logger)
	}
	return summary, nil
}

func (r *Runner) pending(ctx context.Context, candidates []domain.Candidate) ([]domain.Candidate, error) {
	if !r.resume || r.repository == nil {
		return candidates, nil
	}

	keys := make([]string, 0, len(candidates))
	for _, c := range candidates {
		if c.Validate() == nil {
			keys = append(keys, c.Key())
		}
	}
	done, err := r.repository.AlreadyScreened(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("load screened: %w", err)
	}

	out := make([]domain.Candidate, 0, len(candidates))
	for _, c := range candidates {
		if c.Validate() == nil && done[c.Key()] {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

// decide returns false when ctx was cancelled before the candidate finished; such a
// candidate gets no row.
func (r *Runner) decide(ctx context.Context, c domain.Candidate, logger *slog.Logger) (domain.Verdict, bool) {
	logger = logger.With("row", c.Row, "candidate", c.FullName(), "external_id", c.ExternalID)

	if err := c.Validate(); err != nil {
		detail := strings.TrimPrefix(err.Error(), domain.ErrMalformedInput.Error()+": ")
		logger.Warn("malformed roster row", "error", err)
		return screening.SkippedVerdict(c, domain.ReasonMalformedInput, detail), true
	}

	profile, err := r.resolve(ctx, c)
	if err != nil {
		if ctx.Err() != nil {
			return domain.Verdict{}, false
		}
		var ambiguous *domain.AmbiguousError
		switch {
		case errors.Is(err, domain.ErrNotFound):
			logger.Info("author not found")
			return screening.SkippedVerdict(c, domain.ReasonNotFound, ""), true
		case errors.As(err, &ambiguous):
			logger.Info("ambiguous author search", "matches", len(ambiguous.Candidates))
			return screening.AmbiguousVerdict(c, len(ambiguous.Candidates)), true
		default:
			logger.Warn("profile fetch failed", "error", err)
			return screening.SkippedVerdict(c, domain.ReasonFetchFailed, err.Error()), true
		}
	}

	works := func() ([]domain.WorkRecord, error) {
		return r.fetcher.FetchRecentWorks(ctx, profile.ExternalID, r.engine.MaxWorks())
	}
	v, err := r.engine.Screen(c, profile, works)
	if err != nil {
		if ctx.Err() != nil {
			return domain.Verdict{}, false
		}
		logger.Warn("works fetch failed", "error", err)
		v = screening.SkippedVerdict(c, domain.ReasonFetchFailed, err.Error()).
			WithIdentity(profile.ExternalID, profile.CanonicalName)
		return v, true
	}

	logger.Debug("candidate screened",
		"verdict", v.FlagLabel(),
		"affiliation_type", v.Type.String(),
		"tier", v.Tier.String(),
	)
	return v, true
}

func (r *Runner) resolve(ctx context.Context, c domain.Candidate) (domain.AuthorProfile, error) {
	if c.ExternalID != "" {
		return r.fetcher.FetchAuthorProfile(ctx, c.ExternalID)
	}

	results, err := r.fetcher.SearchAuthors(ctx, c.FullName())
	if err != nil {
		return domain.AuthorProfile{}, err
	}
	profile, err := r.engine.Resolve(c, results)
	if err != nil {
		return domain.AuthorProfile{}, err
	}
	// Search results carry the profile but the lookup by id is authoritative.
	if profile.ExternalID != "" && len(profile.Affiliations) == 0 {
		return r.fetcher.FetchAuthorProfile(ctx, profile.ExternalID)
	}
	return profile, nil
}

// persist stores decided outcomes. Fetch failures and malformed rows are retried by the
// next resumed run, so they are not stored.
func (r *Runner) persist(ctx context.Context, runID string, v domain.Verdict, logger *slog.Logger) {
	if r.repository == nil || v.Reason == domain.ReasonFetchFailed || v.Reason == domain.ReasonMalformedInput {
		return
	}
	if err := r.repository.SaveVerdict(ctx, runID, v); err != nil {
		logger.Warn("persist verdict failed", "row", v.Candidate.Row, "error", err)
	}
}

func (r *Runner) notify(ctx context.Context, summary Summary, logger *slog.Logger) {
	if r.notifier == nil || len(summary.Flagged) == 0 {
		return
	}
	if err := r.notifier.PublishDigest(ctx, summary.Digest()); err != nil {
		logger.Warn("publish digest failed", "error", err)
	}
}
