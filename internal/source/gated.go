package source

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/time/rate"

	"AffiliationChecker/internal/domain"
	"AffiliationChecker/internal/logging"
	"AffiliationChecker/internal/metrics"
	"AffiliationChecker/internal/ports"
)

// Policy bounds each upstream call and the retries of transient failures.
type Policy struct {
	Timeout        time.Duration
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// Gated paces every call through one shared limiter, bounds each attempt with a timeout
// and retries transient failures with exponential backoff. All workers of a run share a
// single Gated so the upstream sees one request stream.
type Gated struct {
	src     ports.ProfileFetcher
	limiter *rate.Limiter
	policy  Policy
	metrics *metrics.Metrics
	logger  *slog.Logger
}

var _ ports.ProfileFetcher = (*Gated)(nil)

// NewLimiter builds the fixed-interval gate: one request per interval, with burst
// requests allowed back to back. A non-positive interval disables pacing.
func NewLimiter(interval time.Duration, burst int) *rate.Limiter {
	if burst < 1 {
		burst = 1
	}
	if interval <= 0 {
		return rate.NewLimiter(rate.Inf, burst)
	}
	return rate.NewLimiter(rate.Every(interval), burst)
}

// NewGated wraps src. The limiter is the caller's handle and may be shared further.
func NewGated(src ports.ProfileFetcher, limiter *rate.Limiter, policy Policy, m *metrics.Metrics, logger *slog.Logger) *Gated {
	if limiter == nil {
		limiter = NewLimiter(0, 1)
	}
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = 1
	}
	if policy.Timeout <= 0 {
		policy.Timeout = 30 * time.Second
	}
	if policy.InitialBackoff <= 0 {
		policy.InitialBackoff = time.Second
	}
	if policy.MaxBackoff < policy.InitialBackoff {
		policy.MaxBackoff = policy.InitialBackoff
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return &Gated{src: src, limiter: limiter, policy: policy, metrics: m, logger: logger}
}

// FetchAuthorProfile fetches one profile by id.
func (g *Gated) FetchAuthorProfile(ctx context.Context, externalID string) (domain.AuthorProfile, error) {
	var out domain.AuthorProfile
	err := g.do(ctx, "profile", func(ctx context.Context) error {
		profile, err := g.src.FetchAuthorProfile(ctx, externalID)
		if err != nil {
			return err
		}
		out = profile
		return nil
	})
	return out, err
}

// SearchAuthors runs a name search.
func (g *Gated) SearchAuthors(ctx context.Context, name string) ([]domain.AuthorProfile, error) {
	var out []domain.AuthorProfile
	err := g.do(ctx, "search", func(ctx context.Context) error {
		results, err := g.src.SearchAuthors(ctx, name)
		if err != nil {
			return err
		}
		out = results
		return nil
	})
	return out, err
}

// FetchRecentWorks fetches up to limit recent works.
func (g *Gated) FetchRecentWorks(ctx context.Context, externalID string, limit int) ([]domain.WorkRecord, error) {
	var out []domain.WorkRecord
	err := g.do(ctx, "works", func(ctx context.Context) error {
		works, err := g.src.FetchRecentWorks(ctx, externalID, limit)
		if err != nil {
			return err
		}
		out = works
		return nil
	})
	return out, err
}

func (g *Gated) do(ctx context.Context, operation string, call func(context.Context) error) error {
	start := time.Now()
	attempts := 0

	attempt := func() error {
		attempts++
		if err := g.limiter.Wait(ctx); err != nil {
			return backoff.Permanent(fmt.Errorf("rate gate: %w", err))
		}

		callCtx, cancel := context.WithTimeout(ctx, g.policy.Timeout)
		defer cancel()

		err := call(callCtx)
		switch {
		case err == nil:
			return nil
		case ctx.Err() != nil:
			return backoff.Permanent(ctx.Err())
		case IsRetriable(err):
			return err
		default:
			return backoff.Permanent(err)
		}
	}

	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = g.policy.InitialBackoff
	exp.MaxInterval = g.policy.MaxBackoff
	exp.MaxElapsedTime = 0
	schedule := backoff.WithContext(backoff.WithMaxRetries(exp, uint64(g.policy.MaxAttempts-1)), ctx)

	err := backoff.RetryNotify(attempt, schedule, func(err error, wait time.Duration) {
		g.metrics.IncrementRetry(operation)
		g.logger.Warn("retrying metadata fetch",
			"operation", operation,
			"attempt", attempts,
			"wait", wait,
			"error", err,
		)
	})
	g.metrics.ObserveFetch(operation, time.Since(start), err)

	if err != nil && IsRetriable(err) {
		return fmt.Errorf("%s gave up after %d attempts: %w", operation, attempts, err)
	}
	return err
}

// IsRetriable reports whether err represents a transient condition that warrants an
// automatic retry (rate limits, server errors, timeouts, connection errors).
func IsRetriable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, domain.ErrTransientFetch) {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
