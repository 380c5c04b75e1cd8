package usecase

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"AffiliationChecker/internal/domain"
)

type staticRoster struct {
	candidates []domain.Candidate
	err        error
}

func (s staticRoster) ReadCandidates(context.Context) ([]domain.Candidate, error) {
	return s.candidates, s.err
}

type fakeFetcher struct {
	profiles  map[string]domain.AuthorProfile
	works     map[string][]domain.WorkRecord
	searches  map[string][]domain.AuthorProfile
	failWorks map[string]bool
	onFetch   func()

	profileCalls atomic.Int32
	worksCalls   atomic.Int32
}

func (f *fakeFetcher) FetchAuthorProfile(ctx context.Context, id string) (domain.AuthorProfile, error) {
	f.profileCalls.Add(1)
	if f.onFetch != nil {
		f.onFetch()
	}
	if err := ctx.Err(); err != nil {
		return domain.AuthorProfile{}, err
	}
	p, ok := f.profiles[id]
	if !ok {
		return domain.AuthorProfile{}, domain.ErrNotFound
	}
	return p, nil
}

func (f *fakeFetcher) SearchAuthors(_ context.Context, name string) ([]domain.AuthorProfile, error) {
	return f.searches[name], nil
}

func (f *fakeFetcher) FetchRecentWorks(_ context.Context, id string, limit int) ([]domain.WorkRecord, error) {
	f.worksCalls.Add(1)
	if f.failWorks[id] {
		return nil, errors.New("works endpoint gave up after 4 attempts: transient fetch failure")
	}
	works := f.works[id]
	if len(works) > limit {
		works = works[:limit]
	}
	return works, nil
}

type memorySink struct {
	mu     sync.Mutex
	rows   []domain.Verdict
	err    error
	closed bool
}

func (s *memorySink) Write(v domain.Verdict) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.rows = append(s.rows, v)
	return nil
}

func (s *memorySink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *memorySink) byRow() map[int]domain.Verdict {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[int]domain.Verdict, len(s.rows))
	for _, v := range s.rows {
		out[v.Candidate.Row] = v
	}
	return out
}

type memoryRepository struct {
	mu    sync.Mutex
	done  map[string]bool
	saved map[string]string
}

func newMemoryRepository(done ...string) *memoryRepository {
	r := &memoryRepository{done: map[string]bool{}, saved: map[string]string{}}
	for _, key := range done {
		r.done[key] = true
	}
	return r
}

func (r *memoryRepository) AlreadyScreened(_ context.Context, keys []string) (map[string]bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := map[string]bool{}
	for _, k := range keys {
		if r.done[k] {
			out[k] = true
		}
	}
	return out, nil
}

func (r *memoryRepository) SaveVerdict(_ context.Context, runID string, v domain.Verdict) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saved[v.Candidate.Key()] = runID
	return nil
}

type captureNotifier struct {
	digests []string
}

func (n *captureNotifier) PublishDigest(_ context.Context, digest string) error {
	n.digests = append(n.digests, digest)
	return nil
}
