package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"AffiliationChecker/internal/domain"
	"AffiliationChecker/internal/metrics"
	"AffiliationChecker/internal/screening"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func history(name, country string, start, end int) domain.AffiliationRecord {
	return domain.AffiliationRecord{
		InstitutionName: name,
		CountryCode:     country,
		YearStart:       start,
		YearEnd:         end,
		Source:          domain.SourceProfileHistory,
	}
}

func testEngine(t *testing.T) *screening.Engine {
	t.Helper()

	engine, err := screening.NewEngine(screening.Rules{
		Targets:  domain.NewCountrySet("IR", "IL"),
		MaxWorks: 30,
		Patterns: screening.NewPatternFilter([]string{"ministry of"}),
	})
	require.NoError(t, err)
	return engine
}

func roster() []domain.Candidate {
	return []domain.Candidate{
		{Row: 2, FirstName: "Wei", LastName: "Jiang", ExternalID: "A1"},
		{Row: 3, FirstName: "Ann", LastName: "Lee", ExternalID: "A2"},
		{Row: 4, FirstName: "Bob", LastName: "Stone", ExternalID: "A3"},
		{Row: 5, LastName: "Smith"},
		{Row: 6, FirstName: "John", LastName: "Doe", ExternalID: "A404"},
		{Row: 7, FirstName: "Maria", LastName: "Garcia"},
		{Row: 8, FirstName: "Eve", LastName: "Adams", ExternalID: "A5"},
	}
}

func testFetcher() *fakeFetcher {
	return &fakeFetcher{
		profiles: map[string]domain.AuthorProfile{
			"A1": {ExternalID: "A1", CanonicalName: "Wei Jiang", Affiliations: []domain.AffiliationRecord{
				history("University of Tehran", "IR", 2014, 2016),
				history("Stanford University", "US", 2019, 2024),
			}},
			"A2": {ExternalID: "A2", CanonicalName: "Ann Lee", Affiliations: []domain.AffiliationRecord{
				history("Stanford University", "US", 2015, 2024),
			}},
			"A3": {ExternalID: "A3", CanonicalName: "Bob Stone", Affiliations: []domain.AffiliationRecord{
				history("Ministry of Health", "IR", 2010, 2011),
			}},
			"A5": {ExternalID: "A5", CanonicalName: "Eve Adams"},
		},
		works: map[string][]domain.WorkRecord{
			"A2": {{WorkID: "W1", Year: 2022, CoauthorAffiliations: []domain.CoauthorAffiliation{
				{CoauthorID: "A2", CoauthorName: "Ann Lee", Affiliation: history("Technion", "IL", 2022, 2022)},
				{CoauthorID: "A77", CoauthorName: "Ali Rezaei", Affiliation: history("Sharif University of Technology", "IR", 2022, 2022)},
			}}},
		},
		searches: map[string][]domain.AuthorProfile{
			"Maria Garcia": {
				{ExternalID: "A10", CanonicalName: "Maria Garcia", Affiliations: []domain.AffiliationRecord{history("UNAM", "MX", 2010, 2020)}},
				{ExternalID: "A11", CanonicalName: "Maria Garcia", Affiliations: []domain.AffiliationRecord{history("Universidad de Chile", "CL", 2012, 2021)}},
			},
		},
		failWorks: map[string]bool{"A5": true},
	}
}

func TestRunScreensRoster(t *testing.T) {
	t.Parallel()

	sink := &memorySink{}
	repo := newMemoryRepository()
	notifier := &captureNotifier{}
	m := metrics.New()
	runner, err := NewRunner(RunnerDeps{
		Candidates: staticRoster{candidates: roster()},
		Fetcher:    testFetcher(),
		Engine:     testEngine(t),
		Sink:       sink,
		Repository: repo,
		Notifier:   notifier,
		Metrics:    m,
		Workers:    3,
		NewRunID:   func() string { return "run-1" },
	})
	require.NoError(t, err)

	summary, err := runner.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "run-1", summary.RunID)
	assert.Equal(t, 7, summary.Total)
	assert.Equal(t, 7, summary.Screened)
	assert.Equal(t, 1, summary.Direct)
	assert.Equal(t, 1, summary.Indirect)
	assert.Equal(t, 1, summary.Clean)
	assert.Equal(t, 4, summary.Skipped)
	assert.False(t, summary.Interrupted)
	require.Len(t, summary.Flagged, 2)
	assert.Equal(t, 2, summary.Flagged[0].Candidate.Row)
	assert.Equal(t, 3, summary.Flagged[1].Candidate.Row)

	rows := sink.byRow()
	require.Len(t, rows, 7)

	assert.Equal(t, domain.AffiliationDirect, rows[2].Type)
	assert.Equal(t, []string{"University of Tehran [IR] (2014-2016)"}, rows[2].Evidence())

	assert.Equal(t, domain.AffiliationIndirect, rows[3].Type)
	assert.Equal(t, []string{"Co-author: Ali Rezaei at Sharif University of Technology [IR] (2022)"}, rows[3].Evidence())

	assert.Equal(t, domain.AffiliationNone, rows[4].Type, "generic ministry record is ignored")

	assert.Equal(t, domain.ReasonMalformedInput, rows[5].Reason)
	assert.Equal(t, "Error: row 5 missing first name", rows[5].EvidenceText())

	assert.Equal(t, domain.ReasonNotFound, rows[6].Reason)
	assert.Equal(t, "Skipped: Not Found", rows[6].EvidenceText())

	assert.Equal(t, domain.ReasonAmbiguous, rows[7].Reason)
	assert.Equal(t, "Skipped: Ambiguous, 2 candidates", rows[7].EvidenceText())

	assert.Equal(t, domain.ReasonFetchFailed, rows[8].Reason)
	assert.Equal(t, "Skipped: Fetch Failed", rows[8].EvidenceText())
	assert.Equal(t, "Eve Adams", rows[8].MatchedName)

	assert.Len(t, repo.saved, 5, "fetch failures and malformed rows are not stored")
	assert.NotContains(t, repo.saved, "A5")

	require.Len(t, notifier.digests, 1)
	assert.Contains(t, notifier.digests[0], "Row 2: Wei Jiang (Direct)")
	assert.Contains(t, notifier.digests[0], "Row 3: Ann Lee (Indirect (Co-author))")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Verdicts.WithLabelValues("Direct", "")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Verdicts.WithLabelValues("Skipped", "Ambiguous")))
}

func TestRunResumeSkipsStoredCandidates(t *testing.T) {
	t.Parallel()

	fetcher := testFetcher()
	sink := &memorySink{}
	runner, err := NewRunner(RunnerDeps{
		Candidates: staticRoster{candidates: roster()[:3]},
		Fetcher:    fetcher,
		Engine:     testEngine(t),
		Sink:       sink,
		Repository: newMemoryRepository("A1", "A2"),
		Resume:     true,
	})
	require.NoError(t, err)

	summary, err := runner.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Resumed)
	assert.Equal(t, 1, summary.Screened)
	assert.Equal(t, int32(1), fetcher.profileCalls.Load())
	assert.Contains(t, sink.byRow(), 4)
}

func TestRunWithoutResumeScreensEverything(t *testing.T) {
	t.Parallel()

	sink := &memorySink{}
	runner, err := NewRunner(RunnerDeps{
		Candidates: staticRoster{candidates: roster()[:3]},
		Fetcher:    testFetcher(),
		Engine:     testEngine(t),
		Sink:       sink,
		Repository: newMemoryRepository("A1", "A2"),
	})
	require.NoError(t, err)

	summary, err := runner.Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, summary.Resumed)
	assert.Len(t, sink.byRow(), 3)
}

func TestRunStopsOnCancellation(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	fetcher := testFetcher()
	fetcher.onFetch = cancel
	sink := &memorySink{}
	notifier := &captureNotifier{}
	runner, err := NewRunner(RunnerDeps{
		Candidates: staticRoster{candidates: roster()},
		Fetcher:    fetcher,
		Engine:     testEngine(t),
		Sink:       sink,
		Notifier:   notifier,
		Workers:    1,
	})
	require.NoError(t, err)

	summary, err := runner.Run(ctx)
	require.NoError(t, err)
	assert.True(t, summary.Interrupted)
	assert.Empty(t, sink.byRow(), "a candidate cancelled mid-fetch gets no row")
	assert.Equal(t, int32(1), fetcher.profileCalls.Load())
	assert.Empty(t, notifier.digests)
}

func TestRunFailsWhenSinkRejectsRows(t *testing.T) {
	t.Parallel()

	boom := errors.New("disk full")
	runner, err := NewRunner(RunnerDeps{
		Candidates: staticRoster{candidates: roster()},
		Fetcher:    testFetcher(),
		Engine:     testEngine(t),
		Sink:       &memorySink{err: boom},
		Workers:    2,
	})
	require.NoError(t, err)

	_, err = runner.Run(context.Background())
	assert.ErrorIs(t, err, boom)
}

func TestRunFailsWhenRosterUnreadable(t *testing.T) {
	t.Parallel()

	runner, err := NewRunner(RunnerDeps{
		Candidates: staticRoster{err: domain.ErrMalformedInput},
		Fetcher:    testFetcher(),
		Engine:     testEngine(t),
		Sink:       &memorySink{},
	})
	require.NoError(t, err)

	_, err = runner.Run(context.Background())
	assert.ErrorIs(t, err, domain.ErrMalformedInput)
}

func TestNewRunnerRequiresDependencies(t *testing.T) {
	t.Parallel()

	_, err := NewRunner(RunnerDeps{Sink: &memorySink{}})
	assert.Error(t, err)
}

func TestSummaryPercentAndDigest(t *testing.T) {
	t.Parallel()

	var s Summary
	assert.Zero(t, s.Percent(1))

	c := domain.Candidate{Row: 9, FirstName: "Wei", LastName: "Jiang"}
	s.RunID = "r"
	s.record(domain.NewVerdict(c, domain.AffiliationDirect, domain.ReasonNone, domain.TierUnchecked, []string{"A [IR] (2014-2014)"}))
	s.record(domain.NewVerdict(c, domain.AffiliationNone, domain.ReasonNone, domain.TierUnchecked, nil))
	s.record(domain.NewVerdict(c, domain.AffiliationNone, domain.ReasonNone, domain.TierUnchecked, nil))
	s.record(domain.NewVerdict(c, domain.AffiliationSkipped, domain.ReasonNotFound, domain.TierUnchecked, nil))

	assert.InDelta(t, 50.0, s.Percent(s.Clean), 1e-9)
	assert.InDelta(t, 25.0, s.Percent(len(s.Flagged)), 1e-9)
	digest := s.Digest()
	assert.Contains(t, digest, "1 of 4 screened candidates flagged")
	assert.Contains(t, digest, "Row 9: Wei Jiang (Direct)\nA [IR] (2014-2014)")
	assert.Contains(t, digest, domain.ReviewNotice)
}
