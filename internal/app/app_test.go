package app

import (
	"context"
	"encoding/csv"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"AffiliationChecker/internal/config"
	"AffiliationChecker/internal/domain"
	"AffiliationChecker/internal/logging"
)

func fakeOpenAlex(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/authors/A1", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id": "https://openalex.org/A1", "display_name": "Wei Jiang",
		  "affiliations": [{"institution": {"id": "I1", "display_name": "University of Tehran", "country_code": "IR"}, "years": [2014, 2016]}]}`))
	})
	mux.HandleFunc("/authors/A2", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id": "A2", "display_name": "Ann Lee",
		  "affiliations": [{"institution": {"id": "I2", "display_name": "Stanford University", "country_code": "US"}, "years": [2015]}]}`))
	})
	mux.HandleFunc("/authors/A3", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id": "A3", "display_name": "Lina Haddad",
		  "affiliations": [{"institution": {"id": "I3", "display_name": "Technion Israel Institute of Technology", "country_code": "IL"}, "years": [2019, 2021]}]}`))
	})
	mux.HandleFunc("/works", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"results": []}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func testConfig(t *testing.T, baseURL string) config.Config {
	t.Helper()

	dir := t.TempDir()
	input := filepath.Join(dir, "Data.csv")
	require.NoError(t, os.WriteFile(input, []byte(
		"First Name,Last Name,OpenAlex_ID,Current Institution\n"+
			"Wei,Jiang,A1,\n"+
			"Ann,Lee,A2,Stanford University\n"+
			"Nobody,Known,A404,\n"), 0o600))

	return config.Config{
		Screening: config.ScreeningConfig{
			TargetCountries: []string{"IR", "IL"},
			MaxWorks:        30,
			GenericPatterns: []string{"ministry of"},
		},
		Source: config.SourceConfig{
			Name:        "openalex",
			BaseURL:     baseURL,
			Timeout:     5 * time.Second,
			Burst:       1,
			MaxAttempts: 2,
			SearchLimit: 10,
		},
		Run: config.RunConfig{
			Input:   input,
			Output:  filepath.Join(dir, "Vetted_Output.csv"),
			Workers: 2,
		},
		Database: config.DatabaseConfig{DSN: filepath.Join(dir, "history.db")},
		Metrics:  config.MetricsConfig{Textfile: filepath.Join(dir, "checker.prom")},
	}
}

func TestApplicationRun(t *testing.T) {
	t.Parallel()

	srv := fakeOpenAlex(t)
	cfg := testConfig(t, srv.URL)

	application, err := New(context.Background(), cfg, logging.Discard())
	require.NoError(t, err)

	summary, err := application.Run(context.Background())
	require.NoError(t, err)
	require.NoError(t, application.Close())

	assert.Equal(t, 3, summary.Screened)
	assert.Equal(t, 1, summary.Direct)
	assert.Equal(t, 1, summary.Clean)
	assert.Equal(t, 1, summary.Skipped)

	file, err := os.Open(cfg.Run.Output)
	require.NoError(t, err)
	defer file.Close()
	rows, err := csv.NewReader(file).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 4)

	byRow := map[string][]string{}
	for _, row := range rows[1:] {
		byRow[row[0]] = row
	}
	assert.Equal(t, "Yes", byRow["2"][7])
	assert.Equal(t, "University of Tehran [IR] (2014-2016)", byRow["2"][9])
	assert.Equal(t, "Verified", byRow["3"][6])
	assert.Equal(t, "Skipped: Not Found", byRow["4"][9])

	prom, err := os.ReadFile(cfg.Metrics.Textfile)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(prom), "affiliation_checker_verdicts_total"))

	// A resumed run over the same roster screens nothing new.
	cfg.Run.Resume = true
	cfg.Run.Output = filepath.Join(t.TempDir(), "second.csv")
	resumed, err := New(context.Background(), cfg, logging.Discard())
	require.NoError(t, err)
	second, err := resumed.Run(context.Background())
	require.NoError(t, err)
	require.NoError(t, resumed.Close())
	assert.Equal(t, 3, second.Resumed)
	assert.Zero(t, second.Screened)
}

func readOutput(t *testing.T, path string) [][]string {
	t.Helper()

	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()
	rows, err := csv.NewReader(file).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestApplicationResumeAppendsToOutput(t *testing.T) {
	t.Parallel()

	srv := fakeOpenAlex(t)
	cfg := testConfig(t, srv.URL)

	first, err := New(context.Background(), cfg, logging.Discard())
	require.NoError(t, err)
	_, err = first.Run(context.Background())
	require.NoError(t, err)
	require.NoError(t, first.Close())
	before := readOutput(t, cfg.Run.Output)
	require.Len(t, before, 4)

	roster, err := os.OpenFile(cfg.Run.Input, os.O_APPEND|os.O_WRONLY, 0)
	require.NoError(t, err)
	_, err = roster.WriteString("Lina,Haddad,A3,\n")
	require.NoError(t, err)
	require.NoError(t, roster.Close())

	cfg.Run.Resume = true
	resumed, err := New(context.Background(), cfg, logging.Discard())
	require.NoError(t, err)
	summary, err := resumed.Run(context.Background())
	require.NoError(t, err)
	require.NoError(t, resumed.Close())
	assert.Equal(t, 3, summary.Resumed)
	assert.Equal(t, 1, summary.Screened)

	after := readOutput(t, cfg.Run.Output)
	require.Len(t, after, 5)
	assert.Equal(t, before, after[:4])
	assert.Equal(t, "5", after[4][0])
	assert.Equal(t, "Yes", after[4][7])
	assert.Equal(t, "Technion Israel Institute of Technology [IL] (2019-2021)", after[4][9])
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t, "http://127.0.0.1:0")
	cfg.Screening.TargetCountries = nil
	_, err := New(context.Background(), cfg, logging.Discard())
	assert.ErrorIs(t, err, domain.ErrInvalidConfig)

	cfg = testConfig(t, "http://127.0.0.1:0")
	cfg.Source.Name = "orcid"
	_, err = New(context.Background(), cfg, logging.Discard())
	require.ErrorIs(t, err, domain.ErrInvalidConfig)
	assert.Contains(t, err.Error(), "orcid")
}
