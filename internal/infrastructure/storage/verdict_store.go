package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"AffiliationChecker/internal/domain"
	"AffiliationChecker/internal/ports"
)

const table = "screened_candidates"

// VerdictStore persists verdicts in Postgres or SQLite so a run can skip rows an
// earlier run already finished.
type VerdictStore struct {
	db      *sql.DB
	builder sq.StatementBuilderType
	now     func() time.Time
}

var _ ports.VerdictRepository = (*VerdictStore)(nil)

// Open connects to dsn and creates the schema. postgres:// and postgresql:// URLs
// use lib/pq; anything else is treated as a SQLite file path.
func Open(ctx context.Context, dsn string) (*VerdictStore, error) {
	driver, placeholder := dialect(dsn)
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if driver == "sqlite" {
		// One writer at a time avoids SQLITE_BUSY between workers.
		db.SetMaxOpenConns(1)
	}

	store := NewVerdictStore(db, placeholder)
	if err := store.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// dialect picks the database/sql driver and the placeholder style for dsn.
func dialect(dsn string) (string, sq.PlaceholderFormat) {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		return "postgres", sq.Dollar
	}
	return "sqlite", sq.Question
}

// NewVerdictStore wires an existing sql.DB.
func NewVerdictStore(db *sql.DB, placeholder sq.PlaceholderFormat) *VerdictStore {
	return &VerdictStore{
		db:      db,
		builder: sq.StatementBuilder.PlaceholderFormat(placeholder),
		now:     time.Now,
	}
}

// Close releases the connection pool.
func (s *VerdictStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *VerdictStore) migrate(ctx context.Context) error {
	ddl := `CREATE TABLE IF NOT EXISTS ` + table + ` (
		candidate_key    TEXT PRIMARY KEY,
		run_id           TEXT NOT NULL,
		external_id      TEXT NOT NULL DEFAULT '',
		first_name       TEXT NOT NULL DEFAULT '',
		last_name        TEXT NOT NULL DEFAULT '',
		affiliation_type TEXT NOT NULL,
		reason           TEXT NOT NULL DEFAULT '',
		flagged          INTEGER NOT NULL DEFAULT 0,
		evidence         TEXT NOT NULL DEFAULT '',
		screened_at      TEXT NOT NULL
	)`
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create %s: %w", table, err)
	}
	return nil
}

// AlreadyScreened returns the subset of keys that have a stored verdict.
func (s *VerdictStore) AlreadyScreened(ctx context.Context, keys []string) (map[string]bool, error) {
	result := make(map[string]bool)
	if s == nil || s.db == nil || len(keys) == 0 {
		return result, nil
	}

	query, args, err := s.builder.
		Select("candidate_key").
		From(table).
		Where(sq.Eq{"candidate_key": keys}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build screened query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query screened: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("scan key: %w", err)
		}
		result[key] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return result, nil
}

// SaveVerdict upserts the verdict of one candidate.
func (s *VerdictStore) SaveVerdict(ctx context.Context, runID string, v domain.Verdict) error {
	if s == nil || s.db == nil {
		return nil
	}

	flagged := 0
	if v.Flag {
		flagged = 1
	}

	query, args, err := s.builder.
		Insert(table).
		Columns("candidate_key", "run_id", "external_id", "first_name", "last_name",
			"affiliation_type", "reason", "flagged", "evidence", "screened_at").
		Values(v.Candidate.Key(), runID, v.ExternalID, v.Candidate.FirstName, v.Candidate.LastName,
			v.Type.String(), v.Reason.String(), flagged, v.EvidenceText(), s.now().UTC().Format(time.RFC3339)).
		Suffix(`ON CONFLICT (candidate_key) DO UPDATE SET
			run_id = EXCLUDED.run_id,
			external_id = EXCLUDED.external_id,
			affiliation_type = EXCLUDED.affiliation_type,
			reason = EXCLUDED.reason,
			flagged = EXCLUDED.flagged,
			evidence = EXCLUDED.evidence,
			screened_at = EXCLUDED.screened_at`).
		ToSql()
	if err != nil {
		return fmt.Errorf("build upsert: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert verdict: %w", err)
	}
	return nil
}

// StoredVerdict is the persisted summary of one screening.
type StoredVerdict struct {
	Key             string
	RunID           string
	ExternalID      string
	AffiliationType string
	Reason          string
	Flagged         bool
	Evidence        string
	ScreenedAt      time.Time
}

// Lookup loads the stored verdict for key; ok is false when none exists.
func (s *VerdictStore) Lookup(ctx context.Context, key string) (StoredVerdict, bool, error) {
	query, args, err := s.builder.
		Select("candidate_key", "run_id", "external_id", "affiliation_type", "reason", "flagged", "evidence", "screened_at").
		From(table).
		Where(sq.Eq{"candidate_key": key}).
		ToSql()
	if err != nil {
		return StoredVerdict{}, false, fmt.Errorf("build lookup: %w", err)
	}

	var (
		out       StoredVerdict
		flagged   int
		timestamp string
	)
	err = s.db.QueryRowContext(ctx, query, args...).Scan(
		&out.Key, &out.RunID, &out.ExternalID, &out.AffiliationType, &out.Reason, &flagged, &out.Evidence, &timestamp)
	if errors.Is(err, sql.ErrNoRows) {
		return StoredVerdict{}, false, nil
	}
	if err != nil {
		return StoredVerdict{}, false, fmt.Errorf("lookup %s: %w", key, err)
	}
	out.Flagged = flagged == 1
	if out.ScreenedAt, err = time.Parse(time.RFC3339, timestamp); err != nil {
		return StoredVerdict{}, false, fmt.Errorf("parse screened_at: %w", err)
	}
	return out, true, nil
}
