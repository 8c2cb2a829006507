package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/OykuInAction/bluethumb-validation-OykuInAction/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path, configures WAL mode,
// and creates the schema.
func NewSQLite(ctx context.Context, dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	if _, err := db.ExecContext(ctx, sqliteMigration); err != nil {
		db.Close()
		return nil, eris.Wrap(err, "sqlite: migrate")
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS runs (
	id                 TEXT PRIMARY KEY,
	status             TEXT NOT NULL,
	config             TEXT NOT NULL,
	volunteer_count    INTEGER NOT NULL DEFAULT 0,
	professional_count INTEGER NOT NULL DEFAULT 0,
	pair_count         INTEGER NOT NULL DEFAULT 0,
	summary            TEXT,
	error              TEXT NOT NULL DEFAULT '',
	created_at         DATETIME NOT NULL,
	updated_at         DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS matched_pairs (
	id              TEXT PRIMARY KEY,
	run_id          TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	seq             INTEGER NOT NULL,
	vol_site_id     TEXT NOT NULL,
	vol_org         TEXT NOT NULL,
	vol_lat         REAL NOT NULL,
	vol_lon         REAL NOT NULL,
	vol_time        DATETIME NOT NULL,
	vol_value       REAL NOT NULL,
	vol_units       TEXT NOT NULL DEFAULT '',
	pro_site_id     TEXT NOT NULL,
	pro_org         TEXT NOT NULL,
	pro_lat         REAL NOT NULL,
	pro_lon         REAL NOT NULL,
	pro_time        DATETIME NOT NULL,
	pro_value       REAL NOT NULL,
	pro_units       TEXT NOT NULL DEFAULT '',
	distance_m      REAL NOT NULL,
	time_diff_hours REAL NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);
CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at);
CREATE INDEX IF NOT EXISTS idx_pairs_run_seq ON matched_pairs(run_id, seq);
`

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) SaveRun(ctx context.Context, run *model.Run) error {
	fillRunDefaults(run)

	configJSON, err := json.Marshal(run.Config)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal run config")
	}
	var summaryJSON any
	if run.Summary != nil {
		b, err := json.Marshal(run.Summary)
		if err != nil {
			return eris.Wrap(err, "sqlite: marshal summary")
		}
		summaryJSON = string(b)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO runs (id, status, config, volunteer_count, professional_count, pair_count, summary, error, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   status = excluded.status, config = excluded.config,
		   volunteer_count = excluded.volunteer_count,
		   professional_count = excluded.professional_count,
		   pair_count = excluded.pair_count, summary = excluded.summary,
		   error = excluded.error, updated_at = excluded.updated_at`,
		run.ID, string(run.Status), string(configJSON),
		run.VolunteerCount, run.ProfessionalCount, run.PairCount,
		summaryJSON, run.Error, run.CreatedAt, run.UpdatedAt,
	)
	return eris.Wrapf(err, "sqlite: save run %s", run.ID)
}

func (s *SQLiteStore) UpdateRunStatus(ctx context.Context, runID string, status model.RunStatus, errMsg string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, error = ?, updated_at = ? WHERE id = ?`,
		string(status), errMsg, time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update run status %s", runID)
	}
	return checkRowsAffected(res, "run", runID)
}

func (s *SQLiteStore) GetRun(ctx context.Context, runID string) (*model.Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, status, config, volunteer_count, professional_count, pair_count, summary, error, created_at, updated_at
		 FROM runs WHERE id = ?`,
		runID,
	)
	return scanRun(row)
}

func (s *SQLiteStore) ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error) {
	query := `SELECT id, status, config, volunteer_count, professional_count, pair_count, summary, error, created_at, updated_at FROM runs WHERE 1=1`
	var args []any

	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}
	if !filter.CreatedAfter.IsZero() {
		query += ` AND created_at > ?`
		args = append(args, filter.CreatedAfter.UTC())
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list runs")
	}
	defer rows.Close()

	var runs []model.Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *r)
	}
	return runs, eris.Wrap(rows.Err(), "sqlite: list runs iterate")
}

func (s *SQLiteStore) SavePairs(ctx context.Context, runID string, pairs model.MatchResult) error {
	if len(pairs) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin pairs tx")
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO matched_pairs (
			id, run_id, seq,
			vol_site_id, vol_org, vol_lat, vol_lon, vol_time, vol_value, vol_units,
			pro_site_id, pro_org, pro_lat, pro_lon, pro_time, pro_value, pro_units,
			distance_m, time_diff_hours
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return eris.Wrap(err, "sqlite: prepare pair insert")
	}
	defer stmt.Close() //nolint:errcheck

	for i, p := range pairs {
		_, err := stmt.ExecContext(ctx,
			uuid.New().String(), runID, i,
			p.Volunteer.SiteID, p.Volunteer.OrganizationID,
			p.Volunteer.Latitude, p.Volunteer.Longitude,
			p.Volunteer.Timestamp.UTC(), p.Volunteer.Value, p.Volunteer.Unit,
			p.Professional.SiteID, p.Professional.OrganizationID,
			p.Professional.Latitude, p.Professional.Longitude,
			p.Professional.Timestamp.UTC(), p.Professional.Value, p.Professional.Unit,
			p.DistanceM, p.TimeDiffHours,
		)
		if err != nil {
			return eris.Wrapf(err, "sqlite: insert pair %d for run %s", i, runID)
		}
	}

	return eris.Wrap(tx.Commit(), "sqlite: commit pairs")
}

func (s *SQLiteStore) ListPairs(ctx context.Context, runID string, limit, offset int) (model.MatchResult, error) {
	query := `SELECT vol_site_id, vol_org, vol_lat, vol_lon, vol_time, vol_value, vol_units,
	       pro_site_id, pro_org, pro_lat, pro_lon, pro_time, pro_value, pro_units,
	       distance_m, time_diff_hours
	FROM matched_pairs WHERE run_id = ? ORDER BY seq`
	args := []any{runID}
	if limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, limit, offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: list pairs for run %s", runID)
	}
	defer rows.Close()

	pairs := model.MatchResult{}
	for rows.Next() {
		var p model.MatchedPair
		err := rows.Scan(
			&p.Volunteer.SiteID, &p.Volunteer.OrganizationID,
			&p.Volunteer.Latitude, &p.Volunteer.Longitude,
			&p.Volunteer.Timestamp, &p.Volunteer.Value, &p.Volunteer.Unit,
			&p.Professional.SiteID, &p.Professional.OrganizationID,
			&p.Professional.Latitude, &p.Professional.Longitude,
			&p.Professional.Timestamp, &p.Professional.Value, &p.Professional.Unit,
			&p.DistanceM, &p.TimeDiffHours,
		)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan pair")
		}
		pairs = append(pairs, p)
	}
	return pairs, eris.Wrap(rows.Err(), "sqlite: list pairs iterate")
}

func (s *SQLiteStore) CountPairs(ctx context.Context, runID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM matched_pairs WHERE run_id = ?`, runID,
	).Scan(&count)
	return count, eris.Wrapf(err, "sqlite: count pairs for run %s", runID)
}

// helpers

// fillRunDefaults assigns an id and timestamps to a run about to be saved.
func fillRunDefaults(run *model.Run) {
	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	if run.CreatedAt.IsZero() {
		run.CreatedAt = now
	}
	run.UpdatedAt = now
}

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Errorf("%s not found: %s", entity, id)
	}
	return nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanRun(row scannable) (*model.Run, error) {
	var r model.Run
	var configJSON string
	var summaryJSON sql.NullString

	err := row.Scan(&r.ID, &r.Status, &configJSON,
		&r.VolunteerCount, &r.ProfessionalCount, &r.PairCount,
		&summaryJSON, &r.Error, &r.CreatedAt, &r.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan run")
	}

	if err := json.Unmarshal([]byte(configJSON), &r.Config); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal run config")
	}
	if summaryJSON.Valid {
		r.Summary = &model.RegressionSummary{}
		if err := json.Unmarshal([]byte(summaryJSON.String), r.Summary); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal summary")
		}
	}
	return &r, nil
}
