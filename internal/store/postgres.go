package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/ewkb"

	"github.com/OykuInAction/bluethumb-validation-OykuInAction/internal/db"
	"github.com/OykuInAction/bluethumb-validation-OykuInAction/internal/model"
)

// PostgresStore implements Store using a pgx connection pool. Pairs are
// written with COPY, and site coordinates are stored as EWKB points (SRID
// 4326) so they can be queried from PostGIS without conversion.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig tunes the connection pool. Zero values fall back to defaults
// sized for a single CLI or API process.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

const (
	saveRunSQL = `INSERT INTO runs (id, status, config, volunteer_count, professional_count, pair_count, summary, error, created_at, updated_at)
	 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	 ON CONFLICT (id) DO UPDATE SET
	   status = $2, config = $3, volunteer_count = $4, professional_count = $5,
	   pair_count = $6, summary = $7, error = $8, updated_at = $10`

	updateRunStatusSQL = `UPDATE runs SET status = $1, error = $2, updated_at = $3 WHERE id = $4`

	getRunSQL = `SELECT id, status, config, volunteer_count, professional_count, pair_count, summary, error, created_at, updated_at
	 FROM runs WHERE id = $1`

	countPairsSQL = `SELECT COUNT(*) FROM matched_pairs WHERE run_id = $1`
)

// preparedStatements is registered on every new pool connection. These are
// the queries the API server runs on each request.
var preparedStatements = map[string]string{
	"save_run":          saveRunSQL,
	"update_run_status": updateRunStatusSQL,
	"get_run":           getRunSQL,
	"count_pairs":       countPairsSQL,
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS runs (
	id                 TEXT PRIMARY KEY,
	status             TEXT NOT NULL,
	config             JSONB NOT NULL,
	volunteer_count    INTEGER NOT NULL DEFAULT 0,
	professional_count INTEGER NOT NULL DEFAULT 0,
	pair_count         INTEGER NOT NULL DEFAULT 0,
	summary            JSONB,
	error              TEXT NOT NULL DEFAULT '',
	created_at         TIMESTAMPTZ NOT NULL,
	updated_at         TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS matched_pairs (
	id              TEXT PRIMARY KEY,
	run_id          TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	seq             INTEGER NOT NULL,
	vol_site_id     TEXT NOT NULL,
	vol_org         TEXT NOT NULL,
	vol_lat         DOUBLE PRECISION NOT NULL,
	vol_lon         DOUBLE PRECISION NOT NULL,
	vol_time        TIMESTAMPTZ NOT NULL,
	vol_value       DOUBLE PRECISION NOT NULL,
	vol_units       TEXT NOT NULL DEFAULT '',
	vol_point       BYTEA,
	pro_site_id     TEXT NOT NULL,
	pro_org         TEXT NOT NULL,
	pro_lat         DOUBLE PRECISION NOT NULL,
	pro_lon         DOUBLE PRECISION NOT NULL,
	pro_time        TIMESTAMPTZ NOT NULL,
	pro_value       DOUBLE PRECISION NOT NULL,
	pro_units       TEXT NOT NULL DEFAULT '',
	pro_point       BYTEA,
	distance_m      DOUBLE PRECISION NOT NULL,
	time_diff_hours DOUBLE PRECISION NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);
CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at);
CREATE INDEX IF NOT EXISTS idx_pairs_run_seq ON matched_pairs(run_id, seq);
`

// NewPostgres connects to Postgres, verifies the connection, and creates the
// schema.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse connection string")
	}

	maxConns, minConns := int32(8), int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute
	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}

	s := &PostgresStore{pool: pool, closeFn: pool.Close}
	if _, err := pool.Exec(ctx, postgresMigration); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: migrate")
	}
	return s, nil
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) SaveRun(ctx context.Context, run *model.Run) error {
	fillRunDefaults(run)

	configJSON, err := json.Marshal(run.Config)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal run config")
	}
	var summaryJSON []byte
	if run.Summary != nil {
		summaryJSON, err = json.Marshal(run.Summary)
		if err != nil {
			return eris.Wrap(err, "postgres: marshal summary")
		}
	}

	_, err = s.pool.Exec(ctx, saveRunSQL,
		run.ID, string(run.Status), configJSON,
		run.VolunteerCount, run.ProfessionalCount, run.PairCount,
		summaryJSON, run.Error, run.CreatedAt, run.UpdatedAt,
	)
	return eris.Wrapf(err, "postgres: save run %s", run.ID)
}

func (s *PostgresStore) UpdateRunStatus(ctx context.Context, runID string, status model.RunStatus, errMsg string) error {
	tag, err := s.pool.Exec(ctx, updateRunStatusSQL,
		string(status), errMsg, time.Now().UTC(), runID)
	if err != nil {
		return eris.Wrapf(err, "postgres: update run status %s", runID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("run not found: %s", runID)
	}
	return nil
}

func (s *PostgresStore) GetRun(ctx context.Context, runID string) (*model.Run, error) {
	row := s.pool.QueryRow(ctx, getRunSQL, runID)
	r, err := scanRunPg(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return r, err
}

func (s *PostgresStore) ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error) {
	query := `SELECT id, status, config, volunteer_count, professional_count, pair_count, summary, error, created_at, updated_at FROM runs WHERE true`
	var args []any
	argIdx := 1

	if filter.Status != "" {
		query += fmt.Sprintf(` AND status = $%d`, argIdx)
		args = append(args, string(filter.Status))
		argIdx++
	}
	if !filter.CreatedAfter.IsZero() {
		query += fmt.Sprintf(` AND created_at > $%d`, argIdx)
		args = append(args, filter.CreatedAfter.UTC())
		argIdx++
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += fmt.Sprintf(` LIMIT $%d`, argIdx)
	args = append(args, limit)
	argIdx++

	if filter.Offset > 0 {
		query += fmt.Sprintf(` OFFSET $%d`, argIdx)
		args = append(args, filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list runs")
	}
	defer rows.Close()

	var runs []model.Run
	for rows.Next() {
		r, err := scanRunPg(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *r)
	}
	return runs, eris.Wrap(rows.Err(), "postgres: list runs iterate")
}

// pairColumns matches the COPY column order in SavePairs.
var pairColumns = []string{
	"id", "run_id", "seq",
	"vol_site_id", "vol_org", "vol_lat", "vol_lon", "vol_time", "vol_value", "vol_units", "vol_point",
	"pro_site_id", "pro_org", "pro_lat", "pro_lon", "pro_time", "pro_value", "pro_units", "pro_point",
	"distance_m", "time_diff_hours",
}

func (s *PostgresStore) SavePairs(ctx context.Context, runID string, pairs model.MatchResult) error {
	if len(pairs) == 0 {
		return nil
	}

	rows := make([][]any, 0, len(pairs))
	for i, p := range pairs {
		volPoint, err := pointEWKB(p.Volunteer.Longitude, p.Volunteer.Latitude)
		if err != nil {
			return err
		}
		proPoint, err := pointEWKB(p.Professional.Longitude, p.Professional.Latitude)
		if err != nil {
			return err
		}
		rows = append(rows, []any{
			uuid.New().String(), runID, i,
			p.Volunteer.SiteID, p.Volunteer.OrganizationID,
			p.Volunteer.Latitude, p.Volunteer.Longitude,
			p.Volunteer.Timestamp.UTC(), p.Volunteer.Value, p.Volunteer.Unit, volPoint,
			p.Professional.SiteID, p.Professional.OrganizationID,
			p.Professional.Latitude, p.Professional.Longitude,
			p.Professional.Timestamp.UTC(), p.Professional.Value, p.Professional.Unit, proPoint,
			p.DistanceM, p.TimeDiffHours,
		})
	}

	_, err := db.CopyFrom(ctx, s.pool, "matched_pairs", pairColumns, rows)
	return err
}

func (s *PostgresStore) ListPairs(ctx context.Context, runID string, limit, offset int) (model.MatchResult, error) {
	query := `SELECT vol_site_id, vol_org, vol_lat, vol_lon, vol_time, vol_value, vol_units,
	       pro_site_id, pro_org, pro_lat, pro_lon, pro_time, pro_value, pro_units,
	       distance_m, time_diff_hours
	FROM matched_pairs WHERE run_id = $1 ORDER BY seq`
	args := []any{runID}
	if limit > 0 {
		query += ` LIMIT $2 OFFSET $3`
		args = append(args, limit, offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: list pairs for run %s", runID)
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
			return nil, eris.Wrap(err, "postgres: scan pair")
		}
		pairs = append(pairs, p)
	}
	return pairs, eris.Wrap(rows.Err(), "postgres: list pairs iterate")
}

func (s *PostgresStore) CountPairs(ctx context.Context, runID string) (int, error) {
	var count int
	err := s.pool.QueryRow(ctx, countPairsSQL, runID).Scan(&count)
	return count, eris.Wrapf(err, "postgres: count pairs for run %s", runID)
}

// pointEWKB encodes a lon/lat pair as an EWKB point with SRID 4326.
func pointEWKB(lon, lat float64) ([]byte, error) {
	p := geom.NewPointFlat(geom.XY, []float64{lon, lat}).SetSRID(4326)
	data, err := ewkb.Marshal(p, ewkb.NDR)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: encode point")
	}
	return data, nil
}

func scanRunPg(row scannable) (*model.Run, error) {
	var r model.Run
	var configJSON []byte
	var summaryJSON []byte

	err := row.Scan(&r.ID, &r.Status, &configJSON,
		&r.VolunteerCount, &r.ProfessionalCount, &r.PairCount,
		&summaryJSON, &r.Error, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(configJSON, &r.Config); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal run config")
	}
	if len(summaryJSON) > 0 {
		r.Summary = &model.RegressionSummary{}
		if err := json.Unmarshal(summaryJSON, r.Summary); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal summary")
		}
	}
	return &r, nil
}
