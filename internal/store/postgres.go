package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/akinsgre/paddlepartner-waterways/internal/db"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
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

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}

	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS water_bodies (
	id              TEXT PRIMARY KEY,
	name            TEXT NOT NULL,
	name_normalized TEXT NOT NULL,
	type_tag        TEXT,
	latitude        DOUBLE PRECISION NOT NULL,
	longitude       DOUBLE PRECISION NOT NULL,
	source          TEXT NOT NULL,
	source_id       TEXT,
	created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_water_bodies_name ON water_bodies(name_normalized);
CREATE INDEX IF NOT EXISTS idx_water_bodies_lat_lng ON water_bodies(latitude, longitude);
CREATE UNIQUE INDEX IF NOT EXISTS idx_water_bodies_source ON water_bodies(source, source_id);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

// Pool exposes the underlying pool for bulk-load helpers.
func (s *PostgresStore) Pool() db.Pool {
	return s.pool
}

var waterBodyColumns = []string{
	"id", "name", "name_normalized", "type_tag",
	"latitude", "longitude", "source", "source_id",
	"created_at", "updated_at",
}

func (s *PostgresStore) UpsertWaterBodies(ctx context.Context, bodies []WaterBody) (int64, error) {
	if len(bodies) == 0 {
		return 0, nil
	}

	now := time.Now().UTC()
	rows := make([][]any, 0, len(bodies))
	for _, wb := range bodies {
		if wb.ID == "" {
			wb.ID = uuid.New().String()
		}
		if wb.SourceID == "" {
			wb.SourceID = wb.ID
		}
		rows = append(rows, []any{
			wb.ID, wb.Name, NormalizeName(wb.Name), wb.TypeTag,
			wb.Latitude, wb.Longitude, wb.Source, wb.SourceID, now, now,
		})
	}

	n, err := db.BulkUpsert(ctx, s.pool, db.UpsertConfig{
		Table:        "water_bodies",
		Columns:      waterBodyColumns,
		ConflictKeys: []string{"source", "source_id"},
		UpdateCols:   []string{"name", "name_normalized", "type_tag", "latitude", "longitude", "updated_at"},
	}, rows)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: upsert water bodies")
	}
	return n, nil
}

func (s *PostgresStore) SearchNear(ctx context.Context, lat, lng, radiusMeters float64, limit int) ([]WaterBody, error) {
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	minLat, maxLat, minLng, maxLng := boundingBox(lat, lng, radiusMeters)

	rows, err := s.pool.Query(ctx, `
		SELECT id, name, type_tag, latitude, longitude, source, source_id, created_at, updated_at
		FROM water_bodies
		WHERE latitude BETWEEN $1 AND $2 AND longitude BETWEEN $3 AND $4`,
		minLat, maxLat, minLng, maxLng,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: search near")
	}
	defer rows.Close()

	var bodies []WaterBody
	for rows.Next() {
		wb, err := scanPgWaterBody(rows)
		if err != nil {
			return nil, err
		}
		bodies = append(bodies, wb)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "postgres: iterate water bodies")
	}

	return refineByDistance(bodies, lat, lng, radiusMeters, limit), nil
}

func (s *PostgresStore) SearchByName(ctx context.Context, name string, limit int) ([]WaterBody, error) {
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	rows, err := s.pool.Query(ctx, `
		SELECT id, name, type_tag, latitude, longitude, source, source_id, created_at, updated_at
		FROM water_bodies
		WHERE name_normalized LIKE '%' || $1 || '%'
		ORDER BY name
		LIMIT $2`,
		NormalizeName(name), limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: search by name")
	}
	defer rows.Close()

	var bodies []WaterBody
	for rows.Next() {
		wb, err := scanPgWaterBody(rows)
		if err != nil {
			return nil, err
		}
		bodies = append(bodies, wb)
	}
	return bodies, eris.Wrap(rows.Err(), "postgres: iterate water bodies")
}

func (s *PostgresStore) ListWaterBodies(ctx context.Context, limit, offset int) ([]WaterBody, error) {
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	rows, err := s.pool.Query(ctx, `
		SELECT id, name, type_tag, latitude, longitude, source, source_id, created_at, updated_at
		FROM water_bodies
		ORDER BY name, id
		LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list water bodies")
	}
	defer rows.Close()

	var bodies []WaterBody
	for rows.Next() {
		wb, err := scanPgWaterBody(rows)
		if err != nil {
			return nil, err
		}
		bodies = append(bodies, wb)
	}
	return bodies, eris.Wrap(rows.Err(), "postgres: iterate water bodies")
}

func (s *PostgresStore) CountWaterBodies(ctx context.Context) (int64, error) {
	var n int64
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM water_bodies`).Scan(&n)
	return n, eris.Wrap(err, "postgres: count water bodies")
}

type pgScannable interface {
	Scan(dest ...any) error
}

func scanPgWaterBody(row pgScannable) (WaterBody, error) {
	var wb WaterBody
	var typeTag, sourceID *string
	if err := row.Scan(
		&wb.ID, &wb.Name, &typeTag, &wb.Latitude, &wb.Longitude,
		&wb.Source, &sourceID, &wb.CreatedAt, &wb.UpdatedAt,
	); err != nil {
		return WaterBody{}, eris.Wrap(err, "postgres: scan water body")
	}
	if typeTag != nil {
		wb.TypeTag = *typeTag
	}
	if sourceID != nil {
		wb.SourceID = *sourceID
	}
	return wb, nil
}
