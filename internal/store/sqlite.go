package store

import (
	"context"
	"database/sql"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/akinsgre/paddlepartner-waterways/internal/waterbody"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS water_bodies (
	id              TEXT PRIMARY KEY,
	name            TEXT NOT NULL,
	name_normalized TEXT NOT NULL,
	type_tag        TEXT,
	latitude        REAL NOT NULL,
	longitude       REAL NOT NULL,
	source          TEXT NOT NULL,
	source_id       TEXT,
	created_at      DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at      DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_water_bodies_name ON water_bodies(name_normalized);
CREATE INDEX IF NOT EXISTS idx_water_bodies_lat ON water_bodies(latitude);
CREATE INDEX IF NOT EXISTS idx_water_bodies_lng ON water_bodies(longitude);
CREATE UNIQUE INDEX IF NOT EXISTS idx_water_bodies_source ON water_bodies(source, source_id);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) UpsertWaterBodies(ctx context.Context, bodies []WaterBody) (int64, error) {
	if len(bodies) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin tx")
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO water_bodies (id, name, name_normalized, type_tag, latitude, longitude, source, source_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(source, source_id) DO UPDATE SET
			name = excluded.name,
			name_normalized = excluded.name_normalized,
			type_tag = excluded.type_tag,
			latitude = excluded.latitude,
			longitude = excluded.longitude,
			updated_at = excluded.updated_at`)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: prepare upsert")
	}
	defer stmt.Close() //nolint:errcheck

	now := time.Now().UTC()
	var n int64
	for _, wb := range bodies {
		if wb.ID == "" {
			wb.ID = uuid.New().String()
		}
		if wb.SourceID == "" {
			wb.SourceID = wb.ID
		}
		if _, err := stmt.ExecContext(ctx,
			wb.ID, wb.Name, NormalizeName(wb.Name), wb.TypeTag,
			wb.Latitude, wb.Longitude, wb.Source, wb.SourceID, now, now,
		); err != nil {
			return n, eris.Wrapf(err, "sqlite: upsert water body %s", wb.Name)
		}
		n++
	}

	if err := tx.Commit(); err != nil {
		return n, eris.Wrap(err, "sqlite: commit upsert")
	}
	return n, nil
}

func (s *SQLiteStore) SearchNear(ctx context.Context, lat, lng, radiusMeters float64, limit int) ([]WaterBody, error) {
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	minLat, maxLat, minLng, maxLng := boundingBox(lat, lng, radiusMeters)

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, type_tag, latitude, longitude, source, source_id, created_at, updated_at
		FROM water_bodies
		WHERE latitude BETWEEN ? AND ? AND longitude BETWEEN ? AND ?`,
		minLat, maxLat, minLng, maxLng,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: search near")
	}
	defer rows.Close() //nolint:errcheck

	bodies, err := scanWaterBodies(rows)
	if err != nil {
		return nil, err
	}
	return refineByDistance(bodies, lat, lng, radiusMeters, limit), nil
}

func (s *SQLiteStore) SearchByName(ctx context.Context, name string, limit int) ([]WaterBody, error) {
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, type_tag, latitude, longitude, source, source_id, created_at, updated_at
		FROM water_bodies
		WHERE name_normalized LIKE '%' || ? || '%'
		ORDER BY name
		LIMIT ?`,
		NormalizeName(name), limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: search by name")
	}
	defer rows.Close() //nolint:errcheck

	return scanWaterBodies(rows)
}

func (s *SQLiteStore) ListWaterBodies(ctx context.Context, limit, offset int) ([]WaterBody, error) {
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, type_tag, latitude, longitude, source, source_id, created_at, updated_at
		FROM water_bodies
		ORDER BY name, id
		LIMIT ? OFFSET ?`,
		limit, offset,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list water bodies")
	}
	defer rows.Close() //nolint:errcheck

	return scanWaterBodies(rows)
}

func (s *SQLiteStore) CountWaterBodies(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM water_bodies`).Scan(&n)
	return n, eris.Wrap(err, "sqlite: count water bodies")
}

// helpers

func scanWaterBodies(rows *sql.Rows) ([]WaterBody, error) {
	var bodies []WaterBody
	for rows.Next() {
		var wb WaterBody
		var typeTag, sourceID sql.NullString
		if err := rows.Scan(
			&wb.ID, &wb.Name, &typeTag, &wb.Latitude, &wb.Longitude,
			&wb.Source, &sourceID, &wb.CreatedAt, &wb.UpdatedAt,
		); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan water body")
		}
		wb.TypeTag = typeTag.String
		wb.SourceID = sourceID.String
		bodies = append(bodies, wb)
	}
	return bodies, eris.Wrap(rows.Err(), "sqlite: iterate water bodies")
}

// boundingBox returns a lat/lng window that contains the radius around the
// point. It over-covers at high latitudes, which the haversine refinement
// corrects.
func boundingBox(lat, lng, radiusMeters float64) (minLat, maxLat, minLng, maxLng float64) {
	const metersPerDegreeLat = 111320.0
	latDelta := radiusMeters / metersPerDegreeLat

	cosLat := math.Cos(lat * math.Pi / 180)
	if cosLat < 0.01 {
		cosLat = 0.01
	}
	lngDelta := radiusMeters / (metersPerDegreeLat * cosLat)

	return lat - latDelta, lat + latDelta, lng - lngDelta, lng + lngDelta
}

// refineByDistance drops rows outside the true radius and orders the rest by
// ascending distance from the origin.
func refineByDistance(bodies []WaterBody, lat, lng, radiusMeters float64, limit int) []WaterBody {
	origin := waterbody.LatLng{Lat: lat, Lng: lng}

	type scored struct {
		wb WaterBody
		d  float64
	}
	within := make([]scored, 0, len(bodies))
	for _, wb := range bodies {
		d := waterbody.DistanceMeters(origin, waterbody.LatLng{Lat: wb.Latitude, Lng: wb.Longitude})
		if d <= radiusMeters {
			within = append(within, scored{wb: wb, d: d})
		}
	}

	sort.SliceStable(within, func(i, j int) bool { return within[i].d < within[j].d })

	if len(within) > limit {
		within = within[:limit]
	}
	out := make([]WaterBody, len(within))
	for i, s := range within {
		out[i] = s.wb
	}
	return out
}
