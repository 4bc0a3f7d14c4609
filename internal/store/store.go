// Package store persists a local copy of water-body records so searches can
// run against imported hydrography data without the backend API.
package store

import (
	"context"
	"time"
)

// WaterBody is one stored water-body row.
type WaterBody struct {
	ID        string    `json:"id" yaml:"id"`
	Name      string    `json:"name" yaml:"name"`
	TypeTag   string    `json:"type_tag,omitempty" yaml:"type_tag,omitempty"`
	Latitude  float64   `json:"latitude" yaml:"latitude"`
	Longitude float64   `json:"longitude" yaml:"longitude"`
	Source    string    `json:"source" yaml:"source"`
	SourceID  string    `json:"source_id,omitempty" yaml:"source_id,omitempty"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
	UpdatedAt time.Time `json:"updated_at" yaml:"updated_at"`
}

const defaultSearchLimit = 100

// Store defines the persistence interface for imported water bodies.
type Store interface {
	UpsertWaterBodies(ctx context.Context, bodies []WaterBody) (int64, error)
	SearchNear(ctx context.Context, lat, lng, radiusMeters float64, limit int) ([]WaterBody, error)
	SearchByName(ctx context.Context, name string, limit int) ([]WaterBody, error)
	ListWaterBodies(ctx context.Context, limit, offset int) ([]WaterBody, error)
	CountWaterBodies(ctx context.Context) (int64, error)

	Migrate(ctx context.Context) error
	Close() error
}

// RawRecords converts stored rows into the raw record shape the candidate
// normalizer consumes, letting the store stand in for the community API.
func RawRecords(bodies []WaterBody) []map[string]any {
	records := make([]map[string]any, 0, len(bodies))
	for _, wb := range bodies {
		rec := map[string]any{
			"water_body_id": wb.ID,
			"name":          wb.Name,
			"lat":           wb.Latitude,
			"lng":           wb.Longitude,
		}
		if wb.TypeTag != "" {
			rec["type"] = wb.TypeTag
		}
		records = append(records, rec)
	}
	return records
}

// CommunitySource adapts a Store to the search orchestrator's community
// interface for offline searches.
type CommunitySource struct {
	store Store
	limit int
}

// NewCommunitySource wraps a store as an offline community source.
func NewCommunitySource(s Store, limit int) *CommunitySource {
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	return &CommunitySource{store: s, limit: limit}
}

func (c *CommunitySource) SearchByCoordinate(ctx context.Context, lat, lng, radiusMeters float64) ([]map[string]any, error) {
	bodies, err := c.store.SearchNear(ctx, lat, lng, radiusMeters, c.limit)
	if err != nil {
		return nil, err
	}
	return RawRecords(bodies), nil
}

func (c *CommunitySource) SearchByName(ctx context.Context, name string) ([]map[string]any, error) {
	bodies, err := c.store.SearchByName(ctx, name, c.limit)
	if err != nil {
		return nil, err
	}
	return RawRecords(bodies), nil
}
