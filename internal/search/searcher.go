// Package search orchestrates a water-body search: fetching community and
// external candidates, normalizing them, and producing the display ordering.
package search

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/akinsgre/paddlepartner-waterways/internal/waterbody"
)

// CommunitySource provides raw records from the PaddlePartner database, via
// the backend API or a local store.
type CommunitySource interface {
	SearchByCoordinate(ctx context.Context, lat, lng, radiusMeters float64) ([]map[string]any, error)
	SearchByName(ctx context.Context, name string) ([]map[string]any, error)
}

// ExternalSource provides raw records from a third-party map dataset.
type ExternalSource interface {
	AroundPoint(ctx context.Context, lat, lng, radiusMeters float64) ([]map[string]any, error)
}

// Query describes one search. Either Origin or Name must be set; when both
// are set the coordinate search wins and Name is ignored.
type Query struct {
	Origin          *waterbody.LatLng
	Name            string
	RadiusMeters    float64
	IncludeExternal bool
}

// Result is one complete, display-ready search result set. It is a transient
// value: a new search supersedes it entirely.
type Result struct {
	Groups   []waterbody.Group       `json:"groups"`
	External []waterbody.Candidate   `json:"external_candidates"`
	Items    []waterbody.DisplayItem `json:"items"`
}

// DefaultRadiusMeters is used when a coordinate query does not set a radius.
const DefaultRadiusMeters = 25000

// Searcher fans a query out to the community and external sources and folds
// the responses through the waterbody pipeline. It holds no mutable state;
// concurrent searches do not interfere.
type Searcher struct {
	community CommunitySource
	external  ExternalSource
}

// New creates a Searcher. The external source may be nil, in which case
// IncludeExternal queries return community results only.
func New(community CommunitySource, external ExternalSource) *Searcher {
	return &Searcher{community: community, external: external}
}

// Search runs the query and returns grouped, sorted results.
//
// A community fetch failure fails the search. An external fetch failure only
// degrades it: the external partition comes back empty and the error is
// logged, since map data is supplementary.
func (s *Searcher) Search(ctx context.Context, q Query) (*Result, error) {
	if q.Origin == nil && q.Name == "" {
		return nil, eris.New("search: query needs a coordinate or a name")
	}
	radius := q.RadiusMeters
	if radius <= 0 {
		radius = DefaultRadiusMeters
	}

	var communityRaw, externalRaw []map[string]any

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if q.Origin != nil {
			communityRaw, err = s.community.SearchByCoordinate(gctx, q.Origin.Lat, q.Origin.Lng, radius)
		} else {
			communityRaw, err = s.community.SearchByName(gctx, q.Name)
		}
		return eris.Wrap(err, "search: community fetch")
	})

	if q.IncludeExternal && q.Origin != nil && s.external != nil {
		origin := *q.Origin
		g.Go(func() error {
			recs, err := s.external.AroundPoint(gctx, origin.Lat, origin.Lng, radius)
			if err != nil {
				zap.L().Warn("search: external fetch failed, continuing without map candidates",
					zap.Float64("lat", origin.Lat),
					zap.Float64("lng", origin.Lng),
					zap.Error(err),
				)
				return nil
			}
			externalRaw = recs
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	candidates := waterbody.Normalize(append(communityRaw, externalRaw...))
	if q.Origin != nil {
		annotateDistances(candidates, *q.Origin)
	}

	grouped := waterbody.GroupCandidates(candidates, q.IncludeExternal)
	return &Result{
		Groups:   grouped.Groups,
		External: grouped.External,
		Items:    waterbody.SortForDisplay(grouped.Groups, grouped.External),
	}, nil
}

// annotateDistances fills in DistanceMeters from the query origin for
// candidates that have a coordinate but no upstream-computed distance.
func annotateDistances(candidates []waterbody.Candidate, origin waterbody.LatLng) {
	for i := range candidates {
		c := &candidates[i]
		if c.DistanceMeters != nil || c.Coordinate == nil {
			continue
		}
		d := waterbody.DistanceMeters(origin, *c.Coordinate)
		c.DistanceMeters = &d
	}
}
