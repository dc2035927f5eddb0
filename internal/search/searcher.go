// Package search orchestrates one charger search end to end: place text
// search, concurrent per-place charger fetches, origin-distance
// annotation, then the pure correlate and filter passes. All network
// fetching lives here; the core packages below it never do I/O.
package search

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/charge-scout/internal/correlate"
	"github.com/sells-group/charge-scout/internal/filter"
	"github.com/sells-group/charge-scout/internal/model"
	"github.com/sells-group/charge-scout/internal/store"
	"github.com/sells-group/charge-scout/pkg/ocm"
	"github.com/sells-group/charge-scout/pkg/places"
	"github.com/sells-group/charge-scout/pkg/routes"
)

// Result is the outcome of one search: the saved session (canonical
// pre-filter data) plus the filtered view under the session's criteria.
type Result struct {
	Session   *model.Session `json:"session"`
	Filtered  filter.Result  `json:"filtered"`
	Signature string         `json:"signature"`
}

// Option configures a Searcher.
type Option func(*Searcher)

// WithStore enables session persistence and the charger fetch cache.
func WithStore(st store.Store) Option {
	return func(s *Searcher) {
		s.store = st
	}
}

// WithRoutes enables origin-distance annotation of places.
func WithRoutes(rc routes.Client) Option {
	return func(s *Searcher) {
		s.routes = rc
	}
}

// WithFetchConcurrency caps parallel per-place charger fetches.
func WithFetchConcurrency(n int) Option {
	return func(s *Searcher) {
		if n > 0 {
			s.fetchConcurrency = n
		}
	}
}

// WithCacheTTL sets how long cached charger fetches stay valid.
func WithCacheTTL(ttl time.Duration) Option {
	return func(s *Searcher) {
		s.cacheTTL = ttl
	}
}

// WithMaxChargersPerPlace caps the upstream result count per place.
func WithMaxChargersPerPlace(n int) Option {
	return func(s *Searcher) {
		if n > 0 {
			s.maxResults = n
		}
	}
}

// Searcher wires the upstream clients and the core pipeline.
type Searcher struct {
	places   places.Client
	chargers ocm.Client
	routes   routes.Client
	store    store.Store

	fetchConcurrency int
	maxResults       int
	cacheTTL         time.Duration

	// refilterMu serializes refilter passes: each one reads and then
	// replaces the session's criteria snapshot, and the serve layer
	// invokes Refilter from concurrent handlers on shared sessions.
	refilterMu sync.Mutex
}

// NewSearcher creates a Searcher over the two required upstream clients.
func NewSearcher(pc places.Client, cc ocm.Client, opts ...Option) *Searcher {
	s := &Searcher{
		places:           pc,
		chargers:         cc,
		fetchConcurrency: 5,
		maxResults:       25,
		cacheTTL:         6 * time.Hour,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Search runs the full pipeline for a query around an origin. A search
// that matches zero places returns an empty result, not an error.
func (s *Searcher) Search(ctx context.Context, query string, origin model.Coordinate, criteria model.FilterCriteria) (*Result, error) {
	resp, err := s.places.TextSearch(ctx, query, &places.LocationBias{
		Lat:          origin.Lat,
		Lng:          origin.Lng,
		RadiusMeters: criteria.SearchRadiusMiles * 1609.344,
	})
	if err != nil {
		return nil, eris.Wrap(err, "search: place text search")
	}

	placeList := toModelPlaces(resp.Places)
	zap.L().Info("search: places found",
		zap.String("query", query),
		zap.Int("count", len(placeList)),
	)

	rawByPlace := s.fetchChargers(ctx, placeList, criteria.SearchRadiusMiles)
	s.annotateDistances(ctx, origin, placeList)

	correlated := correlate.Correlate(placeList, rawByPlace, criteria.WalkingTimeMinutes)
	filtered := filter.Apply(correlated.Chargers, correlated.Places, criteria)

	sess := &model.Session{
		ID:        uuid.NewString(),
		Query:     query,
		Origin:    origin,
		Criteria:  criteria,
		Chargers:  correlated.Chargers,
		Places:    correlated.Places,
		CreatedAt: time.Now().UTC(),
	}

	if s.store != nil {
		if err := s.store.SaveSession(ctx, sess); err != nil {
			zap.L().Warn("search: save session failed",
				zap.String("session_id", sess.ID),
				zap.Error(err),
			)
		}
	}

	return &Result{
		Session:   sess,
		Filtered:  filtered,
		Signature: filter.Signature(filtered.Places),
	}, nil
}

// Refilter re-runs only the filter pipeline over a session's canonical
// data with new criteria. No fetch, no session mutation beyond the
// criteria snapshot. The changed flag compares the per-place count
// signature against the previous criteria's pass. Safe for concurrent
// use: passes over the same searcher are serialized, so the snapshot
// read and write never interleave.
func (s *Searcher) Refilter(sess *model.Session, criteria model.FilterCriteria) (filter.Result, bool) {
	s.refilterMu.Lock()
	defer s.refilterMu.Unlock()

	prev := filter.Apply(sess.Chargers, sess.Places, sess.Criteria)
	next := filter.Apply(sess.Chargers, sess.Places, criteria)

	changed := filter.Signature(next.Places) != filter.Signature(prev.Places)
	sess.Criteria = criteria
	return next, changed
}

// fetchChargers fans out one charger fetch per place, bounded by the
// configured concurrency. A failed fetch yields an empty list for that
// place and a warning; it never fails the search.
func (s *Searcher) fetchChargers(ctx context.Context, placeList []model.Place, radiusMiles float64) map[string][]ocm.POI {
	rawByPlace := make(map[string][]ocm.POI, len(placeList))
	results := make([][]ocm.POI, len(placeList))

	eg, gCtx := errgroup.WithContext(ctx)
	eg.SetLimit(s.fetchConcurrency)

	for i, p := range placeList {
		if !p.HasCoordinate() {
			continue
		}
		eg.Go(func() error {
			pois, err := s.cachedNearby(gCtx, p.Coordinate, radiusMiles)
			if err != nil {
				zap.L().Warn("search: charger fetch failed, treating as empty",
					zap.String("place_id", p.ID),
					zap.String("place", p.Name),
					zap.Error(err),
				)
				return nil //nolint:nilerr // per-place failures don't fail the search
			}
			results[i] = pois
			return nil
		})
	}
	_ = eg.Wait()

	for i, p := range placeList {
		rawByPlace[p.ID] = results[i]
	}
	return rawByPlace
}

// cachedNearby checks the store cache before hitting the upstream API.
func (s *Searcher) cachedNearby(ctx context.Context, coord model.Coordinate, radiusMiles float64) ([]ocm.POI, error) {
	key := store.CacheKey(coord.Lat, coord.Lng, radiusMiles)

	if s.store != nil {
		cached, err := s.store.GetCachedChargers(ctx, key)
		if err != nil {
			zap.L().Debug("search: charger cache lookup failed", zap.Error(err))
		} else if cached != nil {
			return cached, nil
		}
	}

	pois, err := s.chargers.Nearby(ctx, coord.Lat, coord.Lng, radiusMiles, s.maxResults)
	if err != nil {
		return nil, err
	}

	if s.store != nil {
		if err := s.store.SetCachedChargers(ctx, key, pois, s.cacheTTL); err != nil {
			zap.L().Debug("search: charger cache store failed", zap.Error(err))
		}
	}
	return pois, nil
}

// annotateDistances attaches origin distance/duration pairs to places.
// A matrix failure leaves places unannotated; they sort last.
func (s *Searcher) annotateDistances(ctx context.Context, origin model.Coordinate, placeList []model.Place) {
	if s.routes == nil || len(placeList) == 0 {
		return
	}

	dests := make([][2]float64, len(placeList))
	for i, p := range placeList {
		dests[i] = [2]float64{p.Coordinate.Lat, p.Coordinate.Lng}
	}

	elements, err := s.routes.Matrix(ctx, origin.Lat, origin.Lng, dests)
	if err != nil {
		zap.L().Warn("search: distance matrix failed, places unranked", zap.Error(err))
		return
	}

	for _, e := range elements {
		if e.DestinationIndex < 0 || e.DestinationIndex >= len(placeList) {
			continue
		}
		p := &placeList[e.DestinationIndex]
		p.DistanceText = e.DistanceText
		p.DistanceMeters = e.DistanceMeters
		p.DurationText = e.DurationText
		p.DurationSeconds = e.DurationSeconds
	}
}

func toModelPlaces(raw []places.Place) []model.Place {
	out := make([]model.Place, 0, len(raw))
	for _, rp := range raw {
		out = append(out, model.Place{
			ID:          rp.ID,
			Name:        rp.DisplayName.Text,
			Address:     rp.FormattedAddress,
			Coordinate:  model.Coordinate{Lat: rp.Location.Latitude, Lng: rp.Location.Longitude},
			Rating:      rp.Rating,
			RatingCount: rp.UserRatingCount,
			Types:       rp.Types,
		})
	}
	return out
}
