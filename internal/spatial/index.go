// Package spatial maintains an in-memory R-tree over canonical chargers
// so the serve layer can answer map-viewport marker queries without
// scanning the whole session.
package spatial

import (
	"math"
	"sync"

	"github.com/dhconnelly/rtreego"
	"github.com/rotisserie/eris"

	"github.com/sells-group/charge-scout/internal/geomath"
	"github.com/sells-group/charge-scout/internal/model"
)

const (
	dimensions  = 2
	minChildren = 8
	maxChildren = 16
	tolerance   = 0.0001
)

type item struct {
	charger model.Charger
	rect    *rtreego.Rect
}

func (it *item) Bounds() *rtreego.Rect {
	return it.rect
}

// Index is a thread-safe R-tree over chargers, rebuilt per search session.
type Index struct {
	mu   sync.RWMutex
	tree *rtreego.Rtree
}

// NewIndex builds an index over the given chargers. Chargers without a
// coordinate are skipped.
func NewIndex(chargers []model.Charger) *Index {
	idx := &Index{tree: rtreego.NewTree(dimensions, minChildren, maxChildren)}
	for _, c := range chargers {
		if c.Coordinate.Lat == 0 && c.Coordinate.Lng == 0 {
			continue
		}
		p := rtreego.Point{c.Coordinate.Lat, c.Coordinate.Lng}
		idx.tree.Insert(&item{charger: c, rect: p.ToRect(tolerance)})
	}
	return idx
}

// SearchBBox returns the chargers inside the bounding box, corners given
// as south-west and north-east.
func (idx *Index) SearchBBox(minLat, minLng, maxLat, maxLng float64) ([]model.Charger, error) {
	rect, err := rtreego.NewRect(
		rtreego.Point{minLat, minLng},
		[]float64{maxLat - minLat, maxLng - minLng},
	)
	if err != nil {
		return nil, eris.Wrap(err, "spatial: invalid bounding box")
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	results := idx.tree.SearchIntersect(rect)
	chargers := make([]model.Charger, 0, len(results))
	for _, r := range results {
		it, ok := r.(*item)
		if !ok {
			continue
		}
		c := it.charger
		if c.Coordinate.Lat >= minLat && c.Coordinate.Lat <= maxLat &&
			c.Coordinate.Lng >= minLng && c.Coordinate.Lng <= maxLng {
			chargers = append(chargers, c)
		}
	}
	return chargers, nil
}

// NearestTo returns up to k chargers closest to the coordinate, nearest
// first.
func (idx *Index) NearestTo(coord model.Coordinate, k int) []model.Charger {
	if k <= 0 {
		return nil
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	results := idx.tree.NearestNeighbors(k, rtreego.Point{coord.Lat, coord.Lng})
	chargers := make([]model.Charger, 0, len(results))
	for _, r := range results {
		if it, ok := r.(*item); ok {
			chargers = append(chargers, it.charger)
		}
	}
	return chargers
}

// WithinKm returns the chargers within radiusKm of the coordinate,
// verified by great-circle distance after the bounding-box pass.
func (idx *Index) WithinKm(coord model.Coordinate, radiusKm float64) ([]model.Charger, error) {
	// Box the radius first, then verify with the real distance. Longitude
	// degrees shrink with latitude, so widen that axis accordingly.
	latDeg := radiusKm / 111.0
	lngDeg := latDeg
	if cos := math.Cos(coord.Lat * math.Pi / 180); cos > 0.01 {
		lngDeg = latDeg / cos
	}
	box, err := idx.SearchBBox(coord.Lat-latDeg, coord.Lng-lngDeg, coord.Lat+latDeg, coord.Lng+lngDeg)
	if err != nil {
		return nil, err
	}

	chargers := make([]model.Charger, 0, len(box))
	for _, c := range box {
		d := geomath.DistanceKm(coord.Lat, coord.Lng, c.Coordinate.Lat, c.Coordinate.Lng)
		if d <= radiusKm {
			chargers = append(chargers, c)
		}
	}
	return chargers, nil
}
