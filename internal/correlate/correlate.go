// Package correlate attaches normalized chargers to the places they are
// walkable from. Chargers outside the walking-distance threshold are
// discarded; survivors are stamped with their owning place and distance.
package correlate

import (
	"go.uber.org/zap"

	"github.com/sells-group/charge-scout/internal/geomath"
	"github.com/sells-group/charge-scout/internal/model"
	"github.com/sells-group/charge-scout/internal/normalize"
	"github.com/sells-group/charge-scout/pkg/ocm"
)

// Result is the output of one correlation pass: the union of all
// surviving charger attachments plus the places with refreshed counts.
// A charger reachable from two places appears once per attachment; each
// pairing is a distinct logical record.
type Result struct {
	Chargers []model.Charger `json:"chargers"`
	Places   []model.Place   `json:"places"`
}

// Correlate normalizes each place's raw chargers, keeps those within the
// walking-time threshold of their place, and recounts per place. A nil or
// empty raw list (e.g. an upstream fetch that failed) means zero chargers
// for that place, never an error. Places without a coordinate are kept in
// the output but get no attachments.
func Correlate(places []model.Place, rawByPlace map[string][]ocm.POI, walkingMinutes float64) Result {
	thresholdKm := geomath.WalkingMinutesToKm(walkingMinutes)

	out := Result{
		Chargers: make([]model.Charger, 0),
		Places:   make([]model.Place, len(places)),
	}
	copy(out.Places, places)

	for i := range out.Places {
		place := &out.Places[i]
		place.ChargerCount = 0
		place.FeaturedCharger = nil

		if !place.HasCoordinate() {
			zap.L().Debug("correlate: place has no coordinate, skipping",
				zap.String("place_id", place.ID),
				zap.String("name", place.Name),
			)
			continue
		}

		for _, poi := range rawByPlace[place.ID] {
			charger := normalize.Charger(poi)
			if charger.Coordinate.Lat == 0 && charger.Coordinate.Lng == 0 {
				continue
			}

			d := geomath.DistanceKm(
				place.Coordinate.Lat, place.Coordinate.Lng,
				charger.Coordinate.Lat, charger.Coordinate.Lng,
			)
			if d > thresholdKm {
				continue
			}

			charger.PlaceID = place.ID
			charger.DistanceFromPlaceKm = d
			out.Chargers = append(out.Chargers, charger)
			place.ChargerCount++
		}
	}

	return out
}
