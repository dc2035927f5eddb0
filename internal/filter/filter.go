// Package filter applies the user's compound criteria to a correlated
// charger set and recomputes the per-place annotations the list and map
// layers display. The pipeline is pure: the same inputs always produce
// the same output, and inputs are never mutated.
package filter

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/sells-group/charge-scout/internal/geomath"
	"github.com/sells-group/charge-scout/internal/model"
)

// Result is the output of one filter pass.
type Result struct {
	Chargers []model.Charger `json:"chargers"`
	Places   []model.Place   `json:"places"`
}

// Apply runs every active predicate conjunctively over the chargers, then
// recounts each place, picks its featured charger, and re-sorts places by
// origin distance with a stable tie-break.
func Apply(chargers []model.Charger, places []model.Place, criteria model.FilterCriteria) Result {
	surviving := make([]model.Charger, 0, len(chargers))
	for _, c := range chargers {
		if passes(c, criteria) {
			surviving = append(surviving, c)
		}
	}

	annotated := make([]model.Place, len(places))
	copy(annotated, places)

	for i := range annotated {
		place := &annotated[i]
		place.ChargerCount = 0
		place.FeaturedCharger = nil

		for j := range surviving {
			c := &surviving[j]
			if c.PlaceID != place.ID {
				continue
			}
			place.ChargerCount++
			if place.FeaturedCharger == nil || beats(*c, *place.FeaturedCharger) {
				featured := *c
				place.FeaturedCharger = &featured
			}
		}
	}

	// Places without an origin distance sort last; ties keep their
	// original order.
	sort.SliceStable(annotated, func(i, j int) bool {
		return originDistance(annotated[i]) < originDistance(annotated[j])
	})

	return Result{Chargers: surviving, Places: annotated}
}

func passes(c model.Charger, criteria model.FilterCriteria) bool {
	if criteria.OperationalOnly && c.OperationalStatus != model.Operational {
		return false
	}
	if criteria.Access != "" && criteria.Access != model.AccessAll && c.AccessCategory != criteria.Access {
		return false
	}
	if criteria.Cost != "" && criteria.Cost != model.CostAll {
		if c.IsFree != (criteria.Cost == model.CostFree) {
			return false
		}
	}
	if criteria.Speed != "" && criteria.Speed != model.SpeedAll && c.PowerTier != criteria.Speed {
		return false
	}
	if len(criteria.Connectors) > 0 && !hasSelectedConnector(c, criteria.Connectors) {
		return false
	}
	// Re-gate on walking distance: the user may have lowered the
	// threshold since the fetch-time cap was applied. Non-positive
	// budgets mean unbounded here, per the FilterCriteria contract.
	if criteria.WalkingTimeMinutes > 0 {
		if c.DistanceFromPlaceKm > geomath.WalkingMinutesToKm(criteria.WalkingTimeMinutes) {
			return false
		}
	}
	return true
}

// hasSelectedConnector is the one OR predicate: a charger passes if any
// of its connector types is in the selected set.
func hasSelectedConnector(c model.Charger, selected map[string]bool) bool {
	for _, cn := range c.Connectors {
		if selected[cn.Type] {
			return true
		}
	}
	return false
}

// beats reports whether a should replace b as the featured charger:
// operational first, then higher max power. Equal chargers never replace,
// which keeps the pick stable in scan order.
func beats(a, b model.Charger) bool {
	aOp := a.OperationalStatus == model.Operational
	bOp := b.OperationalStatus == model.Operational
	if aOp != bOp {
		return aOp
	}
	return a.MaxPowerKW > b.MaxPowerKW
}

func originDistance(p model.Place) float64 {
	if p.DistanceMeters <= 0 {
		return math.Inf(1)
	}
	return float64(p.DistanceMeters)
}

// Signature summarizes a pass's per-place counts. Downstream consumers
// may skip redundant refreshes when it matches the previous pass; the
// pipeline itself always recomputes.
func Signature(places []model.Place) string {
	parts := make([]string, 0, len(places))
	for _, p := range places {
		parts = append(parts, fmt.Sprintf("%s:%d", p.ID, p.ChargerCount))
	}
	return strings.Join(parts, "|")
}
