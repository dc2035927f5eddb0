package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/charge-scout/internal/correlate"
	"github.com/sells-group/charge-scout/internal/model"
	"github.com/sells-group/charge-scout/pkg/ocm"
)

func latOffsetKm(base model.Coordinate, km float64) model.Coordinate {
	return model.Coordinate{Lat: base.Lat + km/111.19493, Lng: base.Lng}
}

func free(s string) *string { return &s }

// Three places at increasing origin distance, one charger each at walking
// distances 0.3, 0.5, and 0.1 km. A 5-minute walking budget (~0.416 km)
// drops place 2's charger at correlation; filtering to free chargers then
// leaves only place 3's, and the place ordering stays by origin distance
// regardless of charger filtering.
func TestCorrelateThenFilterScenario(t *testing.T) {
	base := model.Coordinate{Lat: 45, Lng: 7}
	places := []model.Place{
		{ID: "place1", Name: "Grocery", Coordinate: base, DistanceMeters: 500},
		{ID: "place2", Name: "Gym", Coordinate: latOffsetKm(base, 5), DistanceMeters: 1000},
		{ID: "place3", Name: "Library", Coordinate: latOffsetKm(base, 10), DistanceMeters: 2000},
	}

	raw := map[string][]ocm.POI{
		"place1": {{
			ID:          1,
			AddressInfo: coordInfo(latOffsetKm(places[0].Coordinate, 0.3)),
		}},
		"place2": {{
			ID:          2,
			AddressInfo: coordInfo(latOffsetKm(places[1].Coordinate, 0.5)),
		}},
		"place3": {{
			ID:          3,
			AddressInfo: coordInfo(latOffsetKm(places[2].Coordinate, 0.1)),
			UsageCost:   free("Free"),
		}},
	}

	correlated := correlate.Correlate(places, raw, 5)

	// Place 2's charger at 0.5 km exceeds the ~0.416 km threshold.
	require.Len(t, correlated.Chargers, 2)
	assert.Equal(t, 1, correlated.Places[0].ChargerCount)
	assert.Equal(t, 0, correlated.Places[1].ChargerCount)
	assert.Equal(t, 1, correlated.Places[2].ChargerCount)

	criteria := model.DefaultCriteria()
	criteria.Cost = model.CostFree
	criteria.WalkingTimeMinutes = 5

	res := Apply(correlated.Chargers, correlated.Places, criteria)

	require.Len(t, res.Chargers, 1)
	assert.Equal(t, int64(3), res.Chargers[0].ID)

	assert.Equal(t, "place1", res.Places[0].ID)
	assert.Equal(t, "place2", res.Places[1].ID)
	assert.Equal(t, "place3", res.Places[2].ID)
	assert.Equal(t, 0, res.Places[0].ChargerCount)
	assert.Equal(t, 0, res.Places[1].ChargerCount)
	assert.Equal(t, 1, res.Places[2].ChargerCount)
	assert.Equal(t, int64(3), res.Places[2].FeaturedCharger.ID)
}

func coordInfo(c model.Coordinate) *ocm.AddressInfo {
	return &ocm.AddressInfo{Title: "Charger", Latitude: c.Lat, Longitude: c.Lng}
}
