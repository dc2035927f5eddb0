package spatial

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/charge-scout/internal/model"
)

func chargerAt(id int64, lat, lng float64) model.Charger {
	return model.Charger{ID: id, Coordinate: model.Coordinate{Lat: lat, Lng: lng}}
}

func TestSearchBBox(t *testing.T) {
	idx := NewIndex([]model.Charger{
		chargerAt(1, 45.00, 7.00),
		chargerAt(2, 45.01, 7.01),
		chargerAt(3, 45.10, 7.10),
	})

	got, err := idx.SearchBBox(44.99, 6.99, 45.02, 7.02)
	require.NoError(t, err)

	ids := idSet(got)
	assert.Len(t, ids, 2)
	assert.True(t, ids[1])
	assert.True(t, ids[2])
	assert.False(t, ids[3])
}

func TestSearchBBox_Invalid(t *testing.T) {
	idx := NewIndex(nil)
	_, err := idx.SearchBBox(45.02, 7.02, 45.00, 7.00)
	assert.Error(t, err)
}

func TestNearestTo(t *testing.T) {
	idx := NewIndex([]model.Charger{
		chargerAt(1, 45.00, 7.00),
		chargerAt(2, 45.05, 7.00),
		chargerAt(3, 45.20, 7.00),
	})

	got := idx.NearestTo(model.Coordinate{Lat: 45.01, Lng: 7.00}, 2)
	require.Len(t, got, 2)
	assert.Equal(t, int64(1), got[0].ID)
	assert.Equal(t, int64(2), got[1].ID)

	assert.Nil(t, idx.NearestTo(model.Coordinate{Lat: 45, Lng: 7}, 0))
}

func TestWithinKm(t *testing.T) {
	idx := NewIndex([]model.Charger{
		chargerAt(1, 45.000, 7.000),
		chargerAt(2, 45.005, 7.000), // ~0.56 km north
		chargerAt(3, 45.050, 7.000), // ~5.6 km north
	})

	got, err := idx.WithinKm(model.Coordinate{Lat: 45, Lng: 7}, 1.0)
	require.NoError(t, err)

	ids := idSet(got)
	assert.Len(t, ids, 2)
	assert.True(t, ids[1])
	assert.True(t, ids[2])
}

func TestNewIndexSkipsMissingCoordinates(t *testing.T) {
	idx := NewIndex([]model.Charger{
		{ID: 1}, // zero coordinate
		chargerAt(2, 45, 7),
	})

	got, err := idx.SearchBBox(-90, -180, 90, 180)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, int64(2), got[0].ID)
}

func idSet(chargers []model.Charger) map[int64]bool {
	out := make(map[int64]bool, len(chargers))
	for _, c := range chargers {
		out[c.ID] = true
	}
	return out
}
