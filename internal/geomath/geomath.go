// Package geomath provides the pure distance and walking-time conversions
// used by the correlation and filter layers.
package geomath

import (
	"fmt"
	"math"
)

const (
	// earthRadiusKm is the mean Earth radius used by the Haversine formula.
	earthRadiusKm = 6371.0

	// walkingSpeedKmh is the assumed walking pace: 3.1 mph.
	walkingSpeedKmh = 3.1 * 1.609344
)

// DistanceKm returns the great-circle distance between two coordinates in
// kilometers via the Haversine formula. Symmetric, and exactly zero for
// identical coordinates.
func DistanceKm(aLat, aLng, bLat, bLng float64) float64 {
	if aLat == bLat && aLng == bLng {
		return 0
	}

	lat1 := degToRad(aLat)
	lat2 := degToRad(bLat)
	dLat := degToRad(bLat - aLat)
	dLng := degToRad(bLng - aLng)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*
			math.Sin(dLng/2)*math.Sin(dLng/2)

	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return earthRadiusKm * c
}

// WalkingTimeLabel converts a distance into a human-readable walking-time
// estimate at the standard pace. Below one minute it returns "<1 min";
// below an hour, integer minutes rounded to nearest; otherwise hours with
// a minute remainder that is dropped when it rounds to zero.
func WalkingTimeLabel(distanceKm float64) string {
	minutes := distanceKm / walkingSpeedKmh * 60

	if minutes < 1 {
		return "<1 min"
	}
	if minutes < 60 {
		return fmt.Sprintf("%d min", int(math.Round(minutes)))
	}

	hours := int(minutes / 60)
	rem := int(math.Round(minutes - float64(hours)*60))
	if rem >= 60 {
		hours++
		rem -= 60
	}
	if rem == 0 {
		return fmt.Sprintf("%d hr", hours)
	}
	return fmt.Sprintf("%d hr %d min", hours, rem)
}

// WalkingMinutesToKm converts a walking-time budget into the distance
// covered at the standard pace. Left-inverse of WalkingTimeLabel within
// rounding tolerance.
func WalkingMinutesToKm(minutes float64) float64 {
	return minutes / 60 * walkingSpeedKmh
}

func degToRad(deg float64) float64 {
	return deg * math.Pi / 180
}
