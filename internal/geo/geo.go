// Package geo implements the distance and membership predicates the
// rules engine is built on: haversine great-circle distance, circular
// geofence membership and weekly time-window membership.
package geo

import (
	"math"
	"time"

	"github.com/streettag/api/internal/streettag"
)

const earthRadiusMeters = 6371000

// DistanceMeters returns the haversine great-circle distance between
// two points given in degrees. Non-negative and symmetric; zero for
// identical points.
func DistanceMeters(a, b streettag.LatLng) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180

	sinLat := math.Sin(dLat / 2)
	sinLng := math.Sin(dLng / 2)
	h := sinLat*sinLat + math.Cos(lat1)*math.Cos(lat2)*sinLng*sinLng

	return 2 * earthRadiusMeters * math.Asin(math.Min(1, math.Sqrt(h)))
}

// InZone reports whether p lies within the zone's radius of its
// center. A nil point is never in a zone — no fix, no immunity.
func InZone(p *streettag.LatLng, zone streettag.NoTagZone) bool {
	if p == nil {
		return false
	}
	return DistanceMeters(*p, zone.Center) <= zone.RadiusMeters
}

// InTimeWindow reports whether the instant falls inside the recurring
// weekly window. Windows whose end precedes their start wrap past
// midnight: [start,24:00) ∪ [00:00,end].
func InTimeWindow(at time.Time, w streettag.NoTagTime) bool {
	if !w.OnDay(at.Weekday()) {
		return false
	}
	minutes := at.Hour()*60 + at.Minute()
	if w.EndMinutes < w.StartMinutes {
		return minutes >= w.StartMinutes || minutes <= w.EndMinutes
	}
	return minutes >= w.StartMinutes && minutes <= w.EndMinutes
}
