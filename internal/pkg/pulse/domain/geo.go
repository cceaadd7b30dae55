package pulse

import "math"

const earthRadiusM = 6371000.0

// HaversineDistance returns the great-circle distance in meters between two
// lat/lng points. Pure function; callers reject invalid coordinates upstream.
func HaversineDistance(lat1, lng1, lat2, lng2 float64) float64 {
	toRad := func(deg float64) float64 { return deg * math.Pi / 180 }

	dLat := toRad(lat2 - lat1)
	dLng := toRad(lng2 - lng1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusM * c
}

// ValidCoordinates reports whether lat/lng form a real WGS84 point.
func ValidCoordinates(lat, lng float64) bool {
	if math.IsNaN(lat) || math.IsNaN(lng) {
		return false
	}
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}

// BoundingBox is a cheap rectangular pre-filter around a center point.
// It over-selects slightly; callers must post-filter by exact distance.
type BoundingBox struct {
	MinLat, MaxLat float64
	MinLng, MaxLng float64
}

// NewBoundingBox builds a box covering radiusM meters around the center.
// The 1.1 factor pads the box so the exact-distance post-filter never
// discards points the box should have included near the corners.
func NewBoundingBox(lat, lng float64, radiusM float64) BoundingBox {
	latDelta := 1.1 * radiusM / 111000.0
	lngDelta := latDelta
	if cos := math.Cos(lat * math.Pi / 180); cos > 0.01 {
		lngDelta = latDelta / cos
	}
	return BoundingBox{
		MinLat: lat - latDelta,
		MaxLat: lat + latDelta,
		MinLng: lng - lngDelta,
		MaxLng: lng + lngDelta,
	}
}

// Contains reports whether the point falls inside the box.
func (b BoundingBox) Contains(lat, lng float64) bool {
	return lat >= b.MinLat && lat <= b.MaxLat && lng >= b.MinLng && lng <= b.MaxLng
}
