package maps

import (
	"context"
	"math"

	"routeboard/internal/models"
)

// MockDirections approximates segment costs with a straight-line haversine
// distance and a fixed average speed. Used in tests and local runs where no
// Google Maps API key is configured.
type MockDirections struct {
	// SpeedMetersPerSecond defaults to 11 (roughly 40 km/h) when zero.
	SpeedMetersPerSecond float64
}

const earthRadiusMeters = 6371000

func (m *MockDirections) CreateRouteSegment(ctx context.Context, from, to models.SegmentStop) (*models.RouteData, error) {
	speed := m.SpeedMetersPerSecond
	if speed <= 0 {
		speed = 11
	}

	meters := haversine(from.Location, to.Location)
	return &models.RouteData{
		Geometry:        []models.GeoPoint{from.Location, to.Location},
		DistanceMeters:  int(meters),
		DurationSeconds: int(meters / speed),
	}, nil
}

func haversine(a, b models.GeoPoint) float64 {
	lat1 := a.Latitude * math.Pi / 180
	lat2 := b.Latitude * math.Pi / 180
	dLat := (b.Latitude - a.Latitude) * math.Pi / 180
	dLng := (b.Longitude - a.Longitude) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusMeters * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}
