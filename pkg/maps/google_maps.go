// Package maps adapts external routing providers to the segment manager's
// backend contract.
package maps

import (
	"context"
	"fmt"

	"googlemaps.github.io/maps"

	"routeboard/internal/models"
)

// GoogleDirections computes segment costs with the Google Maps Directions
// API. Failures are wrapped in models.ErrBackendFailure so callers can
// classify them without knowing the provider.
type GoogleDirections struct {
	client *maps.Client
	mode   maps.Mode
}

// NewGoogleDirections creates a directions provider for the given API key.
func NewGoogleDirections(apiKey string) (*GoogleDirections, error) {
	client, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("maps.NewGoogleDirections: %w", err)
	}
	return &GoogleDirections{client: client, mode: maps.TravelModeDriving}, nil
}

// CreateRouteSegment fetches the driving route between the two stops and
// returns its cost and geometry.
func (g *GoogleDirections) CreateRouteSegment(ctx context.Context, from, to models.SegmentStop) (*models.RouteData, error) {
	req := &maps.DirectionsRequest{
		Origin:      fmt.Sprintf("%f,%f", from.Location.Latitude, from.Location.Longitude),
		Destination: fmt.Sprintf("%f,%f", to.Location.Latitude, to.Location.Longitude),
		Mode:        g.mode,
	}

	routes, _, err := g.client.Directions(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("%w: directions %s -> %s: %v", models.ErrBackendFailure, from.ID, to.ID, err)
	}
	if len(routes) == 0 || len(routes[0].Legs) == 0 {
		return nil, fmt.Errorf("%w: no route between %s and %s", models.ErrBackendFailure, from.ID, to.ID)
	}

	route := routes[0]
	leg := route.Legs[0]

	data := &models.RouteData{
		Polyline:        route.OverviewPolyline.Points,
		DistanceMeters:  leg.Distance.Meters,
		DurationSeconds: int(leg.Duration.Seconds()),
		Bounds: &models.GeoBounds{
			Northeast: models.GeoPoint{Latitude: route.Bounds.NorthEast.Lat, Longitude: route.Bounds.NorthEast.Lng},
			Southwest: models.GeoPoint{Latitude: route.Bounds.SouthWest.Lat, Longitude: route.Bounds.SouthWest.Lng},
		},
	}

	if points, err := route.OverviewPolyline.Decode(); err == nil {
		data.Geometry = make([]models.GeoPoint, 0, len(points))
		for _, p := range points {
			data.Geometry = append(data.Geometry, models.GeoPoint{Latitude: p.Lat, Longitude: p.Lng})
		}
	}

	return data, nil
}
