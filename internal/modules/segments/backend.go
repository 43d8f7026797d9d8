package segments

import (
	"context"

	"routeboard/internal/models"
)

// DirectionsProvider is the blocking half of the backend: it prices one
// ordered stop pair.
type DirectionsProvider interface {
	CreateRouteSegment(ctx context.Context, from, to models.SegmentStop) (*models.RouteData, error)
}

// Renderer is the visual half of the backend.
type Renderer interface {
	DrawRouteSegment(seg models.RouteSegment) (handle string, err error)
	UpdateRouteSegment(handle string, seg models.RouteSegment) error
	RemoveRouteSegment(handle string) error
}

type composedBackend struct {
	DirectionsProvider
	Renderer
}

// NewBackend combines a directions provider and a renderer into the single
// capability the manager consumes.
func NewBackend(directions DirectionsProvider, renderer Renderer) Backend {
	return composedBackend{DirectionsProvider: directions, Renderer: renderer}
}
