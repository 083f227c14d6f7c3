package ports

import (
	"context"
	"robot-route-service/internal/domain"
)

// Ordered path between two places plus the provider's length and duration estimate.
type RouteResult struct {
	Path            []domain.Coordinates
	DistanceMeters  float64
	DurationSeconds float64
}

// Contract for turning two free-text places into a drivable path.
type RouteProvider interface {
	// Geocode both places and return the directions between them.
	Route(ctx context.Context, start string, end string) (RouteResult, error)
}
