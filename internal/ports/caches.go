package ports

import (
	"context"
	"robot-route-service/internal/domain"
)

// Address -> coordinates cache in front of a geocoder.
type GeocodeCache interface {
	GetMany(ctx context.Context, addresses []string) (map[string]domain.Coordinates, error)
	PutMany(ctx context.Context, results map[string]domain.Coordinates) error
}

// Identifies a directions request. Coordinates are rounded by the cache.
type RouteKey struct {
	Profile string
	From    domain.Coordinates
	To      domain.Coordinates
}

// Directions cache keyed by profile and endpoints.
type RouteCache interface {
	// Get reports ok=false on a miss.
	Get(ctx context.Context, key RouteKey) (result RouteResult, ok bool, err error)
	Put(ctx context.Context, key RouteKey, result RouteResult) error
}
