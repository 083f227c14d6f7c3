package ports

import (
	"context"
	"robot-route-service/internal/domain"
)

// Robot found by a radius query.
type NearbyRobot struct {
	RobotID        int
	DistanceMeters float64
	Position       domain.Coordinates
}

// Receives periodic fleet position snapshots.
type PositionPublisher interface {
	// Replace the stored positions with the given set.
	PublishPositions(ctx context.Context, positions map[int]domain.Coordinates) error
}

// Answers spatial queries against the last published snapshot.
type RobotLocator interface {
	Nearby(ctx context.Context, center domain.Coordinates, radiusMeters float64, limit int) ([]NearbyRobot, error)
}

// FleetIndex is a store that is both written by the mirror and queried by the API.
type FleetIndex interface {
	PositionPublisher
	RobotLocator
}
