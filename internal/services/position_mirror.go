package services

import (
	"context"
	"log"
	"robot-route-service/internal/domain"
	"robot-route-service/internal/ports"
	"time"
)

// FleetReader lists the robots whose positions are mirrored.
type FleetReader interface {
	Robots() []*domain.Robot
}

// PositionMirror periodically copies robot positions into a PositionPublisher.
type PositionMirror struct {
	fleet     FleetReader
	publisher ports.PositionPublisher
	interval  time.Duration
}

func NewPositionMirror(fleet FleetReader, publisher ports.PositionPublisher, interval time.Duration) *PositionMirror {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	return &PositionMirror{fleet: fleet, publisher: publisher, interval: interval}
}

// SyncOnce publishes the positions of every robot that has one.
func (m *PositionMirror) SyncOnce(ctx context.Context) (int, error) {
	positions := make(map[int]domain.Coordinates)
	for _, r := range m.fleet.Robots() {
		if s := r.Snapshot(); s.Position != nil {
			positions[s.ID] = *s.Position
		}
	}

	if err := m.publisher.PublishPositions(ctx, positions); err != nil {
		return 0, err
	}
	return len(positions), nil
}

// Run syncs every interval until ctx is done. Publish failures are logged and retried next tick.
func (m *PositionMirror) Run(ctx context.Context) error {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := m.SyncOnce(ctx); err != nil && ctx.Err() == nil {
				log.Printf("position mirror sync failed: %v", err)
			}
		}
	}
}
