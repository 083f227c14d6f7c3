package services

import (
	"context"
	"fmt"
	"robot-route-service/internal/domain"
	"robot-route-service/internal/ports"
	"strings"
	"time"
)

// Duration bounds for routes started by address.
const (
	MinRouteDuration     = 3 * time.Second
	MaxRouteDuration     = 300 * time.Second
	DefaultRouteDuration = 25 * time.Second

	// Waypoint routes keep the worker's own default.
	DefaultWaypointDuration = 10 * time.Second
)

// FleetJobs is the part of the simulation the route starter drives.
type FleetJobs interface {
	Robot(id int) (*domain.Robot, error)
	StartJob(robotID int, path []domain.Coordinates, duration time.Duration) (int64, error)
}

type AddressRouteRequest struct {
	RobotID    int
	Start      string
	End        string
	Duration   time.Duration
	LineNumber string
	LineID     string
}

// RouteStarted describes a job that is now running.
type RouteStarted struct {
	JobID          int64
	RobotID        int
	Start          string
	End            string
	Color          string
	Duration       time.Duration
	Path           []domain.Coordinates
	DistanceMeters float64
}

// RouteStarter resolves paths through a RouteProvider and hands them to the scheduler.
type RouteStarter struct {
	provider ports.RouteProvider
	lines    ports.LineCatalog
	fleet    FleetJobs
}

// provider and lines may be nil.
func NewRouteStarter(fleet FleetJobs, provider ports.RouteProvider, lines ports.LineCatalog) *RouteStarter {
	return &RouteStarter{provider: provider, lines: lines, fleet: fleet}
}

// ClampRouteDuration maps zero to the default and bounds the rest to [3s, 300s].
func ClampRouteDuration(d time.Duration) time.Duration {
	if d == 0 {
		return DefaultRouteDuration
	}
	return min(max(d, MinRouteDuration), MaxRouteDuration)
}

// RouteColor picks the tram line color by number, then id; anything else gets the default.
func RouteColor(lines ports.LineCatalog, number, id string) string {
	if lines == nil {
		return domain.DefaultRouteColor
	}
	l, ok := lines.Lookup(number, id)
	if !ok || !strings.HasPrefix(l.Color, "#") {
		return domain.DefaultRouteColor
	}
	return l.Color
}

// StartByAddress routes between two places and starts a job along the result.
func (s *RouteStarter) StartByAddress(ctx context.Context, req AddressRouteRequest) (RouteStarted, error) {
	start, end := strings.TrimSpace(req.Start), strings.TrimSpace(req.End)
	if start == "" || end == "" {
		return RouteStarted{}, fmt.Errorf("start route: start and end must be non-empty: %w", domain.ErrInvalidRoute)
	}

	// fail before spending a provider call
	if _, err := s.fleet.Robot(req.RobotID); err != nil {
		return RouteStarted{}, fmt.Errorf("start route: %w", err)
	}

	if s.provider == nil {
		return RouteStarted{}, fmt.Errorf("start route: %w", domain.ErrRouteProviderMissing)
	}

	res, err := s.provider.Route(ctx, start, end)
	if err != nil {
		return RouteStarted{}, fmt.Errorf("start route: %w", err)
	}

	duration := ClampRouteDuration(req.Duration)
	jobID, err := s.fleet.StartJob(req.RobotID, res.Path, duration)
	if err != nil {
		return RouteStarted{}, fmt.Errorf("start route: %w", err)
	}

	meters := res.DistanceMeters
	if meters <= 0 {
		meters = PathLength(res.Path)
	}

	return RouteStarted{
		JobID:          jobID,
		RobotID:        req.RobotID,
		Start:          start,
		End:            end,
		Color:          RouteColor(s.lines, req.LineNumber, req.LineID),
		Duration:       duration,
		Path:           res.Path,
		DistanceMeters: meters,
	}, nil
}

// StartByWaypoints starts a job along caller-provided waypoints.
func (s *RouteStarter) StartByWaypoints(robotID int, waypoints []domain.Coordinates, duration time.Duration) (RouteStarted, error) {
	if duration <= 0 {
		duration = DefaultWaypointDuration
	}

	jobID, err := s.fleet.StartJob(robotID, waypoints, duration)
	if err != nil {
		return RouteStarted{}, fmt.Errorf("start waypoint route: %w", err)
	}

	return RouteStarted{
		JobID:          jobID,
		RobotID:        robotID,
		Color:          domain.DefaultRouteColor,
		Duration:       duration,
		Path:           waypoints,
		DistanceMeters: PathLength(waypoints),
	}, nil
}

// PathLength sums the haversine lengths of consecutive points.
func PathLength(path []domain.Coordinates) float64 {
	total := 0.0
	for i := 1; i < len(path); i++ {
		total += HaversineMeters(path[i-1], path[i])
	}
	return total
}
