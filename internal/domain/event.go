package domain

import "time"

// EventKind tags a message log entry.
type EventKind string

const (
	EventRouteStarted   EventKind = "ROUTE_STARTED"
	EventRouteTick      EventKind = "ROUTE_TICK"
	EventRouteProgress  EventKind = "ROUTE_PROGRESS"
	EventRouteFinished  EventKind = "ROUTE_FINISHED"
	EventRouteCancelled EventKind = "ROUTE_CANCELLED"
)

// Event is one entry of a robot's append-only message log.
// IDs are assigned by the robot, start at 1 and never repeat.
type Event struct {
	ID        int64
	RobotID   int
	Kind      EventKind
	Text      string
	Progress  float64
	Timestamp time.Time
}
