package dto

import "time"

type HeartbeatResponse struct {
	Ticks          int64     `json:"ticks"`
	SecondsPerTick int       `json:"seconds_per_tick"`
	DateTime       time.Time `json:"date_time"`
	Date           string    `json:"date"`
	Time           string    `json:"time"`
	RobotCount     int       `json:"robot_count"`
	ActiveJobs     int       `json:"active_jobs"`
}

type SpeedRequest struct {
	SecondsPerTick int `json:"seconds_per_tick"`
}

type JobResponse struct {
	RouteID     int64     `json:"route_id"`
	RobotID     int       `json:"robot_id"`
	State       string    `json:"state"`
	DurationS   float64   `json:"duration_s"`
	StartedAt   time.Time `json:"started_at"`
	TotalMeters float64   `json:"total_m"`
	Points      int       `json:"points"`
}

type JobsResponse struct {
	Jobs []JobResponse `json:"jobs"`
}

type MessageOnly struct {
	Message string `json:"message"`
}
