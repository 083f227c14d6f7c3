package dto

import "robot-route-service/internal/domain"

type MapRouteRequest struct {
	Start      string   `json:"start"`
	End        string   `json:"end"`
	RobotID    *int     `json:"robot_id"`
	DurationS  *float64 `json:"duration_s"`
	LineNumber string   `json:"line_number"`
	LineID     string   `json:"line_id"`
}

type WaypointRouteRequest struct {
	RobotID   *int         `json:"robot_id"`
	Waypoints [][2]float64 `json:"waypoints"`
	DurationS float64      `json:"duration_s"`
}

// RouteResponse describes a started route job. Path points are [lat, lon].
type RouteResponse struct {
	RouteID        int64        `json:"route_id"`
	RobotID        int          `json:"robot_id"`
	Start          string       `json:"start,omitempty"`
	End            string       `json:"end,omitempty"`
	RouteColor     string       `json:"route_color"`
	DurationS      float64      `json:"duration_s"`
	DistanceMeters float64      `json:"distance_m"`
	Path           [][2]float64 `json:"path"`
}

type LineResponse struct {
	ID     string `json:"id"`
	Number string `json:"number"`
	Name   string `json:"name"`
	Color  string `json:"color"`
}

type LinesResponse struct {
	Lines []LineResponse `json:"lines"`
}

func NewPath(path []domain.Coordinates) [][2]float64 {
	out := make([][2]float64, 0, len(path))
	for _, c := range path {
		out = append(out, [2]float64{c.Lat, c.Lon})
	}
	return out
}

func NewLines(lines []domain.TramLine) LinesResponse {
	out := LinesResponse{Lines: make([]LineResponse, 0, len(lines))}
	for _, l := range lines {
		out.Lines = append(out.Lines, LineResponse{ID: l.ID, Number: l.Number, Name: l.Name, Color: l.Color})
	}
	return out
}
