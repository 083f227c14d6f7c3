package handlers

import (
	"net/http"
	"robot-route-service/internal/api/dto"
	"robot-route-service/internal/domain"
	"robot-route-service/internal/ports"
	"robot-route-service/internal/services"
	"time"
)

type RouteHandler struct {
	Starter *services.RouteStarter
	Catalog ports.LineCatalog
}

// MapRoute resolves start/end through the route provider and drives the robot along the path.
func (h *RouteHandler) MapRoute(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodPost) {
		return
	}

	var req dto.MapRouteRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if req.RobotID == nil {
		writeError(w, r, http.StatusBadRequest, "robot_id is required")
		return
	}

	var duration time.Duration
	if req.DurationS != nil {
		// an explicit non-positive duration is the shortest allowed, not the default
		duration = services.MinRouteDuration
		if *req.DurationS > 0 {
			duration = secondsToDuration(*req.DurationS)
		}
	}

	started, err := h.Starter.StartByAddress(r.Context(), services.AddressRouteRequest{
		RobotID:    *req.RobotID,
		Start:      req.Start,
		End:        req.End,
		Duration:   duration,
		LineNumber: req.LineNumber,
		LineID:     req.LineID,
	})
	if err != nil {
		writeDomainError(w, r, "map route", err)
		return
	}

	writeJSON(w, r, http.StatusOK, newRouteResponse(started))
}

// StartWaypoints drives the robot along caller-provided [lat, lon] points.
func (h *RouteHandler) StartWaypoints(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodPost) {
		return
	}

	var req dto.WaypointRouteRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if req.RobotID == nil {
		writeError(w, r, http.StatusBadRequest, "robot_id is required")
		return
	}

	waypoints := make([]domain.Coordinates, 0, len(req.Waypoints))
	for _, p := range req.Waypoints {
		waypoints = append(waypoints, domain.Coordinates{Lat: p[0], Lon: p[1]})
	}

	started, err := h.Starter.StartByWaypoints(*req.RobotID, waypoints, secondsToDuration(req.DurationS))
	if err != nil {
		writeDomainError(w, r, "start waypoints", err)
		return
	}

	writeJSON(w, r, http.StatusOK, newRouteResponse(started))
}

func (h *RouteHandler) Lines(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodGet) {
		return
	}

	var lines []domain.TramLine
	if h.Catalog != nil {
		lines = h.Catalog.Lines()
	}
	writeJSON(w, r, http.StatusOK, dto.NewLines(lines))
}

func newRouteResponse(s services.RouteStarted) dto.RouteResponse {
	return dto.RouteResponse{
		RouteID:        s.JobID,
		RobotID:        s.RobotID,
		Start:          s.Start,
		End:            s.End,
		RouteColor:     s.Color,
		DurationS:      s.Duration.Seconds(),
		DistanceMeters: s.DistanceMeters,
		Path:           dto.NewPath(s.Path),
	}
}

func secondsToDuration(s float64) time.Duration {
	if s <= 0 {
		return 0
	}
	return time.Duration(s * float64(time.Second))
}
