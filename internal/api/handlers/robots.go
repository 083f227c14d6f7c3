package handlers

import (
	"fmt"
	"net/http"
	"robot-route-service/internal/api/dto"
	"robot-route-service/internal/domain"
	"robot-route-service/internal/ports"
	"strconv"
	"strings"
)

// Fleet is the robot registry the HTTP layer works against.
type Fleet interface {
	CreateRobot(opts domain.RobotOptions) (*domain.Robot, error)
	Robot(id int) (*domain.Robot, error)
	Robots() []*domain.Robot
	DeleteRobot(id int) error
	AddPackage(robotID int, pkg domain.Package) error
}

type RobotHandler struct {
	Fleet   Fleet
	Locator ports.RobotLocator
}

// Create accepts overrides as query parameters (led_rgb as "r,g,b") or as a JSON body.
func (h *RobotHandler) Create(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodPost) {
		return
	}

	opts, err := robotOptionsFromQuery(r)
	if err != nil {
		writeDomainError(w, r, "create robot", err)
		return
	}

	var body dto.RobotCreateRequest
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if err := applyCreateBody(&opts, body); err != nil {
		writeDomainError(w, r, "create robot", err)
		return
	}

	robot, err := h.Fleet.CreateRobot(opts)
	if err != nil {
		writeDomainError(w, r, "create robot", err)
		return
	}

	writeJSON(w, r, http.StatusCreated, dto.RobotCreateResponse{
		RobotID:    robot.ID(),
		Status:     dto.NewRobotStatus(robot.Snapshot()),
		RobotCount: len(h.Fleet.Robots()),
	})
}

// Read returns the robot status plus every message after since_message_id.
func (h *RobotHandler) Read(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodGet) {
		return
	}

	id, err := queryRobotID(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	robot, err := h.Fleet.Robot(id)
	if err != nil {
		writeDomainError(w, r, "read robot", err)
		return
	}

	lastID, events := robot.MessagesSince(queryCursor(r))
	writeJSON(w, r, http.StatusOK, dto.RobotReadResponse{
		RobotID:       id,
		Status:        dto.NewRobotStatus(robot.Snapshot()),
		LastMessageID: lastID,
		Messages:      dto.NewMessages(events),
	})
}

func (h *RobotHandler) Update(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodPost, http.MethodPatch) {
		return
	}

	var req dto.RobotUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if req.RobotID == 0 {
		if id, err := queryRobotID(r); err == nil {
			req.RobotID = id
		}
	}

	robot, err := h.Fleet.Robot(req.RobotID)
	if err != nil {
		writeDomainError(w, r, "update robot", err)
		return
	}

	u := domain.RobotUpdate{
		Parked:     req.IsParked,
		DoorOpened: req.IsDoorOpened,
		Reversing:  req.IsReversing,
		Charging:   req.IsCharging,
		Battery:    req.BatteryStatus,
		Message:    req.Message,
	}
	if req.LEDRGB != nil {
		led, err := ledFromInts(req.LEDRGB)
		if err != nil {
			writeDomainError(w, r, "update robot", err)
			return
		}
		u.LED = &led
	}

	if err := robot.Apply(u); err != nil {
		writeDomainError(w, r, "update robot", err)
		return
	}

	writeJSON(w, r, http.StatusOK, dto.NewRobotStatus(robot.Snapshot()))
}

// Delete stops the robot's route jobs and removes it.
func (h *RobotHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodPost, http.MethodDelete) {
		return
	}

	id, err := queryRobotID(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.Fleet.DeleteRobot(id); err != nil {
		writeDomainError(w, r, "delete robot", err)
		return
	}

	writeJSON(w, r, http.StatusOK, dto.MessageOnly{Message: fmt.Sprintf("Robot %d deleted.", id)})
}

func (h *RobotHandler) List(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodGet) {
		return
	}

	robots := h.Fleet.Robots()
	res := dto.RobotListResponse{Robots: make([]dto.RobotStatus, 0, len(robots))}
	for _, robot := range robots {
		res.Robots = append(res.Robots, dto.NewRobotStatus(robot.Snapshot()))
	}

	writeJSON(w, r, http.StatusOK, res)
}

// Nearby queries the fleet position index around lat/lon.
func (h *RobotHandler) Nearby(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodGet) {
		return
	}

	if h.Locator == nil {
		writeDomainError(w, r, "nearby robots", domain.ErrFleetIndexMissing)
		return
	}

	lat, err := queryFloat(r, "lat", 0)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	lon, err := queryFloat(r, "lon", 0)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	radius, err := queryFloat(r, "radius_m", 500)
	if err != nil || radius <= 0 {
		writeError(w, r, http.StatusBadRequest, "radius_m must be a positive number")
		return
	}
	limit, err := queryFloat(r, "limit", 10)
	if err != nil || limit < 1 || limit > 1000 {
		writeError(w, r, http.StatusBadRequest, "limit must be between 1 and 1000")
		return
	}

	center := domain.Coordinates{Lat: lat, Lon: lon}
	if !center.Valid() {
		writeError(w, r, http.StatusBadRequest, "lat/lon out of range")
		return
	}

	found, err := h.Locator.Nearby(r.Context(), center, radius, int(limit))
	if err != nil {
		writeDomainError(w, r, "nearby robots", err)
		return
	}

	res := dto.NearbyResponse{Robots: make([]dto.NearbyRobotResponse, 0, len(found))}
	for _, n := range found {
		res.Robots = append(res.Robots, dto.NearbyRobotResponse{
			RobotID:        n.RobotID,
			DistanceMeters: n.DistanceMeters,
			Position:       [2]float64{n.Position.Lat, n.Position.Lon},
		})
	}
	writeJSON(w, r, http.StatusOK, res)
}

func robotOptionsFromQuery(r *http.Request) (domain.RobotOptions, error) {
	opts := domain.DefaultRobotOptions()
	q := r.URL.Query()

	flags := map[string]*bool{
		"is_parked":      &opts.Parked,
		"is_door_opened": &opts.DoorOpened,
		"is_reversing":   &opts.Reversing,
		"is_charging":    &opts.Charging,
	}
	for key, dst := range flags {
		if v := strings.TrimSpace(q.Get(key)); v != "" {
			*dst = strings.EqualFold(v, "true")
		}
	}

	if v := strings.TrimSpace(q.Get("battery_status")); v != "" {
		b, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return opts, fmt.Errorf("%w: %q", domain.ErrInvalidBattery, v)
		}
		opts.Battery = b
	}

	if v := strings.TrimSpace(q.Get("led_rgb")); v != "" {
		parts := strings.Split(v, ",")
		ints := make([]int, 0, len(parts))
		for _, p := range parts {
			n, err := strconv.Atoi(strings.TrimSpace(p))
			if err != nil {
				return opts, fmt.Errorf("%w: %q", domain.ErrInvalidLED, v)
			}
			ints = append(ints, n)
		}
		led, err := ledFromInts(ints)
		if err != nil {
			return opts, err
		}
		opts.LED = led
	}

	return opts, nil
}

func applyCreateBody(opts *domain.RobotOptions, b dto.RobotCreateRequest) error {
	if b.IsParked != nil {
		opts.Parked = *b.IsParked
	}
	if b.IsDoorOpened != nil {
		opts.DoorOpened = *b.IsDoorOpened
	}
	if b.IsReversing != nil {
		opts.Reversing = *b.IsReversing
	}
	if b.IsCharging != nil {
		opts.Charging = *b.IsCharging
	}
	if b.BatteryStatus != nil {
		opts.Battery = *b.BatteryStatus
	}
	if b.LEDRGB != nil {
		led, err := ledFromInts(b.LEDRGB)
		if err != nil {
			return err
		}
		opts.LED = led
	}
	return domain.ValidateBattery(opts.Battery)
}
