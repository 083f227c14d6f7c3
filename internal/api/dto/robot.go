package dto

import (
	"robot-route-service/internal/domain"
	"time"
)

type PackageResponse struct {
	Size        string `json:"size"`
	Start       string `json:"start"`
	Destination string `json:"destination"`
}

// RobotStatus mirrors a robot snapshot. Position is [lat, lon] or null.
type RobotStatus struct {
	RobotID           int               `json:"robot_id"`
	IsParked          bool              `json:"is_parked"`
	IsDoorOpened      bool              `json:"is_door_opened"`
	IsReversing       bool              `json:"is_reversing"`
	IsCharging        bool              `json:"is_charging"`
	BatteryStatus     float64           `json:"battery_status"`
	Message           string            `json:"message"`
	LEDRGB            [3]int            `json:"led_rgb"`
	Packages          []PackageResponse `json:"packages"`
	PackageCount      int               `json:"package_count"`
	PackageCountLarge int               `json:"package_count_large"`
	PackageCountSmall int               `json:"package_count_small"`
	Destination       string            `json:"destination,omitempty"`
	Progress          float64           `json:"progress"`
	Position          *[2]float64       `json:"position"`
	MessageCount      int               `json:"message_count"`
}

type MessageResponse struct {
	ID       int64   `json:"id"`
	RobotID  int     `json:"robot_id"`
	Event    string  `json:"event"`
	Text     string  `json:"text"`
	Progress float64 `json:"progress"`
	TS       float64 `json:"ts"`
}

type RobotReadResponse struct {
	RobotID       int               `json:"robot_id"`
	Status        RobotStatus       `json:"status"`
	LastMessageID int64             `json:"last_message_id"`
	Messages      []MessageResponse `json:"messages"`
}

type RobotCreateRequest struct {
	IsParked      *bool    `json:"is_parked"`
	IsDoorOpened  *bool    `json:"is_door_opened"`
	IsReversing   *bool    `json:"is_reversing"`
	IsCharging    *bool    `json:"is_charging"`
	BatteryStatus *float64 `json:"battery_status"`
	LEDRGB        []int    `json:"led_rgb"`
}

type RobotCreateResponse struct {
	RobotID    int         `json:"robot_id"`
	Status     RobotStatus `json:"status"`
	RobotCount int         `json:"robot_count"`
}

type RobotUpdateRequest struct {
	RobotID       int      `json:"robot_id"`
	IsParked      *bool    `json:"is_parked"`
	IsDoorOpened  *bool    `json:"is_door_opened"`
	IsReversing   *bool    `json:"is_reversing"`
	IsCharging    *bool    `json:"is_charging"`
	BatteryStatus *float64 `json:"battery_status"`
	LEDRGB        []int    `json:"led_rgb"`
	Message       *string  `json:"message"`
}

type RobotListResponse struct {
	Robots []RobotStatus `json:"robots"`
}

type NearbyRobotResponse struct {
	RobotID        int        `json:"robot_id"`
	DistanceMeters float64    `json:"distance_m"`
	Position       [2]float64 `json:"position"`
}

type NearbyResponse struct {
	Robots []NearbyRobotResponse `json:"robots"`
}

type PackageCreateRequest struct {
	RobotID     *int   `json:"robot_id"`
	Size        string `json:"size"`
	Start       string `json:"start"`
	Destination string `json:"destination"`
}

type PackageCreateResponse struct {
	Message      string      `json:"message"`
	RobotID      int         `json:"robot_id"`
	Status       RobotStatus `json:"status"`
	PackageCount int         `json:"package_count"`
}

func NewRobotStatus(s domain.RobotSnapshot) RobotStatus {
	pkgs := make([]PackageResponse, 0, len(s.Packages))
	for _, p := range s.Packages {
		pkgs = append(pkgs, PackageResponse{Size: p.Size.String(), Start: p.Start, Destination: p.Destination})
	}

	var pos *[2]float64
	if s.Position != nil {
		pos = &[2]float64{s.Position.Lat, s.Position.Lon}
	}

	return RobotStatus{
		RobotID:           s.ID,
		IsParked:          s.Parked,
		IsDoorOpened:      s.DoorOpened,
		IsReversing:       s.Reversing,
		IsCharging:        s.Charging,
		BatteryStatus:     s.Battery,
		Message:           s.Message,
		LEDRGB:            [3]int{int(s.LED.R), int(s.LED.G), int(s.LED.B)},
		Packages:          pkgs,
		PackageCount:      len(s.Packages),
		PackageCountLarge: s.LargePackageCount,
		PackageCountSmall: s.SmallPackageCount,
		Destination:       s.Destination,
		Progress:          s.Progress,
		Position:          pos,
		MessageCount:      s.MessageCount,
	}
}

func NewMessages(events []domain.Event) []MessageResponse {
	out := make([]MessageResponse, 0, len(events))
	for _, e := range events {
		out = append(out, MessageResponse{
			ID:       e.ID,
			RobotID:  e.RobotID,
			Event:    string(e.Kind),
			Text:     e.Text,
			Progress: e.Progress,
			TS:       float64(e.Timestamp.UnixNano()) / float64(time.Second),
		})
	}
	return out
}
