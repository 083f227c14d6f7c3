package handlers

import (
	"fmt"
	"net/http"
	"robot-route-service/internal/api/dto"
	"robot-route-service/internal/domain"
)

type PackageHandler struct {
	Fleet Fleet
}

// Create loads one package onto a robot. start defaults to the central station.
func (h *PackageHandler) Create(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodPost) {
		return
	}

	var req dto.PackageCreateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if req.RobotID == nil {
		writeError(w, r, http.StatusBadRequest, "robot_id is required")
		return
	}

	size, err := domain.ParsePackageSize(req.Size)
	if err != nil {
		writeDomainError(w, r, "create package", err)
		return
	}

	pkg, err := domain.NewPackage(size, req.Start, req.Destination)
	if err != nil {
		writeDomainError(w, r, "create package", err)
		return
	}
	if err := h.Fleet.AddPackage(*req.RobotID, pkg); err != nil {
		writeDomainError(w, r, "create package", err)
		return
	}

	robot, err := h.Fleet.Robot(*req.RobotID)
	if err != nil {
		writeDomainError(w, r, "create package", err)
		return
	}
	status := dto.NewRobotStatus(robot.Snapshot())

	writeJSON(w, r, http.StatusCreated, dto.PackageCreateResponse{
		Message:      fmt.Sprintf("%s package added to robot %d.", size, *req.RobotID),
		RobotID:      *req.RobotID,
		Status:       status,
		PackageCount: status.PackageCount,
	})
}
