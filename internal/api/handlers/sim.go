package handlers

import (
	"net/http"
	"robot-route-service/internal/api/dto"
	"robot-route-service/internal/simulation"
)

type SimHandler struct {
	Sim *simulation.Simulation
}

// Reset stops every job, clears the fleet and rewinds the clock.
func (h *SimHandler) Reset(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodPost) {
		return
	}

	h.Sim.Reset()
	writeJSON(w, r, http.StatusOK, dto.MessageOnly{Message: "Simulation reset."})
}

func (h *SimHandler) Heartbeat(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodGet) {
		return
	}

	writeJSON(w, r, http.StatusOK, h.heartbeat())
}

// Speed changes the wall-clock seconds between clock ticks.
func (h *SimHandler) Speed(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodPost) {
		return
	}

	var req dto.SpeedRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.Sim.Clock().SetSecondsPerTick(req.SecondsPerTick); err != nil {
		writeDomainError(w, r, "set speed", err)
		return
	}

	writeJSON(w, r, http.StatusOK, h.heartbeat())
}

func (h *SimHandler) Jobs(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodGet) {
		return
	}

	jobs := h.Sim.Jobs()
	res := dto.JobsResponse{Jobs: make([]dto.JobResponse, 0, len(jobs))}
	for _, j := range jobs {
		res.Jobs = append(res.Jobs, dto.JobResponse{
			RouteID:     j.ID,
			RobotID:     j.RobotID,
			State:       j.State.String(),
			DurationS:   j.Duration.Seconds(),
			StartedAt:   j.StartedAt,
			TotalMeters: j.TotalMeters,
			Points:      j.Points,
		})
	}

	writeJSON(w, r, http.StatusOK, res)
}

func (h *SimHandler) heartbeat() dto.HeartbeatResponse {
	st := h.Sim.Clock().State()
	return dto.HeartbeatResponse{
		Ticks:          st.Ticks,
		SecondsPerTick: st.SecondsPerTick,
		DateTime:       st.DateTime,
		Date:           st.Date,
		Time:           st.Time,
		RobotCount:     len(h.Sim.Robots()),
		ActiveJobs:     h.Sim.Scheduler().Active(),
	}
}
