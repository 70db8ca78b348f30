package attendance_log

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/klokku/worktime/internal/rest"
	log "github.com/sirupsen/logrus"
)

type ActionRequestDTO struct {
	Action string `json:"action"`
}

type ActionResponseDTO struct {
	Success   bool    `json:"success"`
	LoginTime *string `json:"loginTime,omitempty"`
}

type StatusDTO struct {
	IsActive  bool    `json:"isActive"`
	LoginTime *string `json:"loginTime,omitempty"`
}

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// PerformAction godoc
// @Summary Clock in or out
// @Tags Attendance
// @Accept json
// @Produce json
// @Param action body ActionRequestDTO true "START or STOP"
// @Success 200 {object} ActionResponseDTO
// @Failure 400 {object} rest.ErrorResponse
// @Failure 409 {object} rest.ErrorResponse
// @Router /api/attendance/action [post]
func (h *Handler) PerformAction(w http.ResponseWriter, r *http.Request) {
	var dto ActionRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}
	log.Debugf("Attendance action %s", dto.Action)

	l, err := h.service.Perform(r.Context(), Action(dto.Action))
	if err != nil {
		switch {
		case errors.Is(err, ErrUnknownAction):
			rest.WriteError(w, http.StatusBadRequest, "Action must be START or STOP", "")
		case errors.Is(err, ErrSessionActive):
			rest.WriteError(w, http.StatusConflict, "Already clocked in", "")
		case errors.Is(err, ErrNoActiveSession):
			rest.WriteError(w, http.StatusConflict, "No active session found", "")
		default:
			rest.WriteError(w, http.StatusInternalServerError, "Failed to process attendance", err.Error())
		}
		return
	}

	response := ActionResponseDTO{Success: true}
	if Action(dto.Action) == ActionStart {
		response.LoginTime = formatTime(l.LoginTime)
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// GetStatus godoc
// @Summary Current attendance state of the caller
// @Tags Attendance
// @Produce json
// @Success 200 {object} StatusDTO
// @Router /api/attendance/status [get]
func (h *Handler) GetStatus(w http.ResponseWriter, r *http.Request) {
	response := StatusDTO{}
	l, err := h.service.Status(r.Context())
	switch {
	case err == nil:
		response.IsActive = true
		response.LoginTime = formatTime(l.LoginTime)
	case errors.Is(err, ErrNoActiveSession):
	default:
		rest.WriteError(w, http.StatusInternalServerError, "Failed to fetch attendance status", err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func formatTime(t time.Time) *string {
	formatted := t.UTC().Format(time.RFC3339)
	return &formatted
}
