package timesheet_record

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/klokku/worktime/internal/rest"
	"github.com/klokku/worktime/pkg/timesheet"
	log "github.com/sirupsen/logrus"
)

type EntryDTO struct {
	Id        string  `json:"id,omitempty"`
	ProjectId string  `json:"projectId"`
	Date      string  `json:"date"`
	Hours     float64 `json:"hours"`
}

type TimesheetDTO struct {
	Id         string     `json:"id"`
	WeekStart  string     `json:"weekStart"`
	Status     string     `json:"status"`
	TotalHours float64    `json:"totalHours"`
	Entries    []EntryDTO `json:"entries"`
}

type SyncRequestDTO struct {
	WeekStart string     `json:"weekStart"`
	Status    string     `json:"status"`
	Entries   []EntryDTO `json:"entries"`
}

type SyncResponseDTO struct {
	Success     bool    `json:"success"`
	TimesheetId string  `json:"timesheetId"`
	EntryCount  int     `json:"entryCount"`
	TotalHours  float64 `json:"totalHours"`
}

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// GetWeek godoc
// @Summary Get the caller's timesheet of a week
// @Tags Timesheet
// @Produce json
// @Param weekStart query string true "Any day of the week, YYYY-MM-DD"
// @Success 200 {object} TimesheetDTO
// @Failure 400 {object} rest.ErrorResponse
// @Failure 404 {object} rest.ErrorResponse
// @Router /api/timesheets [get]
func (h *Handler) GetWeek(w http.ResponseWriter, r *http.Request) {
	weekStartParam := r.URL.Query().Get("weekStart")
	log.Debugf("Fetching timesheet of week %s", weekStartParam)
	if weekStartParam == "" {
		rest.WriteError(w, http.StatusBadRequest, "Missing weekStart parameter", "")
		return
	}
	weekStart, err := timesheet.ParseDate(weekStartParam)
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid weekStart parameter", err.Error())
		return
	}

	record, err := h.service.GetWeek(r.Context(), weekStart)
	if err != nil {
		if errors.Is(err, ErrTimesheetNotFound) {
			rest.WriteError(w, http.StatusNotFound, "Timesheet not found", "")
			return
		}
		rest.WriteError(w, http.StatusInternalServerError, "Failed to fetch timesheet", err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(recordToDTO(record)); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// SyncWeek godoc
// @Summary Replace the caller's week with the given entries
// @Tags Timesheet
// @Accept json
// @Produce json
// @Param timesheet body SyncRequestDTO true "Week"
// @Success 200 {object} SyncResponseDTO
// @Failure 400 {object} rest.ErrorResponse
// @Failure 409 {object} rest.ErrorResponse
// @Router /api/timesheets/sync [post]
func (h *Handler) SyncWeek(w http.ResponseWriter, r *http.Request) {
	var dto SyncRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}
	log.Debugf("Syncing week %s as %s with %d entries", dto.WeekStart, dto.Status, len(dto.Entries))

	request, err := dtoToSyncRequest(dto)
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}

	result, err := h.service.SyncWeek(r.Context(), request)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidStatus), errors.Is(err, ErrInvalidEntry), errors.Is(err, timesheet.ErrEmptyTimesheet):
			rest.WriteError(w, http.StatusBadRequest, "Invalid timesheet", err.Error())
		case errors.Is(err, ErrTimesheetLocked):
			rest.WriteError(w, http.StatusConflict, "Timesheet can no longer be edited", err.Error())
		default:
			rest.WriteError(w, http.StatusInternalServerError, "Failed to sync timesheet", err.Error())
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	err = json.NewEncoder(w).Encode(SyncResponseDTO{
		Success:     true,
		TimesheetId: strconv.Itoa(result.TimesheetId),
		EntryCount:  result.EntryCount,
		TotalHours:  result.TotalHours,
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func dtoToSyncRequest(dto SyncRequestDTO) (SyncRequest, error) {
	weekStart, err := timesheet.ParseDate(dto.WeekStart)
	if err != nil {
		return SyncRequest{}, err
	}
	status := timesheet.StatusDraft
	if dto.Status != "" {
		status, err = timesheet.ParseStatus(dto.Status)
		if err != nil {
			return SyncRequest{}, err
		}
	}
	entries := make([]timesheet.Entry, 0, len(dto.Entries))
	for _, e := range dto.Entries {
		date, err := timesheet.ParseDate(e.Date)
		if err != nil {
			return SyncRequest{}, err
		}
		entries = append(entries, timesheet.Entry{
			Id:        e.Id,
			ProjectId: e.ProjectId,
			Date:      date,
			Hours:     e.Hours,
		})
	}
	return SyncRequest{WeekStart: weekStart, Status: status, Entries: entries}, nil
}

func recordToDTO(record Record) TimesheetDTO {
	entries := make([]EntryDTO, 0, len(record.Entries))
	for _, e := range record.Entries {
		entries = append(entries, EntryDTO{
			Id:        e.Id,
			ProjectId: e.ProjectId,
			Date:      timesheet.FormatDate(e.Date),
			Hours:     e.Hours,
		})
	}
	return TimesheetDTO{
		Id:         strconv.Itoa(record.Id),
		WeekStart:  timesheet.FormatDate(record.WeekStart),
		Status:     string(record.Status),
		TotalHours: record.TotalHours,
		Entries:    entries,
	}
}
