package project

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/klokku/worktime/internal/rest"
	log "github.com/sirupsen/logrus"
)

type ProjectDTO struct {
	Id       string `json:"id"`
	Name     string `json:"name"`
	Code     string `json:"code"`
	Billable bool   `json:"billable"`
	Color    string `json:"color"`
}

type CreateProjectDTO struct {
	ProjectName string `json:"projectName"`
	ProjectCode string `json:"projectCode"`
	Billable    bool   `json:"billable"`
	Color       string `json:"color"`
	Status      string `json:"status"`
}

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// ListProjects godoc
// @Summary List active projects
// @Tags Project
// @Produce json
// @Success 200 {array} ProjectDTO
// @Failure 401 {object} rest.ErrorResponse
// @Router /api/projects [get]
func (h *Handler) ListProjects(w http.ResponseWriter, r *http.Request) {
	log.Debug("Listing projects")
	projects, err := h.service.ListActive(r.Context())
	if err != nil {
		rest.WriteError(w, http.StatusInternalServerError, "Failed to fetch projects", err.Error())
		return
	}

	dtos := make([]ProjectDTO, 0, len(projects))
	for _, p := range projects {
		dtos = append(dtos, toDTO(p))
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(dtos); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// CreateProject godoc
// @Summary Create a project
// @Tags Project
// @Accept json
// @Produce json
// @Param project body CreateProjectDTO true "Project"
// @Success 201 {object} ProjectDTO
// @Failure 400 {object} rest.ErrorResponse
// @Router /api/projects [post]
func (h *Handler) CreateProject(w http.ResponseWriter, r *http.Request) {
	log.Debug("Creating project")
	var dto CreateProjectDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}

	created, err := h.service.Create(r.Context(), Project{
		Name:     dto.ProjectName,
		Code:     dto.ProjectCode,
		Billable: dto.Billable,
		Color:    dto.Color,
		Status:   dto.Status,
	})
	if err != nil {
		if errors.Is(err, ErrNameRequired) {
			rest.WriteError(w, http.StatusBadRequest, "Project Name and Project Code are required", "")
			return
		}
		rest.WriteError(w, http.StatusInternalServerError, "Failed to create project", err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(toDTO(created)); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func toDTO(p Project) ProjectDTO {
	code := p.Code
	if code == "" {
		code = defaultCode
	}
	color := p.Color
	if color == "" {
		color = defaultColor
	}
	return ProjectDTO{
		Id:       p.Id,
		Name:     p.Name,
		Code:     code,
		Billable: p.Billable,
		Color:    color,
	}
}
