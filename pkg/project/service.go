package project

import (
	"context"
	"errors"
	"strings"
)

var ErrNameRequired = errors.New("project name and project code are required")

type Service interface {
	ListActive(ctx context.Context) ([]Project, error)
	Create(ctx context.Context, project Project) (Project, error)
}

type ServiceImpl struct {
	repo Repository
}

func NewService(repo Repository) *ServiceImpl {
	return &ServiceImpl{repo: repo}
}

func (s *ServiceImpl) ListActive(ctx context.Context) ([]Project, error) {
	return s.repo.ListActive(ctx)
}

// Create stores a new project, filling in the catalogue defaults.
func (s *ServiceImpl) Create(ctx context.Context, project Project) (Project, error) {
	project.Name = strings.TrimSpace(project.Name)
	project.Code = strings.TrimSpace(project.Code)
	if project.Name == "" || project.Code == "" {
		return Project{}, ErrNameRequired
	}
	if project.Color == "" {
		project.Color = defaultColor
	}
	if project.Status == "" {
		project.Status = StatusActive
	}
	return s.repo.Create(ctx, project)
}
