package employee

import (
	"context"
	"fmt"

	"github.com/klokku/worktime/pkg/user"
)

type Service interface {
	// Current returns the calling employee, provisioning it on first use.
	Current(ctx context.Context) (Employee, error)
	// Lookup returns the calling employee without creating it.
	Lookup(ctx context.Context) (Employee, error)
}

type ServiceImpl struct {
	repo Repository
}

func NewService(repo Repository) *ServiceImpl {
	return &ServiceImpl{repo: repo}
}

func (s *ServiceImpl) Current(ctx context.Context) (Employee, error) {
	u, err := user.CurrentUser(ctx)
	if err != nil {
		return Employee{}, fmt.Errorf("failed to get current user: %w", err)
	}
	return s.repo.Ensure(ctx, u.Email, u.DisplayName())
}

func (s *ServiceImpl) Lookup(ctx context.Context) (Employee, error) {
	u, err := user.CurrentUser(ctx)
	if err != nil {
		return Employee{}, fmt.Errorf("failed to get current user: %w", err)
	}
	return s.repo.FindByEmail(ctx, u.Email)
}
