package attendance_log

import (
	"context"
	"errors"
	"fmt"

	"github.com/klokku/worktime/internal/utils"
	"github.com/klokku/worktime/pkg/employee"
	log "github.com/sirupsen/logrus"
)

var ErrUnknownAction = errors.New("unknown attendance action")

type Service interface {
	Perform(ctx context.Context, action Action) (Log, error)
	// Status returns the open session; ErrNoActiveSession when clocked out.
	Status(ctx context.Context) (Log, error)
}

type ServiceImpl struct {
	repo      Repository
	employees employee.Service
	clock     utils.Clock
}

func NewService(repo Repository, employees employee.Service, clock utils.Clock) *ServiceImpl {
	return &ServiceImpl{repo: repo, employees: employees, clock: clock}
}

func (s *ServiceImpl) Perform(ctx context.Context, action Action) (Log, error) {
	if action != ActionStart && action != ActionStop {
		return Log{}, fmt.Errorf("%w: %q", ErrUnknownAction, action)
	}
	e, err := s.employees.Current(ctx)
	if err != nil {
		return Log{}, err
	}

	now := s.clock.Now().UTC()
	if action == ActionStart {
		l, err := s.repo.Open(ctx, e.Id, now)
		if err == nil {
			log.Infof("employee %d clocked in", e.Id)
		}
		return l, err
	}
	l, err := s.repo.Close(ctx, e.Id, now)
	if err == nil {
		log.Infof("employee %d clocked out after %s", e.Id, now.Sub(l.LoginTime))
	}
	return l, err
}

func (s *ServiceImpl) Status(ctx context.Context) (Log, error) {
	e, err := s.employees.Lookup(ctx)
	if err != nil {
		if errors.Is(err, employee.ErrEmployeeNotFound) {
			return Log{}, ErrNoActiveSession
		}
		return Log{}, err
	}
	return s.repo.FindOpen(ctx, e.Id)
}
