package timesheet_record

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/klokku/worktime/pkg/employee"
	"github.com/klokku/worktime/pkg/timesheet"
	log "github.com/sirupsen/logrus"
)

var ErrInvalidStatus = errors.New("only Draft or Submitted can be synced")
var ErrInvalidEntry = errors.New("invalid timesheet entry")

type Service interface {
	GetWeek(ctx context.Context, weekStart time.Time) (Record, error)
	SyncWeek(ctx context.Context, request SyncRequest) (SyncResult, error)
}

type ServiceImpl struct {
	repo      Repository
	employees employee.Service
}

func NewService(repo Repository, employees employee.Service) *ServiceImpl {
	return &ServiceImpl{repo: repo, employees: employees}
}

// GetWeek returns the caller's week or ErrTimesheetNotFound.
func (s *ServiceImpl) GetWeek(ctx context.Context, weekStart time.Time) (Record, error) {
	e, err := s.employees.Lookup(ctx)
	if err != nil {
		if errors.Is(err, employee.ErrEmployeeNotFound) {
			return Record{}, ErrTimesheetNotFound
		}
		return Record{}, err
	}
	return s.repo.Get(ctx, e.Id, timesheet.WeekStart(weekStart))
}

// SyncWeek replaces the caller's week with the request, provisioning the
// employee on first use.
func (s *ServiceImpl) SyncWeek(ctx context.Context, request SyncRequest) (SyncResult, error) {
	weekStart := timesheet.WeekStart(request.WeekStart)
	if request.Status != timesheet.StatusDraft && request.Status != timesheet.StatusSubmitted {
		return SyncResult{}, fmt.Errorf("%w: got %q", ErrInvalidStatus, request.Status)
	}
	entries, err := validateEntries(weekStart, request.Entries)
	if err != nil {
		return SyncResult{}, err
	}
	if request.Status == timesheet.StatusSubmitted {
		if err := timesheet.NewStatusMachine(timesheet.StatusDraft).Submit(sumHours(entries)); err != nil {
			return SyncResult{}, err
		}
	}

	e, err := s.employees.Current(ctx)
	if err != nil {
		return SyncResult{}, err
	}

	result, err := s.repo.Replace(ctx, e.Id, weekStart, request.Status, entries)
	if err != nil {
		return SyncResult{}, err
	}
	log.Infof("synced week %s of employee %d as %s: %d entries, %.2fh",
		timesheet.FormatDate(weekStart), e.Id, request.Status, result.EntryCount, result.TotalHours)
	return result, nil
}

// validateEntries normalises hours, drops empty cells and rejects entries
// outside the week or repeating a (project, date) pair.
func validateEntries(weekStart time.Time, entries []timesheet.Entry) ([]timesheet.Entry, error) {
	type key struct {
		projectId string
		day       int
	}
	seen := map[key]bool{}
	valid := make([]timesheet.Entry, 0, len(entries))
	for _, e := range entries {
		if e.ProjectId == "" {
			return nil, fmt.Errorf("%w: missing projectId", ErrInvalidEntry)
		}
		day := timesheet.DayIndex(weekStart, e.Date)
		if day < 0 {
			return nil, fmt.Errorf("%w: %s is outside of week %s", ErrInvalidEntry,
				timesheet.FormatDate(e.Date), timesheet.FormatDate(weekStart))
		}
		k := key{e.ProjectId, day}
		if seen[k] {
			return nil, fmt.Errorf("%w: duplicate entry for %s on %s", ErrInvalidEntry, e.ProjectId, timesheet.FormatDate(e.Date))
		}
		seen[k] = true

		e.Hours = timesheet.NormalizeHours(e.Hours)
		if e.Hours == 0 {
			continue
		}
		if _, err := uuid.Parse(e.Id); err != nil {
			e.Id = uuid.NewString()
		}
		e.Date = timesheet.DayOfWeek(weekStart, day)
		valid = append(valid, e)
	}
	return valid, nil
}

func sumHours(entries []timesheet.Entry) float64 {
	var total float64
	for _, e := range entries {
		total += e.Hours
	}
	return total
}
