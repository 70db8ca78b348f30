package remote

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/klokku/worktime/internal/utils"
	"github.com/klokku/worktime/pkg/timesheet"
)

// ClientStub is an in-memory record store with the same full-replace and
// single-open-session semantics as the real one.
type ClientStub struct {
	mu        sync.Mutex
	clock     utils.Clock
	weeks     map[string]timesheet.WeeklyTimesheet
	nextId    int
	active    bool
	loginTime time.Time
	projects  []Project

	// BeforeFetch, when set, runs before FetchWeek reads the stored week.
	BeforeFetch func(weekStart time.Time)
	// BeforeSync, when set, runs before SyncWeek stores the week.
	BeforeSync func(ts timesheet.WeeklyTimesheet)
	FetchErr   error
	SyncErr    error
	ClockErr   error
	StatusErr  error
	SyncCalls  int
}

func NewClientStub(clock utils.Clock) *ClientStub {
	return &ClientStub{
		clock: clock,
		weeks: map[string]timesheet.WeeklyTimesheet{},
	}
}

// Put stores ts as if another client had synced it.
func (s *ClientStub) Put(ts timesheet.WeeklyTimesheet) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ts.WeekStart = timesheet.WeekStart(ts.WeekStart)
	if ts.Id == "" {
		s.nextId++
		ts.Id = strconv.Itoa(s.nextId)
	}
	s.weeks[timesheet.FormatDate(ts.WeekStart)] = ts
}

// Stored returns the stored week, if any.
func (s *ClientStub) Stored(weekStart time.Time) (timesheet.WeeklyTimesheet, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ts, ok := s.weeks[timesheet.FormatDate(timesheet.WeekStart(weekStart))]
	return ts, ok
}

func (s *ClientStub) SetProjects(projects []Project) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.projects = projects
}

func (s *ClientStub) FetchWeek(ctx context.Context, weekStart time.Time) (timesheet.WeeklyTimesheet, error) {
	if s.BeforeFetch != nil {
		s.BeforeFetch(weekStart)
	}
	if err := ctx.Err(); err != nil {
		return timesheet.WeeklyTimesheet{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FetchErr != nil {
		return timesheet.WeeklyTimesheet{}, s.FetchErr
	}
	ts, ok := s.weeks[timesheet.FormatDate(timesheet.WeekStart(weekStart))]
	if !ok {
		return timesheet.WeeklyTimesheet{}, ErrNotFound
	}
	ts.Entries = append([]timesheet.Entry(nil), ts.Entries...)
	return ts, nil
}

func (s *ClientStub) SyncWeek(ctx context.Context, ts timesheet.WeeklyTimesheet) (SyncResult, error) {
	if s.BeforeSync != nil {
		s.BeforeSync(ts)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.SyncCalls++
	if s.SyncErr != nil {
		return SyncResult{}, s.SyncErr
	}

	key := timesheet.FormatDate(timesheet.WeekStart(ts.WeekStart))
	stored, ok := s.weeks[key]
	if ok && stored.Status != timesheet.StatusDraft {
		return SyncResult{}, &Error{StatusCode: 409, Message: fmt.Sprintf("timesheet is %s", stored.Status)}
	}
	if !ok {
		s.nextId++
		stored = timesheet.WeeklyTimesheet{Id: strconv.Itoa(s.nextId), WeekStart: timesheet.WeekStart(ts.WeekStart)}
	}
	stored.Status = ts.Status
	stored.Entries = append([]timesheet.Entry(nil), ts.Entries...)
	s.weeks[key] = stored

	return SyncResult{
		TimesheetId: stored.Id,
		EntryCount:  len(stored.Entries),
		TotalHours:  stored.TotalHours(),
	}, nil
}

func (s *ClientStub) ClockAction(ctx context.Context, action ClockAction) (ClockState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ClockErr != nil {
		return ClockState{}, s.ClockErr
	}
	switch action {
	case ClockStart:
		if s.active {
			return ClockState{}, fmt.Errorf("%w: Already clocked in", ErrConflict)
		}
		s.active = true
		s.loginTime = s.clock.Now()
		return ClockState{IsActive: true, LoginTime: s.loginTime}, nil
	case ClockStop:
		if !s.active {
			return ClockState{}, fmt.Errorf("%w: No active session", ErrConflict)
		}
		s.active = false
		s.loginTime = time.Time{}
		return ClockState{}, nil
	default:
		return ClockState{}, &Error{StatusCode: 400, Message: "unknown action " + string(action)}
	}
}

func (s *ClientStub) ClockStatus(ctx context.Context) (ClockState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ClockErr != nil {
		return ClockState{}, s.ClockErr
	}
	if s.StatusErr != nil {
		return ClockState{}, s.StatusErr
	}
	return ClockState{IsActive: s.active, LoginTime: s.loginTime}, nil
}

func (s *ClientStub) ListProjects(ctx context.Context) ([]Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Project(nil), s.projects...), nil
}
