package attendance_log

import (
	"context"
	"sync"
	"time"
)

type StubRepository struct {
	mu     sync.Mutex
	nextId int
	logs   []Log
}

func NewStubRepository() *StubRepository {
	return &StubRepository{}
}

func (s *StubRepository) Open(ctx context.Context, employeeId int, loginTime time.Time) (Log, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.findOpen(employeeId); ok {
		return Log{}, ErrSessionActive
	}
	s.nextId++
	l := Log{Id: s.nextId, EmployeeId: employeeId, LoginTime: loginTime, Status: StatusActive}
	s.logs = append(s.logs, l)
	return l, nil
}

func (s *StubRepository) Close(ctx context.Context, employeeId int, logoutTime time.Time) (Log, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.findOpen(employeeId)
	if !ok {
		return Log{}, ErrNoActiveSession
	}
	s.logs[i].LogoutTime = &logoutTime
	s.logs[i].Status = StatusCompleted
	return s.logs[i], nil
}

func (s *StubRepository) FindOpen(ctx context.Context, employeeId int) (Log, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.findOpen(employeeId)
	if !ok {
		return Log{}, ErrNoActiveSession
	}
	return s.logs[i], nil
}

func (s *StubRepository) findOpen(employeeId int) (int, bool) {
	for i := len(s.logs) - 1; i >= 0; i-- {
		l := s.logs[i]
		if l.EmployeeId == employeeId && l.LogoutTime == nil && l.Status == StatusActive {
			return i, true
		}
	}
	return 0, false
}
