package employee

import (
	"context"
	"sync"
)

type StubRepository struct {
	mu     sync.Mutex
	nextId int
	data   map[string]Employee
}

func NewStubRepository() *StubRepository {
	return &StubRepository{data: map[string]Employee{}}
}

func (s *StubRepository) Ensure(ctx context.Context, email string, fullName string) (Employee, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.data[email]; ok {
		return e, nil
	}
	s.nextId++
	e := Employee{Id: s.nextId, Email: email, FullName: fullName, Status: "Active"}
	s.data[email] = e
	return e, nil
}

func (s *StubRepository) FindByEmail(ctx context.Context, email string) (Employee, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.data[email]
	if !ok {
		return Employee{}, ErrEmployeeNotFound
	}
	return e, nil
}
