package project

import (
	"context"
	"sort"
	"strconv"
	"sync"
)

type StubRepository struct {
	mu       sync.Mutex
	nextId   int
	projects []Project
}

func NewStubRepository() *StubRepository {
	return &StubRepository{}
}

func (s *StubRepository) ListActive(ctx context.Context) ([]Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	result := make([]Project, 0)
	for _, p := range s.projects {
		if p.Status == StatusActive {
			result = append(result, p)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

func (s *StubRepository) Create(ctx context.Context, project Project) (Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextId++
	project.Id = "project-" + strconv.Itoa(s.nextId)
	s.projects = append(s.projects, project)
	return project, nil
}
