package draft_cache

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/klokku/worktime/pkg/timesheet"
)

type draftKey struct {
	weekStart string
	projectId string
	date      string
}

// StubCache is an in-memory Cache.
type StubCache struct {
	mu     sync.Mutex
	drafts map[draftKey]Draft
}

func NewStubCache() *StubCache {
	return &StubCache{drafts: map[draftKey]Draft{}}
}

func (s *StubCache) SaveDraft(ctx context.Context, draft Draft) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	draft.WeekStart = timesheet.WeekStart(draft.WeekStart)
	draft.Date = timesheet.Day(draft.Date)
	draft.Hours = timesheet.NormalizeHours(draft.Hours)
	key := draftKey{timesheet.FormatDate(draft.WeekStart), draft.ProjectId, timesheet.FormatDate(draft.Date)}
	s.drafts[key] = draft
	return nil
}

func (s *StubCache) GetDrafts(ctx context.Context, weekStart time.Time) ([]Draft, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	week := timesheet.FormatDate(timesheet.WeekStart(weekStart))
	drafts := make([]Draft, 0)
	for key, d := range s.drafts {
		if key.weekStart == week {
			drafts = append(drafts, d)
		}
	}
	sort.Slice(drafts, func(i, j int) bool {
		if !drafts[i].Date.Equal(drafts[j].Date) {
			return drafts[i].Date.Before(drafts[j].Date)
		}
		return drafts[i].ProjectId < drafts[j].ProjectId
	})
	return drafts, nil
}

func (s *StubCache) ClearWeek(ctx context.Context, weekStart time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	week := timesheet.FormatDate(timesheet.WeekStart(weekStart))
	for key := range s.drafts {
		if key.weekStart == week {
			delete(s.drafts, key)
		}
	}
	return nil
}

func (s *StubCache) ClearSynced(ctx context.Context, weekStart time.Time, synced []timesheet.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	week := timesheet.FormatDate(timesheet.WeekStart(weekStart))
	syncedHours := hoursByCell(synced)
	for key, d := range s.drafts {
		if key.weekStart == week && d.Hours == syncedHours[cellOf(d.ProjectId, d.Date)] {
			delete(s.drafts, key)
		}
	}
	return nil
}
