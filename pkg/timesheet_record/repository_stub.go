package timesheet_record

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/klokku/worktime/pkg/timesheet"
)

type recordKey struct {
	employeeId int
	weekStart  string
}

type StubRepository struct {
	mu      sync.Mutex
	nextId  int
	records map[recordKey]Record
}

func NewStubRepository() *StubRepository {
	return &StubRepository{records: map[recordKey]Record{}}
}

func (s *StubRepository) Get(ctx context.Context, employeeId int, weekStart time.Time) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.records[recordKey{employeeId, timesheet.FormatDate(weekStart)}]
	if !ok {
		return Record{}, ErrTimesheetNotFound
	}
	record.Entries = append([]timesheet.Entry(nil), record.Entries...)
	return record, nil
}

func (s *StubRepository) Replace(ctx context.Context, employeeId int, weekStart time.Time, status timesheet.Status, entries []timesheet.Entry) (SyncResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := recordKey{employeeId, timesheet.FormatDate(weekStart)}
	record, ok := s.records[key]
	if !ok {
		s.nextId++
		record = Record{Id: s.nextId, EmployeeId: employeeId, WeekStart: weekStart, Status: timesheet.StatusDraft}
	}
	if record.Status != timesheet.StatusDraft {
		return SyncResult{}, fmt.Errorf("%w: status is %s", ErrTimesheetLocked, record.Status)
	}
	record.Status = status
	record.Entries = append([]timesheet.Entry(nil), entries...)
	record.TotalHours = 0
	for _, e := range entries {
		record.TotalHours += e.Hours
	}
	s.records[key] = record
	return SyncResult{TimesheetId: record.Id, EntryCount: len(entries), TotalHours: record.TotalHours}, nil
}

// SetStatus simulates an approver acting on a stored week.
func (s *StubRepository) SetStatus(employeeId int, weekStart time.Time, status timesheet.Status) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := recordKey{employeeId, timesheet.FormatDate(weekStart)}
	record := s.records[key]
	record.Status = status
	s.records[key] = record
}
