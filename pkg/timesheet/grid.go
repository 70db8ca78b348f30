package timesheet

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

var ErrNotEditable = errors.New("timesheet is not editable")
var ErrInvalidDay = errors.New("day index must be between 0 and 6")
var ErrInvalidProject = errors.New("project id must not be empty")

type cellKey struct {
	projectId string
	day       int
}

// Grid holds the entries of exactly one week, at most one per
// (project, day). Zero-hour cells are never stored.
type Grid struct {
	id         string
	employeeId string
	weekStart  time.Time
	status     *StatusMachine
	entries    map[cellKey]Entry
	newId      func() string
}

// NewGrid returns an empty Draft grid for the week containing weekStart.
func NewGrid(weekStart time.Time) *Grid {
	return &Grid{
		weekStart: WeekStart(weekStart),
		status:    NewStatusMachine(StatusDraft),
		entries:   map[cellKey]Entry{},
		newId:     uuid.NewString,
	}
}

// GridFromTimesheet loads a fetched timesheet. Entries outside the week or
// without hours are dropped; hours are normalised.
func GridFromTimesheet(ts WeeklyTimesheet) *Grid {
	g := NewGrid(ts.WeekStart)
	g.id = ts.Id
	g.employeeId = ts.EmployeeId
	g.status = NewStatusMachine(ts.Status)
	for _, e := range ts.Entries {
		day := DayIndex(g.weekStart, e.Date)
		hours := NormalizeHours(e.Hours)
		if day < 0 || hours == 0 || e.ProjectId == "" {
			log.Debugf("dropping entry %s (%s, %s) outside of week %s", e.Id, e.ProjectId, FormatDate(e.Date), FormatDate(g.weekStart))
			continue
		}
		if e.Id == "" {
			e.Id = g.newId()
		}
		e.Date = DayOfWeek(g.weekStart, day)
		e.Hours = hours
		g.entries[cellKey{e.ProjectId, day}] = e
	}
	return g
}

func (g *Grid) WeekStart() time.Time {
	return g.weekStart
}

func (g *Grid) Id() string {
	return g.id
}

func (g *Grid) Status() Status {
	return g.status.Status()
}

func (g *Grid) StatusMachine() *StatusMachine {
	return g.status
}

func (g *Grid) GetHours(projectId string, dayIndex int) float64 {
	return g.entries[cellKey{projectId, dayIndex}].Hours
}

// SetHours normalises hours and stores them in the cell. Zero removes the
// entry. Fails with ErrNotEditable unless the timesheet is a Draft.
func (g *Grid) SetHours(projectId string, dayIndex int, hours float64) error {
	if !g.status.Editable() {
		return fmt.Errorf("%w: status is %s", ErrNotEditable, g.status.Status())
	}
	if dayIndex < 0 || dayIndex >= DaysInWeek {
		return ErrInvalidDay
	}
	if projectId == "" {
		return ErrInvalidProject
	}

	key := cellKey{projectId, dayIndex}
	hours = NormalizeHours(hours)
	if hours == 0 {
		delete(g.entries, key)
		return nil
	}

	entry, ok := g.entries[key]
	if !ok {
		entry = Entry{
			Id:        g.newId(),
			ProjectId: projectId,
			Date:      DayOfWeek(g.weekStart, dayIndex),
		}
	}
	entry.Hours = hours
	g.entries[key] = entry
	return nil
}

func (g *Grid) DailyTotal(dayIndex int) float64 {
	var total float64
	for key, e := range g.entries {
		if key.day == dayIndex {
			total += e.Hours
		}
	}
	return total
}

func (g *Grid) ProjectTotal(projectId string) float64 {
	var total float64
	for key, e := range g.entries {
		if key.projectId == projectId {
			total += e.Hours
		}
	}
	return total
}

func (g *Grid) WeeklyTotal() float64 {
	var total float64
	for _, e := range g.entries {
		total += e.Hours
	}
	return total
}

// Entries returns the stored entries ordered by date, then project.
func (g *Grid) Entries() []Entry {
	entries := make([]Entry, 0, len(g.entries))
	for _, e := range g.entries {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool {
		if !entries[i].Date.Equal(entries[j].Date) {
			return entries[i].Date.Before(entries[j].Date)
		}
		return entries[i].ProjectId < entries[j].ProjectId
	})
	return entries
}

// ProjectIds returns the projects having at least one entry, sorted.
func (g *Grid) ProjectIds() []string {
	seen := map[string]bool{}
	var ids []string
	for key := range g.entries {
		if !seen[key.projectId] {
			seen[key.projectId] = true
			ids = append(ids, key.projectId)
		}
	}
	sort.Strings(ids)
	return ids
}

// Snapshot copies the grid into a WeeklyTimesheet value.
func (g *Grid) Snapshot() WeeklyTimesheet {
	return WeeklyTimesheet{
		Id:         g.id,
		EmployeeId: g.employeeId,
		WeekStart:  g.weekStart,
		Status:     g.status.Status(),
		Entries:    g.Entries(),
	}
}

// MarkSynced records the identifier the record store assigned to the week.
func (g *Grid) MarkSynced(timesheetId string) {
	g.id = timesheetId
}
