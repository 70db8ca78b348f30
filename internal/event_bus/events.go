package event_bus

import (
	"time"

	"github.com/klokku/worktime/pkg/timesheet"
)

const (
	TimesheetCellChanged EventType = "timesheet.cell.changed"
	TimesheetWeekSynced  EventType = "timesheet.week.synced"
)

// CellChanged is published after a grid cell was edited locally.
// Hours is the normalised value; zero means the cell was cleared.
type CellChanged struct {
	WeekStart time.Time
	ProjectId string
	Date      time.Time
	Hours     float64
}

// WeekSynced is published after the record store accepted a full week.
// Entries are the ones sent, which may lag behind the grid when it was
// edited while the sync was in flight.
type WeekSynced struct {
	WeekStart   time.Time
	TimesheetId string
	EntryCount  int
	Status      string
	Entries     []timesheet.Entry
}
