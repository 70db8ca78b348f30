package timesheet_record

import (
	"time"

	"github.com/klokku/worktime/pkg/timesheet"
)

// Record is the stored header of one employee's week with its entries.
type Record struct {
	Id         int
	EmployeeId int
	WeekStart  time.Time
	Status     timesheet.Status
	TotalHours float64
	Entries    []timesheet.Entry
}

type SyncRequest struct {
	WeekStart time.Time
	Status    timesheet.Status
	Entries   []timesheet.Entry
}

type SyncResult struct {
	TimesheetId int
	EntryCount  int
	TotalHours  float64
}
