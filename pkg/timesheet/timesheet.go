package timesheet

import (
	"fmt"
	"time"
)

const (
	DaysInWeek = 7
	dateLayout = "2006-01-02"
)

type Status string

const (
	StatusDraft     Status = "Draft"
	StatusSubmitted Status = "Submitted"
	StatusApproved  Status = "Approved"
	StatusRejected  Status = "Rejected"
)

// ParseStatus converts the wire representation of a status.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusDraft, StatusSubmitted, StatusApproved, StatusRejected:
		return Status(s), nil
	}
	return "", fmt.Errorf("unknown timesheet status: %q", s)
}

type Entry struct {
	Id        string
	ProjectId string
	Date      time.Time
	Hours     float64
}

type WeeklyTimesheet struct {
	Id         string // assigned by the record store, empty until first sync
	EmployeeId string
	WeekStart  time.Time
	Status     Status
	Entries    []Entry
}

// TotalHours sums the hours of all entries.
func (t WeeklyTimesheet) TotalHours() float64 {
	var total float64
	for _, e := range t.Entries {
		total += e.Hours
	}
	return total
}

// WeekStart returns the Monday (midnight UTC) of the week containing date.
func WeekStart(date time.Time) time.Time {
	day := Day(date)
	delta := (int(day.Weekday()) - int(time.Monday) + DaysInWeek) % DaysInWeek
	return day.AddDate(0, 0, -delta)
}

// Day truncates t to its calendar day at midnight UTC, keeping the
// calendar date of t's own location.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DayOfWeek returns the date of dayIndex (0 = Monday) in the given week.
func DayOfWeek(weekStart time.Time, dayIndex int) time.Time {
	return Day(weekStart).AddDate(0, 0, dayIndex)
}

// DayIndex returns the position of date within the week, or -1 when the
// date falls outside it.
func DayIndex(weekStart time.Time, date time.Time) int {
	days := int(Day(date).Sub(Day(weekStart)).Hours() / 24)
	if days < 0 || days >= DaysInWeek {
		return -1
	}
	return days
}

func FormatDate(t time.Time) string {
	return t.Format(dateLayout)
}

func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD: %w", s, err)
	}
	return t, nil
}
