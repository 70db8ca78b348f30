package attendance_log

import "time"

const (
	StatusActive    = "Active"
	StatusCompleted = "Completed"
)

type Action string

const (
	ActionStart Action = "START"
	ActionStop  Action = "STOP"
)

type Log struct {
	Id         int
	EmployeeId int
	LoginTime  time.Time
	LogoutTime *time.Time
	Status     string
}
