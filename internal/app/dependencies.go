package app

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/klokku/worktime/internal/utils"
	"github.com/klokku/worktime/pkg/attendance_log"
	"github.com/klokku/worktime/pkg/employee"
	"github.com/klokku/worktime/pkg/project"
	"github.com/klokku/worktime/pkg/timesheet_record"
)

// Dependencies holds all services and handlers for the application.
type Dependencies struct {
	EmployeeRepo    employee.Repository
	EmployeeService employee.Service

	ProjectService project.Service
	ProjectHandler *project.Handler

	TimesheetService timesheet_record.Service
	TimesheetHandler *timesheet_record.Handler

	AttendanceService attendance_log.Service
	AttendanceHandler *attendance_log.Handler

	Clock utils.Clock
}

// BuildDependencies initializes and wires all application services and handlers.
func BuildDependencies(db *pgxpool.Pool) *Dependencies {
	return wire(
		employee.NewRepository(db),
		project.NewRepository(db),
		timesheet_record.NewRepository(db),
		attendance_log.NewRepository(db),
		&utils.SystemClock{},
	)
}

func wire(
	employeeRepo employee.Repository,
	projectRepo project.Repository,
	timesheetRepo timesheet_record.Repository,
	attendanceRepo attendance_log.Repository,
	clock utils.Clock,
) *Dependencies {
	deps := &Dependencies{Clock: clock}

	deps.EmployeeRepo = employeeRepo
	deps.EmployeeService = employee.NewService(deps.EmployeeRepo)

	deps.ProjectService = project.NewService(projectRepo)
	deps.ProjectHandler = project.NewHandler(deps.ProjectService)

	deps.TimesheetService = timesheet_record.NewService(timesheetRepo, deps.EmployeeService)
	deps.TimesheetHandler = timesheet_record.NewHandler(deps.TimesheetService)

	deps.AttendanceService = attendance_log.NewService(attendanceRepo, deps.EmployeeService, deps.Clock)
	deps.AttendanceHandler = attendance_log.NewHandler(deps.AttendanceService)

	return deps
}
