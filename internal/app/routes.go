package app

import (
	"github.com/gorilla/mux"
)

// RegisterRoutes registers all API endpoints.
func RegisterRoutes(r *mux.Router, deps *Dependencies) {

	// Timesheets
	r.HandleFunc("/api/timesheets", deps.TimesheetHandler.GetWeek).Methods("GET")
	r.HandleFunc("/api/timesheets/sync", deps.TimesheetHandler.SyncWeek).Methods("POST")

	// Attendance
	r.HandleFunc("/api/attendance/action", deps.AttendanceHandler.PerformAction).Methods("POST")
	r.HandleFunc("/api/attendance/status", deps.AttendanceHandler.GetStatus).Methods("GET")

	// Projects
	r.HandleFunc("/api/projects", deps.ProjectHandler.ListProjects).Methods("GET")
	r.HandleFunc("/api/projects", deps.ProjectHandler.CreateProject).Methods("POST")
}
