package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/klokku/worktime/internal/config"
	"github.com/klokku/worktime/internal/event_bus"
	"github.com/klokku/worktime/internal/utils"
	"github.com/klokku/worktime/pkg/attendance"
	"github.com/klokku/worktime/pkg/attendance_log"
	"github.com/klokku/worktime/pkg/employee"
	"github.com/klokku/worktime/pkg/project"
	"github.com/klokku/worktime/pkg/reconciler"
	"github.com/klokku/worktime/pkg/remote"
	"github.com/klokku/worktime/pkg/timesheet"
	"github.com/klokku/worktime/pkg/timesheet_record"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var monday = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func setupServer(t *testing.T) (string, *utils.MockClock, *Dependencies) {
	clock := &utils.MockClock{FixedNow: monday.Add(8 * time.Hour)}
	deps := wire(
		employee.NewStubRepository(),
		project.NewStubRepository(),
		timesheet_record.NewStubRepository(),
		attendance_log.NewStubRepository(),
		clock,
	)
	server := httptest.NewServer(NewRouter(deps))
	t.Cleanup(server.Close)
	return server.URL + "/api", clock, deps
}

func newClient(baseUrl string, email string) *remote.Client {
	return remote.NewClient(config.Client{BaseUrl: baseUrl, Email: email, Timeout: 5 * time.Second})
}

func TestTimesheetRoundTrip(t *testing.T) {
	ctx := context.Background()
	baseUrl, _, _ := setupServer(t)
	client := newClient(baseUrl, "jan@example.com")
	r := reconciler.NewReconciler(client, nil, event_bus.NewEventBus())

	grid, err := r.Navigate(ctx, monday)
	require.NoError(t, err)
	assert.Empty(t, grid.Entries())

	require.NoError(t, r.SetHours(ctx, "p2", 0, 4))
	_, err = r.Save(ctx)
	require.NoError(t, err)
	require.NoError(t, r.SetHours(ctx, "p2", 0, 0))
	require.NoError(t, r.SetHours(ctx, "p1", 0, 8))
	result, err := r.Submit(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, result.EntryCount)
	assert.Equal(t, 8.0, result.TotalHours)

	// a fresh client sees exactly the submitted week
	other := reconciler.NewReconciler(newClient(baseUrl, "jan@example.com"), nil, nil)
	grid, err = other.Navigate(ctx, monday)
	require.NoError(t, err)
	assert.Equal(t, timesheet.StatusSubmitted, grid.Status())
	require.Len(t, grid.Entries(), 1)
	assert.Equal(t, "p1", grid.Entries()[0].ProjectId)
	assert.Equal(t, 8.0, grid.WeeklyTotal())

	// and cannot overwrite it
	_, err = client.SyncWeek(ctx, timesheet.WeeklyTimesheet{WeekStart: monday, Status: timesheet.StatusDraft})
	var remoteErr *remote.Error
	require.ErrorAs(t, err, &remoteErr)
	assert.Equal(t, http.StatusConflict, remoteErr.StatusCode)

	// weeks are per employee
	_, err = newClient(baseUrl, "anna@example.com").FetchWeek(ctx, monday)
	assert.ErrorIs(t, err, remote.ErrNotFound)
}

func TestAttendanceRoundTrip(t *testing.T) {
	ctx := context.Background()
	baseUrl, serverClock, _ := setupServer(t)
	localClock := &utils.MockClock{FixedNow: serverClock.Now()}
	machine := attendance.NewMachine(newClient(baseUrl, "jan@example.com"), localClock)

	state, err := machine.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, attendance.StateIdle, state)

	require.NoError(t, machine.Start(ctx))
	assert.Equal(t, attendance.StateActive, machine.State())
	assert.True(t, serverClock.Now().Equal(machine.LoginTime()))

	// a second device of the same employee cannot open another session
	secondDevice := attendance.NewMachine(newClient(baseUrl, "jan@example.com"), localClock)
	assert.ErrorIs(t, secondDevice.Start(ctx), attendance.ErrAlreadyActive)

	localClock.Advance(2 * time.Hour)
	assert.Equal(t, 2*time.Hour, machine.Elapsed())

	require.NoError(t, machine.Stop(ctx))
	assert.Equal(t, attendance.StateIdle, machine.State())
	assert.ErrorIs(t, machine.Stop(ctx), attendance.ErrNoActiveSession)
}

func TestProjectsAndIdentity(t *testing.T) {
	ctx := context.Background()
	baseUrl, _, deps := setupServer(t)
	_, err := deps.ProjectService.Create(ctx, project.Project{Name: "Website", Code: "WEB"})
	require.NoError(t, err)

	projects, err := newClient(baseUrl, "jan@example.com").ListProjects(ctx)
	require.NoError(t, err)
	require.Len(t, projects, 1)
	assert.Equal(t, "WEB", projects[0].Code)

	_, err = newClient(baseUrl, "").ListProjects(ctx)
	var remoteErr *remote.Error
	require.ErrorAs(t, err, &remoteErr)
	assert.Equal(t, http.StatusUnauthorized, remoteErr.StatusCode)
}
