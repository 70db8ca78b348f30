package remote

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/klokku/worktime/internal/config"
	"github.com/klokku/worktime/pkg/timesheet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var monday = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func setup(t *testing.T, handler http.HandlerFunc) *Client {
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(config.Client{
		BaseUrl: server.URL + "/api/",
		Email:   "jan@example.com",
		Name:    "Jan Kowalski",
		Token:   "secret",
		Timeout: 5 * time.Second,
	})
}

func writeJSON(t *testing.T, w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	require.NoError(t, json.NewEncoder(w).Encode(body))
}

func TestClient_FetchWeek(t *testing.T) {
	t.Run("maps the stored week", func(t *testing.T) {
		client := setup(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodGet, r.Method)
			assert.Equal(t, "/api/timesheets", r.URL.Path)
			assert.Equal(t, "2024-01-01", r.URL.Query().Get("weekStart"))
			assert.Equal(t, "jan@example.com", r.Header.Get("X-User-Email"))
			assert.Equal(t, "Jan Kowalski", r.Header.Get("X-User-Name"))
			assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
			writeJSON(t, w, http.StatusOK, TimesheetDTO{
				Id:     "12",
				Status: "Submitted",
				Entries: []EntryDTO{
					{Id: "e1", ProjectId: "p1", Date: "2024-01-02", Hours: 7.5},
				},
			})
		})

		// requesting any day of the week asks for its Monday
		ts, err := client.FetchWeek(context.Background(), monday.AddDate(0, 0, 3))

		require.NoError(t, err)
		assert.Equal(t, "12", ts.Id)
		assert.Equal(t, monday, ts.WeekStart)
		assert.Equal(t, timesheet.StatusSubmitted, ts.Status)
		require.Len(t, ts.Entries, 1)
		assert.Equal(t, timesheet.Entry{Id: "e1", ProjectId: "p1", Date: monday.AddDate(0, 0, 1), Hours: 7.5}, ts.Entries[0])
	})

	t.Run("404 is not found", func(t *testing.T) {
		client := setup(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(t, w, http.StatusNotFound, map[string]string{"error": "timesheet not found"})
		})

		_, err := client.FetchWeek(context.Background(), monday)

		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("empty body is not found", func(t *testing.T) {
		client := setup(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		})

		_, err := client.FetchWeek(context.Background(), monday)

		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("server failure is reported with its message", func(t *testing.T) {
		client := setup(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(t, w, http.StatusInternalServerError, map[string]string{"error": "Failed to fetch timesheet", "details": "db down"})
		})

		_, err := client.FetchWeek(context.Background(), monday)

		var remoteErr *Error
		require.ErrorAs(t, err, &remoteErr)
		assert.Equal(t, http.StatusInternalServerError, remoteErr.StatusCode)
		assert.Equal(t, "Failed to fetch timesheet: db down", remoteErr.Message)
		assert.NotErrorIs(t, err, ErrNotFound)
	})
}

func TestClient_SyncWeek(t *testing.T) {
	var received SyncRequestDTO
	client := setup(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/timesheets/sync", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		writeJSON(t, w, http.StatusOK, SyncResponseDTO{Success: true, TimesheetId: "12", EntryCount: 1, TotalHours: 8})
	})

	result, err := client.SyncWeek(context.Background(), timesheet.WeeklyTimesheet{
		WeekStart: monday,
		Status:    timesheet.StatusDraft,
		Entries:   []timesheet.Entry{{Id: "e1", ProjectId: "p1", Date: monday, Hours: 8}},
	})

	require.NoError(t, err)
	assert.Equal(t, SyncResult{TimesheetId: "12", EntryCount: 1, TotalHours: 8}, result)
	assert.Equal(t, SyncRequestDTO{
		WeekStart: "2024-01-01",
		Status:    "Draft",
		Entries:   []EntryDTO{{Id: "e1", ProjectId: "p1", Date: "2024-01-01", Hours: 8}},
	}, received)
}

func TestClient_ClockAction(t *testing.T) {
	t.Run("start returns the login time", func(t *testing.T) {
		client := setup(t, func(w http.ResponseWriter, r *http.Request) {
			var body ClockActionRequestDTO
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "START", body.Action)
			loginTime := "2024-01-01T08:00:00Z"
			writeJSON(t, w, http.StatusOK, ClockActionResponseDTO{Success: true, LoginTime: &loginTime})
		})

		state, err := client.ClockAction(context.Background(), ClockStart)

		require.NoError(t, err)
		assert.True(t, state.IsActive)
		assert.Equal(t, time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC), state.LoginTime.UTC())
	})

	t.Run("409 is a conflict", func(t *testing.T) {
		client := setup(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(t, w, http.StatusConflict, map[string]string{"error": "No active session"})
		})

		_, err := client.ClockAction(context.Background(), ClockStop)

		assert.ErrorIs(t, err, ErrConflict)
		assert.Contains(t, err.Error(), "No active session")
	})
}

func TestClient_ClockStatus(t *testing.T) {
	client := setup(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/attendance/status", r.URL.Path)
		loginTime := "2024-01-01T08:00:00Z"
		writeJSON(t, w, http.StatusOK, ClockStatusDTO{IsActive: true, LoginTime: &loginTime})
	})

	state, err := client.ClockStatus(context.Background())

	require.NoError(t, err)
	assert.True(t, state.IsActive)
	assert.Equal(t, time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC), state.LoginTime.UTC())
}

func TestClient_ListProjects(t *testing.T) {
	client := setup(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, []ProjectDTO{{Id: "p1", Name: "Client Portal", Code: "CP", Billable: true, Color: "bg-blue-500"}})
	})

	projects, err := client.ListProjects(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []Project{{Id: "p1", Name: "Client Portal", Code: "CP", Billable: true, Color: "bg-blue-500"}}, projects)
}
