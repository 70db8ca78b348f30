package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/klokku/worktime/internal/config"
	"github.com/klokku/worktime/pkg/timesheet"
	log "github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
)

var ErrNotFound = errors.New("record not found")
var ErrConflict = errors.New("conflicting state in record store")

type ClockAction string

const (
	ClockStart ClockAction = "START"
	ClockStop  ClockAction = "STOP"
)

// Error is a non-2xx answer of the record store.
type Error struct {
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	return fmt.Sprintf("record store returned %d: %s", e.StatusCode, e.Message)
}

type SyncResult struct {
	TimesheetId string
	EntryCount  int
	TotalHours  float64
}

// ClockState is the attendance state as seen by the record store.
type ClockState struct {
	IsActive  bool
	LoginTime time.Time
}

type Project struct {
	Id       string
	Name     string
	Code     string
	Billable bool
	Color    string
}

type Client struct {
	baseUrl    string
	email      string
	name       string
	httpClient *http.Client
}

// NewClient builds a record store client. When cfg.Token is set every
// request carries it as a bearer token.
func NewClient(cfg config.Client) *Client {
	httpClient := &http.Client{Timeout: cfg.Timeout}
	if cfg.Token != "" {
		ctx := context.WithValue(context.Background(), oauth2.HTTPClient, httpClient)
		httpClient = oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token}))
		httpClient.Timeout = cfg.Timeout
	}
	return NewClientWithHTTP(cfg, httpClient)
}

func NewClientWithHTTP(cfg config.Client, httpClient *http.Client) *Client {
	return &Client{
		baseUrl:    strings.TrimRight(cfg.BaseUrl, "/"),
		email:      cfg.Email,
		name:       cfg.Name,
		httpClient: httpClient,
	}
}

// FetchWeek returns the stored timesheet of the week, or ErrNotFound when
// the record store has none.
func (c *Client) FetchWeek(ctx context.Context, weekStart time.Time) (timesheet.WeeklyTimesheet, error) {
	query := url.Values{}
	query.Set("weekStart", timesheet.FormatDate(timesheet.WeekStart(weekStart)))

	var dto *TimesheetDTO
	err := c.do(ctx, http.MethodGet, "/timesheets?"+query.Encode(), nil, &dto)
	if err != nil {
		var remoteErr *Error
		if errors.As(err, &remoteErr) && remoteErr.StatusCode == http.StatusNotFound {
			return timesheet.WeeklyTimesheet{}, ErrNotFound
		}
		return timesheet.WeeklyTimesheet{}, err
	}
	if dto == nil || dto.Status == "" {
		return timesheet.WeeklyTimesheet{}, ErrNotFound
	}
	return timesheetFromDTO(*dto, weekStart)
}

// SyncWeek replaces the stored week with ts.
func (c *Client) SyncWeek(ctx context.Context, ts timesheet.WeeklyTimesheet) (SyncResult, error) {
	request := SyncRequestDTO{
		WeekStart: timesheet.FormatDate(ts.WeekStart),
		Status:    string(ts.Status),
		Entries:   make([]EntryDTO, 0, len(ts.Entries)),
	}
	for _, e := range ts.Entries {
		request.Entries = append(request.Entries, EntryDTO{
			Id:        e.Id,
			ProjectId: e.ProjectId,
			Date:      timesheet.FormatDate(e.Date),
			Hours:     e.Hours,
		})
	}

	var response SyncResponseDTO
	if err := c.do(ctx, http.MethodPost, "/timesheets/sync", request, &response); err != nil {
		return SyncResult{}, err
	}
	if !response.Success {
		return SyncResult{}, &Error{StatusCode: http.StatusOK, Message: "sync was not acknowledged"}
	}
	return SyncResult{
		TimesheetId: response.TimesheetId,
		EntryCount:  response.EntryCount,
		TotalHours:  response.TotalHours,
	}, nil
}

// ClockAction sends START or STOP. A conflict with the stored session state
// is reported as ErrConflict.
func (c *Client) ClockAction(ctx context.Context, action ClockAction) (ClockState, error) {
	var response ClockActionResponseDTO
	err := c.do(ctx, http.MethodPost, "/attendance/action", ClockActionRequestDTO{Action: string(action)}, &response)
	if err != nil {
		var remoteErr *Error
		if errors.As(err, &remoteErr) && remoteErr.StatusCode == http.StatusConflict {
			return ClockState{}, fmt.Errorf("%w: %s", ErrConflict, remoteErr.Message)
		}
		return ClockState{}, err
	}
	if !response.Success {
		return ClockState{}, fmt.Errorf("%w: %s", ErrConflict, response.Error)
	}

	state := ClockState{IsActive: action == ClockStart}
	if response.LoginTime != nil {
		state.LoginTime, err = time.Parse(time.RFC3339, *response.LoginTime)
		if err != nil {
			return ClockState{}, fmt.Errorf("invalid login time %q: %w", *response.LoginTime, err)
		}
	}
	return state, nil
}

func (c *Client) ClockStatus(ctx context.Context) (ClockState, error) {
	var response ClockStatusDTO
	if err := c.do(ctx, http.MethodGet, "/attendance/status", nil, &response); err != nil {
		return ClockState{}, err
	}
	state := ClockState{IsActive: response.IsActive}
	if response.IsActive && response.LoginTime != nil {
		loginTime, err := time.Parse(time.RFC3339, *response.LoginTime)
		if err != nil {
			return ClockState{}, fmt.Errorf("invalid login time %q: %w", *response.LoginTime, err)
		}
		state.LoginTime = loginTime
	}
	return state, nil
}

func (c *Client) ListProjects(ctx context.Context) ([]Project, error) {
	var response []ProjectDTO
	if err := c.do(ctx, http.MethodGet, "/projects", nil, &response); err != nil {
		return nil, err
	}
	projects := make([]Project, 0, len(response))
	for _, p := range response {
		projects = append(projects, Project(p))
	}
	return projects, nil
}

func (c *Client) do(ctx context.Context, method string, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseUrl+path, reader)
	if err != nil {
		log.Errorf("Failed to create request: %v", err)
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.email != "" {
		req.Header.Set("X-User-Email", c.email)
	}
	if c.name != "" {
		req.Header.Set("X-User-Name", c.name)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Errorf("Failed to execute %s %s: %v", method, path, err)
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return readError(resp)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			// empty body, out keeps its zero value
			return nil
		}
		log.Errorf("Failed to decode response of %s %s: %v", method, path, err)
		return err
	}
	return nil
}

func readError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	message := strings.TrimSpace(string(raw))
	var body errorDTO
	if json.Unmarshal(raw, &body) == nil && body.Error != "" {
		message = body.Error
		if body.Details != "" {
			message += ": " + body.Details
		}
	}
	if message == "" {
		message = http.StatusText(resp.StatusCode)
	}
	if resp.StatusCode != http.StatusNotFound {
		log.Errorf("record store error %d: %s", resp.StatusCode, message)
	}
	return &Error{StatusCode: resp.StatusCode, Message: message}
}

func timesheetFromDTO(dto TimesheetDTO, requestedWeek time.Time) (timesheet.WeeklyTimesheet, error) {
	status, err := timesheet.ParseStatus(dto.Status)
	if err != nil {
		return timesheet.WeeklyTimesheet{}, err
	}
	weekStart := timesheet.WeekStart(requestedWeek)
	if dto.WeekStart != "" {
		parsed, err := timesheet.ParseDate(dto.WeekStart)
		if err != nil {
			return timesheet.WeeklyTimesheet{}, fmt.Errorf("invalid weekStart %q: %w", dto.WeekStart, err)
		}
		weekStart = timesheet.WeekStart(parsed)
	}

	entries := make([]timesheet.Entry, 0, len(dto.Entries))
	for _, e := range dto.Entries {
		date, err := timesheet.ParseDate(e.Date)
		if err != nil {
			return timesheet.WeeklyTimesheet{}, fmt.Errorf("invalid entry date %q: %w", e.Date, err)
		}
		entries = append(entries, timesheet.Entry{
			Id:        e.Id,
			ProjectId: e.ProjectId,
			Date:      date,
			Hours:     e.Hours,
		})
	}
	return timesheet.WeeklyTimesheet{
		Id:        dto.Id,
		WeekStart: weekStart,
		Status:    status,
		Entries:   entries,
	}, nil
}
