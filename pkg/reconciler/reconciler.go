package reconciler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/klokku/worktime/internal/event_bus"
	"github.com/klokku/worktime/pkg/draft_cache"
	"github.com/klokku/worktime/pkg/remote"
	"github.com/klokku/worktime/pkg/timesheet"
	log "github.com/sirupsen/logrus"
)

var ErrStaleResponse = errors.New("response is for a week that is no longer displayed")
var ErrNoWeek = errors.New("no week is loaded")
var ErrOffline = errors.New("record store unreachable, editing offline")
var ErrSubmitInProgress = errors.New("week is being submitted")
var ErrDraftNotCached = errors.New("edit applied but not cached")

// RecordStore is the part of the record store the reconciler talks to.
type RecordStore interface {
	FetchWeek(ctx context.Context, weekStart time.Time) (timesheet.WeeklyTimesheet, error)
	SyncWeek(ctx context.Context, ts timesheet.WeeklyTimesheet) (remote.SyncResult, error)
}

// Reconciler owns the displayed week and keeps it in step with the record
// store. The grid returned by Navigate and Grid must only be read; edits go
// through SetHours.
type Reconciler struct {
	store  RecordStore
	drafts draft_cache.Cache
	bus    *event_bus.EventBus

	mu         sync.Mutex // guards the fields below
	grid       *timesheet.Grid
	generation uint64
	// offline is set while grid was built from the draft cache alone.
	offline bool
	// submitting is the grid a Submit is in flight for.
	submitting *timesheet.Grid

	syncMu sync.Mutex
}

// NewReconciler creates a reconciler. drafts may be nil when no offline
// cache is used.
func NewReconciler(store RecordStore, drafts draft_cache.Cache, bus *event_bus.EventBus) *Reconciler {
	return &Reconciler{
		store:  store,
		drafts: drafts,
		bus:    bus,
	}
}

// Grid returns the displayed week or nil before the first Navigate.
func (r *Reconciler) Grid() *timesheet.Grid {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.grid
}

// Navigate loads the week containing weekStart and makes it the displayed
// one. When another Navigate was started in the meantime the result is
// dropped and ErrStaleResponse returned.
//
// When the record store cannot be reached and a draft cache is configured,
// the week is rebuilt from the cached drafts and displayed as an offline
// Draft: the grid is returned together with an error wrapping ErrOffline.
// Edits keep going to the cache and the next Save or Submit fetches the
// stored week first. Without a draft cache a failed fetch keeps the
// displayed grid.
func (r *Reconciler) Navigate(ctx context.Context, weekStart time.Time) (*timesheet.Grid, error) {
	weekStart = timesheet.WeekStart(weekStart)

	r.mu.Lock()
	r.generation++
	generation := r.generation
	r.mu.Unlock()

	grid, err := r.load(ctx, weekStart)

	r.mu.Lock()
	defer r.mu.Unlock()
	if generation != r.generation {
		log.Debugf("discarding response for week %s, a newer navigation is in progress", timesheet.FormatDate(weekStart))
		return nil, ErrStaleResponse
	}
	if grid == nil {
		return nil, err
	}
	r.grid = grid
	r.offline = errors.Is(err, ErrOffline)
	return grid, err
}

// Offline reports whether the displayed week was built without the record
// store.
func (r *Reconciler) Offline() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.offline
}

// load fetches a week and replays the cached drafts onto it. On a transient
// failure it returns the offline grid along with an ErrOffline error.
func (r *Reconciler) load(ctx context.Context, weekStart time.Time) (*timesheet.Grid, error) {
	var grid *timesheet.Grid
	ts, err := r.store.FetchWeek(ctx, weekStart)
	switch {
	case errors.Is(err, remote.ErrNotFound):
		log.Debugf("no stored timesheet for week %s, starting a new draft", timesheet.FormatDate(weekStart))
		grid = timesheet.NewGrid(weekStart)
	case err != nil:
		log.Errorf("failed to fetch week %s: %v", timesheet.FormatDate(weekStart), err)
		if r.drafts == nil || ctx.Err() != nil {
			return nil, fmt.Errorf("fetch week %s: %w", timesheet.FormatDate(weekStart), err)
		}
		grid = timesheet.NewGrid(weekStart)
		r.applyDrafts(ctx, grid)
		return grid, fmt.Errorf("%w: fetch week %s: %w", ErrOffline, timesheet.FormatDate(weekStart), err)
	default:
		grid = timesheet.GridFromTimesheet(ts)
	}

	r.applyDrafts(ctx, grid)
	return grid, nil
}

// reconnect swaps an offline grid for the stored week with the cached
// drafts applied. Every offline edit is in the cache, so none is lost.
func (r *Reconciler) reconnect(ctx context.Context) error {
	r.mu.Lock()
	grid, offline := r.grid, r.offline
	r.mu.Unlock()
	if grid == nil || !offline {
		return nil
	}

	fetched, err := r.load(ctx, grid.WeekStart())
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.grid != grid {
		return ErrStaleResponse
	}
	r.grid = fetched
	r.offline = false
	log.Infof("record store reachable again, week %s reloaded", timesheet.FormatDate(grid.WeekStart()))
	return nil
}

// applyDrafts replays cached offline edits on top of a Draft week.
func (r *Reconciler) applyDrafts(ctx context.Context, grid *timesheet.Grid) {
	if r.drafts == nil {
		return
	}
	drafts, err := r.drafts.GetDrafts(ctx, grid.WeekStart())
	if err != nil {
		log.Errorf("failed to read offline drafts: %v", err)
		return
	}
	if len(drafts) == 0 {
		return
	}
	if !grid.StatusMachine().Editable() {
		log.Warnf("week %s is %s, keeping %d offline drafts unapplied",
			timesheet.FormatDate(grid.WeekStart()), grid.Status(), len(drafts))
		return
	}
	for _, d := range drafts {
		day := timesheet.DayIndex(grid.WeekStart(), d.Date)
		if err := grid.SetHours(d.ProjectId, day, d.Hours); err != nil {
			log.Warnf("skipping offline draft %s/%s: %v", d.ProjectId, timesheet.FormatDate(d.Date), err)
		}
	}
	log.Infof("applied %d offline drafts to week %s", len(drafts), timesheet.FormatDate(grid.WeekStart()))
}

// SetHours edits a cell of the displayed week and announces the change.
// When a subscriber such as the draft cache fails to record it, the edit
// stays in the grid and an error wrapping ErrDraftNotCached is returned.
func (r *Reconciler) SetHours(ctx context.Context, projectId string, dayIndex int, hours float64) error {
	r.mu.Lock()
	grid := r.grid
	if grid == nil {
		r.mu.Unlock()
		return ErrNoWeek
	}
	if r.submitting == grid {
		r.mu.Unlock()
		return ErrSubmitInProgress
	}
	if err := grid.SetHours(projectId, dayIndex, hours); err != nil {
		r.mu.Unlock()
		return err
	}
	changed := event_bus.CellChanged{
		WeekStart: grid.WeekStart(),
		ProjectId: projectId,
		Date:      timesheet.DayOfWeek(grid.WeekStart(), dayIndex),
		Hours:     grid.GetHours(projectId, dayIndex),
	}
	r.mu.Unlock()

	if err := r.publish(ctx, event_bus.TimesheetCellChanged, changed); err != nil {
		return fmt.Errorf("%w: %w", ErrDraftNotCached, err)
	}
	return nil
}

// Save pushes the displayed Draft week to the record store.
func (r *Reconciler) Save(ctx context.Context) (remote.SyncResult, error) {
	r.syncMu.Lock()
	defer r.syncMu.Unlock()

	if err := r.reconnect(ctx); err != nil {
		return remote.SyncResult{}, err
	}
	grid, snapshot, err := r.current()
	if err != nil {
		return remote.SyncResult{}, err
	}
	if snapshot.Status != timesheet.StatusDraft {
		return remote.SyncResult{}, fmt.Errorf("%w: status is %s", timesheet.ErrNotEditable, snapshot.Status)
	}
	return r.sync(ctx, grid, snapshot)
}

// Submit syncs the displayed week as Submitted. The local status changes only
// after the record store accepted it. Edits to the week are refused with
// ErrSubmitInProgress until Submit returns, so the submitted grid is
// exactly what the store received.
func (r *Reconciler) Submit(ctx context.Context) (remote.SyncResult, error) {
	r.syncMu.Lock()
	defer r.syncMu.Unlock()

	if err := r.reconnect(ctx); err != nil {
		return remote.SyncResult{}, err
	}
	r.mu.Lock()
	grid := r.grid
	if grid == nil {
		r.mu.Unlock()
		return remote.SyncResult{}, ErrNoWeek
	}
	snapshot := grid.Snapshot()
	total := snapshot.TotalHours()
	if err := timesheet.NewStatusMachine(snapshot.Status).Submit(total); err != nil {
		r.mu.Unlock()
		return remote.SyncResult{}, err
	}
	r.submitting = grid
	r.mu.Unlock()
	defer func() {
		r.mu.Lock()
		r.submitting = nil
		r.mu.Unlock()
	}()

	snapshot.Status = timesheet.StatusSubmitted
	result, err := r.sync(ctx, grid, snapshot)
	if err != nil {
		return remote.SyncResult{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if err := grid.StatusMachine().Submit(total); err != nil {
		return result, err
	}
	return result, nil
}

// RefreshStatus re-reads the status of the displayed week, picking up an
// approval or rejection. Entries are left alone.
func (r *Reconciler) RefreshStatus(ctx context.Context) (timesheet.Status, error) {
	r.mu.Lock()
	grid, offline := r.grid, r.offline
	r.mu.Unlock()
	if grid == nil {
		return "", ErrNoWeek
	}
	if offline {
		r.syncMu.Lock()
		defer r.syncMu.Unlock()
		if err := r.reconnect(ctx); err != nil {
			return grid.Status(), err
		}
		return r.Grid().Status(), nil
	}

	ts, err := r.store.FetchWeek(ctx, grid.WeekStart())
	if errors.Is(err, remote.ErrNotFound) {
		return grid.Status(), nil
	}
	if err != nil {
		return "", fmt.Errorf("refresh status: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.grid != grid {
		return "", ErrStaleResponse
	}
	if err := grid.StatusMachine().Observe(ts.Status); err != nil {
		log.Warnf("ignoring status %s of week %s: %v", ts.Status, timesheet.FormatDate(grid.WeekStart()), err)
		return grid.Status(), err
	}
	return grid.Status(), nil
}

func (r *Reconciler) current() (*timesheet.Grid, timesheet.WeeklyTimesheet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.grid == nil {
		return nil, timesheet.WeeklyTimesheet{}, ErrNoWeek
	}
	return r.grid, r.grid.Snapshot(), nil
}

// sync sends snapshot with a full replace. grid is not touched on failure.
func (r *Reconciler) sync(ctx context.Context, grid *timesheet.Grid, snapshot timesheet.WeeklyTimesheet) (remote.SyncResult, error) {
	result, err := r.store.SyncWeek(ctx, snapshot)
	if err != nil {
		log.Errorf("failed to sync week %s: %v", timesheet.FormatDate(snapshot.WeekStart), err)
		return remote.SyncResult{}, fmt.Errorf("sync week %s: %w", timesheet.FormatDate(snapshot.WeekStart), err)
	}
	log.Infof("synced week %s as %s: timesheet %s, %d entries",
		timesheet.FormatDate(snapshot.WeekStart), snapshot.Status, result.TimesheetId, result.EntryCount)

	r.mu.Lock()
	grid.MarkSynced(result.TimesheetId)
	r.mu.Unlock()

	// the store has the week, a failing subscriber only costs a stale draft
	_ = r.publish(ctx, event_bus.TimesheetWeekSynced, event_bus.WeekSynced{
		WeekStart:   snapshot.WeekStart,
		TimesheetId: result.TimesheetId,
		EntryCount:  result.EntryCount,
		Status:      string(snapshot.Status),
		Entries:     snapshot.Entries,
	})
	return result, nil
}

func (r *Reconciler) publish(ctx context.Context, eventType event_bus.EventType, data any) error {
	if r.bus == nil {
		return nil
	}
	if err := r.bus.Publish(event_bus.NewEvent(ctx, eventType, data)); err != nil {
		log.Errorf("failed to handle %s: %v", eventType, err)
		return err
	}
	return nil
}
