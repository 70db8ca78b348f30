package reconciler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/klokku/worktime/internal/event_bus"
	"github.com/klokku/worktime/internal/test_utils"
	"github.com/klokku/worktime/internal/utils"
	"github.com/klokku/worktime/pkg/draft_cache"
	"github.com/klokku/worktime/pkg/remote"
	"github.com/klokku/worktime/pkg/timesheet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var monday = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
var nextMonday = monday.AddDate(0, 0, 7)

func setup(t *testing.T) (*Reconciler, *remote.ClientStub, draft_cache.Cache) {
	clock := &utils.MockClock{FixedNow: monday}
	store := remote.NewClientStub(clock)
	cache := test_utils.NewDraftCache(t, clock)
	bus := event_bus.NewEventBus()
	unsubscribe := draft_cache.Subscribe(bus, cache)
	t.Cleanup(unsubscribe)
	return NewReconciler(store, cache, bus), store, cache
}

func TestReconciler_Navigate(t *testing.T) {
	ctx := context.Background()

	t.Run("starts an empty draft when the week is not stored", func(t *testing.T) {
		r, _, _ := setup(t)

		grid, err := r.Navigate(ctx, monday.AddDate(0, 0, 4))

		require.NoError(t, err)
		assert.Equal(t, monday, grid.WeekStart())
		assert.Equal(t, timesheet.StatusDraft, grid.Status())
		assert.Empty(t, grid.Entries())
		assert.Same(t, grid, r.Grid())
	})

	t.Run("loads the stored week", func(t *testing.T) {
		r, store, _ := setup(t)
		store.Put(timesheet.WeeklyTimesheet{
			WeekStart: monday,
			Status:    timesheet.StatusSubmitted,
			Entries:   []timesheet.Entry{{Id: "e1", ProjectId: "p1", Date: monday, Hours: 8}},
		})

		grid, err := r.Navigate(ctx, monday)

		require.NoError(t, err)
		assert.Equal(t, timesheet.StatusSubmitted, grid.Status())
		assert.Equal(t, 8.0, grid.GetHours("p1", 0))
	})

	t.Run("keeps the displayed week when fetching fails without a draft cache", func(t *testing.T) {
		store := remote.NewClientStub(&utils.MockClock{FixedNow: monday})
		r := NewReconciler(store, nil, event_bus.NewEventBus())
		_, err := r.Navigate(ctx, monday)
		require.NoError(t, err)
		require.NoError(t, r.SetHours(ctx, "p1", 0, 3))
		store.FetchErr = errors.New("connection refused")

		_, err = r.Navigate(ctx, nextMonday)

		assert.Error(t, err)
		assert.NotErrorIs(t, err, ErrOffline)
		assert.Equal(t, monday, r.Grid().WeekStart())
		assert.Equal(t, 3.0, r.Grid().GetHours("p1", 0))
	})

	t.Run("discards a response for a week the user navigated away from", func(t *testing.T) {
		r, store, _ := setup(t)
		store.Put(timesheet.WeeklyTimesheet{
			WeekStart: monday,
			Status:    timesheet.StatusDraft,
			Entries:   []timesheet.Entry{{ProjectId: "p1", Date: monday, Hours: 8}},
		})
		store.Put(timesheet.WeeklyTimesheet{
			WeekStart: nextMonday,
			Status:    timesheet.StatusDraft,
			Entries:   []timesheet.Entry{{ProjectId: "p2", Date: nextMonday, Hours: 4}},
		})
		fetching := make(chan struct{})
		release := make(chan struct{})
		store.BeforeFetch = func(weekStart time.Time) {
			if weekStart.Equal(monday) {
				close(fetching)
				<-release
			}
		}

		// given the first week's fetch is in flight
		firstResult := make(chan error, 1)
		go func() {
			_, err := r.Navigate(ctx, monday)
			firstResult <- err
		}()
		<-fetching

		// when the user moves to the next week
		grid, err := r.Navigate(ctx, nextMonday)
		require.NoError(t, err)
		assert.Equal(t, nextMonday, grid.WeekStart())

		// and the first response arrives afterwards
		close(release)

		// then it does not replace the displayed week
		assert.ErrorIs(t, <-firstResult, ErrStaleResponse)
		assert.Equal(t, nextMonday, r.Grid().WeekStart())
		assert.Equal(t, 4.0, r.Grid().GetHours("p2", 0))
		assert.Equal(t, 0.0, r.Grid().GetHours("p1", 0))
	})
}

func TestReconciler_Save(t *testing.T) {
	ctx := context.Background()

	t.Run("replaces every stored entry of the week", func(t *testing.T) {
		r, store, _ := setup(t)
		store.Put(timesheet.WeeklyTimesheet{
			WeekStart: monday,
			Status:    timesheet.StatusDraft,
			Entries:   []timesheet.Entry{{Id: "old", ProjectId: "p2", Date: monday, Hours: 4}},
		})
		_, err := r.Navigate(ctx, monday)
		require.NoError(t, err)
		require.NoError(t, r.SetHours(ctx, "p2", 0, 0))
		require.NoError(t, r.SetHours(ctx, "p1", 0, 8))

		result, err := r.Save(ctx)

		require.NoError(t, err)
		assert.Equal(t, 1, result.EntryCount)
		stored, ok := store.Stored(monday)
		require.True(t, ok)
		require.Len(t, stored.Entries, 1)
		assert.Equal(t, "p1", stored.Entries[0].ProjectId)
		assert.Equal(t, monday, stored.Entries[0].Date)
		assert.Equal(t, 8.0, stored.Entries[0].Hours)
		assert.Equal(t, result.TimesheetId, r.Grid().Id())
	})

	t.Run("failed sync leaves the grid as it was", func(t *testing.T) {
		r, store, _ := setup(t)
		_, err := r.Navigate(ctx, monday)
		require.NoError(t, err)
		require.NoError(t, r.SetHours(ctx, "p1", 2, 6))
		before := r.Grid().Snapshot()
		store.SyncErr = errors.New("timeout")

		_, err = r.Save(ctx)

		assert.Error(t, err)
		assert.Equal(t, before, r.Grid().Snapshot())
		_, stored := store.Stored(monday)
		assert.False(t, stored)
	})

	t.Run("requires a loaded week", func(t *testing.T) {
		r, _, _ := setup(t)

		_, err := r.Save(ctx)

		assert.ErrorIs(t, err, ErrNoWeek)
	})

	t.Run("refuses to save a submitted week", func(t *testing.T) {
		r, store, _ := setup(t)
		store.Put(timesheet.WeeklyTimesheet{WeekStart: monday, Status: timesheet.StatusSubmitted})
		_, err := r.Navigate(ctx, monday)
		require.NoError(t, err)

		_, err = r.Save(ctx)

		assert.ErrorIs(t, err, timesheet.ErrNotEditable)
		assert.Equal(t, 0, store.SyncCalls)
	})
}

func TestReconciler_Submit(t *testing.T) {
	ctx := context.Background()

	t.Run("submits a week with logged hours", func(t *testing.T) {
		r, store, _ := setup(t)
		_, err := r.Navigate(ctx, monday)
		require.NoError(t, err)
		require.NoError(t, r.SetHours(ctx, "p1", 0, 8))

		_, err = r.Submit(ctx)

		require.NoError(t, err)
		assert.Equal(t, timesheet.StatusSubmitted, r.Grid().Status())
		stored, _ := store.Stored(monday)
		assert.Equal(t, timesheet.StatusSubmitted, stored.Status)
		assert.ErrorIs(t, r.SetHours(ctx, "p1", 1, 2), timesheet.ErrNotEditable)
	})

	t.Run("refuses an empty week without calling the store", func(t *testing.T) {
		r, store, _ := setup(t)
		_, err := r.Navigate(ctx, monday)
		require.NoError(t, err)

		_, err = r.Submit(ctx)

		assert.ErrorIs(t, err, timesheet.ErrEmptyTimesheet)
		assert.Equal(t, 0, store.SyncCalls)
	})

	t.Run("stays a draft when the sync fails", func(t *testing.T) {
		r, store, _ := setup(t)
		_, err := r.Navigate(ctx, monday)
		require.NoError(t, err)
		require.NoError(t, r.SetHours(ctx, "p1", 0, 8))
		store.SyncErr = errors.New("bad gateway")

		_, err = r.Submit(ctx)

		assert.Error(t, err)
		assert.Equal(t, timesheet.StatusDraft, r.Grid().Status())
		assert.NoError(t, r.SetHours(ctx, "p1", 0, 7))
	})
}

func TestReconciler_OfflineDrafts(t *testing.T) {
	ctx := context.Background()

	t.Run("unsynced edits are replayed after a restart and cleared after sync", func(t *testing.T) {
		r, store, cache := setup(t)
		_, err := r.Navigate(ctx, monday)
		require.NoError(t, err)
		require.NoError(t, r.SetHours(ctx, "p1", 1, 5.5))
		store.SyncErr = errors.New("offline")
		_, err = r.Save(ctx)
		require.Error(t, err)

		// a new session sharing the same cache
		bus := event_bus.NewEventBus()
		defer draft_cache.Subscribe(bus, cache)()
		restarted := NewReconciler(store, cache, bus)
		store.SyncErr = nil

		grid, err := restarted.Navigate(ctx, monday)
		require.NoError(t, err)
		assert.Equal(t, 5.5, grid.GetHours("p1", 1))

		_, err = restarted.Save(ctx)
		require.NoError(t, err)
		drafts, err := cache.GetDrafts(ctx, monday)
		require.NoError(t, err)
		assert.Empty(t, drafts)
	})

	t.Run("a cleared cell overrides the stored hours", func(t *testing.T) {
		r, store, cache := setup(t)
		store.Put(timesheet.WeeklyTimesheet{
			WeekStart: monday,
			Status:    timesheet.StatusDraft,
			Entries:   []timesheet.Entry{{ProjectId: "p1", Date: monday, Hours: 8}},
		})
		require.NoError(t, cache.SaveDraft(ctx, draft_cache.Draft{WeekStart: monday, ProjectId: "p1", Date: monday, Hours: 0}))

		grid, err := r.Navigate(ctx, monday)

		require.NoError(t, err)
		assert.Equal(t, 0.0, grid.GetHours("p1", 0))
	})

	t.Run("drafts are not applied to a submitted week", func(t *testing.T) {
		r, store, cache := setup(t)
		store.Put(timesheet.WeeklyTimesheet{
			WeekStart: monday,
			Status:    timesheet.StatusSubmitted,
			Entries:   []timesheet.Entry{{ProjectId: "p1", Date: monday, Hours: 8}},
		})
		require.NoError(t, cache.SaveDraft(ctx, draft_cache.Draft{WeekStart: monday, ProjectId: "p1", Date: monday, Hours: 2}))

		grid, err := r.Navigate(ctx, monday)

		require.NoError(t, err)
		assert.Equal(t, 8.0, grid.GetHours("p1", 0))
		drafts, err := cache.GetDrafts(ctx, monday)
		require.NoError(t, err)
		assert.Len(t, drafts, 1)
	})
}

func TestReconciler_RefreshStatus(t *testing.T) {
	ctx := context.Background()
	r, store, _ := setup(t)
	_, err := r.Navigate(ctx, monday)
	require.NoError(t, err)
	require.NoError(t, r.SetHours(ctx, "p1", 0, 8))
	_, err = r.Submit(ctx)
	require.NoError(t, err)

	// when an approver approves the week
	stored, _ := store.Stored(monday)
	stored.Status = timesheet.StatusApproved
	store.Put(stored)

	status, err := r.RefreshStatus(ctx)

	require.NoError(t, err)
	assert.Equal(t, timesheet.StatusApproved, status)
	assert.Equal(t, timesheet.StatusApproved, r.Grid().Status())
	assert.Equal(t, 8.0, r.Grid().GetHours("p1", 0))
}

// failingCache refuses to record drafts.
type failingCache struct {
	*draft_cache.StubCache
}

func (failingCache) SaveDraft(ctx context.Context, draft draft_cache.Draft) error {
	return errors.New("disk full")
}

func TestReconciler_EditingOffline(t *testing.T) {
	ctx := context.Background()

	t.Run("unreachable store yields an editable draft built from the cache", func(t *testing.T) {
		// given
		r, store, cache := setup(t)
		require.NoError(t, cache.SaveDraft(ctx, draft_cache.Draft{WeekStart: monday, ProjectId: "p1", Date: monday, Hours: 4}))
		store.FetchErr = errors.New("connection refused")

		// when
		grid, err := r.Navigate(ctx, monday)

		// then
		assert.ErrorIs(t, err, ErrOffline)
		require.NotNil(t, grid)
		assert.True(t, r.Offline())
		assert.Equal(t, timesheet.StatusDraft, grid.Status())
		assert.Equal(t, 4.0, grid.GetHours("p1", 0))

		require.NoError(t, r.SetHours(ctx, "p1", 2, 6))
		drafts, err := cache.GetDrafts(ctx, monday)
		require.NoError(t, err)
		assert.Len(t, drafts, 2)
	})

	t.Run("save while offline keeps the edits cached and syncs nothing", func(t *testing.T) {
		r, store, cache := setup(t)
		store.FetchErr = errors.New("connection refused")
		_, err := r.Navigate(ctx, monday)
		require.ErrorIs(t, err, ErrOffline)
		require.NoError(t, r.SetHours(ctx, "p1", 0, 8))

		_, err = r.Save(ctx)

		assert.ErrorIs(t, err, ErrOffline)
		assert.Equal(t, 0, store.SyncCalls)
		drafts, err := cache.GetDrafts(ctx, monday)
		require.NoError(t, err)
		assert.Len(t, drafts, 1)
	})

	t.Run("save after reconnecting merges offline edits into the stored week", func(t *testing.T) {
		// given a stored week the offline grid knows nothing about
		r, store, cache := setup(t)
		store.Put(timesheet.WeeklyTimesheet{
			WeekStart: monday,
			Status:    timesheet.StatusDraft,
			Entries:   []timesheet.Entry{{Id: "e1", ProjectId: "p3", Date: monday, Hours: 2}},
		})
		store.FetchErr = errors.New("connection refused")
		_, err := r.Navigate(ctx, monday)
		require.ErrorIs(t, err, ErrOffline)
		require.NoError(t, r.SetHours(ctx, "p1", 1, 5))

		// when the store is back
		store.FetchErr = nil
		_, err = r.Save(ctx)

		// then the stored entries survive next to the offline edit
		require.NoError(t, err)
		assert.False(t, r.Offline())
		stored, _ := store.Stored(monday)
		require.Len(t, stored.Entries, 2)
		assert.Equal(t, 7.0, stored.TotalHours())
		assert.Equal(t, 2.0, r.Grid().GetHours("p3", 0))
		assert.Equal(t, 5.0, r.Grid().GetHours("p1", 1))
		drafts, err := cache.GetDrafts(ctx, monday)
		require.NoError(t, err)
		assert.Empty(t, drafts)
	})

	t.Run("offline drafts are not pushed onto a week submitted meanwhile", func(t *testing.T) {
		r, store, cache := setup(t)
		store.FetchErr = errors.New("connection refused")
		_, err := r.Navigate(ctx, monday)
		require.ErrorIs(t, err, ErrOffline)
		require.NoError(t, r.SetHours(ctx, "p1", 0, 8))
		store.Put(timesheet.WeeklyTimesheet{WeekStart: monday, Status: timesheet.StatusSubmitted})
		store.FetchErr = nil

		_, err = r.Save(ctx)

		assert.ErrorIs(t, err, timesheet.ErrNotEditable)
		assert.Equal(t, 0, store.SyncCalls)
		drafts, err := cache.GetDrafts(ctx, monday)
		require.NoError(t, err)
		assert.Len(t, drafts, 1)
	})
}

func TestReconciler_EditDuringSync(t *testing.T) {
	ctx := context.Background()

	t.Run("edit made while saving stays cached", func(t *testing.T) {
		// given
		r, store, cache := setup(t)
		_, err := r.Navigate(ctx, monday)
		require.NoError(t, err)
		require.NoError(t, r.SetHours(ctx, "p1", 0, 8))
		var editErr error
		store.BeforeSync = func(timesheet.WeeklyTimesheet) {
			store.BeforeSync = nil
			editErr = r.SetHours(ctx, "p2", 1, 3)
		}

		// when
		_, err = r.Save(ctx)

		// then the store has the snapshot and the cache keeps the later edit
		require.NoError(t, err)
		require.NoError(t, editErr)
		stored, _ := store.Stored(monday)
		assert.Len(t, stored.Entries, 1)
		assert.Equal(t, 3.0, r.Grid().GetHours("p2", 1))
		drafts, err := cache.GetDrafts(ctx, monday)
		require.NoError(t, err)
		require.Len(t, drafts, 1)
		assert.Equal(t, "p2", drafts[0].ProjectId)
		assert.Equal(t, 3.0, drafts[0].Hours)
	})

	t.Run("edits are refused while submitting", func(t *testing.T) {
		// given
		r, store, _ := setup(t)
		_, err := r.Navigate(ctx, monday)
		require.NoError(t, err)
		require.NoError(t, r.SetHours(ctx, "p1", 0, 8))
		var editErr error
		store.BeforeSync = func(timesheet.WeeklyTimesheet) {
			store.BeforeSync = nil
			editErr = r.SetHours(ctx, "p2", 1, 3)
		}

		// when
		_, err = r.Submit(ctx)

		// then the submitted grid matches what the store received
		require.NoError(t, err)
		assert.ErrorIs(t, editErr, ErrSubmitInProgress)
		stored, _ := store.Stored(monday)
		assert.Equal(t, timesheet.StatusSubmitted, r.Grid().Status())
		assert.Equal(t, stored.TotalHours(), r.Grid().WeeklyTotal())
		assert.Equal(t, 0.0, r.Grid().GetHours("p2", 1))
	})

	t.Run("edits are accepted again after a failed submit", func(t *testing.T) {
		r, store, _ := setup(t)
		_, err := r.Navigate(ctx, monday)
		require.NoError(t, err)
		require.NoError(t, r.SetHours(ctx, "p1", 0, 8))
		store.SyncErr = errors.New("bad gateway")

		_, err = r.Submit(ctx)

		require.Error(t, err)
		assert.NoError(t, r.SetHours(ctx, "p2", 1, 3))
	})
}

func TestReconciler_SetHours_CacheFailure(t *testing.T) {
	ctx := context.Background()
	store := remote.NewClientStub(&utils.MockClock{FixedNow: monday})
	cache := failingCache{draft_cache.NewStubCache()}
	bus := event_bus.NewEventBus()
	defer draft_cache.Subscribe(bus, cache)()
	r := NewReconciler(store, cache, bus)
	_, err := r.Navigate(ctx, monday)
	require.NoError(t, err)

	err = r.SetHours(ctx, "p1", 0, 8)

	assert.ErrorIs(t, err, ErrDraftNotCached)
	assert.Equal(t, 8.0, r.Grid().GetHours("p1", 0))
}
