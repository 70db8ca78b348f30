package draft_cache

import (
	"github.com/klokku/worktime/internal/event_bus"
	log "github.com/sirupsen/logrus"
)

// Subscribe records every edited cell in cache and forgets the drafts the
// record store accepted. The returned function removes both handlers.
func Subscribe(bus *event_bus.EventBus, cache Cache) (unsubscribe func()) {
	unsubscribeChanged := event_bus.SubscribeTyped(bus, event_bus.TimesheetCellChanged,
		func(e event_bus.EventT[event_bus.CellChanged]) error {
			return cache.SaveDraft(e.Context(), Draft{
				WeekStart: e.Data.WeekStart,
				ProjectId: e.Data.ProjectId,
				Date:      e.Data.Date,
				Hours:     e.Data.Hours,
				UpdatedAt: e.Timestamp,
			})
		})

	unsubscribeSynced := event_bus.SubscribeTyped(bus, event_bus.TimesheetWeekSynced,
		func(e event_bus.EventT[event_bus.WeekSynced]) error {
			log.Debugf("week %s synced as %s, clearing synced drafts", e.Data.WeekStart.Format("2006-01-02"), e.Data.TimesheetId)
			return cache.ClearSynced(e.Context(), e.Data.WeekStart, e.Data.Entries)
		})

	return func() {
		unsubscribeChanged()
		unsubscribeSynced()
	}
}
