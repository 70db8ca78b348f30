package draft_cache

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/klokku/worktime/internal/utils"
	"github.com/klokku/worktime/pkg/timesheet"
	log "github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrations embed.FS

var ErrDateOutsideWeek = errors.New("draft date is outside of its week")

type Cache interface {
	SaveDraft(ctx context.Context, draft Draft) error
	GetDrafts(ctx context.Context, weekStart time.Time) ([]Draft, error)
	ClearWeek(ctx context.Context, weekStart time.Time) error
	// ClearSynced removes the drafts of a week whose hours match the synced
	// entries; a cell missing from synced counts as 0. Drafts changed after
	// the sync snapshot differ and are kept.
	ClearSynced(ctx context.Context, weekStart time.Time, synced []timesheet.Entry) error
}

type CacheImpl struct {
	db    *sql.DB
	clock utils.Clock
}

// Open opens (creating if needed) the SQLite file at path and applies the
// cache schema.
func Open(path string, clock utils.Clock) (*CacheImpl, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open draft cache %s: %w", path, err)
	}
	// a single writer avoids SQLITE_BUSY and keeps :memory: databases shared
	db.SetMaxOpenConns(1)

	if err := applyMigrations(db); err != nil {
		db.Close()
		return nil, err
	}
	log.Debugf("draft cache opened at %s", path)
	return &CacheImpl{db: db, clock: clock}, nil
}

func applyMigrations(db *sql.DB) error {
	source, err := iofs.New(migrations, "migrations")
	if err != nil {
		return fmt.Errorf("failed to read draft cache migrations: %w", err)
	}
	driver, err := sqlite.WithInstance(db, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("failed to create sqlite driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", source, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}
	// m.Close would also close db
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("draft cache migration failed: %w", err)
	}
	return nil
}

func (c *CacheImpl) Close() error {
	return c.db.Close()
}

// SaveDraft upserts the draft keyed by (week, project, date).
func (c *CacheImpl) SaveDraft(ctx context.Context, draft Draft) error {
	weekStart := timesheet.WeekStart(draft.WeekStart)
	if timesheet.DayIndex(weekStart, draft.Date) < 0 {
		return fmt.Errorf("%w: %s not in week %s", ErrDateOutsideWeek,
			timesheet.FormatDate(draft.Date), timesheet.FormatDate(weekStart))
	}
	updatedAt := draft.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = c.clock.Now()
	}

	query := `INSERT INTO draft (week_start, project_id, date, hours, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (week_start, project_id, date)
		DO UPDATE SET hours = excluded.hours, updated_at = excluded.updated_at`
	_, err := c.db.ExecContext(ctx, query,
		timesheet.FormatDate(weekStart),
		draft.ProjectId,
		timesheet.FormatDate(draft.Date),
		timesheet.NormalizeHours(draft.Hours),
		updatedAt.UnixMilli(),
	)
	if err != nil {
		log.Errorf("failed to save draft: %v", err)
		return err
	}
	return nil
}

// GetDrafts returns the drafts of a week ordered by date, then project.
func (c *CacheImpl) GetDrafts(ctx context.Context, weekStart time.Time) ([]Draft, error) {
	weekStart = timesheet.WeekStart(weekStart)
	query := `SELECT project_id, date, hours, updated_at FROM draft
		WHERE week_start = ?
		ORDER BY date, project_id`
	rows, err := c.db.QueryContext(ctx, query, timesheet.FormatDate(weekStart))
	if err != nil {
		log.Errorf("failed to query drafts: %v", err)
		return nil, err
	}
	defer rows.Close()

	drafts := make([]Draft, 0)
	for rows.Next() {
		var projectId, date string
		var hours float64
		var updatedAt int64
		if err := rows.Scan(&projectId, &date, &hours, &updatedAt); err != nil {
			return nil, err
		}
		parsedDate, err := timesheet.ParseDate(date)
		if err != nil {
			return nil, fmt.Errorf("corrupted draft date %q: %w", date, err)
		}
		drafts = append(drafts, Draft{
			WeekStart: weekStart,
			ProjectId: projectId,
			Date:      parsedDate,
			Hours:     hours,
			UpdatedAt: time.UnixMilli(updatedAt),
		})
	}
	return drafts, rows.Err()
}

func (c *CacheImpl) ClearWeek(ctx context.Context, weekStart time.Time) error {
	weekStart = timesheet.WeekStart(weekStart)
	result, err := c.db.ExecContext(ctx, `DELETE FROM draft WHERE week_start = ?`, timesheet.FormatDate(weekStart))
	if err != nil {
		log.Errorf("failed to clear drafts: %v", err)
		return err
	}
	if n, err := result.RowsAffected(); err == nil && n > 0 {
		log.Debugf("cleared %d drafts of week %s", n, timesheet.FormatDate(weekStart))
	}
	return nil
}

func (c *CacheImpl) ClearSynced(ctx context.Context, weekStart time.Time, synced []timesheet.Entry) error {
	weekStart = timesheet.WeekStart(weekStart)
	drafts, err := c.GetDrafts(ctx, weekStart)
	if err != nil {
		return err
	}
	syncedHours := hoursByCell(synced)

	// the hours condition keeps a draft rewritten since it was read
	query := `DELETE FROM draft
		WHERE week_start = ? AND project_id = ? AND date = ? AND hours = ?`
	var cleared, kept int
	for _, d := range drafts {
		if d.Hours != syncedHours[cellOf(d.ProjectId, d.Date)] {
			kept++
			continue
		}
		_, err := c.db.ExecContext(ctx, query,
			timesheet.FormatDate(weekStart), d.ProjectId, timesheet.FormatDate(d.Date), d.Hours)
		if err != nil {
			log.Errorf("failed to clear draft: %v", err)
			return err
		}
		cleared++
	}
	log.Debugf("cleared %d drafts of week %s, kept %d unsynced", cleared, timesheet.FormatDate(weekStart), kept)
	return nil
}

func cellOf(projectId string, date time.Time) string {
	return projectId + "/" + timesheet.FormatDate(date)
}

func hoursByCell(entries []timesheet.Entry) map[string]float64 {
	hours := make(map[string]float64, len(entries))
	for _, e := range entries {
		hours[cellOf(e.ProjectId, e.Date)] = timesheet.NormalizeHours(e.Hours)
	}
	return hours
}
