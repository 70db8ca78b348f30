package timesheet_record

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/klokku/worktime/internal/database"
	"github.com/klokku/worktime/pkg/timesheet"
	log "github.com/sirupsen/logrus"
)

var ErrTimesheetNotFound = errors.New("timesheet not found")
var ErrTimesheetLocked = errors.New("timesheet is no longer a draft")

type Repository interface {
	Get(ctx context.Context, employeeId int, weekStart time.Time) (Record, error)
	// Replace swaps every entry of the week for entries and sets the status.
	// It fails with ErrTimesheetLocked when the stored week is not a Draft.
	Replace(ctx context.Context, employeeId int, weekStart time.Time, status timesheet.Status, entries []timesheet.Entry) (SyncResult, error)
}

type RepositoryImpl struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *RepositoryImpl {
	return &RepositoryImpl{db: db}
}

func (r *RepositoryImpl) Get(ctx context.Context, employeeId int, weekStart time.Time) (Record, error) {
	query := `SELECT id, employee_id, week_start, status, total_hours FROM timesheet
		WHERE employee_id = $1 AND week_start = $2`

	var record Record
	var status string
	err := r.db.QueryRow(ctx, query, employeeId, weekStart).Scan(
		&record.Id, &record.EmployeeId, &record.WeekStart, &status, &record.TotalHours)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Record{}, ErrTimesheetNotFound
		}
		err := fmt.Errorf("could not query timesheet: %w", err)
		log.Error(err)
		return Record{}, err
	}
	record.Status = timesheet.Status(status)

	entries, err := r.entries(ctx, r.db, record.Id)
	if err != nil {
		return Record{}, err
	}
	record.Entries = entries
	return record, nil
}

func (r *RepositoryImpl) entries(ctx context.Context, q database.Queryer, timesheetId int) ([]timesheet.Entry, error) {
	query := `SELECT id, project_id, date, hours FROM timesheet_entry
		WHERE timesheet_id = $1
		ORDER BY date, project_id`
	rows, err := q.Query(ctx, query, timesheetId)
	if err != nil {
		err := fmt.Errorf("could not query timesheet entries: %w", err)
		log.Error(err)
		return nil, err
	}
	defer rows.Close()

	entries := make([]timesheet.Entry, 0)
	for rows.Next() {
		var e timesheet.Entry
		if err := rows.Scan(&e.Id, &e.ProjectId, &e.Date, &e.Hours); err != nil {
			log.Errorf("could not scan timesheet entry: %v", err)
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (r *RepositoryImpl) Replace(ctx context.Context, employeeId int, weekStart time.Time, status timesheet.Status, entries []timesheet.Entry) (SyncResult, error) {
	var result SyncResult
	err := database.InTx(ctx, r.db, func(tx pgx.Tx) error {
		timesheetId, currentStatus, err := lockHeader(ctx, tx, employeeId, weekStart)
		if err != nil {
			return err
		}
		if currentStatus != timesheet.StatusDraft {
			return fmt.Errorf("%w: status is %s", ErrTimesheetLocked, currentStatus)
		}

		if _, err := tx.Exec(ctx, `DELETE FROM timesheet_entry WHERE timesheet_id = $1`, timesheetId); err != nil {
			return fmt.Errorf("could not delete timesheet entries: %w", err)
		}

		count, err := tx.CopyFrom(ctx,
			pgx.Identifier{"timesheet_entry"},
			[]string{"id", "timesheet_id", "project_id", "date", "hours"},
			pgx.CopyFromSlice(len(entries), func(i int) ([]any, error) {
				e := entries[i]
				return []any{e.Id, timesheetId, e.ProjectId, e.Date, e.Hours}, nil
			}),
		)
		if err != nil {
			return fmt.Errorf("could not insert timesheet entries: %w", err)
		}

		// the total comes from what was persisted, not from the request
		query := `UPDATE timesheet
			SET status = $2,
			    total_hours = (SELECT COALESCE(SUM(hours), 0) FROM timesheet_entry WHERE timesheet_id = $1)
			WHERE id = $1
			RETURNING total_hours`
		var totalHours float64
		if err := tx.QueryRow(ctx, query, timesheetId, string(status)).Scan(&totalHours); err != nil {
			return fmt.Errorf("could not update timesheet header: %w", err)
		}

		result = SyncResult{
			TimesheetId: timesheetId,
			EntryCount:  int(count),
			TotalHours:  totalHours,
		}
		return nil
	})
	if err != nil {
		if !errors.Is(err, ErrTimesheetLocked) {
			log.Errorf("failed to replace timesheet entries: %v", err)
		}
		return SyncResult{}, err
	}
	return result, nil
}

// lockHeader creates the header if needed and locks it for the rest of the
// transaction, so concurrent syncs of the same week run one after another.
func lockHeader(ctx context.Context, tx pgx.Tx, employeeId int, weekStart time.Time) (int, timesheet.Status, error) {
	_, err := tx.Exec(ctx, `INSERT INTO timesheet (employee_id, week_start) VALUES ($1, $2)
		ON CONFLICT (employee_id, week_start) DO NOTHING`, employeeId, weekStart)
	if err != nil {
		return 0, "", fmt.Errorf("could not create timesheet header: %w", err)
	}

	var id int
	var status string
	err = tx.QueryRow(ctx, `SELECT id, status FROM timesheet
		WHERE employee_id = $1 AND week_start = $2
		FOR UPDATE`, employeeId, weekStart).Scan(&id, &status)
	if err != nil {
		return 0, "", fmt.Errorf("could not lock timesheet header: %w", err)
	}
	return id, timesheet.Status(status), nil
}
