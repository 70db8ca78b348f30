package attendance_log

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
)

var ErrSessionActive = errors.New("already clocked in")
var ErrNoActiveSession = errors.New("no active session found")

type Repository interface {
	// Open starts a session unless one is already open.
	Open(ctx context.Context, employeeId int, loginTime time.Time) (Log, error)
	// Close ends the most recent open session.
	Close(ctx context.Context, employeeId int, logoutTime time.Time) (Log, error)
	FindOpen(ctx context.Context, employeeId int) (Log, error)
}

type RepositoryImpl struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *RepositoryImpl {
	return &RepositoryImpl{db: db}
}

func (r *RepositoryImpl) Open(ctx context.Context, employeeId int, loginTime time.Time) (Log, error) {
	// guarded by the attendance_log_one_open_per_employee partial index
	query := `INSERT INTO attendance_log (employee_id, login_time, status)
		VALUES ($1, $2, $3)
		ON CONFLICT (employee_id) WHERE logout_time IS NULL AND status = 'Active' DO NOTHING
		RETURNING id, employee_id, login_time, logout_time, status`

	l, err := scanLog(r.db.QueryRow(ctx, query, employeeId, loginTime, StatusActive))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Log{}, ErrSessionActive
		}
		err := fmt.Errorf("could not open attendance log: %w", err)
		log.Error(err)
		return Log{}, err
	}
	return l, nil
}

func (r *RepositoryImpl) Close(ctx context.Context, employeeId int, logoutTime time.Time) (Log, error) {
	query := `UPDATE attendance_log
		SET logout_time = $2, status = $3
		WHERE id = (
			SELECT id FROM attendance_log
			WHERE employee_id = $1 AND logout_time IS NULL AND status = 'Active'
			ORDER BY login_time DESC
			LIMIT 1
			FOR UPDATE
		)
		RETURNING id, employee_id, login_time, logout_time, status`

	l, err := scanLog(r.db.QueryRow(ctx, query, employeeId, logoutTime, StatusCompleted))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Log{}, ErrNoActiveSession
		}
		err := fmt.Errorf("could not close attendance log: %w", err)
		log.Error(err)
		return Log{}, err
	}
	return l, nil
}

func (r *RepositoryImpl) FindOpen(ctx context.Context, employeeId int) (Log, error) {
	query := `SELECT id, employee_id, login_time, logout_time, status FROM attendance_log
		WHERE employee_id = $1 AND logout_time IS NULL AND status = 'Active'
		ORDER BY login_time DESC
		LIMIT 1`

	l, err := scanLog(r.db.QueryRow(ctx, query, employeeId))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Log{}, ErrNoActiveSession
		}
		err := fmt.Errorf("could not query attendance log: %w", err)
		log.Error(err)
		return Log{}, err
	}
	return l, nil
}

func scanLog(row pgx.Row) (Log, error) {
	var l Log
	err := row.Scan(&l.Id, &l.EmployeeId, &l.LoginTime, &l.LogoutTime, &l.Status)
	return l, err
}
