package employee

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
)

var ErrEmployeeNotFound = errors.New("employee not found")

type Repository interface {
	// Ensure returns the employee with the given email, creating it when missing.
	Ensure(ctx context.Context, email string, fullName string) (Employee, error)
	FindByEmail(ctx context.Context, email string) (Employee, error)
}

type RepositoryImpl struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *RepositoryImpl {
	return &RepositoryImpl{db: db}
}

func (r *RepositoryImpl) Ensure(ctx context.Context, email string, fullName string) (Employee, error) {
	// the no-op update makes RETURNING yield the existing row on conflict
	query := `INSERT INTO employee (email, full_name) VALUES ($1, $2)
		ON CONFLICT (email) DO UPDATE SET email = EXCLUDED.email
		RETURNING id, email, full_name, status`

	var e Employee
	err := r.db.QueryRow(ctx, query, email, fullName).Scan(&e.Id, &e.Email, &e.FullName, &e.Status)
	if err != nil {
		err := fmt.Errorf("could not ensure employee %s: %w", email, err)
		log.Error(err)
		return Employee{}, err
	}
	return e, nil
}

func (r *RepositoryImpl) FindByEmail(ctx context.Context, email string) (Employee, error) {
	query := `SELECT id, email, full_name, status FROM employee WHERE email = $1`

	var e Employee
	err := r.db.QueryRow(ctx, query, email).Scan(&e.Id, &e.Email, &e.FullName, &e.Status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Employee{}, ErrEmployeeNotFound
		}
		err := fmt.Errorf("could not find employee %s: %w", email, err)
		log.Error(err)
		return Employee{}, err
	}
	return e, nil
}
