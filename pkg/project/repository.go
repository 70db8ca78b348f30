package project

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
)

type Repository interface {
	ListActive(ctx context.Context) ([]Project, error)
	Create(ctx context.Context, project Project) (Project, error)
}

type RepositoryImpl struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *RepositoryImpl {
	return &RepositoryImpl{db: db}
}

func (r *RepositoryImpl) ListActive(ctx context.Context) ([]Project, error) {
	query := `SELECT id, name, code, billable, color, status FROM project
		WHERE status = $1
		ORDER BY name, id`
	rows, err := r.db.Query(ctx, query, StatusActive)
	if err != nil {
		err := fmt.Errorf("could not query projects: %w", err)
		log.Error(err)
		return nil, err
	}
	defer rows.Close()

	projects := make([]Project, 0)
	for rows.Next() {
		var p Project
		if err := rows.Scan(&p.Id, &p.Name, &p.Code, &p.Billable, &p.Color, &p.Status); err != nil {
			log.Errorf("could not scan project: %v", err)
			return nil, err
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

func (r *RepositoryImpl) Create(ctx context.Context, project Project) (Project, error) {
	query := `INSERT INTO project (name, code, billable, color, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`
	err := r.db.QueryRow(ctx, query,
		project.Name,
		project.Code,
		project.Billable,
		project.Color,
		project.Status,
	).Scan(&project.Id)
	if err != nil {
		err := fmt.Errorf("could not create project: %w", err)
		log.Error(err)
		return Project{}, err
	}
	return project, nil
}
