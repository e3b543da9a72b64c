package postgres

import (
	"context"
	"fmt"

	"veoprompt/internal/store"

	"github.com/google/uuid"
)

const projectColumns = "id, user_id, name, description, created_at"

func (s *Store) CreateProject(ctx context.Context, project *store.Project) error {
	query := `
		INSERT INTO projects (id, user_id, name, description, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := s.db.ExecContext(ctx, query,
		project.ID,
		project.UserID,
		project.Name,
		project.Description,
		project.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create project: %w", err)
	}
	return nil
}

func (s *Store) GetProjectByID(ctx context.Context, id uuid.UUID) (*store.Project, error) {
	query := "SELECT " + projectColumns + " FROM projects WHERE id = $1"
	return scanProject(s.db.QueryRowContext(ctx, query, id))
}

func (s *Store) ListProjects(ctx context.Context, userID uuid.UUID, limit int) ([]store.Project, error) {
	query := "SELECT " + projectColumns + " FROM projects WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2"

	rows, err := s.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var projects []store.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, *p)
	}
	return projects, rows.Err()
}

func scanProject(row interface{ Scan(...any) error }) (*store.Project, error) {
	var p store.Project
	if err := row.Scan(&p.ID, &p.UserID, &p.Name, &p.Description, &p.CreatedAt); err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}
