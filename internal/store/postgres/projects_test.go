package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"veoprompt/internal/store"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
)

var projectCols = []string{"id", "user_id", "name", "description", "created_at"}

func TestCreateProject(t *testing.T) {
	s, mock := newMockStore(t)
	defer s.db.Close()

	p := &store.Project{
		ID:          uuid.New(),
		UserID:      uuid.New(),
		Name:        "Spring launch",
		Description: "Reels for the new blend",
		CreatedAt:   time.Now().UTC(),
	}

	mock.ExpectExec(`INSERT INTO projects`).
		WithArgs(p.ID, p.UserID, "Spring launch", "Reels for the new blend", p.CreatedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := s.CreateProject(context.Background(), p); err != nil {
		t.Fatalf("CreateProject failed: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestCreateProject_UnknownUser(t *testing.T) {
	s, mock := newMockStore(t)
	defer s.db.Close()

	mock.ExpectExec(`INSERT INTO projects`).
		WillReturnError(errors.New(`violates foreign key constraint "projects_user_id_fkey"`))

	err := s.CreateProject(context.Background(), &store.Project{ID: uuid.New(), UserID: uuid.New(), Name: "x"})
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestGetProjectByID(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(sqlmock.Sqlmock, uuid.UUID)
		wantErr error
	}{
		{
			name: "found",
			setup: func(m sqlmock.Sqlmock, id uuid.UUID) {
				m.ExpectQuery(`SELECT .+ FROM projects WHERE id = \$1`).
					WithArgs(id).
					WillReturnRows(sqlmock.NewRows(projectCols).
						AddRow(id.String(), uuid.NewString(), "Spring launch", "", time.Now()))
			},
		},
		{
			name: "missing",
			setup: func(m sqlmock.Sqlmock, id uuid.UUID) {
				m.ExpectQuery(`SELECT .+ FROM projects`).WillReturnError(sql.ErrNoRows)
			},
			wantErr: store.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, mock := newMockStore(t)
			defer s.db.Close()

			id := uuid.New()
			tt.setup(mock, id)

			p, err := s.GetProjectByID(context.Background(), id)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if err == nil && (p.ID != id || p.Name != "Spring launch") {
				t.Errorf("unexpected project %+v", p)
			}
		})
	}
}

func TestListProjects_NewestFirst(t *testing.T) {
	s, mock := newMockStore(t)
	defer s.db.Close()

	userID := uuid.New()
	now := time.Now()

	mock.ExpectQuery(`SELECT .+ FROM projects WHERE user_id = \$1 ORDER BY created_at DESC LIMIT \$2`).
		WithArgs(userID, 100).
		WillReturnRows(sqlmock.NewRows(projectCols).
			AddRow(uuid.NewString(), userID.String(), "Autumn", "", now).
			AddRow(uuid.NewString(), userID.String(), "Spring", "launch", now.Add(-time.Hour)))

	projects, err := s.ListProjects(context.Background(), userID, 100)
	if err != nil {
		t.Fatalf("ListProjects failed: %v", err)
	}
	if len(projects) != 2 || projects[0].Name != "Autumn" || projects[1].Description != "launch" {
		t.Errorf("unexpected projects %+v", projects)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}
