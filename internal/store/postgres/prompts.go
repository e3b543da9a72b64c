package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"veoprompt/internal/store"

	"github.com/google/uuid"
)

const promptColumns = "id, user_id, niche, platform, video_length, tone, goal, custom_idea, structured, raw_text, status, created_at, updated_at, project_id"

// CreatePrompt inserts a prompt row. The structured prompt is stored as JSONB.
func (s *Store) CreatePrompt(ctx context.Context, tx store.DBTransaction, prompt *store.Prompt) error {
	structured, err := json.Marshal(prompt.Structured)
	if err != nil {
		return fmt.Errorf("failed to marshal structured prompt: %w", err)
	}

	query := `
		INSERT INTO prompts (id, user_id, niche, platform, video_length, tone, goal, custom_idea, structured, raw_text, status, created_at, updated_at, project_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $12, $13)
	`
	_, err = s.getExecutor(tx).ExecContext(ctx, query,
		prompt.ID,
		prompt.UserID,
		prompt.Request.Niche,
		prompt.Request.Platform,
		prompt.Request.VideoLength,
		prompt.Request.Tone,
		prompt.Request.Goal,
		prompt.Request.CustomIdea,
		structured,
		prompt.RawText,
		prompt.Status,
		prompt.CreatedAt,
		nullableUUID(prompt.ProjectID),
	)
	return err
}

func (s *Store) GetPromptByID(ctx context.Context, id uuid.UUID) (*store.Prompt, error) {
	query := "SELECT " + promptColumns + " FROM prompts WHERE id = $1"
	return scanPrompt(s.db.QueryRowContext(ctx, query, id))
}

// ListPrompts returns a user's prompts, newest first.
func (s *Store) ListPrompts(ctx context.Context, userID uuid.UUID, limit, offset int) ([]store.Prompt, error) {
	query := "SELECT " + promptColumns + " FROM prompts WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3"

	rows, err := s.db.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var prompts []store.Prompt
	for rows.Next() {
		p, err := scanPrompt(rows)
		if err != nil {
			return nil, err
		}
		prompts = append(prompts, *p)
	}
	return prompts, rows.Err()
}

func (s *Store) UpdatePromptStatus(ctx context.Context, tx store.DBTransaction, id uuid.UUID, status store.PromptStatus) error {
	res, err := s.getExecutor(tx).ExecContext(ctx,
		"UPDATE prompts SET status = $1, updated_at = NOW() WHERE id = $2",
		status, id,
	)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func scanPrompt(row interface{ Scan(...any) error }) (*store.Prompt, error) {
	var p store.Prompt
	var structured []byte
	var projectID uuid.NullUUID
	err := row.Scan(
		&p.ID, &p.UserID,
		&p.Request.Niche, &p.Request.Platform, &p.Request.VideoLength,
		&p.Request.Tone, &p.Request.Goal, &p.Request.CustomIdea,
		&structured, &p.RawText, &p.Status,
		&p.CreatedAt, &p.UpdatedAt, &projectID,
	)
	if err != nil {
		return nil, notFound(err)
	}
	if projectID.Valid {
		p.ProjectID = &projectID.UUID
	}
	if err := json.Unmarshal(structured, &p.Structured); err != nil {
		return nil, fmt.Errorf("corrupt structured prompt %s: %w", p.ID, err)
	}
	return &p, nil
}

func nullableUUID(id *uuid.UUID) any {
	if id == nil {
		return nil
	}
	return *id
}
