package postgres

import (
	"context"
	"fmt"
	"time"

	"veoprompt/internal/store"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

const videoColumns = `id, user_id, prompt_id, status, video_url, duration, resolution, platform,
	caption_text, hashtags_used, social_post_id, post_url, posted_at, error_message,
	created_at, started_at, completed_at`

// CreateVideo inserts a new video job in its initial state.
func (s *Store) CreateVideo(ctx context.Context, tx store.DBTransaction, video *store.VideoJob) error {
	query := `
		INSERT INTO videos (id, user_id, prompt_id, status, duration, resolution, platform, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := s.getExecutor(tx).ExecContext(ctx, query,
		video.ID,
		video.UserID,
		video.PromptID,
		video.Status,
		video.Duration,
		video.Resolution,
		video.Platform,
		video.CreatedAt,
	)
	return err
}

func (s *Store) GetVideoByID(ctx context.Context, id uuid.UUID) (*store.VideoJob, error) {
	query := "SELECT " + videoColumns + " FROM videos WHERE id = $1"
	return scanVideo(s.db.QueryRowContext(ctx, query, id))
}

// ListVideos returns a user's videos, newest first.
func (s *Store) ListVideos(ctx context.Context, userID uuid.UUID, limit, offset int) ([]store.VideoJob, error) {
	query := "SELECT " + videoColumns + " FROM videos WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3"

	rows, err := s.db.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var videos []store.VideoJob
	for rows.Next() {
		v, err := scanVideo(rows)
		if err != nil {
			return nil, err
		}
		videos = append(videos, *v)
	}
	return videos, rows.Err()
}

// MarkVideoProcessing accepts 'processing' as a source state so a job
// redelivered after a worker crash can resume.
func (s *Store) MarkVideoProcessing(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE videos
		SET status = $1, started_at = COALESCE(started_at, NOW())
		WHERE id = $2 AND status IN ($3, $1)
	`, store.VideoStatusProcessing, id, store.VideoStatusQueued)
	if err != nil {
		return fmt.Errorf("failed to mark video %s processing: %w", id, err)
	}
	return requireOneRow(res, id)
}

func (s *Store) CompleteVideo(ctx context.Context, id uuid.UUID, outcome store.VideoOutcome) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE videos
		SET status = $1, video_url = $2, duration = $3, caption_text = $4, hashtags_used = $5,
			social_post_id = $6, post_url = $7, posted_at = $8, platform = $9, completed_at = NOW()
		WHERE id = $10 AND status = $11
	`,
		store.VideoStatusCompleted,
		outcome.VideoURL,
		outcome.Duration,
		outcome.CaptionText,
		pq.Array(outcome.Hashtags),
		outcome.SocialPostID,
		outcome.PostURL,
		outcome.PostedAt,
		outcome.Platform,
		id,
		store.VideoStatusProcessing,
	)
	if err != nil {
		return fmt.Errorf("failed to complete video %s: %w", id, err)
	}
	return requireOneRow(res, id)
}

func (s *Store) FailVideo(ctx context.Context, id uuid.UUID, errMsg string) error {
	return s.failVideo(ctx, s.db, id, errMsg)
}

func (s *Store) failVideo(ctx context.Context, executor store.DBTransaction, id uuid.UUID, errMsg string) error {
	_, err := executor.ExecContext(ctx, `
		UPDATE videos
		SET status = $1, error_message = $2, completed_at = NOW()
		WHERE id = $3 AND status NOT IN ($4, $1)
	`, store.VideoStatusFailed, errMsg, id, store.VideoStatusCompleted)
	if err != nil {
		return fmt.Errorf("failed to mark video %s failed: %w", id, err)
	}
	return nil
}

// FailStuckVideos also drops the matching queue rows so no worker picks them up again.
func (s *Store) FailStuckVideos(ctx context.Context, startedBefore time.Time, errMsg string) ([]uuid.UUID, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx, `
		UPDATE videos
		SET status = $1, error_message = $2, completed_at = NOW()
		WHERE status = $3 AND started_at < $4
		RETURNING id
	`, store.VideoStatusFailed, errMsg, store.VideoStatusProcessing, startedBefore)
	if err != nil {
		return nil, fmt.Errorf("stuck video update failed: %w", err)
	}

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, err
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(ids) == 0 {
		return nil, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = id.String()
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM video_queue WHERE video_id = ANY($1)", pq.Array(keys)); err != nil {
		return nil, fmt.Errorf("stuck video dequeue failed: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return ids, nil
}

func requireOneRow(res interface{ RowsAffected() (int64, error) }, id uuid.UUID) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("video %s: %w", id, store.ErrInvalidTransition)
	}
	return nil
}

func scanVideo(row interface{ Scan(...any) error }) (*store.VideoJob, error) {
	var v store.VideoJob
	err := row.Scan(
		&v.ID, &v.UserID, &v.PromptID, &v.Status,
		&v.VideoURL, &v.Duration, &v.Resolution, &v.Platform,
		&v.CaptionText, pq.Array(&v.Hashtags), &v.SocialPostID, &v.PostURL,
		&v.PostedAt, &v.ErrorMessage,
		&v.CreatedAt, &v.StartedAt, &v.CompletedAt,
	)
	if err != nil {
		return nil, notFound(err)
	}
	return &v, nil
}
