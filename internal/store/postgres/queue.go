package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"veoprompt/internal/store"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// VisibilityTimeout is how long a claimed job stays hidden from other workers
// unless a heartbeat extends it.
const VisibilityTimeout = 5 * time.Minute

// Enqueue adds a video job to the video_queue.
func (s *Store) Enqueue(ctx context.Context, tx store.DBTransaction, videoID uuid.UUID, payload json.RawMessage, visibleAfter time.Time) (int64, error) {
	if visibleAfter.IsZero() {
		visibleAfter = time.Now()
	}

	query := `
		INSERT INTO video_queue (video_id, payload, visible_after)
		VALUES ($1, $2, $3)
		RETURNING id
	`

	var id int64
	err := s.getExecutor(tx).QueryRowContext(ctx, query, videoID, payload, visibleAfter).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to enqueue video %s: %w", videoID, err)
	}

	return id, nil
}

// DequeueBatch claims up to 'limit' available jobs atomically using SELECT ... FOR UPDATE SKIP LOCKED.
// Returns nil slice if no jobs are available.
func (s *Store) DequeueBatch(ctx context.Context, limit int) ([]store.QueueItem, error) {
	if limit <= 0 {
		limit = 1
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx, `
		SELECT id, video_id, attempt, payload
		FROM video_queue
		WHERE visible_after <= NOW()
		ORDER BY created_at ASC
		FOR UPDATE SKIP LOCKED
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("batch dequeue query failed: %w", err)
	}
	defer rows.Close()

	var items []store.QueueItem
	var queueIDs []int64

	for rows.Next() {
		var queueID int64
		var item store.QueueItem
		if err := rows.Scan(&queueID, &item.VideoID, &item.Attempt, &item.Payload); err != nil {
			return nil, fmt.Errorf("batch dequeue scan failed: %w", err)
		}
		// The claim below counts as one more attempt.
		item.Attempt++
		items = append(items, item)
		queueIDs = append(queueIDs, queueID)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("batch dequeue rows error: %w", err)
	}

	if len(items) == 0 {
		return nil, nil
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE video_queue
		SET visible_after = NOW() + ($1 * INTERVAL '1 second'), attempt = attempt + 1
		WHERE id = ANY($2)
	`, VisibilityTimeout.Seconds(), pq.Array(queueIDs))
	if err != nil {
		return nil, fmt.Errorf("batch visibility update failed: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return items, nil
}

// Complete removes a job from the queue once the pipeline has written its terminal state.
func (s *Store) Complete(ctx context.Context, tx store.DBTransaction, videoID uuid.UUID) error {
	_, err := s.getExecutor(tx).ExecContext(ctx, "DELETE FROM video_queue WHERE video_id = $1", videoID)
	if err != nil {
		return fmt.Errorf("failed to remove video %s from queue: %w", videoID, err)
	}
	return nil
}

// Fail removes a job that cannot run and marks its video failed.
func (s *Store) Fail(ctx context.Context, tx store.DBTransaction, videoID uuid.UUID, errMsg string) error {
	executor := s.getExecutor(tx)

	if _, err := executor.ExecContext(ctx, "DELETE FROM video_queue WHERE video_id = $1", videoID); err != nil {
		return fmt.Errorf("failed to delete failed job from queue: %w", err)
	}

	return s.failVideo(ctx, executor, videoID, errMsg)
}

// SetVisibleAfter extends the heartbeat.
func (s *Store) SetVisibleAfter(ctx context.Context, tx store.DBTransaction, videoID uuid.UUID, visibleAfter time.Time) error {
	_, err := s.getExecutor(tx).ExecContext(ctx, `
		UPDATE video_queue
		SET visible_after = $1
		WHERE video_id = $2
	`, visibleAfter, videoID)
	return err
}

// Count returns the number of jobs waiting or running.
func (s *Store) Count(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM video_queue").Scan(&count)
	return count, err
}
