package postgres

import (
	"context"
	"fmt"

	"veoprompt/internal/store"

	"github.com/google/uuid"
)

// CreatePerformance inserts the all-zero metrics row for a video. A second
// call for the same video leaves the existing row untouched.
func (s *Store) CreatePerformance(ctx context.Context, videoID uuid.UUID) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO performance (video_id, views, likes, shares, comments, watch_time_avg, updated_at)
		VALUES ($1, 0, 0, 0, 0, 0, NOW())
		ON CONFLICT (video_id) DO NOTHING
	`, videoID)
	if err != nil {
		return fmt.Errorf("failed to create performance for %s: %w", videoID, err)
	}
	return nil
}

func (s *Store) GetPerformance(ctx context.Context, videoID uuid.UUID) (*store.Performance, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT video_id, views, likes, shares, comments, watch_time_avg, updated_at
		FROM performance WHERE video_id = $1
	`, videoID)
	return scanPerformance(row)
}

// UpdatePerformance applies the non-nil fields of update.
func (s *Store) UpdatePerformance(ctx context.Context, videoID uuid.UUID, update store.PerformanceUpdate) (*store.Performance, error) {
	row := s.db.QueryRowContext(ctx, `
		UPDATE performance
		SET views = COALESCE($1, views),
			likes = COALESCE($2, likes),
			shares = COALESCE($3, shares),
			comments = COALESCE($4, comments),
			watch_time_avg = COALESCE($5, watch_time_avg),
			updated_at = NOW()
		WHERE video_id = $6
		RETURNING video_id, views, likes, shares, comments, watch_time_avg, updated_at
	`, update.Views, update.Likes, update.Shares, update.Comments, update.WatchTimeAvg, videoID)
	return scanPerformance(row)
}

func scanPerformance(row interface{ Scan(...any) error }) (*store.Performance, error) {
	var p store.Performance
	err := row.Scan(&p.VideoID, &p.Views, &p.Likes, &p.Shares, &p.Comments, &p.WatchTimeAvg, &p.UpdatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}
