package postgres

import (
	"context"
	"fmt"

	"veoprompt/internal/store"

	"github.com/google/uuid"
)

func (s *Store) GetDashboardStats(ctx context.Context, userID uuid.UUID) (*store.DashboardStats, error) {
	stats := &store.DashboardStats{
		VideosByStatus: make(map[store.VideoStatus]int64),
	}

	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM prompts WHERE user_id = $1", userID).Scan(&stats.TotalPrompts)
	if err != nil {
		return nil, fmt.Errorf("prompt count failed: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, "SELECT status, COUNT(*) FROM videos WHERE user_id = $1 GROUP BY status", userID)
	if err != nil {
		return nil, fmt.Errorf("video count failed: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var status store.VideoStatus
		var count int64
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats.VideosByStatus[status] = count
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	err = s.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(p.views), 0), COALESCE(SUM(p.likes), 0)
		FROM performance p
		JOIN videos v ON v.id = p.video_id
		WHERE v.user_id = $1
	`, userID).Scan(&stats.TotalViews, &stats.TotalLikes)
	if err != nil {
		return nil, fmt.Errorf("performance totals failed: %w", err)
	}

	return stats, nil
}
