package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Queue defines the interface for video job queue operations.
// Implementations must use SELECT ... FOR UPDATE SKIP LOCKED semantics.
type Queue interface {
	// Enqueue adds a video job to the queue.
	Enqueue(ctx context.Context, tx DBTransaction, videoID uuid.UUID, payload json.RawMessage, visibleAfter time.Time) (int64, error)

	// DequeueBatch claims up to 'limit' available jobs atomically.
	// Returns nil slice if queue is empty.
	DequeueBatch(ctx context.Context, limit int) ([]QueueItem, error)

	// Complete removes a finished job from the queue.
	Complete(ctx context.Context, tx DBTransaction, videoID uuid.UUID) error

	// Fail removes the job from the queue and marks its video failed.
	Fail(ctx context.Context, tx DBTransaction, videoID uuid.UUID, errMsg string) error

	// SetVisibleAfter extends the visibility timeout (heartbeat).
	SetVisibleAfter(ctx context.Context, tx DBTransaction, videoID uuid.UUID, visibleAfter time.Time) error

	// Count tracks count of items in queue
	Count(ctx context.Context) (int64, error)
}

// QueueItem represents a dequeued video job.
type QueueItem struct {
	VideoID uuid.UUID
	Attempt int
	Payload json.RawMessage
}
