package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	return &Store{db: db}, mock
}

func TestEnqueue_Success(t *testing.T) {
	store, mock := newMockStore(t)
	defer store.db.Close()

	ctx := context.Background()
	videoID := uuid.New()
	payload := json.RawMessage(`{"video_id": "x"}`)
	expectedQueueID := int64(42)
	visibleAfter := time.Now()

	mock.ExpectQuery(`INSERT INTO video_queue`).
		WithArgs(videoID, sqlmock.AnyArg(), visibleAfter).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(expectedQueueID))

	id, err := store.Enqueue(ctx, nil, videoID, payload, visibleAfter)
	if err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}
	if id != expectedQueueID {
		t.Errorf("got id %d, want %d", id, expectedQueueID)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestEnqueue_ZeroVisibleAfterDefaultsToNow(t *testing.T) {
	store, mock := newMockStore(t)
	defer store.db.Close()

	mock.ExpectQuery(`INSERT INTO video_queue`).
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(1)))

	if _, err := store.Enqueue(context.Background(), nil, uuid.New(), json.RawMessage(`{}`), time.Time{}); err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestEnqueue_VideoMissing(t *testing.T) {
	store, mock := newMockStore(t)
	defer store.db.Close()

	videoID := uuid.New()

	mock.ExpectQuery(`INSERT INTO video_queue`).
		WillReturnError(errors.New("violates foreign key constraint"))

	_, err := store.Enqueue(context.Background(), nil, videoID, json.RawMessage(`{}`), time.Now())
	if err == nil {
		t.Error("expected error, got nil")
	}
}

func TestDequeueBatch_Success(t *testing.T) {
	store, mock := newMockStore(t)
	defer store.db.Close()

	ctx := context.Background()
	video1 := uuid.New()
	video2 := uuid.New()
	payload1 := json.RawMessage(`{"video_id": "1"}`)
	payload2 := json.RawMessage(`{"video_id": "2"}`)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id, video_id, attempt, payload FROM video_queue WHERE visible_after <= NOW\(\) ORDER BY created_at ASC FOR UPDATE SKIP LOCKED LIMIT \$1`).
		WithArgs(3).
		WillReturnRows(sqlmock.NewRows([]string{"id", "video_id", "attempt", "payload"}).
			AddRow(int64(1), video1.String(), 0, []byte(payload1)).
			AddRow(int64(2), video2.String(), 2, []byte(payload2)))
	mock.ExpectExec(`UPDATE video_queue SET visible_after = NOW\(\) \+ \(\$1 \* INTERVAL '1 second'\), attempt = attempt \+ 1`).
		WithArgs(VisibilityTimeout.Seconds(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	items, err := store.DequeueBatch(ctx, 3)
	if err != nil {
		t.Fatalf("DequeueBatch failed: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	if items[0].VideoID != video1 || items[1].VideoID != video2 {
		t.Errorf("unexpected video ids: %v, %v", items[0].VideoID, items[1].VideoID)
	}
	if items[0].Attempt != 1 || items[1].Attempt != 3 {
		t.Errorf("expected attempts 1 and 3, got %d and %d", items[0].Attempt, items[1].Attempt)
	}
	if string(items[1].Payload) != string(payload2) {
		t.Errorf("got payload %s, want %s", items[1].Payload, payload2)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestDequeueBatch_EmptyQueue(t *testing.T) {
	store, mock := newMockStore(t)
	defer store.db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id, video_id, attempt, payload FROM video_queue`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "video_id", "attempt", "payload"}))
	mock.ExpectRollback()

	items, err := store.DequeueBatch(context.Background(), 5)
	if err != nil {
		t.Errorf("expected no error for empty queue, got %v", err)
	}
	if items != nil {
		t.Errorf("expected nil items, got %v", items)
	}
}

func TestDequeueBatch_LimitDefaultsToOne(t *testing.T) {
	store, mock := newMockStore(t)
	defer store.db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id, video_id, attempt, payload FROM video_queue`).
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "video_id", "attempt", "payload"}))
	mock.ExpectRollback()

	if _, err := store.DequeueBatch(context.Background(), 0); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestDequeueBatch_QueryError(t *testing.T) {
	store, mock := newMockStore(t)
	defer store.db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id, video_id, attempt, payload FROM video_queue`).
		WillReturnError(sql.ErrConnDone)
	mock.ExpectRollback()

	if _, err := store.DequeueBatch(context.Background(), 2); err == nil {
		t.Error("expected error, got nil")
	}
}

func TestComplete_Success(t *testing.T) {
	store, mock := newMockStore(t)
	defer store.db.Close()

	videoID := uuid.New()

	mock.ExpectExec(`DELETE FROM video_queue WHERE video_id = \$1`).
		WithArgs(videoID).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := store.Complete(context.Background(), nil, videoID); err != nil {
		t.Fatalf("Complete failed: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestFail_RemovesAndMarksFailed(t *testing.T) {
	store, mock := newMockStore(t)
	defer store.db.Close()

	videoID := uuid.New()
	errMsg := "invalid payload"

	mock.ExpectExec(`DELETE FROM video_queue WHERE video_id = \$1`).
		WithArgs(videoID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE videos SET status = \$1, error_message = \$2`).
		WithArgs("failed", errMsg, videoID, "completed").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := store.Fail(context.Background(), nil, videoID, errMsg); err != nil {
		t.Fatalf("Fail failed: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestFail_DeleteError(t *testing.T) {
	store, mock := newMockStore(t)
	defer store.db.Close()

	videoID := uuid.New()

	mock.ExpectExec(`DELETE FROM video_queue`).
		WithArgs(videoID).
		WillReturnError(sql.ErrConnDone)

	if err := store.Fail(context.Background(), nil, videoID, "boom"); err == nil {
		t.Error("expected error, got nil")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestSetVisibleAfter_Success(t *testing.T) {
	store, mock := newMockStore(t)
	defer store.db.Close()

	videoID := uuid.New()
	visibleAfter := time.Now().Add(10 * time.Minute)

	mock.ExpectExec(`UPDATE video_queue`).
		WithArgs(visibleAfter, videoID).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := store.SetVisibleAfter(context.Background(), nil, videoID, visibleAfter); err != nil {
		t.Fatalf("SetVisibleAfter failed: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestCount(t *testing.T) {
	store, mock := newMockStore(t)
	defer store.db.Close()

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM video_queue`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(7)))

	count, err := store.Count(context.Background())
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if count != 7 {
		t.Errorf("got %d, want 7", count)
	}
}
