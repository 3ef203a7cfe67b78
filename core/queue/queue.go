package queue

import (
	"context"
	"fmt"
	"sync"
	"time"

	"tenant-sync/core/docstore"
	"tenant-sync/core/logger"

	"go.uber.org/zap"
)

// Defaults used when a zero capacity or bucket is configured.
const (
	DefaultCapacity = 50
	DefaultBucket   = time.Minute
)

// Entry is one deferred sync attempt.
type Entry struct {
	EnqueuedAt time.Time `json:"enqueuedAt"`
	// Operation is the orchestrator operation that was deferred, e.g. "full_sync".
	Operation string `json:"operation"`
	// Mode qualifies the operation, e.g. the upload mode.
	Mode string `json:"mode,omitempty"`
}

func (e Entry) bucketKey(bucket time.Duration) string {
	return fmt.Sprintf("%d|%s|%s", e.EnqueuedAt.Truncate(bucket).Unix(), e.Operation, e.Mode)
}

// Queue is the durable pending sync queue, persisted in the local store.
type Queue struct {
	store    docstore.Store
	capacity int
	bucket   time.Duration
	log      *zap.Logger
	now      func() time.Time
	mu       sync.Mutex
}

// New creates a queue kept in store under local/pending_sync.
func New(store docstore.Store, capacity int, bucket time.Duration, log *zap.Logger) *Queue {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if bucket <= 0 {
		bucket = DefaultBucket
	}
	return &Queue{store: store, capacity: capacity, bucket: bucket, log: logger.OrNop(log), now: time.Now}
}

// Key is the local document holding the queue.
var Key = docstore.Local(docstore.PendingSync)

// Enqueue records a deferred operation. An entry for the same operation
// within the same time bucket is dropped. Only the newest capacity entries are kept.
// It reports whether the entry was added.
func (q *Queue) Enqueue(ctx context.Context, operation, mode string) (bool, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	entries, err := q.load(ctx)
	if err != nil {
		return false, err
	}

	entry := Entry{EnqueuedAt: q.now().UTC(), Operation: operation, Mode: mode}
	key := entry.bucketKey(q.bucket)
	for _, e := range entries {
		if e.bucketKey(q.bucket) == key {
			return false, nil
		}
	}

	entries = append(entries, entry)
	if len(entries) > q.capacity {
		entries = entries[len(entries)-q.capacity:]
	}
	if err := q.save(ctx, entries); err != nil {
		return false, err
	}
	q.log.Info("Queued sync for later", zap.String("operation", operation), zap.String("mode", mode), zap.Int("pending", len(entries)))
	return true, nil
}

// Entries returns the queued entries, oldest first.
func (q *Queue) Entries(ctx context.Context) ([]Entry, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.load(ctx)
}

// Len returns the number of queued entries.
func (q *Queue) Len(ctx context.Context) (int, error) {
	entries, err := q.Entries(ctx)
	return len(entries), err
}

// Clear drops every entry.
func (q *Queue) Clear(ctx context.Context) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if err := q.store.Delete(ctx, Key); err != nil {
		return fmt.Errorf("failed to clear pending queue: %w", err)
	}
	return nil
}

// Flush runs replay when the queue is non-empty and clears the queue if it
// succeeds. It reports whether replay ran.
func (q *Queue) Flush(ctx context.Context, replay func(ctx context.Context, entries []Entry) error) (bool, error) {
	entries, err := q.Entries(ctx)
	if err != nil {
		return false, err
	}
	if len(entries) == 0 {
		return false, nil
	}
	q.log.Info("Replaying pending syncs", zap.Int("pending", len(entries)))
	if err := replay(ctx, entries); err != nil {
		return true, err
	}
	return true, q.Clear(ctx)
}

func (q *Queue) load(ctx context.Context) ([]Entry, error) {
	doc, err := q.store.Get(ctx, Key)
	if err != nil {
		return nil, fmt.Errorf("failed to load pending queue: %w", err)
	}
	var entries []Entry
	if err := doc.Decode(&entries); err != nil {
		return nil, fmt.Errorf("failed to load pending queue: %w", err)
	}
	return entries, nil
}

func (q *Queue) save(ctx context.Context, entries []Entry) error {
	doc, err := docstore.NewDocument(entries, nil)
	if err != nil {
		return err
	}
	if err := q.store.Set(ctx, Key, doc); err != nil {
		return fmt.Errorf("failed to save pending queue: %w", err)
	}
	return nil
}
