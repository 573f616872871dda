package services

import (
	"context"
	"sync"
	"time"

	domain "github.com/inference-gateway/operator/internal/domain"
	logger "github.com/inference-gateway/operator/internal/logger"
)

// TimestampStore persists the last capture times
type TimestampStore interface {
	SaveTimestamps(ctx context.Context, ts domain.Timestamps) error
	LoadTimestamps(ctx context.Context) (domain.Timestamps, error)
}

// TimestampTracker records when a controller last pulled a screenshot or tree.
// It lives with the server, so it keeps answering while no session is attached.
type TimestampTracker struct {
	mu    sync.Mutex
	ts    domain.Timestamps
	store TimestampStore
	now   func() time.Time
}

// NewTimestampTracker restores persisted timestamps from store, which may be nil
func NewTimestampTracker(ctx context.Context, store TimestampStore) *TimestampTracker {
	t := &TimestampTracker{store: store, now: time.Now}
	if store == nil {
		return t
	}
	ts, err := store.LoadTimestamps(ctx)
	if err != nil {
		logger.Warn("Failed to restore capture timestamps", "error", err)
		return t
	}
	t.ts = ts
	return t
}

// MarkScreenshot records a screenshot time
func (t *TimestampTracker) MarkScreenshot(ctx context.Context) {
	t.mark(ctx, func(ts *domain.Timestamps, ms int64) { ts.Screenshot = ms })
}

// MarkXML records a tree capture time
func (t *TimestampTracker) MarkXML(ctx context.Context) {
	t.mark(ctx, func(ts *domain.Timestamps, ms int64) { ts.XML = ms })
}

func (t *TimestampTracker) mark(ctx context.Context, set func(*domain.Timestamps, int64)) {
	t.mu.Lock()
	set(&t.ts, t.now().UnixMilli())
	ts := t.ts
	t.mu.Unlock()

	if t.store == nil {
		return
	}
	if err := t.store.SaveTimestamps(ctx, ts); err != nil {
		logger.Warn("Failed to persist capture timestamps", "error", err)
	}
}

// Timestamps returns the last capture times
func (t *TimestampTracker) Timestamps() domain.Timestamps {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.ts
}
