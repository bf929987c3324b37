// Package runs keeps the report of the most recent review ingestion.
package runs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/theflex/reviews/pkg/common/models"
)

var ErrNoRuns = errors.New("no ingestion run recorded")

const (
	StatusSucceeded = "succeeded"
	StatusFallback  = "fallback"
	StatusFailed    = "failed"
)

// Run describes one ingestion attempt.
type Run struct {
	ID              string            `json:"runId"`
	RequestedSource models.SourceKind `json:"requestedSource"`
	Source          models.SourceKind `json:"source"`
	Status          string            `json:"status"`
	Error           string            `json:"error,omitempty"`
	Ingested        int               `json:"ingested"`
	StartedAt       time.Time         `json:"startedAt"`
	FinishedAt      time.Time         `json:"finishedAt"`
}

type Tracker interface {
	Record(ctx context.Context, run Run) error
	Latest(ctx context.Context) (*Run, error)
}

// MemoryTracker keeps the last run in process memory.
type MemoryTracker struct {
	mu   sync.RWMutex
	last *Run
}

func NewMemoryTracker() *MemoryTracker {
	return &MemoryTracker{}
}

func (m *MemoryTracker) Record(_ context.Context, run Run) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.last = &run
	return nil
}

func (m *MemoryTracker) Latest(_ context.Context) (*Run, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.last == nil {
		return nil, ErrNoRuns
	}
	run := *m.last
	return &run, nil
}

// RedisTracker stores the last run under a single key with a TTL. Each Record
// replaces the previous report.
type RedisTracker struct {
	client redis.Cmdable
	key    string
	ttl    time.Duration
}

func NewRedisTracker(client redis.Cmdable, ttl time.Duration) *RedisTracker {
	return &RedisTracker{client: client, key: "reviews:ingestion:latest", ttl: ttl}
}

func (r *RedisTracker) Record(ctx context.Context, run Run) error {
	data, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("marshal run: %w", err)
	}
	if err := r.client.Set(ctx, r.key, data, r.ttl).Err(); err != nil {
		return fmt.Errorf("storing run report: %w", err)
	}
	return nil
}

func (r *RedisTracker) Latest(ctx context.Context) (*Run, error) {
	data, err := r.client.Get(ctx, r.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNoRuns
	}
	if err != nil {
		return nil, fmt.Errorf("loading run report: %w", err)
	}
	var run Run
	if err := json.Unmarshal(data, &run); err != nil {
		return nil, fmt.Errorf("decoding run report: %w", err)
	}
	return &run, nil
}
