// Package audit provides components for capturing, storing, and querying audit logs.
// This file implements a Redis-backed logger that ships entries to a shared list.
package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"assethub/pkg/logger"
)

// RedisLogger implements the Logger interface by pushing audit entries to a
// Redis list. Entries are buffered and shipped in batches for efficiency, so
// an external collector can consume them with BRPOP or LRANGE.
type RedisLogger struct {
	client *redis.Client
	config *Config
	buffer chan *Entry
	done   chan struct{}
	wg     sync.WaitGroup
}

// NewRedisLogger creates a RedisLogger and starts its background batching loop.
func NewRedisLogger(cfg *Config) (*RedisLogger, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.RedisKey == "" {
		cfg.RedisKey = "assethub:audit"
	}

	client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("audit redis ping failed: %w", err)
	}

	bufferSize := cfg.BufferSize
	if bufferSize <= 0 {
		bufferSize = 1000
	}

	l := &RedisLogger{
		client: client,
		config: cfg,
		buffer: make(chan *Entry, bufferSize),
		done:   make(chan struct{}),
	}

	l.wg.Add(1)
	go l.processLoop()

	return l, nil
}

// Log sends an audit entry to the internal buffer. If the buffer is full,
// the entry is pushed synchronously.
func (l *RedisLogger) Log(ctx context.Context, entry *Entry) error {
	if !l.config.Enabled {
		return nil
	}

	select {
	case l.buffer <- entry:
		return nil
	default:
		return l.push(ctx, entry)
	}
}

// Query reads the most recent entries from the Redis list. Filtering is done
// client-side since the list stores opaque JSON.
func (l *RedisLogger) Query(ctx context.Context, filter *QueryFilter) ([]*Entry, error) {
	limit := int64(100)
	if filter != nil && filter.Limit > 0 {
		limit = int64(filter.Limit)
	}

	raw, err := l.client.LRange(ctx, l.config.RedisKey, 0, limit-1).Result()
	if err != nil {
		return nil, fmt.Errorf("audit redis query failed: %w", err)
	}

	entries := make([]*Entry, 0, len(raw))
	for _, item := range raw {
		var e Entry
		if err := json.Unmarshal([]byte(item), &e); err != nil {
			continue // skip malformed entries
		}
		if filter != nil && !matches(&e, filter) {
			continue
		}
		entries = append(entries, &e)
	}

	return entries, nil
}

// Close stops the batching loop, flushes remaining entries and closes the client.
func (l *RedisLogger) Close() error {
	close(l.done)
	l.wg.Wait()
	return l.client.Close()
}

// processLoop aggregates buffered entries and flushes them periodically.
func (l *RedisLogger) processLoop() {
	defer l.wg.Done()

	flushPeriod := l.config.FlushPeriod
	if flushPeriod <= 0 {
		flushPeriod = 5 * time.Second
	}

	ticker := time.NewTicker(flushPeriod)
	defer ticker.Stop()

	batch := make([]*Entry, 0, 100)

	for {
		select {
		case <-l.done:
			// Drain the buffer before exiting
			for {
				select {
				case entry := <-l.buffer:
					batch = append(batch, entry)
				default:
					l.pushBatch(context.Background(), batch)
					return
				}
			}

		case entry := <-l.buffer:
			batch = append(batch, entry)
			if len(batch) >= 100 {
				l.pushBatch(context.Background(), batch)
				batch = batch[:0]
			}

		case <-ticker.C:
			if len(batch) > 0 {
				l.pushBatch(context.Background(), batch)
				batch = batch[:0]
			}
		}
	}
}

// push marshals a single entry and prepends it to the Redis list.
func (l *RedisLogger) push(ctx context.Context, entry *Entry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := l.client.LPush(ctx, l.config.RedisKey, data).Err(); err != nil {
		logger.Log.Warn("Failed to push audit entry", "error", err)
		return err
	}
	return nil
}

// pushBatch ships a batch of entries with a single LPUSH.
func (l *RedisLogger) pushBatch(ctx context.Context, entries []*Entry) {
	if len(entries) == 0 {
		return
	}

	values := make([]interface{}, 0, len(entries))
	for _, e := range entries {
		data, err := json.Marshal(e)
		if err != nil {
			continue
		}
		values = append(values, data)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := l.client.LPush(ctx, l.config.RedisKey, values...).Err(); err != nil {
		logger.Log.Warn("Failed to push audit batch", "error", err, "count", len(entries))
	}
}

// matches reports whether an entry satisfies the query filter.
func matches(e *Entry, f *QueryFilter) bool {
	if f.Service != "" && e.Service != f.Service {
		return false
	}
	if f.Method != "" && e.Method != f.Method {
		return false
	}
	if f.Action != "" && e.Action != f.Action {
		return false
	}
	if f.Outcome != "" && e.Outcome != f.Outcome {
		return false
	}
	if f.UserID != "" && e.UserID != f.UserID {
		return false
	}
	if f.Resource != "" && e.Resource != f.Resource {
		return false
	}
	if f.ResourceID != "" && e.ResourceID != f.ResourceID {
		return false
	}
	if f.StartTime != nil && e.Timestamp.Before(*f.StartTime) {
		return false
	}
	if f.EndTime != nil && !e.Timestamp.Before(*f.EndTime) {
		return false
	}
	return true
}
