package queue

import (
	"context"
	"sync/atomic"
	"time"
)

// MemoryQueue in-process очередь на канале. Для одного процесса
// семантика совпадает с Redis вариантом: FIFO, блокирующий Dequeue.
type MemoryQueue struct {
	jobs         chan *Job
	pollInterval time.Duration
	closed       atomic.Bool
}

// NewMemoryQueue создаёт новую in-memory очередь
func NewMemoryQueue(opts *Options) *MemoryQueue {
	if opts == nil {
		opts = DefaultOptions()
	}

	bufferSize := opts.BufferSize
	if bufferSize <= 0 {
		bufferSize = 256
	}

	pollInterval := opts.PollInterval
	if pollInterval <= 0 {
		pollInterval = 5 * time.Second
	}

	return &MemoryQueue{
		jobs:         make(chan *Job, bufferSize),
		pollInterval: pollInterval,
	}
}

func (q *MemoryQueue) Enqueue(ctx context.Context, job *Job) error {
	if q.closed.Load() {
		return ErrQueueClosed
	}

	select {
	case q.jobs <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *MemoryQueue) Dequeue(ctx context.Context) (*Job, error) {
	if q.closed.Load() {
		return nil, ErrQueueClosed
	}

	timer := time.NewTimer(q.pollInterval)
	defer timer.Stop()

	select {
	case job, ok := <-q.jobs:
		if !ok {
			return nil, ErrQueueClosed
		}
		return job, nil
	case <-timer.C:
		return nil, ErrNoJob
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (q *MemoryQueue) Len(ctx context.Context) (int64, error) {
	if q.closed.Load() {
		return 0, ErrQueueClosed
	}
	return int64(len(q.jobs)), nil
}

func (q *MemoryQueue) Close() error {
	if q.closed.Swap(true) {
		return nil // Уже закрыта
	}
	close(q.jobs)
	return nil
}
