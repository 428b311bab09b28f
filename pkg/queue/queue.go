// Package queue provides an export job queue with Redis-backed and
// in-memory implementations. Delivery is at-least-once: a job taken
// from the queue that fails mid-flight may be re-enqueued by the caller.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"assethub/pkg/config"
)

// Backend types for queue implementations.
const (
	// BackendMemory specifies an in-process channel-backed queue.
	BackendMemory = "memory"
	// BackendRedis specifies a Redis list-backed queue.
	BackendRedis = "redis"
)

// Standard errors returned by queue operations.
var (
	// ErrQueueClosed is returned when an operation is attempted on a closed queue.
	ErrQueueClosed = errors.New("queue is closed")
	// ErrNoJob is returned by Dequeue when no job arrived within the poll interval.
	ErrNoJob = errors.New("no job available")
)

// Job - задание на генерацию отчёта, передаваемое воркерам
type Job struct {
	ReportID   string    `json:"report_id"`
	OwnerID    string    `json:"owner_id"`
	Format     string    `json:"format"`
	EnqueuedAt time.Time `json:"enqueued_at"`
	Attempt    int       `json:"attempt"`
}

// Encode сериализует задание для передачи через брокер
func (j *Job) Encode() ([]byte, error) {
	return json.Marshal(j)
}

// DecodeJob разбирает задание из сырых байт
func DecodeJob(data []byte) (*Job, error) {
	var job Job
	if err := json.Unmarshal(data, &job); err != nil {
		return nil, err
	}
	return &job, nil
}

// Queue is the transport for export jobs between the API and the workers.
type Queue interface {
	// Enqueue puts a job at the tail of the queue.
	Enqueue(ctx context.Context, job *Job) error
	// Dequeue blocks up to the configured poll interval waiting for a job.
	// Returns ErrNoJob when the interval elapses without one.
	Dequeue(ctx context.Context) (*Job, error)
	// Len returns the number of jobs currently waiting.
	Len(ctx context.Context) (int64, error)
	// Close shuts down the queue and releases any underlying resources.
	Close() error
}

// Options contains configuration parameters for creating a Queue instance.
type Options struct {
	Backend      string        // BackendMemory or BackendRedis.
	Key          string        // Redis list key holding the jobs.
	PollInterval time.Duration // Blocking wait for Dequeue.
	BufferSize   int           // Capacity of the in-memory queue.

	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// DefaultOptions returns a new Options struct with sensible default values.
func DefaultOptions() *Options {
	return &Options{
		Backend:      BackendMemory,
		Key:          "assethub:export:jobs",
		PollInterval: 5 * time.Second,
		BufferSize:   256,
		RedisAddr:    "localhost:6379",
	}
}

// FromConfig создаёт опции из конфигурации
func FromConfig(cfg *config.QueueConfig) *Options {
	return &Options{
		Backend:       cfg.Driver,
		Key:           cfg.Key,
		PollInterval:  cfg.PollInterval,
		BufferSize:    cfg.BufferSize,
		RedisAddr:     cfg.Address(),
		RedisPassword: cfg.Password,
		RedisDB:       cfg.DB,
	}
}

// New создаёт очередь на основе опций
func New(opts *Options) (Queue, error) {
	if opts == nil {
		opts = DefaultOptions()
	}

	switch opts.Backend {
	case BackendRedis:
		return NewRedisQueue(opts)
	case BackendMemory, "":
		return NewMemoryQueue(opts), nil
	default:
		return NewMemoryQueue(opts), nil
	}
}
