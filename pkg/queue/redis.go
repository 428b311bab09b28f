package queue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisQueue очередь на основе Redis списка (LPUSH/BRPOP)
type RedisQueue struct {
	client       *redis.Client
	key          string
	pollInterval time.Duration
}

// NewRedisQueue создаёт очередь поверх Redis
func NewRedisQueue(opts *Options) (*RedisQueue, error) {
	if opts == nil {
		opts = DefaultOptions()
	}

	client := redis.NewClient(&redis.Options{
		Addr:     opts.RedisAddr,
		Password: opts.RedisPassword,
		DB:       opts.RedisDB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	pollInterval := opts.PollInterval
	if pollInterval <= 0 {
		pollInterval = 5 * time.Second
	}

	key := opts.Key
	if key == "" {
		key = DefaultOptions().Key
	}

	return &RedisQueue{
		client:       client,
		key:          key,
		pollInterval: pollInterval,
	}, nil
}

func (q *RedisQueue) Enqueue(ctx context.Context, job *Job) error {
	data, err := job.Encode()
	if err != nil {
		return fmt.Errorf("failed to encode job: %w", err)
	}
	return q.client.LPush(ctx, q.key, data).Err()
}

func (q *RedisQueue) Dequeue(ctx context.Context) (*Job, error) {
	// BRPOP блокируется до появления задания или истечения таймаута
	res, err := q.client.BRPop(ctx, q.pollInterval, q.key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNoJob
		}
		return nil, err
	}

	// res[0] - имя ключа, res[1] - значение
	if len(res) < 2 {
		return nil, ErrNoJob
	}

	return DecodeJob([]byte(res[1]))
}

func (q *RedisQueue) Len(ctx context.Context) (int64, error) {
	return q.client.LLen(ctx, q.key).Result()
}

func (q *RedisQueue) Close() error {
	return q.client.Close()
}
