package ratelimit

import (
	"context"
	"sync"
	"time"
)

// MemoryLimiter ограничитель запросов в памяти процесса.
// Подходит для одного экземпляра сервиса, для горизонтального
// масштабирования используется RedisLimiter.
type MemoryLimiter struct {
	mu     sync.Mutex
	state  map[string]*clientState
	config *Config
	stopCh chan struct{}
	closed bool
}

// clientState состояние отдельного ключа: токены для token_bucket,
// отметки времени запросов для sliding_window
type clientState struct {
	tokens   float64
	lastSeen time.Time
	history  []time.Time
}

// NewMemoryLimiter создаёт in-memory ограничитель
func NewMemoryLimiter(cfg *Config) *MemoryLimiter {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	l := &MemoryLimiter{
		state:  make(map[string]*clientState),
		config: cfg,
		stopCh: make(chan struct{}),
	}

	go l.cleanupLoop()

	return l
}

func (l *MemoryLimiter) Allow(ctx context.Context, key string) (bool, error) {
	return l.AllowN(ctx, key, 1)
}

func (l *MemoryLimiter) AllowN(ctx context.Context, key string, n int) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return false, ErrLimiterClosed
	}

	st, ok := l.state[key]
	if !ok {
		st = &clientState{
			tokens:   float64(l.config.Requests + l.config.BurstSize),
			lastSeen: time.Now(),
		}
		l.state[key] = st
	}

	if l.config.Strategy == "token_bucket" {
		return l.takeTokens(st, n), nil
	}
	return l.countWindow(st, n), nil
}

func (l *MemoryLimiter) takeTokens(st *clientState, n int) bool {
	now := time.Now()
	elapsed := now.Sub(st.lastSeen)
	st.lastSeen = now

	refillRate := float64(l.config.Requests) / l.config.Window.Seconds()
	st.tokens += elapsed.Seconds() * refillRate

	capacity := float64(l.config.Requests + l.config.BurstSize)
	if st.tokens > capacity {
		st.tokens = capacity
	}

	if st.tokens < float64(n) {
		return false
	}
	st.tokens -= float64(n)
	return true
}

func (l *MemoryLimiter) countWindow(st *clientState, n int) bool {
	now := time.Now()
	cutoff := now.Add(-l.config.Window)
	st.lastSeen = now

	kept := st.history[:0]
	for _, t := range st.history {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	st.history = kept

	if len(st.history)+n > l.config.Requests {
		return false
	}
	for i := 0; i < n; i++ {
		st.history = append(st.history, now)
	}
	return true
}

// Wait блокируется пока запрос не будет разрешён или контекст не истечёт
func (l *MemoryLimiter) Wait(ctx context.Context, key string) error {
	for {
		allowed, err := l.Allow(ctx, key)
		if err != nil {
			return err
		}
		if allowed {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(100 * time.Millisecond):
		}
	}
}

func (l *MemoryLimiter) Reset(_ context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	delete(l.state, key)
	return nil
}

func (l *MemoryLimiter) GetInfo(_ context.Context, key string) (*LimitInfo, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	info := &LimitInfo{
		Limit:     l.config.Requests,
		Remaining: l.config.Requests,
		ResetAt:   time.Now().Add(l.config.Window),
	}

	st, ok := l.state[key]
	if !ok {
		return info, nil
	}

	if l.config.Strategy == "token_bucket" {
		info.Remaining = int(st.tokens)
	} else {
		cutoff := time.Now().Add(-l.config.Window)
		used := 0
		for _, t := range st.history {
			if t.After(cutoff) {
				used++
			}
		}
		info.Remaining = l.config.Requests - used
	}

	if info.Remaining < 0 {
		info.Remaining = 0
	}
	return info, nil
}

func (l *MemoryLimiter) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return nil
	}

	l.closed = true
	close(l.stopCh)
	l.state = nil

	return nil
}

func (l *MemoryLimiter) cleanupLoop() {
	ticker := time.NewTicker(l.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-l.stopCh:
			return
		case <-ticker.C:
			l.evictStale()
		}
	}
}

// evictStale удаляет ключи, неактивные дольше двух окон
func (l *MemoryLimiter) evictStale() {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := time.Now().Add(-l.config.Window * 2)

	for key, st := range l.state {
		if st.lastSeen.Before(cutoff) {
			delete(l.state, key)
			continue
		}

		kept := st.history[:0]
		for _, t := range st.history {
			if t.After(cutoff) {
				kept = append(kept, t)
			}
		}
		st.history = kept
	}
}
