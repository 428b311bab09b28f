// services/report-svc/internal/service/worker.go
package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"assethub/pkg/logger"
	"assethub/pkg/metrics"
	"assethub/pkg/queue"
)

// WorkerPool пул горутин, разбирающих очередь экспорта
type WorkerPool struct {
	svc     *ReportService
	queue   queue.Queue
	workers int

	wg   sync.WaitGroup
	stop chan struct{}
	once sync.Once
}

// NewWorkerPool создаёт пул воркеров поверх очереди сервиса
func NewWorkerPool(svc *ReportService, q queue.Queue, workers int) *WorkerPool {
	if workers <= 0 {
		workers = 2
	}
	return &WorkerPool{
		svc:     svc,
		queue:   q,
		workers: workers,
		stop:    make(chan struct{}),
	}
}

// Start запускает воркеров. Каждый блокируется на Dequeue и выполняет
// задания до остановки пула.
func (p *WorkerPool) Start(ctx context.Context) {
	logger.Info("starting export workers", "count", p.workers)

	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.run(ctx, i)
	}

	p.wg.Add(1)
	go p.observeDepth(ctx)
}

// Stop останавливает пул и дожидается завершения текущих заданий
func (p *WorkerPool) Stop() {
	p.once.Do(func() { close(p.stop) })
	p.wg.Wait()
	logger.Info("export workers stopped")
}

func (p *WorkerPool) run(ctx context.Context, worker int) {
	defer p.wg.Done()
	log := logger.WithComponent("export-worker")

	for {
		select {
		case <-ctx.Done():
			return
		case <-p.stop:
			return
		default:
		}

		job, err := p.queue.Dequeue(ctx)
		if err != nil {
			if errors.Is(err, queue.ErrNoJob) || errors.Is(err, context.Canceled) {
				continue
			}
			log.Error("failed to dequeue export job", "worker", worker, "error", err)
			time.Sleep(time.Second)
			continue
		}

		log.Info("export job received",
			"worker", worker,
			"report_id", job.ReportID,
			"attempt", job.Attempt,
			"queued_for_ms", time.Since(job.EnqueuedAt).Milliseconds())

		if err := p.svc.runExport(ctx, job.ReportID); err != nil {
			log.Error("export job failed", "worker", worker, "report_id", job.ReportID, "error", err)
		}
	}
}

// observeDepth периодически публикует глубину очереди в метрики
func (p *WorkerPool) observeDepth(ctx context.Context) {
	defer p.wg.Done()

	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-p.stop:
			return
		case <-ticker.C:
			if depth, err := p.queue.Len(ctx); err == nil {
				metrics.Get().SetQueueDepth(depth)
			}
		}
	}
}
