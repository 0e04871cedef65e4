package server

import (
	"context"
	"sync"
	"time"

	"github.com/ttbonn/reviewagent/internal/adapter/httpx"
)

// Job is one unit of background work triggered by a webhook.
type Job struct {
	// Name identifies the job in logs.
	Name string

	// Run does the work. Errors are logged, not retried.
	Run func(ctx context.Context) error
}

// Dispatcher runs webhook jobs on a fixed pool of workers behind a
// buffered queue, so webhook handlers can acknowledge immediately.
type Dispatcher struct {
	queue  chan Job
	logger httpx.Logger
	wg     sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

// NewDispatcher creates a dispatcher with the given queue depth and
// worker count and starts the workers.
func NewDispatcher(queueSize, workers int, logger httpx.Logger) *Dispatcher {
	if queueSize <= 0 {
		queueSize = 64
	}
	if workers <= 0 {
		workers = 2
	}
	if logger == nil {
		logger = &httpx.SilentLogger{}
	}

	d := &Dispatcher{
		queue:  make(chan Job, queueSize),
		logger: logger,
	}
	for i := 0; i < workers; i++ {
		d.wg.Add(1)
		go d.worker()
	}
	return d
}

// Enqueue submits a job. It returns false when the queue is full or the
// dispatcher is shutting down; the caller decides how to report that.
func (d *Dispatcher) Enqueue(job Job) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return false
	}
	select {
	case d.queue <- job:
		return true
	default:
		return false
	}
}

// Shutdown stops accepting jobs and waits for queued work to finish, up
// to the context deadline.
func (d *Dispatcher) Shutdown(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()
	for job := range d.queue {
		start := time.Now()
		ctx := context.Background()
		if err := job.Run(ctx); err != nil {
			d.logger.LogWarning(ctx, "job failed", map[string]interface{}{
				"job":   job.Name,
				"error": err.Error(),
			})
			continue
		}
		d.logger.LogInfo(ctx, "job complete", map[string]interface{}{
			"job":      job.Name,
			"duration": time.Since(start).String(),
		})
	}
}
