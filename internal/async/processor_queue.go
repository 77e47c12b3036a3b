package async

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/joseph-ayodele/bol-extractor/internal/common"
	"github.com/joseph-ayodele/bol-extractor/internal/pipeline"
)

// PDFProcessor is satisfied by *pipeline.Processor.
type PDFProcessor interface {
	ProcessPDF(ctx context.Context, filename string, content []byte) (pipeline.Outcome, error)
}

// Completion reports the end of one job, successful or not.
type Completion struct {
	Job     Job
	Outcome pipeline.Outcome
	Err     error
}

type ProcessorQueue struct {
	proc    PDFProcessor
	logger  *slog.Logger
	workers int
	timeout time.Duration
	onDone  func(Completion)

	ch   chan Job
	wg   sync.WaitGroup
	once sync.Once

	mu     sync.Mutex
	closed bool
}

var _ Queue = (*ProcessorQueue)(nil)

type Option func(*ProcessorQueue)

func WithWorkers(n int) Option {
	return func(q *ProcessorQueue) {
		if n > 0 {
			q.workers = n
		}
	}
}
func WithQueueSize(n int) Option {
	return func(q *ProcessorQueue) {
		if n > 0 {
			q.ch = make(chan Job, n)
		}
	}
}
func WithProcessTimeout(d time.Duration) Option {
	return func(q *ProcessorQueue) {
		if d > 0 {
			q.timeout = d
		}
	}
}

// WithOnDone registers a callback run by the worker after each job.
// It may be called concurrently from several workers.
func WithOnDone(fn func(Completion)) Option {
	return func(q *ProcessorQueue) {
		q.onDone = fn
	}
}

func NewProcessorQueue(proc PDFProcessor, logger *slog.Logger, opts ...Option) *ProcessorQueue {
	if logger == nil {
		logger = slog.Default()
	}
	q := &ProcessorQueue{
		proc:    proc,
		logger:  logger,
		workers: 4,
		timeout: 3 * time.Minute,
		ch:      make(chan Job, 256),
	}
	for _, o := range opts {
		o(q)
	}
	q.start()
	return q
}

func (q *ProcessorQueue) start() {
	q.once.Do(func() {
		for i := 0; i < q.workers; i++ {
			q.wg.Add(1)
			go func(workerID int) {
				defer q.wg.Done()
				q.logger.Debug("worker started", "worker_id", workerID)

				for job := range q.ch {
					c := q.process(job)
					if c.Err != nil {
						q.logger.Error("processing failed", "worker_id", workerID, "path", job.Path, "error", c.Err)
					} else {
						q.logger.Info("processed file successfully", "worker_id", workerID, "path", job.Path, "job_id", c.Outcome.JobID)
					}
					if q.onDone != nil {
						q.onDone(c)
					}
				}

				q.logger.Debug("worker stopped", "worker_id", workerID)
			}(i + 1)
		}
	})
}

func (q *ProcessorQueue) process(job Job) (c Completion) {
	c.Job = job
	ctx, cancel := context.WithTimeout(common.WithRequestID(context.Background(), job.TraceID), q.timeout)
	defer cancel()
	defer func() {
		if r := recover(); r != nil {
			c.Err = fmt.Errorf("panic processing %s: %v", job.Path, r)
		}
	}()

	content, err := os.ReadFile(job.Path)
	if err != nil {
		c.Err = fmt.Errorf("read %s: %w", job.Path, err)
		return c
	}
	c.Outcome, c.Err = q.proc.ProcessPDF(ctx, filepath.Base(job.Path), content)
	return c
}

func (q *ProcessorQueue) Enqueue(ctx context.Context, job Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		q.logger.Warn("cannot enqueue: queue is shutting down", "path", job.Path)
		return ErrQueueClosed
	}
	select {
	case q.ch <- job:
		q.logger.Debug("queued file for processing", "path", job.Path, "job_id", job.ID)
		return nil
	default:
	}
	q.logger.Warn("queue full, applying backpressure", "path", job.Path)
	select {
	case q.ch <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *ProcessorQueue) Shutdown(ctx context.Context) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	close(q.ch)
	q.mu.Unlock()

	done := make(chan struct{})
	go func() { defer close(done); q.wg.Wait() }()

	select {
	case <-ctx.Done():
		q.logger.Warn("shutdown interrupted by context")
	case <-done:
		q.logger.Info("queue drained, shutdown complete")
	}
}
