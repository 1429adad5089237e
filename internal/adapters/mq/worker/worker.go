// Package worker runs clip jobs from the queue on a fixed pool of goroutines.
package worker

import (
	"context"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/okian/tagclips/internal/adapters/mq/queue"
	"github.com/okian/tagclips/internal/domain/model"
	"github.com/okian/tagclips/pkg/logger"
	"github.com/okian/tagclips/pkg/metrics"
)

// Default worker configuration constants.
const (
	defaultWorkerCount = 1
)

// Result is what a worker reports per job.
type Result = model.ClipResult

// Handler performs one job. It must return promptly once ctx is done.
type Handler interface {
	Handle(ctx context.Context, job queue.Job) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, job queue.Job) error

// Handle calls f.
func (f HandlerFunc) Handle(ctx context.Context, job queue.Job) error { //nolint:gocritic // hugeParam: Job is passed by value for channel semantics
	return f(ctx, job)
}

// Queue defines how workers receive jobs.
type Queue interface {
	Dequeue() <-chan queue.Job
	Len() int
}

// Pool runs a fixed number of workers. Every dequeued job yields exactly one
// Result, including after cancellation, so the consumer can account for all
// dispatched work.
type Pool struct {
	size    int
	queue   Queue
	handler Handler
	results chan Result
	group   *errgroup.Group
	logger  logger.Logger
}

// NewPool creates a pool of size workers. results is buffered to resultBuffer;
// a consumer that never has more than resultBuffer jobs outstanding never
// blocks a worker.
func NewPool(size int, q Queue, h Handler, resultBuffer int, opts ...Option) *Pool {
	if size < 1 {
		size = defaultWorkerCount
	}
	if resultBuffer < 0 {
		resultBuffer = 0
	}
	p := &Pool{
		size:    size,
		queue:   q,
		handler: h,
		results: make(chan Result, resultBuffer),
		logger:  logger.Named("worker-pool"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Size returns the number of workers.
func (p *Pool) Size() int { return p.size }

// Results returns the channel results are delivered on. It is closed after
// the queue is closed and every worker has exited.
func (p *Pool) Results() <-chan Result { return p.results }

// Start launches the workers.
func (p *Pool) Start(ctx context.Context) {
	p.group = &errgroup.Group{}
	for i := 0; i < p.size; i++ {
		name := "worker-" + strconv.Itoa(i)
		p.group.Go(func() error {
			p.run(ctx, name)
			return nil
		})
	}
	metrics.UpdateWorkerCount(p.size)

	go func() {
		_ = p.group.Wait()
		metrics.UpdateWorkerCount(0)
		close(p.results)
	}()
}

func (p *Pool) run(ctx context.Context, name string) {
	log := p.logger.Named(name)
	for job := range p.queue.Dequeue() {
		metrics.UpdateQueueDepth(p.queue.Len())
		began := time.Now()
		err := p.handler.Handle(ctx, job)
		if err != nil {
			log.Debug(ctx, "job failed", logger.Int("row", job.Seq), logger.String("dst", job.Dst), logger.Error(err))
		}
		p.results <- Result{Job: job, Err: err, Elapsed: time.Since(began)}
	}
}
