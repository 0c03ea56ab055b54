package workpool

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// Config configures the pool.
type Config struct {
	// Size is the maximum number of tasks running at the same time.
	// Default: runtime.GOMAXPROCS(0)
	Size int
}

// Task is a unit of work executed on the pool.
type Task[T any] func(ctx context.Context) (T, error)

// Pool bounds the number of concurrently running tasks across all callers.
//
// Contract:
// - Concurrency: safe for concurrent use; Gather may be called from many goroutines.
// - Lifecycle: create once with New, Close once; Gather after Close returns ErrPoolClosed.
// - Errors: task panics are recovered and reported as ErrTaskPanicked.
type Pool struct {
	config Config
	sem    *semaphore.Weighted

	closeOnce sync.Once
	inflight  sync.WaitGroup

	mu        sync.Mutex
	closed    bool
	active    int
	maxActive int
	completed int64
	failed    int64
}

// New creates a new pool.
func New(config Config) *Pool {
	if config.Size <= 0 {
		config.Size = runtime.GOMAXPROCS(0)
	}

	return &Pool{
		config: config,
		sem:    semaphore.NewWeighted(int64(config.Size)),
	}
}

// Size returns the number of worker slots.
func (p *Pool) Size() int {
	return p.config.Size
}

// Close stops accepting new batches and waits for running batches to finish.
// It is safe to call more than once.
func (p *Pool) Close() {
	p.closeOnce.Do(func() {
		p.mu.Lock()
		p.closed = true
		p.mu.Unlock()

		p.inflight.Wait()
	})
}

// Gather runs every task on the pool and returns their results in the order
// the tasks were given, not the order they completed.
//
// The batch is detached from cancellation of ctx: once dispatched it runs to
// completion or fails. The first task error stops tasks that have not yet
// acquired a slot and is returned without any results.
func Gather[T any](ctx context.Context, p *Pool, tasks []Task[T]) ([]T, error) {
	if err := p.enter(); err != nil {
		return nil, err
	}
	defer p.inflight.Done()

	results := make([]T, len(tasks))
	g, gctx := errgroup.WithContext(context.WithoutCancel(ctx))

	for i, task := range tasks {
		g.Go(func() error {
			if err := p.acquire(gctx); err != nil {
				return err
			}
			v, err := runTask(gctx, task)
			p.release(err)
			if err != nil {
				return err
			}
			results[i] = v
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func runTask[T any](ctx context.Context, task Task[T]) (v T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrTaskPanicked, r)
		}
	}()
	return task(ctx)
}

func (p *Pool) enter() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrPoolClosed
	}
	p.inflight.Add(1)
	return nil
}

func (p *Pool) acquire(ctx context.Context) error {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return err
	}

	p.mu.Lock()
	p.active++
	if p.active > p.maxActive {
		p.maxActive = p.active
	}
	p.mu.Unlock()
	return nil
}

func (p *Pool) release(err error) {
	p.mu.Lock()
	p.active--
	if err != nil {
		p.failed++
	} else {
		p.completed++
	}
	p.mu.Unlock()

	p.sem.Release(1)
}

// Metrics returns current pool statistics.
func (p *Pool) Metrics() Metrics {
	p.mu.Lock()
	defer p.mu.Unlock()

	return Metrics{
		Size:      p.config.Size,
		Active:    p.active,
		MaxActive: p.maxActive,
		Available: p.config.Size - p.active,
		Completed: p.completed,
		Failed:    p.failed,
		Closed:    p.closed,
	}
}

// Metrics contains pool statistics.
type Metrics struct {
	Size      int
	Active    int
	MaxActive int
	Available int
	Completed int64
	Failed    int64
	Closed    bool
}
