package lane

import (
	"errors"
	"log/slog"
	"runtime"
	"runtime/debug"
	"sync"
)

// ErrClosed is returned when submitting to a closed Pool or Serial lane.
var ErrClosed = errors.New("lane closed")

// Pool runs submitted tasks on a fixed number of worker goroutines. Tasks are
// never cancelled: Close waits for every accepted task to finish.
type Pool struct {
	name   string
	queue  *queue
	wg     sync.WaitGroup
	once   sync.Once
	logger *slog.Logger
}

// NewPool starts a pool with the given number of workers (runtime.NumCPU()
// when workers <= 0).
func NewPool(name string, workers int, logger *slog.Logger) *Pool {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	p := &Pool{
		name:   name,
		queue:  newQueue(),
		logger: logger,
	}

	logger.Debug("starting lane workers", slog.String("lane", name), slog.Int("workers", workers))

	for i := range workers {
		p.wg.Add(1)
		go p.worker(i)
	}
	return p
}

// Submit queues task. It never blocks.
func (p *Pool) Submit(task func()) error {
	if !p.queue.push(task) {
		return ErrClosed
	}
	return nil
}

// Pending returns the number of queued tasks that no worker has picked up.
func (p *Pool) Pending() int {
	return p.queue.len()
}

// Close stops accepting tasks and waits for queued and running tasks to finish.
// It is safe to call more than once.
func (p *Pool) Close() {
	p.once.Do(func() {
		p.queue.close()
		p.wg.Wait()
		p.logger.Debug("lane stopped", slog.String("lane", p.name))
	})
}

func (p *Pool) worker(id int) {
	defer p.wg.Done()

	for {
		task, ok := p.queue.pop()
		if !ok {
			return
		}
		p.run(id, task)
	}
}

// run executes task, keeping the worker alive if it panics.
func (p *Pool) run(id int, task func()) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("lane task panicked",
				slog.String("lane", p.name),
				slog.Int("worker_id", id),
				slog.Any("panic", r),
				slog.String("stack", string(debug.Stack())),
			)
		}
	}()
	task()
}
