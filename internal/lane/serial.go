package lane

import "log/slog"

// Deliverer runs result callbacks in some execution context. Callers that own
// an event loop (a UI thread, for instance) can supply their own.
type Deliverer interface {
	Deliver(fn func()) error
}

// DelivererFunc adapts a function to Deliverer.
type DelivererFunc func(fn func()) error

// Deliver implements Deliverer.
func (f DelivererFunc) Deliver(fn func()) error {
	return f(fn)
}

// Serial is a single goroutine that runs delivered functions one at a time in
// the order they were delivered.
type Serial struct {
	pool *Pool
}

// NewSerial starts a serial lane.
func NewSerial(name string, logger *slog.Logger) *Serial {
	return &Serial{pool: NewPool(name, 1, logger)}
}

// Deliver queues fn. It never blocks.
func (s *Serial) Deliver(fn func()) error {
	return s.pool.Submit(fn)
}

// Close waits for every delivered function to run.
func (s *Serial) Close() {
	s.pool.Close()
}
