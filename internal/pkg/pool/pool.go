package pool

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
)

const DefaultConcurrency = 5

var (
	ErrClosed = errors.New("pool is closed")
	ErrPanic  = errors.New("task panicked")
)

type task struct {
	ctx  context.Context
	fn   func(context.Context) error
	done chan error
}

type Stats struct {
	Queued    int
	Running   int64
	Processed uint64
}

// Pool runs submitted tasks with bounded concurrency. Tasks wait in FIFO
// order; a broker goroutine takes up to concurrency of them, runs them
// together, waits for the whole batch and then takes the next one.
type Pool struct {
	concurrency int

	mu      sync.Mutex
	backlog []*task
	closed  bool

	notify  chan struct{}
	stopped chan struct{}

	running   atomic.Int64
	processed atomic.Uint64
}

func New(concurrency int) *Pool {
	if concurrency < 1 {
		concurrency = DefaultConcurrency
	}
	p := &Pool{
		concurrency: concurrency,
		notify:      make(chan struct{}, 1),
		stopped:     make(chan struct{}),
	}
	go p.broker()
	return p
}

// Do queues fn and blocks until it has run, returning its error. If ctx ends
// first Do returns ctx.Err(); a task still waiting in the queue is then
// skipped.
func (p *Pool) Do(ctx context.Context, fn func(context.Context) error) error {
	t := &task{ctx: ctx, fn: fn, done: make(chan error, 1)}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrClosed
	}
	p.backlog = append(p.backlog, t)
	p.mu.Unlock()
	p.wake()

	select {
	case err := <-t.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops intake. Tasks already queued still run; Close waits for them.
func (p *Pool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		<-p.stopped
		return
	}
	p.closed = true
	p.mu.Unlock()
	p.wake()
	<-p.stopped
}

func (p *Pool) Stats() Stats {
	p.mu.Lock()
	queued := len(p.backlog)
	p.mu.Unlock()
	return Stats{
		Queued:    queued,
		Running:   p.running.Load(),
		Processed: p.processed.Load(),
	}
}

func (p *Pool) Concurrency() int { return p.concurrency }

func (p *Pool) wake() {
	select {
	case p.notify <- struct{}{}:
	default:
	}
}

func (p *Pool) broker() {
	defer close(p.stopped)
	for {
		batch, closed := p.take()
		if len(batch) == 0 {
			if closed {
				return
			}
			<-p.notify
			continue
		}
		p.runBatch(batch)
	}
}

func (p *Pool) take() ([]*task, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	n := min(len(p.backlog), p.concurrency)
	batch := make([]*task, n)
	copy(batch, p.backlog[:n])
	clear(p.backlog[:n])
	p.backlog = p.backlog[n:]
	return batch, p.closed
}

func (p *Pool) runBatch(batch []*task) {
	var wg sync.WaitGroup
	wg.Add(len(batch))
	for _, t := range batch {
		go func(t *task) {
			defer wg.Done()
			t.done <- p.run(t)
		}(t)
	}
	wg.Wait()
}

func (p *Pool) run(t *task) (err error) {
	if err := t.ctx.Err(); err != nil {
		return err
	}
	p.running.Add(1)
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrPanic, r)
		}
		p.running.Add(-1)
		p.processed.Add(1)
	}()
	return t.fn(t.ctx)
}
