package capture

import (
	"context"
	"sync"
	"sync/atomic"

	"transformrecorder/internal/transform"
)

// DefaultQueueSize is the dispatcher queue length used when none is given.
const DefaultQueueSize = 256

// Dispatcher serializes work from many goroutines onto the single goroutine
// running Run. Queued work runs in submission order. Submitting blocks while
// the queue is full, so notifications are never discarded while Run is
// active.
type Dispatcher struct {
	queue   chan func()
	stop    chan struct{}
	closing chan struct{}
	done    chan struct{}

	// mu is held shared by submitters while they send and exclusively by
	// Run while it empties the queue on exit.
	mu       sync.RWMutex
	stopOnce sync.Once
	doneOnce sync.Once
	dropped  atomic.Int64
}

// NewDispatcher returns a dispatcher with a queue of size entries.
func NewDispatcher(size int) *Dispatcher {
	if size <= 0 {
		size = DefaultQueueSize
	}
	return &Dispatcher{
		queue:   make(chan func(), size),
		stop:    make(chan struct{}),
		closing: make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// Run executes queued work until ctx is cancelled or Close is called. After
// Close, work already queued is drained before Run returns nil. Work still
// queued when ctx is cancelled is discarded and counted as dropped.
func (d *Dispatcher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			d.finish(false)
			return ctx.Err()
		case <-d.stop:
			d.finish(true)
			return nil
		case fn := <-d.queue:
			fn()
		}
	}
}

// Close asks Run to finish once the queue is drained.
func (d *Dispatcher) Close() {
	d.stopOnce.Do(func() { close(d.stop) })
}

// Done is closed when Run has returned.
func (d *Dispatcher) Done() <-chan struct{} { return d.done }

// Dropped counts work that was never run: submitted after Run began to
// exit, or left queued when Run was cancelled.
func (d *Dispatcher) Dropped() int64 { return d.dropped.Load() }

// finish rejects new work, waits for in-flight submitters, then empties the
// queue. Queued work runs when drain is set and is dropped otherwise.
func (d *Dispatcher) finish(drain bool) {
	d.doneOnce.Do(func() {
		close(d.closing)
		d.mu.Lock()
		var pending []func()
		for len(d.queue) > 0 {
			pending = append(pending, <-d.queue)
		}
		d.mu.Unlock()

		for _, fn := range pending {
			if drain {
				fn()
			} else {
				d.dropped.Add(1)
			}
		}
		close(d.done)
	})
}

// submit queues fn and reports whether it was accepted. An accepted fn is
// always either run or counted as dropped.
func (d *Dispatcher) submit(ctx context.Context, fn func()) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	select {
	case <-d.closing:
		d.dropped.Add(1)
		return false
	default:
	}
	select {
	case d.queue <- fn:
		return true
	case <-d.closing:
		d.dropped.Add(1)
		return false
	case <-ctx.Done():
		d.dropped.Add(1)
		return false
	}
}

// Call runs fn on the Run goroutine after all previously queued work and
// waits for it to finish.
func (d *Dispatcher) Call(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	if !d.submit(ctx, func() {
		defer close(finished)
		fn()
	}) {
		if err := ctx.Err(); err != nil {
			return err
		}
		return ErrDispatcherClosed
	}
	select {
	case <-finished:
		return nil
	case <-d.done:
		// Run may have executed fn while draining.
		select {
		case <-finished:
			return nil
		default:
			return ErrDispatcherClosed
		}
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Wrap returns a source whose change notifications are delivered on the Run
// goroutine instead of the goroutine that raised them. Matrices are read
// when the notification is processed.
func (d *Dispatcher) Wrap(src transform.Source) transform.Source {
	return &dispatchedSource{Source: src, dispatcher: d}
}

type dispatchedSource struct {
	transform.Source
	dispatcher *Dispatcher
}

func (s *dispatchedSource) Subscribe(fn func()) transform.Subscription {
	return s.Source.Subscribe(func() {
		s.dispatcher.submit(context.Background(), fn)
	})
}
