package transform

import (
	"sync"
)

// Source is a tracked object whose current transform can be pulled on demand
// and whose changes can be observed.
type Source interface {
	// Name identifies the source in output field names.
	Name() string
	// Matrix returns the current transform to parent.
	Matrix() (Matrix, error)
	// Subscribe registers fn to be called whenever the transform changes.
	Subscribe(fn func()) Subscription
}

// Subscription is a handle for an observer registered with Subscribe.
type Subscription interface {
	// Unsubscribe removes the observer. Calling it more than once is a no-op.
	Unsubscribe()
}

// Static is an in-memory Source. Set updates the matrix and notifies
// subscribers synchronously on the calling goroutine.
type Static struct {
	name string

	mu       sync.Mutex
	matrix   Matrix
	nextID   int
	watchers map[int]func()
}

// NewStatic returns a source named name holding the identity matrix.
func NewStatic(name string) *Static {
	return &Static{
		name:     name,
		matrix:   Identity(),
		watchers: make(map[int]func()),
	}
}

// Name implements Source.
func (s *Static) Name() string { return s.name }

// Matrix implements Source.
func (s *Static) Matrix() (Matrix, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.matrix, nil
}

// Set stores m and notifies every subscriber.
func (s *Static) Set(m Matrix) {
	s.mu.Lock()
	s.matrix = m
	fns := make([]func(), 0, len(s.watchers))
	for id := 0; id < s.nextID; id++ {
		if fn, ok := s.watchers[id]; ok {
			fns = append(fns, fn)
		}
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

// Subscribers reports the number of registered observers.
func (s *Static) Subscribers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.watchers)
}

// Subscribe implements Source.
func (s *Static) Subscribe(fn func()) Subscription {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.watchers[id] = fn
	return &staticSubscription{source: s, id: id}
}

type staticSubscription struct {
	source *Static
	id     int
	once   sync.Once
}

func (sub *staticSubscription) Unsubscribe() {
	sub.once.Do(func() {
		sub.source.mu.Lock()
		delete(sub.source.watchers, sub.id)
		sub.source.mu.Unlock()
	})
}
