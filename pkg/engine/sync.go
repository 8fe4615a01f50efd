package engine

import (
	"context"
	"sync"
)

// Synchronized serializes access to a Graph with a single mutex. Compute
// functions and the Observer run while the lock is held and must not call
// back into the same Synchronized value.
type Synchronized struct {
	mu sync.Mutex
	g  *Graph
}

// Synchronize wraps g. g must not be used directly afterwards.
func Synchronize(g *Graph) *Synchronized {
	return &Synchronized{g: g}
}

// Update calls Graph.Update under the lock.
func (s *Synchronized) Update(ctx context.Context, name string, value float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.g.Update(ctx, name, value)
}

// Apply calls Graph.Apply under the lock.
func (s *Synchronized) Apply(ctx context.Context, name string, value float64) ([]Change, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.g.Apply(ctx, name, value)
}

// ValueOf calls Graph.ValueOf under the lock.
func (s *Synchronized) ValueOf(name string) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.g.ValueOf(name)
}

// Snapshot calls Graph.Snapshot under the lock.
func (s *Synchronized) Snapshot() []NodeValue {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.g.Snapshot()
}

// Do runs fn with exclusive access to the graph, for sequences of calls
// that must not interleave with other goroutines.
func (s *Synchronized) Do(fn func(g *Graph) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.g)
}
