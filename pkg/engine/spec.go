package engine

import (
	errs "github.com/matzehuels/recalc/pkg/errors"
)

// ComputeFunc derives a node's value from other nodes' current values.
// It reads inputs through the Scope and returns the node's new value; the
// engine stores the result in the node's own slot. A returned error aborts
// the whole update.
type ComputeFunc func(s *Scope) (float64, error)

// NodeSpec declares one node of a graph.
//
// A leaf has no DependsOn and no Compute. A derived node lists every node
// its Compute reads in DependsOn and must set Compute.
type NodeSpec struct {
	Name      string
	Value     float64
	DependsOn []string
	Compute   ComputeFunc
}

// Leaf returns the spec of an input node.
func Leaf(name string, value float64) NodeSpec {
	return NodeSpec{Name: name, Value: value}
}

// Derived returns the spec of a computed node. initial is the value held
// until the first recomputation.
func Derived(name string, initial float64, dependsOn []string, fn ComputeFunc) NodeSpec {
	return NodeSpec{Name: name, Value: initial, DependsOn: dependsOn, Compute: fn}
}

// Scope is the read handle a ComputeFunc receives. It is valid only for the
// duration of the call; using it afterwards yields errors.
type Scope struct {
	values []float64
	index  map[string]int
	self   int
	name   string
	err    error
}

// Name returns the name of the node being computed.
func (s *Scope) Name() string { return s.name }

// Self returns the node's value before this recomputation.
func (s *Scope) Self() float64 {
	if s.values == nil {
		return 0
	}
	return s.values[s.self]
}

// Value returns the current value of the named node. An unknown name is an
// INVALID_COMPUTE_REFERENCE error.
func (s *Scope) Value(name string) (float64, error) {
	if s.values == nil {
		return 0, errs.New(errs.ErrCodeInternal, "scope for %q used after its compute call returned", s.name)
	}
	id, ok := s.index[name]
	if !ok {
		return 0, errs.New(errs.ErrCodeInvalidComputeReference, "%q reads unknown node %q", s.name, name)
	}
	return s.values[id], nil
}

// Get is Value with a sticky error: the first failure is kept, Get returns
// 0, and the engine fails the update once the ComputeFunc returns. It lets
// arithmetic read naturally:
//
//	return s.Get("a") * s.Get("b"), nil
func (s *Scope) Get(name string) float64 {
	v, err := s.Value(name)
	if err != nil && s.err == nil {
		s.err = err
	}
	return v
}

// Err returns the first error recorded by Get.
func (s *Scope) Err() error { return s.err }

func (s *Scope) release() {
	s.values = nil
	s.index = nil
}
