package engine

import (
	"context"
	"slices"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/recalc/pkg/dag"
	errs "github.com/matzehuels/recalc/pkg/errors"
	"github.com/matzehuels/recalc/pkg/observability"
)

// Change is the before/after value of one node during an update.
// Direct is set for the node the caller assigned; recomputed nodes have it
// unset.
type Change struct {
	Name   string
	Old    float64
	New    float64
	Direct bool
}

// Observer receives the changes of a successful update in replay order.
type Observer func(Change)

// NodeValue is a (name, value) pair of a snapshot.
type NodeValue struct {
	Name  string
	Value float64
}

// Edge is a dependency edge by name: To reads From.
type Edge struct {
	From string
	To   string
}

// Graph holds node values and replays precompiled update orders.
//
// Topology is fixed at build time. Graph is not safe for concurrent use;
// wrap it with Synchronize when several goroutines share it.
type Graph struct {
	topo     *dag.DAG
	index    map[string]int
	names    []string
	values   []float64
	compute  []ComputeFunc
	orders   [][]int
	scratch  []float64
	logger   *log.Logger
	observer Observer
	leafOnly bool
}

// Len returns the number of nodes.
func (g *Graph) Len() int { return len(g.values) }

// EdgeCount returns the number of distinct dependency edges.
func (g *Graph) EdgeCount() int { return g.topo.EdgeCount() }

// Names returns node names in id order.
func (g *Graph) Names() []string { return slices.Clone(g.names) }

// Edges returns all dependency edges in declaration order.
func (g *Graph) Edges() []Edge {
	edges := g.topo.Edges()
	out := make([]Edge, len(edges))
	for i, e := range edges {
		out[i] = Edge{From: g.names[e.From], To: g.names[e.To]}
	}
	return out
}

func (g *Graph) lookup(name string) (int, error) {
	id, ok := g.index[name]
	if !ok {
		return -1, errs.New(errs.ErrCodeNodeNotFound, "node %q not found", name)
	}
	return id, nil
}

// ValueOf returns the current value of the named node.
func (g *Graph) ValueOf(name string) (float64, error) {
	id, err := g.lookup(name)
	if err != nil {
		return 0, err
	}
	return g.values[id], nil
}

// IsLeaf reports whether the named node has no dependencies.
func (g *Graph) IsLeaf(name string) (bool, error) {
	id, err := g.lookup(name)
	if err != nil {
		return false, err
	}
	return g.topo.InDegree(id) == 0, nil
}

// Dependencies returns the names the node reads, in declaration order.
func (g *Graph) Dependencies(name string) ([]string, error) {
	id, err := g.lookup(name)
	if err != nil {
		return nil, err
	}
	return g.namesOf(g.topo.Parents(id)), nil
}

// Dependents returns the names of nodes reading the node directly.
func (g *Graph) Dependents(name string) ([]string, error) {
	id, err := g.lookup(name)
	if err != nil {
		return nil, err
	}
	return g.namesOf(g.topo.Children(id)), nil
}

// UpdateOrder returns the names recomputed, in order, when name changes.
func (g *Graph) UpdateOrder(name string) ([]string, error) {
	id, err := g.lookup(name)
	if err != nil {
		return nil, err
	}
	return g.namesOf(g.orders[id]), nil
}

func (g *Graph) namesOf(ids []int) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = g.names[id]
	}
	return out
}

// Snapshot returns every (name, value) pair in id order.
func (g *Graph) Snapshot() []NodeValue {
	out := make([]NodeValue, len(g.values))
	for i, v := range g.values {
		out[i] = NodeValue{Name: g.names[i], Value: v}
	}
	return out
}

// Update sets the named node to value and recomputes every node depending on
// it, in its compiled order. The registered Observer sees the changes.
//
// Update either applies completely or not at all: an unknown name, a
// rejected derived node, or a failing compute function leaves every value
// as it was.
func (g *Graph) Update(ctx context.Context, name string, value float64) error {
	_, err := g.Apply(ctx, name, value)
	return err
}

// Apply is Update returning the changes it made, the direct change first.
func (g *Graph) Apply(ctx context.Context, name string, value float64) ([]Change, error) {
	start := time.Now()
	changes, err := g.apply(name, value)
	recomputed := max(len(changes)-1, 0)
	observability.Engine().OnUpdate(ctx, name, recomputed, time.Since(start), err)
	if err != nil {
		g.logger.Debug("update rejected", "node", name, "value", value, "err", err)
		return nil, err
	}

	if g.observer != nil {
		for _, c := range changes {
			g.observer(c)
		}
	}
	g.logger.Debug("updated node",
		"node", name,
		"value", value,
		"recomputed", recomputed,
		"duration", time.Since(start))
	return changes, nil
}

func (g *Graph) apply(name string, value float64) ([]Change, error) {
	id, err := g.lookup(name)
	if err != nil {
		return nil, err
	}
	if g.leafOnly && g.topo.InDegree(id) > 0 {
		return nil, errs.New(errs.ErrCodeDerivedNodeUpdate, "%q is computed from other nodes and cannot be set", name)
	}

	order := g.orders[id]
	work := g.scratch
	copy(work, g.values)

	changes := make([]Change, 0, len(order)+1)
	changes = append(changes, Change{Name: name, Old: work[id], New: value, Direct: true})
	work[id] = value

	for _, j := range order {
		fn := g.compute[j]
		if fn == nil {
			continue
		}
		old := work[j]
		next, err := g.run(fn, j, work)
		if err != nil {
			return nil, errs.Wrap(errs.ErrCodeComputeFailed, err, "recompute %q", g.names[j])
		}
		work[j] = next
		changes = append(changes, Change{Name: g.names[j], Old: old, New: next})
	}

	g.values, g.scratch = work, g.values
	return changes, nil
}

func (g *Graph) run(fn ComputeFunc, id int, values []float64) (float64, error) {
	s := &Scope{values: values, index: g.index, self: id, name: g.names[id]}
	defer s.release()
	v, err := fn(s)
	if s.err != nil {
		return 0, s.err
	}
	return v, err
}
