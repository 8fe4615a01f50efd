package dag

import (
	"errors"
	"slices"
	"strings"
)

var (
	// ErrInvalidNodeID is returned by [DAG.AddNode] when the node name is
	// empty. All nodes must have non-empty names.
	ErrInvalidNodeID = errors.New("node name must not be empty")

	// ErrDuplicateNodeID is returned by [DAG.AddNode] when a node with the
	// same name already exists in the graph. Names must be unique.
	ErrDuplicateNodeID = errors.New("duplicate node name")

	// ErrUnknownSourceNode is returned by [DAG.AddEdge] when the From id is
	// outside the node arena.
	ErrUnknownSourceNode = errors.New("unknown source node")

	// ErrUnknownTargetNode is returned by [DAG.AddEdge] when the To id is
	// outside the node arena.
	ErrUnknownTargetNode = errors.New("unknown target node")

	// ErrIDMismatch is returned by [DAG.Validate] when a node's id differs
	// from its arena position. This indicates graph corruption.
	ErrIDMismatch = errors.New("node id does not match its position")

	// ErrGraphHasCycle is returned (wrapped in a [CycleError]) by
	// [DAG.Validate] when a cycle is detected.
	ErrGraphHasCycle = errors.New("graph contains a cycle")
)

// Node is a vertex of the graph. ID is its position in the arena.
type Node struct {
	ID   int
	Name string
}

// Edge is a directed connection From -> To, meaning "To reads From".
type Edge struct {
	From int
	To   int
}

// CycleError reports the nodes of one cycle, with the first node repeated
// at the end (x -> y -> x).
type CycleError struct {
	Path []string
}

// Error implements the error interface.
func (e *CycleError) Error() string {
	return ErrGraphHasCycle.Error() + ": " + strings.Join(e.Path, " -> ")
}

// Unwrap lets errors.Is match [ErrGraphHasCycle].
func (e *CycleError) Unwrap() error { return ErrGraphHasCycle }

// DAG is a directed graph whose nodes live in a dense arena: the node added
// n-th has id n. Edges are deduplicated. The topology only grows; there is no
// removal.
//
// The zero value is not usable - use New to create a valid DAG instance.
// DAG is not safe for concurrent use without external synchronization.
type DAG struct {
	nodes    []Node
	index    map[string]int
	edges    []Edge
	edgeSet  map[Edge]struct{}
	outgoing [][]int // id -> dependent ids, insertion order
	incoming [][]int // id -> dependency ids, insertion order
}

// New creates an empty DAG.
func New() *DAG {
	return &DAG{
		index:   make(map[string]int),
		edgeSet: make(map[Edge]struct{}),
	}
}

// AddNode appends a node and returns its id, which equals the number of
// nodes added before it.
func (d *DAG) AddNode(name string) (int, error) {
	if name == "" {
		return -1, ErrInvalidNodeID
	}
	if _, exists := d.index[name]; exists {
		return -1, ErrDuplicateNodeID
	}
	id := len(d.nodes)
	d.nodes = append(d.nodes, Node{ID: id, Name: name})
	d.index[name] = id
	d.outgoing = append(d.outgoing, nil)
	d.incoming = append(d.incoming, nil)
	return id, nil
}

// AddEdge adds the edge from -> to. It reports false without error when the
// edge already exists. Self-loops are accepted here and rejected by Validate.
func (d *DAG) AddEdge(from, to int) (bool, error) {
	if from < 0 || from >= len(d.nodes) {
		return false, ErrUnknownSourceNode
	}
	if to < 0 || to >= len(d.nodes) {
		return false, ErrUnknownTargetNode
	}
	e := Edge{From: from, To: to}
	if _, dup := d.edgeSet[e]; dup {
		return false, nil
	}
	d.edgeSet[e] = struct{}{}
	d.edges = append(d.edges, e)
	d.outgoing[from] = append(d.outgoing[from], to)
	d.incoming[to] = append(d.incoming[to], from)
	return true, nil
}

// ID returns the id registered for name.
func (d *DAG) ID(name string) (int, bool) {
	id, ok := d.index[name]
	return id, ok
}

// Name returns the name of node id. It panics if id is out of range.
func (d *DAG) Name(id int) string { return d.nodes[id].Name }

// Nodes returns a copy of all nodes in id order.
func (d *DAG) Nodes() []Node { return slices.Clone(d.nodes) }

// Names returns node names in id order.
func (d *DAG) Names() []string {
	names := make([]string, len(d.nodes))
	for i, n := range d.nodes {
		names[i] = n.Name
	}
	return names
}

// Edges returns a copy of all edges in insertion order.
func (d *DAG) Edges() []Edge { return slices.Clone(d.edges) }

// NodeCount returns the number of nodes in the graph.
func (d *DAG) NodeCount() int { return len(d.nodes) }

// EdgeCount returns the number of distinct edges in the graph.
func (d *DAG) EdgeCount() int { return len(d.edges) }

// Children returns the ids of nodes that read this node (its dependents).
// The returned slice should not be modified.
func (d *DAG) Children(id int) []int { return d.outgoing[id] }

// Parents returns the ids of nodes this node reads (its dependencies).
// The returned slice should not be modified.
func (d *DAG) Parents(id int) []int { return d.incoming[id] }

// OutDegree returns the number of dependents of the node.
func (d *DAG) OutDegree(id int) int { return len(d.outgoing[id]) }

// InDegree returns the number of dependencies of the node.
func (d *DAG) InDegree(id int) int { return len(d.incoming[id]) }

// Sources returns ids of nodes with no incoming edges, ascending.
func (d *DAG) Sources() []int {
	var sources []int
	for id := range d.nodes {
		if len(d.incoming[id]) == 0 {
			sources = append(sources, id)
		}
	}
	return sources
}

// Sinks returns ids of nodes with no outgoing edges, ascending.
func (d *DAG) Sinks() []int {
	var sinks []int
	for id := range d.nodes {
		if len(d.outgoing[id]) == 0 {
			sinks = append(sinks, id)
		}
	}
	return sinks
}

// Validate checks graph integrity and returns nil if valid.
// It verifies two constraints:
//
//  1. Every node's id equals its arena position
//  2. The graph is acyclic (no directed cycles exist)
//
// A cycle is reported as a *[CycleError] naming one offending cycle.
// Cycle detection runs in O(N+E) time using depth-first search.
func (d *DAG) Validate() error {
	for i, n := range d.nodes {
		if n.ID != i {
			return ErrIDMismatch
		}
	}
	if cycle := d.FindCycle(); cycle != nil {
		path := make([]string, len(cycle))
		for i, id := range cycle {
			path[i] = d.nodes[id].Name
		}
		return &CycleError{Path: path}
	}
	return nil
}

// FindCycle returns the ids of one cycle, first id repeated at the end, or
// nil when the graph is acyclic. Roots are visited in ascending id order so
// the reported cycle is deterministic.
func (d *DAG) FindCycle() []int {
	const (
		white = iota
		gray
		black
	)

	color := make([]int, len(d.nodes))
	var stack []int
	var cycle []int

	var dfs func(id int) bool
	dfs = func(id int) bool {
		color[id] = gray
		stack = append(stack, id)
		for _, child := range d.outgoing[id] {
			switch color[child] {
			case white:
				if dfs(child) {
					return true
				}
			case gray:
				start := slices.Index(stack, child)
				cycle = append(slices.Clone(stack[start:]), child)
				return true
			}
		}
		stack = stack[:len(stack)-1]
		color[id] = black
		return false
	}

	for id := range d.nodes {
		if color[id] == white && dfs(id) {
			return cycle
		}
	}
	return nil
}

// Reachable returns the ids reachable from id through at least one edge,
// ascending. The source itself is included only if it lies on a cycle.
func (d *DAG) Reachable(id int) []int {
	seen := make([]bool, len(d.nodes))
	queue := slices.Clone(d.outgoing[id])
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		if seen[n] {
			continue
		}
		seen[n] = true
		queue = append(queue, d.outgoing[n]...)
	}
	var out []int
	for n, ok := range seen {
		if ok {
			out = append(out, n)
		}
	}
	return out
}
