package engine

import (
	"cmp"
	"errors"
	"math"
	"slices"

	"github.com/matzehuels/recalc/pkg/dag"
)

// edgeWeight is the cost of every dependency edge. With negative weights the
// shortest distance from a source is minus the longest path to each node.
const edgeWeight = -1

var errNegativeCycle = errors.New("negative cycle reachable from source")

// compileOrders computes the update order of every node in g.
func compileOrders(g *dag.DAG) ([][]int, error) {
	orders := make([][]int, g.NodeCount())
	edges := g.Edges()
	for id := range orders {
		order, err := compileOrder(g.NodeCount(), edges, id)
		if err != nil {
			return nil, err
		}
		orders[id] = order
	}
	return orders, nil
}

// compileOrder returns the nodes to recompute when src changes.
//
// Bellman-Ford over edges of weight -1 yields dist[v] = -L(v), L being the
// longest path from src to v. Nodes with dist < 0 are exactly the nodes
// reachable through at least one edge. Sorting them by ascending L, ties by
// id, is a topological order: every edge u -> v inside the reachable set has
// L(v) >= L(u)+1.
func compileOrder(n int, edges []dag.Edge, src int) ([]int, error) {
	const unreached = math.MaxInt

	dist := make([]int, n)
	for i := range dist {
		dist[i] = unreached
	}
	dist[src] = 0

	relax := func() bool {
		relaxed := false
		for _, e := range edges {
			if dist[e.From] == unreached {
				continue
			}
			if d := dist[e.From] + edgeWeight; d < dist[e.To] {
				dist[e.To] = d
				relaxed = true
			}
		}
		return relaxed
	}

	converged := false
	for pass := 0; pass < n-1; pass++ {
		if !relax() {
			converged = true
			break
		}
	}
	if !converged && relax() {
		return nil, errNegativeCycle
	}

	var order []int
	for id, d := range dist {
		if d != unreached && d < 0 {
			order = append(order, id)
		}
	}
	slices.SortFunc(order, func(a, b int) int {
		return cmp.Or(cmp.Compare(dist[b], dist[a]), cmp.Compare(a, b))
	})
	return order, nil
}
