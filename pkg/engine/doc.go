// Package engine implements recalc's incremental computation graph.
//
// # Overview
//
// A graph is a set of named float64 values. Leaves are set by callers;
// derived nodes are recomputed by a [ComputeFunc] from the nodes they
// declare in [NodeSpec.DependsOn]. Changing a leaf recomputes exactly the
// nodes that transitively depend on it, each after all of its inputs.
//
// # Building
//
//	g, err := engine.NewBuilder().
//	    Add(
//	        engine.Leaf("a", 1),
//	        engine.Leaf("b", 5),
//	        engine.Derived("d", 0, []string{"a", "b"}, func(s *engine.Scope) (float64, error) {
//	            return s.Get("a") * s.Get("b"), nil
//	        }),
//	    ).
//	    Build()
//
// Build rejects unknown dependencies, cycles, duplicate names, derived nodes
// without a compute function and leaves with one. Errors carry codes from
// the errors package; no partial graph is ever returned.
//
// # Update Orders
//
// For every node, Build precomputes the list of nodes to recompute when it
// changes. Edges get weight -1 and a Bellman-Ford pass from each source
// yields minus the longest path length to every reachable node. Sorting
// reachable nodes by that length, ties broken by id, gives a topological
// order of the affected subgraph, so [Graph.Update] only replays a list.
//
// # Updating
//
// [Graph.Update] stages the new value and every recomputation on a scratch
// copy and commits only when all compute functions succeed. Changes are
// delivered to the [Observer] registered with [WithObserver] after commit,
// or returned by [Graph.Apply].
//
// # Concurrency
//
// Graph is single-threaded. Use [Synchronize] to share one between
// goroutines.
package engine
