// Package dag provides the dependency graph underlying recalc's
// computation engine.
//
// # Overview
//
// Nodes live in a dense arena: the n-th node added has id n, so ids double
// as slice positions for value storage elsewhere. Edges point from a
// dependency to its dependent ("To reads From") and are deduplicated.
//
// # Basic Usage
//
//	g := dag.New()
//	a, _ := g.AddNode("a")
//	d, _ := g.AddNode("d")
//	g.AddEdge(a, d)
//
// Query the structure with [DAG.Children] (dependents), [DAG.Parents]
// (dependencies), [DAG.Sources], [DAG.Sinks] and [DAG.Reachable]. Use
// [DAG.Validate] before compiling anything from the graph: it checks the
// id/position invariant and rejects cycles with a [CycleError] that names
// the offending path.
//
// # Concurrency
//
// DAG instances are not safe for concurrent use. Read-only queries on a
// graph that is no longer modified can run in parallel.
package dag
