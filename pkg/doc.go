// Package pkg provides the libraries behind recalc, an incremental
// computation engine for graphs of named values.
//
// # Overview
//
// A graph holds leaves, set by callers, and derived nodes, recomputed from
// the nodes they depend on. When a value changes, only the nodes that
// transitively depend on it are recomputed, in an order compiled once when
// the graph is built.
//
//  1. [engine] - Builder, update-order compiler and runtime graph
//  2. [dag] - Index-based directed graph with cycle detection
//  3. [manifest] - TOML graph definitions with HCL expressions
//  4. [render/nodelink] - Graphviz DOT, SVG and PNG output
//  5. [io] - JSON export
//  6. [errors] - Coded errors shared by every package
//  7. [observability] - Build and update hooks
//
// # Architecture
//
//	manifest (TOML + expressions)
//	         ↓
//	    [engine.Builder] (validate, detect cycles, compile orders)
//	         ↓
//	    [engine.Graph] (update, replay, snapshot)
//	         ↓
//	    CLI output / DOT / SVG / JSON / HTTP
//
// # Quick Start
//
//	m, err := manifest.Load("examples/fixture.toml")
//	if err != nil {
//	    return err
//	}
//	g, err := m.Build()
//	if err != nil {
//	    return err
//	}
//	if err := g.Update(ctx, "a", 2); err != nil {
//	    return err
//	}
//	for _, nv := range g.Snapshot() {
//	    fmt.Println(nv.Name, nv.Value)
//	}
package pkg
