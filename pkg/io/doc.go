// Package io exports computation graphs as JSON.
//
// The document lists every node in id order with its current value, kind
// and dependencies, followed by the edges and the compiled update order of
// each node:
//
//	{
//	  "nodes": [
//	    {"name": "a", "value": 1, "leaf": true},
//	    {"name": "d", "value": 5, "depends_on": ["a", "b"]}
//	  ],
//	  "edges": [{"from": "a", "to": "d"}],
//	  "update_orders": {"a": ["d", "e"]}
//	}
//
// Compute functions are code and are not exported, so the document describes
// a graph without being able to rebuild it.
package io
