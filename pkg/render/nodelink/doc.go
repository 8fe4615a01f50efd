// Package nodelink renders computation graphs as node-link diagrams.
//
// # Overview
//
// This package produces directed graph visualizations using Graphviz. Leaves
// are drawn as ellipses, derived nodes as boxes, and every arrow points from
// a dependency to the node reading it.
//
// # Usage
//
// Convert a graph to DOT format, then render to SVG:
//
//	dot, err := nodelink.ToDOT(g, nodelink.Options{Values: true})
//	svg, err := nodelink.RenderSVG(dot)
//
// # Options
//
// The [Options] struct controls diagram generation:
//
//   - Values: include each node's current value in its label
//   - Highlight: shade the nodes recomputed when this node changes, and
//     number them in update order
//
// # DOT Format
//
// The [ToDOT] function produces Graphviz DOT source that can be written to
// a .dot file or rendered in-process with [RenderSVG] and [RenderPNG].
package nodelink
