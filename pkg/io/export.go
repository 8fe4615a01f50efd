package io

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/matzehuels/recalc/pkg/engine"
)

type graph struct {
	Nodes        []node              `json:"nodes"`
	Edges        []edge              `json:"edges"`
	UpdateOrders map[string][]string `json:"update_orders,omitempty"`
}

type node struct {
	Name      string   `json:"name"`
	Value     float64  `json:"value"`
	Leaf      bool     `json:"leaf,omitempty"`
	DependsOn []string `json:"depends_on,omitempty"`
}

type edge struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// WriteJSON encodes g as JSON and writes it to w.
// Sinks are omitted from update_orders since their order is empty.
func WriteJSON(g *engine.Graph, w io.Writer) error {
	snap := g.Snapshot()
	out := graph{
		Nodes:        make([]node, len(snap)),
		UpdateOrders: make(map[string][]string),
	}

	for i, nv := range snap {
		leaf, err := g.IsLeaf(nv.Name)
		if err != nil {
			return err
		}
		deps, err := g.Dependencies(nv.Name)
		if err != nil {
			return err
		}
		order, err := g.UpdateOrder(nv.Name)
		if err != nil {
			return err
		}
		out.Nodes[i] = node{Name: nv.Name, Value: nv.Value, Leaf: leaf, DependsOn: deps}
		if len(order) > 0 {
			out.UpdateOrders[nv.Name] = order
		}
	}
	for _, e := range g.Edges() {
		out.Edges = append(out.Edges, edge{From: e.From, To: e.To})
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// ExportJSON writes g to a JSON file at path.
// This is a convenience wrapper around [WriteJSON] for file-based output.
func ExportJSON(g *engine.Graph, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return WriteJSON(g, f)
}
