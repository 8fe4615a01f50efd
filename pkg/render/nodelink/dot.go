package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/recalc/pkg/engine"
)

// Options configures node-link diagram rendering.
type Options struct {
	// Values includes the current value in node labels.
	Values bool
	// Highlight names a node whose update order is drawn: the source gets a
	// bold outline and each recomputed node is shaded and numbered.
	Highlight string
}

// ToDOT converts a graph to Graphviz DOT format. Nodes appear in id order
// and edges in declaration order, so the output is stable. It fails only
// when Highlight names an unknown node.
func ToDOT(g *engine.Graph, opts Options) (string, error) {
	rank := map[string]int{}
	if opts.Highlight != "" {
		order, err := g.UpdateOrder(opts.Highlight)
		if err != nil {
			return "", err
		}
		for i, name := range order {
			rank[name] = i + 1
		}
	}

	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [style=\"rounded,filled\", fillcolor=white, fontsize=14];\n")
	buf.WriteString("\n")

	for _, nv := range g.Snapshot() {
		leaf, _ := g.IsLeaf(nv.Name)
		attrs := fmtAttrs(nv, leaf, rank[nv.Name], nv.Name == opts.Highlight, opts.Values)
		fmt.Fprintf(&buf, "  %q [%s];\n", nv.Name, strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for _, e := range g.Edges() {
		fmt.Fprintf(&buf, "  %q -> %q;\n", e.From, e.To)
	}

	buf.WriteString("}\n")
	return buf.String(), nil
}

func fmtLabel(nv engine.NodeValue, step int, values bool) string {
	label := nv.Name
	if step > 0 {
		label = fmt.Sprintf("%d. %s", step, label)
	}
	if values {
		label += "\n" + strconv.FormatFloat(nv.Value, 'g', -1, 64)
	}
	return label
}

func fmtAttrs(nv engine.NodeValue, leaf bool, step int, source, values bool) []string {
	attrs := []string{fmt.Sprintf("label=%q", fmtLabel(nv, step, values))}
	if leaf {
		attrs = append(attrs, "shape=ellipse")
	} else {
		attrs = append(attrs, "shape=box")
	}
	if source {
		attrs = append(attrs, "penwidth=3")
	}
	if step > 0 {
		attrs = append(attrs, "fillcolor=lightgoldenrod1")
	}
	return attrs
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(dot string) ([]byte, error) {
	out, err := render(dot, graphviz.SVG)
	if err != nil {
		return nil, err
	}
	return normalizeViewBox(out), nil
}

// RenderPNG renders a DOT graph to PNG using Graphviz.
func RenderPNG(dot string) ([]byte, error) {
	return render(dot, graphviz.PNG)
}

func render(dot string, format graphviz.Format) ([]byte, error) {
	ctx := context.Background()
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, format, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return buf.Bytes(), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}
