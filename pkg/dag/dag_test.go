package dag

import (
	"errors"
	"slices"
	"testing"
)

func buildGraph(t *testing.T, names []string, edges [][2]string) *DAG {
	t.Helper()
	g := New()
	for _, n := range names {
		if _, err := g.AddNode(n); err != nil {
			t.Fatalf("AddNode(%q) error = %v", n, err)
		}
	}
	for _, e := range edges {
		from, _ := g.ID(e[0])
		to, _ := g.ID(e[1])
		if _, err := g.AddEdge(from, to); err != nil {
			t.Fatalf("AddEdge(%s, %s) error = %v", e[0], e[1], err)
		}
	}
	return g
}

func TestAddNode(t *testing.T) {
	g := New()

	for i, name := range []string{"a", "b", "c"} {
		id, err := g.AddNode(name)
		if err != nil {
			t.Fatalf("AddNode(%q) error = %v", name, err)
		}
		if id != i {
			t.Errorf("AddNode(%q) id = %d, want %d", name, id, i)
		}
	}

	if _, err := g.AddNode(""); !errors.Is(err, ErrInvalidNodeID) {
		t.Errorf("AddNode(\"\") error = %v, want %v", err, ErrInvalidNodeID)
	}
	if _, err := g.AddNode("a"); !errors.Is(err, ErrDuplicateNodeID) {
		t.Errorf("AddNode(dup) error = %v, want %v", err, ErrDuplicateNodeID)
	}
	if g.NodeCount() != 3 {
		t.Errorf("NodeCount() = %d, want 3", g.NodeCount())
	}
	if got := g.Names(); !slices.Equal(got, []string{"a", "b", "c"}) {
		t.Errorf("Names() = %v", got)
	}
}

func TestAddEdge(t *testing.T) {
	g := buildGraph(t, []string{"a", "b"}, nil)

	added, err := g.AddEdge(0, 1)
	if err != nil || !added {
		t.Fatalf("AddEdge() = %v, %v; want true, nil", added, err)
	}

	added, err = g.AddEdge(0, 1)
	if err != nil || added {
		t.Errorf("duplicate AddEdge() = %v, %v; want false, nil", added, err)
	}
	if g.EdgeCount() != 1 {
		t.Errorf("EdgeCount() = %d, want 1", g.EdgeCount())
	}

	if _, err := g.AddEdge(5, 1); !errors.Is(err, ErrUnknownSourceNode) {
		t.Errorf("AddEdge(bad source) error = %v, want %v", err, ErrUnknownSourceNode)
	}
	if _, err := g.AddEdge(0, -1); !errors.Is(err, ErrUnknownTargetNode) {
		t.Errorf("AddEdge(bad target) error = %v, want %v", err, ErrUnknownTargetNode)
	}
}

func TestAdjacency(t *testing.T) {
	g := buildGraph(t,
		[]string{"a", "b", "c", "d", "e"},
		[][2]string{{"a", "d"}, {"b", "d"}, {"b", "e"}, {"d", "e"}, {"c", "e"}},
	)

	if got := g.Children(1); !slices.Equal(got, []int{3, 4}) {
		t.Errorf("Children(b) = %v, want [3 4]", got)
	}
	if got := g.Parents(4); !slices.Equal(got, []int{1, 3, 2}) {
		t.Errorf("Parents(e) = %v, want [1 3 2]", got)
	}
	if g.InDegree(3) != 2 || g.OutDegree(3) != 1 {
		t.Errorf("degrees(d) = in %d out %d, want in 2 out 1", g.InDegree(3), g.OutDegree(3))
	}
	if got := g.Sources(); !slices.Equal(got, []int{0, 1, 2}) {
		t.Errorf("Sources() = %v, want [0 1 2]", got)
	}
	if got := g.Sinks(); !slices.Equal(got, []int{4}) {
		t.Errorf("Sinks() = %v, want [4]", got)
	}
	if got := g.Reachable(0); !slices.Equal(got, []int{3, 4}) {
		t.Errorf("Reachable(a) = %v, want [3 4]", got)
	}
	if got := g.Reachable(4); len(got) != 0 {
		t.Errorf("Reachable(e) = %v, want empty", got)
	}
}

func TestValidate_Acyclic(t *testing.T) {
	g := buildGraph(t, []string{"a", "b", "c"}, [][2]string{{"a", "b"}, {"b", "c"}, {"a", "c"}})
	if err := g.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestValidate_Cycles(t *testing.T) {
	tests := []struct {
		name     string
		nodes    []string
		edges    [][2]string
		wantPath []string
	}{
		{
			name:     "two node cycle",
			nodes:    []string{"x", "y"},
			edges:    [][2]string{{"x", "y"}, {"y", "x"}},
			wantPath: []string{"x", "y", "x"},
		},
		{
			name:     "self loop",
			nodes:    []string{"a", "b"},
			edges:    [][2]string{{"b", "b"}},
			wantPath: []string{"b", "b"},
		},
		{
			name:     "triangle behind a tail",
			nodes:    []string{"root", "p", "q", "r"},
			edges:    [][2]string{{"root", "p"}, {"p", "q"}, {"q", "r"}, {"r", "p"}},
			wantPath: []string{"p", "q", "r", "p"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := buildGraph(t, tt.nodes, tt.edges)
			err := g.Validate()
			if !errors.Is(err, ErrGraphHasCycle) {
				t.Fatalf("Validate() error = %v, want %v", err, ErrGraphHasCycle)
			}
			var ce *CycleError
			if !errors.As(err, &ce) {
				t.Fatalf("Validate() error type = %T, want *CycleError", err)
			}
			if !slices.Equal(ce.Path, tt.wantPath) {
				t.Errorf("cycle path = %v, want %v", ce.Path, tt.wantPath)
			}
		})
	}
}

func TestEdgesReturnsCopy(t *testing.T) {
	g := buildGraph(t, []string{"a", "b"}, [][2]string{{"a", "b"}})
	edges := g.Edges()
	edges[0].To = 0
	if g.Edges()[0].To != 1 {
		t.Error("Edges() should return a copy")
	}
}
