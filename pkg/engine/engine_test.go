package engine

import (
	"bytes"
	"context"
	"errors"
	"slices"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	errs "github.com/matzehuels/recalc/pkg/errors"
)

func product(names ...string) ComputeFunc {
	return func(s *Scope) (float64, error) {
		v := 1.0
		for _, n := range names {
			v *= s.Get(n)
		}
		return v, nil
	}
}

// fixtureSpecs is the a/b/c/d/e graph: d = a*b, e = b*d*c. d and e start
// with values that are not yet consistent with their inputs.
func fixtureSpecs() []NodeSpec {
	return []NodeSpec{
		Leaf("a", 1),
		Leaf("b", 5),
		Leaf("c", 10),
		Derived("d", 64, []string{"a", "b"}, product("a", "b")),
		Derived("e", 32, []string{"b", "d", "c"}, product("b", "d", "c")),
	}
}

func buildFixture(t *testing.T, opts ...Option) *Graph {
	t.Helper()
	g, err := NewBuilder(opts...).Add(fixtureSpecs()...).Build()
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	return g
}

func snapshotValues(g *Graph) []float64 {
	var out []float64
	for _, nv := range g.Snapshot() {
		out = append(out, nv.Value)
	}
	return out
}

func TestEndToEndScenario(t *testing.T) {
	g := buildFixture(t)
	ctx := context.Background()

	if got := snapshotValues(g); !slices.Equal(got, []float64{1, 5, 10, 64, 32}) {
		t.Fatalf("initial snapshot = %v, want [1 5 10 64 32]", got)
	}

	steps := []struct {
		node      string
		value     float64
		wantOrder []string
		want      []float64
	}{
		{"a", 2, []string{"d", "e"}, []float64{2, 5, 10, 10, 500}},
		{"b", 3, []string{"d", "e"}, []float64{2, 3, 10, 6, 180}},
		{"c", 4, []string{"e"}, []float64{2, 3, 4, 6, 72}},
	}

	for _, step := range steps {
		order, err := g.UpdateOrder(step.node)
		if err != nil {
			t.Fatalf("UpdateOrder(%q) error = %v", step.node, err)
		}
		if !slices.Equal(order, step.wantOrder) {
			t.Errorf("UpdateOrder(%q) = %v, want %v", step.node, order, step.wantOrder)
		}
		if err := g.Update(ctx, step.node, step.value); err != nil {
			t.Fatalf("Update(%q, %v) error = %v", step.node, step.value, err)
		}
		if got := snapshotValues(g); !slices.Equal(got, step.want) {
			t.Errorf("after Update(%q, %v) snapshot = %v, want %v", step.node, step.value, got, step.want)
		}
	}
}

func TestSnapshotNamesInIDOrder(t *testing.T) {
	g := buildFixture(t)
	var names []string
	for _, nv := range g.Snapshot() {
		names = append(names, nv.Name)
	}
	if !slices.Equal(names, []string{"a", "b", "c", "d", "e"}) {
		t.Errorf("snapshot names = %v", names)
	}
	if !slices.Equal(g.Names(), names) {
		t.Errorf("Names() = %v, want %v", g.Names(), names)
	}
}

func TestValueOf(t *testing.T) {
	g := buildFixture(t)

	v, err := g.ValueOf("c")
	if err != nil || v != 10 {
		t.Errorf("ValueOf(c) = %v, %v; want 10, nil", v, err)
	}

	if _, err := g.ValueOf("zzz"); !errs.Is(err, errs.ErrCodeNodeNotFound) {
		t.Errorf("ValueOf(zzz) error = %v, want %s", err, errs.ErrCodeNodeNotFound)
	}
}

func TestUpdateUnknownNodeLeavesValues(t *testing.T) {
	g := buildFixture(t)
	before := snapshotValues(g)

	err := g.Update(context.Background(), "zzz", 1.0)
	if !errs.Is(err, errs.ErrCodeNodeNotFound) {
		t.Fatalf("Update(zzz) error = %v, want %s", err, errs.ErrCodeNodeNotFound)
	}
	if got := snapshotValues(g); !slices.Equal(got, before) {
		t.Errorf("snapshot changed to %v, want %v", got, before)
	}
}

func TestObserverReceivesChangesInReplayOrder(t *testing.T) {
	var got []Change
	g := buildFixture(t, WithObserver(func(c Change) { got = append(got, c) }))

	if err := g.Update(context.Background(), "a", 2); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	want := []Change{
		{Name: "a", Old: 1, New: 2, Direct: true},
		{Name: "d", Old: 64, New: 10},
		{Name: "e", Old: 32, New: 500},
	}
	if !slices.Equal(got, want) {
		t.Errorf("changes = %+v, want %+v", got, want)
	}
}

func TestApplyReturnsChanges(t *testing.T) {
	g := buildFixture(t)

	changes, err := g.Apply(context.Background(), "c", 4)
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	want := []Change{
		{Name: "c", Old: 10, New: 4, Direct: true},
		{Name: "e", Old: 32, New: 5 * 64 * 4},
	}
	if !slices.Equal(changes, want) {
		t.Errorf("changes = %+v, want %+v", changes, want)
	}
}

func TestUpdateSinkHasNoRecomputation(t *testing.T) {
	g := buildFixture(t)

	changes, err := g.Apply(context.Background(), "e", 7)
	if err != nil {
		t.Fatalf("Apply(e) error = %v", err)
	}
	if len(changes) != 1 {
		t.Errorf("changes = %+v, want only the direct change", changes)
	}
	if v, _ := g.ValueOf("e"); v != 7 {
		t.Errorf("ValueOf(e) = %v, want 7", v)
	}
}

func TestDerivedOverride(t *testing.T) {
	t.Run("permitted by default", func(t *testing.T) {
		g := buildFixture(t)
		ctx := context.Background()

		if err := g.Update(ctx, "d", 100); err != nil {
			t.Fatalf("Update(d) error = %v", err)
		}
		// e reads the overridden d
		if v, _ := g.ValueOf("e"); v != 5*100*10 {
			t.Errorf("ValueOf(e) = %v, want %v", v, 5*100*10)
		}
		// a change upstream recomputes d again
		if err := g.Update(ctx, "a", 3); err != nil {
			t.Fatalf("Update(a) error = %v", err)
		}
		if v, _ := g.ValueOf("d"); v != 15 {
			t.Errorf("ValueOf(d) = %v, want 15", v)
		}
	})

	t.Run("rejected in leaf-only mode", func(t *testing.T) {
		g := buildFixture(t, WithLeafOnlyUpdates())
		before := snapshotValues(g)

		err := g.Update(context.Background(), "d", 100)
		if !errs.Is(err, errs.ErrCodeDerivedNodeUpdate) {
			t.Fatalf("Update(d) error = %v, want %s", err, errs.ErrCodeDerivedNodeUpdate)
		}
		if got := snapshotValues(g); !slices.Equal(got, before) {
			t.Errorf("snapshot changed to %v, want %v", got, before)
		}
		if err := g.Update(context.Background(), "a", 2); err != nil {
			t.Errorf("Update(a) error = %v", err)
		}
	})
}

func TestComputeFailureIsAtomic(t *testing.T) {
	boom := errors.New("boom")
	var observed int
	g, err := NewBuilder(WithObserver(func(Change) { observed++ })).Add(
		Leaf("x", 1),
		Derived("y", 0, []string{"x"}, product("x")),
		Derived("z", 0, []string{"y"}, func(s *Scope) (float64, error) {
			if s.Get("y") > 10 {
				return 0, boom
			}
			return s.Get("y") + 1, nil
		}),
	).Build()
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	ctx := context.Background()

	if err := g.Update(ctx, "x", 5); err != nil {
		t.Fatalf("Update(x, 5) error = %v", err)
	}
	before := snapshotValues(g)
	observed = 0

	err = g.Update(ctx, "x", 50)
	if !errs.Is(err, errs.ErrCodeComputeFailed) {
		t.Fatalf("Update(x, 50) error = %v, want %s", err, errs.ErrCodeComputeFailed)
	}
	if !errors.Is(err, boom) {
		t.Errorf("Update(x, 50) error = %v, want wrapped %v", err, boom)
	}
	if got := snapshotValues(g); !slices.Equal(got, before) {
		t.Errorf("snapshot = %v, want unchanged %v", got, before)
	}
	if observed != 0 {
		t.Errorf("observer saw %d changes of a failed update", observed)
	}

	// the graph stays usable
	if err := g.Update(ctx, "x", 2); err != nil {
		t.Fatalf("Update(x, 2) error = %v", err)
	}
	if v, _ := g.ValueOf("z"); v != 3 {
		t.Errorf("ValueOf(z) = %v, want 3", v)
	}
}

func TestInvalidComputeReference(t *testing.T) {
	g, err := NewBuilder().Add(
		Leaf("x", 1),
		Derived("y", 0, []string{"x"}, func(s *Scope) (float64, error) {
			return s.Get("x") + s.Get("typo"), nil
		}),
	).Build()
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	err = g.Update(context.Background(), "x", 2)
	if !errs.Is(err, errs.ErrCodeInvalidComputeReference) {
		t.Fatalf("Update() error = %v, want %s", err, errs.ErrCodeInvalidComputeReference)
	}
	if v, _ := g.ValueOf("x"); v != 1 {
		t.Errorf("ValueOf(x) = %v, want 1", v)
	}
}

func TestScope(t *testing.T) {
	var leaked *Scope
	g, err := NewBuilder().Add(
		Leaf("x", 4),
		Derived("y", 7, []string{"x"}, func(s *Scope) (float64, error) {
			leaked = s
			if s.Name() != "y" {
				t.Errorf("Name() = %q, want y", s.Name())
			}
			x, err := s.Value("x")
			if err != nil {
				return 0, err
			}
			return s.Self() + x, nil
		}),
	).Build()
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	if err := g.Update(context.Background(), "x", 1); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if v, _ := g.ValueOf("y"); v != 8 {
		t.Errorf("ValueOf(y) = %v, want 8", v)
	}

	if _, err := leaked.Value("x"); err == nil {
		t.Error("Value() on a released scope should fail")
	}
}

func TestAccessors(t *testing.T) {
	g := buildFixture(t)

	if g.Len() != 5 || g.EdgeCount() != 5 {
		t.Errorf("Len() = %d, EdgeCount() = %d; want 5, 5", g.Len(), g.EdgeCount())
	}

	leaf, err := g.IsLeaf("b")
	if err != nil || !leaf {
		t.Errorf("IsLeaf(b) = %v, %v; want true", leaf, err)
	}
	leaf, _ = g.IsLeaf("d")
	if leaf {
		t.Error("IsLeaf(d) = true, want false")
	}

	deps, _ := g.Dependencies("e")
	if !slices.Equal(deps, []string{"b", "d", "c"}) {
		t.Errorf("Dependencies(e) = %v", deps)
	}
	dependents, _ := g.Dependents("b")
	if !slices.Equal(dependents, []string{"d", "e"}) {
		t.Errorf("Dependents(b) = %v", dependents)
	}

	wantEdges := []Edge{{"a", "d"}, {"b", "d"}, {"b", "e"}, {"d", "e"}, {"c", "e"}}
	if got := g.Edges(); !slices.Equal(got, wantEdges) {
		t.Errorf("Edges() = %v, want %v", got, wantEdges)
	}

	for _, fn := range []func(string) ([]string, error){g.Dependencies, g.Dependents, g.UpdateOrder} {
		if _, err := fn("zzz"); !errs.Is(err, errs.ErrCodeNodeNotFound) {
			t.Errorf("lookup of zzz error = %v, want %s", err, errs.ErrCodeNodeNotFound)
		}
	}
}

func TestWithLogger(t *testing.T) {
	var buf bytes.Buffer
	l := log.NewWithOptions(&buf, log.Options{Level: log.DebugLevel})
	g := buildFixture(t, WithLogger(l))
	if err := g.Update(context.Background(), "a", 2); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	out := buf.String()
	for _, want := range []string{"built graph", "updated node"} {
		if !strings.Contains(out, want) {
			t.Errorf("log missing %q:\n%s", want, out)
		}
	}
}
