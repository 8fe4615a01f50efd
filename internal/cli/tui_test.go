package cli

import (
	"context"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/matzehuels/recalc/pkg/engine"
	errs "github.com/matzehuels/recalc/pkg/errors"
)

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func loadFixture(t *testing.T, opts ...engine.Option) *engine.Graph {
	t.Helper()
	c := New(&strings.Builder{}, log.InfoLevel)
	_, g, err := c.loadGraph("testdata/fixture.toml", opts...)
	if err != nil {
		t.Fatalf("loadGraph() error = %v", err)
	}
	return g
}

func press(m EditModel, keys ...tea.Msg) EditModel {
	for _, k := range keys {
		next, _ := m.Update(k)
		m = next.(EditModel)
	}
	return m
}

func TestEditModelNudge(t *testing.T) {
	g := loadFixture(t)
	m := NewEditModel(context.Background(), g, 1)

	// a: 1 -> 2, recomputing d and e
	m = press(m, runes("+"))
	if m.Err != nil {
		t.Fatalf("nudge error = %v", m.Err)
	}
	if len(m.Changes) != 3 {
		t.Errorf("changes = %+v, want a, d and e", m.Changes)
	}
	if v, _ := g.ValueOf("e"); v != 500 {
		t.Errorf("ValueOf(e) = %v, want 500", v)
	}

	// move to c and lower it
	m = press(m, tea.KeyMsg{Type: tea.KeyDown}, tea.KeyMsg{Type: tea.KeyDown}, runes("-"))
	if m.Cursor != 2 {
		t.Fatalf("Cursor = %d, want 2", m.Cursor)
	}
	if v, _ := g.ValueOf("c"); v != 9 {
		t.Errorf("ValueOf(c) = %v, want 9", v)
	}

	if view := m.View(); !strings.Contains(view, "450") {
		t.Errorf("View() missing e=450:\n%s", view)
	}
}

func TestEditModelCursorBounds(t *testing.T) {
	m := NewEditModel(context.Background(), loadFixture(t), 1)
	m = press(m, tea.KeyMsg{Type: tea.KeyUp})
	if m.Cursor != 0 {
		t.Errorf("Cursor = %d after up at top, want 0", m.Cursor)
	}
	for range 10 {
		m = press(m, runes("j"))
	}
	if m.Cursor != 4 {
		t.Errorf("Cursor = %d after moving past the end, want 4", m.Cursor)
	}
}

func TestEditModelLeafOnly(t *testing.T) {
	m := NewEditModel(context.Background(), loadFixture(t, engine.WithLeafOnlyUpdates()), 1)
	m = press(m, runes("j"), runes("j"), runes("j"), runes("0"))
	if !errs.Is(m.Err, errs.ErrCodeDerivedNodeUpdate) {
		t.Errorf("Err = %v, want %s", m.Err, errs.ErrCodeDerivedNodeUpdate)
	}
	if !strings.Contains(m.View(), "derived") {
		t.Error("View() does not label derived nodes")
	}
}

func TestEditModelQuit(t *testing.T) {
	m := NewEditModel(context.Background(), loadFixture(t), 1)
	if _, cmd := m.Update(runes("q")); cmd == nil {
		t.Error("q did not return a quit command")
	}
}
