package cli

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/recalc/pkg/engine"
	errs "github.com/matzehuels/recalc/pkg/errors"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

// =============================================================================
// EditModel - Interactive value editing
// =============================================================================

// EditModel is the bubbletea model for nudging node values and watching the
// recomputation ripple through the graph.
type EditModel struct {
	ctx     context.Context
	graph   *engine.Graph
	values  []engine.NodeValue
	leaves  []bool
	Cursor  int
	Step    float64
	Changes []engine.Change
	Err     error
}

// NewEditModel creates an edit model over g. step is the amount +/- add.
func NewEditModel(ctx context.Context, g *engine.Graph, step float64) EditModel {
	m := EditModel{ctx: ctx, graph: g, Step: step}
	m.values = g.Snapshot()
	m.leaves = make([]bool, len(m.values))
	for i, nv := range m.values {
		m.leaves[i], _ = g.IsLeaf(nv.Name)
	}
	return m
}

func (m EditModel) Init() tea.Cmd {
	return nil
}

func (m EditModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.String() {
	case "q", "ctrl+c", "esc":
		return m, tea.Quit
	case "up", "k":
		if m.Cursor > 0 {
			m.Cursor--
		}
	case "down", "j":
		if m.Cursor < len(m.values)-1 {
			m.Cursor++
		}
	case "+", "=", "right", "l":
		m = m.nudge(m.Step)
	case "-", "left", "h":
		m = m.nudge(-m.Step)
	case "0":
		m = m.set(0)
	}
	return m, nil
}

// nudge adds delta to the selected node.
func (m EditModel) nudge(delta float64) EditModel {
	return m.set(m.values[m.Cursor].Value + delta)
}

// set assigns v to the selected node and refreshes the view state.
func (m EditModel) set(v float64) EditModel {
	changes, err := m.graph.Apply(m.ctx, m.values[m.Cursor].Name, v)
	m.Err = err
	if err == nil {
		m.Changes = changes
		m.values = m.graph.Snapshot()
	}
	return m
}

func (m EditModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Edit Values"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("↑/↓ select  +/- change by %s  0 zero  q quit", formatValue(m.Step))))
	b.WriteString("\n\n")

	touched := make(map[string]bool, len(m.Changes))
	for _, c := range m.Changes {
		touched[c.Name] = true
	}

	rows := make([][]string, len(m.values))
	for i, nv := range m.values {
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		kind := "leaf"
		if !m.leaves[i] {
			kind = "derived"
		}
		rows[i] = []string{cursor, nv.Name, kind, formatValue(nv.Value)}
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "Node", "Kind", "Value").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			if row < 0 || row >= len(m.values) {
				return lipgloss.NewStyle()
			}
			switch {
			case row == m.Cursor:
				return listSelectedStyle
			case col == 3 && touched[m.values[row].Name]:
				return StyleChanged
			case col == 2:
				return listDimStyle
			}
			return listNormalStyle
		})

	b.WriteString(t.Render())
	b.WriteString("\n")

	if m.Err != nil {
		b.WriteString(styleIconError.Render(iconError) + " " + errs.UserMessage(m.Err))
		b.WriteString("\n")
	}
	for _, c := range m.Changes {
		b.WriteString(fmt.Sprintf("  %s %s %s %s\n", c.Name,
			listDimStyle.Render(formatValue(c.Old)), listDimStyle.Render(iconArrow), StyleChanged.Render(formatValue(c.New))))
	}

	return b.String()
}

// =============================================================================
// Edit Command
// =============================================================================

// editCommand creates the edit command for interactive updates.
func (c *CLI) editCommand() *cobra.Command {
	var (
		step     float64
		leafOnly bool
	)

	cmd := &cobra.Command{
		Use:   "edit [manifest]",
		Short: "Interactively change node values",
		Long: `Open a terminal view of the manifest graph. Select a node and change its
value with +/-; every recomputed node is highlighted. Manifest steps are not applied.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var opts []engine.Option
			if leafOnly {
				opts = append(opts, engine.WithLeafOnlyUpdates())
			}
			_, g, err := c.loadGraph(args[0], opts...)
			if err != nil {
				return err
			}
			ctx := withLogger(cmd.Context(), c.Logger)
			p := tea.NewProgram(NewEditModel(ctx, g, step), tea.WithContext(ctx))
			final, err := p.Run()
			if err != nil {
				return err
			}
			if m, ok := final.(EditModel); ok {
				printSnapshot(cmd.OutOrStdout(), "Final values", m.values, nil)
			}
			return nil
		},
	}

	cmd.Flags().Float64Var(&step, "step", 1, "amount +/- change the selected value by")
	cmd.Flags().BoolVar(&leafOnly, "leaf-only", false, "reject updates of derived nodes")

	return cmd
}
