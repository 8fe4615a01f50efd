package cli

import (
	"context"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/recalc/pkg/engine"
	errs "github.com/matzehuels/recalc/pkg/errors"
	"github.com/matzehuels/recalc/pkg/manifest"
)

// runOptions holds options for the run command.
type runOptions struct {
	Sets     []string
	NoSteps  bool
	LeafOnly bool
	Quiet    bool
}

// runCommand creates the run command for replaying updates against a manifest.
func (c *CLI) runCommand() *cobra.Command {
	var opts runOptions

	cmd := &cobra.Command{
		Use:   "run [manifest]",
		Short: "Apply updates to a graph and print the resulting values",
		Long: `Build the graph declared in a manifest, apply its [[step]] updates followed
by any --set assignments, and print every change and the final values.`,
		Example: `  # Replay the steps declared in the manifest
  recalc run examples/fixture.toml

  # Apply extra updates after the steps
  recalc run examples/fixture.toml --set a=3 --set c=1.5

  # Ignore the manifest steps
  recalc run examples/fixture.toml --no-steps --set b=2`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runRun(cmd.Context(), cmd.OutOrStdout(), args[0], opts)
		},
	}

	cmd.Flags().StringArrayVar(&opts.Sets, "set", nil, "update name=value after the manifest steps (repeatable)")
	cmd.Flags().BoolVar(&opts.NoSteps, "no-steps", false, "skip the [[step]] updates declared in the manifest")
	cmd.Flags().BoolVar(&opts.LeafOnly, "leaf-only", false, "reject updates of derived nodes")
	cmd.Flags().BoolVarP(&opts.Quiet, "quiet", "q", false, "print only the final values")

	return cmd
}

// assignment is one name=value update.
type assignment struct {
	Name  string
	Value float64
}

// parseAssignment parses "name=value". Whitespace around either side is
// ignored.
func parseAssignment(s string) (assignment, error) {
	name, raw, ok := strings.Cut(s, "=")
	if !ok {
		return assignment{}, errs.New(errs.ErrCodeInvalidInput, "invalid assignment %q: want name=value", s)
	}
	name = strings.TrimSpace(name)
	if err := errs.ValidateNodeName(name); err != nil {
		return assignment{}, errs.Wrap(errs.ErrCodeInvalidInput, err, "invalid assignment %q", s)
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return assignment{}, errs.Wrap(errs.ErrCodeInvalidInput, err, "invalid assignment %q", s)
	}
	if math.IsNaN(v) {
		return assignment{}, errs.New(errs.ErrCodeInvalidInput, "invalid assignment %q: value is NaN", s)
	}
	return assignment{Name: name, Value: v}, nil
}

// updates collects the manifest steps and the --set assignments in the order
// they are applied.
func (o runOptions) updates(m *manifest.File) ([]assignment, error) {
	var out []assignment
	if !o.NoSteps {
		for _, s := range m.Steps {
			out = append(out, assignment{Name: s.Node, Value: s.Value})
		}
	}
	for _, s := range o.Sets {
		a, err := parseAssignment(s)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

// runRun applies every update in turn, printing the changes each one caused.
func (c *CLI) runRun(ctx context.Context, w io.Writer, path string, opts runOptions) error {
	ctx = withLogger(ctx, c.Logger)
	logger := loggerFromContext(ctx)
	prog := newProgress(logger)

	var extra []engine.Option
	if opts.LeafOnly {
		extra = append(extra, engine.WithLeafOnlyUpdates())
	}
	m, g, err := c.loadGraph(path, extra...)
	if err != nil {
		return err
	}
	updates, err := opts.updates(m)
	if err != nil {
		return err
	}
	logger.Debug("Loaded manifest", "path", path, "nodes", g.Len(), "edges", g.EdgeCount(), "updates", len(updates))

	if !opts.Quiet {
		printKeyValue(w, "Manifest", path)
		printKeyValue(w, "Graph", fmt.Sprintf("%d nodes, %d edges", g.Len(), g.EdgeCount()))
		printKeyValue(w, "Updates", strconv.Itoa(len(updates)))
		fmt.Fprintln(w)
		printSnapshot(w, "Initial values", g.Snapshot(), nil)
	}

	changed := make(map[string]bool)
	for i, u := range updates {
		if err := ctx.Err(); err != nil {
			return err
		}
		changes, err := g.Apply(ctx, u.Name, u.Value)
		if err != nil {
			return errs.Wrap(errs.GetCode(err), err, "update %d (%s=%s)", i+1, u.Name, formatValue(u.Value))
		}
		for _, ch := range changes {
			changed[ch.Name] = true
		}
		if opts.Quiet {
			continue
		}
		fmt.Fprintln(w)
		printInfo(w, "Set %s = %s", StyleHighlight.Render(u.Name), formatValue(u.Value))
		for _, ch := range changes {
			printChange(w, ch)
		}
	}

	if !opts.Quiet {
		fmt.Fprintln(w)
	}
	printSnapshot(w, "Final values", g.Snapshot(), changed)
	prog.done(fmt.Sprintf("Applied %d updates", len(updates)))
	return nil
}
