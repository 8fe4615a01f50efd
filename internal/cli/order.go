package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
)

// orderCommand creates the order command for printing compiled update orders.
func (c *CLI) orderCommand() *cobra.Command {
	var nodes []string

	cmd := &cobra.Command{
		Use:   "order [manifest]",
		Short: "Print the recomputation order of each node",
		Long: `Print, for every node of the manifest graph, the nodes recomputed when it
changes, in the order they are recomputed. Sinks print an empty order.`,
		Example: `  recalc order examples/fixture.toml
  recalc order examples/fixture.toml --node a --node b`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runOrder(cmd.Context(), cmd.OutOrStdout(), args[0], nodes)
		},
	}

	cmd.Flags().StringSliceVarP(&nodes, "node", "n", nil, "limit output to these nodes")

	return cmd
}

// runOrder prints one line per node: "a → d, e".
func (c *CLI) runOrder(ctx context.Context, w io.Writer, path string, nodes []string) error {
	_, g, err := c.loadGraph(path)
	if err != nil {
		return err
	}
	loggerFromContext(withLogger(ctx, c.Logger)).Debug("Compiled update orders", "nodes", g.Len())

	if len(nodes) == 0 {
		nodes = g.Names()
	}

	width := 0
	for _, n := range nodes {
		width = max(width, len(n))
	}

	for _, n := range nodes {
		order, err := g.UpdateOrder(n)
		if err != nil {
			return err
		}
		rest := StyleDim.Render("(none)")
		if len(order) > 0 {
			rest = StyleValue.Render(strings.Join(order, ", "))
		}
		fmt.Fprintf(w, "%s %s %s\n", StyleHighlight.Render(fmt.Sprintf("%-*s", width, n)), StyleDim.Render(iconArrow), rest)
	}
	return nil
}
