package cli

import (
	"context"
	"io"

	"github.com/spf13/cobra"

	errs "github.com/matzehuels/recalc/pkg/errors"
)

// checkCommand creates the check command for validating manifests.
func (c *CLI) checkCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "check [manifest...]",
		Short: "Validate manifests without applying updates",
		Long: `Parse each manifest and build its graph, reporting unknown dependencies,
cycles, bad expressions and steps that name missing nodes.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runCheck(cmd.Context(), cmd.OutOrStdout(), args)
		},
	}
}

// runCheck validates every path and fails if any of them is invalid.
func (c *CLI) runCheck(ctx context.Context, w io.Writer, paths []string) error {
	logger := loggerFromContext(withLogger(ctx, c.Logger))

	failed := 0
	for _, path := range paths {
		if err := c.check(path); err != nil {
			failed++
			printError(w, "%s", path)
			printDetail(w, "%s (%s)", errs.UserMessage(err), errs.GetCode(err))
			continue
		}
		printSuccess(w, "%s", path)
	}
	logger.Debug("Checked manifests", "total", len(paths), "failed", failed)

	if failed > 0 {
		return errs.New(errs.ErrCodeInvalidManifest, "%d of %d manifests invalid", failed, len(paths))
	}
	return nil
}

// check builds the manifest graph and verifies that every step names a node
// it may update.
func (c *CLI) check(path string) error {
	m, g, err := c.loadGraph(path)
	if err != nil {
		return err
	}
	for i, s := range m.Steps {
		leaf, err := g.IsLeaf(s.Node)
		if err != nil {
			return errs.Wrap(errs.GetCode(err), err, "step %d", i+1)
		}
		if !leaf && m.Settings.LeafOnlyUpdates {
			return errs.New(errs.ErrCodeDerivedNodeUpdate, "step %d: %q is derived and leaf_only_updates is set", i+1, s.Node)
		}
	}
	return nil
}
