// Package cli implements the recalc command-line interface.
package cli

import (
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/recalc/pkg/buildinfo"
	"github.com/matzehuels/recalc/pkg/engine"
	"github.com/matzehuels/recalc/pkg/manifest"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for display.
const appName = "recalc"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "Recalc recomputes dependent values incrementally",
		Long:         `Recalc loads a graph of named values from a TOML manifest, compiles the recomputation order of every node, and replays only the affected computations when an input changes.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())

	// Register all subcommands
	root.AddCommand(c.runCommand())
	root.AddCommand(c.orderCommand())
	root.AddCommand(c.graphCommand())
	root.AddCommand(c.checkCommand())
	root.AddCommand(c.editCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Graph Factory
// =============================================================================

// loadGraph reads a manifest and builds its graph. Build and update events
// reach the CLI logger through the registered LogHooks, so the engine keeps
// its default logger.
func (c *CLI) loadGraph(path string, opts ...engine.Option) (*manifest.File, *engine.Graph, error) {
	m, err := manifest.Load(path)
	if err != nil {
		return nil, nil, err
	}
	g, err := m.Build(opts...)
	if err != nil {
		return nil, nil, err
	}
	return m, g, nil
}
