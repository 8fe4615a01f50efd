package cli

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/recalc/pkg/observability"
)

// newLogger creates a new logger with timestamp formatting.
// The logger writes to w and filters messages at the specified level.
// Timestamps are formatted as "HH:MM:SS.ms" (e.g., "14:32:01.45").
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// progress tracks the start time of an operation and logs completion with elapsed duration.
// It is safe for sequential use by a single goroutine; concurrent calls to done will race.
type progress struct {
	logger *log.Logger
	start  time.Time
}

// newProgress creates a progress tracker that captures the current time as start.
func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg along with the elapsed time since progress was created.
// Example output: "Applied 3 steps (1ms)"
func (p *progress) done(msg string) {
	p.logger.Infof("%s (%s)", msg, time.Since(p.start).Round(time.Millisecond))
}

// ctxKey is the type for context keys used in this package.
type ctxKey int

// loggerKey is the context key for storing a logger.
const loggerKey ctxKey = 0

// withLogger returns a new context with the given logger attached.
func withLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// loggerFromContext retrieves the logger from ctx.
// If no logger is attached, it returns log.Default().
func loggerFromContext(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(loggerKey).(*log.Logger); ok {
		return l
	}
	return log.Default()
}

// =============================================================================
// Engine Hooks
// =============================================================================

// LogHooks reports engine events at debug level. Update events use the
// logger attached to the context when there is one.
type LogHooks struct {
	Logger *log.Logger
}

// Hooks returns engine hooks bound to the CLI logger, for registration with
// observability.SetEngineHooks.
func (c *CLI) Hooks() *LogHooks {
	return &LogHooks{Logger: c.Logger}
}

// OnBuild implements observability.EngineHooks.
func (h *LogHooks) OnBuild(nodeCount, edgeCount int, d time.Duration, err error) {
	if err != nil {
		h.Logger.Debug("build failed", "nodes", nodeCount, "edges", edgeCount, "err", err)
		return
	}
	h.Logger.Debug("build finished", "nodes", nodeCount, "edges", edgeCount, "duration", d)
}

// OnUpdate implements observability.EngineHooks.
func (h *LogHooks) OnUpdate(ctx context.Context, name string, recomputed int, d time.Duration, err error) {
	l := h.Logger
	if cl, ok := ctx.Value(loggerKey).(*log.Logger); ok {
		l = cl
	}
	if err != nil {
		l.Debug("update failed", "node", name, "err", err)
		return
	}
	l.Debug("update finished", "node", name, "recomputed", recomputed, "duration", d)
}

var _ observability.EngineHooks = (*LogHooks)(nil)
