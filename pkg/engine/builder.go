package engine

import (
	"errors"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/recalc/pkg/dag"
	errs "github.com/matzehuels/recalc/pkg/errors"
	"github.com/matzehuels/recalc/pkg/observability"
)

// Option configures a Graph at build time.
type Option func(*options)

type options struct {
	logger   *log.Logger
	observer Observer
	leafOnly bool
}

// WithLogger sets the logger used for debug output. Defaults to log.Default().
func WithLogger(l *log.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithObserver registers a callback receiving every change of a successful
// update, in replay order.
func WithObserver(fn Observer) Option {
	return func(o *options) { o.observer = fn }
}

// WithLeafOnlyUpdates makes Update reject derived nodes with
// DERIVED_NODE_UPDATE. Without it a derived node may be overwritten
// directly and keeps that value until one of its inputs changes.
func WithLeafOnlyUpdates() Option {
	return func(o *options) { o.leafOnly = true }
}

// Builder accumulates node specs and compiles them into a Graph.
// The zero value is not usable - use NewBuilder.
type Builder struct {
	specs []NodeSpec
	opts  options
}

// NewBuilder returns an empty builder.
func NewBuilder(opts ...Option) *Builder {
	b := &Builder{opts: options{logger: log.Default()}}
	for _, opt := range opts {
		opt(&b.opts)
	}
	return b
}

// Add appends specs in order. Ids are assigned in the order specs are added
// across all calls.
func (b *Builder) Add(specs ...NodeSpec) *Builder {
	b.specs = append(b.specs, specs...)
	return b
}

// Len returns the number of specs added so far.
func (b *Builder) Len() int { return len(b.specs) }

// Build validates the specs, derives the dependency graph and compiles the
// update order of every node. On error no graph is returned.
//
// Dependency names are resolved only after every node is registered, so a
// spec may name a node that is added after it.
func (b *Builder) Build() (*Graph, error) {
	start := time.Now()
	topo := dag.New()

	g, err := b.build(topo)
	observability.Engine().OnBuild(topo.NodeCount(), topo.EdgeCount(), time.Since(start), err)
	if err != nil {
		b.opts.logger.Debug("build rejected", "nodes", topo.NodeCount(), "err", err)
		return nil, err
	}
	b.opts.logger.Debug("built graph",
		"nodes", topo.NodeCount(),
		"edges", topo.EdgeCount(),
		"duration", time.Since(start))
	return g, nil
}

func (b *Builder) build(topo *dag.DAG) (*Graph, error) {
	g := &Graph{
		topo:     topo,
		index:    make(map[string]int, len(b.specs)),
		names:    make([]string, 0, len(b.specs)),
		values:   make([]float64, 0, len(b.specs)),
		compute:  make([]ComputeFunc, 0, len(b.specs)),
		logger:   b.opts.logger,
		observer: b.opts.observer,
		leafOnly: b.opts.leafOnly,
	}

	for i, spec := range b.specs {
		if err := errs.ValidateNodeName(spec.Name); err != nil {
			return nil, err
		}
		id, err := topo.AddNode(spec.Name)
		if errors.Is(err, dag.ErrDuplicateNodeID) {
			return nil, errs.New(errs.ErrCodeDuplicateNode, "node %q declared more than once", spec.Name)
		}
		if err != nil {
			return nil, errs.Wrap(errs.ErrCodeInvalidNodeName, err, "register %q", spec.Name)
		}
		if id != i {
			return nil, errs.New(errs.ErrCodeInternal, "node %q got id %d at position %d", spec.Name, id, i)
		}
		g.index[spec.Name] = id
		g.names = append(g.names, spec.Name)
		g.values = append(g.values, spec.Value)
		g.compute = append(g.compute, spec.Compute)
	}

	for id, spec := range b.specs {
		for _, dep := range spec.DependsOn {
			from, ok := topo.ID(dep)
			if !ok {
				return nil, errs.New(errs.ErrCodeUnknownDependency, "%q depends on unknown node %q", spec.Name, dep)
			}
			if _, err := topo.AddEdge(from, id); err != nil {
				return nil, errs.Wrap(errs.ErrCodeInternal, err, "link %q -> %q", dep, spec.Name)
			}
		}
	}

	if err := topo.Validate(); err != nil {
		var ce *dag.CycleError
		if errors.As(err, &ce) {
			return nil, errs.Wrap(errs.ErrCodeCyclicDependency, err, "cannot order updates")
		}
		return nil, errs.Wrap(errs.ErrCodeInternal, err, "invalid graph")
	}

	for id, spec := range b.specs {
		derived := topo.InDegree(id) > 0
		switch {
		case derived && spec.Compute == nil:
			return nil, errs.New(errs.ErrCodeMissingComputeFunction, "%q has dependencies but no compute function", spec.Name)
		case !derived && spec.Compute != nil:
			return nil, errs.New(errs.ErrCodeUnexpectedComputeFunction, "%q has a compute function but no dependencies", spec.Name)
		}
	}

	orders, err := compileOrders(topo)
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeCyclicDependency, err, "cannot order updates")
	}
	g.orders = orders
	g.scratch = make([]float64, len(g.values))
	return g, nil
}
