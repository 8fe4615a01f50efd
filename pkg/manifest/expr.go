package manifest

import (
	"math"
	"slices"
	"sort"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
	"github.com/zclconf/go-cty/cty/function/stdlib"

	"github.com/matzehuels/recalc/pkg/engine"
	errs "github.com/matzehuels/recalc/pkg/errors"
)

// functions are the calls available inside node expressions.
var functions = map[string]function.Function{
	"abs":    stdlib.AbsoluteFunc,
	"ceil":   stdlib.CeilFunc,
	"floor":  stdlib.FloorFunc,
	"log":    stdlib.LogFunc,
	"max":    stdlib.MaxFunc,
	"min":    stdlib.MinFunc,
	"pow":    stdlib.PowFunc,
	"signum": stdlib.SignumFunc,
}

// Expression is a parsed arithmetic expression in HCL native syntax, e.g.
// "b * d * c" or "max(a, b) / 2".
type Expression struct {
	src  string
	expr hclsyntax.Expression
	refs []string
}

// ParseExpression parses src. filename only labels diagnostics. Calls to
// functions outside the supported set are rejected here rather than at
// evaluation time.
func ParseExpression(src, filename string) (*Expression, error) {
	expr, diags := hclsyntax.ParseExpression([]byte(src), filename, hcl.Pos{Line: 1, Column: 1, Byte: 0})
	if diags.HasErrors() {
		return nil, errs.Wrap(errs.ErrCodeInvalidExpression, diags, "parse %q", src)
	}

	var unknown []string
	hclsyntax.VisitAll(expr, func(n hclsyntax.Node) hcl.Diagnostics {
		if call, ok := n.(*hclsyntax.FunctionCallExpr); ok {
			if _, known := functions[call.Name]; !known {
				unknown = append(unknown, call.Name)
			}
		}
		return nil
	})
	if len(unknown) > 0 {
		return nil, errs.New(errs.ErrCodeInvalidExpression, "%q calls unknown function %q", src, unknown[0])
	}

	return &Expression{src: src, expr: expr, refs: references(expr)}, nil
}

// references returns the distinct root names an expression reads, sorted
// for deterministic output.
func references(expr hcl.Expression) []string {
	seen := make(map[string]struct{})
	for _, traversal := range expr.Variables() {
		seen[traversal.RootName()] = struct{}{}
	}
	refs := make([]string, 0, len(seen))
	for name := range seen {
		refs = append(refs, name)
	}
	sort.Strings(refs)
	return refs
}

// String returns the expression source.
func (e *Expression) String() string { return e.src }

// References returns the node names the expression reads.
func (e *Expression) References() []string { return slices.Clone(e.refs) }

// Eval evaluates the expression, resolving each referenced name with lookup.
func (e *Expression) Eval(lookup func(name string) (float64, error)) (float64, error) {
	vars := make(map[string]cty.Value, len(e.refs))
	for _, name := range e.refs {
		v, err := lookup(name)
		if err != nil {
			return 0, err
		}
		// cty numbers are big.Float, which has no NaN.
		if math.IsNaN(v) {
			return 0, errs.New(errs.ErrCodeInvalidExpression, "%q reads %s = NaN", e.src, name)
		}
		vars[name] = cty.NumberFloatVal(v)
	}

	val, diags := e.expr.Value(&hcl.EvalContext{Variables: vars, Functions: functions})
	if diags.HasErrors() {
		return 0, errs.Wrap(errs.ErrCodeInvalidExpression, diags, "evaluate %q", e.src)
	}
	if val.IsNull() || !val.IsKnown() {
		return 0, errs.New(errs.ErrCodeInvalidExpression, "%q evaluated to no value", e.src)
	}
	if !val.Type().Equals(cty.Number) {
		return 0, errs.New(errs.ErrCodeInvalidExpression, "%q evaluated to %s, want number", e.src, val.Type().FriendlyName())
	}
	f, _ := val.AsBigFloat().Float64()
	return f, nil
}

// Compute adapts the expression to an engine compute function reading its
// inputs from the scope.
func (e *Expression) Compute() engine.ComputeFunc {
	return func(s *engine.Scope) (float64, error) {
		return e.Eval(s.Value)
	}
}
