package udaf

import (
	"math"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/redact"
	"github.com/kasuganosora/aggexec/pkg/coercion"
	"github.com/kasuganosora/aggexec/pkg/expression"
	"github.com/kasuganosora/aggexec/pkg/resource/domain"
	"github.com/kasuganosora/aggexec/pkg/sqlhandle"
	"github.com/kasuganosora/aggexec/pkg/types"
	"github.com/lib/pq/oid"
	"go.uber.org/zap"
)

// SiteID identifies a call site within the Manager that issued it.
type SiteID int32

// CallSite is one invocation of a user-defined aggregate in a query. It is
// built by Manager.NewCallSite and resolved once by ResolveTypes; after that
// it is not modified.
type CallSite struct {
	id    SiteID
	owner *Manager
	def   *Definition
	args  []expression.Expression

	resolved   bool
	argTypes   []types.DataType
	resultType types.DataType
	handle     sqlhandle.Executor
}

var _ expression.Expression = (*CallSite)(nil)
var _ redact.SafeFormatter = (*CallSite)(nil)

// ID 返回调用点标识
func (cs *CallSite) ID() SiteID { return cs.id }

// Definition 返回聚合定义
func (cs *CallSite) Definition() *Definition { return cs.def }

// Args returns the argument expressions, optimised once resolved.
func (cs *CallSite) Args() []expression.Expression { return cs.args }

// ArgTypes returns the resolved argument types; nil before ResolveTypes.
func (cs *CallSite) ArgTypes() []types.DataType { return cs.argTypes }

// Resolved reports whether ResolveTypes has succeeded.
func (cs *CallSite) Resolved() bool { return cs.resolved }

// ResolveTypes optimises every argument, records its type, and asks a probe
// instance of the provider for the result type. Running it again derives
// the same types. On failure nothing on the call site changes and the
// error is ErrTypeResolution.
func (cs *CallSite) ResolveTypes(bctx *expression.BindContext) error {
	args := make([]expression.Expression, len(cs.args))
	copy(args, cs.args)
	if err := expression.OptimizeAll(bctx, args); err != nil {
		return typeResolutionError(cs, err)
	}
	argTypes := make([]types.DataType, len(args))
	for i, a := range args {
		argTypes[i] = a.Type()
	}

	var handle sqlhandle.Executor
	if bctx != nil {
		handle = bctx.Handle
	}
	probe, err := Instantiate(cs.def, handle)
	if err != nil {
		return typeResolutionError(cs, err)
	}

	var resultOID oid.Oid
	if err := protect("result type", func() error {
		var err error
		resultOID, err = probe.ResultType(coercion.ProviderTypes(argTypes))
		return err
	}); err != nil {
		return typeResolutionError(cs, err)
	}
	resultType, err := coercion.InternalType(resultOID)
	if err != nil {
		return typeResolutionError(cs, err)
	}

	cs.args = args
	cs.argTypes = argTypes
	cs.resultType = resultType
	cs.handle = handle
	cs.resolved = true

	bctx.Log().Debug("aggregate resolved",
		zap.String("aggregate", cs.def.Name),
		zap.Int32("site", int32(cs.id)),
		zap.Stringers("args", argTypes),
		zap.Stringer("result", resultType))
	return nil
}

// Type returns the resolved result type, TypeNull before resolution.
func (cs *CallSite) Type() types.DataType { return cs.resultType }

// Optimize resolves the call site and returns it.
func (cs *CallSite) Optimize(bctx *expression.BindContext) (expression.Expression, error) {
	if err := cs.ResolveTypes(bctx); err != nil {
		return nil, err
	}
	return cs, nil
}

// Eval always fails: an aggregate has no value for a single row. Use
// Manager.Advance and Manager.Finalize instead.
func (cs *CallSite) Eval(domain.Row) (types.Value, error) {
	return types.Null, invalidContextError(cs)
}

func (cs *CallSite) MapColumns(resolver expression.ColumnResolver, level int) error {
	for _, a := range cs.args {
		if err := a.MapColumns(resolver, level); err != nil {
			return err
		}
	}
	return nil
}

func (cs *CallSite) SetEvaluatable(table string, b bool) {
	for _, a := range cs.args {
		a.SetEvaluatable(table, b)
	}
}

// Accept reports the definition as a dependency. A user-defined aggregate is
// never deterministic nor answerable from index metadata.
func (cs *CallSite) Accept(v *expression.Visitor) bool {
	switch v.Kind() {
	case expression.Deterministic, expression.OptimizableMinMaxCount:
		return false
	case expression.Dependencies:
		v.AddDependency(cs.def)
	}
	return expression.AcceptAll(v, cs.args)
}

func (cs *CallSite) Cost() int {
	cost := 5
	for _, a := range cs.args {
		cost += a.Cost()
	}
	return cost
}

// Precision 结果精度，不限
func (cs *CallSite) Precision() int64 { return math.MaxInt32 }

// DisplaySize 显示宽度，不限
func (cs *CallSite) DisplaySize() int { return math.MaxInt32 }

// Scale returns the default scale of the result type.
func (cs *CallSite) Scale() int { return cs.resultType.DefaultScale() }

// SQL renders the call as name(arg, ...).
func (cs *CallSite) SQL() string {
	var sb strings.Builder
	sb.WriteString(expression.QuoteIdentifier(cs.def.Name))
	sb.WriteByte('(')
	for i, a := range cs.args {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(a.SQL())
	}
	sb.WriteByte(')')
	return sb.String()
}

func (cs *CallSite) String() string { return cs.SQL() }

// SafeFormat renders the provider name as safe and the arguments, which may
// carry literals from the query, as redactable.
func (cs *CallSite) SafeFormat(w redact.SafePrinter, _ rune) {
	w.SafeString(redact.SafeString(expression.QuoteIdentifier(cs.def.Name)))
	w.SafeRune('(')
	for i, a := range cs.args {
		if i > 0 {
			w.SafeString(", ")
		}
		w.UnsafeString(a.SQL())
	}
	w.SafeRune(')')
}

func (cs *CallSite) mustBeResolved() error {
	if !cs.resolved {
		return errors.AssertionFailedf("aggregate %s used before its types were resolved", cs)
	}
	return nil
}
