// Package expression defines the row expressions evaluated by the grouped
// executor, and the context they are bound in.
package expression

import (
	"github.com/kasuganosora/aggexec/pkg/logutil"
	"github.com/kasuganosora/aggexec/pkg/resource/domain"
	"github.com/kasuganosora/aggexec/pkg/sqlhandle"
	"github.com/kasuganosora/aggexec/pkg/types"
	"go.uber.org/zap"
)

// Expression 表达式接口
type Expression interface {
	// Type returns the result type. It is TypeNull until the expression is
	// mapped or optimised.
	Type() types.DataType
	// Optimize returns the optimised form of the expression. The receiver
	// must be replaced by the result.
	Optimize(bctx *BindContext) (Expression, error)
	Eval(row domain.Row) (types.Value, error)
	MapColumns(resolver ColumnResolver, level int) error
	SetEvaluatable(table string, b bool)
	Accept(v *Visitor) bool
	Cost() int
	SQL() string
}

// BindContext carries what an expression needs while it is being resolved:
// the execution handle of the current session and a logger.
type BindContext struct {
	Handle sqlhandle.Executor
	Logger *zap.Logger
}

// NewBindContext 创建绑定上下文
func NewBindContext(handle sqlhandle.Executor, logger *zap.Logger) *BindContext {
	return &BindContext{Handle: handle, Logger: logger}
}

// Log returns the context logger, never nil.
func (b *BindContext) Log() *zap.Logger {
	if b == nil {
		return logutil.BgLogger()
	}
	return logutil.OrNop(b.Logger)
}

// OptimizeAll optimises each expression in place.
func OptimizeAll(bctx *BindContext, exprs []Expression) error {
	for i, e := range exprs {
		opt, err := e.Optimize(bctx)
		if err != nil {
			return err
		}
		exprs[i] = opt
	}
	return nil
}
