package parser

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/apd/v3"
	"github.com/cockroachdb/errors"
	"github.com/kasuganosora/aggexec/pkg/executor"
	"github.com/kasuganosora/aggexec/pkg/expression"
	"github.com/kasuganosora/aggexec/pkg/logutil"
	"github.com/kasuganosora/aggexec/pkg/resource/domain"
	"github.com/kasuganosora/aggexec/pkg/types"
	"github.com/kasuganosora/aggexec/pkg/udaf"
	"github.com/pingcap/tidb/pkg/parser/ast"
	"github.com/pingcap/tidb/pkg/parser/format"
	"github.com/pingcap/tidb/pkg/parser/opcode"
	"go.uber.org/zap"
)

// Lookup resolves a function name to a registered aggregate definition.
type Lookup func(name string) (*udaf.Definition, bool)

// ErrUnsupported marks statements outside the grouped aggregate subset.
var ErrUnsupported = errors.New("unsupported statement")

// Builder turns grouped aggregate queries into executor plans.
type Builder struct {
	Lookup    Lookup
	Columns   []domain.ColumnInfo
	Collation string
	Logger    *zap.Logger
}

// Build plans sql against a table with the given columns. The statement must
// have the form
//
//	SELECT <group column | aggregate call> [AS alias], ...
//	FROM <table> [AS alias] [GROUP BY <column>, ...]
//
// where every aggregate call names a function lookup knows and takes column
// references or literals. The plan still has to be prepared.
func Build(sql string, lookup Lookup, columns []domain.ColumnInfo) (*executor.GroupAggregate, error) {
	b := &Builder{Lookup: lookup, Columns: columns}
	return b.Build(sql)
}

// Build 解析并构建分组聚合计划
func (b *Builder) Build(sql string) (*executor.GroupAggregate, error) {
	stmt, err := NewParser(b.Logger).ParseOneStmt(sql)
	if err != nil {
		return nil, err
	}
	sel, ok := stmt.(*ast.SelectStmt)
	if !ok {
		return nil, unsupported("%T", stmt)
	}
	if err := checkClauses(sel); err != nil {
		return nil, err
	}

	table, alias, err := tableOf(sel)
	if err != nil {
		return nil, err
	}
	resolver := expression.NewTableResolver(alias, b.Columns)

	plan := &executor.GroupAggregate{
		Manager:   udaf.NewManager(b.Logger),
		Table:     table,
		Collation: b.Collation,
		Logger:    b.Logger,
	}

	if sel.GroupBy != nil {
		for _, item := range sel.GroupBy.Items {
			c, ok := item.Expr.(*ast.ColumnNameExpr)
			if !ok {
				return nil, unsupported("GROUP BY %s", restore(item.Expr))
			}
			ref := columnRef(c)
			if err := ref.MapColumns(resolver, 0); err != nil {
				return nil, err
			}
			plan.GroupBy = append(plan.GroupBy, executor.GroupItem{Name: c.Name.Name.O, Expr: ref})
		}
	}

	seen := make(map[string]bool)
	for _, field := range sel.Fields.Fields {
		if field.WildCard != nil {
			return nil, unsupported("SELECT *")
		}

		var name string
		switch e := field.Expr.(type) {
		case *ast.ColumnNameExpr:
			idx := groupIndex(plan.GroupBy, e.Name.Name.L)
			if idx < 0 {
				return nil, errors.Newf("column %s must appear in GROUP BY", e.Name.Name.O)
			}
			name = plan.GroupBy[idx].Name
			if field.AsName.L != "" && field.AsName.O != name {
				// 别名列：复制一份分组项，以别名输出
				ref := columnRef(e)
				if err := ref.MapColumns(resolver, 0); err != nil {
					return nil, err
				}
				name = field.AsName.O
				plan.GroupBy = append(plan.GroupBy, executor.GroupItem{Name: name, Expr: ref})
			}

		case *ast.FuncCallExpr:
			def, ok := b.Lookup(e.FnName.L)
			if !ok {
				return nil, errors.Newf("unknown aggregate function %s", e.FnName.O)
			}
			args := make([]expression.Expression, len(e.Args))
			for i, arg := range e.Args {
				args[i], err = argument(arg)
				if err != nil {
					return nil, errors.Wrapf(err, "argument %d of %s", i+1, e.FnName.O)
				}
			}
			cs := plan.Manager.NewCallSite(def, args...)
			if err := cs.MapColumns(resolver, 0); err != nil {
				return nil, err
			}
			if field.AsName.L != "" {
				name = field.AsName.O
			} else {
				// 未命名的聚合列：重名时追加序号
				name = e.FnName.L
				for n := 2; seen[strings.ToLower(name)]; n++ {
					name = fmt.Sprintf("%s_%d", e.FnName.L, n)
				}
			}
			plan.Aggregates = append(plan.Aggregates, executor.AggregateItem{Name: name, Call: cs})

		case *ast.AggregateFuncExpr:
			return nil, unsupported("built-in aggregate %s", strings.ToUpper(e.F))

		default:
			return nil, unsupported("select expression %s", restore(field.Expr))
		}

		if seen[strings.ToLower(name)] {
			return nil, errors.Newf("duplicate output column %s", name)
		}
		seen[strings.ToLower(name)] = true
		plan.Output = append(plan.Output, name)
	}

	logutil.OrNop(b.Logger).Debug("aggregate plan built",
		zap.String("table", table),
		zap.Int("groups", len(plan.GroupBy)),
		zap.Int("aggregates", len(plan.Aggregates)))
	return plan, nil
}

// TableName returns the table a grouped aggregate query reads from, so
// callers can describe it before building the plan.
func TableName(sql string) (string, error) {
	stmt, err := NewParser(nil).ParseOneStmt(sql)
	if err != nil {
		return "", err
	}
	sel, ok := stmt.(*ast.SelectStmt)
	if !ok {
		return "", unsupported("%T", stmt)
	}
	table, _, err := tableOf(sel)
	return table, err
}

func checkClauses(sel *ast.SelectStmt) error {
	switch {
	case sel.Distinct:
		return unsupported("DISTINCT")
	case sel.Where != nil:
		return unsupported("WHERE")
	case sel.Having != nil:
		return unsupported("HAVING")
	case sel.OrderBy != nil:
		return unsupported("ORDER BY")
	case sel.Limit != nil:
		return unsupported("LIMIT")
	case sel.Fields == nil || len(sel.Fields.Fields) == 0:
		return unsupported("empty select list")
	}
	return nil
}

// tableOf returns the single table of the FROM clause and the name columns
// are qualified with.
func tableOf(sel *ast.SelectStmt) (string, string, error) {
	if sel.From == nil || sel.From.TableRefs == nil {
		return "", "", unsupported("SELECT without FROM")
	}
	if sel.From.TableRefs.Right != nil {
		return "", "", unsupported("JOIN")
	}
	if tableSource, ok := sel.From.TableRefs.Left.(*ast.TableSource); ok {
		if tableName, ok := tableSource.Source.(*ast.TableName); ok {
			alias := tableName.Name.L
			if tableSource.AsName.L != "" {
				alias = tableSource.AsName.L
			}
			return tableName.Name.O, alias, nil
		}
	}
	return "", "", unsupported("FROM clause other than a table")
}

func columnRef(c *ast.ColumnNameExpr) *expression.ColumnRef {
	return expression.NewColumnRef(c.Name.Table.L, c.Name.Name.O)
}

func groupIndex(items []executor.GroupItem, name string) int {
	for i, item := range items {
		if ref, ok := item.Expr.(*expression.ColumnRef); ok && strings.EqualFold(ref.Name, name) {
			return i
		}
	}
	return -1
}

// argument converts an aggregate argument: a column reference or a literal,
// possibly negated or parenthesised.
func argument(node ast.ExprNode) (expression.Expression, error) {
	switch e := node.(type) {
	case *ast.ColumnNameExpr:
		return columnRef(e), nil
	case *ast.ParenthesesExpr:
		return argument(e.Expr)
	case *ast.UnaryOperationExpr:
		if e.Op != opcode.Minus {
			break
		}
		inner, err := argument(e.V)
		if err != nil {
			return nil, err
		}
		c, ok := inner.(*expression.Constant)
		if !ok {
			break
		}
		v, err := negate(c.Value)
		if err != nil {
			return nil, err
		}
		return expression.NewConstant(v), nil
	case ast.ValueExpr:
		v, err := literal(e.GetValue())
		if err != nil {
			return nil, err
		}
		return expression.NewConstant(v), nil
	}
	return nil, unsupported("argument %s", restore(node))
}

// literal converts a parser literal value.
func literal(obj interface{}) (types.Value, error) {
	switch x := obj.(type) {
	case nil, int64, uint64, float64, string, []byte:
		return types.FromGo(x)
	case fmt.Stringer:
		// 十进制字面量
		d, _, err := apd.NewFromString(x.String())
		if err != nil {
			return types.Null, domain.NewErrTypeConversion(x.String(), "LITERAL", types.TypeDecimal.String(), err.Error())
		}
		return types.NewDecimal(d), nil
	}
	return types.Null, domain.NewErrTypeConversion(obj, "LITERAL", "VALUE", fmt.Sprintf("unsupported literal %T", obj))
}

func negate(v types.Value) (types.Value, error) {
	switch v.Type() {
	case types.TypeNull:
		return v, nil
	case types.TypeBigInt:
		return types.NewBigInt(-v.Object().(int64)), nil
	case types.TypeDouble:
		return types.NewDouble(-v.Object().(float64)), nil
	case types.TypeDecimal:
		d := new(apd.Decimal)
		d.Neg(v.Object().(*apd.Decimal))
		return types.NewDecimal(d), nil
	}
	return types.Null, domain.NewErrTypeConversion(v.String(), v.Type().String(), "NUMERIC", "cannot negate")
}

func restore(node ast.Node) string {
	var sb strings.Builder
	if err := node.Restore(format.NewRestoreCtx(format.DefaultRestoreFlags, &sb)); err != nil {
		return fmt.Sprintf("%T", node)
	}
	return sb.String()
}

func unsupported(format string, args ...interface{}) error {
	return errors.Mark(errors.Newf("unsupported: "+format, args...), ErrUnsupported)
}
