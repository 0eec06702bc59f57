package expression

import (
	"github.com/cockroachdb/errors"
	"github.com/kasuganosora/aggexec/pkg/resource/domain"
	"github.com/kasuganosora/aggexec/pkg/types"
)

// ColumnRef 列引用表达式
type ColumnRef struct {
	Table string
	Name  string

	key         string
	typ         types.DataType
	mapped      bool
	level       int
	evaluatable bool
}

var _ Expression = (*ColumnRef)(nil)

// NewColumnRef 创建列引用
func NewColumnRef(table, name string) *ColumnRef {
	return &ColumnRef{Table: table, Name: name}
}

func (c *ColumnRef) Type() types.DataType { return c.typ }

// MapColumns binds the column to resolver when the resolver knows it. An
// already mapped column keeps its first binding.
func (c *ColumnRef) MapColumns(resolver ColumnResolver, level int) error {
	if c.mapped {
		return nil
	}
	if c.Table != "" && c.Table != resolver.TableName() {
		return nil
	}
	col, ok := resolver.ResolveColumn(c.Name)
	if !ok {
		return nil
	}
	typ, err := types.ParseTypeName(col.Type)
	if err != nil {
		return errors.Wrapf(err, "column %s", c.Name)
	}
	c.key = col.Name
	c.typ = typ
	c.mapped = true
	c.level = level
	c.evaluatable = true
	return nil
}

// Optimize fails for a column no resolver could bind.
func (c *ColumnRef) Optimize(*BindContext) (Expression, error) {
	if !c.mapped {
		return nil, domain.NewErrColumnNotFound(c.Name, c.Table)
	}
	return c, nil
}

// Level returns the resolver nesting level the column was mapped at.
func (c *ColumnRef) Level() int { return c.level }

func (c *ColumnRef) Eval(row domain.Row) (types.Value, error) {
	key := c.Name
	if c.mapped {
		key = c.key
	}
	obj, ok := row[key]
	if !ok {
		return types.Null, domain.NewErrColumnNotFound(c.Name, c.Table)
	}
	if !c.mapped {
		return types.FromGo(obj)
	}
	v, err := types.FromObject(obj, c.typ)
	if err != nil {
		var convErr *domain.ErrTypeConversion
		if errors.As(err, &convErr) {
			convErr.FieldName = c.Name
		}
		return types.Null, err
	}
	return v, nil
}

func (c *ColumnRef) SetEvaluatable(table string, b bool) {
	if c.Table == "" || c.Table == table {
		c.evaluatable = b
	}
}

func (c *ColumnRef) Accept(v *Visitor) bool {
	switch v.Kind() {
	case Evaluatable:
		return c.evaluatable
	case OptimizableMinMaxCount:
		return false
	default:
		return true
	}
}

func (c *ColumnRef) Cost() int { return 2 }

func (c *ColumnRef) SQL() string {
	if c.Table == "" {
		return QuoteIdentifier(c.Name)
	}
	return QuoteIdentifier(c.Table) + "." + QuoteIdentifier(c.Name)
}
