package expression

import (
	"encoding/hex"
	"strings"

	"github.com/kasuganosora/aggexec/pkg/resource/domain"
	"github.com/kasuganosora/aggexec/pkg/types"
)

// Constant 常量表达式
type Constant struct {
	Value types.Value
}

var _ Expression = (*Constant)(nil)

// NewConstant 创建常量
func NewConstant(v types.Value) *Constant {
	return &Constant{Value: v}
}

func (c *Constant) Type() types.DataType { return c.Value.Type() }
func (c *Constant) Optimize(*BindContext) (Expression, error) { return c, nil }
func (c *Constant) Eval(domain.Row) (types.Value, error) { return c.Value, nil }
func (c *Constant) MapColumns(ColumnResolver, int) error { return nil }
func (c *Constant) SetEvaluatable(string, bool) {}
func (c *Constant) Accept(*Visitor) bool { return true }
func (c *Constant) Cost() int { return 0 }

// SQL renders the value as a literal.
func (c *Constant) SQL() string {
	v := c.Value
	switch v.Type() {
	case types.TypeNull:
		return "NULL"
	case types.TypeBoolean, types.TypeSmallInt, types.TypeInt, types.TypeBigInt,
		types.TypeDecimal, types.TypeReal, types.TypeDouble:
		return v.String()
	case types.TypeBytes:
		return "X'" + strings.ToUpper(hex.EncodeToString(v.Object().([]byte))) + "'"
	case types.TypeDate, types.TypeTime, types.TypeTimestamp:
		return v.Type().String() + " " + QuoteString(v.String())
	default:
		return QuoteString(v.String())
	}
}
