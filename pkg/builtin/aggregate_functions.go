package builtin

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/apd/v3"
	"github.com/cockroachdb/errors"
	"github.com/kasuganosora/aggexec/pkg/sqlhandle"
	"github.com/kasuganosora/aggexec/pkg/udaf"
	"github.com/kasuganosora/aggexec/pkg/utils"
	"github.com/lib/pq/oid"
)

// decimalContext 十进制运算上下文
var decimalContext = apd.BaseContext.WithPrecision(34)

// base carries the no-op Init shared by providers that never use the
// execution handle.
type base struct{}

func (base) Init(sqlhandle.Executor) error { return nil }

func isInteger(o oid.Oid) bool {
	return o == oid.T_int2 || o == oid.T_int4 || o == oid.T_int8
}

func isNumeric(o oid.Oid) bool {
	return isInteger(o) || o == oid.T_numeric || o == oid.T_float4 || o == oid.T_float8
}

func isText(o oid.Oid) bool {
	return o == oid.T_text || o == oid.T_varchar || o == oid.T_bpchar
}

func typeName(o oid.Oid) string {
	if name, ok := oid.TypeName[o]; ok {
		return name
	}
	return fmt.Sprintf("OID %d", uint32(o))
}

// toDecimal 转换为十进制数
func toDecimal(v interface{}) (*apd.Decimal, error) {
	d := new(apd.Decimal)
	switch x := v.(type) {
	case *apd.Decimal:
		d.Set(x)
	case float32:
		if _, err := d.SetFloat64(float64(x)); err != nil {
			return nil, err
		}
	case float64:
		if _, err := d.SetFloat64(x); err != nil {
			return nil, err
		}
	default:
		n, err := utils.ToInt64(v)
		if err != nil {
			return nil, err
		}
		d.SetInt64(n)
	}
	return d, nil
}

// countAll 统计行数
type countAll struct {
	base
	n int64
}

func (c *countAll) ResultType([]oid.Oid) (oid.Oid, error) { return oid.T_int8, nil }

func (c *countAll) Add(interface{}) error {
	c.n++
	return nil
}

func (c *countAll) Result() (interface{}, error) { return c.n, nil }

// intSum 整数求和
type intSum struct {
	base
	sum  int64
	seen bool
}

func (s *intSum) ResultType(argTypes []oid.Oid) (oid.Oid, error) {
	if len(argTypes) != 1 || !isInteger(argTypes[0]) {
		return 0, errors.New("int_sum accepts one integer argument")
	}
	return oid.T_int8, nil
}

func (s *intSum) Add(v interface{}) error {
	if v == nil {
		return nil
	}
	n, err := utils.ToInt64(v)
	if err != nil {
		return err
	}
	sum := s.sum + n
	if (n > 0 && sum < s.sum) || (n < 0 && sum > s.sum) {
		return errors.New("int_sum overflows BIGINT")
	}
	s.sum = sum
	s.seen = true
	return nil
}

func (s *intSum) Result() (interface{}, error) {
	if !s.seen {
		return nil, nil
	}
	return s.sum, nil
}

// numericSum sums any numeric argument exactly.
type numericSum struct {
	base
	sum   apd.Decimal
	count int64
}

func (s *numericSum) ResultType(argTypes []oid.Oid) (oid.Oid, error) {
	if len(argTypes) != 1 || !isNumeric(argTypes[0]) {
		return 0, errors.New("numeric_sum accepts one numeric argument")
	}
	return oid.T_numeric, nil
}

func (s *numericSum) Add(v interface{}) error {
	if v == nil {
		return nil
	}
	d, err := toDecimal(v)
	if err != nil {
		return err
	}
	if _, err := decimalContext.Add(&s.sum, &s.sum, d); err != nil {
		return err
	}
	s.count++
	return nil
}

func (s *numericSum) Result() (interface{}, error) {
	if s.count == 0 {
		return nil, nil
	}
	res := new(apd.Decimal)
	res.Set(&s.sum)
	return res, nil
}

// numericAvg 平均值
type numericAvg struct {
	numericSum
}

func (a *numericAvg) ResultType(argTypes []oid.Oid) (oid.Oid, error) {
	if len(argTypes) != 1 || !isNumeric(argTypes[0]) {
		return 0, errors.New("numeric_avg accepts one numeric argument")
	}
	return oid.T_numeric, nil
}

func (a *numericAvg) Result() (interface{}, error) {
	if a.count == 0 {
		return nil, nil
	}
	res := new(apd.Decimal)
	if _, err := decimalContext.Quo(res, &a.sum, apd.New(a.count, 0)); err != nil {
		return nil, err
	}
	res.Reduce(res)
	return res, nil
}

// stringAgg joins text values, by default with commas. An optional second
// argument gives the separator.
type stringAgg struct {
	base
	parts []string
	sep   string
}

func (s *stringAgg) ResultType(argTypes []oid.Oid) (oid.Oid, error) {
	if len(argTypes) < 1 || len(argTypes) > 2 {
		return 0, errors.New("string_agg accepts a value and an optional separator")
	}
	for _, t := range argTypes {
		if !isText(t) {
			return 0, errors.Newf("string_agg does not accept %s", typeName(t))
		}
	}
	return oid.T_text, nil
}

func (s *stringAgg) Add(v interface{}) error {
	sep := ","
	if args, ok := v.([]interface{}); ok {
		v = args[0]
		if str, ok := args[1].(string); ok {
			sep = str
		}
	}
	if v == nil {
		return nil
	}
	str, ok := v.(string)
	if !ok {
		return errors.Newf("string_agg expects text, got %T", v)
	}
	if len(s.parts) == 0 {
		s.sep = sep
	}
	s.parts = append(s.parts, str)
	return nil
}

func (s *stringAgg) Result() (interface{}, error) {
	if len(s.parts) == 0 {
		return nil, nil
	}
	return strings.Join(s.parts, s.sep), nil
}

// distinctCount counts distinct non-NULL values.
type distinctCount struct {
	base
	seen map[string]struct{}
}

func (c *distinctCount) ResultType(argTypes []oid.Oid) (oid.Oid, error) {
	if len(argTypes) != 1 {
		return 0, errors.New("distinct_count accepts one argument")
	}
	return oid.T_int8, nil
}

func (c *distinctCount) Add(v interface{}) error {
	if v == nil {
		return nil
	}
	if c.seen == nil {
		c.seen = make(map[string]struct{})
	}
	c.seen[fmt.Sprintf("%T:%s", v, utils.ToString(v))] = struct{}{}
	return nil
}

func (c *distinctCount) Result() (interface{}, error) { return int64(len(c.seen)), nil }

// aggregateFunctions lists the built-in providers.
func aggregateFunctions() []*FunctionInfo {
	return []*FunctionInfo{
		{
			Definition:  &udaf.Definition{Name: "count_all", New: func() udaf.AggregateFunction { return &countAll{} }},
			Description: "计算行数",
			Example:     "COUNT_ALL() -> 100",
		},
		{
			Definition:  &udaf.Definition{Name: "int_sum", New: func() udaf.AggregateFunction { return &intSum{} }},
			Description: "整数求和，溢出时报错",
			Example:     "INT_SUM(qty) -> 1000",
		},
		{
			Definition:  &udaf.Definition{Name: "numeric_sum", New: func() udaf.AggregateFunction { return &numericSum{} }},
			Description: "精确求和",
			Example:     "NUMERIC_SUM(price) -> 1000.50",
		},
		{
			Definition:  &udaf.Definition{Name: "numeric_avg", New: func() udaf.AggregateFunction { return &numericAvg{} }},
			Description: "精确平均值",
			Example:     "NUMERIC_AVG(price) -> 100.05",
		},
		{
			Definition:  &udaf.Definition{Name: "string_agg", New: func() udaf.AggregateFunction { return &stringAgg{} }},
			Description: "Concatenate strings with separator",
			Example:     "STRING_AGG(name, ' | ') -> 'a | b | c'",
		},
		{
			Definition:  &udaf.Definition{Name: "distinct_count", New: func() udaf.AggregateFunction { return &distinctCount{} }},
			Description: "Count distinct non-NULL values",
			Example:     "DISTINCT_COUNT(city) -> 12",
		},
	}
}
