package executor

import (
	"context"
	"encoding/binary"
	"strconv"
	"time"

	"github.com/cockroachdb/apd/v3"
	"github.com/cockroachdb/errors"
	"github.com/kasuganosora/aggexec/pkg/expression"
	"github.com/kasuganosora/aggexec/pkg/logutil"
	"github.com/kasuganosora/aggexec/pkg/resource/domain"
	"github.com/kasuganosora/aggexec/pkg/types"
	"github.com/kasuganosora/aggexec/pkg/udaf"
	"github.com/kasuganosora/aggexec/pkg/utils"
	"go.uber.org/zap"
)

// GroupItem 分组列
type GroupItem struct {
	Name string
	Expr expression.Expression
}

// AggregateItem 聚合输出列
type AggregateItem struct {
	Name string
	Call *udaf.CallSite
}

// GroupAggregate evaluates user-defined aggregates over grouped input rows.
// One GroupAggregate may be executed any number of times, also concurrently;
// every Execute binds its own group context.
type GroupAggregate struct {
	Manager    *udaf.Manager
	Table      string
	GroupBy    []GroupItem
	Aggregates []AggregateItem
	// Output lists the output column names in order. Empty means the
	// group columns followed by the aggregates; group columns left out are
	// still grouped on.
	Output []string
	// Collation folds string group values, so values equal under the
	// collation fall into the same group.
	Collation string
	Logger    *zap.Logger

	prepared bool
}

// Prepare optimises the group-by expressions and resolves every call site.
// It must succeed before Execute.
func (g *GroupAggregate) Prepare(bctx *expression.BindContext) error {
	for i := range g.GroupBy {
		expr, err := g.GroupBy[i].Expr.Optimize(bctx)
		if err != nil {
			return errors.Wrapf(err, "group by %s", g.GroupBy[i].Name)
		}
		g.GroupBy[i].Expr = expr
	}
	for _, item := range g.Aggregates {
		if err := item.Call.ResolveTypes(bctx); err != nil {
			return err
		}
	}
	g.prepared = true
	return nil
}

// Schema 返回输出列
func (g *GroupAggregate) Schema() ([]domain.ColumnInfo, error) {
	cols := make([]domain.ColumnInfo, 0, len(g.GroupBy)+len(g.Aggregates))
	for _, item := range g.GroupBy {
		cols = append(cols, domain.ColumnInfo{Name: item.Name, Type: item.Expr.Type().String(), Nullable: true})
	}
	for _, item := range g.Aggregates {
		cols = append(cols, domain.ColumnInfo{Name: item.Name, Type: item.Call.Type().String(), Nullable: true})
	}
	if len(g.Output) == 0 {
		return cols, nil
	}

	out := make([]domain.ColumnInfo, 0, len(g.Output))
	for _, name := range g.Output {
		found := false
		for _, col := range cols {
			if col.Name == name {
				out = append(out, col)
				found = true
				break
			}
		}
		if !found {
			return nil, domain.NewErrColumnNotFound(name, g.Table)
		}
	}
	return out, nil
}

// Execute aggregates input and returns one row per group, in the order the
// groups were first seen. Without GROUP BY the result is always one row,
// even for empty input.
func (g *GroupAggregate) Execute(ctx context.Context, input *domain.QueryResult) (*domain.QueryResult, error) {
	if !g.prepared {
		return nil, errors.AssertionFailedf("group aggregate executed before Prepare")
	}
	logger := logutil.OrNop(g.Logger)
	schema, err := g.Schema()
	if err != nil {
		return nil, err
	}

	gc := g.Manager.BindGroupContext()
	defer gc.Release()

	firstSeen := make(map[udaf.GroupKey][]types.Value)
	var rows []domain.Row
	if input != nil {
		rows = input.Rows
	}
	for i, row := range rows {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		values, key, err := g.groupKey(row)
		if err != nil {
			return nil, err
		}
		if _, ok := firstSeen[key]; !ok {
			firstSeen[key] = values
		}
		gc.SetGroup(key)

		rowID := int64(i) + 1
		for _, item := range g.Aggregates {
			if err := g.Manager.Advance(gc, item.Call, row, rowID); err != nil {
				return nil, err
			}
		}
	}
	if len(g.GroupBy) == 0 && len(gc.Groups()) == 0 {
		gc.SetGroup("")
	}

	result := &domain.QueryResult{
		Columns: schema,
		Rows:    make([]domain.Row, 0, len(gc.Groups())),
	}
	for _, key := range gc.Groups() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		gc.SetGroup(key)
		full := make(domain.Row, len(g.GroupBy)+len(g.Aggregates))
		for i, item := range g.GroupBy {
			full[item.Name] = firstSeen[key][i].Object()
		}
		for _, item := range g.Aggregates {
			v, err := g.Manager.Finalize(gc, item.Call)
			if err != nil {
				return nil, err
			}
			full[item.Name] = v.Object()
		}
		out := make(domain.Row, len(schema))
		for _, col := range schema {
			out[col.Name] = full[col.Name]
		}
		result.Rows = append(result.Rows, out)
	}
	result.Total = int64(len(result.Rows))

	logger.Debug("group aggregate finished",
		zap.String("table", g.Table),
		zap.Int("input", len(rows)),
		zap.Int("groups", len(result.Rows)))
	return result, nil
}

// groupKey evaluates the group-by expressions for row and encodes them into
// a key. Each value is written as its type tag followed by its
// length-prefixed content.
func (g *GroupAggregate) groupKey(row domain.Row) ([]types.Value, udaf.GroupKey, error) {
	if len(g.GroupBy) == 0 {
		return nil, "", nil
	}
	values := make([]types.Value, len(g.GroupBy))
	var buf []byte
	for i, item := range g.GroupBy {
		v, err := item.Expr.Eval(row)
		if err != nil {
			return nil, "", errors.Wrapf(err, "group by %s", item.Name)
		}
		values[i] = v

		buf = append(buf, byte(v.Type()))
		if v.IsNull() {
			continue
		}
		content := g.keyContent(v)
		buf = binary.AppendUvarint(buf, uint64(len(content)))
		buf = append(buf, content...)
	}
	return values, udaf.GroupKey(buf), nil
}

// keyContent renders a non-NULL value so that values equal under SQL
// comparison share one encoding: strings by their collation sort key, -0 as
// 0, decimals without trailing zeros and timestamps in UTC.
func (g *GroupAggregate) keyContent(v types.Value) []byte {
	switch x := v.Object().(type) {
	case string:
		return utils.GetGlobalCollationEngine().SortKey(x, g.Collation)
	case []byte:
		return x
	case float32:
		return canonicalFloat(float64(x))
	case float64:
		return canonicalFloat(x)
	case *apd.Decimal:
		d := new(apd.Decimal)
		d.Reduce(x)
		if d.IsZero() {
			d.SetInt64(0)
		}
		return []byte(d.Text('E'))
	case time.Time:
		if v.Type() == types.TypeTimestamp {
			return []byte(x.UTC().Format(time.RFC3339Nano))
		}
	}
	return []byte(v.String())
}

func canonicalFloat(f float64) []byte {
	if f == 0 {
		f = 0
	}
	return strconv.AppendFloat(nil, f, 'g', -1, 64)
}
