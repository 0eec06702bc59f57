package parser

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/cockroachdb/datadriven"
	"github.com/cockroachdb/errors"
	"github.com/kasuganosora/aggexec/pkg/executor"
	"github.com/kasuganosora/aggexec/pkg/expression"
	"github.com/kasuganosora/aggexec/pkg/resource/domain"
	"github.com/kasuganosora/aggexec/pkg/testutils"
	"github.com/kasuganosora/aggexec/pkg/types"
	"github.com/kasuganosora/aggexec/pkg/udaf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var salesColumns = []domain.ColumnInfo{
	{Name: "k", Type: "VARCHAR"},
	{Name: "v", Type: "BIGINT"},
	{Name: "w", Type: "INT"},
}

func TestParser_ParseOneStmt(t *testing.T) {
	p := NewParser(nil)

	stmt, err := p.ParseOneStmt("SELECT k FROM sales GROUP BY k")
	require.NoError(t, err)
	assert.NotNil(t, stmt)

	_, err = p.ParseOneStmt("SELECT 1; SELECT 2")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected one statement")

	_, err = p.ParseOneStmt("SELEKT nothing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "解析 SQL 失败")
}

func TestBuild_Plan(t *testing.T) {
	plan, err := Build("SELECT k, int_sum(v) AS total, COUNT_ALL() FROM sales GROUP BY k",
		testutils.Lookup, salesColumns)
	require.NoError(t, err)

	assert.Equal(t, "sales", plan.Table)
	require.Len(t, plan.GroupBy, 1)
	assert.Equal(t, "k", plan.GroupBy[0].Name)
	require.Len(t, plan.Aggregates, 2)
	assert.Equal(t, "total", plan.Aggregates[0].Name)
	assert.Equal(t, "count_all", plan.Aggregates[1].Name)
	assert.Equal(t, []string{"k", "total", "count_all"}, plan.Output)

	total := plan.Aggregates[0].Call
	assert.Equal(t, "int_sum", total.Definition().Name)
	assert.Equal(t, "`int_sum`(`v`)", total.SQL())
	assert.Equal(t, udaf.SiteID(1), total.ID())
	assert.Equal(t, udaf.SiteID(2), plan.Aggregates[1].Call.ID())
	assert.False(t, total.Resolved())

	require.NoError(t, plan.Prepare(expression.NewBindContext(nil, nil)))
	assert.True(t, total.Resolved())
	assert.Equal(t, types.TypeBigInt, total.Type())
}

func TestBuild_Literals(t *testing.T) {
	plan, err := Build("SELECT mul_sum(v, -3) AS a, mul_sum((2), w) AS b, count_all(1.50, 'x', NULL, 2e0) AS c FROM sales",
		testutils.Lookup, salesColumns)
	require.NoError(t, err)
	require.Len(t, plan.Aggregates, 3)

	a := plan.Aggregates[0].Call.Args()
	require.Len(t, a, 2)
	c, ok := a[1].(*expression.Constant)
	require.True(t, ok)
	assert.Equal(t, types.TypeBigInt, c.Type())
	assert.Equal(t, int64(-3), c.Value.Object())

	b := plan.Aggregates[1].Call.Args()
	c, ok = b[0].(*expression.Constant)
	require.True(t, ok)
	assert.Equal(t, int64(2), c.Value.Object())

	lits := plan.Aggregates[2].Call.Args()
	require.Len(t, lits, 4)
	assert.Equal(t, types.TypeDecimal, lits[0].Type())
	assert.Equal(t, "1.50", lits[0].(*expression.Constant).Value.String())
	assert.Equal(t, types.TypeString, lits[1].Type())
	assert.Equal(t, types.TypeNull, lits[2].Type())
	assert.Equal(t, types.TypeDouble, lits[3].Type())
}

func TestBuild_DefaultNames(t *testing.T) {
	plan, err := Build("SELECT int_sum(v), int_sum(w), int_sum(v) AS int_sum_3, INT_SUM(w) FROM sales",
		testutils.Lookup, salesColumns)
	require.NoError(t, err)
	assert.Equal(t, []string{"int_sum", "int_sum_2", "int_sum_3", "int_sum_4"}, plan.Output)

	require.NoError(t, plan.Prepare(expression.NewBindContext(nil, nil)))
	res, err := plan.Execute(context.Background(), &domain.QueryResult{
		Columns: salesColumns,
		Rows:    []domain.Row{{"k": "a", "v": int64(1), "w": int64(10)}},
	})
	require.NoError(t, err)
	assert.Equal(t, []domain.Row{{"int_sum": int64(1), "int_sum_2": int64(10), "int_sum_3": int64(1), "int_sum_4": int64(10)}}, res.Rows)
}

func TestBuild_TableAlias(t *testing.T) {
	plan, err := Build("SELECT s.k AS region, int_sum(s.v) total FROM sales AS s GROUP BY s.k",
		testutils.Lookup, salesColumns)
	require.NoError(t, err)
	require.NoError(t, plan.Prepare(expression.NewBindContext(nil, nil)))
	assert.Equal(t, "sales", plan.Table)
	assert.Equal(t, []string{"region", "total"}, plan.Output)

	res, err := plan.Execute(context.Background(), &domain.QueryResult{
		Columns: salesColumns,
		Rows: []domain.Row{
			{"k": "east", "v": int64(1)},
			{"k": "east", "v": int64(2)},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, []domain.Row{{"region": "east", "total": int64(3)}}, res.Rows)
}

func TestBuild_Rejections(t *testing.T) {
	tests := []struct {
		name        string
		sql         string
		unsupported bool
		contains    string
	}{
		{"not a select", "DELETE FROM sales", true, "DeleteStmt"},
		{"builtin aggregate", "SELECT SUM(v) FROM sales", true, "built-in aggregate SUM"},
		{"unknown function", "SELECT nope(v) FROM sales", false, "unknown aggregate function nope"},
		{"where", "SELECT int_sum(v) FROM sales WHERE v > 1", true, "WHERE"},
		{"having", "SELECT k, int_sum(v) FROM sales GROUP BY k HAVING k = 'a'", true, "HAVING"},
		{"order by", "SELECT int_sum(v) FROM sales ORDER BY 1", true, "ORDER BY"},
		{"limit", "SELECT int_sum(v) FROM sales LIMIT 1", true, "LIMIT"},
		{"distinct", "SELECT DISTINCT k FROM sales GROUP BY k", true, "DISTINCT"},
		{"wildcard", "SELECT * FROM sales", true, "SELECT *"},
		{"no from", "SELECT int_sum(1)", true, "without FROM"},
		{"join", "SELECT int_sum(a.v) FROM sales a JOIN sales b", true, "JOIN"},
		{"subquery", "SELECT int_sum(v) FROM (SELECT v FROM sales) t", true, "other than a table"},
		{"ungrouped column", "SELECT k, int_sum(v) FROM sales", false, "must appear in GROUP BY"},
		{"expression group", "SELECT int_sum(v) FROM sales GROUP BY v + 1", true, "GROUP BY"},
		{"nested call", "SELECT int_sum(int_sum(v)) FROM sales", true, "argument 1 of int_sum"},
		{"duplicate name", "SELECT int_sum(v) AS a, count_all() AS a FROM sales", false, "duplicate output column a"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Build(tt.sql, testutils.Lookup, salesColumns)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.contains)
			assert.Equal(t, tt.unsupported, errors.Is(err, ErrUnsupported))
		})
	}
}

func TestTableName(t *testing.T) {
	name, err := TableName("SELECT int_sum(s.v) FROM Sales AS s")
	require.NoError(t, err)
	assert.Equal(t, "Sales", name)

	_, err = TableName("SELECT 1")
	assert.True(t, errors.Is(err, ErrUnsupported))

	_, err = TableName("UPDATE sales SET v = 1")
	assert.True(t, errors.Is(err, ErrUnsupported))
}

func TestBuild_UnknownColumnFailsAtPrepare(t *testing.T) {
	plan, err := Build("SELECT int_sum(missing) FROM sales", testutils.Lookup, salesColumns)
	require.NoError(t, err)

	err = plan.Prepare(expression.NewBindContext(nil, nil))
	require.Error(t, err)
	var notFound *domain.ErrColumnNotFound
	require.True(t, errors.As(err, &notFound))
	assert.Equal(t, "missing", notFound.ColumnName)
	assert.True(t, errors.Is(err, udaf.ErrTypeResolution))
}

// TestAggregateQueries runs the scenarios under testdata/. Commands:
//
//	table name=<t>            one "column TYPE" per input line
//	insert table=<t>          one comma separated row per input line, NULL for null
//	query table=<t> [collation=<c>]
//	count table=<t>
func TestAggregateQueries(t *testing.T) {
	datadriven.Walk(t, "testdata", func(t *testing.T, path string) {
		h := testutils.NewSQLiteTestHelper(t, nil)

		datadriven.RunTest(t, path, func(t *testing.T, d *datadriven.TestData) string {
			switch d.Cmd {
			case "table":
				var name string
				d.ScanArgs(t, "name", &name)
				info := &domain.TableInfo{Name: name}
				for _, line := range strings.Split(strings.TrimSpace(d.Input), "\n") {
					fields := strings.Fields(line)
					require.Len(t, fields, 2, "column line %q", line)
					info.Columns = append(info.Columns, domain.ColumnInfo{Name: fields[0], Type: fields[1], Nullable: true})
				}
				h.CreateTable(t, info)
				return "ok"

			case "insert":
				var name string
				d.ScanArgs(t, "table", &name)
				info, ok := h.Table(name)
				require.True(t, ok, "unknown table %s", name)
				var rows []domain.Row
				for _, line := range strings.Split(strings.TrimSpace(d.Input), "\n") {
					parts := strings.Split(line, ",")
					require.Len(t, parts, len(info.Columns), "row %q", line)
					row := make(domain.Row, len(parts))
					for i, part := range parts {
						part = strings.TrimSpace(part)
						if strings.EqualFold(part, "NULL") {
							row[info.Columns[i].Name] = nil
							continue
						}
						row[info.Columns[i].Name] = part
					}
					rows = append(rows, row)
				}
				h.InsertData(t, name, rows)
				return fmt.Sprintf("%d rows", len(rows))

			case "query":
				var name, collation string
				d.ScanArgs(t, "table", &name)
				if d.HasArg("collation") {
					d.ScanArgs(t, "collation", &collation)
				}
				info, ok := h.Table(name)
				require.True(t, ok, "unknown table %s", name)
				return runQuery(h, info, collation, d.Input)

			case "count":
				var name string
				d.ScanArgs(t, "table", &name)
				return fmt.Sprintf("%d", h.Count(t, name))

			default:
				t.Fatalf("unknown command %s", d.Cmd)
				return ""
			}
		})
	})
}

func runQuery(h *testutils.SQLiteTestHelper, info *domain.TableInfo, collation, sql string) string {
	b := &Builder{Lookup: testutils.Lookup, Columns: info.Columns, Collation: collation}
	plan, err := b.Build(strings.TrimSpace(sql))
	if err != nil {
		return describeError(err)
	}
	if err := plan.Prepare(expression.NewBindContext(h.Handle(), nil)); err != nil {
		return describeError(err)
	}
	scan := &executor.TableScan{Handle: h.Handle(), Table: plan.Table, Columns: info.Columns}
	input, err := scan.Execute(h.Context())
	if err != nil {
		return describeError(err)
	}
	res, err := plan.Execute(h.Context(), input)
	if err != nil {
		return describeError(err)
	}
	return formatResult(res)
}

func describeError(err error) string {
	class := "error"
	switch {
	case errors.Is(err, udaf.ErrTypeResolution):
		class = "type resolution error"
	case errors.Is(err, udaf.ErrAggregateEvaluation):
		class = "evaluation error"
	case errors.Is(err, udaf.ErrInvalidAggregateContext):
		class = "context error"
	case errors.Is(err, ErrUnsupported):
		return errors.UnwrapAll(err).Error()
	}
	return class + ": " + errors.UnwrapAll(err).Error()
}

func formatResult(res *domain.QueryResult) string {
	var sb strings.Builder
	for i, col := range res.Columns {
		if i > 0 {
			sb.WriteString(" | ")
		}
		sb.WriteString(col.Name + ":" + col.Type)
	}
	sb.WriteByte('\n')
	for _, row := range res.Rows {
		for i, col := range res.Columns {
			if i > 0 {
				sb.WriteString(" | ")
			}
			if v := row[col.Name]; v == nil {
				sb.WriteString("NULL")
			} else {
				fmt.Fprint(&sb, v)
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
