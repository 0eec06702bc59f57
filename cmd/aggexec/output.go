package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/kasuganosora/aggexec/pkg/builtin"
	"github.com/kasuganosora/aggexec/pkg/resource/domain"
)

// configureTable 创建带样式的表格输出
func configureTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	t.SetAutoIndex(false)
	t.Style().Options.SeparateRows = false
	return t
}

func cell(v interface{}) interface{} {
	if v == nil {
		return "NULL"
	}
	if s, ok := v.(fmt.Stringer); ok {
		return s.String()
	}
	return v
}

func renderTable(w io.Writer, res *domain.QueryResult) {
	t := configureTable(w)
	header := make(table.Row, len(res.Columns))
	for i, col := range res.Columns {
		header[i] = col.Name
	}
	t.AppendHeader(header)
	for _, row := range res.Rows {
		r := make(table.Row, len(res.Columns))
		for i, col := range res.Columns {
			r[i] = cell(row[col.Name])
		}
		t.AppendRow(r)
	}
	t.AppendFooter(table.Row{fmt.Sprintf("%d rows", res.Total)})
	t.Render()
}

func writeJSON(w io.Writer, res *domain.QueryResult) error {
	rows := make([]map[string]interface{}, len(res.Rows))
	for i, row := range res.Rows {
		out := make(map[string]interface{}, len(row))
		for name, v := range row {
			out[name] = cell(v)
		}
		rows[i] = out
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(struct {
		Columns []domain.ColumnInfo      `json:"columns"`
		Rows    []map[string]interface{} `json:"rows"`
		Total   int64                    `json:"total"`
	}{res.Columns, rows, res.Total})
}

func renderFunctions(w io.Writer, list []*builtin.FunctionInfo) {
	t := configureTable(w)
	t.AppendHeader(table.Row{"name", "description", "example"})
	for _, info := range list {
		t.AppendRow(table.Row{info.Name(), info.Description, info.Example})
	}
	t.Render()
}

func writeFunctionsJSON(w io.Writer, list []*builtin.FunctionInfo) error {
	type function struct {
		Name        string `json:"name"`
		Description string `json:"description"`
		Example     string `json:"example"`
	}
	out := make([]function, len(list))
	for i, info := range list {
		out[i] = function{info.Name(), info.Description, info.Example}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
