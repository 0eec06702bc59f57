package domain

// TableInfo describes the input relation an aggregate query reads from.
type TableInfo struct {
	Name    string       `json:"name"`
	Schema  string       `json:"schema,omitempty"`
	Columns []ColumnInfo `json:"columns"`
}

// ColumnInfo 列信息
type ColumnInfo struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Nullable bool   `json:"nullable"`
}

// Row 行数据
type Row map[string]interface{}

// QueryResult 查询结果
type QueryResult struct {
	Columns []ColumnInfo `json:"columns"`
	Rows    []Row        `json:"rows"`
	Total   int64        `json:"total"`
}

// ColumnNames returns the column names of the result in order.
func (r *QueryResult) ColumnNames() []string {
	names := make([]string, 0, len(r.Columns))
	for _, col := range r.Columns {
		names = append(names, col.Name)
	}
	return names
}
