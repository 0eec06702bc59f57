package expression

import (
	"strings"

	"github.com/kasuganosora/aggexec/pkg/resource/domain"
)

// ColumnResolver resolves column names against one table source.
type ColumnResolver interface {
	TableName() string
	ResolveColumn(name string) (domain.ColumnInfo, bool)
}

// TableResolver 基于列信息的列解析器，列名不区分大小写
type TableResolver struct {
	table   string
	columns map[string]domain.ColumnInfo
}

// NewTableResolver 创建列解析器
func NewTableResolver(table string, columns []domain.ColumnInfo) *TableResolver {
	r := &TableResolver{
		table:   table,
		columns: make(map[string]domain.ColumnInfo, len(columns)),
	}
	for _, col := range columns {
		r.columns[strings.ToLower(col.Name)] = col
	}
	return r
}

func (r *TableResolver) TableName() string { return r.table }

func (r *TableResolver) ResolveColumn(name string) (domain.ColumnInfo, bool) {
	col, ok := r.columns[strings.ToLower(name)]
	return col, ok
}
