// Package testutils holds fixtures shared by package tests: an in-memory
// SQLite database and the providers only tests register.
package testutils

import (
	"context"
	"strings"
	"testing"

	"github.com/kasuganosora/aggexec/pkg/config"
	"github.com/kasuganosora/aggexec/pkg/expression"
	"github.com/kasuganosora/aggexec/pkg/resource/domain"
	"github.com/kasuganosora/aggexec/pkg/sqlhandle"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// SQLiteTestHelper 内存数据库测试辅助器
// 提供快速创建表和数据的能力
type SQLiteTestHelper struct {
	conn   *sqlhandle.Conn
	ctx    context.Context
	tables map[string]*domain.TableInfo
}

// NewSQLiteTestHelper opens a private in-memory database, closed when the
// test ends.
func NewSQLiteTestHelper(t *testing.T, logger *zap.Logger) *SQLiteTestHelper {
	ctx := context.Background()
	conn, err := sqlhandle.Open(ctx, config.HandleConfig{Driver: "sqlite", DSN: ":memory:", MaxOpen: 1}, logger)
	require.NoError(t, err, "Failed to open sqlite")
	t.Cleanup(func() { _ = conn.Close() })

	return &SQLiteTestHelper{
		conn:   conn,
		ctx:    ctx,
		tables: make(map[string]*domain.TableInfo),
	}
}

// Handle 获取执行句柄
func (h *SQLiteTestHelper) Handle() *sqlhandle.Conn {
	return h.conn
}

// Context 获取测试context
func (h *SQLiteTestHelper) Context() context.Context {
	return h.ctx
}

// Table returns the definition of a table created through the helper.
func (h *SQLiteTestHelper) Table(name string) (*domain.TableInfo, bool) {
	info, ok := h.tables[strings.ToLower(name)]
	return info, ok
}

// CreateTable 创建测试表
func (h *SQLiteTestHelper) CreateTable(t *testing.T, tableInfo *domain.TableInfo) {
	require.NoError(t, tableInfo.Validate())
	defs := make([]string, len(tableInfo.Columns))
	for i, col := range tableInfo.Columns {
		defs[i] = expression.QuoteIdentifier(col.Name) + " " + col.Type
		if !col.Nullable {
			defs[i] += " NOT NULL"
		}
	}
	stmt := "CREATE TABLE " + expression.QuoteIdentifier(tableInfo.Name) + " (" + strings.Join(defs, ", ") + ")"
	_, err := h.conn.ExecContext(h.ctx, stmt)
	require.NoError(t, err, "Failed to create table %s", tableInfo.Name)
	h.tables[strings.ToLower(tableInfo.Name)] = tableInfo
}

// InsertData 插入测试数据
func (h *SQLiteTestHelper) InsertData(t *testing.T, tableName string, rows []domain.Row) {
	info, ok := h.Table(tableName)
	require.True(t, ok, "unknown table %s", tableName)

	names := make([]string, len(info.Columns))
	marks := make([]string, len(info.Columns))
	for i, col := range info.Columns {
		names[i] = expression.QuoteIdentifier(col.Name)
		marks[i] = "?"
	}
	stmt := "INSERT INTO " + expression.QuoteIdentifier(info.Name) +
		" (" + strings.Join(names, ", ") + ") VALUES (" + strings.Join(marks, ", ") + ")"
	for _, row := range rows {
		args := make([]interface{}, len(info.Columns))
		for i, col := range info.Columns {
			args[i] = row[col.Name]
		}
		_, err := h.conn.ExecContext(h.ctx, stmt, args...)
		require.NoError(t, err, "Failed to insert data into %s", tableName)
	}
}

// Count returns the number of rows in table.
func (h *SQLiteTestHelper) Count(t *testing.T, table string) int64 {
	var n int64
	err := h.conn.QueryRowContext(h.ctx, "SELECT COUNT(*) FROM "+expression.QuoteIdentifier(table)).Scan(&n)
	require.NoError(t, err, "Failed to count %s", table)
	return n
}
