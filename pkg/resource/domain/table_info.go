package domain

import (
	"errors"
	"fmt"
	"strings"
)

// HasColumn checks if a column exists, ignoring case
func (t *TableInfo) HasColumn(columnName string) bool {
	_, ok := t.GetColumn(columnName)
	return ok
}

// GetColumn retrieves a column by name, ignoring case
func (t *TableInfo) GetColumn(columnName string) (ColumnInfo, bool) {
	for _, col := range t.Columns {
		if strings.EqualFold(col.Name, columnName) {
			return col, true
		}
	}
	return ColumnInfo{}, false
}

// GetColumnNames returns all column names
func (t *TableInfo) GetColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, col := range t.Columns {
		names[i] = col.Name
	}
	return names
}

// Validate validates the table structure
func (t *TableInfo) Validate() error {
	if t.Name == "" {
		return errors.New("table name cannot be empty")
	}

	if len(t.Columns) == 0 {
		return errors.New("table must have at least one column")
	}

	// 列名不区分大小写，不允许重复
	seen := make(map[string]bool)
	for _, col := range t.Columns {
		key := strings.ToLower(col.Name)
		if seen[key] {
			return fmt.Errorf("duplicate column name: %s", col.Name)
		}
		seen[key] = true

		if err := col.Validate(); err != nil {
			return fmt.Errorf("invalid column %s: %w", col.Name, err)
		}
	}

	return nil
}

// Clone creates a deep copy of the TableInfo
func (t *TableInfo) Clone() *TableInfo {
	clone := *t
	clone.Columns = append([]ColumnInfo(nil), t.Columns...)
	return &clone
}

// FullName returns schema.name, or name when there is no schema
func (t *TableInfo) FullName() string {
	if t.Schema != "" {
		return t.Schema + "." + t.Name
	}
	return t.Name
}

// Validate validates the column definition
func (c ColumnInfo) Validate() error {
	if c.Name == "" {
		return errors.New("column name cannot be empty")
	}

	if c.Type == "" {
		return errors.New("column type cannot be empty")
	}

	return nil
}
