package domain

import "fmt"

// ErrColumnNotFound 列不存在错误
type ErrColumnNotFound struct {
	ColumnName string
	TableName  string
}

func (e *ErrColumnNotFound) Error() string {
	if e.TableName == "" {
		return fmt.Sprintf("column %s not found", e.ColumnName)
	}
	return fmt.Sprintf("column %s not found in table %s", e.ColumnName, e.TableName)
}

// ErrTypeConversion 类型转换错误
type ErrTypeConversion struct {
	FieldName string
	FromType  string
	ToType    string
	Value     interface{}
	Reason    string
}

func (e *ErrTypeConversion) Error() string {
	msg := fmt.Sprintf("cannot convert %v from %s to %s", e.Value, e.FromType, e.ToType)
	if e.FieldName != "" {
		msg = fmt.Sprintf("type conversion failed for field %s: %s", e.FieldName, msg)
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

// ErrInvalidConfig 配置无效错误
type ErrInvalidConfig struct {
	ConfigKey string
	Message   string
}

func (e *ErrInvalidConfig) Error() string {
	return fmt.Sprintf("invalid config for %s: %s", e.ConfigKey, e.Message)
}

// ErrConnectionFailed 连接失败错误
type ErrConnectionFailed struct {
	DataSourceType string
	Reason         string
}

func (e *ErrConnectionFailed) Error() string {
	return fmt.Sprintf("failed to connect to %s data source: %s", e.DataSourceType, e.Reason)
}

// NewErrColumnNotFound 创建列不存在错误
func NewErrColumnNotFound(columnName, tableName string) *ErrColumnNotFound {
	return &ErrColumnNotFound{ColumnName: columnName, TableName: tableName}
}

// NewErrTypeConversion creates a conversion error for a value that has no
// representation in the target type.
func NewErrTypeConversion(value interface{}, fromType, toType, reason string) *ErrTypeConversion {
	return &ErrTypeConversion{Value: value, FromType: fromType, ToType: toType, Reason: reason}
}

// NewErrInvalidConfig 创建配置无效错误
func NewErrInvalidConfig(key, message string) *ErrInvalidConfig {
	return &ErrInvalidConfig{ConfigKey: key, Message: message}
}

// NewErrConnectionFailed 创建连接失败错误
func NewErrConnectionFailed(dataSourceType, reason string) *ErrConnectionFailed {
	return &ErrConnectionFailed{DataSourceType: dataSourceType, Reason: reason}
}
