package types

import (
	"fmt"
	"math"
	"strings"
)

// DataType is the internal type tag carried by every Value.
type DataType int

const (
	TypeNull DataType = iota
	TypeBoolean
	TypeSmallInt
	TypeInt
	TypeBigInt
	TypeDecimal
	TypeReal
	TypeDouble
	TypeDate
	TypeTime
	TypeTimestamp
	TypeBytes
	TypeString
	TypeStringFixed
	TypeUUID

	numDataTypes
)

type typeInfo struct {
	name         string
	precision    int64
	defaultScale int
	displaySize  int
}

var typeInfos = [numDataTypes]typeInfo{
	TypeNull:        {"NULL", 1, 0, 4},
	TypeBoolean:     {"BOOLEAN", 1, 0, 5},
	TypeSmallInt:    {"SMALLINT", 5, 0, 6},
	TypeInt:         {"INT", 10, 0, 11},
	TypeBigInt:      {"BIGINT", 19, 0, 20},
	TypeDecimal:     {"DECIMAL", 65535, 32767, 65537},
	TypeReal:        {"REAL", 7, 0, 15},
	TypeDouble:      {"DOUBLE", 17, 0, 24},
	TypeDate:        {"DATE", 8, 0, 10},
	TypeTime:        {"TIME", 6, 0, 8},
	TypeTimestamp:   {"TIMESTAMP", 23, 9, 29},
	TypeBytes:       {"BYTES", math.MaxInt32, 0, math.MaxInt32},
	TypeString:      {"VARCHAR", math.MaxInt32, 0, math.MaxInt32},
	TypeStringFixed: {"CHAR", math.MaxInt32, 0, math.MaxInt32},
	TypeUUID:        {"UUID", 16, 0, 36},
}

// AllTypes returns every internal type tag.
func AllTypes() []DataType {
	all := make([]DataType, 0, numDataTypes)
	for t := TypeNull; t < numDataTypes; t++ {
		all = append(all, t)
	}
	return all
}

// Valid reports whether t is one of the declared tags.
func (t DataType) Valid() bool {
	return t >= TypeNull && t < numDataTypes
}

func (t DataType) String() string {
	if !t.Valid() {
		return fmt.Sprintf("DataType(%d)", int(t))
	}
	return typeInfos[t].name
}

// Precision returns the maximum precision of the type.
func (t DataType) Precision() int64 {
	if !t.Valid() {
		return 0
	}
	return typeInfos[t].precision
}

// DefaultScale returns the scale a value of this type has when none is declared.
func (t DataType) DefaultScale() int {
	if !t.Valid() {
		return 0
	}
	return typeInfos[t].defaultScale
}

// DisplaySize returns the maximum number of characters needed to render a value.
func (t DataType) DisplaySize() int {
	if !t.Valid() {
		return 0
	}
	return typeInfos[t].displaySize
}

// IsNumeric reports whether t is an integer, decimal or floating point type.
func (t DataType) IsNumeric() bool {
	switch t {
	case TypeSmallInt, TypeInt, TypeBigInt, TypeDecimal, TypeReal, TypeDouble:
		return true
	}
	return false
}

var typeNames = map[string]DataType{
	"NULL":             TypeNull,
	"BOOL":             TypeBoolean,
	"BOOLEAN":          TypeBoolean,
	"BIT":              TypeBoolean,
	"TINYINT":          TypeSmallInt,
	"SMALLINT":         TypeSmallInt,
	"INT2":             TypeSmallInt,
	"INT":              TypeInt,
	"INTEGER":          TypeInt,
	"MEDIUMINT":        TypeInt,
	"INT4":             TypeInt,
	"BIGINT":           TypeBigInt,
	"INT8":             TypeBigInt,
	"DECIMAL":          TypeDecimal,
	"DEC":              TypeDecimal,
	"NUMERIC":          TypeDecimal,
	"FLOAT":            TypeReal,
	"FLOAT4":           TypeReal,
	"REAL":             TypeReal,
	"DOUBLE":           TypeDouble,
	"DOUBLE PRECISION": TypeDouble,
	"FLOAT8":           TypeDouble,
	"DATE":             TypeDate,
	"TIME":             TypeTime,
	"TIMESTAMP":        TypeTimestamp,
	"DATETIME":         TypeTimestamp,
	"BLOB":             TypeBytes,
	"BINARY":           TypeBytes,
	"VARBINARY":        TypeBytes,
	"BYTEA":            TypeBytes,
	"BYTES":            TypeBytes,
	"VARCHAR":          TypeString,
	"TEXT":             TypeString,
	"STRING":           TypeString,
	"CLOB":             TypeString,
	"LONGTEXT":         TypeString,
	"CHAR":             TypeStringFixed,
	"CHARACTER":        TypeStringFixed,
	"UUID":             TypeUUID,
}

// ParseTypeName maps a column type name such as "INT", "VARCHAR(255)" or
// "DECIMAL(10,2) UNSIGNED" to its internal tag.
func ParseTypeName(name string) (DataType, error) {
	n := strings.ToUpper(strings.TrimSpace(name))
	if idx := strings.IndexByte(n, '('); idx >= 0 {
		n = strings.TrimSpace(n[:idx])
	}
	n = strings.TrimSpace(strings.TrimSuffix(n, " UNSIGNED"))
	if t, ok := typeNames[n]; ok {
		return t, nil
	}
	return TypeNull, fmt.Errorf("unknown column type %q", name)
}
