package types

import (
	"math"
	"time"

	"github.com/cockroachdb/apd/v3"
	"github.com/google/uuid"
	"github.com/kasuganosora/aggexec/pkg/resource/domain"
	"github.com/kasuganosora/aggexec/pkg/utils"
)

// Value is the engine's tagged internal value. The zero Value is Null.
//
// Native representations per tag:
//
//	TypeBoolean     bool
//	TypeSmallInt    int16
//	TypeInt         int32
//	TypeBigInt      int64
//	TypeDecimal     *apd.Decimal
//	TypeReal        float32
//	TypeDouble      float64
//	TypeDate        time.Time (midnight)
//	TypeTime        time.Time (on 1970-01-01 UTC)
//	TypeTimestamp   time.Time
//	TypeBytes       []byte
//	TypeString      string
//	TypeStringFixed string (no trailing blanks)
//	TypeUUID        uuid.UUID
type Value struct {
	typ DataType
	obj interface{}
}

// Null is the internal representation of "no value".
var Null = Value{typ: TypeNull}

func NewBoolean(b bool) Value { return Value{typ: TypeBoolean, obj: b} }
func NewSmallInt(n int16) Value { return Value{typ: TypeSmallInt, obj: n} }
func NewInt(n int32) Value { return Value{typ: TypeInt, obj: n} }
func NewBigInt(n int64) Value { return Value{typ: TypeBigInt, obj: n} }
func NewReal(f float32) Value { return Value{typ: TypeReal, obj: f} }
func NewDouble(f float64) Value { return Value{typ: TypeDouble, obj: f} }
func NewBytes(b []byte) Value { return Value{typ: TypeBytes, obj: b} }
func NewString(s string) Value { return Value{typ: TypeString, obj: s} }
func NewUUID(u uuid.UUID) Value { return Value{typ: TypeUUID, obj: u} }
func NewTimestamp(t time.Time) Value { return Value{typ: TypeTimestamp, obj: t} }
func NewStringFixed(s string) Value { return Value{typ: TypeStringFixed, obj: trimRightBlanks(s)} }
func NewDecimal(d *apd.Decimal) Value {
	if d == nil {
		return Null
	}
	return Value{typ: TypeDecimal, obj: d}
}

// NewDate drops the clock part of t.
func NewDate(t time.Time) Value {
	y, m, d := t.Date()
	return Value{typ: TypeDate, obj: time.Date(y, m, d, 0, 0, 0, 0, t.Location())}
}

// NewTime keeps only the clock part of t.
func NewTime(t time.Time) Value {
	return Value{typ: TypeTime, obj: time.Date(1970, 1, 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)}
}

// Type returns the tag of v.
func (v Value) Type() DataType { return v.typ }

// IsNull reports whether v is the "no value" representation.
func (v Value) IsNull() bool { return v.typ == TypeNull }

// Object returns the native Go object held by v; nil for Null.
func (v Value) Object() interface{} { return v.obj }

// String renders v for display. Null renders as NULL.
func (v Value) String() string {
	switch v.typ {
	case TypeNull:
		return "NULL"
	case TypeDate:
		return v.obj.(time.Time).Format(dateLayout)
	case TypeTime:
		return v.obj.(time.Time).Format(timeLayout)
	default:
		return utils.ToString(v.obj)
	}
}

// FromGo wraps a native Go object, inferring its tag.
func FromGo(obj interface{}) (Value, error) {
	switch x := obj.(type) {
	case nil:
		return Null, nil
	case Value:
		return x, nil
	case bool:
		return NewBoolean(x), nil
	case int8:
		return NewSmallInt(int16(x)), nil
	case uint8:
		return NewSmallInt(int16(x)), nil
	case int16:
		return NewSmallInt(x), nil
	case uint16:
		return NewInt(int32(x)), nil
	case int32:
		return NewInt(x), nil
	case int:
		return NewBigInt(int64(x)), nil
	case int64:
		return NewBigInt(x), nil
	case uint32:
		return NewBigInt(int64(x)), nil
	case uint, uint64:
		n, err := utils.ToInt64(x)
		if err != nil {
			d := new(apd.Decimal)
			if _, _, derr := d.SetString(utils.ToString(x)); derr != nil {
				return Null, derr
			}
			return NewDecimal(d), nil
		}
		return NewBigInt(n), nil
	case float32:
		return NewReal(x), nil
	case float64:
		return NewDouble(x), nil
	case *apd.Decimal:
		return NewDecimal(x), nil
	case apd.Decimal:
		d := new(apd.Decimal)
		d.Set(&x)
		return NewDecimal(d), nil
	case time.Time:
		return NewTimestamp(x), nil
	case []byte:
		return NewBytes(x), nil
	case string:
		return NewString(x), nil
	case uuid.UUID:
		return NewUUID(x), nil
	default:
		return Null, domain.NewErrTypeConversion(obj, "GO", "VALUE", "unsupported native type")
	}
}

// FromObject wraps obj and converts it to typ.
func FromObject(obj interface{}, typ DataType) (Value, error) {
	// 驱动的文本协议以 []byte 返回字符、数值和时间列，按文本解释；
	// 只有 BYTES 和 16 字节的 UUID 保留原始字节
	if b, ok := obj.([]byte); ok && typ != TypeBytes && !(typ == TypeUUID && len(b) == 16) {
		obj = string(b)
	}
	v, err := FromGo(obj)
	if err != nil {
		return Null, err
	}
	return v.ConvertTo(typ)
}

func trimRightBlanks(s string) string {
	end := len(s)
	for end > 0 && s[end-1] == ' ' {
		end--
	}
	return s[:end]
}

func inRange(f float64, lo, hi float64) bool {
	return !math.IsNaN(f) && f >= lo && f <= hi
}
