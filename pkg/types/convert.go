package types

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/apd/v3"
	"github.com/google/uuid"
	"github.com/kasuganosora/aggexec/pkg/resource/domain"
	"github.com/kasuganosora/aggexec/pkg/utils"
)

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04:05.999999999"
)

// timestampLayouts 时间戳解析格式，按顺序尝试
var timestampLayouts = []string{
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999Z07:00",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	dateLayout,
}

var timeLayouts = []string{timeLayout, "15:04"}

// decimalContext is used when a decimal is rounded to an integer.
var decimalContext = apd.BaseContext.WithPrecision(40)

// ConvertTo converts v to the target tag. Null converts to Null of any type.
// A failed conversion returns *domain.ErrTypeConversion.
func (v Value) ConvertTo(target DataType) (Value, error) {
	if !target.Valid() {
		return Null, v.convErr(target, "unknown target type")
	}
	if v.IsNull() || target == TypeNull {
		return Null, nil
	}
	if v.typ == target {
		return v, nil
	}

	switch target {
	case TypeBoolean:
		return v.toBoolean()
	case TypeSmallInt:
		n, err := v.toInt64(math.MinInt16, math.MaxInt16, target)
		return NewSmallInt(int16(n)), err
	case TypeInt:
		n, err := v.toInt64(math.MinInt32, math.MaxInt32, target)
		return NewInt(int32(n)), err
	case TypeBigInt:
		n, err := v.toInt64(math.MinInt64, math.MaxInt64, target)
		return NewBigInt(n), err
	case TypeDecimal:
		return v.toDecimal()
	case TypeReal:
		f, err := v.toFloat64(target)
		if err != nil {
			return Null, err
		}
		if !math.IsInf(f, 0) && math.Abs(f) > math.MaxFloat32 {
			return Null, v.convErr(target, "value out of range")
		}
		return NewReal(float32(f)), nil
	case TypeDouble:
		f, err := v.toFloat64(target)
		if err != nil {
			return Null, err
		}
		return NewDouble(f), nil
	case TypeDate, TypeTime, TypeTimestamp:
		return v.toTemporal(target)
	case TypeBytes:
		return v.toBytes()
	case TypeString:
		return NewString(v.String()), nil
	case TypeStringFixed:
		return NewStringFixed(v.String()), nil
	case TypeUUID:
		return v.toUUID()
	}
	return Null, v.convErr(target, "unsupported conversion")
}

func (v Value) convErr(target DataType, reason string) error {
	return domain.NewErrTypeConversion(v.obj, v.typ.String(), target.String(), reason)
}

func (v Value) toBoolean() (Value, error) {
	switch x := v.obj.(type) {
	case string:
		switch strings.ToLower(strings.TrimSpace(x)) {
		case "true", "t", "yes", "y", "on", "1":
			return NewBoolean(true), nil
		case "false", "f", "no", "n", "off", "0":
			return NewBoolean(false), nil
		}
		return Null, v.convErr(TypeBoolean, "invalid boolean literal")
	case *apd.Decimal:
		return NewBoolean(!x.IsZero()), nil
	}
	if v.typ.IsNumeric() {
		f, err := utils.ToFloat64(v.obj)
		if err != nil {
			return Null, v.convErr(TypeBoolean, err.Error())
		}
		return NewBoolean(f != 0), nil
	}
	return Null, v.convErr(TypeBoolean, "unsupported conversion")
}

func (v Value) toInt64(lo, hi int64, target DataType) (int64, error) {
	var n int64
	switch x := v.obj.(type) {
	case bool, int16, int32, int64:
		n, _ = utils.ToInt64(x)
	case float32, float64:
		f, _ := utils.ToFloat64(x)
		f = math.Round(f)
		// float64(math.MaxInt64) rounds up to 2^63, so the upper bound is exclusive.
		if !inRange(f, math.MinInt64, math.MaxInt64) || f == math.MaxInt64 {
			return 0, v.convErr(target, "value out of range")
		}
		n = int64(f)
	case *apd.Decimal:
		var r apd.Decimal
		if _, err := decimalContext.RoundToIntegralValue(&r, x); err != nil {
			return 0, v.convErr(target, err.Error())
		}
		i, err := r.Int64()
		if err != nil {
			return 0, v.convErr(target, "value out of range")
		}
		n = i
	case string:
		s := strings.TrimSpace(x)
		i, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			d, _, derr := apd.NewFromString(s)
			if derr != nil {
				return 0, v.convErr(target, "invalid integer literal")
			}
			return NewDecimal(d).toInt64(lo, hi, target)
		}
		n = i
	default:
		return 0, v.convErr(target, "unsupported conversion")
	}
	if n < lo || n > hi {
		return 0, v.convErr(target, "value out of range")
	}
	return n, nil
}

func (v Value) toDecimal() (Value, error) {
	d := new(apd.Decimal)
	switch x := v.obj.(type) {
	case bool, int16, int32, int64:
		n, _ := utils.ToInt64(x)
		d.SetInt64(n)
	case float32, float64:
		f, _ := utils.ToFloat64(x)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return Null, v.convErr(TypeDecimal, "value is not finite")
		}
		if _, err := d.SetFloat64(f); err != nil {
			return Null, v.convErr(TypeDecimal, err.Error())
		}
	case string:
		if _, _, err := d.SetString(strings.TrimSpace(x)); err != nil || d.Form != apd.Finite {
			return Null, v.convErr(TypeDecimal, "invalid decimal literal")
		}
	default:
		return Null, v.convErr(TypeDecimal, "unsupported conversion")
	}
	return NewDecimal(d), nil
}

func (v Value) toFloat64(target DataType) (float64, error) {
	switch x := v.obj.(type) {
	case bool, int16, int32, int64, float32, float64, *apd.Decimal:
		f, err := utils.ToFloat64(x)
		if err != nil {
			return 0, v.convErr(target, err.Error())
		}
		return f, nil
	case string:
		f, err := utils.ToFloat64(strings.TrimSpace(x))
		if err != nil {
			return 0, v.convErr(target, "invalid numeric literal")
		}
		return f, nil
	}
	return 0, v.convErr(target, "unsupported conversion")
}

func (v Value) toTemporal(target DataType) (Value, error) {
	var t time.Time
	switch x := v.obj.(type) {
	case time.Time:
		if v.typ == TypeTime && target != TypeTime {
			return Null, v.convErr(target, "unsupported conversion")
		}
		t = x
	case string:
		s := strings.TrimSpace(x)
		layouts := timestampLayouts
		if target == TypeTime {
			layouts = append(timeLayouts, timestampLayouts...)
		}
		parsed, ok := parseTime(s, layouts)
		if !ok {
			return Null, v.convErr(target, "invalid "+strings.ToLower(target.String())+" literal")
		}
		t = parsed
	default:
		return Null, v.convErr(target, "unsupported conversion")
	}

	switch target {
	case TypeDate:
		return NewDate(t), nil
	case TypeTime:
		return NewTime(t), nil
	default:
		return NewTimestamp(t), nil
	}
}

func parseTime(s string, layouts []string) (time.Time, bool) {
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func (v Value) toBytes() (Value, error) {
	switch x := v.obj.(type) {
	case string:
		return NewBytes([]byte(x)), nil
	case uuid.UUID:
		b := x
		return NewBytes(b[:]), nil
	}
	return Null, v.convErr(TypeBytes, "unsupported conversion")
}

func (v Value) toUUID() (Value, error) {
	switch x := v.obj.(type) {
	case string:
		u, err := uuid.Parse(strings.TrimSpace(x))
		if err != nil {
			return Null, v.convErr(TypeUUID, err.Error())
		}
		return NewUUID(u), nil
	case []byte:
		u, err := uuid.FromBytes(x)
		if err != nil {
			return Null, v.convErr(TypeUUID, err.Error())
		}
		return NewUUID(u), nil
	}
	return Null, v.convErr(TypeUUID, "unsupported conversion")
}
