// Package coercion translates between engine values and the value vocabulary
// exposed to aggregate providers. Provider types are PostgreSQL type OIDs.
package coercion

import (
	"strconv"

	"github.com/cockroachdb/errors"
	"github.com/kasuganosora/aggexec/pkg/types"
	"github.com/lib/pq/oid"
)

// toProvider 内部类型 -> 提供者类型，覆盖全部内部类型
var toProvider = map[types.DataType]oid.Oid{
	types.TypeNull:        oid.T_unknown,
	types.TypeBoolean:     oid.T_bool,
	types.TypeSmallInt:    oid.T_int2,
	types.TypeInt:         oid.T_int4,
	types.TypeBigInt:      oid.T_int8,
	types.TypeDecimal:     oid.T_numeric,
	types.TypeReal:        oid.T_float4,
	types.TypeDouble:      oid.T_float8,
	types.TypeDate:        oid.T_date,
	types.TypeTime:        oid.T_time,
	types.TypeTimestamp:   oid.T_timestamp,
	types.TypeBytes:       oid.T_bytea,
	types.TypeString:      oid.T_text,
	types.TypeStringFixed: oid.T_bpchar,
	types.TypeUUID:        oid.T_uuid,
}

// toInternal 提供者类型 -> 内部类型，包含别名
var toInternal = map[oid.Oid]types.DataType{
	oid.T_varchar:     types.TypeString,
	oid.T_timestamptz: types.TypeTimestamp,
}

func init() {
	for _, dt := range types.AllTypes() {
		o, ok := toProvider[dt]
		if !ok {
			panic(errors.AssertionFailedf("no provider type for internal type %s", dt))
		}
		toInternal[o] = dt
	}
}

// ProviderType maps an internal type tag to the provider vocabulary. Every
// internal tag has a mapping; an unknown tag is a programming error and panics.
func ProviderType(dt types.DataType) oid.Oid {
	o, ok := toProvider[dt]
	if !ok {
		panic(errors.AssertionFailedf("no provider type for internal type %s", dt))
	}
	return o
}

// InternalType maps a provider type back to an internal type tag. Provider
// types outside the supported vocabulary return an error.
func InternalType(o oid.Oid) (types.DataType, error) {
	dt, ok := toInternal[o]
	if !ok {
		return types.TypeNull, errors.Newf("unsupported provider type %s", oidName(o))
	}
	return dt, nil
}

// ProviderTypes maps each internal tag in dts.
func ProviderTypes(dts []types.DataType) []oid.Oid {
	out := make([]oid.Oid, len(dts))
	for i, dt := range dts {
		out[i] = ProviderType(dt)
	}
	return out
}

// ToProvider converts v to target and unwraps it into the native object
// handed to providers. Null yields nil.
func ToProvider(v types.Value, target types.DataType) (interface{}, error) {
	converted, err := v.ConvertTo(target)
	if err != nil {
		return nil, err
	}
	return converted.Object(), nil
}

// ToInternal wraps a provider object as an internal value of type target.
// nil yields types.Null.
func ToInternal(obj interface{}, target types.DataType) (types.Value, error) {
	if obj == nil {
		return types.Null, nil
	}
	return types.FromObject(obj, target)
}

func oidName(o oid.Oid) string {
	if name, ok := oid.TypeName[o]; ok {
		return name
	}
	return "OID " + strconv.FormatUint(uint64(o), 10)
}
