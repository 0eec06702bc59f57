package types

import (
	"math"
	"testing"
	"time"

	"github.com/cockroachdb/apd/v3"
	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/kasuganosora/aggexec/pkg/resource/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDataTypeMetadata(t *testing.T) {
	assert.Len(t, AllTypes(), int(numDataTypes))
	for _, dt := range AllTypes() {
		assert.True(t, dt.Valid())
		assert.NotEmpty(t, dt.String())
		assert.NotContains(t, dt.String(), "DataType(")
	}
	assert.False(t, DataType(-1).Valid())
	assert.Equal(t, "DataType(99)", DataType(99).String())
	assert.Equal(t, 0, DataType(99).DefaultScale())

	assert.Equal(t, 9, TypeTimestamp.DefaultScale())
	assert.Equal(t, 0, TypeBigInt.DefaultScale())
	assert.True(t, TypeDecimal.IsNumeric())
	assert.False(t, TypeString.IsNumeric())
}

func TestParseTypeName(t *testing.T) {
	tests := []struct {
		in   string
		want DataType
	}{
		{"INT", TypeInt},
		{"int unsigned", TypeInt},
		{"VARCHAR(255)", TypeString},
		{"DECIMAL(10,2) UNSIGNED", TypeDecimal},
		{" text ", TypeString},
		{"char(3)", TypeStringFixed},
		{"DATETIME", TypeTimestamp},
		{"uuid", TypeUUID},
	}
	for _, tt := range tests {
		got, err := ParseTypeName(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := ParseTypeName("GEOMETRY")
	assert.Error(t, err)
}

func TestFromGo(t *testing.T) {
	id := uuid.New()
	now := time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC)

	tests := []struct {
		name string
		in   interface{}
		want DataType
	}{
		{"nil", nil, TypeNull},
		{"bool", true, TypeBoolean},
		{"int8", int8(3), TypeSmallInt},
		{"int16", int16(3), TypeSmallInt},
		{"int32", int32(3), TypeInt},
		{"int", 3, TypeBigInt},
		{"int64", int64(3), TypeBigInt},
		{"uint64 small", uint64(3), TypeBigInt},
		{"uint64 huge", uint64(math.MaxUint64), TypeDecimal},
		{"float32", float32(1.5), TypeReal},
		{"float64", 1.5, TypeDouble},
		{"decimal", apd.New(15, -1), TypeDecimal},
		{"time", now, TypeTimestamp},
		{"bytes", []byte("ab"), TypeBytes},
		{"string", "ab", TypeString},
		{"uuid", id, TypeUUID},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := FromGo(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, v.Type())
		})
	}

	big, err := FromGo(uint64(math.MaxUint64))
	require.NoError(t, err)
	assert.Equal(t, "18446744073709551615", big.String())

	_, err = FromGo(struct{}{})
	var convErr *domain.ErrTypeConversion
	assert.True(t, errors.As(err, &convErr))
}

func TestValueString(t *testing.T) {
	ts := time.Date(2024, 3, 1, 10, 30, 5, 0, time.UTC)

	assert.Equal(t, "NULL", Null.String())
	assert.True(t, Value{}.IsNull())
	assert.Nil(t, Null.Object())
	assert.Equal(t, "2024-03-01", NewDate(ts).String())
	assert.Equal(t, "10:30:05", NewTime(ts).String())
	assert.Equal(t, "2024-03-01 10:30:05", NewTimestamp(ts).String())
	assert.Equal(t, "ab", NewStringFixed("ab   ").String())
	assert.Equal(t, "TRUE", NewBoolean(true).String())
	assert.True(t, NewDecimal(nil).IsNull())
}

func TestConvertToNumeric(t *testing.T) {
	tests := []struct {
		name    string
		in      Value
		target  DataType
		want    interface{}
		wantErr bool
	}{
		{"int to bigint", NewInt(7), TypeBigInt, int64(7), false},
		{"bigint to int", NewBigInt(7), TypeInt, int32(7), false},
		{"bigint overflows int", NewBigInt(math.MaxInt32 + 1), TypeInt, nil, true},
		{"int overflows smallint", NewInt(40000), TypeSmallInt, nil, true},
		{"double rounds half away", NewDouble(2.5), TypeInt, int32(3), false},
		{"negative double rounds", NewDouble(-2.5), TypeBigInt, int64(-3), false},
		{"double overflows bigint", NewDouble(1e19), TypeBigInt, nil, true},
		{"nan to int", NewDouble(math.NaN()), TypeInt, nil, true},
		{"decimal rounds", NewDecimal(apd.New(125, -2)), TypeInt, int32(1), false},
		{"decimal rounds up", NewDecimal(apd.New(15, -1)), TypeBigInt, int64(2), false},
		{"string to int", NewString(" 42 "), TypeInt, int32(42), false},
		{"decimal string to int", NewString("41.6"), TypeInt, int32(42), false},
		{"bad string to int", NewString("abc"), TypeInt, nil, true},
		{"bool to int", NewBoolean(true), TypeInt, int32(1), false},
		{"int to double", NewInt(3), TypeDouble, float64(3), false},
		{"string to double", NewString("2.5"), TypeDouble, 2.5, false},
		{"double overflows real", NewDouble(1e300), TypeReal, nil, true},
		{"date to int", NewDate(time.Now()), TypeInt, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.in.ConvertTo(tt.target)
			if tt.wantErr {
				var convErr *domain.ErrTypeConversion
				require.True(t, errors.As(err, &convErr), "got %v", err)
				assert.Equal(t, tt.target.String(), convErr.ToType)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.target, got.Type())
			assert.Equal(t, tt.want, got.Object())
		})
	}
}

func TestConvertToDecimal(t *testing.T) {
	v, err := NewString("12.50").ConvertTo(TypeDecimal)
	require.NoError(t, err)
	assert.Equal(t, "12.50", v.String())

	v, err = NewBigInt(-4).ConvertTo(TypeDecimal)
	require.NoError(t, err)
	assert.Equal(t, "-4", v.String())

	v, err = NewDouble(0.25).ConvertTo(TypeDecimal)
	require.NoError(t, err)
	assert.Equal(t, "0.25", v.String())

	_, err = NewDouble(math.Inf(1)).ConvertTo(TypeDecimal)
	assert.Error(t, err)
	_, err = NewString("Infinity").ConvertTo(TypeDecimal)
	assert.Error(t, err)
}

func TestConvertToTemporalAndText(t *testing.T) {
	v, err := NewString("2024-03-01 10:30:05").ConvertTo(TypeTimestamp)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 1, 10, 30, 5, 0, time.UTC), v.Object())

	v, err = NewString("2024-03-01").ConvertTo(TypeDate)
	require.NoError(t, err)
	assert.Equal(t, "2024-03-01", v.String())

	v, err = NewString("23:59").ConvertTo(TypeTime)
	require.NoError(t, err)
	assert.Equal(t, "23:59:00", v.String())

	v, err = v.ConvertTo(TypeString)
	require.NoError(t, err)
	assert.Equal(t, NewString("23:59:00"), v)

	_, err = NewTime(time.Now()).ConvertTo(TypeDate)
	assert.Error(t, err)
	_, err = NewString("yesterday").ConvertTo(TypeDate)
	assert.Error(t, err)

	v, err = NewBytes([]byte{0xca, 0xfe}).ConvertTo(TypeString)
	require.NoError(t, err)
	assert.Equal(t, "cafe", v.Object())

	v, err = NewString("abc  ").ConvertTo(TypeStringFixed)
	require.NoError(t, err)
	assert.Equal(t, "abc", v.Object())

	v, err = NewString("yes").ConvertTo(TypeBoolean)
	require.NoError(t, err)
	assert.Equal(t, true, v.Object())
	_, err = NewString("maybe").ConvertTo(TypeBoolean)
	assert.Error(t, err)
}

func TestConvertToUUID(t *testing.T) {
	id := uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")

	v, err := NewString(id.String()).ConvertTo(TypeUUID)
	require.NoError(t, err)
	assert.Equal(t, id, v.Object())

	b, err := v.ConvertTo(TypeBytes)
	require.NoError(t, err)
	back, err := b.ConvertTo(TypeUUID)
	require.NoError(t, err)
	assert.Equal(t, id, back.Object())

	_, err = NewString("not-a-uuid").ConvertTo(TypeUUID)
	assert.Error(t, err)
}

func TestConvertNullAndIdentity(t *testing.T) {
	for _, dt := range AllTypes() {
		v, err := Null.ConvertTo(dt)
		require.NoError(t, err)
		assert.True(t, v.IsNull(), dt.String())
	}

	v := NewInt(5)
	same, err := v.ConvertTo(TypeInt)
	require.NoError(t, err)
	assert.Equal(t, v, same)

	_, err = v.ConvertTo(DataType(42))
	assert.Error(t, err)

	got, err := FromObject("17", TypeSmallInt)
	require.NoError(t, err)
	assert.Equal(t, int16(17), got.Object())
}

func TestFromObject_DriverBytes(t *testing.T) {
	s, err := FromObject([]byte("abc"), TypeString)
	require.NoError(t, err)
	assert.Equal(t, "abc", s.Object())

	d, err := FromObject([]byte("1.50"), TypeDecimal)
	require.NoError(t, err)
	assert.Equal(t, "1.50", d.String())

	n, err := FromObject([]byte("42"), TypeBigInt)
	require.NoError(t, err)
	assert.Equal(t, int64(42), n.Object())

	ts, err := FromObject([]byte("2024-03-01 10:00:00"), TypeTimestamp)
	require.NoError(t, err)
	assert.Equal(t, 2024, ts.Object().(time.Time).Year())

	// BYTES 保留原始字节
	b, err := FromObject([]byte{0xde, 0xad}, TypeBytes)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xde, 0xad}, b.Object())
	assert.Equal(t, "dead", b.String())

	u := uuid.New()
	raw, err := FromObject(u[:], TypeUUID)
	require.NoError(t, err)
	assert.Equal(t, u, raw.Object())
	text, err := FromObject([]byte(u.String()), TypeUUID)
	require.NoError(t, err)
	assert.Equal(t, u, text.Object())
}
