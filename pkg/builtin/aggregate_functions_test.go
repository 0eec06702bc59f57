package builtin

import (
	"math"
	"strings"
	"testing"

	"github.com/cockroachdb/apd/v3"
	"github.com/kasuganosora/aggexec/pkg/udaf"
	"github.com/lib/pq/oid"
)

// run 创建一个新实例，逐个累加并返回结果
func run(t *testing.T, name string, argTypes []oid.Oid, values ...interface{}) (interface{}, error) {
	t.Helper()
	def, ok := NewDefaultRegistry().Lookup(name)
	if !ok {
		t.Fatalf("function %s not registered", name)
	}
	fn := def.New()
	if err := fn.Init(nil); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	if _, err := fn.ResultType(argTypes); err != nil {
		t.Fatalf("ResultType() error = %v", err)
	}
	for _, v := range values {
		if err := fn.Add(v); err != nil {
			return nil, err
		}
	}
	return fn.Result()
}

func decimalString(t *testing.T, v interface{}) string {
	t.Helper()
	d, ok := v.(*apd.Decimal)
	if !ok {
		t.Fatalf("expected *apd.Decimal, got %T", v)
	}
	return d.Text('f')
}

func TestCountAll(t *testing.T) {
	res, err := run(t, "count_all", nil, []interface{}{}, []interface{}{}, []interface{}{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res != int64(3) {
		t.Errorf("expected 3, got %v", res)
	}

	res, _ = run(t, "count_all", nil)
	if res != int64(0) {
		t.Errorf("expected 0 for no rows, got %v", res)
	}
}

func TestIntSum(t *testing.T) {
	res, err := run(t, "int_sum", []oid.Oid{oid.T_int8}, int64(1), nil, int32(2), uint8(3))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res != int64(6) {
		t.Errorf("expected 6, got %v", res)
	}

	res, err = run(t, "int_sum", []oid.Oid{oid.T_int4}, nil, nil)
	if err != nil || res != nil {
		t.Errorf("expected NULL without values, got %v (%v)", res, err)
	}

	_, err = run(t, "int_sum", []oid.Oid{oid.T_int8}, int64(math.MaxInt64), int64(1))
	if err == nil || !strings.Contains(err.Error(), "overflows") {
		t.Errorf("expected overflow error, got %v", err)
	}
}

func TestNumericSumAndAvg(t *testing.T) {
	res, err := run(t, "numeric_sum", []oid.Oid{oid.T_numeric},
		apd.New(150, -2), float64(0.5), int64(2), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s := decimalString(t, res); s != "4.00" {
		t.Errorf("expected 4.00, got %s", s)
	}

	res, err = run(t, "numeric_avg", []oid.Oid{oid.T_int8}, int64(1), int64(2), int64(4))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s := decimalString(t, res); !strings.HasPrefix(s, "2.333333") {
		t.Errorf("expected 2.333..., got %s", s)
	}

	res, _ = run(t, "numeric_avg", []oid.Oid{oid.T_int8}, int64(2), int64(4))
	if s := decimalString(t, res); s != "3" {
		t.Errorf("expected 3, got %s", s)
	}

	res, _ = run(t, "numeric_avg", []oid.Oid{oid.T_float8})
	if res != nil {
		t.Errorf("expected NULL without values, got %v", res)
	}
}

func TestStringAgg(t *testing.T) {
	res, err := run(t, "string_agg", []oid.Oid{oid.T_text}, "a", nil, "b")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res != "a,b" {
		t.Errorf("expected a,b, got %v", res)
	}

	res, err = run(t, "string_agg", []oid.Oid{oid.T_text, oid.T_text},
		[]interface{}{"x", " | "}, []interface{}{"y", " | "})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res != "x | y" {
		t.Errorf("expected 'x | y', got %v", res)
	}

	_, err = run(t, "string_agg", []oid.Oid{oid.T_text}, int64(1))
	if err == nil {
		t.Error("expected error for non-text value")
	}
}

func TestDistinctCount(t *testing.T) {
	res, err := run(t, "distinct_count", []oid.Oid{oid.T_text}, "a", "b", "a", nil, int64(1), "1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// int64(1) 与 "1" 类型不同
	if res != int64(4) {
		t.Errorf("expected 4, got %v", res)
	}
}

func TestResultTypeErrors(t *testing.T) {
	tests := []struct {
		name     string
		argTypes []oid.Oid
		contains string
	}{
		{"int_sum", []oid.Oid{oid.T_text}, "one integer argument"},
		{"int_sum", nil, "one integer argument"},
		{"numeric_sum", []oid.Oid{oid.T_bool}, "one numeric argument"},
		{"numeric_avg", []oid.Oid{oid.T_int8, oid.T_int8}, "one numeric argument"},
		{"string_agg", []oid.Oid{oid.T_int8}, "string_agg does not accept INT8"},
		{"string_agg", nil, "optional separator"},
		{"distinct_count", nil, "one argument"},
	}
	registry := NewDefaultRegistry()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			def, _ := registry.Lookup(tt.name)
			_, err := def.New().ResultType(tt.argTypes)
			if err == nil || !strings.Contains(err.Error(), tt.contains) {
				t.Errorf("expected error containing %q, got %v", tt.contains, err)
			}
		})
	}
}

func TestResultTypes(t *testing.T) {
	tests := []struct {
		name     string
		argTypes []oid.Oid
		want     oid.Oid
	}{
		{"count_all", nil, oid.T_int8},
		{"int_sum", []oid.Oid{oid.T_int2}, oid.T_int8},
		{"numeric_sum", []oid.Oid{oid.T_float4}, oid.T_numeric},
		{"numeric_avg", []oid.Oid{oid.T_numeric}, oid.T_numeric},
		{"string_agg", []oid.Oid{oid.T_varchar, oid.T_text}, oid.T_text},
		{"distinct_count", []oid.Oid{oid.T_bool}, oid.T_int8},
	}
	registry := NewDefaultRegistry()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			def, _ := registry.Lookup(tt.name)
			var fn udaf.AggregateFunction = def.New()
			got, err := fn.ResultType(tt.argTypes)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}
