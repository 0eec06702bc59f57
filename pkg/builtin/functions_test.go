package builtin

import (
	"sync"
	"testing"

	"github.com/kasuganosora/aggexec/pkg/udaf"
)

func testInfo(name string) *FunctionInfo {
	return &FunctionInfo{
		Definition:  &udaf.Definition{Name: name, New: func() udaf.AggregateFunction { return &countAll{} }},
		Description: "Test function",
	}
}

func TestRegister(t *testing.T) {
	registry := NewFunctionRegistry()

	if err := registry.Register(testInfo("Test_Func")); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	// 名称不区分大小写
	fn, exists := registry.Get("test_func")
	if !exists {
		t.Fatal("Function should be registered")
	}
	if fn.Name() != "Test_Func" {
		t.Errorf("Function name mismatch: %s", fn.Name())
	}
	if !registry.Exists("TEST_FUNC") {
		t.Error("Exists should ignore case")
	}
}

func TestRegisterErrors(t *testing.T) {
	registry := NewFunctionRegistry()

	tests := []struct {
		name string
		info *FunctionInfo
	}{
		{"Nil info", nil},
		{"Nil definition", &FunctionInfo{}},
		{"Empty name", &FunctionInfo{Definition: &udaf.Definition{New: func() udaf.AggregateFunction { return &countAll{} }}}},
		{"Nil factory", &FunctionInfo{Definition: &udaf.Definition{Name: "test"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := registry.Register(tt.info); err == nil {
				t.Error("expected an error")
			}
		})
	}
	if n := len(registry.List()); n != 0 {
		t.Errorf("expected empty registry, got %d functions", n)
	}
}

func TestLookup(t *testing.T) {
	registry := NewDefaultRegistry()

	def, ok := registry.Lookup("INT_SUM")
	if !ok {
		t.Fatal("int_sum should be built in")
	}
	if def.Name != "int_sum" {
		t.Errorf("unexpected definition %s", def.Name)
	}
	if _, ok := registry.Lookup("sum"); ok {
		t.Error("sum is not a user-defined aggregate")
	}
}

func TestListIsSorted(t *testing.T) {
	list := NewDefaultRegistry().List()
	want := []string{"count_all", "distinct_count", "int_sum", "numeric_avg", "numeric_sum", "string_agg"}
	if len(list) != len(want) {
		t.Fatalf("expected %d functions, got %d", len(want), len(list))
	}
	for i, info := range list {
		if info.Name() != want[i] {
			t.Errorf("position %d: expected %s, got %s", i, want[i], info.Name())
		}
		if info.Description == "" || info.Example == "" {
			t.Errorf("%s lacks documentation", info.Name())
		}
	}
}

func TestUnregister(t *testing.T) {
	registry := NewFunctionRegistry()
	_ = registry.Register(testInfo("to_remove"))

	if !registry.Unregister("TO_REMOVE") {
		t.Error("Unregister should report the removal")
	}
	if registry.Exists("to_remove") {
		t.Error("function should be gone")
	}
	if registry.Unregister("to_remove") {
		t.Error("second Unregister should report nothing removed")
	}
}

func TestGlobalRegistry(t *testing.T) {
	original := globalRegistry
	defer func() {
		globalRegistry = original
	}()

	if _, ok := GetGlobal("count_all"); !ok {
		t.Fatal("global registry should hold the built-in functions")
	}
	if err := RegisterGlobal(testInfo("global_test")); err != nil {
		t.Fatalf("RegisterGlobal() error = %v", err)
	}
	if GetFunctionCount() != 7 {
		t.Errorf("expected 7 functions, got %d", GetFunctionCount())
	}

	ResetGlobalRegistry()
	if _, ok := GetGlobal("global_test"); ok {
		t.Error("function should not exist after reset")
	}

	custom := NewFunctionRegistry()
	_ = custom.Register(testInfo("custom_func"))
	ResetGlobalRegistryWith(custom)
	ResetGlobalRegistryWith(nil)
	if GetGlobalRegistry() != custom {
		t.Error("nil must not replace the registry")
	}
}

func TestConcurrentRegistryAccess(t *testing.T) {
	registry := NewFunctionRegistry()

	const numGoroutines = 50
	var wg sync.WaitGroup
	wg.Add(numGoroutines)
	for i := 0; i < numGoroutines; i++ {
		go func(i int) {
			defer wg.Done()
			name := "func_" + string(rune('a'+i%26))
			_ = registry.Register(testInfo(name))
			registry.Get(name)
			registry.List()
		}(i)
	}
	wg.Wait()

	if n := len(registry.List()); n != 26 {
		t.Errorf("expected 26 functions, got %d", n)
	}
}
