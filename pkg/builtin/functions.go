// Package builtin ships ready-made aggregate providers and the registry
// queries look aggregate names up in.
package builtin

import (
	"sort"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/kasuganosora/aggexec/pkg/udaf"
)

// FunctionInfo 聚合函数信息
type FunctionInfo struct {
	Definition  *udaf.Definition
	Description string
	Example     string
}

// Name 返回函数名
func (f *FunctionInfo) Name() string { return f.Definition.Name }

// FunctionRegistry 函数注册表，名称不区分大小写
type FunctionRegistry struct {
	mu        sync.RWMutex
	functions map[string]*FunctionInfo
}

// NewFunctionRegistry 创建函数注册表
func NewFunctionRegistry() *FunctionRegistry {
	return &FunctionRegistry{
		functions: make(map[string]*FunctionInfo),
	}
}

// Register 注册函数，同名覆盖
func (r *FunctionRegistry) Register(info *FunctionInfo) error {
	if info == nil || info.Definition == nil {
		return errors.New("function definition cannot be nil")
	}
	if info.Definition.Name == "" {
		return errors.New("function name cannot be empty")
	}
	if info.Definition.New == nil {
		return errors.Newf("function %s has no factory", info.Definition.Name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.functions[strings.ToLower(info.Definition.Name)] = info
	return nil
}

// Get 获取函数
func (r *FunctionRegistry) Get(name string) (*FunctionInfo, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	info, exists := r.functions[strings.ToLower(name)]
	return info, exists
}

// Lookup resolves name to its definition. It has the shape the SQL
// adapter expects.
func (r *FunctionRegistry) Lookup(name string) (*udaf.Definition, bool) {
	info, ok := r.Get(name)
	if !ok {
		return nil, false
	}
	return info.Definition, true
}

// List returns every function, sorted by name.
func (r *FunctionRegistry) List() []*FunctionInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	list := make([]*FunctionInfo, 0, len(r.functions))
	for _, info := range r.functions {
		list = append(list, info)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Name() < list[j].Name() })
	return list
}

// Exists 检查函数是否存在
func (r *FunctionRegistry) Exists(name string) bool {
	_, exists := r.Get(name)
	return exists
}

// Unregister 注销函数
func (r *FunctionRegistry) Unregister(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := strings.ToLower(name)
	if _, exists := r.functions[key]; exists {
		delete(r.functions, key)
		return true
	}
	return false
}

// 全局函数注册表
var globalRegistry = NewDefaultRegistry()

// GetGlobalRegistry 获取全局函数注册表
func GetGlobalRegistry() *FunctionRegistry {
	return globalRegistry
}

// RegisterGlobal 注册全局函数
func RegisterGlobal(info *FunctionInfo) error {
	return globalRegistry.Register(info)
}

// GetGlobal 获取全局函数
func GetGlobal(name string) (*FunctionInfo, bool) {
	return globalRegistry.Get(name)
}

// ResetGlobalRegistry resets the global registry to the built-in functions.
// It is meant for tests and must not race with other registry users.
func ResetGlobalRegistry() {
	globalRegistry = NewDefaultRegistry()
}

// ResetGlobalRegistryWith replaces the global registry. nil is ignored.
func ResetGlobalRegistryWith(registry *FunctionRegistry) {
	if registry != nil {
		globalRegistry = registry
	}
}
