package builtin

// NewDefaultRegistry 创建包含全部内置聚合函数的注册表
func NewDefaultRegistry() *FunctionRegistry {
	r := NewFunctionRegistry()
	for _, info := range aggregateFunctions() {
		if err := r.Register(info); err != nil {
			panic(err)
		}
	}
	return r
}

// GetFunctionCount 获取函数总数
func GetFunctionCount() int {
	return len(globalRegistry.List())
}
