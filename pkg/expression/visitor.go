package expression

// VisitorKind 访问器类型
type VisitorKind int

const (
	// Deterministic asks whether an expression always yields the same
	// value for the same input row.
	Deterministic VisitorKind = iota
	// OptimizableMinMaxCount asks whether an aggregate could be answered
	// from index metadata alone.
	OptimizableMinMaxCount
	// Dependencies collects the definitions an expression relies on.
	Dependencies
	// Evaluatable asks whether every column the expression reads is
	// currently evaluatable.
	Evaluatable
)

func (k VisitorKind) String() string {
	switch k {
	case Deterministic:
		return "DETERMINISTIC"
	case OptimizableMinMaxCount:
		return "OPTIMIZABLE_MIN_MAX_COUNT"
	case Dependencies:
		return "DEPENDENCIES"
	case Evaluatable:
		return "EVALUATABLE"
	default:
		return "UNKNOWN"
	}
}

// Dependency is a named object an expression depends on, such as an
// aggregate definition.
type Dependency interface {
	DependencyName() string
}

// Visitor 表达式访问器
type Visitor struct {
	kind VisitorKind
	deps []Dependency
	seen map[string]struct{}
}

// NewVisitor 创建访问器
func NewVisitor(kind VisitorKind) *Visitor {
	return &Visitor{kind: kind, seen: make(map[string]struct{})}
}

// Kind 返回访问器类型
func (v *Visitor) Kind() VisitorKind { return v.kind }

// AddDependency records d once per name.
func (v *Visitor) AddDependency(d Dependency) {
	name := d.DependencyName()
	if _, ok := v.seen[name]; ok {
		return
	}
	v.seen[name] = struct{}{}
	v.deps = append(v.deps, d)
}

// Dependencies returns the recorded dependencies in the order they were found.
func (v *Visitor) Dependencies() []Dependency {
	return v.deps
}

// AcceptAll visits every expression and reports whether all of them accept.
func AcceptAll(v *Visitor, exprs []Expression) bool {
	for _, e := range exprs {
		if !e.Accept(v) {
			return false
		}
	}
	return true
}
