package udaf

import (
	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/redact"
	"github.com/kasuganosora/aggexec/pkg/expression"
	"github.com/kasuganosora/aggexec/pkg/sqlhandle"
	"github.com/lib/pq/oid"
)

// AggregateFunction is implemented by user-supplied aggregates. One instance
// accumulates exactly one group.
//
// Types are exchanged as PostgreSQL type OIDs. Values passed to Add are the
// native Go objects of the argument types (int64 for int8, string for text,
// *apd.Decimal for numeric, ...). A call with exactly one argument passes the
// value itself; any other arity passes a []interface{} in argument order.
type AggregateFunction interface {
	// Init prepares the instance. handle may be used to run statements
	// against the database the query runs on.
	Init(handle sqlhandle.Executor) error
	// ResultType returns the result type for the given argument types, or an
	// error when the types are not accepted.
	ResultType(argTypes []oid.Oid) (oid.Oid, error)
	// Add accumulates the arguments of one row.
	Add(value interface{}) error
	// Result returns the aggregate of everything added so far. nil means no
	// value. It may be called without any preceding Add.
	Result() (interface{}, error)
}

// Definition 已注册的聚合定义：名称与实例工厂
type Definition struct {
	Name string
	New  func() AggregateFunction
}

var _ expression.Dependency = (*Definition)(nil)

// DependencyName implements expression.Dependency.
func (d *Definition) DependencyName() string { return d.Name }

// Instantiate creates a fresh instance of def and initialises it with handle.
// Failures, including provider panics, are ErrAggregateEvaluation.
func Instantiate(def *Definition, handle sqlhandle.Executor) (AggregateFunction, error) {
	if def == nil || def.New == nil {
		return nil, errors.AssertionFailedf("aggregate definition without a factory")
	}

	var fn AggregateFunction
	err := protect("factory", func() error {
		fn = def.New()
		if fn == nil {
			return errors.New("factory returned no instance")
		}
		return nil
	})
	if err == nil {
		err = protect("init", func() error { return fn.Init(handle) })
	}
	if err != nil {
		return nil, errors.Mark(
			errors.Wrapf(err, "instantiating aggregate %s", redact.Safe(def.Name)),
			ErrAggregateEvaluation)
	}
	return fn, nil
}
