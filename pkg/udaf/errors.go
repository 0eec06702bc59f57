package udaf

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/redact"
)

// Error classes. Every error returned by this package for one of these
// conditions satisfies errors.Is with the matching class, and still exposes
// the underlying cause to errors.Is / errors.As.
var (
	// ErrTypeResolution 提供者拒绝参数类型，或在类型探测时失败
	ErrTypeResolution = errors.New("aggregate type resolution failed")
	// ErrInvalidAggregateContext 聚合在分组上下文之外被求值
	ErrInvalidAggregateContext = errors.New("aggregate evaluated outside of a grouping context")
	// ErrAggregateEvaluation 提供者实例化、累加或取结果失败，或值无法转换
	ErrAggregateEvaluation = errors.New("aggregate evaluation failed")
)

func typeResolutionError(cs *CallSite, cause error) error {
	return errors.Mark(errors.Wrapf(cause, "resolving types of %s", cs), ErrTypeResolution)
}

func evaluationError(cs *CallSite, cause error) error {
	return errors.Mark(errors.Wrapf(cause, "evaluating %s", cs), ErrAggregateEvaluation)
}

func invalidContextError(cs *CallSite) error {
	return errors.Mark(errors.Newf("%s used where aggregates are not allowed", cs), ErrInvalidAggregateContext)
}

// protect runs a provider callback and turns a panic into an error.
func protect(op redact.SafeString, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			if e, ok := r.(error); ok {
				err = errors.Wrapf(e, "provider panicked in %s", op)
				return
			}
			err = errors.Newf("provider panicked in %s: %s", op, fmt.Sprint(r))
		}
	}()
	return fn()
}
