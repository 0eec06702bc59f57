package udaf

import (
	"github.com/cockroachdb/errors"
	"github.com/kasuganosora/aggexec/pkg/coercion"
	"github.com/kasuganosora/aggexec/pkg/expression"
	"github.com/kasuganosora/aggexec/pkg/logutil"
	"github.com/kasuganosora/aggexec/pkg/resource/domain"
	"github.com/kasuganosora/aggexec/pkg/types"
	"go.uber.org/zap"
)

// Manager issues call sites for one query and drives their per-group
// accumulation. Call sites are numbered by the Manager that created them
// and may only be advanced within group contexts bound by the same Manager.
//
// A Manager holds no evaluation state, so several evaluations of the same
// query may run concurrently, each with its own GroupContext.
type Manager struct {
	nextID SiteID
	logger *zap.Logger
}

// NewManager 创建聚合管理器
func NewManager(logger *zap.Logger) *Manager {
	return &Manager{logger: logutil.OrNop(logger)}
}

// NewCallSite builds an unresolved call site of def over args. It must be
// called while the query is being planned, before any evaluation starts.
func (m *Manager) NewCallSite(def *Definition, args ...expression.Expression) *CallSite {
	m.nextID++
	return &CallSite{
		id:    m.nextID,
		owner: m,
		def:   def,
		args:  args,
	}
}

// BindGroupContext starts a grouped evaluation.
func (m *Manager) BindGroupContext() *GroupContext {
	return &GroupContext{
		manager: m,
		active:  true,
		groups:  make(map[GroupKey]*groupState),
		markers: make(map[SiteID]int64),
	}
}

func (m *Manager) check(gc *GroupContext, cs *CallSite) error {
	if !gc.Active() {
		return invalidContextError(cs)
	}
	if err := cs.mustBeResolved(); err != nil {
		return err
	}
	if cs.owner != m || gc.manager != m {
		return errors.AssertionFailedf("aggregate %s does not belong to this evaluation", cs)
	}
	return nil
}

// Advance accumulates row into the current group's instance of cs. A row id
// equal to the last one seen by cs is ignored, so a row is added at most
// once however many times it is dispatched. Row ids must change for every
// input row of the evaluation.
func (m *Manager) Advance(gc *GroupContext, cs *CallSite, row domain.Row, groupRowID int64) error {
	if err := m.check(gc, cs); err != nil {
		return err
	}
	if last, ok := gc.markers[cs.id]; ok && last == groupRowID {
		return nil
	}
	gc.markers[cs.id] = groupRowID

	group := gc.currentGroup()
	fn, ok := group.instances[cs.id]
	if !ok {
		var err error
		fn, err = Instantiate(cs.def, cs.handle)
		if err != nil {
			return evaluationError(cs, err)
		}
		group.instances[cs.id] = fn
		m.logger.Debug("aggregate instance created",
			zap.String("aggregate", cs.def.Name),
			zap.Int32("site", int32(cs.id)),
			zap.String("group", string(group.key)))
	}

	value, err := cs.providerArgs(row)
	if err != nil {
		return evaluationError(cs, err)
	}
	if err := protect("add", func() error { return fn.Add(value) }); err != nil {
		return evaluationError(cs, err)
	}
	return nil
}

// Finalize returns the result of cs for the current group. A group that
// never reached Advance is answered by a fresh instance that saw no rows;
// that instance is not kept.
func (m *Manager) Finalize(gc *GroupContext, cs *CallSite) (types.Value, error) {
	if err := m.check(gc, cs); err != nil {
		return types.Null, err
	}

	group := gc.currentGroup()
	fn, ok := group.instances[cs.id]
	if !ok {
		var err error
		fn, err = Instantiate(cs.def, cs.handle)
		if err != nil {
			return types.Null, evaluationError(cs, err)
		}
	}

	var res interface{}
	if err := protect("result", func() error {
		var err error
		res, err = fn.Result()
		return err
	}); err != nil {
		return types.Null, evaluationError(cs, err)
	}
	v, err := coercion.ToInternal(res, cs.resultType)
	if err != nil {
		return types.Null, evaluationError(cs, err)
	}

	m.logger.Debug("aggregate finalized",
		zap.String("aggregate", cs.def.Name),
		zap.Int32("site", int32(cs.id)),
		zap.String("group", string(group.key)),
		zap.Bool("empty", !ok))
	return v, nil
}

// providerArgs evaluates the arguments against row and converts them to the
// provider's representation: the value itself for one argument, otherwise a
// slice in argument order.
func (cs *CallSite) providerArgs(row domain.Row) (interface{}, error) {
	values := make([]interface{}, len(cs.args))
	for i, a := range cs.args {
		v, err := a.Eval(row)
		if err != nil {
			return nil, err
		}
		obj, err := coercion.ToProvider(v, cs.argTypes[i])
		if err != nil {
			return nil, err
		}
		values[i] = obj
	}
	if len(values) == 1 {
		return values[0], nil
	}
	return values, nil
}
