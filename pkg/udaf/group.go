package udaf

// GroupKey identifies a group within one evaluation. Its content is chosen
// by the executor and never inspected here.
type GroupKey string

// groupState holds the live instances of one group, by call site.
type groupState struct {
	key       GroupKey
	instances map[SiteID]AggregateFunction
}

// GroupContext is the grouping scope of one query evaluation. It is created
// by Manager.BindGroupContext and must not be shared between evaluations.
type GroupContext struct {
	manager *Manager
	active  bool

	groups  map[GroupKey]*groupState
	order   []GroupKey
	current *groupState

	// markers holds, per call site, the last row id accumulated.
	markers map[SiteID]int64
}

// SetGroup makes key the current group, creating its state on first use.
func (gc *GroupContext) SetGroup(key GroupKey) {
	if !gc.active {
		return
	}
	if gc.current != nil && gc.current.key == key {
		return
	}
	g, ok := gc.groups[key]
	if !ok {
		g = &groupState{key: key, instances: make(map[SiteID]AggregateFunction)}
		gc.groups[key] = g
		gc.order = append(gc.order, key)
	}
	gc.current = g
}

// Current 返回当前分组键
func (gc *GroupContext) Current() GroupKey {
	if !gc.Active() {
		return ""
	}
	return gc.currentGroup().key
}

// Groups returns the group keys in the order they were first selected.
func (gc *GroupContext) Groups() []GroupKey {
	return gc.order
}

// Active reports whether the context is bound.
func (gc *GroupContext) Active() bool {
	return gc != nil && gc.active
}

// Release ends the evaluation, dropping every instance and row marker.
// Later Advance or Finalize calls fail with ErrInvalidAggregateContext.
func (gc *GroupContext) Release() {
	gc.active = false
	gc.groups = nil
	gc.order = nil
	gc.current = nil
	gc.markers = nil
}

// currentGroup returns the current group, selecting the empty key when the
// executor never chose one (aggregation without GROUP BY).
func (gc *GroupContext) currentGroup() *groupState {
	if gc.current == nil {
		gc.SetGroup("")
	}
	return gc.current
}
