package executor

import (
	"context"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
)

// ErrQueryNotFound is returned for query ids the runtime does not track.
var ErrQueryNotFound = errors.New("query not found")

// Runtime 执行运行时，跟踪运行中的聚合查询以便取消
type Runtime struct {
	activeQueries map[string]*QueryContext
	mu            sync.RWMutex
}

// QueryContext 查询上下文
type QueryContext struct {
	QueryID    string
	SQL        string
	StartTime  time.Time
	CancelFunc context.CancelFunc
	Status     string
	Rows       int64
}

// NewRuntime 创建执行运行时
func NewRuntime() *Runtime {
	return &Runtime{
		activeQueries: make(map[string]*QueryContext),
	}
}

// Begin registers sql under a fresh id and returns a context that
// CancelQuery cancels. finish must be called once the query is done.
func (r *Runtime) Begin(ctx context.Context, sql string) (qctx context.Context, queryID string, finish func()) {
	qctx, cancel := context.WithCancel(ctx)
	queryID = uuid.NewString()
	r.RegisterQuery(queryID, sql, cancel)
	return qctx, queryID, func() {
		cancel()
		r.UnregisterQuery(queryID)
	}
}

// RegisterQuery 注册查询
func (r *Runtime) RegisterQuery(queryID, sql string, cancelFunc context.CancelFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.activeQueries[queryID] = &QueryContext{
		QueryID:    queryID,
		SQL:        sql,
		StartTime:  time.Now(),
		CancelFunc: cancelFunc,
		Status:     "running",
	}
}

// UnregisterQuery 注销查询
func (r *Runtime) UnregisterQuery(queryID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.activeQueries, queryID)
}

// UpdateStatus records the phase a query is in and how many rows it has
// handled so far. Empty status keeps the previous one.
func (r *Runtime) UpdateStatus(queryID, status string, rows int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if ctx, ok := r.activeQueries[queryID]; ok {
		ctx.Rows = rows
		if status != "" {
			ctx.Status = status
		}
	}
}

// CancelQuery 取消查询
func (r *Runtime) CancelQuery(queryID string) error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ctx, ok := r.activeQueries[queryID]
	if !ok {
		return errors.Wrapf(ErrQueryNotFound, "cancel %s", queryID)
	}
	ctx.CancelFunc()
	return nil
}

// CancelAll cancels every running query and returns how many there were.
func (r *Runtime) CancelAll() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, ctx := range r.activeQueries {
		ctx.CancelFunc()
	}
	return len(r.activeQueries)
}

// GetQueryStatus 获取查询状态
func (r *Runtime) GetQueryStatus(queryID string) (*QueryContext, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ctx, ok := r.activeQueries[queryID]
	if !ok {
		return nil, errors.Wrapf(ErrQueryNotFound, "status of %s", queryID)
	}
	// 返回副本，避免调用者竞争修改内部状态
	cp := *ctx
	return &cp, nil
}

// GetAllQueries 获取所有活跃查询
func (r *Runtime) GetAllQueries() []*QueryContext {
	r.mu.RLock()
	defer r.mu.RUnlock()
	queries := make([]*QueryContext, 0, len(r.activeQueries))
	for _, ctx := range r.activeQueries {
		cp := *ctx
		queries = append(queries, &cp)
	}
	return queries
}
