package executor

import (
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/kasuganosora/aggexec/pkg/resource/domain"
)

// Aggregator 输入批次合并器
//
// Batches are concatenated in the order they were added, so row ids assigned
// by GroupAggregate.Execute follow the arrival order.
type Aggregator struct {
	results []*domain.QueryResult
}

// NewAggregator 创建合并器
func NewAggregator() *Aggregator {
	return &Aggregator{
		results: make([]*domain.QueryResult, 0),
	}
}

// AddResult 添加批次
func (a *Aggregator) AddResult(result *domain.QueryResult) {
	a.results = append(a.results, result)
}

// Aggregate concatenates every batch. All batches must have the same column
// names, compared case-insensitively.
func (a *Aggregator) Aggregate() (*domain.QueryResult, error) {
	if len(a.results) == 0 {
		return nil, errors.New("no results to aggregate")
	}
	if len(a.results) == 1 {
		return a.results[0], nil
	}

	merged := &domain.QueryResult{
		Columns: a.results[0].Columns,
		Rows:    make([]domain.Row, 0),
	}
	for i, result := range a.results {
		if !sameColumns(merged.Columns, result.Columns) {
			return nil, errors.Newf("batch %d columns %v do not match %v",
				i, result.ColumnNames(), a.results[0].ColumnNames())
		}
		merged.Rows = append(merged.Rows, result.Rows...)
	}
	merged.Total = int64(len(merged.Rows))
	return merged, nil
}

// Clear 清空
func (a *Aggregator) Clear() {
	a.results = make([]*domain.QueryResult, 0)
}

// Count 返回批次数
func (a *Aggregator) Count() int {
	return len(a.results)
}

func sameColumns(a, b []domain.ColumnInfo) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !strings.EqualFold(a[i].Name, b[i].Name) {
			return false
		}
	}
	return true
}
