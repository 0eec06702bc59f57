package executor

import (
	"context"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/kasuganosora/aggexec/pkg/expression"
	"github.com/kasuganosora/aggexec/pkg/resource/domain"
	"github.com/kasuganosora/aggexec/pkg/sqlhandle"
)

// defaultBatchSize 默认每批读取的行数
const defaultBatchSize = 1024

// TableScan reads the listed columns of a table through an execution handle.
type TableScan struct {
	Handle  sqlhandle.Executor
	Table   string
	Columns []domain.ColumnInfo
	// BatchSize is the number of rows read between cancellation checks.
	// Zero means defaultBatchSize.
	BatchSize int
	// Progress, if set, is called after each batch with the rows read so far.
	Progress func(rows int64)
}

// Execute 执行表扫描
func (s *TableScan) Execute(ctx context.Context) (*domain.QueryResult, error) {
	if len(s.Columns) == 0 {
		return nil, errors.Newf("table scan of %s without columns", s.Table)
	}
	batchSize := s.BatchSize
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}

	names := make([]string, len(s.Columns))
	for i, col := range s.Columns {
		names[i] = expression.QuoteIdentifier(col.Name)
	}
	query := "SELECT " + strings.Join(names, ", ") + " FROM " + expression.QuoteIdentifier(s.Table)

	rows, err := s.Handle.QueryContext(ctx, query)
	if err != nil {
		return nil, errors.Wrapf(err, "scan table %s", s.Table)
	}
	defer rows.Close()

	batches := NewAggregator()
	batches.AddResult(&domain.QueryResult{Columns: s.Columns})
	batch := batches.results[0]
	var read int64
	for rows.Next() {
		values := make([]interface{}, len(s.Columns))
		ptrs := make([]interface{}, len(s.Columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, errors.Wrapf(err, "scan table %s", s.Table)
		}
		row := make(domain.Row, len(s.Columns))
		for i, col := range s.Columns {
			row[col.Name] = values[i]
		}
		batch.Rows = append(batch.Rows, row)
		read++

		if len(batch.Rows) == batchSize {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			if s.Progress != nil {
				s.Progress(read)
			}
			batch = &domain.QueryResult{Columns: s.Columns}
			batches.AddResult(batch)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrapf(err, "scan table %s", s.Table)
	}
	if s.Progress != nil && len(batch.Rows) > 0 {
		s.Progress(read)
	}

	result, err := batches.Aggregate()
	if err != nil {
		return nil, err
	}
	result.Total = int64(len(result.Rows))
	return result, nil
}

// DescribeTable reads the column names and declared types of table without
// fetching any rows.
func DescribeTable(ctx context.Context, handle sqlhandle.Executor, table string) (*domain.TableInfo, error) {
	rows, err := handle.QueryContext(ctx, "SELECT * FROM "+expression.QuoteIdentifier(table)+" LIMIT 0")
	if err != nil {
		return nil, errors.Wrapf(err, "describe table %s", table)
	}
	defer rows.Close()

	colTypes, err := rows.ColumnTypes()
	if err != nil {
		return nil, errors.Wrapf(err, "describe table %s", table)
	}
	info := &domain.TableInfo{Name: table, Columns: make([]domain.ColumnInfo, 0, len(colTypes))}
	for _, ct := range colTypes {
		nullable, ok := ct.Nullable()
		info.Columns = append(info.Columns, domain.ColumnInfo{
			Name:     ct.Name(),
			Type:     strings.ToUpper(ct.DatabaseTypeName()),
			Nullable: nullable || !ok,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrapf(err, "describe table %s", table)
	}
	return info, info.Validate()
}
