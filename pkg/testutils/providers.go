package testutils

import (
	"context"
	"sync/atomic"

	"github.com/cockroachdb/errors"
	"github.com/kasuganosora/aggexec/pkg/builtin"
	"github.com/kasuganosora/aggexec/pkg/sqlhandle"
	"github.com/kasuganosora/aggexec/pkg/udaf"
	"github.com/kasuganosora/aggexec/pkg/utils"
	"github.com/lib/pq/oid"
)

// MulSum sums the products of its two integer arguments as a numeric.
type MulSum struct{ sum int64 }

func (s *MulSum) Init(sqlhandle.Executor) error { return nil }

func (s *MulSum) ResultType(argTypes []oid.Oid) (oid.Oid, error) {
	if len(argTypes) != 2 || !IsInteger(argTypes[0]) || !IsInteger(argTypes[1]) {
		return 0, errors.New("mul_sum accepts two integer arguments")
	}
	return oid.T_numeric, nil
}

func (s *MulSum) Add(v interface{}) error {
	pair, ok := v.([]interface{})
	if !ok || len(pair) != 2 {
		return errors.Newf("mul_sum expects two values, got %T", v)
	}
	if pair[0] == nil || pair[1] == nil {
		return nil
	}
	a, err := utils.ToInt64(pair[0])
	if err != nil {
		return err
	}
	b, err := utils.ToInt64(pair[1])
	if err != nil {
		return err
	}
	s.sum += a * b
	return nil
}

func (s *MulSum) Result() (interface{}, error) { return s.sum, nil }

var ledgerSeq atomic.Int64

// Ledger records every added value in the table ledger through its
// execution handle and returns how many rows it wrote. It needs the handle,
// so Init fails without one.
type Ledger struct {
	id     int64
	handle sqlhandle.Executor
}

func (l *Ledger) Init(handle sqlhandle.Executor) error {
	if handle == nil {
		return errors.New("ledger needs an execution handle")
	}
	l.id = ledgerSeq.Add(1)
	l.handle = handle
	_, err := handle.ExecContext(context.Background(),
		"CREATE TABLE IF NOT EXISTS ledger (instance INTEGER, value INTEGER)")
	return err
}

func (l *Ledger) ResultType(argTypes []oid.Oid) (oid.Oid, error) {
	if len(argTypes) != 1 || !IsInteger(argTypes[0]) {
		return 0, errors.New("ledger accepts one integer argument")
	}
	return oid.T_int8, nil
}

func (l *Ledger) Add(v interface{}) error {
	_, err := l.handle.ExecContext(context.Background(),
		"INSERT INTO ledger (instance, value) VALUES (?, ?)", l.id, v)
	return err
}

func (l *Ledger) Result() (interface{}, error) {
	var n int64
	err := l.handle.QueryRowContext(context.Background(),
		"SELECT COUNT(*) FROM ledger WHERE instance = ?", l.id).Scan(&n)
	return n, err
}

// registry holds the built-in functions plus the test-only providers.
var registry = func() *builtin.FunctionRegistry {
	r := builtin.NewDefaultRegistry()
	for _, def := range []*udaf.Definition{
		{Name: "mul_sum", New: func() udaf.AggregateFunction { return &MulSum{} }},
		{Name: "ledger", New: func() udaf.AggregateFunction { return &Ledger{} }},
	} {
		if err := r.Register(&builtin.FunctionInfo{Definition: def}); err != nil {
			panic(err)
		}
	}
	return r
}()

// Lookup resolves the built-in and test-only providers case-insensitively.
func Lookup(name string) (*udaf.Definition, bool) {
	return registry.Lookup(name)
}

// IsInteger reports whether o is one of the integer types.
func IsInteger(o oid.Oid) bool {
	switch o {
	case oid.T_int2, oid.T_int4, oid.T_int8:
		return true
	}
	return false
}
