package functions

import (
	"reflect"

	"github.com/cockroachdb/errors"
)

// Batch is a run of input rows in columnar form, one column per argument.
type Batch struct {
	Columns [][]interface{}
	// Offset is the position of the first row in the whole input. It is only
	// meaningful when Positioned is set; accumulators that need row order
	// number unpositioned rows themselves.
	Offset     uint64
	Positioned bool
}

// NewBatch builds an unpositioned batch from columns
func NewBatch(columns ...[]interface{}) *Batch {
	return &Batch{Columns: columns}
}

// WithOffset marks the batch as starting at the given input position
func (b *Batch) WithOffset(offset uint64) *Batch {
	b.Offset = offset
	b.Positioned = true
	return b
}

// NumRows returns the number of rows, the length of the first column
func (b *Batch) NumRows() int {
	if b == nil || len(b.Columns) == 0 {
		return 0
	}
	return len(b.Columns[0])
}

// check verifies the column count and that all columns have the same length
func (b *Batch) check(arity int) error {
	if b == nil {
		return errors.Wrap(ErrInvalidArgument, "nil batch")
	}
	if len(b.Columns) != arity {
		return errors.Wrapf(ErrArgumentCount, "expected %d columns, got %d", arity, len(b.Columns))
	}
	rows := b.NumRows()
	for i, column := range b.Columns {
		if len(column) != rows {
			return errors.Wrapf(ErrInvalidArgument, "column %d has %d rows, expected %d", i+1, len(column), rows)
		}
	}
	return nil
}

// ToColumn converts a slice or array of any element type to []interface{}
func ToColumn(v interface{}) ([]interface{}, error) {
	switch column := v.(type) {
	case []interface{}:
		return column, nil
	case nil:
		return nil, errors.Wrap(ErrInvalidArgument, "column is nil")
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, errors.Wrapf(ErrInvalidArgument, "expected a column, got %T", v)
	}
	column := make([]interface{}, rv.Len())
	for i := range column {
		column[i] = rv.Index(i).Interface()
	}
	return column, nil
}
