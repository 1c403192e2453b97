// Package table provides the in-memory named-column table shared by all
// preprocessing stages.
//
// A Table is an ordered collection of equally sized columns. Each column has
// one of four dtypes (numeric, string, bool, time) and a per-row null mask.
// Dtypes are inferred at load time, never declared by callers; the encoder's
// column classifier treats the dtype plus cardinality as the sole source of
// truth for what counts as categorical.
//
// Tables are cheap to copy structurally: Drop and Select return new tables
// sharing column storage. Stages that modify values work on cloned columns.
package table

import (
	"math"
	"strconv"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/tabprep/tabprep/pkg/errors"
)

// DType is the inferred semantic type of a column.
type DType int

const (
	// Numeric columns hold float64 values (ints are widened on load).
	Numeric DType = iota
	// String columns hold free-form or categorical text.
	String
	// Bool columns hold true/false flags.
	Bool
	// Time columns hold timestamps.
	Time
)

// String returns the dtype name.
func (d DType) String() string {
	switch d {
	case Numeric:
		return "numeric"
	case String:
		return "string"
	case Bool:
		return "bool"
	case Time:
		return "time"
	default:
		return "unknown"
	}
}

// Column is a single named column with a null mask.
type Column struct {
	name  string
	dtype DType

	floats []float64
	strs   []string
	bools  []bool
	times  []time.Time

	null []bool
}

// NewNumeric creates a numeric column. A nil null mask means no nulls.
func NewNumeric(name string, values []float64, null []bool) *Column {
	return &Column{name: name, dtype: Numeric, floats: values, null: normalizeMask(null, len(values))}
}

// NewString creates a string column. A nil null mask means no nulls.
func NewString(name string, values []string, null []bool) *Column {
	return &Column{name: name, dtype: String, strs: values, null: normalizeMask(null, len(values))}
}

// NewBool creates a bool column. A nil null mask means no nulls.
func NewBool(name string, values []bool, null []bool) *Column {
	return &Column{name: name, dtype: Bool, bools: values, null: normalizeMask(null, len(values))}
}

// NewTime creates a time column. A nil null mask means no nulls.
func NewTime(name string, values []time.Time, null []bool) *Column {
	return &Column{name: name, dtype: Time, times: values, null: normalizeMask(null, len(values))}
}

func normalizeMask(null []bool, n int) []bool {
	if null == nil {
		return make([]bool, n)
	}
	return null
}

// Name returns the column name.
func (c *Column) Name() string { return c.name }

// DType returns the column dtype.
func (c *Column) DType() DType { return c.dtype }

// Len returns the number of rows.
func (c *Column) Len() int {
	switch c.dtype {
	case Numeric:
		return len(c.floats)
	case String:
		return len(c.strs)
	case Bool:
		return len(c.bools)
	case Time:
		return len(c.times)
	}
	return 0
}

// IsNull reports whether row i is null.
func (c *Column) IsNull(i int) bool { return c.null[i] }

// NullCount returns the number of null rows.
func (c *Column) NullCount() int {
	n := 0
	for _, isNull := range c.null {
		if isNull {
			n++
		}
	}
	return n
}

// Float returns the numeric value at row i. NaN for nulls and non-numeric
// columns.
func (c *Column) Float(i int) float64 {
	if c.dtype != Numeric || c.null[i] {
		return math.NaN()
	}
	return c.floats[i]
}

// SetFloat overwrites the numeric value at row i and clears its null flag.
// Panics on non-numeric columns.
func (c *Column) SetFloat(i int, v float64) {
	if c.dtype != Numeric {
		panic("table: SetFloat on non-numeric column " + c.name)
	}
	c.floats[i] = v
	c.null[i] = false
}

// SetString overwrites the string value at row i and clears its null flag.
// Panics on non-string columns.
func (c *Column) SetString(i int, v string) {
	if c.dtype != String {
		panic("table: SetString on non-string column " + c.name)
	}
	c.strs[i] = v
	c.null[i] = false
}

// SetBool overwrites the bool value at row i and clears its null flag.
// Panics on non-bool columns.
func (c *Column) SetBool(i int, v bool) {
	if c.dtype != Bool {
		panic("table: SetBool on non-bool column " + c.name)
	}
	c.bools[i] = v
	c.null[i] = false
}

// SetTime overwrites the timestamp at row i and clears its null flag.
// Panics on non-time columns.
func (c *Column) SetTime(i int, v time.Time) {
	if c.dtype != Time {
		panic("table: SetTime on non-time column " + c.name)
	}
	c.times[i] = v
	c.null[i] = false
}

// SetNull marks row i as null.
func (c *Column) SetNull(i int) {
	c.null[i] = true
}

// Str returns the string value at row i ("" for nulls).
func (c *Column) Str(i int) string {
	if c.dtype != String || c.null[i] {
		return ""
	}
	return c.strs[i]
}

// BoolAt returns the bool value at row i (false for nulls).
func (c *Column) BoolAt(i int) bool {
	if c.dtype != Bool || c.null[i] {
		return false
	}
	return c.bools[i]
}

// TimeAt returns the timestamp at row i (zero time for nulls).
func (c *Column) TimeAt(i int) time.Time {
	if c.dtype != Time || c.null[i] {
		return time.Time{}
	}
	return c.times[i]
}

// StringValue renders row i as its canonical categorical string. Nulls
// render as the given fill value. Numeric values use the shortest float
// representation, bools render "true"/"false", times use RFC 3339.
func (c *Column) StringValue(i int, nullFill string) string {
	if c.null[i] {
		return nullFill
	}
	switch c.dtype {
	case Numeric:
		return strconv.FormatFloat(c.floats[i], 'g', -1, 64)
	case String:
		return c.strs[i]
	case Bool:
		return strconv.FormatBool(c.bools[i])
	case Time:
		return c.times[i].Format(time.RFC3339)
	}
	return nullFill
}

// StringValues renders the whole column as categorical strings with the
// given null fill.
func (c *Column) StringValues(nullFill string) []string {
	out := make([]string, c.Len())
	for i := range out {
		out[i] = c.StringValue(i, nullFill)
	}
	return out
}

// DistinctCount returns the number of distinct non-null values.
func (c *Column) DistinctCount() int {
	seen := make(map[string]struct{})
	for i := 0; i < c.Len(); i++ {
		if c.null[i] {
			continue
		}
		seen[c.StringValue(i, "")] = struct{}{}
	}
	return len(seen)
}

// Clone returns a deep copy of the column.
func (c *Column) Clone() *Column {
	clone := &Column{name: c.name, dtype: c.dtype}
	clone.null = append([]bool(nil), c.null...)
	switch c.dtype {
	case Numeric:
		clone.floats = append([]float64(nil), c.floats...)
	case String:
		clone.strs = append([]string(nil), c.strs...)
	case Bool:
		clone.bools = append([]bool(nil), c.bools...)
	case Time:
		clone.times = append([]time.Time(nil), c.times...)
	}
	return clone
}

// Table is an ordered set of equally sized named columns.
type Table struct {
	cols  []*Column
	index map[string]int
}

// New creates a table from the given columns. All columns must have the
// same length and unique names.
func New(cols ...*Column) (*Table, error) {
	t := &Table{index: make(map[string]int, len(cols))}
	for _, col := range cols {
		if err := t.AddColumn(col); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// NumRows returns the row count (0 for an empty table).
func (t *Table) NumRows() int {
	if len(t.cols) == 0 {
		return 0
	}
	return t.cols[0].Len()
}

// NumCols returns the column count.
func (t *Table) NumCols() int { return len(t.cols) }

// Names returns the column names in order.
func (t *Table) Names() []string {
	names := make([]string, len(t.cols))
	for i, col := range t.cols {
		names[i] = col.name
	}
	return names
}

// Has reports whether a column exists.
func (t *Table) Has(name string) bool {
	_, ok := t.index[name]
	return ok
}

// Column returns the named column, or false if absent.
func (t *Table) Column(name string) (*Column, bool) {
	i, ok := t.index[name]
	if !ok {
		return nil, false
	}
	return t.cols[i], true
}

// AddColumn appends a column. Fails on duplicate names or row-count
// mismatch.
func (t *Table) AddColumn(col *Column) error {
	if _, dup := t.index[col.name]; dup {
		return errors.NewValueError("Table.AddColumn", "duplicate column "+col.name)
	}
	if len(t.cols) > 0 && col.Len() != t.NumRows() {
		return errors.NewDimensionError("Table.AddColumn", t.NumRows(), col.Len(), 0)
	}
	t.index[col.name] = len(t.cols)
	t.cols = append(t.cols, col)
	return nil
}

// Drop returns a new table without the given columns. Names not present are
// ignored. Column storage is shared with the receiver.
func (t *Table) Drop(names ...string) *Table {
	dropped := make(map[string]struct{}, len(names))
	for _, name := range names {
		dropped[name] = struct{}{}
	}
	out := &Table{index: make(map[string]int)}
	for _, col := range t.cols {
		if _, skip := dropped[col.name]; skip {
			continue
		}
		out.index[col.name] = len(out.cols)
		out.cols = append(out.cols, col)
	}
	return out
}

// Select returns a new table with only the given columns, in the given
// order. Names not present are skipped silently; stages use this to stay
// lenient about schema drift between fit and transform data.
func (t *Table) Select(names []string) *Table {
	out := &Table{index: make(map[string]int)}
	for _, name := range names {
		i, ok := t.index[name]
		if !ok {
			continue
		}
		out.index[name] = len(out.cols)
		out.cols = append(out.cols, t.cols[i])
	}
	return out
}

// Clone returns a deep copy of the table.
func (t *Table) Clone() *Table {
	out := &Table{index: make(map[string]int, len(t.cols))}
	for _, col := range t.cols {
		out.index[col.name] = len(out.cols)
		out.cols = append(out.cols, col.Clone())
	}
	return out
}

// Take returns a new table containing only the given rows, in the given
// order. Used for train/validation/test splitting.
func (t *Table) Take(rows []int) *Table {
	out := &Table{index: make(map[string]int, len(t.cols))}
	for _, col := range t.cols {
		taken := &Column{name: col.name, dtype: col.dtype, null: make([]bool, len(rows))}
		switch col.dtype {
		case Numeric:
			taken.floats = make([]float64, len(rows))
			for i, r := range rows {
				taken.floats[i] = col.floats[r]
			}
		case String:
			taken.strs = make([]string, len(rows))
			for i, r := range rows {
				taken.strs[i] = col.strs[r]
			}
		case Bool:
			taken.bools = make([]bool, len(rows))
			for i, r := range rows {
				taken.bools[i] = col.bools[r]
			}
		case Time:
			taken.times = make([]time.Time, len(rows))
			for i, r := range rows {
				taken.times[i] = col.times[r]
			}
		}
		for i, r := range rows {
			taken.null[i] = col.null[r]
		}
		out.index[col.name] = len(out.cols)
		out.cols = append(out.cols, taken)
	}
	return out
}

// NumericNames returns the names of all numeric columns, in table order.
func (t *Table) NumericNames() []string {
	var names []string
	for _, col := range t.cols {
		if col.dtype == Numeric {
			names = append(names, col.name)
		}
	}
	return names
}

// Matrix extracts the named numeric columns into a dense matrix of shape
// (rows, len(names)). Null entries become NaN. Fails on missing or
// non-numeric columns.
func (t *Table) Matrix(names []string) (*mat.Dense, error) {
	rows := t.NumRows()
	m := mat.NewDense(rows, len(names), nil)
	for j, name := range names {
		col, ok := t.Column(name)
		if !ok {
			return nil, errors.NewModelError("Table.Matrix", name, errors.ErrMissingColumn)
		}
		if col.dtype != Numeric {
			return nil, errors.NewValueError("Table.Matrix", "column "+name+" is not numeric")
		}
		for i := 0; i < rows; i++ {
			m.Set(i, j, col.Float(i))
		}
	}
	return m, nil
}

// SetMatrix writes a dense matrix back into the named numeric columns,
// replacing their values. Shapes must match exactly.
func (t *Table) SetMatrix(names []string, m mat.Matrix) error {
	rows, cols := m.Dims()
	if rows != t.NumRows() {
		return errors.NewDimensionError("Table.SetMatrix", t.NumRows(), rows, 0)
	}
	if cols != len(names) {
		return errors.NewDimensionError("Table.SetMatrix", len(names), cols, 1)
	}
	for j, name := range names {
		col, ok := t.Column(name)
		if !ok {
			return errors.NewModelError("Table.SetMatrix", name, errors.ErrMissingColumn)
		}
		if col.dtype != Numeric {
			return errors.NewValueError("Table.SetMatrix", "column "+name+" is not numeric")
		}
		for i := 0; i < rows; i++ {
			col.SetFloat(i, m.At(i, j))
		}
	}
	return nil
}
