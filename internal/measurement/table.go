package measurement

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"
)

// ErrNoColumn is returned when a lookup names a column the table lacks.
var ErrNoColumn = errors.New("no such column")

// Kind distinguishes numeric columns from free-text ones.
type Kind int

const (
	// Numeric columns hold float64 values with NaN marking a null entry.
	Numeric Kind = iota
	// Text columns hold raw strings with a separate null mask.
	Text
)

func (k Kind) String() string {
	switch k {
	case Numeric:
		return "numeric"
	case Text:
		return "text"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// column is never mutated after construction; tables share columns freely.
type column struct {
	name   string
	kind   Kind
	floats []float64
	texts  []string
	nulls  []bool
}

func (c *column) isNull(i int) bool {
	if c.kind == Numeric {
		return math.IsNaN(c.floats[i])
	}
	return c.nulls[i]
}

func (c *column) take(idx []int) *column {
	out := &column{name: c.name, kind: c.kind}
	if c.kind == Numeric {
		out.floats = make([]float64, len(idx))
		for j, i := range idx {
			out.floats[j] = c.floats[i]
		}
		return out
	}
	out.texts = make([]string, len(idx))
	out.nulls = make([]bool, len(idx))
	for j, i := range idx {
		out.texts[j] = c.texts[i]
		out.nulls[j] = c.nulls[i]
	}
	return out
}

// Table is an immutable, column-oriented measurement table. Every transform
// returns a new Table; column storage that does not change is shared.
type Table struct {
	cols  []*column
	index map[string]int
	rows  int
}

// NewTable assembles a table from builder columns. All columns must have the
// same length and distinct names.
func NewTable(cols ...ColumnData) (*Table, error) {
	t := &Table{index: make(map[string]int, len(cols)), rows: -1}
	for _, cd := range cols {
		c, err := cd.build()
		if err != nil {
			return nil, err
		}
		n := c.len()
		if t.rows >= 0 && n != t.rows {
			return nil, fmt.Errorf("column %q has %d rows, want %d", c.name, n, t.rows)
		}
		if _, dup := t.index[c.name]; dup {
			return nil, fmt.Errorf("duplicate column %q", c.name)
		}
		t.rows = n
		t.index[c.name] = len(t.cols)
		t.cols = append(t.cols, c)
	}
	if t.rows < 0 {
		t.rows = 0
	}
	return t, nil
}

func (c *column) len() int {
	if c.kind == Numeric {
		return len(c.floats)
	}
	return len(c.texts)
}

// ColumnData describes one column handed to NewTable.
type ColumnData struct {
	Name   string
	Floats []float64
	Texts  []string
	Nulls  []bool
}

// FloatColumn is a ColumnData shorthand for a numeric column.
func FloatColumn(name string, values ...float64) ColumnData {
	return ColumnData{Name: name, Floats: values}
}

// TextColumn is a ColumnData shorthand for a text column. Empty strings are
// treated as null.
func TextColumn(name string, values ...string) ColumnData {
	nulls := make([]bool, len(values))
	for i, v := range values {
		nulls[i] = v == ""
	}
	return ColumnData{Name: name, Texts: values, Nulls: nulls}
}

func (cd ColumnData) build() (*column, error) {
	if cd.Name == "" {
		return nil, errors.New("column name is empty")
	}
	if cd.Texts != nil {
		nulls := cd.Nulls
		if nulls == nil {
			nulls = make([]bool, len(cd.Texts))
		}
		if len(nulls) != len(cd.Texts) {
			return nil, fmt.Errorf("column %q: null mask has %d entries, want %d", cd.Name, len(nulls), len(cd.Texts))
		}
		return &column{
			name:  cd.Name,
			kind:  Text,
			texts: append([]string(nil), cd.Texts...),
			nulls: append([]bool(nil), nulls...),
		}, nil
	}
	return &column{
		name:   cd.Name,
		kind:   Numeric,
		floats: append([]float64{}, cd.Floats...),
	}, nil
}

// Len returns the number of rows.
func (t *Table) Len() int { return t.rows }

// Names returns the column names in table order.
func (t *Table) Names() []string {
	out := make([]string, len(t.cols))
	for i, c := range t.cols {
		out[i] = c.name
	}
	return out
}

// Has reports whether the table carries the named column.
func (t *Table) Has(name string) bool {
	_, ok := t.index[name]
	return ok
}

// Schema reports which vocabulary columns are present.
func (t *Table) Schema() Schema {
	return NewSchema(t.Names())
}

func (t *Table) col(name string) (*column, error) {
	i, ok := t.index[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoColumn, name)
	}
	return t.cols[i], nil
}

// Kind returns the kind of the named column.
func (t *Table) Kind(name string) (Kind, error) {
	c, err := t.col(name)
	if err != nil {
		return 0, err
	}
	return c.kind, nil
}

// Floats returns a copy of a numeric column. Nulls are NaN.
func (t *Table) Floats(name string) ([]float64, error) {
	c, err := t.col(name)
	if err != nil {
		return nil, err
	}
	if c.kind != Numeric {
		return nil, fmt.Errorf("column %s is %s, not numeric", name, c.kind)
	}
	return append([]float64(nil), c.floats...), nil
}

// Texts returns a copy of a text column and its null mask.
func (t *Table) Texts(name string) ([]string, []bool, error) {
	c, err := t.col(name)
	if err != nil {
		return nil, nil, err
	}
	if c.kind != Text {
		return nil, nil, fmt.Errorf("column %s is %s, not text", name, c.kind)
	}
	return append([]string(nil), c.texts...), append([]bool(nil), c.nulls...), nil
}

// NullCount returns the number of null entries in the named column.
func (t *Table) NullCount(name string) (int, error) {
	c, err := t.col(name)
	if err != nil {
		return 0, err
	}
	n := 0
	for i := 0; i < t.rows; i++ {
		if c.isNull(i) {
			n++
		}
	}
	return n, nil
}

// WithFloats returns a table where the named numeric column holds values.
// An existing column of that name is replaced in place; otherwise the column
// is appended.
func (t *Table) WithFloats(name string, values []float64) (*Table, error) {
	if len(values) != t.rows {
		return nil, fmt.Errorf("column %s has %d rows, want %d", name, len(values), t.rows)
	}
	nc := &column{name: name, kind: Numeric, floats: append([]float64(nil), values...)}

	out := &Table{
		cols:  append([]*column(nil), t.cols...),
		index: make(map[string]int, len(t.index)+1),
		rows:  t.rows,
	}
	for k, v := range t.index {
		out.index[k] = v
	}
	if i, ok := out.index[name]; ok {
		out.cols[i] = nc
	} else {
		out.index[name] = len(out.cols)
		out.cols = append(out.cols, nc)
	}
	return out, nil
}

// Select returns a table holding the given rows in the given order.
func (t *Table) Select(rows []int) (*Table, error) {
	for _, r := range rows {
		if r < 0 || r >= t.rows {
			return nil, fmt.Errorf("row %d out of range [0,%d)", r, t.rows)
		}
	}
	out := &Table{
		cols:  make([]*column, len(t.cols)),
		index: t.index,
		rows:  len(rows),
	}
	for i, c := range t.cols {
		out.cols[i] = c.take(rows)
	}
	return out, nil
}

// DropNull returns a view without rows where any of the named columns is
// null. The receiver is left untouched.
func (t *Table) DropNull(names ...string) (*Table, error) {
	cols := make([]*column, 0, len(names))
	for _, n := range names {
		c, err := t.col(n)
		if err != nil {
			return nil, err
		}
		cols = append(cols, c)
	}
	keep := make([]int, 0, t.rows)
	for i := 0; i < t.rows; i++ {
		drop := false
		for _, c := range cols {
			if c.isNull(i) {
				drop = true
				break
			}
		}
		if !drop {
			keep = append(keep, i)
		}
	}
	if len(keep) == t.rows {
		return t, nil
	}
	return t.Select(keep)
}

// Timestamps parses the Timestamp column. A null or unparsable entry is an
// error naming the offending row.
func (t *Table) Timestamps() ([]time.Time, error) {
	c, err := t.col(Timestamp)
	if err != nil {
		return nil, err
	}
	if t.rows == 0 {
		return []time.Time{}, nil
	}
	if c.kind != Text {
		return nil, fmt.Errorf("column %s is %s, want text", Timestamp, c.kind)
	}
	out := make([]time.Time, t.rows)
	for i := 0; i < t.rows; i++ {
		if c.nulls[i] {
			return nil, fmt.Errorf("row %d: empty %s", i+1, Timestamp)
		}
		ts, err := ParseTimestamp(c.texts[i])
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		out[i] = ts
	}
	return out, nil
}

// SortedByTime returns the table ordered chronologically, ties keeping their
// input order, together with the sorted timestamps.
func (t *Table) SortedByTime() (*Table, []time.Time, error) {
	ts, err := t.Timestamps()
	if err != nil {
		return nil, nil, err
	}
	order := make([]int, len(ts))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return ts[order[a]].Before(ts[order[b]])
	})
	sorted, err := t.Select(order)
	if err != nil {
		return nil, nil, err
	}
	out := make([]time.Time, len(order))
	for j, i := range order {
		out[j] = ts[i]
	}
	return sorted, out, nil
}

var timestampLayouts = []string{
	"2006-01-02 15:04",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006-01-02",
}

// ParseTimestamp parses a sensor timestamp using the accepted layouts.
// Values without a zone are taken as UTC.
func ParseTimestamp(s string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparsable %s %q", Timestamp, s)
}
