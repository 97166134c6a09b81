package table

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
)

// Cell is one nullable value. Empty CSV fields are read as null.
type Cell struct {
	Value string
	Null  bool
}

// Str returns a non-null cell.
func Str(s string) Cell { return Cell{Value: s} }

// Null returns a null cell.
func Null() Cell { return Cell{Null: true} }

// Table is an ordered, immutable set of rows. Every operation returns a new
// Table; the receiver is never modified.
type Table struct {
	columns []string
	index   map[string]int
	rows    [][]Cell
}

// New builds a table from columns and rows. Rows shorter than the header are
// padded with nulls, longer rows are cut. A repeated column name resolves to
// its first occurrence.
func New(columns []string, rows ...[]Cell) *Table {
	t := &Table{
		columns: append([]string(nil), columns...),
		index:   make(map[string]int, len(columns)),
		rows:    make([][]Cell, 0, len(rows)),
	}
	for i, c := range t.columns {
		if _, dup := t.index[c]; !dup {
			t.index[c] = i
		}
	}
	for _, r := range rows {
		t.rows = append(t.rows, t.fit(r))
	}
	return t
}

// FromStrings is a convenience for tests and fixtures: "" becomes null.
func FromStrings(columns []string, rows ...[]string) *Table {
	cells := make([][]Cell, 0, len(rows))
	for _, r := range rows {
		cells = append(cells, toCells(r))
	}
	return New(columns, cells...)
}

func toCells(r []string) []Cell {
	out := make([]Cell, len(r))
	for i, v := range r {
		if v == "" {
			out[i] = Null()
		} else {
			out[i] = Str(v)
		}
	}
	return out
}

func (t *Table) fit(r []Cell) []Cell {
	out := make([]Cell, len(t.columns))
	for i := range out {
		if i < len(r) {
			out[i] = r[i]
		} else {
			out[i] = Null()
		}
	}
	return out
}

// ReadCSV parses a CSV document whose first record is the header. Repeated
// header names get a ".1", ".2", ... suffix so the first keeps its name.
func ReadCSV(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return New(nil), nil
	}
	if err != nil {
		return nil, fmt.Errorf("table: read header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(header[i], "\ufeff"))
	}
	header = dedupeHeader(header)

	var rows [][]Cell
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("table: read row %d: %w", len(rows)+1, err)
		}
		rows = append(rows, toCells(rec))
	}
	return New(header, rows...), nil
}

func dedupeHeader(header []string) []string {
	taken := make(map[string]struct{}, len(header))
	for _, h := range header {
		taken[h] = struct{}{}
	}
	seen := make(map[string]int, len(header))
	out := make([]string, len(header))
	for i, h := range header {
		n := seen[h]
		seen[h] = n + 1
		if n == 0 {
			out[i] = h
			continue
		}
		name := fmt.Sprintf("%s.%d", h, n)
		for {
			if _, clash := taken[name]; !clash {
				break
			}
			n++
			name = fmt.Sprintf("%s.%d", h, n)
		}
		seen[h] = n + 1
		taken[name] = struct{}{}
		out[i] = name
	}
	return out
}

// Columns returns a copy of the column names in order.
func (t *Table) Columns() []string { return append([]string(nil), t.columns...) }

// Len is the number of rows.
func (t *Table) Len() int { return len(t.rows) }

// Has reports whether col exists.
func (t *Table) Has(col string) bool {
	_, ok := t.index[col]
	return ok
}

// Row returns a read-only view of row i.
func (t *Table) Row(i int) Row { return Row{t: t, cells: t.rows[i]} }

// Rows returns read-only views of every row.
func (t *Table) Rows() []Row {
	out := make([]Row, len(t.rows))
	for i, r := range t.rows {
		out[i] = Row{t: t, cells: r}
	}
	return out
}

// Require fails with a *SchemaMismatchError naming every missing column.
func (t *Table) Require(cols ...string) error {
	var missing []string
	for _, c := range cols {
		if !t.Has(c) {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return &SchemaMismatchError{Missing: missing}
	}
	return nil
}

// Select keeps only cols, in the given order.
func (t *Table) Select(cols ...string) (*Table, error) {
	if err := t.Require(cols...); err != nil {
		return nil, err
	}
	rows := make([][]Cell, len(t.rows))
	for i, r := range t.rows {
		nr := make([]Cell, len(cols))
		for j, c := range cols {
			nr[j] = r[t.index[c]]
		}
		rows[i] = nr
	}
	return New(cols, rows...), nil
}

// Rename maps old column names to new ones. Unknown names are ignored.
func (t *Table) Rename(names map[string]string) *Table {
	cols := t.Columns()
	for i, c := range cols {
		if n, ok := names[c]; ok {
			cols[i] = n
		}
	}
	return New(cols, t.rows...)
}

// Filter keeps rows for which keep returns true.
func (t *Table) Filter(keep func(Row) bool) *Table {
	var rows [][]Cell
	for _, r := range t.rows {
		if keep(Row{t: t, cells: r}) {
			rows = append(rows, r)
		}
	}
	return New(t.columns, rows...)
}

// WithColumn sets col to fn(row) for every row, appending the column when it
// does not exist yet.
func (t *Table) WithColumn(col string, fn func(Row) Cell) *Table {
	cols := t.Columns()
	pos, ok := t.index[col]
	if !ok {
		cols = append(cols, col)
		pos = len(cols) - 1
	}
	rows := make([][]Cell, len(t.rows))
	for i, r := range t.rows {
		nr := make([]Cell, len(cols))
		copy(nr, r)
		nr[pos] = fn(Row{t: t, cells: r})
		rows[i] = nr
	}
	return New(cols, rows...)
}

// SortStable orders rows by less, keeping input order among equal rows.
func (t *Table) SortStable(less func(a, b Row) bool) *Table {
	rows := append([][]Cell(nil), t.rows...)
	sort.SliceStable(rows, func(i, j int) bool {
		return less(Row{t: t, cells: rows[i]}, Row{t: t, cells: rows[j]})
	})
	return New(t.columns, rows...)
}

// SortByColumn is SortStable on the raw string value of col. Nulls sort last
// in both directions.
func (t *Table) SortByColumn(col string, descending bool) *Table {
	return t.SortStable(func(a, b Row) bool {
		ca, cb := a.Get(col), b.Get(col)
		if ca.Null || cb.Null {
			return !ca.Null && cb.Null
		}
		if descending {
			return ca.Value > cb.Value
		}
		return ca.Value < cb.Value
	})
}

// DropDuplicates keeps the first row for every distinct key. The key is the
// given subset of columns, or every column when subset is empty.
func (t *Table) DropDuplicates(subset ...string) *Table {
	idx := make([]int, 0, len(t.columns))
	if len(subset) == 0 {
		for i := range t.columns {
			idx = append(idx, i)
		}
	} else {
		for _, c := range subset {
			if i, ok := t.index[c]; ok {
				idx = append(idx, i)
			}
		}
	}

	seen := make(map[string]struct{}, len(t.rows))
	var rows [][]Cell
	for _, r := range t.rows {
		k := rowKey(r, idx)
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		rows = append(rows, r)
	}
	return New(t.columns, rows...)
}

func rowKey(r []Cell, idx []int) string {
	var b strings.Builder
	for _, i := range idx {
		if r[i].Null {
			b.WriteString("\x00N")
		} else {
			b.WriteString("\x00S")
			b.WriteString(r[i].Value)
		}
	}
	return b.String()
}

// Concat stacks tables. The result has the union of all columns in
// first-seen order; cells missing from a source table are null.
func Concat(tables ...*Table) *Table {
	var cols []string
	seen := make(map[string]struct{})
	for _, t := range tables {
		if t == nil {
			continue
		}
		for _, c := range t.columns {
			if _, ok := seen[c]; !ok {
				seen[c] = struct{}{}
				cols = append(cols, c)
			}
		}
	}

	var rows [][]Cell
	for _, t := range tables {
		if t == nil {
			continue
		}
		for _, r := range t.rows {
			nr := make([]Cell, len(cols))
			for j, c := range cols {
				if i, ok := t.index[c]; ok {
					nr[j] = r[i]
				} else {
					nr[j] = Null()
				}
			}
			rows = append(rows, nr)
		}
	}
	return New(cols, rows...)
}

// Head returns the first n rows.
func (t *Table) Head(n int) *Table {
	if n < 0 {
		n = 0
	}
	if n > len(t.rows) {
		n = len(t.rows)
	}
	return New(t.columns, t.rows[:n]...)
}

// Reverse returns the rows in reverse order.
func (t *Table) Reverse() *Table {
	rows := make([][]Cell, len(t.rows))
	for i, r := range t.rows {
		rows[len(rows)-1-i] = r
	}
	return New(t.columns, rows...)
}

// Unique returns the distinct non-null values of col in first-seen order.
func (t *Table) Unique(col string) []string {
	i, ok := t.index[col]
	if !ok {
		return nil
	}
	seen := make(map[string]struct{})
	var out []string
	for _, r := range t.rows {
		if r[i].Null {
			continue
		}
		if _, dup := seen[r[i].Value]; dup {
			continue
		}
		seen[r[i].Value] = struct{}{}
		out = append(out, r[i].Value)
	}
	return out
}

// Records renders the header plus every row as strings; nulls become "".
func (t *Table) Records() [][]string {
	out := make([][]string, 0, len(t.rows)+1)
	out = append(out, t.Columns())
	for _, r := range t.rows {
		rec := make([]string, len(r))
		for i, c := range r {
			rec[i] = c.Value
		}
		out = append(out, rec)
	}
	return out
}

// Maps renders every row as a column->value map, nulls as nil. Used by the
// JSON API.
func (t *Table) Maps() []map[string]*string {
	out := make([]map[string]*string, 0, len(t.rows))
	for _, r := range t.rows {
		m := make(map[string]*string, len(t.columns))
		for i, c := range t.columns {
			if r[i].Null {
				m[c] = nil
				continue
			}
			v := r[i].Value
			m[c] = &v
		}
		out = append(out, m)
	}
	return out
}

// Row is a read-only view of one table row.
type Row struct {
	t     *Table
	cells []Cell
}

// Get returns the cell in col, or null if the column does not exist.
func (r Row) Get(col string) Cell {
	i, ok := r.t.index[col]
	if !ok {
		return Null()
	}
	return r.cells[i]
}

// Value returns the string in col; null reads as "".
func (r Row) Value(col string) string { return r.Get(col).Value }
