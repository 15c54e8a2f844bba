// Package table implements the ordered, named collection of columns that
// the join kernel and logical plan operate over.
package table

import (
	"github.com/pkg/errors"

	"github.com/paauw/polars/column"
)

// Field describes one column's name and type, independent of any data —
// this is what a Schema is made of and what the logical plan propagates
// without touching row data (spec.md §4.6).
type Field struct {
	Name string
	Type column.Type
}

// Schema is an ordered list of fields. Order matters: it is the column
// order of the table it describes.
type Schema struct {
	Fields []Field
}

// IndexOf returns the position of name in the schema, or -1.
func (s *Schema) IndexOf(name string) int {
	for i, f := range s.Fields {
		if f.Name == name {
			return i
		}
	}
	return -1
}

// Has reports whether name is present in the schema.
func (s *Schema) Has(name string) bool { return s.IndexOf(name) >= 0 }

// Clone returns a deep-enough copy (the Fields slice is copied; the
// Field values themselves are immutable).
func (s *Schema) Clone() *Schema {
	out := make([]Field, len(s.Fields))
	copy(out, s.Fields)
	return &Schema{Fields: out}
}

// Table is an ordered list of named columns, all of equal length. Column
// names are not required to be unique on construction (spec.md §3); only
// operations that do name lookup (ColumnByName, joins) assume uniqueness.
type Table struct {
	names   []string
	columns []*column.Column
	nrows   int
}

// New builds a Table from parallel name/column slices. All columns must
// have equal length; New panics otherwise since unequal length is an
// invariant violation internal to callers of this package, not a
// user-facing condition (spec.md §7: panics are reserved for invariant
// violations).
func New(names []string, cols []*column.Column) *Table {
	if len(names) != len(cols) {
		panic(errors.Errorf("table: New: %d names but %d columns", len(names), len(cols)))
	}
	n := 0
	if len(cols) > 0 {
		n = cols[0].Len()
	}
	for i, c := range cols {
		if c.Len() != n {
			panic(errors.Errorf("table: New: column %q has length %d, want %d", names[i], c.Len(), n))
		}
	}
	return &Table{names: append([]string(nil), names...), columns: append([]*column.Column(nil), cols...), nrows: n}
}

// Empty returns a zero-row, zero-column table.
func Empty() *Table { return &Table{} }

// NumRows returns the row count shared by every column.
func (t *Table) NumRows() int { return t.nrows }

// NumCols returns the number of columns.
func (t *Table) NumCols() int { return len(t.columns) }

// Names returns the column names in order. The returned slice is owned
// by the caller.
func (t *Table) Names() []string { return append([]string(nil), t.names...) }

// ColumnAt returns the column at position i.
func (t *Table) ColumnAt(i int) *column.Column { return t.columns[i] }

// NameAt returns the name at position i.
func (t *Table) NameAt(i int) string { return t.names[i] }

// ColumnByName looks up a column by name. It returns a plain error (there
// is no typed error kind) if the name is absent, or if it is ambiguous
// (appears more than once) — joins and lookups assume uniqueness per
// spec.md §3.
func (t *Table) ColumnByName(name string) (*column.Column, error) {
	idx := -1
	for i, n := range t.names {
		if n == name {
			if idx >= 0 {
				return nil, errors.Errorf("table: column name %q is ambiguous", name)
			}
			idx = i
		}
	}
	if idx < 0 {
		return nil, errors.Errorf("table: column %q not found", name)
	}
	return t.columns[idx], nil
}

// Schema derives this table's schema from its current columns.
func (t *Table) Schema() *Schema {
	fields := make([]Field, len(t.columns))
	for i, c := range t.columns {
		fields[i] = Field{Name: t.names[i], Type: c.Type()}
	}
	return &Schema{Fields: fields}
}

// WithColumn returns a new table with col appended (or, if its name
// already exists, the existing column replaced in place) — this is the
// rule HStackNode uses for schema derivation (spec.md §4.6) and is shared
// here so the executor and the schema-deriver never drift apart.
func (t *Table) WithColumn(name string, col *column.Column) *Table {
	for i, n := range t.names {
		if n == name {
			names := append([]string(nil), t.names...)
			cols := append([]*column.Column(nil), t.columns...)
			cols[i] = col
			return &Table{names: names, columns: cols, nrows: t.nrows}
		}
	}
	names := append(append([]string(nil), t.names...), name)
	cols := append(append([]*column.Column(nil), t.columns...), col)
	nrows := t.nrows
	if len(t.columns) == 0 {
		nrows = col.Len()
	}
	return &Table{names: names, columns: cols, nrows: nrows}
}

// DropColumns returns a new table with the named columns removed. Names
// not present are ignored.
func (t *Table) DropColumns(names ...string) *Table {
	drop := make(map[string]bool, len(names))
	for _, n := range names {
		drop[n] = true
	}
	outNames := make([]string, 0, len(t.names))
	outCols := make([]*column.Column, 0, len(t.columns))
	for i, n := range t.names {
		if drop[n] {
			continue
		}
		outNames = append(outNames, n)
		outCols = append(outCols, t.columns[i])
	}
	return &Table{names: outNames, columns: outCols, nrows: t.nrows}
}

// Gather builds a new table by gathering every column at the given flat
// row indices (column.NullIndex inserts a null row), one column after
// another. The join materializer (internal package materialize) does not
// use it; it calls column.Column.Gather directly (spec.md §4.4).
func (t *Table) Gather(indices []uint32) *Table {
	cols := make([]*column.Column, len(t.columns))
	for i, c := range t.columns {
		cols[i] = c.Gather(indices)
	}
	return &Table{names: append([]string(nil), t.names...), columns: cols, nrows: len(indices)}
}

// RenameCollisions returns a copy of t where any name also present in
// other is suffixed with "_right". At most one rename per collision; if
// the renamed name itself collides with an existing name, behavior is
// unspecified (spec.md §4.4, §9 open question) — we detect the
// second-order collision and return an error rather than silently
// producing a table with duplicate names, which is the stricter and
// therefore safer resolution of that open question (documented in
// DESIGN.md).
func (t *Table) RenameCollisions(other *Schema) (*Table, error) {
	existing := make(map[string]bool, len(other.Fields))
	for _, f := range other.Fields {
		existing[f.Name] = true
	}
	names := make([]string, len(t.names))
	seen := make(map[string]bool, len(t.names))
	for i, n := range t.names {
		out := n
		if existing[n] {
			out = n + "_right"
			if existing[out] || seen[out] {
				return nil, errors.Errorf("table: renamed column %q still collides; double _right rename is unsupported", out)
			}
		}
		if seen[out] {
			return nil, errors.Errorf("table: duplicate column name %q after rename", out)
		}
		seen[out] = true
		names[i] = out
	}
	return &Table{names: names, columns: t.columns, nrows: t.nrows}, nil
}
