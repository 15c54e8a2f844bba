package table

import (
	"github.com/pkg/errors"

	"github.com/paauw/polars/column"
	"github.com/paauw/polars/internal/joinindex"
	"github.com/paauw/polars/internal/keyenc"
	"github.com/paauw/polars/internal/materialize"
)

// How is the public join-kind selector (spec.md §6).
type How int

const (
	Inner How = iota
	Left
	Outer
)

func (h How) toJoinIndex() joinindex.How {
	switch h {
	case Left:
		return joinindex.Left
	case Outer:
		return joinindex.Outer
	default:
		return joinindex.Inner
	}
}

// Join performs a hash join between t (left) and other (right) on the
// named key columns, which must have matching arity and must each
// resolve to exactly one column per side (spec.md §6 External
// Interfaces). Returns the joined table; join-key columns from the
// right side are folded into the left side's key column via the
// Outer-Key Zip when how is Outer, and dropped (not duplicated) from the
// output in every case — this matches a conventional equi-join's single
// output key column, and avoids emitting two columns that are
// guaranteed-equal on every matched row.
func (t *Table) Join(other *Table, leftKeys, rightKeys []string, how How) (*Table, error) {
	if len(leftKeys) == 0 || len(leftKeys) != len(rightKeys) {
		return nil, errors.Errorf("table: Join: leftKeys/rightKeys must be non-empty and equal length, got %d/%d", len(leftKeys), len(rightKeys))
	}

	leftCols, err := resolveKeyColumns(t, leftKeys)
	if err != nil {
		return nil, errors.Wrap(err, "table: Join: left keys")
	}
	rightCols, err := resolveKeyColumns(other, rightKeys)
	if err != nil {
		return nil, errors.Wrap(err, "table: Join: right keys")
	}

	leftEnc, err := keyenc.EncodeKeys(leftCols)
	if err != nil {
		return nil, errors.Wrap(err, "table: Join: encode left keys")
	}
	rightEnc, err := keyenc.EncodeKeys(rightCols)
	if err != nil {
		return nil, errors.Wrap(err, "table: Join: encode right keys")
	}

	idx, err := joinindex.Build(leftEnc, rightEnc, how.toJoinIndex())
	if err != nil {
		return nil, errors.Wrap(err, "table: Join: build index")
	}

	rightSansKeys := other.DropColumns(rightKeys...)
	joined, err := materialize.Join(t.names, t.columns, rightSansKeys.names, rightSansKeys.columns, idx)
	if err != nil {
		return nil, errors.Wrap(err, "table: Join: materialize")
	}

	out := &Table{names: joined.Names, columns: joined.Columns, nrows: len(idx.Left)}

	if how == Outer {
		for i, lk := range leftKeys {
			zipped := materialize.ZipOuterKey(leftCols[i], rightCols[i], idx)
			out = out.WithColumn(lk, zipped)
		}
	}

	return out, nil
}

// InnerJoin is Join with how=Inner.
func (t *Table) InnerJoin(other *Table, leftKeys, rightKeys []string) (*Table, error) {
	return t.Join(other, leftKeys, rightKeys, Inner)
}

// LeftJoin is Join with how=Left. The probe side is always t (the
// receiver) regardless of relation size — left join is not commutative
// in t/other, unlike inner and outer (spec.md §4.3).
func (t *Table) LeftJoin(other *Table, leftKeys, rightKeys []string) (*Table, error) {
	return t.Join(other, leftKeys, rightKeys, Left)
}

// OuterJoin is Join with how=Outer.
func (t *Table) OuterJoin(other *Table, leftKeys, rightKeys []string) (*Table, error) {
	return t.Join(other, leftKeys, rightKeys, Outer)
}

func resolveKeyColumns(t *Table, names []string) ([]*column.Column, error) {
	cols := make([]*column.Column, len(names))
	for i, n := range names {
		c, err := t.ColumnByName(n)
		if err != nil {
			return nil, err
		}
		cols[i] = c
	}
	return cols, nil
}
