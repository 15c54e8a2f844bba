// Package materialize implements the Table Materializer (spec.md §4.4):
// gather-based column assembly from a joinindex.Result, with _right
// collision renaming, plus the Outer-Key Zip (§4.5) that reconstructs the
// canonical join-key column for outer joins.
package materialize

import (
	"golang.org/x/sync/errgroup"

	"github.com/pkg/errors"

	"github.com/paauw/polars/column"
	"github.com/paauw/polars/internal/joinindex"
)

// Joined is the result of materializing a join: parallel name/column
// slices, already gathered and collision-renamed, ready for a caller
// (table.Table.Join) to wrap back into its own type. Kept as plain
// slices rather than a *table.Table so this package never needs to
// import the table package — table imports materialize, not the other
// way around.
type Joined struct {
	Names   []string
	Columns []*column.Column
}

// Join gathers left's and right's columns concurrently according to
// res, then stitches them side by side, renaming any right-side column
// whose name collides with a left-side name by suffixing "_right". At
// most one rename is attempted per collision; if the renamed name
// itself collides, Join returns an error rather than silently producing
// duplicate names (spec.md §4.4, §9 open question — resolved here as the
// stricter of the two options, recorded in DESIGN.md).
func Join(leftNames []string, leftCols []*column.Column, rightNames []string, rightCols []*column.Column, res *joinindex.Result) (*Joined, error) {
	gatheredLeft := make([]*column.Column, len(leftCols))
	gatheredRight := make([]*column.Column, len(rightCols))

	var g errgroup.Group
	g.Go(func() error {
		for i, c := range leftCols {
			gatheredLeft[i] = c.Gather(res.Left)
		}
		return nil
	})
	g.Go(func() error {
		for i, c := range rightCols {
			gatheredRight[i] = c.Gather(res.Right)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	existing := make(map[string]bool, len(leftNames))
	for _, n := range leftNames {
		existing[n] = true
	}

	outNames := make([]string, 0, len(leftNames)+len(rightNames))
	outCols := make([]*column.Column, 0, len(leftNames)+len(rightNames))
	outNames = append(outNames, leftNames...)
	outCols = append(outCols, gatheredLeft...)

	seen := make(map[string]bool, len(outNames))
	for _, n := range outNames {
		seen[n] = true
	}

	for i, n := range rightNames {
		out := n
		if existing[n] {
			out = n + "_right"
			if existing[out] || seen[out] {
				return nil, errors.Errorf("materialize: renamed column %q still collides; double _right rename is unsupported", out)
			}
		}
		if seen[out] {
			return nil, errors.Errorf("materialize: duplicate column name %q after rename", out)
		}
		seen[out] = true
		outNames = append(outNames, out)
		outCols = append(outCols, gatheredRight[i].WithName(out))
	}

	return &Joined{Names: outNames, Columns: outCols}, nil
}

// ZipOuterKey reconstructs the canonical join-key column for an outer
// join: for each output row, the key value comes from whichever side's
// index is present (left takes priority: matched rows carry both indices,
// unmatched rows carry exactly one, since an outer join only ever drops
// one side per row). leftKey
// and rightKey are the original (pre-gather) key columns; res is the
// same index pairing used to build the output table.
func ZipOuterKey(leftKey, rightKey *column.Column, res *joinindex.Result) *column.Column {
	return column.Coalesce(leftKey, rightKey, res.Left, res.Right)
}
