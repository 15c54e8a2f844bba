// Package planbuilder implements the immutable, fluent plan-construction
// API (spec.md §4.6): every method returns a new *Builder wrapping the
// previous root as the new node's child, never mutating the receiver.
// This mirrors the teacher's core/plan.PlanBuilder / *Element chain: each
// With*/Add* call returns a new value, and Build() materializes the
// final immutable tree.
package planbuilder

import (
	"github.com/pkg/errors"

	"github.com/paauw/polars/expr"
	"github.com/paauw/polars/plan"
	"github.com/paauw/polars/table"
)

// Builder wraps a single plan.Node root. All methods take a *Builder
// receiver but only read its root and never modify it — Builder itself
// carries no other state — so a Builder can be freely reused as the starting point for
// multiple independent continuations (spec.md §4.6's "immutable tree"
// requirement).
type Builder struct {
	root plan.Node
}

// FromSchema starts a new plan rooted at a scan over a named external
// table of the given schema. CSV/Parquet readers are out of scope
// (spec.md §1 Non-goals); callers that already have a table.Table in
// hand should use FromTable instead.
func FromSchema(name string, sch *table.Schema) *Builder {
	return &Builder{root: &plan.ScanNode{Source: name, Sch: sch}}
}

// FromTable starts a new plan rooted at a scan over an already-realized
// table.Table, using its current schema.
func FromTable(name string, t *table.Table) *Builder {
	return &Builder{root: &plan.ScanNode{Source: name, Sch: t.Schema()}}
}

// Root returns the builder's current plan root.
func (b *Builder) Root() plan.Node { return b.root }

// Build is an alias of Root, named to match the teacher's
// PlanBuilder.Build()/PlanElement.Build() terminal call.
func (b *Builder) Build() plan.Node { return b.root }

// Schema derives the schema of the plan built so far.
func (b *Builder) Schema() (*table.Schema, error) { return b.root.Schema() }

// Select replaces the builder's output columns with the given
// expressions (a bare Wildcard passes every column through unchanged).
func (b *Builder) Select(exprs ...expr.Expr) *Builder {
	return &Builder{root: &plan.ProjectionNode{Input: b.root, Exprs: exprs}}
}

// SelectLocal is Select, but marks the projection as not eligible for an
// optimizer to push below its input (spec.md §6's project_local). Schema
// derivation is identical to Select; the distinction only matters to the
// optimizer passes this module doesn't implement (spec.md §1 Non-goals).
func (b *Builder) SelectLocal(exprs ...expr.Expr) *Builder {
	return &Builder{root: &plan.ProjectionNode{Input: b.root, Exprs: exprs, Local: true}}
}

// Filter keeps only rows where predicate is true.
func (b *Builder) Filter(predicate expr.Expr) *Builder {
	return &Builder{root: &plan.FilterNode{Input: b.root, Predicate: predicate}}
}

// WithColumns appends or replaces computed columns, by name.
func (b *Builder) WithColumns(exprs ...expr.Expr) *Builder {
	return &Builder{root: &plan.HStackNode{Input: b.root, Exprs: exprs}}
}

// GroupBy groups rows by groupBy and computes aggs per group.
func (b *Builder) GroupBy(groupBy []expr.Expr, aggs []expr.Expr) *Builder {
	return &Builder{root: &plan.AggregateNode{Input: b.root, GroupBy: groupBy, Aggs: aggs}}
}

// SortBy orders rows by the given sort keys.
func (b *Builder) SortBy(by ...expr.SortBy) *Builder {
	return &Builder{root: &plan.SortNode{Input: b.root, By: by}}
}

// Explode flattens the named columns, one row per element.
func (b *Builder) Explode(columns ...string) *Builder {
	return &Builder{root: &plan.ExplodeNode{Input: b.root, Columns: columns}}
}

// Melt reshapes idVars/valueVars into long form.
func (b *Builder) Melt(idVars, valueVars []string) *Builder {
	return &Builder{root: &plan.MeltNode{Input: b.root, IDVars: idVars, ValueVars: valueVars}}
}

// DropDuplicates removes duplicate rows, considering only subset
// (every column, if subset is empty).
func (b *Builder) DropDuplicates(subset ...string) *Builder {
	return &Builder{root: &plan.DistinctNode{Input: b.root, Subset: subset}}
}

// Slice takes length rows starting at offset.
func (b *Builder) Slice(offset, length int) *Builder {
	return &Builder{root: &plan.SliceNode{Input: b.root, Offset: offset, Len: length}}
}

// Join joins against other's current plan on the named key columns. hint
// is optional (omitting it leaves AllowParallel at its zero value, false);
// callers that want the executor to exercise the worker pool pass
// plan.ParallelHint{AllowParallel: true} explicitly, matching spec.md
// §6's join(other, how, left_keys, right_keys, allow_par, force_par)
// signature without forcing every existing call site to spell out both
// flags.
func (b *Builder) Join(other *Builder, leftKeys, rightKeys []string, how table.How, hint ...plan.ParallelHint) (*Builder, error) {
	if len(leftKeys) == 0 || len(leftKeys) != len(rightKeys) {
		return nil, errors.Errorf("planbuilder: Join: leftKeys/rightKeys must be non-empty and equal length, got %d/%d", len(leftKeys), len(rightKeys))
	}
	var h plan.ParallelHint
	if len(hint) > 0 {
		h = hint[0]
	}
	return &Builder{root: &plan.JoinNode{
		Left: b.root, Right: other.root,
		LeftKeys: leftKeys, RightKeys: rightKeys,
		How:          how,
		ParallelHint: h,
	}}, nil
}

// Map applies an opaque named function, whose output schema must be
// supplied since this engine cannot infer it (spec.md §3 Map/UDF node).
func (b *Builder) Map(name string, outputSchema *table.Schema) *Builder {
	return &Builder{root: &plan.MapNode{Input: b.root, Name: name, OutputSchema: outputSchema}}
}

// Cache marks the current plan for reuse across branches.
func (b *Builder) Cache() *Builder {
	return &Builder{root: &plan.CacheNode{Input: b.root}}
}

// FillNone is sugar over WithColumns that replaces nulls in the named
// column with a literal value, expressed as a ternary over
// IsNull/Alias — it introduces no new plan.Node kind, matching spec.md
// §4.6's closed node set.
func (b *Builder) FillNone(column string, value expr.Literal) *Builder {
	filled := expr.Alias{
		Name: column,
		Operand: expr.Ternary{
			Cond: expr.IsNull{Operand: expr.Col{Name: column}},
			Then: value,
			Else: expr.Col{Name: column},
		},
	}
	return b.WithColumns(filled)
}
