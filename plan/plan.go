// Package plan implements the immutable logical-plan tree (spec.md §3,
// §4.6): a closed set of node kinds, each able to derive its own output
// schema from its children without touching row data. Builders live in
// package planbuilder; renderers live in package planfmt. This package
// only defines the tree and its schema rules.
package plan

import (
	"github.com/pkg/errors"

	"github.com/paauw/polars/column"
	"github.com/paauw/polars/expr"
	"github.com/paauw/polars/table"
)

// How mirrors table.How so this package doesn't need to import table's
// join entry points, only its Schema type.
type How = table.How

const (
	Inner How = table.Inner
	Left  How = table.Left
	Outer How = table.Outer
)

// Node is implemented by exactly the node kinds defined in this file.
// The unexported marker method closes the set (spec.md §9's "tagged
// variant" requirement).
type Node interface {
	// Schema derives this node's output schema, recursively deriving its
	// children's schemas as needed. It never touches row data.
	Schema() (*table.Schema, error)
	// Children returns this node's immediate plan inputs, in a stable
	// order, for printers and other read-only tree walks.
	Children() []Node
	// Label is a short, printer-facing description of this node
	// (operator name plus salient parameters), independent of its
	// children.
	Label() string
	planNode()
}

// ScanNode is a leaf: the schema of some externally-provided table. It
// carries no reader — CSV/Parquet ingestion is out of scope (spec.md §1
// Non-goals) — so a ScanNode's schema is supplied directly by whoever
// constructs it (see planbuilder.FromSchema / FromTable).
type ScanNode struct {
	Source string
	Sch    *table.Schema
}

func (ScanNode) planNode()                        {}
func (s *ScanNode) Children() []Node              { return nil }
func (s *ScanNode) Label() string                 { return "SCAN " + s.Source }
func (s *ScanNode) Schema() (*table.Schema, error) { return s.Sch.Clone(), nil }

// ProjectionNode selects and computes a new column list from its input,
// per Exprs. A lone Wildcard expands to every input column minus its
// Except list; a non-wildcard expression list fully replaces the
// schema. Local marks a projection built via planbuilder.Builder.SelectLocal
// (spec.md §6's project_local): schema derivation is identical either way
// since Local only tells a future optimizer pass "don't push this
// projection below its input", a rewrite decision outside this package's
// scope (spec.md §1 excludes the optimizer passes themselves).
type ProjectionNode struct {
	Input Node
	Exprs []expr.Expr
	Local bool
}

func (ProjectionNode) planNode()           {}
func (p *ProjectionNode) Children() []Node { return []Node{p.Input} }
func (p *ProjectionNode) Label() string {
	if p.Local {
		return "PROJECT_LOCAL"
	}
	return "PROJECT"
}
func (p *ProjectionNode) Schema() (*table.Schema, error) {
	in, err := p.Input.Schema()
	if err != nil {
		return nil, err
	}
	return expandProjection(in, p.Exprs)
}

// expandProjection is shared by ProjectionNode and AggregateNode
// (spec.md §4.6): given an input schema
// and an expression list, produce the output field list, expanding any
// Wildcard in place and collapsing a bare count(*) aggregate to a single
// named "count" field.
func expandProjection(in *table.Schema, exprs []expr.Expr) (*table.Schema, error) {
	out := &table.Schema{}
	for _, e := range exprs {
		switch v := e.(type) {
		case expr.Wildcard:
			except := make(map[string]bool, len(v.Except))
			for _, n := range v.Except {
				except[n] = true
			}
			for _, f := range in.Fields {
				if except[f.Name] {
					continue
				}
				out.Fields = append(out.Fields, f)
			}
		case expr.Agg:
			if v.Operand == nil || isWildcardOperand(v.Operand) {
				// count(*) collapses to a single row-count column,
				// regardless of how many other aggregate expressions
				// are present in the same list, whether the wildcard was
				// spelled as a nil Operand or as an explicit Agg over
				// Wildcard (spec.md §4.6 step 2's special case).
				if v.Func == "count" {
					out.Fields = append(out.Fields, table.Field{Name: "count", Type: column.Uint64})
					continue
				}
				fields, err := expandWildcardExpr(in, e)
				if err != nil {
					return nil, err
				}
				out.Fields = append(out.Fields, fields...)
				continue
			}
			if expr.HasWildcard(v.Operand) {
				fields, err := expandWildcardExpr(in, e)
				if err != nil {
					return nil, err
				}
				out.Fields = append(out.Fields, fields...)
				continue
			}
			t, err := inferType(in, v.Operand)
			if err != nil {
				return nil, err
			}
			out.Fields = append(out.Fields, table.Field{Name: expr.OutputName(e), Type: t})
		default:
			if expr.HasWildcard(e) {
				fields, err := expandWildcardExpr(in, e)
				if err != nil {
					return nil, err
				}
				out.Fields = append(out.Fields, fields...)
				continue
			}
			t, err := inferType(in, e)
			if err != nil {
				return nil, err
			}
			out.Fields = append(out.Fields, table.Field{Name: expr.OutputName(e), Type: t})
		}
	}
	return out, nil
}

func isWildcardOperand(e expr.Expr) bool {
	_, ok := e.(expr.Wildcard)
	return ok
}

// expandWildcardExpr implements the per-column clone step of wildcard
// expansion (spec.md §4.6 step 2): e contains a Wildcard somewhere in its
// operand chain (e.g. col("*").sum(), not(*)), so it is cloned once per
// input column, minus any names in the wildcard's own Except list, with
// the wildcard replaced by a concrete Col reference.
func expandWildcardExpr(in *table.Schema, e expr.Expr) ([]table.Field, error) {
	except := make(map[string]bool)
	for _, n := range expr.WildcardExcept(e) {
		except[n] = true
	}
	var out []table.Field
	for _, f := range in.Fields {
		if except[f.Name] {
			continue
		}
		cloned := expr.ReplaceWildcard(e, expr.Col{Name: f.Name})
		t, err := inferType(in, cloned)
		if err != nil {
			return nil, err
		}
		out = append(out, table.Field{Name: expr.OutputName(cloned), Type: t})
	}
	return out, nil
}

// inferType derives the output type of a non-wildcard, non-count(*)
// expression against an input schema. Column references and casts are
// resolved directly; everything else (arithmetic, aggregates over a
// concrete column, window functions) is typed as the operand's own type,
// since this engine has no numeric-promotion table of its own (spec.md
// §9 leaves type promotion rules unspecified; we propagate the input
// type unchanged, which is always correct for comparisons/boolean ops
// over like-typed operands and is the common case for the test
// scenarios in spec.md §8).
func inferType(in *table.Schema, e expr.Expr) (column.Type, error) {
	switch v := e.(type) {
	case expr.Col:
		idx := in.IndexOf(v.Name)
		if idx < 0 {
			return 0, errors.Errorf("plan: column %q not found in input schema", v.Name)
		}
		return in.Fields[idx].Type, nil
	case expr.Literal:
		return v.Type, nil
	case expr.Cast:
		return v.To, nil
	case expr.Alias:
		return inferType(in, v.Operand)
	case expr.UnaryOp:
		if v.Op == "is_null" {
			return column.Bool, nil
		}
		return inferType(in, v.Operand)
	case expr.IsNull:
		return column.Bool, nil
	case expr.BinaryOp:
		switch v.Op {
		case "eq", "ne", "lt", "le", "gt", "ge", "and", "or":
			return column.Bool, nil
		}
		return inferType(in, v.Left)
	case expr.Ternary:
		return inferType(in, v.Then)
	case expr.Agg:
		if v.Operand == nil {
			return column.Uint64, nil
		}
		return inferType(in, v.Operand)
	case expr.Shift, expr.Slice, expr.Window, expr.UserFunc, expr.SortBy:
		return inferTypeOperand(in, v)
	default:
		return 0, errors.Errorf("plan: cannot infer type of expression %q", e.String())
	}
}

func inferTypeOperand(in *table.Schema, e expr.Expr) (column.Type, error) {
	switch v := e.(type) {
	case expr.Shift:
		return inferType(in, v.Operand)
	case expr.Slice:
		return inferType(in, v.Operand)
	case expr.Window:
		return inferType(in, v.Operand)
	case expr.UserFunc:
		return inferType(in, v.Operand)
	case expr.SortBy:
		return inferType(in, v.Operand)
	}
	return 0, errors.Errorf("plan: cannot infer type of expression %q", e.String())
}

// FilterNode keeps only rows where Predicate is true. Its schema is
// identical to its input's (filtering changes row count, not shape).
// Predicate is stored exactly as given: a Wildcard inside it is not
// expanded into per-column predicates, neither here nor in
// planbuilder.Builder.Filter.
type FilterNode struct {
	Input     Node
	Predicate expr.Expr
}

func (FilterNode) planNode()           {}
func (f *FilterNode) Children() []Node { return []Node{f.Input} }
func (f *FilterNode) Label() string    { return "FILTER " + f.Predicate.String() }
func (f *FilterNode) Schema() (*table.Schema, error) {
	return f.Input.Schema()
}

// AggregateNode groups by GroupBy and computes Aggs per group. Its
// schema is the group-by columns (in order) followed by the aggregate
// output columns.
type AggregateNode struct {
	Input   Node
	GroupBy []expr.Expr
	Aggs    []expr.Expr
}

func (AggregateNode) planNode()           {}
func (a *AggregateNode) Children() []Node { return []Node{a.Input} }
func (a *AggregateNode) Label() string    { return "AGGREGATE" }
func (a *AggregateNode) Schema() (*table.Schema, error) {
	in, err := a.Input.Schema()
	if err != nil {
		return nil, err
	}
	out := &table.Schema{}
	gb, err := expandProjection(in, a.GroupBy)
	if err != nil {
		return nil, errors.Wrap(err, "plan: AggregateNode: group-by")
	}
	out.Fields = append(out.Fields, gb.Fields...)
	aggOut, err := expandProjection(in, a.Aggs)
	if err != nil {
		return nil, errors.Wrap(err, "plan: AggregateNode: aggregates")
	}
	out.Fields = append(out.Fields, aggOut.Fields...)
	return out, nil
}

// ParallelHint records the allow_par/force_par flags from the plan
// builder's join API (spec.md §6): allow_par permits (but does not
// require) the executor to run the join's build/probe phases across the
// worker pool, while force_par overrides the relation-size heuristic's
// single-threaded paths (e.g. full outer's single-threaded pass) when the
// caller knows better than the default. Neither flag changes join
// semantics, only whether the executor may exploit internal/pool — the
// zero value (AllowParallel: false) is therefore a safe default for a
// JoinNode constructed directly rather than through planbuilder.
type ParallelHint struct {
	AllowParallel bool
	ForceParallel bool
}

// JoinNode joins Left and Right on the named key columns. Schema
// derivation mirrors table.Table.Join's output rules: the right side's
// key columns are dropped (folded into the left's, via the Outer-Key Zip
// at execution time for Outer joins) and any remaining name collision is
// resolved by suffixing "_right".
type JoinNode struct {
	Left, Right         Node
	LeftKeys, RightKeys []string
	How                 How
	ParallelHint        ParallelHint
}

func (JoinNode) planNode()           {}
func (j *JoinNode) Children() []Node { return []Node{j.Left, j.Right} }
func (j *JoinNode) Label() string    { return "JOIN " + joinKindLabel(j.How) }
func (j *JoinNode) Schema() (*table.Schema, error) {
	ls, err := j.Left.Schema()
	if err != nil {
		return nil, err
	}
	rs, err := j.Right.Schema()
	if err != nil {
		return nil, err
	}
	rightKeySet := make(map[string]bool, len(j.RightKeys))
	for _, k := range j.RightKeys {
		rightKeySet[k] = true
	}
	leftNames := make(map[string]bool, len(ls.Fields))
	for _, f := range ls.Fields {
		leftNames[f.Name] = true
	}
	out := &table.Schema{Fields: append([]table.Field(nil), ls.Fields...)}
	for _, f := range rs.Fields {
		if rightKeySet[f.Name] {
			continue
		}
		name := f.Name
		if leftNames[name] {
			name += "_right"
		}
		out.Fields = append(out.Fields, table.Field{Name: name, Type: f.Type})
	}
	return out, nil
}

func joinKindLabel(h How) string {
	switch h {
	case Left:
		return "LEFT"
	case Outer:
		return "OUTER"
	default:
		return "INNER"
	}
}

// HStackNode appends (or replaces, by name) computed columns onto its
// input, matching table.Table.WithColumn's schema rule exactly so the
// executor and the schema-deriver never drift apart (spec.md §4.6).
type HStackNode struct {
	Input Node
	Exprs []expr.Expr
}

func (HStackNode) planNode()           {}
func (h *HStackNode) Children() []Node { return []Node{h.Input} }
func (h *HStackNode) Label() string    { return "WITH_COLUMNS" }
func (h *HStackNode) Schema() (*table.Schema, error) {
	in, err := h.Input.Schema()
	if err != nil {
		return nil, err
	}
	out := &table.Schema{Fields: append([]table.Field(nil), in.Fields...)}
	for _, e := range h.Exprs {
		name := expr.OutputName(e)
		t, err := inferType(in, e)
		if err != nil {
			return nil, err
		}
		if idx := out.IndexOf(name); idx >= 0 {
			out.Fields[idx] = table.Field{Name: name, Type: t}
			continue
		}
		out.Fields = append(out.Fields, table.Field{Name: name, Type: t})
	}
	return out, nil
}

// DistinctNode removes duplicate rows, considering only Subset's columns
// (all columns if Subset is empty). Schema is unchanged from input.
type DistinctNode struct {
	Input  Node
	Subset []string
}

func (DistinctNode) planNode()           {}
func (d *DistinctNode) Children() []Node { return []Node{d.Input} }
func (d *DistinctNode) Label() string    { return "DISTINCT" }
func (d *DistinctNode) Schema() (*table.Schema, error) {
	return d.Input.Schema()
}

// SortNode orders rows by By. Schema is unchanged from input.
type SortNode struct {
	Input Node
	By    []expr.SortBy
}

func (SortNode) planNode()           {}
func (s *SortNode) Children() []Node { return []Node{s.Input} }
func (s *SortNode) Label() string    { return "SORT" }
func (s *SortNode) Schema() (*table.Schema, error) {
	return s.Input.Schema()
}

// ExplodeNode flattens list-valued Columns into one row per element.
// This engine has no dedicated list type (spec.md's Data Model, §3,
// lists only scalar column types), so ExplodeNode's schema is unchanged
// from input: exploding is an execution-time row-count change over
// already-scalar columns that happen to have been produced by a prior
// list-returning operation outside this engine's scope.
type ExplodeNode struct {
	Input   Node
	Columns []string
}

func (ExplodeNode) planNode()           {}
func (e *ExplodeNode) Children() []Node { return []Node{e.Input} }
func (e *ExplodeNode) Label() string    { return "EXPLODE" }
func (e *ExplodeNode) Schema() (*table.Schema, error) {
	return e.Input.Schema()
}

// MeltNode reshapes wide columns (ValueVars) into two long-form columns,
// "variable" and "value", alongside the unpivoted IDVars.
type MeltNode struct {
	Input              Node
	IDVars, ValueVars  []string
}

func (MeltNode) planNode()           {}
func (m *MeltNode) Children() []Node { return []Node{m.Input} }
func (m *MeltNode) Label() string    { return "MELT" }
func (m *MeltNode) Schema() (*table.Schema, error) {
	in, err := m.Input.Schema()
	if err != nil {
		return nil, err
	}
	out := &table.Schema{}
	for _, id := range m.IDVars {
		idx := in.IndexOf(id)
		if idx < 0 {
			return nil, errors.Errorf("plan: MeltNode: id_var %q not found", id)
		}
		out.Fields = append(out.Fields, in.Fields[idx])
	}
	var valueType column.Type
	if len(m.ValueVars) > 0 {
		idx := in.IndexOf(m.ValueVars[0])
		if idx < 0 {
			return nil, errors.Errorf("plan: MeltNode: value_var %q not found", m.ValueVars[0])
		}
		valueType = in.Fields[idx].Type
	}
	out.Fields = append(out.Fields,
		table.Field{Name: "variable", Type: column.String},
		table.Field{Name: "value", Type: valueType},
	)
	return out, nil
}

// SliceNode takes Len rows starting at Offset. Schema is unchanged.
type SliceNode struct {
	Input         Node
	Offset, Len   int
}

func (SliceNode) planNode()           {}
func (s *SliceNode) Children() []Node { return []Node{s.Input} }
func (s *SliceNode) Label() string    { return "SLICE" }
func (s *SliceNode) Schema() (*table.Schema, error) {
	return s.Input.Schema()
}

// CacheNode marks its input as reusable across multiple plan branches.
// Schema is unchanged.
type CacheNode struct {
	Input Node
}

func (CacheNode) planNode()           {}
func (c *CacheNode) Children() []Node { return []Node{c.Input} }
func (c *CacheNode) Label() string    { return "CACHE" }
func (c *CacheNode) Schema() (*table.Schema, error) {
	return c.Input.Schema()
}

// MapNode applies an opaque user function (Name is descriptive only) to
// its input, producing OutputSchema. Because the engine has no notion of
// what the function computes, its output schema cannot be derived and
// must be supplied by the caller, mirroring the original's Map variant
// (spec.md §3's "Map/UDF" node).
type MapNode struct {
	Input        Node
	Name         string
	OutputSchema *table.Schema
}

func (MapNode) planNode()           {}
func (m *MapNode) Children() []Node { return []Node{m.Input} }
func (m *MapNode) Label() string    { return "MAP " + m.Name }
func (m *MapNode) Schema() (*table.Schema, error) {
	return m.OutputSchema.Clone(), nil
}
