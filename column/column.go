// Package column implements the null-aware columnar value container that
// backs every Table in this module. Each column is one contiguous slice;
// columns are not split into chunks.
package column

import (
	"fmt"

	"github.com/bits-and-blooms/bitset"
	"github.com/pkg/errors"
)

// Type is the closed set of primitive element types a Column can hold.
type Type int

const (
	Int8 Type = iota
	Int16
	Int32
	Int64
	Uint8
	Uint16
	Uint32
	Uint64
	Float32
	Float64
	Bool
	String
	// Categorical columns store an integer code into a shared string
	// cache. The cache itself is an external collaborator (see
	// CategoricalCache) — this package never resolves a code to text.
	Categorical
)

func (t Type) String() string {
	switch t {
	case Int8:
		return "Int8"
	case Int16:
		return "Int16"
	case Int32:
		return "Int32"
	case Int64:
		return "Int64"
	case Uint8:
		return "Uint8"
	case Uint16:
		return "Uint16"
	case Uint32:
		return "Uint32"
	case Uint64:
		return "Uint64"
	case Float32:
		return "Float32"
	case Float64:
		return "Float64"
	case Bool:
		return "Bool"
	case String:
		return "String"
	case Categorical:
		return "Categorical"
	default:
		return fmt.Sprintf("Type(%d)", int(t))
	}
}

// CategoricalCache is the external string-cache collaborator that gives a
// Categorical column's integer codes meaning. Two categorical columns may
// only be compared (and therefore joined) if they reference the same
// cache instance. This is a precondition, not a runtime check:
// internal/keyenc encodes the raw codes without looking at the cache.
type CategoricalCache interface {
	// ID uniquely identifies this cache instance so callers can assert
	// "same cache" without resolving any codes.
	ID() uint64
}

// Column is a typed sequence of values, held in a single contiguous slice
// (not chunked), with a parallel null mask and a cached null count. Only the slice matching Typ is
// populated; the others are nil. Invariant: every populated slice (and
// the null mask) has exactly Len() elements.
type Column struct {
	name string
	typ  Type

	i8  []int8
	i16 []int16
	i32 []int32
	i64 []int64
	u8  []uint8
	u16 []uint16
	u32 []uint32
	u64 []uint64
	f32 []float32
	f64 []float64
	b   []bool
	s   []string
	cat []uint32

	catCache CategoricalCache

	nulls     *bitset.BitSet
	length    int
	nullCount int
}

// Name returns the column's name as carried by its Table (columns do not
// store their own authoritative name once placed in a Table, but a
// freestanding Column built via the constructors below remembers the name
// it was given so gather/rename operations have something to propagate).
func (c *Column) Name() string { return c.name }

// Type returns the column's element type.
func (c *Column) Type() Type { return c.typ }

// Len returns the number of logical rows, null or not.
func (c *Column) Len() int { return c.length }

// NullCount returns the cached count of null rows.
func (c *Column) NullCount() int { return c.nullCount }

// IsNull reports whether row i is null.
func (c *Column) IsNull(i int) bool {
	return c.nulls != nil && c.nulls.Test(uint(i))
}

// CategoricalCache returns the cache this column's codes are defined
// against; only meaningful when Type() == Categorical.
func (c *Column) CategoricalCache() CategoricalCache { return c.catCache }

func newBase(name string, typ Type, n int, nulls *bitset.BitSet) *Column {
	if nulls == nil {
		nulls = bitset.New(uint(n))
	}
	nullCount := 0
	if nulls != nil {
		nullCount = int(nulls.Count())
	}
	return &Column{name: name, typ: typ, length: n, nulls: nulls, nullCount: nullCount}
}

// NewInt64 builds an Int64 column. nulls may be nil (no nulls).
func NewInt64(name string, values []int64, nulls *bitset.BitSet) *Column {
	c := newBase(name, Int64, len(values), nulls)
	c.i64 = values
	return c
}

// NewInt32 builds an Int32 column.
func NewInt32(name string, values []int32, nulls *bitset.BitSet) *Column {
	c := newBase(name, Int32, len(values), nulls)
	c.i32 = values
	return c
}

// NewFloat64 builds a Float64 column.
func NewFloat64(name string, values []float64, nulls *bitset.BitSet) *Column {
	c := newBase(name, Float64, len(values), nulls)
	c.f64 = values
	return c
}

// NewFloat32 builds a Float32 column.
func NewFloat32(name string, values []float32, nulls *bitset.BitSet) *Column {
	c := newBase(name, Float32, len(values), nulls)
	c.f32 = values
	return c
}

// NewBool builds a Bool column.
func NewBool(name string, values []bool, nulls *bitset.BitSet) *Column {
	c := newBase(name, Bool, len(values), nulls)
	c.b = values
	return c
}

// NewString builds a String column.
func NewString(name string, values []string, nulls *bitset.BitSet) *Column {
	c := newBase(name, String, len(values), nulls)
	c.s = values
	return c
}

// NewInt8 builds an Int8 column.
func NewInt8(name string, values []int8, nulls *bitset.BitSet) *Column {
	c := newBase(name, Int8, len(values), nulls)
	c.i8 = values
	return c
}

// NewInt16 builds an Int16 column.
func NewInt16(name string, values []int16, nulls *bitset.BitSet) *Column {
	c := newBase(name, Int16, len(values), nulls)
	c.i16 = values
	return c
}

// NewUint8 builds a Uint8 column.
func NewUint8(name string, values []uint8, nulls *bitset.BitSet) *Column {
	c := newBase(name, Uint8, len(values), nulls)
	c.u8 = values
	return c
}

// NewUint16 builds a Uint16 column.
func NewUint16(name string, values []uint16, nulls *bitset.BitSet) *Column {
	c := newBase(name, Uint16, len(values), nulls)
	c.u16 = values
	return c
}

// NewUint64 builds a Uint64 column.
func NewUint64(name string, values []uint64, nulls *bitset.BitSet) *Column {
	c := newBase(name, Uint64, len(values), nulls)
	c.u64 = values
	return c
}

// NewUint32 builds a Uint32 column.
func NewUint32(name string, values []uint32, nulls *bitset.BitSet) *Column {
	c := newBase(name, Uint32, len(values), nulls)
	c.u32 = values
	return c
}

// NewCategorical builds a Categorical column whose codes are only
// meaningful against the given cache.
func NewCategorical(name string, codes []uint32, nulls *bitset.BitSet, cache CategoricalCache) *Column {
	c := newBase(name, Categorical, len(codes), nulls)
	c.cat = codes
	c.catCache = cache
	return c
}

// Int64At returns the raw int64 payload at i. When IsNull(i) is true the
// payload is whatever value the backing slice holds at i (the value the
// constructor was given, or the value Gather/Coalesce copied from the
// source row; 0 for rows produced from NullIndex).
func (c *Column) Int8At(i int) int8   { return c.i8[i] }
func (c *Column) Int16At(i int) int16 { return c.i16[i] }
func (c *Column) Int32At(i int) int32 { return c.i32[i] }
func (c *Column) Int64At(i int) int64 { return c.i64[i] }
func (c *Column) Uint8At(i int) uint8   { return c.u8[i] }
func (c *Column) Uint16At(i int) uint16 { return c.u16[i] }
func (c *Column) Uint32At(i int) uint32 { return c.u32[i] }
func (c *Column) Uint64At(i int) uint64 { return c.u64[i] }
func (c *Column) Float64At(i int) float64 { return c.f64[i] }
func (c *Column) Float32At(i int) float32 { return c.f32[i] }
func (c *Column) BoolAt(i int) bool       { return c.b[i] }
func (c *Column) StringAt(i int) string   { return c.s[i] }
func (c *Column) CategoricalCodeAt(i int) uint32 { return c.cat[i] }

// WithName returns a shallow copy of the column under a new name. The
// underlying slices and null mask are shared, not copied.
func (c *Column) WithName(name string) *Column {
	cp := *c
	cp.name = name
	return &cp
}

// Rename is an alias of WithName for call sites that read more
// naturally as an imperative verb.
func (c *Column) Rename(name string) *Column { return c.WithName(name) }

// Gather constructs a new Column containing rows at the given flat
// indices, in order. NullIndex marks "no source row" (used by left/outer
// join gathers): the corresponding output row is null regardless of
// Column type. Gather panics if an index is out of range and not
// NullIndex — it is a programming error internal to this module, never a
// condition a caller can hit through the public Table/Join API.
func (c *Column) Gather(indices []uint32) *Column {
	n := len(indices)
	out := newBase(c.name, c.typ, n, bitset.New(uint(n)))

	setNull := func(i int) {
		out.nulls.Set(uint(i))
		out.nullCount++
	}

	switch c.typ {
	case Int8:
		out.i8 = make([]int8, n)
	case Int16:
		out.i16 = make([]int16, n)
	case Int32:
		out.i32 = make([]int32, n)
	case Int64:
		out.i64 = make([]int64, n)
	case Uint8:
		out.u8 = make([]uint8, n)
	case Uint16:
		out.u16 = make([]uint16, n)
	case Uint32:
		out.u32 = make([]uint32, n)
	case Uint64:
		out.u64 = make([]uint64, n)
	case Float32:
		out.f32 = make([]float32, n)
	case Float64:
		out.f64 = make([]float64, n)
	case Bool:
		out.b = make([]bool, n)
	case String:
		out.s = make([]string, n)
	case Categorical:
		out.cat = make([]uint32, n)
		out.catCache = c.catCache
	default:
		panic(errors.Errorf("column: Gather: unsupported type %s", c.typ))
	}

	for outIdx, src := range indices {
		if src == NullIndex {
			setNull(outIdx)
			continue
		}
		i := int(src)
		if c.IsNull(i) {
			setNull(outIdx)
		}
		switch c.typ {
		case Int8:
			out.i8[outIdx] = c.i8[i]
		case Int16:
			out.i16[outIdx] = c.i16[i]
		case Int32:
			out.i32[outIdx] = c.i32[i]
		case Int64:
			out.i64[outIdx] = c.i64[i]
		case Uint8:
			out.u8[outIdx] = c.u8[i]
		case Uint16:
			out.u16[outIdx] = c.u16[i]
		case Uint32:
			out.u32[outIdx] = c.u32[i]
		case Uint64:
			out.u64[outIdx] = c.u64[i]
		case Float32:
			out.f32[outIdx] = c.f32[i]
		case Float64:
			out.f64[outIdx] = c.f64[i]
		case Bool:
			out.b[outIdx] = c.b[i]
		case String:
			out.s[outIdx] = c.s[i]
		case Categorical:
			out.cat[outIdx] = c.cat[i]
		}
	}
	return out
}

// NullIndex is the sentinel row index meaning "no source row" during a
// Gather. Because Index is a uint32 (spec.md §3 caps tables at 2^32-1
// rows), the all-ones value can never be a real row position and is
// reserved for this purpose.
const NullIndex = ^uint32(0)

// Coalesce builds a new column of length len(aIdx) (== len(bIdx)) whose
// row i is a.Gather-at-aIdx[i] when aIdx[i] != NullIndex, else
// b.Gather-at-bIdx[i]. This is the primitive the outer-key zip (internal
// package materialize) uses to reconstruct a single join-key column from
// whichever side of an outer join actually produced each row. When both
// aIdx[i] and bIdx[i] are present (a matched row) a wins; when neither is,
// row i is null. a and b must share Type.
func Coalesce(a, b *Column, aIdx, bIdx []uint32) *Column {
	if len(aIdx) != len(bIdx) {
		panic(errors.Errorf("column: Coalesce: aIdx has %d rows, bIdx has %d", len(aIdx), len(bIdx)))
	}
	if a.typ != b.typ {
		panic(errors.Errorf("column: Coalesce: type mismatch %s vs %s", a.typ, b.typ))
	}
	n := len(aIdx)
	out := newBase(a.name, a.typ, n, bitset.New(uint(n)))

	setNull := func(i int) {
		out.nulls.Set(uint(i))
		out.nullCount++
	}

	switch a.typ {
	case Int8:
		out.i8 = make([]int8, n)
	case Int16:
		out.i16 = make([]int16, n)
	case Int32:
		out.i32 = make([]int32, n)
	case Int64:
		out.i64 = make([]int64, n)
	case Uint8:
		out.u8 = make([]uint8, n)
	case Uint16:
		out.u16 = make([]uint16, n)
	case Uint32:
		out.u32 = make([]uint32, n)
	case Uint64:
		out.u64 = make([]uint64, n)
	case Float32:
		out.f32 = make([]float32, n)
	case Float64:
		out.f64 = make([]float64, n)
	case Bool:
		out.b = make([]bool, n)
	case String:
		out.s = make([]string, n)
	case Categorical:
		out.cat = make([]uint32, n)
		out.catCache = a.catCache
	default:
		panic(errors.Errorf("column: Coalesce: unsupported type %s", a.typ))
	}

	copyRow := func(outIdx int, src *Column, i int) {
		if src.IsNull(i) {
			setNull(outIdx)
		}
		switch a.typ {
		case Int8:
			out.i8[outIdx] = src.i8[i]
		case Int16:
			out.i16[outIdx] = src.i16[i]
		case Int32:
			out.i32[outIdx] = src.i32[i]
		case Int64:
			out.i64[outIdx] = src.i64[i]
		case Uint8:
			out.u8[outIdx] = src.u8[i]
		case Uint16:
			out.u16[outIdx] = src.u16[i]
		case Uint32:
			out.u32[outIdx] = src.u32[i]
		case Uint64:
			out.u64[outIdx] = src.u64[i]
		case Float32:
			out.f32[outIdx] = src.f32[i]
		case Float64:
			out.f64[outIdx] = src.f64[i]
		case Bool:
			out.b[outIdx] = src.b[i]
		case String:
			out.s[outIdx] = src.s[i]
		case Categorical:
			out.cat[outIdx] = src.cat[i]
		}
	}

	for i := 0; i < n; i++ {
		if aIdx[i] != NullIndex {
			copyRow(i, a, int(aIdx[i]))
			continue
		}
		if bIdx[i] != NullIndex {
			copyRow(i, b, int(bIdx[i]))
			continue
		}
		setNull(i)
	}
	return out
}
