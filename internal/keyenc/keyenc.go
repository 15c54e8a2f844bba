// Package keyenc turns join-key columns into hashable, comparable Cell
// values. Every primitive type collapses to one of two representations:
// a 64-bit pattern (ints, bit-reinterpreted floats, bools, categorical
// codes) or a string. Null is tracked out of band so that null compares
// equal to null in every join kind (spec.md §3, §4.1).
package keyenc

import (
	"math"

	"github.com/cespare/xxhash/v2"
	"github.com/pkg/errors"

	"github.com/paauw/polars/column"
)

// hashSeed is fixed so that hashes are reproducible across runs of the
// same process and across the worker pool's goroutines; the original's
// prepare_hashed_relation has the same property (it hashes once, up
// front, and every thread reads the same values).
const hashSeed = 0x706f6c617273 // "polars" in hex, arbitrary but fixed

// Cell is the canonical encoded form of one row's value in one key
// column. Bits holds ints, bit-reinterpreted floats, bools and
// categorical codes; Str holds strings. Exactly one of IsStr is
// meaningful for non-null cells.
type Cell struct {
	Bits  uint64
	Str   string
	IsStr bool
	Null  bool
}

// Equal reports whether two cells represent the same join key value.
// Two null cells are always equal to each other, regardless of type —
// this is spec.md's documented departure from SQL NULL<>NULL semantics,
// carried through every join kind.
func (a Cell) Equal(b Cell) bool {
	if a.Null || b.Null {
		return a.Null && b.Null
	}
	if a.IsStr != b.IsStr {
		return false
	}
	if a.IsStr {
		return a.Str == b.Str
	}
	return a.Bits == b.Bits
}

// nullHash is the fixed hash contribution of a null cell. Since Equal
// requires both sides' Null flag to agree before ever comparing Bits or
// Str, collisions between a null cell and a populated cell that happens
// to hash the same are harmless — the hash table only uses this value to
// pick a bucket/shard and as a pre-filter before calling Equal.
const nullHash uint64 = 0x9e3779b97f4a7c15

// Hash returns the cell's hash contribution.
func (c Cell) Hash() uint64 {
	if c.Null {
		return nullHash
	}
	if c.IsStr {
		return xxhash.Sum64String(c.Str)
	}
	var buf [8]byte
	putUint64(buf[:], c.Bits)
	return xxhash.Sum64(buf[:])
}

func putUint64(b []byte, v uint64) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
	b[3] = byte(v >> 24)
	b[4] = byte(v >> 32)
	b[5] = byte(v >> 40)
	b[6] = byte(v >> 48)
	b[7] = byte(v >> 56)
}

// EncodeColumn encodes every row of col into a Cell. Float columns are
// encoded by their raw bit pattern, not their numeric value: two floats
// with identical bits hash and compare identically (so a NaN matches a
// NaN with the same payload), while bitwise-distinct values are distinct
// keys — NaNs with different payloads, and +0/-0, which differ in the
// sign bit. This is a deliberate policy
// (spec.md §4.1), not an oversight.
func EncodeColumn(col *column.Column) ([]Cell, error) {
	n := col.Len()
	out := make([]Cell, n)
	switch col.Type() {
	case column.Int8:
		for i := 0; i < n; i++ {
			out[i] = cellFromBits(col, i, uint64(uint8(col.Int8At(i))))
		}
	case column.Int16:
		for i := 0; i < n; i++ {
			out[i] = cellFromBits(col, i, uint64(uint16(col.Int16At(i))))
		}
	case column.Int32:
		for i := 0; i < n; i++ {
			out[i] = cellFromBits(col, i, uint64(uint32(col.Int32At(i))))
		}
	case column.Int64:
		for i := 0; i < n; i++ {
			out[i] = cellFromBits(col, i, uint64(col.Int64At(i)))
		}
	case column.Uint8:
		for i := 0; i < n; i++ {
			out[i] = cellFromBits(col, i, uint64(col.Uint8At(i)))
		}
	case column.Uint16:
		for i := 0; i < n; i++ {
			out[i] = cellFromBits(col, i, uint64(col.Uint16At(i)))
		}
	case column.Uint32, column.Categorical:
		for i := 0; i < n; i++ {
			out[i] = cellFromBits(col, i, uintValue(col, i))
		}
	case column.Uint64:
		for i := 0; i < n; i++ {
			out[i] = cellFromBits(col, i, col.Uint64At(i))
		}
	case column.Float32:
		for i := 0; i < n; i++ {
			out[i] = cellFromBits(col, i, uint64(math.Float32bits(col.Float32At(i))))
		}
	case column.Float64:
		for i := 0; i < n; i++ {
			out[i] = cellFromBits(col, i, math.Float64bits(col.Float64At(i)))
		}
	case column.Bool:
		for i := 0; i < n; i++ {
			v := uint64(0)
			if col.BoolAt(i) {
				v = 1
			}
			out[i] = cellFromBits(col, i, v)
		}
	case column.String:
		for i := 0; i < n; i++ {
			if col.IsNull(i) {
				out[i] = Cell{Null: true}
				continue
			}
			out[i] = Cell{Str: col.StringAt(i), IsStr: true}
		}
	default:
		return nil, errors.Errorf("keyenc: unsupported key column type %s", col.Type())
	}
	return out, nil
}

func cellFromBits(col *column.Column, i int, bits uint64) Cell {
	if col.IsNull(i) {
		return Cell{Null: true}
	}
	return Cell{Bits: bits}
}

func uintValue(col *column.Column, i int) uint64 {
	switch col.Type() {
	case column.Uint32:
		return uint64(col.Uint32At(i))
	case column.Categorical:
		return uint64(col.CategoricalCodeAt(i))
	}
	panic(errors.Errorf("keyenc: uintValue: unreachable type %s", col.Type()))
}

// Key is a join key, one Cell per key column. Two keys are equal iff
// every cell position is Equal. A single-column join uses a length-1
// Key; composite joins use length 2..N — this package does not
// special-case small arities (spec.md §9 permits re-architecting
// dispatch; a single generalized path is simpler and the original's
// 2..6-ary specialization exists for a language without generics).
type Key []Cell

// Equal reports whether two keys of matching arity are equal.
func (k Key) Equal(o Key) bool {
	if len(k) != len(o) {
		return false
	}
	for i := range k {
		if !k[i].Equal(o[i]) {
			return false
		}
	}
	return true
}

// Hash combines the per-cell hashes of a composite key into one value.
// Order-sensitive (column order matters for a join key) and stable
// across calls within one process.
func (k Key) Hash() uint64 {
	h := uint64(hashSeed)
	for _, c := range k {
		h = xxhash.Sum64(combine(h, c.Hash()))
	}
	return h
}

func combine(a, b uint64) []byte {
	var buf [16]byte
	putUint64(buf[0:8], a)
	putUint64(buf[8:16], b)
	return buf[:]
}

// EncodeKeys builds the []Key for a row set spanning one or more key
// columns, by zipping EncodeColumn's output for each column.
func EncodeKeys(cols []*column.Column) ([]Key, error) {
	if len(cols) == 0 {
		return nil, errors.New("keyenc: EncodeKeys: no key columns")
	}
	n := cols[0].Len()
	perCol := make([][]Cell, len(cols))
	for i, c := range cols {
		if c.Len() != n {
			panic(errors.Errorf("keyenc: EncodeKeys: column %d has length %d, want %d", i, c.Len(), n))
		}
		cells, err := EncodeColumn(c)
		if err != nil {
			return nil, errors.Wrapf(err, "keyenc: column %d", i)
		}
		perCol[i] = cells
	}
	keys := make([]Key, n)
	for row := 0; row < n; row++ {
		k := make(Key, len(cols))
		for col := range cols {
			k[col] = perCol[col][row]
		}
		keys[row] = k
	}
	return keys, nil
}

// HashColumn is the materialized parallel-[]uint64 hash cache the
// original's prepare_hashed_relation computes once up front so build and
// probe never recompute a key's hash (SPEC_FULL.md §C item 4).
type HashColumn []uint64

// HashKeys computes the hash of every key once.
func HashKeys(keys []Key) HashColumn {
	out := make(HashColumn, len(keys))
	for i, k := range keys {
		out[i] = k.Hash()
	}
	return out
}
