// Package joinindex builds the pair-of-row-index-lists that the table
// materializer gathers from (spec.md §4.3). It owns the build-side
// selection heuristic, the parallel inner/left probe, and the
// single-threaded full-outer pass.
package joinindex

import (
	"sort"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/paauw/polars/column"
	"github.com/paauw/polars/internal/hashtable"
	"github.com/paauw/polars/internal/keyenc"
	"github.com/paauw/polars/internal/pool"
)

// How is the requested join kind.
type How int

const (
	Inner How = iota
	Left
	Outer
)

// NullIndex mirrors column.NullIndex: the sentinel meaning "no row on
// this side", used for the unmatched half of a left/outer pair.
const NullIndex = column.NullIndex

// Result is the output of building a join index: parallel row-index
// slices into the left and right tables, plus whether build/probe roles
// were swapped relative to the caller's left/right.
//
// Swap is part of the public contract, not folded away, so a future
// optimizer pass can reason about which side was chosen as build
// (SPEC_FULL.md §C item 1).
type Result struct {
	Left  []uint32
	Right []uint32
	Swap  bool
}

// Build constructs the join index for the given encoded keys. leftKeys
// and rightKeys must have the same arity (same number of key columns
// per row); mismatched arity is an invariant violation and panics
// (spec.md §7).
func Build(leftKeys, rightKeys []keyenc.Key, how How) (*Result, error) {
	return BuildWithShards(leftKeys, rightKeys, how, pool.MustSize())
}

// BuildWithShards is Build with an explicit shard/parallelism count,
// bypassing the process-wide pool size. It exists so callers (and this
// package's own tests) can exercise the thread-count invariance
// property from spec.md §8 — "the same join on the same input produces
// the same set of output pairs regardless of POLARS_MAX_THREADS" —
// without needing a fresh process per thread count, since pool.Size is
// memoized for the life of the process.
func BuildWithShards(leftKeys, rightKeys []keyenc.Key, how How, numShards int) (*Result, error) {
	if len(leftKeys) > 0 && len(rightKeys) > 0 && len(leftKeys[0]) != len(rightKeys[0]) {
		panic(errors.Errorf("joinindex: key arity mismatch: left=%d right=%d", len(leftKeys[0]), len(rightKeys[0])))
	}
	if numShards < 1 {
		numShards = 1
	}

	switch how {
	case Inner, Left:
		return buildProbeParallel(leftKeys, rightKeys, how, numShards)
	case Outer:
		return buildOuterSingleThreaded(leftKeys, rightKeys)
	default:
		return nil, errors.Errorf("joinindex: unknown join kind %d", how)
	}
}

// chooseBuildSide picks the shorter relation as the build side, per the
// relation-size heuristic (spec.md §4.3). Left join never swaps: the
// probe side is always the caller's left, since Left join's output
// order and unmatched-row semantics are defined relative to the left
// relation and are not commutative.
func chooseBuildSide(leftKeys, rightKeys []keyenc.Key, how How) (buildIsRight bool) {
	if how == Left {
		return true // right is always build for a left join; left always probes.
	}
	return len(rightKeys) <= len(leftKeys)
}

func buildProbeParallel(leftKeys, rightKeys []keyenc.Key, how How, numShards int) (*Result, error) {
	buildIsRight := chooseBuildSide(leftKeys, rightKeys, how)
	buildKeys, probeKeys := rightKeys, leftKeys
	if !buildIsRight {
		buildKeys, probeKeys = leftKeys, rightKeys
	}

	buildHashes := keyenc.HashKeys(buildKeys)
	table, err := hashtable.Build(buildKeys, buildHashes, numShards)
	if err != nil {
		return nil, errors.Wrap(err, "joinindex: build phase")
	}

	probeHashes := keyenc.HashKeys(probeKeys)

	// Partition the probe side into numShards contiguous chunks and
	// probe each in its own goroutine. Each goroutine accumulates into
	// its own local output buffers; concatenating the buffers in chunk
	// order afterward reproduces probe-row order in the combined result
	// without needing to precompute per-chunk offsets (spec.md §5).
	chunks := partition(len(probeKeys), numShards)
	buildOut := make([][]uint32, len(chunks))
	probeOut := make([][]uint32, len(chunks))

	var g errgroup.Group
	for ci, ch := range chunks {
		ci, ch := ci, ch
		g.Go(func() error {
			var bOut, pOut []uint32
			var matchBuf []uint32
			for row := ch.start; row < ch.end; row++ {
				matchBuf = matchBuf[:0]
				matchBuf = table.Probe(matchBuf, probeKeys[row], probeHashes[row])
				if len(matchBuf) == 0 {
					if how == Left {
						pOut = append(pOut, uint32(row))
						bOut = append(bOut, NullIndex)
					}
					continue
				}
				for _, br := range matchBuf {
					pOut = append(pOut, uint32(row))
					bOut = append(bOut, br)
				}
			}
			buildOut[ci] = bOut
			probeOut[ci] = pOut
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	build := concat(buildOut)
	probe := concat(probeOut)

	res := &Result{Swap: !buildIsRight}
	if buildIsRight {
		// probe is left, build is right
		res.Left, res.Right = probe, build
	} else {
		res.Left, res.Right = build, probe
	}
	return res, nil
}

type chunk struct{ start, end int }

func partition(n, parts int) []chunk {
	if parts < 1 {
		parts = 1
	}
	if n == 0 {
		return nil
	}
	if parts > n {
		parts = n
	}
	base := n / parts
	rem := n % parts
	out := make([]chunk, parts)
	pos := 0
	for i := 0; i < parts; i++ {
		size := base
		if i < rem {
			size++
		}
		out[i] = chunk{start: pos, end: pos + size}
		pos += size
	}
	return out
}

func concat(parts [][]uint32) []uint32 {
	total := 0
	for _, p := range parts {
		total += len(p)
	}
	out := make([]uint32, 0, total)
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

// buildOuterSingleThreaded implements the full outer join. The build
// side is still chosen by the relation-size heuristic, but the probe
// loop and the build-side "emit unmatched build rows" tail both run on
// one goroutine: emitting unmatched build rows requires knowing, after
// every probe row has been processed, which build rows were never
// matched — a removal/seen-tracking pass over a single mutable table,
// which is not safe to parallelize without re-synchronizing on every
// shard (spec.md §4.3, §5).
func buildOuterSingleThreaded(leftKeys, rightKeys []keyenc.Key) (*Result, error) {
	buildIsRight := len(rightKeys) <= len(leftKeys)
	buildKeys, probeKeys := rightKeys, leftKeys
	if !buildIsRight {
		buildKeys, probeKeys = leftKeys, rightKeys
	}

	table, err := hashtable.Build(buildKeys, keyenc.HashKeys(buildKeys), 1)
	if err != nil {
		return nil, errors.Wrap(err, "joinindex: outer build phase")
	}
	probeHashes := keyenc.HashKeys(probeKeys)

	seen := make([]bool, len(buildKeys))
	var buildOut, probeOut []uint32
	var matchBuf []uint32
	for row := range probeKeys {
		matchBuf = matchBuf[:0]
		matchBuf = table.Probe(matchBuf, probeKeys[row], probeHashes[row])
		if len(matchBuf) == 0 {
			probeOut = append(probeOut, uint32(row))
			buildOut = append(buildOut, NullIndex)
			continue
		}
		for _, br := range matchBuf {
			seen[br] = true
			probeOut = append(probeOut, uint32(row))
			buildOut = append(buildOut, br)
		}
	}
	// Emit unmatched build rows, in ascending build-row order so output
	// is deterministic regardless of map iteration order.
	unmatched := make([]int, 0)
	for i, ok := range seen {
		if !ok {
			unmatched = append(unmatched, i)
		}
	}
	sort.Ints(unmatched)
	for _, br := range unmatched {
		buildOut = append(buildOut, uint32(br))
		probeOut = append(probeOut, NullIndex)
	}

	res := &Result{Swap: !buildIsRight}
	if buildIsRight {
		res.Left, res.Right = probeOut, buildOut
	} else {
		res.Left, res.Right = buildOut, probeOut
	}
	return res, nil
}
