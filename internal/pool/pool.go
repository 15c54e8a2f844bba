// Package pool implements the process-wide worker pool (spec.md §5): its
// size, which the join kernel reads as its shard/partition count, and the
// Install/Join fan-out helpers. Sizing follows POLARS_MAX_THREADS; the
// helpers mirror the decorator concurrency idiom in the
// teacher's pkgs/decorators/parallel.go (semaphore + WaitGroup + error
// fan-in), built on golang.org/x/sync/errgroup instead of hand-rolled
// channels.
package pool

import (
	"os"
	"runtime"
	"strconv"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var (
	sizeOnce    sync.Once
	memoizedSz  int
	sizeErr     error
	logger      = zap.NewNop().Sugar()
)

// SetLogger overrides the package's logger. Intended for host
// applications wiring their own zap config; a no-op logger is used by
// default so tests don't need one.
func SetLogger(l *zap.SugaredLogger) { logger = l }

// Size returns the resolved worker count: min(NumCPU, POLARS_MAX_THREADS)
// when the env var is set and parses as a positive integer, or NumCPU
// when it is unset. The result is memoized for the life of the process,
// matching spec.md §6's "read once" contract. A set env var that is not
// an integer, or is not positive, is an external configuration error and
// is surfaced, not silently ignored.
func Size() (int, error) {
	sizeOnce.Do(func() {
		n, err := resolveSize(runtime.NumCPU(), os.LookupEnv)
		memoizedSz, sizeErr = n, err
		if err == nil {
			logger.Infow("resolved thread pool size", "threads", memoizedSz)
		}
	})
	return memoizedSz, sizeErr
}

// resolveSize is Size's parsing logic, factored out so it can be unit
// tested without depending on (and permanently consuming) the
// process-lifetime sizeOnce memoization.
func resolveSize(numCPU int, lookupEnv func(string) (string, bool)) (int, error) {
	n := numCPU
	raw, ok := lookupEnv("POLARS_MAX_THREADS")
	if !ok {
		return n, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.Wrapf(err, "pool: POLARS_MAX_THREADS=%q is not an integer", raw)
	}
	if v <= 0 {
		return 0, errors.Errorf("pool: POLARS_MAX_THREADS=%q must be positive", raw)
	}
	if v < n {
		n = v
	}
	return n, nil
}

// MustSize is Size but panics on a malformed POLARS_MAX_THREADS, for call
// sites (table construction, join entry points) that have no error
// return path of their own and treat bad configuration as fatal.
func MustSize() int {
	n, err := Size()
	if err != nil {
		panic(err)
	}
	return n
}

// Install runs tasks concurrently, bounded by the resolved pool size,
// and returns the first error encountered (subsequent goroutines'
// cancellation is the caller's responsibility via ctx if one is
// threaded through task).
func Install(tasks ...func() error) error {
	if len(tasks) == 0 {
		return nil
	}
	n := MustSize()
	var g errgroup.Group
	g.SetLimit(n)
	for _, t := range tasks {
		t := t
		g.Go(t)
	}
	return g.Wait()
}

// Join runs exactly two tasks concurrently and waits for both, returning
// the first error. This mirrors the original's join(a, b) primitive used
// to recursively split build/probe work in half. Unlike Install it does
// not apply the pool-size limit, so the two tasks run concurrently even
// when the pool size is 1.
func Join(a, b func() error) error {
	var g errgroup.Group
	g.Go(a)
	g.Go(b)
	return g.Wait()
}
