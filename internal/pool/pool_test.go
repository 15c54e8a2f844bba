package pool_test

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paauw/polars/internal/pool"
)

func TestSizeIsPositive(t *testing.T) {
	n, err := pool.Size()
	require.NoError(t, err)
	assert.Greater(t, n, 0)
}

func TestInstallRunsEveryTask(t *testing.T) {
	var count int32
	tasks := make([]func() error, 5)
	for i := range tasks {
		tasks[i] = func() error {
			atomic.AddInt32(&count, 1)
			return nil
		}
	}
	require.NoError(t, pool.Install(tasks...))
	assert.EqualValues(t, 5, count)
}

func TestJoinPropagatesError(t *testing.T) {
	boom := assertError("boom")
	err := pool.Join(
		func() error { return nil },
		func() error { return boom },
	)
	assert.ErrorIs(t, err, boom)
}

type assertError string

func (e assertError) Error() string { return string(e) }
