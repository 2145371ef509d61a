package memstore_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gitKheang/library-management-system/internal/copypool"
	"github.com/gitKheang/library-management-system/internal/memstore"
	"github.com/gitKheang/library-management-system/internal/models"
)

func TestPool_AddCopiesContinuesSequence(t *testing.T) {
	pool := memstore.NewStore().Pool()
	ctx := context.Background()

	first, err := pool.AddCopies(ctx, "b1", "Clean Code", 2)
	require.NoError(t, err)
	require.Len(t, first, 2)
	assert.Equal(t, "CC-001", first[0].CopyCode)
	assert.Equal(t, "CC-002", first[1].CopyCode)

	second, err := pool.AddCopies(ctx, "b1", "Clean Code", 1)
	require.NoError(t, err)
	require.Len(t, second, 1)
	assert.Equal(t, "CC-003", second[0].CopyCode)

	for _, c := range append(first, second...) {
		assert.Equal(t, models.CopyAvailable, c.Status)
	}
}

func TestPool_ConcurrentClaims(t *testing.T) {
	pool := memstore.NewStore().Pool()
	ctx := context.Background()

	const available = 3
	const claimers = 10

	_, err := pool.AddCopies(ctx, "b1", "Clean Code", available)
	require.NoError(t, err)

	var wg sync.WaitGroup
	claimed := make(chan models.Copy, claimers)
	failed := make(chan error, claimers)

	for i := 0; i < claimers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c, err := pool.ClaimAvailableCopy(ctx, "b1")
			if err != nil {
				failed <- err
				return
			}
			claimed <- c
		}()
	}
	wg.Wait()
	close(claimed)
	close(failed)

	seen := map[string]bool{}
	for c := range claimed {
		assert.False(t, seen[c.ID], "copy %s claimed twice", c.ID)
		seen[c.ID] = true
		assert.Equal(t, models.CopyBorrowed, c.Status)
	}
	assert.Len(t, seen, available)

	failures := 0
	for err := range failed {
		assert.ErrorIs(t, err, copypool.ErrNoCopiesAvailable)
		failures++
	}
	assert.Equal(t, claimers-available, failures)

	total, avail, err := pool.Counts(ctx, "b1")
	require.NoError(t, err)
	assert.EqualValues(t, available, total)
	assert.EqualValues(t, 0, avail)
}

func TestPool_ReleaseIsIdempotent(t *testing.T) {
	pool := memstore.NewStore().Pool()
	ctx := context.Background()

	copies, err := pool.AddCopies(ctx, "b1", "Dune", 1)
	require.NoError(t, err)

	claimed, err := pool.ClaimAvailableCopy(ctx, "b1")
	require.NoError(t, err)
	require.Equal(t, copies[0].ID, claimed.ID)

	require.NoError(t, pool.ReleaseCopy(ctx, claimed.ID))
	require.NoError(t, pool.ReleaseCopy(ctx, claimed.ID))

	total, avail, err := pool.Counts(ctx, "b1")
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.EqualValues(t, 1, avail)

	// Releasing an unknown copy is a no-op, not an error.
	assert.NoError(t, pool.ReleaseCopy(ctx, "missing"))
}

func TestPool_SetStatus(t *testing.T) {
	pool := memstore.NewStore().Pool()
	ctx := context.Background()

	copies, err := pool.AddCopies(ctx, "b1", "Dune", 1)
	require.NoError(t, err)

	require.NoError(t, pool.SetStatus(ctx, copies[0].ID, models.CopyLost))

	total, avail, err := pool.Counts(ctx, "b1")
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.EqualValues(t, 0, avail)

	assert.ErrorIs(t, pool.SetStatus(ctx, "missing", models.CopyLost), copypool.ErrCopyNotFound)
}

func TestPool_AvailableNeverExceedsTotal(t *testing.T) {
	pool := memstore.NewStore().Pool()
	ctx := context.Background()

	_, err := pool.AddCopies(ctx, "b1", "Clean Code", 2)
	require.NoError(t, err)

	check := func() {
		total, avail, err := pool.Counts(ctx, "b1")
		require.NoError(t, err)
		assert.LessOrEqual(t, avail, total)
	}

	check()
	claimed, err := pool.ClaimAvailableCopy(ctx, "b1")
	require.NoError(t, err)
	check()
	require.NoError(t, pool.ReleaseCopy(ctx, claimed.ID))
	check()
	// A double release must not push available past total.
	require.NoError(t, pool.ReleaseCopy(ctx, claimed.ID))
	check()
}
