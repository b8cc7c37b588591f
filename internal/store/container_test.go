package store

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLifecycle(t *testing.T) {
	c := New[[]string]()
	assert.Equal(t, Idle, c.State())

	t.Run("SuccessfulFetch", func(t *testing.T) {
		got, err := c.Fetch(context.Background(), func(ctx context.Context) ([]string, error) {
			assert.Equal(t, Loading, c.State())
			return []string{"a", "b"}, nil
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b"}, got)
		assert.Equal(t, Succeeded, c.State())

		value, ok := c.Value()
		assert.True(t, ok)
		assert.Equal(t, []string{"a", "b"}, value)
	})

	t.Run("FailureKeepsPreviousValue", func(t *testing.T) {
		fetchErr := errors.New("boom")
		_, err := c.Fetch(context.Background(), func(ctx context.Context) ([]string, error) {
			return nil, fetchErr
		})
		assert.ErrorIs(t, err, fetchErr)

		value, state, lastErr := c.Get()
		assert.Equal(t, Failed, state)
		assert.ErrorIs(t, lastErr, fetchErr)
		// Stale-but-visible: the old value survives the failed refetch.
		assert.Equal(t, []string{"a", "b"}, value)
	})

	t.Run("LoadingReenterableAfterFailure", func(t *testing.T) {
		_, err := c.Fetch(context.Background(), func(ctx context.Context) ([]string, error) {
			return []string{"c"}, nil
		})
		require.NoError(t, err)
		_, state, lastErr := c.Get()
		assert.Equal(t, Succeeded, state)
		assert.NoError(t, lastErr)
	})
}

func TestOverlappingFetches(t *testing.T) {
	t.Run("StaleResponseIsDiscarded", func(t *testing.T) {
		c := New[int]()

		firstStarted := make(chan struct{})
		release := make(chan struct{})

		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			// Slow fetch: issued first, resolves last.
			_, _ = c.Fetch(context.Background(), func(ctx context.Context) (int, error) {
				close(firstStarted)
				<-release
				return 1, nil
			})
		}()

		<-firstStarted

		// Issued second, resolves first. It owns the container from here on.
		got, err := c.Fetch(context.Background(), func(ctx context.Context) (int, error) {
			return 2, nil
		})
		require.NoError(t, err)
		assert.Equal(t, 2, got)

		close(release)
		wg.Wait()

		value, ok := c.Value()
		assert.True(t, ok)
		assert.Equal(t, 2, value, "the superseded fetch must not clobber the newer result")
	})

	t.Run("SupersededFetchContextIsCancelled", func(t *testing.T) {
		c := New[int]()

		firstStarted := make(chan struct{})
		var firstCtx context.Context

		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = c.Fetch(context.Background(), func(ctx context.Context) (int, error) {
				firstCtx = ctx
				close(firstStarted)
				<-ctx.Done()
				return 0, ctx.Err()
			})
		}()

		<-firstStarted

		_, err := c.Fetch(context.Background(), func(ctx context.Context) (int, error) {
			return 2, nil
		})
		require.NoError(t, err)

		wg.Wait()
		assert.ErrorIs(t, firstCtx.Err(), context.Canceled)
	})

	t.Run("StaleFailureDoesNotTouchState", func(t *testing.T) {
		c := New[int]()

		firstStarted := make(chan struct{})
		release := make(chan struct{})

		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = c.Fetch(context.Background(), func(ctx context.Context) (int, error) {
				close(firstStarted)
				<-release
				return 0, errors.New("late failure")
			})
		}()

		<-firstStarted

		_, err := c.Fetch(context.Background(), func(ctx context.Context) (int, error) {
			return 7, nil
		})
		require.NoError(t, err)

		close(release)
		wg.Wait()

		value, state, lastErr := c.Get()
		assert.Equal(t, Succeeded, state)
		assert.NoError(t, lastErr)
		assert.Equal(t, 7, value)
	})
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "idle", Idle.String())
	assert.Equal(t, "loading", Loading.String())
	assert.Equal(t, "succeeded", Succeeded.String())
	assert.Equal(t, "failed", Failed.String())
}
