package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupMiniredis(t *testing.T) *miniredis.Miniredis {
	t.Helper()
	mr := miniredis.RunT(t)
	SetClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { SetClient(nil) })
	return mr
}

func TestAside_FetchesOnceThenServesFromCache(t *testing.T) {
	setupMiniredis(t)
	ctx := context.Background()

	calls := 0
	fetch := func(dest *[]string) func() error {
		return func() error {
			calls++
			*dest = []string{"go", "music"}
			return nil
		}
	}

	var first []string
	require.NoError(t, Aside(ctx, UserInterestsKey("u1"), &first, time.Minute, fetch(&first)))
	var second []string
	require.NoError(t, Aside(ctx, UserInterestsKey("u1"), &second, time.Minute, fetch(&second)))

	assert.Equal(t, 1, calls)
	assert.Equal(t, []string{"go", "music"}, second)
}

func TestAside_InvalidateForcesRefetch(t *testing.T) {
	setupMiniredis(t)
	ctx := context.Background()

	var v []string
	require.NoError(t, Aside(ctx, UserInterestsKey("u1"), &v, time.Minute, func() error {
		v = []string{"old"}
		return nil
	}))

	InvalidateUser(ctx, "u1")

	var fresh []string
	require.NoError(t, Aside(ctx, UserInterestsKey("u1"), &fresh, time.Minute, func() error {
		fresh = []string{"new"}
		return nil
	}))
	assert.Equal(t, []string{"new"}, fresh)
}

func TestAside_PropagatesFetchError(t *testing.T) {
	setupMiniredis(t)
	var v []string
	err := Aside(context.Background(), "k", &v, time.Minute, func() error {
		return errors.New("db down")
	})
	assert.EqualError(t, err, "db down")
}

func TestAside_NoClient(t *testing.T) {
	SetClient(nil)
	var v []string
	err := Aside(context.Background(), "k", &v, time.Minute, func() error {
		v = []string{"x"}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"x"}, v)
}

func TestAside_UnavailableRedisFallsThrough(t *testing.T) {
	mr := setupMiniredis(t)
	mr.Close()

	var v []string
	err := Aside(context.Background(), "k", &v, time.Minute, func() error {
		v = []string{"db"}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"db"}, v)
}
