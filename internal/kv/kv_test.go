package kv

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openStores(t *testing.T) map[string]Store {
	t.Helper()
	dir := t.TempDir()

	stores := map[string]Store{}
	for name, cfg := range map[string]Config{
		"sqlite memory": {Driver: DriverSQLite},
		"sqlite file":   {Driver: DriverSQLite, Path: filepath.Join(dir, "cache.db")},
		"badger memory": {Driver: DriverBadger},
		"badger dir":    {Driver: DriverBadger, Path: filepath.Join(dir, "badger")},
		"memory":        {Driver: DriverMemory},
	} {
		s, err := Open(cfg)
		require.NoError(t, err, name)
		t.Cleanup(func() { _ = s.Close() })
		stores[name] = s
	}
	return stores
}

func TestStore_SetGetExists(t *testing.T) {
	ctx := context.Background()
	for name, s := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			ok, err := s.Exists(ctx, "DysRegNet_a")
			require.NoError(t, err)
			assert.False(t, ok)

			_, err = s.Get(ctx, "DysRegNet_a")
			assert.True(t, errors.Is(err, ErrNotFound))

			require.NoError(t, s.Set(ctx, "DysRegNet_a", []byte(`{"v":1}`)))
			require.NoError(t, s.Set(ctx, "DysRegNet_a", []byte(`{"v":2}`)))

			got, err := s.Get(ctx, "DysRegNet_a")
			require.NoError(t, err)
			assert.Equal(t, `{"v":2}`, string(got), "set fully replaces")

			ok, err = s.Exists(ctx, "DysRegNet_a")
			require.NoError(t, err)
			assert.True(t, ok)

			ok, err = s.Exists(ctx, "DysRegNet_b")
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}
}

func TestStore_ConcurrentDistinctKeys(t *testing.T) {
	ctx := context.Background()
	for name, s := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			var wg sync.WaitGroup
			keys := []string{"k1", "k2", "k3", "k4"}
			for _, k := range keys {
				wg.Add(1)
				go func(k string) {
					defer wg.Done()
					assert.NoError(t, s.Set(ctx, k, []byte(k)))
				}(k)
			}
			wg.Wait()

			for _, k := range keys {
				got, err := s.Get(ctx, k)
				require.NoError(t, err)
				assert.Equal(t, k, string(got))
			}
		})
	}
}

func TestStore_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	for _, s := range []Store{NewMemoryStore()} {
		assert.ErrorIs(t, s.Set(ctx, "k", nil), context.Canceled)
	}

	b, err := OpenBadger(InMemoryBadgerConfig())
	require.NoError(t, err)
	defer func() { _ = b.Close() }()
	_, err = b.Get(ctx, "k")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(Config{Driver: "redis"})
	assert.Error(t, err)
}

func TestSQLiteStore_NotOpened(t *testing.T) {
	s := NewSQLiteStore()
	assert.Error(t, s.Migrate())
	assert.Error(t, s.Set(context.Background(), "k", nil))
}
