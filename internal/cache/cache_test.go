package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dysregnet/dysregnet-explorer/internal/kv"
	"github.com/dysregnet/dysregnet-explorer/internal/testutil"
	"github.com/dysregnet/dysregnet-explorer/pkg/core"
)

func sampleResult() *core.Result {
	return &core.Result{
		Samples: []string{"s1"},
		Edges:   []core.EdgeKey{{Regulator: "A", Target: "B"}, {Regulator: "B", Target: "C"}},
		Values:  [][]float64{{0.4, -0.1}},
	}
}

// slowStore blocks every call until the context ends.
type slowStore struct{ kv.MemoryStore }

func (s *slowStore) Get(ctx context.Context, _ string) ([]byte, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func (s *slowStore) Set(ctx context.Context, _ string, _ []byte) error {
	<-ctx.Done()
	return ctx.Err()
}

func (s *slowStore) Exists(ctx context.Context, _ string) (bool, error) {
	<-ctx.Done()
	return false, ctx.Err()
}

func TestResultCache_PutGet(t *testing.T) {
	store := kv.NewMemoryStore()
	c := New(Config{Store: store, Logger: testutil.NewTestLogger(t)})
	ctx := context.Background()

	params := core.Parameters{Condition: "condition"}.WithDefaults()
	require.NoError(t, c.Put(ctx, "abc", sampleResult(), params))

	raw, err := store.Get(ctx, "DysRegNet_abc")
	require.NoError(t, err, "entry is stored under the namespaced key")
	assert.Contains(t, string(raw), `"results"`)
	assert.Contains(t, string(raw), `"parameters"`)

	entry, err := c.Get(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, sampleResult(), entry.Results)
	assert.Equal(t, params, entry.Parameters)

	ok, err := c.Exists(ctx, "abc")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestResultCache_PutReplaces(t *testing.T) {
	c := New(Config{Store: kv.NewMemoryStore()})
	ctx := context.Background()

	require.NoError(t, c.Put(ctx, "abc", sampleResult(), core.Parameters{Condition: "a"}))
	require.NoError(t, c.Put(ctx, "abc", sampleResult(), core.Parameters{Condition: "b"}))

	entry, err := c.Get(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, "b", entry.Parameters.Condition)
}

func TestResultCache_Errors(t *testing.T) {
	ctx := context.Background()

	corrupt := kv.NewMemoryStore()
	require.NoError(t, corrupt.Set(ctx, "DysRegNet_bad", []byte("{not json")))
	require.NoError(t, corrupt.Set(ctx, "DysRegNet_empty", []byte(`{"parameters":{}}`)))

	tests := []struct {
		name      string
		store     kv.Store
		session   string
		wantErr   error
		wantNotIs error
	}{
		{name: "miss", store: kv.NewMemoryStore(), session: "nope", wantErr: core.ErrCacheMiss, wantNotIs: core.ErrServiceUnavailable},
		{name: "timeout", store: &slowStore{}, session: "abc", wantErr: core.ErrServiceUnavailable, wantNotIs: core.ErrCacheMiss},
		{name: "undecodable", store: corrupt, session: "bad", wantErr: ErrCorruptEntry, wantNotIs: core.ErrCacheMiss},
		{name: "no results", store: corrupt, session: "empty", wantErr: ErrCorruptEntry, wantNotIs: core.ErrCacheMiss},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(Config{Store: tt.store, Timeout: 20 * time.Millisecond})
			entry, err := c.Get(ctx, tt.session)
			require.Error(t, err)
			assert.Nil(t, entry)
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
			assert.False(t, errors.Is(err, tt.wantNotIs))
		})
	}
}

func TestResultCache_UnavailableWrites(t *testing.T) {
	c := New(Config{Store: &slowStore{}, Timeout: 10 * time.Millisecond})
	ctx := context.Background()

	err := c.Put(ctx, "abc", sampleResult(), core.Parameters{})
	assert.ErrorIs(t, err, core.ErrServiceUnavailable)

	_, err = c.Exists(ctx, "abc")
	assert.ErrorIs(t, err, core.ErrServiceUnavailable)
}

func TestResultCache_DistinctSessions(t *testing.T) {
	c := New(Config{Store: kv.NewMemoryStore(), Namespace: "test_"})
	ctx := context.Background()

	require.NoError(t, c.Put(ctx, "one", sampleResult(), core.Parameters{Condition: "one"}))
	ok, err := c.Exists(ctx, "two")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, "test_one", c.Key("one"))
}
