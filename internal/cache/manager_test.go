package cache

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"querymind/domain/core"
)

func newTestManager(t *testing.T) (*Manager, *core.FakeClock) {
	t.Helper()
	clock := core.NewFakeClock(time.Date(2025, 10, 1, 12, 0, 0, 0, time.UTC))
	manager, err := NewManager(clock, Config{MaxEntries: 8})
	require.NoError(t, err)
	return manager, clock
}

func TestCacheRoundTrip(t *testing.T) {
	manager, _ := newTestManager(t)
	key := GenerationKey("which product generated the highest total revenue", "schema-fp")

	manager.Put(LayerGeneration, key, "SELECT 1")

	value, ok := manager.Get(LayerGeneration, key)
	require.True(t, ok, "immediate get after put must hit")
	assert.Equal(t, "SELECT 1", value)
}

func TestCacheTTLExpiry(t *testing.T) {
	manager, clock := newTestManager(t)
	key := core.CacheKey("k1")

	manager.PutTTL(LayerExecution, key, "v", 10*time.Minute)

	clock.Advance(9 * time.Minute)
	_, ok := manager.Get(LayerExecution, key)
	assert.True(t, ok, "entry within TTL must hit")

	clock.Advance(2 * time.Minute)
	_, ok = manager.Get(LayerExecution, key)
	assert.False(t, ok, "entry past TTL must miss")

	stats := manager.Stats()[LayerExecution]
	assert.Equal(t, uint64(1), stats.Hits)
	assert.Equal(t, uint64(1), stats.Misses)
	assert.Equal(t, uint64(1), stats.Evictions, "lazy expiry counts as eviction")
	assert.Equal(t, 0, stats.Size)
}

func TestCacheLayersIndependent(t *testing.T) {
	manager, _ := newTestManager(t)
	key := core.CacheKey("shared-key")

	manager.Put(LayerGeneration, key, "generated")
	manager.Put(LayerReflection, key, "reflected")

	v1, ok := manager.Get(LayerGeneration, key)
	require.True(t, ok)
	v2, ok := manager.Get(LayerReflection, key)
	require.True(t, ok)
	assert.Equal(t, "generated", v1)
	assert.Equal(t, "reflected", v2)

	manager.Invalidate(LayerGeneration)
	_, ok = manager.Get(LayerGeneration, key)
	assert.False(t, ok, "invalidated layer must miss")
	_, ok = manager.Get(LayerReflection, key)
	assert.True(t, ok, "other layers are untouched")
}

func TestCacheInvalidateAll(t *testing.T) {
	manager, _ := newTestManager(t)
	for _, layer := range Layers {
		manager.Put(layer, core.CacheKey("k"), "v")
	}

	manager.InvalidateAll()

	for _, layer := range Layers {
		stats := manager.Stats()[layer]
		assert.Equal(t, 0, stats.Size, "layer %s should be empty", layer)
	}
}

func TestCacheCapacityEviction(t *testing.T) {
	clock := core.NewFakeClock(time.Now())
	manager, err := NewManager(clock, Config{MaxEntries: 2})
	require.NoError(t, err)

	manager.Put(LayerGeneration, core.CacheKey("a"), 1)
	manager.Put(LayerGeneration, core.CacheKey("b"), 2)
	manager.Put(LayerGeneration, core.CacheKey("c"), 3)

	stats := manager.Stats()[LayerGeneration]
	assert.Equal(t, 2, stats.Size)
	assert.Equal(t, uint64(1), stats.Evictions)

	_, ok := manager.Get(LayerGeneration, core.CacheKey("a"))
	assert.False(t, ok, "oldest entry is evicted first")
}

func TestGetOrCompute(t *testing.T) {
	manager, _ := newTestManager(t)
	key := core.CacheKey("compute-key")
	calls := 0

	compute := func() (any, error) {
		calls++
		return "computed", nil
	}

	v, err := manager.GetOrCompute(LayerReflection, key, compute)
	require.NoError(t, err)
	assert.Equal(t, "computed", v)

	v, err = manager.GetOrCompute(LayerReflection, key, compute)
	require.NoError(t, err)
	assert.Equal(t, "computed", v)
	assert.Equal(t, 1, calls, "second call must be served from cache")
}

func TestGetOrComputeErrorNotCached(t *testing.T) {
	manager, _ := newTestManager(t)
	key := core.CacheKey("err-key")

	boom := errors.New("collaborator down")
	_, err := manager.GetOrCompute(LayerReflection, key, func() (any, error) { return nil, boom })
	require.ErrorIs(t, err, boom)

	v, err := manager.GetOrCompute(LayerReflection, key, func() (any, error) { return "ok", nil })
	require.NoError(t, err)
	assert.Equal(t, "ok", v, "a failed computation must not poison the key")
}

func TestGetOrComputeConcurrent(t *testing.T) {
	manager, _ := newTestManager(t)
	key := core.CacheKey("concurrent-key")

	var mu sync.Mutex
	calls := 0
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := manager.GetOrCompute(LayerExecution, key, func() (any, error) {
				mu.Lock()
				calls++
				mu.Unlock()
				time.Sleep(5 * time.Millisecond)
				return "shared", nil
			})
			assert.NoError(t, err)
			assert.Equal(t, "shared", v)
		}()
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	assert.LessOrEqual(t, calls, 2, "singleflight should collapse concurrent fills")
}

func TestKeysDeterministic(t *testing.T) {
	fp := core.SchemaFingerprint("fp")

	assert.Equal(t,
		GenerationKey("Which product sold best?", fp),
		GenerationKey("  which   product sold best ", fp),
		"normalized questions share a key")

	assert.NotEqual(t,
		GenerationKey("which product sold best", fp),
		GenerationKey("which region sold best", fp))

	assert.Equal(t,
		ExecutionKey("SELECT * FROM t", fp),
		ExecutionKey("select *  from T;", fp),
		"cosmetically equal SQL shares an execution key")
}

func TestReflectionKeyIncludesQuestion(t *testing.T) {
	sql := "SELECT product_name FROM transactions"
	res := core.ResultFingerprint("rf")

	assert.NotEqual(t,
		ReflectionKey("what is the most popular color", sql, res),
		ReflectionKey("which brand has the best rating", sql, res),
		"two questions sharing one query must not share a verdict entry")

	assert.Equal(t,
		ReflectionKey("Which product sold best?", sql, res),
		ReflectionKey("  which   product sold best ", sql, res),
		"question normalization still applies")
}

func TestExplanationKeyIncludesReason(t *testing.T) {
	sql := "SELECT product_name FROM transactions"

	assert.NotEqual(t,
		ExplanationKey("NULL_RESPONSE", "question references unknown field(s): color", sql, ""),
		ExplanationKey("NULL_RESPONSE", "question references unknown field(s): brand", sql, ""),
		"decisions sharing an action but differing in reason key separately")

	assert.Equal(t,
		ExplanationKey("NONE", "first-pass query stands", sql, ""),
		ExplanationKey("NONE", "first-pass query stands", sql+";", ""))
}

func TestParseLayer(t *testing.T) {
	layer, all, err := ParseLayer("generation")
	require.NoError(t, err)
	assert.False(t, all)
	assert.Equal(t, LayerGeneration, layer)

	_, all, err = ParseLayer("all")
	require.NoError(t, err)
	assert.True(t, all)

	_, _, err = ParseLayer("bogus")
	assert.Error(t, err)
}
