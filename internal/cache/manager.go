// Package cache implements the four-layer reflection cache: generation,
// execution, reflection, and explanation results are cached independently,
// each with its own TTL and hit/miss/eviction accounting. Expiry is checked
// lazily on read against an injected clock; there is no background sweep,
// so behavior is deterministic under test.
package cache

import (
	"fmt"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"

	"querymind/domain/core"
)

// Layer names one of the four cache layers.
type Layer string

const (
	LayerGeneration  Layer = "generation"
	LayerExecution   Layer = "execution"
	LayerReflection  Layer = "reflection"
	LayerExplanation Layer = "explanation"
)

// Layers lists every layer in a stable order.
var Layers = []Layer{LayerGeneration, LayerExecution, LayerReflection, LayerExplanation}

// Default TTLs. Generation and execution are cheap to recompute and track
// the demo's 1h/10m windows; reflection and explanation are expensive
// completion-service round trips and live longer.
const (
	DefaultGenerationTTL  = time.Hour
	DefaultExecutionTTL   = 10 * time.Minute
	DefaultReflectionTTL  = 24 * time.Hour
	DefaultExplanationTTL = 24 * time.Hour

	// DefaultMaxEntries bounds each layer's LRU.
	DefaultMaxEntries = 1024
)

// Entry is one cached value with its expiry bookkeeping.
type Entry struct {
	Key       core.CacheKey
	Value     any
	CreatedAt time.Time
	TTL       time.Duration
	HitCount  int
}

// expired reports whether the entry is stale at the given instant.
func (e *Entry) expired(now time.Time) bool {
	return e.TTL > 0 && now.Sub(e.CreatedAt) > e.TTL
}

// LayerStats is the per-layer counter snapshot.
type LayerStats struct {
	Hits      uint64 `json:"hits"`
	Misses    uint64 `json:"misses"`
	Evictions uint64 `json:"evictions"`
	Size      int    `json:"size"`
}

// Config tunes the manager. The zero value gets defaults.
type Config struct {
	MaxEntries int
	TTLs       map[Layer]time.Duration
}

func (c Config) withDefaults() Config {
	if c.MaxEntries <= 0 {
		c.MaxEntries = DefaultMaxEntries
	}
	ttls := map[Layer]time.Duration{
		LayerGeneration:  DefaultGenerationTTL,
		LayerExecution:   DefaultExecutionTTL,
		LayerReflection:  DefaultReflectionTTL,
		LayerExplanation: DefaultExplanationTTL,
	}
	for layer, ttl := range c.TTLs {
		ttls[layer] = ttl
	}
	c.TTLs = ttls
	return c
}

// layerStore is one layer's LRU plus counters. The mutex covers both, so a
// Get that evicts an expired entry updates counters atomically. Concurrent
// writers to the same key race benignly: values are a pure function of the
// key, so last write wins.
type layerStore struct {
	mu        sync.Mutex
	entries   *lru.Cache[core.CacheKey, *Entry]
	ttl       time.Duration
	hits      uint64
	misses    uint64
	evictions uint64
}

// Manager owns the four layer stores. It is an explicitly injected
// dependency of the reflection service, never an ambient global; tests get
// an isolated instance with a fake clock.
type Manager struct {
	clock  core.Clock
	layers map[Layer]*layerStore
	group  singleflight.Group
}

// NewManager creates a cache manager with the given clock and config.
func NewManager(clock core.Clock, config Config) (*Manager, error) {
	config = config.withDefaults()
	if clock == nil {
		clock = core.SystemClock{}
	}

	layers := make(map[Layer]*layerStore, len(Layers))
	for _, layer := range Layers {
		entries, err := lru.New[core.CacheKey, *Entry](config.MaxEntries)
		if err != nil {
			return nil, fmt.Errorf("failed to create %s layer: %w", layer, err)
		}
		layers[layer] = &layerStore{
			entries: entries,
			ttl:     config.TTLs[layer],
		}
	}
	return &Manager{clock: clock, layers: layers}, nil
}

// Get returns the cached value for the key, or (nil, false) on a miss.
// Expired entries are evicted here, on read.
func (m *Manager) Get(layer Layer, key core.CacheKey) (any, bool) {
	store, ok := m.layers[layer]
	if !ok {
		return nil, false
	}

	store.mu.Lock()
	defer store.mu.Unlock()

	entry, ok := store.entries.Get(key)
	if !ok {
		store.misses++
		return nil, false
	}
	if entry.expired(m.clock.Now()) {
		store.entries.Remove(key)
		store.evictions++
		store.misses++
		return nil, false
	}
	entry.HitCount++
	store.hits++
	return entry.Value, true
}

// Put stores a value under the layer's default TTL.
func (m *Manager) Put(layer Layer, key core.CacheKey, value any) {
	if store, ok := m.layers[layer]; ok {
		m.put(store, key, value, store.ttl)
	}
}

// PutTTL stores a value with an explicit TTL.
func (m *Manager) PutTTL(layer Layer, key core.CacheKey, value any, ttl time.Duration) {
	if store, ok := m.layers[layer]; ok {
		m.put(store, key, value, ttl)
	}
}

func (m *Manager) put(store *layerStore, key core.CacheKey, value any, ttl time.Duration) {
	store.mu.Lock()
	defer store.mu.Unlock()
	entry := &Entry{
		Key:       key,
		Value:     value,
		CreatedAt: m.clock.Now(),
		TTL:       ttl,
	}
	if evicted := store.entries.Add(key, entry); evicted {
		store.evictions++
	}
}

// GetOrCompute returns the cached value or fills the cache from fn.
// Concurrent callers computing the same key are collapsed into one fn call.
// Errors are never cached; correctness never depends on a hit.
func (m *Manager) GetOrCompute(layer Layer, key core.CacheKey, fn func() (any, error)) (any, error) {
	if value, ok := m.Get(layer, key); ok {
		return value, nil
	}
	value, err, _ := m.group.Do(string(layer)+":"+key.String(), func() (any, error) {
		if value, ok := m.Get(layer, key); ok {
			return value, nil
		}
		value, err := fn()
		if err != nil {
			return nil, err
		}
		m.Put(layer, key, value)
		return value, nil
	})
	return value, err
}

// Invalidate drops every entry in one layer.
func (m *Manager) Invalidate(layer Layer) {
	if store, ok := m.layers[layer]; ok {
		store.mu.Lock()
		store.entries.Purge()
		store.mu.Unlock()
	}
}

// InvalidateAll drops every entry in every layer. Must be called whenever
// the underlying dataset changes; stale entries from a prior dataset must
// never be served.
func (m *Manager) InvalidateAll() {
	for _, layer := range Layers {
		m.Invalidate(layer)
	}
}

// Stats returns a per-layer counter snapshot.
func (m *Manager) Stats() map[Layer]LayerStats {
	stats := make(map[Layer]LayerStats, len(m.layers))
	for layer, store := range m.layers {
		store.mu.Lock()
		stats[layer] = LayerStats{
			Hits:      store.hits,
			Misses:    store.misses,
			Evictions: store.evictions,
			Size:      store.entries.Len(),
		}
		store.mu.Unlock()
	}
	return stats
}

// ParseLayer maps an external layer name to a Layer, or "all" to every
// layer (returned as nil with all=true).
func ParseLayer(name string) (layer Layer, all bool, err error) {
	switch Layer(name) {
	case LayerGeneration, LayerExecution, LayerReflection, LayerExplanation:
		return Layer(name), false, nil
	}
	if name == "all" || name == "" {
		return "", true, nil
	}
	return "", false, fmt.Errorf("unknown cache layer: %s", name)
}
