// Package observability provides hooks for metrics, tracing, and logging.
//
// Libraries in this module never depend on a metrics or tracing backend.
// Instead they call the hooks registered here, which default to no-ops.
// A binary that wants instrumentation registers its own implementations
// once at startup.
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetTraversalHooks(&myTraversalHooks{})
//	    observability.SetCacheHooks(&myCacheHooks{})
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Traversal().OnExploreStart(ctx, "dfg", startID)
//	// ... explore ...
//	observability.Traversal().OnExploreComplete(ctx, "dfg", fulfilled, failed, iterations, elapsed, err)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Traversal Hooks
// =============================================================================

// TraversalHooks receives events from path explorations.
type TraversalHooks interface {
	// OnExploreStart records the start of an exploration from startID.
	OnExploreStart(ctx context.Context, kind, startID string)

	// OnExploreComplete records the outcome of an exploration.
	OnExploreComplete(ctx context.Context, kind string, fulfilled, failed, iterations int, duration time.Duration, err error)
}

// =============================================================================
// Load Hooks
// =============================================================================

// LoadHooks receives events from graph document decoding.
type LoadHooks interface {
	// OnLoadStart records that a document in the given format is being read.
	OnLoadStart(ctx context.Context, format string)

	// OnLoadComplete records the size of the decoded graph.
	OnLoadComplete(ctx context.Context, format string, nodes, edges int, duration time.Duration, err error)
}

// =============================================================================
// Cache Hooks
// =============================================================================

// CacheHooks receives events from cache operations.
type CacheHooks interface {
	// OnCacheHit records a cache hit.
	OnCacheHit(ctx context.Context, keyType string)

	// OnCacheMiss records a cache miss.
	OnCacheMiss(ctx context.Context, keyType string)

	// OnCacheSet records a cache write.
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopTraversalHooks is a no-op implementation of TraversalHooks.
type NoopTraversalHooks struct{}

func (NoopTraversalHooks) OnExploreStart(context.Context, string, string) {}
func (NoopTraversalHooks) OnExploreComplete(context.Context, string, int, int, int, time.Duration, error) {
}

// NoopLoadHooks is a no-op implementation of LoadHooks.
type NoopLoadHooks struct{}

func (NoopLoadHooks) OnLoadStart(context.Context, string)                                    {}
func (NoopLoadHooks) OnLoadComplete(context.Context, string, int, int, time.Duration, error) {}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	traversalHooks TraversalHooks = NoopTraversalHooks{}
	loadHooks      LoadHooks      = NoopLoadHooks{}
	cacheHooks     CacheHooks     = NoopCacheHooks{}
	hooksMu        sync.RWMutex
)

// SetTraversalHooks registers custom traversal hooks.
// Nil is ignored.
func SetTraversalHooks(h TraversalHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		traversalHooks = h
	}
}

// SetLoadHooks registers custom load hooks.
func SetLoadHooks(h LoadHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		loadHooks = h
	}
}

// SetCacheHooks registers custom cache hooks.
func SetCacheHooks(h CacheHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cacheHooks = h
	}
}

// Traversal returns the registered traversal hooks.
func Traversal() TraversalHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return traversalHooks
}

// Load returns the registered load hooks.
func Load() LoadHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return loadHooks
}

// Cache returns the registered cache hooks.
func Cache() CacheHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return cacheHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	traversalHooks = NoopTraversalHooks{}
	loadHooks = NoopLoadHooks{}
	cacheHooks = NoopCacheHooks{}
}
