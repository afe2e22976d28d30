// Package observability provides hooks for metrics and tracing.
//
// The generation pipeline and the cache report events through hook
// interfaces. Nothing is recorded by default; a front end registers real
// implementations at startup (see the prom subpackage for a Prometheus
// text-file exporter).
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    m := prom.New()
//	    observability.SetGenerationHooks(m)
//	    observability.SetCacheHooks(m)
//	    // ... run application
//	}
//
// The pipeline calls hooks to emit events:
//
//	observability.Generation().OnDiagramStart(ctx, "orders")
//	// ... generate ...
//	observability.Generation().OnDiagramComplete(ctx, "orders", result, time.Since(start), err)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Generation Hooks
// =============================================================================

// DiagramResult summarizes one generated diagram.
type DiagramResult struct {
	Services      int
	Arrows        int
	DisabledLinks int
	Bytes         int
	Cached        bool
}

// GenerationHooks receives events from the diagram pipeline.
type GenerationHooks interface {
	// OnLoad fires after the graph and style resources were read.
	OnLoad(ctx context.Context, services int, duration time.Duration, err error)

	// OnDiagramStart and OnDiagramComplete bracket one diagram. The system
	// diagram is reported with an empty service name.
	OnDiagramStart(ctx context.Context, service string)
	OnDiagramComplete(ctx context.Context, service string, result DiagramResult, duration time.Duration, err error)
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

// NoopGenerationHooks is a no-op implementation of GenerationHooks.
type NoopGenerationHooks struct{}

func (NoopGenerationHooks) OnLoad(context.Context, int, time.Duration, error) {}
func (NoopGenerationHooks) OnDiagramStart(context.Context, string)          {}
func (NoopGenerationHooks) OnDiagramComplete(context.Context, string, DiagramResult, time.Duration, error) {
}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	generationHooks GenerationHooks = NoopGenerationHooks{}
	cacheHooks      CacheHooks      = NoopCacheHooks{}
	hooksMu         sync.RWMutex
)

// SetGenerationHooks registers generation hooks; nil is ignored. The runner
// reads the hooks once per diagram, so replacing them mid-run only affects
// diagrams that have not started.
func SetGenerationHooks(h GenerationHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		generationHooks = h
	}
}

// SetCacheHooks registers cache hooks; nil is ignored.
func SetCacheHooks(h CacheHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cacheHooks = h
	}
}

// Generation returns the registered generation hooks.
func Generation() GenerationHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return generationHooks
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
	generationHooks = NoopGenerationHooks{}
	cacheHooks = NoopCacheHooks{}
}
