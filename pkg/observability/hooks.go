// Package observability provides hooks for metrics, tracing, and logging.
//
// This package enables optional instrumentation without adding hard dependencies
// on specific observability backends. Consumers can register hooks at startup
// to receive events about schema resolution, session cache operations, and
// filesystem lookups.
//
// # Architecture
//
// The package uses a simple hooks pattern:
//   - Define hook interfaces for different event categories
//   - Provide no-op default implementations
//   - Allow registration of custom implementations at startup
//
// This approach:
//   - Avoids import cycles (hooks are registered by main, not by libraries)
//   - Keeps the core library dependency-free from observability frameworks
//   - Allows different backends (OpenTelemetry, Prometheus, DataDog, etc.)
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetResolutionHooks(&myResolutionHooks{})
//	    observability.SetCacheHooks(&myCacheHooks{})
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Resolution().OnResolveStart(ctx, name, version)
//	// ... resolve ...
//	observability.Resolution().OnResolveComplete(ctx, name, version, duration, err)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Resolution Hooks
// =============================================================================

// ResolutionHooks receives events from schema resolution.
type ResolutionHooks interface {
	// OnResolveStart records the beginning of a resolution request.
	OnResolveStart(ctx context.Context, name, version string)

	// OnResolveComplete records the outcome of a resolution request.
	OnResolveComplete(ctx context.Context, name, version string, duration time.Duration, err error)

	// OnLoad records a document being parsed into a schema.
	OnLoad(ctx context.Context, name, version string, referenceCount int)
}

// =============================================================================
// Cache Hooks
// =============================================================================

// CacheHooks receives events from session cache operations.
type CacheHooks interface {
	// OnCacheHit records a cache hit.
	OnCacheHit(ctx context.Context, key string)

	// OnCacheMiss records a cache miss.
	OnCacheMiss(ctx context.Context, key string)

	// OnCacheSet records a cache write.
	OnCacheSet(ctx context.Context, key string)
}

// =============================================================================
// Locate Hooks
// =============================================================================

// LocateHooks receives events from filesystem lookups.
type LocateHooks interface {
	// OnLocate records a directory scan for candidate files.
	OnLocate(ctx context.Context, dir string, candidates int)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopResolutionHooks is a no-op implementation of ResolutionHooks.
type NoopResolutionHooks struct{}

func (NoopResolutionHooks) OnResolveStart(context.Context, string, string) {}
func (NoopResolutionHooks) OnResolveComplete(context.Context, string, string, time.Duration, error) {
}
func (NoopResolutionHooks) OnLoad(context.Context, string, string, int) {}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)  {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string) {}
func (NoopCacheHooks) OnCacheSet(context.Context, string)  {}

// NoopLocateHooks is a no-op implementation of LocateHooks.
type NoopLocateHooks struct{}

func (NoopLocateHooks) OnLocate(context.Context, string, int) {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	resolutionHooks ResolutionHooks = NoopResolutionHooks{}
	cacheHooks      CacheHooks      = NoopCacheHooks{}
	locateHooks     LocateHooks     = NoopLocateHooks{}
	hooksMu         sync.RWMutex
)

// SetResolutionHooks registers custom resolution hooks.
// This should be called once at application startup before any resolution.
func SetResolutionHooks(h ResolutionHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		resolutionHooks = h
	}
}

// SetCacheHooks registers custom cache hooks.
// This should be called once at application startup before any resolution.
func SetCacheHooks(h CacheHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cacheHooks = h
	}
}

// SetLocateHooks registers custom locate hooks.
// This should be called once at application startup before any resolution.
func SetLocateHooks(h LocateHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		locateHooks = h
	}
}

// Resolution returns the registered resolution hooks.
func Resolution() ResolutionHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return resolutionHooks
}

// Cache returns the registered cache hooks.
func Cache() CacheHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return cacheHooks
}

// Locate returns the registered locate hooks.
func Locate() LocateHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return locateHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	resolutionHooks = NoopResolutionHooks{}
	cacheHooks = NoopCacheHooks{}
	locateHooks = NoopLocateHooks{}
}
