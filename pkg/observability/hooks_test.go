package observability

import (
	"context"
	"testing"
	"time"
)

func TestNoopHooksDoNotPanic(t *testing.T) {
	ctx := context.Background()

	r := NoopResolutionHooks{}
	r.OnResolveStart(ctx, "Building", "1.0.0")
	r.OnResolveComplete(ctx, "Building", "1.0.0", time.Second, nil)
	r.OnLoad(ctx, "Building", "1.0.0", 2)

	c := NoopCacheHooks{}
	c.OnCacheHit(ctx, "building:1.0.0")
	c.OnCacheMiss(ctx, "units:1.0.2")
	c.OnCacheSet(ctx, "units:1.0.2")

	l := NoopLocateHooks{}
	l.OnLocate(ctx, "/tmp/schemas", 3)
}

func TestGlobalHooksRegistry(t *testing.T) {
	// Reset to known state
	Reset()

	// Verify defaults are noop
	if _, ok := Resolution().(NoopResolutionHooks); !ok {
		t.Error("Resolution() should return NoopResolutionHooks by default")
	}
	if _, ok := Cache().(NoopCacheHooks); !ok {
		t.Error("Cache() should return NoopCacheHooks by default")
	}
	if _, ok := Locate().(NoopLocateHooks); !ok {
		t.Error("Locate() should return NoopLocateHooks by default")
	}

	// Set custom hooks
	customResolution := &testResolutionHooks{}
	SetResolutionHooks(customResolution)
	if Resolution() != customResolution {
		t.Error("SetResolutionHooks should set custom hooks")
	}

	customCache := &testCacheHooks{}
	SetCacheHooks(customCache)
	if Cache() != customCache {
		t.Error("SetCacheHooks should set custom hooks")
	}

	customLocate := &testLocateHooks{}
	SetLocateHooks(customLocate)
	if Locate() != customLocate {
		t.Error("SetLocateHooks should set custom hooks")
	}

	// Nil registration keeps the current hooks
	SetResolutionHooks(nil)
	if Resolution() != customResolution {
		t.Error("SetResolutionHooks(nil) should be a no-op")
	}

	// Reset restores defaults
	Reset()
	if _, ok := Resolution().(NoopResolutionHooks); !ok {
		t.Error("Reset() should restore noop resolution hooks")
	}
	if _, ok := Cache().(NoopCacheHooks); !ok {
		t.Error("Reset() should restore noop cache hooks")
	}
	if _, ok := Locate().(NoopLocateHooks); !ok {
		t.Error("Reset() should restore noop locate hooks")
	}
}

type testResolutionHooks struct {
	NoopResolutionHooks
	starts int
}

func (h *testResolutionHooks) OnResolveStart(_ context.Context, _, _ string) {
	h.starts++
}

type testCacheHooks struct {
	NoopCacheHooks
	hits int
}

func (h *testCacheHooks) OnCacheHit(_ context.Context, _ string) {
	h.hits++
}

type testLocateHooks struct {
	NoopLocateHooks
	scans int
}

func (h *testLocateHooks) OnLocate(_ context.Context, _ string, _ int) {
	h.scans++
}
