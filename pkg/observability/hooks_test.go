package observability

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestNoopHooksDoNotPanic(t *testing.T) {
	ctx := context.Background()

	tr := NoopTraversalHooks{}
	tr.OnExploreStart(ctx, "dfg", "n1")
	tr.OnExploreComplete(ctx, "dfg", 2, 1, 10, time.Millisecond, nil)

	l := NoopLoadHooks{}
	l.OnLoadStart(ctx, "yaml")
	l.OnLoadComplete(ctx, "yaml", 12, 20, time.Millisecond, errors.New("boom"))

	c := NoopCacheHooks{}
	c.OnCacheHit(ctx, "query")
	c.OnCacheMiss(ctx, "query")
	c.OnCacheSet(ctx, "query", 1024)
}

func TestGlobalHooksRegistry(t *testing.T) {
	Reset()

	if _, ok := Traversal().(NoopTraversalHooks); !ok {
		t.Error("Traversal() should return NoopTraversalHooks by default")
	}
	if _, ok := Load().(NoopLoadHooks); !ok {
		t.Error("Load() should return NoopLoadHooks by default")
	}
	if _, ok := Cache().(NoopCacheHooks); !ok {
		t.Error("Cache() should return NoopCacheHooks by default")
	}

	customTraversal := &testTraversalHooks{}
	SetTraversalHooks(customTraversal)
	if Traversal() != customTraversal {
		t.Error("SetTraversalHooks should set custom hooks")
	}

	customLoad := &testLoadHooks{}
	SetLoadHooks(customLoad)
	if Load() != customLoad {
		t.Error("SetLoadHooks should set custom hooks")
	}

	customCache := &testCacheHooks{}
	SetCacheHooks(customCache)
	if Cache() != customCache {
		t.Error("SetCacheHooks should set custom hooks")
	}

	Reset()
	if _, ok := Traversal().(NoopTraversalHooks); !ok {
		t.Error("Reset() should restore NoopTraversalHooks")
	}
	if _, ok := Cache().(NoopCacheHooks); !ok {
		t.Error("Reset() should restore NoopCacheHooks")
	}
}

func TestSetNilHooksIsIgnored(t *testing.T) {
	Reset()
	defer Reset()

	custom := &testTraversalHooks{}
	SetTraversalHooks(custom)
	SetTraversalHooks(nil)

	if Traversal() != custom {
		t.Error("SetTraversalHooks(nil) should be ignored")
	}
}

type testTraversalHooks struct{ NoopTraversalHooks }
type testLoadHooks struct{ NoopLoadHooks }
type testCacheHooks struct{ NoopCacheHooks }
